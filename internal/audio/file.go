// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"audioscope/internal/log"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	mp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// ErrUnsupportedFormat is returned for files that are not WAV, MP3 or Ogg Vorbis.
var ErrUnsupportedFormat = errors.New("unsupported audio file format")

// decoded is a whole file downmixed to mono.
type decoded struct {
	samples    []float32
	sampleRate int
}

type decodeFunc func(r io.ReadSeeker) (*decoded, error)

var decoders = map[string]decodeFunc{
	".wav":  decodeWAV,
	".wave": decodeWAV,
	".mp3":  decodeMP3,
	".ogg":  decodeOgg,
	".oga":  decodeOgg,
}

// FileCapturer replays a decoded audio file in real time as if it were a
// live input, looping at the end.
type FileCapturer struct {
	path            string
	framesPerBuffer int
}

var _ Capturer = (*FileCapturer)(nil)

// NewFileCapturer returns a capturer replaying path in chunks of
// framesPerBuffer frames.
func NewFileCapturer(path string, framesPerBuffer int) *FileCapturer {
	if framesPerBuffer <= 0 {
		framesPerBuffer = 512
	}
	return &FileCapturer{path: path, framesPerBuffer: framesPerBuffer}
}

// RequestCapture decodes the file and starts replay. Every failure wraps
// ErrPermissionDeniedOrUnavailable.
func (c *FileCapturer) RequestCapture(ctx context.Context, cons Constraints) (Source, error) {
	if !cons.Audio || cons.Video {
		return nil, fmt.Errorf("%w: only audio capture is supported", ErrPermissionDeniedOrUnavailable)
	}

	dec, err := decodeFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPermissionDeniedOrUnavailable, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPermissionDeniedOrUnavailable, err)
	}

	src := newFileSource(filepath.Base(c.path), dec, c.framesPerBuffer)
	log.Infof("Capture: replaying %q (%d Hz, %.1fs)", c.path, dec.sampleRate,
		float64(len(dec.samples))/float64(dec.sampleRate))
	return src, nil
}

func decodeFile(path string) (*decoded, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	dec, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	if len(dec.samples) == 0 || dec.sampleRate <= 0 {
		return nil, fmt.Errorf("%s contains no audio", filepath.Base(path))
	}
	return dec, nil
}

func decodeWAV(r io.ReadSeeker) (*decoded, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, errors.New("not a valid WAV file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, err
	}

	bitDepth := int(d.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float32(int64(1) << (bitDepth - 1))
	offset := 0
	if bitDepth == 8 {
		// 8-bit WAV is unsigned.
		offset = 128
	}

	fb := &goaudio.Float32Buffer{
		Format: buf.Format,
		Data:   make([]float32, len(buf.Data)),
	}
	for i, v := range buf.Data {
		fb.Data[i] = float32(v-offset) / scale
	}
	return &decoded{samples: Downmix(nil, fb), sampleRate: int(d.SampleRate)}, nil
}

func decodeMP3(r io.ReadSeeker) (*decoded, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, err
	}
	raw, err := io.ReadAll(d)
	if err != nil {
		return nil, err
	}

	// go-mp3 always yields 16-bit little endian stereo.
	fb := &goaudio.Float32Buffer{
		Format: &goaudio.Format{NumChannels: 2, SampleRate: d.SampleRate()},
		Data:   make([]float32, len(raw)/2),
	}
	for i := range fb.Data {
		fb.Data[i] = float32(int16(binary.LittleEndian.Uint16(raw[2*i:]))) / 32768
	}
	return &decoded{samples: Downmix(nil, fb), sampleRate: d.SampleRate()}, nil
}

func decodeOgg(r io.ReadSeeker) (*decoded, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fb := &goaudio.Float32Buffer{
		Format: &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		Data:   data,
	}
	return &decoded{samples: Downmix(nil, fb), sampleRate: format.SampleRate}, nil
}

// fileSource paces a decoded file out in real time.
type fileSource struct {
	dec   *decoded
	sink  sinkSlot
	track *track

	done chan struct{}
	wg   sync.WaitGroup
}

func newFileSource(label string, dec *decoded, framesPerBuffer int) *fileSource {
	s := &fileSource{dec: dec, done: make(chan struct{})}
	s.track = newTrack(label, func() {
		close(s.done)
		s.wg.Wait()
		log.Infof("Capture: stopped replay of %q", label)
	})

	s.wg.Add(1)
	go s.run(framesPerBuffer)
	return s
}

func (s *fileSource) SampleRate() int   { return s.dec.sampleRate }
func (s *fileSource) Connect(sink Sink) { s.sink.set(sink) }
func (s *fileSource) Tracks() []Track   { return []Track{s.track} }

func (s *fileSource) run(framesPerBuffer int) {
	defer s.wg.Done()

	interval := time.Duration(float64(framesPerBuffer) / float64(s.dec.sampleRate) * float64(time.Second))
	ticker := time.NewTicker(max(interval, time.Millisecond))
	defer ticker.Stop()

	buf := &goaudio.Float32Buffer{
		Format: &goaudio.Format{NumChannels: 1, SampleRate: s.dec.sampleRate},
		Data:   make([]float32, framesPerBuffer),
	}
	samples := s.dec.samples
	pos := 0

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		buf.Data = buf.Data[:framesPerBuffer]
		for i := range buf.Data {
			buf.Data[i] = samples[pos]
			pos++
			if pos == len(samples) {
				pos = 0
			}
		}
		s.sink.write(buf)
	}
}
