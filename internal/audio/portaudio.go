// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"audioscope/internal/config"
	"audioscope/internal/log"

	goaudio "github.com/go-audio/audio"
	"github.com/gordonklaus/portaudio"
)

// Stream entry points, replaceable in tests.
var paOpenStream = func(p portaudio.StreamParameters, callback func(in []float32)) (paStream, error) {
	return portaudio.OpenStream(p, callback)
}

type paStream interface {
	Start() error
	Stop() error
	Close() error
}

// PortAudioCapturer captures from a PortAudio input device.
type PortAudioCapturer struct {
	cfg config.AudioConfig
}

var _ Capturer = (*PortAudioCapturer)(nil)

// NewPortAudioCapturer returns a capturer for the device named in cfg.
func NewPortAudioCapturer(cfg config.AudioConfig) *PortAudioCapturer {
	return &PortAudioCapturer{cfg: cfg}
}

// RequestCapture initializes PortAudio, opens the configured input device
// and starts streaming. Every failure wraps ErrPermissionDeniedOrUnavailable.
func (c *PortAudioCapturer) RequestCapture(ctx context.Context, cons Constraints) (Source, error) {
	if !cons.Audio {
		return nil, fmt.Errorf("%w: no audio requested", ErrPermissionDeniedOrUnavailable)
	}
	if cons.Video {
		return nil, fmt.Errorf("%w: video capture is not supported", ErrPermissionDeniedOrUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPermissionDeniedOrUnavailable, err)
	}

	if err := Initialize(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPermissionDeniedOrUnavailable, err)
	}

	src, err := c.open()
	if err != nil {
		if termErr := Terminate(); termErr != nil {
			log.Warnf("Capture: %v", termErr)
		}
		return nil, fmt.Errorf("%w: %w", ErrPermissionDeniedOrUnavailable, err)
	}
	return src, nil
}

func (c *PortAudioCapturer) open() (*deviceSource, error) {
	device, err := InputDevice(c.cfg.InputDevice)
	if err != nil {
		return nil, err
	}

	channels := min(max(c.cfg.InputChannels, 1), device.MaxInputChannels)
	latency := device.DefaultHighInputLatency
	if c.cfg.LowLatency {
		latency = device.DefaultLowInputLatency
	}

	src := &deviceSource{
		sampleRate: int(c.cfg.SampleRate),
		buf: &goaudio.Float32Buffer{
			Format: &goaudio.Format{NumChannels: channels, SampleRate: int(c.cfg.SampleRate)},
			Data:   make([]float32, c.cfg.FramesPerBuffer*channels),
		},
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  latency,
		},
		FramesPerBuffer: c.cfg.FramesPerBuffer,
		SampleRate:      c.cfg.SampleRate,
	}

	stream, err := paOpenStream(params, src.process)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream on %q: %w", device.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("failed to start input stream on %q: %w", device.Name, err)
	}

	log.Infof("Capture: streaming from %q (%d ch, %.0f Hz, %d frames, latency %v)",
		device.Name, channels, c.cfg.SampleRate, c.cfg.FramesPerBuffer, latency.Round(time.Millisecond))

	src.track = newTrack(device.Name, func() {
		if err := stream.Stop(); err != nil {
			log.Warnf("Capture: failed to stop input stream: %v", err)
		}
		if err := stream.Close(); err != nil {
			log.Warnf("Capture: failed to close input stream: %v", err)
		}
		if err := Terminate(); err != nil {
			log.Warnf("Capture: %v", err)
		}
		log.Infof("Capture: released %q", device.Name)
	})
	return src, nil
}

// deviceSource is a live PortAudio stream.
type deviceSource struct {
	sampleRate int
	sink       sinkSlot
	track      *track

	// Reused for every callback; the stream callback never runs concurrently
	// with itself.
	buf *goaudio.Float32Buffer
}

func (s *deviceSource) SampleRate() int   { return s.sampleRate }
func (s *deviceSource) Connect(sink Sink) { s.sink.set(sink) }
func (s *deviceSource) Tracks() []Track   { return []Track{s.track} }

// process is the PortAudio stream callback. It runs on PortAudio's thread and
// only copies into the preallocated buffer.
func (s *deviceSource) process(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := copy(s.buf.Data[:cap(s.buf.Data)], in)
	s.buf.Data = s.buf.Data[:n]
	s.sink.write(s.buf)
}
