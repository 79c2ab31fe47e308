// SPDX-License-Identifier: MIT

/*
Package audio provides the capture service: live input through PortAudio or
real-time replay of a decoded audio file. A capture request yields a Source
whose PCM chunks are pushed to a single connected Sink, and whose tracks are
stopped to release the underlying device.
*/
package audio

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
)

// ErrPermissionDeniedOrUnavailable is returned when a capture request fails:
// the device is missing, busy or access was refused.
var ErrPermissionDeniedOrUnavailable = errors.New("audio input is unavailable or permission was denied")

// Constraints selects the media a capture request asks for.
type Constraints struct {
	Audio bool
	Video bool
}

// Capturer acquires live audio sources.
type Capturer interface {
	RequestCapture(ctx context.Context, c Constraints) (Source, error)
}

// Sink receives interleaved PCM chunks from a Source. Write is called on the
// capture goroutine and must not retain buf.
type Sink interface {
	Write(buf *goaudio.Float32Buffer)
}

// Source is an acquired capture stream.
type Source interface {
	// SampleRate of the delivered chunks in Hz.
	SampleRate() int
	// Connect routes chunks to sink. A nil sink disconnects.
	Connect(sink Sink)
	// Tracks lists the tracks backing the source.
	Tracks() []Track
}

// Track is one media track of a Source. Stop is idempotent.
type Track interface {
	Kind() string
	Label() string
	Stop()
	Live() bool
}

// StopTracks stops every track of src.
func StopTracks(src Source) {
	if src == nil {
		return
	}
	for _, t := range src.Tracks() {
		t.Stop()
	}
}

// sinkSlot holds the connected sink for lock-free reads from the capture
// goroutine.
type sinkSlot struct {
	p atomic.Pointer[Sink]
}

func (s *sinkSlot) set(sink Sink) {
	if sink == nil {
		s.p.Store(nil)
		return
	}
	s.p.Store(&sink)
}

func (s *sinkSlot) write(buf *goaudio.Float32Buffer) {
	if p := s.p.Load(); p != nil {
		(*p).Write(buf)
	}
}

// track is an audio track whose release runs exactly once.
type track struct {
	label   string
	once    sync.Once
	stopped atomic.Bool
	release func()
}

func newTrack(label string, release func()) *track {
	return &track{label: label, release: release}
}

func (t *track) Kind() string  { return "audio" }
func (t *track) Label() string { return t.label }
func (t *track) Live() bool    { return !t.stopped.Load() }

func (t *track) Stop() {
	t.once.Do(func() {
		t.stopped.Store(true)
		if t.release != nil {
			t.release()
		}
	})
}
