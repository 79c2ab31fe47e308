// SPDX-License-Identifier: MIT
package display

import (
	"slices"
	"sync"

	"audioscope/internal/draw"
)

// FrameScheduler implements draw.Scheduler on the display's Draw tick.
// Callbacks requested from any goroutine run on the next RunPending call.
type FrameScheduler struct {
	mu      sync.Mutex
	next    draw.FrameID
	pending map[draw.FrameID]func()
	ids     []draw.FrameID // RunPending scratch.
}

var _ draw.Scheduler = (*FrameScheduler)(nil)

// NewFrameScheduler returns an empty scheduler.
func NewFrameScheduler() *FrameScheduler {
	return &FrameScheduler{pending: make(map[draw.FrameID]func())}
}

// RequestFrame implements draw.Scheduler.
func (s *FrameScheduler) RequestFrame(fn func()) draw.FrameID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.pending[s.next] = fn
	return s.next
}

// CancelFrame implements draw.Scheduler.
func (s *FrameScheduler) CancelFrame(id draw.FrameID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
}

// RunPending runs, in request order, the callbacks pending when it was
// called. Callbacks may request or cancel frames; new requests wait for the
// next tick. A callback cancelled by an earlier one in the same tick does not
// run.
func (s *FrameScheduler) RunPending() int {
	s.mu.Lock()
	s.ids = s.ids[:0]
	for id := range s.pending {
		s.ids = append(s.ids, id)
	}
	slices.Sort(s.ids)
	s.mu.Unlock()

	ran := 0
	for _, id := range s.ids {
		s.mu.Lock()
		fn, ok := s.pending[id]
		delete(s.pending, id)
		s.mu.Unlock()
		if !ok {
			continue
		}
		fn()
		ran++
	}
	return ran
}

// Pending returns the number of callbacks waiting for the next tick.
func (s *FrameScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
