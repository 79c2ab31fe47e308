// SPDX-License-Identifier: MIT
package utils

import (
	"sort"

	"audioscope/internal/draw"
)

// ManualScheduler implements draw.Scheduler for tests: callbacks run only
// when Tick is called, as if the display refreshed once.
type ManualScheduler struct {
	next    draw.FrameID
	pending map[draw.FrameID]func()

	Requested int // Total RequestFrame calls.
	Cancelled int // CancelFrame calls that removed a pending callback.
}

var _ draw.Scheduler = (*ManualScheduler)(nil)

// NewManualScheduler returns an empty scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[draw.FrameID]func())}
}

// RequestFrame implements draw.Scheduler.
func (s *ManualScheduler) RequestFrame(fn func()) draw.FrameID {
	s.next++
	s.pending[s.next] = fn
	s.Requested++
	return s.next
}

// CancelFrame implements draw.Scheduler.
func (s *ManualScheduler) CancelFrame(id draw.FrameID) {
	if _, ok := s.pending[id]; ok {
		delete(s.pending, id)
		s.Cancelled++
	}
}

// Pending returns the number of callbacks waiting for the next tick.
func (s *ManualScheduler) Pending() int {
	return len(s.pending)
}

// Tick runs the callbacks that were pending when it was called, in request
// order. Callbacks requested while ticking wait for the next Tick.
func (s *ManualScheduler) Tick() int {
	ids := make([]draw.FrameID, 0, len(s.pending))
	for id := range s.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	ran := 0
	for _, id := range ids {
		fn, ok := s.pending[id]
		if !ok {
			continue
		}
		delete(s.pending, id)
		fn()
		ran++
	}
	return ran
}
