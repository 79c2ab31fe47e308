// SPDX-License-Identifier: MIT

// Package status carries user-visible capture status to one or more sinks.
package status

import (
	"fmt"
	"sync"

	"audioscope/internal/log"
)

// Status is the text shown in the status slot.
type Status int

const (
	Idle Status = iota
	Starting
	Capturing
	Stopped
	Error
)

var statusText = [...]string{
	Idle:      "Idle",
	Starting:  "Starting…",
	Capturing: "Capturing…",
	Stopped:   "Stopped",
	Error:     "Error",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusText) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusText[s]
}

// Sink displays status, an error message slot and the enabled state of the
// start and stop controls.
type Sink interface {
	SetStatus(s Status)
	ShowError(msg string)
	HideError()
	SetControls(startEnabled, stopEnabled bool)
}

// Multi fans every call out to each sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type multi []Sink

func (m multi) SetStatus(s Status) {
	for _, sink := range m {
		sink.SetStatus(s)
	}
}

func (m multi) ShowError(msg string) {
	for _, sink := range m {
		sink.ShowError(msg)
	}
}

func (m multi) HideError() {
	for _, sink := range m {
		sink.HideError()
	}
}

func (m multi) SetControls(startEnabled, stopEnabled bool) {
	for _, sink := range m {
		sink.SetControls(startEnabled, stopEnabled)
	}
}

// LogSink writes status changes to the application log.
type LogSink struct{}

func (LogSink) SetStatus(s Status)   { log.Infof("Status: %s", s) }
func (LogSink) ShowError(msg string) { log.Errorf("Status: %s", msg) }
func (LogSink) HideError()           {}

func (LogSink) SetControls(startEnabled, stopEnabled bool) {
	log.Debugf("Status: controls start=%t stop=%t", startEnabled, stopEnabled)
}

// Snapshot is a point-in-time copy of a Board.
type Snapshot struct {
	Status       Status
	Error        string
	ErrorVisible bool
	StartEnabled bool
	StopEnabled  bool
}

// Board is a Sink that keeps the latest values for a display to poll. It is
// safe for concurrent use.
type Board struct {
	mu   sync.Mutex
	snap Snapshot
}

// NewBoard returns a board showing Idle with only start enabled.
func NewBoard() *Board {
	return &Board{snap: Snapshot{Status: Idle, StartEnabled: true}}
}

func (b *Board) SetStatus(s Status) {
	b.mu.Lock()
	b.snap.Status = s
	b.mu.Unlock()
}

func (b *Board) ShowError(msg string) {
	b.mu.Lock()
	b.snap.Error, b.snap.ErrorVisible = msg, true
	b.mu.Unlock()
}

func (b *Board) HideError() {
	b.mu.Lock()
	b.snap.ErrorVisible = false
	b.mu.Unlock()
}

func (b *Board) SetControls(startEnabled, stopEnabled bool) {
	b.mu.Lock()
	b.snap.StartEnabled, b.snap.StopEnabled = startEnabled, stopEnabled
	b.mu.Unlock()
}

// Snapshot returns the current values.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap
}
