// SPDX-License-Identifier: MIT

/*
Package transport exposes the capture controller to remote clients. Status
changes are published as JSON events and clients may send start and stop
commands back.
*/
package transport

import (
	"context"

	"audioscope/internal/status"
)

// Event types sent to clients.
const (
	EventStatus   = "status"
	EventError    = "error"
	EventControls = "controls"
)

// Command types accepted from clients.
const (
	CommandStart = "start"
	CommandStop  = "stop"
)

// Event is one message published to clients.
type Event struct {
	Type    string `json:"type"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Visible *bool  `json:"visible,omitempty"`
	Start   *bool  `json:"start,omitempty"`
	Stop    *bool  `json:"stop,omitempty"`
}

// Command is one message received from a client.
type Command struct {
	Type string `json:"type"`
}

// Transport defines a generic interface for publishing events.
// Implementations should be thread-safe.
type Transport interface {
	Send(e Event) error
	Close() error
}

// Controller receives remote commands.
type Controller interface {
	Start(ctx context.Context) error
	Stop()
}

// StatusSink adapts a Transport to status.Sink.
type StatusSink struct {
	T Transport
}

var _ status.Sink = StatusSink{}

func (s StatusSink) SetStatus(st status.Status) {
	s.send(Event{Type: EventStatus, Status: st.String()})
}

func (s StatusSink) ShowError(msg string) {
	s.send(Event{Type: EventError, Message: msg, Visible: ptr(true)})
}

func (s StatusSink) HideError() {
	s.send(Event{Type: EventError, Visible: ptr(false)})
}

func (s StatusSink) SetControls(startEnabled, stopEnabled bool) {
	s.send(Event{Type: EventControls, Start: ptr(startEnabled), Stop: ptr(stopEnabled)})
}

func (s StatusSink) send(e Event) {
	// Status delivery is best effort.
	_ = s.T.Send(e)
}

func ptr[T any](v T) *T { return &v }
