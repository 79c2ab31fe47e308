// SPDX-License-Identifier: MIT
package visualizer

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"audioscope/internal/analysis"
	"audioscope/internal/audio"
	"audioscope/internal/status"
	"audioscope/internal/surface"
	"audioscope/pkg/utils"
)

type harness struct {
	ev        events
	capturer  *fakeCapturer
	graph     *fakeGraph
	graphErr  error
	spectrum  *fakeElement
	waveform  *fakeElement
	scheduler loggedScheduler
	status    *statusLog
	c         *Controller
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{}
	h.capturer = &fakeCapturer{ev: &h.ev}
	h.graph = &fakeGraph{ev: &h.ev, node: &fakeNode{fftSize: 2048, level: -50}}
	h.spectrum = &fakeElement{name: "spectrum", width: 300, height: 150, ev: &h.ev}
	h.waveform = &fakeElement{name: "waveform", width: 300, height: 100, ev: &h.ev}
	h.scheduler = loggedScheduler{ManualScheduler: utils.NewManualScheduler(), ev: &h.ev}
	h.status = &statusLog{ev: &h.ev}

	h.c = NewController(Options{
		Capturer: h.capturer,
		NewGraph: func(audio.Source, analysis.Config) (Graph, error) {
			if h.graphErr != nil {
				return nil, h.graphErr
			}
			return h.graph, nil
		},
		Analyser:  analysis.DefaultConfig(),
		Surfaces:  surface.NewManager(h.spectrum, h.waveform, func() float64 { return 2 }),
		Scheduler: h.scheduler,
		Status:    h.status,
	})
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	if err := h.c.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if got := h.c.State(); got != Capturing {
		t.Fatalf("state after Start = %v, want capturing", got)
	}
}

func TestNewController_InitialStatus(t *testing.T) {
	h := newHarness(t)
	if h.c.State() != Idle {
		t.Errorf("state = %v, want idle", h.c.State())
	}
	if h.status.last() != status.Idle || !h.status.start || h.status.stop {
		t.Errorf("status %v start=%t stop=%t", h.status.last(), h.status.start, h.status.stop)
	}
}

func TestStart_Success(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	want := []status.Status{status.Idle, status.Starting, status.Capturing}
	if !slices.Equal(h.status.statuses, want) {
		t.Errorf("statuses = %v, want %v", h.status.statuses, want)
	}
	if h.status.start || !h.status.stop {
		t.Errorf("controls start=%t stop=%t, want start disabled", h.status.start, h.status.stop)
	}
	if h.scheduler.Pending() != 1 {
		t.Fatalf("pending frames = %d, want 1", h.scheduler.Pending())
	}

	h.scheduler.Tick()

	sp := h.spectrum.rec
	if sp.Count("Fill") != 1 || sp.Count("Stroke") != 1 {
		t.Errorf("spectrum frame: %d fills, %d strokes", sp.Count("Fill"), sp.Count("Stroke"))
	}
	// -50 dB sits halfway between -90 and -10.
	if mv := sp.Named("MoveTo"); len(mv) == 0 || mv[0].Args[1] != 75 {
		t.Errorf("spectrum curve starts at %v, want y=75", mv)
	}
	wf := h.waveform.rec
	if wf.Count("LineTo") != 2047 || wf.Count("Stroke") != 1 {
		t.Errorf("waveform frame: %d segments, %d strokes", wf.Count("LineTo"), wf.Count("Stroke"))
	}
	if h.scheduler.Pending() != 1 {
		t.Errorf("render loop did not schedule the next frame")
	}
}

func TestStart_WhileCapturingIsNoOp(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	requested := h.scheduler.Requested

	if err := h.c.Start(context.Background()); err != nil {
		t.Fatalf("second Start error: %v", err)
	}
	if h.capturer.calls != 1 {
		t.Errorf("capture requested %d times, want 1", h.capturer.calls)
	}
	if h.scheduler.Requested != requested || h.scheduler.Pending() != 1 {
		t.Error("second Start scheduled another render loop")
	}
}

func TestStart_Failure(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(h *harness)
		wantMsg string
		wantIs  error
	}{
		{
			name:    "permission denied",
			setup:   func(h *harness) { h.capturer.err = errors.New("Permission denied by user") },
			wantMsg: "Permission denied by user",
		},
		{
			name:    "no message",
			setup:   func(h *harness) { h.capturer.err = errors.New("") },
			wantMsg: FallbackErrorMessage,
		},
		{
			name:   "no audio track",
			setup:  func(h *harness) { h.capturer.noTracks = true },
			wantIs: audio.ErrPermissionDeniedOrUnavailable,
		},
		{
			name:   "graph construction",
			setup:  func(h *harness) { h.graphErr = analysis.ErrGraphConstruction },
			wantIs: analysis.ErrGraphConstruction,
		},
		{
			name:   "resume fails",
			setup:  func(h *harness) { h.graph.resumeErr = analysis.ErrGraphClosed },
			wantIs: analysis.ErrGraphClosed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h)

			err := h.c.Start(context.Background())
			if !errors.Is(err, ErrCaptureUnavailable) {
				t.Fatalf("Start error = %v, want ErrCaptureUnavailable", err)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("Start error = %v, want it to wrap %v", err, tt.wantIs)
			}
			if h.c.State() != Error {
				t.Errorf("state = %v, want error", h.c.State())
			}
			if h.status.last() != status.Error || !h.status.visible || len(h.status.errors) != 1 {
				t.Fatalf("status %v visible=%t errors=%q", h.status.last(), h.status.visible, h.status.errors)
			}
			if tt.wantMsg != "" && h.status.errors[0] != tt.wantMsg {
				t.Errorf("error message = %q, want %q", h.status.errors[0], tt.wantMsg)
			}
			if !h.status.start || h.status.stop {
				t.Error("start control not re-enabled after failure")
			}
			if h.capturer.track != nil && h.capturer.track.Live() {
				t.Error("partially acquired track left running")
			}
			if h.scheduler.Pending() != 0 {
				t.Error("render loop scheduled after failure")
			}
		})
	}
}

func TestStart_RetryAfterFailure(t *testing.T) {
	h := newHarness(t)
	h.capturer.err = errors.New("device busy")
	if err := h.c.Start(context.Background()); err == nil {
		t.Fatal("expected first Start to fail")
	}

	h.capturer.err = nil
	h.start(t)
	if h.status.visible {
		t.Error("stale error still visible after a successful start")
	}
}

func TestStop_Order(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	h.ev = nil

	h.c.Stop()

	want := events{"cancel", "stop-track", "close-graph", "clear:spectrum", "clear:waveform", "status:Stopped"}
	if !slices.Equal(h.ev, want) {
		t.Errorf("teardown order = %v, want %v", h.ev, want)
	}
	if h.c.State() != Idle {
		t.Errorf("state = %v, want idle", h.c.State())
	}
	if !h.status.start || h.status.stop {
		t.Error("controls not reset after Stop")
	}
	if h.scheduler.Pending() != 0 {
		t.Error("frame still pending after Stop")
	}
}

func TestStop_Idempotent(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	h.c.Stop()
	h.ev = nil

	h.c.Stop()
	h.c.Close()

	if len(h.ev) != 0 {
		t.Errorf("repeated Stop produced %v", h.ev)
	}
	if h.graph.closes != 1 || h.capturer.track.stops != 1 {
		t.Errorf("graph closed %d times, track stopped %d times", h.graph.closes, h.capturer.track.stops)
	}
	if h.c.State() != Idle {
		t.Errorf("state = %v, want idle", h.c.State())
	}
}

func TestStop_SwallowsGraphCloseErrors(t *testing.T) {
	for _, closeErr := range []error{analysis.ErrGraphClosed, errors.New("driver fault")} {
		h := newHarness(t)
		h.graph.closeErr = closeErr
		h.start(t)

		h.c.Stop()

		if h.c.State() != Idle || h.status.last() != status.Stopped {
			t.Errorf("%v: state %v status %v", closeErr, h.c.State(), h.status.last())
		}
		if len(h.status.errors) != 0 {
			t.Errorf("%v: teardown surfaced %q", closeErr, h.status.errors)
		}
	}
}

func TestStop_DuringStarting(t *testing.T) {
	h := newHarness(t)
	h.capturer.onRequest = func() {
		if h.c.State() != Starting {
			t.Errorf("state during acquisition = %v, want starting", h.c.State())
		}
		h.c.Stop()
	}

	if err := h.c.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if h.c.State() != Idle {
		t.Errorf("state = %v, want idle", h.c.State())
	}
	if h.capturer.track.Live() {
		t.Error("source acquired during an abandoned start is still live")
	}
	if h.scheduler.Requested != 0 {
		t.Error("abandoned start scheduled a frame")
	}
	if h.status.last() != status.Stopped {
		t.Errorf("status = %v, want Stopped", h.status.last())
	}
}

func TestFrameFault_StopsAndReports(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	h.graph.node.panics = true

	h.scheduler.Tick()

	if h.c.State() != Error {
		t.Errorf("state = %v, want error", h.c.State())
	}
	if len(h.status.errors) != 1 || !strings.Contains(h.status.errors[0], "analyser exploded") {
		t.Errorf("errors = %q", h.status.errors)
	}
	if h.capturer.track.Live() || h.graph.closes != 1 {
		t.Error("faulted frame did not release the session")
	}
	if h.scheduler.Pending() != 0 {
		t.Error("render loop continued after a fault")
	}

	// Start is available again.
	h.graph.node.panics = false
	h.start(t)
}

func TestRenderFrame_AfterStopDrawsNothing(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	h.c.Stop()
	ops := len(h.spectrum.rec.Ops)

	h.c.renderFrame()

	if len(h.spectrum.rec.Ops) != ops {
		t.Error("stale frame drew after Stop")
	}
}

func TestResize_KeepsCapture(t *testing.T) {
	h := newHarness(t)
	h.start(t)

	h.spectrum.width = 600
	h.c.Resize()

	if h.c.State() != Capturing || h.scheduler.Pending() != 1 {
		t.Fatal("resize interrupted capture")
	}
	h.scheduler.Tick()

	// The fill path closes at the bottom-right corner of the new width.
	var maxX float64
	for _, op := range h.spectrum.rec.Named("LineTo") {
		maxX = max(maxX, op.Args[0])
	}
	if maxX != 600 {
		t.Errorf("spectrum spans to x=%v, want 600", maxX)
	}
}

func TestToggle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.c.Toggle(ctx); err != nil || h.c.State() != Capturing {
		t.Fatalf("Toggle from idle: state %v, err %v", h.c.State(), err)
	}
	if err := h.c.Toggle(ctx); err != nil || h.c.State() != Idle {
		t.Fatalf("Toggle from capturing: state %v, err %v", h.c.State(), err)
	}
}

func TestTransition(t *testing.T) {
	valid := map[[2]State]bool{
		{Idle, Starting}:      true,
		{Error, Starting}:     true,
		{Starting, Capturing}: true,
		{Starting, Error}:     true,
		{Starting, Idle}:      true,
		{Capturing, Idle}:     true,
		{Capturing, Error}:    true,
	}

	states := []State{Idle, Starting, Capturing, Error}
	for _, from := range states {
		for _, to := range states {
			got, err := transition(from, to)
			if valid[[2]State{from, to}] {
				if err != nil || got != to {
					t.Errorf("transition(%v, %v) = %v, %v; want allowed", from, to, got, err)
				}
				continue
			}
			if !errors.Is(err, ErrInvalidTransition) || got != from {
				t.Errorf("transition(%v, %v) = %v, %v; want ErrInvalidTransition", from, to, got, err)
			}
		}
	}
}
