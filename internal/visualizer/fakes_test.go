// SPDX-License-Identifier: MIT
package visualizer

import (
	"context"

	"audioscope/internal/analysis"
	"audioscope/internal/audio"
	"audioscope/internal/draw"
	"audioscope/internal/status"
	"audioscope/pkg/utils"
)

// events is a shared, ordered log of collaborator calls.
type events []string

func (e *events) add(s string) { *e = append(*e, s) }

type fakeTrack struct {
	ev    *events
	stops int
}

func (t *fakeTrack) Kind() string  { return "audio" }
func (t *fakeTrack) Label() string { return "fake microphone" }
func (t *fakeTrack) Live() bool    { return t.stops == 0 }

func (t *fakeTrack) Stop() {
	if t.stops == 0 {
		t.ev.add("stop-track")
	}
	t.stops++
}

type fakeSource struct {
	tracks []audio.Track
}

func (s *fakeSource) SampleRate() int       { return 44100 }
func (s *fakeSource) Connect(audio.Sink)    {}
func (s *fakeSource) Tracks() []audio.Track { return s.tracks }

type fakeCapturer struct {
	ev        *events
	err       error
	noTracks  bool
	calls     int
	onRequest func()
	track     *fakeTrack
}

func (c *fakeCapturer) RequestCapture(ctx context.Context, cons audio.Constraints) (audio.Source, error) {
	c.calls++
	if c.onRequest != nil {
		c.onRequest()
	}
	if c.err != nil {
		return nil, c.err
	}
	if !cons.Audio || cons.Video {
		return nil, audio.ErrPermissionDeniedOrUnavailable
	}
	if c.noTracks {
		return &fakeSource{}, nil
	}
	c.track = &fakeTrack{ev: c.ev}
	return &fakeSource{tracks: []audio.Track{c.track}}, nil
}

type fakeNode struct {
	fftSize int
	level   float32
	panics  bool
}

func (n *fakeNode) FFTSize() int                   { return n.fftSize }
func (n *fakeNode) FrequencyBinCount() int         { return n.fftSize / 2 }
func (n *fakeNode) MinDecibels() float64           { return -90 }
func (n *fakeNode) MaxDecibels() float64           { return -10 }
func (n *fakeNode) SmoothingTimeConstant() float64 { return 0.8 }

func (n *fakeNode) FloatFrequencyData(dst []float32) {
	if n.panics {
		panic("analyser exploded")
	}
	for i := range dst {
		dst[i] = n.level
	}
}

func (n *fakeNode) FloatTimeDomainData(dst []float32) {
	clear(dst)
}

type fakeGraph struct {
	ev        *events
	node      *fakeNode
	resumeErr error
	closeErr  error
	closes    int
}

func (g *fakeGraph) Analyser() analysis.Node { return g.node }
func (g *fakeGraph) Resume() error           { return g.resumeErr }

func (g *fakeGraph) Close() error {
	g.closes++
	g.ev.add("close-graph")
	return g.closeErr
}

// loggedContext records ClearRect calls into the shared event log.
type loggedContext struct {
	*utils.Recorder
	name string
	ev   *events
}

func (c loggedContext) ClearRect(x, y, w, h float64) {
	c.ev.add("clear:" + c.name)
	c.Recorder.ClearRect(x, y, w, h)
}

type fakeElement struct {
	name          string
	width, height float64
	ev            *events
	rec           *utils.Recorder
}

func (e *fakeElement) LayoutSize() (float64, float64) { return e.width, e.height }
func (e *fakeElement) SetBackingSize(int, int)        {}

func (e *fakeElement) Context() draw.Context {
	e.rec = &utils.Recorder{}
	return loggedContext{Recorder: e.rec, name: e.name, ev: e.ev}
}

type loggedScheduler struct {
	*utils.ManualScheduler
	ev *events
}

func (s loggedScheduler) CancelFrame(id draw.FrameID) {
	s.ev.add("cancel")
	s.ManualScheduler.CancelFrame(id)
}

type statusLog struct {
	ev       *events
	statuses []status.Status
	errors   []string
	visible  bool
	start    bool
	stop     bool
}

func (s *statusLog) SetStatus(st status.Status) {
	s.ev.add("status:" + st.String())
	s.statuses = append(s.statuses, st)
}

func (s *statusLog) ShowError(msg string) {
	s.errors = append(s.errors, msg)
	s.visible = true
}

func (s *statusLog) HideError() { s.visible = false }

func (s *statusLog) SetControls(start, stop bool) { s.start, s.stop = start, stop }

func (s *statusLog) last() status.Status {
	if len(s.statuses) == 0 {
		return -1
	}
	return s.statuses[len(s.statuses)-1]
}
