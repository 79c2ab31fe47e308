// SPDX-License-Identifier: MIT

/*
Package visualizer runs the capture lifecycle: it acquires audio, drives the
per-frame render loop for the spectrum and waveform panes and reports
progress to a status sink.

A Controller moves through Idle, Starting, Capturing and Error. A session
exists only while Capturing. Start and Stop may be called from any
goroutine; frames run on the scheduler's goroutine.
*/
package visualizer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"audioscope/internal/analysis"
	"audioscope/internal/audio"
	"audioscope/internal/draw"
	"audioscope/internal/log"
	"audioscope/internal/render"
	"audioscope/internal/status"
	"audioscope/internal/surface"
)

// FallbackErrorMessage is shown when a capture failure carries no message.
const FallbackErrorMessage = "Unable to access audio input."

var (
	// ErrCaptureUnavailable is returned by Start when capture cannot begin.
	ErrCaptureUnavailable = errors.New("capture unavailable")
	// ErrFrameFault marks a failure while drawing a frame.
	ErrFrameFault = errors.New("frame fault")
	// ErrInvalidTransition is returned for a state change the lifecycle
	// does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// State is the lifecycle state of a Controller.
type State int

const (
	Idle State = iota
	Starting
	Capturing
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Starting:
		return "starting"
	case Capturing:
		return "capturing"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// transition validates a state change.
func transition(from, to State) (State, error) {
	switch {
	case (from == Idle || from == Error) && to == Starting,
		from == Starting && (to == Capturing || to == Error || to == Idle),
		from == Capturing && (to == Idle || to == Error):
		return to, nil
	}
	return from, fmt.Errorf("%w: %v -> %v", ErrInvalidTransition, from, to)
}

// Options wires a Controller to its collaborators. Capturer, Surfaces and
// Scheduler are required.
type Options struct {
	Capturer  audio.Capturer
	NewGraph  GraphFactory // Defaults to NewAnalysisGraph.
	Analyser  analysis.Config
	Surfaces  *surface.Manager
	Scheduler draw.Scheduler
	Status    status.Sink // Defaults to status.LogSink.
}

// Controller owns the capture session and the render loop.
type Controller struct {
	capturer  audio.Capturer
	newGraph  GraphFactory
	cfg       analysis.Config
	surfaces  *surface.Manager
	scheduler draw.Scheduler
	status    status.Sink

	spectrum *render.Spectrum
	waveform *render.Waveform

	mu      sync.Mutex
	state   State
	session *session
	frame   draw.FrameID
	attempt uint64 // Bumped by every Start and Stop; detects a Stop during acquisition.
}

// NewController returns an Idle controller and publishes its initial status.
func NewController(opts Options) *Controller {
	if opts.NewGraph == nil {
		opts.NewGraph = NewAnalysisGraph
	}
	if opts.Status == nil {
		opts.Status = status.LogSink{}
	}
	c := &Controller{
		capturer:  opts.Capturer,
		newGraph:  opts.NewGraph,
		cfg:       opts.Analyser,
		surfaces:  opts.Surfaces,
		scheduler: opts.Scheduler,
		status:    opts.Status,
		spectrum:  render.NewSpectrum(),
		waveform:  render.NewWaveform(),
	}
	c.status.SetStatus(status.Idle)
	c.status.HideError()
	c.status.SetControls(true, false)
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Start acquires audio and launches the render loop. It is a no-op while a
// start is in progress or capture is running. Failures return an error
// wrapping ErrCaptureUnavailable and the cause, show the cause's message and
// leave the controller ready for another attempt.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if state := c.state; state == Starting || state == Capturing {
		c.mu.Unlock()
		log.Debugf("Controller: start ignored while %v", state)
		return nil
	}
	if err := c.setState(Starting); err != nil {
		c.mu.Unlock()
		return err
	}
	c.attempt++
	attempt := c.attempt
	c.status.HideError()
	c.status.SetStatus(status.Starting)
	c.status.SetControls(false, true)
	c.mu.Unlock()

	log.Infof("Controller: starting capture")
	sess, err := openSession(ctx, c.capturer, c.newGraph, c.cfg)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attempt != attempt {
		// Stopped while acquiring.
		if sess != nil {
			sess.close()
		}
		log.Infof("Controller: start abandoned")
		return nil
	}

	if err != nil {
		c.fail(err)
		return fmt.Errorf("%w: %w", ErrCaptureUnavailable, err)
	}

	c.session = sess
	if err := c.setState(Capturing); err != nil {
		sess.close()
		c.session = nil
		return err
	}
	if sp := c.surfaces.Spectrum(); !sp.Empty() {
		c.spectrum.Layout(len(sess.frequency), sp.Width)
	}
	c.status.SetStatus(status.Capturing)
	c.status.SetControls(false, true)
	c.frame = c.scheduler.RequestFrame(c.renderFrame)

	log.Infof("Controller: capturing (fft %d, %d bins)", sess.node.FFTSize(), len(sess.frequency))
	return nil
}

// Stop ends capture. It is idempotent: stopping an idle controller, or one
// showing an error, changes nothing.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Starting:
		c.attempt++
	case Capturing:
	default:
		return
	}

	c.teardown()
	if err := c.setState(Idle); err != nil {
		log.Errorf("Controller: %v", err)
	}
	c.status.SetStatus(status.Stopped)
	c.status.SetControls(true, false)
	log.Infof("Controller: stopped")
}

// Close tears the controller down with its view.
func (c *Controller) Close() {
	c.Stop()
}

// Toggle starts when idle and stops otherwise.
func (c *Controller) Toggle(ctx context.Context) error {
	switch c.State() {
	case Starting, Capturing:
		c.Stop()
		return nil
	default:
		return c.Start(ctx)
	}
}

// Resize re-prepares both surfaces for the current layout and scale factor
// and refreshes the frequency mapping. Capture keeps running.
func (c *Controller) Resize() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.surfaces.Resize()
	if c.session != nil {
		if sp := c.surfaces.Spectrum(); !sp.Empty() {
			c.spectrum.Layout(len(c.session.frequency), sp.Width)
		}
	}
}

// renderFrame is the render loop body. It draws one frame and schedules the
// next while capturing.
func (c *Controller) renderFrame() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frame = 0
	if c.state != Capturing || c.session == nil {
		return
	}

	if err := c.drawFrame(c.session); err != nil {
		log.Errorf("Controller: %v", err)
		c.teardown()
		c.fail(err)
		return
	}
	c.frame = c.scheduler.RequestFrame(c.renderFrame)
}

// drawFrame samples the session and draws both panes, converting a panic
// into an ErrFrameFault error.
func (c *Controller) drawFrame(s *session) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFrameFault, r)
		}
	}()

	s.sample()

	if sp := c.surfaces.Spectrum(); sp.Context != nil {
		c.spectrum.Draw(sp.Context, sp.Width, sp.Height, s.frequency, s.node.MinDecibels(), s.node.MaxDecibels())
	}
	if wf := c.surfaces.Waveform(); wf.Context != nil {
		c.waveform.Draw(wf.Context, wf.Width, wf.Height, s.timeDomain)
	}
	return nil
}

// teardown cancels the pending frame, releases the session and clears both
// surfaces. c.mu must be held.
func (c *Controller) teardown() {
	if c.frame != 0 {
		c.scheduler.CancelFrame(c.frame)
		c.frame = 0
	}
	if c.session != nil {
		c.session.close()
		c.session = nil
	}
	c.surfaces.Clear()
}

// fail moves to Error and reports err. c.mu must be held.
func (c *Controller) fail(err error) {
	if e := c.setState(Error); e != nil {
		log.Errorf("Controller: %v", e)
	}
	msg := strings.TrimSpace(err.Error())
	if msg == "" {
		msg = FallbackErrorMessage
	}
	log.Errorf("Controller: capture failed: %s", msg)
	c.status.SetStatus(status.Error)
	c.status.ShowError(msg)
	c.status.SetControls(true, false)
}

func (c *Controller) setState(to State) error {
	next, err := transition(c.state, to)
	if err != nil {
		return err
	}
	log.Debugf("Controller: %v -> %v", c.state, next)
	c.state = next
	return nil
}
