// SPDX-License-Identifier: MIT

/*
Package display hosts the visualizer in an ebiten window: a spectrum pane
over a waveform pane, with a status bar carrying the capture status, the
last error and start/stop buttons.

Each pane is an offscreen canvas sized in device pixels. The frame
scheduler's callbacks run at the start of every Draw, so the render loop
advances once per display refresh.
*/
package display

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"

	"audioscope/internal/config"
	"audioscope/internal/log"
	"audioscope/internal/status"
	"audioscope/internal/surface"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	backgroundColor = color.NRGBA{0x0b, 0x0d, 0x14, 0xff}
	paneBorderColor = color.NRGBA{0x2a, 0x2f, 0x3d, 0xff}
	statusBarColor  = color.NRGBA{0x16, 0x19, 0x24, 0xff}
	buttonColor     = color.NRGBA{0x2f, 0x6f, 0x8f, 0xff}
	buttonOffColor  = color.NRGBA{0x30, 0x33, 0x3c, 0xff}
)

// Controller is the part of the capture controller the window drives.
type Controller interface {
	Start(ctx context.Context) error
	Stop()
	Resize()
}

// Window is the ebiten game hosting both panes.
type Window struct {
	cfg   config.DisplayConfig
	board *status.Board
	sched *FrameScheduler

	spectrum canvas
	waveform canvas

	ctx   context.Context
	ctrl  Controller
	scale float64 // Device scale factor at the last Layout.
	w, h  int     // Logical window size at the last Layout.
	dirty bool    // Layout changed since the last Update.
	panes panes
}

var _ ebiten.Game = (*Window)(nil)

// New returns a window showing board. Its surfaces and scheduler must be
// wired into a controller, which is then attached with Attach.
func New(cfg config.DisplayConfig, board *status.Board) *Window {
	w := &Window{
		cfg:   cfg,
		board: board,
		sched: NewFrameScheduler(),
		scale: 1,
		w:     cfg.Width,
		h:     cfg.Height,
	}
	w.relayout()
	return w
}

// Surfaces returns the spectrum and waveform surfaces.
func (w *Window) Surfaces() (spectrum, waveform surface.Element) {
	return &w.spectrum, &w.waveform
}

// Scheduler returns the scheduler driven by Draw.
func (w *Window) Scheduler() *FrameScheduler {
	return w.sched
}

// DeviceScale reports the scale factor the panes should be prepared for.
func (w *Window) DeviceScale() float64 {
	return w.scale
}

// Attach sets the controller driven by the window's controls.
func (w *Window) Attach(ctrl Controller) {
	w.ctrl = ctrl
}

// Run opens the window and blocks until it is closed or ctx is cancelled.
func (w *Window) Run(ctx context.Context) error {
	if w.ctrl == nil {
		return errors.New("display: no controller attached")
	}
	w.ctx = ctx

	ebiten.SetWindowSize(w.cfg.Width, w.cfg.Height)
	ebiten.SetWindowTitle(w.cfg.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	log.Infof("Display: opening %dx%d window", w.cfg.Width, w.cfg.Height)
	err := ebiten.RunGame(w)
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("display: %w", err)
	}
	return nil
}

// Update handles input and pending layout changes.
func (w *Window) Update() error {
	if w.ctx != nil && w.ctx.Err() != nil {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || inpututil.IsKeyJustPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	if w.dirty {
		w.dirty = false
		w.ctrl.Resize()
	}

	snap := w.board.Snapshot()
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) || inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		w.toggle(snap)
	}
	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		mx, my := ebiten.CursorPosition()
		// Cursor positions are in screen pixels; panes are laid out in
		// logical units.
		x, y := float64(mx)/w.scale, float64(my)/w.scale
		switch {
		case w.panes.start.contains(x, y) && snap.StartEnabled:
			w.start()
		case w.panes.stop.contains(x, y) && snap.StopEnabled:
			w.ctrl.Stop()
		}
	}
	return nil
}

func (w *Window) toggle(snap status.Snapshot) {
	switch {
	case snap.StartEnabled:
		w.start()
	case snap.StopEnabled:
		w.ctrl.Stop()
	}
}

// start runs acquisition off the game loop so the window keeps refreshing.
func (w *Window) start() {
	ctx := w.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		if err := w.ctrl.Start(ctx); err != nil {
			log.Debugf("Display: %v", err)
		}
	}()
}

// Draw advances the render loop and composites both panes and the status bar.
func (w *Window) Draw(screen *ebiten.Image) {
	w.sched.RunPending()

	screen.Fill(backgroundColor)
	w.drawPane(screen, &w.spectrum)
	w.drawPane(screen, &w.waveform)

	s := float32(w.scale)
	sep := w.panes.waveform
	vector.StrokeLine(screen, 0, float32(sep.Y)*s, float32(sep.W)*s, float32(sep.Y)*s, s, paneBorderColor, false)
	w.drawStatusBar(screen)
}

func (w *Window) drawPane(screen *ebiten.Image, c *canvas) {
	if c.img == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Translate(math.Round(c.bounds.X*w.scale), math.Round(c.bounds.Y*w.scale))
	screen.DrawImage(c.img, op)
}

func (w *Window) drawStatusBar(screen *ebiten.Image) {
	s := float32(w.scale)
	bar := w.panes.status
	vector.DrawFilledRect(screen, float32(bar.X)*s, float32(bar.Y)*s, float32(bar.W)*s, float32(bar.H)*s, statusBarColor, false)

	snap := w.board.Snapshot()
	text := "Status: " + snap.Status.String()
	if snap.ErrorVisible {
		text += "  |  " + snap.Error
	}
	// Debug text is drawn in screen pixels at a fixed size.
	ebitenutil.DebugPrintAt(screen, text, int(8*s), int((bar.Y+8)*float64(s)))

	w.drawButton(screen, w.panes.start, "Start", snap.StartEnabled)
	w.drawButton(screen, w.panes.stop, "Stop", snap.StopEnabled)
}

func (w *Window) drawButton(screen *ebiten.Image, r rect, label string, enabled bool) {
	if r.W <= 0 || r.H <= 0 || r.X < 0 {
		return
	}
	s := float32(w.scale)
	fill := buttonOffColor
	if enabled {
		fill = buttonColor
	}
	vector.DrawFilledRect(screen, float32(r.X)*s, float32(r.Y)*s, float32(r.W)*s, float32(r.H)*s, fill, true)
	ebitenutil.DebugPrintAt(screen, label, int(float32(r.X+12)*s), int(float32(r.Y+3)*s))
}

// Layout keeps the screen at device resolution and records size or scale
// changes for the next Update.
func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := w.cfg.DeviceScale
	if scale <= 0 {
		scale = ebiten.Monitor().DeviceScaleFactor()
	}
	scale = surface.NormalizeScale(scale)

	if outsideWidth != w.w || outsideHeight != w.h || scale != w.scale {
		w.w, w.h, w.scale = outsideWidth, outsideHeight, scale
		w.relayout()
		w.dirty = true
	}
	return max(surface.PhysicalSize(float64(outsideWidth), scale), 1),
		max(surface.PhysicalSize(float64(outsideHeight), scale), 1)
}

func (w *Window) relayout() {
	w.panes = layoutPanes(float64(w.w), float64(w.h), w.cfg.SpectrumShare)
	w.spectrum.bounds = w.panes.spectrum
	w.waveform.bounds = w.panes.waveform
}
