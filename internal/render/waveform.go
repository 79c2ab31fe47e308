// SPDX-License-Identifier: MIT
package render

import (
	"image/color"

	"audioscope/internal/draw"
)

// WaveformColor is the colour of the trace.
var WaveformColor color.Color = draw.RGBA(124, 252, 0, 1)

// WaveformLineWidth is the stroke width of the trace in logical units.
const WaveformLineWidth = 1.5

// Waveform draws a time-domain snapshot as an oscilloscope trace: every
// sample joined by straight segments, with no bucketing or smoothing.
type Waveform struct{}

// NewWaveform returns a waveform renderer.
func NewWaveform() *Waveform {
	return &Waveform{}
}

// Draw clears the pane and renders samples (amplitudes in [-1, 1]) into a
// width x height logical area. A zero-area pane or an empty buffer draws
// nothing.
func (w *Waveform) Draw(ctx draw.Context, width, height float64, samples []float32) {
	ctx.ClearRect(0, 0, width, height)
	if width <= 0 || height <= 0 || len(samples) == 0 {
		return
	}

	n := len(samples)
	ctx.BeginPath()
	ctx.MoveTo(WaveformX(0, n, width), WaveformY(samples[0], height))
	for i := 1; i < n; i++ {
		ctx.LineTo(WaveformX(i, n, width), WaveformY(samples[i], height))
	}
	ctx.Stroke(WaveformColor, WaveformLineWidth)
}
