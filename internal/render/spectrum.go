// SPDX-License-Identifier: MIT
package render

import (
	"image/color"

	"audioscope/internal/draw"
)

// Spectrum pane colours.
var (
	SpectrumTop    = draw.RGBA(0, 255, 255, 0.9) // Cyan at the top of the pane.
	SpectrumBottom = draw.RGBA(0, 0, 64, 0.05)   // Near-transparent navy at the bottom.

	SpectrumOutline color.Color = draw.RGBA(255, 255, 255, 0.5)
)

// SpectrumOutlineWidth is the stroke width of the curve in logical units.
const SpectrumOutlineWidth = 1.5

type point struct{ x, y float64 }

// Spectrum draws a decibel snapshot as a filled, smoothed curve on a
// logarithmic frequency axis. It keeps scratch buffers between frames but no
// spectrum history: each frame is derived only from the snapshot passed in.
type Spectrum struct {
	scale  LogScale
	means  []float64
	points []point

	fill       *draw.LinearGradient
	fillHeight float64
}

// NewSpectrum returns a spectrum renderer.
func NewSpectrum() *Spectrum {
	return &Spectrum{}
}

// Layout precomputes the log-frequency mapping for binCount bins across
// width. Draw keeps the mapping current on its own; Layout only moves the
// work out of the first frame after a start or resize.
func (s *Spectrum) Layout(binCount int, width float64) {
	if width > 0 && BucketCount(binCount) > 0 {
		s.scale.Update(binCount, width)
	}
}

// Draw clears the pane and renders db (one decibel reading per bin) into a
// width x height logical area, normalizing readings into [minDB, maxDB].
// A zero-area pane or fewer bins than one bucket draws nothing.
func (s *Spectrum) Draw(ctx draw.Context, width, height float64, db []float32, minDB, maxDB float64) {
	ctx.ClearRect(0, 0, width, height)
	if width <= 0 || height <= 0 || BucketCount(len(db)) == 0 {
		return
	}

	s.scale.Update(len(db), width)
	s.means = BucketMeans(s.means, db)

	s.points = s.points[:0]
	for b, mean := range s.means {
		s.points = append(s.points, point{
			x: s.scale.X(b),
			y: DecibelY(mean, minDB, maxDB, height),
		})
	}

	// Filled area under the curve, closed down to the bottom corners.
	ctx.BeginPath()
	s.traceCurve(ctx)
	ctx.LineTo(width, height)
	ctx.LineTo(0, height)
	ctx.ClosePath()
	ctx.Fill(s.gradient(height))

	// Outline of the curve only.
	ctx.BeginPath()
	s.traceCurve(ctx)
	ctx.Stroke(SpectrumOutline, SpectrumOutlineWidth)
}

// traceCurve adds the smoothed curve through s.points to the current path.
// Each segment is a quadratic whose control point is a raw bucket point and
// whose end point is the midpoint to the next one.
func (s *Spectrum) traceCurve(ctx draw.Context) {
	pts := s.points
	ctx.MoveTo(pts[0].x, pts[0].y)
	for i := 0; i < len(pts)-1; i++ {
		mx := (pts[i].x + pts[i+1].x) / 2
		my := (pts[i].y + pts[i+1].y) / 2
		ctx.QuadraticCurveTo(pts[i].x, pts[i].y, mx, my)
	}
	last := pts[len(pts)-1]
	ctx.LineTo(last.x, last.y)
}

func (s *Spectrum) gradient(height float64) *draw.LinearGradient {
	if s.fill == nil || s.fillHeight != height {
		s.fill = draw.NewLinearGradient(0, 0, 0, height,
			draw.Stop{Offset: 0, Color: SpectrumTop},
			draw.Stop{Offset: 1, Color: SpectrumBottom},
		)
		s.fillHeight = height
	}
	return s.fill
}

// Clear blanks a pane. It is used when capture stops.
func Clear(ctx draw.Context, width, height float64) {
	if ctx == nil {
		return
	}
	ctx.ClearRect(0, 0, width, height)
}
