// SPDX-License-Identifier: MIT
package draw

import (
	"image/color"
	"math"
	"sort"
)

// Paint yields the fill colour at a point in logical coordinates.
type Paint interface {
	ColorAt(x, y float64) color.NRGBA
}

// Solid paints a single colour.
type Solid color.NRGBA

// ColorAt implements Paint.
func (s Solid) ColorAt(_, _ float64) color.NRGBA {
	return color.NRGBA(s)
}

// Stop is a gradient colour stop at Offset in [0, 1].
type Stop struct {
	Offset float64
	Color  color.NRGBA
}

// LinearGradient interpolates colour stops along the line (X0,Y0)-(X1,Y1).
// Points before the first stop take its colour, points after the last stop
// take the last colour.
type LinearGradient struct {
	X0, Y0, X1, Y1 float64
	Stops          []Stop
}

// NewLinearGradient returns a gradient along the given line with stops
// sorted by offset.
func NewLinearGradient(x0, y0, x1, y1 float64, stops ...Stop) *LinearGradient {
	s := append([]Stop(nil), stops...)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Offset < s[j].Offset })
	return &LinearGradient{X0: x0, Y0: y0, X1: x1, Y1: y1, Stops: s}
}

// ColorAt implements Paint by projecting (x, y) onto the gradient line.
func (g *LinearGradient) ColorAt(x, y float64) color.NRGBA {
	if len(g.Stops) == 0 {
		return color.NRGBA{}
	}
	dx, dy := g.X1-g.X0, g.Y1-g.Y0
	den := dx*dx + dy*dy
	t := 0.0
	if den > 0 {
		t = ((x-g.X0)*dx + (y-g.Y0)*dy) / den
	}

	first, last := g.Stops[0], g.Stops[len(g.Stops)-1]
	if t <= first.Offset {
		return first.Color
	}
	if t >= last.Offset {
		return last.Color
	}
	for i := 1; i < len(g.Stops); i++ {
		a, b := g.Stops[i-1], g.Stops[i]
		if t > b.Offset {
			continue
		}
		span := b.Offset - a.Offset
		if span <= 0 {
			return b.Color
		}
		return lerpColor(a.Color, b.Color, (t-a.Offset)/span)
	}
	return last.Color
}

func lerpColor(a, b color.NRGBA, t float64) color.NRGBA {
	mix := func(p, q uint8) uint8 {
		return uint8(math.Round(float64(p) + (float64(q)-float64(p))*t))
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// RGBA builds a non-premultiplied colour from 8-bit channels and an opacity
// in [0, 1], matching CSS rgba() notation.
func RGBA(r, g, b uint8, alpha float64) color.NRGBA {
	if alpha < 0 {
		alpha = 0
	}
	if alpha > 1 {
		alpha = 1
	}
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(alpha * 255))}
}
