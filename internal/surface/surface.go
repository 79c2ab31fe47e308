// SPDX-License-Identifier: MIT

/*
Package surface prepares drawing surfaces for high-density displays.

A surface has a logical size, measured in layout units, and a physical
backing store measured in device pixels. Preparing a surface sizes the
backing store to logical size times the device scale factor and scales a
fresh context by the same factor, so renderers draw in logical units and
get crisp output on any display.
*/
package surface

import (
	"math"

	"audioscope/internal/draw"
)

// Element is a host-owned drawing surface.
type Element interface {
	// LayoutSize is the current logical size of the surface.
	LayoutSize() (width, height float64)
	// SetBackingSize resizes the backing store in device pixels.
	SetBackingSize(width, height int)
	// Context returns a drawing context for the backing store with an
	// identity transform. Any earlier transform is discarded.
	Context() draw.Context
}

// Prepared is a surface ready for logical-unit drawing.
type Prepared struct {
	Context draw.Context
	Width   float64 // Logical width.
	Height  float64 // Logical height.
}

// Empty reports whether nothing can be drawn on the surface.
func (p Prepared) Empty() bool {
	return p.Context == nil || p.Width <= 0 || p.Height <= 0
}

// NormalizeScale maps unusable device scale factors (zero, negative, NaN or
// infinite) to 1.
func NormalizeScale(scale float64) float64 {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return 1
	}
	return scale
}

// PhysicalSize converts a logical dimension to whole device pixels, rounding
// to the nearest pixel.
func PhysicalSize(logical, scale float64) int {
	if !(logical > 0) {
		return 0
	}
	return int(math.Round(logical * NormalizeScale(scale)))
}

// Prepare sizes el's backing store for scale and returns a context scaled so
// that one unit equals one logical pixel. A zero-area layout yields zero
// logical dimensions.
func Prepare(el Element, scale float64) Prepared {
	scale = NormalizeScale(scale)

	w, h := el.LayoutSize()
	if !(w > 0) || !(h > 0) {
		w, h = 0, 0
	}

	el.SetBackingSize(PhysicalSize(w, scale), PhysicalSize(h, scale))
	ctx := el.Context()
	ctx.Scale(scale, scale)

	return Prepared{Context: ctx, Width: w, Height: h}
}
