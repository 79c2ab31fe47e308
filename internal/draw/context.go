// SPDX-License-Identifier: MIT

/*
Package draw defines the drawing and frame scheduling services the
renderers are written against.

Context mirrors a 2D canvas API: a current path built from MoveTo, LineTo
and QuadraticCurveTo segments, filled with a Paint or stroked with a solid
colour. Coordinates are issued in logical units; a Context is scaled once
when its surface is prepared and drawing code never sees the device scale
factor again.

Scheduler mirrors a display-refresh callback queue: RequestFrame registers a
callback for the next display tick and CancelFrame withdraws it.
*/
package draw

import "image/color"

// Context is a 2D drawing context operating in logical coordinates.
type Context interface {
	// Scale multiplies the current transform by (sx, sy).
	Scale(sx, sy float64)
	// ClearRect clears the given rectangle to transparent.
	ClearRect(x, y, width, height float64)

	BeginPath()
	MoveTo(x, y float64)
	LineTo(x, y float64)
	// QuadraticCurveTo adds a quadratic Bézier from the current point to
	// (x, y) using (cpx, cpy) as the control point.
	QuadraticCurveTo(cpx, cpy, x, y float64)
	ClosePath()

	// Fill fills the current path with p using the non-zero rule.
	Fill(p Paint)
	// Stroke outlines the current path.
	Stroke(c color.Color, width float64)
}

// FrameID identifies a scheduled frame callback. The zero value never refers
// to a scheduled frame.
type FrameID uint64

// Scheduler schedules callbacks on display refresh.
type Scheduler interface {
	// RequestFrame schedules fn to run once on the next display tick.
	RequestFrame(fn func()) FrameID
	// CancelFrame withdraws a pending callback. Cancelling an unknown, already
	// run or zero id is a no-op.
	CancelFrame(id FrameID)
}
