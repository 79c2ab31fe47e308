// SPDX-License-Identifier: MIT
package utils

import (
	"image/color"

	"audioscope/internal/draw"
)

// Op is one call recorded by a Recorder.
type Op struct {
	Name  string
	Args  []float64
	Paint draw.Paint  // Set for Fill.
	Color color.Color // Set for Stroke.
}

// Recorder implements draw.Context by recording every call instead of
// drawing. Tests inspect Ops to check the geometry a renderer produced.
type Recorder struct {
	Ops []Op
}

var _ draw.Context = (*Recorder)(nil)

func (r *Recorder) add(name string, args ...float64) {
	r.Ops = append(r.Ops, Op{Name: name, Args: args})
}

func (r *Recorder) Scale(sx, sy float64)         { r.add("Scale", sx, sy) }
func (r *Recorder) ClearRect(x, y, w, h float64) { r.add("ClearRect", x, y, w, h) }
func (r *Recorder) BeginPath()                   { r.add("BeginPath") }
func (r *Recorder) MoveTo(x, y float64)          { r.add("MoveTo", x, y) }
func (r *Recorder) LineTo(x, y float64)          { r.add("LineTo", x, y) }
func (r *Recorder) ClosePath()                   { r.add("ClosePath") }

func (r *Recorder) QuadraticCurveTo(cpx, cpy, x, y float64) {
	r.add("QuadraticCurveTo", cpx, cpy, x, y)
}

func (r *Recorder) Fill(p draw.Paint) {
	r.Ops = append(r.Ops, Op{Name: "Fill", Paint: p})
}

func (r *Recorder) Stroke(c color.Color, width float64) {
	r.Ops = append(r.Ops, Op{Name: "Stroke", Args: []float64{width}, Color: c})
}

// Reset drops all recorded calls.
func (r *Recorder) Reset() {
	r.Ops = r.Ops[:0]
}

// Named returns the recorded calls with the given name, in order.
func (r *Recorder) Named(name string) []Op {
	var out []Op
	for _, op := range r.Ops {
		if op.Name == name {
			out = append(out, op)
		}
	}
	return out
}

// Count returns how many calls with the given name were recorded.
func (r *Recorder) Count(name string) int {
	n := 0
	for _, op := range r.Ops {
		if op.Name == name {
			n++
		}
	}
	return n
}
