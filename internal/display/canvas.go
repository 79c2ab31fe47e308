// SPDX-License-Identifier: MIT
package display

import (
	"image"
	"image/color"
	"sync"

	"audioscope/internal/draw"
	"audioscope/internal/surface"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

var (
	whiteOnce     sync.Once
	whiteSubImage *ebiten.Image
)

// white returns a 1x1 white source image for DrawTriangles.
func white() *ebiten.Image {
	whiteOnce.Do(func() {
		img := ebiten.NewImage(3, 3)
		img.Fill(color.White)
		whiteSubImage = img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image)
	})
	return whiteSubImage
}

// canvas is an offscreen ebiten image acting as one drawing surface. It is
// both the surface.Element and the draw.Context handed out for it.
type canvas struct {
	bounds rect // Logical placement in the window.
	img    *ebiten.Image
	pw, ph int // Backing size in device pixels.

	sx, sy float32
	path   vector.Path
	vs     []ebiten.Vertex
	is     []uint16
}

var (
	_ surface.Element = (*canvas)(nil)
	_ draw.Context    = (*canvas)(nil)
)

func (c *canvas) LayoutSize() (float64, float64) {
	return c.bounds.W, c.bounds.H
}

// SetBackingSize reallocates the image when the physical size changes. A
// zero size drops the image.
func (c *canvas) SetBackingSize(width, height int) {
	if width == c.pw && height == c.ph && (c.img != nil || width == 0 || height == 0) {
		return
	}
	if c.img != nil {
		c.img.Deallocate()
		c.img = nil
	}
	c.pw, c.ph = width, height
	if width > 0 && height > 0 {
		c.img = ebiten.NewImage(width, height)
	}
}

// Context resets the transform and path and returns the canvas.
func (c *canvas) Context() draw.Context {
	c.sx, c.sy = 1, 1
	c.path = vector.Path{}
	return c
}

func (c *canvas) Scale(sx, sy float64) {
	c.sx *= float32(sx)
	c.sy *= float32(sy)
}

func (c *canvas) ClearRect(x, y, w, h float64) {
	if c.img == nil {
		return
	}
	r := image.Rect(
		int(float32(x)*c.sx), int(float32(y)*c.sy),
		int(float32(x+w)*c.sx+0.5), int(float32(y+h)*c.sy+0.5),
	)
	if r.Min.X <= 0 && r.Min.Y <= 0 && r.Max.X >= c.pw && r.Max.Y >= c.ph {
		c.img.Clear()
		return
	}
	if sub, ok := c.img.SubImage(r).(*ebiten.Image); ok {
		sub.Clear()
	}
}

func (c *canvas) BeginPath() { c.path = vector.Path{} }
func (c *canvas) ClosePath() { c.path.Close() }

func (c *canvas) MoveTo(x, y float64) {
	c.path.MoveTo(float32(x)*c.sx, float32(y)*c.sy)
}

func (c *canvas) LineTo(x, y float64) {
	c.path.LineTo(float32(x)*c.sx, float32(y)*c.sy)
}

func (c *canvas) QuadraticCurveTo(cpx, cpy, x, y float64) {
	c.path.QuadTo(float32(cpx)*c.sx, float32(cpy)*c.sy, float32(x)*c.sx, float32(y)*c.sy)
}

// Fill fills the current path, colouring every vertex from p at its logical
// position.
func (c *canvas) Fill(p draw.Paint) {
	if c.img == nil {
		return
	}
	c.vs, c.is = c.path.AppendVerticesAndIndicesForFilling(c.vs[:0], c.is[:0])
	paintVertices(c.vs, p, c.sx, c.sy)
	c.drawTriangles()
}

// Stroke outlines the current path with round joins and caps.
func (c *canvas) Stroke(col color.Color, width float64) {
	if c.img == nil {
		return
	}
	c.vs, c.is = c.path.AppendVerticesAndIndicesForStroke(c.vs[:0], c.is[:0], &vector.StrokeOptions{
		Width:    float32(width) * c.sx,
		LineJoin: vector.LineJoinRound,
		LineCap:  vector.LineCapRound,
	})
	paintVertices(c.vs, draw.Solid(color.NRGBAModel.Convert(col).(color.NRGBA)), c.sx, c.sy)
	c.drawTriangles()
}

func (c *canvas) drawTriangles() {
	if len(c.is) == 0 {
		return
	}
	c.img.DrawTriangles(c.vs, c.is, white(), &ebiten.DrawTrianglesOptions{
		AntiAlias:      true,
		FillRule:       ebiten.FillRuleNonZero,
		ColorScaleMode: ebiten.ColorScaleModeStraightAlpha,
	})
}

// paintVertices sets each vertex's source to the white pixel and its colour
// to p evaluated at the vertex's logical coordinates.
func paintVertices(vs []ebiten.Vertex, p draw.Paint, sx, sy float32) {
	for i := range vs {
		v := &vs[i]
		col := p.ColorAt(float64(v.DstX/sx), float64(v.DstY/sy))
		v.SrcX, v.SrcY = 1, 1
		v.ColorR = float32(col.R) / 0xff
		v.ColorG = float32(col.G) / 0xff
		v.ColorB = float32(col.B) / 0xff
		v.ColorA = float32(col.A) / 0xff
	}
}
