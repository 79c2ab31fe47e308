// SPDX-License-Identifier: MIT
package draw

import (
	"image/color"
	"testing"
)

func TestLinearGradientVertical(t *testing.T) {
	top := RGBA(0, 255, 255, 1)
	bottom := RGBA(0, 0, 64, 0)
	g := NewLinearGradient(0, 0, 0, 100, Stop{1, bottom}, Stop{0, top})

	tests := []struct {
		name string
		y    float64
		want color.NRGBA
	}{
		{"above start", -10, top},
		{"start", 0, top},
		{"middle", 50, color.NRGBA{R: 0, G: 128, B: 160, A: 128}},
		{"end", 100, bottom},
		{"below end", 250, bottom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// x must not matter for a vertical gradient.
			for _, x := range []float64{0, 37, 1000} {
				if got := g.ColorAt(x, tt.y); got != tt.want {
					t.Errorf("ColorAt(%g, %g) = %v, want %v", x, tt.y, got, tt.want)
				}
			}
		})
	}
}

func TestLinearGradientDegenerate(t *testing.T) {
	c := RGBA(10, 20, 30, 1)
	g := NewLinearGradient(5, 5, 5, 5, Stop{0, c}, Stop{1, RGBA(0, 0, 0, 0)})
	if got := g.ColorAt(100, 100); got != c {
		t.Errorf("zero-length gradient should use the first stop, got %v", got)
	}

	empty := NewLinearGradient(0, 0, 0, 1)
	if got := empty.ColorAt(0, 0); got != (color.NRGBA{}) {
		t.Errorf("gradient without stops should be transparent, got %v", got)
	}
}

func TestRGBAClampsAlpha(t *testing.T) {
	if got := RGBA(1, 2, 3, 2).A; got != 255 {
		t.Errorf("alpha 2 -> %d, want 255", got)
	}
	if got := RGBA(1, 2, 3, -1).A; got != 0 {
		t.Errorf("alpha -1 -> %d, want 0", got)
	}
	if got := RGBA(1, 2, 3, 0.5).A; got != 128 {
		t.Errorf("alpha 0.5 -> %d, want 128", got)
	}
}

func TestSolid(t *testing.T) {
	s := Solid(RGBA(200, 100, 50, 1))
	if got := s.ColorAt(3, 4); got != color.NRGBA(s) {
		t.Errorf("Solid.ColorAt = %v", got)
	}
}
