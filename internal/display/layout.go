// SPDX-License-Identifier: MIT
package display

import "math"

// StatusBarHeight is the logical height of the status bar under the panes.
const StatusBarHeight = 28

// rect is a logical rectangle.
type rect struct {
	X, Y, W, H float64
}

func (r rect) contains(x, y float64) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// panes splits a logical window into the spectrum pane, the waveform pane
// below it and the status bar at the bottom. share is the spectrum's fraction
// of the space above the status bar.
type panes struct {
	spectrum rect
	waveform rect
	status   rect
	start    rect // Start button inside the status bar.
	stop     rect // Stop button inside the status bar.
}

func layoutPanes(width, height, share float64) panes {
	width = math.Max(width, 0)
	height = math.Max(height, 0)
	bar := math.Min(StatusBarHeight, height)
	area := height - bar
	specH := math.Round(area * share)

	p := panes{
		spectrum: rect{0, 0, width, specH},
		waveform: rect{0, specH, width, area - specH},
		status:   rect{0, area, width, bar},
	}

	const buttonW, pad = 56, 4
	p.stop = rect{width - pad - buttonW, area + pad, buttonW, math.Max(bar-2*pad, 0)}
	p.start = rect{p.stop.X - pad - buttonW, area + pad, buttonW, p.stop.H}
	return p
}
