// SPDX-License-Identifier: MIT
package surface

import (
	"sync"

	"audioscope/internal/log"
)

// ScaleFunc reports the current device scale factor.
type ScaleFunc func() float64

// Manager owns the spectrum and waveform surfaces. The scale factor is read
// once per Resize, not tracked live: hosts call Resize when the window size
// or the display changes.
type Manager struct {
	spectrum Element
	waveform Element
	scale    ScaleFunc

	mu           sync.Mutex
	current      float64
	spectrumPrep Prepared
	waveformPrep Prepared
}

// NewManager prepares both surfaces and returns their manager. A nil scale
// function means a scale factor of 1.
func NewManager(spectrum, waveform Element, scale ScaleFunc) *Manager {
	if scale == nil {
		scale = func() float64 { return 1 }
	}
	m := &Manager{spectrum: spectrum, waveform: waveform, scale: scale}
	m.Resize()
	return m
}

// Resize re-prepares both surfaces for their current layout and the current
// scale factor.
func (m *Manager) Resize() {
	scale := NormalizeScale(m.scale())

	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = scale
	m.spectrumPrep = Prepare(m.spectrum, scale)
	m.waveformPrep = Prepare(m.waveform, scale)
	log.Debugf("Surface: prepared spectrum %.0fx%.0f, waveform %.0fx%.0f at scale %.2f",
		m.spectrumPrep.Width, m.spectrumPrep.Height, m.waveformPrep.Width, m.waveformPrep.Height, scale)
}

// Spectrum returns the prepared spectrum surface.
func (m *Manager) Spectrum() Prepared {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spectrumPrep
}

// Waveform returns the prepared waveform surface.
func (m *Manager) Waveform() Prepared {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waveformPrep
}

// Scale returns the scale factor applied by the last Resize.
func (m *Manager) Scale() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Clear blanks both surfaces.
func (m *Manager) Clear() {
	for _, p := range []Prepared{m.Spectrum(), m.Waveform()} {
		if p.Context != nil {
			p.Context.ClearRect(0, 0, p.Width, p.Height)
		}
	}
}
