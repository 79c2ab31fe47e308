// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"audioscope/internal/log"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

// WindowFunc defines the type for selecting an FFT window function.
type WindowFunc int

// Enum for available window functions.
const (
	Blackman WindowFunc = iota
	BartlettHann
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
	Rectangular
)

var windowNames = [...]string{
	Blackman:        "blackman",
	BartlettHann:    "bartletthann",
	BlackmanNuttall: "blackmannuttall",
	Hann:            "hann",
	Hamming:         "hamming",
	Lanczos:         "lanczos",
	Nuttall:         "nuttall",
	Rectangular:     "rectangular",
}

func (w WindowFunc) String() string {
	if w < 0 || int(w) >= len(windowNames) {
		return fmt.Sprintf("WindowFunc(%d)", int(w))
	}
	return windowNames[w]
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc
// enum, returns a known default (Blackman) and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "blackman":
		return Blackman, nil
	case "bartletthann":
		return BartlettHann, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	case "rectangular", "none":
		return Rectangular, nil
	default:
		return Blackman, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window. Unknown types fall back
// to Blackman.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case Blackman:
		window.Blackman(coeffs)
	case BartlettHann:
		window.BartlettHann(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	case Rectangular:
	default:
		log.Warnf("Analysis: unknown window function type %d, defaulting to Blackman", windowType)
		window.Blackman(coeffs)
	}
}

// fftWorkspace holds the pre-allocated buffers for one transform size.
type fftWorkspace struct {
	fft       *fourier.FFT
	window    []float64    // Pre-calculated window coefficients.
	input     []float64    // Windowed input signal.
	output    []complex128 // Transform output, N/2+1 values.
	magnitude []float64    // Smoothed magnitudes, N/2 values.
}

func newFFTWorkspace(size int, windowType WindowFunc) *fftWorkspace {
	ws := &fftWorkspace{
		fft:       fourier.NewFFT(size),
		window:    make([]float64, size),
		input:     make([]float64, size),
		output:    make([]complex128, size/2+1),
		magnitude: make([]float64, size/2),
	}
	applyWindow(ws.window, windowType)
	return ws
}

// transform windows ws.input in place, runs the FFT and folds the normalized
// magnitudes into ws.magnitude with exponential smoothing:
//
//	m[k] = tau*m[k] + (1-tau)*|X[k]|/N
//
// Non-finite results reset the bin to zero.
func (ws *fftWorkspace) transform(tau float64) {
	floats.Mul(ws.input, ws.window)
	ws.fft.Coefficients(ws.output, ws.input)

	scale := 1 / float64(len(ws.input))
	for k := range ws.magnitude {
		m := tau*ws.magnitude[k] + (1-tau)*cmplx.Abs(ws.output[k])*scale
		if math.IsNaN(m) || math.IsInf(m, 0) {
			m = 0
		}
		ws.magnitude[k] = m
	}
}

// toDecibels converts a linear magnitude to decibels. Zero maps to -Inf.
func toDecibels(m float64) float64 {
	return 20 * math.Log10(m)
}
