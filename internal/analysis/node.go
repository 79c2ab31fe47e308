// SPDX-License-Identifier: MIT

/*
Package analysis implements the frequency analysis graph: a source feeds an
Analyser node that keeps the most recent transform window of mono samples and
produces smoothed decibel spectra and time-domain snapshots on demand.
*/
package analysis

// Node is the read side of an analyser, the only part the render loop needs.
type Node interface {
	// FFTSize is the transform size in frames.
	FFTSize() int
	// FrequencyBinCount is FFTSize/2.
	FrequencyBinCount() int
	MinDecibels() float64
	MaxDecibels() float64
	SmoothingTimeConstant() float64
	// FloatFrequencyData fills dst with one decibel reading per bin.
	FloatFrequencyData(dst []float32)
	// FloatTimeDomainData fills dst with the most recent samples in [-1, 1],
	// oldest first.
	FloatTimeDomainData(dst []float32)
}
