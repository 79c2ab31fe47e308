// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"audioscope/internal/audio"
	"audioscope/internal/config"
	"audioscope/pkg/bitint"

	goaudio "github.com/go-audio/audio"
)

// Config configures an Analyser.
type Config struct {
	FFTSize     int
	MinDecibels float64
	MaxDecibels float64
	Smoothing   float64
	Window      WindowFunc
}

// DefaultConfig returns the analyser defaults: a 2048-point transform,
// smoothing 0.8 and a [-90, -10] dB range.
func DefaultConfig() Config {
	return Config{
		FFTSize:     config.DefaultFFTSize,
		MinDecibels: config.DefaultMinDecibels,
		MaxDecibels: config.DefaultMaxDecibels,
		Smoothing:   config.DefaultSmoothing,
		Window:      Blackman,
	}
}

// ConfigFrom builds an analyser Config from the application configuration.
func ConfigFrom(c config.AnalyserConfig) (Config, error) {
	w, err := ParseWindowFunc(c.Window)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		FFTSize:     c.FFTSize,
		MinDecibels: c.MinDecibels,
		MaxDecibels: c.MaxDecibels,
		Smoothing:   c.Smoothing,
		Window:      w,
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if !bitint.InRange(c.FFTSize, config.MinFFTSize, config.MaxFFTSize) {
		errs = append(errs, fmt.Errorf("fft size must be a power of 2 within [%d, %d], got %d", config.MinFFTSize, config.MaxFFTSize, c.FFTSize))
	}
	if !(c.MinDecibels < c.MaxDecibels) {
		errs = append(errs, fmt.Errorf("min decibels (%g) must be below max decibels (%g)", c.MinDecibels, c.MaxDecibels))
	}
	if !(c.Smoothing >= 0 && c.Smoothing <= 1) {
		errs = append(errs, fmt.Errorf("smoothing must be within [0, 1], got %g", c.Smoothing))
	}
	return errors.Join(errs...)
}

// Analyser keeps a ring of the most recent FFTSize mono samples. It is
// written from the capture goroutine and read from the render loop.
type Analyser struct {
	cfg        Config
	sampleRate int
	enabled    atomic.Bool

	mu   sync.Mutex
	ring []float32 // Most recent samples, ring[pos] is the oldest.
	pos  int
	mono []float32 // Downmix scratch.
	ws   *fftWorkspace
}

var (
	_ Node       = (*Analyser)(nil)
	_ audio.Sink = (*Analyser)(nil)
)

// NewAnalyser returns an analyser for audio at sampleRate Hz. It discards
// writes until enabled by its graph.
func NewAnalyser(cfg Config, sampleRate int) (*Analyser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyser{
		cfg:        cfg,
		sampleRate: sampleRate,
		ring:       make([]float32, cfg.FFTSize),
		ws:         newFFTWorkspace(cfg.FFTSize, cfg.Window),
	}, nil
}

func (a *Analyser) FFTSize() int                   { return a.cfg.FFTSize }
func (a *Analyser) FrequencyBinCount() int         { return a.cfg.FFTSize / 2 }
func (a *Analyser) MinDecibels() float64           { return a.cfg.MinDecibels }
func (a *Analyser) MaxDecibels() float64           { return a.cfg.MaxDecibels }
func (a *Analyser) SmoothingTimeConstant() float64 { return a.cfg.Smoothing }

// FrequencyForBin returns the centre frequency of bin in Hz.
func (a *Analyser) FrequencyForBin(bin int) float64 {
	if bin < 0 || bin >= a.FrequencyBinCount() || a.sampleRate <= 0 {
		return 0
	}
	return float64(bin) * float64(a.sampleRate) / float64(a.cfg.FFTSize)
}

// Write implements audio.Sink, downmixing buf into the ring.
func (a *Analyser) Write(buf *goaudio.Float32Buffer) {
	if !a.enabled.Load() {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.mono = audio.Downmix(a.mono, buf)
	in := a.mono
	// Only the newest FFTSize samples can survive.
	if len(in) > len(a.ring) {
		in = in[len(in)-len(a.ring):]
	}
	for len(in) > 0 {
		n := copy(a.ring[a.pos:], in)
		in = in[n:]
		a.pos = (a.pos + n) % len(a.ring)
	}
}

// FloatFrequencyData implements Node. Each call advances the smoothing by one
// step. dst beyond FrequencyBinCount is left untouched.
func (a *Analyser) FloatFrequencyData(dst []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.unroll(a.ws.input)
	a.ws.transform(a.cfg.Smoothing)

	n := min(len(dst), len(a.ws.magnitude))
	for k := range n {
		dst[k] = float32(toDecibels(a.ws.magnitude[k]))
	}
}

// FloatTimeDomainData implements Node. A dst longer than FFTSize is filled
// with the whole window followed by silence.
func (a *Analyser) FloatTimeDomainData(dst []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	size := len(a.ring)
	n := min(len(dst), size)
	// Newest n samples, oldest first.
	start := (a.pos + size - n) % size
	for i := range n {
		dst[i] = a.ring[(start+i)%size]
	}
	clear(dst[n:])
}

// unroll copies the ring into dst oldest first.
func (a *Analyser) unroll(dst []float64) {
	size := len(a.ring)
	for i := range size {
		dst[i] = float64(a.ring[(a.pos+i)%size])
	}
}

// reset clears samples and smoothing history.
func (a *Analyser) reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.ring)
	clear(a.ws.magnitude)
	a.pos = 0
}
