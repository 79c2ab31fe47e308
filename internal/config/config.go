// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"audioscope/pkg/bitint"
)

// Core configuration constants that define the boundaries and defaults
// for the visualizer.
const (
	// Audio input defaults
	DefaultDeviceID        = MinDeviceID // System default input device
	DefaultInputFile       = ""          // Capture from a device, not a file
	DefaultChannels        = 1           // Mono capture
	DefaultSampleRate      = 44100       // CD-quality audio
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultLowLatency      = false       // Standard latency mode

	// Analyser defaults
	DefaultFFTSize     = 2048       // Transform size in frames
	DefaultMinDecibels = -90.0      // Bottom of the spectrum pane
	DefaultMaxDecibels = -10.0      // Top of the spectrum pane
	DefaultSmoothing   = 0.8        // Temporal smoothing time constant
	DefaultFFTWindow   = "blackman" // Window applied before the transform

	// Display defaults
	DefaultWindowWidth   = 960
	DefaultWindowHeight  = 540
	DefaultWindowTitle   = "audioscope"
	DefaultSpectrumShare = 0.6 // Fraction of the pane area given to the spectrum
	DefaultDeviceScale   = 0.0 // 0 means ask the monitor

	// Remote control defaults
	DefaultRemoteEnabled = false
	DefaultRemoteAddress = "127.0.0.1:8080"

	// Logging defaults
	DefaultLogLevel      = "info"
	DefaultLogMaxSizeMB  = 10
	DefaultLogMaxBackups = 3

	// Hardware and processing limits
	MinDeviceID   = -1     // -1 represents the system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MinFFTSize    = 32     // Smallest transform the analyser accepts
	MaxFFTSize    = 32768  // Largest transform the analyser accepts
	BucketSize    = 8      // Frequency bins averaged per plotted point
)

// Config holds all runtime configuration, loaded from YAML and overridden by
// environment variables and command line flags.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Audio    AudioConfig    `yaml:"audio"`
	Analyser AnalyserConfig `yaml:"analyser"`
	Display  DisplayConfig  `yaml:"display"`
	Remote   RemoteConfig   `yaml:"remote"`

	Command string `yaml:"-"` // One-off command selected on the command line.
}

// LogConfig controls the leveled logger and its optional rotating file.
type LogConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error.
	File       string `yaml:"file"`        // Optional log file path.
	MaxSizeMB  int    `yaml:"max_size_mb"` // Rotate after this many megabytes.
	MaxBackups int    `yaml:"max_backups"` // Rotated files to keep.
}

// AudioConfig holds settings for the capture service.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default).
	InputFile       string  `yaml:"input_file"`        // Replay a wav/mp3/ogg file instead of a device.
	InputChannels   int     `yaml:"input_channels"`    // Channels to capture; downmixed to mono.
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames delivered per capture callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request the device's low latency setting.
}

// AnalyserConfig configures the analysis node.
type AnalyserConfig struct {
	FFTSize     int     `yaml:"fft_size"`     // Transform size; power of two.
	MinDecibels float64 `yaml:"min_decibels"` // Lower bound of the displayed range.
	MaxDecibels float64 `yaml:"max_decibels"` // Upper bound of the displayed range.
	Smoothing   float64 `yaml:"smoothing"`    // Smoothing time constant in [0, 1].
	Window      string  `yaml:"window"`       // Window function name.
}

// DisplayConfig configures the window hosting the two panes.
type DisplayConfig struct {
	Width         int     `yaml:"width"`          // Initial window width in logical units.
	Height        int     `yaml:"height"`         // Initial window height in logical units.
	Title         string  `yaml:"title"`          // Window title.
	SpectrumShare float64 `yaml:"spectrum_share"` // Fraction of the pane area for the spectrum.
	DeviceScale   float64 `yaml:"device_scale"`   // Device scale override; 0 asks the monitor.
}

// RemoteConfig configures the WebSocket remote control.
type RemoteConfig struct {
	Enabled bool   `yaml:"enabled"` // Serve the remote control endpoint.
	Address string `yaml:"address"` // host:port to listen on.
}

// NewConfig creates a Config populated with defaults. It is the base that
// the YAML file, environment and flags are applied on top of.
func NewConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:      DefaultLogLevel,
			MaxSizeMB:  DefaultLogMaxSizeMB,
			MaxBackups: DefaultLogMaxBackups,
		},
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			InputFile:       DefaultInputFile,
			InputChannels:   DefaultChannels,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
		},
		Analyser: AnalyserConfig{
			FFTSize:     DefaultFFTSize,
			MinDecibels: DefaultMinDecibels,
			MaxDecibels: DefaultMaxDecibels,
			Smoothing:   DefaultSmoothing,
			Window:      DefaultFFTWindow,
		},
		Display: DisplayConfig{
			Width:         DefaultWindowWidth,
			Height:        DefaultWindowHeight,
			Title:         DefaultWindowTitle,
			SpectrumShare: DefaultSpectrumShare,
			DeviceScale:   DefaultDeviceScale,
		},
		Remote: RemoteConfig{
			Enabled: DefaultRemoteEnabled,
			Address: DefaultRemoteAddress,
		},
	}
}

// Validate checks the configuration against the processing limits and
// returns every violation found.
func (c *Config) Validate() error {
	var errs []error

	if c.Audio.InputDevice < MinDeviceID {
		errs = append(errs, fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, c.Audio.InputDevice))
	}
	if c.Audio.InputChannels < 1 {
		errs = append(errs, fmt.Errorf("audio.input_channels must be positive, got %d", c.Audio.InputChannels))
	}
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be within [%d, %d], got %.0f", MinSampleRate, MaxSampleRate, c.Audio.SampleRate))
	}
	if c.Audio.FramesPerBuffer <= 0 {
		errs = append(errs, fmt.Errorf("audio.frames_per_buffer must be positive, got %d", c.Audio.FramesPerBuffer))
	}

	if !bitint.InRange(c.Analyser.FFTSize, MinFFTSize, MaxFFTSize) {
		errs = append(errs, fmt.Errorf("analyser.fft_size must be a power of two within [%d, %d], got %d", MinFFTSize, MaxFFTSize, c.Analyser.FFTSize))
	}
	if math.IsNaN(c.Analyser.MinDecibels) || math.IsNaN(c.Analyser.MaxDecibels) || c.Analyser.MinDecibels >= c.Analyser.MaxDecibels {
		errs = append(errs, fmt.Errorf("analyser.min_decibels (%g) must be below analyser.max_decibels (%g)", c.Analyser.MinDecibels, c.Analyser.MaxDecibels))
	}
	if c.Analyser.Smoothing < 0 || c.Analyser.Smoothing > 1 {
		errs = append(errs, fmt.Errorf("analyser.smoothing must be within [0, 1], got %g", c.Analyser.Smoothing))
	}

	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		errs = append(errs, fmt.Errorf("display size must be positive, got %dx%d", c.Display.Width, c.Display.Height))
	}
	if c.Display.SpectrumShare <= 0 || c.Display.SpectrumShare >= 1 {
		errs = append(errs, fmt.Errorf("display.spectrum_share must be within (0, 1), got %g", c.Display.SpectrumShare))
	}
	if c.Display.DeviceScale < 0 {
		errs = append(errs, fmt.Errorf("display.device_scale must not be negative, got %g", c.Display.DeviceScale))
	}

	if c.Remote.Enabled && !strings.Contains(c.Remote.Address, ":") {
		errs = append(errs, fmt.Errorf("remote.address %q appears invalid (missing port?)", c.Remote.Address))
	}

	return errors.Join(errs...)
}
