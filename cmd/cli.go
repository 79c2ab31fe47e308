// SPDX-License-Identifier: MIT

// Package cmd parses the command line into a runtime configuration.
package cmd

import (
	"fmt"

	"audioscope/internal/config"
	"audioscope/pkg/build"

	"github.com/spf13/cobra"
)

// Commands selected on the command line. The empty command runs the
// visualizer.
const (
	CommandRun     = ""
	CommandDevices = "devices"
	CommandPick    = "pick"
	CommandVersion = "version"
)

// flags holds raw flag values; only the ones set on the command line are
// applied over the loaded configuration.
type flags struct {
	configPath  string
	device      int
	input       string
	sampleRate  float64
	lowLatency  bool
	fftSize     int
	window      string
	scale       float64
	logLevel    string
	logFile     string
	remote      bool
	remoteAddr  string
	interactive bool
}

// ParseArgs parses args (without the program name), loads the configuration
// file and applies flag overrides. The selected one-off command, if any, is
// reported in Config.Command. A nil config with a nil error means cobra
// already handled the invocation, as for --help.
func ParseArgs(args []string) (*config.Config, error) {
	buildInfo := build.GetBuildFlags()
	var (
		f       flags
		options *config.Config
	)

	load := func(c *cobra.Command, command string) error {
		cfg, err := config.LoadConfig(f.configPath)
		if err != nil {
			return err
		}
		f.apply(c, cfg)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg.Command = command
		options = cfg
		return nil
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(c *cobra.Command, _ []string) error {
			return load(c, CommandRun)
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Devices command
	devicesCmd := &cobra.Command{
		Use:   "devices",
		Short: "List audio input devices",
		Long: "List audio input devices. With --interactive, pick one and start " +
			"the visualizer on it.",
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			if f.interactive {
				return load(c, CommandPick)
			}
			return load(c, CommandDevices)
		},
	}
	devicesCmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false,
		"Choose a device interactively, then start the visualizer")
	rootCmd.AddCommand(devicesCmd)

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			options = config.NewConfig()
			options.Command = CommandVersion
			return nil
		},
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "",
		"Configuration file (default "+config.DefaultConfigFile+" if present)")

	// Audio input configuration
	pf.IntVarP(&f.device, "device", "d", config.DefaultDeviceID,
		"Input device ID. Use the 'devices' command to see available devices.")
	pf.StringVar(&f.input, "input", config.DefaultInputFile,
		"Replay a wav, mp3 or ogg file instead of capturing from a device")
	pf.Float64VarP(&f.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	pf.BoolVarP(&f.lowLatency, "low-latency", "l", config.DefaultLowLatency,
		"Use the device's low latency setting")

	// Analysis and display
	pf.IntVar(&f.fftSize, "fft-size", config.DefaultFFTSize,
		"FFT size in frames (power of two)")
	pf.StringVar(&f.window, "window", config.DefaultFFTWindow,
		"FFT window function")
	pf.Float64Var(&f.scale, "scale", config.DefaultDeviceScale,
		"Device scale factor override (0 asks the monitor)")

	// Remote control
	pf.BoolVar(&f.remote, "remote", config.DefaultRemoteEnabled,
		"Serve the WebSocket remote control")
	pf.StringVar(&f.remoteAddr, "remote-addr", config.DefaultRemoteAddress,
		"Remote control listen address")

	// Logging
	pf.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel,
		"Log level (debug, info, warn, error)")
	pf.StringVar(&f.logFile, "log-file", "",
		"Also write logs to this rotating file")

	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return options, nil
}

// apply copies every flag set on the command line into cfg.
func (f *flags) apply(c *cobra.Command, cfg *config.Config) {
	changed := func(name string) bool {
		fl := c.Flag(name)
		return fl != nil && fl.Changed
	}

	if changed("device") {
		cfg.Audio.InputDevice = f.device
	}
	if changed("input") {
		cfg.Audio.InputFile = f.input
	}
	if changed("sample-rate") {
		cfg.Audio.SampleRate = f.sampleRate
	}
	if changed("low-latency") {
		cfg.Audio.LowLatency = f.lowLatency
	}
	if changed("fft-size") {
		cfg.Analyser.FFTSize = f.fftSize
	}
	if changed("window") {
		cfg.Analyser.Window = f.window
	}
	if changed("scale") {
		cfg.Display.DeviceScale = f.scale
	}
	if changed("remote") {
		cfg.Remote.Enabled = f.remote
	}
	if changed("remote-addr") {
		cfg.Remote.Address = f.remoteAddr
		cfg.Remote.Enabled = true
	}
	if changed("log-level") {
		cfg.Log.Level = f.logLevel
	}
	if changed("log-file") {
		cfg.Log.File = f.logFile
	}
}
