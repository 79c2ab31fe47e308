// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"audioscope/cmd"
	"audioscope/internal/analysis"
	"audioscope/internal/audio"
	"audioscope/internal/config"
	"audioscope/internal/display"
	"audioscope/internal/log"
	"audioscope/internal/status"
	"audioscope/internal/surface"
	"audioscope/internal/transport"
	"audioscope/internal/tui"
	"audioscope/internal/visualizer"
	"audioscope/pkg/build"

	"golang.org/x/sync/errgroup"
)

// main is the entry point for the visualizer.
//
// 1. Startup: build information, command line and configuration, logging,
// and one-off commands (device listing, picker, version).
//
// 2. Running: the window owns the main goroutine; the remote control hub and
// the signal watcher run beside it in an errgroup.
//
// 3. Shutdown: closing the window or a termination signal cancels the group,
// stops any capture session and flushes the log.
func main() {
	// Development builds run without ldflags.
	buildErr := build.Initialize()

	cfg, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg == nil {
		return
	}

	log.Configure(cfg.Log.Level, log.FileOptions{
		Path:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	if buildErr != nil {
		log.Debugf("Build: %v", buildErr)
	}

	if err := execute(cfg); err != nil {
		log.Errorf("%v", err)
		_ = log.Close()
		os.Exit(1)
	}
	_ = log.Close()
}

// execute runs the command selected on the command line.
func execute(cfg *config.Config) error {
	switch cfg.Command {
	case cmd.CommandVersion:
		fmt.Println(build.GetBuildFlags())
		return nil

	case cmd.CommandDevices:
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()
		return audio.ListDevices(os.Stdout)

	case cmd.CommandPick:
		sel, err := tui.PickDevice()
		if errors.Is(err, tui.ErrNoSelection) {
			return nil
		}
		if err != nil {
			return err
		}
		log.Infof("Main: using device %d (%s) at %.0f Hz", sel.DeviceID, sel.DeviceName, sel.SampleRate)
		cfg.Audio.InputDevice = sel.DeviceID
		cfg.Audio.InputFile = ""
		if sel.SampleRate > 0 {
			cfg.Audio.SampleRate = sel.SampleRate
		}
	}
	return run(cfg)
}

// run wires the visualizer together and blocks until the window closes.
func run(cfg *config.Config) error {
	analyserCfg, err := analysis.ConfigFrom(cfg.Analyser)
	if err != nil {
		return fmt.Errorf("invalid analyser configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	board := status.NewBoard()
	window := display.New(cfg.Display, board)
	spectrum, waveform := window.Surfaces()

	sinks := []status.Sink{board, status.LogSink{}}
	var hub *transport.Hub
	if cfg.Remote.Enabled {
		hub = transport.NewHub(nil)
		sinks = append(sinks, transport.StatusSink{T: hub})
	}

	ctrl := visualizer.NewController(visualizer.Options{
		Capturer:  newCapturer(cfg.Audio),
		Analyser:  analyserCfg,
		Surfaces:  surface.NewManager(spectrum, waveform, window.DeviceScale),
		Scheduler: window.Scheduler(),
		Status:    status.Multi(sinks...),
	})
	defer ctrl.Close()
	window.Attach(ctrl)

	g, gctx := errgroup.WithContext(ctx)
	if hub != nil {
		hub.Attach(ctrl)
		g.Go(func() error {
			return hub.ListenAndServe(gctx, cfg.Remote.Address)
		})
	}

	// The window must own the main goroutine. It closes on gctx, so a failing
	// hub or a signal ends the run.
	runErr := window.Run(gctx)
	stop()
	if hub != nil {
		_ = hub.Close()
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return runErr
}

// newCapturer returns a file replay capturer when an input file is
// configured, and a PortAudio device capturer otherwise.
func newCapturer(cfg config.AudioConfig) audio.Capturer {
	if cfg.InputFile != "" {
		log.Infof("Main: replaying %s", cfg.InputFile)
		return audio.NewFileCapturer(cfg.InputFile, cfg.FramesPerBuffer)
	}
	return audio.NewPortAudioCapturer(cfg)
}
