// SPDX-License-Identifier: MIT
//
// Package build carries the metadata stamped into the audioscope binary at
// link time:
//
//	go build -ldflags "-X audioscope/pkg/build.buildVersion=0.3.0 \
//	    -X audioscope/pkg/build.buildCommit=$(git rev-parse --short HEAD) \
//	    -X audioscope/pkg/build.buildTime=$(date -u +%FT%TZ)"
//
// Development builds run without ldflags; the missing fields keep their
// defaults and Initialize reports which ones were absent.
package build

import (
	"errors"
	"fmt"
)

const (
	defaultName        = "audioscope"
	defaultDescription = "Real-time spectrum and waveform visualizer for live audio input"
	unknown            = "unknown"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// String formats the build information for the version command.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", f.Name, f.Version, f.Commit, f.Time)
}

// Package-level variables for build information, populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultFlags()
)

func defaultFlags() *ldFlags {
	return &ldFlags{
		Name:        defaultName,
		Description: defaultDescription,
		Time:        unknown,
		Commit:      unknown,
		Version:     "dev",
	}
}

// Initialize copies the ldflags variables into the build information. Every
// flag that was not provided keeps its default; the returned error joins one
// entry per missing flag so callers can decide whether a dev build is fine.
func Initialize() error {
	var errs []error
	set := func(dst *string, val, name string) {
		if val == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
			return
		}
		*dst = val
	}

	set(&buildFlags.Name, buildName, "BuildName")
	set(&buildFlags.Time, buildTime, "BuildTime")
	set(&buildFlags.Commit, buildCommit, "BuildCommit")
	set(&buildFlags.Version, buildVersion, "BuildVersion")

	return errors.Join(errs...)
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
