// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	applog "audioscope/internal/log"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is looked up in the working directory when no path is given.
const DefaultConfigFile = "audioscope.yaml"

// LoadConfig loads configuration from the YAML file at path. If path is empty
// it looks for DefaultConfigFile and falls back to built-in defaults when that
// does not exist. Environment overrides are applied after the file, then the
// result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	applog.Debugf("Config: loaded %s", path)
	return cfg, nil
}

// applyEnvOverrides lets AUDIOSCOPE_* variables override file values. Values
// that fail to parse are ignored with a warning.
func (c *Config) applyEnvOverrides() {
	// AUDIOSCOPE_LOG_LEVEL
	if val, ok := os.LookupEnv("AUDIOSCOPE_LOG_LEVEL"); ok {
		c.Log.Level = val
		applog.Debugf("Config: overriding log.level from env: %s", val)
	}
	// AUDIOSCOPE_LOG_FILE
	if val, ok := os.LookupEnv("AUDIOSCOPE_LOG_FILE"); ok {
		c.Log.File = val
		applog.Debugf("Config: overriding log.file from env: %s", val)
	}

	// AUDIOSCOPE_INPUT_DEVICE
	if val, ok := os.LookupEnv("AUDIOSCOPE_INPUT_DEVICE"); ok {
		if id, err := strconv.Atoi(val); err == nil {
			c.Audio.InputDevice = id
			applog.Debugf("Config: overriding audio.input_device from env: %d", id)
		} else {
			applog.Warnf("Config: ignoring AUDIOSCOPE_INPUT_DEVICE=%q: %v", val, err)
		}
	}
	// AUDIOSCOPE_INPUT_FILE
	if val, ok := os.LookupEnv("AUDIOSCOPE_INPUT_FILE"); ok {
		c.Audio.InputFile = val
		applog.Debugf("Config: overriding audio.input_file from env: %s", val)
	}

	// AUDIOSCOPE_FFT_SIZE
	if val, ok := os.LookupEnv("AUDIOSCOPE_FFT_SIZE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Analyser.FFTSize = n
			applog.Debugf("Config: overriding analyser.fft_size from env: %d", n)
		} else {
			applog.Warnf("Config: ignoring AUDIOSCOPE_FFT_SIZE=%q: %v", val, err)
		}
	}

	// AUDIOSCOPE_REMOTE_ENABLED
	if val, ok := os.LookupEnv("AUDIOSCOPE_REMOTE_ENABLED"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Remote.Enabled = b
			applog.Debugf("Config: overriding remote.enabled from env: %v", b)
		} else {
			applog.Warnf("Config: ignoring AUDIOSCOPE_REMOTE_ENABLED=%q: %v", val, err)
		}
	}
	// AUDIOSCOPE_REMOTE_ADDRESS
	if val, ok := os.LookupEnv("AUDIOSCOPE_REMOTE_ADDRESS"); ok {
		c.Remote.Address = val
		applog.Debugf("Config: overriding remote.address from env: %s", val)
	}
}
