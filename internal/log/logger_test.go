// SPDX-License-Identifier: MIT
package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	prev := GetLevel()
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(prev)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{" warning ", LevelWarn, true},
		{"Error", LevelError, true},
		{"fatal", LevelFatal, true},
		{"verbose", LevelInfo, false},
		{"", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = (%s, %v), want (%s, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t)
	SetLevel(LevelWarn)

	Debugf("debug %d", 1)
	Infof("info %d", 2)
	Warnf("warn %d", 3)
	Errorf("error %d", 4)

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("messages below WARN were logged: %q", out)
	}
	if !strings.Contains(out, "[WARN]  warn 3") {
		t.Errorf("missing padded warn line in %q", out)
	}
	if !strings.Contains(out, "[ERROR] error 4") {
		t.Errorf("missing error line in %q", out)
	}
}

func TestConfigureWritesRotatingFile(t *testing.T) {
	captureOutput(t)
	path := filepath.Join(t.TempDir(), "audioscope.log")

	Configure("debug", FileOptions{Path: path, MaxSizeMB: 1, MaxBackups: 1})
	Debugf("Controller: state %s", "Capturing")
	if err := Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "Controller: state Capturing") {
		t.Errorf("log file missing message, got %q", data)
	}
	if GetLevel() != LevelDebug {
		t.Errorf("level = %s, want DEBUG", GetLevel())
	}
}

func TestConfigureUnknownLevel(t *testing.T) {
	buf := captureOutput(t)

	Configure("loud", FileOptions{})
	if GetLevel() != LevelInfo {
		t.Errorf("level = %s, want INFO fallback", GetLevel())
	}
	if !strings.Contains(buf.String(), `unknown level "loud"`) {
		t.Errorf("expected warning about unknown level, got %q", buf.String())
	}
}
