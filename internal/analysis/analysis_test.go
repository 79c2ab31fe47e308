// SPDX-License-Identifier: MIT
package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"audioscope/internal/audio"
	"audioscope/internal/config"
	"audioscope/pkg/utils"

	goaudio "github.com/go-audio/audio"
)

const testSampleRate = 44100

// fakeSource is an audio.Source fed by hand.
type fakeSource struct {
	sink audio.Sink
}

func (s *fakeSource) SampleRate() int         { return testSampleRate }
func (s *fakeSource) Connect(sink audio.Sink) { s.sink = sink }
func (s *fakeSource) Tracks() []audio.Track   { return nil }

func (s *fakeSource) push(samples []float32) {
	if s.sink == nil {
		return
	}
	s.sink.Write(&goaudio.Float32Buffer{
		Format: &goaudio.Format{NumChannels: 1, SampleRate: testSampleRate},
		Data:   samples,
	})
}

func newRunningGraph(t *testing.T, cfg Config) (*Graph, *fakeSource) {
	t.Helper()
	src := &fakeSource{}
	g, err := NewGraph(src, cfg)
	if err != nil {
		t.Fatalf("NewGraph error: %v", err)
	}
	if err := g.Resume(); err != nil {
		t.Fatalf("Resume error: %v", err)
	}
	return g, src
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.FFTSize != 2048 || cfg.MinDecibels != -90 || cfg.MaxDecibels != -10 || cfg.Smoothing != 0.8 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}

	g, _ := newRunningGraph(t, cfg)
	n := g.Analyser()
	if n.FFTSize() != 2048 || n.FrequencyBinCount() != 1024 {
		t.Errorf("FFTSize=%d FrequencyBinCount=%d", n.FFTSize(), n.FrequencyBinCount())
	}
	if n.MinDecibels() != -90 || n.MaxDecibels() != -10 || n.SmoothingTimeConstant() != 0.8 {
		t.Error("node does not report its configuration")
	}
}

func TestConfigFrom(t *testing.T) {
	c := config.NewConfig().Analyser
	cfg, err := ConfigFrom(c)
	if err != nil {
		t.Fatalf("ConfigFrom error: %v", err)
	}
	if cfg != DefaultConfig() {
		t.Errorf("ConfigFrom(defaults) = %+v, want %+v", cfg, DefaultConfig())
	}

	c.Window = "triangle"
	if _, err := ConfigFrom(c); err == nil {
		t.Error("expected error for unknown window")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"not power of two", func(c *Config) { c.FFTSize = 1000 }, "power of 2"},
		{"too small", func(c *Config) { c.FFTSize = 16 }, "power of 2"},
		{"inverted range", func(c *Config) { c.MinDecibels = -10; c.MaxDecibels = -90 }, "must be below"},
		{"nan range", func(c *Config) { c.MinDecibels = math.NaN() }, "must be below"},
		{"smoothing above one", func(c *Config) { c.Smoothing = 1.5 }, "smoothing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewGraph_Errors(t *testing.T) {
	if _, err := NewGraph(nil, DefaultConfig()); !errors.Is(err, ErrGraphConstruction) {
		t.Errorf("nil source: %v", err)
	}
	bad := DefaultConfig()
	bad.FFTSize = 3
	if _, err := NewGraph(&fakeSource{}, bad); !errors.Is(err, ErrGraphConstruction) {
		t.Errorf("bad config: %v", err)
	}
}

func TestGraph_Lifecycle(t *testing.T) {
	src := &fakeSource{}
	g, err := NewGraph(src, DefaultConfig())
	if err != nil {
		t.Fatalf("NewGraph error: %v", err)
	}
	if g.State() != GraphSuspended {
		t.Fatalf("initial state %v, want suspended", g.State())
	}

	// Suspended graphs ignore input.
	src.push([]float32{1, 1, 1})
	td := make([]float32, 4)
	g.Analyser().FloatTimeDomainData(td)
	for _, v := range td {
		if v != 0 {
			t.Fatalf("suspended analyser recorded samples: %v", td)
		}
	}

	if err := g.Resume(); err != nil {
		t.Fatalf("Resume error: %v", err)
	}
	if g.State() != GraphRunning {
		t.Errorf("state %v, want running", g.State())
	}

	if err := g.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if src.sink != nil {
		t.Error("Close did not disconnect the source")
	}
	if err := g.Close(); !errors.Is(err, ErrGraphClosed) {
		t.Errorf("second Close = %v, want ErrGraphClosed", err)
	}
	if err := g.Resume(); !errors.Is(err, ErrGraphClosed) {
		t.Errorf("Resume after Close = %v, want ErrGraphClosed", err)
	}
	if err := g.Suspend(); !errors.Is(err, ErrGraphClosed) {
		t.Errorf("Suspend after Close = %v, want ErrGraphClosed", err)
	}
}

func TestAnalyser_TimeDomainOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FFTSize = 32
	g, src := newRunningGraph(t, cfg)

	// 40 samples into a 32 sample window: 8..39 survive.
	in := make([]float32, 40)
	for i := range in {
		in[i] = float32(i)
	}
	src.push(in[:25])
	src.push(in[25:])

	got := make([]float32, 32)
	g.Analyser().FloatTimeDomainData(got)
	for i, v := range got {
		if v != float32(i+8) {
			t.Fatalf("got[%d] = %v, want %v", i, v, i+8)
		}
	}

	// A short destination receives the newest samples.
	short := make([]float32, 4)
	g.Analyser().FloatTimeDomainData(short)
	if short[0] != 36 || short[3] != 39 {
		t.Errorf("short snapshot = %v, want [36 37 38 39]", short)
	}
}

func TestAnalyser_OversizedWrite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FFTSize = 32
	g, src := newRunningGraph(t, cfg)

	in := make([]float32, 100)
	for i := range in {
		in[i] = float32(i)
	}
	src.push(in)

	got := make([]float32, 32)
	g.Analyser().FloatTimeDomainData(got)
	if got[0] != 68 || got[31] != 99 {
		t.Errorf("window = [%v .. %v], want [68 .. 99]", got[0], got[31])
	}
}

func TestAnalyser_SinePeak(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Smoothing = 0
	g, src := newRunningGraph(t, cfg)

	// 1 kHz lands near bin 1000 * 2048 / 44100.
	const freq = 1000.0
	src.push(utils.GenerateSineWave(cfg.FFTSize, testSampleRate, freq, 0.5))

	db := make([]float32, g.Analyser().FrequencyBinCount())
	g.Analyser().FloatFrequencyData(db)

	peak := utils.FindPeakBin(db, 1, len(db)-1)
	want := int(math.Round(freq * float64(cfg.FFTSize) / testSampleRate))
	if peak < want-1 || peak > want+1 {
		t.Errorf("peak bin = %d, want %d +/- 1", peak, want)
	}
	// Half-amplitude sine through a Blackman window: about -20 dB at the peak.
	if db[peak] < -30 || db[peak] > -10 {
		t.Errorf("peak level = %.1f dB, want within [-30, -10]", db[peak])
	}
	if got := g.analyser.FrequencyForBin(peak); math.Abs(got-freq) > 2*testSampleRate/float64(cfg.FFTSize) {
		t.Errorf("FrequencyForBin(%d) = %.1f Hz, want near %.0f", peak, got, freq)
	}
}

func TestAnalyser_SilenceIsNegativeInfinity(t *testing.T) {
	g, _ := newRunningGraph(t, DefaultConfig())

	db := make([]float32, g.Analyser().FrequencyBinCount())
	g.Analyser().FloatFrequencyData(db)
	for k, v := range db {
		if !math.IsInf(float64(v), -1) {
			t.Fatalf("bin %d = %v dB, want -Inf for silence", k, v)
		}
	}
}

func TestAnalyser_Smoothing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Smoothing = 0.5
	g, src := newRunningGraph(t, cfg)
	src.push(utils.GenerateSineWave(cfg.FFTSize, testSampleRate, 2000, 0.5))

	db := make([]float32, g.Analyser().FrequencyBinCount())
	g.Analyser().FloatFrequencyData(db)
	peak := utils.FindPeakBin(db, 1, len(db)-1)
	first := db[peak]
	g.Analyser().FloatFrequencyData(db)
	second := db[peak]

	// With tau 0.5 a steady input climbs from half to three quarters of its
	// magnitude: 20*log10(1.5) dB.
	if diff := float64(second - first); math.Abs(diff-20*math.Log10(1.5)) > 0.01 {
		t.Errorf("second frame rose by %.3f dB, want %.3f", diff, 20*math.Log10(1.5))
	}
}

func TestAnalyser_ZeroAllocs(t *testing.T) {
	g, src := newRunningGraph(t, DefaultConfig())
	buf := &goaudio.Float32Buffer{
		Format: &goaudio.Format{NumChannels: 1, SampleRate: testSampleRate},
		Data:   utils.GenerateSineWave(512, testSampleRate, 440, 0.5),
	}
	db := make([]float32, 1024)
	td := make([]float32, 2048)
	src.sink.Write(buf)

	allocs := testing.AllocsPerRun(50, func() {
		src.sink.Write(buf)
		g.Analyser().FloatFrequencyData(db)
		g.Analyser().FloatTimeDomainData(td)
	})
	if allocs != 0 {
		t.Errorf("hot path allocated %v times per frame, want 0", allocs)
	}
}

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		in      string
		want    WindowFunc
		wantErr bool
	}{
		{"", Blackman, false},
		{"Blackman", Blackman, false},
		{"hanning", Hann, false},
		{" nuttall ", Nuttall, false},
		{"none", Rectangular, false},
		{"kaiser", Blackman, true},
	}
	for _, tt := range tests {
		got, err := ParseWindowFunc(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseWindowFunc(%q) = %v, %v", tt.in, got, err)
		}
	}
	if Hann.String() != "hann" {
		t.Errorf("Hann.String() = %q", Hann.String())
	}
}

func BenchmarkFloatFrequencyData(b *testing.B) {
	src := &fakeSource{}
	g, err := NewGraph(src, DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	g.Resume()
	src.push(utils.GenerateComplexWave(2048, testSampleRate))
	db := make([]float32, 1024)

	for b.Loop() {
		g.Analyser().FloatFrequencyData(db)
	}
}
