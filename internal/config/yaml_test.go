// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"spectra/internal/log"
	"spectra/internal/spectrum"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg == nil {
		t.Fatal("expected default config, got nil")
	}
	if !reflect.DeepEqual(cfg.Spectrum, spectrum.DefaultConfig()) {
		t.Errorf("spectrum section differs from defaults: %+v", cfg.Spectrum)
	}
	if cfg.Audio.Source != SourceCapture || cfg.Audio.InputDevice != DefaultDeviceID {
		t.Errorf("unexpected audio defaults: %+v", cfg.Audio)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: debug
audio:
  source: sine
  sine_frequency: 1000
spectrum:
  resolution: 64
  interpolation_mode: cubic
  bar_aggregation: peak
  weighting: mixture
  frequency_range:
    min_hz: 30
    max_hz: 16000
transport:
  udp_enabled: true
  udp_send_interval: 20ms
ui:
  refresh_rate: 50ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.LogLevel != "debug" || cfg.Audio.Source != SourceSine || cfg.Audio.SineFrequency != 1000 {
		t.Errorf("top-level overrides not applied: %+v", cfg)
	}
	if cfg.Audio.SampleRate != DefaultSampleRate || cfg.Audio.FramesPerBuffer != DefaultFramesPerBuffer {
		t.Errorf("untouched audio keys lost their defaults: %+v", cfg.Audio)
	}

	s := cfg.Spectrum
	if s.Resolution != 64 || s.Interpolation != spectrum.InterpolationCubic ||
		s.Aggregation != spectrum.AggregationPeak || s.Weighting != spectrum.WeightingMixture {
		t.Errorf("spectrum overrides not applied: %+v", s)
	}
	if s.FrequencyRange != (spectrum.FrequencyRange{MinHz: 30, MaxHz: 16000}) {
		t.Errorf("frequency_range = %+v", s.FrequencyRange)
	}
	if s.BufferSize != 2048 || s.GravityAcceleration != 4.0 {
		t.Errorf("untouched spectrum keys lost their defaults: %+v", s)
	}

	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPSendInterval != 20*time.Millisecond {
		t.Errorf("transport = %+v", cfg.Transport)
	}
	if cfg.UI.RefreshRate != 50*time.Millisecond {
		t.Errorf("ui.refresh_rate = %v", cfg.UI.RefreshRate)
	}
}

func TestLoadConfig_UnknownEnum(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, "spectrum:\n  window: triangle-ish\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected parse error for unknown window, got %v", err)
	}
}

func TestLoadConfig_InvalidSpectrum(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, "spectrum:\n  buffer_size: 1000\n")
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, spectrum.ErrConfiguration) {
		t.Errorf("expected spectrum.ErrConfiguration in chain, got %v", err)
	}
	if !strings.Contains(err.Error(), "nearest valid: 1024") {
		t.Errorf("expected power of two hint, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		substr string
	}{
		{"Defaults", func(*Config) {}, ""},
		{"Bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"Unknown source", func(c *Config) { c.Audio.Source = "radio" }, "audio.source"},
		{"File source without file", func(c *Config) { c.Audio.Source = SourceFile }, "audio.file"},
		{"File source with file", func(c *Config) { c.Audio.Source = SourceFile; c.Audio.File = "a.wav" }, ""},
		{"Sine above nyquist", func(c *Config) { c.Audio.Source = SourceSine; c.Audio.SineFrequency = 30000 }, "audio.sine_frequency"},
		{"Sine amplitude", func(c *Config) { c.Audio.Source = SourceSine; c.Audio.SineAmplitude = 2 }, "audio.sine_amplitude"},
		{"Device below default", func(c *Config) { c.Audio.InputDevice = -2 }, "audio.input_device"},
		{"Sample rate too low", func(c *Config) { c.Audio.SampleRate = 4000 }, "audio.sample_rate"},
		{"Frames per buffer", func(c *Config) { c.Audio.FramesPerBuffer = 0 }, "audio.frames_per_buffer"},
		{"Gate threshold", func(c *Config) { c.Audio.GateThreshold = 1.5 }, "audio.gate_threshold"},
		{"Spectrum resolution", func(c *Config) { c.Spectrum.Resolution = 0 }, "resolution"},
		{"Queue depth", func(c *Config) { c.Stream.QueueDepth = 0 }, "stream.queue_depth"},
		{"Hop size", func(c *Config) { c.Stream.HopSize = -1 }, "stream.hop_size"},
		{"Recording bit depth", func(c *Config) { c.Recording.Enabled = true; c.Recording.BitDepth = 8 }, "recording.bit_depth"},
		{"Recording disabled ignores bit depth", func(c *Config) { c.Recording.BitDepth = 8 }, ""},
		{"WebSocket address", func(c *Config) { c.Transport.WebSocketEnabled = true; c.Transport.WebSocketAddr = "nope" }, "transport.websocket_addr"},
		{"UDP address", func(c *Config) { c.Transport.UDPEnabled = true; c.Transport.UDPTargetAddress = "localhost" }, "transport.udp_target_address"},
		{"UDP interval", func(c *Config) { c.Transport.UDPEnabled = true; c.Transport.UDPSendInterval = 0 }, "transport.udp_send_interval"},
		{"Refresh rate", func(c *Config) { c.UI.RefreshRate = time.Millisecond }, "ui.refresh_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.substr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error = %v, want substring %q", err, tt.substr)
			}
		})
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.LogLevel = "loud"
	cfg.Stream.QueueDepth = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"log_level", "stream.queue_depth"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error missing %q: %v", want, err)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ENV_DEBUG", "true")
	t.Setenv("ENV_LOG_LEVEL", "warn")
	t.Setenv("ENV_UDP_ENABLED", "1")
	t.Setenv("ENV_UDP_TARGET_ADDRESS", "10.0.0.2:7000")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "10ms")
	t.Setenv("ENV_WS_ADDR", "0.0.0.0:9000")

	cfg, err := LoadConfig(writeTempConfig(t, "debug: false\nlog_level: error\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Debug || cfg.LogLevel != "warn" {
		t.Errorf("debug/log_level = %v/%q", cfg.Debug, cfg.LogLevel)
	}
	tr := cfg.Transport
	if !tr.UDPEnabled || tr.UDPTargetAddress != "10.0.0.2:7000" || tr.UDPSendInterval != 10*time.Millisecond {
		t.Errorf("udp overrides = %+v", tr)
	}
	if tr.WebSocketAddr != "0.0.0.0:9000" {
		t.Errorf("websocket_addr = %q", tr.WebSocketAddr)
	}
}

func TestEnvOverrides_InvalidValuesIgnored(t *testing.T) {
	t.Setenv("ENV_DEBUG", "maybe")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "soon")

	cfg, err := LoadConfig(writeTempConfig(t, "debug: true\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Debug {
		t.Error("invalid ENV_DEBUG should leave the file value")
	}
	if cfg.Transport.UDPSendInterval != DefaultUDPInterval {
		t.Errorf("udp_send_interval = %v, want default", cfg.Transport.UDPSendInterval)
	}
}

func TestEffectiveLogLevel(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.LogLevel = "error"
	if got := cfg.EffectiveLogLevel(); got != log.LevelError {
		t.Errorf("EffectiveLogLevel = %v, want ERROR", got)
	}
	cfg.Debug = true
	if got := cfg.EffectiveLogLevel(); got != log.LevelDebug {
		t.Errorf("EffectiveLogLevel with debug = %v, want DEBUG", got)
	}
}

func TestYAMLReload(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Audio.Source = SourceSine
	cfg.Spectrum.Window = spectrum.BlackmanNuttall
	cfg.Spectrum.Scale = spectrum.ScaleLinear
	cfg.Transport.UDPSendInterval = 25 * time.Millisecond

	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	for _, want := range []string{"source: sine", "udp_send_interval: 25ms", "interpolation_mode: linear"} {
		if !strings.Contains(string(out), want) {
			t.Errorf("YAML output missing %q:\n%s", want, out)
		}
	}

	reloaded, err := LoadConfig(writeTempConfig(t, string(out)))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reflect.DeepEqual(*reloaded, cfg) {
		t.Errorf("reloaded config differs:\n got %+v\nwant %+v", *reloaded, cfg)
	}
}

func TestValidate_BufferSizeHint(t *testing.T) {
	t.Parallel()
	tests := []struct {
		size int
		want string
	}{
		{1000, "nearest valid: 1024"},
		{1100, "nearest valid: 1024"},
		{1600, "nearest valid: 2048"},
		{3, "nearest valid: 4"},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.Spectrum.BufferSize = tt.size
		err := cfg.Validate()
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("buffer_size %d: error = %v, want %q", tt.size, err, tt.want)
		}
	}
}
