// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"spectra/internal/log"
	"spectra/internal/spectrum"
	"spectra/pkg/bitint"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug mode (forces debug logging).
	LogLevel  string          `yaml:"log_level"` // Logging level ("debug", "info", "warn", "error").
	Audio     AudioConfig     `yaml:"audio"`     // Sample source settings.
	Spectrum  spectrum.Config `yaml:"spectrum"`  // Analysis pipeline settings.
	Stream    StreamConfig    `yaml:"stream"`    // Source to pipeline plumbing.
	Recording RecordingConfig `yaml:"recording"` // Audio recording settings.
	Transport TransportConfig `yaml:"transport"` // Frame output settings.
	UI        UIConfig        `yaml:"ui"`        // Terminal UI settings.
}

// AudioConfig holds settings related to the sample source.
type AudioConfig struct {
	Source          string  `yaml:"source"`            // "capture", "file" or "sine".
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index for capture (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Capture and synth sample rate in Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per PortAudio callback, also the chunk size of other sources.
	InputChannels   int     `yaml:"input_channels"`    // Channels to capture before the mono downmix.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency settings from the device.
	File            string  `yaml:"file"`              // Audio file for the "file" source.
	Loop            bool    `yaml:"loop"`              // Restart the file when it ends.
	SineFrequency   float64 `yaml:"sine_frequency"`    // Tone of the "sine" source in Hz.
	SineAmplitude   float64 `yaml:"sine_amplitude"`    // Peak amplitude of the "sine" source.
	GateEnabled     bool    `yaml:"gate_enabled"`      // Silence buffers below the gate threshold.
	GateThreshold   float64 `yaml:"gate_threshold"`    // Gate threshold in [0, 1].
}

// StreamConfig controls how samples flow from the source into the pipeline.
type StreamConfig struct {
	QueueDepth int `yaml:"queue_depth"` // Chunks buffered before the oldest is dropped.
	HopSize    int `yaml:"hop_size"`    // New samples between analyses (0 for one per chunk).
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record the mono capture stream to WAV.
	OutputDir string `yaml:"output_dir"` // Directory to save recorded audio files.
	BitDepth  int    `yaml:"bit_depth"`  // Bit depth for recorded audio (16, 24 or 32).
}

// TransportConfig holds settings related to sending frames over the network.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Serve frames as JSON on /bars.
	WebSocketAddr    string        `yaml:"websocket_addr"`     // Listen address for the websocket server.
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Enable sending frames over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between sending UDP packets.
	LogFrames        bool          `yaml:"log_frames"`         // Log a sparkline of each frame at debug level.
}

// UIConfig holds settings for the terminal UI.
type UIConfig struct {
	RefreshRate time.Duration `yaml:"refresh_rate"` // Interval between redraws.
	Headless    bool          `yaml:"headless"`     // Run without the terminal UI.
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. Keys missing from the file keep their defaults. After loading, it applies
// environment variable overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{DefaultConfigFile}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks every section and joins all problems into one error.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := log.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}

	// Audio Validation
	a := c.Audio
	switch a.Source {
	case SourceCapture:
		if a.InputDevice < MinDeviceID {
			errs = append(errs, fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, a.InputDevice))
		}
		if a.InputChannels < 0 {
			errs = append(errs, fmt.Errorf("audio.input_channels must be >= 0, got %d", a.InputChannels))
		}
	case SourceFile:
		if a.File == "" {
			errs = append(errs, errors.New("audio.file must be set when audio.source is \"file\""))
		}
	case SourceSine:
		if a.SineFrequency < 0 || a.SineFrequency > a.SampleRate/2 {
			errs = append(errs, fmt.Errorf("audio.sine_frequency must be in [0, %g], got %g", a.SampleRate/2, a.SineFrequency))
		}
		if a.SineAmplitude < 0 || a.SineAmplitude > 1 {
			errs = append(errs, fmt.Errorf("audio.sine_amplitude must be in [0, 1], got %g", a.SineAmplitude))
		}
	default:
		errs = append(errs, fmt.Errorf("audio.source %q is not one of %s, %s, %s", a.Source, SourceCapture, SourceFile, SourceSine))
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be in [%d, %d], got %g", MinSampleRate, MaxSampleRate, a.SampleRate))
	}
	if a.FramesPerBuffer < 1 || a.FramesPerBuffer > MaxBufferFrames {
		errs = append(errs, fmt.Errorf("audio.frames_per_buffer must be in [1, %d], got %d", MaxBufferFrames, a.FramesPerBuffer))
	}
	if a.GateThreshold < 0 || a.GateThreshold > 1 {
		errs = append(errs, fmt.Errorf("audio.gate_threshold must be in [0, 1], got %g", a.GateThreshold))
	}

	// Spectrum Validation
	if err := c.Spectrum.Validate(); err != nil {
		var hint string
		if !bitint.IsPowerOfTwo(c.Spectrum.BufferSize) && c.Spectrum.BufferSize > 0 {
			size := c.Spectrum.BufferSize
			lo, hi := bitint.PrevPowerOfTwo(size), bitint.NextPowerOfTwo(size)
			nearest := hi
			if size-lo < hi-size {
				nearest = lo
			}
			hint = fmt.Sprintf(" (nearest valid: %d)", nearest)
		}
		errs = append(errs, fmt.Errorf("spectrum: %w%s", err, hint))
	}

	// Stream Validation
	if c.Stream.QueueDepth < 1 {
		errs = append(errs, fmt.Errorf("stream.queue_depth must be >= 1, got %d", c.Stream.QueueDepth))
	}
	if c.Stream.HopSize < 0 {
		errs = append(errs, fmt.Errorf("stream.hop_size must be >= 0, got %d", c.Stream.HopSize))
	}

	// Recording Validation
	if c.Recording.Enabled {
		switch c.Recording.BitDepth {
		case 16, 24, 32:
		default:
			errs = append(errs, fmt.Errorf("recording.bit_depth must be 16, 24 or 32, got %d", c.Recording.BitDepth))
		}
		if c.Recording.OutputDir == "" {
			errs = append(errs, errors.New("recording.output_dir must be set when recording is enabled"))
		}
	}

	// Transport Validation
	t := c.Transport
	if t.WebSocketEnabled {
		if _, _, err := net.SplitHostPort(t.WebSocketAddr); err != nil {
			errs = append(errs, fmt.Errorf("transport.websocket_addr %q: %w", t.WebSocketAddr, err))
		}
	}
	if t.UDPEnabled {
		if _, _, err := net.SplitHostPort(t.UDPTargetAddress); err != nil {
			errs = append(errs, fmt.Errorf("transport.udp_target_address %q appears invalid: %w", t.UDPTargetAddress, err))
		}
		if t.UDPSendInterval <= 0 {
			errs = append(errs, errors.New("transport.udp_send_interval must be positive when UDP is enabled"))
		}
	}

	// UI Validation
	if c.UI.RefreshRate < MinRefreshRate {
		errs = append(errs, fmt.Errorf("ui.refresh_rate must be >= %v, got %v", MinRefreshRate, c.UI.RefreshRate))
	}

	return errors.Join(errs...)
}

// EffectiveLogLevel returns the level to run at: debug when Debug is set,
// otherwise LogLevel.
func (c *Config) EffectiveLogLevel() log.LogLevel {
	if c.Debug {
		return log.LevelDebug
	}
	level, _ := log.ParseLevel(c.LogLevel)
	return level
}

// YAML renders the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return out, nil
}

// applyEnvOverrides applies ENV_* variables on top of the loaded values.
// Unparseable values are logged and ignored.
func (cfg *Config) applyEnvOverrides() {
	l := log.Named("config")

	// ENV_{...}
	// These are general overrides.

	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			l.Infof("overriding debug from env: %v", bVal)
		} else {
			l.Warnf("ignoring ENV_DEBUG=%q: %v", val, err)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = strings.TrimSpace(val)
		l.Infof("overriding log_level from env: %s", cfg.LogLevel)
	}

	// ENV_UDP_{...}
	// These are specific to the transport layer.

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
			l.Infof("overriding transport.udp_enabled from env: %v", bVal)
		} else {
			l.Warnf("ignoring ENV_UDP_ENABLED=%q: %v", val, err)
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		l.Infof("overriding transport.udp_target_address from env: %s", val)
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
			l.Infof("overriding transport.udp_send_interval from env: %s", dur)
		} else {
			l.Warnf("ignoring ENV_UDP_SEND_INTERVAL=%q: %v", val, err)
		}
	}

	// ENV_WS_ADDR
	if val, ok := os.LookupEnv("ENV_WS_ADDR"); ok {
		cfg.Transport.WebSocketAddr = val
		l.Infof("overriding transport.websocket_addr from env: %s", val)
	}
}
