// SPDX-License-Identifier: MIT
package config

import (
	"time"

	"spectra/internal/audio"
	"spectra/internal/spectrum"
)

// Audio sources.
const (
	SourceCapture = "capture"
	SourceFile    = "file"
	SourceSine    = "sine"
)

// Core configuration constants that define the boundaries and defaults of
// the application.
const (
	DefaultConfigFile      = "config.yaml"
	DefaultLogLevel        = "info"
	DefaultSource          = SourceCapture
	DefaultDeviceID        = audio.DefaultDeviceID // System default input device
	DefaultFramesPerBuffer = 512                   // Balanced latency/performance
	DefaultSampleRate      = 44100                 // CD-quality audio
	DefaultInputChannels   = 2
	DefaultSineFrequency   = 440
	DefaultSineAmplitude   = 0.8
	DefaultQueueDepth      = 8
	DefaultRecordingDir    = "./recordings"
	DefaultBitDepth        = 16
	DefaultWebSocketAddr   = "127.0.0.1:8080"
	DefaultUDPTarget       = "127.0.0.1:9090"
	DefaultUDPInterval     = 33 * time.Millisecond // ~30Hz
	DefaultRefreshRate     = 33 * time.Millisecond

	// Hardware and processing limits
	MinDeviceID     = audio.DefaultDeviceID
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz)
	MaxBufferFrames = 8192   // Maximum frames per callback
	MinRefreshRate  = 5 * time.Millisecond
)

// Default returns the built-in configuration that LoadConfig starts from.
func Default() Config {
	return Config{
		Debug:    false,
		LogLevel: DefaultLogLevel,
		Audio: AudioConfig{
			Source:          DefaultSource,
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			InputChannels:   DefaultInputChannels,
			LowLatency:      false,
			SineFrequency:   DefaultSineFrequency,
			SineAmplitude:   DefaultSineAmplitude,
			GateEnabled:     true,
			GateThreshold:   audio.DefaultGateThreshold,
		},
		Spectrum: spectrum.DefaultConfig(),
		Stream: StreamConfig{
			QueueDepth: DefaultQueueDepth,
			HopSize:    0, // Process once per full buffer.
		},
		Recording: RecordingConfig{
			Enabled:   false,
			OutputDir: DefaultRecordingDir,
			BitDepth:  DefaultBitDepth,
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddr:    DefaultWebSocketAddr,
			UDPEnabled:       false,
			UDPTargetAddress: DefaultUDPTarget,
			UDPSendInterval:  DefaultUDPInterval,
			LogFrames:        false,
		},
		UI: UIConfig{
			RefreshRate: DefaultRefreshRate,
			Headless:    false,
		},
	}
}
