// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"fmt"
	"time"

	"spectra/internal/log"

	"github.com/gordonklaus/portaudio"
)

// paStream is the part of *portaudio.Stream that Capture drives.
type paStream interface {
	Start() error
	Stop() error
	Close() error
}

var paOpenStreamFunc = func(params portaudio.StreamParameters, callback func(in []float32)) (paStream, error) {
	return portaudio.OpenStream(params, callback)
}

// CaptureConfig selects and configures the input device.
type CaptureConfig struct {
	DeviceID        int     // DefaultDeviceID for the host default.
	SampleRate      float64 // 0 uses the device's default rate.
	FramesPerBuffer int
	Channels        int // 0 uses up to two of the device's input channels.
	LowLatency      bool
}

// Capture streams a PortAudio input device as mono samples. Each callback
// buffer is downmixed, teed ungated to the recorder, passed through the gate
// and emitted. Initialize must have been called.
type Capture struct {
	device          *portaudio.DeviceInfo
	channels        int
	sampleRate      float64
	framesPerBuffer int
	latency         time.Duration

	gate     *Gate
	recorder *Recorder
	log      *log.Logger
}

// NewCapture resolves the device in cfg. gate and recorder may be nil.
func NewCapture(cfg CaptureConfig, gate *Gate, recorder *Recorder) (*Capture, error) {
	device, err := InputDevice(cfg.DeviceID)
	if err != nil {
		return nil, err
	}
	if device.MaxInputChannels <= 0 {
		return nil, fmt.Errorf("device %q does not support input", device.Name)
	}
	if cfg.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("invalid frames per buffer %d", cfg.FramesPerBuffer)
	}

	channels := cfg.Channels
	if channels <= 0 {
		channels = 2
	}
	channels = min(channels, device.MaxInputChannels)

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = device.DefaultSampleRate
	}

	latency := device.DefaultHighInputLatency
	if cfg.LowLatency {
		latency = device.DefaultLowInputLatency
	}

	return &Capture{
		device:          device,
		channels:        channels,
		sampleRate:      sampleRate,
		framesPerBuffer: cfg.FramesPerBuffer,
		latency:         latency,
		gate:            gate,
		recorder:        recorder,
		log:             log.Named("capture"),
	}, nil
}

func (c *Capture) SampleRate() float64 { return c.sampleRate }
func (c *Capture) Channels() int       { return c.channels }
func (c *Capture) DeviceName() string  { return c.device.Name }

// Stream opens the input stream and emits until ctx is cancelled.
func (c *Capture) Stream(ctx context.Context, emit func([]float32)) error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   c.device,
			Channels: c.channels,
			Latency:  c.latency,
		},
		FramesPerBuffer: c.framesPerBuffer,
		SampleRate:      c.sampleRate,
	}

	stream, err := paOpenStreamFunc(params, func(in []float32) {
		if mono := c.process(in); mono != nil {
			emit(mono)
		}
	})
	if err != nil {
		return fmt.Errorf("open input stream on %q: %w", c.device.Name, err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("start input stream: %w", err)
	}
	c.log.Infof("capturing %q: %d ch @ %.0fHz, %d frames/buffer, latency %v",
		c.device.Name, c.channels, c.sampleRate, c.framesPerBuffer, c.latency)

	<-ctx.Done()

	if err := stream.Stop(); err != nil {
		return fmt.Errorf("stop input stream: %w", err)
	}
	return nil
}

// process turns one interleaved callback buffer into a fresh mono chunk. It
// runs on the PortAudio thread.
func (c *Capture) process(in []float32) []float32 {
	mono := make([]float32, len(in)/c.channels)
	mono = mono[:Downmix(mono, in, c.channels)]
	if len(mono) == 0 {
		return nil
	}

	if c.recorder != nil {
		if err := c.recorder.Write(mono); err != nil {
			c.log.Errorf("recording failed, stopping: %v", err)
			if err := c.recorder.StopRecording(); err != nil {
				c.log.Errorf("stop recording: %v", err)
			}
		}
	}

	if c.gate != nil {
		c.gate.Apply(mono)
	}
	return mono
}
