// SPDX-License-Identifier: MIT
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"spectra/internal/audio"
	"spectra/internal/config"
	"spectra/internal/log"
	"spectra/internal/spectrum"
	"spectra/internal/stream"
	"spectra/internal/transport"
	"spectra/internal/transport/udp"
	"spectra/internal/tui"
	"spectra/pkg/build"
)

// LogFileName is where log output goes while the terminal UI owns the screen.
const LogFileName = "spectra.log"

// frameLogEvery thins the frame log to a few lines per second.
const frameLogEvery = 10

// Execute runs the parsed command, writing command output to out.
func Execute(ctx context.Context, opts *Options, out io.Writer) error {
	switch opts.Command {
	case CommandNone:
		return nil
	case CommandList:
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()
		return audio.ListDevices(out)
	case CommandConfig:
		data, err := opts.Config.YAML()
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	case CommandRun:
		return run(ctx, opts)
	}
	return fmt.Errorf("unknown command %q", opts.Command)
}

// run wires source, pipeline, sinks and the UI together and blocks until the
// stream ends, the user quits or ctx is cancelled.
func run(ctx context.Context, opts *Options) error {
	cfg := opts.Config
	logger := log.Named("main")

	if cfg.Audio.Source == config.SourceCapture {
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()

		if opts.PickDevice {
			choice, err := tui.PickDevice(audio.HostDevices)
			if err != nil {
				return err
			}
			if !choice.Chosen {
				return nil
			}
			logger.Infof("using device %d (%s) at %.0f Hz", choice.ID, choice.Name, choice.SampleRate)
			cfg.Audio.InputDevice = choice.ID
			cfg.Audio.SampleRate = choice.SampleRate
		}
	}

	src, closeSource, err := newSource(cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	pipeline, err := spectrum.New(spectrumConfig(cfg.Spectrum, src.SampleRate()))
	if err != nil {
		return err
	}

	sinks, closeSinks, err := newSinks(cfg, pipeline)
	if err != nil {
		return err
	}
	defer closeSinks()

	runner := stream.NewRunner(src, pipeline, stream.Options{
		QueueDepth: cfg.Stream.QueueDepth,
		HopSize:    cfg.Stream.HopSize,
	}, sinks...)

	if cfg.UI.Headless {
		if len(sinks) == 0 && !cfg.Transport.UDPEnabled {
			logger.Warnf("headless with no outputs; use --ws, --udp or --log-frames")
		}
		logger.Infof("running headless at %.0f Hz, press Ctrl+C to stop", src.SampleRate())
		err := runner.Run(ctx)
		stats := runner.Stats()
		logger.Infof("processed %d frames, %d errors, %d chunks dropped", stats.Processed, stats.Errors, stats.Dropped)
		return err
	}

	restore, err := logToFile(filepath.Join(os.TempDir(), LogFileName))
	if err != nil {
		return err
	}
	defer restore()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make(chan error, 1)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		result <- runner.Run(ctx)
	}()

	title := fmt.Sprintf("%s %s", build.GetBuildFlags().Name, describeSource(cfg, src))
	uiErr := tui.RunSpectrum(ctx, pipeline, cfg.UI.RefreshRate, title, result)
	cancel()
	<-stopped
	return uiErr
}

// spectrumConfig adapts the configured analysis settings to the source's
// actual sample rate, pulling max_hz down to Nyquist when needed.
func spectrumConfig(cfg spectrum.Config, sampleRate float64) spectrum.Config {
	cfg = cfg.Clone()
	cfg.SampleRate = sampleRate
	if nyquist := sampleRate / 2; cfg.FrequencyRange.MaxHz > nyquist {
		log.Named("main").Warnf("max_hz %.0f is above nyquist for %.0f Hz audio, using %.0f",
			cfg.FrequencyRange.MaxHz, sampleRate, nyquist)
		cfg.FrequencyRange.MaxHz = nyquist
	}
	return cfg
}

// newSource builds the configured sample source. The returned func releases
// it, finishing any recording.
func newSource(cfg *config.Config) (stream.Source, func(), error) {
	noop := func() {}
	a := cfg.Audio
	chunk := audio.WithChunkSize(a.FramesPerBuffer)

	if cfg.Recording.Enabled && a.Source != config.SourceCapture {
		log.Named("main").Warnf("recording is only available for the capture source")
	}

	switch a.Source {
	case config.SourceFile:
		src, err := audio.NewFileSource(a.File, chunk, audio.WithLoop(a.Loop))
		return src, noop, err

	case config.SourceSine:
		src, err := audio.NewSineSource(a.SampleRate, a.SineFrequency, a.SineAmplitude, chunk)
		return src, noop, err

	case config.SourceCapture:
		gate := audio.NewGate(a.GateThreshold)
		if !a.GateEnabled {
			gate.Disable()
		}

		var recorder *audio.Recorder
		if cfg.Recording.Enabled {
			r, err := audio.NewRecorder(int(a.SampleRate), cfg.Recording.BitDepth)
			if err != nil {
				return nil, noop, err
			}
			if err := r.StartRecording(audio.RecordingPath(cfg.Recording.OutputDir, time.Now())); err != nil {
				return nil, noop, err
			}
			recorder = r
		}
		closeRecorder := func() {
			if recorder == nil {
				return
			}
			name := recorder.Filename()
			if err := recorder.Close(); err != nil {
				log.Named("main").Errorf("closing recording: %v", err)
				return
			}
			log.Named("main").Infof("recording saved to %s", name)
		}

		src, err := audio.NewCapture(audio.CaptureConfig{
			DeviceID:        a.InputDevice,
			SampleRate:      a.SampleRate,
			FramesPerBuffer: a.FramesPerBuffer,
			Channels:        a.InputChannels,
			LowLatency:      a.LowLatency,
		}, gate, recorder)
		if err != nil {
			closeRecorder()
			return nil, noop, err
		}
		return src, closeRecorder, nil
	}
	return nil, noop, fmt.Errorf("unknown source %q", a.Source)
}

// newSinks starts the configured outputs. The UDP publisher pulls frames
// from the pipeline itself, so it is started here but not returned as a sink.
func newSinks(cfg *config.Config, frames transport.FrameSource) ([]transport.Transport, func(), error) {
	var (
		sinks   []transport.Transport
		closers []io.Closer
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].Close(); err != nil {
				log.Named("main").Warnf("closing output: %v", err)
			}
		}
	}

	t := cfg.Transport
	if t.LogFrames {
		sinks = append(sinks, transport.NewLoggingTransport(frameLogEvery))
	}

	if t.WebSocketEnabled {
		ws := transport.NewWebSocketTransport(t.WebSocketAddr)
		if err := ws.ListenAndServe(); err != nil {
			ws.Close()
			closeAll()
			return nil, func() {}, fmt.Errorf("websocket: %w", err)
		}
		sinks = append(sinks, ws)
		closers = append(closers, ws)
	}

	if t.UDPEnabled {
		sender, err := udp.NewSender(t.UDPTargetAddress)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("udp: %w", err)
		}
		publisher, err := udp.NewPublisher(t.UDPSendInterval, sender, frames)
		if err != nil {
			sender.Close()
			closeAll()
			return nil, func() {}, fmt.Errorf("udp: %w", err)
		}
		publisher.Start()
		closers = append(closers, publisher)
	}

	return sinks, closeAll, nil
}

// logToFile sends log output to path until the returned func is called.
func logToFile(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		f.Close()
	}, nil
}

func describeSource(cfg *config.Config, src stream.Source) string {
	switch s := src.(type) {
	case *audio.FileSource:
		return fmt.Sprintf("%s @ %.0f Hz", filepath.Base(s.Path()), s.SampleRate())
	case *audio.Capture:
		return fmt.Sprintf("%s @ %.0f Hz", s.DeviceName(), s.SampleRate())
	case *audio.SineSource:
		return fmt.Sprintf("sine %.0f Hz @ %.0f Hz", cfg.Audio.SineFrequency, s.SampleRate())
	}
	return cfg.Audio.Source
}
