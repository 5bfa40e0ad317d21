// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"io"
	"os"

	"spectra/internal/config"
	"spectra/internal/spectrum"
	"spectra/pkg/build"

	"github.com/spf13/cobra"
)

// Commands selected on the command line. CommandNone means cobra already
// handled the invocation (help, version) and there is nothing left to do.
const (
	CommandNone   = ""
	CommandRun    = "run"
	CommandList   = "list"
	CommandConfig = "config"
)

// Options is the outcome of parsing the command line: the command to run and
// the effective configuration (defaults, file, environment, then flags).
type Options struct {
	Command    string
	ConfigPath string
	PickDevice bool
	Config     *config.Config
}

// flagValues holds raw flag values; they are applied on top of the loaded
// configuration only when set on the command line.
type flagValues struct {
	device          int
	source          string
	file            string
	loop            bool
	sine            float64
	sampleRate      float64
	framesPerBuffer int
	channels        int
	lowLatency      bool

	resolution    int
	bufferSize    int
	interpolation string
	aggregation   string
	window        string
	scale         string

	headless  bool
	record    bool
	outputDir string
	ws        string
	udp       string
	logFrames bool
	verbose   bool
}

// ParseArgs parses os.Args and loads the configuration.
func ParseArgs() (*Options, error) {
	return parseArgs(os.Args[1:], os.Stdout)
}

func parseArgs(args []string, out io.Writer) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{}
	var fv flagValues

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         build.Description,
		Version:       buildInfo.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(options.ConfigPath)
			if err != nil {
				return err
			}
			if err := applyFlags(cfg, fv, cmd.Flags().Changed); err != nil {
				return err
			}
			options.Config = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandRun
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandList
			return nil
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandConfig
			return nil
		},
	})

	flags := rootCmd.PersistentFlags()

	// Configuration
	flags.StringVarP(&options.ConfigPath, "config", "f", "",
		"Path to the YAML configuration file (default: ./"+config.DefaultConfigFile+" if present)")

	// Audio source
	flags.StringVar(&fv.source, "source", config.DefaultSource,
		"Sample source: capture, file or sine")
	flags.IntVarP(&fv.device, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	flags.BoolVar(&options.PickDevice, "pick", false,
		"Choose the input device and sample rate interactively")
	flags.StringVar(&fv.file, "file", "",
		"Audio file to play (wav, mp3, ogg); implies --source=file")
	flags.BoolVar(&fv.loop, "loop", false,
		"Restart the file when it ends")
	flags.Float64Var(&fv.sine, "sine", config.DefaultSineFrequency,
		"Test tone frequency in Hz; implies --source=sine")
	flags.Float64VarP(&fv.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	flags.IntVarP(&fv.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	flags.IntVarP(&fv.channels, "channels", "c", config.DefaultInputChannels,
		"Number of channels to capture before the mono downmix")
	flags.BoolVarP(&fv.lowLatency, "low-latency", "l", false,
		"Use low latency mode for real-time processing")

	// Spectrum
	def := spectrum.DefaultConfig()
	flags.IntVarP(&fv.resolution, "resolution", "n", def.Resolution,
		"Number of bars")
	flags.IntVar(&fv.bufferSize, "buffer-size", def.BufferSize,
		"FFT size in samples (power of two)")
	flags.StringVar(&fv.interpolation, "interpolation", def.Interpolation.String(),
		"Empty bar interpolation: linear, step, cubic or gaps")
	flags.StringVar(&fv.aggregation, "aggregation", def.Aggregation.String(),
		"Bin aggregation: mean or peak")
	flags.StringVar(&fv.window, "window", def.Window.String(),
		"Window function (hann, hamming, blackman, ...)")
	flags.StringVar(&fv.scale, "scale", def.Scale.String(),
		"Bar spacing: logarithmic, linear, exponential or harmonic")

	// Outputs
	flags.BoolVar(&fv.headless, "headless", false,
		"Run without the terminal UI")
	flags.BoolVarP(&fv.record, "record", "r", false,
		"Record the captured audio to WAV")
	flags.StringVarP(&fv.outputDir, "output-dir", "o", config.DefaultRecordingDir,
		"Directory for recordings")
	flags.StringVar(&fv.ws, "ws", "",
		"Serve frames over WebSocket, optionally on --ws=ADDR")
	flags.Lookup("ws").NoOptDefVal = config.DefaultWebSocketAddr
	flags.StringVar(&fv.udp, "udp", "",
		"Send frames over UDP, optionally to --udp=HOST:PORT")
	flags.Lookup("udp").NoOptDefVal = config.DefaultUDPTarget
	flags.BoolVar(&fv.logFrames, "log-frames", false,
		"Log a sparkline of each frame (with --verbose)")

	// Debug Configuration
	flags.BoolVarP(&fv.verbose, "verbose", "v", false,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return options, nil
}

// applyFlags copies every flag that changed reports as set into cfg and
// validates the result.
func applyFlags(cfg *config.Config, fv flagValues, changed func(string) bool) error {
	a := &cfg.Audio
	if changed("source") {
		a.Source = fv.source
	}
	if changed("file") {
		a.File = fv.file
		if !changed("source") {
			a.Source = config.SourceFile
		}
	}
	if changed("sine") {
		a.SineFrequency = fv.sine
		if !changed("source") {
			a.Source = config.SourceSine
		}
	}
	if changed("device") {
		a.InputDevice = fv.device
	}
	if changed("loop") {
		a.Loop = fv.loop
	}
	if changed("sample-rate") {
		a.SampleRate = fv.sampleRate
	}
	if changed("frames-per-buffer") {
		a.FramesPerBuffer = fv.framesPerBuffer
	}
	if changed("channels") {
		a.InputChannels = fv.channels
	}
	if changed("low-latency") {
		a.LowLatency = fv.lowLatency
	}

	s := &cfg.Spectrum
	if changed("resolution") {
		s.Resolution = fv.resolution
	}
	if changed("buffer-size") {
		s.BufferSize = fv.bufferSize
	}
	if changed("interpolation") {
		v, err := spectrum.ParseInterpolation(fv.interpolation)
		if err != nil {
			return fmt.Errorf("--interpolation: %w", err)
		}
		s.Interpolation = v
	}
	if changed("aggregation") {
		v, err := spectrum.ParseAggregation(fv.aggregation)
		if err != nil {
			return fmt.Errorf("--aggregation: %w", err)
		}
		s.Aggregation = v
	}
	if changed("window") {
		v, err := spectrum.ParseWindowFunc(fv.window)
		if err != nil {
			return fmt.Errorf("--window: %w", err)
		}
		s.Window = v
	}
	if changed("scale") {
		v, err := spectrum.ParseScale(fv.scale)
		if err != nil {
			return fmt.Errorf("--scale: %w", err)
		}
		s.Scale = v
	}

	if changed("headless") {
		cfg.UI.Headless = fv.headless
	}
	if changed("record") {
		cfg.Recording.Enabled = fv.record
	}
	if changed("output-dir") {
		cfg.Recording.OutputDir = fv.outputDir
	}
	if changed("ws") {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketAddr = fv.ws
	}
	if changed("udp") {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = fv.udp
	}
	if changed("log-frames") {
		cfg.Transport.LogFrames = fv.logFrames
	}
	if changed("verbose") {
		cfg.Debug = fv.verbose
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
