// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"spectra/cmd"
	"spectra/internal/log"
	"spectra/pkg/build"
)

// main is the entry point for the spectrum analyzer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Parse command line arguments and load configuration
//   - Configure logging
//
// 2. Concurrent Phase (Hot Path):
//   - Start the sample source and the analysis pipeline
//   - Start network outputs and recording if enabled
//   - Run the terminal UI or block headless
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop the source, flush any recording
//   - Close outputs and release PortAudio
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	// Development builds run without ldflags and keep the defaults.
	buildErr := build.Initialize()

	opts, err := cmd.ParseArgs()
	if err != nil {
		log.Fatalf("%v", err)
	}
	if opts.Command == cmd.CommandNone {
		return
	}

	log.SetLevel(opts.Config.EffectiveLogLevel())
	if buildErr != nil {
		log.Debugf("build info incomplete: %v", buildErr)
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	// Cancelled on SIGINT/SIGTERM; everything started below shuts down from it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = cmd.Execute(ctx, opts, os.Stdout)

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	// Execute has already stopped the source and closed outputs by the time
	// it returns.
	stop()
	if err != nil {
		log.Fatalf("%v", err)
	}
}
