// SPDX-License-Identifier: MIT

// Package stream connects a sample source to the spectrum pipeline and fans
// the resulting frames out to transports.
//
//	Source ──Push──▶ Queue ──▶ Framer ──▶ Analyzer.Process ──▶ sinks
//	(goroutine 1)              (goroutine 2, the only caller of Process)
package stream

import (
	"context"
	"fmt"
	"sync/atomic"

	"spectra/internal/log"
	"spectra/internal/spectrum"
	"spectra/internal/transport"

	"golang.org/x/sync/errgroup"
)

// Source produces mono samples. Stream calls emit for every chunk until ctx
// is cancelled or the source is exhausted; emit must not block for long, and
// the chunk passed to it must not be reused afterwards.
type Source interface {
	Stream(ctx context.Context, emit func([]float32)) error
	SampleRate() float64
}

// Analyzer is the part of *spectrum.Pipeline the runner drives.
type Analyzer interface {
	Process(samples []float32) ([]spectrum.Bar, error)
	Frame() spectrum.Frame
	Config() spectrum.Config
}

// Options tune the runner.
type Options struct {
	QueueDepth int // Chunks buffered between source and processing.
	HopSize    int // New samples per analysis; 0 analyses after every chunk.
}

// Stats are cumulative counters, safe to read while running.
type Stats struct {
	Processed uint64
	Errors    uint64
	Dropped   uint64
}

// Runner owns the goroutines between a Source and an Analyzer.
type Runner struct {
	source   Source
	analyzer Analyzer
	sinks    []transport.Transport
	opts     Options
	queue    *Queue
	log      *log.Logger

	processed atomic.Uint64
	errors    atomic.Uint64
}

func NewRunner(source Source, analyzer Analyzer, opts Options, sinks ...transport.Transport) *Runner {
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = 8
	}
	return &Runner{
		source:   source,
		analyzer: analyzer,
		sinks:    sinks,
		opts:     opts,
		queue:    NewQueue(opts.QueueDepth),
		log:      log.Named("stream"),
	}
}

// Run blocks until ctx is cancelled, the source fails, or a finite source is
// exhausted and its remaining audio processed. A Process call in flight
// always completes. Cancellation is not reported as an error.
func (r *Runner) Run(ctx context.Context) error {
	cfg := r.analyzer.Config()
	if sr := r.source.SampleRate(); sr != cfg.SampleRate {
		r.log.Warnf("source delivers %gHz, pipeline configured for %gHz", sr, cfg.SampleRate)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer r.queue.Close()
		err := r.source.Stream(ctx, r.queue.Push)
		// Errors caused by shutdown are not failures.
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("source: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return r.process(ctx, NewFramer(cfg.BufferSize, r.opts.HopSize))
	})

	return g.Wait()
}

func (r *Runner) process(ctx context.Context, framer *Framer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case chunk, ok := <-r.queue.C():
			if !ok {
				return nil
			}

			// Follow live buffer size changes.
			if size := r.analyzer.Config().BufferSize; size != framer.Size() {
				r.log.Debugf("resizing analysis window %d -> %d", framer.Size(), size)
				framer.Resize(size)
			}

			framer.Write(chunk)
			if !framer.Ready() {
				continue
			}
			if _, err := r.analyzer.Process(framer.Frame()); err != nil {
				r.errors.Add(1)
				r.log.Warnf("process: %v", err)
				continue
			}
			r.processed.Add(1)
			r.publish(r.analyzer.Frame())
		}
	}
}

func (r *Runner) publish(frame spectrum.Frame) {
	for _, sink := range r.sinks {
		if err := sink.Send(frame); err != nil {
			r.log.Debugf("sink %T: %v", sink, err)
		}
	}
}

func (r *Runner) Stats() Stats {
	return Stats{
		Processed: r.processed.Load(),
		Errors:    r.errors.Load(),
		Dropped:   r.queue.Dropped(),
	}
}
