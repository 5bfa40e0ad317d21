// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"time"
)

// DefaultChunkSize is the number of mono samples a source emits at a time.
const DefaultChunkSize = 1024

// SourceOption configures FileSource and SineSource.
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	chunkSize int
	realtime  bool
	loop      bool
	limit     int64
}

func newSourceConfig(opts []SourceOption) sourceConfig {
	cfg := sourceConfig{chunkSize: DefaultChunkSize, realtime: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.chunkSize = max(cfg.chunkSize, 1)
	return cfg
}

// WithChunkSize sets how many mono samples are emitted per chunk.
func WithChunkSize(n int) SourceOption {
	return func(c *sourceConfig) { c.chunkSize = n }
}

// WithRealtime paces emission to the source's sample rate. Enabled by
// default; disable it to drain a source as fast as possible.
func WithRealtime(enabled bool) SourceOption {
	return func(c *sourceConfig) { c.realtime = enabled }
}

// WithLoop restarts a file from the beginning when it ends.
func WithLoop(enabled bool) SourceOption {
	return func(c *sourceConfig) { c.loop = enabled }
}

// WithLimit stops a source after n samples. Zero means unlimited.
func WithLimit(n int64) SourceOption {
	return func(c *sourceConfig) { c.limit = max(n, 0) }
}

// pacer holds emission back to real time. The schedule is anchored at the
// first sample, so sleep jitter does not accumulate as drift.
type pacer struct {
	rate    float64
	enabled bool
	start   time.Time
	emitted int64
}

func newPacer(rate float64, enabled bool) *pacer {
	return &pacer{rate: rate, enabled: enabled}
}

// wait accounts for n emitted samples and sleeps until they are due.
func (p *pacer) wait(ctx context.Context, n int) error {
	if !p.enabled || p.rate <= 0 {
		return ctx.Err()
	}
	if p.start.IsZero() {
		p.start = time.Now()
	}
	p.emitted += int64(n)

	due := p.start.Add(time.Duration(float64(p.emitted) / p.rate * float64(time.Second)))
	delay := time.Until(due)
	if delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
