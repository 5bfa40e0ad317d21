// SPDX-License-Identifier: MIT
package spectrum

import (
	"slices"
	"sync"
	"time"
)

// Frame is a consistent snapshot of the pipeline output: the bars and the
// configuration they were computed with.
type Frame struct {
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Config    Config    `json:"-"`
	Bars      []Bar     `json:"bars"`
}

// Values returns the smoothed bar levels.
func (f Frame) Values() []float32 {
	out := make([]float32, len(f.Bars))
	for i, b := range f.Bars {
		out[i] = b.Value
	}
	return out
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces time.Now as the source of frame timestamps and elapsed
// time between Process calls.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline runs sample buffers through transform, mapping, normalization and
// smoothing. It owns the configuration and the smoothing state. Process is
// meant to be called from a single producer goroutine; the getters are safe
// from any goroutine.
type Pipeline struct {
	mu  sync.RWMutex
	now func() time.Time

	config      Config
	ranges      []BarRange
	transformer *Transformer

	// --- Scratch buffers, sized by config ---
	bins       []float64
	mapped     []float64
	normalized []float64

	bars        []Bar
	frame       Frame
	seq         uint64
	lastProcess time.Time
}

// New validates cfg and returns a ready pipeline.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.apply(cfg); err != nil {
		return nil, err
	}
	return p, nil
}

// apply validates cfg and swaps in derived state. Caller holds the write lock
// (or owns p exclusively). On error nothing changes.
func (p *Pipeline) apply(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ranges, err := cfg.Ranges()
	if err != nil {
		return err
	}

	transformer := p.transformer
	if transformer == nil || transformer.Size() != cfg.BufferSize ||
		transformer.Window() != cfg.Window || transformer.scaleByLength != cfg.ScaleByLength {
		transformer, err = NewTransformer(cfg.BufferSize, cfg.Window, cfg.ScaleByLength)
		if err != nil {
			return err
		}
	}

	if !sameRanges(p.ranges, ranges) {
		p.bars = nil
		p.lastProcess = time.Time{}
	}

	p.config = cfg.Clone()
	p.ranges = ranges
	p.transformer = transformer
	p.bins = make([]float64, transformer.BinCount())
	p.mapped = make([]float64, len(ranges))
	p.normalized = make([]float64, len(ranges))
	return nil
}

// Process analyses one buffer of exactly Config().BufferSize samples and
// returns a copy of the updated bars. On error the pipeline state is left
// untouched.
func (p *Pipeline) Process(samples []float32) ([]Bar, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg := &p.config

	// --- 1. Transform ---
	if len(samples) != cfg.BufferSize {
		return nil, configErrorf("buffer_size", "input buffer has %d samples, configured size is %d",
			len(samples), cfg.BufferSize)
	}
	if err := p.transformer.TransformInto(p.bins, samples); err != nil {
		return nil, err
	}

	// --- 2. Map & normalize ---
	MapBinsInto(p.mapped, p.bins, p.ranges, cfg.SampleRate, cfg.Interpolation, cfg.Aggregation)
	NormalizeInto(p.normalized, p.mapped, p.ranges, cfg.SampleRate, cfg.NormalizeParams())

	// --- 3. Smooth ---
	now := p.now()
	var elapsed time.Duration
	if !p.lastProcess.IsZero() {
		elapsed = now.Sub(p.lastProcess)
	}
	bars := Update(p.bars, p.normalized, cfg.SmoothingParams(), elapsed)
	for i := range bars {
		bars[i].Range = p.ranges[i]
		bars[i].RawValue = float32(p.mapped[i])
	}

	// --- 4. Publish ---
	p.bars = bars
	p.lastProcess = now
	p.seq++
	p.frame = Frame{
		Seq:       p.seq,
		Timestamp: now,
		Config:    p.config.Clone(),
		Bars:      slices.Clone(bars),
	}
	return slices.Clone(bars), nil
}

// SetConfig replaces the configuration. It takes effect on the next Process.
// An invalid config is rejected with a *ConfigurationError and the previous
// one stays active. Smoothing restarts when the bar layout changes.
func (p *Pipeline) SetConfig(cfg Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.apply(cfg)
}

// UpdateConfig applies fn to a copy of the current configuration and installs
// the result as SetConfig would.
func (p *Pipeline) UpdateConfig(fn func(*Config)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg := p.config.Clone()
	fn(&cfg)
	return p.apply(cfg)
}

// Config returns a copy of the active configuration.
func (p *Pipeline) Config() Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config.Clone()
}

// Ranges returns a copy of the current bar ranges.
func (p *Pipeline) Ranges() []BarRange {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.ranges)
}

// Bars returns a copy of the most recent bars, nil before the first Process.
func (p *Pipeline) Bars() []Bar {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.bars)
}

// Frame returns the most recently published frame. Seq is 0 until the first
// successful Process.
func (p *Pipeline) Frame() Frame {
	p.mu.RLock()
	defer p.mu.RUnlock()

	f := p.frame
	f.Config = f.Config.Clone()
	f.Bars = slices.Clone(f.Bars)
	return f
}

// Reset drops the smoothing state; the next Process starts from its targets.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bars = nil
	p.lastProcess = time.Time{}
}
