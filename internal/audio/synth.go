// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"fmt"
	"math"
)

// SineSource generates a continuous sine tone.
type SineSource struct {
	rate      float64
	frequency float64
	amplitude float64
	cfg       sourceConfig
}

func NewSineSource(sampleRate, frequency, amplitude float64, opts ...SourceOption) (*SineSource, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("sine: invalid sample rate %g", sampleRate)
	}
	if frequency < 0 || frequency > sampleRate/2 || math.IsNaN(frequency) {
		return nil, fmt.Errorf("sine: frequency %g outside [0, %g]", frequency, sampleRate/2)
	}
	if amplitude < 0 || amplitude > 1 || math.IsNaN(amplitude) {
		return nil, fmt.Errorf("sine: amplitude %g outside [0, 1]", amplitude)
	}
	return &SineSource{
		rate:      sampleRate,
		frequency: frequency,
		amplitude: amplitude,
		cfg:       newSourceConfig(opts),
	}, nil
}

func (s *SineSource) SampleRate() float64 { return s.rate }

// Stream emits the tone until ctx is cancelled or the sample limit is hit.
// The phase is continuous across chunks.
func (s *SineSource) Stream(ctx context.Context, emit func([]float32)) error {
	p := newPacer(s.rate, s.cfg.realtime)
	step := 2 * math.Pi * s.frequency / s.rate

	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n := int64(s.cfg.chunkSize)
		if s.cfg.limit > 0 {
			n = min(n, s.cfg.limit-offset)
			if n <= 0 {
				return nil
			}
		}

		chunk := make([]float32, n)
		for i := range chunk {
			chunk[i] = float32(s.amplitude * math.Sin(step*float64(offset+int64(i))))
		}
		offset += n

		emit(chunk)
		if err := p.wait(ctx, len(chunk)); err != nil {
			return err
		}
	}
}
