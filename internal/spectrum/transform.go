// SPDX-License-Identifier: MIT
package spectrum

import (
	"math"
	"math/cmplx"

	"spectra/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

// transformWorkspace holds pre-allocated buffers for one transform size.
type transformWorkspace struct {
	input     []float64    // Windowed input signal.
	fftOutput []complex128 // Complex FFT coefficients, N/2+1 of them.
}

// Transformer applies a window to a fixed-length sample buffer and computes
// its magnitude spectrum. Results depend only on the input buffer, the window
// kind and the scaling flag; the workspace is scratch memory. A Transformer is
// not safe for concurrent use, the Pipeline serializes access to it.
type Transformer struct {
	size          int
	kind          WindowFunc
	scaleByLength bool
	fft           *fourier.FFT
	window        []float64
	workspace     transformWorkspace
}

// NewTransformer creates a transformer for buffers of exactly size samples.
// size must be a power of two.
func NewTransformer(size int, kind WindowFunc, scaleByLength bool) (*Transformer, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, configErrorf("buffer_size", "must be a power of two, got %d (nearest: %d)",
			size, bitint.NextPowerOfTwo(size))
	}
	if _, ok := windowNames[kind]; !ok {
		return nil, configErrorf("window", "unknown window function %d", uint8(kind))
	}

	return &Transformer{
		size:          size,
		kind:          kind,
		scaleByLength: scaleByLength,
		fft:           fourier.NewFFT(size),
		window:        windowCoefficients(kind, size),
		workspace: transformWorkspace{
			input:     make([]float64, size),
			fftOutput: make([]complex128, size/2+1),
		},
	}, nil
}

// Size returns the buffer length this transformer accepts.
func (t *Transformer) Size() int { return t.size }

// Window returns the window kind in use.
func (t *Transformer) Window() WindowFunc { return t.kind }

// BinCount returns the number of magnitude bins produced per call (N/2+1,
// DC through Nyquist).
func (t *Transformer) BinCount() int { return t.size/2 + 1 }

// Transform returns the magnitude spectrum of samples in a new slice.
func (t *Transformer) Transform(samples []float32) ([]float64, error) {
	bins := make([]float64, t.BinCount())
	if err := t.TransformInto(bins, samples); err != nil {
		return nil, err
	}
	return bins, nil
}

// TransformInto writes the magnitude spectrum of samples into dst, which must
// hold BinCount() values. It does not allocate.
func (t *Transformer) TransformInto(dst []float64, samples []float32) error {
	if len(samples) != t.size {
		return configErrorf("buffer_size", "input buffer has %d samples, configured size is %d",
			len(samples), t.size)
	}
	if len(dst) != t.BinCount() {
		return configErrorf("buffer_size", "destination holds %d bins, need %d", len(dst), t.BinCount())
	}

	// --- 1. Validate & window ---
	for i, s := range samples {
		v := float64(s)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InputError{Index: i, Sample: s}
		}
		t.workspace.input[i] = v * t.window[i]
	}

	// --- 2. Transform ---
	t.fft.Coefficients(t.workspace.fftOutput, t.workspace.input)

	// --- 3. Magnitudes ---
	scale := 1.0
	if t.scaleByLength {
		scale = 1.0 / float64(t.size)
	}
	for i, c := range t.workspace.fftOutput {
		dst[i] = cmplx.Abs(c) * scale
	}
	return nil
}

// Transform is the one-shot form of Transformer.Transform, with 1/N scaling.
func Transform(samples []float32, kind WindowFunc) ([]float64, error) {
	t, err := NewTransformer(len(samples), kind, true)
	if err != nil {
		return nil, err
	}
	return t.Transform(samples)
}

// BinFrequency returns the center frequency in Hz of bin i for a transform of
// size samples at sampleRate.
func BinFrequency(i, size int, sampleRate float64) float64 {
	return float64(i) * sampleRate / float64(size)
}
