// SPDX-License-Identifier: MIT

// Package utils holds signal generators and fakes shared by tests and the
// synthetic audio source.
package utils

import (
	"math"
	"slices"
	"sync"
)

// MockTransport records everything sent to it. It is safe for concurrent use.
type MockTransport struct {
	mu     sync.Mutex
	sent   []any
	closed bool
	Err    error // Returned from Send when set.
}

// Send stores v for later inspection instead of transmitting it.
func (m *MockTransport) Send(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, v)
	return nil
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Sent returns a copy of every value passed to Send, oldest first.
func (m *MockTransport) Sent() []any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sent)
}

// Last returns the most recent value sent, or nil.
func (m *MockTransport) Last() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return nil
	}
	return m.sent[len(m.sent)-1]
}

func (m *MockTransport) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// SineWave returns size samples of a sine at frequency Hz with the given peak
// amplitude.
func SineWave(size int, sampleRate, frequency, amplitude float64) []float32 {
	buffer := make([]float32, size)
	SineWaveInto(buffer, 0, sampleRate, frequency, amplitude)
	return buffer
}

// SineWaveInto fills dst with a sine starting at sample offset and returns
// the offset following the last sample written, so consecutive calls produce
// a continuous wave.
func SineWaveInto(dst []float32, offset int64, sampleRate, frequency, amplitude float64) int64 {
	for i := range dst {
		t := float64(offset+int64(i)) / sampleRate
		dst[i] = float32(amplitude * math.Sin(2*math.Pi*frequency*t))
	}
	return offset + int64(len(dst))
}

// MixedWave returns a 440Hz fundamental with its second and third harmonics,
// peaking just under 0.9.
func MixedWave(size int, sampleRate float64) []float32 {
	buffer := make([]float32, size)
	for i := range buffer {
		tm := float64(i) / sampleRate
		signal := math.Sin(2*math.Pi*440*tm)*0.5 +
			math.Sin(2*math.Pi*880*tm)*0.3 +
			math.Sin(2*math.Pi*1320*tm)*0.2
		buffer[i] = float32(signal * 0.9)
	}
	return buffer
}

// PeakIndex returns the index of the largest value in values[start:end+1],
// with the bounds clamped to the slice. It returns 0 for an empty slice.
func PeakIndex[T float32 | float64](values []T, start, end int) int {
	if len(values) == 0 {
		return 0
	}
	start = max(start, 0)
	end = min(end, len(values)-1)

	peak := start
	for i := start + 1; i <= end; i++ {
		if values[i] > values[peak] {
			peak = i
		}
	}
	return peak
}
