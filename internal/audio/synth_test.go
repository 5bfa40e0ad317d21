// SPDX-License-Identifier: MIT
package audio

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"spectra/pkg/utils"
)

func TestNewSineSourceValidation(t *testing.T) {
	tests := []struct {
		desc            string
		rate, freq, amp float64
		ok              bool
	}{
		{"Valid", 44100, 440, 0.8, true},
		{"DC", 44100, 0, 0.5, true},
		{"Nyquist", 44100, 22050, 1, true},
		{"Zero rate", 0, 440, 0.5, false},
		{"Above nyquist", 44100, 30000, 0.5, false},
		{"Negative amplitude", 44100, 440, -0.1, false},
		{"Amplitude above one", 44100, 440, 1.5, false},
		{"NaN frequency", 44100, math.NaN(), 0.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := NewSineSource(tt.rate, tt.freq, tt.amp)
			if (err == nil) != tt.ok {
				t.Errorf("NewSineSource error = %v, want ok=%v", err, tt.ok)
			}
		})
	}
}

func TestSineSourceContinuousPhase(t *testing.T) {
	const total = 3000
	s, err := NewSineSource(44100, 440, 0.8, WithRealtime(false), WithChunkSize(256), WithLimit(total))
	if err != nil {
		t.Fatal(err)
	}

	chunks, err := collect(t, s, context.Background())
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	got := flatten(chunks)
	if len(got) != total {
		t.Fatalf("emitted %d samples, want %d", len(got), total)
	}
	if last := chunks[len(chunks)-1]; len(last) != total%256 {
		t.Errorf("last chunk has %d samples, want %d", len(last), total%256)
	}

	want := utils.SineWave(total, 44100, 440, 0.8)
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-5 {
			t.Fatalf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSineSourceCancel(t *testing.T) {
	s, err := NewSineSource(8000, 100, 0.5, WithChunkSize(80))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	chunks, err := collect(t, s, ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Stream error = %v, want deadline exceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Stream took %v to stop", elapsed)
	}
	// 80 samples at 8kHz is 10ms, so a paced source emits a handful of chunks.
	if len(chunks) == 0 || len(chunks) > 10 {
		t.Errorf("emitted %d chunks in 50ms", len(chunks))
	}
}
