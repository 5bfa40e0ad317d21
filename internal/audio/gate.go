// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"sync/atomic"
)

// DefaultGateThreshold is roughly -60 dBFS.
const DefaultGateThreshold = 0.001

// Gate silences buffers whose peak amplitude does not exceed a threshold. It
// is safe to reconfigure while audio is flowing.
type Gate struct {
	enabled   atomic.Bool
	threshold atomic.Uint32 // float32 bits
}

// NewGate returns an enabled gate with the given threshold.
func NewGate(threshold float64) *Gate {
	g := &Gate{}
	g.SetThreshold(threshold)
	g.Enable()
	return g
}

func (g *Gate) Enable()       { g.enabled.Store(true) }
func (g *Gate) Disable()      { g.enabled.Store(false) }
func (g *Gate) Enabled() bool { return g.enabled.Load() }

// SetThreshold adjusts the gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (g *Gate) SetThreshold(threshold float64) {
	if threshold < 0.0 || math.IsNaN(threshold) {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}
	g.threshold.Store(math.Float32bits(float32(threshold)))
}

// Threshold returns the current threshold in [0, 1].
func (g *Gate) Threshold() float64 {
	return float64(math.Float32frombits(g.threshold.Load()))
}

// Open reports whether buf passes the gate. A disabled gate is always open.
func (g *Gate) Open(buf []float32) bool {
	if !g.enabled.Load() {
		return true
	}
	return Peak(buf) > math.Float32frombits(g.threshold.Load())
}

// Apply zeroes buf in place when the gate is closed and reports whether it
// was open. Silence is a valid input downstream; bars fall under gravity.
func (g *Gate) Apply(buf []float32) bool {
	if g.Open(buf) {
		return true
	}
	clear(buf)
	return false
}

// Peak returns the largest absolute sample value in buf.
func Peak(buf []float32) float32 {
	var peak float32
	for _, s := range buf {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}
