// SPDX-License-Identifier: MIT
package spectrum

import (
	"math"
	"time"
)

// Bar is one displayed magnitude. Value is the smoothed level in
// [0, MaxVolume]; RawValue is the unsmoothed mapper output for the same range.
type Bar struct {
	Range    BarRange `json:"range"`
	RawValue float32  `json:"raw"`
	Value    float32  `json:"value"`

	velocity float64 // Current fall speed in units/s, >= 0.
}

// SmoothingParams is the subset of Config the smoother reads.
type SmoothingParams struct {
	AttackRate          float64 // 1/s; <= 0 or +Inf snaps up immediately.
	GravityAcceleration float64 // units/s²; <= 0 drops immediately.
	MaxFallSpeed        float64 // units/s; <= 0 is uncapped.
	Epsilon             float64
	MaxVolume           float64
}

// Update advances the bars by elapsed toward targets and returns the new
// state. prev is not modified. When the bar count changed since the last call
// every bar starts at its target. Falling bars accelerate under gravity; the
// fall distance is integrated exactly so the outcome does not depend on how
// elapsed is split into calls. With no elapsed time only instant rises apply,
// and every value is still clamped to [0, MaxVolume].
func Update(prev []Bar, targets []float64, p SmoothingParams, elapsed time.Duration) []Bar {
	next := make([]Bar, len(targets))

	if len(prev) != len(targets) {
		for i, t := range targets {
			next[i] = Bar{Value: float32(clamp(t, p.MaxVolume))}
		}
		return next
	}

	copy(next, prev)
	dt := elapsed.Seconds()

	for i, t := range targets {
		target := clamp(t, p.MaxVolume)
		value, velocity := float64(prev[i].Value), prev[i].velocity
		if dt > 0 {
			value, velocity = step(value, velocity, target, p, dt)
		} else if target > value && snaps(p.AttackRate) {
			value, velocity = target, 0
		}
		next[i].Value = float32(clamp(value, p.MaxVolume))
		next[i].velocity = velocity
	}
	return next
}

func step(value, velocity, target float64, p SmoothingParams, dt float64) (float64, float64) {
	if math.Abs(value-target) <= p.Epsilon {
		return target, 0
	}

	// --- Rise ---
	if target > value {
		if snaps(p.AttackRate) {
			return target, 0
		}
		value += (target - value) * (1 - math.Exp(-p.AttackRate*dt))
		if math.Abs(value-target) <= p.Epsilon {
			value = target
		}
		return value, 0
	}

	// --- Fall ---
	if p.GravityAcceleration <= 0 {
		return target, 0
	}
	dist, velocity := fallDistance(velocity, p.GravityAcceleration, p.MaxFallSpeed, dt)
	value -= dist
	if value <= target+p.Epsilon {
		return target, 0
	}
	return value, velocity
}

func snaps(attackRate float64) bool {
	return attackRate <= 0 || math.IsInf(attackRate, 1)
}

// fallDistance integrates a fall that starts at speed v0, accelerates at g and
// is capped at vmax (<= 0 for no cap) over dt seconds. It returns the
// distance covered and the final speed.
func fallDistance(v0, g, vmax, dt float64) (float64, float64) {
	if vmax <= 0 {
		return v0*dt + 0.5*g*dt*dt, v0 + g*dt
	}
	if v0 >= vmax {
		return vmax * dt, vmax
	}

	tc := (vmax - v0) / g
	if dt <= tc {
		return v0*dt + 0.5*g*dt*dt, v0 + g*dt
	}
	return v0*tc + 0.5*g*tc*tc + vmax*(dt-tc), vmax
}
