// SPDX-License-Identifier: MIT
package spectrum

import (
	"math"
	"testing"
	"time"
)

var testSmoothing = SmoothingParams{
	GravityAcceleration: 4,
	MaxFallSpeed:        2.5,
	Epsilon:             1e-4,
	MaxVolume:           10,
}

func TestUpdateResetsOnLengthChange(t *testing.T) {
	prev := []Bar{{Value: 0.9}, {Value: 0.1}}
	got := Update(prev, []float64{0.2, 0.4, 20}, testSmoothing, time.Second)

	want := []float32{0.2, 0.4, 10}
	for i, b := range got {
		if b.Value != want[i] || b.velocity != 0 {
			t.Errorf("bar %d = %v (velocity %v), want %v at rest", i, b.Value, b.velocity, want[i])
		}
	}
}

func TestUpdateDoesNotModifyPrev(t *testing.T) {
	prev := []Bar{{Value: 1}}
	_ = Update(prev, []float64{0}, testSmoothing, 100*time.Millisecond)
	if prev[0].Value != 1 || prev[0].velocity != 0 {
		t.Errorf("prev was modified: %+v", prev[0])
	}
}

func TestUpdateZeroElapsed(t *testing.T) {
	eased := testSmoothing
	eased.AttackRate = 10
	lowCeiling := testSmoothing
	lowCeiling.MaxVolume = 0.5

	tests := []struct {
		name     string
		prev     Bar
		target   float64
		params   SmoothingParams
		value    float32
		velocity float64
	}{
		{"fall waits", Bar{Value: 1, velocity: 0.5}, 0, testSmoothing, 1, 0.5},
		{"eased rise waits", Bar{Value: 0.2}, 0.8, eased, 0.2, 0},
		{"snap rise applies", Bar{Value: 0.2}, 0.8, testSmoothing, 0.8, 0},
		{"clamped to ceiling", Bar{Value: 1, velocity: 0.5}, 0, lowCeiling, 0.5, 0.5},
		{"rise clamped to ceiling", Bar{Value: 0.2}, 3, lowCeiling, 0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Update([]Bar{tt.prev}, []float64{tt.target}, tt.params, 0)
			if got[0].Value != tt.value || got[0].velocity != tt.velocity {
				t.Errorf("Update(dt=0) = %v (velocity %v), want %v (velocity %v)",
					got[0].Value, got[0].velocity, tt.value, tt.velocity)
			}
		})
	}
}

func TestUpdateRise(t *testing.T) {
	prev := []Bar{{Value: 0.1, velocity: 2}}

	snap := Update(prev, []float64{0.8}, testSmoothing, 10*time.Millisecond)
	if snap[0].Value != 0.8 || snap[0].velocity != 0 {
		t.Errorf("snap rise = %+v, want 0.8 at rest", snap[0])
	}

	p := testSmoothing
	p.AttackRate = 10
	eased := Update(prev, []float64{0.8}, p, 100*time.Millisecond)
	want := 0.1 + 0.7*(1-math.Exp(-1))
	if math.Abs(float64(eased[0].Value)-want) > 1e-6 {
		t.Errorf("eased rise = %v, want %v", eased[0].Value, want)
	}
	if eased[0].velocity != 0 {
		t.Errorf("velocity after rise = %v, want 0", eased[0].velocity)
	}
}

func TestUpdateGravityFall(t *testing.T) {
	bars := []Bar{{Value: 5}}
	bars = Update(bars, []float64{0}, testSmoothing, 500*time.Millisecond)

	// 0.5 * 4 * 0.5² = 0.5 fallen, speed 2.
	if math.Abs(float64(bars[0].Value)-4.5) > 1e-6 || math.Abs(bars[0].velocity-2) > 1e-9 {
		t.Errorf("after 0.5s = %v (velocity %v), want 4.5 (velocity 2)", bars[0].Value, bars[0].velocity)
	}

	// Speed is capped at MaxFallSpeed.
	bars = Update(bars, []float64{0}, testSmoothing, time.Second)
	if bars[0].velocity != testSmoothing.MaxFallSpeed {
		t.Errorf("velocity = %v, want cap %v", bars[0].velocity, testSmoothing.MaxFallSpeed)
	}
}

func TestUpdateFrameRateIndependent(t *testing.T) {
	eased := testSmoothing
	eased.AttackRate = 6

	tests := []struct {
		name   string
		start  float32
		target float64
		params SmoothingParams
		total  time.Duration
		steps  int
	}{
		{"fall below cap", 5, 0, testSmoothing, 400 * time.Millisecond, 2},
		{"fall crossing cap", 5, 0, testSmoothing, time.Second, 2},
		{"fall many small steps", 5, 0, testSmoothing, time.Second, 60},
		{"fall uneven split", 5, 0, testSmoothing, 900 * time.Millisecond, 3},
		{"eased rise", 0, 4, eased, 300 * time.Millisecond, 2},
		{"eased rise many small steps", 0, 4, eased, 300 * time.Millisecond, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := []Bar{{Value: tt.start}}
			targets := []float64{tt.target}
			once := Update(start, targets, tt.params, tt.total)

			split := start
			for range tt.steps {
				split = Update(split, targets, tt.params, tt.total/time.Duration(tt.steps))
			}

			if once[0].Value == tt.start || once[0].Value == float32(tt.target) {
				t.Fatalf("one step = %v, want a value between start and target", once[0].Value)
			}
			if diff := math.Abs(float64(once[0].Value - split[0].Value)); diff > 1e-4 {
				t.Errorf("one step = %v, %d steps = %v", once[0].Value, tt.steps, split[0].Value)
			}
		})
	}
}

func TestUpdateNeverBelowTarget(t *testing.T) {
	bars := []Bar{{Value: 1}}
	bars = Update(bars, []float64{0.6}, testSmoothing, 10*time.Second)
	if bars[0].Value != 0.6 || bars[0].velocity != 0 {
		t.Errorf("fall overshot: %+v, want 0.6 at rest", bars[0])
	}
}

func TestUpdateNoGravityDropsInstantly(t *testing.T) {
	p := testSmoothing
	p.GravityAcceleration = 0
	got := Update([]Bar{{Value: 1}}, []float64{0.25}, p, time.Millisecond)
	if got[0].Value != 0.25 {
		t.Errorf("Update() = %v, want 0.25", got[0].Value)
	}
}

func TestUpdateFallsToZeroMonotonically(t *testing.T) {
	p := testSmoothing
	p.MaxVolume = 1
	bars := []Bar{{Value: 1}, {Value: 0.5}, {Value: 0.01}}
	targets := make([]float64, len(bars))
	frame := time.Second / 60

	for step := 0; ; step++ {
		if step > 100 {
			t.Fatalf("bars did not reach zero after %d frames: %+v", step, bars)
		}
		next := Update(bars, targets, p, frame)
		done := true
		for i := range next {
			if next[i].Value > bars[i].Value {
				t.Fatalf("bar %d rose from %v to %v while falling", i, bars[i].Value, next[i].Value)
			}
			if next[i].Value != 0 {
				done = false
			}
		}
		bars = next
		if done {
			break
		}
	}
}

func TestUpdateUncappedFall(t *testing.T) {
	p := testSmoothing
	p.MaxFallSpeed = 0
	got := Update([]Bar{{Value: 9}}, []float64{0}, p, 2*time.Second)
	// 0.5 * 4 * 2² = 8.
	if math.Abs(float64(got[0].Value)-1) > 1e-6 {
		t.Errorf("uncapped fall = %v, want 1", got[0].Value)
	}
}
