// SPDX-License-Identifier: MIT
package spectrum

import (
	"math"
	"slices"

	"spectra/pkg/bitint"
)

const (
	MinBufferSize = 16
	MaxBufferSize = 65536
)

// FrequencyRange bounds the span of frequencies the bars cover.
type FrequencyRange struct {
	MinHz float64 `json:"min_hz" yaml:"min_hz"`
	MaxHz float64 `json:"max_hz" yaml:"max_hz"`
}

// Config controls every stage of the pipeline. The zero value is not usable;
// start from DefaultConfig.
type Config struct {
	SampleRate     float64        `json:"sample_rate" yaml:"sample_rate"`
	BufferSize     int            `json:"buffer_size" yaml:"buffer_size"`
	Resolution     int            `json:"resolution" yaml:"resolution"`
	FrequencyRange FrequencyRange `json:"frequency_range" yaml:"frequency_range"`
	Scale          Scale          `json:"scale" yaml:"scale"`
	Window         WindowFunc     `json:"window" yaml:"window"`
	Interpolation  Interpolation  `json:"interpolation_mode" yaml:"interpolation_mode"`
	Aggregation    Aggregation    `json:"bar_aggregation" yaml:"bar_aggregation"`
	ScaleByLength  bool           `json:"scale_by_length" yaml:"scale_by_length"`

	// Normalization.
	Gain      float64   `json:"gain" yaml:"gain"`
	MaxVolume float64   `json:"max_volume" yaml:"max_volume"`
	Weighting Weighting `json:"weighting" yaml:"weighting"`
	Curve     Curve     `json:"frequency_compensation_curve" yaml:"frequency_compensation_curve"`

	// Smoothing.
	AttackRate          float64 `json:"attack_rate" yaml:"attack_rate"`
	GravityAcceleration float64 `json:"gravity_acceleration" yaml:"gravity_acceleration"`
	MaxFallSpeed        float64 `json:"max_fall_speed" yaml:"max_fall_speed"`
	Epsilon             float64 `json:"epsilon" yaml:"epsilon"`
}

// DefaultConfig returns settings tuned for music at 44.1kHz.
func DefaultConfig() Config {
	return Config{
		SampleRate:          44100,
		BufferSize:          2048,
		Resolution:          32,
		FrequencyRange:      FrequencyRange{MinHz: 50, MaxHz: 20000},
		Scale:               ScaleLogarithmic,
		Window:              Hann,
		Interpolation:       InterpolationLinear,
		Aggregation:         AggregationMean,
		ScaleByLength:       true,
		Gain:                4.0,
		MaxVolume:           1.0,
		Weighting:           WeightingNone,
		Curve:               DefaultCurve(),
		AttackRate:          0,
		GravityAcceleration: 4.0,
		MaxFallSpeed:        2.5,
		Epsilon:             1e-4,
	}
}

// Validate reports the first problem found as a *ConfigurationError.
func (c Config) Validate() error {
	if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
		return configErrorf("sample_rate", "must be positive and finite, got %g", c.SampleRate)
	}
	if !bitint.IsPowerOfTwo(c.BufferSize) || c.BufferSize < MinBufferSize || c.BufferSize > MaxBufferSize {
		return configErrorf("buffer_size", "must be a power of two in [%d, %d], got %d",
			MinBufferSize, MaxBufferSize, c.BufferSize)
	}
	if c.Resolution < 1 || c.Resolution > c.BufferSize/2 {
		return configErrorf("resolution", "must be in [1, %d], got %d", c.BufferSize/2, c.Resolution)
	}

	fr := c.FrequencyRange
	if math.IsNaN(fr.MinHz) || math.IsNaN(fr.MaxHz) || fr.MinHz < 0 || fr.MinHz >= fr.MaxHz {
		return configErrorf("frequency_range", "need 0 <= min_hz < max_hz, got (%g, %g)", fr.MinHz, fr.MaxHz)
	}
	if nyquist := c.SampleRate / 2; fr.MaxHz > nyquist {
		return configErrorf("frequency_range", "max_hz %g is above nyquist %g", fr.MaxHz, nyquist)
	}

	if _, ok := scaleNames[c.Scale]; !ok {
		return configErrorf("scale", "unknown scale %d", uint8(c.Scale))
	}
	if (c.Scale == ScaleLogarithmic || c.Scale == ScaleHarmonic) && fr.MinHz <= 0 {
		return configErrorf("frequency_range", "%s scale needs min_hz > 0, got %g", c.Scale, fr.MinHz)
	}
	if _, ok := windowNames[c.Window]; !ok {
		return configErrorf("window", "unknown window function %d", uint8(c.Window))
	}
	if _, ok := interpolationNames[c.Interpolation]; !ok {
		return configErrorf("interpolation_mode", "unknown interpolation %d", uint8(c.Interpolation))
	}
	if _, ok := aggregationNames[c.Aggregation]; !ok {
		return configErrorf("bar_aggregation", "unknown aggregation %d", uint8(c.Aggregation))
	}
	if _, ok := weightingNames[c.Weighting]; !ok {
		return configErrorf("weighting", "unknown weighting %d", uint8(c.Weighting))
	}

	if !(c.Gain >= 0) || math.IsInf(c.Gain, 0) {
		return configErrorf("gain", "must be >= 0 and finite, got %g", c.Gain)
	}
	if !(c.MaxVolume > 0) || math.IsInf(c.MaxVolume, 0) {
		return configErrorf("max_volume", "must be positive and finite, got %g", c.MaxVolume)
	}
	if err := c.Curve.validate(); err != nil {
		return err
	}

	if math.IsNaN(c.AttackRate) {
		return configErrorf("attack_rate", "must be a number")
	}
	if math.IsNaN(c.GravityAcceleration) || math.IsInf(c.GravityAcceleration, 0) {
		return configErrorf("gravity_acceleration", "must be finite, got %g", c.GravityAcceleration)
	}
	if math.IsNaN(c.MaxFallSpeed) || math.IsInf(c.MaxFallSpeed, 0) {
		return configErrorf("max_fall_speed", "must be finite, got %g", c.MaxFallSpeed)
	}
	if !(c.Epsilon >= 0) || math.IsInf(c.Epsilon, 0) {
		return configErrorf("epsilon", "must be >= 0 and finite, got %g", c.Epsilon)
	}
	return nil
}

// Ranges builds the bar ranges described by c.
func (c Config) Ranges() ([]BarRange, error) {
	return BuildRanges(c.Resolution, c.FrequencyRange.MinHz, c.FrequencyRange.MaxHz, c.Scale)
}

func (c Config) NormalizeParams() NormalizeParams {
	return NormalizeParams{
		Gain:      c.Gain,
		MaxVolume: c.MaxVolume,
		Curve:     c.Curve,
		Weighting: c.Weighting,
	}
}

func (c Config) SmoothingParams() SmoothingParams {
	return SmoothingParams{
		AttackRate:          c.AttackRate,
		GravityAcceleration: c.GravityAcceleration,
		MaxFallSpeed:        c.MaxFallSpeed,
		Epsilon:             c.Epsilon,
		MaxVolume:           c.MaxVolume,
	}
}

// Clone returns a deep copy; the curve is the only shared reference.
func (c Config) Clone() Config {
	c.Curve = slices.Clone(c.Curve)
	return c
}
