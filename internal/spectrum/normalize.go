// SPDX-License-Identifier: MIT
package spectrum

import (
	"fmt"
	"math"
	"strings"
)

// CurvePoint is one control point of a frequency compensation curve.
type CurvePoint struct {
	Hz   float64 `json:"hz" yaml:"hz"`
	Gain float64 `json:"gain" yaml:"gain"`
}

// Curve is a frequency-dependent gain, interpolated linearly over log2(Hz)
// between its points and held flat beyond the first and last point. Points
// must be sorted by Hz. An empty curve has gain 1 everywhere.
type Curve []CurvePoint

// DefaultCurve lifts the upper range a little to offset the natural energy
// falloff of music, and tucks the sub-bass in slightly.
func DefaultCurve() Curve {
	return Curve{
		{Hz: 60, Gain: 0.9},
		{Hz: 250, Gain: 1.0},
		{Hz: 1000, Gain: 1.15},
		{Hz: 4000, Gain: 1.35},
		{Hz: 12000, Gain: 1.6},
	}
}

// At returns the curve's gain at hz.
func (c Curve) At(hz float64) float64 {
	switch {
	case len(c) == 0:
		return 1
	case hz <= c[0].Hz:
		return c[0].Gain
	case hz >= c[len(c)-1].Hz:
		return c[len(c)-1].Gain
	}

	for i := 1; i < len(c); i++ {
		if hz > c[i].Hz {
			continue
		}
		lo, hi := c[i-1], c[i]
		t := (math.Log2(hz) - math.Log2(lo.Hz)) / (math.Log2(hi.Hz) - math.Log2(lo.Hz))
		return lo.Gain + (hi.Gain-lo.Gain)*t
	}
	return c[len(c)-1].Gain
}

func (c Curve) validate() error {
	for i, p := range c {
		if !(p.Hz > 0) || math.IsInf(p.Hz, 0) {
			return configErrorf("frequency_compensation_curve", "point %d: hz must be positive and finite, got %g", i, p.Hz)
		}
		if !(p.Gain >= 0) || math.IsInf(p.Gain, 0) {
			return configErrorf("frequency_compensation_curve", "point %d: gain must be >= 0 and finite, got %g", i, p.Gain)
		}
		if i > 0 && !(p.Hz > c[i-1].Hz) {
			return configErrorf("frequency_compensation_curve", "points must be strictly ascending by hz (point %d)", i)
		}
	}
	return nil
}

// Weighting is an additional tilt applied by relative position in the
// spectrum (center frequency over Nyquist). All of them attenuate the low end
// relative to the high end.
type Weighting uint8

const (
	WeightingNone Weighting = iota
	WeightingExponential
	WeightingLogarithmic
	WeightingMixture
)

var weightingNames = map[Weighting]string{
	WeightingNone:        "none",
	WeightingExponential: "exponential",
	WeightingLogarithmic: "logarithmic",
	WeightingMixture:     "mixture",
}

func (w Weighting) String() string {
	if name, ok := weightingNames[w]; ok {
		return name
	}
	return fmt.Sprintf("Weighting(%d)", uint8(w))
}

func (w Weighting) MarshalText() ([]byte, error) {
	if _, ok := weightingNames[w]; !ok {
		return nil, configErrorf("weighting", "unknown weighting %d", uint8(w))
	}
	return []byte(w.String()), nil
}

func (w *Weighting) UnmarshalText(text []byte) error {
	parsed, err := ParseWeighting(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// ParseWeighting converts a name (case-insensitive) to a Weighting.
func ParseWeighting(name string) (Weighting, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "":
		return WeightingNone, nil
	case "exponential", "exp", "sqrt":
		return WeightingExponential, nil
	case "logarithmic", "log":
		return WeightingLogarithmic, nil
	case "mixture", "mix":
		return WeightingMixture, nil
	default:
		return WeightingNone, configErrorf("weighting", "unknown weighting %q", name)
	}
}

func (w Weighting) factor(p float64) float64 {
	switch w {
	case WeightingExponential:
		return math.Sqrt(p)
	case WeightingLogarithmic:
		return math.Log2(p + 1)
	case WeightingMixture:
		return (math.Sqrt(p) + math.Log2(p+1)) / 2
	default:
		return 1
	}
}

// NormalizeParams is the subset of Config the normalizer reads.
type NormalizeParams struct {
	Gain      float64
	MaxVolume float64
	Curve     Curve
	Weighting Weighting
}

// Normalize rescales raw bar values into [0, p.MaxVolume]. Each value is
// multiplied by the compensation curve and weighting at its bar's center
// frequency and by the overall gain, then clipped. It is a pure function.
func Normalize(raw []float64, ranges []BarRange, sampleRate float64, p NormalizeParams) []float64 {
	out := make([]float64, len(raw))
	NormalizeInto(out, raw, ranges, sampleRate, p)
	return out
}

// NormalizeInto is Normalize writing into dst (len(dst) == len(raw)).
func NormalizeInto(dst, raw []float64, ranges []BarRange, sampleRate float64, p NormalizeParams) {
	nyquist := sampleRate / 2
	for i, v := range raw {
		center := ranges[i].Center()

		pos := 1.0
		if nyquist > 0 {
			pos = math.Min(1, math.Max(center/nyquist, math.SmallestNonzeroFloat64))
		}

		dst[i] = clamp(v*p.Curve.At(center)*p.Weighting.factor(pos)*p.Gain, p.MaxVolume)
	}
}

// clamp limits v to [0, ceiling]; NaN becomes 0.
func clamp(v, ceiling float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > ceiling:
		return ceiling
	default:
		return v
	}
}
