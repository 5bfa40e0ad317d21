// SPDX-License-Identifier: MIT
package spectrum

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mathext"
)

// BarRange is the half-open span [LowHz, HighHz) of input frequencies that
// one bar summarizes.
type BarRange struct {
	LowHz  float64 `json:"low_hz" yaml:"low_hz"`
	HighHz float64 `json:"high_hz" yaml:"high_hz"`
}

// Center returns the midpoint of the range in Hz.
func (r BarRange) Center() float64 { return (r.LowHz + r.HighHz) / 2 }

// Contains reports whether hz falls inside [LowHz, HighHz).
func (r BarRange) Contains(hz float64) bool { return hz >= r.LowHz && hz < r.HighHz }

// Scale controls how bar edges are spread across the frequency range.
type Scale uint8

const (
	// ScaleLogarithmic gives every octave the same number of bars.
	ScaleLogarithmic Scale = iota
	// ScaleLinear gives every bar the same width in Hz.
	ScaleLinear
	// ScaleExponential spaces edges quadratically, between linear and
	// logarithmic in how much room the low end gets.
	ScaleExponential
	// ScaleHarmonic spaces edges evenly in the harmonic number of f/minHz.
	// It is close to logarithmic with slightly wider bars at the low end.
	ScaleHarmonic
)

var scaleNames = map[Scale]string{
	ScaleLogarithmic: "logarithmic",
	ScaleLinear:      "linear",
	ScaleExponential: "exponential",
	ScaleHarmonic:    "harmonic",
}

func (s Scale) String() string {
	if name, ok := scaleNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Scale(%d)", uint8(s))
}

func (s Scale) MarshalText() ([]byte, error) {
	if _, ok := scaleNames[s]; !ok {
		return nil, configErrorf("scale", "unknown scale %d", uint8(s))
	}
	return []byte(s.String()), nil
}

func (s *Scale) UnmarshalText(text []byte) error {
	parsed, err := ParseScale(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseScale converts a name (case-insensitive) to a Scale.
func ParseScale(name string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "logarithmic", "log":
		return ScaleLogarithmic, nil
	case "linear", "lin":
		return ScaleLinear, nil
	case "exponential", "exp":
		return ScaleExponential, nil
	case "harmonic":
		return ScaleHarmonic, nil
	default:
		return ScaleLogarithmic, configErrorf("scale", "unknown scale %q", name)
	}
}

// BuildRanges splits [minHz, maxHz] into resolution contiguous,
// non-overlapping ranges in ascending order.
func BuildRanges(resolution int, minHz, maxHz float64, scale Scale) ([]BarRange, error) {
	if resolution < 1 {
		return nil, configErrorf("resolution", "must be at least 1, got %d", resolution)
	}
	if math.IsNaN(minHz) || math.IsNaN(maxHz) || minHz < 0 || minHz >= maxHz {
		return nil, configErrorf("frequency_range", "need 0 <= min_hz < max_hz, got (%g, %g)", minHz, maxHz)
	}
	if (scale == ScaleLogarithmic || scale == ScaleHarmonic) && minHz <= 0 {
		return nil, configErrorf("frequency_range", "%s scale needs min_hz > 0, got %g", scale, minHz)
	}
	if _, ok := scaleNames[scale]; !ok {
		return nil, configErrorf("scale", "unknown scale %d", uint8(scale))
	}

	edges := make([]float64, resolution+1)
	n := float64(resolution)
	for i := range edges {
		frac := float64(i) / n
		switch scale {
		case ScaleLinear:
			edges[i] = minHz + (maxHz-minHz)*frac
		case ScaleExponential:
			edges[i] = minHz + (maxHz-minHz)*frac*frac
		case ScaleHarmonic:
			h0 := harmonic(1)
			edges[i] = minHz * inverseHarmonic(h0+frac*(harmonic(maxHz/minHz)-h0))
		default:
			edges[i] = minHz * math.Pow(maxHz/minHz, frac)
		}
	}
	// Pin the ends so rounding never leaves a gap at either bound.
	edges[0], edges[resolution] = minHz, maxHz

	ranges := make([]BarRange, resolution)
	for i := range ranges {
		ranges[i] = BarRange{LowHz: edges[i], HighHz: edges[i+1]}
	}
	if err := ValidateRanges(ranges); err != nil {
		return nil, err
	}
	return ranges, nil
}

// harmonic is the harmonic number H(x) extended to real x >= 0.
func harmonic(x float64) float64 {
	return mathext.Digamma(x+1) + eulerGamma
}

const eulerGamma = 0.57721566490153286060651209008240243

// inverseHarmonic returns the x >= 1 with harmonic(x) = h, by bisection.
// h at or below harmonic(1) = 1 maps to 1.
func inverseHarmonic(h float64) float64 {
	lo, hi := 1.0, 2.0
	if h <= harmonic(lo) {
		return lo
	}
	for harmonic(hi) < h {
		lo, hi = hi, hi*2
	}
	for range 64 {
		mid := (lo + hi) / 2
		if harmonic(mid) < h {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// ValidateRanges checks that ranges are non-empty, ascending and do not
// overlap. MapBins relies on this but does not check it itself.
func ValidateRanges(ranges []BarRange) error {
	if len(ranges) == 0 {
		return configErrorf("resolution", "no bar ranges")
	}
	for i, r := range ranges {
		if !(r.LowHz < r.HighHz) {
			return configErrorf("frequency_range", "bar %d has empty range [%g, %g)", i, r.LowHz, r.HighHz)
		}
		if i > 0 && r.LowHz < ranges[i-1].HighHz {
			return configErrorf("frequency_range", "bar %d [%g, %g) overlaps or precedes bar %d [%g, %g)",
				i, r.LowHz, r.HighHz, i-1, ranges[i-1].LowHz, ranges[i-1].HighHz)
		}
	}
	return nil
}

func sameRanges(a, b []BarRange) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
