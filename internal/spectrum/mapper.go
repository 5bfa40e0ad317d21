// SPDX-License-Identifier: MIT
package spectrum

import (
	"fmt"
	"math"
	"strings"
)

// Interpolation selects how a bar that covers no FFT bin gets its value.
type Interpolation uint8

const (
	// InterpolationLinear blends the two bins around the bar's center.
	InterpolationLinear Interpolation = iota
	// InterpolationStep takes the nearest bin as is.
	InterpolationStep
	// InterpolationCubic fits a Catmull-Rom spline through four bins.
	InterpolationCubic
	// InterpolationGaps leaves the bar at zero.
	InterpolationGaps
)

var interpolationNames = map[Interpolation]string{
	InterpolationLinear: "linear",
	InterpolationStep:   "step",
	InterpolationCubic:  "cubic",
	InterpolationGaps:   "gaps",
}

func (m Interpolation) String() string {
	if name, ok := interpolationNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Interpolation(%d)", uint8(m))
}

func (m Interpolation) MarshalText() ([]byte, error) {
	if _, ok := interpolationNames[m]; !ok {
		return nil, configErrorf("interpolation_mode", "unknown interpolation %d", uint8(m))
	}
	return []byte(m.String()), nil
}

func (m *Interpolation) UnmarshalText(text []byte) error {
	parsed, err := ParseInterpolation(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Next returns the following mode, wrapping around. Used by the UI to cycle.
func (m Interpolation) Next() Interpolation {
	return (m + 1) % Interpolation(len(interpolationNames))
}

// ParseInterpolation converts a name (case-insensitive) to an Interpolation.
func ParseInterpolation(name string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear":
		return InterpolationLinear, nil
	case "step", "none", "nearest":
		return InterpolationStep, nil
	case "cubic", "spline":
		return InterpolationCubic, nil
	case "gaps", "empty":
		return InterpolationGaps, nil
	default:
		return InterpolationLinear, configErrorf("interpolation_mode", "unknown interpolation %q", name)
	}
}

// Aggregation selects how several bins that fall into one bar are combined.
type Aggregation uint8

const (
	// AggregationMean averages the covered bins (smoother visuals).
	AggregationMean Aggregation = iota
	// AggregationPeak takes the loudest covered bin (emphasizes transients).
	AggregationPeak
)

var aggregationNames = map[Aggregation]string{
	AggregationMean: "mean",
	AggregationPeak: "peak",
}

func (a Aggregation) String() string {
	if name, ok := aggregationNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Aggregation(%d)", uint8(a))
}

func (a Aggregation) MarshalText() ([]byte, error) {
	if _, ok := aggregationNames[a]; !ok {
		return nil, configErrorf("bar_aggregation", "unknown aggregation %d", uint8(a))
	}
	return []byte(a.String()), nil
}

func (a *Aggregation) UnmarshalText(text []byte) error {
	parsed, err := ParseAggregation(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAggregation converts a name (case-insensitive) to an Aggregation.
func ParseAggregation(name string) (Aggregation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mean", "average", "avg":
		return AggregationMean, nil
	case "peak", "max":
		return AggregationPeak, nil
	default:
		return AggregationMean, configErrorf("bar_aggregation", "unknown aggregation %q", name)
	}
}

// MapBins maps linearly spaced magnitude bins (DC through Nyquist, as
// returned by Transformer) onto the given bar ranges. Bars that cover at
// least one bin center are aggregated; bars that cover none are
// interpolated at their center frequency. ranges are assumed valid (see
// ValidateRanges).
func MapBins(bins []float64, ranges []BarRange, sampleRate float64, interp Interpolation, agg Aggregation) []float64 {
	out := make([]float64, len(ranges))
	MapBinsInto(out, bins, ranges, sampleRate, interp, agg)
	return out
}

// MapBinsInto is MapBins writing into dst, which must have len(ranges)
// elements.
func MapBinsInto(dst, bins []float64, ranges []BarRange, sampleRate float64, interp Interpolation, agg Aggregation) {
	if len(bins) < 2 || sampleRate <= 0 {
		clear(dst)
		return
	}

	binHz := sampleRate / float64(2*(len(bins)-1))
	last := len(bins) - 1

	for b, r := range ranges {
		// First bin whose center is >= LowHz, last whose center is < HighHz.
		lo := int(math.Ceil(r.LowHz / binHz))
		hi := int(math.Ceil(r.HighHz/binHz)) - 1
		if lo < 0 {
			lo = 0
		}
		if hi > last {
			hi = last
		}

		switch {
		case lo <= hi:
			dst[b] = aggregate(bins[lo:hi+1], agg)
			continue
		case interp == InterpolationGaps:
			dst[b] = 0
			continue
		}
		dst[b] = interpolate(bins, r.Center()/binHz, interp)
	}
}

func aggregate(covered []float64, agg Aggregation) float64 {
	switch agg {
	case AggregationPeak:
		peak := covered[0]
		for _, v := range covered[1:] {
			if v > peak {
				peak = v
			}
		}
		return peak
	default:
		var sum float64
		for _, v := range covered {
			sum += v
		}
		return sum / float64(len(covered))
	}
}

// interpolate estimates the magnitude at fractional bin position x.
func interpolate(bins []float64, x float64, interp Interpolation) float64 {
	last := len(bins) - 1
	if x <= 0 {
		return bins[0]
	}
	if x >= float64(last) {
		return bins[last]
	}

	i := int(math.Floor(x))
	frac := x - float64(i)

	switch interp {
	case InterpolationStep:
		return bins[int(math.Round(x))]
	case InterpolationCubic:
		if i-1 >= 0 && i+2 <= last {
			v := catmullRom(bins[i-1], bins[i], bins[i+1], bins[i+2], frac)
			return math.Max(0, v)
		}
		fallthrough
	default:
		return bins[i]*(1-frac) + bins[i+1]*frac
	}
}

// catmullRom evaluates the Catmull-Rom segment between y1 and y2 at t in [0, 1].
func catmullRom(y0, y1, y2, y3, t float64) float64 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1
	return a0*t*t*t + a1*t*t + a2*t + a3
}
