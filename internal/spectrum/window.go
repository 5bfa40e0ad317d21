// SPDX-License-Identifier: MIT
package spectrum

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the apodization window applied before the transform.
type WindowFunc uint8

// Available window functions. DefaultConfig uses Hann.
const (
	Rectangular WindowFunc = iota
	Hann
	Hamming
	Blackman
	BlackmanNuttall
	BartlettHann
	Lanczos
	Nuttall
)

var windowNames = map[WindowFunc]string{
	Rectangular:     "rectangular",
	Hann:            "hann",
	Hamming:         "hamming",
	Blackman:        "blackman",
	BlackmanNuttall: "blackmannuttall",
	BartlettHann:    "bartletthann",
	Lanczos:         "lanczos",
	Nuttall:         "nuttall",
}

func (w WindowFunc) String() string {
	if name, ok := windowNames[w]; ok {
		return name
	}
	return fmt.Sprintf("WindowFunc(%d)", uint8(w))
}

// MarshalText implements encoding.TextMarshaler so the window can be written
// by name in YAML and JSON.
func (w WindowFunc) MarshalText() ([]byte, error) {
	if _, ok := windowNames[w]; !ok {
		return nil, configErrorf("window", "unknown window function %d", uint8(w))
	}
	return []byte(w.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (w *WindowFunc) UnmarshalText(text []byte) error {
	parsed, err := ParseWindowFunc(string(text))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// ParseWindowFunc converts a name (case-insensitive) to a WindowFunc. Unknown
// names return Hann together with a ConfigurationError.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "rectangular", "rect", "none":
		return Rectangular, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall", "blackman-nuttall":
		return BlackmanNuttall, nil
	case "bartletthann", "bartlett-hann":
		return BartlettHann, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, configErrorf("window", "unknown window function %q", name)
	}
}

// windowCoefficients returns the window of the given kind and length. The
// gonum window functions scale their argument in place, so the slice starts
// out filled with ones.
func windowCoefficients(kind WindowFunc, size int) []float64 {
	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1.0
	}

	switch kind {
	case Rectangular:
		window.Rectangular(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		window.Hann(coeffs)
	}
	return coeffs
}
