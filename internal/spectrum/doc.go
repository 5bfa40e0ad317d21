// SPDX-License-Identifier: MIT

/*
Package spectrum turns fixed-size mono sample buffers into smoothed bar
magnitudes for spectrum displays.

A buffer flows through four stages, each usable on its own:

	samples ─▶ Transformer ─▶ MapBins ─▶ Normalize ─▶ Update ─▶ []Bar
	           window + FFT    bins→bars   curve/gain   gravity

Transformer, MapBins and Normalize are deterministic and keep no state
between calls. Update carries per-bar velocity from one call to the next and
integrates the fall exactly, so the animation speed does not depend on how
often it is called.

Pipeline strings the stages together and owns the Config and smoothing state:

	p, err := spectrum.New(spectrum.DefaultConfig())
	...
	bars, err := p.Process(buffer) // producer goroutine
	frame := p.Frame()             // any goroutine

Configuration can be swapped with SetConfig or UpdateConfig at any time; it
applies from the next Process call. Frame always pairs bars with the config
they were computed with.

Errors wrap ErrConfiguration for caller mistakes (wrong buffer length,
invalid settings) and ErrDegenerateInput for NaN or infinite samples. Silence
is valid input.
*/
package spectrum
