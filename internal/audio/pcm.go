// SPDX-License-Identifier: MIT
package audio

import "fmt"

// fullScale returns the largest positive integer value of a signed PCM
// sample with the given bit depth.
func fullScale(bitDepth int) float64 {
	return float64(int64(1)<<(bitDepth-1)) - 1
}

func validBitDepth(bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("unsupported bit depth %d (want 16, 24 or 32)", bitDepth)
	}
}

// floatsToInts converts float samples in [-1, 1] to signed PCM integers,
// clipping out of range values.
func floatsToInts(dst []int, src []float32, bitDepth int) {
	scale := fullScale(bitDepth)
	for i, s := range src {
		v := max(-1, min(1, float64(s)))
		dst[i] = int(v * scale)
	}
}

// intsToFloats converts PCM integers to floats in [-1, 1]. 8-bit PCM is
// unsigned and centered on 128.
func intsToFloats(dst []float32, src []int, bitDepth int) {
	if bitDepth == 8 {
		for i, v := range src {
			dst[i] = float32(v-128) / 128
		}
		return
	}
	scale := float32(int64(1) << (bitDepth - 1))
	for i, v := range src {
		dst[i] = float32(v) / scale
	}
}
