// SPDX-License-Identifier: MIT
package audio

// Downmix averages interleaved frames of the given channel count into mono,
// writing into dst and returning the number of frames written. dst must hold
// len(src)/channels samples; a trailing partial frame is ignored. With one
// channel src is copied.
func Downmix(dst, src []float32, channels int) int {
	if channels <= 1 {
		return copy(dst, src)
	}

	frames := min(len(src)/channels, len(dst))
	scale := 1 / float32(channels)
	for i := range frames {
		frame := src[i*channels : (i+1)*channels]
		var sum float32
		for _, s := range frame {
			sum += s
		}
		dst[i] = sum * scale
	}
	return frames
}
