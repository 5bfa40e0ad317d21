// SPDX-License-Identifier: MIT

// Package bitint holds the power-of-two helpers used to validate and suggest
// FFT buffer sizes. All functions are O(1) and allocation free.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= n, and 1 for n <= 0.
//
//	n     result
//	1000  1024
//	1024  1024
//	0     1
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	// n-1 so that exact powers of two map to themselves.
	return 1 << bits.Len(uint(n-1))
}

// PrevPowerOfTwo returns the largest power of two <= n, and 0 for n <= 0.
func PrevPowerOfTwo(n int) int {
	if n <= 0 {
		return 0
	}
	return 1 << (bits.Len(uint(n)) - 1)
}

// IsPowerOfTwo reports whether n is a positive power of two. A power of two
// has a single bit set, so clearing the lowest set bit leaves zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
