// SPDX-License-Identifier: MIT

/*
Package bitint provides the power-of-two helpers used to validate and
size analyser transforms. A transform size must be a power of two so
that the FFT, the frequency bin count (size/2) and the bucket count
(bins/8) all divide evenly.

Usage:

	// Reject a configured transform size the analyser cannot run.
	if !bitint.IsPowerOfTwo(cfg.FFTSize) { ... }

	// Round a requested buffer up to the next usable transform size.
	size := bitint.NextPowerOfTwo(1500) // 2048

All functions are allocation free and O(1).
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of two >= size.
//
// Subtracting one before taking the bit length keeps exact powers of two
// unchanged:
//
//	Input  Output
//	2048   2048
//	1500   2048
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of two.
// Powers of two have a single bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Log2 returns the base-2 exponent of a power of two, or -1 if n is not
// a power of two.
//
//	Log2(2048) == 11
//	Log2(1000) == -1
func Log2(n int) int {
	if !IsPowerOfTwo(n) {
		return -1
	}
	return bits.TrailingZeros(uint(n))
}

// InRange reports whether n is a power of two within [lo, hi].
func InRange(n, lo, hi int) bool {
	return IsPowerOfTwo(n) && n >= lo && n <= hi
}
