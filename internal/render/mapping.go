// SPDX-License-Identifier: MIT
package render

import "math"

// BucketSize is the number of contiguous frequency bins averaged into one
// plotted spectrum point.
const BucketSize = 8

// BucketCount returns the number of whole buckets in binCount bins.
func BucketCount(binCount int) int {
	if binCount <= 0 {
		return 0
	}
	return binCount / BucketSize
}

// BucketMeans writes the arithmetic mean of every bucket of BucketSize bins
// into dst, growing it when needed, and returns it. Trailing bins that do not
// fill a whole bucket are ignored.
func BucketMeans(dst []float64, bins []float32) []float64 {
	n := BucketCount(len(bins))
	if cap(dst) < n {
		dst = make([]float64, n)
	}
	dst = dst[:n]
	for b := range n {
		var sum float64
		for _, v := range bins[b*BucketSize : (b+1)*BucketSize] {
			sum += float64(v)
		}
		dst[b] = sum / BucketSize
	}
	return dst
}

// LogX maps a bin index onto [0, width] on a logarithmic frequency axis:
//
//	x = log10(bin+1) / log10(totalBins) * width
//
// The +1 keeps bin 0 away from log(0) and maps it to exactly 0. Fewer than two
// bins have no usable axis and map to 0.
func LogX(bin, totalBins int, width float64) float64 {
	if totalBins <= 1 || width <= 0 || bin < 0 {
		return 0
	}
	return math.Log10(float64(bin+1)) / math.Log10(float64(totalBins)) * width
}

// DecibelY maps a decibel reading to a y coordinate in [0, height]. The
// reading is normalized into [minDB, maxDB], clamped, and inverted so louder
// readings sit higher. NaN readings are treated as silence.
func DecibelY(db, minDB, maxDB, height float64) float64 {
	n := 0.0
	if span := maxDB - minDB; span > 0 && !math.IsNaN(db) {
		n = (db - minDB) / span
	}
	if n < 0 {
		n = 0
	} else if n > 1 {
		n = 1
	}
	return height * (1 - n)
}

// WaveformX maps a sample index linearly across width.
func WaveformX(index, sampleCount int, width float64) float64 {
	if sampleCount <= 0 {
		return 0
	}
	return float64(index) * (width / float64(sampleCount))
}

// WaveformY maps an amplitude in [-1, 1] around the vertical midline; 0 sits
// exactly at height/2, +1 at the top and -1 at the bottom.
func WaveformY(amplitude float32, height float64) float64 {
	half := height / 2
	return half - float64(amplitude)*half
}

// LogScale caches the x coordinate of every bucket for one (bin count, width)
// pair. Update recomputes it whenever either input changes, so a resize or a
// new transform size is always honoured.
type LogScale struct {
	bins  int
	width float64
	xs    []float64
}

// Update makes the scale current for binCount bins over width and reports
// whether it had to be recomputed.
func (s *LogScale) Update(binCount int, width float64) bool {
	if s.bins == binCount && s.width == width && s.xs != nil {
		return false
	}
	n := BucketCount(binCount)
	if cap(s.xs) < n {
		s.xs = make([]float64, n)
	}
	s.xs = s.xs[:n]
	for b := range n {
		s.xs[b] = LogX(b*BucketSize, binCount, width)
	}
	s.bins, s.width = binCount, width
	return true
}

// X returns the x coordinate of bucket b.
func (s *LogScale) X(b int) float64 {
	return s.xs[b]
}

// Len returns the number of buckets the scale covers.
func (s *LogScale) Len() int {
	return len(s.xs)
}
