// SPDX-License-Identifier: MIT
package audio

import goaudio "github.com/go-audio/audio"

// Downmix averages the interleaved channels of buf into dst, reusing dst's
// storage when it is large enough. A buffer without format is treated as mono.
func Downmix(dst []float32, buf *goaudio.Float32Buffer) []float32 {
	if buf == nil {
		return dst[:0]
	}
	channels := 1
	if buf.Format != nil && buf.Format.NumChannels > 1 {
		channels = buf.Format.NumChannels
	}

	frames := len(buf.Data) / channels
	if cap(dst) < frames {
		dst = make([]float32, frames)
	}
	dst = dst[:frames]

	if channels == 1 {
		copy(dst, buf.Data)
		return dst
	}

	inv := 1 / float32(channels)
	for i := range frames {
		var sum float32
		for _, v := range buf.Data[i*channels : (i+1)*channels] {
			sum += v
		}
		dst[i] = sum * inv
	}
	return dst
}
