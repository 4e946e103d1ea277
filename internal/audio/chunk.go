package audio

import (
	"math"
	"time"
)

// Chunk is an immutable slice of mono PCM samples in [-1, 1], produced by a
// microphone source at a fixed sample rate. Ownership transfers to whichever
// buffer consumes it; callers must not mutate samples after handing one off.
type Chunk struct {
	Samples []float32
}

// Len returns the sample count.
func (c Chunk) Len() int {
	return len(c.Samples)
}

// Duration returns the chunk duration at the given sample rate.
func (c Chunk) Duration(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(c.Samples)) / float64(sampleRate) * float64(time.Second))
}

// RMS returns the root-mean-square amplitude of the chunk, a cheap loudness proxy.
func (c Chunk) RMS() float64 {
	return RMS(c.Samples)
}

// RMS calculates the root mean square of float PCM samples.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// DecodePCM16 converts little-endian 16-bit PCM bytes to float samples in [-1, 1].
// A trailing odd byte is dropped.
func DecodePCM16(data []byte) []float32 {
	n := len(data) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(data[i*2]) | int16(data[i*2+1])<<8
		samples[i] = float32(v) / 32768.0
	}
	return samples
}

// EncodePCM16 converts float samples in [-1, 1] to little-endian 16-bit PCM bytes.
// Samples outside the range are clipped.
func EncodePCM16(samples []float32) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		v := int16(s * 32767.0)
		data[i*2] = byte(v)
		data[i*2+1] = byte(v >> 8)
	}
	return data
}
