// ABOUTME: Audio type definitions
// ABOUTME: Defines stream formats and PCM16 sample conversion
package audio

import "encoding/binary"

const (
	// Max16Bit and Min16Bit bound the signed 16-bit PCM range.
	Max16Bit = 32767
	Min16Bit = -32768

	// NormalizeScale maps int16 samples into [-1.0, 1.0).
	NormalizeScale = 32768
)

// Format describes a raw PCM stream
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// SampleToFloat converts an int16 sample to a normalized float32 in [-1, 1)
func SampleToFloat(sample int16) float32 {
	return float32(sample) / NormalizeScale
}

// SampleFromFloat re-quantizes a normalized float32 to int16 with clamping
func SampleFromFloat(sample float32) int16 {
	scaled := int32(sample * NormalizeScale)
	if scaled > Max16Bit {
		scaled = Max16Bit
	} else if scaled < Min16Bit {
		scaled = Min16Bit
	}
	return int16(scaled)
}

// DecodePCM16 converts little-endian 16-bit PCM bytes to normalized float32
// samples. An odd trailing byte does not form a whole sample and is ignored.
func DecodePCM16(data []byte) []float32 {
	numSamples := len(data) / 2
	samples := make([]float32, numSamples)
	for i := 0; i < numSamples; i++ {
		sample16 := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = SampleToFloat(sample16)
	}
	return samples
}

// EncodePCM16 converts normalized float32 samples to little-endian 16-bit PCM bytes
func EncodePCM16(samples []float32) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(SampleFromFloat(s)))
	}
	return data
}
