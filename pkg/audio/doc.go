// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and PCM16 sample conversion functions
// Package audio provides fundamental audio types and utilities for realtime
// voice streaming.
//
// This package defines the core types used throughout the voicewire library:
//   - Format: Describes a raw PCM stream (sample rate, channels, bit depth)
//   - Conversion between little-endian 16-bit PCM and normalized float32
//     samples in [-1.0, 1.0]
//
// Conversion is linear: an int16 value v maps to v/32768, and re-quantizing
// the result recovers v exactly.
//
// Example:
//
//	samples := audio.DecodePCM16(chunk)
//	chunk2 := audio.EncodePCM16(samples)
package audio
