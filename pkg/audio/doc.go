// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, sample conversions, gain math and the byte ring
// Package audio provides the format and sample helpers shared by the sound
// buffer engine and every backend.
//
// This package defines:
//   - Format: sample rate, channel count and bit depth of a PCM stream
//   - Ring: a fixed-size byte ring used by streaming voices
//
// It also provides conversions between 8-bit unsigned, 16-bit and 24-bit
// samples and the normalized float32 range the mixer works in, plus the
// volume/attenuation mapping used by buffer properties.
//
// Example:
//
//	format := audio.Format{SampleRate: 11025, Channels: 1, BitDepth: 16}
//	d := format.Duration(11025) // one second
package audio
