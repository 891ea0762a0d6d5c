// ABOUTME: Audio type definitions
// ABOUTME: Defines PCM formats, sample conversions and gain helpers
package audio

import (
	"math"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23

	// Attenuation range covered by negative volumes, in decibels.
	MaxAttenuationDB = 100.0
)

// Format describes a PCM stream
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// BytesPerSample returns the size of one sample of one channel
func (f Format) BytesPerSample() int {
	return (f.BitDepth + 7) / 8
}

// BlockAlign returns the size of one frame (all channels)
func (f Format) BlockAlign() int {
	return f.BytesPerSample() * f.Channels
}

// ByteRate returns the number of bytes consumed per second
func (f Format) ByteRate() int {
	return f.SampleRate * f.BlockAlign()
}

// Duration returns how long numFrames frames take to play at the format rate
func (f Format) Duration(numFrames int) time.Duration {
	return FramesDuration(numFrames, f.SampleRate)
}

// FramesDuration returns how long numFrames take to play at freq Hz.
// A non-positive freq yields zero.
func FramesDuration(numFrames, freq int) time.Duration {
	if freq <= 0 || numFrames <= 0 {
		return 0
	}
	return time.Duration(int64(numFrames) * int64(time.Second) / int64(freq))
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleFromUint8 converts an unsigned 8-bit sample to int32 (24-bit range)
func SampleFromUint8(sample uint8) int32 {
	return (int32(sample) - 128) << 16
}

// SampleFrom24Bit converts 24-bit packed bytes to int32 (little-endian)
func SampleFrom24Bit(b [3]byte) int32 {
	val := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign extend from 24-bit to 32-bit
	if val&0x800000 != 0 {
		val |= ^0xFFFFFF
	}
	return val
}

// SampleToFloat converts a 24-bit range int32 sample to [-1, 1)
func SampleToFloat(sample int32) float32 {
	return float32(sample) / float32(Max24Bit+1)
}

// FloatToInt16 converts a float sample to int16 with clipping
func FloatToInt16(v float32) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * math.MaxInt16)
}

// VolumeGain maps a buffer VOLUME property to a linear gain.
//
// Values in [0, 1] are linear. Negative values express attenuation:
// -1 is full volume and 0 approaches silence, spanning MaxAttenuationDB.
func VolumeGain(volume float32) float32 {
	if volume >= 0 {
		if volume > 1 {
			return 1
		}
		return volume
	}
	if volume < -1 {
		volume = -1
	}
	db := float64(-1-volume) * MaxAttenuationDB
	return float32(math.Pow(10, db/20))
}

// PanGains returns left/right gains for a pan in [-1, 1] using a
// constant-power law. 0 is centered.
func PanGains(pan float32) (left, right float32) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	angle := (float64(pan) + 1) * math.Pi / 4
	return float32(math.Cos(angle)), float32(math.Sin(angle))
}
