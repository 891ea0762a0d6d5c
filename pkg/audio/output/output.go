// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback devices
package output

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
)

// Output represents an audio output device
type Output interface {
	// Open starts pulling signed 16-bit little-endian PCM from src
	Open(format audio.Format, src io.Reader) error

	// Format returns the format the device actually runs at
	Format() audio.Format

	// SetVolume sets the device gain (0.0-1.0)
	SetVolume(volume float64)

	// Close stops pulling and releases device resources
	Close() error
}

// New returns the output registered under name
func New(name string) (Output, error) {
	switch name {
	case "", "oto":
		return NewOto(), nil
	case "malgo":
		return NewMalgo(), nil
	case "portaudio":
		return NewPortAudio(), nil
	case "null", "none":
		return NewNull(), nil
	default:
		return nil, fmt.Errorf("unknown output: %s", name)
	}
}

// clampVolume keeps a gain in 0.0-1.0
func clampVolume(volume float64) float64 {
	if volume < 0 {
		return 0
	}
	if volume > 1 {
		return 1
	}
	return volume
}
