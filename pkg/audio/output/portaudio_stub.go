//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"fmt"
	"io"

	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
)

// PortAudio output implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() Output {
	return &PortAudio{}
}

// Open initializes PortAudio
func (p *PortAudio) Open(format audio.Format, src io.Reader) error {
	return fmt.Errorf("PortAudio support not enabled (build with -tags portaudio)")
}

// Format returns the zero format
func (p *PortAudio) Format() audio.Format {
	return audio.Format{}
}

// SetVolume does nothing
func (p *PortAudio) SetVolume(volume float64) {}

// Close releases resources
func (p *PortAudio) Close() error {
	return nil
}
