// ABOUTME: Device-less output
// ABOUTME: Holds the source so callers can pull mixed data explicitly
package output

import (
	"io"
	"sync"

	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
)

// Null is an Output with no device. Nothing is pulled until Drain is called.
type Null struct {
	mu     sync.Mutex
	src    io.Reader
	format audio.Format
	volume float64
	opened int
}

// NewNull creates a device-less output
func NewNull() *Null {
	return &Null{volume: 1}
}

// Open records the source
func (n *Null) Open(format audio.Format, src io.Reader) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.src = src
	n.format = audio.Format{SampleRate: format.SampleRate, Channels: format.Channels, BitDepth: 16}
	n.opened++
	return nil
}

// Drain pulls frames frames from the source and returns the bytes read
func (n *Null) Drain(frames int) []byte {
	n.mu.Lock()
	src, format := n.src, n.format
	n.mu.Unlock()

	if src == nil {
		return nil
	}
	buf := make([]byte, frames*format.Channels*2)
	read, _ := io.ReadFull(src, buf)
	return buf[:read]
}

// Opens returns how many times Open was called
func (n *Null) Opens() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.opened
}

// Format returns the recorded format
func (n *Null) Format() audio.Format {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.format
}

// SetVolume records the gain
func (n *Null) SetVolume(volume float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.volume = clampVolume(volume)
}

// Volume returns the recorded gain
func (n *Null) Volume() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.volume
}

// Close forgets the source
func (n *Null) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.src = nil
	return nil
}
