//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform audio output using PortAudio callbacks
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
	"github.com/gordonklaus/portaudio"
)

// PortAudio output implementation
type PortAudio struct {
	mu      sync.Mutex
	stream  *portaudio.Stream
	src     io.Reader
	scratch []byte
	format  audio.Format
	volume  float64
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() Output {
	return &PortAudio{volume: 1}
}

// Open initializes PortAudio and starts a callback stream pulling from src
func (p *PortAudio) Open(format audio.Format, src io.Reader) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	p.src = src
	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), 0, p.callback)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	p.stream = stream
	p.format = audio.Format{SampleRate: format.SampleRate, Channels: format.Channels, BitDepth: 16}
	return stream.Start()
}

func (p *PortAudio) callback(out []int16) {
	if need := len(out) * 2; len(p.scratch) < need {
		p.scratch = make([]byte, need)
	}
	buf := p.scratch[:len(out)*2]
	n, _ := io.ReadFull(p.src, buf)
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	scaleS16(buf, p.gain())
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
}

func (p *PortAudio) gain() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Format returns the stream format
func (p *PortAudio) Format() audio.Format {
	return p.format
}

// SetVolume sets the software gain
func (p *PortAudio) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = clampVolume(volume)
}

// Close releases resources
func (p *PortAudio) Close() error {
	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			return err
		}
		if err := p.stream.Close(); err != nil {
			return err
		}
		p.stream = nil
	}
	return portaudio.Terminate()
}
