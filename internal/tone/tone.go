// ABOUTME: Sine tone generator for demo and check tools
// ABOUTME: Builds fixed samples and streaming callbacks for the buffer engine
package tone

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/Resonate-Protocol/audiodriver/pkg/sfx"
)

// DefaultFrequency is the A4 note
const DefaultFrequency = 440.0

// Generator produces a continuous 16-bit mono sine wave
type Generator struct {
	mu          sync.Mutex
	sampleIndex uint64
	frequency   float64
	rate        int
	amplitude   float64
}

// NewGenerator creates a generator at frequency Hz sampled at rate
func NewGenerator(frequency float64, rate int) *Generator {
	if frequency <= 0 {
		frequency = DefaultFrequency
	}
	return &Generator{
		frequency: frequency,
		rate:      rate,
		amplitude: 0.5, // 50% volume
	}
}

// Read fills dst with little-endian 16-bit samples and returns the bytes written
func (g *Generator) Read(dst []byte) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := len(dst) / 2
	for i := 0; i < n; i++ {
		t := float64(g.sampleIndex+uint64(i)) / float64(g.rate)
		v := int16(math.Sin(2*math.Pi*g.frequency*t) * 32767.0 * g.amplitude)
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(v))
	}
	g.sampleIndex += uint64(n)
	return n * 2
}

// Stream returns a callback for buffers created with sfx.FlagStream
func (g *Generator) Stream() sfx.StreamFunc {
	return func(b *sfx.Buffer, dst []byte) int {
		return g.Read(dst)
	}
}

// Sample renders frames of tone into a fixed sample
func Sample(id int, frequency float64, rate, frames int) *sfx.Sample {
	data := make([]byte, frames*2)
	NewGenerator(frequency, rate).Read(data)
	return &sfx.Sample{
		ID:         id,
		Data:       data,
		Size:       len(data),
		NumSamples: frames,
		BytesPer:   2,
		Rate:       rate,
	}
}

// StreamSample describes a streaming tone for buffers created with sfx.FlagStream
func StreamSample(id int, frequency float64, rate int) *sfx.Sample {
	return &sfx.Sample{
		ID:       id,
		BytesPer: 2,
		Rate:     rate,
		Stream:   NewGenerator(frequency, rate).Stream(),
	}
}
