// ABOUTME: Raw sound samples and the streaming callback
// ABOUTME: Samples are owned by the caller; buffers only reference them
package sfx

import (
	"log"
	"time"

	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
)

// StreamFunc fills dst with PCM for b and returns the number of bytes written
type StreamFunc func(b *Buffer, dst []byte) int

// Sample is a block of raw PCM plus its format
type Sample struct {
	ID         int
	Data       []byte
	Size       int // bytes
	NumSamples int // frames
	BytesPer   int // bytes per sample
	Rate       int
	Group      int

	// Stream replaces Data for buffers created with FlagStream
	Stream StreamFunc
}

// Format returns the mono PCM format of the sample
func (s *Sample) Format() audio.Format {
	return audio.Format{SampleRate: s.Rate, Channels: 1, BitDepth: s.BytesPer * 8}
}

// PCM returns the valid part of Data
func (s *Sample) PCM() []byte {
	if s.Size > 0 && s.Size <= len(s.Data) {
		return s.Data[:s.Size]
	}
	return s.Data
}

// Duration returns the play time of the sample at freq
func (s *Sample) Duration(freq int) time.Duration {
	return audio.FramesDuration(s.NumSamples, freq)
}

// Fill runs the stream callback for b. A panicking callback writes nothing.
func (s *Sample) Fill(b *Buffer, dst []byte) (n int) {
	if s.Stream == nil || len(dst) == 0 {
		return 0
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Stream callback for sample %d panicked: %v", s.ID, r)
			n = 0
		}
	}()

	n = s.Stream(b, dst)
	if n < 0 {
		return 0
	}
	if n > len(dst) {
		return len(dst)
	}
	return n
}
