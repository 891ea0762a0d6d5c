// ABOUTME: WAVE container decoding via go-audio/wav
// ABOUTME: Loads whole clips for the mixer and streams files for music playback
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrNotPCM is returned for containers that carry compressed data
var ErrNotPCM = errors.New("container is not linear PCM")

// Clip is a fully decoded container
type Clip struct {
	Format  audio.Format
	Samples []float32 // interleaved
}

// Frames returns the number of frames in the clip
func (c *Clip) Frames() int {
	if c.Format.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Format.Channels
}

// WAV decodes a whole RIFF/WAVE image
func WAV(r io.ReadSeeker) (*Clip, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("invalid wav container: %v", d.Err())
	}
	if d.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: format tag %d", ErrNotPCM, d.WavAudioFormat)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read pcm data: %w", err)
	}

	format := audio.Format{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
	}
	return &Clip{
		Format:  format,
		Samples: intsToFloat(nil, buf.Data, format.BitDepth),
	}, nil
}

// WAVStream reads a WAVE file incrementally
type WAVStream struct {
	decoder *wav.Decoder
	format  audio.Format
	buf     *goaudio.IntBuffer
}

// NewWAVStream prepares r for incremental decoding
func NewWAVStream(r io.ReadSeeker) (*WAVStream, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("invalid wav container: %v", d.Err())
	}
	if d.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%w: format tag %d", ErrNotPCM, d.WavAudioFormat)
	}
	if err := d.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to locate pcm data: %w", err)
	}

	format := audio.Format{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
	}
	return &WAVStream{
		decoder: d,
		format:  format,
		buf: &goaudio.IntBuffer{
			Format: &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
			Data:   make([]int, 4096),
		},
	}, nil
}

// Format returns the stream format
func (s *WAVStream) Format() audio.Format {
	return s.format
}

// Read decodes up to len(dst) interleaved samples. Returns io.EOF at the end.
func (s *WAVStream) Read(dst []float32) (int, error) {
	if cap(s.buf.Data) < len(dst) {
		s.buf.Data = make([]int, len(dst))
	}
	s.buf.Data = s.buf.Data[:len(dst)]

	n, err := s.decoder.PCMBuffer(s.buf)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}
	intsToFloat(dst[:0], s.buf.Data[:n], s.format.BitDepth)
	return n, nil
}

// Rewind seeks back to the first sample
func (s *WAVStream) Rewind() error {
	return s.decoder.Rewind()
}

func intsToFloat(dst []float32, data []int, bitDepth int) []float32 {
	for _, v := range data {
		var s int32
		switch bitDepth {
		case 8:
			s = audio.SampleFromUint8(uint8(v))
		case 16:
			s = audio.SampleFromInt16(int16(v))
		case 24:
			s = int32(v)
		default:
			s = int32(v >> 8)
		}
		dst = append(dst, audio.SampleToFloat(s))
	}
	return dst
}
