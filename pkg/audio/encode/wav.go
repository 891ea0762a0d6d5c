// ABOUTME: RIFF/WAVE container synthesis
// ABOUTME: Builds a 44-byte PCM header plus data in a reusable scratch buffer
package encode

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
)

const (
	// WAVHeaderSize is the size of the canonical PCM header
	WAVHeaderSize = 44

	formatTagPCM = 1
)

// WAV builds WAVE images. It is not safe for concurrent use; the returned
// image aliases the scratch buffer until the next Encode call.
type WAV struct {
	scratch []byte
}

// NewWAV creates a builder with a scratch buffer of scratchSize bytes
func NewWAV(scratchSize int) *WAV {
	return &WAV{scratch: make([]byte, scratchSize)}
}

// Encode writes the header for format followed by pcm and returns the image.
// Images larger than the scratch buffer are built in a fresh allocation.
func (w *WAV) Encode(format audio.Format, pcm []byte) ([]byte, error) {
	if err := validate(format); err != nil {
		return nil, err
	}

	size := WAVHeaderSize + len(pcm)
	var out []byte
	if size <= len(w.scratch) {
		out = w.scratch[:size]
	} else {
		out = make([]byte, size)
	}

	putHeader(out, format, len(pcm))
	copy(out[WAVHeaderSize:], pcm)
	return out, nil
}

// ScratchSize returns the reusable buffer size
func (w *WAV) ScratchSize() int {
	return len(w.scratch)
}

func validate(format audio.Format) error {
	switch format.BitDepth {
	case 8, 16, 24:
	default:
		return fmt.Errorf("unsupported bit depth: %d (supported: 8, 16, 24)", format.BitDepth)
	}
	if format.Channels < 1 {
		return fmt.Errorf("invalid channel count: %d", format.Channels)
	}
	if format.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", format.SampleRate)
	}
	return nil
}

func putHeader(b []byte, format audio.Format, dataLen int) {
	le := binary.LittleEndian

	copy(b[0:4], "RIFF")
	le.PutUint32(b[4:8], uint32(36+dataLen))
	copy(b[8:12], "WAVE")

	copy(b[12:16], "fmt ")
	le.PutUint32(b[16:20], 16)
	le.PutUint16(b[20:22], formatTagPCM)
	le.PutUint16(b[22:24], uint16(format.Channels))
	le.PutUint32(b[24:28], uint32(format.SampleRate))
	le.PutUint32(b[28:32], uint32(format.ByteRate()))
	le.PutUint16(b[32:34], uint16(format.BlockAlign()))
	le.PutUint16(b[34:36], uint16(format.BitDepth))

	copy(b[36:40], "data")
	le.PutUint32(b[40:44], uint32(dataLen))
}
