// ABOUTME: Raw PCM decoder
// ABOUTME: Decodes 8-bit unsigned and 16/24-bit signed PCM to float32 samples
package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
)

// PCMDecoder decodes raw little-endian PCM
type PCMDecoder struct {
	bitDepth int
}

// NewPCM creates a new PCM decoder
func NewPCM(format audio.Format) (*PCMDecoder, error) {
	switch format.BitDepth {
	case 8, 16, 24:
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d (supported: 8, 16, 24)", format.BitDepth)
	}

	return &PCMDecoder{
		bitDepth: format.BitDepth,
	}, nil
}

// Decode converts PCM bytes to float samples. Trailing partial samples are dropped.
func (d *PCMDecoder) Decode(data []byte) ([]float32, error) {
	return d.DecodeInto(nil, data), nil
}

// DecodeInto appends decoded samples to dst
func (d *PCMDecoder) DecodeInto(dst []float32, data []byte) []float32 {
	switch d.bitDepth {
	case 8:
		for _, b := range data {
			dst = append(dst, audio.SampleToFloat(audio.SampleFromUint8(b)))
		}
	case 24:
		for i := 0; i+3 <= len(data); i += 3 {
			s := audio.SampleFrom24Bit([3]byte{data[i], data[i+1], data[i+2]})
			dst = append(dst, audio.SampleToFloat(s))
		}
	default:
		for i := 0; i+2 <= len(data); i += 2 {
			s := int16(binary.LittleEndian.Uint16(data[i:]))
			dst = append(dst, audio.SampleToFloat(audio.SampleFromInt16(s)))
		}
	}
	return dst
}

// Close releases resources
func (d *PCMDecoder) Close() error {
	return nil
}
