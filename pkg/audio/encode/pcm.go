// ABOUTME: PCM output encoder
// ABOUTME: Packs mixed float frames into signed 16-bit little-endian bytes
package encode

import (
	"encoding/binary"

	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
)

// PutPCM16 writes samples as 16-bit LE into dst and returns bytes written.
// It stops when dst is full.
func PutPCM16(dst []byte, samples []float32) int {
	n := len(samples)
	if max := len(dst) / 2; n > max {
		n = max
	}
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(audio.FloatToInt16(samples[i])))
	}
	return n * 2
}
