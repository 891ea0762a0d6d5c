// ABOUTME: Software gain for outputs without a native volume control
// ABOUTME: Scales signed 16-bit little-endian PCM in place
package output

import "encoding/binary"

// scaleS16 multiplies each sample in buf by gain
func scaleS16(buf []byte, gain float64) {
	if gain >= 1 {
		return
	}
	for i := 0; i+1 < len(buf); i += 2 {
		s := int16(binary.LittleEndian.Uint16(buf[i:]))
		binary.LittleEndian.PutUint16(buf[i:], uint16(int16(float64(s)*gain)))
	}
}
