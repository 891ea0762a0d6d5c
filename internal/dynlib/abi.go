// ABOUTME: C structure layouts shared with dynamic drivers
// ABOUTME: Mirrors sfxbuffer_t and sfxsample_t field for field
package dynlib

import (
	"unsafe"

	"github.com/Resonate-Protocol/audiodriver/pkg/sfx"
)

// cBuffer mirrors sfxbuffer_t as allocated by the driver
type cBuffer struct {
	ptr     uintptr
	ptr3D   uintptr
	sample  uintptr
	bytes   int32
	rate    int32
	flags   int32
	length  uint32
	cursor  uint32
	written uint32
	endTime uint32
	freq    uint32
}

// cSample mirrors sfxsample_t; allocated and pinned on the Go side
type cSample struct {
	id         int32
	data       uintptr
	size       uint32
	numSamples int32
	bytesPer   int32
	rate       int32
	group      int32
}

func newCSample(s *sfx.Sample, data uintptr, size int) *cSample {
	return &cSample{
		id:         int32(s.ID),
		data:       data,
		size:       uint32(size),
		numSamples: int32(s.NumSamples),
		bytesPer:   int32(s.BytesPer),
		rate:       int32(s.Rate),
		group:      int32(s.Group),
	}
}

// bufferView reads the driver's buffer struct behind handle
func bufferView(handle uintptr) *cBuffer {
	return (*cBuffer)(unsafe.Pointer(handle))
}

func boolArg(v bool) int32 {
	if v {
		return 1
	}
	return 0
}
