// ABOUTME: Engine-side handle for one playable sound channel
// ABOUTME: Holds flags, format, cached properties and backend extension state
package sfx

import (
	"sync"
	"sync/atomic"
	"time"
)

// State is the lifecycle state of a buffer
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StatePlaying
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StatePlaying:
		return "playing"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// RingInfo describes the streaming ring of a buffer
type RingInfo struct {
	Length  int
	Cursor  int
	Written uint64
}

// Buffer is one simultaneously playable channel.
//
// Backends receive buffers inside Backend calls while the engine holds the
// buffer lock. The accessors below do not lock and are safe to use there.
type Buffer struct {
	mu sync.Mutex

	index    int
	bytesPer int
	rate     int
	flags    atomic.Uint32

	freqScale float32
	sample    *Sample
	endTime   time.Time
	native    bool // backend holds a native resource for sample
	dead      bool

	volume   float32
	pan      float32
	minDist  float32
	maxDist  float32
	position [3]float32
	velocity [3]float32
	relative bool

	ringLen     atomic.Int64
	ringCursor  atomic.Int64
	ringWritten atomic.Uint64

	ext any
}

func newBuffer(index int, flags Flag, bits, rate int) *Buffer {
	b := &Buffer{
		index:     index,
		bytesPer:  bits / 8,
		rate:      rate,
		freqScale: 1,
		volume:    1,
		minDist:   1,
		maxDist:   1000,
	}
	b.flags.Store(uint32(flags & createMask))
	return b
}

// Index returns the channel index assigned at creation
func (b *Buffer) Index() int { return b.index }

// BytesPer returns bytes per sample
func (b *Buffer) BytesPer() int { return b.bytesPer }

// Rate returns the sample rate the buffer was created for
func (b *Buffer) Rate() int { return b.rate }

// Flags returns the current flag bits
func (b *Buffer) Flags() Flag { return Flag(b.flags.Load()) }

// Has reports whether all bits of f are set
func (b *Buffer) Has(f Flag) bool { return b.Flags()&f == f }

func (b *Buffer) set(f Flag) {
	for {
		old := b.flags.Load()
		if b.flags.CompareAndSwap(old, old|uint32(f)) {
			return
		}
	}
}

func (b *Buffer) clear(f Flag) {
	for {
		old := b.flags.Load()
		if b.flags.CompareAndSwap(old, old&^uint32(f)) {
			return
		}
	}
}

// Ext returns the backend's private per-buffer state
func (b *Buffer) Ext() any { return b.ext }

// SetExt stores the backend's private per-buffer state
func (b *Buffer) SetExt(ext any) { b.ext = ext }

// UpdateRing records streaming ring progress
func (b *Buffer) UpdateRing(length, cursor int, written uint64) {
	b.ringLen.Store(int64(length))
	b.ringCursor.Store(int64(cursor))
	b.ringWritten.Store(written)
}

// Ring returns the last recorded streaming ring progress
func (b *Buffer) Ring() RingInfo {
	return RingInfo{
		Length:  int(b.ringLen.Load()),
		Cursor:  int(b.ringCursor.Load()),
		Written: b.ringWritten.Load(),
	}
}

// State reports the lifecycle state. Do not call from inside a Backend method.
func (b *Buffer) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

func (b *Buffer) stateLocked() State {
	switch {
	case b.sample == nil:
		return StateEmpty
	case b.Has(FlagPlaying):
		return StatePlaying
	case b.Has(FlagReload):
		return StateStopped
	default:
		return StateLoaded
	}
}

// Frequency returns the playback frequency in Hz. Do not call from inside a Backend method.
func (b *Buffer) Frequency() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frequencyLocked()
}

// frequencyLocked scales the bound sample's rate, or the buffer rate when empty
func (b *Buffer) frequencyLocked() int {
	base := b.rate
	if b.sample != nil && b.sample.Rate > 0 {
		base = b.sample.Rate
	}
	f := int(float32(base)*b.freqScale + 0.5)
	if f < 1 {
		f = 1
	}
	return f
}

// Sample returns the bound sample. Do not call from inside a Backend method.
func (b *Buffer) Sample() *Sample {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sample
}

// EndTime returns the predicted end of playback, zero when unknown
func (b *Buffer) EndTime() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.endTime
}
