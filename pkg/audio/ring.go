// ABOUTME: Byte ring buffer for streaming voices
// ABOUTME: Tracks write cursor and total bytes written for refill bookkeeping
package audio

import "sync"

// Ring provides a thread-safe circular buffer of PCM bytes
type Ring struct {
	buffer   []byte
	readPos  int
	writePos int
	count    int    // Bytes currently buffered
	written  uint64 // Total bytes ever written
	mu       sync.Mutex
}

// NewRing creates a ring with given capacity in bytes
func NewRing(capacity int) *Ring {
	return &Ring{
		buffer: make([]byte, capacity),
	}
}

// Len returns the ring capacity
func (r *Ring) Len() int {
	return len(r.buffer)
}

// Write copies as many bytes as fit and returns the amount copied
func (r *Ring) Write(p []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for n < len(p) && r.count < len(r.buffer) {
		chunk := len(r.buffer) - r.writePos
		if free := len(r.buffer) - r.count; chunk > free {
			chunk = free
		}
		c := copy(r.buffer[r.writePos:r.writePos+chunk], p[n:])
		r.writePos = (r.writePos + c) % len(r.buffer)
		r.count += c
		n += c
	}
	r.written += uint64(n)
	return n
}

// Read moves up to len(p) buffered bytes into p. Unlike an underrun in the
// output path, the remainder of p is left untouched.
func (r *Ring) Read(p []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for n < len(p) && r.count > 0 {
		chunk := len(r.buffer) - r.readPos
		if chunk > r.count {
			chunk = r.count
		}
		c := copy(p[n:], r.buffer[r.readPos:r.readPos+chunk])
		r.readPos = (r.readPos + c) % len(r.buffer)
		r.count -= c
		n += c
	}
	return n
}

// Available returns the number of bytes available to read
func (r *Ring) Available() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Free returns the number of bytes that can be written
func (r *Ring) Free() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffer) - r.count
}

// Cursor returns the current write position
func (r *Ring) Cursor() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writePos
}

// Written returns the total number of bytes written since creation or Reset
func (r *Ring) Written() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Reset empties the ring
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readPos, r.writePos, r.count, r.written = 0, 0, 0, 0
}
