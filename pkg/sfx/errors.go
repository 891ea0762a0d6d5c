// ABOUTME: Sentinel errors for the buffer engine
// ABOUTME: Callers match these with errors.Is
package sfx

import "errors"

var (
	// ErrPoolFull is returned by Create when the pool is at its bound
	ErrPoolFull = errors.New("buffer pool is full")

	// ErrUnsupportedFormat is returned when a buffer or sample format cannot be represented
	ErrUnsupportedFormat = errors.New("unsupported sample format")

	// ErrDestroyed is returned for operations on a destroyed buffer
	ErrDestroyed = errors.New("buffer destroyed")

	// ErrNoSample is returned by Load for a nil sample
	ErrNoSample = errors.New("no sample")
)
