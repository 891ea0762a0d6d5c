// ABOUTME: Contract between the buffer engine and a concrete driver
// ABOUTME: One implementation per backend; dynamic drivers are adapted to it
package sfx

// Status is a backend's view of a playing channel
type Status int

const (
	// StatusUnknown means the backend cannot tell; the engine uses the predicted end time
	StatusUnknown Status = iota
	StatusPlaying
	StatusFinished
)

// Backend is the SFX sub-interface of a driver.
//
// The engine calls every method except Init and Info with the buffer lock
// held, so a backend never sees concurrent calls for the same buffer.
type Backend interface {
	// Init prepares the sub-interface
	Init() error

	// Info answers a capability query; ok is false when unsupported
	Info(id InfoID) (value int, ok bool)

	// Create allocates backend state for a new buffer
	Create(b *Buffer) error

	// Destroy frees everything Create allocated
	Destroy(b *Buffer)

	// Load builds the native resource for s
	Load(b *Buffer, s *Sample) error

	// Release frees the native resource built by Load
	Release(b *Buffer)

	// Play starts the native resource from the beginning
	Play(b *Buffer) error

	// Stop halts playback
	Stop(b *Buffer)

	// Status reports the native channel state
	Status(b *Buffer) Status

	// Set applies a scalar buffer property
	Set(b *Buffer, prop Property, value float32)

	// Setv applies a vector buffer property
	Setv(b *Buffer, prop Property, values []float32)

	// CommitListener applies a full listener snapshot; changed lists what moved
	CommitListener(state ListenerState, changed ListenerMask)
}
