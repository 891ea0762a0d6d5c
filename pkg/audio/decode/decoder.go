// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for PCM sources feeding the mixer
package decode

// Decoder decodes audio data to normalized float32 samples
type Decoder interface {
	// Decode converts encoded audio data to samples in [-1, 1)
	Decode(data []byte) ([]float32, error)

	// Close releases decoder resources
	Close() error
}
