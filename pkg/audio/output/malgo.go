// ABOUTME: Malgo-based audio output implementation
// ABOUTME: Uses miniaudio via malgo and pulls PCM from the source in the device callback
package output

import (
	"fmt"
	"io"
	"log"
	"math"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
	"github.com/gen2brain/malgo"
)

// Malgo output implementation using malgo/miniaudio library
type Malgo struct {
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	src      io.Reader
	format   audio.Format
	volume   atomic.Uint64 // float64 bits, read on the audio thread
	mu       sync.Mutex
}

// NewMalgo creates a new Malgo output
func NewMalgo() Output {
	m := &Malgo{}
	m.volume.Store(math.Float64bits(1))
	return m
}

// Open initializes the output device with specified format
func (m *Malgo) Open(format audio.Format, src io.Reader) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.device != nil {
		log.Printf("Reinitializing malgo device (%dHz/%dch -> %dHz/%dch)",
			m.format.SampleRate, m.format.Channels, format.SampleRate, format.Channels)
		m.closeDevice()
	}

	if m.malgoCtx == nil {
		ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return fmt.Errorf("failed to initialize malgo context: %w", err)
		}
		m.malgoCtx = ctx
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	m.src = src
	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			m.dataCallback(pOutput)
		},
	}

	device, err := malgo.InitDevice(m.malgoCtx.Context, deviceConfig, callbacks)
	if err != nil {
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("failed to start device: %w", err)
	}

	m.device = device
	m.format = audio.Format{SampleRate: format.SampleRate, Channels: format.Channels, BitDepth: 16}
	log.Printf("Audio output initialized: %dHz, %d channels, 16-bit (malgo)", format.SampleRate, format.Channels)
	return nil
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(out []byte) {
	n, _ := io.ReadFull(m.src, out)
	for i := n; i < len(out); i++ {
		out[i] = 0
	}
	scaleS16(out[:n], m.gain())
}

func (m *Malgo) gain() float64 {
	return math.Float64frombits(m.volume.Load())
}

// Format returns the device format
func (m *Malgo) Format() audio.Format {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.format
}

// SetVolume sets the software gain applied in the callback
func (m *Malgo) SetVolume(volume float64) {
	m.volume.Store(math.Float64bits(clampVolume(volume)))
}

// Close releases output resources
func (m *Malgo) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeDevice()
	if m.malgoCtx != nil {
		if err := m.malgoCtx.Uninit(); err != nil {
			log.Printf("Warning: malgo context uninit error: %v", err)
		}
		m.malgoCtx.Free()
		m.malgoCtx = nil
	}
	return nil
}

// closeDevice stops and uninitializes the device (must hold m.mu)
func (m *Malgo) closeDevice() {
	if m.device == nil {
		return
	}
	if err := m.device.Stop(); err != nil {
		log.Printf("Warning: device stop error: %v", err)
	}
	m.device.Uninit()
	m.device = nil
}
