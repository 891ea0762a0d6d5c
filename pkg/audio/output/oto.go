// ABOUTME: Oto-based audio output implementation
// ABOUTME: Shares one oto context per process and plays a pull-mode player per Output
package output

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// oto only allows one context per process
var (
	otoMu     sync.Mutex
	otoCtx    *oto.Context
	otoFormat audio.Format
)

// Oto output implementation using oto library
type Oto struct {
	mu     sync.Mutex
	player *oto.Player
	format audio.Format
	volume float64
}

// NewOto creates a new Oto output
func NewOto() Output {
	return &Oto{volume: 1}
}

func sharedContext(format audio.Format) (*oto.Context, audio.Format, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoFormat.SampleRate != format.SampleRate || otoFormat.Channels != format.Channels {
			log.Printf("Warning: format change requested (%dHz %dch -> %dHz %dch) but oto doesn't support reinitialization. Continuing with existing context.",
				otoFormat.SampleRate, otoFormat.Channels, format.SampleRate, format.Channels)
		}
		return otoCtx, otoFormat, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, audio.Format{}, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	otoCtx = ctx
	otoFormat = audio.Format{SampleRate: format.SampleRate, Channels: format.Channels, BitDepth: 16}
	log.Printf("Audio output initialized: %dHz, %d channels (oto)", format.SampleRate, format.Channels)
	return otoCtx, otoFormat, nil
}

// Open initializes the output device
func (o *Oto) Open(format audio.Format, src io.Reader) error {
	if format.BitDepth != 16 {
		log.Printf("Warning: oto output runs at 16-bit, ignoring requested bitDepth=%d", format.BitDepth)
	}

	ctx, actual, err := sharedContext(format)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		o.player.Close()
	}
	o.player = ctx.NewPlayer(src)
	o.player.SetVolume(o.volume)
	o.player.Play()
	o.format = actual
	return nil
}

// Format returns the device format
func (o *Oto) Format() audio.Format {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.format
}

// SetVolume sets the player gain
func (o *Oto) SetVolume(volume float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.volume = clampVolume(volume)
	if o.player != nil {
		o.player.SetVolume(o.volume)
	}
}

// Close releases the player; the shared context stays alive
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player == nil {
		return nil
	}
	err := o.player.Close()
	o.player = nil
	return err
}
