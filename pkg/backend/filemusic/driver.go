// ABOUTME: Base driver of the file playback backend
// ABOUTME: Opens one output shared by the Music and CD sub-interfaces
package filemusic

import (
	"fmt"
	"log"

	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
	"github.com/Resonate-Protocol/audiodriver/pkg/audio/output"
)

// Driver plays music and CD tracks from WAV files
type Driver struct {
	out    output.Output
	player *player
	music  *Music
	cd     *CD
	opened bool
}

// New creates a file playback driver rendering into out. cdDir holds the
// trackNN.wav files; an empty cdDir disables the CD sub-interface.
func New(out output.Output, format audio.Format, cdDir string) *Driver {
	format.BitDepth = 16
	if format.SampleRate <= 0 {
		format.SampleRate = 44100
	}
	if format.Channels <= 0 {
		format.Channels = 2
	}

	p := newPlayer(format)
	return &Driver{
		out:    out,
		player: p,
		music:  &Music{player: p, volume: 1},
		cd:     &CD{player: p, dir: cdDir, volume: 1},
	}
}

// Init opens the output device
func (d *Driver) Init() error {
	if d.opened {
		return nil
	}
	if err := d.out.Open(d.player.format, d.player); err != nil {
		return fmt.Errorf("failed to open music output: %w", err)
	}
	d.opened = true
	return nil
}

// Shutdown stops playback and closes the output
func (d *Driver) Shutdown() {
	d.player.stop(ownerNone)
	if !d.opened {
		return
	}
	if err := d.out.Close(); err != nil {
		log.Printf("filemusic: output close failed: %v", err)
	}
	d.opened = false
}

// Event does nothing; playback runs on the device's schedule
func (d *Driver) Event(ev int) {}

// Set ignores driver properties; WAV playback needs no sound font
func (d *Driver) Set(prop int, value string) error { return nil }

// Music returns the Music sub-interface
func (d *Driver) Music() *Music { return d.music }

// CD returns the CD sub-interface
func (d *Driver) CD() *CD { return d.cd }
