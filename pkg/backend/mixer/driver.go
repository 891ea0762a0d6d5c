// ABOUTME: Base driver of the real-time mixing backend
// ABOUTME: Owns the output device lifetime and exposes the mixer as SFX sub-interface
package mixer

import (
	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
	"github.com/Resonate-Protocol/audiodriver/pkg/audio/output"
)

// Driver is the base driver of the mixing backend
type Driver struct {
	mixer *Mixer
}

// NewDriver creates a mixing driver rendering into out
func NewDriver(out output.Output, format audio.Format) *Driver {
	return &Driver{mixer: New(out, format)}
}

// Init does nothing; the device opens with the SFX sub-interface
func (d *Driver) Init() error { return nil }

// Shutdown closes the output device
func (d *Driver) Shutdown() {
	d.mixer.close()
}

// Event does nothing; mixing runs on the device's schedule
func (d *Driver) Event(ev int) {}

// Set ignores driver properties; the mixer has no synthesizer
func (d *Driver) Set(prop int, value string) error { return nil }

// SFX returns the mixer
func (d *Driver) SFX() *Mixer { return d.mixer }
