// ABOUTME: Headless driver with no audio device
// ABOUTME: Provides SFX, Music and CD sub-interfaces that only record state
package headless

import (
	"log"
	"sync"
)

// Driver is the headless base driver
type Driver struct {
	mu          sync.Mutex
	initialized bool
	soundFont   string
	events      int

	sfx   *SFX
	music *Music
	cd    *CD
}

// New creates a headless driver with all three sub-interfaces
func New() *Driver {
	return &Driver{
		sfx:   newSFX(),
		music: &Music{},
		cd:    &CD{},
	}
}

// Init marks the driver ready
func (d *Driver) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.initialized = true
	log.Printf("Headless audio driver initialized")
	return nil
}

// Shutdown marks the driver stopped
func (d *Driver) Shutdown() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.initialized = false
}

// Initialized reports whether Init ran without a later Shutdown
func (d *Driver) Initialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

// Event counts frame events
func (d *Driver) Event(ev int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events++
}

// Events returns how many frame events were received
func (d *Driver) Events() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.events
}

// Set records string properties
func (d *Driver) Set(prop int, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if prop == 0 {
		d.soundFont = value
	}
	return nil
}

// SoundFont returns the last sound font path set
func (d *Driver) SoundFont() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.soundFont
}

// SFX returns the SFX sub-interface
func (d *Driver) SFX() *SFX { return d.sfx }

// Music returns the Music sub-interface
func (d *Driver) Music() *Music { return d.music }

// CD returns the CD sub-interface
func (d *Driver) CD() *CD { return d.cd }
