// ABOUTME: Registry keeping one audio driver active at a time
// ABOUTME: Builds the SFX engine and music aggregator over the driver's sub-interfaces
package driver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audiodriver/pkg/music"
	"github.com/Resonate-Protocol/audiodriver/pkg/sfx"
)

// FallbackDriver is activated when the requested driver fails to initialize
const FallbackDriver = "headless"

// DefaultRefreshInterval is the SFX refresh period
const DefaultRefreshInterval = 20 * time.Millisecond

// Config configures the registry
type Config struct {
	MaxBuffers      int
	RefreshInterval time.Duration
	MusicPreference []music.Source
	StagingDir      string
	Clock           sfx.Clock
}

// active is everything built on top of one loaded driver
type active struct {
	desc  *Descriptor
	sfx   *sfx.Engine
	music *music.Aggregator
}

// Registry owns the active driver
type Registry struct {
	loader  *Loader
	cfg     Config
	staging *music.Staging

	// opMu serializes Init, Switch and Shutdown
	opMu sync.Mutex

	mu      sync.RWMutex
	current *active
}

// NewRegistry creates a registry with no active driver
func NewRegistry(loader *Loader, cfg Config) *Registry {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}
	return &Registry{
		loader:  loader,
		cfg:     cfg,
		staging: music.NewStaging(cfg.StagingDir, ""),
	}
}

// Init activates the named driver. When it cannot be loaded or initialized
// the headless driver is activated instead and the original error returned.
func (r *Registry) Init(name string) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if desc := r.Descriptor(); desc != nil {
		return fmt.Errorf("driver %s already active", desc.Name)
	}

	a, err := r.activate(name)
	if err != nil {
		return r.fallback(name, err)
	}
	r.setCurrent(a)
	return nil
}

// fallback activates the headless driver after name failed with err and
// returns err
func (r *Registry) fallback(name string, err error) error {
	log.Printf("Audio driver %s failed, falling back to %s: %v", name, FallbackDriver, err)
	a, ferr := r.activate(FallbackDriver)
	if ferr != nil {
		return errors.Join(err, ferr)
	}
	r.setCurrent(a)
	return err
}

func (r *Registry) setCurrent(a *active) *active {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.current
	r.current = a
	return old
}

// Switch replaces the active driver. The name is resolved first, and when
// it cannot be loaded the current driver stays active. Otherwise the current
// driver is quiesced and shut down before the new one initializes, so two
// drivers never run at once. If the new driver then fails to initialize the
// headless driver is activated and the error returned.
func (r *Registry) Switch(name string) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	desc, err := r.loader.Load(name)
	if err != nil {
		return err
	}

	if old := r.setCurrent(nil); old != nil {
		r.teardown(old)
	}

	a, err := r.start(desc)
	if err != nil {
		return r.fallback(name, err)
	}
	r.setCurrent(a)
	log.Printf("Switched audio driver to %s", a.desc.Name)
	return nil
}

// Shutdown tears down the active driver and removes staged songs
func (r *Registry) Shutdown() {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	if old := r.setCurrent(nil); old != nil {
		r.teardown(old)
	}
	r.staging.Cleanup()
}

func (r *Registry) activate(name string) (*active, error) {
	desc, err := r.loader.Load(name)
	if err != nil {
		return nil, err
	}
	return r.start(desc)
}

// start initializes a loaded driver and builds the engine and aggregator
// over the sub-interfaces that came up
func (r *Registry) start(desc *Descriptor) (*active, error) {
	if err := desc.Driver.Init(); err != nil {
		closeDescriptor(desc)
		return nil, fmt.Errorf("%w: %s: %v", ErrInitFailed, desc.Name, err)
	}

	if desc.SFX != nil {
		if err := desc.SFX.Init(); err != nil {
			log.Printf("Driver %s: SFX unavailable: %v", desc.Name, err)
			desc.SFX = nil
		}
	}
	if desc.Music != nil {
		if err := desc.Music.Init(); err != nil {
			log.Printf("Driver %s: music unavailable: %v", desc.Name, err)
			desc.Music = nil
		}
	}
	if desc.CD != nil {
		if err := desc.CD.Init(); err != nil {
			log.Printf("Driver %s: CD unavailable: %v", desc.Name, err)
			desc.CD = nil
		}
	}

	a := &active{desc: desc}
	if desc.SFX != nil {
		a.sfx = sfx.NewEngine(desc.SFX, sfx.Config{MaxBuffers: r.cfg.MaxBuffers, Clock: r.cfg.Clock})
		a.sfx.StartRefresh(context.Background(), r.cfg.RefreshInterval)
	}
	if desc.Music != nil || desc.CD != nil {
		a.music = music.NewAggregator(desc.Music, desc.CD, r.staging)
		if len(r.cfg.MusicPreference) > 0 {
			a.music.SetPreference(r.cfg.MusicPreference)
		}
	}

	log.Printf("Audio driver %s active (sfx=%v music=%v cd=%v dynamic=%v)",
		desc.Name, desc.SFX != nil, desc.Music != nil, desc.CD != nil, desc.Dynamic)
	return a, nil
}

// teardown quiesces the SFX pool before the driver goes away
func (r *Registry) teardown(a *active) {
	if a.music != nil {
		a.music.Stop()
	}
	if a.sfx != nil {
		a.sfx.Shutdown()
	}
	a.desc.Driver.Shutdown()
	closeDescriptor(a.desc)
	log.Printf("Audio driver %s shut down", a.desc.Name)
}

func closeDescriptor(desc *Descriptor) {
	if desc.Close == nil {
		return
	}
	if err := desc.Close(); err != nil {
		log.Printf("Driver %s: unload failed: %v", desc.Name, err)
	}
}

// Event forwards a frame event to the active driver
func (r *Registry) Event(ev int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current != nil {
		r.current.desc.Driver.Event(ev)
	}
}

// SetSoundFont passes a sound font path to the active driver
func (r *Registry) SetSoundFont(path string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return errors.New("no active audio driver")
	}
	return r.current.desc.Driver.Set(PropSoundFont, path)
}

// Tick refreshes SFX inline when the driver runs without a refresh
// goroutine and gives the music sub-interfaces their update. It returns
// how many buffers finished.
func (r *Registry) Tick() int {
	r.mu.RLock()
	a := r.current
	r.mu.RUnlock()
	if a == nil {
		return 0
	}

	finished := 0
	if a.sfx != nil && !a.sfx.Refreshing() {
		finished = a.sfx.Tick()
	}
	if a.music != nil {
		a.music.Update()
	}
	return finished
}

// SFX returns the engine of the active driver, or nil without SFX support
func (r *Registry) SFX() *sfx.Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil
	}
	return r.current.sfx
}

// Music returns the music aggregator, or nil without Music or CD support
func (r *Registry) Music() *music.Aggregator {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil
	}
	return r.current.music
}

// CD returns the CD sub-interface, or nil without CD support
func (r *Registry) CD() music.CD {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil
	}
	return r.current.desc.CD
}

// Descriptor returns the active driver, or nil before Init
func (r *Registry) Descriptor() *Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil
	}
	return r.current.desc
}

// Staging returns the directory manager for staged songs
func (r *Registry) Staging() *music.Staging {
	return r.staging
}
