// ABOUTME: Driver contract, descriptors and loader errors
// ABOUTME: Event and property ids match the dynamic driver ABI
package driver

import (
	"errors"

	"github.com/Resonate-Protocol/audiodriver/internal/dynlib"
	"github.com/Resonate-Protocol/audiodriver/pkg/music"
	"github.com/Resonate-Protocol/audiodriver/pkg/sfx"
)

// Driver is the base interface every backend provides
type Driver interface {
	Init() error
	Shutdown()
	Event(ev int)
	Set(prop int, value string) error
}

// Frame events passed to Event
const (
	EventBegin = 0
	EventEnd   = 1
)

// PropSoundFont sets the sound font file used by synthesizing drivers
const PropSoundFont = 0

var (
	// ErrDriverNotFound is returned when no built-in or library driver has the name
	ErrDriverNotFound = errors.New("audio driver not found")

	// ErrSymbolMissing is returned when a library lacks a required export
	ErrSymbolMissing = dynlib.ErrSymbolMissing

	// ErrInitFailed is returned when the base Init of a driver fails
	ErrInitFailed = errors.New("audio driver init failed")
)

// Descriptor is a loaded driver and the sub-interfaces it provides.
// A nil sub-interface means the driver does not support it.
type Descriptor struct {
	Name   string
	Driver Driver
	SFX    sfx.Backend
	Music  music.Music
	CD     music.CD

	// Dynamic drivers come from a shared library at Path
	Dynamic bool
	Path    string

	// Close releases loader resources after Shutdown, if set
	Close func() error
}

// multiDriver fans base calls out to several drivers
type multiDriver []Driver

func (m multiDriver) Init() error {
	for i, d := range m {
		if err := d.Init(); err != nil {
			for j := i - 1; j >= 0; j-- {
				m[j].Shutdown()
			}
			return err
		}
	}
	return nil
}

func (m multiDriver) Shutdown() {
	for i := len(m) - 1; i >= 0; i-- {
		m[i].Shutdown()
	}
}

func (m multiDriver) Event(ev int) {
	for _, d := range m {
		d.Event(ev)
	}
}

func (m multiDriver) Set(prop int, value string) error {
	var errs []error
	for _, d := range m {
		if err := d.Set(prop, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
