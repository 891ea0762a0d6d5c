// ABOUTME: Dynamic driver loading with partial capability negotiation
// ABOUTME: Base exports are required; SFX, Music and CD bind only when their Init exports
package dynlib

import (
	"fmt"
	"log"
	"unsafe"
)

// binding pairs an export name with the func variable it fills
type binding struct {
	name string
	fptr any
}

// symbolTable resolves exports; *Library is the real one
type symbolTable interface {
	Has(name string) bool
	Bind(name string, fptr any) error
}

func bindAll(syms symbolTable, bindings []binding) error {
	for _, b := range bindings {
		if err := syms.Bind(b.name, b.fptr); err != nil {
			return err
		}
	}
	return nil
}

// Driver is a loaded dynamic driver
type Driver struct {
	lib *Library

	dsInit     func() int32
	dsShutdown func()
	dsEvent    func(int32)
	dsSet      func(int32, unsafe.Pointer) int32

	sfx   *SFX
	music *Music
	cd    *CD
}

// Load opens the library at path and binds the base exports plus every
// sub-interface whose Init export is present
func Load(path string) (*Driver, error) {
	lib, err := Open(path)
	if err != nil {
		return nil, err
	}

	d := &Driver{lib: lib}
	if err := d.negotiate(lib); err != nil {
		lib.Close()
		return nil, err
	}

	log.Printf("Loaded dynamic driver %s (sfx=%v music=%v cd=%v)", path, d.sfx != nil, d.music != nil, d.cd != nil)
	return d, nil
}

// negotiate binds the base exports and every sub-interface whose Init export
// is present. A gated sub-interface missing any sibling export fails the load.
func (d *Driver) negotiate(syms symbolTable) error {
	if err := bindAll(syms, d.bindings()); err != nil {
		return err
	}

	if syms.Has(sfxGate) {
		s := newSFX()
		if err := bindAll(syms, s.bindings()); err != nil {
			return fmt.Errorf("incomplete SFX interface: %w", err)
		}
		d.sfx = s
	}
	if syms.Has(musicGate) {
		m := &Music{}
		if err := bindAll(syms, m.bindings()); err != nil {
			return fmt.Errorf("incomplete Music interface: %w", err)
		}
		d.music = m
	}
	if syms.Has(cdGate) {
		c := &CD{}
		if err := bindAll(syms, c.bindings()); err != nil {
			return fmt.Errorf("incomplete CD interface: %w", err)
		}
		d.cd = c
	}
	return nil
}

func (d *Driver) bindings() []binding {
	return []binding{
		{"DS_Init", &d.dsInit},
		{"DS_Shutdown", &d.dsShutdown},
		{"DS_Event", &d.dsEvent},
		{"DS_Set", &d.dsSet},
	}
}

// Path returns the library file
func (d *Driver) Path() string {
	return d.lib.Path()
}

// SFX returns the SFX adapter, or nil when the driver has none
func (d *Driver) SFX() *SFX { return d.sfx }

// Music returns the Music adapter, or nil when the driver has none
func (d *Driver) Music() *Music { return d.music }

// CD returns the CD adapter, or nil when the driver has none
func (d *Driver) CD() *CD { return d.cd }

// Init calls DS_Init
func (d *Driver) Init() (err error) {
	defer recoverInto(&err, "DS_Init")
	if d.dsInit() == 0 {
		return fmt.Errorf("DS_Init reported failure")
	}
	return nil
}

// Shutdown calls DS_Shutdown
func (d *Driver) Shutdown() {
	defer recoverLog("DS_Shutdown")
	d.dsShutdown()
}

// Event forwards a frame event
func (d *Driver) Event(ev int) {
	defer recoverLog("DS_Event")
	d.dsEvent(int32(ev))
}

// Set passes a string property such as the sound font path
func (d *Driver) Set(prop int, value string) (err error) {
	defer recoverInto(&err, "DS_Set")

	cstr := append([]byte(value), 0)
	if d.dsSet(int32(prop), unsafe.Pointer(&cstr[0])) == 0 {
		return fmt.Errorf("DS_Set(%d) rejected %q", prop, value)
	}
	return nil
}

// Close unloads the library and drops every bound entry point
func (d *Driver) Close() error {
	d.dsInit, d.dsShutdown, d.dsEvent, d.dsSet = nil, nil, nil, nil
	if d.sfx != nil {
		d.sfx.detach()
	}
	d.sfx, d.music, d.cd = nil, nil, nil
	return d.lib.Close()
}

func recoverInto(err *error, call string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%s panicked: %v", call, r)
	}
}

func recoverLog(call string) {
	if r := recover(); r != nil {
		log.Printf("Dynamic driver call %s panicked: %v", call, r)
	}
}
