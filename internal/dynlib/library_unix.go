//go:build darwin || freebsd || linux

// ABOUTME: Shared library loading via purego
// ABOUTME: Opens driver libraries and binds exported C symbols to Go functions
package dynlib

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// Library is an opened shared library
type Library struct {
	path   string
	handle uintptr
}

// Open loads the shared library at path
func Open(path string) (*Library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}
	return &Library{path: path, handle: handle}, nil
}

// Path returns the file the library was loaded from
func (l *Library) Path() string {
	return l.path
}

// Has reports whether the library exports name
func (l *Library) Has(name string) bool {
	sym, err := purego.Dlsym(l.handle, name)
	return err == nil && sym != 0
}

// Bind resolves name and points fptr, a pointer to a func variable, at it
func (l *Library) Bind(name string, fptr any) (err error) {
	sym, derr := purego.Dlsym(l.handle, name)
	if derr != nil || sym == 0 {
		return fmt.Errorf("%w: %s in %s", ErrSymbolMissing, name, l.path)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to bind %s: %v", name, r)
		}
	}()
	purego.RegisterFunc(fptr, sym)
	return nil
}

// Close unloads the library
func (l *Library) Close() error {
	if l.handle == 0 {
		return nil
	}
	err := purego.Dlclose(l.handle)
	l.handle = 0
	return err
}

func newCallback(fn any) uintptr {
	return purego.NewCallback(fn)
}
