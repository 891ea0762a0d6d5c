//go:build !(darwin || freebsd || linux)

// ABOUTME: Shared library stub for platforms without dlopen
// ABOUTME: Dynamic drivers are reported as not found
package dynlib

import "fmt"

// Library is an opened shared library
type Library struct {
	path string
}

// Open always fails on this platform
func Open(path string) (*Library, error) {
	return nil, fmt.Errorf("%w: %s: dynamic drivers are not supported on this platform", ErrNotFound, path)
}

// Path returns the file the library was loaded from
func (l *Library) Path() string {
	return l.path
}

// Has reports whether the library exports name
func (l *Library) Has(name string) bool {
	return false
}

// Bind resolves name and points fptr at it
func (l *Library) Bind(name string, fptr any) error {
	return fmt.Errorf("%w: %s", ErrSymbolMissing, name)
}

// Close unloads the library
func (l *Library) Close() error {
	return nil
}

func newCallback(fn any) uintptr {
	return 0
}
