// ABOUTME: Loader errors for dynamic drivers
// ABOUTME: Re-exported by the driver package
package dynlib

import "errors"

var (
	// ErrNotFound is returned when the library cannot be opened
	ErrNotFound = errors.New("driver library not found")

	// ErrSymbolMissing is returned when a required export does not resolve
	ErrSymbolMissing = errors.New("driver symbol missing")
)
