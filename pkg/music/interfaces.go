// ABOUTME: Music and CD sub-interface contracts
// ABOUTME: Property ids match the dynamic driver ABI
package music

import "errors"

// Property identifies a music or CD property
type Property int

// Music and CD properties
const (
	PropertyID      Property = 0
	PropertyPlaying Property = 1
	PropertyVolume  Property = 2
)

// ErrNoSource is returned when no source of a song can be played
var ErrNoSource = errors.New("no playable music source")

// Music is the Music sub-interface of a driver
type Music interface {
	Init() error
	Update()
	Set(prop Property, value float32)
	Get(prop Property) (int, bool)
	Pause(pause bool)
	Stop()

	// SongBuffer returns a buffer of size bytes to copy a song into before
	// Play, or nil when the driver only plays files
	SongBuffer(size int) []byte

	// Play starts the song in the song buffer
	Play(looped bool) error

	// PlayFile starts the song stored at path
	PlayFile(path string, looped bool) error
}

// CD is the CD sub-interface of a driver
type CD interface {
	Init() error
	Update()
	Set(prop Property, value float32)
	Get(prop Property) (int, bool)
	Pause(pause bool)
	Stop()
	Play(track int, looped bool) error
}

// Identifier is implemented by sub-interfaces that answer PropertyID with a
// string, as dynamic drivers do. Get(PropertyID) then only reports success.
type Identifier interface {
	Identify() string
}
