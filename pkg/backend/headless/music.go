// ABOUTME: Headless Music and CD sub-interfaces
// ABOUTME: Record what would be playing without producing sound
package headless

import (
	"fmt"
	"sync"

	"github.com/Resonate-Protocol/audiodriver/pkg/music"
)

// Music records music playback state
type Music struct {
	mu      sync.Mutex
	buf     []byte
	path    string
	songID  int
	playing bool
	paused  bool
	looped  bool
	volume  float32
}

var _ music.Music = (*Music)(nil)

// Init does nothing
func (m *Music) Init() error { return nil }

// Update does nothing
func (m *Music) Update() {}

// Set records the volume
func (m *Music) Set(prop music.Property, value float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prop == music.PropertyVolume {
		m.volume = value
	}
}

// Get answers ID and PLAYING
func (m *Music) Get(prop music.Property) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch prop {
	case music.PropertyID:
		return m.songID, true
	case music.PropertyPlaying:
		if m.playing {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Pause records the pause state
func (m *Music) Pause(pause bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = pause
}

// Stop clears playback
func (m *Music) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playing = false
	m.paused = false
}

// SongBuffer returns an in-memory buffer
func (m *Music) SongBuffer(size int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buf = make([]byte, size)
	return m.buf
}

// Play starts the buffered song
func (m *Music) Play(looped bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.buf) == 0 {
		return fmt.Errorf("no song in buffer")
	}
	m.start("", looped)
	return nil
}

// PlayFile starts a song from path
func (m *Music) PlayFile(path string, looped bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.start(path, looped)
	return nil
}

func (m *Music) start(path string, looped bool) {
	m.songID++
	m.path = path
	m.playing = true
	m.paused = false
	m.looped = looped
}

// Path returns the file started last, "" for buffered songs
func (m *Music) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path
}

// CD records CD playback state
type CD struct {
	mu      sync.Mutex
	track   int
	playing bool
	paused  bool
	volume  float32
}

var _ music.CD = (*CD)(nil)

// Init does nothing
func (c *CD) Init() error { return nil }

// Update does nothing
func (c *CD) Update() {}

// Set records the volume
func (c *CD) Set(prop music.Property, value float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prop == music.PropertyVolume {
		c.volume = value
	}
}

// Get answers ID (the track) and PLAYING
func (c *CD) Get(prop music.Property) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch prop {
	case music.PropertyID:
		return c.track, true
	case music.PropertyPlaying:
		if c.playing {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Pause records the pause state
func (c *CD) Pause(pause bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paused = pause
}

// Stop clears playback
func (c *CD) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = false
}

// Play records the track
func (c *CD) Play(track int, looped bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if track <= 0 {
		return fmt.Errorf("invalid track %d", track)
	}
	c.track = track
	c.playing = true
	c.paused = false
	return nil
}
