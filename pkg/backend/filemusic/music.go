// ABOUTME: Music and CD sub-interfaces of the file playback driver
// ABOUTME: Music plays files only; CD maps track numbers to trackNN.wav
package filemusic

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Resonate-Protocol/audiodriver/pkg/music"
)

// ErrNoSongBuffer is returned by Play; songs must be played from files
var ErrNoSongBuffer = errors.New("song buffers not supported")

// Music plays songs from WAV files
type Music struct {
	player *player

	mu     sync.Mutex
	volume float32
	songs  int
}

var _ music.Music = (*Music)(nil)

// Init does nothing; the output is opened by the base driver
func (m *Music) Init() error { return nil }

// Update closes a finished song
func (m *Music) Update() {
	m.player.reap()
}

// Set changes the music volume
func (m *Music) Set(prop music.Property, value float32) {
	if prop != music.PropertyVolume {
		return
	}
	m.mu.Lock()
	m.volume = value
	m.mu.Unlock()
	m.player.setVolume(ownerMusic, value)
}

// Get reports the id of the last song started and whether it is playing
func (m *Music) Get(prop music.Property) (int, bool) {
	switch prop {
	case music.PropertyID:
		m.mu.Lock()
		defer m.mu.Unlock()
		return m.songs, true
	case music.PropertyPlaying:
		if m.player.isPlaying(ownerMusic) {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Pause pauses or resumes the current song
func (m *Music) Pause(pause bool) {
	m.player.pause(ownerMusic, pause)
}

// Stop ends the current song
func (m *Music) Stop() {
	m.player.stop(ownerMusic)
}

// SongBuffer returns nil so callers stage songs into files
func (m *Music) SongBuffer(size int) []byte { return nil }

// Play always fails; see SongBuffer
func (m *Music) Play(looped bool) error {
	return ErrNoSongBuffer
}

// PlayFile starts the WAV file at path
func (m *Music) PlayFile(path string, looped bool) error {
	m.mu.Lock()
	volume := m.volume
	m.mu.Unlock()

	if err := m.player.start(path, looped, ownerMusic, volume); err != nil {
		return err
	}

	m.mu.Lock()
	m.songs++
	m.mu.Unlock()
	return nil
}

// CD plays tracks from a directory of trackNN.wav files
type CD struct {
	player *player
	dir    string

	mu     sync.Mutex
	volume float32
	track  int
}

var _ music.CD = (*CD)(nil)

// TrackPath returns the file that stands in for track
func TrackPath(dir string, track int) string {
	return filepath.Join(dir, fmt.Sprintf("track%02d.wav", track))
}

// Init checks the track directory exists
func (c *CD) Init() error {
	if c.dir == "" {
		return errors.New("no cd track directory configured")
	}
	info, err := os.Stat(c.dir)
	if err != nil {
		return fmt.Errorf("cd track directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cd track directory %s is not a directory", c.dir)
	}
	return nil
}

// Update closes a finished track
func (c *CD) Update() {
	c.player.reap()
}

// Set changes the CD volume
func (c *CD) Set(prop music.Property, value float32) {
	if prop != music.PropertyVolume {
		return
	}
	c.mu.Lock()
	c.volume = value
	c.mu.Unlock()
	c.player.setVolume(ownerCD, value)
}

// Get reports the current track and whether it is playing
func (c *CD) Get(prop music.Property) (int, bool) {
	switch prop {
	case music.PropertyID:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.track, true
	case music.PropertyPlaying:
		if c.player.isPlaying(ownerCD) {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Pause pauses or resumes the current track
func (c *CD) Pause(pause bool) {
	c.player.pause(ownerCD, pause)
}

// Stop ends the current track
func (c *CD) Stop() {
	c.player.stop(ownerCD)
}

// Play starts track
func (c *CD) Play(track int, looped bool) error {
	if track <= 0 {
		return fmt.Errorf("invalid cd track %d", track)
	}

	c.mu.Lock()
	volume := c.volume
	c.mu.Unlock()

	if err := c.player.start(TrackPath(c.dir, track), looped, ownerCD, volume); err != nil {
		return err
	}

	c.mu.Lock()
	c.track = track
	c.mu.Unlock()
	return nil
}
