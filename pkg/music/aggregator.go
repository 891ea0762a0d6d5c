// ABOUTME: Music aggregator presenting one "now playing" song
// ABOUTME: Chooses a source by preference and forwards controls to the active driver
package music

import (
	"fmt"
	"log"
	"sync"
)

// Aggregator spans the Music and CD sub-interfaces of the active driver
type Aggregator struct {
	mu      sync.Mutex
	music   Music
	cd      CD
	staging *Staging
	prefs   []Source

	current *Song
	source  Source
	playing bool
	looped  bool

	// staged is set while the last started song plays from a staged file
	staged bool
}

// NewAggregator creates an aggregator. Either interface may be nil.
func NewAggregator(music Music, cd CD, staging *Staging) *Aggregator {
	if staging == nil {
		staging = NewStaging("", "")
	}
	return &Aggregator{
		music:   music,
		cd:      cd,
		staging: staging,
		prefs:   DefaultPreference,
	}
}

// SetPreference changes the order in which sources are tried
func (a *Aggregator) SetPreference(prefs []Source) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(prefs) == 0 {
		prefs = DefaultPreference
	}
	a.prefs = append([]Source(nil), prefs...)
}

// Preference returns the source order
func (a *Aggregator) Preference() []Source {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Source(nil), a.prefs...)
}

// Staging returns the temp-file stager
func (a *Aggregator) Staging() *Staging {
	return a.staging
}

// Available reports whether the active driver can play src
func (a *Aggregator) Available(src Source) bool {
	switch src {
	case SourceEmbedded, SourceFile:
		return a.music != nil
	case SourceCD:
		return a.cd != nil
	default:
		return false
	}
}

// Start stops whatever is playing and starts song from the first source,
// in preference order, that both the song and the driver provide.
func (a *Aggregator) Start(song *Song, looped bool) error {
	if song == nil {
		return ErrNoSource
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopLocked()
	rotate := a.staged

	var lastErr error
	for _, src := range a.prefs {
		if !song.Has(src) || !a.Available(src) {
			continue
		}

		staged, err := a.startSource(song, src, looped, rotate)
		if err != nil {
			log.Printf("Music: %s source for %q failed: %v", src, song.Name, err)
			lastErr = err
			continue
		}

		a.current = song
		a.source = src
		a.staged = staged
		a.playing = true
		a.looped = looped
		log.Printf("Music: playing %q from %s source (looped=%v)", song.Name, src, looped)
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("failed to start %q: %w", song.Name, lastErr)
	}
	return fmt.Errorf("%w: %q", ErrNoSource, song.Name)
}

// startSource reports whether the song now plays from a staged file. With
// rotate set the staged name is rotated first, since the driver may still
// be streaming the previous one.
func (a *Aggregator) startSource(song *Song, src Source, looped, rotate bool) (bool, error) {
	switch src {
	case SourceEmbedded:
		if buf := a.music.SongBuffer(len(song.Lump)); buf != nil {
			copy(buf, song.Lump)
			return false, a.music.Play(looped)
		}
		write := a.staging.Write
		if rotate {
			write = a.staging.WriteNext
		}
		path, err := write(song.Lump)
		if err != nil {
			return false, err
		}
		return true, a.music.PlayFile(path, looped)
	case SourceFile:
		return false, a.music.PlayFile(song.Path, looped)
	case SourceCD:
		return false, a.cd.Play(song.CDTrack, looped)
	default:
		return false, fmt.Errorf("%w: %s", ErrNoSource, src)
	}
}

// Stop halts every source
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopLocked()
}

func (a *Aggregator) stopLocked() {
	if a.music != nil {
		a.music.Stop()
	}
	if a.cd != nil {
		a.cd.Stop()
	}
	a.current = nil
	a.playing = false
}

// Pause pauses or resumes the active source
func (a *Aggregator) Pause(pause bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.playing {
		return
	}
	if a.source == SourceCD {
		a.cd.Pause(pause)
		return
	}
	a.music.Pause(pause)
}

// Set forwards a property to both sub-interfaces so the volume survives a
// change of source
func (a *Aggregator) Set(prop Property, value float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.music != nil {
		a.music.Set(prop, value)
	}
	if a.cd != nil {
		a.cd.Set(prop, value)
	}
}

// Get queries the active source. With nothing playing only
// PropertyPlaying is answered.
func (a *Aggregator) Get(prop Property) (int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.playing {
		if prop == PropertyPlaying {
			return 0, true
		}
		return 0, false
	}
	if a.source == SourceCD {
		return a.cd.Get(prop)
	}
	return a.music.Get(prop)
}

// Identify returns the id string of the active source, or "" when nothing
// plays or the source only reports numeric ids
func (a *Aggregator) Identify() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.playing {
		return ""
	}
	var src any = a.music
	if a.source == SourceCD {
		src = a.cd
	}
	if id, ok := src.(Identifier); ok {
		return id.Identify()
	}
	return ""
}

// Update gives both sub-interfaces their periodic tick
func (a *Aggregator) Update() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.music != nil {
		a.music.Update()
	}
	if a.cd != nil {
		a.cd.Update()
	}
}

// Current returns the song started last and its source
func (a *Aggregator) Current() (*Song, Source, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current, a.source, a.playing
}

// Shutdown stops playback and removes staged files
func (a *Aggregator) Shutdown() {
	a.Stop()
	a.staging.Cleanup()
}
