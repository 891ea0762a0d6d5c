// ABOUTME: Headless SFX sub-interface
// ABOUTME: Tracks channels so playback side effects match a real device
package headless

import (
	"sync"

	"github.com/Resonate-Protocol/audiodriver/pkg/sfx"
)

// channel is the per-buffer state of the headless backend
type channel struct {
	loaded   bool
	playing  bool
	volume   float32
	pan      float32
	freq     float32
	position [3]float32
}

// SFX is a sound-effect backend without a device. It cannot observe
// playback, so end-of-sample detection is left to the engine's refresh.
type SFX struct {
	mu       sync.Mutex
	loads    int
	releases int
	listener sfx.ListenerState
	commits  int
}

var _ sfx.Backend = (*SFX)(nil)

func newSFX() *SFX {
	return &SFX{listener: sfx.DefaultListener()}
}

func chanOf(b *sfx.Buffer) *channel {
	ch, _ := b.Ext().(*channel)
	if ch == nil {
		ch = &channel{volume: 1, freq: 1}
		b.SetExt(ch)
	}
	return ch
}

// Init does nothing
func (s *SFX) Init() error { return nil }

// Info reports inline refresh and any sample rate
func (s *SFX) Info(id sfx.InfoID) (int, bool) {
	switch id {
	case sfx.InfoDisableChannelRefresh, sfx.InfoAnySampleRateAccepted:
		return 1, true
	default:
		return 0, false
	}
}

// Create attaches channel state
func (s *SFX) Create(b *sfx.Buffer) error {
	b.SetExt(&channel{volume: 1, freq: 1})
	return nil
}

// Destroy drops channel state
func (s *SFX) Destroy(b *sfx.Buffer) {
	b.SetExt(nil)
}

// Load marks the channel loaded
func (s *SFX) Load(b *sfx.Buffer, smp *sfx.Sample) error {
	chanOf(b).loaded = true

	s.mu.Lock()
	s.loads++
	s.mu.Unlock()
	return nil
}

// Release marks the channel unloaded
func (s *SFX) Release(b *sfx.Buffer) {
	ch := chanOf(b)
	ch.loaded = false
	ch.playing = false

	s.mu.Lock()
	s.releases++
	s.mu.Unlock()
}

// Play marks the channel playing
func (s *SFX) Play(b *sfx.Buffer) error {
	chanOf(b).playing = true
	return nil
}

// Stop marks the channel stopped
func (s *SFX) Stop(b *sfx.Buffer) {
	chanOf(b).playing = false
}

// Status is always unknown
func (s *SFX) Status(b *sfx.Buffer) sfx.Status {
	return sfx.StatusUnknown
}

// Set records scalar properties
func (s *SFX) Set(b *sfx.Buffer, prop sfx.Property, value float32) {
	ch := chanOf(b)
	switch prop {
	case sfx.BufferVolume:
		ch.volume = value
	case sfx.BufferPan:
		ch.pan = value
	case sfx.BufferFrequency:
		ch.freq = value
	}
}

// Setv records the position
func (s *SFX) Setv(b *sfx.Buffer, prop sfx.Property, values []float32) {
	if prop == sfx.BufferPosition && len(values) >= 3 {
		copy(chanOf(b).position[:], values)
	}
}

// CommitListener stores the snapshot
func (s *SFX) CommitListener(state sfx.ListenerState, changed sfx.ListenerMask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = state
	s.commits++
}

// Listener returns the last committed listener snapshot
func (s *SFX) Listener() sfx.ListenerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listener
}

// Counts returns native loads, releases and listener commits
func (s *SFX) Counts() (loads, releases, commits int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads, s.releases, s.commits
}
