// ABOUTME: Real-time software mixer implementing the SFX sub-interface
// ABOUTME: Loads samples through a synthesized WAV container and mixes voices into an output
package mixer

import (
	"bytes"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
	"github.com/Resonate-Protocol/audiodriver/pkg/audio/decode"
	"github.com/Resonate-Protocol/audiodriver/pkg/audio/encode"
	"github.com/Resonate-Protocol/audiodriver/pkg/audio/output"
	"github.com/Resonate-Protocol/audiodriver/pkg/audio/resample"
	"github.com/Resonate-Protocol/audiodriver/pkg/sfx"
)

const (
	// DefaultScratchSize holds a few seconds of 11 kHz 16-bit audio
	DefaultScratchSize = 64 * 1024

	// streamRing is how much audio a stream voice buffers ahead
	streamRing = 250 * time.Millisecond
)

// Mixer renders every playing voice into one output device
type Mixer struct {
	mu       sync.Mutex
	out      output.Output
	format   audio.Format
	opened   bool
	voices   map[*voice]struct{}
	active   map[*voice]struct{}
	listener sfx.ListenerState
	bus      []float32
	frames   uint64

	loadMu  sync.Mutex
	encoder *encode.WAV
	loads   int
}

var _ sfx.Backend = (*Mixer)(nil)

// New creates a mixer for out. The output always runs at 16 bits.
func New(out output.Output, format audio.Format) *Mixer {
	if format.SampleRate <= 0 {
		format.SampleRate = 44100
	}
	if format.Channels <= 0 {
		format.Channels = 2
	}
	format.BitDepth = 16

	return &Mixer{
		out:      out,
		format:   format,
		voices:   make(map[*voice]struct{}),
		active:   make(map[*voice]struct{}),
		listener: sfx.DefaultListener(),
		encoder:  encode.NewWAV(DefaultScratchSize),
	}
}

// Init opens the output device with the mixer as its source
func (m *Mixer) Init() error {
	m.mu.Lock()
	if m.opened {
		m.mu.Unlock()
		return nil
	}
	format := m.format
	m.mu.Unlock()

	if err := m.out.Open(format, m); err != nil {
		return fmt.Errorf("failed to open output: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = true
	if actual := m.out.Format(); actual.SampleRate > 0 {
		m.format = actual
	}
	log.Printf("Mixer running at %dHz, %d channels", m.format.SampleRate, m.format.Channels)
	return nil
}

func (m *Mixer) close() {
	m.mu.Lock()
	opened := m.opened
	m.opened = false
	m.mu.Unlock()

	if opened {
		if err := m.out.Close(); err != nil {
			log.Printf("Failed to close mixer output: %v", err)
		}
	}
}

// Info reports that the mixer wants a refresh loop and resamples any rate
func (m *Mixer) Info(id sfx.InfoID) (int, bool) {
	switch id {
	case sfx.InfoDisableChannelRefresh:
		return 0, true
	case sfx.InfoAnySampleRateAccepted:
		return 1, true
	default:
		return 0, false
	}
}

func voiceOf(b *sfx.Buffer) *voice {
	v, _ := b.Ext().(*voice)
	return v
}

// Create attaches a voice to b
func (m *Mixer) Create(b *sfx.Buffer) error {
	v := newVoice(b)
	b.SetExt(v)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.voices[v] = struct{}{}
	return nil
}

// Destroy detaches the voice of b
func (m *Mixer) Destroy(b *sfx.Buffer) {
	v := voiceOf(b)
	if v == nil {
		return
	}

	m.mu.Lock()
	delete(m.active, v)
	delete(m.voices, v)
	m.mu.Unlock()

	b.SetExt(nil)
}

// Load prepares the voice for s. Plain samples are wrapped in a WAV
// container and run through the container loader; stream samples get a ring.
func (m *Mixer) Load(b *sfx.Buffer, s *sfx.Sample) error {
	v := voiceOf(b)
	if v == nil {
		return fmt.Errorf("buffer %d has no voice", b.Index())
	}

	if b.Has(sfx.FlagStream) {
		return m.loadStream(v, s)
	}

	clip, err := m.nativeLoad(s)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v.clip = clip.Samples
	v.stream = nil
	v.rate = s.Rate
	v.res = resample.New(v.inputRate(), m.format.SampleRate)
	v.update(&m.listener)
	return nil
}

// nativeLoad synthesizes the container in the scratch buffer and decodes it
func (m *Mixer) nativeLoad(s *sfx.Sample) (*decode.Clip, error) {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	img, err := m.encoder.Encode(s.Format(), s.PCM())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sfx.ErrUnsupportedFormat, err)
	}

	clip, err := decode.WAV(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("container loader rejected sample %d: %w", s.ID, err)
	}
	if clip.Format != s.Format() {
		return nil, fmt.Errorf("%w: container format %+v, sample %+v",
			sfx.ErrUnsupportedFormat, clip.Format, s.Format())
	}

	m.loads++
	return clip, nil
}

func (m *Mixer) loadStream(v *voice, s *sfx.Sample) error {
	dec, err := decode.NewPCM(s.Format())
	if err != nil {
		return fmt.Errorf("%w: %v", sfx.ErrUnsupportedFormat, err)
	}

	size := int(streamRing.Seconds()*float64(s.Rate)) * s.BytesPer
	if size < 1024 {
		size = 1024 - 1024%s.BytesPer
	}
	st := &streamState{
		ring:     audio.NewRing(size),
		sample:   s,
		decoder:  dec,
		bytesPer: s.BytesPer,
		raw:      make([]byte, size),
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v.clip = nil
	v.stream = st
	v.rate = s.Rate
	v.res = resample.New(v.inputRate(), m.format.SampleRate)
	v.update(&m.listener)
	v.buf.UpdateRing(size, 0, 0)
	return nil
}

// Release drops the loaded data; no stream callback runs after it returns
func (m *Mixer) Release(b *sfx.Buffer) {
	v := voiceOf(b)
	if v == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.active, v)
	v.playing = false
	v.finished = false
	v.clip = nil
	v.stream = nil
	v.res = nil
}

// Play starts the voice from the beginning
func (m *Mixer) Play(b *sfx.Buffer) error {
	v := voiceOf(b)
	if v == nil {
		return fmt.Errorf("buffer %d has no voice", b.Index())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if v.res == nil {
		return fmt.Errorf("buffer %d has nothing loaded", b.Index())
	}
	v.res.Reset()
	if v.stream != nil {
		v.stream.reset()
	}
	v.playing = true
	v.finished = false
	m.active[v] = struct{}{}
	return nil
}

// Stop removes the voice from the mix
func (m *Mixer) Stop(b *sfx.Buffer) {
	v := voiceOf(b)
	if v == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	v.playing = false
	delete(m.active, v)
}

// Status reports whether the voice ran off the end of its data
func (m *Mixer) Status(b *sfx.Buffer) sfx.Status {
	v := voiceOf(b)
	if v == nil {
		return sfx.StatusUnknown
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case v.finished:
		return sfx.StatusFinished
	case v.playing:
		return sfx.StatusPlaying
	default:
		return sfx.StatusUnknown
	}
}

// Set applies a scalar property to the voice
func (m *Mixer) Set(b *sfx.Buffer, prop sfx.Property, value float32) {
	v := voiceOf(b)
	if v == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch prop {
	case sfx.BufferVolume:
		v.volume = audio.VolumeGain(value)
	case sfx.BufferPan:
		v.pan = value
	case sfx.BufferFrequency:
		v.freqScale = value
	case sfx.BufferMinDistance:
		v.minDist = value
	case sfx.BufferMaxDistance:
		v.maxDist = value
	case sfx.BufferRelativeMode:
		v.relative = value != 0
	default:
		return
	}
	v.update(&m.listener)
}

// Setv applies position or velocity to the voice
func (m *Mixer) Setv(b *sfx.Buffer, prop sfx.Property, values []float32) {
	v := voiceOf(b)
	if v == nil || len(values) < 3 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch prop {
	case sfx.BufferPosition:
		copy(v.position[:], values)
	case sfx.BufferVelocity:
		copy(v.velocity[:], values)
	default:
		return
	}
	v.update(&m.listener)
}

// CommitListener respatializes every voice. A new primary rate reopens the
// output device.
func (m *Mixer) CommitListener(state sfx.ListenerState, changed sfx.ListenerMask) {
	m.mu.Lock()
	m.listener = state
	for v := range m.voices {
		v.update(&m.listener)
	}
	reopen := changed.Has(sfx.ListenerPrimaryFormat) && m.opened &&
		state.PrimaryRate > 0 && state.PrimaryRate != m.format.SampleRate
	m.mu.Unlock()

	if reopen {
		m.reopen(state.PrimaryRate)
	}
}

func (m *Mixer) reopen(rate int) {
	m.mu.Lock()
	format := m.format
	format.SampleRate = rate
	m.mu.Unlock()

	if err := m.out.Close(); err != nil {
		log.Printf("Failed to close mixer output: %v", err)
	}
	if err := m.out.Open(format, m); err != nil {
		log.Printf("Failed to reopen mixer output at %dHz: %v", rate, err)
		m.mu.Lock()
		m.opened = false
		m.mu.Unlock()
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if actual := m.out.Format(); actual.SampleRate > 0 {
		format = actual
	}
	m.format = format
	for v := range m.voices {
		if v.res != nil {
			v.res.SetOutputRate(format.SampleRate)
		}
	}
	log.Printf("Mixer primary format now %dHz", format.SampleRate)
}

// Read mixes the next block of signed 16-bit frames into p. It never
// returns an error, so the device keeps pulling silence between sounds.
func (m *Mixer) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := m.format.Channels
	frames := len(p) / (2 * ch)
	if frames == 0 {
		clear(p)
		return len(p), nil
	}

	n := frames * ch
	if cap(m.bus) < n {
		m.bus = make([]float32, n)
	}
	bus := m.bus[:n]
	clear(bus)

	for v := range m.active {
		m.mixVoice(v, bus, frames, ch)
	}

	m.frames += uint64(frames)
	return encode.PutPCM16(p, bus), nil
}

func (m *Mixer) mixVoice(v *voice, bus []float32, frames, ch int) {
	src := v.clip
	if v.stream != nil {
		src = v.stream.fill(v, frames)
	}

	for i := 0; i < frames; i++ {
		s, ok := v.res.Next(src)
		if !ok && v.repeat && v.stream == nil && len(src) > 0 {
			v.res.Wrap(len(src))
			s, ok = v.res.Next(src)
		}
		if !ok {
			// streams underrun instead of ending
			if v.stream == nil {
				v.playing = false
				v.finished = true
				delete(m.active, v)
			}
			break
		}

		if ch == 1 {
			bus[i] += s * v.mono
			continue
		}
		bus[i*ch] += s * v.left
		bus[i*ch+1] += s * v.right
	}

	if v.stream != nil {
		v.stream.consume(v)
	}
}

// Format returns the device format
func (m *Mixer) Format() audio.Format {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.format
}

// Voices returns the number of voices in the mix
func (m *Mixer) Voices() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

// Frames returns the number of frames mixed so far
func (m *Mixer) Frames() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

// Loads returns how many containers the native loader accepted
func (m *Mixer) Loads() int {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()
	return m.loads
}
