// ABOUTME: SFX sub-interface adapter for dynamic drivers
// ABOUTME: Translates sfx.Backend calls to DS_SFX_* exports and dispatches stream callbacks
package dynlib

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"unsafe"

	"github.com/Resonate-Protocol/audiodriver/pkg/sfx"
)

const (
	sfxGate   = "DS_SFX_Init"
	musicGate = "DM_Music_Init"
	cdGate    = "DM_CDAudio_Init"
)

// streamTarget is what a driver-side stream callback refills
type streamTarget struct {
	buffer *sfx.Buffer
	sample *sfx.Sample
}

// One trampoline serves every stream buffer; purego callbacks are never freed.
var (
	streamsMu      sync.RWMutex
	streams        = map[uintptr]streamTarget{}
	trampolineOnce sync.Once
	trampoline     uintptr
)

// streamTrampoline is the C stream callback: int (*)(sfxbuffer_t*, void*, unsigned int)
func streamTrampoline(handle, data, size uintptr) uintptr {
	streamsMu.RLock()
	defer streamsMu.RUnlock()

	target, ok := streams[handle]
	if !ok || data == 0 || size == 0 {
		return 0
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(data)), int(size))
	return uintptr(target.sample.Fill(target.buffer, dst))
}

func streamCallback() uintptr {
	trampolineOnce.Do(func() {
		trampoline = newCallback(streamTrampoline)
	})
	return trampoline
}

// unregisterStream returns once no callback for handle is running
func unregisterStream(handle uintptr) {
	streamsMu.Lock()
	defer streamsMu.Unlock()
	delete(streams, handle)
}

// nativeBuffer is the per-buffer state of the adapter
type nativeBuffer struct {
	handle uintptr
	sample *cSample
	pinner runtime.Pinner
}

func (nb *nativeBuffer) unpin() {
	nb.pinner.Unpin()
	nb.sample = nil
}

// SFX adapts DS_SFX_* exports to sfx.Backend
type SFX struct {
	mu sync.Mutex

	sfxInit      func() int32
	createBuffer func(int32, int32, int32) uintptr
	destroyBuf   func(uintptr)
	load         func(uintptr, unsafe.Pointer)
	reset        func(uintptr)
	play         func(uintptr)
	stop         func(uintptr)
	refresh      func(uintptr)
	set          func(uintptr, int32, float32)
	setv         func(uintptr, int32, unsafe.Pointer)
	listener     func(int32, float32)
	listenerv    func(int32, unsafe.Pointer)
	getv         func(int32, unsafe.Pointer) int32

	handles map[uintptr]struct{}
}

var _ sfx.Backend = (*SFX)(nil)

func newSFX() *SFX {
	return &SFX{handles: make(map[uintptr]struct{})}
}

func (s *SFX) bindings() []binding {
	return []binding{
		{sfxGate, &s.sfxInit},
		{"DS_SFX_CreateBuffer", &s.createBuffer},
		{"DS_SFX_DestroyBuffer", &s.destroyBuf},
		{"DS_SFX_Load", &s.load},
		{"DS_SFX_Reset", &s.reset},
		{"DS_SFX_Play", &s.play},
		{"DS_SFX_Stop", &s.stop},
		{"DS_SFX_Refresh", &s.refresh},
		{"DS_SFX_Set", &s.set},
		{"DS_SFX_Setv", &s.setv},
		{"DS_SFX_Listener", &s.listener},
		{"DS_SFX_Listenerv", &s.listenerv},
		{"DS_SFX_Getv", &s.getv},
	}
}

// detach drops the stream registrations of every buffer this adapter created
func (s *SFX) detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for h := range s.handles {
		unregisterStream(h)
	}
	s.handles = make(map[uintptr]struct{})
}

// Init calls DS_SFX_Init
func (s *SFX) Init() (err error) {
	defer recoverInto(&err, sfxGate)
	if s.sfxInit() == 0 {
		return fmt.Errorf("%s reported failure", sfxGate)
	}
	return nil
}

// Info calls DS_SFX_Getv
func (s *SFX) Info(id sfx.InfoID) (value int, ok bool) {
	defer recoverLog("DS_SFX_Getv")
	var v int32
	ok = s.getv(int32(id), unsafe.Pointer(&v)) != 0
	return int(v), ok
}

func native(b *sfx.Buffer) *nativeBuffer {
	nb, _ := b.Ext().(*nativeBuffer)
	return nb
}

// Create calls DS_SFX_CreateBuffer
func (s *SFX) Create(b *sfx.Buffer) (err error) {
	defer recoverInto(&err, "DS_SFX_CreateBuffer")
	h := s.createBuffer(int32(b.Flags()), int32(b.BytesPer()*8), int32(b.Rate()))
	if h == 0 {
		return fmt.Errorf("DS_SFX_CreateBuffer returned no buffer")
	}

	s.mu.Lock()
	s.handles[h] = struct{}{}
	s.mu.Unlock()

	b.SetExt(&nativeBuffer{handle: h})
	return nil
}

// Destroy calls DS_SFX_DestroyBuffer
func (s *SFX) Destroy(b *sfx.Buffer) {
	nb := native(b)
	if nb == nil {
		return
	}

	unregisterStream(nb.handle)
	defer func() {
		nb.unpin()
		s.mu.Lock()
		delete(s.handles, nb.handle)
		s.mu.Unlock()
	}()
	defer recoverLog("DS_SFX_DestroyBuffer")
	s.destroyBuf(nb.handle)
}

// Load hands a pinned sfxsample_t to DS_SFX_Load. Stream samples carry the
// shared trampoline in place of PCM data.
func (s *SFX) Load(b *sfx.Buffer, smp *sfx.Sample) (err error) {
	nb := native(b)
	if nb == nil {
		return fmt.Errorf("buffer %d has no native handle", b.Index())
	}

	var cs *cSample
	if b.Has(sfx.FlagStream) {
		cb := streamCallback()
		if cb == 0 {
			return fmt.Errorf("stream callbacks are not supported on this platform")
		}
		cs = newCSample(smp, cb, 0)

		streamsMu.Lock()
		streams[nb.handle] = streamTarget{buffer: b, sample: smp}
		streamsMu.Unlock()
	} else {
		pcm := smp.PCM()
		if len(pcm) == 0 {
			return fmt.Errorf("sample %d has no data", smp.ID)
		}
		nb.pinner.Pin(&pcm[0])
		cs = newCSample(smp, uintptr(unsafe.Pointer(&pcm[0])), len(pcm))
	}

	nb.pinner.Pin(cs)
	nb.sample = cs

	defer recoverInto(&err, "DS_SFX_Load")
	s.load(nb.handle, unsafe.Pointer(cs))
	return nil
}

// Release calls DS_SFX_Reset and unpins the sample
func (s *SFX) Release(b *sfx.Buffer) {
	nb := native(b)
	if nb == nil {
		return
	}
	unregisterStream(nb.handle)
	defer nb.unpin()
	defer recoverLog("DS_SFX_Reset")
	s.reset(nb.handle)
}

// Play calls DS_SFX_Play
func (s *SFX) Play(b *sfx.Buffer) (err error) {
	nb := native(b)
	if nb == nil {
		return fmt.Errorf("buffer %d has no native handle", b.Index())
	}
	defer recoverInto(&err, "DS_SFX_Play")
	s.play(nb.handle)
	return nil
}

// Stop calls DS_SFX_Stop
func (s *SFX) Stop(b *sfx.Buffer) {
	if nb := native(b); nb != nil {
		defer recoverLog("DS_SFX_Stop")
		s.stop(nb.handle)
	}
}

// Status calls DS_SFX_Refresh and reads back the driver's flags. A driver
// that still reports PLAYING may never clear it, so the engine's predicted
// end time decides. A driver that panics is treated as finished.
func (s *SFX) Status(b *sfx.Buffer) (st sfx.Status) {
	nb := native(b)
	if nb == nil {
		return sfx.StatusUnknown
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Dynamic driver call DS_SFX_Refresh panicked: %v", r)
			st = sfx.StatusFinished
		}
	}()
	s.refresh(nb.handle)
	view := bufferView(nb.handle)
	b.UpdateRing(int(view.length), int(view.cursor), uint64(view.written))
	if sfx.Flag(view.flags)&sfx.FlagPlaying == 0 {
		return sfx.StatusFinished
	}
	return sfx.StatusUnknown
}

// Set calls DS_SFX_Set
func (s *SFX) Set(b *sfx.Buffer, prop sfx.Property, value float32) {
	if nb := native(b); nb != nil {
		defer recoverLog("DS_SFX_Set")
		s.set(nb.handle, int32(prop), value)
	}
}

// Setv calls DS_SFX_Setv
func (s *SFX) Setv(b *sfx.Buffer, prop sfx.Property, values []float32) {
	nb := native(b)
	if nb == nil || len(values) == 0 {
		return
	}
	defer recoverLog("DS_SFX_Setv")
	var v [4]float32
	copy(v[:], values)
	s.setv(nb.handle, int32(prop), unsafe.Pointer(&v[0]))
}

// CommitListener replays the changed properties and then DS_SFX_Listener(UPDATE)
func (s *SFX) CommitListener(state sfx.ListenerState, changed sfx.ListenerMask) {
	defer recoverLog("DS_SFX_Listener")

	vector := func(prop sfx.ListenerProperty, values ...float32) {
		var v [4]float32
		copy(v[:], values)
		s.listenerv(int32(prop), unsafe.Pointer(&v[0]))
	}

	if changed.Has(sfx.ListenerPrimaryFormat) {
		vector(sfx.ListenerPrimaryFormat, float32(state.PrimaryBits), float32(state.PrimaryRate))
	}
	if changed.Has(sfx.ListenerUnitsPerMeter) {
		s.listener(int32(sfx.ListenerUnitsPerMeter), state.UnitsPerMeter)
	}
	if changed.Has(sfx.ListenerDoppler) {
		s.listener(int32(sfx.ListenerDoppler), state.Doppler)
	}
	if changed.Has(sfx.ListenerPosition) {
		vector(sfx.ListenerPosition, state.Position[:]...)
	}
	if changed.Has(sfx.ListenerVelocity) {
		vector(sfx.ListenerVelocity, state.Velocity[:]...)
	}
	if changed.Has(sfx.ListenerOrientation) {
		vector(sfx.ListenerOrientation, state.Orientation[:]...)
	}
	if changed.Has(sfx.ListenerReverb) {
		vector(sfx.ListenerReverb, state.Reverb[:]...)
	}
	s.listener(int32(sfx.ListenerUpdate), 0)
}
