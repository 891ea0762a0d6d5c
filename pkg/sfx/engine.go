// ABOUTME: SFX buffer engine
// ABOUTME: Owns the buffer pool, drives per-buffer state and the refresh loop
package sfx

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMaxBuffers bounds the pool when Config.MaxBuffers is zero
const DefaultMaxBuffers = 256

// Config holds engine options
type Config struct {
	MaxBuffers int
	Clock      Clock
}

// Stats is a point-in-time view of the pool
type Stats struct {
	Buffers   int
	Playing   int
	NextIndex int
	Loads     uint64 // native resources built
	Finished  uint64 // buffers stopped by Refresh
}

// Engine owns a buffer pool on top of one Backend
type Engine struct {
	backend Backend
	clock   Clock
	max     int

	mu        sync.RWMutex
	buffers   []*Buffer
	nextIndex int

	listenerMu sync.Mutex
	listener   ListenerState
	staged     ListenerMask

	refreshMu       sync.Mutex
	refreshParent   context.Context
	refreshInterval time.Duration
	refreshCancel   context.CancelFunc
	refreshDone     chan struct{}

	loads    atomic.Uint64
	finished atomic.Uint64
}

// NewEngine creates an engine with an empty pool
func NewEngine(backend Backend, cfg Config) *Engine {
	if cfg.MaxBuffers <= 0 {
		cfg.MaxBuffers = DefaultMaxBuffers
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock
	}

	return &Engine{
		backend:  backend,
		clock:    cfg.Clock,
		max:      cfg.MaxBuffers,
		listener: DefaultListener(),
	}
}

// Backend returns the backend the engine drives
func (e *Engine) Backend() Backend {
	return e.backend
}

// Create adds an Empty buffer to the pool. Frequency starts at rate.
func (e *Engine) Create(flags Flag, bits, rate int) (*Buffer, error) {
	if bits != 8 && bits != 16 && bits != 24 {
		return nil, fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, bits)
	}
	if rate <= 0 {
		return nil, fmt.Errorf("%w: rate %d", ErrUnsupportedFormat, rate)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.buffers) >= e.max {
		return nil, fmt.Errorf("%w: %d buffers", ErrPoolFull, e.max)
	}

	b := newBuffer(e.nextIndex, flags, bits, rate)
	if err := e.backend.Create(b); err != nil {
		return nil, fmt.Errorf("failed to create buffer: %w", err)
	}

	e.nextIndex++
	e.buffers = append(e.buffers, b)
	return b, nil
}

// Destroy removes b from the pool. Channel indices restart from zero once
// the pool is empty.
func (e *Engine) Destroy(b *Buffer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, live := range e.buffers {
		if live == b {
			e.destroyLocked(b)
			e.buffers = append(e.buffers[:i], e.buffers[i+1:]...)
			break
		}
	}
	if len(e.buffers) == 0 {
		e.nextIndex = 0
	}
}

// DestroyAll stops the refresh loop, destroys every buffer and resets the
// index counter. A running refresh loop is resumed afterwards.
func (e *Engine) DestroyAll() {
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	resume := e.stopRefreshLocked()

	e.mu.Lock()
	for _, b := range e.buffers {
		e.destroyLocked(b)
	}
	e.buffers = nil
	e.nextIndex = 0
	e.mu.Unlock()

	if resume && e.refreshParent.Err() == nil {
		e.startRefreshLocked()
	}
}

func (e *Engine) destroyLocked(b *Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dead {
		return
	}
	e.resetLocked(b)
	e.backend.Destroy(b)
	b.ext = nil
	b.dead = true
}

// Load binds s to b and builds the backend's native resource for it.
// Loading the sample that is already bound does nothing. On failure the
// buffer keeps its previous sample binding.
func (e *Engine) Load(b *Buffer, s *Sample) error {
	if s == nil {
		return ErrNoSample
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dead {
		return ErrDestroyed
	}
	if b.sample != nil && b.sample.ID == s.ID {
		return nil
	}
	if err := e.checkSample(b, s); err != nil {
		return err
	}

	if b.Has(FlagPlaying) {
		e.stopLocked(b)
	}
	if b.native {
		e.backend.Release(b)
		b.native = false
	}

	if err := e.backend.Load(b, s); err != nil {
		if b.sample != nil {
			b.set(FlagReload)
		}
		return fmt.Errorf("failed to load sample %d: %w", s.ID, err)
	}

	b.sample = s
	b.native = true
	b.clear(FlagReload)
	b.endTime = time.Time{}
	e.loads.Add(1)
	return nil
}

func (e *Engine) checkSample(b *Buffer, s *Sample) error {
	if s.BytesPer != b.bytesPer {
		return fmt.Errorf("%w: sample %d has %d bytes per sample, buffer %d",
			ErrUnsupportedFormat, s.ID, s.BytesPer, b.bytesPer)
	}
	if b.Has(FlagStream) && s.Stream == nil {
		return fmt.Errorf("%w: stream buffer needs a stream callback", ErrUnsupportedFormat)
	}
	if s.Rate != b.rate {
		if v, ok := e.backend.Info(InfoAnySampleRateAccepted); !ok || v == 0 {
			return fmt.Errorf("%w: sample %d at %d Hz, buffer %d Hz",
				ErrUnsupportedFormat, s.ID, s.Rate, b.rate)
		}
	}
	return nil
}

// Play starts b from the beginning. Without a bound sample it does nothing.
// A released native resource is rebuilt first.
func (e *Engine) Play(b *Buffer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dead {
		return ErrDestroyed
	}
	if b.sample == nil {
		return nil
	}

	if !b.native {
		if err := e.backend.Load(b, b.sample); err != nil {
			return fmt.Errorf("failed to reload sample %d: %w", b.sample.ID, err)
		}
		b.native = true
		e.loads.Add(1)
	}
	b.clear(FlagReload)

	e.applyLocked(b)
	if err := e.backend.Play(b); err != nil {
		return fmt.Errorf("failed to play buffer %d: %w", b.index, err)
	}

	b.set(FlagPlaying)
	b.endTime = time.Time{}
	if !b.Has(FlagRepeat) && !b.Has(FlagStream) {
		b.endTime = e.clock.Now().Add(b.sample.Duration(b.frequencyLocked()))
	}
	return nil
}

// applyLocked pushes the cached properties to the native resource
func (e *Engine) applyLocked(b *Buffer) {
	e.backend.Set(b, BufferVolume, b.volume)
	e.backend.Set(b, BufferFrequency, b.freqScale)

	if !b.Has(Flag3D) {
		e.backend.Set(b, BufferPan, b.pan)
		return
	}

	pos, vel := b.position, b.velocity
	e.backend.Set(b, BufferMinDistance, b.minDist)
	e.backend.Set(b, BufferMaxDistance, b.maxDist)
	e.backend.Setv(b, BufferPosition, pos[:])
	e.backend.Setv(b, BufferVelocity, vel[:])
	relative := float32(0)
	if b.relative {
		relative = 1
	}
	e.backend.Set(b, BufferRelativeMode, relative)
}

// Stop halts b from any state. PLAYING is cleared and RELOAD set, so the
// next Play rebuilds the native resource.
func (e *Engine) Stop(b *Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dead {
		return
	}
	e.stopLocked(b)
}

func (e *Engine) stopLocked(b *Buffer) {
	if b.native {
		e.backend.Stop(b)
		e.backend.Release(b)
		b.native = false
	}
	b.clear(FlagPlaying)
	b.set(FlagReload)
	b.endTime = time.Time{}
}

// Refresh checks whether a playing buffer has finished and stops it if so.
// It returns true only for the call that performed the stop.
func (e *Engine) Refresh(b *Buffer) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dead || !b.Has(FlagPlaying) {
		return false
	}

	switch e.backend.Status(b) {
	case StatusPlaying:
		return false
	case StatusUnknown:
		if b.endTime.IsZero() || e.clock.Now().Before(b.endTime) {
			return false
		}
	}

	e.stopLocked(b)
	e.finished.Add(1)
	return true
}

// Reset returns b to Empty from any state
func (e *Engine) Reset(b *Buffer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dead {
		return
	}
	e.resetLocked(b)
}

func (e *Engine) resetLocked(b *Buffer) {
	if b.Has(FlagPlaying) {
		e.stopLocked(b)
	}
	if b.native {
		e.backend.Release(b)
		b.native = false
	}
	b.sample = nil
	b.clear(FlagPlaying | FlagReload)
	b.endTime = time.Time{}
}

// Set changes a scalar buffer property. Unsupported properties are ignored.
func (e *Engine) Set(b *Buffer, prop Property, value float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dead {
		return
	}
	e.setLocked(b, prop, value)
}

func (e *Engine) setLocked(b *Buffer, prop Property, value float32) {
	switch prop {
	case BufferVolume:
		b.volume = value
	case BufferFrequency:
		if value <= 0 {
			return
		}
		b.freqScale = value
	case BufferPan:
		if b.Has(Flag3D) {
			return
		}
		b.pan = clampPan(value)
		value = b.pan
	case BufferMinDistance:
		b.minDist = value
	case BufferMaxDistance:
		b.maxDist = value
	case BufferRelativeMode:
		b.relative = value != 0
	default:
		return
	}

	if b.native {
		e.backend.Set(b, prop, value)
	}
}

// Setv changes a vector buffer property. Scalar properties take values[0].
func (e *Engine) Setv(b *Buffer, prop Property, values []float32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.dead || len(values) == 0 {
		return
	}

	var dst *[3]float32
	switch prop {
	case BufferPosition:
		dst = &b.position
	case BufferVelocity:
		dst = &b.velocity
	default:
		e.setLocked(b, prop, values[0])
		return
	}
	if len(values) < 3 {
		return
	}

	copy(dst[:], values)
	if b.native {
		v := *dst
		e.backend.Setv(b, prop, v[:])
	}
}

func clampPan(pan float32) float32 {
	if pan < -1 {
		return -1
	}
	if pan > 1 {
		return 1
	}
	return pan
}

// Listener stages a scalar listener property, or commits on ListenerUpdate
func (e *Engine) Listener(prop ListenerProperty, value float32) {
	e.Listenerv(prop, []float32{value})
}

// Listenerv stages a vector listener property, or commits on ListenerUpdate.
// Nothing reaches the backend until the commit.
func (e *Engine) Listenerv(prop ListenerProperty, values []float32) {
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()

	if prop == ListenerUpdate {
		if e.staged == 0 {
			return
		}
		changed := e.staged
		e.staged = 0
		e.backend.CommitListener(e.listener, changed)
		return
	}

	if e.listener.stage(prop, values) {
		e.staged.add(prop)
	}
}

// ListenerState returns the staged listener snapshot
func (e *Engine) ListenerState() ListenerState {
	e.listenerMu.Lock()
	defer e.listenerMu.Unlock()
	return e.listener
}

// Getv answers a capability query
func (e *Engine) Getv(id InfoID) (int, bool) {
	return e.backend.Info(id)
}

// RefreshDisabled reports whether the backend wants refresh driven inline
// through Tick rather than by a background loop
func (e *Engine) RefreshDisabled() bool {
	v, ok := e.backend.Info(InfoDisableChannelRefresh)
	return ok && v != 0
}

// Buffers returns a snapshot of the live pool
func (e *Engine) Buffers() []*Buffer {
	e.mu.RLock()
	defer e.mu.RUnlock()

	live := make([]*Buffer, len(e.buffers))
	copy(live, e.buffers)
	return live
}

// Tick refreshes every playing buffer once and returns how many finished
func (e *Engine) Tick() int {
	finished := 0
	for _, b := range e.Buffers() {
		if !b.Has(FlagPlaying) {
			continue
		}
		if e.Refresh(b) {
			finished++
		}
	}
	return finished
}

// StartRefresh runs Tick every interval on a background goroutine until ctx
// ends or StopRefresh is called. It returns false when the backend asks for
// inline refresh instead.
func (e *Engine) StartRefresh(ctx context.Context, interval time.Duration) bool {
	if e.RefreshDisabled() {
		log.Printf("SFX backend refreshes inline, no refresh goroutine started")
		return false
	}

	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	if e.refreshCancel != nil {
		return true
	}
	if interval <= 0 {
		interval = 20 * time.Millisecond
	}
	e.refreshParent = ctx
	e.refreshInterval = interval
	e.startRefreshLocked()
	return true
}

func (e *Engine) startRefreshLocked() {
	ctx, cancel := context.WithCancel(e.refreshParent)
	done := make(chan struct{})
	e.refreshCancel = cancel
	e.refreshDone = done
	go e.refreshLoop(ctx, e.refreshInterval, done)
}

func (e *Engine) refreshLoop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// StopRefresh stops the background loop and waits for it to exit
func (e *Engine) StopRefresh() {
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()

	e.stopRefreshLocked()
	e.refreshParent = nil
}

// stopRefreshLocked reports whether a loop was running
func (e *Engine) stopRefreshLocked() bool {
	if e.refreshCancel == nil {
		return false
	}
	e.refreshCancel()
	<-e.refreshDone
	e.refreshCancel = nil
	e.refreshDone = nil
	return true
}

// Refreshing reports whether the background loop is running
func (e *Engine) Refreshing() bool {
	e.refreshMu.Lock()
	defer e.refreshMu.Unlock()
	return e.refreshCancel != nil
}

// Shutdown stops the refresh loop and destroys the pool
func (e *Engine) Shutdown() {
	e.StopRefresh()
	e.DestroyAll()
}

// Stats returns pool statistics
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := Stats{
		Buffers:   len(e.buffers),
		NextIndex: e.nextIndex,
		Loads:     e.loads.Load(),
		Finished:  e.finished.Load(),
	}
	for _, b := range e.buffers {
		if b.Has(FlagPlaying) {
			stats.Playing++
		}
	}
	return stats
}
