// ABOUTME: Tests for the SFX buffer engine
// ABOUTME: Covers the buffer state machine, pool indices, properties and refresh
package sfx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCreateDefaults(t *testing.T) {
	backend := &fakeBackend{}
	engine, _ := newTestEngine(backend, 0)

	b, err := engine.Create(FlagRepeat|FlagPlaying, 16, 22050)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if b.State() != StateEmpty {
		t.Errorf("expected empty, got %v", b.State())
	}
	if b.Frequency() != 22050 {
		t.Errorf("expected frequency 22050, got %d", b.Frequency())
	}
	if b.Has(FlagPlaying) {
		t.Error("PLAYING must not be settable through Create")
	}
	if !b.Has(FlagRepeat) {
		t.Error("expected REPEAT to be kept")
	}
	if b.BytesPer() != 2 || b.Rate() != 22050 {
		t.Errorf("unexpected format %d bytes @ %d", b.BytesPer(), b.Rate())
	}
	if b.Ext() != 1 {
		t.Errorf("expected backend ext to be set, got %v", b.Ext())
	}
}

func TestCreateRejectsFormat(t *testing.T) {
	engine, _ := newTestEngine(&fakeBackend{}, 0)

	tests := []struct {
		name string
		bits int
		rate int
	}{
		{"12-bit", 12, 11025},
		{"zero rate", 16, 0},
		{"negative rate", 8, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.Create(0, tt.bits, tt.rate)
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("expected ErrUnsupportedFormat, got %v", err)
			}
		})
	}
}

func TestPoolBound(t *testing.T) {
	engine, _ := newTestEngine(&fakeBackend{}, 2)

	for i := 0; i < 2; i++ {
		if _, err := engine.Create(0, 16, 11025); err != nil {
			t.Fatalf("create %d failed: %v", i, err)
		}
	}
	if _, err := engine.Create(0, 16, 11025); !errors.Is(err, ErrPoolFull) {
		t.Errorf("expected ErrPoolFull, got %v", err)
	}
}

func TestIndicesResetAfterBatchDestroy(t *testing.T) {
	backend := &fakeBackend{}
	engine, _ := newTestEngine(backend, 0)

	a, _ := engine.Create(0, 16, 11025)
	b, _ := engine.Create(0, 16, 11025)
	if a.Index() != 0 || b.Index() != 1 {
		t.Fatalf("expected indices 0 and 1, got %d and %d", a.Index(), b.Index())
	}

	engine.Destroy(a)
	if got := engine.Stats().NextIndex; got != 2 {
		t.Errorf("expected counter to hold at 2 while buffers remain, got %d", got)
	}

	engine.DestroyAll()

	c, err := engine.Create(0, 16, 11025)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if c.Index() != 0 {
		t.Errorf("expected index 0 after batch destroy, got %d", c.Index())
	}
	if backend.destroys != 2 {
		t.Errorf("expected 2 backend destroys, got %d", backend.destroys)
	}
}

func TestPlayWithoutSampleIsNoop(t *testing.T) {
	backend := &fakeBackend{}
	engine, _ := newTestEngine(backend, 0)

	for _, flags := range []Flag{0, Flag3D, FlagRepeat, FlagStream | FlagDontStop} {
		b, _ := engine.Create(flags, 16, 11025)
		before := b.Flags()

		if err := engine.Play(b); err != nil {
			t.Errorf("flags %#x: unexpected error %v", flags, err)
		}
		if b.Flags() != before {
			t.Errorf("flags %#x: changed to %#x", before, b.Flags())
		}
	}
	if backend.plays != 0 {
		t.Errorf("expected no backend plays, got %d", backend.plays)
	}
}

func TestLoadSameSampleIsIdempotent(t *testing.T) {
	backend := &fakeBackend{}
	engine, _ := newTestEngine(backend, 0)
	b, _ := engine.Create(0, 16, 11025)
	s := oneSecond(7)

	if err := engine.Load(b, s); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := engine.Load(b, oneSecond(7)); err != nil {
		t.Fatalf("second load failed: %v", err)
	}

	loads, releases, _ := backend.counts()
	if loads != 1 {
		t.Errorf("expected 1 native load, got %d", loads)
	}
	if releases != 0 {
		t.Errorf("expected no releases, got %d", releases)
	}
	if b.State() != StateLoaded {
		t.Errorf("expected loaded, got %v", b.State())
	}
}

func TestLoadDifferentSampleReleasesPrevious(t *testing.T) {
	backend := &fakeBackend{}
	engine, _ := newTestEngine(backend, 0)
	b, _ := engine.Create(0, 16, 11025)

	engine.Load(b, oneSecond(1))
	engine.Load(b, oneSecond(2))

	loads, releases, _ := backend.counts()
	if loads != 2 || releases != 1 {
		t.Errorf("expected 2 loads and 1 release, got %d and %d", loads, releases)
	}
	if b.Sample().ID != 2 {
		t.Errorf("expected sample 2 bound, got %d", b.Sample().ID)
	}
}

func TestLoadMismatchKeepsPriorState(t *testing.T) {
	backend := &fakeBackend{}
	engine, _ := newTestEngine(backend, 0)
	b, _ := engine.Create(0, 16, 11025)
	engine.Load(b, oneSecond(1))

	eightBit := &Sample{ID: 2, Data: make([]byte, 100), Size: 100, NumSamples: 100, BytesPer: 1, Rate: 11025}
	if err := engine.Load(b, eightBit); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}

	otherRate := oneSecond(3)
	otherRate.Rate = 22050
	if err := engine.Load(b, otherRate); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected rate mismatch to fail, got %v", err)
	}

	if b.Sample().ID != 1 || b.State() != StateLoaded {
		t.Errorf("expected sample 1 still loaded, got %d in %v", b.Sample().ID, b.State())
	}
	if _, releases, _ := backend.counts(); releases != 0 {
		t.Errorf("expected no releases, got %d", releases)
	}
}

func TestLoadAcceptsAnyRateWhenBackendDoes(t *testing.T) {
	backend := &fakeBackend{anyRate: true}
	engine, _ := newTestEngine(backend, 0)
	b, _ := engine.Create(0, 16, 11025)

	s := oneSecond(1)
	s.Rate = 22050
	if err := engine.Load(b, s); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if b.Frequency() != 22050 {
		t.Errorf("expected frequency to follow the sample rate, got %d", b.Frequency())
	}
}

func TestLoadBackendFailure(t *testing.T) {
	backend := &fakeBackend{}
	engine, _ := newTestEngine(backend, 0)
	b, _ := engine.Create(0, 16, 11025)
	engine.Load(b, oneSecond(1))

	backend.failLoad = true
	if err := engine.Load(b, oneSecond(2)); err == nil {
		t.Fatal("expected load error")
	}

	if b.Sample().ID != 1 {
		t.Errorf("expected sample 1 still bound, got %d", b.Sample().ID)
	}
	if !b.Has(FlagReload) {
		t.Error("expected RELOAD after the native resource was released")
	}

	backend.failLoad = false
	if err := engine.Play(b); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if b.State() != StatePlaying {
		t.Errorf("expected playing, got %v", b.State())
	}
}

func TestStreamBufferNeedsCallback(t *testing.T) {
	engine, _ := newTestEngine(&fakeBackend{}, 0)
	b, _ := engine.Create(FlagStream, 16, 11025)

	if err := engine.Load(b, oneSecond(1)); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}

	s := &Sample{ID: 2, BytesPer: 2, Rate: 11025, Stream: func(b *Buffer, dst []byte) int { return len(dst) }}
	if err := engine.Load(b, s); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	engine.Play(b)
	if !b.EndTime().IsZero() {
		t.Error("stream buffers have no predicted end")
	}
}

func TestStopFromAnyState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(e *Engine, b *Buffer)
	}{
		{"empty", func(e *Engine, b *Buffer) {}},
		{"loaded", func(e *Engine, b *Buffer) { e.Load(b, oneSecond(1)) }},
		{"playing", func(e *Engine, b *Buffer) {
			e.Load(b, oneSecond(1))
			e.Play(b)
		}},
		{"stopped", func(e *Engine, b *Buffer) {
			e.Load(b, oneSecond(1))
			e.Play(b)
			e.Stop(b)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _ := newTestEngine(&fakeBackend{}, 0)
			b, _ := engine.Create(0, 16, 11025)
			tt.setup(engine, b)

			engine.Stop(b)

			if b.Has(FlagPlaying) {
				t.Error("expected PLAYING cleared")
			}
			if !b.Has(FlagReload) {
				t.Error("expected RELOAD set")
			}
		})
	}
}

func TestStopKeepsSampleAndPlayRebuilds(t *testing.T) {
	backend := &fakeBackend{}
	engine, _ := newTestEngine(backend, 0)
	b, _ := engine.Create(0, 16, 11025)
	engine.Load(b, oneSecond(1))
	engine.Play(b)
	engine.Stop(b)

	if b.State() != StateStopped {
		t.Errorf("expected stopped, got %v", b.State())
	}
	if b.Sample() == nil {
		t.Fatal("expected sample binding to survive Stop")
	}

	engine.Play(b)
	loads, releases, stops := backend.counts()
	if loads != 2 || releases != 1 || stops != 1 {
		t.Errorf("expected 2 loads, 1 release, 1 stop; got %d, %d, %d", loads, releases, stops)
	}
	if b.Has(FlagReload) {
		t.Error("expected RELOAD cleared by Play")
	}
}

func TestResetIsIdempotent(t *testing.T) {
	backend := &fakeBackend{}
	engine, _ := newTestEngine(backend, 0)
	b, _ := engine.Create(0, 16, 11025)
	engine.Load(b, oneSecond(1))
	engine.Play(b)

	engine.Reset(b)
	engine.Reset(b)

	if b.State() != StateEmpty {
		t.Errorf("expected empty, got %v", b.State())
	}
	if _, releases, _ := backend.counts(); releases != 1 {
		t.Errorf("expected exactly 1 release, got %d", releases)
	}
	if b.Flags()&(FlagPlaying|FlagReload) != 0 {
		t.Errorf("expected PLAYING and RELOAD cleared, got %#x", b.Flags())
	}
}

func TestRefreshRoundTrip(t *testing.T) {
	backend := &fakeBackend{}
	engine, clock := newTestEngine(backend, 0)
	b, _ := engine.Create(0, 16, 11025)
	engine.Load(b, oneSecond(1))
	engine.Play(b)

	if engine.Refresh(b) {
		t.Fatal("refresh stopped the buffer before its end")
	}

	clock.Advance(time.Second)
	if !engine.Refresh(b) {
		t.Fatal("expected refresh to stop the buffer")
	}
	if engine.Refresh(b) {
		t.Error("second refresh must be a no-op")
	}

	_, _, stops := backend.counts()
	if stops != 1 {
		t.Errorf("expected exactly 1 backend stop, got %d", stops)
	}
	if engine.Stats().Finished != 1 {
		t.Errorf("expected 1 finished, got %d", engine.Stats().Finished)
	}
}

func TestOneSecondSampleStopsAfterPolling(t *testing.T) {
	engine, clock := newTestEngine(&fakeBackend{}, 0)
	b, _ := engine.Create(0, 16, 11025)
	engine.Load(b, oneSecond(1))
	engine.Play(b)

	// 35 ms polling, as a 35 Hz tic loop would
	for elapsed := time.Duration(0); elapsed < 1050*time.Millisecond; elapsed += 35 * time.Millisecond {
		engine.Tick()
		clock.Advance(35 * time.Millisecond)
	}
	engine.Tick()

	if b.Has(FlagPlaying) {
		t.Error("expected buffer to stop after one second of polling")
	}
}

func TestRefreshHonorsBackendStatus(t *testing.T) {
	backend := &fakeBackend{status: StatusPlaying}
	engine, clock := newTestEngine(backend, 0)
	b, _ := engine.Create(0, 16, 11025)
	engine.Load(b, oneSecond(1))
	engine.Play(b)

	clock.Advance(10 * time.Second)
	if engine.Refresh(b) {
		t.Error("backend reports playing, buffer must keep playing")
	}

	backend.status = StatusFinished
	if !engine.Refresh(b) {
		t.Error("expected stop on native finish")
	}
}

func TestRepeatNeverPredictsEnd(t *testing.T) {
	engine, clock := newTestEngine(&fakeBackend{}, 0)
	b, _ := engine.Create(FlagRepeat, 16, 11025)
	engine.Load(b, oneSecond(1))
	engine.Play(b)

	clock.Advance(time.Hour)
	if engine.Refresh(b) {
		t.Error("repeating buffer stopped by prediction")
	}
}

func TestFrequencyScalesEndTime(t *testing.T) {
	engine, clock := newTestEngine(&fakeBackend{}, 0)
	b, _ := engine.Create(0, 16, 11025)
	engine.Load(b, oneSecond(1))
	engine.Set(b, BufferFrequency, 2)

	start := clock.Now()
	engine.Play(b)

	if got := b.EndTime().Sub(start); got != 500*time.Millisecond {
		t.Errorf("expected 500ms at double frequency, got %v", got)
	}
	if b.Frequency() != 22050 {
		t.Errorf("expected 22050 Hz, got %d", b.Frequency())
	}
}

func TestPlayAppliesProperties(t *testing.T) {
	backend := &fakeBackend{}
	engine, _ := newTestEngine(backend, 0)
	b, _ := engine.Create(0, 16, 11025)

	engine.Set(b, BufferVolume, 0.25)
	engine.Set(b, BufferPan, 3)
	if len(backend.sets) != 0 {
		t.Errorf("expected properties cached until a native resource exists, got %v", backend.sets)
	}

	engine.Load(b, oneSecond(1))
	engine.Play(b)

	if v, ok := backend.lastSet(BufferVolume); !ok || v != 0.25 {
		t.Errorf("expected volume 0.25, got %v %v", v, ok)
	}
	if v, ok := backend.lastSet(BufferPan); !ok || v != 1 {
		t.Errorf("expected clamped pan 1, got %v %v", v, ok)
	}
	if v, ok := backend.lastSet(BufferFrequency); !ok || v != 1 {
		t.Errorf("expected frequency 1, got %v %v", v, ok)
	}
}

func TestThreeDBuffersIgnorePan(t *testing.T) {
	backend := &fakeBackend{}
	engine, _ := newTestEngine(backend, 0)
	b, _ := engine.Create(Flag3D, 16, 11025)
	engine.Load(b, oneSecond(1))

	engine.Set(b, BufferPan, -1)
	if _, ok := backend.lastSet(BufferPan); ok {
		t.Error("pan must not reach a 3D buffer")
	}

	engine.Setv(b, BufferPosition, []float32{1, 2, 3})
	engine.Setv(b, BufferVelocity, []float32{1})
	engine.Play(b)

	if len(backend.setvs) < 2 || backend.setvs[0] != BufferPosition {
		t.Errorf("unexpected vector sets %v", backend.setvs)
	}
	if _, ok := backend.lastSet(BufferMinDistance); !ok {
		t.Error("expected min distance applied on play")
	}
}

func TestUnsupportedPropertiesIgnored(t *testing.T) {
	backend := &fakeBackend{}
	engine, _ := newTestEngine(backend, 0)
	b, _ := engine.Create(0, 16, 11025)
	engine.Load(b, oneSecond(1))

	engine.Set(b, Property(42), 1)
	engine.Setv(b, Property(-1), []float32{1, 2, 3})
	engine.Setv(b, BufferVolume, nil)
	engine.Listener(ListenerProperty(99), 1)
	engine.Listener(ListenerUpdate, 0)

	if len(backend.sets) != 0 || len(backend.setvs) != 0 || len(backend.commits) != 0 {
		t.Errorf("unexpected backend calls: %v %v %v", backend.sets, backend.setvs, backend.commits)
	}
}

func TestListenerCommitsOnUpdate(t *testing.T) {
	backend := &fakeBackend{}
	engine, _ := newTestEngine(backend, 0)

	engine.Listenerv(ListenerPosition, []float32{1, 2, 3})
	engine.Listenerv(ListenerVelocity, []float32{4, 5, 6})

	if len(backend.commits) != 0 {
		t.Fatalf("listener reached backend before UPDATE: %v", backend.commits)
	}

	engine.Listener(ListenerUpdate, 0)

	if len(backend.commits) != 1 {
		t.Fatalf("expected 1 combined commit, got %d", len(backend.commits))
	}
	c := backend.commits[0]
	if c.state.Position != [3]float32{1, 2, 3} || c.state.Velocity != [3]float32{4, 5, 6} {
		t.Errorf("unexpected snapshot %+v", c.state)
	}
	if !c.changed.Has(ListenerPosition) || !c.changed.Has(ListenerVelocity) || c.changed.Has(ListenerReverb) {
		t.Errorf("unexpected change mask %b", c.changed)
	}

	engine.Listener(ListenerUpdate, 0)
	if len(backend.commits) != 1 {
		t.Error("UPDATE without staged changes must not commit")
	}
}

func TestListenerStagingValues(t *testing.T) {
	backend := &fakeBackend{}
	engine, _ := newTestEngine(backend, 0)

	engine.Listenerv(ListenerPrimaryFormat, []float32{16, 44100})
	engine.Listener(ListenerUnitsPerMeter, 36)
	engine.Listener(ListenerDoppler, 0.5)
	engine.Listenerv(ListenerOrientation, []float32{90, 10})
	engine.Listenerv(ListenerReverb, []float32{0.5, 0.4, 0.3, 0.2})
	engine.Listenerv(ListenerPosition, []float32{1})
	engine.Listener(ListenerUpdate, 0)

	state := backend.commits[0].state
	if state.PrimaryBits != 16 || state.PrimaryRate != 44100 {
		t.Errorf("unexpected primary format %d/%d", state.PrimaryBits, state.PrimaryRate)
	}
	if state.UnitsPerMeter != 36 || state.Doppler != 0.5 {
		t.Errorf("unexpected scalars %+v", state)
	}
	if state.Orientation != [2]float32{90, 10} {
		t.Errorf("unexpected orientation %v", state.Orientation)
	}
	if state.Reverb[ReverbDamping] != 0.2 {
		t.Errorf("unexpected reverb %v", state.Reverb)
	}
	if backend.commits[0].changed.Has(ListenerPosition) {
		t.Error("short position vector must be ignored")
	}
}

func TestDestroyedBufferRejectsOperations(t *testing.T) {
	backend := &fakeBackend{}
	engine, _ := newTestEngine(backend, 0)
	b, _ := engine.Create(0, 16, 11025)
	engine.Load(b, oneSecond(1))
	engine.Play(b)
	engine.Destroy(b)

	if err := engine.Load(b, oneSecond(2)); !errors.Is(err, ErrDestroyed) {
		t.Errorf("expected ErrDestroyed, got %v", err)
	}
	if err := engine.Play(b); !errors.Is(err, ErrDestroyed) {
		t.Errorf("expected ErrDestroyed, got %v", err)
	}
	if engine.Refresh(b) {
		t.Error("refresh of destroyed buffer must be a no-op")
	}
	if _, releases, stops := backend.counts(); releases != 1 || stops != 1 {
		t.Errorf("expected destroy to stop and release once, got %d stops %d releases", stops, releases)
	}
}

func TestInlineRefreshBackend(t *testing.T) {
	engine, _ := newTestEngine(&fakeBackend{inline: true}, 0)

	if !engine.RefreshDisabled() {
		t.Fatal("expected refresh disabled")
	}
	if engine.StartRefresh(context.Background(), time.Millisecond) {
		t.Error("expected no refresh goroutine")
	}
	if v, ok := engine.Getv(InfoDisableChannelRefresh); !ok || v != 1 {
		t.Errorf("unexpected Getv result %d %v", v, ok)
	}
}

func TestBackgroundRefreshQuiescedByDestroyAll(t *testing.T) {
	backend := &fakeBackend{}
	engine, clock := newTestEngine(backend, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if !engine.StartRefresh(ctx, time.Millisecond) {
		t.Fatal("expected refresh goroutine")
	}
	defer engine.StopRefresh()

	var bufs []*Buffer
	for i := 0; i < 8; i++ {
		b, _ := engine.Create(0, 16, 11025)
		engine.Load(b, oneSecond(i))
		engine.Play(b)
		bufs = append(bufs, b)
	}
	clock.Advance(2 * time.Second)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, b := range bufs {
			engine.Refresh(b)
		}
	}()
	engine.DestroyAll()
	wg.Wait()

	if !engine.Refreshing() {
		t.Error("expected refresh loop resumed after DestroyAll")
	}
	if stats := engine.Stats(); stats.Buffers != 0 || stats.NextIndex != 0 {
		t.Errorf("unexpected stats after DestroyAll: %+v", stats)
	}

	_, releases, stops := backend.counts()
	if stops != 8 || releases != 8 {
		t.Errorf("expected each buffer stopped once, got %d stops %d releases", stops, releases)
	}
}

func TestShutdownStopsRefresh(t *testing.T) {
	engine, _ := newTestEngine(&fakeBackend{}, 0)
	engine.StartRefresh(context.Background(), time.Millisecond)
	engine.Create(0, 16, 11025)

	engine.Shutdown()

	if engine.Refreshing() {
		t.Error("expected refresh loop stopped")
	}
	if engine.Stats().Buffers != 0 {
		t.Error("expected empty pool")
	}
}

func TestStats(t *testing.T) {
	engine, _ := newTestEngine(&fakeBackend{}, 0)
	a, _ := engine.Create(0, 16, 11025)
	engine.Create(0, 16, 11025)
	engine.Load(a, oneSecond(1))
	engine.Play(a)

	stats := engine.Stats()
	if stats.Buffers != 2 || stats.Playing != 1 || stats.Loads != 1 || stats.NextIndex != 2 {
		t.Errorf("unexpected stats %+v", stats)
	}
}
