// ABOUTME: Test doubles for the buffer engine
// ABOUTME: Counting backend and a manually advanced clock
package sfx

import (
	"errors"
	"sync"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type setCall struct {
	prop  Property
	value float32
}

type commit struct {
	state   ListenerState
	changed ListenerMask
}

type fakeBackend struct {
	mu sync.Mutex

	status    Status
	anyRate   bool
	inline    bool
	failLoad  bool
	creates   int
	destroys  int
	loads     int
	releases  int
	plays     int
	stops     int
	statuses  int
	sets      []setCall
	setvs     []Property
	commits   []commit
	destroyed []int
}

func (f *fakeBackend) Init() error { return nil }

func (f *fakeBackend) Info(id InfoID) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch id {
	case InfoDisableChannelRefresh:
		if f.inline {
			return 1, true
		}
		return 0, true
	case InfoAnySampleRateAccepted:
		if f.anyRate {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (f *fakeBackend) Create(b *Buffer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	b.SetExt(f.creates)
	return nil
}

func (f *fakeBackend) Destroy(b *Buffer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroys++
	f.destroyed = append(f.destroyed, b.Index())
}

func (f *fakeBackend) Load(b *Buffer, s *Sample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLoad {
		return errors.New("native loader rejected sample")
	}
	f.loads++
	return nil
}

func (f *fakeBackend) Release(b *Buffer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
}

func (f *fakeBackend) Play(b *Buffer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	return nil
}

func (f *fakeBackend) Stop(b *Buffer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeBackend) Status(b *Buffer) Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses++
	return f.status
}

func (f *fakeBackend) Set(b *Buffer, prop Property, value float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets = append(f.sets, setCall{prop, value})
}

func (f *fakeBackend) Setv(b *Buffer, prop Property, values []float32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setvs = append(f.setvs, prop)
}

func (f *fakeBackend) CommitListener(state ListenerState, changed ListenerMask) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits = append(f.commits, commit{state, changed})
}

func (f *fakeBackend) counts() (loads, releases, stops int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads, f.releases, f.stops
}

func (f *fakeBackend) lastSet(prop Property) (float32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sets) - 1; i >= 0; i-- {
		if f.sets[i].prop == prop {
			return f.sets[i].value, true
		}
	}
	return 0, false
}

// oneSecond is 16-bit mono at 11025 Hz, 11025 frames
func oneSecond(id int) *Sample {
	return &Sample{
		ID:         id,
		Data:       make([]byte, 11025*2),
		Size:       11025 * 2,
		NumSamples: 11025,
		BytesPer:   2,
		Rate:       11025,
	}
}

func newTestEngine(backend *fakeBackend, max int) (*Engine, *fakeClock) {
	clock := newFakeClock()
	return NewEngine(backend, Config{MaxBuffers: max, Clock: clock}), clock
}
