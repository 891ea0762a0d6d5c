// ABOUTME: Tests for the real-time mixer
// ABOUTME: Drives the mixer through the buffer engine and drains a null output
package mixer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
	"github.com/Resonate-Protocol/audiodriver/pkg/audio/decode"
	"github.com/Resonate-Protocol/audiodriver/pkg/audio/output"
	"github.com/Resonate-Protocol/audiodriver/pkg/sfx"
)

const testRate = 44100

func setup(t *testing.T) (*sfx.Engine, *Mixer, *output.Null) {
	t.Helper()
	out := output.NewNull()
	d := NewDriver(out, audio.Format{SampleRate: testRate, Channels: 2})
	if err := d.Init(); err != nil {
		t.Fatalf("driver init failed: %v", err)
	}
	m := d.SFX()
	if err := m.Init(); err != nil {
		t.Fatalf("mixer init failed: %v", err)
	}
	t.Cleanup(d.Shutdown)
	return sfx.NewEngine(m, sfx.Config{}), m, out
}

// constSample is 16-bit mono at testRate with every sample set to value
func constSample(id, frames int, value int16) *sfx.Sample {
	data := make([]byte, frames*2)
	for i := 0; i < frames; i++ {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(value))
	}
	return &sfx.Sample{ID: id, Data: data, Size: len(data), NumSamples: frames, BytesPer: 2, Rate: testRate}
}

func frameAt(pcm []byte, i int) (left, right int16) {
	return int16(binary.LittleEndian.Uint16(pcm[i*4:])), int16(binary.LittleEndian.Uint16(pcm[i*4+2:]))
}

func TestInitOpensOutput(t *testing.T) {
	_, m, out := setup(t)

	if out.Opens() != 1 {
		t.Errorf("expected output opened once, got %d", out.Opens())
	}
	if m.Format().SampleRate != testRate || m.Format().BitDepth != 16 {
		t.Errorf("unexpected format %+v", m.Format())
	}
	if v, ok := m.Info(sfx.InfoDisableChannelRefresh); !ok || v != 0 {
		t.Error("mixer must run with a refresh loop")
	}
}

func TestNativeLoadIsLossless(t *testing.T) {
	_, m, _ := setup(t)

	for _, bits := range []int{8, 16} {
		frames := 300
		data := make([]byte, frames*bits/8)
		for i := range data {
			data[i] = byte(i * 7)
		}
		s := &sfx.Sample{ID: bits, Data: data, Size: len(data), NumSamples: frames, BytesPer: bits / 8, Rate: 11025}

		clip, err := m.nativeLoad(s)
		if err != nil {
			t.Fatalf("%d-bit: load failed: %v", bits, err)
		}
		if clip.Format != s.Format() {
			t.Errorf("%d-bit: format changed to %+v", bits, clip.Format)
		}

		dec, _ := decode.NewPCM(s.Format())
		want, _ := dec.Decode(data)
		if len(clip.Samples) != len(want) {
			t.Fatalf("%d-bit: expected %d samples, got %d", bits, len(want), len(clip.Samples))
		}
		for i := range want {
			if clip.Samples[i] != want[i] {
				t.Fatalf("%d-bit: sample %d differs: %f vs %f", bits, i, clip.Samples[i], want[i])
			}
		}
	}

	if m.Loads() != 2 {
		t.Errorf("expected 2 loads, got %d", m.Loads())
	}
}

func TestLargeSampleUsesHeapFallback(t *testing.T) {
	_, m, _ := setup(t)

	frames := DefaultScratchSize
	s := constSample(1, frames, 100)
	clip, err := m.nativeLoad(s)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if clip.Frames() != frames {
		t.Errorf("expected %d frames, got %d", frames, clip.Frames())
	}
}

func TestPlayMixesAndFinishes(t *testing.T) {
	engine, m, out := setup(t)

	b, _ := engine.Create(0, 16, testRate)
	if err := engine.Load(b, constSample(1, 100, 16384)); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := engine.Play(b); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	pcm := out.Drain(64)
	l, r := frameAt(pcm, 10)
	if l == 0 || l != r {
		t.Errorf("expected equal non-zero channels at center pan, got %d/%d", l, r)
	}
	if engine.Refresh(b) {
		t.Fatal("voice still has data, refresh must not stop it")
	}

	out.Drain(64)
	if m.Voices() != 0 {
		t.Errorf("expected voice to leave the mix, got %d", m.Voices())
	}
	if !engine.Refresh(b) {
		t.Error("expected refresh to observe native finish")
	}
	if b.State() != sfx.StateStopped {
		t.Errorf("expected stopped, got %v", b.State())
	}
}

func TestRepeatWraps(t *testing.T) {
	engine, m, out := setup(t)

	b, _ := engine.Create(sfx.FlagRepeat, 16, testRate)
	engine.Load(b, constSample(1, 10, 8000))
	engine.Play(b)

	pcm := out.Drain(100)
	if l, _ := frameAt(pcm, 95); l == 0 {
		t.Error("expected repeating voice to keep sounding")
	}
	if m.Voices() != 1 {
		t.Errorf("expected voice to stay in the mix, got %d", m.Voices())
	}
}

func TestPanAndVolume(t *testing.T) {
	tests := []struct {
		name      string
		prop      sfx.Property
		value     float32
		wantLeft  bool
		wantRight bool
	}{
		{"hard left", sfx.BufferPan, -1, true, false},
		{"hard right", sfx.BufferPan, 1, false, true},
		{"silent", sfx.BufferVolume, 0, false, false},
		{"full attenuation", sfx.BufferVolume, -0.0001, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _, out := setup(t)
			b, _ := engine.Create(0, 16, testRate)
			engine.Load(b, constSample(1, 100, 16384))
			engine.Set(b, tt.prop, tt.value)
			engine.Play(b)

			l, r := frameAt(out.Drain(16), 5)
			if (l != 0) != tt.wantLeft || (r != 0) != tt.wantRight {
				t.Errorf("unexpected output %d/%d", l, r)
			}
		})
	}
}

func TestDistanceAttenuation(t *testing.T) {
	engine, _, out := setup(t)
	b, _ := engine.Create(sfx.Flag3D, 16, testRate)
	engine.Load(b, constSample(1, 1000, 16384))
	engine.Set(b, sfx.BufferMinDistance, 10)
	engine.Set(b, sfx.BufferMaxDistance, 100)
	engine.Setv(b, sfx.BufferPosition, []float32{500, 0, 0})
	engine.Play(b)

	if l, r := frameAt(out.Drain(8), 4); l != 0 || r != 0 {
		t.Errorf("expected silence beyond max distance, got %d/%d", l, r)
	}

	engine.Listenerv(sfx.ListenerPosition, []float32{495, 0, 0})
	if l, _ := frameAt(out.Drain(8), 4); l != 0 {
		t.Error("listener moved before UPDATE")
	}
	engine.Listener(sfx.ListenerUpdate, 0)

	if l, r := frameAt(out.Drain(8), 4); l == 0 && r == 0 {
		t.Error("expected sound once the listener is within min distance")
	}
}

func TestSpatializePanAndDoppler(t *testing.T) {
	l := sfx.DefaultListener()

	v := newVoice(&sfx.Buffer{})
	v.is3D = true
	v.maxDist = 1e6

	v.position = [3]float32{0, 100, 0}
	_, pan, _ := v.spatialize(&l)
	if pan > -0.99 {
		t.Errorf("source to the left of an east-facing listener should pan left, got %f", pan)
	}

	v.position = [3]float32{100, 0, 0}
	v.velocity = [3]float32{50, 0, 0}
	_, _, doppler := v.spatialize(&l)
	if doppler >= 1 {
		t.Errorf("receding source should lower pitch, got %f", doppler)
	}

	v.velocity = [3]float32{-50, 0, 0}
	_, _, doppler = v.spatialize(&l)
	if doppler <= 1 {
		t.Errorf("approaching source should raise pitch, got %f", doppler)
	}
}

func TestDistanceGain(t *testing.T) {
	tests := []struct {
		dist float32
		want float32
	}{
		{0, 1},
		{10, 1},
		{55, 0.5},
		{100, 0},
		{1000, 0},
	}
	for _, tt := range tests {
		if got := distanceGain(tt.dist, 10, 100); math.Abs(float64(got-tt.want)) > 1e-6 {
			t.Errorf("distance %f: expected %f, got %f", tt.dist, tt.want, got)
		}
	}
}

func TestStreamVoice(t *testing.T) {
	engine, _, out := setup(t)

	var pulls int
	s := &sfx.Sample{ID: 5, BytesPer: 2, Rate: testRate, Stream: func(b *sfx.Buffer, dst []byte) int {
		pulls++
		for i := 0; i+1 < len(dst); i += 2 {
			binary.LittleEndian.PutUint16(dst[i:], uint16(int16(12000)))
		}
		return len(dst)
	}}

	b, _ := engine.Create(sfx.FlagStream, 16, testRate)
	if err := engine.Load(b, s); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	engine.Play(b)

	pcm := out.Drain(2048)
	if l, _ := frameAt(pcm, 2000); l == 0 {
		t.Error("expected streamed audio")
	}
	if pulls == 0 {
		t.Error("expected stream callback to run")
	}
	if b.Ring().Written == 0 || b.Ring().Length == 0 {
		t.Errorf("expected ring progress, got %+v", b.Ring())
	}

	engine.Reset(b)
	before := pulls
	out.Drain(256)
	if pulls != before {
		t.Error("stream callback ran after Reset")
	}
}

func TestPrimaryFormatReopensOutput(t *testing.T) {
	engine, m, out := setup(t)

	engine.Listenerv(sfx.ListenerPrimaryFormat, []float32{16, 22050})
	engine.Listener(sfx.ListenerUpdate, 0)

	if out.Opens() != 2 {
		t.Errorf("expected output reopened, got %d opens", out.Opens())
	}
	if m.Format().SampleRate != 22050 {
		t.Errorf("expected 22050 Hz, got %d", m.Format().SampleRate)
	}
}
