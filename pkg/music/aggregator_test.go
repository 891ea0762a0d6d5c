// ABOUTME: Tests for the music aggregator
// ABOUTME: Covers source preference, staging and forwarding to the active driver
package music

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type fakeMusic struct {
	buffered  bool
	buf       []byte
	plays     int
	files     []string
	stops     int
	paused    bool
	volume    float32
	updates   int
	failFiles bool
}

func (f *fakeMusic) Init() error { return nil }
func (f *fakeMusic) Update()     { f.updates++ }

func (f *fakeMusic) Set(prop Property, value float32) {
	if prop == PropertyVolume {
		f.volume = value
	}
}

func (f *fakeMusic) Get(prop Property) (int, bool) { return 1, true }

func (f *fakeMusic) Pause(pause bool) { f.paused = pause }
func (f *fakeMusic) Stop()            { f.stops++ }

func (f *fakeMusic) SongBuffer(size int) []byte {
	if !f.buffered {
		return nil
	}
	f.buf = make([]byte, size)
	return f.buf
}

func (f *fakeMusic) Play(looped bool) error {
	f.plays++
	return nil
}

func (f *fakeMusic) PlayFile(path string, looped bool) error {
	if f.failFiles {
		return errors.New("cannot open file")
	}
	f.files = append(f.files, path)
	return nil
}

type fakeCD struct {
	tracks []int
	stops  int
	paused bool
	volume float32
}

func (f *fakeCD) Init() error                      { return nil }
func (f *fakeCD) Update()                          {}
func (f *fakeCD) Set(prop Property, value float32) { f.volume = value }
func (f *fakeCD) Get(prop Property) (int, bool)    { return 2, true }
func (f *fakeCD) Pause(pause bool)                 { f.paused = pause }
func (f *fakeCD) Stop()                            { f.stops++ }

func (f *fakeCD) Play(track int, looped bool) error {
	f.tracks = append(f.tracks, track)
	return nil
}

func riffSong() *Song {
	return &Song{ID: 1, Name: "e1m1", Lump: []byte("RIFF....WAVE"), Path: "/music/e1m1.wav", CDTrack: 2}
}

func TestStartEmbeddedIntoSongBuffer(t *testing.T) {
	m := &fakeMusic{buffered: true}
	a := NewAggregator(m, &fakeCD{}, NewStaging(t.TempDir(), "test"))

	if err := a.Start(riffSong(), true); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if m.plays != 1 || len(m.files) != 0 {
		t.Errorf("expected buffer play only, got %d plays and files %v", m.plays, m.files)
	}
	if string(m.buf) != "RIFF....WAVE" {
		t.Errorf("unexpected song buffer %q", m.buf)
	}
	if _, src, playing := a.Current(); src != SourceEmbedded || !playing {
		t.Errorf("expected embedded source playing, got %v %v", src, playing)
	}
}

func TestStartEmbeddedStagesFile(t *testing.T) {
	dir := t.TempDir()
	m := &fakeMusic{}
	a := NewAggregator(m, nil, NewStaging(dir, "test"))

	if err := a.Start(riffSong(), false); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	if m.plays != 0 || len(m.files) != 1 {
		t.Fatalf("expected exactly one file play, got %d plays and files %v", m.plays, m.files)
	}
	want := dir + string(os.PathSeparator) + "test-buffer0.wav"
	if m.files[0] != want {
		t.Errorf("expected %s, got %s", want, m.files[0])
	}
	data, err := os.ReadFile(m.files[0])
	if err != nil || string(data) != "RIFF....WAVE" {
		t.Errorf("unexpected staged content %q (%v)", data, err)
	}
}

func TestStartPreferenceOrder(t *testing.T) {
	tests := []struct {
		name     string
		prefs    []Source
		song     *Song
		wantSrc  Source
		wantFile string
		wantCD   int
	}{
		{"file first", []Source{SourceFile, SourceEmbedded}, riffSong(), SourceFile, "/music/e1m1.wav", 0},
		{"cd first", []Source{SourceCD, SourceFile}, riffSong(), SourceCD, "", 2},
		{"skip undefined", nil, &Song{Name: "cd only", CDTrack: 5}, SourceCD, "", 5},
		{"file passed through", nil, &Song{Name: "ext", Path: "/x/y.wav"}, SourceFile, "/x/y.wav", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, cd := &fakeMusic{}, &fakeCD{}
			a := NewAggregator(m, cd, NewStaging(t.TempDir(), "test"))
			a.SetPreference(tt.prefs)

			if err := a.Start(tt.song, false); err != nil {
				t.Fatalf("start failed: %v", err)
			}
			if _, src, _ := a.Current(); src != tt.wantSrc {
				t.Errorf("expected %v, got %v", tt.wantSrc, src)
			}
			if tt.wantFile != "" && (len(m.files) != 1 || m.files[0] != tt.wantFile) {
				t.Errorf("expected file %s, got %v", tt.wantFile, m.files)
			}
			if tt.wantCD != 0 && (len(cd.tracks) != 1 || cd.tracks[0] != tt.wantCD) {
				t.Errorf("expected track %d, got %v", tt.wantCD, cd.tracks)
			}
		})
	}
}

func TestStartFallsThroughOnFailure(t *testing.T) {
	m, cd := &fakeMusic{failFiles: true}, &fakeCD{}
	a := NewAggregator(m, cd, NewStaging(t.TempDir(), "test"))

	if err := a.Start(riffSong(), false); err != nil {
		t.Fatalf("expected CD fallback, got %v", err)
	}
	if _, src, _ := a.Current(); src != SourceCD {
		t.Errorf("expected CD source, got %v", src)
	}
}

func TestStartWithoutSource(t *testing.T) {
	a := NewAggregator(nil, nil, NewStaging(t.TempDir(), "test"))

	if err := a.Start(riffSong(), false); !errors.Is(err, ErrNoSource) {
		t.Errorf("expected ErrNoSource, got %v", err)
	}
	if err := a.Start(nil, false); !errors.Is(err, ErrNoSource) {
		t.Errorf("expected ErrNoSource for nil song, got %v", err)
	}
	if v, ok := a.Get(PropertyPlaying); !ok || v != 0 {
		t.Errorf("expected not playing, got %d %v", v, ok)
	}
}

func TestStartStopsPreviousSource(t *testing.T) {
	m, cd := &fakeMusic{}, &fakeCD{}
	a := NewAggregator(m, cd, NewStaging(t.TempDir(), "test"))

	a.Start(&Song{Name: "cd", CDTrack: 1}, true)
	a.Start(&Song{Name: "file", Path: "/a.wav"}, true)

	if m.stops != 2 || cd.stops != 2 {
		t.Errorf("expected every start to stop both drivers, got music %d cd %d", m.stops, cd.stops)
	}
}

func TestForwarding(t *testing.T) {
	m, cd := &fakeMusic{}, &fakeCD{}
	a := NewAggregator(m, cd, NewStaging(t.TempDir(), "test"))

	a.Set(PropertyVolume, 0.5)
	if m.volume != 0.5 || cd.volume != 0.5 {
		t.Errorf("expected volume forwarded to both, got %v %v", m.volume, cd.volume)
	}

	a.Start(&Song{Name: "cd", CDTrack: 3}, false)
	a.Pause(true)
	if !cd.paused || m.paused {
		t.Error("expected pause to reach the CD driver only")
	}
	if v, _ := a.Get(PropertyID); v != 2 {
		t.Errorf("expected CD driver answer, got %d", v)
	}

	a.Update()
	if m.updates != 1 {
		t.Errorf("expected music update, got %d", m.updates)
	}
}

func TestStagingWriteReusesName(t *testing.T) {
	dir := t.TempDir()
	s := NewStaging(dir, "rot")

	if s.Current() != "" {
		t.Errorf("expected no current file, got %s", s.Current())
	}

	first, err := s.Write([]byte("MThd1"))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	second, err := s.Write([]byte("MThd2"))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if first != second || s.Current() != first {
		t.Errorf("expected one deterministic name, got %s then %s", first, second)
	}
	if want := filepath.Join(dir, "rot-buffer0.mid"); first != want {
		t.Errorf("expected %s, got %s", want, first)
	}
	if data, _ := os.ReadFile(first); string(data) != "MThd2" {
		t.Errorf("expected second write to overwrite, got %q", data)
	}
}

func TestStagingWriteNextRotates(t *testing.T) {
	dir := t.TempDir()
	s := NewStaging(dir, "rot")

	var paths []string
	for i := 0; i < 4; i++ {
		p, err := s.WriteNext([]byte("MThd"))
		if err != nil {
			t.Fatalf("write failed: %v", err)
		}
		paths = append(paths, p)
	}

	if paths[0] != filepath.Join(dir, "rot-buffer0.mid") {
		t.Errorf("expected first rotation to start at buffer0, got %s", paths[0])
	}
	if s.Current() != paths[3] {
		t.Errorf("expected current %s, got %s", paths[3], s.Current())
	}
	for i, p := range paths {
		_, err := os.Stat(p)
		kept := i >= 2
		if kept && err != nil {
			t.Errorf("expected %s kept: %v", p, err)
		}
		if !kept && !os.IsNotExist(err) {
			t.Errorf("expected %s removed", p)
		}
	}

	if next := s.Next(".mus"); next == paths[3] {
		t.Error("expected Next to rotate to a fresh name")
	}

	s.Cleanup()
	for _, p := range paths[2:] {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("expected %s removed by cleanup", p)
		}
	}
}

func TestStagingWriteChangesContainer(t *testing.T) {
	dir := t.TempDir()
	s := NewStaging(dir, "ext")

	mid, _ := s.Write([]byte("MThd"))
	wav, err := s.Write([]byte("RIFF....WAVE"))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if wav == mid {
		t.Fatal("expected the extension to follow the container")
	}
	if _, err := os.Stat(mid); !os.IsNotExist(err) {
		t.Errorf("expected %s replaced by %s", mid, wav)
	}
}

func TestStagingDefaults(t *testing.T) {
	a, b := NewStaging("", ""), NewStaging("", "")
	if a.Dir() != os.TempDir() {
		t.Errorf("expected temp dir, got %s", a.Dir())
	}
	if a.Next(".bin") != b.Next(".bin") {
		t.Error("expected the same names for the same directory")
	}

	c := NewStaging(t.TempDir(), "")
	if filepath.Base(c.Next(".bin")) == filepath.Base(a.Current()) {
		t.Error("expected different prefixes for different directories")
	}
}

func TestStartStagedTwiceRotates(t *testing.T) {
	dir := t.TempDir()
	m := &fakeMusic{}
	a := NewAggregator(m, nil, NewStaging(dir, "test"))

	for i := 0; i < 2; i++ {
		if err := a.Start(riffSong(), false); err != nil {
			t.Fatalf("start %d failed: %v", i, err)
		}
	}

	if len(m.files) != 2 || m.files[0] == m.files[1] {
		t.Fatalf("expected a fresh name for the second staged song, got %v", m.files)
	}
	if _, err := os.Stat(m.files[0]); err != nil {
		t.Errorf("expected the file in use to survive: %v", err)
	}

	// a file source in between means nothing streams the staged file
	a.Start(&Song{Name: "ext", Path: "/music/ext.ogg"}, false)
	a.Start(riffSong(), false)
	if got := m.files[len(m.files)-1]; got != m.files[1] {
		t.Errorf("expected the current name reused, got %s", got)
	}
}

type namedMusic struct {
	fakeMusic
	id string
}

func (n *namedMusic) Identify() string { return n.id }

func TestIdentifyForwardsToSource(t *testing.T) {
	m := &namedMusic{id: "fluidsynth"}
	a := NewAggregator(m, &fakeCD{}, NewStaging(t.TempDir(), "test"))

	if id := a.Identify(); id != "" {
		t.Errorf("expected no id while idle, got %q", id)
	}
	if err := a.Start(&Song{Name: "ext", Path: "/music/ext.ogg"}, false); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if id := a.Identify(); id != "fluidsynth" {
		t.Errorf("expected driver id, got %q", id)
	}

	if err := a.Start(&Song{Name: "cd", CDTrack: 3}, false); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if id := a.Identify(); id != "" {
		t.Errorf("expected numeric-only CD to report no id, got %q", id)
	}
}

func TestExtFor(t *testing.T) {
	tests := map[string]string{
		"RIFFxxxxWAVE": ".wav",
		"MThd":         ".mid",
		"MUS\x1a":      ".mus",
		"OggS":         ".bin",
	}
	for magic, want := range tests {
		if got := extFor([]byte(magic)); got != want {
			t.Errorf("%q: expected %s, got %s", magic, want, got)
		}
	}
}

func TestParseSource(t *testing.T) {
	var got []Source
	for _, name := range []string{"cd", "file", "embedded"} {
		src, err := ParseSource(name)
		if err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		got = append(got, src)
	}
	if !reflect.DeepEqual(got, []Source{SourceCD, SourceFile, SourceEmbedded}) {
		t.Errorf("unexpected sources %v", got)
	}
	if _, err := ParseSource("tape"); err == nil {
		t.Error("expected error for unknown source")
	}
}
