// ABOUTME: Resolves driver names to built-in factories or shared libraries
// ABOUTME: Library file names follow the per-platform naming convention
package driver

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/Resonate-Protocol/audiodriver/internal/dynlib"
	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
	"github.com/Resonate-Protocol/audiodriver/pkg/audio/output"
	"github.com/Resonate-Protocol/audiodriver/pkg/backend/filemusic"
	"github.com/Resonate-Protocol/audiodriver/pkg/backend/headless"
	"github.com/Resonate-Protocol/audiodriver/pkg/backend/mixer"
)

// Options configures the drivers a Loader builds
type Options struct {
	Output      string   // output device for in-process drivers: oto, malgo, portaudio, null
	SampleRate  int      // output rate, 0 for 44100
	Channels    int      // output channels, 0 for stereo
	CDDir       string   // directory of trackNN.wav files
	SearchPaths []string // directories searched for driver libraries
	GOOS        string   // platform naming convention, "" for the running one
}

func (o Options) format() audio.Format {
	return audio.Format{SampleRate: o.SampleRate, Channels: o.Channels, BitDepth: 16}
}

// Factory builds a built-in driver
type Factory func(opts Options) (*Descriptor, error)

// Loader resolves driver names
type Loader struct {
	opts Options

	mu        sync.RWMutex
	factories map[string]Factory
}

// NewLoader creates a loader with the built-in drivers registered
func NewLoader(opts Options) *Loader {
	if opts.GOOS == "" {
		opts.GOOS = runtime.GOOS
	}
	l := &Loader{opts: opts, factories: make(map[string]Factory)}
	l.Register("headless", newHeadless)
	l.Register("dummy", newHeadless)
	l.Register("mixer", newMixer)
	l.Register("filemusic", newFileMusic)
	return l
}

// Register adds or replaces a built-in driver
func (l *Loader) Register(name string, factory Factory) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.factories[strings.ToLower(name)] = factory
}

// Builtins returns the names of the registered built-in drivers
func (l *Loader) Builtins() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, 0, len(l.factories))
	for name := range l.factories {
		names = append(names, name)
	}
	return names
}

// Load resolves name. Built-ins win; anything else is looked up as a
// shared library in the search paths, then through the system loader.
func (l *Loader) Load(name string) (*Descriptor, error) {
	key := strings.ToLower(name)

	l.mu.RLock()
	factory, ok := l.factories[key]
	l.mu.RUnlock()

	if ok {
		desc, err := factory(l.opts)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s driver: %w", key, err)
		}
		desc.Name = key
		return desc, nil
	}
	return l.loadLibrary(key)
}

func (l *Loader) loadLibrary(name string) (*Descriptor, error) {
	file := LibraryName(l.opts.GOOS, name)
	candidates := make([]string, 0, len(l.opts.SearchPaths)+1)
	for _, dir := range l.opts.SearchPaths {
		candidates = append(candidates, filepath.Join(dir, file))
	}
	candidates = append(candidates, file)

	for _, path := range candidates {
		d, err := dynlib.Load(path)
		if errors.Is(err, dynlib.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		return dynamicDescriptor(name, d), nil
	}
	return nil, fmt.Errorf("%w: %s (looked for %s)", ErrDriverNotFound, name, file)
}

// dynamicDescriptor keeps absent sub-interfaces as untyped nils
func dynamicDescriptor(name string, d *dynlib.Driver) *Descriptor {
	desc := &Descriptor{
		Name:    name,
		Driver:  d,
		Dynamic: true,
		Path:    d.Path(),
		Close:   d.Close,
	}
	if s := d.SFX(); s != nil {
		desc.SFX = s
	}
	if m := d.Music(); m != nil {
		desc.Music = m
	}
	if c := d.CD(); c != nil {
		desc.CD = c
	}
	return desc
}

// LibraryName returns the shared library file of driver name on goos
func LibraryName(goos, name string) string {
	switch goos {
	case "windows":
		return "audio_" + name + ".dll"
	case "darwin", "ios":
		return "libaudio_" + name + ".dylib"
	default:
		return "libaudio_" + name + ".so"
	}
}

func newHeadless(opts Options) (*Descriptor, error) {
	d := headless.New()
	return &Descriptor{Driver: d, SFX: d.SFX(), Music: d.Music(), CD: d.CD()}, nil
}

func newMixer(opts Options) (*Descriptor, error) {
	sfxOut, err := output.New(opts.Output)
	if err != nil {
		return nil, err
	}
	musicOut, err := output.New(opts.Output)
	if err != nil {
		return nil, err
	}

	mix := mixer.NewDriver(sfxOut, opts.format())
	files := filemusic.New(musicOut, opts.format(), opts.CDDir)
	desc := &Descriptor{
		Driver: multiDriver{mix, files},
		SFX:    mix.SFX(),
		Music:  files.Music(),
	}
	if opts.CDDir != "" {
		desc.CD = files.CD()
	}
	return desc, nil
}

func newFileMusic(opts Options) (*Descriptor, error) {
	out, err := output.New(opts.Output)
	if err != nil {
		return nil, err
	}
	files := filemusic.New(out, opts.format(), opts.CDDir)
	desc := &Descriptor{Driver: files, Music: files.Music()}
	if opts.CDDir != "" {
		desc.CD = files.CD()
	}
	log.Printf("File music driver ready (cd=%v)", desc.CD != nil)
	return desc, nil
}
