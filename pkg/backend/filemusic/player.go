// ABOUTME: Streaming WAV player shared by the Music and CD sub-interfaces
// ABOUTME: Resamples files to the output format and renders them as 16-bit PCM
package filemusic

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/Resonate-Protocol/audiodriver/pkg/audio"
	"github.com/Resonate-Protocol/audiodriver/pkg/audio/decode"
	"github.com/Resonate-Protocol/audiodriver/pkg/audio/resample"
)

// owner identifies which sub-interface started the current track
type owner int

const (
	ownerNone owner = iota
	ownerMusic
	ownerCD
)

const readChunk = 4096

// player renders one file at a time; it is the output's source for the
// lifetime of the driver and returns silence while idle
type player struct {
	mu     sync.Mutex
	format audio.Format

	file    *os.File
	stream  *decode.WAVStream
	src     audio.Format
	chans   [][]float32
	res     []*resample.Resampler
	scratch []float32
	eof     bool

	owner   owner
	looped  bool
	paused  bool
	playing bool
	gain    float32
}

func newPlayer(format audio.Format) *player {
	return &player{format: format, gain: 1}
}

// start replaces the current track with the WAV file at path
func (p *player) start(path string, looped bool, who owner, volume float32) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	stream, err := decode.NewWAVStream(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	src := stream.Format()
	if src.Channels <= 0 || src.SampleRate <= 0 {
		f.Close()
		return fmt.Errorf("unusable wav format in %s: %+v", path, src)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.closeLocked()
	p.file = f
	p.stream = stream
	p.src = src
	p.chans = make([][]float32, src.Channels)
	p.res = make([]*resample.Resampler, src.Channels)
	for c := range p.res {
		p.res[c] = resample.New(src.SampleRate, p.format.SampleRate)
	}
	p.eof = false
	p.owner = who
	p.looped = looped
	p.paused = false
	p.playing = true
	p.gain = audio.VolumeGain(volume)
	return nil
}

// stop ends playback if who owns the current track
func (p *player) stop(who owner) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if who != ownerNone && p.owner != who {
		return
	}
	p.closeLocked()
}

func (p *player) closeLocked() {
	if p.file != nil {
		if err := p.file.Close(); err != nil {
			log.Printf("filemusic: close failed: %v", err)
		}
	}
	p.file = nil
	p.stream = nil
	p.chans = nil
	p.res = nil
	p.owner = ownerNone
	p.playing = false
	p.paused = false
}

func (p *player) pause(who owner, pause bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.owner == who {
		p.paused = pause
	}
}

func (p *player) setVolume(who owner, volume float32) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.owner == who {
		p.gain = audio.VolumeGain(volume)
	}
}

func (p *player) isPlaying(who owner) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing && p.owner == who
}

// reap closes a track that ran out of data
func (p *player) reap() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream != nil && !p.playing {
		p.closeLocked()
	}
}

// Read renders 16-bit interleaved PCM in the output format
func (p *player) Read(dst []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range dst {
		dst[i] = 0
	}
	if !p.playing || p.paused || p.stream == nil {
		return len(dst), nil
	}

	outCh := p.format.Channels
	frames := len(dst) / (outCh * 2)
	for i := 0; i < frames; i++ {
		if !p.ensureLocked() {
			p.playing = false
			break
		}
		for c := 0; c < outCh; c++ {
			v := p.sampleLocked(c) * p.gain
			binary.LittleEndian.PutUint16(dst[(i*outCh+c)*2:], uint16(audio.FloatToInt16(v)))
		}
		for _, r := range p.res {
			r.Next(p.chans[0])
		}
	}

	used := int(p.res[0].Position())
	if used > 0 {
		for c := range p.chans {
			p.chans[c] = p.chans[c][used:]
			p.res[c].Consume(used)
		}
	}
	return len(dst), nil
}

// sampleLocked maps output channel c onto the source channels
func (p *player) sampleLocked(c int) float32 {
	srcCh := len(p.chans)
	if p.format.Channels == 1 && srcCh > 1 {
		var sum float32
		for s := range p.chans {
			sum += p.at(s)
		}
		return sum / float32(srcCh)
	}
	if c >= srcCh {
		c = srcCh - 1
	}
	return p.at(c)
}

func (p *player) at(c int) float32 {
	src := p.chans[c]
	pos := p.res[c].Position()
	idx := int(pos)
	s := src[idx]
	if idx+1 < len(src) {
		s += (src[idx+1] - s) * float32(pos-float64(idx))
	}
	return s
}

// ensureLocked decodes until the next interpolation pair is buffered
func (p *player) ensureLocked() bool {
	rewound := false
	for {
		idx := int(p.res[0].Position())
		have := len(p.chans[0])
		if idx+1 < have || (p.eof && idx < have) {
			return true
		}
		if p.eof {
			// an empty looped file would otherwise spin forever
			if !p.looped || rewound {
				return false
			}
			rewound = true
			if err := p.stream.Rewind(); err != nil {
				log.Printf("filemusic: rewind failed: %v", err)
				return false
			}
			p.eof = false
		}
		if err := p.fillLocked(); err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("filemusic: decode failed: %v", err)
				return false
			}
			p.eof = true
		}
	}
}

func (p *player) fillLocked() error {
	srcCh := p.src.Channels
	want := (readChunk / srcCh) * srcCh
	if cap(p.scratch) < want {
		p.scratch = make([]float32, want)
	}
	buf := p.scratch[:want]

	n, err := p.stream.Read(buf)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return err
	}
	for i := 0; i+srcCh <= n; i += srcCh {
		for c := 0; c < srcCh; c++ {
			p.chans[c] = append(p.chans[c], buf[i+c])
		}
	}
	return nil
}
