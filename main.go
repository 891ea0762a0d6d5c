// ABOUTME: Entry point for the audio driver demo
// ABOUTME: Loads a driver, plays tones and music, and shows the monitor TUI
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/audiodriver/internal/config"
	"github.com/Resonate-Protocol/audiodriver/internal/tone"
	"github.com/Resonate-Protocol/audiodriver/internal/ui"
	"github.com/Resonate-Protocol/audiodriver/internal/version"
	"github.com/Resonate-Protocol/audiodriver/pkg/driver"
	"github.com/Resonate-Protocol/audiodriver/pkg/music"
	"github.com/Resonate-Protocol/audiodriver/pkg/sfx"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	envFile     = flag.String("env", ".env", "Optional .env file with AUDIODRIVER_* settings")
	driverName  = flag.String("driver", "", "Driver to load (headless, mixer, filemusic or a library name)")
	outputName  = flag.String("output", "", "Output device for built-in drivers: oto, malgo, portaudio, null")
	driverPath  = flag.String("driver-path", "", "Directories searched for driver libraries")
	cdDir       = flag.String("cd-dir", "", "Directory holding trackNN.wav files")
	songPath    = flag.String("music", "", "Song file to start")
	cdTrack     = flag.Int("cd-track", 0, "CD track to fall back to")
	soundFont   = flag.String("soundfont", "", "Sound font for synthesizing drivers")
	tics        = flag.Int("tics", 35, "Frames per second")
	logFile     = flag.String("log-file", "audiodriver.log", "Log file path")
	noTUI       = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	showVersion = flag.Bool("version", false, "Print version and quit")
)

// switchOrder is cycled by the TUI switch key
var switchOrder = []string{"mixer", "headless", "filemusic"}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (%s)\n", version.Product, version.Version, version.Manufacturer)
		return
	}

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	applyFlags(&cfg)

	log.Printf("Starting %s %s with driver %s", version.Product, version.Version, cfg.Driver)

	reg := driver.NewRegistry(driver.NewLoader(cfg.LoaderOptions()), cfg.RegistryConfig())
	if err := reg.Init(cfg.Driver); err != nil {
		log.Printf("Driver %s unavailable, running %s: %v", cfg.Driver, reg.Descriptor().Name, err)
	}
	defer reg.Shutdown()

	d := &demo{reg: reg, cfg: cfg, volume: 1}
	d.setup()

	// TUI setup
	var tuiProg *tea.Program
	var ctrl *ui.Control

	if useTUI {
		ctrl = ui.NewControl()
		tuiProg, err = ui.Run(ctrl)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go tuiProg.Run()
	}

	// Helper to update TUI
	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}
	updateTUI(d.status())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var commands chan ui.Command
	if ctrl != nil {
		commands = ctrl.Commands
	}

	frame := time.NewTicker(time.Second / time.Duration(max(*tics, 1)))
	defer frame.Stop()
	statusTicker := time.NewTicker(500 * time.Millisecond)
	defer statusTicker.Stop()

	for {
		select {
		case <-frame.C:
			d.frame()
		case <-statusTicker.C:
			updateTUI(d.status())
		case cmd := <-commands:
			if cmd.Kind == ui.CommandQuit {
				log.Printf("Received quit from TUI")
				return
			}
			d.handle(cmd)
			updateTUI(d.status())
		case <-sigChan:
			log.Printf("Shutdown signal received")
			if tuiProg != nil {
				tuiProg.Quit()
			}
			return
		}
	}
}

// applyFlags lets explicit flags override the environment
func applyFlags(cfg *config.Config) {
	if *driverName != "" {
		cfg.Driver = strings.ToLower(*driverName)
	}
	if *outputName != "" {
		cfg.Output = *outputName
	}
	if *driverPath != "" {
		cfg.DriverDirs = filepath.SplitList(*driverPath)
	}
	if *cdDir != "" {
		cfg.CDDir = *cdDir
	}
	if *soundFont != "" {
		cfg.SoundFont = *soundFont
	}
}

// demo drives the active driver the way a game loop would
type demo struct {
	reg *driver.Registry
	cfg config.Config

	beep    *sfx.Buffer
	orbit   *sfx.Buffer
	stream  *sfx.Buffer
	angle   float64
	volume  float32
	lastErr string
	next    int
}

// setup creates the demo buffers and starts music on the active driver
func (d *demo) setup() {
	if d.cfg.SoundFont != "" {
		if err := d.reg.SetSoundFont(d.cfg.SoundFont); err != nil {
			log.Printf("Sound font rejected: %v", err)
		}
	}

	if engine := d.reg.SFX(); engine != nil {
		d.createBuffers(engine)
	}

	if agg := d.reg.Music(); agg != nil && (*songPath != "" || *cdTrack > 0) {
		song := &music.Song{ID: 1, Name: filepath.Base(*songPath), Path: *songPath, CDTrack: *cdTrack}
		if err := agg.Start(song, true); err != nil {
			d.fail("music", err)
		}
		agg.Set(music.PropertyVolume, d.volume)
	}
}

func (d *demo) createBuffers(engine *sfx.Engine) {
	const rate = 22050
	var err error

	d.beep, err = engine.Create(0, 16, rate)
	if err != nil {
		d.fail("create beep", err)
		return
	}
	if err := engine.Load(d.beep, tone.Sample(1, 880, rate, rate/4)); err != nil {
		d.fail("load beep", err)
	}

	d.orbit, err = engine.Create(sfx.Flag3D|sfx.FlagRepeat, 16, rate)
	if err == nil {
		if err := engine.Load(d.orbit, tone.Sample(2, 220, rate, rate)); err != nil {
			d.fail("load orbit", err)
		}
		engine.Set(d.orbit, sfx.BufferMinDistance, 1)
		engine.Set(d.orbit, sfx.BufferMaxDistance, 20)
		if err := engine.Play(d.orbit); err != nil {
			d.fail("play orbit", err)
		}
	}

	d.stream, err = engine.Create(sfx.FlagStream, 16, rate)
	if err == nil {
		if err := engine.Load(d.stream, tone.StreamSample(3, tone.DefaultFrequency, rate)); err != nil {
			d.fail("load stream", err)
		}
		engine.Set(d.stream, sfx.BufferVolume, 0.2)
		if err := engine.Play(d.stream); err != nil {
			d.fail("play stream", err)
		}
	}

	engine.Listenerv(sfx.ListenerOrientation, []float32{0, 0})
	engine.Listener(sfx.ListenerUpdate, 0)
}

// frame runs one tic: moves the orbiting source and refreshes inline
func (d *demo) frame() {
	d.reg.Event(driver.EventBegin)

	if engine := d.reg.SFX(); engine != nil && d.orbit != nil {
		d.angle += 0.05
		pos := []float32{float32(8 * math.Cos(d.angle)), float32(8 * math.Sin(d.angle)), 0}
		engine.Setv(d.orbit, sfx.BufferPosition, pos)
	}
	d.reg.Tick()

	d.reg.Event(driver.EventEnd)
}

func (d *demo) handle(cmd ui.Command) {
	switch cmd.Kind {
	case ui.CommandVolume:
		d.volume = float32(cmd.Volume) / 100
		if engine := d.reg.SFX(); engine != nil {
			for _, b := range []*sfx.Buffer{d.beep, d.orbit} {
				if b != nil {
					engine.Set(b, sfx.BufferVolume, d.volume)
				}
			}
		}
		if agg := d.reg.Music(); agg != nil {
			agg.Set(music.PropertyVolume, d.volume)
		}
	case ui.CommandPlay:
		if engine := d.reg.SFX(); engine != nil && d.beep != nil {
			if err := engine.Play(d.beep); err != nil {
				d.fail("play beep", err)
			}
		}
	case ui.CommandSwitch:
		name := switchOrder[d.next%len(switchOrder)]
		d.next++
		prev := d.reg.Descriptor()
		if err := d.reg.Switch(name); err != nil {
			d.fail("switch", err)
		}
		if d.reg.Descriptor() == prev {
			return
		}
		// the old pool was destroyed with the old driver
		d.beep, d.orbit, d.stream = nil, nil, nil
		d.setup()
	}
}

func (d *demo) fail(what string, err error) {
	log.Printf("Demo %s failed: %v", what, err)
	d.lastErr = fmt.Sprintf("%s: %v", what, err)
}

// status snapshots the registry for the TUI
func (d *demo) status() ui.StatusMsg {
	msg := ui.StatusMsg{Error: d.lastErr}

	if desc := d.reg.Descriptor(); desc != nil {
		msg.Driver = desc.Name
		msg.Dynamic = desc.Dynamic
		msg.Path = desc.Path
		msg.Features = features(desc)
	}
	msg.SampleRate = d.cfg.SampleRate
	msg.Channels = d.cfg.Channels

	if engine := d.reg.SFX(); engine != nil {
		stats := engine.Stats()
		msg.Buffers = stats.Buffers
		msg.Playing = stats.Playing
		msg.NextIndex = stats.NextIndex
		msg.Loads = stats.Loads
		msg.Finished = stats.Finished
	}
	if agg := d.reg.Music(); agg != nil {
		if song, src, playing := agg.Current(); song != nil {
			msg.Song = song.Name
			msg.Source = src.String()
			msg.SongPlaying = playing
		}
	}
	return msg
}

func features(desc *driver.Descriptor) string {
	var parts []string
	if desc.SFX != nil {
		parts = append(parts, "sfx")
	}
	if desc.Music != nil {
		parts = append(parts, "music")
	}
	if desc.CD != nil {
		parts = append(parts, "cd")
	}
	return strings.Join(parts, " ")
}
