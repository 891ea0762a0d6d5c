// ABOUTME: Runtime configuration from AUDIODRIVER_* environment variables
// ABOUTME: An optional .env file is loaded first; unset values keep their defaults
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Resonate-Protocol/audiodriver/pkg/driver"
	"github.com/Resonate-Protocol/audiodriver/pkg/music"
)

// Environment variable prefix
const Prefix = "AUDIODRIVER_"

// Config holds driver selection and tuning
type Config struct {
	Driver          string
	Output          string
	SampleRate      int
	Channels        int
	DriverDirs      []string
	CDDir           string
	StagingDir      string
	SoundFont       string
	MaxBuffers      int
	RefreshInterval time.Duration
	MusicPreference []music.Source
}

// Default returns the configuration used when nothing is set
func Default() Config {
	return Config{
		Driver:          "mixer",
		Output:          "oto",
		SampleRate:      44100,
		Channels:        2,
		MaxBuffers:      256,
		RefreshInterval: driver.DefaultRefreshInterval,
		MusicPreference: append([]music.Source(nil), music.DefaultPreference...),
	}
}

// Load reads envFile if it exists, then the environment. Variables already
// set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return FromEnv()
}

// FromEnv applies AUDIODRIVER_* variables over the defaults
func FromEnv() (Config, error) {
	cfg := Default()

	if v := env("DRIVER"); v != "" {
		cfg.Driver = strings.ToLower(v)
	}
	if v := env("OUTPUT"); v != "" {
		cfg.Output = strings.ToLower(v)
	}
	if v := env("SAMPLE_RATE"); v != "" {
		rate, err := strconv.Atoi(v)
		if err != nil || rate <= 0 {
			return Config{}, fmt.Errorf("invalid %sSAMPLE_RATE %q", Prefix, v)
		}
		cfg.SampleRate = rate
	}
	if v := env("CHANNELS"); v != "" {
		ch, err := strconv.Atoi(v)
		if err != nil || ch < 1 || ch > 2 {
			return Config{}, fmt.Errorf("invalid %sCHANNELS %q", Prefix, v)
		}
		cfg.Channels = ch
	}
	if v := env("DRIVER_PATH"); v != "" {
		cfg.DriverDirs = filepath.SplitList(v)
	}
	cfg.CDDir = env("CD_DIR")
	cfg.StagingDir = env("STAGING_DIR")
	cfg.SoundFont = env("SOUNDFONT")
	if v := env("MAX_BUFFERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid %sMAX_BUFFERS %q", Prefix, v)
		}
		cfg.MaxBuffers = n
	}
	if v := env("REFRESH_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("invalid %sREFRESH_INTERVAL %q", Prefix, v)
		}
		cfg.RefreshInterval = d
	}
	if v := env("MUSIC_PREFERENCE"); v != "" {
		prefs, err := parsePreference(v)
		if err != nil {
			return Config{}, err
		}
		cfg.MusicPreference = prefs
	}
	return cfg, nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(Prefix + name))
}

// parsePreference reads a comma separated source list such as "cd,file"
func parsePreference(v string) ([]music.Source, error) {
	var prefs []music.Source
	for _, name := range strings.Split(v, ",") {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		src, err := music.ParseSource(name)
		if err != nil {
			return nil, fmt.Errorf("invalid %sMUSIC_PREFERENCE: %w", Prefix, err)
		}
		prefs = append(prefs, src)
	}
	if len(prefs) == 0 {
		return nil, fmt.Errorf("empty %sMUSIC_PREFERENCE", Prefix)
	}
	return prefs, nil
}

// LoaderOptions converts the configuration for driver.NewLoader
func (c Config) LoaderOptions() driver.Options {
	return driver.Options{
		Output:      c.Output,
		SampleRate:  c.SampleRate,
		Channels:    c.Channels,
		CDDir:       c.CDDir,
		SearchPaths: c.DriverDirs,
	}
}

// RegistryConfig converts the configuration for driver.NewRegistry
func (c Config) RegistryConfig() driver.Config {
	return driver.Config{
		MaxBuffers:      c.MaxBuffers,
		RefreshInterval: c.RefreshInterval,
		MusicPreference: c.MusicPreference,
		StagingDir:      c.StagingDir,
	}
}
