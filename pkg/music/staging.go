// ABOUTME: Temporary files for drivers that only play from disk
// ABOUTME: Writes reuse one deterministic name; Next rotates when a file may still be in use
package music

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Staging writes song buffers to temporary files. The name only changes
// when Next is called.
type Staging struct {
	mu      sync.Mutex
	dir     string
	prefix  string
	seq     int
	current string
	files   []string
}

// NewStaging creates a stager writing into dir. An empty dir uses the
// system temp directory; an empty prefix is derived from dir, so every
// process staging into the same directory uses the same names.
func NewStaging(dir, prefix string) *Staging {
	if dir == "" {
		dir = os.TempDir()
	}
	if prefix == "" {
		prefix = "audiodriver-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+dir)).String()[:8]
	}
	return &Staging{dir: dir, prefix: prefix}
}

// Dir returns the staging directory
func (s *Staging) Dir() string {
	return s.dir
}

// Current returns the most recent staged file name, or "" before any
func (s *Staging) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Next rotates to a fresh file name with the given extension
func (s *Staging) Next(ext string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextLocked(ext)
}

func (s *Staging) nextLocked(ext string) string {
	if s.current != "" {
		s.seq++
	}
	return s.nameLocked(ext)
}

// nameLocked sets current to the name for the present sequence number
func (s *Staging) nameLocked(ext string) string {
	s.current = filepath.Join(s.dir, fmt.Sprintf("%s-buffer%d%s", s.prefix, s.seq, ext))
	return s.current
}

// Write stores data under the current name, overwriting an earlier write
// with the same sequence number.
func (s *Staging) Write(data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(s.nameLocked(extFor(data)), data)
}

// WriteNext rotates to a fresh name before writing, so a backend still
// streaming the previous file keeps reading intact data. Files older than
// the previous one are removed.
func (s *Staging) WriteNext(data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(s.nextLocked(extFor(data)), data)
}

func (s *Staging) writeLocked(path string, data []byte) (string, error) {
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to stage song buffer: %w", err)
	}

	if n := len(s.files); n > 0 && stem(s.files[n-1]) == stem(path) {
		if s.files[n-1] == path {
			return path, nil
		}
		// same sequence number, different container
		s.remove(s.files[n-1])
		s.files = s.files[:n-1]
	}
	s.files = append(s.files, path)
	for len(s.files) > 2 {
		s.remove(s.files[0])
		s.files = s.files[1:]
	}
	return path, nil
}

// Cleanup removes every staged file
func (s *Staging) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range s.files {
		s.remove(path)
	}
	s.files = nil
}

func (s *Staging) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to remove staged file %s: %v", path, err)
	}
}

func stem(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// extFor picks a file extension from the container magic
func extFor(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("RIFF")):
		return ".wav"
	case bytes.HasPrefix(data, []byte("MThd")):
		return ".mid"
	case bytes.HasPrefix(data, []byte("MUS\x1a")):
		return ".mus"
	default:
		return ".bin"
	}
}
