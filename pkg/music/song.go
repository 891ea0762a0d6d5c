// ABOUTME: Song definitions and music source kinds
// ABOUTME: A song can name an embedded track, an external file and a CD track
package music

import "fmt"

// Source is a kind of music source
type Source int

const (
	SourceEmbedded Source = iota
	SourceFile
	SourceCD
)

// DefaultPreference is the source order used when none is configured
var DefaultPreference = []Source{SourceEmbedded, SourceFile, SourceCD}

func (s Source) String() string {
	switch s {
	case SourceEmbedded:
		return "embedded"
	case SourceFile:
		return "file"
	case SourceCD:
		return "cd"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// ParseSource maps a name from configuration to a Source
func ParseSource(name string) (Source, error) {
	switch name {
	case "embedded", "lump":
		return SourceEmbedded, nil
	case "file", "ext":
		return SourceFile, nil
	case "cd":
		return SourceCD, nil
	default:
		return 0, fmt.Errorf("unknown music source: %q", name)
	}
}

// Song is one logical music track
type Song struct {
	ID      int
	Name    string
	Lump    []byte // embedded track bytes
	Path    string // external file
	CDTrack int    // 0 when the song has no CD track
}

// Has reports whether the song defines src
func (s *Song) Has(src Source) bool {
	switch src {
	case SourceEmbedded:
		return len(s.Lump) > 0
	case SourceFile:
		return s.Path != ""
	case SourceCD:
		return s.CDTrack > 0
	default:
		return false
	}
}
