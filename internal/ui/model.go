// ABOUTME: Bubbletea model for the driver monitor TUI
// ABOUTME: Shows the active driver, buffer pool and music state
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Driver
	driverName string
	dynamic    bool
	path       string
	features   string

	// Output
	sampleRate int
	channels   int

	// Pool
	buffers   int
	playing   int
	nextIndex int
	loads     uint64
	finished  uint64

	// Music
	song        string
	source      string
	songPlaying bool

	// Controls
	volume int
	muted  bool

	// Debug
	showDebug bool
	lastError string

	// Dimensions
	width  int
	height int

	control *Control
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderPool()
	s += m.renderMusic()
	s += m.renderControls()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders the active driver
func (m Model) renderHeader() string {
	name := "none"
	if m.driverName != "" {
		name = m.driverName
	}
	kind := "built-in"
	if m.dynamic {
		kind = "dynamic"
	}

	return fmt.Sprintf(`┌─ Audio Driver Monitor ───────────────────────────────┐
│ Driver: %-45s │
│ Output: %-45s │
├──────────────────────────────────────────────────────┤
`, truncate(fmt.Sprintf("%s (%s) %s", name, kind, m.features), 45),
		fmt.Sprintf("%dHz %s", m.sampleRate, channelName(m.channels)))
}

// renderPool renders buffer engine statistics
func (m Model) renderPool() string {
	return fmt.Sprintf("│ Buffers: %-4d Playing: %-4d Next index: %-12d │\n"+
		"│ Loads:   %-10d Finished: %-24d │\n",
		m.buffers, m.playing, m.nextIndex, m.loads, m.finished)
}

// renderMusic renders the current song
func (m Model) renderMusic() string {
	if m.song == "" {
		return "│ No music                                             │\n"
	}

	state := "stopped"
	if m.songPlaying {
		state = "playing"
	}
	return fmt.Sprintf("│ Music:  %-45s │\n",
		truncate(fmt.Sprintf("%s from %s (%s)", m.song, m.source, state), 45))
}

// renderControls renders volume status
func (m Model) renderControls() string {
	muteIcon := ""
	if m.muted {
		muteIcon = " 🔇"
	}

	volumeBar := renderBar(m.volume, 100, 10)

	return fmt.Sprintf("│                                                      │\n"+
		"│ Volume: [%s] %d%%%s%-17s │\n",
		volumeBar, m.volume, muteIcon, "")
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ ↑/↓:Volume  m:Mute  p:Play  s:Switch  d:Debug  q:Quit│
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders the driver path and the last error
func (m Model) renderDebug() string {
	path := m.path
	if path == "" {
		path = "(in-process)"
	}
	lastErr := m.lastError
	if lastErr == "" {
		lastErr = "(none)"
	}
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Library: %-41s │
│   Error:   %-41s │
`, truncate(path, 41), truncate(lastErr, 41))
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.send(Command{Kind: CommandQuit})
		return m, tea.Quit
	case "up":
		if m.volume < 100 {
			m.volume += 5
			if m.volume > 100 {
				m.volume = 100
			}
			m.sendVolume()
		}
	case "down":
		if m.volume > 0 {
			m.volume -= 5
			if m.volume < 0 {
				m.volume = 0
			}
			m.sendVolume()
		}
	case "m":
		m.muted = !m.muted
		m.sendVolume()
	case "p":
		m.send(Command{Kind: CommandPlay})
	case "s":
		m.send(Command{Kind: CommandSwitch})
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

func (m Model) sendVolume() {
	vol := m.volume
	if m.muted {
		vol = 0
	}
	m.send(Command{Kind: CommandVolume, Volume: vol})
}

// send drops commands when nobody is listening
func (m Model) send(cmd Command) {
	if m.control == nil {
		return
	}
	select {
	case m.control.Commands <- cmd:
	default:
	}
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Driver != "" {
		m.driverName = msg.Driver
		m.dynamic = msg.Dynamic
		m.path = msg.Path
		m.features = msg.Features
	}
	if msg.SampleRate != 0 {
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
	}
	m.buffers = msg.Buffers
	m.playing = msg.Playing
	m.nextIndex = msg.NextIndex
	m.loads = msg.Loads
	m.finished = msg.Finished
	if msg.Song != "" {
		m.song = msg.Song
		m.source = msg.Source
	}
	m.songPlaying = msg.SongPlaying
	if msg.Error != "" {
		m.lastError = msg.Error
	}
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Driver      string
	Dynamic     bool
	Path        string
	Features    string
	SampleRate  int
	Channels    int
	Buffers     int
	Playing     int
	NextIndex   int
	Loads       uint64
	Finished    uint64
	Song        string
	Source      string
	SongPlaying bool
	Error       string
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}
