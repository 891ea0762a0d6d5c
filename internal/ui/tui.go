// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program and the command channel back to the demo
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// CommandKind identifies a user action
type CommandKind int

const (
	CommandVolume CommandKind = iota
	CommandPlay
	CommandSwitch
	CommandQuit
)

// Command is a user action forwarded from the TUI
type Command struct {
	Kind   CommandKind
	Volume int // 0-100, for CommandVolume
}

// Control carries commands from the TUI to the demo loop
type Control struct {
	Commands chan Command
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Commands: make(chan Command, 10),
	}
}

// NewModel creates a new TUI model
func NewModel(ctrl *Control) Model {
	return Model{
		volume:  100,
		control: ctrl,
	}
}

// Run creates the TUI program; the caller starts it
func Run(ctrl *Control) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl), tea.WithAltScreen())
	return p, nil
}
