// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the voice session UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Controls holds channels for user-initiated actions
type Controls struct {
	Interrupts chan struct{}
	Quit       chan struct{}
}

// NewControls creates a new control handler
func NewControls() *Controls {
	return &Controls{
		Interrupts: make(chan struct{}, 10),
		Quit:       make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model
func NewModel(controls *Controls) Model {
	return Model{
		streamState: "idle",
		controls:    controls,
	}
}

// Run starts the TUI
func Run(controls *Controls) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(controls), tea.WithAltScreen())
	return p, nil
}
