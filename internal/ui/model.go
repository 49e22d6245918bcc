// ABOUTME: Bubbletea model for the voice session TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// maxTranscriptLines bounds the rolling conversation view
const maxTranscriptLines = 8

// transcriptLine is one rendered conversation line
type transcriptLine struct {
	role  string
	text  string
	final bool
}

// Model represents the TUI state
type Model struct {
	// Connection
	connected bool
	serverURL string
	modelName string

	// Playback
	streamState string
	level       float64 // meter level, 0..1

	// Conversation
	lines []transcriptLine
	note  string
	err   string

	// Stats
	received    int64
	scheduled   int64
	interrupted int64
	queueDepth  int

	// Controls
	controls *Controls

	// Dimensions
	width  int
	height int
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
	s += m.renderTranscript()
	s += m.renderMeter()
	s += m.renderStats()
	s += m.renderHelp()

	return s
}

// renderHeader renders connection and stream status
func (m Model) renderHeader() string {
	connStatus := "Disconnected"
	if m.connected {
		connStatus = fmt.Sprintf("Connected (%s)", m.modelName)
	}

	state := m.streamState
	if state == "" {
		state = "idle"
	}

	return fmt.Sprintf(`┌─ Voicewire ──────────────────────────────────────────┐
│ Status: %-45s │
│ Stream: %-45s │
├──────────────────────────────────────────────────────┤
`, connStatus, state)
}

// renderTranscript renders the rolling conversation
func (m Model) renderTranscript() string {
	if len(m.lines) == 0 {
		return "│ (no conversation yet)                                │\n"
	}

	s := ""
	for _, line := range m.lines {
		marker := " "
		if !line.final {
			marker = "…"
		}
		s += fmt.Sprintf("│ %-9s %-41s%s │\n",
			line.role+":", truncate(line.text, 41), marker)
	}
	return s
}

// renderMeter renders the playback volume bar
func (m Model) renderMeter() string {
	bar := renderBar(int(m.level*100), 100, 20)
	return fmt.Sprintf("│                                                      │\n"+
		"│ Level:  [%s] %3d%%%-15s │\n", bar, int(m.level*100), "")
}

// renderStats renders playback statistics
func (m Model) renderStats() string {
	s := fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Stats:  RX: %d  Scheduled: %d  Interrupts: %d%-4s │
│ Queue:  %d segments pending%-26s │
`, m.received, m.scheduled, m.interrupted, "", m.queueDepth, "")

	if m.note != "" {
		s += fmt.Sprintf("│ Note:   %-45s │\n", truncate(m.note, 45))
	}
	if m.err != "" {
		s += fmt.Sprintf("│ Error:  %-45s │\n", truncate(m.err, 45))
	}
	return s
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ i:Interrupt  q:Quit                                  │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		if m.controls != nil {
			select {
			case m.controls.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	case "i":
		if m.controls != nil {
			select {
			case m.controls.Interrupts <- struct{}{}:
			default:
			}
		}
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Connected != nil {
		m.connected = *msg.Connected
	}
	if msg.ServerURL != "" {
		m.serverURL = msg.ServerURL
	}
	if msg.ModelName != "" {
		m.modelName = msg.ModelName
	}
	if msg.StreamState != "" {
		m.streamState = msg.StreamState
	}
	if msg.Level != nil {
		m.level = *msg.Level
	}
	if msg.TranscriptText != "" || msg.TranscriptFinal {
		m.appendTranscript(msg)
	}
	if msg.Note != "" {
		m.note = msg.Note
	}
	if msg.Err != "" {
		m.err = msg.Err
	}
	if msg.Received != 0 {
		m.received = msg.Received
	}
	if msg.Scheduled != 0 {
		m.scheduled = msg.Scheduled
	}
	if msg.Interrupted != 0 {
		m.interrupted = msg.Interrupted
	}
	if msg.QueueDepth != nil {
		m.queueDepth = *msg.QueueDepth
	}
}

// appendTranscript adds or extends a conversation line. A partial assistant
// line replaces the previous partial so text grows in place.
func (m *Model) appendTranscript(msg StatusMsg) {
	line := transcriptLine{
		role:  msg.TranscriptRole,
		text:  msg.TranscriptText,
		final: msg.TranscriptFinal,
	}

	if n := len(m.lines); n > 0 {
		last := &m.lines[n-1]
		if !last.final && last.role == line.role {
			last.text = line.text
			last.final = line.final
			return
		}
	}

	m.lines = append(m.lines, line)
	if len(m.lines) > maxTranscriptLines {
		m.lines = m.lines[len(m.lines)-maxTranscriptLines:]
	}
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Connected       *bool
	ServerURL       string
	ModelName       string
	StreamState     string
	Level           *float64
	TranscriptRole  string
	TranscriptText  string
	TranscriptFinal bool
	Note            string
	Err             string
	Received        int64
	Scheduled       int64
	Interrupted     int64
	QueueDepth      *int
}

// Utility functions
func renderBar(value, max, width int) string {
	if value > max {
		value = max
	}
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
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-3]) + "..."
}
