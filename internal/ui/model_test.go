// ABOUTME: Tests for TUI model and state management
// ABOUTME: Tests status updates, transcript assembly, and key handling
package ui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNewModel(t *testing.T) {
	model := NewModel(nil) // Controls are optional for testing

	if model.connected {
		t.Error("expected connected to be false initially")
	}

	if model.streamState != "idle" {
		t.Errorf("expected initial stream state idle, got %q", model.streamState)
	}

	if len(model.lines) != 0 {
		t.Error("expected empty transcript initially")
	}
}

func TestStatusMsgConnected(t *testing.T) {
	model := NewModel(nil)

	connected := true
	model.applyStatus(StatusMsg{
		Connected: &connected,
		ModelName: "gpt-realtime",
	})

	if !model.connected {
		t.Error("expected connected to be true after status update")
	}

	if model.modelName != "gpt-realtime" {
		t.Errorf("expected modelName 'gpt-realtime', got '%s'", model.modelName)
	}
}

func TestStatusMsgDisconnected(t *testing.T) {
	model := NewModel(nil)

	connected := true
	model.applyStatus(StatusMsg{Connected: &connected})

	disconnected := false
	model.applyStatus(StatusMsg{Connected: &disconnected})

	if model.connected {
		t.Error("expected connected to be false after disconnect")
	}
}

func TestStatusMsgStreamState(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{StreamState: "playing"})

	if model.streamState != "playing" {
		t.Errorf("expected stream state 'playing', got '%s'", model.streamState)
	}

	// Empty state does not clear the previous value
	model.applyStatus(StatusMsg{Note: "something"})
	if model.streamState != "playing" {
		t.Error("stream state should be retained across unrelated updates")
	}
}

func TestStatusMsgLevel(t *testing.T) {
	model := NewModel(nil)

	level := 0.5
	model.applyStatus(StatusMsg{Level: &level})
	if model.level != 0.5 {
		t.Errorf("expected level 0.5, got %f", model.level)
	}

	// Zero via pointer is a valid update
	zero := 0.0
	model.applyStatus(StatusMsg{Level: &zero})
	if model.level != 0 {
		t.Errorf("expected level 0, got %f", model.level)
	}
}

func TestTranscriptPartialGrowsInPlace(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{TranscriptRole: "assistant", TranscriptText: "Hel"})
	model.applyStatus(StatusMsg{TranscriptRole: "assistant", TranscriptText: "Hello"})

	if len(model.lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(model.lines))
	}
	if model.lines[0].text != "Hello" {
		t.Errorf("expected partial to grow in place, got %q", model.lines[0].text)
	}

	model.applyStatus(StatusMsg{
		TranscriptRole: "assistant", TranscriptText: "Hello there", TranscriptFinal: true,
	})

	if len(model.lines) != 1 || !model.lines[0].final {
		t.Error("final update should finalize the existing line")
	}
}

func TestTranscriptNewLineAfterFinal(t *testing.T) {
	model := NewModel(nil)

	model.applyStatus(StatusMsg{
		TranscriptRole: "user", TranscriptText: "hi", TranscriptFinal: true,
	})
	model.applyStatus(StatusMsg{
		TranscriptRole: "assistant", TranscriptText: "hello", TranscriptFinal: true,
	})

	if len(model.lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(model.lines))
	}
	if model.lines[0].role != "user" || model.lines[1].role != "assistant" {
		t.Error("unexpected line order")
	}
}

func TestTranscriptBounded(t *testing.T) {
	model := NewModel(nil)

	for i := 0; i < maxTranscriptLines+5; i++ {
		model.applyStatus(StatusMsg{
			TranscriptRole: "user", TranscriptText: "line", TranscriptFinal: true,
		})
	}

	if len(model.lines) != maxTranscriptLines {
		t.Errorf("expected %d lines, got %d", maxTranscriptLines, len(model.lines))
	}
}

func TestStatusMsgStats(t *testing.T) {
	model := NewModel(nil)

	depth := 3
	model.applyStatus(StatusMsg{
		Received:    100,
		Scheduled:   95,
		Interrupted: 2,
		QueueDepth:  &depth,
	})

	if model.received != 100 || model.scheduled != 95 || model.interrupted != 2 {
		t.Errorf("stats not applied: %d/%d/%d",
			model.received, model.scheduled, model.interrupted)
	}
	if model.queueDepth != 3 {
		t.Errorf("expected queue depth 3, got %d", model.queueDepth)
	}

	// Queue depth zero via pointer is a valid update
	zero := 0
	model.applyStatus(StatusMsg{QueueDepth: &zero})
	if model.queueDepth != 0 {
		t.Errorf("expected queue depth 0, got %d", model.queueDepth)
	}
}

func TestInterruptKeySignalsControls(t *testing.T) {
	controls := NewControls()
	model := NewModel(controls)

	model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'i'}})

	select {
	case <-controls.Interrupts:
	default:
		t.Error("expected interrupt signal on 'i'")
	}
}

func TestQuitKeySignalsControls(t *testing.T) {
	controls := NewControls()
	model := NewModel(controls)

	_, cmd := model.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})

	if cmd == nil {
		t.Error("expected quit command")
	}
	select {
	case <-controls.Quit:
	default:
		t.Error("expected quit signal on 'q'")
	}
}

func TestViewRendersState(t *testing.T) {
	model := NewModel(nil)
	model.width = 80
	model.height = 24

	connected := true
	model.applyStatus(StatusMsg{Connected: &connected, ModelName: "gpt-realtime"})
	model.applyStatus(StatusMsg{StreamState: "playing"})
	model.applyStatus(StatusMsg{
		TranscriptRole: "user", TranscriptText: "hello", TranscriptFinal: true,
	})

	view := model.View()
	if !strings.Contains(view, "Connected (gpt-realtime)") {
		t.Error("view missing connection status")
	}
	if !strings.Contains(view, "playing") {
		t.Error("view missing stream state")
	}
	if !strings.Contains(view, "hello") {
		t.Error("view missing transcript line")
	}
}

func TestTruncateFunction(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"this is longer than allowed", 10, "this is..."},
		{"", 10, ""},
		{"abcd", 4, "abcd"},
		{"abcde", 4, "a..."},
		{"日本語のテキストです", 5, "日本..."},
	}

	for _, tt := range tests {
		result := truncate(tt.input, tt.maxLen)
		if result != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, expected %q",
				tt.input, tt.maxLen, result, tt.expected)
		}
	}
}

func TestRenderBarClamps(t *testing.T) {
	bar := renderBar(150, 100, 10)
	if bar != strings.Repeat("█", 10) {
		t.Errorf("expected full bar for overflow value, got %q", bar)
	}
}
