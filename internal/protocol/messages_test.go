// ABOUTME: Tests for protocol message encoding
// ABOUTME: Tests envelope routing and event serialization shapes
package protocol

import (
	"encoding/json"
	"testing"
)

func TestPeekType(t *testing.T) {
	data := []byte(`{"type":"response.audio.delta","delta":"AAAA"}`)

	eventType, err := PeekType(data)
	if err != nil {
		t.Fatalf("PeekType failed: %v", err)
	}
	if eventType != TypeResponseAudioDelta {
		t.Errorf("expected %s, got %s", TypeResponseAudioDelta, eventType)
	}
}

func TestPeekTypeMissing(t *testing.T) {
	if _, err := PeekType([]byte(`{"delta":"AAAA"}`)); err == nil {
		t.Error("expected error for event without type")
	}
}

func TestPeekTypeMalformed(t *testing.T) {
	if _, err := PeekType([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed event")
	}
}

func TestSessionUpdateShape(t *testing.T) {
	update := SessionUpdate{
		Envelope: NewEnvelope(TypeSessionUpdate),
		Session: Session{
			Instructions:      "Keep responses concise.",
			Voice:             "alloy",
			InputAudioFormat:  "pcm16",
			OutputAudioFormat: "pcm16",
			Temperature:       0.7,
			TurnDetection: &TurnDetection{
				Type:              "server_vad",
				Threshold:         0.5,
				PrefixPaddingMs:   300,
				SilenceDurationMs: 200,
			},
		},
	}

	data, err := Marshal(update)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded["type"] != TypeSessionUpdate {
		t.Errorf("expected type %s, got %v", TypeSessionUpdate, decoded["type"])
	}
	if decoded["event_id"] == "" {
		t.Error("expected a generated event_id")
	}

	session, ok := decoded["session"].(map[string]interface{})
	if !ok {
		t.Fatal("expected nested session object")
	}
	if session["voice"] != "alloy" {
		t.Errorf("expected voice alloy, got %v", session["voice"])
	}
	td, ok := session["turn_detection"].(map[string]interface{})
	if !ok {
		t.Fatal("expected turn_detection object")
	}
	if td["type"] != "server_vad" {
		t.Errorf("expected server_vad, got %v", td["type"])
	}
}

func TestAudioDeltaDecode(t *testing.T) {
	data := []byte(`{"type":"response.audio.delta","response_id":"resp_1","delta":"UENNMTY="}`)

	var delta AudioDelta
	if err := json.Unmarshal(data, &delta); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if delta.Delta != "UENNMTY=" {
		t.Errorf("unexpected delta payload: %s", delta.Delta)
	}
	if delta.ResponseID != "resp_1" {
		t.Errorf("unexpected response id: %s", delta.ResponseID)
	}
}

func TestErrorEventString(t *testing.T) {
	detail := ErrorDetail{Code: "session_expired", Message: "session has expired"}
	if got := detail.String(); got != "session_expired: session has expired" {
		t.Errorf("unexpected error string: %s", got)
	}

	detail = ErrorDetail{Message: "bare message"}
	if got := detail.String(); got != "bare message" {
		t.Errorf("unexpected error string: %s", got)
	}
}

func TestNewEnvelopeUnique(t *testing.T) {
	a := NewEnvelope(TypeResponseCreate)
	b := NewEnvelope(TypeResponseCreate)
	if a.EventID == b.EventID {
		t.Error("expected unique event ids")
	}
}
