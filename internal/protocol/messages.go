// ABOUTME: Realtime voice protocol message definitions
// ABOUTME: JSON event envelope for the streaming voice WebSocket API
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Client event types
const (
	TypeSessionUpdate          = "session.update"
	TypeInputAudioBufferAppend = "input_audio_buffer.append"
	TypeInputAudioBufferCommit = "input_audio_buffer.commit"
	TypeResponseCreate         = "response.create"
	TypeResponseCancel         = "response.cancel"
)

// Server event types
const (
	TypeSessionCreated              = "session.created"
	TypeResponseAudioDelta          = "response.audio.delta"
	TypeResponseAudioDone           = "response.audio.done"
	TypeResponseTranscriptDelta     = "response.audio_transcript.delta"
	TypeResponseTranscriptDone      = "response.audio_transcript.done"
	TypeInputTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"
	TypeInputAudioBufferSpeechStart = "input_audio_buffer.speech_started"
	TypeInputAudioBufferSpeechStop  = "input_audio_buffer.speech_stopped"
	TypeError                       = "error"
)

// Envelope carries the discriminator shared by every event
type Envelope struct {
	Type    string `json:"type"`
	EventID string `json:"event_id,omitempty"`
}

// TurnDetection configures server-side voice activity detection
type TurnDetection struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold,omitempty"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMs int     `json:"silence_duration_ms,omitempty"`
}

// Session holds the session configuration negotiated at connect time
type Session struct {
	Instructions      string         `json:"instructions,omitempty"`
	Voice             string         `json:"voice,omitempty"`
	InputAudioFormat  string         `json:"input_audio_format,omitempty"`
	OutputAudioFormat string         `json:"output_audio_format,omitempty"`
	Temperature       float64        `json:"temperature,omitempty"`
	TurnDetection     *TurnDetection `json:"turn_detection,omitempty"`
}

// SessionUpdate configures the session
type SessionUpdate struct {
	Envelope
	Session Session `json:"session"`
}

// InputAudioAppend uploads a base64 PCM16 chunk
type InputAudioAppend struct {
	Envelope
	Audio string `json:"audio"`
}

// AudioDelta is a base64 PCM16 chunk of synthesized speech
type AudioDelta struct {
	Envelope
	ResponseID string `json:"response_id,omitempty"`
	Delta      string `json:"delta"`
}

// TranscriptDelta is an incremental piece of the assistant's transcript
type TranscriptDelta struct {
	Envelope
	ResponseID string `json:"response_id,omitempty"`
	Delta      string `json:"delta"`
}

// InputTranscription is the completed transcription of the user's speech
type InputTranscription struct {
	Envelope
	ItemID     string `json:"item_id,omitempty"`
	Transcript string `json:"transcript"`
}

// ErrorDetail describes a server-reported failure
type ErrorDetail struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ErrorEvent wraps a server-reported failure
type ErrorEvent struct {
	Envelope
	Error ErrorDetail `json:"error"`
}

func (e ErrorDetail) String() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// NewEnvelope builds an envelope with a fresh event ID
func NewEnvelope(eventType string) Envelope {
	return Envelope{
		Type:    eventType,
		EventID: uuid.New().String(),
	}
}

// Marshal encodes any client event
func Marshal(event interface{}) ([]byte, error) {
	return json.Marshal(event)
}

// PeekType extracts the event type without decoding the full payload
func PeekType(data []byte) (string, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("failed to parse event envelope: %w", err)
	}
	if env.Type == "" {
		return "", fmt.Errorf("event missing type field")
	}
	return env.Type, nil
}
