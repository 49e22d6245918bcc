// ABOUTME: WebSocket client for the realtime voice API
// ABOUTME: Handles connection, session handshake, and event routing
package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/voicewire/voicewire-go/internal/protocol"
)

// Config holds client configuration
type Config struct {
	// URL is the full WebSocket endpoint, including the model query
	URL string

	// APIKey is sent as a bearer token
	APIKey string

	// Session is applied via session.update after the handshake
	Session protocol.Session
}

// Transcript is a piece of conversation text from either side
type Transcript struct {
	Role  string // "user" or "assistant"
	Text  string
	Final bool
}

// SpeechEvent signals server-side voice activity detection
type SpeechEvent int

const (
	SpeechStarted SpeechEvent = iota
	SpeechStopped
)

// Client is a WebSocket client for the realtime voice API
type Client struct {
	config Config
	conn   *websocket.Conn
	mu     sync.RWMutex

	// writeMu serializes writers: the websocket allows only one
	// concurrent write, and uploads race control events like cancel
	writeMu sync.Mutex

	// Event channels
	Audio       chan []byte // decoded PCM16 chunks of synthesized speech
	AudioDone   chan struct{}
	Transcripts chan Transcript
	Speech      chan SpeechEvent
	Errors      chan error

	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new realtime voice client
func NewClient(config Config) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:      config,
		Audio:       make(chan []byte, 100),
		AudioDone:   make(chan struct{}, 1),
		Transcripts: make(chan Transcript, 10),
		Speech:      make(chan SpeechEvent, 10),
		Errors:      make(chan error, 10),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Connect establishes the WebSocket connection and performs the handshake
func (c *Client) Connect() error {
	log.Printf("Connecting to %s", c.config.URL)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.config.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, _, err := websocket.DefaultDialer.Dial(c.config.URL, header)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

// handshake waits for session.created, then applies the session config
func (c *Client) handshake() error {
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read session.created: %w", err)
	}
	c.conn.SetReadDeadline(time.Time{})

	eventType, err := protocol.PeekType(data)
	if err != nil {
		return err
	}
	if eventType != protocol.TypeSessionCreated {
		return fmt.Errorf("expected %s, got %s", protocol.TypeSessionCreated, eventType)
	}

	log.Printf("Session created")

	update := protocol.SessionUpdate{
		Envelope: protocol.NewEnvelope(protocol.TypeSessionUpdate),
		Session:  c.config.Session,
	}
	if err := c.sendJSON(update); err != nil {
		return fmt.Errorf("failed to send session.update: %w", err)
	}

	return nil
}

// sendJSON sends a client event
func (c *Client) sendJSON(event interface{}) error {
	c.mu.RLock()
	conn, connected := c.conn, c.connected
	c.mu.RUnlock()

	if !connected {
		return fmt.Errorf("not connected")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(event)
}

// readMessages reads and routes incoming events
func (c *Client) readMessages() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Printf("Read error: %v", err)
			select {
			case c.Errors <- fmt.Errorf("connection lost: %w", err):
			default:
			}
			return
		}

		c.handleEvent(data)
	}
}

// handleEvent routes a server event onto the matching channel
func (c *Client) handleEvent(data []byte) {
	eventType, err := protocol.PeekType(data)
	if err != nil {
		log.Printf("Failed to parse event: %v", err)
		return
	}

	switch eventType {
	case protocol.TypeResponseAudioDelta:
		var delta protocol.AudioDelta
		if err := json.Unmarshal(data, &delta); err != nil {
			log.Printf("Failed to parse audio delta: %v", err)
			return
		}
		chunk, err := base64.StdEncoding.DecodeString(delta.Delta)
		if err != nil {
			log.Printf("Failed to decode audio delta: %v", err)
			return
		}
		select {
		case c.Audio <- chunk:
		case <-c.ctx.Done():
		}

	case protocol.TypeResponseAudioDone:
		select {
		case c.AudioDone <- struct{}{}:
		case <-c.ctx.Done():
		}

	case protocol.TypeResponseTranscriptDelta:
		var delta protocol.TranscriptDelta
		if err := json.Unmarshal(data, &delta); err != nil {
			log.Printf("Failed to parse transcript delta: %v", err)
			return
		}
		c.deliverTranscript(Transcript{Role: "assistant", Text: delta.Delta})

	case protocol.TypeResponseTranscriptDone:
		c.deliverTranscript(Transcript{Role: "assistant", Final: true})

	case protocol.TypeInputTranscriptionCompleted:
		var tr protocol.InputTranscription
		if err := json.Unmarshal(data, &tr); err != nil {
			log.Printf("Failed to parse input transcription: %v", err)
			return
		}
		c.deliverTranscript(Transcript{Role: "user", Text: tr.Transcript, Final: true})

	case protocol.TypeInputAudioBufferSpeechStart:
		select {
		case c.Speech <- SpeechStarted:
		case <-c.ctx.Done():
		}

	case protocol.TypeInputAudioBufferSpeechStop:
		select {
		case c.Speech <- SpeechStopped:
		case <-c.ctx.Done():
		}

	case protocol.TypeError:
		var ev protocol.ErrorEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Printf("Failed to parse error event: %v", err)
			return
		}
		select {
		case c.Errors <- fmt.Errorf("server error: %s", ev.Error):
		case <-c.ctx.Done():
		}

	case protocol.TypeSessionCreated:
		// Already handled during the handshake

	default:
		log.Printf("Unhandled event type: %s", eventType)
	}
}

func (c *Client) deliverTranscript(t Transcript) {
	select {
	case c.Transcripts <- t:
	case <-c.ctx.Done():
	}
}

// SendAudio uploads a PCM16 chunk from the capture side
func (c *Client) SendAudio(chunk []byte) error {
	return c.sendJSON(protocol.InputAudioAppend{
		Envelope: protocol.NewEnvelope(protocol.TypeInputAudioBufferAppend),
		Audio:    base64.StdEncoding.EncodeToString(chunk),
	})
}

// CommitInput finalizes the uploaded audio buffer
func (c *Client) CommitInput() error {
	return c.sendJSON(protocol.NewEnvelope(protocol.TypeInputAudioBufferCommit))
}

// CreateResponse asks the server to respond to the committed input
func (c *Client) CreateResponse() error {
	return c.sendJSON(protocol.NewEnvelope(protocol.TypeResponseCreate))
}

// CancelResponse aborts the in-progress response, e.g. on barge-in
func (c *Client) CancelResponse() error {
	return c.sendJSON(protocol.NewEnvelope(protocol.TypeResponseCancel))
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		c.conn.Close()
		log.Printf("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
