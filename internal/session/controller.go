// ABOUTME: Session controller wiring the voice API to playback and history
// ABOUTME: Routes audio to the scheduler, handles barge-in and transcripts
package session

import (
	"context"
	"log"
	"strings"

	"github.com/voicewire/voicewire-go/internal/capture"
	"github.com/voicewire/voicewire-go/internal/client"
	"github.com/voicewire/voicewire-go/internal/history"
	"github.com/voicewire/voicewire-go/internal/metrics"
	"github.com/voicewire/voicewire-go/pkg/audio/output"
	"github.com/voicewire/voicewire-go/pkg/playback"
)

// VoiceAPI is the upstream control surface the controller drives
type VoiceAPI interface {
	SendAudio(chunk []byte) error
	CommitInput() error
	CreateResponse() error
	CancelResponse() error
}

// Events bundles the server event channels consumed by Run
type Events struct {
	Audio       <-chan []byte
	AudioDone   <-chan struct{}
	Transcripts <-chan client.Transcript
	Speech      <-chan client.SpeechEvent
	Errors      <-chan error
}

// EventsFrom adapts a connected client's channels
func EventsFrom(c *client.Client) Events {
	return Events{
		Audio:       c.Audio,
		AudioDone:   c.AudioDone,
		Transcripts: c.Transcripts,
		Speech:      c.Speech,
		Errors:      c.Errors,
	}
}

// Status is a snapshot pushed to the UI on every noteworthy change
type Status struct {
	StreamState playback.State
	Transcript  *client.Transcript
	Err         error
	Note        string
}

// Config holds controller configuration
type Config struct {
	// SessionID identifies this conversation in the transcript store
	SessionID string

	// Model is recorded alongside the session
	Model string

	// Playback configures the scheduler; completion and error callbacks
	// are owned by the controller
	Playback playback.Config

	// OnStatus receives UI updates. May be nil.
	OnStatus func(Status)
}

// Controller owns one voice conversation: it feeds synthesized audio into
// the playback scheduler, uploads capture audio, persists transcripts, and
// interrupts playback when the user starts speaking.
type Controller struct {
	cfg   Config
	api   VoiceAPI
	sched *playback.Scheduler
	store *history.Store   // may be nil
	m     *metrics.Metrics // may be nil

	assistantText strings.Builder
	lastScheduled int64
}

// New creates a controller playing through sink. store and m may be nil.
func New(cfg Config, sink output.Sink, api VoiceAPI, store *history.Store, m *metrics.Metrics) *Controller {
	c := &Controller{
		cfg:   cfg,
		api:   api,
		store: store,
		m:     m,
	}

	pcfg := cfg.Playback
	pcfg.OnStreamComplete = c.streamComplete
	pcfg.OnError = c.deviceError
	c.sched = playback.NewScheduler(sink, pcfg)

	return c
}

// Scheduler exposes the playback scheduler, e.g. for tap registration
func (c *Controller) Scheduler() *playback.Scheduler {
	return c.sched
}

// Run consumes server events until ctx is cancelled or all channels close
func (c *Controller) Run(ctx context.Context, ev Events) {
	if c.store != nil {
		if err := c.store.CreateSession(ctx, c.cfg.SessionID, c.cfg.Model); err != nil {
			log.Printf("session: failed to record session: %v", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case chunk, ok := <-ev.Audio:
			if !ok {
				return
			}
			c.handleAudio(chunk)

		case <-ev.AudioDone:
			c.sched.MarkEndOfStream()
			c.emit(Status{StreamState: c.sched.State()})

		case t, ok := <-ev.Transcripts:
			if !ok {
				return
			}
			c.handleTranscript(ctx, t)

		case sp := <-ev.Speech:
			if sp == client.SpeechStarted {
				c.bargeIn()
			}

		case err := <-ev.Errors:
			c.emit(Status{StreamState: c.sched.State(), Err: err})
		}
	}
}

// Upload streams a capture source to the server, then requests a response.
// Blocks until the source is exhausted or ctx is cancelled.
func (c *Controller) Upload(ctx context.Context, src capture.Source) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case chunk, ok := <-src.Chunks():
			if !ok {
				if err := c.api.CommitInput(); err != nil {
					return err
				}
				return c.api.CreateResponse()
			}
			if err := c.api.SendAudio(chunk); err != nil {
				return err
			}
			if c.m != nil {
				c.m.ChunksUploaded.Inc()
			}
		}
	}
}

func (c *Controller) handleAudio(chunk []byte) {
	if c.m != nil {
		c.m.ChunksReceived.Inc()
		c.m.AudioBytes.Add(float64(len(chunk)))
	}

	if err := c.sched.Submit(chunk); err != nil {
		log.Printf("session: submit failed: %v", err)
		return
	}

	if c.m != nil {
		c.m.QueueDepth.Set(float64(c.sched.QueueDepth()))
		stats := c.sched.Stats()
		if d := stats.Scheduled - c.lastScheduled; d > 0 {
			c.m.SegmentsScheduled.Add(float64(d))
			c.lastScheduled = stats.Scheduled
		}
	}
	c.emit(Status{StreamState: c.sched.State()})
}

// Interrupt stops playback and cancels the in-progress response, e.g. from
// a UI keybinding
func (c *Controller) Interrupt() {
	c.bargeIn()
}

// bargeIn interrupts playback and aborts the in-progress response
func (c *Controller) bargeIn() {
	if state := c.sched.State(); state == playback.StateIdle {
		return
	}

	log.Printf("session: barge-in, interrupting playback")
	c.sched.Stop()

	if err := c.api.CancelResponse(); err != nil {
		log.Printf("session: cancel failed: %v", err)
	}
	if c.m != nil {
		c.m.Interruptions.Inc()
	}
	c.assistantText.Reset()

	c.emit(Status{StreamState: c.sched.State(), Note: "interrupted"})
}

func (c *Controller) handleTranscript(ctx context.Context, t client.Transcript) {
	switch t.Role {
	case "assistant":
		if !t.Final {
			c.assistantText.WriteString(t.Text)
			partial := t
			partial.Text = c.assistantText.String()
			c.emit(Status{StreamState: c.sched.State(), Transcript: &partial})
			return
		}

		full := c.assistantText.String()
		c.assistantText.Reset()
		if full == "" {
			return
		}
		c.persist(ctx, "assistant", full)
		c.emit(Status{StreamState: c.sched.State(), Transcript: &client.Transcript{
			Role: "assistant", Text: full, Final: true,
		}})

	case "user":
		c.persist(ctx, "user", t.Text)
		c.emit(Status{StreamState: c.sched.State(), Transcript: &t})
	}
}

func (c *Controller) persist(ctx context.Context, role, text string) {
	if c.store == nil || text == "" {
		return
	}
	if err := c.store.AppendUtterance(ctx, c.cfg.SessionID, role, text); err != nil {
		log.Printf("session: failed to store transcript: %v", err)
		return
	}
	if c.m != nil {
		c.m.TranscriptsStored.Inc()
	}
}

func (c *Controller) streamComplete() {
	if c.m != nil {
		c.m.StreamsPlayed.Inc()
		c.m.QueueDepth.Set(0)
	}
	c.emit(Status{StreamState: playback.StateIdle, Note: "response complete"})
}

func (c *Controller) deviceError(err error) {
	log.Printf("session: playback device error: %v", err)
	if c.m != nil {
		c.m.DeviceErrors.Inc()
	}
	c.emit(Status{StreamState: playback.StateIdle, Err: err})
}

func (c *Controller) emit(s Status) {
	if c.cfg.OnStatus != nil {
		c.cfg.OnStatus(s)
	}
}
