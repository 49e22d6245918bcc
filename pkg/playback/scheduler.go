// ABOUTME: Streaming playback scheduler
// ABOUTME: Places PCM segments on the sink timeline with bounded lookahead
package playback

import (
	"log"
	"sync"
	"time"

	"github.com/voicewire/voicewire-go/pkg/audio"
	"github.com/voicewire/voicewire-go/pkg/audio/output"
)

// Default scheduling parameters for 24kHz realtime voice output.
const (
	DefaultSampleRate       = 24000
	DefaultSegmentSamples   = 7680 // 320ms at 24kHz
	DefaultInitialLookahead = 100 * time.Millisecond
	DefaultLookaheadWindow  = 200 * time.Millisecond
	DefaultPollInterval     = 100 * time.Millisecond
	DefaultFadeDuration     = 100 * time.Millisecond
)

// State describes the stream lifecycle
type State int

const (
	StateIdle State = iota
	StateBuffering
	StatePlaying
	StateDraining
	StateInterrupted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuffering:
		return "buffering"
	case StatePlaying:
		return "playing"
	case StateDraining:
		return "draining"
	case StateInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// TapFunc receives a read-only copy of every scheduled segment
type TapFunc func(samples []float32)

// Config holds scheduler configuration
type Config struct {
	SampleRate       int
	SegmentSamples   int
	InitialLookahead time.Duration
	LookaheadWindow  time.Duration
	PollInterval     time.Duration
	FadeDuration     time.Duration

	// OnStreamComplete is called once the end of stream was marked and the
	// last segment finished playing
	OnStreamComplete func()

	// OnError is called when the output device fails
	OnError func(error)
}

// Stats tracks scheduler counters
type Stats struct {
	Received    int64 // chunks accepted by Submit
	Scheduled   int64 // segments placed on the sink timeline
	Truncated   int64 // chunks with an ignored odd trailing byte
	Interrupted int64 // explicit stops
}

// Scheduler converts raw PCM16 chunks into fixed-size segments and schedules
// them gaplessly on an output sink. All lifecycle methods are safe for
// concurrent use; none of them blocks on playback.
type Scheduler struct {
	cfg  Config
	sink output.Sink

	mu         sync.Mutex
	state      State
	queue      [][]float32
	seg        *Segmenter
	cursor     time.Duration // next free slot on the sink clock
	generation uint64        // stream epoch, bumped on start/stop/failure
	inFlight   int
	eos        bool
	wake       *time.Timer
	taps       map[string][]TapFunc

	stats Stats
}

// NewScheduler creates a scheduler playing through the given sink
func NewScheduler(sink output.Sink, cfg Config) *Scheduler {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.SegmentSamples == 0 {
		cfg.SegmentSamples = DefaultSegmentSamples
	}
	if cfg.InitialLookahead == 0 {
		cfg.InitialLookahead = DefaultInitialLookahead
	}
	if cfg.LookaheadWindow == 0 {
		cfg.LookaheadWindow = DefaultLookaheadWindow
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.FadeDuration == 0 {
		cfg.FadeDuration = DefaultFadeDuration
	}

	return &Scheduler{
		cfg:  cfg,
		sink: sink,
		seg:  NewSegmenter(cfg.SegmentSamples),
		taps: make(map[string][]TapFunc),
	}
}

// Submit accepts a chunk of little-endian PCM16 bytes and returns after
// enqueueing it. An odd trailing byte is ignored; an empty chunk is a no-op.
// Output device failures surface through OnError, not the return value of
// later Submits.
func (s *Scheduler) Submit(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}

	samples := audio.DecodePCM16(chunk)

	s.mu.Lock()
	if len(chunk)%2 != 0 {
		s.stats.Truncated++
		log.Printf("playback: ignoring odd trailing byte in %d-byte chunk", len(chunk))
	}
	if len(samples) == 0 {
		s.mu.Unlock()
		return nil
	}

	if s.state == StateIdle || s.state == StateInterrupted {
		s.generation++
		s.eos = false
		s.state = StateBuffering
		s.cursor = s.sink.Now() + s.cfg.InitialLookahead
	} else if s.state == StateDraining {
		// Late data reopens the stream; end of stream must be marked again
		// for the tail to flush and completion to fire
		s.eos = false
		s.state = StatePlaying
	}

	s.queue = append(s.queue, s.seg.Push(samples)...)
	s.stats.Received++
	s.mu.Unlock()

	return s.pass()
}

// MarkEndOfStream signals that no more chunks will arrive. The final partial
// segment, if any, is flushed; OnStreamComplete fires once everything queued
// has played out.
func (s *Scheduler) MarkEndOfStream() {
	s.mu.Lock()
	if s.state == StateIdle || s.state == StateInterrupted || s.eos {
		s.mu.Unlock()
		return
	}

	if tail := s.seg.Flush(); len(tail) > 0 {
		s.queue = append(s.queue, tail)
	}
	s.eos = true

	complete := len(s.queue) == 0 && s.inFlight == 0
	if complete {
		s.state = StateIdle
		s.eos = false
		s.cancelWakeLocked()
	} else {
		s.state = StateDraining
	}
	cb := s.cfg.OnStreamComplete
	s.mu.Unlock()

	if complete {
		if cb != nil {
			cb()
		}
		return
	}

	s.pass()
}

// Stop interrupts playback: the pending queue is cleared, scheduled audio
// fades out over the configured duration, and the cursor resets for the next
// stream. Safe to call at any time, including when already idle.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state == StateIdle {
		s.mu.Unlock()
		return
	}

	s.generation++
	gen := s.generation
	s.queue = nil
	s.seg.Reset()
	s.eos = false
	s.inFlight = 0
	s.cursor = 0
	s.cancelWakeLocked()
	s.state = StateInterrupted
	s.stats.Interrupted++
	fade := s.cfg.FadeDuration
	s.mu.Unlock()

	if err := s.sink.Halt(fade); err != nil {
		log.Printf("playback: halt failed: %v", err)
	}

	time.AfterFunc(fade, func() {
		s.mu.Lock()
		if s.generation == gen && s.state == StateInterrupted {
			s.state = StateIdle
		}
		s.mu.Unlock()
	})
}

// Resume reactivates a suspended output device and resets the cursor so the
// next stream starts with the initial lookahead.
func (s *Scheduler) Resume() error {
	if err := s.sink.Resume(); err != nil {
		return err
	}

	s.mu.Lock()
	s.cursor = s.sink.Now() + s.cfg.InitialLookahead
	if s.state == StateInterrupted {
		s.state = StateIdle
	}
	s.mu.Unlock()

	return nil
}

// RegisterTap attaches a named side-channel consumer. Multiple handlers may
// share one name; all of them receive a copy of every scheduled segment.
func (s *Scheduler) RegisterTap(name string, fn TapFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taps[name] = append(s.taps[name], fn)
}

// RemoveTap detaches all handlers registered under name
func (s *Scheduler) RemoveTap(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.taps, name)
}

// State returns the current stream state
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns scheduler counters
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// QueueDepth returns the number of segments awaiting a scheduling slot
func (s *Scheduler) QueueDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// pass drains the pending queue into the lookahead window and arms the next
// wake timer: a precise one when the window is full, a poll while waiting for
// more input.
func (s *Scheduler) pass() error {
	s.mu.Lock()
	if s.state == StateIdle || s.state == StateInterrupted {
		s.mu.Unlock()
		return nil
	}
	s.cancelWakeLocked()

	var scheduled [][]float32
	for len(s.queue) > 0 {
		now := s.sink.Now()
		if s.cursor >= now+s.cfg.LookaheadWindow {
			break
		}

		segment := s.queue[0]
		s.queue = s.queue[1:]

		// Never schedule into the past
		start := s.cursor
		if start < now {
			start = now
		}

		gen := s.generation
		if err := s.sink.PlayAt(segment, start, func() { s.segmentDone(gen) }); err != nil {
			notify := s.failLocked(err)
			s.mu.Unlock()
			notify()
			return err
		}

		s.inFlight++
		s.cursor = start + s.segmentDuration(len(segment))
		if s.state == StateBuffering {
			s.state = StatePlaying
		}
		s.stats.Scheduled++
		scheduled = append(scheduled, segment)
	}

	if len(s.queue) > 0 {
		// Window full: wake exactly when room opens up
		delay := s.cursor - (s.sink.Now() + s.cfg.LookaheadWindow)
		if delay < time.Millisecond {
			delay = time.Millisecond
		}
		s.wake = time.AfterFunc(delay, func() { s.pass() })
	} else if !s.eos && (s.state == StateBuffering || s.state == StatePlaying) {
		s.wake = time.AfterFunc(s.cfg.PollInterval, func() { s.pass() })
	}

	var taps []TapFunc
	if len(scheduled) > 0 {
		for _, fns := range s.taps {
			taps = append(taps, fns...)
		}
	}
	s.mu.Unlock()

	// Taps observe copies outside the lock so a slow handler cannot stall
	// scheduling or mutate playback data
	for _, segment := range scheduled {
		for _, fn := range taps {
			cp := make([]float32, len(segment))
			copy(cp, segment)
			fn(cp)
		}
	}

	return nil
}

// segmentDone runs when a scheduled segment finished playing. Callbacks from
// a superseded stream epoch are ignored.
func (s *Scheduler) segmentDone(gen uint64) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}

	s.inFlight--
	complete := s.eos && len(s.queue) == 0 && s.inFlight == 0 && s.seg.Pending() == 0
	if complete {
		s.state = StateIdle
		s.eos = false
		s.cancelWakeLocked()
	}
	cb := s.cfg.OnStreamComplete
	s.mu.Unlock()

	if complete && cb != nil {
		cb()
	}
}

// failLocked resets the stream after a device failure and returns the error
// notification to run outside the lock. Caller must hold s.mu.
func (s *Scheduler) failLocked(err error) func() {
	log.Printf("playback: output device failed: %v", err)

	s.generation++
	s.queue = nil
	s.seg.Reset()
	s.eos = false
	s.inFlight = 0
	s.cursor = 0
	s.cancelWakeLocked()
	s.state = StateIdle

	cb := s.cfg.OnError
	return func() {
		if cb != nil {
			cb(err)
		}
	}
}

func (s *Scheduler) cancelWakeLocked() {
	if s.wake != nil {
		s.wake.Stop()
		s.wake = nil
	}
}

func (s *Scheduler) segmentDuration(samples int) time.Duration {
	return time.Duration(samples) * time.Second / time.Duration(s.cfg.SampleRate)
}
