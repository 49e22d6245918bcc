// ABOUTME: Oto-based audio sink implementation
// ABOUTME: Mixes timed segments into a continuous PCM feed for the oto library
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/voicewire/voicewire-go/pkg/audio"
)

// blockDuration is the granularity of the feed loop. Small blocks keep the
// amount of audio committed to the device bounded, so Halt takes effect
// within roughly one block.
const blockDuration = 10 * time.Millisecond

// timedSegment is a scheduled span of samples on the feed clock.
// start is the feed position of samples[pos].
type timedSegment struct {
	samples []float32
	start   int64
	pos     int
	done    func()
}

// Oto sink implementation using the oto library
type Oto struct {
	mu         sync.Mutex
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
	fed        int64 // mono frames written to the pipe so far
	pending    []*timedSegment
	fadeTail   []float32
	err        error
	ready      bool
	closed     bool
}

// NewOto creates a new Oto sink
func NewOto() *Oto {
	return &Oto{}
}

// Open initializes the output device and starts the feed loop
func (o *Oto) Open(sampleRate, channels int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	// oto allows one context per process; reuse on matching format
	if o.otoCtx != nil {
		if o.sampleRate == sampleRate && o.channels == channels {
			log.Printf("Audio output already initialized with same format, reusing context")
			return nil
		}
		return fmt.Errorf("output already open at %dHz %dch, cannot reopen at %dHz %dch",
			o.sampleRate, o.channels, sampleRate, channels)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	// Persistent player fed through a pipe for continuous streaming
	o.pipeReader, o.pipeWriter = io.Pipe()
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()

	o.ready = true

	go o.run()

	log.Printf("Audio output initialized: %dHz, %d channels", sampleRate, channels)

	return nil
}

// Now returns the feed clock position
func (o *Oto) Now() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.framesToDuration(o.fed)
}

// PlayAt schedules samples to start at the given feed clock position
func (o *Oto) PlayAt(samples []float32, at time.Duration, done func()) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.ready {
		return fmt.Errorf("output not initialized")
	}
	if o.err != nil {
		return fmt.Errorf("output failed: %w", o.err)
	}

	start := o.durationToFrames(at)
	if start < o.fed {
		start = o.fed
	}

	o.pending = append(o.pending, &timedSegment{
		samples: samples,
		start:   start,
		done:    done,
	})

	return nil
}

// Halt fades scheduled audio to silence and discards it.
// The fade is baked into a rendered tail, so playback after Halt resumes at
// unity gain automatically.
func (o *Oto) Halt(fade time.Duration) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.ready {
		return fmt.Errorf("output not initialized")
	}

	n := int(o.durationToFrames(fade))
	if n <= 0 {
		o.pending = nil
		o.fadeTail = nil
		return nil
	}

	tail := make([]float32, n)
	o.renderInto(tail)
	for i := range tail {
		tail[i] *= 1 - float32(i)/float32(n)
	}

	o.pending = nil
	o.fadeTail = tail

	return nil
}

// Suspend pauses the output device
func (o *Oto) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx == nil {
		return fmt.Errorf("output not initialized")
	}
	return o.otoCtx.Suspend()
}

// Resume reactivates a suspended output device
func (o *Oto) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx == nil {
		return fmt.Errorf("output not initialized")
	}
	return o.otoCtx.Resume()
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	o.closed = true
	o.ready = false
	pw, pr, player := o.pipeWriter, o.pipeReader, o.player
	o.pipeWriter, o.pipeReader, o.player = nil, nil, nil
	o.mu.Unlock()

	if pw != nil {
		pw.Close()
	}
	if player != nil {
		player.Close()
	}
	if pr != nil {
		pr.Close()
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
	}
	return nil
}

// run feeds fixed-size blocks to the pipe, paced by oto's backpressure.
// Gaps between scheduled segments come out as silence.
func (o *Oto) run() {
	frames := o.sampleRate / int(time.Second/blockDuration)
	block := make([]float32, frames)
	out := make([]byte, frames*o.channels*2)

	for {
		o.mu.Lock()
		if o.closed {
			o.mu.Unlock()
			return
		}
		pw := o.pipeWriter
		done := o.fillBlock(block)
		o.mu.Unlock()

		for i, s := range block {
			v := uint16(audio.SampleFromFloat(s))
			for c := 0; c < o.channels; c++ {
				binary.LittleEndian.PutUint16(out[(i*o.channels+c)*2:], v)
			}
		}

		if pw == nil {
			return
		}
		if _, err := pw.Write(out); err != nil {
			o.mu.Lock()
			o.err = err
			o.mu.Unlock()
			return
		}

		for _, fn := range done {
			fn()
		}
	}
}

// fillBlock mixes pending segments into dst at their scheduled offsets and
// advances the feed clock. Returns the done callbacks of segments fully
// consumed by this block. Caller must hold o.mu.
func (o *Oto) fillBlock(dst []float32) []func() {
	for i := range dst {
		dst[i] = 0
	}

	if len(o.fadeTail) > 0 {
		n := copy(dst, o.fadeTail)
		o.fadeTail = o.fadeTail[n:]
	}

	blockStart := o.fed
	blockEnd := blockStart + int64(len(dst))

	var done []func()
	keep := o.pending[:0]
	for _, seg := range o.pending {
		if seg.start < blockStart {
			// Late segment: clamp to the current feed position
			seg.start = blockStart
		}
		if seg.start >= blockEnd {
			keep = append(keep, seg)
			continue
		}

		off := int(seg.start - blockStart)
		n := len(seg.samples) - seg.pos
		if room := len(dst) - off; n > room {
			n = room
		}
		for i := 0; i < n; i++ {
			dst[off+i] += seg.samples[seg.pos+i]
		}
		seg.pos += n
		seg.start += int64(n)

		if seg.pos == len(seg.samples) {
			if seg.done != nil {
				done = append(done, seg.done)
			}
		} else {
			keep = append(keep, seg)
		}
	}
	o.pending = keep
	o.fed = blockEnd

	return done
}

// renderInto mixes what would play next into dst without advancing the feed
// clock or consuming segments. Caller must hold o.mu.
func (o *Oto) renderInto(dst []float32) {
	for i := 0; i < len(o.fadeTail) && i < len(dst); i++ {
		dst[i] += o.fadeTail[i]
	}

	start := o.fed
	end := start + int64(len(dst))

	for _, seg := range o.pending {
		s := seg.start
		if s < start {
			s = start
		}
		if s >= end {
			continue
		}

		idx := seg.pos + int(s-seg.start)
		for i := int(s - start); i < len(dst) && idx < len(seg.samples); i++ {
			dst[i] += seg.samples[idx]
			idx++
		}
	}
}

func (o *Oto) framesToDuration(frames int64) time.Duration {
	if o.sampleRate == 0 {
		return 0
	}
	return time.Duration(frames) * time.Second / time.Duration(o.sampleRate)
}

func (o *Oto) durationToFrames(d time.Duration) int64 {
	return int64(d) * int64(o.sampleRate) / int64(time.Second)
}
