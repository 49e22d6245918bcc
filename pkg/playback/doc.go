// ABOUTME: Streaming playback scheduler package
// ABOUTME: Gapless scheduling of PCM chunks with interruption support
// Package playback turns a bursty stream of raw PCM16 chunks into gapless
// audio output.
//
// The Scheduler owns a cursor on the output sink's clock, a FIFO queue of
// fixed-size segments, and a wake timer. Chunks submitted at arbitrary times
// are normalized, sliced into segments (with remainders carried across
// chunks), and placed on the timeline no earlier than both the cursor and the
// sink's current position, so segments never overlap and never land in the
// past. Scheduling stays within a bounded lookahead window; when the window
// is full the scheduler sleeps until room opens up.
//
// Lifecycle: a stream starts on the first Submit, drains after
// MarkEndOfStream, and can be interrupted at any point with Stop, which fades
// the output rather than cutting it. Taps registered on the scheduler observe
// copies of every scheduled segment, e.g. for volume metering via Meter.
//
// Example:
//
//	sink := output.NewOto()
//	sink.Open(24000, 1)
//	sched := playback.NewScheduler(sink, playback.Config{
//	    OnStreamComplete: func() { log.Println("done") },
//	})
//	sched.Submit(pcmChunk)
//	sched.MarkEndOfStream()
package playback
