// ABOUTME: Audio sink interface definition
// ABOUTME: Common interface for timed playback backends
package output

import "time"

// Sink represents an audio output device with its own playback clock.
// Implementations must not block in PlayAt; scheduled audio plays at the
// requested position on the sink clock, with silence filling any gaps.
type Sink interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Now returns the current position on the sink's playback clock
	Now() time.Duration

	// PlayAt schedules normalized samples to start at the given clock
	// position. A position already in the past is clamped to the current
	// position. done, if non-nil, is called once the samples have been
	// handed to the device in full.
	PlayAt(samples []float32, at time.Duration, done func()) error

	// Halt fades the currently scheduled audio to silence over the given
	// duration, discards everything scheduled, and restores unity gain.
	Halt(fade time.Duration) error

	// Suspend pauses the output device
	Suspend() error

	// Resume reactivates a suspended output device
	Resume() error

	// Close releases output resources
	Close() error
}
