// ABOUTME: Audio output backend package
// ABOUTME: Provides the Sink interface and the oto implementation
// Package output provides audio playback backends behind a common Sink
// interface.
//
// A Sink owns a playback clock and accepts normalized float32 samples
// scheduled against that clock. The oto implementation feeds a persistent
// player through a pipe in fixed 10ms blocks, filling gaps between scheduled
// segments with silence, so the clock advances at the device's real-time
// rate.
package output
