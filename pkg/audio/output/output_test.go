// ABOUTME: Audio sink tests
// ABOUTME: Tests the oto sink's mixing, fade, and clock logic without a device
package output

import (
	"testing"
	"time"
)

func TestOtoImplementsSink(t *testing.T) {
	var _ Sink = (*Oto)(nil)
}

func TestNewOto(t *testing.T) {
	out := NewOto()
	if out == nil {
		t.Fatal("NewOto returned nil")
	}
}

func TestNowBeforeOpen(t *testing.T) {
	out := NewOto()
	if out.Now() != 0 {
		t.Errorf("expected zero clock before open, got %v", out.Now())
	}
}

func TestPlayAtBeforeOpen(t *testing.T) {
	out := NewOto()
	if err := out.PlayAt([]float32{0.5}, 0, nil); err == nil {
		t.Error("expected error scheduling on unopened sink")
	}
}

// newTestSink builds an Oto with format state but no real device, so the
// mixing internals can be exercised directly.
func newTestSink(rate int) *Oto {
	return &Oto{sampleRate: rate, channels: 1, ready: true}
}

func TestFillBlockSilenceWhenEmpty(t *testing.T) {
	o := newTestSink(24000)
	block := make([]float32, 240)
	block[0] = 0.7 // stale data must be zeroed

	o.fillBlock(block)

	for i, s := range block {
		if s != 0 {
			t.Fatalf("expected silence at %d, got %v", i, s)
		}
	}

	if o.fed != 240 {
		t.Errorf("expected feed clock at 240 frames, got %d", o.fed)
	}
}

func TestFillBlockPlacesSegmentAtOffset(t *testing.T) {
	o := newTestSink(24000)

	samples := []float32{0.1, 0.2, 0.3}
	if err := o.PlayAt(samples, o.framesToDuration(100), nil); err != nil {
		t.Fatalf("PlayAt failed: %v", err)
	}

	block := make([]float32, 240)
	o.fillBlock(block)

	if block[99] != 0 {
		t.Errorf("expected silence before segment start, got %v", block[99])
	}

	for i, want := range samples {
		if block[100+i] != want {
			t.Errorf("sample %d: expected %v, got %v", i, want, block[100+i])
		}
	}
}

func TestFillBlockSpansBlocks(t *testing.T) {
	o := newTestSink(24000)

	samples := make([]float32, 300)
	for i := range samples {
		samples[i] = 0.25
	}

	doneCalled := false
	if err := o.PlayAt(samples, 0, func() { doneCalled = true }); err != nil {
		t.Fatalf("PlayAt failed: %v", err)
	}

	block := make([]float32, 240)
	done := o.fillBlock(block)
	if len(done) != 0 {
		t.Error("segment should not complete in first block")
	}

	done = o.fillBlock(block)
	if len(done) != 1 {
		t.Fatalf("expected 1 done callback, got %d", len(done))
	}
	done[0]()
	if !doneCalled {
		t.Error("done callback not invoked")
	}

	// Remainder of second block is silence
	if block[60] != 0 {
		t.Errorf("expected silence after segment end, got %v", block[60])
	}
}

func TestFillBlockClampsLateSegment(t *testing.T) {
	o := newTestSink(24000)

	// Advance the clock past the segment's start
	block := make([]float32, 240)
	o.fillBlock(block)

	o.pending = append(o.pending, &timedSegment{samples: []float32{0.5}, start: 0})
	o.fillBlock(block)

	if block[0] != 0.5 {
		t.Errorf("late segment should play at the current position, got %v", block[0])
	}
}

func TestHaltRendersFadeTail(t *testing.T) {
	o := newTestSink(24000)

	samples := make([]float32, 24000)
	for i := range samples {
		samples[i] = 1.0
	}
	if err := o.PlayAt(samples, 0, nil); err != nil {
		t.Fatalf("PlayAt failed: %v", err)
	}

	if err := o.Halt(100 * time.Millisecond); err != nil {
		t.Fatalf("Halt failed: %v", err)
	}

	if len(o.pending) != 0 {
		t.Error("expected pending segments discarded after halt")
	}

	if len(o.fadeTail) != 2400 {
		t.Fatalf("expected 2400-frame fade tail, got %d", len(o.fadeTail))
	}

	if o.fadeTail[0] != 1.0 {
		t.Errorf("fade should start at full level, got %v", o.fadeTail[0])
	}

	if last := o.fadeTail[len(o.fadeTail)-1]; last > 0.001 {
		t.Errorf("fade should end near silence, got %v", last)
	}

	// Ramp is monotonically non-increasing
	for i := 1; i < len(o.fadeTail); i++ {
		if o.fadeTail[i] > o.fadeTail[i-1] {
			t.Fatalf("fade not monotonic at %d", i)
		}
	}
}

func TestHaltIdempotent(t *testing.T) {
	o := newTestSink(24000)

	if err := o.Halt(100 * time.Millisecond); err != nil {
		t.Fatalf("first halt failed: %v", err)
	}
	if err := o.Halt(100 * time.Millisecond); err != nil {
		t.Fatalf("second halt failed: %v", err)
	}

	// Nothing scheduled, so the tail is pure silence
	for i, s := range o.fadeTail {
		if s != 0 {
			t.Fatalf("expected silent fade tail at %d, got %v", i, s)
		}
	}
}

func TestDurationFrameConversion(t *testing.T) {
	o := newTestSink(24000)

	if got := o.durationToFrames(320 * time.Millisecond); got != 7680 {
		t.Errorf("expected 7680 frames, got %d", got)
	}

	if got := o.framesToDuration(7680); got != 320*time.Millisecond {
		t.Errorf("expected 320ms, got %v", got)
	}
}
