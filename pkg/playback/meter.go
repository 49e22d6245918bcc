// ABOUTME: Volume metering tap
// ABOUTME: Computes smoothed RMS levels from scheduled segments
package playback

import (
	"math"
	"sync"
	"time"
)

// DefaultMeterInterval bounds how often the meter emits updates.
const DefaultMeterInterval = 25 * time.Millisecond

// meterDecay is the fraction of the previous level retained when the
// incoming RMS is lower, giving the meter a smooth falloff.
const meterDecay = 0.7

// VolumeFrame is a single meter reading
type VolumeFrame struct {
	Volume float64 // in [0, 1]
}

// Meter computes an exponentially-smoothed RMS level from segments it
// observes. Its Tap method is a TapFunc suitable for Scheduler.RegisterTap.
type Meter struct {
	mu       sync.Mutex
	interval time.Duration
	lastEmit time.Time
	volume   float64
	emit     func(VolumeFrame)
	now      func() time.Time
}

// NewMeter creates a meter emitting at most one frame per interval
func NewMeter(interval time.Duration, emit func(VolumeFrame)) *Meter {
	if interval == 0 {
		interval = DefaultMeterInterval
	}
	return &Meter{
		interval: interval,
		emit:     emit,
		now:      time.Now,
	}
}

// Tap observes a scheduled segment and updates the level
func (m *Meter) Tap(samples []float32) {
	rms := rootMeanSquare(samples)

	m.mu.Lock()
	level := m.volume * meterDecay
	if rms > level {
		level = rms
	}
	if level > 1 {
		level = 1
	}
	m.volume = level

	now := m.now()
	fire := now.Sub(m.lastEmit) >= m.interval
	if fire {
		m.lastEmit = now
	}
	emit := m.emit
	m.mu.Unlock()

	if fire && emit != nil {
		emit(VolumeFrame{Volume: level})
	}
}

// Volume returns the current smoothed level
func (m *Meter) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func rootMeanSquare(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
