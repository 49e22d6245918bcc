// ABOUTME: Prometheus metrics for the voice client
// ABOUTME: Counters and gauges for audio flow and scheduler health
package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics contains all Prometheus metrics for the voice client
type Metrics struct {
	// Audio flow
	ChunksReceived    prometheus.Counter
	AudioBytes        prometheus.Counter
	SegmentsScheduled prometheus.Counter
	ChunksUploaded    prometheus.Counter

	// Scheduler health
	QueueDepth    prometheus.Gauge
	Interruptions prometheus.Counter
	StreamsPlayed prometheus.Counter
	DeviceErrors  prometheus.Counter

	// Conversation
	TranscriptsStored prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ChunksReceived: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voicewire_chunks_received_total",
			Help: "Total number of audio chunks received from the voice API",
		}),
		AudioBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voicewire_audio_bytes_total",
			Help: "Total PCM bytes received from the voice API",
		}),
		SegmentsScheduled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voicewire_segments_scheduled_total",
			Help: "Total number of segments placed on the playback timeline",
		}),
		ChunksUploaded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voicewire_chunks_uploaded_total",
			Help: "Total number of capture chunks uploaded",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "voicewire_pending_queue_depth",
			Help: "Segments currently awaiting a scheduling slot",
		}),
		Interruptions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voicewire_interruptions_total",
			Help: "Total number of playback interruptions (barge-ins and stops)",
		}),
		StreamsPlayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voicewire_streams_played_total",
			Help: "Total number of response streams played to completion",
		}),
		DeviceErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voicewire_device_errors_total",
			Help: "Total number of output device failures",
		}),
		TranscriptsStored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "voicewire_transcripts_stored_total",
			Help: "Total number of transcript lines persisted",
		}),
	}
}

// Serve exposes /metrics on addr in a background goroutine
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		log.Printf("Metrics listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()
}
