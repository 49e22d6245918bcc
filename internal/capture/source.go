// ABOUTME: Capture sources for the recording side of a voice session
// ABOUTME: Delivers paced PCM16 chunks as a microphone would
package capture

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"
)

// DefaultSampleRate is the fixed recording rate expected by the voice API.
const DefaultSampleRate = 16000

// chunkInterval is the pacing of delivered chunks.
const chunkInterval = 100 * time.Millisecond

// Source delivers PCM16 capture chunks. The channel closes when the source
// is exhausted or closed.
type Source interface {
	Chunks() <-chan []byte
	SampleRate() int
	Close() error
}

// FileSource replays a PCM16 mono WAV file in real time, standing in for a
// microphone.
type FileSource struct {
	chunks     chan []byte
	sampleRate int
	cancel     context.CancelFunc
}

// NewFileSource opens a WAV file and starts pacing its audio
func NewFileSource(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture file: %w", err)
	}

	pcm, sampleRate, err := DecodeWAV(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode capture file %s: %w", path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &FileSource{
		chunks:     make(chan []byte),
		sampleRate: sampleRate,
		cancel:     cancel,
	}

	go s.pace(ctx, pcm)

	log.Printf("Capture source: %s (%dHz, %d bytes)", path, sampleRate, len(pcm))

	return s, nil
}

// pace delivers the audio in chunkInterval-sized slices on a real-time ticker
func (s *FileSource) pace(ctx context.Context, pcm []byte) {
	defer close(s.chunks)

	chunkBytes := s.sampleRate * 2 * int(chunkInterval/time.Millisecond) / 1000

	ticker := time.NewTicker(chunkInterval)
	defer ticker.Stop()

	for offset := 0; offset < len(pcm); offset += chunkBytes {
		end := offset + chunkBytes
		if end > len(pcm) {
			end = len(pcm)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}

		select {
		case s.chunks <- pcm[offset:end]:
		case <-ctx.Done():
			return
		}
	}
}

// Chunks returns the paced chunk channel
func (s *FileSource) Chunks() <-chan []byte {
	return s.chunks
}

// SampleRate returns the file's sample rate
func (s *FileSource) SampleRate() int {
	return s.sampleRate
}

// Close stops pacing
func (s *FileSource) Close() error {
	s.cancel()
	return nil
}
