// ABOUTME: Tests for capture sources
// ABOUTME: Tests WAV round trips and paced file replay
package capture

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWAVRoundTrip(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}

	encoded, err := EncodeWAV(pcm, 16000)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	decoded, rate, err := DecodeWAV(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if rate != 16000 {
		t.Errorf("expected 16000Hz, got %d", rate)
	}
	if len(decoded) != len(pcm) {
		t.Fatalf("expected %d bytes, got %d", len(pcm), len(decoded))
	}
	for i := range pcm {
		if decoded[i] != pcm[i] {
			t.Errorf("byte %d: got %x, want %x", i, decoded[i], pcm[i])
		}
	}
}

func TestDecodeWAVRejectsStereo(t *testing.T) {
	encoded, err := EncodeWAV([]byte{0x00, 0x00}, 16000)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	// Flip the channel count field
	encoded[22] = 2

	if _, _, err := DecodeWAV(encoded); err == nil {
		t.Error("expected error for stereo WAV")
	}
}

func TestDecodeWAVTooShort(t *testing.T) {
	if _, _, err := DecodeWAV([]byte{'R', 'I', 'F', 'F'}); err == nil {
		t.Error("expected error for truncated WAV")
	}
}

func TestEncodeWAVBadRate(t *testing.T) {
	if _, err := EncodeWAV([]byte{0x00, 0x00}, 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestFileSourcePacesChunks(t *testing.T) {
	// 300ms of 16kHz audio: expect 3 paced chunks
	pcm := make([]byte, 16000*2*3/10)
	wav, err := EncodeWAV(pcm, 16000)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "utterance.wav")
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer src.Close()

	if src.SampleRate() != 16000 {
		t.Errorf("expected 16000Hz, got %d", src.SampleRate())
	}

	var total int
	count := 0
	deadline := time.After(3 * time.Second)
	for {
		select {
		case chunk, ok := <-src.Chunks():
			if !ok {
				if count != 3 {
					t.Errorf("expected 3 chunks, got %d", count)
				}
				if total != len(pcm) {
					t.Errorf("expected %d bytes total, got %d", len(pcm), total)
				}
				return
			}
			count++
			total += len(chunk)
		case <-deadline:
			t.Fatal("timed out waiting for chunks")
		}
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	if _, err := NewFileSource("/nonexistent/utterance.wav"); err == nil {
		t.Error("expected error for missing file")
	}
}
