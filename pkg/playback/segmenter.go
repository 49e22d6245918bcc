// ABOUTME: Fixed-size segment slicing for normalized audio samples
// ABOUTME: Carries partial segments across chunk boundaries
package playback

// Segmenter groups incoming samples into fixed-size segments. Samples left
// over after the last full segment are carried into the next Push, so segment
// boundaries are independent of how the input was chunked.
type Segmenter struct {
	size  int
	carry []float32
}

// NewSegmenter creates a segmenter producing segments of size samples
func NewSegmenter(size int) *Segmenter {
	return &Segmenter{size: size}
}

// Push appends samples to the carry and returns all full segments
func (g *Segmenter) Push(samples []float32) [][]float32 {
	g.carry = append(g.carry, samples...)

	var segments [][]float32
	for len(g.carry) >= g.size {
		seg := make([]float32, g.size)
		copy(seg, g.carry[:g.size])
		segments = append(segments, seg)
		g.carry = g.carry[g.size:]
	}

	// Re-slice so the retained carry does not pin the old backing array
	if len(segments) > 0 && len(g.carry) > 0 {
		carry := make([]float32, len(g.carry))
		copy(carry, g.carry)
		g.carry = carry
	}

	return segments
}

// Flush returns the remaining partial segment, if any, and resets the carry
func (g *Segmenter) Flush() []float32 {
	if len(g.carry) == 0 {
		return nil
	}
	tail := g.carry
	g.carry = nil
	return tail
}

// Pending returns the number of samples held back waiting for a full segment
func (g *Segmenter) Pending() int {
	return len(g.carry)
}

// Reset discards any carried samples
func (g *Segmenter) Reset() {
	g.carry = nil
}
