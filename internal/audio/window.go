package audio

// RollingWindow is a fixed-capacity sliding accumulator of audio chunks, used
// both for endpoint detection and for barge-in detection. Total buffered
// samples never exceed the window capacity by more than one chunk; oldest
// chunks are evicted first, but eviction never drops the sole remaining chunk.
//
// A window is owned by a single loop and is not safe for concurrent use.
type RollingWindow struct {
	capacity int
	chunks   []Chunk
	samples  int
}

// NewRollingWindow creates an empty window capped at capacity samples.
func NewRollingWindow(capacity int) *RollingWindow {
	return &RollingWindow{capacity: capacity}
}

// Push appends a chunk, evicting oldest chunks while the buffered sample
// count exceeds the capacity and more than one chunk remains.
func (w *RollingWindow) Push(chunk Chunk) {
	w.chunks = append(w.chunks, chunk)
	w.samples += chunk.Len()

	for w.samples > w.capacity && len(w.chunks) > 1 {
		old := w.chunks[0]
		w.chunks = w.chunks[1:]
		w.samples -= old.Len()
	}
}

// Samples returns the buffered sample count.
func (w *RollingWindow) Samples() int {
	return w.samples
}

// Snapshot returns the concatenation of the current chunks without mutating
// the window.
func (w *RollingWindow) Snapshot() []float32 {
	out := make([]float32, 0, w.samples)
	for _, c := range w.chunks {
		out = append(out, c.Samples...)
	}
	return out
}

// Clear empties the window.
func (w *RollingWindow) Clear() {
	w.chunks = nil
	w.samples = 0
}
