package audio

// ringEntry pairs a frame with its speech classification so the collector
// can count voiced/unvoiced frames inside the padding window.
type ringEntry struct {
	frame  Frame
	speech bool
}

// Ring is a fixed-capacity sliding window over classified frames. Pushing
// onto a full ring evicts the oldest entry, so Len never exceeds Cap.
// Not safe for concurrent use; the segmenter owns it.
type Ring struct {
	entries []ringEntry
	start   int
	n       int
}

// NewRing creates a ring holding at most capacity entries. capacity must
// be at least 1.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{entries: make([]ringEntry, capacity)}
}

// Push appends a classified frame, evicting the oldest entry when full.
func (r *Ring) Push(f Frame, speech bool) {
	idx := (r.start + r.n) % len(r.entries)
	r.entries[idx] = ringEntry{frame: f, speech: speech}
	if r.n < len(r.entries) {
		r.n++
		return
	}
	r.start = (r.start + 1) % len(r.entries)
}

// Len returns the number of buffered entries.
func (r *Ring) Len() int { return r.n }

// Cap returns the fixed capacity.
func (r *Ring) Cap() int { return len(r.entries) }

// SpeechCount returns how many buffered frames were classified as speech.
func (r *Ring) SpeechCount() int {
	c := 0
	for i := 0; i < r.n; i++ {
		if r.entries[(r.start+i)%len(r.entries)].speech {
			c++
		}
	}
	return c
}

// SilenceCount returns how many buffered frames were classified as non-speech.
func (r *Ring) SilenceCount() int { return r.n - r.SpeechCount() }

// Frames returns the buffered frames in push order.
func (r *Ring) Frames() []Frame {
	out := make([]Frame, 0, r.n)
	for i := 0; i < r.n; i++ {
		out = append(out, r.entries[(r.start+i)%len(r.entries)].frame)
	}
	return out
}

// Clear discards all entries.
func (r *Ring) Clear() {
	r.start, r.n = 0, 0
}
