package convo

// speechWindow is a fixed-size sliding window over recent speaking-flag
// samples. Silence is declared only when every slot is false, which debounces
// short pauses inside an utterance. Owned by the coordinator's run loop; not
// safe for concurrent use.
type speechWindow struct {
	slots []bool
	next  int
	n     int
}

func newSpeechWindow(size int) *speechWindow {
	if size < 1 {
		size = 1
	}
	return &speechWindow{slots: make([]bool, size)}
}

// Push records one sample, evicting the oldest when full.
func (w *speechWindow) Push(speaking bool) {
	w.slots[w.next] = speaking
	w.next = (w.next + 1) % len(w.slots)
	if w.n < len(w.slots) {
		w.n++
	}
}

// Any reports whether any recorded sample observed speech.
func (w *speechWindow) Any() bool {
	for i := 0; i < w.n; i++ {
		if w.slots[i] {
			return true
		}
	}
	return false
}

// Full reports whether the window has wrapped at least once.
func (w *speechWindow) Full() bool { return w.n == len(w.slots) }

// Clear forgets all samples.
func (w *speechWindow) Clear() {
	for i := range w.slots {
		w.slots[i] = false
	}
	w.next = 0
	w.n = 0
}
