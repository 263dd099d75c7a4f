package convo

import "testing"

func TestSpeechWindow_FillAndWrap(t *testing.T) {
	w := newSpeechWindow(3)

	if w.Full() {
		t.Error("fresh window reports full")
	}
	if w.Any() {
		t.Error("fresh window reports speech")
	}

	w.Push(false)
	w.Push(true)
	if w.Full() {
		t.Error("full after 2 of 3 samples")
	}
	if !w.Any() {
		t.Error("speech sample not observed")
	}

	w.Push(false)
	if !w.Full() {
		t.Error("not full after 3 samples")
	}

	// Two more pushes evict the oldest samples, including the speech one.
	w.Push(false)
	w.Push(false)
	if w.Any() {
		t.Error("evicted speech sample still observed")
	}
}

func TestSpeechWindow_Clear(t *testing.T) {
	w := newSpeechWindow(2)
	w.Push(true)
	w.Push(true)
	w.Clear()

	if w.Full() || w.Any() {
		t.Error("Clear did not reset the window")
	}
	w.Push(false)
	w.Push(false)
	if !w.Full() {
		t.Error("window unusable after Clear")
	}
}

func TestSpeechWindow_MinimumSize(t *testing.T) {
	w := newSpeechWindow(0)
	w.Push(true)
	if !w.Full() || !w.Any() {
		t.Error("size-1 fallback window broken")
	}
}
