package audio

import (
	"math/rand"
	"testing"
	"time"
)

func frameWithTS(ts time.Duration) Frame {
	return Frame{Data: []byte{byte(ts / time.Millisecond)}, Timestamp: ts}
}

func TestRing_PushEvictsOldest(t *testing.T) {
	r := NewRing(3)
	for i := 0; i < 5; i++ {
		r.Push(frameWithTS(time.Duration(i)*time.Millisecond), i%2 == 0)
	}

	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}
	frames := r.Frames()
	for i, f := range frames {
		want := time.Duration(i+2) * time.Millisecond
		if f.Timestamp != want {
			t.Errorf("frame %d timestamp = %v, want %v", i, f.Timestamp, want)
		}
	}
}

func TestRing_Counts(t *testing.T) {
	r := NewRing(4)
	r.Push(Frame{}, true)
	r.Push(Frame{}, false)
	r.Push(Frame{}, true)

	if got := r.SpeechCount(); got != 2 {
		t.Errorf("SpeechCount() = %d, want 2", got)
	}
	if got := r.SilenceCount(); got != 1 {
		t.Errorf("SilenceCount() = %d, want 1", got)
	}

	// Fill past capacity; eviction drops the oldest speech frame.
	r.Push(Frame{}, false)
	r.Push(Frame{}, false)
	if got := r.SpeechCount(); got != 1 {
		t.Errorf("SpeechCount() after eviction = %d, want 1", got)
	}
}

func TestRing_Clear(t *testing.T) {
	r := NewRing(2)
	r.Push(Frame{}, true)
	r.Clear()
	if r.Len() != 0 || r.SpeechCount() != 0 {
		t.Errorf("after Clear: Len=%d SpeechCount=%d, want 0/0", r.Len(), r.SpeechCount())
	}
	// Reusable after clear.
	r.Push(Frame{}, false)
	if r.Len() != 1 {
		t.Errorf("Len() after reuse = %d, want 1", r.Len())
	}
}

func TestRing_LenNeverExceedsCap(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, capacity := range []int{1, 3, 10} {
		r := NewRing(capacity)
		for i := 0; i < 200; i++ {
			if rng.Intn(20) == 0 {
				r.Clear()
			}
			r.Push(Frame{}, rng.Intn(2) == 0)
			if r.Len() > r.Cap() {
				t.Fatalf("cap %d: Len() %d exceeds Cap() %d", capacity, r.Len(), r.Cap())
			}
			if r.SpeechCount()+r.SilenceCount() != r.Len() {
				t.Fatalf("cap %d: counts %d+%d do not sum to Len %d",
					capacity, r.SpeechCount(), r.SilenceCount(), r.Len())
			}
		}
	}
}

func TestNewRing_MinimumCapacity(t *testing.T) {
	r := NewRing(0)
	if r.Cap() != 1 {
		t.Errorf("Cap() = %d, want 1", r.Cap())
	}
}
