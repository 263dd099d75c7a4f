package convo

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrWong99/voicetutor/pkg/audio"
)

// State is the coordinator's turn-taking state for one session.
type State int32

const (
	// StateIdle means no capture is running.
	StateIdle State = iota

	// StateListening means the capture loop is accumulating an utterance.
	StateListening

	// StateFinalizing means an utterance is being transcribed and answered.
	StateFinalizing

	// StateResponding means a reply is being synthesized or played.
	StateResponding
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateListening:
		return "listening"
	case StateFinalizing:
		return "finalizing"
	case StateResponding:
		return "responding"
	default:
		return "unknown"
	}
}

// playbackHandle tracks one in-flight playback + barge-in monitor pair so a
// successor can cancel and join it before starting.
type playbackHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Session holds all per-conversation state. Sessions are created by the
// [Manager] and driven by a [Coordinator].
type Session struct {
	// ID identifies the session in logs and metrics.
	ID string

	// Listener owns the capture stream for this session.
	Listener *audio.Listener

	// turnMu serialises history access and turn processing. Playback is
	// started outside this lock so a long clip never blocks the next turn's
	// transcription.
	turnMu  sync.Mutex
	history History

	// processing guards single-flight finalization: a finalize trigger that
	// fires while a turn is still in flight is dropped, not queued.
	processing atomic.Bool

	// turns joins in-flight turn goroutines so teardown never races a late
	// reply.
	turns sync.WaitGroup

	// state is the coordinator-owned turn state, readable concurrently.
	state atomic.Int32

	mu       sync.Mutex
	playback *playbackHandle

	createdAt time.Time
}

// NewSession creates a session around an existing listener.
func NewSession(id string, listener *audio.Listener) *Session {
	return &Session{ID: id, Listener: listener, createdAt: time.Now()}
}

// State returns the current turn state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(st State) {
	s.state.Store(int32(st))
}

// CreatedAt returns when the session was created.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// History returns a copy of the conversation log.
func (s *Session) History() []Turn {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	return s.history.Turns()
}

// ResetHistory clears the conversation log under the turn lock.
func (s *Session) ResetHistory() {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()
	s.history.Reset()
}

// setPlayback swaps in a new playback handle, returning the previous one.
func (s *Session) setPlayback(h *playbackHandle) *playbackHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.playback
	s.playback = h
	return prev
}

// StopPlayback cancels the in-flight playback pair, if any, and waits for
// both goroutines to finish. Replacement playback must call this first so
// at most one clip is ever audible.
func (s *Session) StopPlayback() {
	s.mu.Lock()
	h := s.playback
	s.playback = nil
	s.mu.Unlock()
	if h == nil {
		return
	}
	h.cancel()
	<-h.done
}
