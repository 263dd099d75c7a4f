package convo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MrWong99/voicetutor/pkg/audio"
)

// ListenerFactory creates a fresh capture listener for a new session.
type ListenerFactory func() (*audio.Listener, error)

// running tracks one session's loop goroutine.
type running struct {
	session *Session
	cancel  context.CancelFunc
	done    chan struct{}
}

// Manager owns the session registry and the lifecycle of each session's
// coordinator loop. A coarse mutex guards the registry; per-session state
// has its own locks.
type Manager struct {
	coordinator *Coordinator
	newListener ListenerFactory

	mu       sync.Mutex
	sessions map[string]*running
}

// NewManager creates a Manager.
func NewManager(coordinator *Coordinator, newListener ListenerFactory) (*Manager, error) {
	if coordinator == nil {
		return nil, fmt.Errorf("convo: manager needs a coordinator")
	}
	if newListener == nil {
		return nil, fmt.Errorf("convo: manager needs a listener factory")
	}
	return &Manager{
		coordinator: coordinator,
		newListener: newListener,
		sessions:    make(map[string]*running),
	}, nil
}

// StartSession creates the session and launches its turn loop. Starting an
// ID that is already running is an error.
func (m *Manager) StartSession(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("convo: session id must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; exists {
		return nil, fmt.Errorf("convo: session %q already running", id)
	}

	listener, err := m.newListener()
	if err != nil {
		return nil, fmt.Errorf("convo: create listener for session %q: %w", id, err)
	}

	s := NewSession(id, listener)
	runCtx, cancel := context.WithCancel(ctx)
	r := &running{session: s, cancel: cancel, done: make(chan struct{})}
	m.sessions[id] = r

	go func() {
		defer close(r.done)
		if err := m.coordinator.Run(runCtx, s); err != nil && runCtx.Err() == nil {
			slog.Error("session loop exited", "session", id, "error", err)
		}
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()
	}()

	slog.Info("session started", "session", id)
	return s, nil
}

// Session returns the live session with the given ID, if any.
func (m *Manager) Session(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return r.session, true
}

// SessionIDs returns the IDs of all live sessions.
func (m *Manager) SessionIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

// StopSession cancels the session's loop and waits for capture and playback
// to wind down. Stopping an unknown ID is a no-op.
func (m *Manager) StopSession(id string) {
	m.mu.Lock()
	r, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return
	}
	r.cancel()
	<-r.done
	slog.Info("session stopped", "session", id)
}

// StopAll stops every live session. Used at shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	rs := make([]*running, 0, len(m.sessions))
	for _, r := range m.sessions {
		rs = append(rs, r)
	}
	m.mu.Unlock()

	for _, r := range rs {
		r.cancel()
		<-r.done
	}
	if len(rs) > 0 {
		slog.Info("all sessions stopped", "count", len(rs))
	}
}

// ResetHistory clears the conversation log of a live session.
func (m *Manager) ResetHistory(id string) bool {
	s, ok := m.Session(id)
	if !ok {
		return false
	}
	s.ResetHistory()
	return true
}
