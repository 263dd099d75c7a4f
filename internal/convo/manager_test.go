package convo_test

import (
	"context"
	"testing"
	"time"

	"github.com/MrWong99/voicetutor/internal/convo"
	"github.com/MrWong99/voicetutor/pkg/audio"
	audiomock "github.com/MrWong99/voicetutor/pkg/audio/mock"
	llmmock "github.com/MrWong99/voicetutor/pkg/provider/llm/mock"
	sttmock "github.com/MrWong99/voicetutor/pkg/provider/stt/mock"
	ttsmock "github.com/MrWong99/voicetutor/pkg/provider/tts/mock"
)

func newTestManager(t *testing.T) *convo.Manager {
	t.Helper()
	coord, err := convo.NewCoordinator(convo.CoordinatorConfig{
		ReadTimeout: 5 * time.Millisecond,
	}, &sttmock.Transcriber{}, &llmmock.Responder{}, &ttsmock.Synthesizer{}, &audiomock.Player{}, nil)
	if err != nil {
		t.Fatal(err)
	}

	factory := func() (*audio.Listener, error) {
		return audio.NewListener(&audiomock.InputDevice{}, markClassifier{}, audio.ListenerConfig{
			Frame: testFrame,
		})
	}

	m, err := convo.NewManager(coord, factory)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestManager_StartAndStopSession(t *testing.T) {
	m := newTestManager(t)
	defer m.StopAll()

	s, err := m.StartSession(context.Background(), "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if s.ID != "alpha" {
		t.Errorf("ID = %q, want alpha", s.ID)
	}

	got, ok := m.Session("alpha")
	if !ok || got != s {
		t.Error("Session did not return the running session")
	}
	if ids := m.SessionIDs(); len(ids) != 1 || ids[0] != "alpha" {
		t.Errorf("SessionIDs = %v", ids)
	}

	waitFor(t, "capture started", func() bool { return s.Listener.Listening() })

	m.StopSession("alpha")
	if _, ok := m.Session("alpha"); ok {
		t.Error("session still registered after StopSession")
	}
	if s.Listener.Listening() {
		t.Error("listener still capturing after StopSession")
	}
}

func TestManager_DuplicateSessionIDFails(t *testing.T) {
	m := newTestManager(t)
	defer m.StopAll()

	if _, err := m.StartSession(context.Background(), "alpha"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.StartSession(context.Background(), "alpha"); err == nil {
		t.Error("duplicate session ID accepted")
	}
}

func TestManager_EmptySessionIDFails(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.StartSession(context.Background(), ""); err == nil {
		t.Error("empty session ID accepted")
	}
}

func TestManager_StopUnknownSessionIsNoop(t *testing.T) {
	m := newTestManager(t)
	m.StopSession("ghost") // must not panic or block
}

func TestManager_StopAll(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.StartSession(context.Background(), "alpha"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.StartSession(context.Background(), "beta"); err != nil {
		t.Fatal(err)
	}

	m.StopAll()
	if ids := m.SessionIDs(); len(ids) != 0 {
		t.Errorf("SessionIDs after StopAll = %v, want none", ids)
	}
}

func TestManager_ResetHistory(t *testing.T) {
	m := newTestManager(t)
	defer m.StopAll()

	s, err := m.StartSession(context.Background(), "alpha")
	if err != nil {
		t.Fatal(err)
	}

	s.ResetHistory() // reset on empty history is fine
	if !m.ResetHistory("alpha") {
		t.Error("ResetHistory on a live session returned false")
	}
	if m.ResetHistory("ghost") {
		t.Error("ResetHistory on an unknown session returned true")
	}
}
