// Package mock provides a scriptable VAD engine for tests.
package mock

import (
	"sync"

	"github.com/MrWong99/voicetutor/pkg/provider/vad"
)

// Engine implements [vad.Engine]. Sessions it creates share the engine's
// script so tests can stage verdicts before wiring the pipeline.
type Engine struct {
	mu sync.Mutex

	// NewSessionErr, when set, is returned by NewSession.
	NewSessionErr error

	// script holds verdicts returned in order by IsSpeech; once exhausted,
	// Default is returned.
	script []bool

	// Default is the verdict after the script runs out.
	Default bool

	// Err, when set, is returned by every IsSpeech call.
	Err error

	sessions   int
	frameCalls int
	resetCalls int
}

var _ vad.Engine = (*Engine)(nil)

// Script stages the next IsSpeech verdicts in order.
func (e *Engine) Script(verdicts ...bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.script = append(e.script, verdicts...)
}

// NewSession implements [vad.Engine].
func (e *Engine) NewSession(cfg vad.Config) (vad.SessionHandle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.NewSessionErr != nil {
		return nil, e.NewSessionErr
	}
	e.sessions++
	return &session{engine: e, frameBytes: cfg.FrameBytes()}, nil
}

// Sessions returns the number of sessions created.
func (e *Engine) Sessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions
}

// FrameCalls returns the total number of IsSpeech calls across sessions.
func (e *Engine) FrameCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameCalls
}

// ResetCalls returns the total number of Reset calls across sessions.
func (e *Engine) ResetCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resetCalls
}

type session struct {
	engine     *Engine
	frameBytes int
}

var _ vad.SessionHandle = (*session)(nil)

// IsSpeech implements [vad.SessionHandle]. Frame sizes are not enforced so
// tests can feed arbitrary blocks; set Engine.Err to exercise error paths.
func (s *session) IsSpeech(_ []byte) (bool, error) {
	e := s.engine
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frameCalls++
	if e.Err != nil {
		return false, e.Err
	}
	if len(e.script) > 0 {
		v := e.script[0]
		e.script = e.script[1:]
		return v, nil
	}
	return e.Default, nil
}

func (s *session) Reset() {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	s.engine.resetCalls++
}

func (s *session) Close() error { return nil }
