// Package mock provides a scriptable Transcriber for tests.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/voicetutor/pkg/provider/stt"
)

// TranscribeCall records one Transcribe invocation.
type TranscribeCall struct {
	Req stt.Request
}

// Transcriber implements [stt.Transcriber]. Results are consumed in order;
// once exhausted, Default is returned.
type Transcriber struct {
	mu sync.Mutex

	// results are returned in order by Transcribe.
	results []result

	// Default is returned after scripted results run out.
	Default string

	// Err, when set, is returned by every Transcribe call (scripted results
	// are ignored).
	Err error

	calls []TranscribeCall
}

type result struct {
	text string
	err  error
}

var _ stt.Transcriber = (*Transcriber)(nil)

// Script stages transcripts returned by subsequent calls.
func (t *Transcriber) Script(texts ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range texts {
		t.results = append(t.results, result{text: s})
	}
}

// ScriptError stages a single failing call.
func (t *Transcriber) ScriptError(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.results = append(t.results, result{err: err})
}

// Transcribe implements [stt.Transcriber].
func (t *Transcriber) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, TranscribeCall{Req: req})
	if t.Err != nil {
		return "", t.Err
	}
	if len(t.results) > 0 {
		r := t.results[0]
		t.results = t.results[1:]
		return r.text, r.err
	}
	return t.Default, nil
}

// Calls returns a snapshot of recorded invocations.
func (t *Transcriber) Calls() []TranscribeCall {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]TranscribeCall, len(t.calls))
	copy(out, t.calls)
	return out
}
