// Package mock provides a scriptable Responder for tests.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/voicetutor/pkg/provider/llm"
)

// QueryCall records one Query invocation.
type QueryCall struct {
	Prompt string
}

// Responder implements [llm.Responder]. Replies are consumed in order; once
// exhausted, Default is returned.
type Responder struct {
	mu sync.Mutex

	replies []string

	// Default is returned after scripted replies run out. Empty Default
	// yields "ok" so callers always see a usable reply.
	Default string

	// Err, when set, is returned by every Query call.
	Err error

	// Gate, when non-nil, blocks each Query after it has been recorded
	// until the channel is closed or ctx ends. Set before first use.
	Gate chan struct{}

	calls []QueryCall
}

var _ llm.Responder = (*Responder)(nil)

// Script stages replies returned by subsequent calls.
func (r *Responder) Script(replies ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, replies...)
}

// Query implements [llm.Responder].
func (r *Responder) Query(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	r.calls = append(r.calls, QueryCall{Prompt: prompt})
	gate := r.Gate
	reply := "ok"
	switch {
	case len(r.replies) > 0:
		reply = r.replies[0]
		r.replies = r.replies[1:]
	case r.Default != "":
		reply = r.Default
	}
	err := r.Err
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}

// Calls returns a snapshot of recorded invocations.
func (r *Responder) Calls() []QueryCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]QueryCall, len(r.calls))
	copy(out, r.calls)
	return out
}
