package resilience

import (
	"context"

	"github.com/MrWong99/voicetutor/pkg/provider/llm"
)

// LLMFallback implements [llm.Responder] with automatic failover across
// multiple LLM backends. Each backend has its own circuit breaker.
type LLMFallback struct {
	group *FallbackGroup[llm.Responder]
}

// Compile-time interface assertion.
var _ llm.Responder = (*LLMFallback)(nil)

// NewLLMFallback creates an [LLMFallback] with primary as the preferred
// backend.
func NewLLMFallback(primary llm.Responder, primaryName string, cfg FallbackConfig) *LLMFallback {
	return &LLMFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional responder as a fallback.
func (f *LLMFallback) AddFallback(name string, r llm.Responder) {
	f.group.AddFallback(name, r)
}

// Query runs the prompt against the first healthy backend.
func (f *LLMFallback) Query(ctx context.Context, prompt string) (string, error) {
	return ExecuteWithResult(f.group, func(r llm.Responder) (string, error) {
		return r.Query(ctx, prompt)
	})
}
