// Package mock provides a scriptable Synthesizer for tests.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/voicetutor/pkg/audio"
	"github.com/MrWong99/voicetutor/pkg/provider/tts"
)

// SynthesizeCall records one Synthesize invocation.
type SynthesizeCall struct {
	Text  string
	Voice tts.VoiceProfile
}

// Synthesizer implements [tts.Synthesizer]. By default every call returns a
// short silent clip; set NilClip to exercise the no-playback path, Err to
// exercise failures.
type Synthesizer struct {
	mu sync.Mutex

	// Clip, when set, is returned by every call.
	Clip *audio.Clip

	// NilClip makes Synthesize return (nil, nil).
	NilClip bool

	// Err, when set, is returned by every call.
	Err error

	calls []SynthesizeCall
}

var _ tts.Synthesizer = (*Synthesizer)(nil)

// Synthesize implements [tts.Synthesizer].
func (s *Synthesizer) Synthesize(ctx context.Context, text string, voice tts.VoiceProfile) (*audio.Clip, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, SynthesizeCall{Text: text, Voice: voice})
	if s.Err != nil {
		return nil, s.Err
	}
	if s.NilClip {
		return nil, nil
	}
	if s.Clip != nil {
		return s.Clip, nil
	}
	// 100 ms of silence at 16 kHz mono.
	return &audio.Clip{PCM: make([]byte, 3200), SampleRate: 16000, Channels: 1}, nil
}

// Calls returns a snapshot of recorded invocations.
func (s *Synthesizer) Calls() []SynthesizeCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SynthesizeCall, len(s.calls))
	copy(out, s.calls)
	return out
}
