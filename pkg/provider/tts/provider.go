// Package tts defines the Synthesizer interface for text-to-speech
// backends.
//
// Synthesis is per-utterance: the coordinator hands over one cleaned reply
// and receives a complete playable clip. A nil clip with a nil error means
// there is nothing to play (e.g. the reply was empty after cleanup); the
// turn then completes without playback.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"
	"regexp"
	"strings"

	"github.com/MrWong99/voicetutor/pkg/audio"
)

// VoiceProfile identifies a synthesis voice on a specific backend.
type VoiceProfile struct {
	// ID is the backend-specific voice identifier.
	ID string

	// Name is the human-readable voice name.
	Name string

	// Provider names the backend the voice belongs to.
	Provider string

	// Metadata carries backend-specific labels (accent, gender, ...).
	Metadata map[string]string
}

// Synthesizer converts one utterance of text into a playable clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice VoiceProfile) (*audio.Clip, error)
}

// Markdown constructs that read badly when spoken aloud.
var (
	reBold   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	reItalic = regexp.MustCompile(`\*(.*?)\*`)
	reCode   = regexp.MustCompile("`([^`]*)`")
	reHeader = regexp.MustCompile(`(?m)^#+\s*`)
)

// CleanText strips markdown markup from an LLM reply before synthesis.
// Returns the empty string when nothing speakable remains.
func CleanText(text string) string {
	text = reBold.ReplaceAllString(text, "$1")
	text = reItalic.ReplaceAllString(text, "$1")
	text = reCode.ReplaceAllString(text, "$1")
	text = reHeader.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
