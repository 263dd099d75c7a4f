// Package stt defines the Transcriber interface for speech-to-text
// backends.
//
// Transcription is batch-oriented: the turn coordinator hands over one
// complete utterance (raw PCM or a WAV file on disk) and receives the final
// transcript. Streaming partials are deliberately not part of the contract;
// the pipeline finalizes utterances before transcription.
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"
	"errors"
)

// Fallback transcripts substituted by the caller so the conversation never
// stalls on a transcription problem. FallbackNoSpeech is used when the
// backend heard nothing intelligible; FallbackError when the backend failed
// outright.
const (
	FallbackNoSpeech = "Sorry, I couldn't hear you clearly."
	FallbackError    = "Sorry, I couldn't understand the audio."
)

// ErrEmptyAudio is returned when a request carries neither PCM nor a path.
var ErrEmptyAudio = errors.New("stt: request contains no audio")

// Request is one utterance to transcribe. Exactly one of PCM or Path should
// be set; when both are set, implementations prefer whichever form is
// native to them.
type Request struct {
	// PCM is raw mono 16-bit little-endian audio.
	PCM []byte

	// Path points to a WAV file on disk.
	Path string

	// SampleRate of the PCM audio in Hz. Ignored when only Path is set.
	SampleRate int

	// Language is an optional ISO 639-1 hint (e.g. "en").
	Language string
}

// Transcriber converts one utterance to text.
//
// An empty transcript with a nil error means the backend ran but heard no
// intelligible speech; failures are returned as errors, never swallowed.
type Transcriber interface {
	Transcribe(ctx context.Context, req Request) (string, error)
}
