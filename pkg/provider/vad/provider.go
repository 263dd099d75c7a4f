// Package vad defines the Engine interface for voice activity detection
// backends.
//
// A VAD engine wraps a frame-level speech detector and surfaces it as a
// stateful, per-stream session. Each session maintains its own internal
// state (smoothing counters, hysteresis) so that multiple concurrent audio
// streams can be classified independently.
//
// VAD is synchronous by design: IsSpeech returns immediately with a boolean
// verdict, making it suitable for low-latency pipeline stages that gate STT
// input.
//
// Implementations must be safe for concurrent use across different sessions.
// A single SessionHandle should not be shared across goroutines unless the
// implementation explicitly documents thread safety for that type.
package vad

import (
	"errors"
	"fmt"
)

// ErrInvalidFrameSize is returned by IsSpeech when the supplied slice is not
// exactly one configured frame long.
var ErrInvalidFrameSize = errors.New("vad: invalid frame size")

// Config holds the parameters for a VAD session.
type Config struct {
	// SampleRate is the audio sample rate in Hz. Must be one of 8000, 16000,
	// 32000 or 48000 and must match the rate of the PCM frames passed to
	// IsSpeech.
	SampleRate int

	// FrameMs is the duration of each audio frame in milliseconds. Frame
	// detectors operate on fixed frame sizes of 10, 20 or 30 ms; IsSpeech
	// returns [ErrInvalidFrameSize] for any other length.
	FrameMs int

	// Aggressiveness tunes how strictly non-speech is filtered, from 0
	// (least aggressive, most permissive) to 3 (most aggressive). Higher
	// values reduce false positives at the cost of clipping quiet speech.
	Aggressiveness int
}

// Validate reports configuration violations. All are fatal.
func (c Config) Validate() error {
	var errs []error
	switch c.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		errs = append(errs, fmt.Errorf("vad: unsupported sample rate %d Hz", c.SampleRate))
	}
	switch c.FrameMs {
	case 10, 20, 30:
	default:
		errs = append(errs, fmt.Errorf("vad: frame duration must be 10, 20 or 30 ms, got %d", c.FrameMs))
	}
	if c.Aggressiveness < 0 || c.Aggressiveness > 3 {
		errs = append(errs, fmt.Errorf("vad: aggressiveness must be in [0,3], got %d", c.Aggressiveness))
	}
	return errors.Join(errs...)
}

// FrameBytes returns the expected frame length in bytes (16-bit mono PCM).
func (c Config) FrameBytes() int {
	return c.SampleRate * c.FrameMs / 1000 * 2
}

// SessionHandle is an active VAD session for a single audio stream. It is an
// interface so that test code can supply mock implementations without a live
// engine.
//
// A SessionHandle should not be shared between goroutines unless the
// implementation explicitly guarantees concurrent safety.
type SessionHandle interface {
	// IsSpeech classifies a single frame of raw little-endian PCM at the
	// configured SampleRate and FrameMs. It must not block; it is called
	// from the capture hot path.
	IsSpeech(frame []byte) (bool, error)

	// Reset clears all accumulated detection state without closing the
	// session. Use this when the audio stream is interrupted or restarted.
	Reset()

	// Close releases all resources associated with the session. Calling
	// Close more than once is safe and returns nil.
	Close() error
}

// Engine is the factory for VAD sessions, implemented by each backend.
//
// Implementations must be safe for concurrent use: multiple goroutines may
// call NewSession simultaneously to create independent sessions.
type Engine interface {
	// NewSession creates a session with the given configuration, ready to
	// accept frames. Returns an error if the configuration is invalid.
	NewSession(cfg Config) (SessionHandle, error)
}
