// Package audio contains the capture-side audio primitives: fixed-duration
// frame generation, the voiced-segment collector, the microphone Listener and
// the playback Player. All PCM in this package is mono 16-bit little-endian.
package audio

import (
	"errors"
	"fmt"
	"iter"
	"time"
)

// bytesPerSample is fixed by the 16-bit mono PCM representation.
const bytesPerSample = 2

// ErrFrameSize is returned when a byte slice handed to a frame-level
// operation is not exactly one frame long.
var ErrFrameSize = errors.New("audio: invalid frame size")

// ErrAlreadyListening is returned by [Listener.Start] when capture is
// already running.
var ErrAlreadyListening = errors.New("audio: already listening")

// supportedRates are the sample rates the frame classifier stack accepts.
var supportedRates = map[int]bool{8000: true, 16000: true, 32000: true, 48000: true}

// FrameConfig describes the fixed framing of a PCM stream.
type FrameConfig struct {
	// SampleRate in Hz. Must be one of 8000, 16000, 32000, 48000.
	SampleRate int

	// FrameMs is the frame duration in milliseconds. Must be 10, 20 or 30.
	FrameMs int
}

// DefaultFrameConfig returns the framing used throughout the pipeline:
// 16 kHz mono with 30 ms frames.
func DefaultFrameConfig() FrameConfig {
	return FrameConfig{SampleRate: 16000, FrameMs: 30}
}

// Validate reports whether the configuration is usable. Violations are
// fatal at startup, never silently corrected.
func (c FrameConfig) Validate() error {
	var errs []error
	if !supportedRates[c.SampleRate] {
		errs = append(errs, fmt.Errorf("audio: unsupported sample rate %d Hz", c.SampleRate))
	}
	switch c.FrameMs {
	case 10, 20, 30:
	default:
		errs = append(errs, fmt.Errorf("audio: frame duration must be 10, 20 or 30 ms, got %d", c.FrameMs))
	}
	return errors.Join(errs...)
}

// FrameBytes returns the size of one frame in bytes.
func (c FrameConfig) FrameBytes() int {
	return c.SampleRate * c.FrameMs / 1000 * bytesPerSample
}

// FrameDuration returns the frame length as a [time.Duration].
func (c FrameConfig) FrameDuration() time.Duration {
	return time.Duration(c.FrameMs) * time.Millisecond
}

// Frame is one fixed-duration slice of the capture stream.
type Frame struct {
	// Data is exactly FrameBytes() of raw PCM. It aliases the source buffer.
	Data []byte

	// Timestamp is the offset of the frame from the start of the stream.
	Timestamp time.Duration

	// Duration is the frame length.
	Duration time.Duration
}

// Frames lazily partitions pcm into consecutive fixed-size frames with
// monotonically increasing timestamps. A trailing partial frame is dropped.
func Frames(cfg FrameConfig, pcm []byte) iter.Seq[Frame] {
	size := cfg.FrameBytes()
	dur := cfg.FrameDuration()
	return func(yield func(Frame) bool) {
		if size <= 0 {
			return
		}
		ts := time.Duration(0)
		for off := 0; off+size <= len(pcm); off += size {
			f := Frame{Data: pcm[off : off+size], Timestamp: ts, Duration: dur}
			if !yield(f) {
				return
			}
			ts += dur
		}
	}
}
