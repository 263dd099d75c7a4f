package audio

import (
	"fmt"
	"iter"
)

// SpeechClassifier decides whether a single frame of PCM contains speech.
// Implementations must reject frames that are not exactly one frame long.
type SpeechClassifier interface {
	IsSpeech(frame []byte) (bool, error)
}

// SegmenterConfig tunes the voiced-segment collector.
type SegmenterConfig struct {
	Frame FrameConfig

	// StartFraction is the share of the padding window that must be voiced
	// before a segment starts. Default 0.8.
	StartFraction float64

	// StopRatio is the share of the padding window that must be unvoiced
	// before an open segment ends. Default 0.9.
	StopRatio float64

	// PaddingMs is the length of the sliding padding window. Default 300.
	PaddingMs int
}

// DefaultSegmenterConfig returns the collector tuning used in production.
func DefaultSegmenterConfig() SegmenterConfig {
	return SegmenterConfig{
		Frame:         DefaultFrameConfig(),
		StartFraction: 0.8,
		StopRatio:     0.9,
		PaddingMs:     300,
	}
}

// Validate reports configuration violations. All are fatal at startup.
func (c SegmenterConfig) Validate() error {
	if err := c.Frame.Validate(); err != nil {
		return err
	}
	if c.StartFraction <= 0 || c.StartFraction > 1 {
		return fmt.Errorf("audio: start fraction must be in (0,1], got %v", c.StartFraction)
	}
	if c.StopRatio <= 0 || c.StopRatio > 1 {
		return fmt.Errorf("audio: stop ratio must be in (0,1], got %v", c.StopRatio)
	}
	if c.PaddingMs < c.Frame.FrameMs {
		return fmt.Errorf("audio: padding %d ms shorter than one frame (%d ms)", c.PaddingMs, c.Frame.FrameMs)
	}
	return nil
}

// Segmenter turns a stream of classified frames into contiguous voiced
// utterance segments using a two-state collector with a padding ring.
//
// A Segmenter runs one [Segmenter.Segments] iteration at a time; it is not
// safe for concurrent use.
type Segmenter struct {
	cfg SegmenterConfig
	cls SpeechClassifier
	err error
}

// NewSegmenter builds a Segmenter. The config is validated eagerly so that
// bad framing fails at construction, not mid-stream.
func NewSegmenter(cfg SegmenterConfig, cls SpeechClassifier) (*Segmenter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cls == nil {
		return nil, fmt.Errorf("audio: segmenter needs a speech classifier")
	}
	return &Segmenter{cfg: cfg, cls: cls}, nil
}

// Frames partitions pcm using the segmenter's frame config.
func (s *Segmenter) Frames(pcm []byte) iter.Seq[Frame] {
	return Frames(s.cfg.Frame, pcm)
}

// IsSpeech classifies a single frame. A slice that is not exactly one frame
// long fails with [ErrFrameSize] before the classifier is consulted.
func (s *Segmenter) IsSpeech(frame []byte) (bool, error) {
	if want := s.cfg.Frame.FrameBytes(); len(frame) != want {
		return false, fmt.Errorf("%w: got %d bytes, want %d", ErrFrameSize, len(frame), want)
	}
	return s.cls.IsSpeech(frame)
}

// Segments consumes frames and lazily yields voiced segments as contiguous
// PCM. While idle, frames accumulate in a padding ring; once the voiced
// share of the ring exceeds StartFraction the buffered frames open a new
// segment. The segment closes when the unvoiced count exceeds
// StopRatio x capacity. A segment still open when the input ends is
// yielded as-is, so no captured speech is lost. Yielded segments are never
// empty.
//
// A classifier failure terminates the stream: the open segment, if any, is
// flushed and [Segmenter.Err] reports the failure once iteration ends.
func (s *Segmenter) Segments(frames iter.Seq[Frame]) iter.Seq[[]byte] {
	capacity := s.cfg.PaddingMs / s.cfg.Frame.FrameMs
	stopAfter := int(s.cfg.StopRatio * float64(capacity))
	s.err = nil
	return func(yield func([]byte) bool) {
		ring := NewRing(capacity)
		var segment []byte
		triggered := false

		for f := range frames {
			speech, err := s.cls.IsSpeech(f.Data)
			if err != nil {
				s.err = fmt.Errorf("audio: classify frame: %w", err)
				break
			}

			if !triggered {
				ring.Push(f, speech)
				if float64(ring.SpeechCount()) > s.cfg.StartFraction*float64(ring.Cap()) {
					triggered = true
					for _, buffered := range ring.Frames() {
						segment = append(segment, buffered.Data...)
					}
					ring.Clear()
				}
				continue
			}

			segment = append(segment, f.Data...)
			ring.Push(f, speech)
			if ring.SilenceCount() > stopAfter {
				if !yield(segment) {
					return
				}
				segment = nil
				ring.Clear()
				triggered = false
			}
		}

		if triggered && len(segment) > 0 {
			yield(segment)
		}
	}
}

// Err returns the classifier failure that terminated the most recent
// [Segmenter.Segments] iteration, or nil. Valid once that iteration ends.
func (s *Segmenter) Err() error {
	return s.err
}
