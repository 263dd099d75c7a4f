package audio

import (
	"context"
	"fmt"
	"time"
)

// Clip is a fully synthesized utterance ready for playback.
type Clip struct {
	// PCM is raw 16-bit little-endian audio.
	PCM []byte

	// SampleRate in Hz.
	SampleRate int

	// Channels is 1 for mono, 2 for stereo.
	Channels int
}

// Duration returns the clip's playing time.
func (c *Clip) Duration() time.Duration {
	if c == nil || c.SampleRate <= 0 || c.Channels <= 0 {
		return 0
	}
	samples := len(c.PCM) / (bytesPerSample * c.Channels)
	return time.Duration(samples) * time.Second / time.Duration(c.SampleRate)
}

// Player plays one clip at a time through an output device.
//
// Play blocks until the clip finishes, ctx is cancelled, or Stop is called.
// Stop requests early termination of the in-flight Play; it is safe to call
// with no playback active.
type Player interface {
	Play(ctx context.Context, clip *Clip) error
	Stop()
}

// ValidateClip rejects clips that cannot be rendered.
func ValidateClip(clip *Clip) error {
	if clip == nil || len(clip.PCM) == 0 {
		return fmt.Errorf("audio: empty clip")
	}
	if clip.SampleRate <= 0 {
		return fmt.Errorf("audio: clip sample rate %d", clip.SampleRate)
	}
	if clip.Channels != 1 && clip.Channels != 2 {
		return fmt.Errorf("audio: clip channel count %d", clip.Channels)
	}
	if len(clip.PCM)%(bytesPerSample*clip.Channels) != 0 {
		return fmt.Errorf("audio: clip PCM not sample-aligned (%d bytes)", len(clip.PCM))
	}
	return nil
}
