// Package energy implements a dependency-free VAD engine based on RMS
// energy with hysteresis. It is not as robust as a model-based detector in
// noisy environments, but it is fast, has no external runtime, and works
// well for close-microphone capture.
package energy

import (
	"fmt"
	"math"
	"sync"

	"github.com/MrWong99/voicetutor/pkg/provider/vad"
)

// thresholds maps aggressiveness 0..3 to normalized RMS enter/exit levels.
// Enter must exceed exit so the detector does not flap on breath noise.
var thresholds = [4]struct{ enter, exit float64 }{
	{enter: 0.010, exit: 0.005},
	{enter: 0.015, exit: 0.008},
	{enter: 0.022, exit: 0.011},
	{enter: 0.032, exit: 0.016},
}

// startFrames and endFrames smooth the raw per-frame verdict: speech begins
// after startFrames consecutive loud frames and ends after endFrames
// consecutive quiet ones.
const (
	startFrames = 2
	endFrames   = 3
)

// Engine creates energy-based VAD sessions.
type Engine struct{}

// New returns an energy VAD engine.
func New() *Engine {
	return &Engine{}
}

var _ vad.Engine = (*Engine)(nil)

// NewSession implements [vad.Engine].
func (e *Engine) NewSession(cfg vad.Config) (vad.SessionHandle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	th := thresholds[cfg.Aggressiveness]
	return &session{
		frameBytes: cfg.FrameBytes(),
		enter:      th.enter,
		exit:       th.exit,
	}, nil
}

// session holds the hysteresis state for one audio stream.
type session struct {
	frameBytes int
	enter      float64
	exit       float64

	mu       sync.Mutex
	inSpeech bool
	loudRun  int
	quietRun int
	closed   bool
}

var _ vad.SessionHandle = (*session)(nil)

// IsSpeech implements [vad.SessionHandle].
func (s *session) IsSpeech(frame []byte) (bool, error) {
	if len(frame) != s.frameBytes {
		return false, fmt.Errorf("%w: got %d bytes, want %d", vad.ErrInvalidFrameSize, len(frame), s.frameBytes)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, fmt.Errorf("energy: session closed")
	}

	rms := computeRMS(frame)
	if s.inSpeech {
		if rms < s.exit {
			s.quietRun++
			if s.quietRun >= endFrames {
				s.inSpeech = false
				s.loudRun = 0
			}
		} else {
			s.quietRun = 0
		}
	} else {
		if rms > s.enter {
			s.loudRun++
			if s.loudRun >= startFrames {
				s.inSpeech = true
				s.quietRun = 0
			}
		} else {
			s.loudRun = 0
		}
	}
	return s.inSpeech, nil
}

// Reset implements [vad.SessionHandle].
func (s *session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inSpeech = false
	s.loudRun = 0
	s.quietRun = 0
}

// Close implements [vad.SessionHandle].
func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// computeRMS returns the root-mean-square amplitude of 16-bit little-endian
// PCM, normalized to [0, 1].
func computeRMS(pcm []byte) float64 {
	if len(pcm) < 2 {
		return 0
	}
	var sum float64
	n := len(pcm) / 2
	for i := 0; i < n; i++ {
		sample := int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
		v := float64(sample) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(n))
}
