// Package portaudio backs the audio device interfaces with PortAudio
// default input and output streams.
package portaudio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/MrWong99/voicetutor/pkg/audio"
	pa "github.com/gordonklaus/portaudio"
)

var (
	initOnce sync.Once
	initErr  error
)

// Initialize prepares the PortAudio runtime. Safe to call more than once.
func Initialize() error {
	initOnce.Do(func() {
		initErr = pa.Initialize()
	})
	if initErr != nil {
		return fmt.Errorf("portaudio: initialize: %w", initErr)
	}
	return nil
}

// Terminate releases the PortAudio runtime. Call once at shutdown.
func Terminate() {
	if err := pa.Terminate(); err != nil {
		slog.Warn("portaudio: terminate", "error", err)
	}
}

// InputDevice captures from the default input device.
type InputDevice struct{}

// NewInputDevice returns a device bound to the system default microphone.
func NewInputDevice() (*InputDevice, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	return &InputDevice{}, nil
}

var _ audio.InputDevice = (*InputDevice)(nil)

// inputStream runs the blocking read loop on its own goroutine.
type inputStream struct {
	stream *pa.Stream

	mu      sync.Mutex
	closing bool
	done    chan struct{}
}

// OpenInput implements [audio.InputDevice]. Blocks are one frame long.
func (d *InputDevice) OpenInput(cfg audio.FrameConfig, onBlock func([]byte), onErr func(error)) (audio.InputStream, error) {
	frameSamples := cfg.SampleRate * cfg.FrameMs / 1000
	buf := make([]int16, frameSamples)

	stream, err := pa.OpenDefaultStream(1, 0, float64(cfg.SampleRate), frameSamples, buf)
	if err != nil {
		return nil, fmt.Errorf("portaudio: open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("portaudio: start input stream: %w", err)
	}

	s := &inputStream{stream: stream, done: make(chan struct{})}
	go s.loop(buf, onBlock, onErr)
	return s, nil
}

func (s *inputStream) loop(buf []int16, onBlock func([]byte), onErr func(error)) {
	defer close(s.done)
	block := make([]byte, len(buf)*2)
	for {
		if err := s.stream.Read(); err != nil {
			s.mu.Lock()
			closing := s.closing
			s.mu.Unlock()
			if !closing {
				onErr(fmt.Errorf("portaudio: read: %w", err))
			}
			return
		}
		for i, sample := range buf {
			block[i*2] = byte(sample)
			block[i*2+1] = byte(sample >> 8)
		}
		onBlock(block)
	}
}

// Close implements [audio.InputStream]. It joins the read loop.
func (s *inputStream) Close() error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	err := s.stream.Abort()
	<-s.done
	if cerr := s.stream.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("portaudio: close input stream: %w", err)
	}
	return nil
}

// Player renders clips through the default output device. Clips are
// conformed to the device's preferred sample rate and channel count before
// writing.
type Player struct {
	sampleRate int
	channels   int

	mu   sync.Mutex
	stop chan struct{}
}

// NewPlayer returns a player bound to the system default output device.
func NewPlayer() (*Player, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	p := &Player{sampleRate: 48000, channels: 2}
	if info, err := pa.DefaultOutputDevice(); err == nil {
		p.sampleRate = int(info.DefaultSampleRate)
		if info.MaxOutputChannels < 2 {
			p.channels = 1
		}
	} else {
		slog.Warn("portaudio: default output device unknown, assuming 48 kHz stereo", "error", err)
	}
	return p, nil
}

var _ audio.Player = (*Player)(nil)

// chunkSamples is the write granularity; small enough that Stop and ctx
// cancellation take effect quickly.
const chunkSamples = 1024

// Play implements [audio.Player]. It blocks until the clip has been written
// to the device, ctx is cancelled, or Stop is called.
func (p *Player) Play(ctx context.Context, clip *audio.Clip) error {
	if err := audio.ValidateClip(clip); err != nil {
		return err
	}

	p.mu.Lock()
	stop := make(chan struct{})
	p.stop = stop
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		if p.stop == stop {
			p.stop = nil
		}
		p.mu.Unlock()
	}()

	buf := make([]int16, chunkSamples*p.channels)
	stream, err := pa.OpenDefaultStream(0, p.channels, float64(p.sampleRate), chunkSamples, buf)
	if err != nil {
		return fmt.Errorf("portaudio: open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("portaudio: start output stream: %w", err)
	}
	defer stream.Stop()

	pcm := audio.Conform(clip, p.sampleRate, p.channels)
	chunkBytes := len(buf) * 2
	for off := 0; off < len(pcm); off += chunkBytes {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}

		end := off + chunkBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		n := (end - off) / 2
		for i := range buf {
			if i < n {
				buf[i] = int16(pcm[off+i*2]) | int16(pcm[off+i*2+1])<<8
			} else {
				buf[i] = 0 // pad the final partial chunk with silence
			}
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("portaudio: write: %w", err)
		}
	}
	return nil
}

// Stop implements [audio.Player].
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}
