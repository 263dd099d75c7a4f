package audio

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// InputStream is a running capture stream. Close stops delivery and blocks
// until the device's capture thread has fully wound down, so no callback
// runs after Close returns.
type InputStream interface {
	Close() error
}

// InputDevice opens capture streams. onBlock receives raw PCM blocks on the
// device's own thread; onErr is called at most once when the device fails,
// after which no further blocks are delivered.
type InputDevice interface {
	OpenInput(cfg FrameConfig, onBlock func(block []byte), onErr func(err error)) (InputStream, error)
}

// ListenerConfig tunes the capture loop.
type ListenerConfig struct {
	Frame FrameConfig

	// MaxBufferFrames bounds the rolling buffer to this many frames of the
	// most recent audio. Default 100 (3 s at 30 ms frames).
	MaxBufferFrames int

	// QueueDepth bounds the block queue between the device thread and
	// consumers. When full, the oldest block is dropped. Default 64.
	QueueDepth int
}

// DefaultListenerConfig returns the production capture tuning.
func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{Frame: DefaultFrameConfig(), MaxBufferFrames: 100, QueueDepth: 64}
}

// Listener owns a capture stream: it queues incoming blocks for consumers,
// keeps a bounded rolling buffer of recent audio, and continuously
// classifies the newest frame so IsSpeaking is cheap to poll.
//
// All methods are safe for concurrent use. The speaking flag is written
// only from the device callback.
type Listener struct {
	cfg    ListenerConfig
	device InputDevice
	cls    SpeechClassifier

	mu        sync.Mutex
	listening bool
	stream    InputStream
	queue     chan []byte
	buf       []byte

	speaking atomic.Bool
	errs     chan error
}

// NewListener wires a Listener to a device and a frame classifier.
func NewListener(device InputDevice, cls SpeechClassifier, cfg ListenerConfig) (*Listener, error) {
	if device == nil {
		return nil, fmt.Errorf("audio: listener needs an input device")
	}
	if cls == nil {
		return nil, fmt.Errorf("audio: listener needs a speech classifier")
	}
	if err := cfg.Frame.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxBufferFrames <= 0 {
		cfg.MaxBufferFrames = 100
	}
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 64
	}
	return &Listener{
		cfg:    cfg,
		device: device,
		cls:    cls,
		errs:   make(chan error, 4),
	}, nil
}

// Start opens the device and begins capture. A second Start without an
// intervening Stop fails with [ErrAlreadyListening].
func (l *Listener) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.listening {
		return ErrAlreadyListening
	}

	l.queue = make(chan []byte, l.cfg.QueueDepth)
	l.buf = nil
	l.speaking.Store(false)

	stream, err := l.device.OpenInput(l.cfg.Frame, l.handleBlock, l.handleDeviceError)
	if err != nil {
		return fmt.Errorf("audio: open input: %w", err)
	}
	l.stream = stream
	l.listening = true
	slog.Info("audio capture started",
		"sample_rate", l.cfg.Frame.SampleRate,
		"frame_ms", l.cfg.Frame.FrameMs)
	return nil
}

// Stop ends capture and joins the device stream. Stopping an idle Listener
// is a no-op.
func (l *Listener) Stop() error {
	l.mu.Lock()
	if !l.listening {
		l.mu.Unlock()
		return nil
	}
	l.listening = false
	stream := l.stream
	l.stream = nil
	l.mu.Unlock()

	// Close outside the lock: it blocks until the capture thread is joined
	// and pending callbacks (which take the lock) have drained.
	if err := stream.Close(); err != nil {
		return fmt.Errorf("audio: close input: %w", err)
	}
	l.speaking.Store(false)
	slog.Info("audio capture stopped")
	return nil
}

// Listening reports whether capture is currently running.
func (l *Listener) Listening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.listening
}

// ReadBlock returns the next captured block, waiting up to timeout. The
// second return is false when the timeout elapses with no block available.
func (l *Listener) ReadBlock(timeout time.Duration) ([]byte, bool) {
	l.mu.Lock()
	queue := l.queue
	l.mu.Unlock()
	if queue == nil {
		return nil, false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case block := <-queue:
		return block, true
	case <-timer.C:
		return nil, false
	}
}

// IsSpeaking reports whether the most recently captured frame was speech.
func (l *Listener) IsSpeaking() bool {
	return l.speaking.Load()
}

// Buffer returns a copy of the rolling buffer of recent audio.
func (l *Listener) Buffer() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]byte, len(l.buf))
	copy(out, l.buf)
	return out
}

// ResetBuffer discards the rolling buffer.
func (l *Listener) ResetBuffer() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.buf = nil
}

// Errors delivers device failures. A failure stops capture; it is surfaced
// here rather than retried.
func (l *Listener) Errors() <-chan error {
	return l.errs
}

// handleBlock runs on the device thread for every captured block.
func (l *Listener) handleBlock(block []byte) {
	// The device may reuse its buffer between callbacks.
	owned := make([]byte, len(block))
	copy(owned, block)

	l.mu.Lock()
	if !l.listening {
		l.mu.Unlock()
		return
	}
	queue := l.queue

	// Rolling buffer: append, then truncate to the most recent bytes.
	l.buf = append(l.buf, owned...)
	maxLen := l.cfg.MaxBufferFrames * l.cfg.Frame.FrameBytes()
	if len(l.buf) > maxLen {
		l.buf = l.buf[len(l.buf)-maxLen:]
	}

	// Classify the newest full frame of the stream. The rolling buffer
	// carries bytes across blocks smaller than one frame.
	frameBytes := l.cfg.Frame.FrameBytes()
	var suffix []byte
	if len(l.buf) >= frameBytes {
		suffix = l.buf[len(l.buf)-frameBytes:]
	}
	l.mu.Unlock()

	if suffix != nil {
		speech, err := l.cls.IsSpeech(suffix)
		if err != nil {
			slog.Warn("listener: classify frame", "error", err)
		} else {
			l.speaking.Store(speech)
		}
	}

	select {
	case queue <- owned:
	default:
		// Queue full: drop the oldest block to keep latency bounded.
		select {
		case <-queue:
		default:
		}
		select {
		case queue <- owned:
		default:
		}
		slog.Debug("listener: block queue full, dropped oldest")
	}
}

// handleDeviceError runs once when the device fails mid-capture.
func (l *Listener) handleDeviceError(err error) {
	slog.Error("audio device failure, stopping capture", "error", err)

	l.mu.Lock()
	wasListening := l.listening
	l.listening = false
	stream := l.stream
	l.stream = nil
	l.mu.Unlock()

	if !wasListening {
		return
	}
	l.speaking.Store(false)

	select {
	case l.errs <- fmt.Errorf("audio: device failure: %w", err):
	default:
	}

	// Closing from the device's own callback can deadlock on some
	// backends, so join from a fresh goroutine.
	if stream != nil {
		go func() {
			if cerr := stream.Close(); cerr != nil {
				slog.Warn("listener: close failed stream", "error", cerr)
			}
		}()
	}
}
