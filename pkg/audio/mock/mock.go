// Package mock provides in-memory audio devices for tests. The input device
// delivers pre-scripted PCM blocks on demand; the player records every clip
// it is asked to play.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/voicetutor/pkg/audio"
)

// InputDevice implements [audio.InputDevice]. Blocks are delivered
// synchronously via Feed, on the caller's goroutine, which stands in for
// the device thread.
type InputDevice struct {
	mu      sync.Mutex
	onBlock func([]byte)
	onErr   func(error)
	open    bool

	// OpenErr, when set, is returned by OpenInput.
	OpenErr error

	// OpenCalls counts OpenInput invocations.
	OpenCalls int
}

// stream ties Close back to its device.
type stream struct {
	dev *InputDevice
}

// Close marks the device closed; subsequent Feed calls are dropped.
func (s *stream) Close() error {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()
	s.dev.open = false
	s.dev.onBlock = nil
	s.dev.onErr = nil
	return nil
}

// OpenInput implements [audio.InputDevice].
func (d *InputDevice) OpenInput(_ audio.FrameConfig, onBlock func([]byte), onErr func(error)) (audio.InputStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.OpenCalls++
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	d.open = true
	d.onBlock = onBlock
	d.onErr = onErr
	return &stream{dev: d}, nil
}

// Feed delivers one block as if captured from the microphone. Returns false
// when the device is not open.
func (d *InputDevice) Feed(block []byte) bool {
	d.mu.Lock()
	cb := d.onBlock
	d.mu.Unlock()
	if cb == nil {
		return false
	}
	cb(block)
	return true
}

// Fail simulates a device failure.
func (d *InputDevice) Fail(err error) {
	d.mu.Lock()
	cb := d.onErr
	d.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

// Open reports whether a stream is currently open.
func (d *InputDevice) Open() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

// PlayCall records a single Play invocation on the mock player.
type PlayCall struct {
	Clip    *audio.Clip
	Stopped bool
}

// Player implements [audio.Player]. Play blocks until Stop or context
// cancellation unless Block is false, in which case it returns immediately.
type Player struct {
	// Block makes Play wait for Stop/ctx. Defaults to false (instant play).
	Block bool

	// PlayErr, when set, is returned by Play.
	PlayErr error

	mu      sync.Mutex
	calls   []PlayCall
	current chan struct{}
	active  int
}

var _ audio.Player = (*Player)(nil)

// Play implements [audio.Player].
func (p *Player) Play(ctx context.Context, clip *audio.Clip) error {
	p.mu.Lock()
	idx := len(p.calls)
	p.calls = append(p.calls, PlayCall{Clip: clip})
	if p.PlayErr != nil {
		p.mu.Unlock()
		return p.PlayErr
	}
	if !p.Block {
		p.mu.Unlock()
		return nil
	}
	done := make(chan struct{})
	p.current = done
	p.active++
	p.mu.Unlock()

	stopped := false
	select {
	case <-done:
		stopped = true
	case <-ctx.Done():
		// Stop and cancel race when a barge-in fires both; a Stop that
		// landed first still counts.
		select {
		case <-done:
			stopped = true
		default:
		}
	}
	p.mu.Lock()
	if stopped {
		p.calls[idx].Stopped = true
	}
	p.active--
	p.mu.Unlock()
	return nil
}

// Active reports whether a blocking Play is currently in flight.
func (p *Player) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active > 0
}

// Stop implements [audio.Player].
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		close(p.current)
		p.current = nil
	}
}

// Calls returns a snapshot of recorded Play invocations.
func (p *Player) Calls() []PlayCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PlayCall, len(p.calls))
	copy(out, p.calls)
	return out
}
