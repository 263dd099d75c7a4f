package convo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/voicetutor/internal/observe"
	"github.com/MrWong99/voicetutor/pkg/audio"
	"github.com/MrWong99/voicetutor/pkg/provider/llm"
	"github.com/MrWong99/voicetutor/pkg/provider/stt"
	"github.com/MrWong99/voicetutor/pkg/provider/tts"
)

// CoordinatorConfig tunes turn-taking.
type CoordinatorConfig struct {
	// SilenceThreshold is how long the speech window must stay empty before
	// the utterance is finalized. Default 800 ms.
	SilenceThreshold time.Duration

	// WindowSize is the number of speaking-flag samples in the sliding
	// window. Default 10.
	WindowSize int

	// MaxUtterance force-finalizes an utterance that never goes silent.
	// Default 10 s.
	MaxUtterance time.Duration

	// BargePoll is how often the playback monitor checks for user speech.
	// Default 50 ms.
	BargePoll time.Duration

	// ReadTimeout bounds each block read from the capture queue. Default 1 s.
	ReadTimeout time.Duration

	// SampleRate of captured PCM, used for the utterance WAV handoff.
	// Default 16000.
	SampleRate int

	// Language is an optional ISO 639-1 transcription hint.
	Language string

	// Voice is the synthesis voice for replies.
	Voice tts.VoiceProfile
}

func (c *CoordinatorConfig) withDefaults() {
	if c.SilenceThreshold <= 0 {
		c.SilenceThreshold = 800 * time.Millisecond
	}
	if c.WindowSize <= 0 {
		c.WindowSize = 10
	}
	if c.MaxUtterance <= 0 {
		c.MaxUtterance = 10 * time.Second
	}
	if c.BargePoll <= 0 {
		c.BargePoll = 50 * time.Millisecond
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = time.Second
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
}

// SegmenterFactory builds a fresh voiced-segment collector. Each finalized
// utterance gets its own collector so concurrent turns never share
// classifier state.
type SegmenterFactory func() (*audio.Segmenter, error)

// Coordinator drives the turn state machine for sessions: it accumulates
// captured audio, detects end of utterance, runs the STT -> LLM -> TTS
// cascade, and plays the reply with barge-in monitoring.
//
// One Coordinator serves many sessions; per-session state lives on
// [Session].
type Coordinator struct {
	cfg          CoordinatorConfig
	stt          stt.Transcriber
	llm          llm.Responder
	tts          tts.Synthesizer
	player       audio.Player
	metrics      *observe.Metrics
	newSegmenter SegmenterFactory
}

// NewCoordinator wires a coordinator to its collaborators.
func NewCoordinator(cfg CoordinatorConfig, transcriber stt.Transcriber, responder llm.Responder, synth tts.Synthesizer, player audio.Player, metrics *observe.Metrics) (*Coordinator, error) {
	if transcriber == nil || responder == nil || synth == nil || player == nil {
		return nil, fmt.Errorf("convo: coordinator needs all collaborators")
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	cfg.withDefaults()
	return &Coordinator{
		cfg:     cfg,
		stt:     transcriber,
		llm:     responder,
		tts:     synth,
		player:  player,
		metrics: metrics,
	}, nil
}

// SetSegmenter installs an optional collector that trims silence from
// finalized utterances before transcription.
func (c *Coordinator) SetSegmenter(f SegmenterFactory) {
	c.newSegmenter = f
}

// Run starts capture on the session's listener and blocks driving its turn
// loop until ctx is cancelled or the capture device fails. Starting a
// session that is already listening fails with [audio.ErrAlreadyListening].
func (c *Coordinator) Run(ctx context.Context, s *Session) error {
	if err := s.Listener.Start(); err != nil {
		return err
	}
	defer func() {
		// Join the in-flight turn first so a late reply cannot start
		// playback after the handle below has been torn down.
		s.turns.Wait()
		s.StopPlayback()
		if err := s.Listener.Stop(); err != nil {
			observe.Logger(ctx).Warn("stop listener", "session", s.ID, "error", err)
		}
		s.setState(StateIdle)
	}()

	s.setState(StateListening)
	c.metrics.ActiveSessions.Add(ctx, 1)
	defer c.metrics.ActiveSessions.Add(ctx, -1)

	log := observe.Logger(ctx).With("session", s.ID)
	log.Info("session loop started")

	window := newSpeechWindow(c.cfg.WindowSize)
	var (
		utterance      []byte
		utteranceStart time.Time
		silenceSince   time.Time
	)

	for {
		select {
		case <-ctx.Done():
			log.Info("session loop stopping", "reason", "context cancelled")
			return ctx.Err()
		case err := <-s.Listener.Errors():
			c.metrics.RecordDeviceError(ctx, s.ID)
			log.Error("capture device failed", "error", err)
			return err
		default:
		}

		block, ok := s.Listener.ReadBlock(c.cfg.ReadTimeout)
		if ok {
			if len(utterance) == 0 {
				utteranceStart = time.Now()
			}
			utterance = append(utterance, block...)
		}
		window.Push(s.Listener.IsSpeaking())

		if len(utterance) == 0 {
			continue
		}

		// Silence is a fully quiet window, sustained for the threshold.
		if window.Full() && !window.Any() {
			if silenceSince.IsZero() {
				silenceSince = time.Now()
			}
		} else {
			silenceSince = time.Time{}
		}

		silenceLong := !silenceSince.IsZero() && time.Since(silenceSince) >= c.cfg.SilenceThreshold
		overLong := time.Since(utteranceStart) >= c.cfg.MaxUtterance
		if !silenceLong && !overLong {
			continue
		}

		pcm := utterance
		utterance = nil
		silenceSince = time.Time{}
		window.Clear()
		s.Listener.ResetBuffer()

		// Single-flight: a trigger firing while a turn is still in flight
		// is dropped, and its audio with it.
		if !s.processing.CompareAndSwap(false, true) {
			log.Debug("finalize skipped, turn already in flight")
			continue
		}
		if overLong && !silenceLong {
			log.Info("utterance hit max duration, force finalizing",
				"duration", time.Since(utteranceStart))
		}
		s.turns.Add(1)
		go c.processTurn(ctx, s, pcm)
	}
}

// processTurn transcribes one finalized utterance, queries the assistant
// and hands the reply to playback. It runs on its own goroutine; the run
// loop keeps listening meanwhile.
func (c *Coordinator) processTurn(ctx context.Context, s *Session, pcm []byte) {
	defer s.turns.Done()
	defer s.processing.Store(false)

	s.setState(StateFinalizing)
	defer func() {
		// Responding/Listening transitions happen in respond; this catches
		// early exits.
		if s.State() == StateFinalizing {
			s.setState(StateListening)
		}
	}()

	ctx, span := observe.StartSpan(ctx, "turn")
	defer span.End()
	log := observe.Logger(ctx).With("session", s.ID)

	c.metrics.RecordTurn(ctx, s.ID)

	pcm = c.trimUtterance(ctx, s, pcm)

	req := stt.Request{PCM: pcm, SampleRate: c.cfg.SampleRate, Language: c.cfg.Language}
	if path, err := audio.WriteTempWAV(pcm, c.cfg.SampleRate, 1); err != nil {
		log.Warn("utterance wav handoff failed, sending raw PCM", "error", err)
	} else {
		req.Path = path
		defer func() {
			if rmErr := os.Remove(path); rmErr != nil {
				log.Warn("remove utterance wav", "path", path, "error", rmErr)
			}
		}()
	}

	start := time.Now()
	text, err := c.stt.Transcribe(ctx, req)
	c.metrics.STTDuration.Record(ctx, time.Since(start).Seconds())
	text = strings.TrimSpace(text)

	// Transcription problems become a polite fallback transcript that flows
	// through the rest of the turn like real input: it is recorded as the
	// user entry and answered by the assistant, keeping the history
	// alternating.
	switch {
	case err != nil:
		log.Error("transcription failed", "error", err)
		c.metrics.RecordProviderError(ctx, "stt", "transcribe")
		text = stt.FallbackError
	case text == "":
		log.Info("no intelligible speech in utterance")
		text = stt.FallbackNoSpeech
	}

	s.turnMu.Lock()
	prompt, merged := s.history.AppendUser(text)
	s.turnMu.Unlock()
	log.Info("utterance transcribed",
		"chars", len(text),
		"merged", merged)

	start = time.Now()
	reply, err := c.llm.Query(ctx, prompt)
	c.metrics.LLMDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		// The fallback reply still answers the user entry recorded above,
		// so every turn produces an assistant entry.
		log.Error("assistant query failed", "error", err)
		c.metrics.RecordProviderError(ctx, "llm", "query")
		reply = llm.FallbackReply
	}

	s.turnMu.Lock()
	s.history.AppendAssistant(reply)
	s.turnMu.Unlock()

	c.respond(ctx, s, reply)
}

// trimUtterance runs the voiced-segment collector over a finalized
// utterance, dropping leading and trailing silence before transcription.
// Trim problems fall back to the raw audio.
func (c *Coordinator) trimUtterance(ctx context.Context, s *Session, pcm []byte) []byte {
	if c.newSegmenter == nil {
		return pcm
	}
	log := observe.Logger(ctx).With("session", s.ID)
	seg, err := c.newSegmenter()
	if err != nil {
		log.Warn("utterance trimmer unavailable, sending raw audio", "error", err)
		return pcm
	}
	var trimmed []byte
	for voiced := range seg.Segments(seg.Frames(pcm)) {
		trimmed = append(trimmed, voiced...)
	}
	if err := seg.Err(); err != nil {
		log.Warn("utterance trim failed, sending raw audio", "error", err)
		return pcm
	}
	if len(trimmed) == 0 {
		log.Debug("collector heard no voiced audio, sending raw utterance")
		return pcm
	}
	log.Debug("utterance trimmed",
		"raw_bytes", len(pcm),
		"trimmed_bytes", len(trimmed))
	return trimmed
}

// respond synthesizes reply and starts playback with a barge-in monitor.
// Synthesis failures and empty clips end the turn silently.
func (c *Coordinator) respond(ctx context.Context, s *Session, reply string) {
	s.setState(StateResponding)
	log := observe.Logger(ctx).With("session", s.ID)

	cleaned := tts.CleanText(reply)
	if cleaned == "" {
		log.Debug("reply empty after cleanup, skipping synthesis")
		s.setState(StateListening)
		return
	}

	start := time.Now()
	clip, err := c.tts.Synthesize(ctx, cleaned, c.cfg.Voice)
	c.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		log.Error("synthesis failed", "error", err)
		c.metrics.RecordProviderError(ctx, "tts", "synthesize")
		s.setState(StateListening)
		return
	}
	if clip == nil {
		log.Debug("synthesizer returned no audio")
		s.setState(StateListening)
		return
	}

	log.Info("reply synthesized", "clip_duration", clip.Duration())
	c.startPlayback(ctx, s, clip)
}

// startPlayback joins any previous playback, then runs the player and the
// barge-in monitor as a goroutine pair sharing one cancel.
func (c *Coordinator) startPlayback(ctx context.Context, s *Session, clip *audio.Clip) {
	// Join-before-replace: at most one clip is ever audible.
	s.StopPlayback()

	playCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.setPlayback(&playbackHandle{cancel: cancel, done: done})

	log := observe.Logger(ctx).With("session", s.ID)
	g, gctx := errgroup.WithContext(playCtx)
	start := time.Now()

	g.Go(func() error {
		defer cancel()
		err := c.player.Play(gctx, clip)
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("convo: playback: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(c.cfg.BargePoll)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if s.Listener.IsSpeaking() {
					log.Info("barge-in detected, stopping playback")
					c.metrics.RecordBargeIn(gctx, s.ID)
					c.player.Stop()
					cancel()
					return nil
				}
			}
		}
	})

	go func() {
		defer close(done)
		if err := g.Wait(); err != nil {
			log.Error("playback pair failed", "error", err)
		}
		c.metrics.PlaybackDuration.Record(ctx, time.Since(start).Seconds())
		if s.State() == StateResponding {
			s.setState(StateListening)
		}
	}()
}
