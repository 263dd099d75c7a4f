// Command voicetutor runs a voice-driven tutoring assistant on the local
// microphone and speakers.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/MrWong99/voicetutor/internal/config"
	"github.com/MrWong99/voicetutor/internal/convo"
	"github.com/MrWong99/voicetutor/internal/health"
	"github.com/MrWong99/voicetutor/internal/observe"
	"github.com/MrWong99/voicetutor/internal/resilience"
	"github.com/MrWong99/voicetutor/pkg/audio"
	paudio "github.com/MrWong99/voicetutor/pkg/audio/portaudio"
	"github.com/MrWong99/voicetutor/pkg/provider/llm"
	"github.com/MrWong99/voicetutor/pkg/provider/llm/anyllm"
	oaillm "github.com/MrWong99/voicetutor/pkg/provider/llm/openai"
	"github.com/MrWong99/voicetutor/pkg/provider/stt"
	oaistt "github.com/MrWong99/voicetutor/pkg/provider/stt/openai"
	"github.com/MrWong99/voicetutor/pkg/provider/stt/whispercpp"
	"github.com/MrWong99/voicetutor/pkg/provider/tts"
	"github.com/MrWong99/voicetutor/pkg/provider/tts/elevenlabs"
	"github.com/MrWong99/voicetutor/pkg/provider/vad"
	"github.com/MrWong99/voicetutor/pkg/provider/vad/energy"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	sessionID := flag.String("session", "local", "identifier for the capture session")
	listVoices := flag.Bool("list-voices", false, "list the configured TTS provider's voices and exit")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "voicetutor: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "voicetutor: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("voicetutor starting",
		"config", *configPath,
		"ops_addr", cfg.Server.OpsAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "voicetutor",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		slog.Error("failed to create metrics", "err", err)
		return 1
	}

	// ── Providers ─────────────────────────────────────────────────────────────
	synth, err := buildTTS(cfg)
	if err != nil {
		slog.Error("failed to build tts provider", "err", err)
		return 1
	}

	if *listVoices {
		return printVoices(ctx, synth)
	}

	transcriber, err := buildSTT(cfg)
	if err != nil {
		slog.Error("failed to build stt provider", "err", err)
		return 1
	}
	responder, err := buildLLM(cfg)
	if err != nil {
		slog.Error("failed to build llm provider", "err", err)
		return 1
	}

	// Each provider runs behind its own circuit breaker so a flapping
	// backend degrades to the spoken fallback instead of hanging turns.
	fbCfg := resilience.FallbackConfig{}
	sttWrapped := resilience.NewSTTFallback(transcriber, cfg.Providers.STT.Name, fbCfg)
	llmWrapped := resilience.NewLLMFallback(responder, cfg.Providers.LLM.Name, fbCfg)
	ttsWrapped := resilience.NewTTSFallback(synth, cfg.Providers.TTS.Name, fbCfg)

	// ── Audio devices ─────────────────────────────────────────────────────────
	if err := paudio.Initialize(); err != nil {
		slog.Error("failed to initialise audio", "err", err)
		return 1
	}
	defer paudio.Terminate()

	player, err := paudio.NewPlayer()
	if err != nil {
		slog.Error("failed to open playback device", "err", err)
		return 1
	}

	// ── Turn coordination ─────────────────────────────────────────────────────
	frameCfg := audio.FrameConfig{SampleRate: cfg.Audio.SampleRate, FrameMs: cfg.Audio.FrameMs}
	vadEngine := energy.New()

	newListener := func() (*audio.Listener, error) {
		device, err := paudio.NewInputDevice()
		if err != nil {
			return nil, err
		}
		session, err := vadEngine.NewSession(vad.Config{
			SampleRate:     cfg.Audio.SampleRate,
			FrameMs:        cfg.Audio.FrameMs,
			Aggressiveness: *cfg.VAD.Aggressiveness,
		})
		if err != nil {
			return nil, err
		}
		return audio.NewListener(device, session, audio.ListenerConfig{
			Frame:           frameCfg,
			MaxBufferFrames: cfg.Audio.MaxBufferFrames,
			QueueDepth:      cfg.Audio.QueueDepth,
		})
	}

	coordinator, err := convo.NewCoordinator(convo.CoordinatorConfig{
		SilenceThreshold: cfg.Turn.SilenceThreshold,
		WindowSize:       cfg.Turn.WindowSize,
		MaxUtterance:     cfg.Turn.MaxUtterance,
		BargePoll:        cfg.Turn.BargePoll,
		SampleRate:       cfg.Audio.SampleRate,
		Language:         cfg.Providers.STT.Language,
		Voice: tts.VoiceProfile{
			ID:       cfg.Providers.TTS.VoiceID,
			Provider: cfg.Providers.TTS.Name,
		},
	}, sttWrapped, llmWrapped, ttsWrapped, player, metrics)
	if err != nil {
		slog.Error("failed to create coordinator", "err", err)
		return 1
	}

	// Finalized utterances are trimmed by the voiced-segment collector before
	// transcription. Each turn gets a fresh VAD session so collector state
	// never leaks between utterances.
	segCfg := audio.SegmenterConfig{
		Frame:         frameCfg,
		StartFraction: cfg.VAD.StartFraction,
		StopRatio:     cfg.VAD.StopRatio,
		PaddingMs:     cfg.VAD.PaddingMs,
	}
	coordinator.SetSegmenter(func() (*audio.Segmenter, error) {
		session, err := vadEngine.NewSession(vad.Config{
			SampleRate:     cfg.Audio.SampleRate,
			FrameMs:        cfg.Audio.FrameMs,
			Aggressiveness: *cfg.VAD.Aggressiveness,
		})
		if err != nil {
			return nil, err
		}
		return audio.NewSegmenter(segCfg, session)
	})

	manager, err := convo.NewManager(coordinator, newListener)
	if err != nil {
		slog.Error("failed to create session manager", "err", err)
		return 1
	}

	// ── Ops HTTP server (optional) ────────────────────────────────────────────
	var opsServer *http.Server
	if cfg.Server.OpsAddr != "" {
		opsServer = newOpsServer(cfg.Server.OpsAddr, metrics, manager, *sessionID)
		go func() {
			if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("ops server error", "err", err)
			}
		}()
		slog.Info("ops server listening", "addr", cfg.Server.OpsAddr)
	}

	// ── Run ───────────────────────────────────────────────────────────────────
	printStartupSummary(cfg, *sessionID)

	if _, err := manager.StartSession(ctx, *sessionID); err != nil {
		slog.Error("failed to start session", "session", *sessionID, "err", err)
		return 1
	}

	slog.Info("listening — press Ctrl+C to shut down")
	<-ctx.Done()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping…")
	manager.StopAll()

	if opsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := opsServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("ops server shutdown error", "err", err)
		}
	}

	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

func buildSTT(cfg *config.Config) (stt.Transcriber, error) {
	c := cfg.Providers.STT
	switch c.Name {
	case "whispercpp":
		return whispercpp.New(c.BaseURL)
	case "openai":
		var opts []oaistt.Option
		return oaistt.New(c.APIKey, opts...)
	default:
		return nil, fmt.Errorf("unknown stt provider %q", c.Name)
	}
}

func buildLLM(cfg *config.Config) (llm.Responder, error) {
	c := cfg.Providers.LLM
	switch c.Name {
	case "openai":
		var opts []oaillm.Option
		if c.SystemPrompt != "" {
			opts = append(opts, oaillm.WithSystemPrompt(c.SystemPrompt))
		}
		return oaillm.New(c.APIKey, c.Model, opts...)
	default:
		// Everything else goes through any-llm-go, which knows the full
		// backend roster (anthropic, ollama, gemini, ...).
		var opts []anyllmlib.Option
		if c.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(c.APIKey))
		}
		r, err := anyllm.New(c.Name, c.Model, opts...)
		if err != nil {
			return nil, err
		}
		if c.SystemPrompt != "" {
			r.SetSystemPrompt(c.SystemPrompt)
		}
		return r, nil
	}
}

func buildTTS(cfg *config.Config) (*elevenlabs.Synthesizer, error) {
	c := cfg.Providers.TTS
	var opts []elevenlabs.Option
	if c.Model != "" {
		opts = append(opts, elevenlabs.WithModel(c.Model))
	}
	return elevenlabs.New(c.APIKey, opts...)
}

// printVoices lists the synthesis voices available to the configured account.
func printVoices(ctx context.Context, synth *elevenlabs.Synthesizer) int {
	voices, err := synth.ListVoices(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "voicetutor: list voices: %v\n", err)
		return 1
	}
	for _, v := range voices {
		fmt.Printf("%s\t%s\n", v.ID, v.Name)
	}
	return 0
}

// ── Ops server ────────────────────────────────────────────────────────────────

// newOpsServer serves /metrics, /healthz and /readyz. Readiness requires the
// main session's capture loop to be live.
func newOpsServer(addr string, metrics *observe.Metrics, manager *convo.Manager, sessionID string) *http.Server {
	checker := health.Checker{
		Name: "session",
		Check: func(_ context.Context) error {
			s, ok := manager.Session(sessionID)
			if !ok {
				return fmt.Errorf("session %q not running", sessionID)
			}
			if !s.Listener.Listening() {
				return fmt.Errorf("session %q not capturing", sessionID)
			}
			return nil
		},
	}

	mux := http.NewServeMux()
	health.New(checker).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(metrics)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, sessionID string) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║        voicetutor — startup summary   ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("STT", cfg.Providers.STT.Name, "")
	printProvider("LLM", cfg.Providers.LLM.Name, cfg.Providers.LLM.Model)
	printProvider("TTS", cfg.Providers.TTS.Name, cfg.Providers.TTS.Model)
	fmt.Printf("║  Session         : %-19s ║\n", sessionID)
	fmt.Printf("║  Sample rate     : %-19d ║\n", cfg.Audio.SampleRate)
	fmt.Printf("║  Frame           : %-16d ms ║\n", cfg.Audio.FrameMs)
	if cfg.Server.OpsAddr != "" {
		fmt.Printf("║  Ops addr        : %-19s ║\n", cfg.Server.OpsAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
