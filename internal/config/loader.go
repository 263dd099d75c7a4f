package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt": {"whispercpp", "openai"},
	"llm": {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
	"tts": {"elevenlabs"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, fills defaults, expands
// ${ENV} references in secrets and validates the result. Useful in tests
// where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	cfg.withDefaults()
	cfg.Providers.STT.APIKey = os.ExpandEnv(cfg.Providers.STT.APIKey)
	cfg.Providers.LLM.APIKey = os.ExpandEnv(cfg.Providers.LLM.APIKey)
	cfg.Providers.TTS.APIKey = os.ExpandEnv(cfg.Providers.TTS.APIKey)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values. It returns a
// joined error listing all validation failures found; any failure is fatal
// at startup, configuration is never silently corrected.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Audio framing
	switch cfg.Audio.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		errs = append(errs, fmt.Errorf("audio.sample_rate %d is unsupported; valid values: 8000, 16000, 32000, 48000", cfg.Audio.SampleRate))
	}
	switch cfg.Audio.FrameMs {
	case 10, 20, 30:
	default:
		errs = append(errs, fmt.Errorf("audio.frame_ms %d is invalid; valid values: 10, 20, 30", cfg.Audio.FrameMs))
	}
	if cfg.Audio.MaxBufferFrames < 1 {
		errs = append(errs, fmt.Errorf("audio.max_buffer_frames must be at least 1, got %d", cfg.Audio.MaxBufferFrames))
	}
	if cfg.Audio.QueueDepth < 1 {
		errs = append(errs, fmt.Errorf("audio.queue_depth must be at least 1, got %d", cfg.Audio.QueueDepth))
	}

	// VAD
	if a := *cfg.VAD.Aggressiveness; a < 0 || a > 3 {
		errs = append(errs, fmt.Errorf("vad.aggressiveness %d is out of range [0,3]", a))
	}
	if f := cfg.VAD.StartFraction; f <= 0 || f > 1 {
		errs = append(errs, fmt.Errorf("vad.start_fraction %v is out of range (0,1]", f))
	}
	if r := cfg.VAD.StopRatio; r <= 0 || r > 1 {
		errs = append(errs, fmt.Errorf("vad.stop_ratio %v is out of range (0,1]", r))
	}
	if cfg.VAD.PaddingMs < cfg.Audio.FrameMs {
		errs = append(errs, fmt.Errorf("vad.padding_ms %d is shorter than one frame (%d ms)", cfg.VAD.PaddingMs, cfg.Audio.FrameMs))
	}

	// Turn taking
	if cfg.Turn.SilenceThreshold < 100*time.Millisecond {
		errs = append(errs, fmt.Errorf("turn.silence_threshold %v is below the 100ms minimum", cfg.Turn.SilenceThreshold))
	}
	if cfg.Turn.WindowSize < 1 {
		errs = append(errs, fmt.Errorf("turn.window_size must be at least 1, got %d", cfg.Turn.WindowSize))
	}
	if cfg.Turn.MaxUtterance < time.Second {
		errs = append(errs, fmt.Errorf("turn.max_utterance %v is below the 1s minimum", cfg.Turn.MaxUtterance))
	}
	if cfg.Turn.BargePoll < 10*time.Millisecond {
		errs = append(errs, fmt.Errorf("turn.barge_poll %v is below the 10ms minimum", cfg.Turn.BargePoll))
	}

	// Provider name validation — warn for unknown provider names so a new
	// backend can be wired without touching this table first.
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("llm", cfg.Providers.LLM.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)

	if cfg.Providers.STT.Name == "whispercpp" && cfg.Providers.STT.BaseURL == "" {
		errs = append(errs, errors.New("providers.stt.base_url is required for the whispercpp backend"))
	}
	if cfg.Providers.TTS.VoiceID == "" {
		errs = append(errs, errors.New("providers.tts.voice_id must be set"))
	}

	return errors.Join(errs...)
}

// validateProviderName warns (does not fail) about unknown provider names.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	valid := ValidProviderNames[kind]
	if !slices.Contains(valid, name) {
		slog.Warn("unknown provider name",
			"kind", kind,
			"name", name,
			"known", valid)
	}
}
