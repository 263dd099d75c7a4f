package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/MrWong99/voicetutor/internal/config"
)

const minimalYAML = `
providers:
  tts:
    voice_id: test-voice
`

func TestLoadFromReader_DefaultsApplied(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(minimalYAML))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("log level = %q, want info", cfg.Server.LogLevel)
	}
	if cfg.Audio.SampleRate != 16000 || cfg.Audio.FrameMs != 30 {
		t.Errorf("audio = %d Hz / %d ms, want 16000/30", cfg.Audio.SampleRate, cfg.Audio.FrameMs)
	}
	if cfg.Audio.MaxBufferFrames != 100 || cfg.Audio.QueueDepth != 64 {
		t.Errorf("buffers = %d/%d, want 100/64", cfg.Audio.MaxBufferFrames, cfg.Audio.QueueDepth)
	}
	if *cfg.VAD.Aggressiveness != 2 {
		t.Errorf("aggressiveness = %d, want 2", *cfg.VAD.Aggressiveness)
	}
	if cfg.VAD.StartFraction != 0.8 || cfg.VAD.StopRatio != 0.9 || cfg.VAD.PaddingMs != 300 {
		t.Errorf("vad = %v/%v/%d, want 0.8/0.9/300",
			cfg.VAD.StartFraction, cfg.VAD.StopRatio, cfg.VAD.PaddingMs)
	}
	if cfg.Turn.SilenceThreshold != 800*time.Millisecond {
		t.Errorf("silence threshold = %v, want 800ms", cfg.Turn.SilenceThreshold)
	}
	if cfg.Turn.WindowSize != 10 || cfg.Turn.MaxUtterance != 10*time.Second {
		t.Errorf("turn = %d/%v, want 10/10s", cfg.Turn.WindowSize, cfg.Turn.MaxUtterance)
	}
	if cfg.Turn.BargePoll != 50*time.Millisecond {
		t.Errorf("barge poll = %v, want 50ms", cfg.Turn.BargePoll)
	}
	if cfg.Providers.STT.Name != "openai" || cfg.Providers.LLM.Name != "openai" || cfg.Providers.TTS.Name != "elevenlabs" {
		t.Errorf("provider defaults = %s/%s/%s",
			cfg.Providers.STT.Name, cfg.Providers.LLM.Name, cfg.Providers.TTS.Name)
	}
	if cfg.Providers.LLM.Model != "gpt-4" {
		t.Errorf("llm model = %q, want gpt-4", cfg.Providers.LLM.Model)
	}
}

func TestLoadFromReader_ExplicitZeroAggressivenessSurvives(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(`
vad:
  aggressiveness: 0
providers:
  tts:
    voice_id: v
`))
	if err != nil {
		t.Fatal(err)
	}
	if *cfg.VAD.Aggressiveness != 0 {
		t.Errorf("aggressiveness = %d, want explicit 0", *cfg.VAD.Aggressiveness)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader(`
providrs:
  tts:
    voice_id: v
`))
	if err == nil {
		t.Error("misspelled top-level key accepted")
	}
}

func TestLoadFromReader_EnvExpansionInAPIKeys(t *testing.T) {
	t.Setenv("VT_TEST_KEY", "sk-secret")

	cfg, err := config.LoadFromReader(strings.NewReader(`
providers:
  llm:
    api_key: ${VT_TEST_KEY}
  tts:
    voice_id: v
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Providers.LLM.APIKey != "sk-secret" {
		t.Errorf("api key = %q, want expanded secret", cfg.Providers.LLM.APIKey)
	}
}

func TestValidate_CollectsAllFailures(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(minimalYAML))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Audio.SampleRate = 44100
	cfg.Audio.FrameMs = 25
	cfg.VAD.StartFraction = 1.5

	err = config.Validate(cfg)
	if err == nil {
		t.Fatal("invalid config accepted")
	}
	for _, want := range []string{"sample_rate", "frame_ms", "start_fraction"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"bad log level", func(c *config.Config) { c.Server.LogLevel = "verbose" }},
		{"bad sample rate", func(c *config.Config) { c.Audio.SampleRate = 22050 }},
		{"bad frame ms", func(c *config.Config) { c.Audio.FrameMs = 15 }},
		{"aggressiveness out of range", func(c *config.Config) { a := 4; c.VAD.Aggressiveness = &a }},
		{"stop ratio zero", func(c *config.Config) { c.VAD.StopRatio = 0 }},
		{"padding under a frame", func(c *config.Config) { c.VAD.PaddingMs = 10 }},
		{"silence threshold too low", func(c *config.Config) { c.Turn.SilenceThreshold = 10 * time.Millisecond }},
		{"window size zero", func(c *config.Config) { c.Turn.WindowSize = -1 }},
		{"max utterance too low", func(c *config.Config) { c.Turn.MaxUtterance = 100 * time.Millisecond }},
		{"barge poll too low", func(c *config.Config) { c.Turn.BargePoll = time.Millisecond }},
		{"whispercpp without base url", func(c *config.Config) { c.Providers.STT.Name = "whispercpp" }},
		{"missing voice id", func(c *config.Config) { c.Providers.TTS.VoiceID = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := config.LoadFromReader(strings.NewReader(minimalYAML))
			if err != nil {
				t.Fatal(err)
			}
			tc.mutate(cfg)
			if err := config.Validate(cfg); err == nil {
				t.Error("invalid config accepted")
			}
		})
	}
}

func TestValidate_UnknownProviderNameIsOnlyAWarning(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(minimalYAML))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Providers.LLM.Name = "homegrown"
	if err := config.Validate(cfg); err != nil {
		t.Errorf("unknown provider name rejected: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load("/nonexistent/config.yaml"); err == nil {
		t.Error("missing file accepted")
	}
}
