// Package config provides the configuration schema and loader for the
// voice tutor.
package config

import "time"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure, typically loaded from a YAML
// file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Audio     AudioConfig     `yaml:"audio"`
	VAD       VADConfig       `yaml:"vad"`
	Turn      TurnConfig      `yaml:"turn"`
	Providers ProvidersConfig `yaml:"providers"`
}

// ServerConfig holds the ops listener and logging settings.
type ServerConfig struct {
	// OpsAddr is the TCP address of the operational HTTP listener serving
	// /metrics, /healthz and /readyz (e.g. "127.0.0.1:9090"). Empty
	// disables the listener.
	OpsAddr string `yaml:"ops_addr"`

	// LogLevel controls verbosity. Default: info.
	LogLevel LogLevel `yaml:"log_level"`
}

// AudioConfig describes the capture stream framing.
type AudioConfig struct {
	// SampleRate in Hz. Must be 8000, 16000, 32000 or 48000. Default 16000.
	SampleRate int `yaml:"sample_rate"`

	// FrameMs is the frame duration in milliseconds: 10, 20 or 30.
	// Default 30.
	FrameMs int `yaml:"frame_ms"`

	// MaxBufferFrames bounds the rolling capture buffer. Default 100.
	MaxBufferFrames int `yaml:"max_buffer_frames"`

	// QueueDepth bounds the capture block queue. Default 64.
	QueueDepth int `yaml:"queue_depth"`
}

// VADConfig tunes speech detection and segment collection.
type VADConfig struct {
	// Aggressiveness is the detector strictness, 0 (permissive) to 3
	// (strict). Pointer so an explicit 0 is distinguishable from an
	// omitted field. Default 2.
	Aggressiveness *int `yaml:"aggressiveness"`

	// StartFraction of the padding window that must be voiced before a
	// segment opens. Default 0.8.
	StartFraction float64 `yaml:"start_fraction"`

	// StopRatio of the padding window that must be unvoiced before a
	// segment closes. Default 0.9.
	StopRatio float64 `yaml:"stop_ratio"`

	// PaddingMs is the collector's padding window length. Default 300.
	PaddingMs int `yaml:"padding_ms"`
}

// TurnConfig tunes the conversation turn state machine.
type TurnConfig struct {
	// SilenceThreshold is how long sustained silence finalizes an
	// utterance. Default 800ms.
	SilenceThreshold time.Duration `yaml:"silence_threshold"`

	// WindowSize is the speaking-flag sliding window length. Default 10.
	WindowSize int `yaml:"window_size"`

	// MaxUtterance force-finalizes an utterance that never goes silent.
	// Default 10s.
	MaxUtterance time.Duration `yaml:"max_utterance"`

	// BargePoll is the barge-in monitor poll interval. Default 50ms.
	BargePoll time.Duration `yaml:"barge_poll"`
}

// ProvidersConfig selects and configures the pipeline collaborators.
type ProvidersConfig struct {
	STT STTConfig `yaml:"stt"`
	LLM LLMConfig `yaml:"llm"`
	TTS TTSConfig `yaml:"tts"`
}

// STTConfig selects the transcription backend.
type STTConfig struct {
	// Name is "whispercpp" or "openai". Default "openai".
	Name string `yaml:"name"`

	// APIKey authenticates hosted backends. ${ENV} references are
	// expanded.
	APIKey string `yaml:"api_key"`

	// BaseURL points whispercpp at its server
	// (e.g. "http://127.0.0.1:8080").
	BaseURL string `yaml:"base_url"`

	// Language is an optional ISO 639-1 transcription hint.
	Language string `yaml:"language"`
}

// LLMConfig selects the assistant backend.
type LLMConfig struct {
	// Name is "openai" or an any-llm-go backend name ("anthropic",
	// "ollama", ...). Default "openai".
	Name string `yaml:"name"`

	// APIKey authenticates hosted backends. ${ENV} references are
	// expanded.
	APIKey string `yaml:"api_key"`

	// Model is the model identifier (e.g. "gpt-4"). Default "gpt-4".
	Model string `yaml:"model"`

	// SystemPrompt overrides the built-in tutor prompt.
	SystemPrompt string `yaml:"system_prompt"`
}

// TTSConfig selects the synthesis backend.
type TTSConfig struct {
	// Name is "elevenlabs". Default "elevenlabs".
	Name string `yaml:"name"`

	// APIKey authenticates the backend. ${ENV} references are expanded.
	APIKey string `yaml:"api_key"`

	// VoiceID is the backend-specific voice identifier.
	VoiceID string `yaml:"voice_id"`

	// Model is the synthesis model (e.g. "eleven_flash_v2_5").
	Model string `yaml:"model"`
}

// withDefaults fills unset fields with production defaults.
func (c *Config) withDefaults() {
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = LogInfo
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.FrameMs == 0 {
		c.Audio.FrameMs = 30
	}
	if c.Audio.MaxBufferFrames == 0 {
		c.Audio.MaxBufferFrames = 100
	}
	if c.Audio.QueueDepth == 0 {
		c.Audio.QueueDepth = 64
	}
	if c.VAD.Aggressiveness == nil {
		def := 2
		c.VAD.Aggressiveness = &def
	}
	if c.VAD.StartFraction == 0 {
		c.VAD.StartFraction = 0.8
	}
	if c.VAD.StopRatio == 0 {
		c.VAD.StopRatio = 0.9
	}
	if c.VAD.PaddingMs == 0 {
		c.VAD.PaddingMs = 300
	}
	if c.Turn.SilenceThreshold == 0 {
		c.Turn.SilenceThreshold = 800 * time.Millisecond
	}
	if c.Turn.WindowSize == 0 {
		c.Turn.WindowSize = 10
	}
	if c.Turn.MaxUtterance == 0 {
		c.Turn.MaxUtterance = 10 * time.Second
	}
	if c.Turn.BargePoll == 0 {
		c.Turn.BargePoll = 50 * time.Millisecond
	}
	if c.Providers.STT.Name == "" {
		c.Providers.STT.Name = "openai"
	}
	if c.Providers.LLM.Name == "" {
		c.Providers.LLM.Name = "openai"
	}
	if c.Providers.LLM.Model == "" {
		c.Providers.LLM.Model = "gpt-4"
	}
	if c.Providers.TTS.Name == "" {
		c.Providers.TTS.Name = "elevenlabs"
	}
}
