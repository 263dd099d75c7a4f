// Package openai provides a Transcriber backed by the OpenAI audio
// transcription API (whisper-1 by default).
package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MrWong99/voicetutor/pkg/audio"
	"github.com/MrWong99/voicetutor/pkg/provider/stt"
	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Option is a functional option for configuring the Transcriber.
type Option func(*Transcriber)

// WithModel overrides the transcription model.
func WithModel(model string) Option {
	return func(t *Transcriber) {
		t.model = model
	}
}

// WithRequestOptions appends openai-go request options (base URL overrides,
// custom HTTP clients, extra headers).
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(t *Transcriber) {
		t.requestOpts = append(t.requestOpts, opts...)
	}
}

// Transcriber implements stt.Transcriber via the OpenAI API.
type Transcriber struct {
	client      oai.Client
	model       string
	requestOpts []option.RequestOption
}

var _ stt.Transcriber = (*Transcriber)(nil)

// New creates a Transcriber. apiKey must be non-empty.
func New(apiKey string, opts ...Option) (*Transcriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai stt: apiKey must not be empty")
	}
	t := &Transcriber{model: string(oai.AudioModelWhisper1)}
	for _, o := range opts {
		o(t)
	}
	clientOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, t.requestOpts...)
	t.client = oai.NewClient(clientOpts...)
	return t, nil
}

// Transcribe implements [stt.Transcriber].
func (t *Transcriber) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	var reader io.Reader
	switch {
	case len(req.PCM) > 0:
		rate := req.SampleRate
		if rate <= 0 {
			rate = 16000
		}
		reader = bytes.NewReader(audio.EncodeWAV(req.PCM, rate, 1))
	case req.Path != "":
		f, err := os.Open(req.Path)
		if err != nil {
			return "", fmt.Errorf("openai stt: open %s: %w", req.Path, err)
		}
		defer f.Close()
		reader = f
	default:
		return "", stt.ErrEmptyAudio
	}

	params := oai.AudioTranscriptionNewParams{
		File:  oai.File(reader, "audio.wav", "audio/wav"),
		Model: oai.AudioModel(t.model),
	}
	if req.Language != "" {
		params.Language = oai.String(req.Language)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai stt: transcribe: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
