// Package whispercpp provides a Transcriber backed by a local whisper.cpp
// server (the `whisper-server` binary) over its HTTP inference API.
package whispercpp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/MrWong99/voicetutor/pkg/audio"
	"github.com/MrWong99/voicetutor/pkg/provider/stt"
)

const defaultTimeout = 60 * time.Second

// Option is a functional option for configuring the Transcriber.
type Option func(*Transcriber)

// WithHTTPClient overrides the HTTP client (useful for tests).
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transcriber) {
		t.httpClient = c
	}
}

// WithTemperature sets the decoding temperature passed to the server.
func WithTemperature(temp float64) Option {
	return func(t *Transcriber) {
		t.temperature = &temp
	}
}

// Transcriber implements stt.Transcriber against a whisper.cpp server.
type Transcriber struct {
	baseURL     string
	httpClient  *http.Client
	temperature *float64
}

var _ stt.Transcriber = (*Transcriber)(nil)

// New creates a Transcriber for the server at baseURL
// (e.g. "http://127.0.0.1:8080").
func New(baseURL string, opts ...Option) (*Transcriber, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("whispercpp: baseURL must not be empty")
	}
	t := &Transcriber{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// inferenceResponse is the JSON body returned by POST /inference.
type inferenceResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Transcribe implements [stt.Transcriber]. PCM requests are wrapped in a
// WAV container in memory; path requests are streamed from disk.
func (t *Transcriber) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	var wav []byte
	switch {
	case len(req.PCM) > 0:
		rate := req.SampleRate
		if rate <= 0 {
			rate = 16000
		}
		wav = audio.EncodeWAV(req.PCM, rate, 1)
	case req.Path != "":
		data, err := os.ReadFile(req.Path)
		if err != nil {
			return "", fmt.Errorf("whispercpp: read %s: %w", req.Path, err)
		}
		wav = data
	default:
		return "", stt.ErrEmptyAudio
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("whispercpp: build form: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return "", fmt.Errorf("whispercpp: build form: %w", err)
	}
	mw.WriteField("response_format", "json")
	if req.Language != "" {
		mw.WriteField("language", req.Language)
	}
	if t.temperature != nil {
		mw.WriteField("temperature", fmt.Sprintf("%g", *t.temperature))
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whispercpp: build form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("whispercpp: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("whispercpp: inference request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whispercpp: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whispercpp: inference status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var ir inferenceResponse
	if err := json.Unmarshal(raw, &ir); err != nil {
		return "", fmt.Errorf("whispercpp: decode response: %w", err)
	}
	if ir.Error != "" {
		return "", fmt.Errorf("whispercpp: server error: %s", ir.Error)
	}
	return strings.TrimSpace(ir.Text), nil
}
