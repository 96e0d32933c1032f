// Package local implements the Transcriber interface using self-hosted
// Whisper-compatible servers (whisper.cpp server, faster-whisper,
// ahmetoner/whisper-asr-webservice).
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/nadzzz/fotiva/internal/config"
	"github.com/nadzzz/fotiva/internal/transcriber"
)

// Transcriber posts audio to a local Whisper endpoint.
type Transcriber struct {
	endpoint        string
	kind            string // "openai" or "asr"
	vadFilter       bool
	defaultLanguage string
	client          *http.Client
}

// New creates a local transcriber from config.
func New(cfg config.LocalWhisperConfig, language string) *Transcriber {
	kind := cfg.Type
	if kind == "" {
		kind = "openai"
	}
	return &Transcriber{
		endpoint:        cfg.Endpoint,
		kind:            kind,
		vadFilter:       cfg.VADFilter,
		defaultLanguage: language,
		client:          &http.Client{},
	}
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "local" }

// Transcribe sends audio to the local endpoint. Two flavors are supported:
//   - "openai": OpenAI-compatible API (POST multipart with field "file")
//   - "asr":    whisper-asr-webservice (POST /asr with query params)
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, contentType string, opts transcriber.Opts) (*transcriber.Result, error) {
	lang := opts.Language
	if lang == "" {
		lang = t.defaultLanguage
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	field := "file"
	if t.kind == "asr" {
		field = "audio_file"
	}
	part, err := writer.CreateFormFile(field, "audio"+transcriber.ExtFromContentType(contentType))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}

	reqURL := t.endpoint
	if t.kind == "asr" {
		q := make(url.Values)
		q.Set("task", "transcribe")
		q.Set("output", "json")
		q.Set("encode", "true")
		if lang != "" {
			q.Set("language", lang)
		}
		if opts.Prompt != "" {
			q.Set("initial_prompt", opts.Prompt)
		}
		if t.vadFilter {
			q.Set("vad_filter", "true")
		}
		reqURL += "?" + q.Encode()
	} else {
		if opts.Model != "" {
			_ = writer.WriteField("model", opts.Model)
		}
		if lang != "" {
			_ = writer.WriteField("language", lang)
		}
		if opts.Prompt != "" {
			_ = writer.WriteField("prompt", opts.Prompt)
		}
		_ = writer.WriteField("response_format", "json")
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	slog.Debug("local transcription request", "url", reqURL, "kind", t.kind, "bytes", len(audio))

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("local transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("local transcription failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding transcription: %w", err)
	}

	slog.Debug("local transcription complete", "text_length", len(result.Text), "language", result.Language)
	return &transcriber.Result{
		Text:     result.Text,
		Language: transcriber.NormalizeLanguage(result.Language),
	}, nil
}

// Close is a no-op for the HTTP-based transcriber.
func (t *Transcriber) Close() error { return nil }
