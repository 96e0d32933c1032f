// Package openai implements the Transcriber interface using OpenAI's Audio
// Transcription API (Whisper / gpt-4o-transcribe).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/nadzzz/fotiva/internal/config"
	"github.com/nadzzz/fotiva/internal/transcriber"
)

const defaultURL = "https://api.openai.com/v1/audio/transcriptions"

// Transcriber calls the OpenAI transcription endpoint.
type Transcriber struct {
	apiKey          string
	model           string
	defaultLanguage string
	url             string
	client          *http.Client
}

// New creates an OpenAI transcriber from config.
func New(cfg config.OpenAIConfig, language string) *Transcriber {
	return &Transcriber{
		apiKey:          cfg.APIKey,
		model:           cfg.Model,
		defaultLanguage: language,
		url:             defaultURL,
		client:          &http.Client{},
	}
}

// Name returns the backend identifier.
func (t *Transcriber) Name() string { return "openai" }

// Transcribe sends audio to the OpenAI Transcription API.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, contentType string, opts transcriber.Opts) (*transcriber.Result, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "audio"+transcriber.ExtFromContentType(contentType))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(audio)); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}

	model := t.model
	if opts.Model != "" {
		model = opts.Model
	}
	_ = writer.WriteField("model", model)

	lang := opts.Language
	if lang == "" {
		lang = t.defaultLanguage
	}
	if lang != "" {
		_ = writer.WriteField("language", lang)
	}
	if opts.Prompt != "" {
		_ = writer.WriteField("prompt", opts.Prompt)
	}
	_ = writer.WriteField("response_format", "json")
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("transcription failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding transcription: %w", err)
	}

	lang = transcriber.NormalizeLanguage(result.Language)
	slog.Debug("transcription complete", "text_length", len(result.Text), "language", lang)
	return &transcriber.Result{Text: result.Text, Language: lang}, nil
}

// Close is a no-op for the HTTP-based transcriber.
func (t *Transcriber) Close() error { return nil }
