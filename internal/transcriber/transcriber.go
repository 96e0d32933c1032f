// Package transcriber defines the speech-to-text port used when an
// utterance arrives as recorded audio.
//
// Two backends are available: OpenAI (cloud) and Local (self-hosted
// Whisper-compatible servers).
package transcriber

import (
	"context"
	"strings"
)

// Opts controls transcription behavior.
type Opts struct {
	// Language is the ISO-639-1 code (e.g., "pt") to guide transcription.
	Language string

	// Prompt provides context to improve recognition of domain-specific terms.
	Prompt string

	// Model overrides the default transcription model.
	Model string
}

// Result holds the transcription output.
type Result struct {
	Text     string
	Language string
}

// Transcriber converts recorded speech to text.
type Transcriber interface {
	// Name returns the backend identifier (e.g., "openai", "local").
	Name() string

	// Transcribe converts audio bytes to text.
	Transcribe(ctx context.Context, audio []byte, contentType string, opts Opts) (*Result, error)

	// Close releases any resources held by the transcriber.
	Close() error
}

// ExtFromContentType maps an audio MIME type to a file extension for
// multipart uploads.
func ExtFromContentType(ct string) string {
	switch {
	case strings.Contains(ct, "wav"):
		return ".wav"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "mp3"), strings.Contains(ct, "mpeg"):
		return ".mp3"
	case strings.Contains(ct, "flac"):
		return ".flac"
	case strings.Contains(ct, "webm"):
		return ".webm"
	case strings.Contains(ct, "mp4"), strings.Contains(ct, "m4a"):
		return ".m4a"
	default:
		return ".wav"
	}
}

// NormalizeLanguage maps full language names returned by some backends
// ("portuguese") to ISO-639-1 codes.
func NormalizeLanguage(lang string) string {
	switch strings.ToLower(lang) {
	case "portuguese", "português":
		return "pt"
	case "english":
		return "en"
	case "spanish", "español":
		return "es"
	}
	return strings.ToLower(lang)
}
