// Package message defines the data types flowing through the assistant pipeline.
package message

import (
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/nadzzz/fotiva/internal/slots"
)

// DefaultSession is used for utterances that do not name a session.
const DefaultSession = "default"

// ResponseMode controls what natural-language output the caller wants.
type ResponseMode string

const (
	// ResponseModeNone suppresses bot messages and speech; only the
	// structured fields of the reply are filled.
	ResponseModeNone ResponseMode = "none"

	// ResponseModeText returns the bot messages as text.
	ResponseModeText ResponseMode = "text"

	// ResponseModeAudio returns synthesized speech only.
	ResponseModeAudio ResponseMode = "audio"

	// ResponseModeTextAudio returns both text and synthesized speech.
	ResponseModeTextAudio ResponseMode = "text+audio"
)

// Role identifies who authored a chat line.
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Utterance is one finalized unit of user input, spoken or typed.
type Utterance struct {
	// ID is a unique identifier for this utterance (UUID).
	ID string `json:"id"`

	// Session groups the turns of one conversation (one chat widget,
	// one device). The pending draft is kept per session.
	Session string `json:"session"`

	// Text is the typed or pre-transcribed utterance.
	Text string `json:"text,omitempty"`

	// Audio is a recorded utterance to transcribe. Ignored when Text is set.
	Audio []byte `json:"audio,omitempty"`

	// ContentType is the MIME type of Audio (e.g., "audio/wav", "audio/webm").
	ContentType string `json:"content_type,omitempty"`

	// ResponseMode defaults to "text" without TTS and "text+audio" with it.
	ResponseMode ResponseMode `json:"response_mode,omitempty"`

	// Timestamp is when the utterance was received.
	Timestamp time.Time `json:"timestamp"`
}

// HasAudio reports whether the utterance still needs transcription.
func (u *Utterance) HasAudio() bool {
	return u.Text == "" && len(u.Audio) > 0
}

// Normalize fills in the ID, session and timestamp when absent.
func (u *Utterance) Normalize(now time.Time) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Session == "" {
		u.Session = DefaultSession
	}
	if u.Timestamp.IsZero() {
		u.Timestamp = now
	}
}

// Line is one chat message shown to the user.
type Line struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Navigation asks the front end to open a route once Delay has elapsed.
type Navigation struct {
	Route   string `json:"route"`
	DelayMS int64  `json:"delay_ms"`
}

// NavigationPush is the payload sent to navigation targets.
type NavigationPush struct {
	Session string `json:"session"`
	Route   string `json:"route"`
}

// Target defines a downstream service that receives navigation pushes.
type Target struct {
	// ServiceName is a human-readable identifier (e.g., "web", "kiosk").
	ServiceName string `json:"service_name" mapstructure:"service_name"`

	// Endpoint is the address: URL for http, host:port for grpc, topic for mqtt.
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`

	// Protocol is the transport to use ("http", "grpc", "mqtt").
	Protocol string `json:"protocol" mapstructure:"protocol"`
}

// EventSummary describes the event created by a completed draft.
type EventSummary struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	ClientID   string  `json:"client_id"`
	ClientName string  `json:"client_name"`
	Date       string  `json:"date"`
	Time       string  `json:"time"`
	Location   string  `json:"location"`
	TotalValue float64 `json:"total_value"`
	Status     string  `json:"status"`
}

// Reply is the outcome of one turn.
type Reply struct {
	// MessageID is the utterance ID.
	MessageID string `json:"message_id"`

	Session string `json:"session"`

	// Transcript is the interpreted text (transcribed when audio was sent).
	Transcript string `json:"transcript,omitempty"`

	Intent string `json:"intent"`

	// State is the conversation state after the turn ("idle", "awaiting_slots").
	State string `json:"state"`

	// Draft is the pending or just-completed draft.
	Draft *slots.Result `json:"draft,omitempty"`

	// Missing lists the labels of the fields the assistant still needs.
	Missing []string `json:"missing,omitempty"`

	// Messages holds the user echo and the bot lines of this turn.
	Messages []Line `json:"messages,omitempty"`

	Navigation *Navigation `json:"navigation,omitempty"`

	Event *EventSummary `json:"event,omitempty"`

	// ResponseAudio is the synthesized bot speech as base64-encoded WAV.
	ResponseAudio string `json:"response_audio,omitempty"`

	ResponseContentType string `json:"response_content_type,omitempty"`

	// Error is set when the turn could not be processed.
	Error string `json:"error,omitempty"`
}

// Say appends a bot line.
func (r *Reply) Say(text string) {
	r.Messages = append(r.Messages, Line{Role: RoleBot, Text: text})
}

// BotText joins the bot lines of the reply.
func (r *Reply) BotText() string {
	var out string
	for _, l := range r.Messages {
		if l.Role != RoleBot {
			continue
		}
		if out != "" {
			out += " "
		}
		out += l.Text
	}
	return out
}

// SetResponseAudioBytes base64-encodes raw audio bytes into ResponseAudio.
func (r *Reply) SetResponseAudioBytes(audio []byte) {
	if len(audio) > 0 {
		r.ResponseAudio = base64.StdEncoding.EncodeToString(audio)
	}
}
