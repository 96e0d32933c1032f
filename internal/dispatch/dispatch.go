// Package dispatch implements the turn pipeline of the assistant.
//
// The dispatcher receives utterances from transports, transcribes audio,
// classifies the command, runs the event-creation dialogue against the
// session's pending draft, and answers with bot messages. The sender always
// receives the reply; navigation directives are additionally pushed to the
// configured targets once the navigation delay has elapsed.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nadzzz/fotiva/internal/dialogue"
	"github.com/nadzzz/fotiva/internal/intent"
	"github.com/nadzzz/fotiva/internal/message"
	"github.com/nadzzz/fotiva/internal/metrics"
	"github.com/nadzzz/fotiva/internal/session"
	"github.com/nadzzz/fotiva/internal/slots"
	"github.com/nadzzz/fotiva/internal/studio"
	"github.com/nadzzz/fotiva/internal/transcriber"
	"github.com/nadzzz/fotiva/internal/transport"
	"github.com/nadzzz/fotiva/internal/tts"
)

// DefaultNavigationDelay gives the confirmation message time to be read
// or heard before the view changes.
const DefaultNavigationDelay = 1500 * time.Millisecond

// transcriptionPrompt biases speech recognition towards the command vocabulary.
const transcriptionPrompt = "Assistente de estúdio fotográfico: criar evento, cliente, dia, às, local, no valor de reais, ver eventos, pagamentos, galeria, dashboard, cancelar."

// Command outcomes used as the status label of the commands metric.
const (
	statusOK           = "ok"
	statusAwaiting     = "awaiting"
	statusFailed       = "failed"
	statusUnrecognized = "unrecognized"
)

// Backend is the client directory and event service.
type Backend interface {
	ListClients(ctx context.Context) ([]studio.Client, error)
	CreateClient(ctx context.Context, c studio.NewClient) (*studio.Client, error)
	CreateEvent(ctx context.Context, e studio.NewEvent) (*studio.Event, error)
}

// Options wires the dispatcher's collaborators.
type Options struct {
	Backend  Backend       // required
	Sessions session.Store // required

	// Transcriber handles audio utterances; nil rejects them.
	Transcriber transcriber.Transcriber

	// Synthesizer speaks bot messages; nil disables speech output.
	Synthesizer tts.Synthesizer

	// Transports deliver navigation pushes, looked up by target protocol.
	Transports []transport.Transport

	NavigationTargets []message.Target
	NavigationDelay   time.Duration // zero means DefaultNavigationDelay

	// DraftTTL abandons pending drafts older than this; zero keeps them.
	DraftTTL time.Duration

	// EventStatus is the status of created events ("confirmado").
	EventStatus string

	// Language guides transcription.
	Language string

	// Now and AfterFunc default to the time package.
	Now       func() time.Time
	AfterFunc func(d time.Duration, f func())
}

// Dispatcher is the central turn-handling engine.
type Dispatcher struct {
	backend     Backend
	sessions    session.Store
	transcriber transcriber.Transcriber
	synthesizer tts.Synthesizer
	speaks      bool
	transports  map[string]transport.Transport
	targets     []message.Target
	navDelay    time.Duration
	draftTTL    time.Duration
	eventStatus string
	language    string
	now         func() time.Time
	after       func(d time.Duration, f func())
	locks       *sessionLocks
}

// New creates a Dispatcher.
func New(opts Options) *Dispatcher {
	tm := make(map[string]transport.Transport, len(opts.Transports))
	for _, t := range opts.Transports {
		tm[t.Name()] = t
	}

	d := &Dispatcher{
		backend:     opts.Backend,
		sessions:    opts.Sessions,
		transcriber: opts.Transcriber,
		synthesizer: opts.Synthesizer,
		speaks:      opts.Synthesizer != nil,
		transports:  tm,
		targets:     opts.NavigationTargets,
		navDelay:    opts.NavigationDelay,
		draftTTL:    opts.DraftTTL,
		eventStatus: opts.EventStatus,
		language:    opts.Language,
		now:         opts.Now,
		after:       opts.AfterFunc,
		locks:       newSessionLocks(),
	}
	if d.synthesizer == nil {
		d.synthesizer = tts.Nop{}
	}
	if d.navDelay <= 0 {
		d.navDelay = DefaultNavigationDelay
	}
	if d.eventStatus == "" {
		d.eventStatus = "confirmado"
	}
	if d.now == nil {
		d.now = time.Now
	}
	if d.after == nil {
		d.after = func(delay time.Duration, f func()) { time.AfterFunc(delay, f) }
	}
	return d
}

// resolveResponseMode determines the effective ResponseMode for an utterance.
// If the caller didn't specify one, the default depends on whether TTS is available.
func (d *Dispatcher) resolveResponseMode(mode message.ResponseMode) message.ResponseMode {
	switch mode {
	case message.ResponseModeNone, message.ResponseModeText,
		message.ResponseModeAudio, message.ResponseModeTextAudio:
		return mode
	default:
		if d.speaks {
			return message.ResponseModeTextAudio
		}
		return message.ResponseModeText
	}
}

func wantText(mode message.ResponseMode) bool {
	return mode == message.ResponseModeText || mode == message.ResponseModeTextAudio
}

func wantAudio(mode message.ResponseMode) bool {
	return mode == message.ResponseModeAudio || mode == message.ResponseModeTextAudio
}

// Handle processes a single utterance through the full pipeline.
// This function is passed as the transport.Handler to each transport.
func (d *Dispatcher) Handle(ctx context.Context, u *message.Utterance) (*message.Reply, error) {
	start := d.now()
	u.Normalize(start)
	logger := slog.With("message_id", u.ID, "session", u.Session)

	respMode := d.resolveResponseMode(u.ResponseMode)
	reply := &message.Reply{MessageID: u.ID, Session: u.Session}

	defer func() {
		metrics.CommandDuration.Observe(d.now().Sub(start).Seconds())
	}()

	// Step 1: Transcribe audio (if present).
	text, err := d.transcript(ctx, u, logger)
	if err != nil {
		reply.Error = err.Error()
		metrics.CommandsTotal.WithLabelValues(string(intent.Unrecognized), statusFailed).Inc()
		return reply, nil
	}
	reply.Transcript = text

	// Turns of one session run one at a time.
	unlock := d.locks.lock(u.Session)
	defer unlock()

	// Step 2: Load the dialogue state.
	state, err := session.Load(ctx, d.sessions, u.Session)
	if err != nil {
		logger.Error("session store failed", "error", err)
		reply.Error = fmt.Sprintf("session store unavailable: %v", err)
		metrics.CommandsTotal.WithLabelValues(string(intent.Unrecognized), statusFailed).Inc()
		return reply, nil
	}
	if dialogue.Expired(state, start, d.draftTTL) {
		logger.Info("pending draft expired", "ttl", d.draftTTL)
		state = dialogue.Idle{}
	}

	// Step 3: Classify and run the command.
	_, pending := dialogue.Pending(state)
	in := intent.Classify(text, pending)
	reply.Intent = string(in)
	reply.Messages = append(reply.Messages, message.Line{Role: message.RoleUser, Text: text})
	logger.Info("utterance classified", "intent", in, "pending_draft", pending)

	next, status := d.run(ctx, in, state, text, start, reply, logger)

	if err := d.sessions.Put(ctx, u.Session, next); err != nil {
		logger.Error("saving session failed", "error", err)
		reply.Error = fmt.Sprintf("saving session: %v", err)
		status = statusFailed
	}
	reply.State = string(next.Phase())
	if draft, ok := dialogue.Pending(next); ok && reply.Draft == nil {
		r := slots.Result(draft)
		reply.Draft = &r
	}

	// Step 4: Speak and shape the reply for the requested response mode.
	if wantAudio(respMode) {
		d.speak(ctx, reply, logger)
	}
	if !wantText(respMode) {
		reply.Messages = nil
	}

	metrics.CommandsTotal.WithLabelValues(string(in), status).Inc()
	logger.Info("turn complete", "intent", in, "status", status, "state", reply.State, "duration", d.now().Sub(start))
	return reply, nil
}

func (d *Dispatcher) transcript(ctx context.Context, u *message.Utterance, logger *slog.Logger) (string, error) {
	if !u.HasAudio() {
		text := slots.Normalize(u.Text)
		if text == "" {
			return "", errors.New("utterance has no audio and no text")
		}
		return text, nil
	}
	if d.transcriber == nil {
		return "", errors.New("audio utterances need a transcriber backend")
	}

	logger.Debug("transcribing audio", "content_type", u.ContentType, "bytes", len(u.Audio))
	res, err := d.transcriber.Transcribe(ctx, u.Audio, u.ContentType, transcriber.Opts{
		Language: d.language,
		Prompt:   transcriptionPrompt,
	})
	if err != nil {
		logger.Error("transcription failed", "error", err)
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	text := slots.Normalize(res.Text)
	if text == "" {
		return "", errors.New("no speech recognized")
	}
	logger.Info("transcription complete", "text_length", len(text), "language", res.Language)
	return text, nil
}

// run executes one classified command and returns the next dialogue state.
func (d *Dispatcher) run(ctx context.Context, in intent.Intent, state dialogue.State, text string, now time.Time, reply *message.Reply, logger *slog.Logger) (dialogue.State, string) {
	switch in {
	case intent.CreateEvent:
		next, out := dialogue.Start(slots.Extract(text, now), now)
		return next, d.advance(ctx, out, reply, msgStartMissing, logger)

	case intent.ContinueDraft:
		next, out := dialogue.Continue(state, slots.Extract(text, now), now)
		return next, d.advance(ctx, out, reply, msgContinueMissing, logger)

	case intent.Cancel:
		if _, ok := dialogue.Pending(state); ok {
			reply.Say(msgCancelled)
		} else {
			reply.Say(msgNothingToCancel)
		}
		return dialogue.Cancel(state), statusOK

	case intent.Help:
		reply.Say(msgHelp)
		return state, statusOK

	case intent.Unrecognized:
		reply.Say(msgUnrecognized)
		return state, statusUnrecognized
	}

	route, ok := in.Route()
	if !ok {
		reply.Say(msgUnrecognized)
		return state, statusUnrecognized
	}
	reply.Say(navigationMessages[in])
	reply.Navigation = &message.Navigation{Route: route, DelayMS: d.navDelay.Milliseconds()}
	d.navigate(reply.Session, route, logger)
	return state, statusOK
}

// advance reports a transition: asks for missing fields or runs the
// completion action on a complete draft.
func (d *Dispatcher) advance(ctx context.Context, out dialogue.Outcome, reply *message.Reply, ask string, logger *slog.Logger) string {
	r := slots.Result(out.Draft)
	reply.Draft = &r

	if !out.Ready {
		reply.Missing = out.Missing
		reply.Say(ask + joinLabels(out.Missing) + ".")
		logger.Info("draft awaiting slots", "missing", strings.Join(out.Missing, ","))
		return statusAwaiting
	}
	return d.complete(ctx, out.Draft, reply, logger)
}

func (d *Dispatcher) speak(ctx context.Context, reply *message.Reply, logger *slog.Logger) {
	text := reply.BotText()
	if text == "" {
		return
	}
	speech, err := d.synthesizer.Synthesize(ctx, text, tts.Opts{})
	if err != nil {
		logger.Warn("TTS synthesis failed, continuing without audio", "error", err)
		return
	}
	if speech == nil {
		return
	}
	reply.SetResponseAudioBytes(speech.Audio)
	reply.ResponseContentType = speech.ContentType
	logger.Debug("TTS synthesis complete", "audio_bytes", len(speech.Audio))
}

// Session returns the dialogue state of a session.
func (d *Dispatcher) Session(ctx context.Context, id string) (dialogue.State, error) {
	unlock := d.locks.lock(id)
	defer unlock()

	state, err := session.Load(ctx, d.sessions, id)
	if err != nil {
		return nil, err
	}
	if dialogue.Expired(state, d.now(), d.draftTTL) {
		return dialogue.Idle{}, nil
	}
	return state, nil
}

// Reset drops the pending draft of a session.
func (d *Dispatcher) Reset(ctx context.Context, id string) error {
	unlock := d.locks.lock(id)
	defer unlock()
	return d.sessions.Delete(ctx, id)
}
