// Package transport defines the interface for pluggable utterance transports.
//
// Each transport (gRPC, HTTP/WebSocket, MQTT) implements this interface and
// is registered with the dispatcher. The dispatcher doesn't care how
// utterances arrive; it only works with the Transport contract.
package transport

import (
	"context"

	"github.com/nadzzz/fotiva/internal/dialogue"
	"github.com/nadzzz/fotiva/internal/message"
)

// Handler processes an incoming utterance and returns the reply.
// The dispatcher provides this handler to each transport.
type Handler func(ctx context.Context, u *message.Utterance) (*message.Reply, error)

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "grpc", "http", "mqtt").
	Name() string

	// Listen starts accepting utterances and hands them to the handler.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, handler Handler) error

	// Send delivers a payload to a target address using this transport's protocol.
	Send(ctx context.Context, target message.Target, payload []byte) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}

// Sessions exposes the dialogue state of conversations to transports that
// offer inspection or reset.
type Sessions interface {
	Session(ctx context.Context, id string) (dialogue.State, error)
	Reset(ctx context.Context, id string) error
}

// SessionView is the wire form of a session's dialogue state.
type SessionView struct {
	Session string          `json:"session"`
	State   dialogue.Phase  `json:"state"`
	Draft   *dialogue.Draft `json:"draft,omitempty"`
	Missing []string        `json:"missing,omitempty"`
}

// ViewOf builds the SessionView of a state.
func ViewOf(id string, s dialogue.State) SessionView {
	v := SessionView{Session: id, State: s.Phase()}
	if d, ok := dialogue.Pending(s); ok {
		v.Draft = &d
		v.Missing = d.Missing()
	}
	return v
}
