// Package session keeps the dialogue state of each conversation between
// turns.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nadzzz/fotiva/internal/dialogue"
)

// ErrNotFound is returned by Get when the session has no pending draft.
var ErrNotFound = errors.New("session not found")

// Store persists dialogue state per session. Only AwaitingSlots states are
// stored; putting Idle deletes the entry.
type Store interface {
	Get(ctx context.Context, id string) (dialogue.State, error)
	Put(ctx context.Context, id string, s dialogue.State) error
	Delete(ctx context.Context, id string) error
}

// Load returns the state of a session, Idle when nothing is stored.
func Load(ctx context.Context, st Store, id string) (dialogue.State, error) {
	s, err := st.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return dialogue.Idle{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading session %s: %w", id, err)
	}
	return s, nil
}

func encode(s dialogue.AwaitingSlots) ([]byte, error) {
	return json.Marshal(s)
}

func decode(data []byte) (dialogue.State, error) {
	var a dialogue.AwaitingSlots
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return a, nil
}

// expiry is how long the backend keeps an entry. Zero means forever.
func expiry(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	return ttl
}
