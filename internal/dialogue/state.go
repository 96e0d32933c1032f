package dialogue

import (
	"time"

	"github.com/nadzzz/fotiva/internal/slots"
)

// Phase names the two states of a conversation.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseAwaitingSlots Phase = "awaiting_slots"
)

// State is either Idle or AwaitingSlots.
type State interface {
	Phase() Phase
}

// Idle means no draft is pending.
type Idle struct{}

// Phase implements State.
func (Idle) Phase() Phase { return PhaseIdle }

// AwaitingSlots holds a draft with at least one required field missing.
type AwaitingSlots struct {
	Draft Draft     `json:"draft"`
	Since time.Time `json:"since"`
}

// Phase implements State.
func (AwaitingSlots) Phase() Phase { return PhaseAwaitingSlots }

// Outcome describes what a transition produced.
type Outcome struct {
	// Draft is the draft after the transition.
	Draft Draft

	// Ready is set when Draft became complete; the caller runs the
	// completion action and the returned state is Idle.
	Ready bool

	// Missing lists the labels still required when not Ready.
	Missing []string
}

// Start seeds a new draft from ext. Any draft pending in the previous
// state is discarded.
func Start(ext slots.Result, now time.Time) (State, Outcome) {
	return advance(Draft{}.Merge(ext), now)
}

// Continue merges ext into the pending draft. From Idle it behaves like
// Start.
func Continue(s State, ext slots.Result, now time.Time) (State, Outcome) {
	pending, ok := s.(AwaitingSlots)
	if !ok {
		return Start(ext, now)
	}
	next, out := advance(pending.Draft.Merge(ext), now)
	if a, ok := next.(AwaitingSlots); ok {
		a.Since = pending.Since
		next = a
	}
	return next, out
}

// Cancel drops any pending draft.
func Cancel(State) State {
	return Idle{}
}

// Pending returns the pending draft, if any.
func Pending(s State) (Draft, bool) {
	a, ok := s.(AwaitingSlots)
	return a.Draft, ok
}

// Expired reports whether a pending draft is older than ttl. A zero ttl
// never expires.
func Expired(s State, now time.Time, ttl time.Duration) bool {
	a, ok := s.(AwaitingSlots)
	if !ok || ttl <= 0 {
		return false
	}
	return now.Sub(a.Since) > ttl
}

func advance(d Draft, now time.Time) (State, Outcome) {
	if d.Complete() {
		return Idle{}, Outcome{Draft: d, Ready: true}
	}
	return AwaitingSlots{Draft: d, Since: now}, Outcome{Draft: d, Missing: d.Missing()}
}
