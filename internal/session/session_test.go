package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nadzzz/fotiva/internal/dialogue"
)

func pending(name string) dialogue.AwaitingSlots {
	return dialogue.AwaitingSlots{
		Draft: dialogue.Draft{EventName: name, ClientName: "Ana"},
		Since: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	st := NewMemory(0)

	if _, err := st.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store: err = %v", err)
	}

	if err := st.Put(ctx, "s1", pending("aniversário")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := st.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	d, ok := dialogue.Pending(got)
	if !ok || d.EventName != "aniversário" {
		t.Fatalf("Get = %#v", got)
	}
}

func TestMemoryStore_PutIdleDeletes(t *testing.T) {
	ctx := context.Background()
	st := NewMemory(0)
	_ = st.Put(ctx, "s1", pending("x"))

	if err := st.Put(ctx, "s1", dialogue.Idle{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if st.Len() != 0 {
		t.Errorf("Len = %d, want 0", st.Len())
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	st := NewMemory(time.Minute)
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	_ = st.Put(ctx, "s1", pending("x"))

	now = now.Add(30 * time.Second)
	if _, err := st.Get(ctx, "s1"); err != nil {
		t.Fatalf("Get before ttl: %v", err)
	}

	now = now.Add(time.Minute)
	if _, err := st.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after ttl: err = %v", err)
	}
}

func TestLoad_DefaultsToIdle(t *testing.T) {
	s, err := Load(context.Background(), NewMemory(0), "unknown")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Phase() != dialogue.PhaseIdle {
		t.Errorf("Phase = %s", s.Phase())
	}
}

func TestEncodeDecode(t *testing.T) {
	in := pending("casamento")
	data, err := encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	a := out.(dialogue.AwaitingSlots)
	if a.Draft != in.Draft || !a.Since.Equal(in.Since) {
		t.Errorf("decoded %#v, want %#v", a, in)
	}
}
