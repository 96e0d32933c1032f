package studio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"

	"github.com/nadzzz/fotiva/internal/config"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.StudioConfig{
		BaseURL: srv.URL,
		Token:   "secret",
		Timeout: 2 * time.Second,
		Breaker: config.BreakerConfig{MaxRequests: 1, Timeout: time.Minute, FailureThreshold: 2},
	})
}

func TestListClients(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/clients" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode([]Client{{ID: "c1", Name: "Maria Souza"}})
	})

	clients, err := c.ListClients(context.Background())
	if err != nil {
		t.Fatalf("ListClients: %v", err)
	}
	if len(clients) != 1 || clients[0].ID != "c1" {
		t.Fatalf("clients = %+v", clients)
	}
}

func TestCreateEvent_SendsPayload(t *testing.T) {
	var got NewEvent
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/events" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(Event{ID: "e1", Name: got.Name, Status: got.Status})
	})

	ev, err := c.CreateEvent(context.Background(), NewEvent{
		ClientID: "c1", ClientName: "Maria", Name: "casamento",
		Date: "2026-02-15", Time: "14:00", Location: "salão eventos",
		TotalValue: 3000, Status: "confirmado",
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if ev.ID != "e1" {
		t.Errorf("ID = %q", ev.ID)
	}
	if got.TotalValue != 3000 || got.Location != "salão eventos" {
		t.Errorf("payload = %+v", got)
	}
}

func TestCreateEvent_RejectsInvalidPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("backend must not be called")
	})
	_, err := c.CreateEvent(context.Background(), NewEvent{ClientID: "c1", Name: "x", Date: "15/02/2026"})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestAPIError_Detail(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		detail string
	}{
		{"string detail", `{"detail":"Cliente não encontrado"}`, "Cliente não encontrado"},
		{"validation list", `{"detail":[{"loc":["body","email"],"msg":"field required"}]}`, "field required"},
		{"no json", `boom`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnprocessableEntity)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := c.CreateClient(context.Background(), NewClient{Name: "Ana"})
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("err = %v, want *APIError", err)
			}
			if apiErr.Status != http.StatusUnprocessableEntity {
				t.Errorf("Status = %d", apiErr.Status)
			}
			d, ok := Detail(err)
			if d != tt.detail || ok != (tt.detail != "") {
				t.Errorf("Detail() = %q, %v; want %q", d, ok, tt.detail)
			}
		})
	}
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 2; i++ {
		if _, err := c.ListClients(context.Background()); err == nil {
			t.Fatal("expected error")
		}
	}
	_, err := c.ListClients(context.Background())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want open breaker", err)
	}
	if calls != 2 {
		t.Errorf("backend calls = %d, want 2", calls)
	}
}

func TestBreakerIgnoresClientErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	for i := 0; i < 4; i++ {
		_, err := c.ListClients(context.Background())
		if errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("breaker opened on 4xx after %d calls", i)
		}
	}
}
