package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nadzzz/fotiva/internal/dialogue"
	"github.com/nadzzz/fotiva/internal/message"
	"github.com/nadzzz/fotiva/internal/transport"
)

// echoHandler replies with the utterance's text or audio size.
func echoHandler(got *message.Utterance) transport.Handler {
	return func(_ context.Context, u *message.Utterance) (*message.Reply, error) {
		if got != nil {
			*got = *u
		}
		r := &message.Reply{MessageID: u.ID, Session: u.Session, Transcript: u.Text}
		if u.HasAudio() {
			r.Transcript = "audio"
		}
		return r, nil
	}
}

type fakeSessions struct {
	state dialogue.State
	reset string
}

func (f *fakeSessions) Session(context.Context, string) (dialogue.State, error) {
	return f.state, nil
}

func (f *fakeSessions) Reset(_ context.Context, id string) error {
	f.reset = id
	return nil
}

func TestPostUtterance_JSON(t *testing.T) {
	var got message.Utterance
	srv := httptest.NewServer(New(0, nil).Routes(echoHandler(&got)))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/utterances", "application/json",
		strings.NewReader(`{"session":"s1","text":"ver eventos"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var reply message.Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		t.Fatal(err)
	}
	if reply.Transcript != "ver eventos" || got.Session != "s1" {
		t.Errorf("reply = %+v, utterance = %+v", reply, got)
	}
}

func TestPostUtterance_RawAudio(t *testing.T) {
	var got message.Utterance
	srv := httptest.NewServer(New(0, nil).Routes(echoHandler(&got)))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/utterances", strings.NewReader("RIFFxxxx"))
	req.Header.Set("Content-Type", "audio/wav")
	req.Header.Set("X-Fotiva-Session", "kiosk")
	req.Header.Set("X-Fotiva-Response-Mode", "audio")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if string(got.Audio) != "RIFFxxxx" || got.ContentType != "audio/wav" || got.Session != "kiosk" {
		t.Errorf("utterance = %+v", got)
	}
	if got.ResponseMode != message.ResponseModeAudio {
		t.Errorf("response mode = %q", got.ResponseMode)
	}
}

func TestPostUtterance_BadJSON(t *testing.T) {
	srv := httptest.NewServer(New(0, nil).Routes(echoHandler(nil)))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/utterances", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestPostUtterance_TooLarge(t *testing.T) {
	called := false
	handler := func(context.Context, *message.Utterance) (*message.Reply, error) {
		called = true
		return &message.Reply{}, nil
	}
	tr := New(0, nil)
	tr.maxBody = 8
	srv := httptest.NewServer(tr.Routes(handler))
	defer srv.Close()

	tests := []struct {
		name, contentType, body string
	}{
		{"raw audio", "audio/wav", "RIFF0123456789"},
		{"json", "application/json", `{"session":"s1","text":"ver eventos"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/utterances", tt.contentType, strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusRequestEntityTooLarge {
				t.Errorf("status = %d, want 413", resp.StatusCode)
			}
		})
	}
	if called {
		t.Error("oversized body reached the handler")
	}
}

func TestListenClose(t *testing.T) {
	tr := New(0, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- tr.Listen(ctx, echoHandler(nil)) }()

	if err := tr.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Listen: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Listen did not return")
	}
}

func TestSessions(t *testing.T) {
	sessions := &fakeSessions{state: dialogue.AwaitingSlots{Draft: dialogue.Draft{EventName: "aniversário", ClientName: "Ana"}}}
	srv := httptest.NewServer(New(0, sessions).Routes(echoHandler(nil)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/sessions/s1")
	if err != nil {
		t.Fatal(err)
	}
	var view transport.SessionView
	_ = json.NewDecoder(resp.Body).Decode(&view)
	resp.Body.Close()

	if view.Session != "s1" || view.State != dialogue.PhaseAwaitingSlots {
		t.Errorf("view = %+v", view)
	}
	if len(view.Missing) != 4 || view.Draft == nil || view.Draft.ClientName != "Ana" {
		t.Errorf("view = %+v", view)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/s1", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent || sessions.reset != "s1" {
		t.Errorf("delete: status %d, reset %q", resp.StatusCode, sessions.reset)
	}
}

func TestWebSocket(t *testing.T) {
	srv := httptest.NewServer(New(0, nil).Routes(echoHandler(nil)))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?session=widget"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(map[string]string{"text": "abrir galeria"}); err != nil {
		t.Fatal(err)
	}
	var reply message.Reply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatal(err)
	}
	if reply.Session != "widget" || reply.Transcript != "abrir galeria" {
		t.Errorf("text reply = %+v", reply)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatal(err)
	}
	if reply.Transcript != "audio" {
		t.Errorf("audio reply = %+v", reply)
	}
}

func TestSend(t *testing.T) {
	var body string
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer target.Close()

	tr := New(0, nil)
	err := tr.Send(context.Background(), message.Target{Endpoint: target.URL, Protocol: "http"}, []byte(`{"route":"/galeria"}`))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if body != `{"route":"/galeria"}` {
		t.Errorf("body = %q", body)
	}
}

func TestSend_ErrorStatus(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer target.Close()

	if err := New(0, nil).Send(context.Background(), message.Target{Endpoint: target.URL}, []byte("{}")); err == nil {
		t.Fatal("expected error")
	}
}
