// Package http implements the HTTP/WebSocket transport for fotiva.
//
// This transport exposes a REST API for submitting utterances, a WebSocket
// endpoint for chat widgets that keep a connection open, and session
// inspection. It is best suited for web clients and phones.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nadzzz/fotiva/internal/message"
	"github.com/nadzzz/fotiva/internal/transport"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const maxAudioBytes = 25 << 20

// Transport implements transport.Transport over HTTP and WebSocket.
type Transport struct {
	port     int
	sessions transport.Sessions
	client   *http.Client
	upgrader websocket.Upgrader
	maxBody  int64

	mu     sync.Mutex
	server *http.Server
}

// New creates a new HTTP transport on the given port. sessions backs the
// /sessions endpoints and may be nil.
func New(port int, sessions transport.Sessions) *Transport {
	return &Transport{
		port:     port,
		sessions: sessions,
		client:   &http.Client{Timeout: 10 * time.Second},
		maxBody:  maxAudioBytes,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Chat widgets are served from the studio front end's origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// SetSessions attaches the session view once the dispatcher exists.
func (t *Transport) SetSessions(s transport.Sessions) { t.sessions = s }

// Routes returns the HTTP handler of the transport.
func (t *Transport) Routes(handler transport.Handler) http.Handler {
	mux := http.NewServeMux()

	// POST /utterances accepts text or audio and returns the reply.
	mux.HandleFunc("POST /utterances", func(w http.ResponseWriter, r *http.Request) {
		t.handleUtterance(w, r, handler)
	})

	// GET /ws keeps a conversation open over a WebSocket.
	mux.HandleFunc("GET /ws", func(w http.ResponseWriter, r *http.Request) {
		t.handleWebSocket(w, r, handler)
	})

	mux.HandleFunc("GET /sessions/{id}", t.handleGetSession)
	mux.HandleFunc("DELETE /sessions/{id}", t.handleDeleteSession)

	// Swagger UI serves the registered OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return mux
}

// Listen starts the HTTP server and routes incoming requests to the handler.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Routes(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	t.mu.Lock()
	t.server = srv
	t.mu.Unlock()

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// handleUtterance processes a POST /utterances request.
//
// @Summary     Submit an utterance
// @Description Accepts a JSON utterance (typed text or base64 audio) or raw audio bytes.
// @Description The utterance is classified and run against the session's pending event draft;
// @Description the reply carries the bot messages, the draft state and any navigation directive.
// @Tags        utterances
// @Accept      json
// @Accept      audio/wav
// @Accept      audio/webm
// @Accept      audio/ogg
// @Produce     json
// @Param       utterance        body    message.Utterance  true   "Utterance (JSON). For raw audio, POST the bytes directly with the audio Content-Type."
// @Param       X-Fotiva-Session  header  string  false  "Session id (used with raw audio uploads)"
// @Param       X-Fotiva-Response-Mode  header  string  false  "none, text, audio or text+audio (used with raw audio uploads)"
// @Success     200  {object}  message.Reply  "Turn outcome"
// @Failure     400  {string}  string  "Invalid request body"
// @Failure     413  {string}  string  "Body larger than the upload limit"
// @Failure     500  {string}  string  "Internal processing error"
// @Router      /utterances [post]
func (t *Transport) handleUtterance(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	var u message.Utterance
	r.Body = http.MaxBytesReader(w, r.Body, t.maxBody)

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
			bodyError(w, "invalid json", err)
			return
		}
	default:
		// Treat body as raw audio; read the session from headers.
		audio, err := io.ReadAll(r.Body)
		if err != nil {
			bodyError(w, "reading audio", err)
			return
		}
		if len(audio) == 0 {
			http.Error(w, "empty body", http.StatusBadRequest)
			return
		}
		u.Audio = audio
		u.ContentType = contentType
		u.Session = r.Header.Get("X-Fotiva-Session")
		u.ResponseMode = message.ResponseMode(r.Header.Get("X-Fotiva-Response-Mode"))
	}

	reply, err := handler(r.Context(), &u)
	if err != nil {
		slog.Error("utterance handling failed", "error", err)
		http.Error(w, "handling error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

// handleWebSocket serves GET /ws?session=<id>.
//
// Text frames carry JSON utterances; binary frames carry recorded audio
// (content type from the "content_type" query parameter). Every frame is
// answered with a JSON reply.
//
// @Summary     Conversation over WebSocket
// @Tags        utterances
// @Param       session       query  string  false  "Session id applied to frames that name none"
// @Param       content_type  query  string  false  "MIME type of binary audio frames (default audio/webm)"
// @Success     101  {string}  string  "Switching protocols"
// @Router      /ws [get]
func (t *Transport) handleWebSocket(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	sessionID := r.URL.Query().Get("session")
	audioType := r.URL.Query().Get("content_type")
	if audioType == "" {
		audioType = "audio/webm"
	}

	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	logger := slog.With("remote", r.RemoteAddr, "session", sessionID)
	logger.Info("websocket connected")

	for {
		if err := conn.SetReadDeadline(time.Now().Add(5 * time.Minute)); err != nil {
			break
		}
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket read failed", "error", err)
			} else {
				logger.Info("websocket closed")
			}
			return
		}

		var u message.Utterance
		switch kind {
		case websocket.TextMessage:
			if err := json.Unmarshal(data, &u); err != nil {
				if werr := conn.WriteJSON(map[string]string{"error": "invalid json: " + err.Error()}); werr != nil {
					return
				}
				continue
			}
		case websocket.BinaryMessage:
			u.Audio = data
			u.ContentType = audioType
		default:
			continue
		}
		if u.Session == "" {
			u.Session = sessionID
		}

		reply, err := handler(r.Context(), &u)
		if err != nil {
			logger.Error("utterance handling failed", "error", err)
			reply = &message.Reply{MessageID: u.ID, Session: u.Session, Error: err.Error()}
		}

		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(reply); err != nil {
			logger.Warn("websocket write failed", "error", err)
			return
		}
	}
}

// handleGetSession returns the dialogue state of a session.
//
// @Summary     Inspect a session
// @Tags        sessions
// @Produce     json
// @Param       id   path      string  true  "Session id"
// @Success     200  {object}  transport.SessionView
// @Failure     500  {string}  string  "Session store error"
// @Router      /sessions/{id} [get]
func (t *Transport) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if t.sessions == nil {
		http.Error(w, "sessions not available", http.StatusNotImplemented)
		return
	}
	id := r.PathValue("id")
	state, err := t.sessions.Session(r.Context(), id)
	if err != nil {
		http.Error(w, "loading session: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, transport.ViewOf(id, state))
}

// handleDeleteSession drops the pending draft of a session.
//
// @Summary     Reset a session
// @Tags        sessions
// @Param       id   path  string  true  "Session id"
// @Success     204
// @Failure     500  {string}  string  "Session store error"
// @Router      /sessions/{id} [delete]
func (t *Transport) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if t.sessions == nil {
		http.Error(w, "sessions not available", http.StatusNotImplemented)
		return
	}
	if err := t.sessions.Reset(r.Context(), r.PathValue("id")); err != nil {
		http.Error(w, "resetting session: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// bodyError answers 413 when the body hit the upload limit, 400 otherwise.
func bodyError(w http.ResponseWriter, what string, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		http.Error(w, fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit), http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, what+": "+err.Error(), http.StatusBadRequest)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Send delivers a payload to an HTTP target via POST.
func (t *Transport) Send(ctx context.Context, target message.Target, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("http send: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("http send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("http send: status %d: %s", resp.StatusCode, body)
	}

	slog.Debug("http send success", "target", target.Endpoint, "status", resp.StatusCode)
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	t.mu.Lock()
	srv := t.server
	t.mu.Unlock()
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
