// Package studio is a client for the studio management REST backend: the
// client directory and the event service.
package studio

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
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"

	"github.com/nadzzz/fotiva/internal/config"
)

// Client is a photography-studio customer.
type Client struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// NewClient is the payload of a client creation.
type NewClient struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,numeric,min=10,max=11"`
}

// Event is a scheduled photography job.
type Event struct {
	ID         string  `json:"id"`
	ClientID   string  `json:"client_id"`
	ClientName string  `json:"client_name"`
	Name       string  `json:"name"`
	Date       string  `json:"date"`
	Time       string  `json:"time"`
	Location   string  `json:"location"`
	TotalValue float64 `json:"total_value"`
	Status     string  `json:"status"`
}

// NewEvent is the payload of an event creation.
type NewEvent struct {
	ClientID   string  `json:"client_id" validate:"required"`
	ClientName string  `json:"client_name" validate:"required"`
	Name       string  `json:"name" validate:"required"`
	Date       string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time       string  `json:"time" validate:"required,datetime=15:04"`
	Location   string  `json:"location" validate:"required"`
	TotalValue float64 `json:"total_value" validate:"gte=0"`
	Status     string  `json:"status" validate:"required"`
}

// APIError is a non-2xx answer from the backend. Detail carries the
// backend's "detail" field when it sent one.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("studio backend returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("studio backend returned %d", e.Status)
}

// Detail returns the upstream detail message carried by err, if any.
func Detail(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail, true
	}
	return "", false
}

// HTTPClient talks to the studio backend over HTTP.
type HTTPClient struct {
	baseURL  string
	token    string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	validate *validator.Validate
}

// New creates a backend client from config.
func New(cfg config.StudioConfig) *HTTPClient {
	threshold := cfg.Breaker.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "studio",
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Client errors mean the backend is alive.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.Status < 500
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &HTTPClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		http:     &http.Client{Timeout: timeout},
		breaker:  cb,
		validate: validator.New(),
	}
}

// ListClients fetches every client of the studio.
func (c *HTTPClient) ListClients(ctx context.Context) ([]Client, error) {
	var clients []Client
	if err := c.do(ctx, http.MethodGet, "/api/clients", nil, &clients); err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	return clients, nil
}

// CreateClient registers a new client.
func (c *HTTPClient) CreateClient(ctx context.Context, nc NewClient) (*Client, error) {
	if err := c.validate.Struct(nc); err != nil {
		return nil, fmt.Errorf("invalid client: %w", err)
	}
	var created Client
	if err := c.do(ctx, http.MethodPost, "/api/clients", nc, &created); err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}
	return &created, nil
}

// CreateEvent schedules a new event.
func (c *HTTPClient) CreateEvent(ctx context.Context, ne NewEvent) (*Event, error) {
	if err := c.validate.Struct(ne); err != nil {
		return nil, fmt.Errorf("invalid event: %w", err)
	}
	var created Event
	if err := c.do(ctx, http.MethodPost, "/api/events", ne, &created); err != nil {
		return nil, fmt.Errorf("creating event: %w", err)
	}
	return &created, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, in, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, in, out)
	})
	return err
}

func (c *HTTPClient) roundTrip(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var detail struct {
			Detail any `json:"detail"`
		}
		if json.Unmarshal(respBody, &detail) == nil {
			apiErr.Detail = detailString(detail.Detail)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// detailString flattens the backend's detail field. Validation failures
// carry a list of {"msg": ...} objects instead of a string.
func detailString(v any) string {
	switch d := v.(type) {
	case string:
		return d
	case []any:
		var msgs []string
		for _, item := range d {
			if m, ok := item.(map[string]any); ok {
				if s, ok := m["msg"].(string); ok {
					msgs = append(msgs, s)
				}
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
