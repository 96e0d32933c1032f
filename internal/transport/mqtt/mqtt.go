// Package mqtt implements the MQTT transport for fotiva.
//
// MQTT suits kiosks and studio displays that already sit on a broker.
// The transport subscribes to the utterance topic (usually
// "fotiva/utterances/+", the last level naming the session) and publishes
// each reply to <reply_prefix>/<session>. Navigation pushes are published
// to the target's endpoint, read as a topic.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/nadzzz/fotiva/internal/config"
	"github.com/nadzzz/fotiva/internal/message"
	"github.com/nadzzz/fotiva/internal/transport"
)

const (
	qos            = 1
	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
	quiesceMillis  = 250
)

// Transport implements transport.Transport over MQTT.
type Transport struct {
	cfg config.MQTTConfig

	mu     sync.Mutex
	client paho.Client
}

// New creates a new MQTT transport. The broker connection is opened by
// Listen.
func New(cfg config.MQTTConfig) *Transport {
	if cfg.ClientID == "" {
		cfg.ClientID = "fotiva"
	}
	return &Transport{cfg: cfg}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "mqtt" }

// Listen connects to the broker and subscribes to the utterance topic.
// Subscriptions are renewed on every reconnect.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	client := paho.NewClient(t.clientOptions(ctx, handler))
	t.mu.Lock()
	t.client = client
	t.mu.Unlock()

	tok := client.Connect()
	if !tok.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect to %s: timeout", t.cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect to %s: %w", t.cfg.Broker, err)
	}
	slog.Info("mqtt transport listening", "broker", t.cfg.Broker, "topic", t.cfg.Topic)

	<-ctx.Done()
	slog.Info("mqtt transport shutting down")
	client.Disconnect(quiesceMillis)
	return nil
}

func (t *Transport) clientOptions(ctx context.Context, handler transport.Handler) *paho.ClientOptions {
	return paho.NewClientOptions().
		AddBroker(t.cfg.Broker).
		SetClientID(t.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		// Handlers block for a whole turn.
		SetOrderMatters(false).
		SetOnConnectHandler(func(c paho.Client) {
			tok := c.Subscribe(t.cfg.Topic, qos, func(c paho.Client, m paho.Message) {
				t.onMessage(ctx, c, m, handler)
			})
			if tok.WaitTimeout(connectTimeout) && tok.Error() != nil {
				slog.Error("mqtt subscribe failed", "topic", t.cfg.Topic, "error", tok.Error())
				return
			}
			slog.Info("mqtt subscribed", "topic", t.cfg.Topic)
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			slog.Warn("mqtt connection lost", "broker", t.cfg.Broker, "error", err)
		})
}

func (t *Transport) currentClient() paho.Client {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.client
}

func (t *Transport) onMessage(ctx context.Context, c paho.Client, m paho.Message, handler transport.Handler) {
	u, err := decodeUtterance(m.Payload())
	if err != nil {
		slog.Warn("mqtt invalid utterance", "topic", m.Topic(), "error", err)
		return
	}
	if u.Session == "" {
		u.Session = sessionFromTopic(t.cfg.Topic, m.Topic())
	}

	reply, err := handler(ctx, u)
	if err != nil {
		slog.Error("utterance handling failed", "topic", m.Topic(), "error", err)
		reply = &message.Reply{MessageID: u.ID, Session: u.Session, Error: err.Error()}
	}

	payload, err := json.Marshal(reply)
	if err != nil {
		slog.Error("mqtt encoding reply", "error", err)
		return
	}
	topic := replyTopic(t.cfg.ReplyPrefix, reply.Session)
	tok := c.Publish(topic, qos, false, payload)
	if !tok.WaitTimeout(publishTimeout) || tok.Error() != nil {
		slog.Warn("mqtt reply publish failed", "topic", topic, "error", tok.Error())
	}
}

// Send publishes a payload to the topic named by target.Endpoint.
func (t *Transport) Send(ctx context.Context, target message.Target, payload []byte) error {
	client := t.currentClient()
	if client == nil || !client.IsConnectionOpen() {
		return fmt.Errorf("mqtt send to %s: not connected", target.Endpoint)
	}
	tok := client.Publish(target.Endpoint, qos, false, payload)
	select {
	case <-tok.Done():
	case <-ctx.Done():
		return fmt.Errorf("mqtt send to %s: %w", target.Endpoint, ctx.Err())
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt send to %s: %w", target.Endpoint, err)
	}
	slog.Debug("mqtt send success", "topic", target.Endpoint, "bytes", len(payload))
	return nil
}

// Close disconnects from the MQTT broker.
func (t *Transport) Close() error {
	if client := t.currentClient(); client != nil && client.IsConnected() {
		client.Disconnect(quiesceMillis)
	}
	return nil
}

// decodeUtterance accepts a JSON utterance or, for minimal publishers,
// plain text.
func decodeUtterance(payload []byte) (*message.Utterance, error) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return nil, fmt.Errorf("empty payload")
	}
	if !strings.HasPrefix(trimmed, "{") {
		return &message.Utterance{Text: trimmed}, nil
	}
	var u message.Utterance
	if err := json.Unmarshal(payload, &u); err != nil {
		return nil, fmt.Errorf("invalid json: %w", err)
	}
	return &u, nil
}

// sessionFromTopic returns the topic level matched by the first "+" of the
// subscription filter, or "" when the filter has no single-level wildcard.
func sessionFromTopic(filter, topic string) string {
	fl := strings.Split(filter, "/")
	tl := strings.Split(topic, "/")
	for i, level := range fl {
		if i >= len(tl) {
			return ""
		}
		if level == "+" {
			return tl[i]
		}
		if level == "#" {
			return ""
		}
	}
	return ""
}

func replyTopic(prefix, session string) string {
	if session == "" {
		session = message.DefaultSession
	}
	return strings.TrimSuffix(prefix, "/") + "/" + session
}
