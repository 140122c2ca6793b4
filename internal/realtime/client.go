// Package realtime streams in-app notifications (new comments, likes,
// chat pings) from the Tangle websocket endpoint to a handler. It is a
// thin read-only subscriber: delivery of push notifications to the OS is
// out of scope.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"tangle/internal/observability"
)

// Notification is one event pushed by the server.
type Notification struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	PostID    string    `json:"post_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TokenSource supplies the bearer token for the websocket handshake.
type TokenSource interface {
	Token() string
}

// Handler receives each decoded notification.
type Handler func(Notification)

// Client maintains a websocket subscription with reconnect.
type Client struct {
	url       string
	tokens    TokenSource
	handler   Handler
	reconnect time.Duration
	log       *observability.OpLogger
}

// Option customizes a Client.
type Option func(*Client)

// WithReconnectInterval overrides the delay between redial attempts.
func WithReconnectInterval(d time.Duration) Option {
	return func(c *Client) { c.reconnect = d }
}

// NewClient builds a client for the given ws:// or wss:// URL.
func NewClient(url string, tokens TokenSource, handler Handler, opts ...Option) *Client {
	c := &Client{
		url:       url,
		tokens:    tokens,
		handler:   handler,
		reconnect: 5 * time.Second,
		log:       observability.NewOpLogger("realtime"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run connects and reads notifications until ctx is cancelled, redialing
// after connection loss. It returns ctx.Err() on cancellation.
func (c *Client) Run(ctx context.Context) error {
	for {
		if err := c.readOnce(ctx); err != nil {
			c.log.LogError(ctx, "stream", err, map[string]interface{}{"url": c.url})
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnect):
		}
	}
}

func (c *Client) readOnce(ctx context.Context) error {
	header := http.Header{}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = conn.Close() }()
	c.log.LogStart(ctx, "stream", map[string]interface{}{"url": c.url})

	// Close the connection when ctx is cancelled so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		var n Notification
		if err := json.Unmarshal(payload, &n); err != nil {
			// Skip frames that are not notification payloads.
			continue
		}
		if c.handler != nil {
			c.handler(n)
		}
	}
}
