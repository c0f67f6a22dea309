// Package natsclient wraps the NATS connection used for outbound
// notification events.
package natsclient

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Config controls the NATS connection.
type Config struct {
	URL  string
	Name string
}

// Client wraps a NATS connection.
type Client struct {
	conn *nats.Conn
}

// Connect dials the NATS server with reconnect handling.
func Connect(cfg Config) (*Client, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", cfg.URL, err)
	}
	return &Client{conn: conn}, nil
}

// Publish sends a message and flushes it within the context deadline.
func (c *Client) Publish(ctx context.Context, subject string, data []byte) error {
	if err := c.conn.Publish(subject, data); err != nil {
		return err
	}
	return c.conn.FlushWithContext(ctx)
}

// Close drains and closes the connection.
func (c *Client) Close() {
	if c.conn != nil {
		_ = c.conn.Drain()
	}
}
