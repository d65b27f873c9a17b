package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// maxReconnects bounds the attempts after an unexpected close.
const maxReconnects = 10

// ErrConnectionClosed is returned by dial attempts after Close.
var ErrConnectionClosed = errors.New("events connection closed")

// Connection manages the RabbitMQ connection with automatic reconnection
type Connection struct {
	url        string
	conn       *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	closed     bool
	done       chan struct{}
	reconnects int

	dial        func(url string) (*amqp.Connection, error)
	baseBackoff time.Duration
}

// NewConnection dials url and declares the events exchange.
func NewConnection(url string) (*Connection, error) {
	c := newConnection(url)

	if err := c.connect(); err != nil {
		return nil, err
	}

	return c, nil
}

func newConnection(url string) *Connection {
	return &Connection{
		url:         url,
		done:        make(chan struct{}),
		dial:        amqp.Dial,
		baseBackoff: time.Second,
	}
}

// connect establishes connection and channel. The lock is held across the
// dial so Close cannot interleave with it.
func (c *Connection) connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	conn, err := c.dial(c.url)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		ExchangeName,
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	c.conn, c.channel = conn, ch
	go c.handleReconnect(conn)

	slog.Info("connected to RabbitMQ", "url", sanitizeURL(c.url), "exchange", ExchangeName)
	return nil
}

// handleReconnect listens for connection close and attempts to reconnect
func (c *Connection) handleReconnect(conn *amqp.Connection) {
	err, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
	if !ok || err == nil {
		return // Normal close
	}
	if c.isClosed() {
		return
	}

	slog.Warn("RabbitMQ connection closed, attempting to reconnect",
		"error", err,
		"reconnects", c.Reconnects(),
	)
	c.reconnect()
}

// reconnect retries with exponential backoff until a dial succeeds, the
// attempts run out or Close is called.
func (c *Connection) reconnect() {
	for i := 0; i < maxReconnects; i++ {
		c.mu.Lock()
		c.reconnects++
		c.mu.Unlock()

		backoff := c.baseBackoff << i
		if limit := 30 * c.baseBackoff; backoff > limit {
			backoff = limit
		}

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-c.done:
			timer.Stop()
			return
		}

		if err := c.connect(); err != nil {
			if errors.Is(err, ErrConnectionClosed) {
				return
			}
			slog.Error("reconnection failed", "error", err, "attempt", i+1)
			continue
		}

		slog.Info("reconnected to RabbitMQ", "attempts", i+1)
		return
	}

	slog.Error("failed to reconnect to RabbitMQ", "attempts", maxReconnects)
}

// Reconnects returns the number of reconnect attempts so far.
func (c *Connection) Reconnects() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.reconnects
}

func (c *Connection) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Channel returns the current channel (thread-safe)
func (c *Connection) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

// Close closes the connection
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	close(c.done)

	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected checks if the connection is active
func (c *Connection) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil && !c.conn.IsClosed()
}

// PublishJSON publishes data to the events exchange under routingKey.
func (c *Connection) PublishJSON(ctx context.Context, routingKey string, messageID string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ch := c.Channel()
	if ch == nil {
		return fmt.Errorf("no open channel")
	}

	return ch.PublishWithContext(
		ctx,
		ExchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// sanitizeURL hides the password of an AMQP URL for logging
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "amqp://(invalid)"
	}
	return u.Redacted()
}
