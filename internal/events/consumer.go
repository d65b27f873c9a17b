package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one received event.
type Handler func(ctx context.Context, evt Event) error

// Consumer follows the events exchange through a private, auto-deleted
// queue bound with a topic pattern.
type Consumer struct {
	conn       *Connection
	handler    Handler
	pattern    string
	queue      string
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewConsumer creates a consumer for events matching pattern ("#" for all,
// "task.*" for task events).
func NewConsumer(conn *Connection, pattern string, handler Handler) *Consumer {
	if pattern == "" {
		pattern = "#"
	}
	return &Consumer{
		conn:    conn,
		handler: handler,
		pattern: pattern,
	}
}

// Start declares and binds the queue and begins consuming
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	c.queue = q.Name

	if err := ch.QueueBind(q.Name, c.pattern, ExchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",    // consumer tag (auto-generated)
		false, // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("consuming events", "exchange", ExchangeName, "pattern", c.pattern, "queue", q.Name)

	c.wg.Add(1)
	go c.consume(ctx, msgs)
	return nil
}

// Queue returns the server-assigned queue name once started.
func (c *Consumer) Queue() string {
	return c.queue
}

func (c *Consumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				slog.Info("event channel closed")
				return
			}
			c.processMessage(ctx, msg)
		}
	}
}

// processMessage decodes and handles one delivery. Malformed messages are
// rejected without requeue; handler failures are requeued once.
func (c *Consumer) processMessage(ctx context.Context, msg amqp.Delivery) {
	var evt Event
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		slog.Error("failed to unmarshal event", "error", err)
		_ = msg.Reject(false)
		return
	}

	if err := c.handler(ctx, evt); err != nil {
		slog.Error("event handler failed",
			"event_id", evt.ID,
			"type", evt.Type,
			"error", err,
		)
		_ = msg.Nack(false, !msg.Redelivered)
		return
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("failed to ack event", "event_id", evt.ID, "error", err)
	}
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("event consumer stopped")
}
