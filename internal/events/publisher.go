package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// AMQPPublisher publishes events to the RabbitMQ exchange.
type AMQPPublisher struct {
	conn *Connection
}

var _ Publisher = (*AMQPPublisher)(nil)

// NewAMQPPublisher creates a publisher over conn.
func NewAMQPPublisher(conn *Connection) *AMQPPublisher {
	return &AMQPPublisher{conn: conn}
}

// Dial connects to url and returns a publisher owning the connection.
func Dial(url string) (*AMQPPublisher, error) {
	conn, err := NewConnection(url)
	if err != nil {
		return nil, err
	}
	return NewAMQPPublisher(conn), nil
}

// Publish sends evt with its type as routing key.
func (p *AMQPPublisher) Publish(ctx context.Context, evt Event) error {
	if evt.ID == uuid.Nil {
		evt.ID = uuid.New()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}

	if err := p.conn.PublishJSON(ctx, evt.Type, evt.ID.String(), evt); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", evt.Type, err)
	}

	slog.Debug("published event",
		"event_id", evt.ID,
		"type", evt.Type,
		"document_id", evt.DocumentID,
	)
	return nil
}

// Close closes the underlying connection.
func (p *AMQPPublisher) Close() error {
	return p.conn.Close()
}

// Open returns an AMQP publisher for url, or a NopPublisher when url is empty.
func Open(url string) (Publisher, error) {
	if url == "" {
		slog.Info("event publishing disabled, RABBITMQ_URL not set")
		return NopPublisher{}, nil
	}
	p, err := Dial(url)
	if err != nil {
		return nil, err
	}
	return p, nil
}
