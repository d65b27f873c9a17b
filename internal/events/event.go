// Package events publishes resource change notifications to a RabbitMQ
// topic exchange so other services can follow what happens to users,
// classes, budgets, tasks and question sets.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/academiax/internal/domain"
)

// ExchangeName is the topic exchange events are published to.
const ExchangeName = "academiax.events"

// Actions
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionDeleted   = "deleted"
	ActionGenerated = "generated"
)

// Event describes one successful change to a stored resource. Type doubles
// as the routing key, e.g. "task.created".
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	Collection string    `json:"collection"`
	DocumentID string    `json:"document_id"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New builds an event for a change to the document id in collection.
func New(collection, action, id, email string) Event {
	return Event{
		ID:         uuid.New(),
		Type:       TypeFor(collection, action),
		Collection: collection,
		DocumentID: id,
		Email:      email,
		OccurredAt: time.Now().UTC(),
	}
}

// TypeFor returns the routing key for action on collection.
func TypeFor(collection, action string) string {
	return resourceName(collection) + "." + action
}

func resourceName(collection string) string {
	switch collection {
	case domain.CollectionUsers:
		return "user"
	case domain.CollectionClasses:
		return "class"
	case domain.CollectionBudgets:
		return "budget"
	case domain.CollectionTasks:
		return "task"
	case domain.CollectionQuestions:
		return "question_set"
	default:
		return collection
	}
}

// Publisher delivers events. Implementations are safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NopPublisher drops every event. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
