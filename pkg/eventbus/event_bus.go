// Package eventbus publishes and consumes lifecycle events over watermill.
package eventbus

import (
	"context"

	"github.com/dukex/leadflow/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

// EventPublisher is all the enrollment and workflow services need. The key
// is the enrollment or workflow id and becomes the message partition key.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event Event) error
}

// EventSubscriber dispatches decoded events to one handler per type.
// Handlers must be registered before Subscribe.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

// EventHandler receives a pointer to the concrete event struct for its type.
type EventHandler func(ctx context.Context, event any) error

type EventBus interface {
	EventPublisher
	EventSubscriber

	Close() error
	GenerateID() string
}
