package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/dukex/leadflow/pkg/events"
)

// WatermillEventBus carries lifecycle events as JSON messages on a single
// topic. The event type travels in metadata so consumers can skip payloads
// they do not handle without decoding them.
type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	topic      string
	logger     *slog.Logger

	mu       sync.RWMutex
	handlers map[events.EventType]EventHandler
}

type Option func(*WatermillEventBus)

// WithTopic overrides events.Topic, mostly so tests can share a broker.
func WithTopic(topic string) Option {
	return func(eb *WatermillEventBus) {
		if topic != "" {
			eb.topic = topic
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(eb *WatermillEventBus) {
		if logger != nil {
			eb.logger = logger
		}
	}
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber, opts ...Option) *WatermillEventBus {
	eb := &WatermillEventBus{
		publisher:  pub,
		subscriber: sub,
		topic:      events.Topic,
		logger:     slog.New(slog.DiscardHandler),
		handlers:   make(map[events.EventType]EventHandler),
	}

	for _, opt := range opts {
		opt(eb)
	}

	eb.logger = eb.logger.With("module", "eventbus", "topic", eb.topic)

	return eb
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

// Publish sends event with key as the partition key, so every event of one
// enrollment lands on the same partition in order.
func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.GetType(), err)
	}

	msg := message.NewMessage(eb.GenerateID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	err = eb.publisher.Publish(eb.topic, msg)
	if err != nil {
		return fmt.Errorf("failed to publish %s event for %s: %w", event.GetType(), key, err)
	}

	return nil
}

func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	if handler == nil {
		return fmt.Errorf("nil handler for %s", eventType)
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = handler

	return nil
}

// Subscribe consumes the topic until ctx is done. Messages without a
// registered handler are acked and dropped; undecodable ones are nacked.
func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := eb.subscriber.Subscribe(ctx, eb.topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", eb.topic, err)
	}

	go func() {
		for msg := range messages {
			if eb.dispatch(ctx, msg) {
				msg.Ack()
			} else {
				msg.Nack()
			}
		}
	}()

	return nil
}

func (eb *WatermillEventBus) dispatch(ctx context.Context, msg *message.Message) bool {
	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

	eb.mu.RLock()
	handler, ok := eb.handlers[eventType]
	eb.mu.RUnlock()

	if !ok {
		return true
	}

	event, known := events.New(eventType)
	if !known {
		eb.logger.WarnContext(ctx, "Unknown event type", "event_type", eventType, "message_id", msg.UUID)

		return false
	}

	err := json.Unmarshal(msg.Payload, event)
	if err != nil {
		eb.logger.WarnContext(ctx, "Undecodable event", "event_type", eventType, "message_id", msg.UUID, "error", err)

		return false
	}

	err = handler(ctx, event)
	if err != nil {
		eb.logger.ErrorContext(ctx, "Event handler failed", "event_type", eventType, "message_id", msg.UUID, "error", err)

		return false
	}

	return true
}

func (eb *WatermillEventBus) Close() error {
	return errors.Join(eb.publisher.Close(), eb.subscriber.Close())
}
