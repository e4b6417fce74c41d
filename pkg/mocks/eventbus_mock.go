package mocks

import (
	"context"

	"github.com/dukex/leadflow/pkg/eventbus"
	"github.com/dukex/leadflow/pkg/events"
	"github.com/stretchr/testify/mock"
)

// MockEventBus records lifecycle events published by the services.
type MockEventBus struct {
	mock.Mock
}

var _ eventbus.EventBus = (*MockEventBus)(nil)

func (m *MockEventBus) Publish(ctx context.Context, key string, event eventbus.Event) error {
	return m.Called(ctx, key, event).Error(0)
}

// Published returns the types of every event passed to Publish, in order.
func (m *MockEventBus) Published() []events.EventType {
	var types []events.EventType

	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}

		if event, ok := call.Arguments.Get(2).(eventbus.Event); ok {
			types = append(types, event.GetType())
		}
	}

	return types
}

func (m *MockEventBus) Handle(eventType events.EventType, handler eventbus.EventHandler) error {
	return m.Called(eventType, handler).Error(0)
}

func (m *MockEventBus) Subscribe(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockEventBus) Close() error {
	return m.Called().Error(0)
}

func (m *MockEventBus) GenerateID() string {
	return m.Called().String(0)
}
