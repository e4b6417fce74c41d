package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/leadflow/pkg/channels/kafka"
	"github.com/dukex/leadflow/pkg/eventbus"
	"github.com/dukex/leadflow/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkaTc "github.com/testcontainers/testcontainers-go/modules/kafka"
)

func TestParseBrokers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{}},
		{"localhost:9092", []string{"localhost:9092"}},
		{" a:9092, ,b:9092 ", []string{"a:9092", "b:9092"}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, kafka.ParseBrokers(tt.input))
	}
}

func TestCreateChannel_NoBrokers(t *testing.T) {
	t.Parallel()

	_, _, err := kafka.CreateChannel(watermill.NopLogger{}, nil, "leadflow")
	assert.ErrorIs(t, err, kafka.ErrNoBrokers)
}

func TestCreateChannel_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := kafkaTc.Run(ctx, "confluentinc/confluent-local:7.7.0", testcontainers.WithEnv(map[string]string{
		"KAFKA_AUTO_CREATE_TOPICS_ENABLE": "true",
	}))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, testcontainers.TerminateContainer(container))
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)

	pub, sub, err := kafka.CreateChannel(watermill.NopLogger{}, brokers, "leadflow-test")
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)

	t.Cleanup(func() {
		assert.NoError(t, bus.Close())
	})

	received := make(chan string, 1)

	require.NoError(t, bus.Handle(events.EnrollmentCreatedEvent, func(_ context.Context, event any) error {
		if created, ok := event.(*events.EnrollmentCreated); ok {
			received <- created.EnrollmentID
		}

		return nil
	}))

	require.NoError(t, bus.Publish(ctx, "enr-1", events.EnrollmentCreated{
		BaseEvent:    events.NewBaseEvent(events.EnrollmentCreatedEvent, "wf-1"),
		EnrollmentID: "enr-1",
		Source:       "live",
	}))

	require.NoError(t, bus.Subscribe(ctx))

	select {
	case id := <-received:
		assert.Equal(t, "enr-1", id)
	case <-ctx.Done():
		t.Fatal("event was not consumed from kafka")
	}
}
