package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dukex/leadflow/pkg/cmd"
	"github.com/dukex/leadflow/pkg/events"
	"github.com/dukex/leadflow/pkg/log"
	"github.com/urfave/cli/v3"
)

var ErrEventBusRequired = errors.New("an event bus is required to tail events")

func NewEventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Inspect enrollment and workflow lifecycle events",
		Commands: []*cli.Command{
			{
				Name:  "tail",
				Usage: "Print lifecycle events as JSON lines until interrupted",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "event-bus",
						Usage:   "Event bus type (kafka)",
						Value:   "kafka",
						Sources: cli.EnvVars("EVENT_BUS_TYPE"),
					},
					&cli.StringFlag{
						Name:    "kafka-brokers",
						Usage:   "Comma separated Kafka brokers",
						Value:   "localhost:9092",
						Sources: cli.EnvVars("KAFKA_BROKERS"),
					},
					&cli.StringSliceFlag{
						Name:  "type",
						Usage: "Only print events of this type, may be repeated",
					},
				},
				Action: tailEvents,
			},
		},
	}
}

func tailEvents(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))

	logger := log.WithModule("cli").With("action", "events-tail")

	bus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), logger)
	if err != nil {
		return err
	}

	if bus == nil {
		return ErrEventBusRequired
	}

	defer func() {
		if err := bus.Close(); err != nil {
			logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
		}
	}()

	types := events.Types()
	if filter := command.StringSlice("type"); len(filter) > 0 {
		types = types[:0]
		for _, t := range filter {
			types = append(types, events.EventType(t))
		}
	}

	var mu sync.Mutex

	encoder := json.NewEncoder(command.Root().Writer)

	for _, eventType := range types {
		if _, known := events.New(eventType); !known {
			return fmt.Errorf("unknown event type %q", eventType)
		}

		err := bus.Handle(eventType, func(_ context.Context, event any) error {
			mu.Lock()
			defer mu.Unlock()

			return encoder.Encode(event)
		})
		if err != nil {
			return fmt.Errorf("failed to register handler for %s: %w", eventType, err)
		}
	}

	if err := bus.Subscribe(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	logger.InfoContext(ctx, "Tailing lifecycle events", "types", len(types))

	<-ctx.Done()

	return nil
}
