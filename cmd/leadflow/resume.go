package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dukex/leadflow/pkg/cmd"
	"github.com/dukex/leadflow/pkg/config"
	"github.com/dukex/leadflow/pkg/log"
	"github.com/urfave/cli/v3"
)

// NewResumeCommand processes every overdue resume once. Meant to run from
// cron next to, or instead of, the API's own poll.
func NewResumeCommand() *cli.Command {
	return &cli.Command{
		Name:  "resume",
		Usage: "Resume enrollments whose wait or retry is due",
		Flags: append(engineFlags(), &cli.BoolFlag{
			Name:  "dry-run",
			Usage: "List due schedules without resuming them",
		}),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("cli").With("action", "resume")

			engine, err := newEngine(ctx, command)
			if err != nil {
				return err
			}

			defer func() {
				if err := engine.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close engine", "error", err)
				}
			}()

			if command.Bool("dry-run") {
				return listDue(ctx, command, engine)
			}

			count, err := engine.Scheduler.RunDue(ctx)

			_, _ = fmt.Fprintf(command.Root().Writer, "resumed %d enrollment(s)\n", count)

			return err
		},
	}
}

func listDue(ctx context.Context, command *cli.Command, engine *cmd.Engine) error {
	schedules, err := engine.Persistence.ScheduleRepository().Due(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to list due schedules: %w", err)
	}

	out := command.Root().Writer

	for _, schedule := range schedules {
		_, _ = fmt.Fprintf(out, "%s\t%s\t%s\t%s\n",
			schedule.EnrollmentID, schedule.NodeID, schedule.Reason, schedule.DueAt.Format(time.RFC3339))
	}

	_, _ = fmt.Fprintf(out, "%d due schedule(s)\n", len(schedules))

	return nil
}

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "database-url",
			Usage:    "Database connection URL for persistence (file path or postgres://)",
			Required: true,
			Sources:  cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (gochannel, kafka, none)",
			Value:   "none",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "Comma separated Kafka brokers",
			Value:   "localhost:9092",
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.StringFlag{
			Name:    "lock-url",
			Usage:   "Redis URL for the enrollment lock, in-process lock when empty",
			Sources: cli.EnvVars("LOCK_URL"),
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the engine configuration file",
			Sources: cli.EnvVars("CONFIG_FILE"),
		},
	}
}

func newEngine(ctx context.Context, command *cli.Command) (*cmd.Engine, error) {
	cfg, err := config.Load(command.String("config"))
	if err != nil {
		return nil, err
	}

	return cmd.NewEngine(ctx, log.WithModule("cli"), cfg, cmd.EngineOptions{
		DatabaseURL:  command.String("database-url"),
		EventBus:     command.String("event-bus"),
		KafkaBrokers: command.String("kafka-brokers"),
		LockURL:      command.String("lock-url"),
	})
}
