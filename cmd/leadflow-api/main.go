package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/leadflow/pkg/cmd"
	"github.com/dukex/leadflow/pkg/config"
	"github.com/dukex/leadflow/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	command := &cli.Command{
		Name:                  "leadflow-api",
		Usage:                 "Manage workflows and enroll leads",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
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
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")

			logger.InfoContext(ctx, "Initializing Leadflow API")

			cfg, err := config.Load(command.String("config"))
			if err != nil {
				return err
			}

			engine, err := cmd.NewEngine(ctx, logger, cfg, cmd.EngineOptions{
				DatabaseURL:  command.String("database-url"),
				EventBus:     command.String("event-bus"),
				KafkaBrokers: command.String("kafka-brokers"),
				LockURL:      command.String("lock-url"),
			})
			if err != nil {
				return err
			}

			defer func() {
				if err := engine.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close engine", "error", err)
				}
			}()

			api := NewAPI(logger, engine)

			return api.Run(ctx, command.Int("port"))
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := command.Run(ctx, os.Args); err != nil {
		log.WithModule("api").Error("Leadflow API exited", "error", err)
		os.Exit(1)
	}
}
