// Package main provides the Leadflow API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dukex/leadflow/pkg/cmd"
	"github.com/dukex/leadflow/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
)

const shutdownTimeout = 10 * time.Second

type API struct {
	logger   *slog.Logger
	engine   *cmd.Engine
	validate *validator.Validate
}

func NewAPI(logger *slog.Logger, engine *cmd.Engine) *API {
	return &API{
		logger:   logger,
		engine:   engine,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.engine.Workflows, a.engine.Enrollments, a.validate, a.engine.Registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Leadflow API")
	})

	handlers.Routes(app)

	return app
}

// Run starts the resume scheduler and serves until ctx is done.
func (a *API) Run(ctx context.Context, port int) error {
	if err := a.engine.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start resume scheduler: %w", err)
	}

	app := a.App()
	errCh := make(chan error, 1)

	go func() {
		errCh <- app.Listen(":"+strconv.Itoa(port), fiber.ListenConfig{DisableStartupMessage: true})
	}()

	a.logger.InfoContext(ctx, "Leadflow API listening", "port", port)

	var serveErr error

	select {
	case <-ctx.Done():
		a.logger.InfoContext(ctx, "Shutting down Leadflow API")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := app.ShutdownWithContext(shutdownCtx)
	stopErr := a.engine.Scheduler.Stop(shutdownCtx)

	return errors.Join(serveErr, shutdownErr, stopErr)
}
