package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/leadflow/pkg/config"
	"github.com/dukex/leadflow/pkg/eventbus"
	"github.com/dukex/leadflow/pkg/otelhelper"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/registry"
	"github.com/dukex/leadflow/pkg/scheduler"
	"github.com/dukex/leadflow/pkg/sendwindow"
	"github.com/dukex/leadflow/pkg/services"
	"github.com/dukex/leadflow/pkg/workflow"
)

type EngineOptions struct {
	DatabaseURL  string
	EventBus     string
	KafkaBrokers string
	LockURL      string
}

// Engine is the assembled set of services shared by the API and the CLI.
type Engine struct {
	Config      *config.Config
	Persistence persistence.Persistence
	Registry    *registry.Registry
	EventBus    eventbus.EventBus
	Scheduler   *scheduler.Scheduler
	Workflows   *services.Workflow
	Enrollments *services.Enrollment

	closers []func(ctx context.Context) error
}

// NewEngine wires persistence, delivery, the runner and the resume scheduler.
// The scheduler is not started.
func NewEngine(ctx context.Context, logger *slog.Logger, cfg *config.Config, opts EngineOptions) (*Engine, error) {
	engine := &Engine{Config: cfg}

	if err := engine.build(ctx, logger, opts); err != nil {
		closeErr := engine.Close(ctx)

		return nil, errors.Join(err, closeErr)
	}

	return engine, nil
}

func (e *Engine) build(ctx context.Context, logger *slog.Logger, opts EngineOptions) error {
	cfg := e.Config

	store, err := NewPersistence(ctx, logger, opts.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to create persistence: %w", err)
	}

	e.Persistence = store
	e.closers = append(e.closers, store.Close)

	deps, err := NewDependencies(cfg, logger)
	if err != nil {
		return err
	}

	e.Registry = NewRegistry(logger, deps)

	bus, err := NewEventBus(opts.EventBus, opts.KafkaBrokers, logger)
	if err != nil {
		return err
	}

	if bus != nil {
		e.EventBus = bus
		e.closers = append(e.closers, func(context.Context) error { return bus.Close() })
	}

	lock, closeLock, err := NewLocker(ctx, opts.LockURL, logger)
	if err != nil {
		return fmt.Errorf("failed to create locker: %w", err)
	}

	e.closers = append(e.closers, func(context.Context) error { return closeLock() })

	policy, err := sendwindow.New(cfg.Engine.DefaultTimezone)
	if err != nil {
		return err
	}

	tracer := otelhelper.NoopTracer()

	if cfg.Otel.Enabled {
		otelTracer, shutdown, err := otelhelper.NewTracer(ctx, cfg.Otel.ServiceName)
		if err != nil {
			return fmt.Errorf("failed to create tracer: %w", err)
		}

		tracer = otelTracer
		e.closers = append(e.closers, shutdown)
	}

	executor := workflow.NewExecutor(e.Registry, logger,
		workflow.WithNodeTimeout(cfg.Engine.NodeTimeout),
		workflow.WithSendWindowPolicy(policy),
		workflow.WithTracer(tracer),
	)

	e.Scheduler = scheduler.New(store.ScheduleRepository(), logger,
		scheduler.WithCeiling(cfg.Engine.ResumeCeiling),
		scheduler.WithPollSpec(cfg.Engine.PollInterval),
	)

	chains := services.NewChainCache(cfg.Engine.ChainCacheTTL)

	workflowOpts := []services.WorkflowOption{services.WithWorkflowChainCache(chains)}
	enrollmentOpts := []services.EnrollmentOption{
		services.WithChainCache(chains),
		services.WithLocker(lock),
		services.WithRetry(cfg.Engine.Retry),
	}

	if e.EventBus != nil {
		workflowOpts = append(workflowOpts, services.WithWorkflowPublisher(e.EventBus))
		enrollmentOpts = append(enrollmentOpts, services.WithPublisher(e.EventBus))
	}

	e.Workflows = services.NewWorkflow(store, logger, workflowOpts...)
	e.Enrollments = services.NewEnrollment(store, executor, e.Scheduler, logger, enrollmentOpts...)
	e.Scheduler.SetHandler(e.Enrollments.Resume)

	return nil
}

// Close releases everything in reverse order of creation.
func (e *Engine) Close(ctx context.Context) error {
	var errs []error

	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	e.closers = nil

	return errors.Join(errs...)
}
