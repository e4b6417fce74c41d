package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/otelhelper"
	"github.com/dukex/leadflow/pkg/registry"
	"github.com/dukex/leadflow/pkg/sendwindow"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrMissingDueAt means a node asked to pause without a usable resume time.
var ErrMissingDueAt = errors.New("paused step has no valid due_at")

const (
	DefaultNodeTimeout = 30 * time.Second

	skipReasonSendWindow = "outside send window"
)

// Executor walks a chain from the resume point of an enrollment.
type Executor struct {
	registry    *registry.Registry
	policy      *sendwindow.Policy
	logger      *slog.Logger
	tracer      trace.Tracer
	now         func() time.Time
	nodeTimeout time.Duration
}

type Option func(*Executor)

func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Executor) { e.tracer = tracer }
}

func WithNodeTimeout(timeout time.Duration) Option {
	return func(e *Executor) {
		if timeout > 0 {
			e.nodeTimeout = timeout
		}
	}
}

func WithSendWindowPolicy(policy *sendwindow.Policy) Option {
	return func(e *Executor) { e.policy = policy }
}

func NewExecutor(registry *registry.Registry, logger *slog.Logger, opts ...Option) *Executor {
	executor := &Executor{
		registry:    registry,
		policy:      sendwindow.Default(),
		logger:      logger.With("module", "workflow_executor"),
		tracer:      otelhelper.NoopTracer(),
		now:         time.Now,
		nodeTimeout: DefaultNodeTimeout,
	}

	for _, opt := range opts {
		opt(executor)
	}

	return executor
}

// Run is the input of one runner invocation.
type Run struct {
	Chain        *Chain
	WorkflowID   string
	WorkflowName string
	EnrollmentID string
	Lead         models.Lead
	History      []*models.WorkflowExecutionStep
	Options      models.ExecutionOptions
}

// ExecutionResult is the outcome of one runner invocation. Steps holds only
// the steps produced by this invocation.
type ExecutionResult struct {
	Steps        []*models.WorkflowExecutionStep
	Status       models.StepStatus
	Paused       bool
	PausedNodeID string
	DueAt        time.Time
	Completed    bool
	FailedNodeID string
	Error        string
}

// EnrollmentStatus maps the invocation outcome to the enrollment status.
func (r *ExecutionResult) EnrollmentStatus() models.EnrollmentStatus {
	switch {
	case r.Status == models.StepStatusFailed:
		return models.EnrollmentStatusFailed
	case r.Completed:
		return models.EnrollmentStatusSuccess
	default:
		return models.EnrollmentStatusInProgress
	}
}

// Execute runs nodes from the resume point until one fails, a wait pauses,
// or the chain ends. It never blocks on wall-clock time and never modifies
// run.History. The error return is reserved for runs that cannot start.
func (e *Executor) Execute(ctx context.Context, run Run) (*ExecutionResult, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, run.WorkflowID),
		attribute.String(otelhelper.EnrollmentIDKey, run.EnrollmentID),
	)
	defer span.End()

	logger := e.logger.With("workflow_id", run.WorkflowID, "enrollment_id", run.EnrollmentID)

	point, err := ResumeIndex(run.Chain, run.History)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	result := &ExecutionResult{
		Steps:  make([]*models.WorkflowExecutionStep, 0),
		Status: models.StepStatusSuccess,
	}

	if point.Completed {
		result.Completed = true

		logger.DebugContext(ctx, "Enrollment already at end of chain")

		return result, nil
	}

	executionCtx := &models.ExecutionContext{
		WorkflowID:   run.WorkflowID,
		WorkflowName: run.WorkflowName,
		EnrollmentID: run.EnrollmentID,
		Lead:         run.Lead,
		Options:      run.Options,
		LastChannel:  models.LastDeliveryChannel(run.History),
	}

	for i := point.Index; i < run.Chain.Len(); i++ {
		chainNode := run.Chain.At(i)

		executionCtx.Now = e.now()
		executionCtx.Replay = nil

		if i == point.Index {
			executionCtx.Replay = point.Replay
		}

		if e.outsideSendWindow(run, chainNode, executionCtx.Now) {
			logger.InfoContext(ctx, "Skipping node outside send window", "node_id", chainNode.Node.ID)

			result.Steps = append(result.Steps, &models.WorkflowExecutionStep{
				NodeID:     chainNode.Node.ID,
				NodeType:   chainNode.Node.Type,
				Status:     models.StepStatusSuccess,
				Output:     map[string]any{"skipped": true, "reason": skipReasonSendWindow},
				StartedAt:  executionCtx.Now,
				FinishedAt: executionCtx.Now,
			})

			continue
		}

		step := e.interpret(ctx, logger, chainNode, executionCtx)

		if step.IsPaused() {
			due, ok := step.DueAt()
			if ok {
				result.Paused = true
				result.PausedNodeID = step.NodeID
				result.DueAt = due

				// A replayed wait that has not elapsed is the same pause, not a new step.
				if executionCtx.Replay == nil {
					result.Steps = append(result.Steps, step)
				}

				logger.InfoContext(ctx, "Enrollment paused", "node_id", step.NodeID, "due_at", due)

				return result, nil
			}

			logger.ErrorContext(ctx, "Paused step has no due time", "node_id", step.NodeID, "due_at", step.Output["due_at"])

			step.Status = models.StepStatusFailed
			step.Error = fmt.Sprintf("%s: node %s", ErrMissingDueAt, step.NodeID)
			step.Output["paused"] = false
			step.Output["error"] = step.Error
		}

		result.Steps = append(result.Steps, step)

		if step.Status == models.StepStatusFailed {
			result.Status = models.StepStatusFailed
			result.FailedNodeID = step.NodeID
			result.Error = step.Error

			span.SetAttributes(attribute.String(otelhelper.StepStatusKey, string(step.Status)))

			return result, nil
		}
	}

	result.Completed = true

	logger.InfoContext(ctx, "Enrollment reached end of chain", "steps", len(result.Steps))

	return result, nil
}

func (e *Executor) outsideSendWindow(run Run, chainNode ChainNode, now time.Time) bool {
	if run.Options.IgnoreSendWindow || !chainNode.Node.Type.RespectsSendWindow() {
		return false
	}

	return !e.policy.IsAllowedNow(run.Chain.SendWindow, now)
}
