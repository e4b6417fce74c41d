package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/leadflow/pkg/config"
	"github.com/dukex/leadflow/pkg/eventbus"
	"github.com/dukex/leadflow/pkg/events"
	"github.com/dukex/leadflow/pkg/locker"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/workflow"
	"github.com/google/uuid"
)

// ResumeScheduler arms and cancels durable resumes.
type ResumeScheduler interface {
	Arm(ctx context.Context, schedule *models.ResumeSchedule) error
	Cancel(ctx context.Context, enrollmentID string) error
}

type Enrollment struct {
	persistence persistence.Persistence
	executor    *workflow.Executor
	scheduler   ResumeScheduler
	locker      locker.Locker
	chains      *ChainCache
	publisher   eventbus.EventPublisher
	retry       config.Retry
	logger      *slog.Logger
	now         func() time.Time
}

type EnrollmentOption func(*Enrollment)

func WithLocker(l locker.Locker) EnrollmentOption {
	return func(e *Enrollment) { e.locker = l }
}

func WithChainCache(chains *ChainCache) EnrollmentOption {
	return func(e *Enrollment) { e.chains = chains }
}

func WithPublisher(publisher eventbus.EventPublisher) EnrollmentOption {
	return func(e *Enrollment) { e.publisher = publisher }
}

func WithRetry(retry config.Retry) EnrollmentOption {
	return func(e *Enrollment) { e.retry = retry }
}

func WithClock(now func() time.Time) EnrollmentOption {
	return func(e *Enrollment) { e.now = now }
}

func NewEnrollment(
	persistence persistence.Persistence,
	executor *workflow.Executor,
	scheduler ResumeScheduler,
	logger *slog.Logger,
	opts ...EnrollmentOption,
) *Enrollment {
	e := &Enrollment{
		persistence: persistence,
		executor:    executor,
		scheduler:   scheduler,
		locker:      locker.NewMemory(),
		chains:      NewChainCache(DefaultChainCacheTTL),
		logger:      logger.With("module", "enrollment_service"),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// EnrollRequest describes a new enrollment. IgnoreSendWindow defaults to
// true for manual-test enrollments and false for live ones.
type EnrollRequest struct {
	Lead             models.Lead
	Source           models.EnrollmentSource
	IgnoreSendWindow *bool
	Preview          bool
	Overrides        models.Overrides
}

// AdvanceOptions apply to a single explicit advance.
type AdvanceOptions struct {
	IgnoreSendWindow bool
	SkipWait         bool
}

// Inspection is the introspection view of an enrollment.
type Inspection struct {
	Enrollment      *models.Enrollment     `json:"enrollment"`
	CurrentNodeID   string                 `json:"current_node_id,omitempty"`
	CurrentNodeType models.NodeType        `json:"current_node_type,omitempty"`
	Paused          bool                   `json:"paused"`
	DueAt           *time.Time             `json:"due_at,omitempty"`
	Completed       bool                   `json:"completed"`
	Schedule        *models.ResumeSchedule `json:"schedule,omitempty"`
}

func (e *Enrollment) validateEnrollRequest(req *EnrollRequest) error {
	if req.Source == "" {
		req.Source = models.EnrollmentSourceLive
	}

	if req.Source != models.EnrollmentSourceLive && req.Source != models.EnrollmentSourceManualTest {
		return NewValidationError("Enroll", "INVALID_SOURCE", fmt.Sprintf("invalid source '%s'", req.Source), ErrInvalidSource)
	}

	if !req.Lead.Reachable() {
		return ErrLeadUnreachable
	}

	if req.Overrides.Channel != "" && !req.Overrides.Channel.Valid() {
		return NewValidationError("Enroll", "INVALID_CHANNEL",
			fmt.Sprintf("invalid channel '%s', allowed: email, sms", req.Overrides.Channel), ErrInvalidChannel)
	}

	if req.Preview && req.Source != models.EnrollmentSourceManualTest {
		return ErrPreviewNotAllowed
	}

	return nil
}

// Enroll creates an enrollment and runs its first invocation.
func (e *Enrollment) Enroll(ctx context.Context, workflowID string, req EnrollRequest) (*models.Enrollment, error) {
	if err := e.validateEnrollRequest(&req); err != nil {
		return nil, err
	}

	wf, err := e.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if req.Source == models.EnrollmentSourceLive && !wf.IsPublished() {
		return nil, ErrWorkflowNotPublished
	}

	if _, err := e.chains.Chain(wf); err != nil {
		return nil, err
	}

	ignoreSendWindow := req.Source == models.EnrollmentSourceManualTest
	if req.IgnoreSendWindow != nil {
		ignoreSendWindow = *req.IgnoreSendWindow
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate enrollment id: %w", err)
	}

	now := e.now().UTC()
	enrollment := &models.Enrollment{
		ID:         id.String(),
		WorkflowID: wf.ID,
		Lead:       req.Lead,
		Source:     req.Source,
		Status:     models.EnrollmentStatusInProgress,
		Options: models.EnrollmentOptions{
			IgnoreSendWindow: ignoreSendWindow,
			Preview:          req.Preview,
			Overrides:        req.Overrides,
		},
		Steps:     []*models.WorkflowExecutionStep{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	unlock, err := e.locker.Lock(ctx, enrollment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock enrollment %s: %w", enrollment.ID, err)
	}
	defer unlock()

	if err := e.persistence.EnrollmentRepository().Create(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("failed to create enrollment: %w", err)
	}

	e.logger.InfoContext(ctx, "Enrollment created",
		"workflow_id", wf.ID, "enrollment_id", enrollment.ID, "source", req.Source)

	e.publish(ctx, enrollment.ID, events.EnrollmentCreated{
		BaseEvent:    events.NewBaseEvent(events.EnrollmentCreatedEvent, wf.ID),
		EnrollmentID: enrollment.ID,
		Source:       enrollment.Source,
	})

	return e.advanceLocked(ctx, enrollment, wf, AdvanceOptions{}, 0)
}

// Advance runs the next invocation of an enrollment on request.
func (e *Enrollment) Advance(ctx context.Context, enrollmentID string, opts AdvanceOptions) (*models.Enrollment, error) {
	unlock, err := e.locker.Lock(ctx, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock enrollment %s: %w", enrollmentID, err)
	}
	defer unlock()

	enrollment, err := e.persistence.EnrollmentRepository().GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	wf, err := e.persistence.WorkflowRepository().GetByID(ctx, enrollment.WorkflowID)
	if err != nil {
		return nil, err
	}

	return e.advanceLocked(ctx, enrollment, wf, opts, 0)
}

// Resume is the scheduler entry point. A schedule that no longer matches
// the enrollment's resume point, or whose enrollment is gone, is ignored.
func (e *Enrollment) Resume(ctx context.Context, schedule *models.ResumeSchedule) error {
	logger := e.logger.With("enrollment_id", schedule.EnrollmentID, "node_id", schedule.NodeID, "reason", schedule.Reason)

	unlock, err := e.locker.Lock(ctx, schedule.EnrollmentID)
	if err != nil {
		return fmt.Errorf("failed to lock enrollment %s: %w", schedule.EnrollmentID, err)
	}
	defer unlock()

	enrollment, err := e.persistence.EnrollmentRepository().GetByID(ctx, schedule.EnrollmentID)
	if err != nil {
		if persistence.IsEnrollmentNotFound(err) {
			logger.InfoContext(ctx, "Dropping resume of deleted enrollment")

			return e.scheduler.Cancel(ctx, schedule.EnrollmentID)
		}

		return err
	}

	wf, err := e.persistence.WorkflowRepository().GetByID(ctx, enrollment.WorkflowID)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			logger.InfoContext(ctx, "Dropping resume of enrollment whose workflow was deleted")

			return e.scheduler.Cancel(ctx, schedule.EnrollmentID)
		}

		return err
	}

	chain, err := e.chains.Chain(wf)
	if err != nil {
		return err
	}

	point, err := workflow.ResumeIndex(chain, enrollment.Steps)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDefinitionChanged, err)
	}

	if point.Completed || chain.At(point.Index).Node.ID != schedule.NodeID {
		logger.DebugContext(ctx, "Ignoring stale resume")

		return nil
	}

	_, err = e.advanceLocked(ctx, enrollment, wf, AdvanceOptions{}, schedule.Attempt)

	return err
}

// advanceLocked runs one invocation. The caller holds the enrollment lock.
func (e *Enrollment) advanceLocked(
	ctx context.Context,
	enrollment *models.Enrollment,
	wf *models.Workflow,
	opts AdvanceOptions,
	attempt int,
) (*models.Enrollment, error) {
	chain, err := e.chains.Chain(wf)
	if err != nil {
		return nil, err
	}

	result, err := e.executor.Execute(ctx, workflow.Run{
		Chain:        chain,
		WorkflowID:   wf.ID,
		WorkflowName: wf.Name,
		EnrollmentID: enrollment.ID,
		Lead:         enrollment.Lead,
		History:      enrollment.Steps,
		Options: models.ExecutionOptions{
			IgnoreSendWindow: enrollment.Options.IgnoreSendWindow || opts.IgnoreSendWindow,
			PauseAtWait:      !enrollment.Options.Preview,
			SkipWait:         opts.SkipWait,
			Overrides:        enrollment.Options.Overrides,
		},
	})
	if err != nil {
		if errors.Is(err, workflow.ErrHistoryMismatch) {
			return nil, fmt.Errorf("%w: %w", ErrDefinitionChanged, err)
		}

		return nil, err
	}

	status := result.EnrollmentStatus()
	updated := enrollment

	if len(result.Steps) > 0 || status != enrollment.Status || (result.Completed && enrollment.CompletedAt == nil) {
		var completedAt *time.Time

		if result.Completed {
			now := e.now().UTC()
			completedAt = &now
		}

		updated, err = e.persistence.EnrollmentRepository().AppendSteps(ctx, enrollment.ID, result.Steps, status, completedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to record steps of enrollment %s: %w", enrollment.ID, err)
		}
	}

	if err := e.schedule(ctx, updated, result, attempt); err != nil {
		return updated, err
	}

	e.publishResult(ctx, updated, result)

	return updated, nil
}

func (e *Enrollment) schedule(ctx context.Context, enrollment *models.Enrollment, result *workflow.ExecutionResult, attempt int) error {
	switch {
	case result.Paused:
		return e.scheduler.Arm(ctx, &models.ResumeSchedule{
			EnrollmentID: enrollment.ID,
			WorkflowID:   enrollment.WorkflowID,
			NodeID:       result.PausedNodeID,
			Reason:       models.ResumeReasonWait,
			DueAt:        result.DueAt,
		})
	case result.Status == models.StepStatusFailed && e.shouldRetry(enrollment, attempt):
		next := attempt + 1

		e.logger.InfoContext(ctx, "Scheduling retry of failed node",
			"enrollment_id", enrollment.ID, "node_id", result.FailedNodeID, "attempt", next)

		return e.scheduler.Arm(ctx, &models.ResumeSchedule{
			EnrollmentID: enrollment.ID,
			WorkflowID:   enrollment.WorkflowID,
			NodeID:       result.FailedNodeID,
			Reason:       models.ResumeReasonRetry,
			Attempt:      next,
			DueAt:        e.now().UTC().Add(e.retry.Delay(next)),
		})
	default:
		return e.scheduler.Cancel(ctx, enrollment.ID)
	}
}

func (e *Enrollment) shouldRetry(enrollment *models.Enrollment, attempt int) bool {
	return e.retry.Enabled() &&
		enrollment.Source == models.EnrollmentSourceLive &&
		attempt < e.retry.MaxAttempts
}

func (e *Enrollment) publishResult(ctx context.Context, enrollment *models.Enrollment, result *workflow.ExecutionResult) {
	if len(result.Steps) > 0 {
		nodeIDs := make([]string, 0, len(result.Steps))
		for _, step := range result.Steps {
			nodeIDs = append(nodeIDs, step.NodeID)
		}

		e.publish(ctx, enrollment.ID, events.EnrollmentAdvanced{
			BaseEvent:    events.NewBaseEvent(events.EnrollmentAdvancedEvent, enrollment.WorkflowID),
			EnrollmentID: enrollment.ID,
			NodeIDs:      nodeIDs,
		})
	}

	switch {
	case result.Paused:
		e.publish(ctx, enrollment.ID, events.EnrollmentPaused{
			BaseEvent:    events.NewBaseEvent(events.EnrollmentPausedEvent, enrollment.WorkflowID),
			EnrollmentID: enrollment.ID,
			NodeID:       result.PausedNodeID,
			Reason:       models.ResumeReasonWait,
			DueAt:        result.DueAt,
		})
	case result.Status == models.StepStatusFailed:
		e.publish(ctx, enrollment.ID, events.EnrollmentFailed{
			BaseEvent:    events.NewBaseEvent(events.EnrollmentFailedEvent, enrollment.WorkflowID),
			EnrollmentID: enrollment.ID,
			NodeID:       result.FailedNodeID,
			Error:        result.Error,
		})
	case result.Completed && len(result.Steps) > 0:
		completedAt := e.now().UTC()
		if enrollment.CompletedAt != nil {
			completedAt = *enrollment.CompletedAt
		}

		e.publish(ctx, enrollment.ID, events.EnrollmentCompleted{
			BaseEvent:    events.NewBaseEvent(events.EnrollmentCompletedEvent, enrollment.WorkflowID),
			EnrollmentID: enrollment.ID,
			CompletedAt:  completedAt,
		})
	}
}

func (e *Enrollment) publish(ctx context.Context, key string, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, key, event); err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "enrollment_id", key, "error", err)
	}
}

// Delete cancels any pending resume and removes the enrollment.
func (e *Enrollment) Delete(ctx context.Context, enrollmentID string) error {
	unlock, err := e.locker.Lock(ctx, enrollmentID)
	if err != nil {
		return fmt.Errorf("failed to lock enrollment %s: %w", enrollmentID, err)
	}
	defer unlock()

	enrollment, err := e.persistence.EnrollmentRepository().GetByID(ctx, enrollmentID)
	if err != nil {
		return err
	}

	if err := e.scheduler.Cancel(ctx, enrollmentID); err != nil {
		return err
	}

	if err := e.persistence.EnrollmentRepository().Delete(ctx, enrollmentID); err != nil {
		return fmt.Errorf("failed to delete enrollment: %w", err)
	}

	e.logger.InfoContext(ctx, "Enrollment deleted", "enrollment_id", enrollmentID)

	e.publish(ctx, enrollmentID, events.EnrollmentDeleted{
		BaseEvent:    events.NewBaseEvent(events.EnrollmentDeletedEvent, enrollment.WorkflowID),
		EnrollmentID: enrollmentID,
	})

	return nil
}

// Inspect reports where an enrollment stands. When its workflow is gone or
// no longer matches the history, only the history is returned.
func (e *Enrollment) Inspect(ctx context.Context, enrollmentID string) (*Inspection, error) {
	enrollment, err := e.persistence.EnrollmentRepository().GetByID(ctx, enrollmentID)
	if err != nil {
		return nil, err
	}

	inspection := &Inspection{Enrollment: enrollment}

	schedule, err := e.persistence.ScheduleRepository().Get(ctx, enrollmentID)
	switch {
	case err == nil:
		inspection.Schedule = schedule
	case !persistence.IsScheduleNotFound(err):
		return nil, err
	}

	wf, err := e.persistence.WorkflowRepository().GetByID(ctx, enrollment.WorkflowID)
	if err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return inspection, nil
		}

		return nil, err
	}

	chain, err := e.chains.Chain(wf)
	if err != nil {
		return inspection, nil //nolint:nilerr // an invalid draft still has a readable history
	}

	point, err := workflow.ResumeIndex(chain, enrollment.Steps)
	if err != nil {
		return inspection, nil //nolint:nilerr // history predates the current definition
	}

	if point.Completed {
		inspection.Completed = true

		return inspection, nil
	}

	current := chain.At(point.Index)
	inspection.CurrentNodeID = current.Node.ID
	inspection.CurrentNodeType = current.Node.Type

	if point.Replay != nil {
		inspection.Paused = true

		if due, ok := point.Replay.DueAt(); ok {
			inspection.DueAt = &due
		}
	}

	return inspection, nil
}

func (e *Enrollment) List(ctx context.Context, workflowID string) ([]*models.Enrollment, error) {
	if _, err := e.persistence.WorkflowRepository().GetByID(ctx, workflowID); err != nil {
		return nil, err
	}

	return e.persistence.EnrollmentRepository().ListByWorkflow(ctx, workflowID)
}
