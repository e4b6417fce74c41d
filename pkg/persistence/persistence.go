// Package persistence provides the storage abstraction for workflows, enrollments and resume schedules.
package persistence

import (
	"context"
	"time"

	"github.com/dukex/leadflow/pkg/models"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	EnrollmentRepository() EnrollmentRepository
	ScheduleRepository() ScheduleRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// ListWorkflowsOptions filters and pages workflow listings.
type ListWorkflowsOptions struct {
	Owner     string
	Status    *models.WorkflowStatus
	SortBy    string
	SortOrder string
	Limit     int
	Offset    int
}

type WorkflowListResult struct {
	Workflows   []*models.Workflow
	TotalCount  int64
	HasNextPage bool
}

// WorkflowRepository stores workflow definitions. Deleted workflows are
// soft deleted and invisible to every read.
type WorkflowRepository interface {
	List(ctx context.Context, opts ListWorkflowsOptions) (*WorkflowListResult, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// EnrollmentRepository stores enrollments. Steps are append-only.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByID(ctx context.Context, id string) (*models.Enrollment, error)
	ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Enrollment, error)
	// AppendSteps adds steps after the existing history and updates status
	// and completion time in a single atomic write.
	AppendSteps(
		ctx context.Context,
		id string,
		steps []*models.WorkflowExecutionStep,
		status models.EnrollmentStatus,
		completedAt *time.Time,
	) (*models.Enrollment, error)
	Delete(ctx context.Context, id string) error
}

// ScheduleRepository stores at most one resume schedule per enrollment.
type ScheduleRepository interface {
	Upsert(ctx context.Context, schedule *models.ResumeSchedule) error
	Get(ctx context.Context, enrollmentID string) (*models.ResumeSchedule, error)
	// Delete is idempotent.
	Delete(ctx context.Context, enrollmentID string) error
	List(ctx context.Context) ([]*models.ResumeSchedule, error)
	// Due returns schedules with due_at at or before now, oldest first.
	Due(ctx context.Context, now time.Time) ([]*models.ResumeSchedule, error)
}
