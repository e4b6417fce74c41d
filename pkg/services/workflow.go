package services

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/dukex/leadflow/pkg/eventbus"
	"github.com/dukex/leadflow/pkg/events"
	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/workflow"
	"github.com/google/uuid"
)

type Workflow struct {
	persistence persistence.Persistence
	chains      *ChainCache
	publisher   eventbus.EventPublisher
	logger      *slog.Logger
	now         func() time.Time
}

type WorkflowOption func(*Workflow)

func WithWorkflowChainCache(chains *ChainCache) WorkflowOption {
	return func(w *Workflow) { w.chains = chains }
}

func WithWorkflowPublisher(publisher eventbus.EventPublisher) WorkflowOption {
	return func(w *Workflow) { w.publisher = publisher }
}

func WithWorkflowClock(now func() time.Time) WorkflowOption {
	return func(w *Workflow) { w.now = now }
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, logger *slog.Logger, opts ...WorkflowOption) *Workflow {
	w := &Workflow{
		persistence: persistence,
		chains:      NewChainCache(DefaultChainCacheTTL),
		logger:      logger.With("module", "workflow_service"),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflowsRequest contains options for listing workflows.
type ListWorkflowsRequest struct {
	Limit     int
	Offset    int
	Owner     string
	Status    *models.WorkflowStatus
	SortBy    string
	SortOrder string
}

// ListWorkflowsResponse contains the result of listing workflows.
type ListWorkflowsResponse struct {
	Workflows   []*models.Workflow `json:"workflows"`
	TotalCount  int64              `json:"total_count"`
	HasNextPage bool               `json:"has_next_page"`
}

// ListWorkflows retrieves workflows with filtering, sorting, and pagination.
func (w *Workflow) ListWorkflows(ctx context.Context, req ListWorkflowsRequest) (*ListWorkflowsResponse, error) {
	if err := w.validateListWorkflowsRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	result, err := w.persistence.WorkflowRepository().List(ctx, persistence.ListWorkflowsOptions{
		Limit:     req.Limit,
		Offset:    req.Offset,
		Owner:     req.Owner,
		Status:    req.Status,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		if persistence.IsInvalidSortField(err) {
			return nil, ErrInvalidSortField
		}

		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return &ListWorkflowsResponse{
		Workflows:   result.Workflows,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

func (w *Workflow) validateListWorkflowsRequest(req *ListWorkflowsRequest) error {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.SortBy == "" {
		req.SortBy = "created_at"
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	allowedSorts := []string{"created_at", "updated_at", "name"}

	if !slices.Contains(allowedSorts, req.SortBy) {
		return NewValidationError(
			"validateListWorkflowsRequest",
			"INVALID_SORT_FIELD",
			fmt.Sprintf("invalid sort field '%s', allowed: %s", req.SortBy, strings.Join(allowedSorts, ", ")),
			ErrInvalidSortField,
		)
	}

	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		return NewValidationError(
			"validateListWorkflowsRequest",
			"INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order '%s', allowed: asc, desc", req.SortOrder),
			ErrInvalidSortOrder,
		)
	}

	if req.Status != nil && *req.Status != models.WorkflowStatusDraft && *req.Status != models.WorkflowStatusPublished {
		return NewValidationError(
			"validateListWorkflowsRequest",
			"INVALID_STATUS",
			fmt.Sprintf("invalid status '%s'", *req.Status),
			ErrInvalidStatus,
		)
	}

	req.Owner = strings.TrimSpace(req.Owner)

	return nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	return w.persistence.WorkflowRepository().GetByID(ctx, id)
}

// Create stores a new draft. Drafts may hold definitions that do not
// validate yet; Publish is the gate.
func (w *Workflow) Create(ctx context.Context, wf *models.Workflow) (*models.Workflow, error) {
	if wf == nil {
		return nil, ErrWorkflowNil
	}

	if strings.TrimSpace(wf.Name) == "" {
		return nil, ErrWorkflowNameRequired
	}

	now := w.now().UTC()

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate workflow id: %w", err)
	}

	wf.ID = id.String()
	wf.Status = models.WorkflowStatusDraft
	wf.CreatedAt = now
	wf.UpdatedAt = now
	wf.PublishedAt = nil
	wf.DeletedAt = nil

	if err := w.persistence.WorkflowRepository().Save(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	w.logger.InfoContext(ctx, "Workflow created", "workflow_id", wf.ID)

	return wf, nil
}

// UpdateWorkflowRequest carries the fields a client may change. Nil fields
// are left untouched.
type UpdateWorkflowRequest struct {
	Name        *string
	Description *string
	Owner       *string
	Definition  *models.Definition
}

// Update modifies an existing workflow. A published workflow whose
// definition changes returns to draft and must be published again.
func (w *Workflow) Update(ctx context.Context, workflowID string, req UpdateWorkflowRequest) (*models.Workflow, error) {
	existing, err := w.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, ErrWorkflowNameRequired
		}

		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Owner != nil {
		existing.Owner = *req.Owner
	}

	if req.Definition != nil && !reflect.DeepEqual(existing.Definition, *req.Definition) {
		existing.Definition = *req.Definition

		if existing.IsPublished() {
			existing.Status = models.WorkflowStatusDraft
			existing.PublishedAt = nil
		}
	}

	existing.UpdatedAt = w.now().UTC()

	if err := w.persistence.WorkflowRepository().Save(ctx, existing); err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	w.chains.Invalidate(workflowID)

	return existing, nil
}

// Delete soft deletes a workflow. Enrollments keep their history but can
// no longer advance.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	if err := w.persistence.WorkflowRepository().Delete(ctx, workflowID); err != nil {
		if persistence.IsWorkflowNotFound(err) {
			return err
		}

		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	w.chains.Invalidate(workflowID)

	return nil
}

// Validate reduces a definition to its chain without storing anything.
func (w *Workflow) Validate(definition models.Definition) (*workflow.Chain, error) {
	return workflow.Validate(definition)
}

// Publish makes a valid workflow accept live enrollments.
func (w *Workflow) Publish(ctx context.Context, workflowID string) (*models.Workflow, error) {
	wf, err := w.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if _, err := workflow.Validate(wf.Definition); err != nil {
		return nil, err
	}

	if wf.IsPublished() {
		return wf, nil
	}

	now := w.now().UTC()
	wf.Status = models.WorkflowStatusPublished
	wf.PublishedAt = &now
	wf.UpdatedAt = now

	if err := w.persistence.WorkflowRepository().Save(ctx, wf); err != nil {
		return nil, fmt.Errorf("failed to publish workflow: %w", err)
	}

	w.chains.Invalidate(workflowID)

	w.logger.InfoContext(ctx, "Workflow published", "workflow_id", wf.ID)

	if w.publisher != nil {
		event := events.WorkflowPublished{
			BaseEvent:    events.NewBaseEvent(events.WorkflowPublishedEvent, wf.ID),
			WorkflowName: wf.Name,
			PublishedAt:  now,
		}

		if err := w.publisher.Publish(ctx, wf.ID, event); err != nil {
			w.logger.ErrorContext(ctx, "Failed to publish workflow event", "workflow_id", wf.ID, "error", err)
		}
	}

	return wf, nil
}
