package file

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/google/uuid"
)

// WorkflowRepository handles workflow-related file operations.
type WorkflowRepository struct {
	store *store
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{store: &store{root: root}}
}

// List returns paginated and filtered workflows with in-memory operations.
func (wr *WorkflowRepository) List(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	allowedSorts := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
	}
	if !allowedSorts[opts.SortBy] {
		return nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, opts.SortBy)
	}

	wr.store.mu.RLock()
	ids, err := wr.store.ids(workflowsDir)
	wr.store.mu.RUnlock()

	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := wr.GetByID(ctx, id)
		if err != nil {
			if persistence.IsWorkflowNotFound(err) {
				continue
			}

			return nil, fmt.Errorf("failed to load workflow %s: %w", id, err)
		}

		if opts.Owner != "" && workflow.Owner != opts.Owner {
			continue
		}

		if opts.Status != nil && workflow.Status != *opts.Status {
			continue
		}

		filtered = append(filtered, workflow)
	}

	sortWorkflows(filtered, opts.SortBy, opts.SortOrder)

	totalCount := int64(len(filtered))

	if opts.Offset >= len(filtered) {
		return &persistence.WorkflowListResult{
			Workflows:  make([]*models.Workflow, 0),
			TotalCount: totalCount,
		}, nil
	}

	end := min(opts.Offset+opts.Limit, len(filtered))

	return &persistence.WorkflowListResult{
		Workflows:   filtered[opts.Offset:end],
		TotalCount:  totalCount,
		HasNextPage: end < len(filtered),
	}, nil
}

func sortWorkflows(workflows []*models.Workflow, sortBy, sortOrder string) {
	sort.SliceStable(workflows, func(i, j int) bool {
		var less bool

		switch sortBy {
		case "name":
			less = workflows[i].Name < workflows[j].Name
		case "updated_at":
			less = workflows[i].UpdatedAt.Before(workflows[j].UpdatedAt)
		default:
			less = workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
		}

		if sortOrder == "desc" {
			return !less
		}

		return less
	})
}

// GetByID returns a live workflow or ErrWorkflowNotFound.
func (wr *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	wr.store.mu.RLock()
	defer wr.store.mu.RUnlock()

	var workflow models.Workflow

	found, err := wr.store.read(workflowsDir, id, &workflow)
	if err != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	if !found || workflow.DeletedAt != nil {
		return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
	}

	return &workflow, nil
}

// Save creates or replaces a workflow, assigning an id and timestamps when missing.
func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	wr.store.mu.Lock()
	defer wr.store.mu.Unlock()

	err := wr.store.write(workflowsDir, workflow.ID, workflow)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

// Delete soft deletes a workflow.
func (wr *WorkflowRepository) Delete(_ context.Context, id string) error {
	wr.store.mu.Lock()
	defer wr.store.mu.Unlock()

	var workflow models.Workflow

	found, err := wr.store.read(workflowsDir, id, &workflow)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	if !found || workflow.DeletedAt != nil {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	now := time.Now().UTC()
	workflow.DeletedAt = &now
	workflow.UpdatedAt = now

	err = wr.store.write(workflowsDir, id, &workflow)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	return nil
}
