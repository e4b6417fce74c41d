package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/google/uuid"
)

const workflowColumns = `
	id
  , name
  , description
  , status
  , definition
  , owner
  , created_at
  , updated_at
  , published_at
  , deleted_at`

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

// buildListQuery assembles the listing query. Sort columns come from an
// allowlist and are never taken from input verbatim.
func (r *WorkflowRepository) buildListQuery(opts persistence.ListWorkflowsOptions) (string, []any, error) {
	sortColumns := map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"name":       "name",
	}

	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}

	column, ok := sortColumns[sortBy]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, opts.SortBy)
	}

	order := "DESC"
	if opts.SortOrder == "asc" {
		order = "ASC"
	}

	args := make([]any, 0, 4)
	query := "SELECT " + workflowColumns + ", COUNT(*) OVER() FROM workflows WHERE deleted_at IS NULL"

	if opts.Owner != "" {
		args = append(args, opts.Owner)
		query += fmt.Sprintf(" AND owner = $%d", len(args))
	}

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	limit := opts.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	args = append(args, limit, max(opts.Offset, 0))
	query += fmt.Sprintf(" ORDER BY %s %s, id LIMIT $%d OFFSET $%d", column, order, len(args)-1, len(args))

	return query, args, nil
}

// List returns paginated and filtered workflows.
func (r *WorkflowRepository) List(ctx context.Context, opts persistence.ListWorkflowsOptions) (*persistence.WorkflowListResult, error) {
	query, args, err := r.buildListQuery(opts)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	result := &persistence.WorkflowListResult{Workflows: make([]*models.Workflow, 0)}

	for rows.Next() {
		var total int64

		workflow, err := scanWorkflow(rows, &total)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		result.TotalCount = total
		result.Workflows = append(result.Workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	if len(result.Workflows) == 0 && opts.Offset > 0 {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM workflows WHERE deleted_at IS NULL").Scan(&result.TotalCount)
		if err != nil {
			return nil, fmt.Errorf("failed to count workflows: %w", err)
		}
	}

	result.HasNextPage = int64(max(opts.Offset, 0)+len(result.Workflows)) < result.TotalCount

	return result, nil
}

func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := "SELECT " + workflowColumns + " FROM workflows WHERE id = $1 AND deleted_at IS NULL"

	workflow, err := scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByID", id, persistence.ErrWorkflowNotFound)
		}

		return nil, persistence.NewWorkflowError("GetByID", id, err)
	}

	return workflow, nil
}

// Save saves a workflow to the database.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	definitionJSON, err := json.Marshal(workflow.Definition)
	if err != nil {
		return fmt.Errorf("failed to marshal definition: %w", err)
	}

	query := `
		INSERT INTO workflows (id, name, description, status, definition, owner,
			created_at, updated_at, published_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			definition = EXCLUDED.definition,
			owner = EXCLUDED.owner,
			updated_at = EXCLUDED.updated_at,
			published_at = EXCLUDED.published_at,
			deleted_at = EXCLUDED.deleted_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.Name,
		workflow.Description,
		string(workflow.Status),
		definitionJSON,
		workflow.Owner,
		workflow.CreatedAt,
		workflow.UpdatedAt,
		workflow.PublishedAt,
		workflow.DeletedAt,
	)
	if err != nil {
		return persistence.NewWorkflowError("Save", workflow.ID, err)
	}

	return nil
}

// Delete soft deletes a workflow by setting deleted_at timestamp.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE workflows SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return persistence.NewWorkflowError("Delete", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewWorkflowError("Delete", id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func scanWorkflow(row rowScanner, extra ...any) (*models.Workflow, error) {
	var (
		workflow       models.Workflow
		status         string
		definitionJSON []byte
		owner          sql.NullString
		publishedAt    sql.NullTime
		deletedAt      sql.NullTime
	)

	dest := []any{
		&workflow.ID,
		&workflow.Name,
		&workflow.Description,
		&status,
		&definitionJSON,
		&owner,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
		&publishedAt,
		&deletedAt,
	}

	err := row.Scan(append(dest, extra...)...)
	if err != nil {
		return nil, err
	}

	workflow.Status = models.WorkflowStatus(status)
	workflow.Owner = owner.String

	if len(definitionJSON) > 0 {
		err = json.Unmarshal(definitionJSON, &workflow.Definition)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal definition: %w", err)
		}
	}

	if publishedAt.Valid {
		workflow.PublishedAt = &publishedAt.Time
	}

	if deletedAt.Valid {
		workflow.DeletedAt = &deletedAt.Time
	}

	return &workflow, nil
}
