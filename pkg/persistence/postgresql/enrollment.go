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
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// EnrollmentRepository stores enrollments in one row each and their steps
// in enrollment_steps ordered by seq.
type EnrollmentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewEnrollmentRepository(db *sql.DB, logger *slog.Logger) *EnrollmentRepository {
	return &EnrollmentRepository{db: db, logger: logger}
}

func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate enrollment ID: %w", err)
		}

		enrollment.ID = id.String()
	}

	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}

	enrollment.UpdatedAt = now

	if enrollment.Steps == nil {
		enrollment.Steps = make([]*models.WorkflowExecutionStep, 0)
	}

	leadJSON, err := json.Marshal(enrollment.Lead)
	if err != nil {
		return fmt.Errorf("failed to marshal lead: %w", err)
	}

	optionsJSON, err := json.Marshal(enrollment.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO enrollments (id, workflow_id, lead_data, source, status, options,
			created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		enrollment.ID,
		enrollment.WorkflowID,
		leadJSON,
		string(enrollment.Source),
		string(enrollment.Status),
		optionsJSON,
		enrollment.CreatedAt,
		enrollment.UpdatedAt,
		enrollment.CompletedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return persistence.NewEnrollmentError("Create", enrollment.ID, persistence.ErrEnrollmentAlreadyExists)
		}

		return persistence.NewEnrollmentError("Create", enrollment.ID, err)
	}

	err = insertSteps(ctx, tx, enrollment.ID, 0, enrollment.Steps)
	if err != nil {
		return persistence.NewEnrollmentError("Create", enrollment.ID, err)
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *EnrollmentRepository) GetByID(ctx context.Context, id string) (*models.Enrollment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, workflow_id, lead_data, source, status, options, created_at, updated_at, completed_at
		FROM enrollments
		WHERE id = $1
	`, id)

	enrollment, err := scanEnrollment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewEnrollmentError("GetByID", id, persistence.ErrEnrollmentNotFound)
		}

		return nil, persistence.NewEnrollmentError("GetByID", id, err)
	}

	enrollment.Steps, err = r.loadSteps(ctx, id)
	if err != nil {
		return nil, persistence.NewEnrollmentError("GetByID", id, err)
	}

	return enrollment, nil
}

// ListByWorkflow returns the enrollments of a workflow, newest first.
func (r *EnrollmentRepository) ListByWorkflow(ctx context.Context, workflowID string) ([]*models.Enrollment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, workflow_id, lead_data, source, status, options, created_at, updated_at, completed_at
		FROM enrollments
		WHERE workflow_id = $1
		ORDER BY created_at DESC, id
	`, workflowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query enrollments: %w", err)
	}

	enrollments := make([]*models.Enrollment, 0)

	for rows.Next() {
		enrollment, err := scanEnrollment(rows)
		if err != nil {
			closeRows(ctx, r.logger, rows)

			return nil, fmt.Errorf("failed to scan enrollment: %w", err)
		}

		enrollments = append(enrollments, enrollment)
	}

	err = rows.Err()
	closeRows(ctx, r.logger, rows)

	if err != nil {
		return nil, fmt.Errorf("error iterating enrollments: %w", err)
	}

	for _, enrollment := range enrollments {
		enrollment.Steps, err = r.loadSteps(ctx, enrollment.ID)
		if err != nil {
			return nil, persistence.NewEnrollmentError("ListByWorkflow", enrollment.ID, err)
		}
	}

	return enrollments, nil
}

// AppendSteps locks the enrollment row, inserts the steps after the current
// last seq and updates status in one transaction.
func (r *EnrollmentRepository) AppendSteps(
	ctx context.Context,
	id string,
	steps []*models.WorkflowExecutionStep,
	status models.EnrollmentStatus,
	completedAt *time.Time,
) (*models.Enrollment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var locked string

	err = tx.QueryRowContext(ctx, "SELECT id FROM enrollments WHERE id = $1 FOR UPDATE", id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewEnrollmentError("AppendSteps", id, persistence.ErrEnrollmentNotFound)
		}

		return nil, persistence.NewEnrollmentError("AppendSteps", id, err)
	}

	var lastSeq int

	err = tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM enrollment_steps WHERE enrollment_id = $1", id,
	).Scan(&lastSeq)
	if err != nil {
		return nil, persistence.NewEnrollmentError("AppendSteps", id, err)
	}

	err = insertSteps(ctx, tx, id, lastSeq, steps)
	if err != nil {
		return nil, persistence.NewEnrollmentError("AppendSteps", id, err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE enrollments
		SET status = $2, updated_at = $3, completed_at = COALESCE($4, completed_at)
		WHERE id = $1
	`, id, string(status), time.Now().UTC(), completedAt)
	if err != nil {
		return nil, persistence.NewEnrollmentError("AppendSteps", id, err)
	}

	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *EnrollmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM enrollments WHERE id = $1", id)
	if err != nil {
		return persistence.NewEnrollmentError("Delete", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewEnrollmentError("Delete", id, persistence.ErrEnrollmentNotFound)
	}

	return nil
}

func (r *EnrollmentRepository) loadSteps(ctx context.Context, enrollmentID string) ([]*models.WorkflowExecutionStep, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT node_id, node_type, status, output, error_message, started_at, finished_at
		FROM enrollment_steps
		WHERE enrollment_id = $1
		ORDER BY seq
	`, enrollmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query steps: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	steps := make([]*models.WorkflowExecutionStep, 0)

	for rows.Next() {
		var (
			step       models.WorkflowExecutionStep
			nodeType   string
			status     string
			outputJSON []byte
			errMessage sql.NullString
		)

		err := rows.Scan(&step.NodeID, &nodeType, &status, &outputJSON, &errMessage, &step.StartedAt, &step.FinishedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}

		step.NodeType = models.NodeType(nodeType)
		step.Status = models.StepStatus(status)
		step.Error = errMessage.String

		if len(outputJSON) > 0 {
			err = json.Unmarshal(outputJSON, &step.Output)
			if err != nil {
				return nil, fmt.Errorf("failed to unmarshal step output: %w", err)
			}
		}

		steps = append(steps, &step)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating steps: %w", err)
	}

	return steps, nil
}

func insertSteps(ctx context.Context, tx *sql.Tx, enrollmentID string, afterSeq int, steps []*models.WorkflowExecutionStep) error {
	for i, step := range steps {
		output := step.Output
		if output == nil {
			output = map[string]any{}
		}

		outputJSON, err := json.Marshal(output)
		if err != nil {
			return fmt.Errorf("failed to marshal step output: %w", err)
		}

		var errMessage sql.NullString
		if step.Error != "" {
			errMessage = sql.NullString{String: step.Error, Valid: true}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO enrollment_steps (enrollment_id, seq, node_id, node_type, status, output,
				error_message, started_at, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			enrollmentID,
			afterSeq+i+1,
			step.NodeID,
			string(step.NodeType),
			string(step.Status),
			outputJSON,
			errMessage,
			step.StartedAt,
			step.FinishedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert step %d: %w", afterSeq+i+1, err)
		}
	}

	return nil
}

func scanEnrollment(row rowScanner) (*models.Enrollment, error) {
	var (
		enrollment  models.Enrollment
		leadJSON    []byte
		source      string
		status      string
		optionsJSON []byte
		completedAt sql.NullTime
	)

	err := row.Scan(
		&enrollment.ID,
		&enrollment.WorkflowID,
		&leadJSON,
		&source,
		&status,
		&optionsJSON,
		&enrollment.CreatedAt,
		&enrollment.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	enrollment.Source = models.EnrollmentSource(source)
	enrollment.Status = models.EnrollmentStatus(status)

	err = json.Unmarshal(leadJSON, &enrollment.Lead)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal lead: %w", err)
	}

	err = json.Unmarshal(optionsJSON, &enrollment.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}

	if completedAt.Valid {
		enrollment.CompletedAt = &completedAt.Time
	}

	return &enrollment, nil
}
