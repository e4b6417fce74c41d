package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/persistence"
)

const scheduleColumns = "enrollment_id, workflow_id, node_id, reason, attempt, due_at, created_at"

// ScheduleRepository stores resume schedules keyed by enrollment.
type ScheduleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewScheduleRepository(db *sql.DB, logger *slog.Logger) *ScheduleRepository {
	return &ScheduleRepository{db: db, logger: logger}
}

func (r *ScheduleRepository) Upsert(ctx context.Context, schedule *models.ResumeSchedule) error {
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO resume_schedules (`+scheduleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (enrollment_id) DO UPDATE SET
			workflow_id = EXCLUDED.workflow_id,
			node_id = EXCLUDED.node_id,
			reason = EXCLUDED.reason,
			attempt = EXCLUDED.attempt,
			due_at = EXCLUDED.due_at,
			created_at = EXCLUDED.created_at
	`,
		schedule.EnrollmentID,
		schedule.WorkflowID,
		schedule.NodeID,
		string(schedule.Reason),
		schedule.Attempt,
		schedule.DueAt,
		schedule.CreatedAt,
	)
	if err != nil {
		return persistence.NewEnrollmentError("UpsertSchedule", schedule.EnrollmentID, err)
	}

	return nil
}

func (r *ScheduleRepository) Get(ctx context.Context, enrollmentID string) (*models.ResumeSchedule, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+scheduleColumns+" FROM resume_schedules WHERE enrollment_id = $1", enrollmentID)

	schedule, err := scanSchedule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewEnrollmentError("GetSchedule", enrollmentID, persistence.ErrScheduleNotFound)
		}

		return nil, persistence.NewEnrollmentError("GetSchedule", enrollmentID, err)
	}

	return schedule, nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, enrollmentID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM resume_schedules WHERE enrollment_id = $1", enrollmentID)
	if err != nil {
		return persistence.NewEnrollmentError("DeleteSchedule", enrollmentID, err)
	}

	return nil
}

func (r *ScheduleRepository) List(ctx context.Context) ([]*models.ResumeSchedule, error) {
	return r.query(ctx, "SELECT "+scheduleColumns+" FROM resume_schedules ORDER BY due_at, enrollment_id")
}

func (r *ScheduleRepository) Due(ctx context.Context, now time.Time) ([]*models.ResumeSchedule, error) {
	return r.query(ctx,
		"SELECT "+scheduleColumns+" FROM resume_schedules WHERE due_at <= $1 ORDER BY due_at, enrollment_id", now)
}

func (r *ScheduleRepository) query(ctx context.Context, query string, args ...any) ([]*models.ResumeSchedule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query resume schedules: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	schedules := make([]*models.ResumeSchedule, 0)

	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resume schedule: %w", err)
		}

		schedules = append(schedules, schedule)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating resume schedules: %w", err)
	}

	return schedules, nil
}

func scanSchedule(row rowScanner) (*models.ResumeSchedule, error) {
	var (
		schedule models.ResumeSchedule
		reason   string
	)

	err := row.Scan(
		&schedule.EnrollmentID,
		&schedule.WorkflowID,
		&schedule.NodeID,
		&reason,
		&schedule.Attempt,
		&schedule.DueAt,
		&schedule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	schedule.Reason = models.ResumeReason(reason)

	return &schedule, nil
}
