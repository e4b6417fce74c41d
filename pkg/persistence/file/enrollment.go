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

// EnrollmentRepository stores each enrollment with its full step history in one file.
type EnrollmentRepository struct {
	store *store
}

func (er *EnrollmentRepository) Create(_ context.Context, enrollment *models.Enrollment) error {
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

	er.store.mu.Lock()
	defer er.store.mu.Unlock()

	var existing models.Enrollment

	found, err := er.store.read(enrollmentsDir, enrollment.ID, &existing)
	if err != nil {
		return persistence.NewEnrollmentError("Create", enrollment.ID, err)
	}

	if found {
		return persistence.NewEnrollmentError("Create", enrollment.ID, persistence.ErrEnrollmentAlreadyExists)
	}

	err = er.store.write(enrollmentsDir, enrollment.ID, enrollment)
	if err != nil {
		return persistence.NewEnrollmentError("Create", enrollment.ID, err)
	}

	return nil
}

func (er *EnrollmentRepository) GetByID(_ context.Context, id string) (*models.Enrollment, error) {
	er.store.mu.RLock()
	defer er.store.mu.RUnlock()

	return er.get("GetByID", id)
}

func (er *EnrollmentRepository) get(op, id string) (*models.Enrollment, error) {
	var enrollment models.Enrollment

	found, err := er.store.read(enrollmentsDir, id, &enrollment)
	if err != nil {
		return nil, persistence.NewEnrollmentError(op, id, err)
	}

	if !found {
		return nil, persistence.NewEnrollmentError(op, id, persistence.ErrEnrollmentNotFound)
	}

	return &enrollment, nil
}

// ListByWorkflow returns the enrollments of a workflow, newest first.
func (er *EnrollmentRepository) ListByWorkflow(_ context.Context, workflowID string) ([]*models.Enrollment, error) {
	er.store.mu.RLock()
	defer er.store.mu.RUnlock()

	ids, err := er.store.ids(enrollmentsDir)
	if err != nil {
		return nil, err
	}

	enrollments := make([]*models.Enrollment, 0)

	for _, id := range ids {
		enrollment, err := er.get("ListByWorkflow", id)
		if err != nil {
			if persistence.IsEnrollmentNotFound(err) {
				continue
			}

			return nil, err
		}

		if enrollment.WorkflowID == workflowID {
			enrollments = append(enrollments, enrollment)
		}
	}

	sort.SliceStable(enrollments, func(i, j int) bool {
		return enrollments[i].CreatedAt.After(enrollments[j].CreatedAt)
	})

	return enrollments, nil
}

// AppendSteps rewrites the enrollment file once with the new steps and status.
func (er *EnrollmentRepository) AppendSteps(
	_ context.Context,
	id string,
	steps []*models.WorkflowExecutionStep,
	status models.EnrollmentStatus,
	completedAt *time.Time,
) (*models.Enrollment, error) {
	er.store.mu.Lock()
	defer er.store.mu.Unlock()

	enrollment, err := er.get("AppendSteps", id)
	if err != nil {
		return nil, err
	}

	enrollment.Steps = append(enrollment.Steps, steps...)
	enrollment.Status = status
	enrollment.UpdatedAt = time.Now().UTC()

	if completedAt != nil {
		enrollment.CompletedAt = completedAt
	}

	err = er.store.write(enrollmentsDir, id, enrollment)
	if err != nil {
		return nil, persistence.NewEnrollmentError("AppendSteps", id, err)
	}

	return enrollment, nil
}

func (er *EnrollmentRepository) Delete(_ context.Context, id string) error {
	er.store.mu.Lock()
	defer er.store.mu.Unlock()

	found, err := er.store.remove(enrollmentsDir, id)
	if err != nil {
		return persistence.NewEnrollmentError("Delete", id, err)
	}

	if !found {
		return persistence.NewEnrollmentError("Delete", id, persistence.ErrEnrollmentNotFound)
	}

	return nil
}
