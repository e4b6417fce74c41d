package persistence_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		t.Parallel()

		workflowErr := persistence.NewWorkflowError("GetByID", "workflow-123", persistence.ErrWorkflowNotFound)
		enrollmentErr := persistence.NewEnrollmentError("AppendSteps", "enrollment-456", persistence.ErrEnrollmentNotFound)
		wrapped := fmt.Errorf("service: %w", persistence.NewEnrollmentError("Get", "e", persistence.ErrScheduleNotFound))

		assert.True(t, persistence.IsWorkflowNotFound(workflowErr))
		assert.True(t, persistence.IsEnrollmentNotFound(enrollmentErr))
		assert.True(t, persistence.IsScheduleNotFound(wrapped))
		assert.False(t, persistence.IsEnrollmentNotFound(workflowErr))

		assert.True(t, errors.Is(workflowErr, persistence.ErrWorkflowNotFound))
		assert.True(t, errors.Is(enrollmentErr, persistence.ErrEnrollmentNotFound))
	})

	t.Run("errors contain context", func(t *testing.T) {
		t.Parallel()

		err := persistence.NewEnrollmentError("AppendSteps", "enrollment-456", persistence.ErrEnrollmentNotFound)

		assert.Contains(t, err.Error(), "AppendSteps")
		assert.Contains(t, err.Error(), "enrollment-456")
		assert.Contains(t, err.Error(), "enrollment not found")
	})
}
