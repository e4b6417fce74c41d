// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrEnrollmentNotFound indicates an enrollment was not found by the given identifier.
	ErrEnrollmentNotFound = errors.New("enrollment not found")

	// ErrEnrollmentAlreadyExists indicates an enrollment with the same identifier already exists.
	ErrEnrollmentAlreadyExists = errors.New("enrollment already exists")

	// ErrScheduleNotFound indicates no resume schedule exists for the enrollment.
	ErrScheduleNotFound = errors.New("resume schedule not found")

	// ErrInvalidSortField indicates a listing was requested with an unsupported sort field.
	ErrInvalidSortField = errors.New("invalid sort field")
)

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op         string // Operation being performed (e.g., "GetByID", "Save", "Delete")
	WorkflowID string
	Err        error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, workflowID string, err error) *WorkflowError {
	return &WorkflowError{Op: op, WorkflowID: workflowID, Err: err}
}

// EnrollmentError wraps enrollment and schedule errors with additional context.
type EnrollmentError struct {
	Op           string
	EnrollmentID string
	Err          error
}

func (e *EnrollmentError) Error() string {
	return fmt.Sprintf("%s operation failed for enrollment %s: %v", e.Op, e.EnrollmentID, e.Err)
}

func (e *EnrollmentError) Unwrap() error {
	return e.Err
}

func NewEnrollmentError(op, enrollmentID string, err error) *EnrollmentError {
	return &EnrollmentError{Op: op, EnrollmentID: enrollmentID, Err: err}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsEnrollmentNotFound checks if an error indicates an enrollment was not found.
func IsEnrollmentNotFound(err error) bool {
	return errors.Is(err, ErrEnrollmentNotFound)
}

func IsScheduleNotFound(err error) bool {
	return errors.Is(err, ErrScheduleNotFound)
}

func IsInvalidSortField(err error) bool {
	return errors.Is(err, ErrInvalidSortField)
}
