// Package services orchestrates workflows and enrollments on top of the
// engine, persistence and resume scheduler.
package services

import (
	"errors"
	"fmt"

	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/workflow"
)

var (
	ErrWorkflowNotFound   = persistence.ErrWorkflowNotFound
	ErrEnrollmentNotFound = persistence.ErrEnrollmentNotFound
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInvalidSortField     = errors.New("invalid sort field")
	ErrInvalidSortOrder     = errors.New("invalid sort order")
	ErrInvalidStatus        = errors.New("invalid workflow status")
	ErrWorkflowNameRequired = errors.New("workflow name is required")
	ErrWorkflowNil          = errors.New("workflow cannot be nil")
	ErrLeadUnreachable      = errors.New("lead must have an email or a phone")
	ErrInvalidSource        = errors.New("invalid enrollment source")
	ErrInvalidChannel       = errors.New("invalid channel override")
	ErrPreviewNotAllowed    = errors.New("preview is only available for manual-test enrollments")

	// Business Logic Conflicts (409 Conflict).
	ErrWorkflowNotPublished = errors.New("workflow must be published to enroll live leads")
	ErrDefinitionChanged    = errors.New("enrollment history does not match the current workflow definition")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidSortOrder) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrWorkflowNameRequired) ||
		errors.Is(err, ErrWorkflowNil) ||
		errors.Is(err, ErrLeadUnreachable) ||
		errors.Is(err, ErrInvalidSource) ||
		errors.Is(err, ErrInvalidChannel) ||
		errors.Is(err, ErrPreviewNotAllowed) ||
		errors.Is(err, workflow.ErrInvalidDefinition) ||
		errors.Is(err, workflow.ErrMalformedDefinition)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrWorkflowNotPublished) ||
		errors.Is(err, ErrDefinitionChanged) ||
		errors.Is(err, persistence.ErrEnrollmentAlreadyExists)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound) || errors.Is(err, ErrEnrollmentNotFound)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
