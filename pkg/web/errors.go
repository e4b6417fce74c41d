package web

import (
	"errors"

	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/services"
	"github.com/dukex/leadflow/pkg/workflow"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

// validationProblem carries the offending node of a rejected definition.
type validationProblem struct {
	*problems.Problem

	NodeID string `json:"node_id,omitempty"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, problemType, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType(problemType).
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

func definitionError(c fiber.Ctx, err error) error {
	problem := validationProblem{
		Problem: problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("workflow_validation_error").
			WithDetail(err.Error()),
	}

	var validationErr *workflow.ValidationError
	if errors.As(err, &validationErr) {
		problem.Detail = validationErr.Message
		problem.NodeID = validationErr.NodeID
	}

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, workflow.ErrInvalidDefinition), errors.Is(err, workflow.ErrMalformedDefinition):
		return definitionError(c, err)

	case services.IsValidationError(err):
		return badRequest(c, err.Error())

	case services.IsConflictError(err):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("conflict").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case persistence.IsWorkflowNotFound(err):
		return notFound(c, "workflow_not_found", "workflow not found")

	case persistence.IsEnrollmentNotFound(err):
		return notFound(c, "enrollment_not_found", "enrollment not found")

	default:
		return internalError(c, err)
	}
}
