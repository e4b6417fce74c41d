// Package web provides the HTTP handlers and REST endpoints of the engine.
package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/leadflow/pkg/models"
	"github.com/dukex/leadflow/pkg/registry"
	"github.com/dukex/leadflow/pkg/services"
	"github.com/dukex/leadflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflowService   *services.Workflow
	enrollmentService *services.Enrollment
	validator         *validator.Validate
	registry          *registry.Registry
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	enrollmentService *services.Enrollment,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		workflowService:   workflowService,
		enrollmentService: enrollmentService,
		validator:         validator,
		registry:          registry,
	}
}

// Routes mounts every endpoint on router.
func (h *APIHandlers) Routes(router fiber.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/node-types", h.GetNodeTypes)

	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Post("/validate", h.ValidateDefinition)
	w.Get("/:id", h.GetWorkflow)
	w.Patch("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Post("/:id/publish", h.PublishWorkflow)
	w.Get("/:id/enrollments", h.GetWorkflowEnrollments)
	w.Post("/:id/enrollments", h.EnrollLead)

	e := router.Group("/enrollments")
	e.Get("/:id", h.GetEnrollment)
	e.Post("/:id/advance", h.AdvanceEnrollment)
	e.Delete("/:id", h.DeleteEnrollment)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	req, err := h.parseListWorkflowsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.workflowService.ListWorkflows(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":     result.Workflows,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
		"sorting": fiber.Map{
			"sort_by":    req.SortBy,
			"sort_order": req.SortOrder,
		},
	})
}

// parseListWorkflowsRequest reads the pagination, filter and sort query parameters.
func (h *APIHandlers) parseListWorkflowsRequest(c fiber.Ctx) (*services.ListWorkflowsRequest, error) {
	req := &services.ListWorkflowsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	req.Owner = c.Query("owner")

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.WorkflowStatus(statusStr)
		req.Status = &status
	}

	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	return req, nil
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	wf, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(wf)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Leadflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Leadflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	factories := h.registry.NodeFactories()

	nodeTypes := make([]NodeTypeResponse, 0, len(factories))
	for _, factory := range factories {
		nodeTypes = append(nodeTypes, NodeTypeResponse{
			Type:        factory.ID(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	return c.JSON(nodeTypes)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	wf := &models.Workflow{
		Name:        req.Name,
		Description: req.Description,
		Owner:       req.Owner,
	}

	if len(req.Definition) > 0 {
		definition, err := workflow.ParseDefinition(req.Definition)
		if err != nil {
			return definitionError(c, err)
		}

		wf.Definition = definition
	}

	created, err := h.workflowService.Create(c.Context(), wf)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	update := services.UpdateWorkflowRequest{
		Name:        req.Name,
		Description: req.Description,
		Owner:       req.Owner,
	}

	if len(req.Definition) > 0 {
		definition, err := workflow.ParseDefinition(req.Definition)
		if err != nil {
			return definitionError(c, err)
		}

		update.Definition = &definition
	}

	updated, err := h.workflowService.Update(c.Context(), id, update)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	if err := h.workflowService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) PublishWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	published, err := h.workflowService.Publish(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(published)
}

// ValidateDefinition checks a definition without storing it.
func (h *APIHandlers) ValidateDefinition(c fiber.Ctx) error {
	definition, err := workflow.ParseDefinition(c.Body())
	if err != nil {
		return definitionError(c, err)
	}

	chain, err := h.workflowService.Validate(definition)
	if err != nil {
		return definitionError(c, err)
	}

	return c.JSON(ValidationResponse{Valid: true, Chain: chain.NodeIDs()})
}

func (h *APIHandlers) EnrollLead(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req EnrollRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	source := models.EnrollmentSource(req.Source)
	if source == "" {
		source = models.EnrollmentSourceLive
	}

	enrollment, err := h.enrollmentService.Enroll(c.Context(), workflowID, services.EnrollRequest{
		Lead:             req.toLead(),
		Source:           source,
		IgnoreSendWindow: req.Options.IgnoreSendWindow,
		Preview:          req.Options.Preview,
		Overrides:        req.toOverrides(),
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(enrollment)
}

func (h *APIHandlers) GetWorkflowEnrollments(c fiber.Ctx) error {
	workflowID := c.Params("id")
	if workflowID == "" {
		return badRequest(c, "Workflow ID is required")
	}

	enrollments, err := h.enrollmentService.List(c.Context(), workflowID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"enrollments": enrollments,
		"total_count": len(enrollments),
	})
}

func (h *APIHandlers) GetEnrollment(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Enrollment ID is required")
	}

	inspection, err := h.enrollmentService.Inspect(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(inspection)
}

// AdvanceEnrollment runs an enrollment forward. The body is optional.
func (h *APIHandlers) AdvanceEnrollment(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Enrollment ID is required")
	}

	var req AdvanceRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil && !errors.Is(err, io.EOF) {
			return badRequest(c, "Invalid JSON format")
		}
	}

	enrollment, err := h.enrollmentService.Advance(c.Context(), id, services.AdvanceOptions{
		IgnoreSendWindow: req.IgnoreSendWindow,
		SkipWait:         req.SkipWait,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(enrollment)
}

func (h *APIHandlers) DeleteEnrollment(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Enrollment ID is required")
	}

	if err := h.enrollmentService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
