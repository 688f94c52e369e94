// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/autocrm/autocrm/pkg/eventbus"
	"github.com/autocrm/autocrm/pkg/events"
	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/registry"
	"github.com/autocrm/autocrm/pkg/services"
	"github.com/autocrm/autocrm/pkg/suggestions"
)

var errInvalidJSON = errors.New("invalid JSON format")

type APIHandlers struct {
	workflowService *services.Workflow
	validator       *validator.Validate
	registry        *registry.Registry
	publisher       eventbus.EventPublisher
	logger          *slog.Logger
}

// NewAPIHandlers wires the handlers. With a non-nil publisher, POST /events
// is queued for the worker instead of being dispatched in the request.
func NewAPIHandlers(
	workflowService *services.Workflow,
	validator *validator.Validate,
	registry *registry.Registry,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		validator:       validator,
		registry:        registry,
		publisher:       publisher,
		logger:          logger.With("module", "api"),
	}
}

// RegisterRoutes mounts every endpoint on router.
func (h *APIHandlers) RegisterRoutes(router fiber.Router) {
	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Post("/validate", h.ValidateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Put("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Post("/:id/execute", h.ExecuteWorkflow)
	w.Post("/:id/test", h.TestWorkflow)
	w.Get("/:id/executions", h.GetExecutions)

	router.Get("/executions/:id", h.GetExecution)
	router.Post("/events", h.IngestEvent)

	s := router.Group("/suggestions")
	s.Get("/fields", h.FieldSuggestions)
	s.Get("/operators", h.OperatorSuggestions)
	s.Get("/values", h.ValueSuggestions)

	router.Get("/actions", h.GetActions)
	router.Get("/health", h.HealthCheck)
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	workflows, err := h.workflowService.List(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflows)
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

// bindWorkflow decodes the request body. The error text is the problem detail.
func (h *APIHandlers) bindWorkflow(c fiber.Ctx) (*models.Workflow, error) {
	var req WorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return nil, errInvalidJSON
	}

	if err := h.validator.Struct(req); err != nil {
		return nil, err
	}

	return req.ToModel(), nil
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	workflow, err := h.bindWorkflow(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.workflowService.Create(c.Context(), workflow)
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

	workflow, err := h.bindWorkflow(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflowService.Update(c.Context(), id, workflow)
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

// ValidateWorkflow reports every problem in a definition without saving it.
func (h *APIHandlers) ValidateWorkflow(c fiber.Ctx) error {
	workflow, err := h.bindWorkflow(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(h.workflowService.Validate(workflow))
}

func (h *APIHandlers) ExecuteWorkflow(c fiber.Ctx) error {
	var req ExecuteWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, errInvalidJSON.Error())
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	execution, err := h.workflowService.Execute(c.Context(), c.Params("id"), req.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) TestWorkflow(c fiber.Ctx) error {
	var req TestWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, errInvalidJSON.Error())
	}

	result, err := h.workflowService.Test(c.Context(), c.Params("id"), req.Data)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	limit := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "Invalid query parameters: "+err.Error())
		}

		limit = parsed
	}

	executions, err := h.workflowService.Executions(c.Context(), c.Params("id"), limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(executions)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	execution, err := h.workflowService.Execution(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

// IngestEvent accepts a ticket lifecycle event from the CRM.
func (h *APIHandlers) IngestEvent(c fiber.Ctx) error {
	var event models.TicketEvent
	if err := c.Bind().JSON(&event); err != nil {
		return badRequest(c, errInvalidJSON.Error())
	}

	if err := h.validator.Struct(event); err != nil {
		return badRequest(c, err.Error())
	}

	if !event.Type.IsValid() {
		return badRequest(c, "Unsupported event type: "+string(event.Type))
	}

	if h.publisher != nil {
		received := events.TicketEventReceived{
			BaseEvent: events.NewBaseEvent(events.TicketEventReceivedEvent, ""),
			Event:     event,
		}

		if err := h.publisher.Publish(c.Context(), event.TicketID, received); err != nil {
			return internalError(c, err)
		}

		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"id": received.ID})
	}

	executions, err := h.workflowService.HandleEvent(c.Context(), event)
	if err != nil {
		h.logger.ErrorContext(c.Context(), "Failed to handle ticket event", "ticket_id", event.TicketID, "error", err)

		if len(executions) == 0 {
			return handleServiceError(c, err)
		}
	}

	return c.JSON(EventsResponse{Executions: executions})
}

func (h *APIHandlers) FieldSuggestions(c fiber.Ctx) error {
	trigger := models.TriggerType(c.Query("trigger", string(models.TriggerTicketCreated)))

	return c.JSON(suggestions.FieldSuggestions(trigger, c.Query("q")))
}

func (h *APIHandlers) OperatorSuggestions(c fiber.Ctx) error {
	return c.JSON(suggestions.OperatorSuggestions(suggestions.FieldType(c.Query("type", string(suggestions.FieldString)))))
}

func (h *APIHandlers) ValueSuggestions(c fiber.Ctx) error {
	path := c.Query("field")
	if path == "" {
		return badRequest(c, "field query parameter is required")
	}

	field, ok := suggestions.LookupField(path)
	if !ok {
		field = suggestions.Field{Path: path, Type: suggestions.FieldType(c.Query("type", string(suggestions.FieldString)))}
	}

	return c.JSON(suggestions.ValueSuggestions(field, models.Operator(c.Query("operator", string(models.OperatorEquals)))))
}

func (h *APIHandlers) GetActions(c fiber.Ctx) error {
	actions := h.registry.List()

	response := make([]ActionResponse, 0, len(actions))
	for _, action := range actions {
		response = append(response, TransformActionResponse(action))
	}

	return c.JSON(response)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "AutoCRM API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "AutoCRM API is healthy"
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
