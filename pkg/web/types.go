// Package web provides HTTP request and response types for the workflow API.
package web

import (
	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/registry"
)

// WorkflowRequest is the body for creating, replacing or validating a workflow.
// Graph and trigger rules are checked by the workflow validator, not here.
type WorkflowRequest struct {
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	Trigger       models.WorkflowTrigger `json:"trigger"                 validate:"-"`
	Steps         []*models.WorkflowStep `json:"steps"`
	IsActive      bool                   `json:"isActive"`
	OnStepFailure models.FailurePolicy   `json:"onStepFailure,omitempty" validate:"omitempty,oneof=haltBranch haltAll"`
	Owner         string                 `json:"owner,omitempty"         validate:"max=200"`
}

func (r WorkflowRequest) ToModel() *models.Workflow {
	return &models.Workflow{
		Name:          r.Name,
		Description:   r.Description,
		Trigger:       r.Trigger,
		Steps:         r.Steps,
		IsActive:      r.IsActive,
		OnStepFailure: r.OnStepFailure,
		Owner:         r.Owner,
	}
}

// ExecuteWorkflowRequest runs a stored workflow by hand.
type ExecuteWorkflowRequest struct {
	TicketID string              `json:"ticketId"`
	UserID   string              `json:"userId"            validate:"required"`
	TeamID   string              `json:"teamId,omitempty"`
	Data     map[string]any      `json:"data"`
	Trigger  *models.TriggerData `json:"trigger,omitempty" validate:"-"`
}

func (r ExecuteWorkflowRequest) Context() models.WorkflowContext {
	return models.WorkflowContext{
		UserID:   r.UserID,
		TeamID:   r.TeamID,
		TicketID: r.TicketID,
		Data:     r.Data,
		Trigger:  r.Trigger,
	}
}

// TestWorkflowRequest dry-runs a stored workflow against sample data.
type TestWorkflowRequest struct {
	Data map[string]any `json:"data"`
}

// EventsResponse lists the executions a ticket event started.
type EventsResponse struct {
	Executions []*models.Execution `json:"executions"`
}

// ActionResponse describes a registered custom action.
type ActionResponse struct {
	Name        string                        `json:"name"`
	Description string                        `json:"description"`
	Parameters  map[string]registry.Parameter `json:"parameters"`
	Schema      map[string]any                `json:"schema"`
}

func TransformActionResponse(action registry.CustomAction) ActionResponse {
	return ActionResponse{
		Name:        action.Name,
		Description: action.Description,
		Parameters:  action.Parameters,
		Schema:      action.Schema(),
	}
}
