// Package models defines the core domain models for ticket workflow automation
package models

import "time"

// FailurePolicy decides how far a failed step stops an execution.
type FailurePolicy string

const (
	FailurePolicyHaltBranch FailurePolicy = "haltBranch" // Stop only the failed step's downstream edges
	FailurePolicyHaltAll    FailurePolicy = "haltAll"    // Stop the whole execution
)

// Workflow is a trigger plus a directed graph of steps.
type Workflow struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"                    validate:"required,min=3"`
	Description   string          `json:"description,omitempty"   validate:"max=500"`
	Trigger       WorkflowTrigger `json:"trigger"`
	Steps         []*WorkflowStep `json:"steps"                   validate:"required,min=1"`
	IsActive      bool            `json:"isActive"`
	OnStepFailure FailurePolicy   `json:"onStepFailure,omitempty" validate:"omitempty,oneof=haltBranch haltAll"`
	Owner         string          `json:"owner,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// FailurePolicy returns the configured policy, defaulting to halting only the failed branch.
func (w *Workflow) FailurePolicy() FailurePolicy {
	if w.OnStepFailure == "" {
		return FailurePolicyHaltBranch
	}

	return w.OnStepFailure
}

// StepByID returns the first step with the given id.
func (w *Workflow) StepByID(id string) (*WorkflowStep, bool) {
	for _, step := range w.Steps {
		if step != nil && step.ID == id {
			return step, true
		}
	}

	return nil, false
}

// EntrySteps returns the ids of the steps an execution starts from.
// Steps flagged with isStart win; definitions without any flag fall back to
// the steps that no other step points to.
func (w *Workflow) EntrySteps() []string {
	flagged := make([]string, 0)

	for _, step := range w.Steps {
		if step != nil && step.IsStart {
			flagged = append(flagged, step.ID)
		}
	}

	if len(flagged) > 0 {
		return flagged
	}

	targeted := make(map[string]bool)

	for _, step := range w.Steps {
		if step == nil {
			continue
		}

		for _, target := range step.Targets() {
			targeted[target] = true
		}
	}

	roots := make([]string, 0)
	seen := make(map[string]bool)

	for _, step := range w.Steps {
		if step == nil || targeted[step.ID] || seen[step.ID] {
			continue
		}

		seen[step.ID] = true
		roots = append(roots, step.ID)
	}

	return roots
}
