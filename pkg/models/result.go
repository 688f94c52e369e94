package models

import "time"

// StepResult is the outcome of one step invocation.
type StepResult struct {
	StepID  string         `json:"stepId"`
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Output  map[string]any `json:"output,omitempty"`
}

// WorkflowResult is the outcome of one execution. StepResults are in completion order.
type WorkflowResult struct {
	Success     bool         `json:"success"`
	StepResults []StepResult `json:"stepResults"`
	Error       string       `json:"error,omitempty"`
}

// FailedSteps returns the results of the steps that did not succeed.
func (r WorkflowResult) FailedSteps() []StepResult {
	failed := make([]StepResult, 0)

	for _, result := range r.StepResults {
		if !result.Success {
			failed = append(failed, result)
		}
	}

	return failed
}

// Execution is the persisted log of a workflow execution.
type Execution struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflowId"`
	TicketID    string          `json:"ticketId,omitempty"`
	TriggerType TriggerType     `json:"triggerType,omitempty"`
	Success     bool            `json:"success"`
	Error       string          `json:"error,omitempty"`
	StepResults []StepResult    `json:"stepResults"`
	Context     WorkflowContext `json:"context"`
	StartedAt   time.Time       `json:"startedAt"`
	FinishedAt  time.Time       `json:"finishedAt"`
}

// NewExecution records result for the execution that ran against wctx.
func NewExecution(id string, wctx WorkflowContext, result WorkflowResult, startedAt, finishedAt time.Time) *Execution {
	execution := &Execution{
		ID:          id,
		WorkflowID:  wctx.WorkflowID,
		TicketID:    wctx.TicketID,
		Success:     result.Success,
		Error:       result.Error,
		StepResults: result.StepResults,
		Context:     wctx,
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
	}

	if wctx.Trigger != nil {
		execution.TriggerType = wctx.Trigger.Type
	}

	return execution
}
