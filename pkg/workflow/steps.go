package workflow

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/autocrm/autocrm/pkg/conditions"
	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/otelhelper"
	"github.com/autocrm/autocrm/pkg/template"
)

// runStep executes one step and returns its result and the steps to follow.
func (e *Engine) runStep(ctx context.Context, step *models.WorkflowStep, wctx models.WorkflowContext) (result models.StepResult, next []string) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.step",
		attribute.String(otelhelper.StepIDKey, step.ID),
		attribute.String(otelhelper.StepTypeKey, string(step.Type)),
	)
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			err := &StepPanicError{StepID: step.ID, Value: r}
			otelhelper.SetError(span, err)

			result = models.StepResult{StepID: step.ID, Success: false, Error: err.Error()}
			next = nil
		}
	}()

	output, next, err := e.dispatch(ctx, step, wctx)
	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.StepIDKey, step.ID))

		return models.StepResult{StepID: step.ID, Success: false, Error: err.Error(), Output: output}, nil
	}

	return models.StepResult{StepID: step.ID, Success: true, Output: output}, next
}

func (e *Engine) dispatch(ctx context.Context, step *models.WorkflowStep, wctx models.WorkflowContext) (map[string]any, []string, error) {
	switch config := step.Config.(type) {
	case *models.ConditionConfig:
		matched, err := conditions.EvaluateCondition(config, wctx.Data)
		if err != nil {
			return nil, nil, err
		}

		if matched {
			return map[string]any{"result": true}, step.NextSteps, nil
		}

		return map[string]any{"result": false}, step.AlternateSteps, nil
	case *models.ActionConfig:
		output, err := e.executeAction(ctx, config, wctx)

		return output, step.NextSteps, err
	case *models.DelayConfig:
		output, err := e.executeDelay(ctx, config)

		return output, step.NextSteps, err
	case *models.NotificationConfig:
		output, err := e.executeNotification(ctx, config, wctx)

		return output, step.NextSteps, err
	default:
		return nil, nil, &UnknownStepTypeError{Type: step.Type}
	}
}

func (e *Engine) executeAction(ctx context.Context, config *models.ActionConfig, wctx models.WorkflowContext) (map[string]any, error) {
	if wctx.TicketID == "" {
		return nil, ErrMissingTicketID
	}

	details := make(map[string]any)
	output := map[string]any{"action": string(config.Action)}

	switch config.Action {
	case models.ActionUpdateTicket, models.ActionAssignTicket, models.ActionCloseTicket:
		if e.tickets == nil {
			return nil, ErrNoTicketMutator
		}
	}

	switch config.Action {
	case models.ActionUpdateTicket:
		if len(config.Fields) > 0 {
			patch, _ := template.RenderValue(config.Fields, wctx.Data).(map[string]any)
			if err := e.tickets.UpdateFields(ctx, wctx.TicketID, patch); err != nil {
				return nil, fmt.Errorf("updating ticket fields: %w", err)
			}

			details["fields"] = patch
		} else {
			value := template.RenderValue(config.Value, wctx.Data)
			if err := e.tickets.UpdateField(ctx, wctx.TicketID, config.Field, value); err != nil {
				return nil, fmt.Errorf("updating ticket field %s: %w", config.Field, err)
			}

			details["field"] = config.Field
			details["value"] = value
		}
	case models.ActionAssignTicket:
		value := template.RenderValue(config.Value, wctx.Data)
		if err := e.tickets.UpdateField(ctx, wctx.TicketID, "assigned_to", value); err != nil {
			return nil, fmt.Errorf("assigning ticket: %w", err)
		}

		details["field"] = "assigned_to"
		details["value"] = value
	case models.ActionCloseTicket:
		if err := e.tickets.UpdateField(ctx, wctx.TicketID, "status", "closed"); err != nil {
			return nil, fmt.Errorf("closing ticket: %w", err)
		}

		details["field"] = "status"
		details["value"] = "closed"
	case models.ActionCustom:
		if e.actions == nil {
			return nil, ErrNoActionRunner
		}

		params, _ := template.RenderValue(config.Params, wctx.Data).(map[string]any)

		actionOutput, err := e.actions.Execute(ctx, config.Custom, params, wctx)
		if err != nil {
			return nil, fmt.Errorf("custom action %s: %w", config.Custom, err)
		}

		details["custom"] = config.Custom
		details["params"] = params
		output["result"] = actionOutput
	default:
		return nil, &UnknownActionError{Action: config.Action}
	}

	for key, value := range details {
		output[key] = value
	}

	if e.tickets != nil {
		entry := models.HistoryEntry{
			Action:    "workflow_" + string(config.Action),
			Details:   details,
			UserID:    wctx.UserID,
			CreatedAt: e.clock.Now(),
		}

		if err := e.tickets.CreateHistoryEntry(ctx, wctx.TicketID, entry); err != nil {
			return output, fmt.Errorf("recording ticket history: %w", err)
		}
	}

	return output, nil
}

func (e *Engine) executeDelay(ctx context.Context, config *models.DelayConfig) (map[string]any, error) {
	wait, err := config.Wait()
	if err != nil {
		return nil, err
	}

	timer := e.clock.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("delay interrupted: %w", ctx.Err())
	case <-timer.Chan():
	}

	return map[string]any{"waited": wait.String()}, nil
}

func (e *Engine) executeNotification(ctx context.Context, config *models.NotificationConfig, wctx models.WorkflowContext) (map[string]any, error) {
	notifier, ok := e.notifiers[config.Type]
	if !ok || notifier == nil {
		return nil, &UnknownNotificationTypeError{Type: config.Type}
	}

	if len(config.Data) > 0 {
		data := make(map[string]any, len(wctx.Data)+len(config.Data))
		for key, value := range wctx.Data {
			data[key] = value
		}

		for key, value := range config.Data {
			data[key] = value
		}

		wctx.Data = data
	}

	message := template.Render(config.Template, wctx.Data)

	recipients := make([]string, 0, len(config.Recipients))
	for _, recipient := range config.Recipients {
		recipients = append(recipients, template.Render(recipient, wctx.Data))
	}

	output := map[string]any{
		"message":    message,
		"recipients": recipients,
		"type":       string(config.Type),
	}

	if err := notifier.Send(ctx, recipients, message, wctx); err != nil {
		return output, fmt.Errorf("sending %s notification: %w", config.Type, err)
	}

	return output, nil
}
