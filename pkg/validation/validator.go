package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"

	"github.com/autocrm/autocrm/pkg/conditions"
	"github.com/autocrm/autocrm/pkg/models"
)

// ActionLookup reports whether a custom action is registered.
type ActionLookup interface {
	Has(name string) bool
}

type Validator struct {
	structs *validator.Validate
	cron    cron.Parser
	actions ActionLookup
}

type Option func(*Validator)

// WithActions makes the validator reject custom actions that are not registered.
func WithActions(actions ActionLookup) Option {
	return func(v *Validator) {
		v.actions = actions
	}
}

func New(opts ...Option) *Validator {
	v := &Validator{
		structs: validator.New(validator.WithRequiredStructEnabled()),
		cron:    cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

var defaultValidator = New()

// Validate checks w without knowledge of registered custom actions.
func Validate(w *models.Workflow) Result {
	return defaultValidator.Validate(w)
}

// Validate runs every check against w and returns all problems found.
// It never modifies w.
func (v *Validator) Validate(w *models.Workflow) Result {
	c := &collector{}

	if w == nil {
		c.add("workflow", "Workflow is required")

		return c.result()
	}

	v.checkFields(w, c)

	index := checkStepIDs(w, c)
	checkReferences(w, index, c)
	checkCycles(w, index, c)
	checkEntrySteps(w, c)

	for _, step := range w.Steps {
		if step != nil && step.ID != "" {
			v.checkStepConfig(step, c)
		}
	}

	v.checkTrigger(w.Trigger, c)

	return c.result()
}

func (v *Validator) checkFields(w *models.Workflow, c *collector) {
	err := v.structs.Struct(w)

	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		for _, fieldErr := range fieldErrors {
			switch fieldErr.Namespace() {
			case "Workflow.Name":
				if fieldErr.Tag() == "required" {
					c.add("name", "Workflow name is required")
				} else {
					c.add("name", "Workflow name must be at least 3 characters")
				}
			case "Workflow.Description":
				c.add("description", "Description must be less than 500 characters")
			case "Workflow.Trigger.Type":
				c.add("trigger", "Trigger type is required")
			case "Workflow.Steps":
				c.add("steps", "At least one step is required")
			case "Workflow.OnStepFailure":
				c.add("onStepFailure", fmt.Sprintf("Unknown failure policy: %s", w.OnStepFailure))
			default:
				c.add(strings.ToLower(fieldErr.Field()), fieldErr.Error())
			}
		}
	}

	if w.Trigger.Type != "" && !w.Trigger.Type.IsValid() {
		c.add("trigger", fmt.Sprintf("Unknown trigger type: %s", w.Trigger.Type))
	}
}

func stepField(id string) string {
	return "step_" + id
}

// checkStepIDs reports missing and duplicate ids and indexes the first step per id.
func checkStepIDs(w *models.Workflow, c *collector) map[string]*models.WorkflowStep {
	index := make(map[string]*models.WorkflowStep, len(w.Steps))

	for i, step := range w.Steps {
		position := fmt.Sprintf("steps[%d]", i)

		if step == nil {
			c.add(position, "Step is required")

			continue
		}

		if step.ID == "" {
			c.add(position, "Step ID is required")

			continue
		}

		if _, exists := index[step.ID]; exists {
			c.add(stepField(step.ID), "Duplicate step ID: "+step.ID)

			continue
		}

		index[step.ID] = step
	}

	return index
}

func checkReferences(w *models.Workflow, index map[string]*models.WorkflowStep, c *collector) {
	for _, step := range w.Steps {
		if step == nil || step.ID == "" {
			continue
		}

		for _, target := range step.Targets() {
			if _, ok := index[target]; !ok {
				c.add(stepField(step.ID), "Invalid step reference: "+target)
			}
		}
	}
}

const (
	unvisited = iota
	inProgress
	done
)

// checkCycles runs a depth-first search from every step in declaration order and
// reports each back edge. References to unknown steps are skipped.
func checkCycles(w *models.Workflow, index map[string]*models.WorkflowStep, c *collector) {
	state := make(map[string]int, len(index))

	var visit func(step *models.WorkflowStep)

	visit = func(step *models.WorkflowStep) {
		state[step.ID] = inProgress

		for _, target := range step.Targets() {
			next, ok := index[target]
			if !ok {
				continue
			}

			switch state[target] {
			case inProgress:
				c.add("steps", fmt.Sprintf("Cycle detected: %s -> %s", step.ID, target))
			case unvisited:
				visit(next)
			}
		}

		state[step.ID] = done
	}

	for _, step := range w.Steps {
		if step == nil || step.ID == "" || index[step.ID] != step {
			continue
		}

		if state[step.ID] == unvisited {
			visit(step)
		}
	}
}

func checkEntrySteps(w *models.Workflow, c *collector) {
	targetedBy := make(map[string]string)

	for _, step := range w.Steps {
		if step == nil {
			continue
		}

		for _, target := range step.Targets() {
			if _, seen := targetedBy[target]; !seen {
				targetedBy[target] = step.ID
			}
		}
	}

	for _, step := range w.Steps {
		if step == nil || !step.IsStart {
			continue
		}

		if source, ok := targetedBy[step.ID]; ok {
			c.add(stepField(step.ID), fmt.Sprintf("Start step %s is also a target of step %s", step.ID, source))
		}
	}
}

func (v *Validator) checkStepConfig(step *models.WorkflowStep, c *collector) {
	field := stepField(step.ID)

	if step.Type == "" {
		c.add(field, "Step type is required")

		return
	}

	if !step.HasConfig() {
		switch step.Type {
		case models.StepTypeCondition, models.StepTypeAction, models.StepTypeDelay, models.StepTypeNotification:
			c.add(field, "Step configuration is required")
		default:
			c.add(field, fmt.Sprintf("Unknown step type: %s", step.Type))
		}

		return
	}

	switch config := step.Config.(type) {
	case *models.ConditionConfig:
		checkCondition(config, field, c)
	case *models.ActionConfig:
		v.checkAction(config, field, c)
	case *models.DelayConfig:
		checkDelay(config, field, c)
	case *models.NotificationConfig:
		v.checkNotification(config, field, c)
	case *models.UnknownConfig:
		c.add(field, fmt.Sprintf("Unknown step type: %s", step.Type))

		return
	default:
		c.add(field, fmt.Sprintf("Unsupported configuration for step type %s", step.Type))

		return
	}

	if step.Config.StepType() != step.Type {
		c.add(field, fmt.Sprintf("Configuration does not match step type %s", step.Type))
	}
}

func isBlank(value any) bool {
	if value == nil {
		return true
	}

	s, ok := value.(string)

	return ok && strings.TrimSpace(s) == ""
}

func checkCondition(config *models.ConditionConfig, field string, c *collector) {
	if config.Rule != nil {
		if err := conditions.CheckRule(*config.Rule); err != nil {
			c.add(field, "Invalid rule: "+err.Error())
		}

		return
	}

	if config.Field == "" {
		c.add(field, "Field is required")
	}

	switch {
	case config.Operator == "":
		c.add(field, "Operator is required")
	case !config.Operator.IsValid():
		c.add(field, fmt.Sprintf("Unknown operator: %s", config.Operator))
	}

	if isBlank(config.Value) {
		c.add(field, "Value is required")
	}
}

func (v *Validator) checkAction(config *models.ActionConfig, field string, c *collector) {
	switch config.Action {
	case "":
		c.add(field, "Action is required")
	case models.ActionUpdateTicket:
		if len(config.Fields) > 0 {
			return
		}

		if config.Field == "" {
			c.add(field, "Field is required")
		}

		if config.Value == nil {
			c.add(field, "Value is required")
		}
	case models.ActionAssignTicket:
		if isBlank(config.Value) {
			c.add(field, "User ID is required")
		}
	case models.ActionCloseTicket:
	case models.ActionCustom:
		switch {
		case config.Custom == "":
			c.add(field, "Custom action name is required")
		case v.actions != nil && !v.actions.Has(config.Custom):
			c.add(field, "Unknown custom action: "+config.Custom)
		}
	default:
		c.add(field, fmt.Sprintf("Unknown action: %s", config.Action))
	}
}

func checkDelay(config *models.DelayConfig, field string, c *collector) {
	if config.Duration < 1 {
		c.add(field, "Duration must be at least 1")
	}

	if config.Unit == "" {
		c.add(field, "Unit is required")

		return
	}

	_, err := config.Wait()

	switch {
	case errors.Is(err, models.ErrUnknownDelayUnit):
		c.add(field, fmt.Sprintf("Unknown duration unit: %s", config.Unit))
	case errors.Is(err, models.ErrDelayTooLarge):
		c.add(field, "Duration is too large")
	}
}

func (v *Validator) checkNotification(config *models.NotificationConfig, field string, c *collector) {
	switch config.Type {
	case "":
		c.add(field, "Notification type is required")
	case models.NotificationEmail, models.NotificationInApp, models.NotificationWebhook:
	default:
		c.add(field, fmt.Sprintf("Unknown notification type: %s", config.Type))
	}

	if strings.TrimSpace(config.Template) == "" {
		c.add(field, "Template is required")
	}

	if len(config.Recipients) == 0 {
		c.add(field, "At least one recipient is required")

		return
	}

	if config.Type == models.NotificationWebhook {
		if err := v.structs.Var(config.Recipients[0], "http_url"); err != nil {
			c.add(field, "Webhook recipient must be an absolute URL")
		}
	}
}

func (v *Validator) checkTrigger(trigger models.WorkflowTrigger, c *collector) {
	switch trigger.Type {
	case models.TriggerTicketStatusChanged:
		requireCondition(trigger, "fromStatus", "From status is required", c)
		requireCondition(trigger, "toStatus", "To status is required", c)
	case models.TriggerTicketPriorityChanged:
		requireCondition(trigger, "fromPriority", "From priority is required", c)
		requireCondition(trigger, "toPriority", "To priority is required", c)
	case models.TriggerScheduled:
		v.checkSchedule(trigger, c)
	}
}

func requireCondition(trigger models.WorkflowTrigger, key, message string, c *collector) {
	if isBlank(trigger.Condition(key)) {
		c.add("trigger", message)
	}
}

func (v *Validator) checkSchedule(trigger models.WorkflowTrigger, c *collector) {
	scheduleType, _ := trigger.Condition("scheduleType").(string)

	switch scheduleType {
	case "":
		c.add("trigger", "Schedule type is required")
	case models.ScheduleTypeInterval:
		interval, ok := toInt(trigger.Condition("interval"))
		if !ok || interval < 1 {
			c.add("trigger", "Interval must be at least 1")
		}

		switch intervalType, _ := trigger.Condition("intervalType").(string); intervalType {
		case "":
			c.add("trigger", "Interval type is required")
		case "minutes", "hours", "days":
		default:
			c.add("trigger", "Unknown interval type: "+intervalType)
		}
	case models.ScheduleTypeCron:
		expression, _ := trigger.Condition("cron").(string)
		if strings.TrimSpace(expression) == "" {
			c.add("trigger", "Cron expression is required")

			return
		}

		if _, err := v.cron.Parse(expression); err != nil {
			c.add("trigger", "Invalid cron expression: "+err.Error())
		}
	default:
		c.add("trigger", "Unknown schedule type: "+scheduleType)
	}
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), v == float64(int(v))
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(v))

		return i, err == nil
	default:
		return 0, false
	}
}
