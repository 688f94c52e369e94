package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrUnknownDelayUnit = errors.New("unknown duration unit")
	ErrDelayTooLarge    = errors.New("duration is too large")
)

// StepType discriminates the WorkflowStep union.
type StepType string

const (
	StepTypeCondition    StepType = "condition"
	StepTypeAction       StepType = "action"
	StepTypeDelay        StepType = "delay"
	StepTypeNotification StepType = "notification"
)

// StepConfig is implemented by every step configuration variant.
type StepConfig interface {
	StepType() StepType
}

// WorkflowStep is one node of a workflow graph.
type WorkflowStep struct {
	ID             string     `json:"id"`
	Type           StepType   `json:"type"`
	NextSteps      []string   `json:"nextSteps"`
	AlternateSteps []string   `json:"alternateSteps,omitempty"` // Taken by condition steps evaluating to false
	IsStart        bool       `json:"isStart"`
	Config         StepConfig `json:"config"`
}

// Targets returns every step id this step can hand execution to.
func (s *WorkflowStep) Targets() []string {
	targets := make([]string, 0, len(s.NextSteps)+len(s.AlternateSteps))
	targets = append(targets, s.NextSteps...)
	targets = append(targets, s.AlternateSteps...)

	return targets
}

// HasConfig reports whether the step carries a non-nil configuration variant.
func (s *WorkflowStep) HasConfig() bool {
	switch config := s.Config.(type) {
	case nil:
		return false
	case *ConditionConfig:
		return config != nil
	case *ActionConfig:
		return config != nil
	case *DelayConfig:
		return config != nil
	case *NotificationConfig:
		return config != nil
	case *UnknownConfig:
		return config != nil
	default:
		return true
	}
}

// UnmarshalJSON decodes config into the variant named by type.
func (s *WorkflowStep) UnmarshalJSON(data []byte) error {
	type stepAlias WorkflowStep

	var raw struct {
		stepAlias

		Config json.RawMessage `json:"config"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	step := WorkflowStep(raw.stepAlias)

	config, err := decodeStepConfig(step.Type, raw.Config)
	if err != nil {
		return fmt.Errorf("step %s: %w", step.ID, err)
	}

	step.Config = config
	*s = step

	return nil
}

func decodeStepConfig(stepType StepType, data json.RawMessage) (StepConfig, error) {
	var config StepConfig

	switch stepType {
	case StepTypeCondition:
		config = &ConditionConfig{}
	case StepTypeAction:
		config = &ActionConfig{}
	case StepTypeDelay:
		config = &DelayConfig{}
	case StepTypeNotification:
		config = &NotificationConfig{}
	default:
		return &UnknownConfig{Type: stepType, Raw: data}, nil
	}

	if len(data) == 0 || string(data) == "null" {
		return config, nil
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", stepType, err)
	}

	return config, nil
}

// Operator is a comparison understood by the condition evaluator.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorContains    Operator = "contains"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
)

// Operators lists every supported operator.
var Operators = []Operator{
	OperatorEquals,
	OperatorNotEquals,
	OperatorContains,
	OperatorGreaterThan,
	OperatorLessThan,
}

// IsValid reports whether o is a supported operator.
func (o Operator) IsValid() bool {
	for _, known := range Operators {
		if o == known {
			return true
		}
	}

	return false
}

// ConditionConfig compares a field of the context data against a value.
// When Rule is set it takes precedence over the single field comparison.
type ConditionConfig struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
	Rule     *Rule    `json:"rule,omitempty"`
}

func (ConditionConfig) StepType() StepType { return StepTypeCondition }

// ActionType is the closed set of ticket actions.
type ActionType string

const (
	ActionUpdateTicket ActionType = "update_ticket"
	ActionAssignTicket ActionType = "assign_ticket"
	ActionCloseTicket  ActionType = "close_ticket"
	ActionCustom       ActionType = "custom" // Dispatched to the custom action registry
)

// ActionConfig describes a ticket mutation or a custom action call.
type ActionConfig struct {
	Action ActionType     `json:"action"`
	Field  string         `json:"field,omitempty"`
	Value  any            `json:"value,omitempty"`
	Fields map[string]any `json:"fields,omitempty"` // Multi-field patch for update_ticket
	Custom string         `json:"custom,omitempty"` // Registered custom action name
	Params map[string]any `json:"params,omitempty"`
}

func (ActionConfig) StepType() StepType { return StepTypeAction }

// DelayUnit is the unit of a delay duration.
type DelayUnit string

const (
	DelayUnitSeconds DelayUnit = "seconds"
	DelayUnitMinutes DelayUnit = "minutes"
	DelayUnitHours   DelayUnit = "hours"
	DelayUnitDays    DelayUnit = "days"
)

// DelayConfig suspends an execution for Duration units.
type DelayConfig struct {
	Duration int       `json:"duration"`
	Unit     DelayUnit `json:"unit"`
}

func (DelayConfig) StepType() StepType { return StepTypeDelay }

// UnmarshalJSON accepts the older durationType key as an alias of unit.
func (c *DelayConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		Duration     int       `json:"duration"`
		Unit         DelayUnit `json:"unit"`
		DurationType DelayUnit `json:"durationType"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	c.Duration = raw.Duration

	c.Unit = raw.Unit
	if c.Unit == "" {
		c.Unit = raw.DurationType
	}

	return nil
}

// Wait converts the configured duration into a time.Duration.
func (c DelayConfig) Wait() (time.Duration, error) {
	var unit time.Duration

	switch c.Unit {
	case DelayUnitSeconds:
		unit = time.Second
	case DelayUnitMinutes:
		unit = time.Minute
	case DelayUnitHours:
		unit = time.Hour
	case DelayUnitDays:
		unit = 24 * time.Hour
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownDelayUnit, c.Unit)
	}

	if int64(c.Duration) > math.MaxInt64/int64(unit) {
		return 0, fmt.Errorf("%w: %d %s", ErrDelayTooLarge, c.Duration, c.Unit)
	}

	return time.Duration(c.Duration) * unit, nil
}

// NotificationType selects a notification transport.
type NotificationType string

const (
	NotificationEmail   NotificationType = "email"
	NotificationInApp   NotificationType = "in_app"
	NotificationWebhook NotificationType = "webhook"
)

// NotificationConfig renders Template and sends it to Recipients.
// For webhooks Recipients[0] is the target URL.
type NotificationConfig struct {
	Type       NotificationType `json:"type"`
	Template   string           `json:"template"`
	Recipients []string         `json:"recipients"`
	Data       map[string]any   `json:"data,omitempty"`
}

func (NotificationConfig) StepType() StepType { return StepTypeNotification }

// UnknownConfig keeps the raw config of a step whose type is not supported.
type UnknownConfig struct {
	Type StepType
	Raw  json.RawMessage
}

func (c UnknownConfig) StepType() StepType { return c.Type }

// MarshalJSON writes the raw config back unchanged.
func (c UnknownConfig) MarshalJSON() ([]byte, error) {
	if len(c.Raw) == 0 {
		return []byte("null"), nil
	}

	return c.Raw, nil
}
