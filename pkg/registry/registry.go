// Package registry holds the named custom actions available to workflow action steps.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/autocrm/autocrm/pkg/models"
)

type registeredAction struct {
	action CustomAction
	schema *gojsonschema.Schema
}

type Registry struct {
	logger  *slog.Logger
	mu      sync.RWMutex
	actions map[string]*registeredAction
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:  logger.With("module", "registry"),
		actions: make(map[string]*registeredAction),
	}
}

// Register adds action. Names are unique, parameter types must be known and
// defaults must match their declared type.
func (r *Registry) Register(action CustomAction) error {
	if action.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidAction)
	}

	if action.Handler == nil {
		return fmt.Errorf("%w: action %q has no handler", ErrInvalidAction, action.Name)
	}

	for name, param := range action.Parameters {
		if !param.Type.IsValid() {
			return fmt.Errorf("%w: parameter %q of action %q has unknown type %q", ErrInvalidAction, name, action.Name, param.Type)
		}

		if param.Default != nil {
			if err := checkDefault(param); err != nil {
				return fmt.Errorf("%w: default of parameter %q of action %q: %w", ErrInvalidAction, name, action.Name, err)
			}
		}
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(action.Schema()))
	if err != nil {
		return fmt.Errorf("%w: action %q: %w", ErrInvalidAction, action.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[action.Name]; exists {
		return fmt.Errorf("%w: %q", ErrActionAlreadyRegistered, action.Name)
	}

	r.actions[action.Name] = &registeredAction{action: action, schema: schema}

	r.logger.Debug("Registered custom action", "action", action.Name)

	return nil
}

// MustRegister is Register for built-in actions known to be valid.
func (r *Registry) MustRegister(actions ...CustomAction) {
	for _, action := range actions {
		if err := r.Register(action); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Get(name string) (CustomAction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	registered, ok := r.actions[name]
	if !ok {
		return CustomAction{}, false
	}

	return registered.action, true
}

func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)

	return ok
}

// List returns the registered actions sorted by name.
func (r *Registry) List() []CustomAction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	actions := make([]CustomAction, 0, len(r.actions))
	for _, registered := range r.actions {
		actions = append(actions, registered.action)
	}

	sort.Slice(actions, func(i, j int) bool {
		return actions[i].Name < actions[j].Name
	})

	return actions
}

// HealthCheck reports how many actions are registered.
func (r *Registry) HealthCheck() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return fmt.Sprintf("%d custom actions registered", len(r.actions)), true
}

// Execute fills defaults, validates params against the action schema and runs it.
// The caller's params map is not modified.
func (r *Registry) Execute(ctx context.Context, name string, params map[string]any, wctx models.WorkflowContext) (any, error) {
	r.mu.RLock()
	registered, ok := r.actions[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrActionNotFound, name)
	}

	resolved := make(map[string]any, len(params))
	for key, value := range params {
		resolved[key] = value
	}

	for key, param := range registered.action.Parameters {
		if _, present := resolved[key]; !present && param.Default != nil {
			resolved[key] = param.Default
		}
	}

	result, err := registered.schema.Validate(gojsonschema.NewGoLoader(resolved))
	if err != nil {
		return nil, fmt.Errorf("validating parameters for action %q: %w", name, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}

		return nil, &ParameterError{Action: name, Errors: problems}
	}

	r.logger.DebugContext(ctx, "Executing custom action", "action", name, "workflow_id", wctx.WorkflowID)

	return registered.action.Handler(ctx, resolved, wctx)
}

func checkDefault(param Parameter) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(map[string]any{"type": string(param.Type)}),
		gojsonschema.NewGoLoader(param.Default),
	)
	if err != nil {
		return err
	}

	if !result.Valid() {
		return fmt.Errorf("expected %s", param.Type)
	}

	return nil
}
