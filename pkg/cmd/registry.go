// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jonboulle/clockwork"

	"github.com/autocrm/autocrm/pkg/actions"
	"github.com/autocrm/autocrm/pkg/registry"
)

// NewRegistry returns a registry holding the built-in custom actions.
func NewRegistry(logger *slog.Logger, client *http.Client, clock clockwork.Clock) (*registry.Registry, error) {
	reg := registry.NewRegistry(logger)

	if err := actions.RegisterBuiltins(reg, client, clock, logger); err != nil {
		return nil, fmt.Errorf("failed to register built-in actions: %w", err)
	}

	return reg, nil
}
