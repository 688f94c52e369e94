// Package actions registers the built-in custom actions.
package actions

import (
	"log/slog"
	"net/http"

	"github.com/jonboulle/clockwork"

	"github.com/autocrm/autocrm/pkg/actions/httprequest"
	logaction "github.com/autocrm/autocrm/pkg/actions/log"
	"github.com/autocrm/autocrm/pkg/actions/rule"
	"github.com/autocrm/autocrm/pkg/actions/slack"
	"github.com/autocrm/autocrm/pkg/actions/transform"
	"github.com/autocrm/autocrm/pkg/registry"
)

// RegisterBuiltins adds every built-in custom action to r.
func RegisterBuiltins(r *registry.Registry, client *http.Client, clock clockwork.Clock, logger *slog.Logger) error {
	builtins := []registry.CustomAction{
		rule.CustomAction(),
		httprequest.CustomAction(client, logger),
		slack.CustomAction(client, clock, logger),
		transform.CustomAction(),
		logaction.CustomAction(logger),
	}

	for _, action := range builtins {
		if err := r.Register(action); err != nil {
			return err
		}
	}

	return nil
}
