// Package transform provides the transform_data custom action, which reshapes
// data through a template object whose "$.path" strings are resolved against a source record.
package transform

import (
	"context"
	"strings"
	"time"

	"github.com/autocrm/autocrm/pkg/fieldpath"
	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/registry"
)

const (
	Name = "transform_data"

	pathPrefix = "$."
	isoLayout  = "2006-01-02T15:04:05.000Z07:00"
)

// Options tunes how missing paths and timestamps are rendered.
type Options struct {
	NullIfMissing bool
	DateFormat    string
}

// Transform builds a new object from tpl. String values prefixed with "$."
// are paths into source; nested objects are transformed recursively.
func Transform(tpl, source map[string]any, opts Options) map[string]any {
	result := make(map[string]any, len(tpl))

	for key, value := range tpl {
		switch v := value.(type) {
		case string:
			if !strings.HasPrefix(v, pathPrefix) {
				result[key] = v

				continue
			}

			resolved, ok := fieldpath.Resolve(strings.TrimPrefix(v, pathPrefix), source)
			if !ok {
				if opts.NullIfMissing {
					result[key] = nil
				}

				continue
			}

			result[key] = formatDate(resolved, opts)
		case map[string]any:
			result[key] = Transform(v, source, opts)
		default:
			result[key] = v
		}
	}

	return result
}

func formatDate(value any, opts Options) any {
	s, ok := value.(string)
	if !ok || opts.DateFormat != "ISO" {
		return value
	}

	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return value
	}

	return parsed.UTC().Format(isoLayout)
}

func parseOptions(raw map[string]any) Options {
	opts := Options{NullIfMissing: true, DateFormat: "ISO"}

	if value, ok := raw["nullIfMissing"].(bool); ok {
		opts.NullIfMissing = value
	}

	if value, ok := raw["dateFormat"].(string); ok {
		opts.DateFormat = value
	}

	return opts
}

// CustomAction transforms the data parameter, or the workflow context data when it is omitted.
func CustomAction() registry.CustomAction {
	return registry.CustomAction{
		Name:        Name,
		Description: "Transform data using a template and path expressions",
		Parameters: map[string]registry.Parameter{
			"template": {Type: registry.ParameterObject, Description: "Template object with path expressions", Required: true},
			"data":     {Type: registry.ParameterObject, Description: "Source data to transform; defaults to the ticket data"},
			"options": {
				Type:        registry.ParameterObject,
				Description: "Transformation options",
				Default:     map[string]any{"nullIfMissing": true, "dateFormat": "ISO"},
			},
		},
		Handler: func(_ context.Context, params map[string]any, wctx models.WorkflowContext) (any, error) {
			source := registry.Object(params, "data")
			if source == nil {
				source = wctx.Data
			}

			return Transform(registry.Object(params, "template"), source, parseOptions(registry.Object(params, "options"))), nil
		},
	}
}
