// Package template renders ${path} placeholders against workflow context data.
package template

import (
	"regexp"
	"strings"

	"github.com/autocrm/autocrm/pkg/fieldpath"
)

var placeholder = regexp.MustCompile(`\$\{([^}]+)\}`)

// Render replaces every ${dotted.path} in tpl with the value resolved from data.
// Unresolved placeholders and paths holding null are left as written.
func Render(tpl string, data map[string]any) string {
	if !strings.Contains(tpl, "${") {
		return tpl
	}

	return placeholder.ReplaceAllStringFunc(tpl, func(match string) string {
		path := strings.TrimSpace(match[2 : len(match)-1])

		value, ok := fieldpath.Resolve(path, data)
		if !ok || value == nil {
			return match
		}

		return fieldpath.String(value)
	})
}

// RenderValue renders every string found in value, descending into maps and slices.
// Other values are returned unchanged.
func RenderValue(value any, data map[string]any) any {
	switch v := value.(type) {
	case string:
		return Render(v, data)
	case map[string]any:
		rendered := make(map[string]any, len(v))
		for key, item := range v {
			rendered[key] = RenderValue(item, data)
		}

		return rendered
	case []any:
		rendered := make([]any, len(v))
		for i, item := range v {
			rendered[i] = RenderValue(item, data)
		}

		return rendered
	case []string:
		rendered := make([]string, len(v))
		for i, item := range v {
			rendered[i] = Render(item, data)
		}

		return rendered
	default:
		return value
	}
}
