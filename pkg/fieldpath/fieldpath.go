// Package fieldpath resolves dotted paths like "ticket.customer.email" against nested records.
package fieldpath

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Resolve walks record along the dot-separated path. Maps are indexed by key and
// slices by numeric index. It reports false when any level is missing or is not a container.
func Resolve(path string, record map[string]any) (any, bool) {
	if path == "" || record == nil {
		return nil, false
	}

	var current any = record

	for _, segment := range strings.Split(path, ".") {
		next, ok := step(current, segment)
		if !ok {
			return nil, false
		}

		current = next
	}

	return current, true
}

// Lookup is Resolve without the presence flag.
func Lookup(path string, record map[string]any) any {
	value, _ := Resolve(path, record)

	return value
}

func step(current any, segment string) (any, bool) {
	switch container := current.(type) {
	case map[string]any:
		value, ok := container[segment]

		return value, ok
	case map[string]string:
		value, ok := container[segment]

		return value, ok
	case []any:
		return index(len(container), segment, func(i int) any { return container[i] })
	case []string:
		return index(len(container), segment, func(i int) any { return container[i] })
	case []map[string]any:
		return index(len(container), segment, func(i int) any { return container[i] })
	default:
		return nil, false
	}
}

func index(length int, segment string, at func(int) any) (any, bool) {
	i, err := strconv.Atoi(segment)
	if err != nil || i < 0 || i >= length {
		return nil, false
	}

	return at(i), true
}

// String formats a resolved value for comparison and display. Integral floats
// print without decimals, maps and slices are JSON-encoded and nil is empty.
func String(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case map[string]any, map[string]string, []any, []string, []map[string]any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}
