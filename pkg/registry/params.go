package registry

// String returns params[key] when it is a string.
func String(params map[string]any, key string) string {
	value, _ := params[key].(string)

	return value
}

// Number returns params[key] as a float64 for any numeric value.
func Number(params map[string]any, key string) (float64, bool) {
	switch v := params[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	default:
		return 0, false
	}
}

// Object returns params[key] when it is a JSON object.
func Object(params map[string]any, key string) map[string]any {
	value, _ := params[key].(map[string]any)

	return value
}
