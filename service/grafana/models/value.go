package models

import "encoding/json"

// Helpers over JSON payloads decoded into `any`. Grafana responses carry a
// lot of loosely shaped objects (panel options, targets, transformations),
// so every accessor here is total: wrong shape or missing key yields the
// zero value, never a panic.

func AsMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func AsSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func AsString(v any) string {
	s, _ := v.(string)
	return s
}

// AsNumber reports the numeric value of v. JSON decoding produces float64,
// but values built in code may be plain ints.
func AsNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func GetMap(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	return AsMap(m[key])
}

func GetSlice(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	return AsSlice(m[key])
}

func GetString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	return AsString(m[key])
}
