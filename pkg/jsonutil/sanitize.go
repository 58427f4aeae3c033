// Package jsonutil provides helpers for producing JSON-safe payloads.
package jsonutil

import "math"

// Sanitize recursively walks a decoded value tree and replaces NaN and
// Infinity float values with nil so the result can be marshaled with
// encoding/json. Maps and slices are rewritten in place where possible.
func Sanitize(v any) any {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case float32:
		f := float64(val)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return val
	case map[string]any:
		for k, elem := range val {
			val[k] = Sanitize(elem)
		}
		return val
	case []map[string]any:
		for _, m := range val {
			Sanitize(m)
		}
		return val
	case []any:
		for i, elem := range val {
			val[i] = Sanitize(elem)
		}
		return val
	default:
		return v
	}
}
