package jsonutil

import (
	"encoding/json"
	"math"
	"testing"
)

func TestSanitize_ReplacesNonFiniteFloats(t *testing.T) {
	payload := map[string]any{
		"ok":   1.5,
		"nan":  math.NaN(),
		"inf":  math.Inf(1),
		"ninf": math.Inf(-1),
	}

	Sanitize(payload)

	if payload["ok"] != 1.5 {
		t.Errorf("finite value should survive, got %v", payload["ok"])
	}
	for _, key := range []string{"nan", "inf", "ninf"} {
		if payload[key] != nil {
			t.Errorf("expected %s to be nil, got %v", key, payload[key])
		}
	}
}

func TestSanitize_WalksNestedStructures(t *testing.T) {
	payload := map[string]any{
		"results": map[string]any{
			"rows": []map[string]any{
				{"Address": "http://example.com", "Word Count": math.NaN()},
			},
			"values": []any{math.Inf(1), "text", 3.0},
		},
	}

	Sanitize(payload)

	if _, err := json.Marshal(payload); err != nil {
		t.Fatalf("sanitized payload should marshal cleanly: %v", err)
	}

	rows := payload["results"].(map[string]any)["rows"].([]map[string]any)
	if rows[0]["Word Count"] != nil {
		t.Errorf("expected nested NaN to be nil, got %v", rows[0]["Word Count"])
	}

	values := payload["results"].(map[string]any)["values"].([]any)
	if values[0] != nil || values[1] != "text" || values[2] != 3.0 {
		t.Errorf("unexpected slice after sanitize: %v", values)
	}
}

func TestSanitize_LeavesOtherTypesAlone(t *testing.T) {
	if got := Sanitize("hello"); got != "hello" {
		t.Errorf("string should pass through, got %v", got)
	}
	if got := Sanitize(42); got != 42 {
		t.Errorf("int should pass through, got %v", got)
	}
	if got := Sanitize(nil); got != nil {
		t.Errorf("nil should pass through, got %v", got)
	}
}
