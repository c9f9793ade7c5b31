package config

import (
	"encoding/json"
	"testing"
)

func TestJSONSchema_ReturnsValidJSON(t *testing.T) {
	raw, err := JSONSchema()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(raw) == 0 {
		t.Fatal("expected non-empty schema")
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("expected valid JSON, got error: %v", err)
	}
}

func TestJSONSchema_IsCached(t *testing.T) {
	first, err := JSONSchema()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	second, err := JSONSchema()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if string(first) != string(second) {
		t.Fatal("expected JSONSchema to return the same cached bytes on repeat calls")
	}
}
