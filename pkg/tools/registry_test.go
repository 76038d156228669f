package tools

import (
	"context"
	"log/slog"
	"testing"
)

func TestRegistryToolNames(t *testing.T) {
	r := NewRegistry(slog.Default())

	want := map[string]bool{
		"get_version":             false,
		"geocode_address":         false,
		"reverse_geocode":         false,
		"route_fetch":             false,
		"convert_fuel_efficiency": false,
		"estimate_trip_emissions": false,
		"estimate_commute":        false,
	}

	for _, name := range r.GetToolNames() {
		if _, ok := want[name]; !ok {
			t.Errorf("Unexpected tool %q", name)
			continue
		}
		want[name] = true
	}

	for name, seen := range want {
		if !seen {
			t.Errorf("Tool %q not registered", name)
		}
	}
}

func TestRegistryDefinitionsComplete(t *testing.T) {
	r := NewRegistry(slog.Default())

	for _, def := range r.GetToolDefinitions() {
		if def.Name == "" {
			t.Error("Tool definition with empty name")
		}
		if def.Description == "" {
			t.Errorf("Tool %q has no description", def.Name)
		}
		if def.Handler == nil {
			t.Errorf("Tool %q has no handler", def.Name)
		}
		if def.Tool.Name != def.Name {
			t.Errorf("Tool %q definition name mismatch: %q", def.Name, def.Tool.Name)
		}
	}
}

func TestWrapWithTracingPassesThrough(t *testing.T) {
	r := NewRegistry(slog.Default())

	wrapped := r.wrapWithTracing("get_version", HandleGetVersion)
	result, err := wrapped(context.Background(), newRequest("get_version", nil))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	AssertSuccessResult(t, result, "Expected a success result")

	var info VersionInfo
	if err := ParseResultJSON(result, &info); err != nil {
		t.Fatalf("Failed to parse result: %v", err)
	}
	if info.Version == "" {
		t.Error("Expected a version string")
	}
}
