package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadTypedAccessors(t *testing.T) {
	src, err := Load(writeConfig(t, `{
		"PopulationSize": 250,
		"CrossoverProbability": 85.5,
		"SelectionType": "Greedy",
		"SteadyState": true,
		"Seed": 12345678901
	}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := src.Int("PopulationSize", 100); got != 250 {
		t.Fatalf("PopulationSize = %d", got)
	}
	if got := src.Float("CrossoverProbability", 90.0); got != 85.5 {
		t.Fatalf("CrossoverProbability = %v", got)
	}
	if got := src.Str("SelectionType", "Tournament"); got != "Greedy" {
		t.Fatalf("SelectionType = %q", got)
	}
	if !src.Bool("SteadyState", false) {
		t.Fatalf("SteadyState not read")
	}
	if got := src.Int64("Seed", 0); got != 12345678901 {
		t.Fatalf("Seed = %d", got)
	}
	if !src.Has("PopulationSize") || src.Has("DemeSize") {
		t.Fatalf("Has misreports keys")
	}
}

func TestAccessorDefaults(t *testing.T) {
	src, err := Load(writeConfig(t, `{"PopulationSize": "oops"}`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	// missing keys and mistyped values both fall back
	if got := src.Int("PopulationSize", 100); got != 100 {
		t.Fatalf("mistyped int = %d", got)
	}
	if got := src.Int("DemeSize", 25); got != 25 {
		t.Fatalf("missing int = %d", got)
	}
	if got := src.Float("TerminationFitness", 1.5); got != 1.5 {
		t.Fatalf("missing float = %v", got)
	}
	if got := src.Str("BaseName", "msx"); got != "msx" {
		t.Fatalf("missing string = %q", got)
	}
	if src.Bool("SteadyState", false) {
		t.Fatalf("missing bool = true")
	}
}

func TestEmptySource(t *testing.T) {
	src := Empty()
	if src.Has("anything") {
		t.Fatalf("empty source has keys")
	}
	if got := src.Int("PopulationSize", 100); got != 100 {
		t.Fatalf("empty source int = %d", got)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatalf("loaded a missing file")
	}
	if _, err := Load(writeConfig(t, `{broken`)); err == nil {
		t.Fatalf("loaded malformed JSON")
	}
}
