// Package config reads run parameters from a JSON file into a loosely
// typed key/value source. Callers pull individual values with typed
// accessors that fall back to a default when a key is missing or carries
// the wrong type, so a sparse file only overrides what it names.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

type Source struct {
	raw map[string]any
}

// Load parses the JSON file at path. A missing file is an error the caller
// may choose to treat as "use defaults".
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &Source{raw: raw}, nil
}

// Empty returns a source with no keys; every accessor yields its default.
func Empty() *Source {
	return &Source{raw: map[string]any{}}
}

func (s *Source) Has(key string) bool {
	_, ok := s.raw[key]
	return ok
}

func (s *Source) Str(key, def string) string {
	if v, ok := s.raw[key].(string); ok {
		return v
	}
	return def
}

func (s *Source) Bool(key string, def bool) bool {
	if v, ok := s.raw[key].(bool); ok {
		return v
	}
	return def
}

func (s *Source) Int(key string, def int) int {
	switch v := s.raw[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

func (s *Source) Int64(key string, def int64) int64 {
	switch v := s.raw[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return def
	}
}

func (s *Source) Float(key string, def float64) float64 {
	switch v := s.raw[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return def
	}
}
