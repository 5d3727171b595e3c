// Package storage archives finished runs: one record per run plus the
// per-generation statistics rows behind it. Backends share a JSON payload
// codec with schema/codec version checks.
package storage

import "context"

// VersionedRecord stamps every archived payload so a backend can refuse
// records written by an incompatible build.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord summarizes one completed run.
type RunRecord struct {
	VersionedRecord
	ID             string  `json:"id"`
	BaseName       string  `json:"base_name"`
	Seed           int64   `json:"seed"`
	StartedAt      string  `json:"started_at"`
	Generations    int     `json:"generations"`
	BestFitness    float64 `json:"best_fitness"`
	BestExpression string  `json:"best_expression"`
	GoodRun        bool    `json:"good_run"`
}

// GenerationRecord is one statistics line of a run.
type GenerationRecord struct {
	Generation   int     `json:"generation"`
	BestFitness  float64 `json:"best_fitness"`
	AvgFitness   float64 `json:"avg_fitness"`
	WorstFitness float64 `json:"worst_fitness"`
	BestSize     int     `json:"best_size"`
	AvgSize      float64 `json:"avg_size"`
	WorstSize    int     `json:"worst_size"`
	BestDepth    int     `json:"best_depth"`
	AvgDepth     float64 `json:"avg_depth"`
	WorstDepth   int     `json:"worst_depth"`
	Variety      float64 `json:"variety"`
	Checkpointed bool    `json:"checkpointed"`
}

// Store defines the persistence operations of the run archive.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run RunRecord) error
	GetRun(ctx context.Context, id string) (RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]RunRecord, error)
	SaveGenerations(ctx context.Context, runID string, generations []GenerationRecord) error
	GetGenerations(ctx context.Context, runID string) ([]GenerationRecord, bool, error)
}
