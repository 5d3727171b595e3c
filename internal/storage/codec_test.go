package storage

import (
	"errors"
	"testing"
)

func TestRunCodecRoundTrip(t *testing.T) {
	run := RunRecord{
		ID:          "run-7",
		BaseName:    "msx",
		Seed:        7,
		StartedAt:   "2026-08-27T10:00:00Z",
		Generations: 5,
		BestFitness: 1.25,
		GoodRun:     false,
	}
	Stamp(&run)

	data, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != run {
		t.Fatalf("round trip mismatch: %+v != %+v", got, run)
	}
}

func TestDecodeRunVersionMismatch(t *testing.T) {
	run := RunRecord{ID: "run-old"}
	run.SchemaVersion = CurrentSchemaVersion + 1
	run.CodecVersion = CurrentCodecVersion

	data, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeRun(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("want ErrVersionMismatch, got %v", err)
	}
}

func TestDecodeGenerations(t *testing.T) {
	data, err := EncodeGenerations([]GenerationRecord{{Generation: 3, AvgSize: 12.5}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	gens, err := DecodeGenerations(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(gens) != 1 || gens[0].Generation != 3 || gens[0].AvgSize != 12.5 {
		t.Fatalf("bad generations: %+v", gens)
	}
}
