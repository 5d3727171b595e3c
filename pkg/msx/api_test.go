package msx

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/strburst/MinesweeperX/internal/gp"
	"github.com/strburst/MinesweeperX/internal/scape"
	"github.com/strburst/MinesweeperX/internal/stream"
)

func testGPConfig() *gp.Config {
	cfg := gp.DefaultConfig()
	cfg.PopulationSize = 8
	cfg.NumberOfGenerations = 2
	cfg.MaxDepthForCreation = 4
	cfg.MaxComplexity = 40
	cfg.TournamentSize = 3
	cfg.PrintExpression = true
	return cfg
}

func testWorld() scape.Config {
	return scape.Config{WorldWidth: 5, WorldHeight: 5, NumMines: 2, TrialsPerProgram: 2}
}

func newTestClient(t *testing.T, out *bytes.Buffer) *Client {
	t.Helper()
	client, err := New(Options{
		StoreKind:     "memory",
		CheckpointDir: t.TempDir(),
		Output:        out,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRunTerminatesOnFitness(t *testing.T) {
	var out bytes.Buffer
	client := newTestClient(t, &out)

	cfg := testGPConfig()
	cfg.TerminationFitness = 1000.0 // any population qualifies

	summary, err := client.Run(context.Background(), RunRequest{
		BaseName: "term",
		Seed:     1,
		GP:       cfg,
		World:    testWorld(),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.GoodRuns != 1 || len(summary.Runs) != 1 {
		t.Fatalf("summary: %+v", summary)
	}
	run := summary.Runs[0]
	if !run.Good || run.Generations != 1 {
		t.Fatalf("run result: %+v", run)
	}
	if !strings.Contains(run.BestExpression, "RPB:") {
		t.Fatalf("no rendered expression: %q", run.BestExpression)
	}
	if !strings.Contains(out.String(), "Run number 1 (good runs 0)") {
		t.Fatalf("missing run banner:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "|Variety") {
		t.Fatalf("missing statistics legend:\n%s", out.String())
	}
}

func TestRunArchivesHistory(t *testing.T) {
	var out bytes.Buffer
	client := newTestClient(t, &out)

	cfg := testGPConfig()
	summary, err := client.Run(context.Background(), RunRequest{
		BaseName: "arch",
		Seed:     2,
		MaxRuns:  1,
		GP:       cfg,
		World:    testWorld(),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.Runs) != 1 || summary.GoodRuns != 0 {
		t.Fatalf("summary: %+v", summary)
	}
	run := summary.Runs[0]
	if run.Generations != cfg.NumberOfGenerations {
		t.Fatalf("ran %d generations, want %d", run.Generations, cfg.NumberOfGenerations)
	}

	items, err := client.Runs(context.Background(), RunsRequest{})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(items) != 1 || items[0].RunID != run.RunID || items[0].BaseName != "arch" {
		t.Fatalf("archived runs: %+v", items)
	}
	if items[0].Seed != 2 || items[0].Good {
		t.Fatalf("archived run record: %+v", items[0])
	}

	history, err := client.History(context.Background(), run.RunID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != cfg.NumberOfGenerations+1 {
		t.Fatalf("archived %d generations, want %d", len(history), cfg.NumberOfGenerations+1)
	}
	if history[0].Generation != 0 || history[len(history)-1].Generation != cfg.NumberOfGenerations {
		t.Fatalf("generation numbering: first %d last %d",
			history[0].Generation, history[len(history)-1].Generation)
	}
	for _, row := range history {
		if row.BestFitness > row.WorstFitness {
			t.Fatalf("generation %d: best %v worse than worst %v",
				row.Generation, row.BestFitness, row.WorstFitness)
		}
		if row.Variety <= 0 || row.Variety > 1 {
			t.Fatalf("generation %d: variety %v", row.Generation, row.Variety)
		}
	}

	if _, err := client.History(context.Background(), "missing"); err == nil {
		t.Fatalf("history for an unknown run id succeeded")
	}
}

func TestRunMaxRunsBoundsSearch(t *testing.T) {
	var out bytes.Buffer
	client := newTestClient(t, &out)

	cfg := testGPConfig()
	cfg.NumberOfGenerations = 1
	// termination at 0 is unreachable, MaxRuns stops the loop
	summary, err := client.Run(context.Background(), RunRequest{
		BaseName: "cap",
		Seed:     3,
		MaxRuns:  2,
		GP:       cfg,
		World:    testWorld(),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.Runs) != 2 || summary.GoodRuns != 0 {
		t.Fatalf("summary: %+v", summary)
	}
	if summary.Runs[1].Run != 2 {
		t.Fatalf("second run numbered %d", summary.Runs[1].Run)
	}
}

func TestRunResumesFromCheckpoint(t *testing.T) {
	var out bytes.Buffer
	dir := t.TempDir()
	client, err := New(Options{StoreKind: "memory", CheckpointDir: dir, Output: &out})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer client.Close()

	cfg := testGPConfig()
	cfg.NumberOfGenerations = 3
	cfg.CheckpointGens = 1

	// leave behind the checkpoint of an interrupted run at generation 2
	branches, err := scape.Nodes()
	if err != nil {
		t.Fatalf("nodes: %v", err)
	}
	world := testWorld()
	eval, err := scape.NewEvaluator(world, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("evaluator: %v", err)
	}
	pop, err := gp.NewPopulation(cfg, branches, eval, rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("population: %v", err)
	}
	if err := pop.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}
	codec, err := stream.NewCodec(stream.NewRegistry(), branches)
	if err != nil {
		t.Fatalf("codec: %v", err)
	}
	inds := make([]*gp.Individual, pop.Len())
	for i := range inds {
		inds[i] = pop.Individual(i)
	}
	ckPath := filepath.Join(dir, "resume.stm")
	f, err := os.Create(ckPath)
	if err != nil {
		t.Fatalf("create checkpoint: %v", err)
	}
	st := &stream.State{Run: 1, GoodRuns: 0, Generation: 2, Individuals: inds}
	if err := codec.Save(f, cfg, st); err != nil {
		t.Fatalf("save checkpoint: %v", err)
	}
	f.Close()

	summary, err := client.Run(context.Background(), RunRequest{
		BaseName: "resume",
		Seed:     7,
		MaxRuns:  1,
		GP:       cfg,
		World:    world,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Loaded checkpoint") {
		t.Fatalf("checkpoint not picked up:\n%s", out.String())
	}
	if len(summary.Runs) != 1 || summary.Runs[0].Generations != 3 {
		t.Fatalf("resumed run did not finish at generation 3: %+v", summary)
	}

	// the finished run cleans its checkpoint up
	if _, err := os.Stat(ckPath); !os.IsNotExist(err) {
		t.Fatalf("checkpoint left behind: %v", err)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	var out bytes.Buffer
	client := newTestClient(t, &out)

	cfg := testGPConfig()
	cfg.PopulationSize = 1
	if _, err := client.Run(context.Background(), RunRequest{GP: cfg}); err == nil {
		t.Fatalf("invalid configuration accepted")
	}
}
