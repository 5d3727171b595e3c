package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/strburst/MinesweeperX/pkg/msx"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db", "msx.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := msx.New(msx.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run parameter JSON path")
	baseName := fs.String("base", "", "base name for checkpoint and archive records")
	seed := fs.Int64("seed", 0, "rng seed (0 derives one from the clock)")
	maxRuns := fs.Int("max-runs", 0, "stop after N runs even without enough good ones (0 disables)")
	population := fs.Int("pop", 0, "population size")
	generations := fs.Int("gens", 0, "generations per run")
	creationName := fs.String("creation", "", "tree creation schedule: Variable|Grow|RampedHalf|RampedVariable|RampedGrow")
	selectionName := fs.String("selection", "", "parent selection: Probabilistic|Tournament|Greedy")
	tournamentSize := fs.Int("tournament", 0, "tournament size for Tournament selection")
	crossover := fs.Float64("crossover", -1, "crossover probability in percent")
	termination := fs.Float64("termination", -1, "fitness below which a run counts as good")
	goodRuns := fs.Int("good-runs", 0, "good runs required before stopping")
	swapMutation := fs.Float64("swap-mutation", -1, "swap mutation probability in percent")
	shrinkMutation := fs.Float64("shrink-mutation", -1, "shrink mutation probability in percent")
	steadyState := fs.Bool("steady-state", false, "replace worst individuals in place instead of building a new generation")
	demeSize := fs.Int("deme-size", 0, "demetic group size (0 disables grouping)")
	checkpointGens := fs.Int("checkpoint-gens", 0, "checkpoint every N generations (0 disables)")
	checkpointDir := fs.String("checkpoint-dir", ".", "directory for checkpoint files")
	printTree := fs.Bool("print-tree", false, "draw the best solver as a tree after each run")
	complexityFitness := fs.Bool("complexity-fitness", false, "fold tree size into the fitness score")
	width := fs.Int("width", 0, "minefield width")
	height := fs.Int("height", 0, "minefield height")
	mines := fs.Int("mines", -1, "mines per minefield")
	trials := fs.Int("trials", 0, "minefields played per fitness evaluation")
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db", "msx.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req, err := loadRunRequest(*configPath)
	if err != nil {
		return err
	}
	if err := overrideFromFlags(&req, setFlags, map[string]any{
		"base":               *baseName,
		"seed":               *seed,
		"max-runs":           *maxRuns,
		"pop":                *population,
		"gens":               *generations,
		"creation":           *creationName,
		"selection":          *selectionName,
		"tournament":         *tournamentSize,
		"crossover":          *crossover,
		"termination":        *termination,
		"good-runs":          *goodRuns,
		"swap-mutation":      *swapMutation,
		"shrink-mutation":    *shrinkMutation,
		"steady-state":       *steadyState,
		"deme-size":          *demeSize,
		"checkpoint-gens":    *checkpointGens,
		"print-tree":         *printTree,
		"complexity-fitness": *complexityFitness,
		"width":              *width,
		"height":             *height,
		"mines":              *mines,
		"trials":             *trials,
	}); err != nil {
		return err
	}

	client, err := msx.New(msx.Options{
		StoreKind:     *storeKind,
		DBPath:        *dbPath,
		CheckpointDir: *checkpointDir,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}
	fmt.Println()
	for _, r := range summary.Runs {
		fmt.Printf("run_id=%s run=%d gens=%d best_fitness=%.2f good=%t\n",
			r.RunID, r.Run, r.Generations, r.BestFitness, r.Good)
	}
	fmt.Printf("good_runs=%d\n", summary.GoodRuns)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db", "msx.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	client, err := msx.New(msx.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	items, err := client.Runs(ctx, msx.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	for _, item := range items {
		fmt.Printf("run_id=%s base=%s started_at=%s seed=%d gens=%d best_fitness=%.2f good=%t\n",
			item.RunID, item.BaseName, item.StartedAt, item.Seed,
			item.Generations, item.BestFitness, item.Good)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	storeKind := fs.String("store", "memory", "store backend: memory|sqlite")
	dbPath := fs.String("db", "msx.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("history requires -run-id")
	}

	client, err := msx.New(msx.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	if err := client.Init(ctx); err != nil {
		return err
	}

	history, err := client.History(ctx, *runID)
	if err != nil {
		return err
	}
	for _, row := range history {
		fmt.Printf("generation=%d best=%.2f avg=%.2f worst=%.2f best_size=%d best_depth=%d variety=%.3f checkpointed=%t\n",
			row.Generation, row.BestFitness, row.AvgFitness, row.WorstFitness,
			row.BestSize, row.BestDepth, row.Variety, row.Checkpointed)
	}
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: msxctl <init|run|runs|history> [flags]", msg)
}
