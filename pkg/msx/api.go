// Package msx is the embedding API for the Minesweeper solver engine. A
// Client owns the run archive and drives complete runs: population
// creation, the generation loop with checkpointing and statistics output,
// and the final report on the best solver found.
package msx

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/strburst/MinesweeperX/internal/gp"
	"github.com/strburst/MinesweeperX/internal/render"
	"github.com/strburst/MinesweeperX/internal/scape"
	"github.com/strburst/MinesweeperX/internal/storage"
	"github.com/strburst/MinesweeperX/internal/stream"
)

const (
	defaultBaseName = "msx"
	defaultDBPath   = "msx.db"
)

type Options struct {
	StoreKind     string
	DBPath        string
	CheckpointDir string
	Output        io.Writer
}

type Client struct {
	store storage.Store
	dir   string
	out   io.Writer
}

// RunRequest describes one evolution job. Zero-valued fields take their
// defaults: the conventional engine parameters, the standard world, a
// time-derived seed. MaxRuns bounds the search for good runs; zero means
// keep going until cfg.GoodRuns runs reach the termination fitness.
type RunRequest struct {
	BaseName string
	Seed     int64
	MaxRuns  int
	GP       *gp.Config
	World    scape.Config
}

// RunResult reports one completed run.
type RunResult struct {
	RunID          string
	Run            int
	Generations    int
	BestFitness    float64
	BestExpression string
	Good           bool
}

type RunSummary struct {
	Runs     []RunResult
	GoodRuns int
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID          string
	BaseName       string
	Seed           int64
	StartedAt      string
	Generations    int
	BestFitness    float64
	BestExpression string
	Good           bool
}

func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	dir := opts.CheckpointDir
	if dir == "" {
		dir = "."
	}

	store, err := storage.NewStore(opts.StoreKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store, dir: dir, out: out}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

// Run executes runs until enough reach the termination fitness, archiving
// each finished run. A checkpoint left behind by an interrupted run with
// the same base name is picked up and continued.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.BaseName == "" {
		req.BaseName = defaultBaseName
	}
	cfg := req.GP
	if cfg == nil {
		cfg = gp.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	world := req.World
	if world == (scape.Config{}) {
		world = scape.DefaultConfig()
		world.ComplexityAffectsFitness = cfg.ComplexityAffectsFitness
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	branches, err := scape.Nodes()
	if err != nil {
		return RunSummary{}, err
	}
	eval, err := scape.NewEvaluator(world, rng)
	if err != nil {
		return RunSummary{}, err
	}
	codec, err := stream.NewCodec(stream.NewRegistry(), branches)
	if err != nil {
		return RunSummary{}, err
	}

	pop, err := gp.NewPopulation(cfg, branches, eval, rng)
	if err != nil {
		return RunSummary{}, err
	}
	var next *gp.Population
	if !cfg.SteadyState {
		if next, err = gp.NewPopulation(cfg, branches, eval, rng); err != nil {
			return RunSummary{}, err
		}
	}

	ckPath := filepath.Join(c.dir, req.BaseName+".stm")
	curRun, goodRuns, curGen := 1, 0, 0
	resumed := false
	if cfg.CheckpointGens > 0 {
		st, ok, err := loadCheckpoint(codec, cfg, ckPath)
		if err != nil {
			return RunSummary{}, err
		}
		if ok {
			if err := pop.Restore(st.Individuals); err != nil {
				return RunSummary{}, fmt.Errorf("restoring checkpoint %s: %w", ckPath, err)
			}
			curRun, goodRuns, curGen = st.Run, st.GoodRuns, st.Generation
			resumed = true
			fmt.Fprintf(c.out, "Loaded checkpoint %s at generation %d\n", ckPath, curGen)
		}
	}

	summary := RunSummary{}
	cntGen := cfg.CheckpointGens
	for {
		fmt.Fprintf(c.out, "\nRun number %d (good runs %d)\n", curRun, goodRuns)

		if resumed {
			resumed = false
		} else {
			curGen = 0
			if err := pop.Create(); err != nil {
				return summary, err
			}
			fmt.Fprintf(c.out, "Too complex %d\n", pop.AttemptedComplexCount)
			if cfg.TestDiversity {
				fmt.Fprintf(c.out, "Duplicate %d\n", pop.AttemptedDupCount)
			}
		}

		startedAt := time.Now().UTC()
		printLegend(c.out, cfg)
		printStatistics(c.out, curGen, pop, false)
		history := []storage.GenerationRecord{generationRecord(curGen, pop, false)}

		goodRun := false
		for curGen < cfg.NumberOfGenerations {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			curGen++

			if cfg.SteadyState {
				err = pop.Generate(nil)
			} else {
				err = pop.Generate(next)
				pop, next = next, pop
			}
			if err != nil {
				return summary, err
			}

			saved := false
			if cfg.CheckpointGens > 0 {
				if cntGen--; cntGen <= 0 {
					st := &stream.State{
						Run:         curRun,
						GoodRuns:    goodRuns,
						Generation:  curGen,
						Individuals: snapshot(pop),
					}
					if err := saveCheckpoint(codec, cfg, ckPath, st); err != nil {
						return summary, err
					}
					cntGen = cfg.CheckpointGens
					saved = true
				}
			}

			printStatistics(c.out, curGen, pop, saved)
			history = append(history, generationRecord(curGen, pop, saved))

			if pop.BestFitness < cfg.TerminationFitness {
				goodRun = true
				goodRuns++
				break
			}
		}

		best := pop.Best()
		var expr strings.Builder
		if err := render.Expression(&expr, best); err != nil {
			return summary, err
		}
		c.reportBest(cfg, curRun, best, expr.String())

		result := RunResult{
			RunID:          uuid.NewString(),
			Run:            curRun,
			Generations:    curGen,
			BestFitness:    best.StdFitness,
			BestExpression: expr.String(),
			Good:           goodRun,
		}
		if err := c.archive(ctx, req.BaseName, seed, startedAt, result, history); err != nil {
			return summary, err
		}
		summary.Runs = append(summary.Runs, result)
		summary.GoodRuns = goodRuns

		// the finished run no longer needs its checkpoint
		if cfg.CheckpointGens > 0 {
			if err := os.Remove(ckPath); err != nil && !os.IsNotExist(err) {
				return summary, err
			}
		}

		if goodRuns >= cfg.GoodRuns {
			return summary, nil
		}
		if req.MaxRuns > 0 && curRun >= req.MaxRuns {
			return summary, nil
		}
		curRun++
		curGen = 0
		cntGen = cfg.CheckpointGens
	}
}

// Runs lists archived runs, most recent last.
func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit < 0 {
		return nil, fmt.Errorf("limit must be >= 0")
	}
	records, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	if req.Limit > 0 && len(records) > req.Limit {
		records = records[len(records)-req.Limit:]
	}
	out := make([]RunItem, 0, len(records))
	for _, r := range records {
		out = append(out, RunItem{
			RunID:          r.ID,
			BaseName:       r.BaseName,
			Seed:           r.Seed,
			StartedAt:      r.StartedAt,
			Generations:    r.Generations,
			BestFitness:    r.BestFitness,
			BestExpression: r.BestExpression,
			Good:           r.GoodRun,
		})
	}
	return out, nil
}

// History returns the per-generation statistics rows of an archived run.
func (c *Client) History(ctx context.Context, runID string) ([]storage.GenerationRecord, error) {
	if runID == "" {
		return nil, fmt.Errorf("run id is required")
	}
	history, ok, err := c.store.GetGenerations(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no history for run id: %s", runID)
	}
	return history, nil
}

func (c *Client) reportBest(cfg *gp.Config, run int, best *gp.Individual, expr string) {
	fmt.Fprintf(c.out, "\nBest of run %d: fitness %.2f, complexity %d, depth %d\n",
		run, best.StdFitness, best.Size(), best.Depth())
	if cfg.PrintExpression {
		fmt.Fprint(c.out, expr)
	}
	if cfg.PrintTree {
		_ = render.Tree(c.out, best)
	}
}

func (c *Client) archive(ctx context.Context, baseName string, seed int64,
	startedAt time.Time, result RunResult, history []storage.GenerationRecord) error {

	run := storage.RunRecord{
		ID:             result.RunID,
		BaseName:       baseName,
		Seed:           seed,
		StartedAt:      startedAt.Format(time.RFC3339Nano),
		Generations:    result.Generations,
		BestFitness:    result.BestFitness,
		BestExpression: result.BestExpression,
		GoodRun:        result.Good,
	}
	storage.Stamp(&run)
	if err := c.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("archiving run %s: %w", run.ID, err)
	}
	if err := c.store.SaveGenerations(ctx, run.ID, history); err != nil {
		return fmt.Errorf("archiving run %s history: %w", run.ID, err)
	}
	return nil
}

func snapshot(p *gp.Population) []*gp.Individual {
	inds := make([]*gp.Individual, p.Len())
	for i := range inds {
		inds[i] = p.Individual(i)
	}
	return inds
}

func saveCheckpoint(codec *stream.Codec, cfg *gp.Config, path string, st *stream.State) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := codec.Save(f, cfg, st); err != nil {
		f.Close()
		return fmt.Errorf("writing checkpoint %s: %w", path, err)
	}
	return f.Close()
}

func loadCheckpoint(codec *stream.Codec, cfg *gp.Config, path string) (*stream.State, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()
	st, err := codec.Load(f, cfg)
	if err != nil {
		return nil, false, fmt.Errorf("loading checkpoint %s: %w", path, err)
	}
	return st, true, nil
}

func generationRecord(gen int, p *gp.Population, saved bool) storage.GenerationRecord {
	best, worst := p.Best(), p.Worst()
	return storage.GenerationRecord{
		Generation:   gen,
		BestFitness:  best.StdFitness,
		AvgFitness:   p.AvgFitness,
		WorstFitness: worst.StdFitness,
		BestSize:     best.Size(),
		AvgSize:      p.AvgSize,
		WorstSize:    worst.Size(),
		BestDepth:    best.Depth(),
		AvgDepth:     p.AvgDepth,
		WorstDepth:   worst.Depth(),
		Variety:      p.Variety(),
		Checkpointed: saved,
	}
}

func printLegend(w io.Writer, cfg *gp.Config) {
	fmt.Fprint(w, " Gen|              Fitness           |   Complexity    |    Depth   ")
	if cfg.TestDiversity {
		fmt.Fprint(w, "|Variety")
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, "    |      Best    Average      Worst|   B      A     W|  B    A   W")
	if cfg.TestDiversity {
		fmt.Fprint(w, "|")
	}
	fmt.Fprintln(w)
}

func printStatistics(w io.Writer, gen int, p *gp.Population, saved bool) {
	best, worst := p.Best(), p.Worst()
	fmt.Fprintf(w, "%4d|%10.2f %10.2f %10.2f|%4d %6.1f  %4d| %2d %4.1f  %2d",
		gen, best.StdFitness, p.AvgFitness, worst.StdFitness,
		best.Size(), p.AvgSize, worst.Size(),
		best.Depth(), p.AvgDepth, worst.Depth())
	if p.Config().TestDiversity {
		fmt.Fprintf(w, "| %5.3f", p.Variety())
	}
	chk := ' '
	if saved {
		chk = 'c'
	}
	fmt.Fprintf(w, " %c\n", chk)
}
