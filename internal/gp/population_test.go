package gp

import (
	"math"
	"math/rand"
	"testing"
)

type evalFunc func(*Individual) (float64, error)

func (f evalFunc) Evaluate(ind *Individual) (float64, error) { return f(ind) }

// sizeEval scores by node count, so fitness is deterministic and shrink
// pressure is easy to reason about in tests.
var sizeEval = evalFunc(func(ind *Individual) (float64, error) {
	return float64(ind.Size()), nil
})

func newTestConfig() *Config {
	cfg := DefaultConfig()
	cfg.PopulationSize = 20
	cfg.NumberOfGenerations = 5
	cfg.MaxDepthForCreation = 5
	cfg.MaxComplexity = 50
	cfg.TournamentSize = 3
	return cfg
}

func newTestPopulation(t *testing.T, cfg *Config, seed int64) *Population {
	t.Helper()
	p, err := NewPopulation(cfg, newTestBranches(t), sizeEval, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatalf("new population: %v", err)
	}
	return p
}

func TestConfigValidate(t *testing.T) {
	for _, tc := range []struct {
		name string
		edit func(*Config)
	}{
		{"population too small", func(c *Config) { c.PopulationSize = 1 }},
		{"no generations", func(c *Config) { c.NumberOfGenerations = 0 }},
		{"crossover deeper than creation", func(c *Config) { c.MaxDepthForCrossover = c.MaxDepthForCreation - 1 }},
		{"tournament of one", func(c *Config) { c.TournamentSize = 1 }},
		{"deme does not divide", func(c *Config) { c.DemeticGrouping = true; c.DemeSize = 7 }},
		{"deme of one", func(c *Config) { c.DemeticGrouping = true; c.DemeSize = 1 }},
	} {
		cfg := newTestConfig()
		tc.edit(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: accepted", tc.name)
		}
	}
}

func TestConfigValidateGreedyDisablesDemes(t *testing.T) {
	cfg := newTestConfig()
	cfg.SelectionType = SelectGreedy
	cfg.DemeticGrouping = true
	cfg.DemeSize = 10
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.DemeticGrouping {
		t.Fatalf("demetic grouping survived greedy selection")
	}
}

func TestCreateRespectsLimits(t *testing.T) {
	cfg := newTestConfig()
	p := newTestPopulation(t, cfg, 1)
	if err := p.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < p.Len(); i++ {
		ind := p.Individual(i)
		if err := ind.Validate(); err != nil {
			t.Fatalf("individual %d invalid: %v", i, err)
		}
		if s := ind.Size(); s > cfg.MaxComplexity {
			t.Fatalf("individual %d has %d nodes, limit %d", i, s, cfg.MaxComplexity)
		}
		if d := ind.Depth(); d > cfg.MaxDepthForCreation {
			t.Fatalf("individual %d has depth %d, limit %d", i, d, cfg.MaxDepthForCreation)
		}
	}
}

func TestCreateInitialVariety(t *testing.T) {
	cfg := newTestConfig()
	p := newTestPopulation(t, cfg, 2)
	if err := p.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}

	// diversity testing rejects duplicates during creation
	if p.DupCount != 0 || p.Variety() != 1.0 {
		t.Fatalf("initial population has duplicates: dup=%d variety=%v", p.DupCount, p.Variety())
	}
	for i := 0; i < p.Len(); i++ {
		for j := i + 1; j < p.Len(); j++ {
			if p.Individual(i).Equal(p.Individual(j)) {
				t.Fatalf("individuals %d and %d are identical", i, j)
			}
		}
	}
}

func TestCreateSameSeedSamePopulation(t *testing.T) {
	a := newTestPopulation(t, newTestConfig(), 3)
	b := newTestPopulation(t, newTestConfig(), 3)
	if err := a.Create(); err != nil {
		t.Fatalf("create a: %v", err)
	}
	if err := b.Create(); err != nil {
		t.Fatalf("create b: %v", err)
	}
	for i := 0; i < a.Len(); i++ {
		if !a.Individual(i).Equal(b.Individual(i)) {
			t.Fatalf("seeded runs diverged at individual %d", i)
		}
	}
}

func TestStatisticsIdempotent(t *testing.T) {
	p := newTestPopulation(t, newTestConfig(), 4)
	if err := p.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}

	best, worst := p.BestIndex, p.WorstIndex
	bf, wf, af := p.BestFitness, p.WorstFitness, p.AvgFitness
	as, ad, ms := p.AvgSize, p.AvgDepth, p.MaxSize

	if err := p.CalculateStatistics(); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	if p.BestIndex != best || p.WorstIndex != worst ||
		p.BestFitness != bf || p.WorstFitness != wf || p.AvgFitness != af ||
		p.AvgSize != as || p.AvgDepth != ad || p.MaxSize != ms {
		t.Fatalf("statistics changed on an unchanged population")
	}
}

func TestStatisticsExtremes(t *testing.T) {
	p := newTestPopulation(t, newTestConfig(), 5)
	if err := p.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < p.Len(); i++ {
		f := p.Individual(i).StdFitness
		if f < p.BestFitness || f > p.WorstFitness {
			t.Fatalf("individual %d fitness %v outside [%v, %v]",
				i, f, p.BestFitness, p.WorstFitness)
		}
	}
	if p.Best().StdFitness != p.BestFitness || p.Worst().StdFitness != p.WorstFitness {
		t.Fatalf("best/worst indices disagree with recorded fitness")
	}
}

func TestTournamentWinnerBeatsRunnerUp(t *testing.T) {
	cfg := newTestConfig()
	cfg.TournamentSize = 7
	p := newTestPopulation(t, cfg, 6)
	if err := p.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}

	r := span{start: 0, end: p.Len(), fresh: true}
	var idx [2]int
	for i := 0; i < 50; i++ {
		if err := p.selectIndices(idx[:], 2, false, &r); err != nil {
			t.Fatalf("select: %v", err)
		}
		if p.Individual(idx[1]).BetterThan(p.Individual(idx[0])) {
			t.Fatalf("runner-up %d beats winner %d", idx[1], idx[0])
		}
	}
}

func TestProbabilisticSelectFindsDominantIndividual(t *testing.T) {
	cfg := newTestConfig()
	cfg.SelectionType = SelectProbabilistic
	cfg.PopulationSize = 4
	p := newTestPopulation(t, cfg, 7)
	if err := p.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}

	// one perfect individual among hopeless ones owns essentially the whole
	// roulette wheel
	for i := 0; i < p.Len(); i++ {
		p.Individual(i).SetFitness(math.MaxFloat64)
	}
	p.Individual(2).SetFitness(0.0)

	r := span{start: 0, end: p.Len(), fresh: true}
	var idx [1]int
	for i := 0; i < 20; i++ {
		if err := p.selectIndices(idx[:], 1, false, &r); err != nil {
			t.Fatalf("select: %v", err)
		}
		if idx[0] != 2 {
			t.Fatalf("roulette picked %d over the dominant individual", idx[0])
		}
	}
}

func TestGreedySelectStaysInRange(t *testing.T) {
	cfg := newTestConfig()
	cfg.SelectionType = SelectGreedy
	p := newTestPopulation(t, cfg, 8)
	if err := p.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}

	r := span{start: 0, end: p.Len(), fresh: true}
	var idx [2]int
	for i := 0; i < 50; i++ {
		if err := p.selectIndices(idx[:], 2, false, &r); err != nil {
			t.Fatalf("select: %v", err)
		}
		for _, j := range idx {
			if j < 0 || j >= p.Len() {
				t.Fatalf("greedy selection left the range: %d", j)
			}
		}
	}
}

func TestGenerateGenerational(t *testing.T) {
	cfg := newTestConfig()
	cfg.AddBestToNewPopulation = true
	p := newTestPopulation(t, cfg, 9)
	if err := p.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}

	next, err := NewPopulation(cfg, p.Branches(), sizeEval, p.rng)
	if err != nil {
		t.Fatalf("next population: %v", err)
	}
	if err := p.Generate(next); err != nil {
		t.Fatalf("generate: %v", err)
	}

	for i := 0; i < next.Len(); i++ {
		ind := next.Individual(i)
		if ind == nil {
			t.Fatalf("slot %d left empty", i)
		}
		if err := ind.Validate(); err != nil {
			t.Fatalf("offspring %d invalid: %v", i, err)
		}
	}
	if !next.Individual(p.BestIndex).Equal(p.Best()) {
		t.Fatalf("best individual not carried into the next generation")
	}
	if next.BestFitness > p.BestFitness {
		t.Fatalf("best fitness regressed from %v to %v with elitism on",
			p.BestFitness, next.BestFitness)
	}
}

func TestGenerateSteadyState(t *testing.T) {
	cfg := newTestConfig()
	cfg.SteadyState = true
	p := newTestPopulation(t, cfg, 10)
	if err := p.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}

	for gen := 0; gen < 3; gen++ {
		if err := p.Generate(nil); err != nil {
			t.Fatalf("generation %d: %v", gen, err)
		}
		for i := 0; i < p.Len(); i++ {
			if err := p.Individual(i).Validate(); err != nil {
				t.Fatalf("generation %d individual %d: %v", gen, i, err)
			}
		}
		if p.BestFitness > p.WorstFitness {
			t.Fatalf("generation %d: best %v worse than worst %v",
				gen, p.BestFitness, p.WorstFitness)
		}
	}
}

func TestGenerateGenerationalNeedsNext(t *testing.T) {
	p := newTestPopulation(t, newTestConfig(), 11)
	if err := p.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := p.Generate(nil); err == nil {
		t.Fatalf("generational breeding accepted a nil next population")
	}
}

func TestGenerateDemetic(t *testing.T) {
	cfg := newTestConfig()
	cfg.DemeticGrouping = true
	cfg.DemeSize = 5
	cfg.DemeticMigProbability = 100.0
	p := newTestPopulation(t, cfg, 12)
	if err := p.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}

	next, err := NewPopulation(cfg, p.Branches(), sizeEval, p.rng)
	if err != nil {
		t.Fatalf("next population: %v", err)
	}
	if err := p.Generate(next); err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i := 0; i < next.Len(); i++ {
		if next.Individual(i) == nil {
			t.Fatalf("slot %d left empty", i)
		}
	}
}

func TestGenerateWithMutation(t *testing.T) {
	cfg := newTestConfig()
	cfg.SwapMutationProbability = 50.0
	cfg.ShrinkMutationProbability = 50.0
	p := newTestPopulation(t, cfg, 13)
	if err := p.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}

	next, err := NewPopulation(cfg, p.Branches(), sizeEval, p.rng)
	if err != nil {
		t.Fatalf("next population: %v", err)
	}
	if err := p.Generate(next); err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i := 0; i < next.Len(); i++ {
		if err := next.Individual(i).Validate(); err != nil {
			t.Fatalf("offspring %d invalid after mutation: %v", i, err)
		}
	}
}

func TestRestore(t *testing.T) {
	p := newTestPopulation(t, newTestConfig(), 14)
	if err := p.Create(); err != nil {
		t.Fatalf("create: %v", err)
	}

	saved := make([]*Individual, p.Len())
	for i := range saved {
		saved[i] = p.Individual(i).Clone()
		saved[i].SetFitness(p.Individual(i).StdFitness)
	}

	q := newTestPopulation(t, newTestConfig(), 15)
	if err := q.Restore(saved); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if q.BestFitness != p.BestFitness || q.WorstFitness != p.WorstFitness {
		t.Fatalf("restored statistics differ: best %v/%v worst %v/%v",
			q.BestFitness, p.BestFitness, q.WorstFitness, p.WorstFitness)
	}
	if !q.Best().Equal(p.Best()) {
		t.Fatalf("restored best individual differs")
	}

	if err := q.Restore(saved[:3]); err == nil {
		t.Fatalf("restore accepted a short population")
	}
}
