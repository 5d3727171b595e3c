package gp

import (
	"fmt"
	"math/rand"
)

const (
	creationTries = 50
	minTreeDepth  = 2
)

// Evaluator computes the standardized fitness of one individual. Smaller is
// better; zero or near zero is a perfect score. Implementations may be
// stochastic but must never return a negative value.
type Evaluator interface {
	Evaluate(ind *Individual) (float64, error)
}

// Population holds a fixed number of individuals together with the
// machinery to breed the next generation: selection, crossover, mutation,
// optional demetic grouping, a diversity table, and per-generation
// statistics.
type Population struct {
	cfg      *Config
	branches BranchSet
	eval     Evaluator
	rng      *rand.Rand

	inds []*Individual

	// fitness sums over the current selection span
	sumFitness    float64
	sumAdjFitness float64

	// greedy over-selection state
	cutoffAdjFitness float64
	sumG1AdjFitness  float64
	sumG2AdjFitness  float64

	diversity             *diversityTable
	DupCount              int
	AttemptedDupCount     int
	AttemptedComplexCount int

	BestIndex    int
	WorstIndex   int
	BestFitness  float64
	WorstFitness float64
	AvgFitness   float64
	AvgSize      float64
	AvgDepth     float64
	MaxSize      int

	// ramped depth carried across evolve calls for fresh creations
	evolveDepth int
}

// NewPopulation validates the configuration against the branch set and
// reserves space for the individuals without creating them.
func NewPopulation(cfg *Config, branches BranchSet, eval Evaluator, rng *rand.Rand) (*Population, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := branches.Validate(); err != nil {
		return nil, err
	}
	if eval == nil {
		return nil, fmt.Errorf("nil evaluator")
	}
	if rng == nil {
		return nil, fmt.Errorf("nil random source")
	}
	return &Population{
		cfg:         cfg,
		branches:    branches,
		eval:        eval,
		rng:         rng,
		inds:        make([]*Individual, cfg.PopulationSize),
		diversity:   newDiversityTable(),
		evolveDepth: minTreeDepth,
	}, nil
}

func (p *Population) Len() int { return len(p.inds) }

func (p *Population) Individual(i int) *Individual { return p.inds[i] }

func (p *Population) Config() *Config { return p.cfg }

func (p *Population) Branches() BranchSet { return p.branches }

func (p *Population) Best() *Individual { return p.inds[p.BestIndex] }

func (p *Population) Worst() *Individual { return p.inds[p.WorstIndex] }

// Variety is the fraction of the population that is not a duplicate of an
// earlier member, 1.0 when diversity testing is off.
func (p *Population) Variety() float64 {
	return 1.0 - float64(p.DupCount)/float64(len(p.inds))
}

func (p *Population) clearDiversity() {
	p.diversity.clear()
	p.DupCount = 0
	p.AttemptedDupCount = 0
}

func (p *Population) updateDiversity(ind *Individual) {
	if !p.cfg.TestDiversity {
		return
	}
	if p.diversity.add(ind) {
		p.DupCount++
	}
}

func (p *Population) rebuildDiversity() {
	if !p.cfg.TestDiversity {
		return
	}
	p.clearDiversity()
	for _, ind := range p.inds {
		if p.diversity.add(ind) {
			p.DupCount++
		}
	}
}

// creationPlan returns the build strategy and starting depth for the slot'th
// initial individual. Ramped schedules cycle the depth between minTreeDepth
// and MaxDepthForCreation; RampedHalf also alternates grow and variable
// strategies between slots.
func (p *Population) creationPlan(slot, rampDepth int) (CreationType, int) {
	switch p.cfg.CreationType {
	case CreateRampedHalf:
		if slot%2 != 0 {
			return CreateGrow, rampDepth
		}
		return CreateVariable, rampDepth
	case CreateRampedVariable:
		return CreateVariable, rampDepth
	case CreateRampedGrow:
		return CreateGrow, rampDepth
	case CreateGrow:
		return CreateGrow, p.cfg.MaxDepthForCreation
	default:
		return CreateVariable, p.cfg.MaxDepthForCreation
	}
}

// Create fills the initial population. Each slot gets up to 50 tries to
// build an acceptable individual: too-complex attempts shrink the working
// depth after a quarter of the budget, duplicate attempts (diversity on)
// raise it. Exhausting the budget is fatal. Accepted individuals are
// evaluated immediately; statistics cover the finished population.
func (p *Population) Create() error {
	p.clearDiversity()
	p.AttemptedComplexCount = 0

	rampDepth := minTreeDepth
	for i := range p.inds {
		mode, depth := p.creationPlan(i, rampDepth)

		tries := 0
		for {
			ind := NewIndividual(len(p.branches))
			size := ind.create(p.rng, mode, depth, p.cfg.MaxComplexity, p.branches)

			if size > p.cfg.MaxComplexity {
				p.AttemptedComplexCount++
				if tries >= creationTries/4 && depth > minTreeDepth {
					depth--
				}
			} else if p.cfg.TestDiversity && p.diversity.contains(ind) {
				p.AttemptedDupCount++
				if tries >= creationTries/4 && depth < p.cfg.MaxDepthForCreation {
					depth++
				}
			} else {
				p.diversity.add(ind)
				std, err := p.eval.Evaluate(ind)
				if err != nil {
					return fmt.Errorf("evaluating individual %d: %w", i, err)
				}
				ind.SetFitness(std)
				p.inds[i] = ind
				break
			}

			tries++
			if tries >= creationTries {
				return fmt.Errorf("no acceptable individual for slot %d in %d tries", i, creationTries)
			}
		}

		if rampDepth++; rampDepth > p.cfg.MaxDepthForCreation {
			rampDepth = minTreeDepth
		}
	}

	return p.CalculateStatistics()
}

// evolve produces the next offspring for a deme: two crossover children,
// or one brand-new individual, or one reproduced copy, in that order of
// consideration. Fresh individuals use the variable strategy at a depth
// ramped across calls.
func (p *Population) evolve(r *span) ([]*Individual, error) {
	if flip(p.rng, p.cfg.CrossoverProbability) {
		pair, err := p.selectClones(2, r)
		if err != nil {
			return nil, err
		}
		cross(p.rng, pair[0], pair[1], p.cfg.MaxDepthForCrossover, p.cfg.MaxComplexity)
		return pair, nil
	}

	if flip(p.rng, p.cfg.CreationProbability) {
		ind := NewIndividual(len(p.branches))
		tries := 0
		for {
			size := ind.create(p.rng, CreateVariable, p.evolveDepth, p.cfg.MaxComplexity, p.branches)
			if size <= p.cfg.MaxComplexity {
				break
			}
			if tries >= creationTries/4 && p.evolveDepth > minTreeDepth {
				p.evolveDepth--
			}
			tries++
			if tries >= creationTries {
				return nil, fmt.Errorf("no acceptable individual in %d tries", creationTries)
			}
		}
		if p.evolveDepth++; p.evolveDepth > p.cfg.MaxDepthForCreation {
			p.evolveDepth = minTreeDepth
		}
		return []*Individual{ind}, nil
	}

	return p.selectClones(1, r)
}

// addBest copies the best of this generation into the next at the same
// index, protecting it from being overwritten during the fill.
func (p *Population) addBest(next *Population) {
	if !p.cfg.AddBestToNewPopulation {
		return
	}
	c := p.Best().Clone()
	c.DadIndex = p.BestIndex
	next.inds[p.BestIndex] = c
	next.updateDiversity(c)
}

// Generate breeds one full generation. In steady-state mode offspring
// replace worst-selected members of this population and next is ignored
// (it may be nil); otherwise next is filled from scratch, optionally
// carrying over the best individual. Offspring are mutated and evaluated
// as they are placed. Demetic migration and statistics follow.
func (p *Population) Generate(next *Population) error {
	demeSize := len(p.inds)
	if p.cfg.DemeticGrouping {
		demeSize = p.cfg.DemeSize
	}

	if !p.cfg.SteadyState {
		if next == nil {
			return fmt.Errorf("nil next population")
		}
		next.clearDiversity()
		p.addBest(next)
	}

	var bad [2]int
	for demeStart := 0; demeStart < len(p.inds); demeStart += demeSize {
		r := span{start: demeStart, end: demeStart + demeSize, fresh: true}

		for n := 0; n < demeSize; {
			offspring, err := p.evolve(&r)
			if err != nil {
				return err
			}

			if p.cfg.SteadyState {
				if err := p.selectIndices(bad[:len(offspring)], len(offspring), true, &r); err != nil {
					return err
				}
			}

			for i, ind := range offspring {
				if !p.cfg.SteadyState && p.cfg.AddBestToNewPopulation {
					if demeStart+n == p.BestIndex {
						n++
						if n >= demeSize {
							break
						}
					}
				}

				ind.mutate(p.rng, p.cfg, p.branches)

				std, err := p.eval.Evaluate(ind)
				if err != nil {
					return fmt.Errorf("evaluating offspring: %w", err)
				}
				ind.SetFitness(std)

				if p.cfg.SteadyState {
					old := p.inds[bad[i]]
					p.sumFitness += ind.StdFitness - old.StdFitness
					p.sumAdjFitness += ind.AdjFitness - old.AdjFitness
					p.inds[bad[i]] = ind
				} else {
					next.inds[demeStart+n] = ind
					next.updateDiversity(ind)
				}
				n++
				if n >= demeSize {
					break
				}
			}
		}
	}

	if p.cfg.SteadyState {
		p.rebuildDiversity()
	}

	if p.cfg.DemeticGrouping {
		if p.cfg.SteadyState {
			if err := p.demeticMigration(); err != nil {
				return err
			}
		} else if err := next.demeticMigration(); err != nil {
			return err
		}
	}

	if p.cfg.SteadyState {
		return p.CalculateStatistics()
	}
	return next.CalculateStatistics()
}

// demeticMigration exchanges a fitness-selected member of each deme with
// one from the next deme, wrapping the last deme around to the first. Each
// exchange happens with DemeticMigProbability percent probability.
func (p *Population) demeticMigration() error {
	var a, b [1]int
	for demeStart := 0; demeStart < len(p.inds); demeStart += p.cfg.DemeSize {
		if !flip(p.rng, p.cfg.DemeticMigProbability) {
			continue
		}
		r1 := span{start: demeStart, end: demeStart + p.cfg.DemeSize, fresh: true}
		start2 := r1.end
		if start2 >= len(p.inds) {
			start2 = 0
		}
		r2 := span{start: start2, end: start2 + p.cfg.DemeSize, fresh: true}

		if err := p.selectIndices(a[:], 1, false, &r1); err != nil {
			return err
		}
		if err := p.selectIndices(b[:], 1, false, &r2); err != nil {
			return err
		}
		p.inds[a[0]], p.inds[b[0]] = p.inds[b[0]], p.inds[a[0]]
	}
	return nil
}

// CalculateStatistics scans the population once and records the best and
// worst individuals (fitness ties resolved by size), the fitness, size,
// and depth averages, and the largest individual. Recomputing over an
// unchanged population yields identical results.
func (p *Population) CalculateStatistics() error {
	if p.inds[0] == nil {
		return fmt.Errorf("nil individual at index 0")
	}

	p.BestIndex = 0
	p.WorstIndex = 0
	p.BestFitness = p.inds[0].StdFitness
	p.WorstFitness = p.BestFitness
	bestSize := p.inds[0].Size()
	worstSize := bestSize
	p.MaxSize = bestSize

	sumFitness := 0.0
	sumSize := 0
	sumDepth := 0

	for i, ind := range p.inds {
		if ind == nil {
			return fmt.Errorf("nil individual at index %d", i)
		}

		size := ind.Size()
		if size > p.MaxSize {
			p.MaxSize = size
		}
		sumSize += size
		sumDepth += ind.Depth()
		sumFitness += ind.StdFitness

		if p.WorstFitness < ind.StdFitness ||
			(p.WorstFitness == ind.StdFitness && worstSize < size) {
			p.WorstIndex = i
			p.WorstFitness = ind.StdFitness
			worstSize = size
		}
		if p.BestFitness > ind.StdFitness ||
			(p.BestFitness == ind.StdFitness && bestSize > size) {
			p.BestIndex = i
			p.BestFitness = ind.StdFitness
			bestSize = size
		}
	}

	n := float64(len(p.inds))
	p.AvgFitness = sumFitness / n
	p.AvgSize = float64(sumSize) / n
	p.AvgDepth = float64(sumDepth) / n
	return nil
}

// Restore replaces the population contents with individuals decoded from a
// checkpoint, then rebuilds the diversity table and statistics. The slice
// length must match the configured population size.
func (p *Population) Restore(inds []*Individual) error {
	if len(inds) != len(p.inds) {
		return fmt.Errorf("restored population has %d individuals, configured for %d",
			len(inds), len(p.inds))
	}
	for i, ind := range inds {
		if ind == nil {
			return fmt.Errorf("nil individual at index %d", i)
		}
		if err := ind.Validate(); err != nil {
			return fmt.Errorf("individual %d: %w", i, err)
		}
	}
	copy(p.inds, inds)
	p.rebuildDiversity()
	return p.CalculateStatistics()
}
