package gp

import "fmt"

// span is the half-open index range a selection draws from: a single deme
// when demetic grouping is on, otherwise the whole population. fresh is set
// whenever the range or its members changed, forcing the fitness sums to be
// recomputed on the next probabilistic or greedy draw.
type span struct {
	start, end int
	fresh      bool
}

func (r *span) random(p *Population) int {
	return r.start + p.rng.Intn(r.end-r.start)
}

// selectIndices fills dst with n fitness-selected indices from the range,
// using the configured strategy. With worst set the draw favors the least
// fit instead.
func (p *Population) selectIndices(dst []int, n int, worst bool, r *span) error {
	if n < 1 {
		return fmt.Errorf("cannot select %d individuals", n)
	}
	if r.end-r.start < 1 {
		return fmt.Errorf("selection range %d:%d is empty", r.start, r.end)
	}
	switch p.cfg.SelectionType {
	case SelectTournament:
		if n > 2 {
			return fmt.Errorf("tournament selection yields at most 2, want %d", n)
		}
		p.tournamentSelect(dst, n, worst, r)
	case SelectProbabilistic:
		p.probabilisticSelect(dst, n, worst, r)
	case SelectGreedy:
		p.greedySelect(dst, n, worst, r)
	default:
		return fmt.Errorf("unknown selection type %d", p.cfg.SelectionType)
	}
	return nil
}

// tournamentSelect runs one tournament of TournamentSize uniform draws with
// replacement and reports the winner, plus the runner-up when two indices
// are wanted. BetterThan supplies the fitness ordering and its size
// tie-break.
func (p *Population) tournamentSelect(dst []int, n int, worst bool, r *span) {
	first := r.random(p)
	second := r.random(p)
	if worst {
		if p.inds[first].BetterThan(p.inds[second]) {
			first, second = second, first
		}
		for i := 2; i < p.cfg.TournamentSize; i++ {
			ith := r.random(p)
			if !p.inds[ith].BetterThan(p.inds[first]) {
				second = first
				first = ith
			} else if p.inds[second].BetterThan(p.inds[ith]) {
				second = ith
			}
		}
	} else {
		if p.inds[second].BetterThan(p.inds[first]) {
			first, second = second, first
		}
		for i := 2; i < p.cfg.TournamentSize; i++ {
			ith := r.random(p)
			if !p.inds[first].BetterThan(p.inds[ith]) {
				second = first
				first = ith
			} else if p.inds[ith].BetterThan(p.inds[second]) {
				second = ith
			}
		}
	}
	dst[0] = first
	if n == 2 {
		dst[1] = second
	}
}

// sumSpanFitness recomputes the standardized and adjusted fitness sums over
// the range when the range is freshly entered.
func (p *Population) sumSpanFitness(r *span) {
	if !r.fresh {
		return
	}
	r.fresh = false
	p.sumFitness = 0.0
	p.sumAdjFitness = 0.0
	for i := r.start; i < r.end; i++ {
		p.sumFitness += p.inds[i].StdFitness
		p.sumAdjFitness += p.inds[i].AdjFitness
	}
}

// probabilisticSelect is roulette selection: adjusted fitness weights the
// draw toward the best, standardized fitness toward the worst. Rounding
// overshoot clamps to the last index of the range.
func (p *Population) probabilisticSelect(dst []int, n int, worst bool, r *span) {
	p.sumSpanFitness(r)
	for k := 0; k < n; k++ {
		spin := p.rng.Float64()
		sum := 0.0
		i := r.start
		if worst {
			spin *= p.sumFitness
			for ; i < r.end; i++ {
				sum += p.inds[i].StdFitness
				if sum >= spin {
					break
				}
			}
		} else {
			spin *= p.sumAdjFitness
			for ; i < r.end; i++ {
				sum += p.inds[i].AdjFitness
				if sum >= spin {
					break
				}
			}
		}
		if i >= r.end {
			i = r.end - 1
		}
		dst[k] = i
	}
}

// groupIFraction is Koza's c constant for greedy over-selection: 0.32 up to
// population 1000, then 320/size.
func groupIFraction(size int) float64 {
	if size <= 1000 {
		return 0.32
	}
	return 320.0 / float64(size)
}

// calcCutoffFitness binary-searches the adjusted-fitness boundary that puts
// a fraction c of the total adjusted fitness into the high-fitness group I.
// The search stops within 0.005 of c or after 20 halvings.
func (p *Population) calcCutoffFitness(r *span) {
	c := groupIFraction(r.end - r.start)
	lo, hi := 0.0, 1.0
	for tries := 0; ; tries++ {
		p.cutoffAdjFitness = (lo + hi) / 2.0
		p.sumG1AdjFitness = 0.0
		for i := r.start; i < r.end; i++ {
			if f := p.inds[i].AdjFitness; f > p.cutoffAdjFitness {
				p.sumG1AdjFitness += f
			}
		}
		norm := p.sumG1AdjFitness / p.sumAdjFitness
		if norm-c < 0.005 && c-norm < 0.005 {
			break
		}
		if norm < c {
			hi = p.cutoffAdjFitness
		} else {
			lo = p.cutoffAdjFitness
		}
		if tries >= 20 {
			break
		}
	}
	p.sumG2AdjFitness = p.sumAdjFitness - p.sumG1AdjFitness
}

// greedySelect implements Koza's greedy over-selection: 80% of best draws
// come from group I and the rest from group II, each by roulette on
// adjusted fitness. Worst draws fall back to plain roulette, which finds
// lethals well enough.
func (p *Population) greedySelect(dst []int, n int, worst bool, r *span) {
	if r.fresh {
		p.sumSpanFitness(r)
		p.calcCutoffFitness(r)
	}
	for k := 0; k < n; k++ {
		spin := p.rng.Float64()
		sum := 0.0
		i := r.start
		switch {
		case worst:
			spin *= p.sumFitness
			for ; i < r.end; i++ {
				sum += p.inds[i].StdFitness
				if sum >= spin {
					break
				}
			}
		case flip(p.rng, 80.0):
			spin *= p.sumG1AdjFitness
			for ; i < r.end; i++ {
				if f := p.inds[i].AdjFitness; f > p.cutoffAdjFitness {
					sum += f
					if sum >= spin {
						break
					}
				}
			}
		default:
			spin *= p.sumG2AdjFitness
			for ; i < r.end; i++ {
				if f := p.inds[i].AdjFitness; f <= p.cutoffAdjFitness {
					sum += f
					if sum >= spin {
						break
					}
				}
			}
		}
		if i >= r.end {
			i = r.end - 1
		}
		dst[k] = i
	}
}

// selectClones returns one or two fitness-selected deep copies with their
// parentage recorded: one for reproduction, two for crossover.
func (p *Population) selectClones(n int, r *span) ([]*Individual, error) {
	var idx [2]int
	if err := p.selectIndices(idx[:n], n, false, r); err != nil {
		return nil, err
	}
	if n == 1 {
		c := p.inds[idx[0]].Clone()
		c.DadIndex = idx[0]
		return []*Individual{c}, nil
	}
	dad := p.inds[idx[0]].Clone()
	dad.DadIndex = idx[0]
	dad.MumIndex = idx[1]
	mum := p.inds[idx[1]].Clone()
	mum.DadIndex = idx[1]
	mum.MumIndex = idx[0]
	return []*Individual{dad, mum}, nil
}
