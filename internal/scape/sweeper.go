package scape

import "math/rand"

// stepBudget bounds how many instructions one trial may execute before the
// program is cut off.
const stepBudget = 1000

// sweeper is the cursor automaton a program steers over one board. It
// starts in the northwest corner with a fresh step counter.
type sweeper struct {
	grid   *Grid
	rowPos int
	colPos int
	steps  int
}

func newSweeper(rng *rand.Rand, cfg Config) *sweeper {
	return &sweeper{grid: NewGrid(rng, cfg.WorldWidth, cfg.WorldHeight, cfg.NumMines)}
}

// move shifts the cursor by one of the eight compass directions, clamping
// at the board edge. The switch intentionally falls through: direction n
// also applies every displacement below it, so low directions drift the
// cursor toward the southeast. Solvers evolve around this behavior.
// TODO: introduce a config switch for strict single-displacement moves.
func (s *sweeper) move(direction int) {
	switch direction {
	case 0:
		s.rowPos--
		s.colPos--
		fallthrough
	case 1:
		s.rowPos--
		fallthrough
	case 2:
		s.rowPos--
		s.colPos++
		fallthrough
	case 3:
		s.colPos--
		fallthrough
	case 4:
		s.colPos++
		fallthrough
	case 5:
		s.rowPos++
		s.colPos--
		fallthrough
	case 6:
		s.rowPos++
		fallthrough
	case 7:
		s.rowPos++
		s.colPos++
	}

	if s.rowPos < 0 {
		s.rowPos = 0
	}
	if s.colPos < 0 {
		s.colPos = 0
	}
	if s.rowPos >= s.grid.Width() {
		s.rowPos = s.grid.Width() - 1
	}
	if s.colPos >= s.grid.Height() {
		s.colPos = s.grid.Height() - 1
	}
}
