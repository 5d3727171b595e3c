package scape

import (
	"fmt"
	"math/rand"

	"github.com/strburst/MinesweeperX/internal/gp"
)

// Instruction opcodes. These are the node values solvers are built from;
// their numbering is fixed by the checkpoint format.
const (
	OpMove = iota // move the cursor in the direction of the argument
	OpUncover
	OpMark
	OpUnmark
	OpNum // adjacent-mine count at the cursor
	OpProg2
	OpProg3
	OpIfCovered // covered cursor: run arg 0, else arg 1
	OpZero
	OpOne
	OpTwo
	OpThree
	OpFour
	OpFive
	OpSix
	OpSeven
)

// Config carries the world parameters for the evaluator.
type Config struct {
	WorldWidth       int
	WorldHeight      int
	NumMines         int
	TrialsPerProgram int

	// ComplexityAffectsFitness folds tree size into the score to favor
	// small solvers.
	ComplexityAffectsFitness bool
}

func DefaultConfig() Config {
	return Config{
		WorldWidth:       10,
		WorldHeight:      10,
		NumMines:         8,
		TrialsPerProgram: 25,
	}
}

func (c Config) validate() error {
	if c.WorldWidth < 1 || c.WorldHeight < 1 {
		return fmt.Errorf("invalid world size %dx%d", c.WorldWidth, c.WorldHeight)
	}
	if c.NumMines < 0 || c.NumMines >= c.WorldWidth*c.WorldHeight {
		return fmt.Errorf("%d mines do not fit a %dx%d world",
			c.NumMines, c.WorldWidth, c.WorldHeight)
	}
	if c.TrialsPerProgram < 1 {
		return fmt.Errorf("TrialsPerProgram must be at least 1, have %d", c.TrialsPerProgram)
	}
	return nil
}

// Nodes returns the instruction catalog for a solver's single branch.
func Nodes() (gp.BranchSet, error) {
	ns := gp.NewNodeSet(16)
	for _, n := range []*gp.Node{
		{Value: OpMove, Name: "mov", Arity: 1},
		{Value: OpUncover, Name: "unc"},
		{Value: OpMark, Name: "mrk"},
		{Value: OpUnmark, Name: "unmrk"},
		{Value: OpIfCovered, Name: "ifcov", Arity: 2},
		{Value: OpNum, Name: "num"},
		{Value: OpProg2, Name: "prog2", Arity: 2},
		{Value: OpProg3, Name: "prog3", Arity: 3},
		{Value: OpZero, Name: "zer"},
		{Value: OpOne, Name: "one"},
		{Value: OpTwo, Name: "two"},
		{Value: OpThree, Name: "thr"},
		{Value: OpFour, Name: "fou"},
		{Value: OpFive, Name: "fiv"},
		{Value: OpSix, Name: "six"},
		{Value: OpSeven, Name: "sev"},
	} {
		if err := ns.Add(n); err != nil {
			return nil, err
		}
	}
	return gp.BranchSet{ns}, nil
}

// Evaluator scores solver programs. Each evaluation runs the result branch
// on TrialsPerProgram fresh boards until the board is decided or the step
// budget runs out, and averages the count of safe cells left covered.
type Evaluator struct {
	cfg Config
	rng *rand.Rand
}

func NewEvaluator(cfg Config, rng *rand.Rand) (*Evaluator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("nil random source")
	}
	return &Evaluator{cfg: cfg, rng: rng}, nil
}

func (e *Evaluator) Evaluate(ind *gp.Individual) (float64, error) {
	std := 0.0
	for t := 0; t < e.cfg.TrialsPerProgram; t++ {
		s := newSweeper(e.rng, e.cfg)
		for s.steps < stepBudget && !s.grid.GameOver() && !s.grid.Won() {
			if _, err := e.exec(s, ind.Trees[0]); err != nil {
				return 0, err
			}
		}
		std += float64(s.grid.Unrevealed())
	}
	if e.cfg.ComplexityAffectsFitness {
		std += float64(ind.Size()) / 1000.0
	}
	return std / float64(e.cfg.TrialsPerProgram), nil
}

// exec interprets one instruction node. Children evaluate left to right;
// the returned value is only meaningful for direction terminals and the
// prog sums.
func (e *Evaluator) exec(s *sweeper, g *gp.Gene) (int, error) {
	s.steps++

	switch v := g.Node().Value; v {
	case OpMove:
		d, err := e.exec(s, g.Child(0))
		if err != nil {
			return 0, err
		}
		s.move(d)
		return 0, nil

	case OpUncover:
		s.grid.Reveal(s.rowPos, s.colPos)
		return 0, nil

	case OpMark:
		s.grid.Flag(s.rowPos, s.colPos)
		return 0, nil

	case OpUnmark:
		s.grid.Unflag(s.rowPos, s.colPos)
		return 0, nil

	case OpNum:
		s.grid.AdjacentMines(s.rowPos, s.colPos)
		return 0, nil

	case OpIfCovered:
		if !s.grid.Revealed(s.rowPos, s.colPos) {
			return e.exec(s, g.Child(0))
		}
		return e.exec(s, g.Child(1))

	case OpProg2, OpProg3:
		sum := 0
		for i := 0; i < g.ChildCount(); i++ {
			r, err := e.exec(s, g.Child(i))
			if err != nil {
				return 0, err
			}
			sum += r
		}
		return sum, nil

	default:
		if v >= OpZero && v <= OpSeven {
			return v - OpZero, nil
		}
		return 0, fmt.Errorf("undefined instruction %d", v)
	}
}
