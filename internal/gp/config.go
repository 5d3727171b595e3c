package gp

import "fmt"

// CreationType selects the tree-building schedule used while filling the
// initial population.
type CreationType int32

const (
	CreateVariable CreationType = iota
	CreateGrow
	CreateRampedHalf
	CreateRampedVariable
	CreateRampedGrow
)

func (t CreationType) String() string {
	switch t {
	case CreateVariable:
		return "Variable"
	case CreateGrow:
		return "Grow"
	case CreateRampedHalf:
		return "RampedHalf"
	case CreateRampedVariable:
		return "RampedVariable"
	case CreateRampedGrow:
		return "RampedGrow"
	}
	return fmt.Sprintf("CreationType(%d)", int32(t))
}

// ParseCreationType maps a configuration string to its CreationType.
func ParseCreationType(s string) (CreationType, error) {
	for _, t := range []CreationType{CreateVariable, CreateGrow, CreateRampedHalf, CreateRampedVariable, CreateRampedGrow} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown creation type %q", s)
}

// SelectionType selects the parent-selection strategy.
type SelectionType int32

const (
	SelectProbabilistic SelectionType = iota
	SelectTournament
	SelectGreedy
)

func (t SelectionType) String() string {
	switch t {
	case SelectProbabilistic:
		return "Probabilistic"
	case SelectTournament:
		return "Tournament"
	case SelectGreedy:
		return "Greedy"
	}
	return fmt.Sprintf("SelectionType(%d)", int32(t))
}

func ParseSelectionType(s string) (SelectionType, error) {
	for _, t := range []SelectionType{SelectProbabilistic, SelectTournament, SelectGreedy} {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown selection type %q", s)
}

// Config holds every run parameter. It is a plain comparable struct so a
// restored checkpoint can be checked field for field against the current
// run with ==.
type Config struct {
	PopulationSize       int
	NumberOfGenerations  int
	CrossoverProbability float64
	CreationProbability  float64
	CreationType         CreationType
	MaxDepthForCreation  int
	MaxDepthForCrossover int
	MaxComplexity        int
	SelectionType        SelectionType
	TournamentSize       int

	DemeticGrouping       bool
	DemeSize              int
	DemeticMigProbability float64

	TerminationFitness float64
	GoodRuns           int

	SwapMutationProbability   float64
	ShrinkMutationProbability float64

	AddBestToNewPopulation bool
	SteadyState            bool

	CheckpointGens int

	PrintDetails    bool
	PrintPopulation bool
	PrintExpression bool
	PrintTree       bool

	UseADFs                  bool
	TestDiversity            bool
	ComplexityAffectsFitness bool
}

// DefaultConfig returns the conventional baseline parameters.
func DefaultConfig() *Config {
	return &Config{
		PopulationSize:            100,
		NumberOfGenerations:       100,
		CrossoverProbability:      90.0,
		CreationProbability:       0.0,
		CreationType:              CreateRampedHalf,
		MaxDepthForCreation:       6,
		MaxDepthForCrossover:      17,
		MaxComplexity:             200,
		SelectionType:             SelectTournament,
		TournamentSize:            7,
		DemeticGrouping:           false,
		DemeSize:                  100,
		DemeticMigProbability:     100.0,
		TerminationFitness:        0.0,
		GoodRuns:                  1,
		SwapMutationProbability:   0.0,
		ShrinkMutationProbability: 0.0,
		AddBestToNewPopulation:    false,
		SteadyState:               false,
		CheckpointGens:            0,
		PrintDetails:              false,
		PrintPopulation:           false,
		PrintExpression:           true,
		PrintTree:                 false,
		UseADFs:                   false,
		TestDiversity:             true,
		ComplexityAffectsFitness:  false,
	}
}

// Validate rejects parameter combinations the engine cannot run with. It
// also normalizes demetic grouping: greedy over-selection operates on the
// whole population, so grouping is forced off, and a deme size of at least
// 2 that divides the population is required when grouping stays on.
func (c *Config) Validate() error {
	if c.NumberOfGenerations < 1 {
		return fmt.Errorf("NumberOfGenerations must be at least 1, have %d", c.NumberOfGenerations)
	}
	if c.PopulationSize < 2 {
		return fmt.Errorf("PopulationSize must be at least 2, have %d", c.PopulationSize)
	}
	if c.MaxDepthForCreation < 1 {
		return fmt.Errorf("MaxDepthForCreation must be at least 1, have %d", c.MaxDepthForCreation)
	}
	if c.MaxDepthForCrossover < c.MaxDepthForCreation {
		return fmt.Errorf("MaxDepthForCrossover %d is less than MaxDepthForCreation %d",
			c.MaxDepthForCrossover, c.MaxDepthForCreation)
	}
	if c.MaxComplexity < 1 {
		return fmt.Errorf("MaxComplexity must be at least 1, have %d", c.MaxComplexity)
	}
	switch c.SelectionType {
	case SelectProbabilistic:
	case SelectTournament:
		if c.TournamentSize < 2 {
			return fmt.Errorf("TournamentSize must be at least 2, have %d", c.TournamentSize)
		}
	case SelectGreedy:
		c.DemeticGrouping = false
	default:
		return fmt.Errorf("unknown selection type %d", c.SelectionType)
	}
	if c.DemeticGrouping {
		if c.DemeSize < 2 {
			return fmt.Errorf("DemeSize must be at least 2, have %d", c.DemeSize)
		}
		if c.PopulationSize%c.DemeSize != 0 {
			return fmt.Errorf("DemeSize %d does not divide PopulationSize %d",
				c.DemeSize, c.PopulationSize)
		}
	}
	if c.GoodRuns < 1 {
		return fmt.Errorf("GoodRuns must be at least 1, have %d", c.GoodRuns)
	}
	return nil
}

// Equal reports field-for-field equality with another config.
func (c *Config) Equal(o *Config) bool {
	if c == nil || o == nil {
		return c == o
	}
	return *c == *o
}
