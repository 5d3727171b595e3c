package main

import (
	"github.com/strburst/MinesweeperX/internal/config"
	"github.com/strburst/MinesweeperX/internal/gp"
	"github.com/strburst/MinesweeperX/internal/scape"
	"github.com/strburst/MinesweeperX/pkg/msx"
)

// loadRunRequest builds a run request from a parameter file. With no path
// every parameter keeps its default. A sparse file only overrides the keys
// it names.
func loadRunRequest(path string) (msx.RunRequest, error) {
	src := config.Empty()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return msx.RunRequest{}, err
		}
		src = loaded
	}
	return requestFromSource(src)
}

func requestFromSource(src *config.Source) (msx.RunRequest, error) {
	cfg := gp.DefaultConfig()
	cfg.PopulationSize = src.Int("PopulationSize", cfg.PopulationSize)
	cfg.NumberOfGenerations = src.Int("NumberOfGenerations", cfg.NumberOfGenerations)
	cfg.CrossoverProbability = src.Float("CrossoverProbability", cfg.CrossoverProbability)
	cfg.CreationProbability = src.Float("CreationProbability", cfg.CreationProbability)
	cfg.MaxDepthForCreation = src.Int("MaxDepthForCreation", cfg.MaxDepthForCreation)
	cfg.MaxDepthForCrossover = src.Int("MaxDepthForCrossover", cfg.MaxDepthForCrossover)
	cfg.MaxComplexity = src.Int("MaxComplexity", cfg.MaxComplexity)
	cfg.TournamentSize = src.Int("TournamentSize", cfg.TournamentSize)
	cfg.DemeticGrouping = src.Bool("DemeticGrouping", cfg.DemeticGrouping)
	cfg.DemeSize = src.Int("DemeSize", cfg.DemeSize)
	cfg.DemeticMigProbability = src.Float("DemeticMigProbability", cfg.DemeticMigProbability)
	cfg.TerminationFitness = src.Float("TerminationFitness", cfg.TerminationFitness)
	cfg.GoodRuns = src.Int("GoodRuns", cfg.GoodRuns)
	cfg.SwapMutationProbability = src.Float("SwapMutationProbability", cfg.SwapMutationProbability)
	cfg.ShrinkMutationProbability = src.Float("ShrinkMutationProbability", cfg.ShrinkMutationProbability)
	cfg.AddBestToNewPopulation = src.Bool("AddBestToNewPopulation", cfg.AddBestToNewPopulation)
	cfg.SteadyState = src.Bool("SteadyState", cfg.SteadyState)
	cfg.CheckpointGens = src.Int("CheckpointGens", cfg.CheckpointGens)
	cfg.PrintDetails = src.Bool("PrintDetails", cfg.PrintDetails)
	cfg.PrintPopulation = src.Bool("PrintPopulation", cfg.PrintPopulation)
	cfg.PrintExpression = src.Bool("PrintExpression", cfg.PrintExpression)
	cfg.PrintTree = src.Bool("PrintTree", cfg.PrintTree)
	cfg.UseADFs = src.Bool("UseADFs", cfg.UseADFs)
	cfg.TestDiversity = src.Bool("TestDiversity", cfg.TestDiversity)
	cfg.ComplexityAffectsFitness = src.Bool("ComplexityAffectsFitness", cfg.ComplexityAffectsFitness)
	if src.Has("CreationType") {
		t, err := gp.ParseCreationType(src.Str("CreationType", ""))
		if err != nil {
			return msx.RunRequest{}, err
		}
		cfg.CreationType = t
	}
	if src.Has("SelectionType") {
		t, err := gp.ParseSelectionType(src.Str("SelectionType", ""))
		if err != nil {
			return msx.RunRequest{}, err
		}
		cfg.SelectionType = t
	}

	world := scape.DefaultConfig()
	world.WorldWidth = src.Int("WorldWidth", world.WorldWidth)
	world.WorldHeight = src.Int("WorldHeight", world.WorldHeight)
	world.NumMines = src.Int("NumMines", world.NumMines)
	world.TrialsPerProgram = src.Int("TrialsPerProgram", world.TrialsPerProgram)
	world.ComplexityAffectsFitness = cfg.ComplexityAffectsFitness

	return msx.RunRequest{
		BaseName: src.Str("BaseName", ""),
		Seed:     src.Int64("Seed", 0),
		MaxRuns:  src.Int("MaxRuns", 0),
		GP:       cfg,
		World:    world,
	}, nil
}

func overrideFromFlags(req *msx.RunRequest, set map[string]bool, flagValue map[string]any) error {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "base":
			req.BaseName = v.(string)
		case "seed":
			req.Seed = v.(int64)
		case "max-runs":
			req.MaxRuns = v.(int)
		case "pop":
			req.GP.PopulationSize = v.(int)
		case "gens":
			req.GP.NumberOfGenerations = v.(int)
		case "creation":
			t, err := gp.ParseCreationType(v.(string))
			if err != nil {
				return err
			}
			req.GP.CreationType = t
		case "selection":
			t, err := gp.ParseSelectionType(v.(string))
			if err != nil {
				return err
			}
			req.GP.SelectionType = t
		case "tournament":
			req.GP.TournamentSize = v.(int)
		case "crossover":
			req.GP.CrossoverProbability = v.(float64)
		case "termination":
			req.GP.TerminationFitness = v.(float64)
		case "good-runs":
			req.GP.GoodRuns = v.(int)
		case "swap-mutation":
			req.GP.SwapMutationProbability = v.(float64)
		case "shrink-mutation":
			req.GP.ShrinkMutationProbability = v.(float64)
		case "steady-state":
			req.GP.SteadyState = v.(bool)
		case "deme-size":
			req.GP.DemeSize = v.(int)
			req.GP.DemeticGrouping = v.(int) > 0
		case "checkpoint-gens":
			req.GP.CheckpointGens = v.(int)
		case "print-tree":
			req.GP.PrintTree = v.(bool)
		case "complexity-fitness":
			req.GP.ComplexityAffectsFitness = v.(bool)
			req.World.ComplexityAffectsFitness = v.(bool)
		case "width":
			req.World.WorldWidth = v.(int)
		case "height":
			req.World.WorldHeight = v.(int)
		case "mines":
			req.World.NumMines = v.(int)
		case "trials":
			req.World.TrialsPerProgram = v.(int)
		}
	}
	return nil
}
