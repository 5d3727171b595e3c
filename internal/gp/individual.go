package gp

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand"
)

const crossoverTries = 50

// Individual is one member of the population: a tree per branch, the two
// fitness values, and the lineage record of the operations that produced
// it. Lineage fields hold -1 when the operation did not apply.
type Individual struct {
	Trees []*Gene

	StdFitness float64
	AdjFitness float64

	DadIndex int
	MumIndex int

	CrossTree int
	DadCross  int
	MumCross  int

	SwapTree int
	SwapPos  int

	ShrinkTree int
	ShrinkPos  int
}

func NewIndividual(branches int) *Individual {
	ind := &Individual{Trees: make([]*Gene, branches)}
	ind.clearLineage()
	return ind
}

func (ind *Individual) clearLineage() {
	ind.DadIndex = -1
	ind.MumIndex = -1
	ind.CrossTree = -1
	ind.DadCross = -1
	ind.MumCross = -1
	ind.SwapTree = -1
	ind.SwapPos = -1
	ind.ShrinkTree = -1
	ind.ShrinkPos = -1
}

// Size returns the total node count over all branches.
func (ind *Individual) Size() int {
	n := 0
	for _, t := range ind.Trees {
		if t != nil {
			n += t.Size()
		}
	}
	return n
}

// Depth returns the depth of the deepest branch.
func (ind *Individual) Depth() int {
	max := 0
	for _, t := range ind.Trees {
		if t == nil {
			continue
		}
		if d := t.Depth(); d > max {
			max = d
		}
	}
	return max
}

// Clone deep-copies the trees and fitness values. Lineage is reset; the
// caller records new parentage when the clone enters evolution.
func (ind *Individual) Clone() *Individual {
	c := NewIndividual(len(ind.Trees))
	for i, t := range ind.Trees {
		if t != nil {
			c.Trees[i] = t.Clone()
		}
	}
	c.StdFitness = ind.StdFitness
	c.AdjFitness = ind.AdjFitness
	return c
}

// SetFitness stores the standardized fitness and derives the adjusted
// fitness 1/(1+std) used by probabilistic selection.
func (ind *Individual) SetFitness(std float64) {
	ind.StdFitness = std
	ind.AdjFitness = 1.0 / (1.0 + std)
}

// BetterThan reports whether ind strictly beats o: lower standardized
// fitness wins, equal fitness resolved toward the smaller individual.
func (ind *Individual) BetterThan(o *Individual) bool {
	if ind.StdFitness != o.StdFitness {
		return ind.StdFitness < o.StdFitness
	}
	return ind.Size() < o.Size()
}

// Equal reports structural equality of every branch.
func (ind *Individual) Equal(o *Individual) bool {
	if len(ind.Trees) != len(o.Trees) {
		return false
	}
	for i, t := range ind.Trees {
		if !t.Equal(o.Trees[i]) {
			return false
		}
	}
	return true
}

// Hash digests all branches so the diversity table can bucket individuals
// by content.
func (ind *Individual) Hash() uint64 {
	h := fnv.New64a()
	buf := make([]byte, 8)
	for _, t := range ind.Trees {
		binary.BigEndian.PutUint64(buf, uint64(0x5b))
		h.Write(buf)
		if t != nil {
			t.hashInto(h, buf)
		}
	}
	return h.Sum64()
}

// create builds every branch of a fresh individual. maxSize bounds the
// combined node count; the returned total may exceed it, in which case the
// caller rejects the individual.
func (ind *Individual) create(rng *rand.Rand, mode CreationType, maxDepth, maxSize int, branches BranchSet) int {
	total := 0
	for i, ns := range branches {
		g, size := growTree(rng, mode, maxDepth, maxSize-total, ns)
		ind.Trees[i] = g
		total += size
		if total > maxSize {
			break
		}
	}
	return total
}

// cross swaps subtrees between two already-cloned parents at a uniformly
// chosen branch. Cut points prefer function nodes. If no cut pair keeps
// both offspring within the depth and complexity limits after a bounded
// number of attempts, the clones pass through unmodified; the cut-point
// lineage fields then stay -1.
func cross(rng *rand.Rand, dad, mum *Individual, maxDepth, maxComplexity int) {
	branch := rng.Intn(len(dad.Trees))
	for try := 0; try < crossoverTries; try++ {
		dref := dad.pickAnyNode(rng, branch)
		mref := mum.pickAnyNode(rng, branch)
		dg, mg := dref.gene(), mref.gene()
		dref.put(mg)
		mref.put(dg)
		if dad.Trees[branch].Depth() <= maxDepth && dad.Size() <= maxComplexity &&
			mum.Trees[branch].Depth() <= maxDepth && mum.Size() <= maxComplexity {
			dad.CrossTree = branch
			dad.DadCross = dref.ordinal
			dad.MumCross = mref.ordinal
			mum.CrossTree = branch
			mum.DadCross = mref.ordinal
			mum.MumCross = dref.ordinal
			return
		}
		dref.put(dg)
		mref.put(mg)
	}
}

// swapMutate replaces the node type at a random point (function preferred)
// with a same-arity node from the branch catalog, keeping the children.
func (ind *Individual) swapMutate(rng *rand.Rand, branches BranchSet) {
	branch := rng.Intn(len(ind.Trees))
	ref := ind.pickAnyNode(rng, branch)
	g := ref.gene()
	n := branches[branch].NodeWithArity(rng, g.node.Arity)
	if n == nil {
		return
	}
	g.node = n
	ind.SwapTree = branch
	ind.SwapPos = ref.ordinal
}

// shrinkMutate replaces a random function node with one of its own
// children. A branch without functions is left alone.
func (ind *Individual) shrinkMutate(rng *rand.Rand) {
	branch := rng.Intn(len(ind.Trees))
	ref, ok := ind.pickFunctionNode(rng, branch)
	if !ok {
		return
	}
	g := ref.gene()
	ref.put(g.children[rng.Intn(len(g.children))])
	ind.ShrinkTree = branch
	ind.ShrinkPos = ref.ordinal
}

// mutate applies the two mutation operators behind independent probability
// gates. It runs on every offspring after evolution, before evaluation.
func (ind *Individual) mutate(rng *rand.Rand, cfg *Config, branches BranchSet) {
	if flip(rng, cfg.SwapMutationProbability) {
		ind.swapMutate(rng, branches)
	}
	if flip(rng, cfg.ShrinkMutationProbability) {
		ind.shrinkMutate(rng)
	}
}

// Validate confirms every branch tree is complete, with child counts
// matching node arities throughout.
func (ind *Individual) Validate() error {
	for _, t := range ind.Trees {
		if err := validateComplete(t); err != nil {
			return err
		}
	}
	return nil
}
