package stream

import (
	"fmt"

	"github.com/strburst/MinesweeperX/internal/gp"
)

// maxContainerSize limits every container except the population, whose
// size is written as a full int32.
const maxContainerSize = 255

// Codec encodes and decodes the checkpoint object graph against a fixed
// node catalog. Genes are stored as a single index into the catalog
// flattened in branch order, so the whole catalog may hold at most 256
// nodes.
type Codec struct {
	reg      *Registry
	branches gp.BranchSet
	nodes    []*gp.Node
	index    map[*gp.Node]int
}

func NewCodec(reg *Registry, branches gp.BranchSet) (*Codec, error) {
	if reg == nil {
		return nil, fmt.Errorf("nil registry")
	}
	c := &Codec{reg: reg, branches: branches, index: make(map[*gp.Node]int)}
	for _, ns := range branches {
		for i := 0; i < ns.Len(); i++ {
			n := ns.At(i)
			if n == nil {
				continue
			}
			if _, ok := c.index[n]; ok {
				continue
			}
			c.index[n] = len(c.nodes)
			c.nodes = append(c.nodes, n)
		}
	}
	if len(c.nodes) > maxContainerSize+1 {
		return nil, fmt.Errorf("catalog holds %d nodes, stream node index is limited to 256", len(c.nodes))
	}
	return c, nil
}

func (c *Codec) encodeNode(w *writer, n *gp.Node) {
	w.i32(int32(n.Value))
	w.i32(int32(n.Arity))
	w.str(n.Name)
}

func decodeNodeElem(c *Codec, r *reader) (any, error) {
	n := &gp.Node{}
	n.Value = int(r.i32())
	n.Arity = int(r.i32())
	n.Name = r.str()
	return n, r.err
}

func (c *Codec) encodeNodeSet(w *writer, ns *gp.NodeSet) {
	w.tag(TagNodeSet)
	if ns.Len() > maxContainerSize {
		if w.err == nil {
			w.err = fmt.Errorf("node set holds %d slots, containers are limited to %d",
				ns.Len(), maxContainerSize)
		}
		return
	}
	w.byte(byte(ns.Len()))
	for i := 0; i < ns.Len(); i++ {
		n := ns.At(i)
		if n == nil {
			w.tag(TagNil)
			continue
		}
		w.tag(TagNode)
		c.encodeNode(w, n)
	}
}

// decodeNodeSetElem rebuilds the set from the slot image directly instead
// of re-Adding the nodes: Add packs terminals back to front, so replaying
// it over an already packed image would reverse the terminal group and the
// restored set would no longer compare equal to the one it was written
// from.
func decodeNodeSetElem(c *Codec, r *reader) (any, error) {
	size := int(r.byte())
	if r.err != nil {
		return nil, r.err
	}
	slots := make([]*gp.Node, size)
	for i := 0; i < size; i++ {
		t := r.tag()
		if r.err != nil {
			return nil, r.err
		}
		if t == TagNil {
			continue
		}
		if t != TagNode {
			return nil, fmt.Errorf("%w: tag %d inside node set", ErrCorruptStream, t)
		}
		elem, err := c.reg.decode(c, r, t)
		if err != nil {
			return nil, err
		}
		slots[i] = elem.(*gp.Node)
	}
	ns, err := gp.RestoreNodeSet(slots)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	return ns, r.err
}

func (c *Codec) encodeBranchSet(w *writer, bs gp.BranchSet) {
	w.tag(TagBranchSet)
	if len(bs) > maxContainerSize {
		if w.err == nil {
			w.err = fmt.Errorf("branch set holds %d branches, containers are limited to %d",
				len(bs), maxContainerSize)
		}
		return
	}
	w.byte(byte(len(bs)))
	for _, ns := range bs {
		if ns == nil {
			w.tag(TagNil)
			continue
		}
		c.encodeNodeSet(w, ns)
	}
}

func (c *Codec) decodeBranchSet(r *reader) (gp.BranchSet, error) {
	r.expect(TagBranchSet)
	size := int(r.byte())
	if r.err != nil {
		return nil, r.err
	}
	bs := make(gp.BranchSet, size)
	for i := 0; i < size; i++ {
		t := r.tag()
		if r.err != nil {
			return nil, r.err
		}
		if t == TagNil {
			// nil branches are legal in streams; population
			// construction rejects them later
			continue
		}
		if t != TagNodeSet {
			return nil, fmt.Errorf("%w: tag %d inside branch set", ErrCorruptStream, t)
		}
		elem, err := c.reg.decode(c, r, t)
		if err != nil {
			return nil, err
		}
		bs[i] = elem.(*gp.NodeSet)
	}
	return bs, r.err
}

func (c *Codec) encodeConfig(w *writer, cfg *gp.Config) {
	w.tag(TagConfig)
	w.i32(int32(cfg.PopulationSize))
	w.i32(int32(cfg.NumberOfGenerations))
	w.f64(cfg.CrossoverProbability)
	w.f64(cfg.CreationProbability)
	w.i32(int32(cfg.CreationType))
	w.i32(int32(cfg.MaxDepthForCreation))
	w.i32(int32(cfg.MaxDepthForCrossover))
	w.i32(int32(cfg.MaxComplexity))
	w.i32(int32(cfg.SelectionType))
	w.i32(int32(cfg.TournamentSize))
	w.bool(cfg.DemeticGrouping)
	w.i32(int32(cfg.DemeSize))
	w.f64(cfg.DemeticMigProbability)
	w.f64(cfg.TerminationFitness)
	w.i32(int32(cfg.GoodRuns))
	w.f64(cfg.SwapMutationProbability)
	w.f64(cfg.ShrinkMutationProbability)
	w.bool(cfg.AddBestToNewPopulation)
	w.bool(cfg.SteadyState)
	w.i32(int32(cfg.CheckpointGens))
	w.bool(cfg.PrintDetails)
	w.bool(cfg.PrintPopulation)
	w.bool(cfg.PrintExpression)
	w.bool(cfg.PrintTree)
	w.bool(cfg.UseADFs)
	w.bool(cfg.TestDiversity)
	w.bool(cfg.ComplexityAffectsFitness)
}

func (c *Codec) decodeConfig(r *reader) (*gp.Config, error) {
	r.expect(TagConfig)
	cfg := &gp.Config{}
	cfg.PopulationSize = int(r.i32())
	cfg.NumberOfGenerations = int(r.i32())
	cfg.CrossoverProbability = r.f64()
	cfg.CreationProbability = r.f64()
	cfg.CreationType = gp.CreationType(r.i32())
	cfg.MaxDepthForCreation = int(r.i32())
	cfg.MaxDepthForCrossover = int(r.i32())
	cfg.MaxComplexity = int(r.i32())
	cfg.SelectionType = gp.SelectionType(r.i32())
	cfg.TournamentSize = int(r.i32())
	cfg.DemeticGrouping = r.bool()
	cfg.DemeSize = int(r.i32())
	cfg.DemeticMigProbability = r.f64()
	cfg.TerminationFitness = r.f64()
	cfg.GoodRuns = int(r.i32())
	cfg.SwapMutationProbability = r.f64()
	cfg.ShrinkMutationProbability = r.f64()
	cfg.AddBestToNewPopulation = r.bool()
	cfg.SteadyState = r.bool()
	cfg.CheckpointGens = int(r.i32())
	cfg.PrintDetails = r.bool()
	cfg.PrintPopulation = r.bool()
	cfg.PrintExpression = r.bool()
	cfg.PrintTree = r.bool()
	cfg.UseADFs = r.bool()
	cfg.TestDiversity = r.bool()
	cfg.ComplexityAffectsFitness = r.bool()
	return cfg, r.err
}

func (c *Codec) encodeGene(w *writer, g *gp.Gene) {
	idx, ok := c.index[g.Node()]
	if !ok {
		if w.err == nil {
			w.err = fmt.Errorf("node %q is not in the codec catalog", g.Node().Name)
		}
		return
	}
	w.byte(byte(idx))
	w.tag(TagGene)
	w.byte(byte(g.ChildCount()))
	for i := 0; i < g.ChildCount(); i++ {
		ch := g.Child(i)
		if ch == nil {
			w.tag(TagNil)
			continue
		}
		w.tag(TagGene)
		c.encodeGene(w, ch)
	}
}

func decodeGeneElem(c *Codec, r *reader) (any, error) {
	idx := int(r.byte())
	if r.err != nil {
		return nil, r.err
	}
	if idx >= len(c.nodes) {
		return nil, fmt.Errorf("%w: node index %d outside catalog of %d",
			ErrCorruptStream, idx, len(c.nodes))
	}
	n := c.nodes[idx]
	g := gp.NewGene(n)
	r.expect(TagGene)
	size := int(r.byte())
	if r.err != nil {
		return nil, r.err
	}
	if size != n.Arity {
		return nil, fmt.Errorf("%w: node %q carries %d children, arity is %d",
			ErrCorruptStream, n.Name, size, n.Arity)
	}
	for i := 0; i < size; i++ {
		t := r.tag()
		if r.err != nil {
			return nil, r.err
		}
		if t != TagGene {
			return nil, fmt.Errorf("%w: tag %d inside gene", ErrCorruptStream, t)
		}
		elem, err := c.reg.decode(c, r, t)
		if err != nil {
			return nil, err
		}
		g.SetChild(i, elem.(*gp.Gene))
	}
	return g, nil
}

func (c *Codec) encodeIndividual(w *writer, ind *gp.Individual) {
	w.f64(ind.StdFitness)
	w.f64(ind.AdjFitness)
	w.i32(int32(ind.DadIndex))
	w.i32(int32(ind.MumIndex))
	w.i32(int32(ind.CrossTree))
	w.i32(int32(ind.DadCross))
	w.i32(int32(ind.MumCross))
	w.i32(int32(ind.SwapTree))
	w.i32(int32(ind.SwapPos))
	w.i32(int32(ind.ShrinkTree))
	w.i32(int32(ind.ShrinkPos))
	w.tag(TagIndividual)
	w.byte(byte(len(ind.Trees)))
	for _, t := range ind.Trees {
		if t == nil {
			w.tag(TagNil)
			continue
		}
		w.tag(TagGene)
		c.encodeGene(w, t)
	}
}

func decodeIndividualElem(c *Codec, r *reader) (any, error) {
	std := r.f64()
	adj := r.f64()
	lineage := [9]int{}
	for i := range lineage {
		lineage[i] = int(r.i32())
	}
	r.expect(TagIndividual)
	branches := int(r.byte())
	if r.err != nil {
		return nil, r.err
	}
	ind := gp.NewIndividual(branches)
	ind.StdFitness = std
	ind.AdjFitness = adj
	ind.DadIndex = lineage[0]
	ind.MumIndex = lineage[1]
	ind.CrossTree = lineage[2]
	ind.DadCross = lineage[3]
	ind.MumCross = lineage[4]
	ind.SwapTree = lineage[5]
	ind.SwapPos = lineage[6]
	ind.ShrinkTree = lineage[7]
	ind.ShrinkPos = lineage[8]
	for i := 0; i < branches; i++ {
		t := r.tag()
		if r.err != nil {
			return nil, r.err
		}
		if t != TagGene {
			return nil, fmt.Errorf("%w: tag %d for branch tree", ErrCorruptStream, t)
		}
		elem, err := c.reg.decode(c, r, t)
		if err != nil {
			return nil, err
		}
		ind.Trees[i] = elem.(*gp.Gene)
	}
	return ind, nil
}

func (c *Codec) encodePopulation(w *writer, inds []*gp.Individual) {
	w.tag(TagPopulation)
	w.i32(int32(len(inds)))
	for _, ind := range inds {
		if ind == nil {
			w.tag(TagNil)
			continue
		}
		w.tag(TagIndividual)
		c.encodeIndividual(w, ind)
	}
}

func (c *Codec) decodePopulation(r *reader) ([]*gp.Individual, error) {
	r.expect(TagPopulation)
	size := int(r.i32())
	if r.err != nil {
		return nil, r.err
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: negative population size %d", ErrCorruptStream, size)
	}
	inds := make([]*gp.Individual, size)
	for i := 0; i < size; i++ {
		t := r.tag()
		if r.err != nil {
			return nil, r.err
		}
		if t == TagNil {
			continue
		}
		if t != TagIndividual {
			return nil, fmt.Errorf("%w: tag %d inside population", ErrCorruptStream, t)
		}
		elem, err := c.reg.decode(c, r, t)
		if err != nil {
			return nil, err
		}
		inds[i] = elem.(*gp.Individual)
	}
	return inds, r.err
}
