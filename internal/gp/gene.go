package gp

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"
	"math/rand"
	"strings"
)

// Gene is one node of a genome tree. The number of children always matches
// the arity of the node type, except transiently during creation when a
// size-budget overrun aborts the tree before every child is filled; such
// trees are always rejected by the caller.
type Gene struct {
	node     *Node
	children []*Gene
}

func NewGene(n *Node) *Gene {
	return &Gene{node: n, children: make([]*Gene, n.Arity)}
}

func (g *Gene) Node() *Node { return g.node }

func (g *Gene) IsFunction() bool { return g.node.IsFunction() }

func (g *Gene) IsTerminal() bool { return g.node.IsTerminal() }

func (g *Gene) ChildCount() int { return len(g.children) }

func (g *Gene) Child(i int) *Gene { return g.children[i] }

// SetChild installs a decoded subtree. Used by the checkpoint codec.
func (g *Gene) SetChild(i int, c *Gene) { g.children[i] = c }

// Size returns the total number of nodes in the tree.
func (g *Gene) Size() int {
	n := 1
	for _, c := range g.children {
		if c != nil {
			n += c.Size()
		}
	}
	return n
}

// Depth returns the length of the longest root-to-leaf path. A single
// terminal has depth 1.
func (g *Gene) Depth() int {
	max := 0
	for _, c := range g.children {
		if c == nil {
			continue
		}
		if d := c.Depth(); d > max {
			max = d
		}
	}
	return 1 + max
}

func (g *Gene) countFunctions() int {
	if g.IsTerminal() {
		return 0
	}
	n := 1
	for _, c := range g.children {
		if c != nil {
			n += c.countFunctions()
		}
	}
	return n
}

// Clone returns a deep copy sharing only the immutable node descriptors.
func (g *Gene) Clone() *Gene {
	c := &Gene{node: g.node, children: make([]*Gene, len(g.children))}
	for i, ch := range g.children {
		if ch != nil {
			c.children[i] = ch.Clone()
		}
	}
	return c
}

// Equal reports structural equality: same node types in the same shape.
func (g *Gene) Equal(o *Gene) bool {
	if g == nil || o == nil {
		return g == o
	}
	if !g.node.Equal(o.node) || len(g.children) != len(o.children) {
		return false
	}
	for i, c := range g.children {
		if !c.Equal(o.children[i]) {
			return false
		}
	}
	return true
}

func (g *Gene) hashInto(h hash.Hash64, buf []byte) {
	binary.BigEndian.PutUint32(buf, uint32(int32(g.node.Value)))
	binary.BigEndian.PutUint32(buf[4:], uint32(int32(g.node.Arity)))
	h.Write(buf)
	for _, c := range g.children {
		if c != nil {
			c.hashInto(h, buf)
		}
	}
	binary.BigEndian.PutUint64(buf, ^uint64(0))
	h.Write(buf)
}

// Hash returns an FNV-1a digest of the preorder node values and arities.
// Structurally equal trees hash identically regardless of object identity.
func (g *Gene) Hash() uint64 {
	h := fnv.New64a()
	g.hashInto(h, make([]byte, 8))
	return h.Sum64()
}

// String renders the tree as an s-expression, terminals bare and functions
// parenthesized with their arguments.
func (g *Gene) String() string {
	var b strings.Builder
	g.writeExpr(&b)
	return b.String()
}

func (g *Gene) writeExpr(b *strings.Builder) {
	if g.IsTerminal() {
		b.WriteString(g.node.Name)
		return
	}
	b.WriteByte('(')
	b.WriteString(g.node.Name)
	for _, c := range g.children {
		b.WriteByte(' ')
		if c == nil {
			b.WriteByte('?')
		} else {
			c.writeExpr(b)
		}
	}
	b.WriteByte(')')
}

// flip returns true with the given percent probability (0..100).
func flip(rng *rand.Rand, percent float64) bool {
	return rng.Float64()*100.0 < percent
}

// growTree builds a fresh tree rooted at a random node. maxDepth counts the
// root level, so maxDepth 1 always yields a bare terminal. Growth stops as
// soon as the running size exceeds maxSize; the returned size then exceeds
// the budget and the caller must discard the tree.
func growTree(rng *rand.Rand, mode CreationType, maxDepth, maxSize int, ns *NodeSet) (*Gene, int) {
	g := NewGene(chooseGrowNode(rng, mode, maxDepth, ns))
	size := 1
	if g.IsFunction() {
		size = g.grow(rng, mode, maxDepth-1, maxSize, ns)
	}
	return g, size
}

func chooseGrowNode(rng *rand.Rand, mode CreationType, depth int, ns *NodeSet) *Node {
	switch {
	case depth <= 1:
		return ns.ChooseTerminal(rng)
	case mode == CreateGrow:
		return ns.ChooseFunction(rng)
	default:
		if flip(rng, 50.0) {
			return ns.ChooseTerminal(rng)
		}
		return ns.ChooseFunction(rng)
	}
}

// grow fills in the children of g. depth is the number of levels still
// allowed below g; when it reaches 1 every child is forced to a terminal.
// Returns the size of the subtree rooted at g, which may exceed maxSize.
func (g *Gene) grow(rng *rand.Rand, mode CreationType, depth, maxSize int, ns *NodeSet) int {
	size := 1
	for i := range g.children {
		c := NewGene(chooseGrowNode(rng, mode, depth, ns))
		g.children[i] = c
		if c.IsTerminal() {
			size++
		} else {
			size += c.grow(rng, mode, depth-1, maxSize-size, ns)
		}
		if size > maxSize {
			break
		}
	}
	return size
}

// geneRef addresses one node within an individual so the node can be read
// or replaced in place, including the root of a branch. ordinal is the
// 1-based preorder position used for lineage reporting.
type geneRef struct {
	ind     *Individual
	branch  int
	parent  *Gene
	index   int
	ordinal int
}

func (r *geneRef) gene() *Gene {
	if r.parent == nil {
		return r.ind.Trees[r.branch]
	}
	return r.parent.children[r.index]
}

func (r *geneRef) put(g *Gene) {
	if r.parent == nil {
		r.ind.Trees[r.branch] = g
		return
	}
	r.parent.children[r.index] = g
}

// findNth locates the count'th node in preorder, counting the node itself
// before its children. With functionsOnly set only function nodes are
// counted. Returns false if the tree runs out before count reaches zero.
func findNth(ref *geneRef, parent *Gene, index int, g *Gene, functionsOnly bool, count *int) bool {
	if !functionsOnly || g.IsFunction() {
		*count--
		if *count <= 0 {
			ref.parent = parent
			ref.index = index
			return true
		}
	}
	for i, c := range g.children {
		if c == nil {
			continue
		}
		if findNth(ref, g, i, c, functionsOnly, count) {
			return true
		}
	}
	return false
}

// pickAnyNode chooses a random node within one branch, preferring function
// nodes: up to ten uniform probes are made and the first function hit is
// returned, falling back to whatever the last probe found.
func (ind *Individual) pickAnyNode(rng *rand.Rand, branch int) geneRef {
	root := ind.Trees[branch]
	total := root.Size()
	tries := 10
	if total < tries {
		tries = total
	}
	ref := geneRef{ind: ind, branch: branch}
	for i := 0; i < tries; i++ {
		count := 1 + rng.Intn(total)
		ref.ordinal = count
		findNth(&ref, nil, branch, root, false, &count)
		if ref.gene().IsFunction() {
			break
		}
	}
	return ref
}

// pickFunctionNode chooses a uniformly random function node within one
// branch. ok is false when the branch is a bare terminal.
func (ind *Individual) pickFunctionNode(rng *rand.Rand, branch int) (geneRef, bool) {
	root := ind.Trees[branch]
	funcs := root.countFunctions()
	ref := geneRef{ind: ind, branch: branch}
	if funcs == 0 {
		return ref, false
	}
	count := 1 + rng.Intn(funcs)
	ref.ordinal = count
	findNth(&ref, nil, branch, root, true, &count)
	return ref, true
}

func validateComplete(g *Gene) error {
	if g == nil {
		return fmt.Errorf("nil gene")
	}
	if len(g.children) != g.node.Arity {
		return fmt.Errorf("node %q has %d children, arity %d", g.node.Name, len(g.children), g.node.Arity)
	}
	for _, c := range g.children {
		if err := validateComplete(c); err != nil {
			return err
		}
	}
	return nil
}
