package gp

import (
	"fmt"
	"math/rand"
)

// Node describes one function or terminal type available to a branch.
// Value identifies the node to the fitness evaluator and must be unique
// within its NodeSet. A Node with arity 0 is a terminal.
type Node struct {
	Value int
	Name  string
	Arity int
}

func (n *Node) IsFunction() bool { return n.Arity > 0 }

func (n *Node) IsTerminal() bool { return n.Arity == 0 }

// Equal reports field-for-field equality. It is used when a checkpoint is
// restored to confirm the stream matches the current catalog.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.Value == o.Value && n.Arity == o.Arity && n.Name == o.Name
}

// NodeSet holds the node types allowed within one branch of an individual.
// Functions are packed at the front of the slots and terminals at the back
// so that a random node of either kind can be drawn in constant time. Slots
// between the two groups stay nil until filled.
type NodeSet struct {
	slots     []*Node
	functions int
	terminals int
}

func NewNodeSet(capacity int) *NodeSet {
	return &NodeSet{slots: make([]*Node, capacity)}
}

// Add stores a function at the next front slot or a terminal at the next
// back slot. Duplicate node values within a branch are rejected.
func (s *NodeSet) Add(n *Node) error {
	if s.functions+s.terminals == len(s.slots) {
		return fmt.Errorf("node set is full (%d slots)", len(s.slots))
	}
	if s.Lookup(n.Value) != nil {
		return fmt.Errorf("duplicate node value %d in node set", n.Value)
	}
	if n.IsFunction() {
		s.slots[s.functions] = n
		s.functions++
	} else {
		s.terminals++
		s.slots[len(s.slots)-s.terminals] = n
	}
	return nil
}

// RestoreNodeSet rebuilds a set from a slot image, keeping every node in
// its original slot. Checkpoint restore uses it so the decoded set compares
// equal to the one it was written from; replaying Add would reverse the
// terminal group. The image must follow Add's layout: functions packed at
// the front, terminals at the back, only nil slots between.
func RestoreNodeSet(slots []*Node) (*NodeSet, error) {
	s := &NodeSet{slots: make([]*Node, len(slots))}
	copy(s.slots, slots)
	seen := make(map[int]bool, len(slots))
	for i, n := range s.slots {
		if n == nil {
			continue
		}
		if seen[n.Value] {
			return nil, fmt.Errorf("duplicate node value %d in slot %d", n.Value, i)
		}
		seen[n.Value] = true
	}
	front := 0
	for front < len(s.slots) && s.slots[front] != nil && s.slots[front].IsFunction() {
		front++
	}
	back := len(s.slots)
	for back > front && s.slots[back-1] != nil && s.slots[back-1].IsTerminal() {
		back--
	}
	for i := front; i < back; i++ {
		if s.slots[i] != nil {
			return nil, fmt.Errorf("node slot %d breaks the function/terminal packing", i)
		}
	}
	s.functions = front
	s.terminals = len(s.slots) - back
	return s, nil
}

func (s *NodeSet) Len() int { return len(s.slots) }

func (s *NodeSet) Functions() int { return s.functions }

func (s *NodeSet) Terminals() int { return s.terminals }

// At returns the node in the given slot, which may be nil for unfilled
// slots between the function and terminal groups.
func (s *NodeSet) At(i int) *Node { return s.slots[i] }

// Lookup returns the node with the given value, or nil if none exists.
func (s *NodeSet) Lookup(value int) *Node {
	for _, n := range s.slots {
		if n != nil && n.Value == value {
			return n
		}
	}
	return nil
}

func (s *NodeSet) ChooseFunction(rng *rand.Rand) *Node {
	return s.slots[rng.Intn(s.functions)]
}

func (s *NodeSet) ChooseTerminal(rng *rand.Rand) *Node {
	return s.slots[len(s.slots)-s.terminals+rng.Intn(s.terminals)]
}

// NodeWithArity returns a random node with the given arity, or nil if the
// set has none. Used by swap mutation to replace a node in place.
func (s *NodeSet) NodeWithArity(rng *rand.Rand, arity int) *Node {
	num := 0
	for _, n := range s.slots {
		if n != nil && n.Arity == arity {
			num++
		}
	}
	if num == 0 {
		return nil
	}
	k := rng.Intn(num)
	for _, n := range s.slots {
		if n != nil && n.Arity == arity {
			if k == 0 {
				return n
			}
			k--
		}
	}
	return nil
}

// Equal reports whether both sets hold equal nodes in the same slots.
func (s *NodeSet) Equal(o *NodeSet) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.slots) != len(o.slots) || s.functions != o.functions || s.terminals != o.terminals {
		return false
	}
	for i, n := range s.slots {
		if !n.Equal(o.slots[i]) {
			return false
		}
	}
	return true
}

// BranchSet is the ordered collection of node sets, one per branch of an
// individual. Branch 0 is the result-producing branch; further branches are
// callable sub-programs.
type BranchSet []*NodeSet

func (b BranchSet) Equal(o BranchSet) bool {
	if len(b) != len(o) {
		return false
	}
	for i, ns := range b {
		if !ns.Equal(o[i]) {
			return false
		}
	}
	return true
}

// Validate confirms the branch set can support creation and evolution.
func (b BranchSet) Validate() error {
	if len(b) < 1 {
		return fmt.Errorf("branch set is empty")
	}
	for i, ns := range b {
		if ns == nil || ns.Len() == 0 {
			return fmt.Errorf("branch %d is undefined", i)
		}
		if ns.Functions() == 0 {
			return fmt.Errorf("branch %d has no functions", i)
		}
		if ns.Terminals() == 0 {
			return fmt.Errorf("branch %d has no terminals", i)
		}
		for j := 0; j < ns.Len(); j++ {
			if ns.At(j) == nil {
				return fmt.Errorf("branch %d has unfilled node slots", i)
			}
		}
	}
	return nil
}

// BranchName returns the conventional display name of a branch: "RPB" for
// the result-producing branch and "ADFn" for the callable branches.
func BranchName(branch int) string {
	if branch == 0 {
		return "RPB"
	}
	return fmt.Sprintf("ADF%d", branch-1)
}
