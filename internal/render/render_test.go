package render

import (
	"strings"
	"testing"

	"github.com/strburst/MinesweeperX/internal/gp"
)

func testIndividual(t *testing.T) *gp.Individual {
	t.Helper()
	ns := gp.NewNodeSet(4)
	for _, n := range []*gp.Node{
		{Value: 0, Name: "prog2", Arity: 2},
		{Value: 1, Name: "mov", Arity: 1},
		{Value: 2, Name: "unc"},
		{Value: 3, Name: "fou"},
	} {
		if err := ns.Add(n); err != nil {
			t.Fatalf("add %s: %v", n.Name, err)
		}
	}

	// (prog2 unc (mov fou))
	root := gp.NewGene(ns.Lookup(0))
	root.SetChild(0, gp.NewGene(ns.Lookup(2)))
	mov := gp.NewGene(ns.Lookup(1))
	mov.SetChild(0, gp.NewGene(ns.Lookup(3)))
	root.SetChild(1, mov)

	ind := gp.NewIndividual(1)
	ind.Trees[0] = root
	return ind
}

func TestExpression(t *testing.T) {
	var b strings.Builder
	if err := Expression(&b, testIndividual(t)); err != nil {
		t.Fatalf("expression: %v", err)
	}
	if got := b.String(); got != "RPB: (prog2 unc (mov fou))\n" {
		t.Fatalf("got %q", got)
	}
}

func TestExpressionWrapsLongLines(t *testing.T) {
	ns := gp.NewNodeSet(2)
	if err := ns.Add(&gp.Node{Value: 0, Name: "prog3", Arity: 3}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := ns.Add(&gp.Node{Value: 1, Name: "unc"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	// deep chain of prog3 nodes overflows one line
	leaf := func() *gp.Gene { return gp.NewGene(ns.At(ns.Len() - 1)) }
	root := gp.NewGene(ns.At(0))
	cur := root
	for i := 0; i < 10; i++ {
		next := gp.NewGene(ns.At(0))
		cur.SetChild(0, next)
		cur.SetChild(1, leaf())
		cur.SetChild(2, leaf())
		cur = next
	}
	for i := 0; i < 3; i++ {
		cur.SetChild(i, leaf())
	}
	ind := gp.NewIndividual(1)
	ind.Trees[0] = root

	var b strings.Builder
	if err := Expression(&b, ind); err != nil {
		t.Fatalf("expression: %v", err)
	}
	for i, line := range strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n") {
		if len(line) > 80 {
			t.Fatalf("line %d too long: %d chars", i, len(line))
		}
		if i > 0 && !strings.HasPrefix(line, "  ") {
			t.Fatalf("continuation line %d not indented: %q", i, line)
		}
	}
}

func TestTree(t *testing.T) {
	var b strings.Builder
	if err := Tree(&b, testIndividual(t)); err != nil {
		t.Fatalf("tree: %v", err)
	}
	want := "RPB: prog2\n" +
		"├── unc\n" +
		"└── mov\n" +
		"    └── fou\n"
	if got := b.String(); got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}
