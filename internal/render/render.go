// Package render formats solver programs for reports: the compact
// s-expression and a pseudo-graphic tree layout.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/strburst/MinesweeperX/internal/gp"
)

// wrapColumn is where the s-expression writer breaks long lines.
const wrapColumn = 72

// Expression writes the s-expressions of every branch of an individual,
// one branch per block with its conventional name, wrapped at a fixed
// column.
func Expression(w io.Writer, ind *gp.Individual) error {
	for i, t := range ind.Trees {
		if _, err := fmt.Fprintf(w, "%s: ", gp.BranchName(i)); err != nil {
			return err
		}
		if err := writeWrapped(w, t.String()); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func writeWrapped(w io.Writer, expr string) error {
	col := 0
	for _, word := range strings.Split(expr, " ") {
		if col > 0 && col+1+len(word) > wrapColumn {
			if _, err := io.WriteString(w, "\n  "); err != nil {
				return err
			}
			col = 2
		} else if col > 0 {
			if _, err := io.WriteString(w, " "); err != nil {
				return err
			}
			col++
		}
		if _, err := io.WriteString(w, word); err != nil {
			return err
		}
		col += len(word)
	}
	return nil
}

// Tree writes every branch of an individual as an indented tree, one node
// per line with box-drawing connectors.
func Tree(w io.Writer, ind *gp.Individual) error {
	for i, t := range ind.Trees {
		if _, err := fmt.Fprintf(w, "%s: %s\n", gp.BranchName(i), t.Node().Name); err != nil {
			return err
		}
		if err := writeTree(w, t, ""); err != nil {
			return err
		}
	}
	return nil
}

func writeTree(w io.Writer, g *gp.Gene, prefix string) error {
	for i := 0; i < g.ChildCount(); i++ {
		c := g.Child(i)
		connector, childPrefix := "├── ", prefix+"│   "
		if i == g.ChildCount()-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		if _, err := fmt.Fprintf(w, "%s%s%s\n", prefix, connector, c.Node().Name); err != nil {
			return err
		}
		if err := writeTree(w, c, childPrefix); err != nil {
			return err
		}
	}
	return nil
}
