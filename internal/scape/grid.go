// Package scape contains the Minesweeper world and the fitness evaluator
// that scores instruction trees by how much of the board they uncover.
package scape

import (
	"math/rand"
	"strings"
)

type cell struct {
	mine     bool
	revealed bool
	flagged  bool
	adjMines int
}

// Grid is one Minesweeper board. Mines are placed with the supplied
// generator; a reveal of a mined cell ends the game.
type Grid struct {
	cells    [][]cell
	numMines int
	gameOver bool
}

// NewGrid builds a width x height board with numMines mines at distinct
// random cells and the adjacency counts precomputed.
func NewGrid(rng *rand.Rand, width, height, numMines int) *Grid {
	g := &Grid{numMines: numMines}
	g.cells = make([][]cell, width)
	for i := range g.cells {
		g.cells[i] = make([]cell, height)
	}
	for placed := 0; placed < numMines; {
		r := rng.Intn(width)
		c := rng.Intn(height)
		if !g.cells[r][c].mine {
			g.cells[r][c].mine = true
			placed++
		}
	}
	for r := 0; r < width; r++ {
		for c := 0; c < height; c++ {
			n := 0
			g.eachAdjacent(r, c, func(ar, ac int) {
				if g.cells[ar][ac].mine {
					n++
				}
			})
			g.cells[r][c].adjMines = n
		}
	}
	return g
}

func (g *Grid) Width() int  { return len(g.cells) }
func (g *Grid) Height() int { return len(g.cells[0]) }

func (g *Grid) NumMines() int { return g.numMines }

func (g *Grid) GameOver() bool { return g.gameOver }

func (g *Grid) eachAdjacent(row, col int, fn func(r, c int)) {
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if r >= 0 && r < g.Width() && c >= 0 && c < g.Height() {
				fn(r, c)
			}
		}
	}
}

// Reveal uncovers a cell. Flagged cells are protected. Revealing a mine
// ends the game; revealing a cell with no adjacent mines flood-fills its
// neighborhood.
func (g *Grid) Reveal(row, col int) {
	if g.gameOver || g.cells[row][col].flagged {
		return
	}
	g.cells[row][col].revealed = true
	if g.cells[row][col].mine {
		g.gameOver = true
		return
	}
	if g.cells[row][col].adjMines == 0 {
		g.eachAdjacent(row, col, func(r, c int) {
			if !g.cells[r][c].revealed {
				g.Reveal(r, c)
			}
		})
	}
}

// Flag marks an unrevealed cell; revealed cells cannot be flagged.
func (g *Grid) Flag(row, col int) {
	if !g.cells[row][col].revealed {
		g.cells[row][col].flagged = true
	}
}

func (g *Grid) Unflag(row, col int) {
	g.cells[row][col].flagged = false
}

func (g *Grid) Revealed(row, col int) bool { return g.cells[row][col].revealed }

// AdjacentMines reports the precomputed mine count around a cell.
func (g *Grid) AdjacentMines(row, col int) int { return g.cells[row][col].adjMines }

// Won reports whether every safe cell has been revealed.
func (g *Grid) Won() bool {
	for i := range g.cells {
		for j := range g.cells[i] {
			if !g.cells[i][j].revealed && !g.cells[i][j].mine {
				return false
			}
		}
	}
	return true
}

// Unrevealed counts safe cells still covered; it is the raw fitness of one
// trial, zero for a fully solved board.
func (g *Grid) Unrevealed() int {
	n := 0
	for i := range g.cells {
		for j := range g.cells[i] {
			if !g.cells[i][j].revealed && !g.cells[i][j].mine {
				n++
			}
		}
	}
	return n
}

func (g *Grid) cellRune(row, col int) byte {
	c := g.cells[row][col]
	switch {
	case g.gameOver && c.flagged && !c.mine:
		return '-'
	case c.flagged:
		return 'F'
	case !g.gameOver && !c.revealed:
		return '.'
	case c.mine && c.revealed:
		return '/'
	case c.mine:
		return 'X'
	default:
		return '0' + byte(c.adjMines)
	}
}

func (g *Grid) String() string {
	var b strings.Builder
	for r := 0; r < g.Width(); r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		for c := 0; c < g.Height(); c++ {
			b.WriteByte(g.cellRune(r, c))
			b.WriteByte(' ')
		}
	}
	return b.String()
}
