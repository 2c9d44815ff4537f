package engine

import "strings"

// Grid is the fixed-size wall map of a level. It is never mutated after
// parsing, so one Grid may back several engines.
type Grid struct {
	rows   [][]CellField
	width  int
	height int
}

// NewGrid builds a grid from rows of cells. Every row must have width cells.
func NewGrid(rows [][]CellField) *Grid {
	g := &Grid{rows: rows, height: len(rows)}
	if len(rows) > 0 {
		g.width = len(rows[0])
	}
	return g
}

// Dimension returns width and height
func (g *Grid) Dimension() (int, int) {
	return g.width, g.height
}

// InBounds reports whether p lies inside the grid
func (g *Grid) InBounds(p Position) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < g.width && p.Y < g.height
}

// OnWalls reports whether p is outside the grid or on a wall cell
func (g *Grid) OnWalls(p Position) bool {
	if !g.InBounds(p) {
		return true
	}
	return g.rows[p.Y][p.X] == Wall
}

// Cell returns the cell at p and false when p is out of bounds
func (g *Grid) Cell(p Position) (CellField, bool) {
	if !g.InBounds(p) {
		return Empty, false
	}
	return g.rows[p.Y][p.X], true
}

// Walls counts wall cells
func (g *Grid) Walls() int {
	count := 0
	for _, row := range g.rows {
		for _, cell := range row {
			if cell == Wall {
				count++
			}
		}
	}
	return count
}

// Row renders row y in level text form
func (g *Grid) Row(y int) string {
	if y < 0 || y >= g.height {
		return ""
	}
	var b strings.Builder
	b.Grow(g.width)
	for _, cell := range g.rows[y] {
		if cell == Wall {
			b.WriteByte(wallChar)
		} else {
			b.WriteByte(emptyChar)
		}
	}
	return b.String()
}
