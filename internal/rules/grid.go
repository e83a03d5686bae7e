package rules

import (
	"fmt"
	"strings"
)

// Pos is a (row, col) grid coordinate.
type Pos struct {
	Row int
	Col int
}

// NoPos marks a piece that has not been placed yet.
var NoPos = Pos{Row: -1, Col: -1}

// Step returns p moved n cells in direction d. Negative n walks backwards.
func (p Pos) Step(d Direction, n int) Pos {
	dr, dc := d.Delta()
	return Pos{Row: p.Row + dr*n, Col: p.Col + dc*n}
}

// Add returns p offset by the given deltas.
func (p Pos) Add(dRow, dCol int) Pos {
	return Pos{Row: p.Row + dRow, Col: p.Col + dCol}
}

func (p Pos) String() string {
	return fmt.Sprintf("[%d,%d]", p.Row, p.Col)
}

// CellKind tags what occupies a grid cell.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellBlock
	CellBase
	CellPiece
)

// Cell is a tagged grid cell. Team is set for bases and pieces, Seq only for pieces.
type Cell struct {
	Kind CellKind
	Team int
	Seq  int
}

var (
	EmptyCell = Cell{Kind: CellEmpty}
	BlockCell = Cell{Kind: CellBlock}
)

// BaseCell returns the cell holding team's base.
func BaseCell(team int) Cell {
	return Cell{Kind: CellBase, Team: team}
}

// PieceCell returns the cell holding the piece with the given id.
func PieceCell(id PieceID) Cell {
	return Cell{Kind: CellPiece, Team: id.Team, Seq: id.Seq}
}

// PieceID returns the id of the piece standing on c. Only valid for CellPiece.
func (c Cell) PieceID() PieceID {
	return PieceID{Team: c.Team, Seq: c.Seq}
}

// String renders the index-space tag of c.
func (c Cell) String() string {
	switch c.Kind {
	case CellBlock:
		return "block"
	case CellBase:
		return fmt.Sprintf("base:%d", c.Team)
	case CellPiece:
		return "piece:" + c.PieceID().String()
	}
	return ""
}

// Grid is a row-major matrix of cells.
type Grid [][]Cell

// NewGrid allocates an empty rows x cols grid.
func NewGrid(rows, cols int) Grid {
	g := make(Grid, rows)
	for i := range g {
		g[i] = make([]Cell, cols)
	}
	return g
}

func (g Grid) Rows() int { return len(g) }

func (g Grid) Cols() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// In reports whether p lies inside the grid.
func (g Grid) In(p Pos) bool {
	return p.Row >= 0 && p.Col >= 0 && p.Row < g.Rows() && p.Col < g.Cols()
}

// At returns the cell at p. p must be in bounds.
func (g Grid) At(p Pos) Cell {
	return g[p.Row][p.Col]
}

// Set overwrites the cell at p. p must be in bounds.
func (g Grid) Set(p Pos, c Cell) {
	g[p.Row][p.Col] = c
}

// IsEmpty reports whether p is in bounds and unoccupied.
func (g Grid) IsEmpty(p Pos) bool {
	return g.In(p) && g.At(p).Kind == CellEmpty
}

// Clone returns a deep copy of g.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]Cell(nil), row...)
	}
	return out
}

// Canonical serializes the grid row by row. It is used as a seed key, so the
// format must stay stable.
func (g Grid) Canonical() string {
	var b strings.Builder
	for _, row := range g {
		for j, c := range row {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(c.String())
		}
		b.WriteByte(';')
	}
	return b.String()
}
