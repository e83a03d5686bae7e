package rules

// L-leap tables: the 12 outer landings go left, down, right, up; the last 4
// entries are the inner ring of orthogonal neighbours.
var (
	lShapeCols = [16]int{-2, -2, -2, -1, 0, 1, 2, 2, 2, 1, 0, -1, -1, 0, 1, 0}
	lShapeRows = [16]int{-1, 0, 1, 2, 2, 2, 1, 0, -1, -2, -2, -2, 0, 1, 0, -1}
	lShapeDirs = [12]Direction{Left, Left, Left, Down, Down, Down, Right, Right, Right, Up, Up, Up}
)

// CanOccupy reports whether mover may end a move on p: empty cells, enemy
// bases and enemy pieces no stronger than the mover.
func CanOccupy(s *State, mover *Piece, p Pos) bool {
	if !s.Grid.In(p) {
		return false
	}
	c := s.Grid.At(p)
	switch c.Kind {
	case CellEmpty:
		return true
	case CellBase:
		return c.Team != mover.ID.Team
	case CellPiece:
		if c.Team == mover.ID.Team {
			return false
		}
		other, ok := s.Piece(c.PieceID())
		return ok && other.Attack() <= mover.Attack()
	}
	return false
}

// clearLine reports whether the length-1 cells walked back from to against d
// are all empty and on the grid.
func clearLine(g Grid, to Pos, d Direction, length int) bool {
	for k := 1; k < length; k++ {
		if !g.IsEmpty(to.Step(d, -k)) {
			return false
		}
	}
	return true
}

// LegalMoves lists every destination the piece may move to.
func LegalMoves(s *State, p *Piece) []Pos {
	if p.Pos == NoPos {
		return nil
	}
	m := p.Description.Movement
	if m.Shape != nil {
		return shapeMoves(s, p)
	}
	if m.Directions == nil {
		return nil
	}

	var out []Pos
	for _, d := range AllDirections {
		reach := m.Directions.Reach(d)
		for k := 1; k <= reach; k++ {
			to := p.Pos.Step(d, k)
			if s.Grid.IsEmpty(to) {
				out = append(out, to)
				continue
			}
			if CanOccupy(s, p, to) {
				out = append(out, to)
			}
			break
		}
	}
	return out
}

func shapeMoves(s *State, p *Piece) []Pos {
	if p.Description.Movement.Shape.Type != ShapeL {
		return nil
	}
	var out []Pos
	for i := range lShapeCols {
		to := p.Pos.Add(lShapeRows[i], lShapeCols[i])
		if !CanOccupy(s, p, to) {
			continue
		}
		switch {
		case i >= len(lShapeDirs):
			out = append(out, to)
		case (i+2)%3 != 0:
			// Bent landing: the straight two-cell leg must be clear.
			side := i / 3
			start := p.Pos.Add(lShapeRows[12+side]+lShapeRows[1+side*3], lShapeCols[12+side]+lShapeCols[1+side*3])
			if clearLine(s.Grid, start, lShapeDirs[i], 3) {
				out = append(out, to)
			}
		default:
			if clearLine(s.Grid, to, lShapeDirs[i], 2) {
				out = append(out, to)
			}
		}
	}
	return out
}

// IsLegal reports whether to is among the piece's legal destinations.
func IsLegal(s *State, p *Piece, to Pos) bool {
	for _, m := range LegalMoves(s, p) {
		if m == to {
			return true
		}
	}
	return false
}

// HasLegalMove reports whether any piece of the team can move.
func HasLegalMove(s *State, t *Team) bool {
	for _, p := range t.Pieces {
		if len(LegalMoves(s, p)) > 0 {
			return true
		}
	}
	return false
}

// CountMoves returns the number of legal moves across the team's pieces.
func CountMoves(s *State, t *Team) int {
	n := 0
	for _, p := range t.Pieces {
		n += len(LegalMoves(s, p))
	}
	return n
}

// TotalMoves sums CountMoves over all active teams.
func TotalMoves(s *State) int {
	n := 0
	for _, t := range s.ActiveTeams() {
		n += CountMoves(s, t)
	}
	return n
}
