package rules

func newTestState(rows, cols, teams int) *State {
	s := NewState(rows, cols, teams)
	for i := range s.Slots {
		s.Slots[i] = TeamSlot{State: SlotActive, Team: &Team{Index: i, Flags: 1, Base: NoPos}}
	}
	s.Current = 0
	return s
}

func setBase(s *State, team int, pos Pos) {
	s.Slots[team].Team.Base = pos
	s.Grid.Set(pos, BaseCell(team))
}

func addPiece(s *State, team int, desc *PieceDescription, pos Pos) *Piece {
	t := s.Slots[team].Team
	p := &Piece{ID: PieceID{Team: team, Seq: len(t.Pieces)}, Description: desc, Pos: pos}
	t.Pieces = append(t.Pieces, p)
	s.Grid.Set(pos, PieceCell(p.ID))
	return p
}

func directional(attack int, d *Directions) *PieceDescription {
	return &PieceDescription{Type: "test", AttackPower: attack, Count: 1, Movement: Movement{Directions: d}}
}

func lShape(attack int) *PieceDescription {
	return &PieceDescription{Type: "knight", AttackPower: attack, Count: 1, Movement: Movement{Shape: &Shape{Type: ShapeL}}}
}

func containsPos(list []Pos, p Pos) bool {
	for _, q := range list {
		if q == p {
			return true
		}
	}
	return false
}
