package rules

import "fmt"

// Outcome classifies an applied move.
type Outcome uint8

const (
	OutcomeMove Outcome = iota
	OutcomeCapture
	OutcomeFlag
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMove:
		return "move"
	case OutcomeCapture:
		return "capture"
	case OutcomeFlag:
		return "flag"
	}
	return "unknown"
}

// Result describes what Apply did.
type Result struct {
	Outcome  Outcome
	Captured PieceID
	Defender int
	// Final is where the mover ended up; after a flag capture it is the respawn cell.
	Final Pos
}

// Apply validates m and applies it. On error the state is untouched.
func Apply(s *State, m Move) (Result, error) {
	if m.Piece.Team != m.Team {
		return Result{}, fmt.Errorf("%w: %s is not owned by team %d", ErrPieceNotFound, m.Piece, m.Team)
	}
	p, ok := s.Piece(m.Piece)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrPieceNotFound, m.Piece)
	}
	if !IsLegal(s, p, m.To) {
		return Result{}, fmt.Errorf("%w: %s to %s", ErrIllegalMove, m.Piece, m.To)
	}

	target := s.Grid.At(m.To)
	from := p.Pos
	res := Result{Outcome: OutcomeMove, Final: m.To, Defender: NoTeam}

	switch target.Kind {
	case CellPiece:
		if defender, ok := s.Active(target.Team); ok {
			defender.RemovePiece(target.Seq)
		}
		res.Outcome = OutcomeCapture
		res.Captured = target.PieceID()
		res.Defender = target.Team
		s.Grid.Set(from, EmptyCell)
		s.Grid.Set(m.To, PieceCell(p.ID))
		p.Pos = m.To

	case CellBase:
		own, _ := s.Active(p.ID.Team)
		s.Grid.Set(from, EmptyCell)
		to, err := RespawnPos(s.Grid, own.Base)
		if err != nil {
			s.Grid.Set(from, PieceCell(p.ID))
			return Result{}, err
		}
		if defender, ok := s.Active(target.Team); ok {
			defender.Flags--
		}
		res.Outcome = OutcomeFlag
		res.Defender = target.Team
		res.Final = to
		s.Grid.Set(to, PieceCell(p.ID))
		p.Pos = to

	default:
		s.Grid.Set(from, EmptyCell)
		s.Grid.Set(m.To, PieceCell(p.ID))
		p.Pos = m.To
	}

	last := m
	s.LastMove = &last
	return res, nil
}
