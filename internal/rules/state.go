package rules

import "fmt"

// NoTeam is the current-team value once a game is over.
const NoTeam = -1

// PieceID identifies a piece by owning team index and per-team sequence.
type PieceID struct {
	Team int
	Seq  int
}

// String renders the index-space form "<team>_<seq>".
func (id PieceID) String() string {
	return fmt.Sprintf("%d_%d", id.Team, id.Seq)
}

type Piece struct {
	ID          PieceID
	Description *PieceDescription
	Pos         Pos
}

func (p *Piece) Attack() int { return p.Description.AttackPower }

type Team struct {
	Index  int
	Color  string
	Base   Pos
	Flags  int
	Pieces []*Piece
}

// Piece returns the live piece with the given sequence number.
func (t *Team) Piece(seq int) (*Piece, bool) {
	for _, p := range t.Pieces {
		if p.ID.Seq == seq {
			return p, true
		}
	}
	return nil, false
}

// RemovePiece drops a captured piece from the roster.
func (t *Team) RemovePiece(seq int) bool {
	for i, p := range t.Pieces {
		if p.ID.Seq == seq {
			t.Pieces = append(t.Pieces[:i], t.Pieces[i+1:]...)
			return true
		}
	}
	return false
}

func (t *Team) clone() *Team {
	c := *t
	c.Pieces = make([]*Piece, len(t.Pieces))
	for i, p := range t.Pieces {
		cp := *p
		c.Pieces[i] = &cp
	}
	return &c
}

// SlotState is the lifecycle of one team slot.
type SlotState uint8

const (
	SlotOpen SlotState = iota
	SlotActive
	SlotEliminated
)

func (s SlotState) String() string {
	switch s {
	case SlotOpen:
		return "open"
	case SlotActive:
		return "active"
	case SlotEliminated:
		return "eliminated"
	}
	return "unknown"
}

// TeamSlot holds a team only while it is active.
type TeamSlot struct {
	State SlotState
	Team  *Team
}

// Move is an index-space move command.
type Move struct {
	Team  int
	Piece PieceID
	To    Pos
}

// State is the authoritative board, team slots and turn pointer.
type State struct {
	Grid     Grid
	Slots    []TeamSlot
	Current  int
	LastMove *Move
}

// NewState creates an empty board with all team slots open.
func NewState(rows, cols, teams int) *State {
	return &State{
		Grid:    NewGrid(rows, cols),
		Slots:   make([]TeamSlot, teams),
		Current: NoTeam,
	}
}

// Clone returns a deep copy that shares only immutable piece descriptions.
func (s *State) Clone() *State {
	c := &State{
		Grid:    s.Grid.Clone(),
		Slots:   make([]TeamSlot, len(s.Slots)),
		Current: s.Current,
	}
	for i, slot := range s.Slots {
		c.Slots[i].State = slot.State
		if slot.Team != nil {
			c.Slots[i].Team = slot.Team.clone()
		}
	}
	if s.LastMove != nil {
		m := *s.LastMove
		c.LastMove = &m
	}
	return c
}

// Active returns the team in slot i if that slot is active.
func (s *State) Active(i int) (*Team, bool) {
	if i < 0 || i >= len(s.Slots) || s.Slots[i].State != SlotActive {
		return nil, false
	}
	return s.Slots[i].Team, true
}

// ActiveTeams returns the active teams in index order.
func (s *State) ActiveTeams() []*Team {
	teams := make([]*Team, 0, len(s.Slots))
	for _, slot := range s.Slots {
		if slot.State == SlotActive {
			teams = append(teams, slot.Team)
		}
	}
	return teams
}

// LiveCount returns the number of active teams.
func (s *State) LiveCount() int {
	n := 0
	for _, slot := range s.Slots {
		if slot.State == SlotActive {
			n++
		}
	}
	return n
}

// OpenSlot returns the first slot not yet joined, or -1.
func (s *State) OpenSlot() int {
	for i, slot := range s.Slots {
		if slot.State == SlotOpen {
			return i
		}
	}
	return -1
}

// Piece looks up a live piece by id.
func (s *State) Piece(id PieceID) (*Piece, bool) {
	t, ok := s.Active(id.Team)
	if !ok {
		return nil, false
	}
	return t.Piece(id.Seq)
}

// Eliminate clears team i's base and pieces from the grid and closes its slot for good.
func (s *State) Eliminate(i int) {
	t, ok := s.Active(i)
	if !ok {
		return
	}
	if s.Grid.In(t.Base) && s.Grid.At(t.Base) == BaseCell(i) {
		s.Grid.Set(t.Base, EmptyCell)
	}
	for _, p := range t.Pieces {
		if s.Grid.In(p.Pos) && s.Grid.At(p.Pos) == PieceCell(p.ID) {
			s.Grid.Set(p.Pos, EmptyCell)
		}
	}
	s.Slots[i] = TeamSlot{State: SlotEliminated}
}

// NextActive returns the first active slot after from, wrapping around.
// It returns NoTeam when no slot is active.
func (s *State) NextActive(from int) int {
	n := len(s.Slots)
	for k := 1; k <= n; k++ {
		i := ((from+k)%n + n) % n
		if s.Slots[i].State == SlotActive {
			return i
		}
	}
	return NoTeam
}

// CheckInvariants verifies that every placed piece and every base is exactly
// where the grid says it is.
func (s *State) CheckInvariants() error {
	pieces := 0
	for _, t := range s.ActiveTeams() {
		if t.Flags > 0 && (!s.Grid.In(t.Base) || s.Grid.At(t.Base) != BaseCell(t.Index)) {
			return fmt.Errorf("team %d base missing at %s", t.Index, t.Base)
		}
		for _, p := range t.Pieces {
			if p.Pos == NoPos {
				continue
			}
			if !s.Grid.In(p.Pos) {
				return fmt.Errorf("piece %s out of bounds at %s", p.ID, p.Pos)
			}
			if got := s.Grid.At(p.Pos); got != PieceCell(p.ID) {
				return fmt.Errorf("piece %s at %s but grid holds %q", p.ID, p.Pos, got)
			}
			pieces++
		}
	}
	onGrid := 0
	for _, row := range s.Grid {
		for _, c := range row {
			if c.Kind == CellPiece {
				onGrid++
			}
		}
	}
	if onGrid != pieces {
		return fmt.Errorf("grid holds %d pieces, rosters place %d", onGrid, pieces)
	}
	return nil
}
