package game

import (
	"fmt"
	"time"

	"github.com/MJE43/ctf-engine-go/internal/rules"
)

// MoveCommand is a move as sent by a client.
type MoveCommand struct {
	TeamID      string `json:"teamId"`
	PieceID     string `json:"pieceId"`
	NewPosition [2]int `json:"newPosition"`
}

type PieceView struct {
	ID          string                 `json:"id"`
	TeamID      string                 `json:"teamId"`
	Description rules.PieceDescription `json:"description"`
	Position    [2]int                 `json:"position"`
}

type TeamView struct {
	ID     string      `json:"id"`
	Color  string      `json:"color"`
	Base   [2]int      `json:"base"`
	Flags  int         `json:"flags"`
	Pieces []PieceView `json:"pieces"`
}

type MoveView struct {
	TeamID      string `json:"teamId"`
	PieceID     string `json:"pieceId"`
	NewPosition [2]int `json:"newPosition"`
}

// StateView is the board in name space.
type StateView struct {
	Grid        [][]string `json:"grid"`
	Teams       []TeamView `json:"teams"`
	CurrentTeam string     `json:"currentTeam"`
	LastMove    *MoveView  `json:"lastMove,omitempty"`
}

// Snapshot is everything a client can see about a game at one instant.
type Snapshot struct {
	StateView
	ID                         string     `json:"id"`
	Status                     Status     `json:"status"`
	GameStarted                *time.Time `json:"gameStarted,omitempty"`
	GameEnded                  *time.Time `json:"gameEnded,omitempty"`
	RemainingGameTimeInSeconds int        `json:"remainingGameTimeInSeconds"`
	RemainingMoveTimeInSeconds int        `json:"remainingMoveTimeInSeconds"`
	GameOver                   bool       `json:"gameOver"`
	Winners                    []string   `json:"winner"`
}

func posOf(p [2]int) rules.Pos { return rules.Pos{Row: p[0], Col: p[1]} }

func pairOf(p rules.Pos) [2]int { return [2]int{p.Row, p.Col} }

func (r *Registry) moveView(m rules.Move) *MoveView {
	return &MoveView{
		TeamID:      r.Name(m.Team),
		PieceID:     r.PieceName(m.Piece),
		NewPosition: pairOf(m.To),
	}
}

// ToView produces a deep copy of s with every index replaced by a name.
func (r *Registry) ToView(s *rules.State) StateView {
	v := StateView{Grid: make([][]string, len(s.Grid))}
	for i, row := range s.Grid {
		v.Grid[i] = make([]string, len(row))
		for j, c := range row {
			v.Grid[i][j] = r.CellTag(c)
		}
	}

	for _, t := range s.ActiveTeams() {
		tv := TeamView{
			ID:     r.Name(t.Index),
			Color:  t.Color,
			Base:   pairOf(t.Base),
			Flags:  t.Flags,
			Pieces: make([]PieceView, len(t.Pieces)),
		}
		for i, p := range t.Pieces {
			tv.Pieces[i] = PieceView{
				ID:          r.PieceName(p.ID),
				TeamID:      tv.ID,
				Description: *p.Description,
				Position:    pairOf(p.Pos),
			}
		}
		v.Teams = append(v.Teams, tv)
	}

	if s.Current != rules.NoTeam {
		v.CurrentTeam = r.Name(s.Current)
	}
	if s.LastMove != nil {
		v.LastMove = r.moveView(*s.LastMove)
	}
	return v
}

// FromView rebuilds an index-space state from v. Registered teams missing
// from v come back as eliminated.
func (r *Registry) FromView(v StateView) (*rules.State, error) {
	cols := 0
	if len(v.Grid) > 0 {
		cols = len(v.Grid[0])
	}
	s := rules.NewState(len(v.Grid), cols, len(r.names))
	for i, row := range v.Grid {
		for j, tag := range row {
			c, err := r.ParseCellTag(tag)
			if err != nil {
				return nil, err
			}
			s.Grid[i][j] = c
		}
	}

	for _, tv := range v.Teams {
		idx, ok := r.Resolve(tv.ID)
		if !ok {
			return nil, fmt.Errorf("unknown team %q", tv.ID)
		}
		team := &rules.Team{Index: idx, Color: tv.Color, Base: posOf(tv.Base), Flags: tv.Flags}
		for _, pv := range tv.Pieces {
			id, err := r.ParsePiece(idx, pv.ID)
			if err != nil {
				return nil, err
			}
			desc := pv.Description
			team.Pieces = append(team.Pieces, &rules.Piece{ID: id, Description: &desc, Pos: posOf(pv.Position)})
		}
		s.Slots[idx] = rules.TeamSlot{State: rules.SlotActive, Team: team}
	}
	for i := range s.Slots {
		if s.Slots[i].State == rules.SlotOpen && r.Joined(i) {
			s.Slots[i].State = rules.SlotEliminated
		}
	}

	if v.CurrentTeam != "" {
		idx, ok := r.Resolve(v.CurrentTeam)
		if !ok {
			return nil, fmt.Errorf("unknown current team %q", v.CurrentTeam)
		}
		s.Current = idx
	}
	if v.LastMove != nil {
		m, err := r.ResolveMove(MoveCommand(*v.LastMove))
		if err != nil {
			return nil, err
		}
		s.LastMove = &m
	}
	return s, nil
}
