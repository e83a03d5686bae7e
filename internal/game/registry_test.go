package game

import (
	"errors"
	"testing"

	"github.com/MJE43/ctf-engine-go/internal/rules"
)

func TestParsePiece(t *testing.T) {
	r := NewRegistry(2)
	if err := r.Register("red", 0); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("blue_team", 1); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		token   string
		team    int
		want    rules.PieceID
		wantErr bool
	}{
		{"piece:red_3", 1, rules.PieceID{Team: 0, Seq: 3}, false},
		{"piece:blue_team_0", 0, rules.PieceID{Team: 1, Seq: 0}, false},
		{"p:1_2", 0, rules.PieceID{Team: 1, Seq: 2}, false},
		{"4", 1, rules.PieceID{Team: 1, Seq: 4}, false},
		{"piece:green_1", 0, rules.PieceID{}, true},
		{"piece:red", 0, rules.PieceID{}, true},
		{"piece:red_x", 0, rules.PieceID{}, true},
		{"knight", 0, rules.PieceID{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := r.ParsePiece(tt.team, tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePiece(%q) err = %v, wantErr %v", tt.token, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePiece(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	r := NewRegistry(2)
	if err := r.Register("", 0); !errors.Is(err, ErrInvalidName) {
		t.Errorf("empty name: err = %v", err)
	}
	if err := r.Register("red", 0); err != nil {
		t.Fatal(err)
	}
	if err := r.Register("red", 1); !errors.Is(err, ErrNoSlots) {
		t.Errorf("duplicate name: err = %v", err)
	}
	if err := r.Register("blue", 0); !errors.Is(err, ErrNoSlots) {
		t.Errorf("taken slot: err = %v", err)
	}
	if got := r.Name(1); got != "1" {
		t.Errorf("Name(1) = %q, want index fallback", got)
	}
	if i, ok := r.Resolve("red"); !ok || i != 0 {
		t.Errorf("Resolve(red) = %d, %v", i, ok)
	}
	if _, ok := r.Resolve("9"); ok {
		t.Error("Resolve accepted an out of range index")
	}
}

func TestCellTags(t *testing.T) {
	r := NewRegistry(2)
	_ = r.Register("red", 0)
	_ = r.Register("blue", 1)

	cells := []struct {
		cell rules.Cell
		tag  string
	}{
		{rules.EmptyCell, ""},
		{rules.BlockCell, "block"},
		{rules.BaseCell(1), "base:blue"},
		{rules.PieceCell(rules.PieceID{Team: 0, Seq: 5}), "piece:red_5"},
	}
	for _, c := range cells {
		if got := r.CellTag(c.cell); got != c.tag {
			t.Errorf("CellTag(%v) = %q, want %q", c.cell, got, c.tag)
		}
		back, err := r.ParseCellTag(c.tag)
		if err != nil {
			t.Fatalf("ParseCellTag(%q) failed: %v", c.tag, err)
		}
		if back != c.cell {
			t.Errorf("ParseCellTag(%q) = %v, want %v", c.tag, back, c.cell)
		}
	}
	if _, err := r.ParseCellTag("lava"); err == nil {
		t.Error("ParseCellTag accepted an unknown tag")
	}
}

func TestViewRoundTrip(t *testing.T) {
	m := startedMatch(t, duelTemplate(), newManualClock())
	alpha, _ := m.state.Active(0)
	to := rules.LegalMoves(m.state, alpha.Pieces[0])[0]
	if err := m.move(MoveCommand{TeamID: "alpha", PieceID: "0", NewPosition: pairOf(to)}); err != nil {
		t.Fatal(err)
	}

	view := m.registry.ToView(m.state)
	if view.CurrentTeam != "bravo" {
		t.Errorf("current team = %q", view.CurrentTeam)
	}
	if view.LastMove == nil || view.LastMove.PieceID != "piece:alpha_0" {
		t.Fatalf("last move = %+v", view.LastMove)
	}

	back, err := m.registry.FromView(view)
	if err != nil {
		t.Fatalf("FromView() failed: %v", err)
	}
	if back.Grid.Canonical() != m.state.Grid.Canonical() {
		t.Error("grid changed in round trip")
	}
	if back.Current != m.state.Current {
		t.Errorf("current = %d, want %d", back.Current, m.state.Current)
	}
	if *back.LastMove != *m.state.LastMove {
		t.Errorf("last move = %+v, want %+v", *back.LastMove, *m.state.LastMove)
	}
	for _, team := range m.state.ActiveTeams() {
		got, ok := back.Active(team.Index)
		if !ok {
			t.Fatalf("team %d missing after round trip", team.Index)
		}
		if got.Flags != team.Flags || got.Base != team.Base || got.Color != team.Color {
			t.Errorf("team %d = %+v, want %+v", team.Index, got, team)
		}
		for _, p := range team.Pieces {
			q, ok := got.Piece(p.ID.Seq)
			if !ok || q.Pos != p.Pos || q.Attack() != p.Attack() {
				t.Errorf("piece %s did not survive the round trip", p.ID)
			}
		}
	}
	if err := back.CheckInvariants(); err != nil {
		t.Error(err)
	}

	// Mutating the view must not reach the live state.
	corner := m.state.Grid.At(rules.Pos{})
	view.Grid[0][0] = "piece:red_9"
	view.Teams[0].Flags = 99
	if m.state.Grid.At(rules.Pos{}) != corner {
		t.Error("view shares the grid")
	}
	if alpha.Flags == 99 {
		t.Error("view shares team records")
	}
}
