package rules

import (
	"errors"
	"testing"
)

func TestApplyCapture(t *testing.T) {
	s := newTestState(5, 5, 2)
	setBase(s, 0, Pos{0, 0})
	setBase(s, 1, Pos{4, 4})
	attacker := addPiece(s, 0, directional(2, Omni(1)), Pos{2, 2})
	defender := addPiece(s, 1, directional(2, Omni(1)), Pos{2, 3})

	res, err := Apply(s, Move{Team: 0, Piece: attacker.ID, To: Pos{2, 3}})
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if res.Outcome != OutcomeCapture || res.Captured != defender.ID {
		t.Errorf("Apply() result = %+v, want capture of %s", res, defender.ID)
	}
	if n := len(s.Slots[1].Team.Pieces); n != 0 {
		t.Errorf("defender still has %d pieces", n)
	}
	if got := s.Grid.At(Pos{2, 3}); got != PieceCell(attacker.ID) {
		t.Errorf("destination holds %q, want attacker", got)
	}
	if !s.Grid.IsEmpty(Pos{2, 2}) {
		t.Error("origin cell was not cleared")
	}
	if s.LastMove == nil || s.LastMove.To != (Pos{2, 3}) {
		t.Errorf("LastMove = %+v, want move to [2,3]", s.LastMove)
	}
	if err := s.CheckInvariants(); err != nil {
		t.Error(err)
	}
}

func TestApplyRejectsWithoutMutation(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(s *State) Move
		wantErr error
	}{
		{name: "stronger enemy", setup: func(s *State) Move {
			p := addPiece(s, 0, directional(1, Omni(1)), Pos{2, 2})
			addPiece(s, 1, directional(5, Omni(1)), Pos{2, 3})
			return Move{Team: 0, Piece: p.ID, To: Pos{2, 3}}
		}, wantErr: ErrIllegalMove},
		{name: "friendly piece", setup: func(s *State) Move {
			p := addPiece(s, 0, directional(1, Omni(1)), Pos{2, 2})
			addPiece(s, 0, directional(1, Omni(1)), Pos{2, 3})
			return Move{Team: 0, Piece: p.ID, To: Pos{2, 3}}
		}, wantErr: ErrIllegalMove},
		{name: "block", setup: func(s *State) Move {
			p := addPiece(s, 0, directional(1, Omni(1)), Pos{2, 2})
			s.Grid.Set(Pos{1, 2}, BlockCell)
			return Move{Team: 0, Piece: p.ID, To: Pos{1, 2}}
		}, wantErr: ErrIllegalMove},
		{name: "out of reach", setup: func(s *State) Move {
			p := addPiece(s, 0, directional(1, Omni(1)), Pos{2, 2})
			return Move{Team: 0, Piece: p.ID, To: Pos{4, 4}}
		}, wantErr: ErrIllegalMove},
		{name: "foreign piece", setup: func(s *State) Move {
			p := addPiece(s, 1, directional(1, Omni(1)), Pos{2, 2})
			return Move{Team: 0, Piece: p.ID, To: Pos{2, 1}}
		}, wantErr: ErrPieceNotFound},
		{name: "unknown piece", setup: func(s *State) Move {
			return Move{Team: 0, Piece: PieceID{Team: 0, Seq: 9}, To: Pos{2, 1}}
		}, wantErr: ErrPieceNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestState(5, 5, 2)
			m := tt.setup(s)
			before := s.Grid.Canonical()
			_, err := Apply(s, m)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Apply() error = %v, want %v", err, tt.wantErr)
			}
			if after := s.Grid.Canonical(); after != before {
				t.Errorf("grid changed on rejected move:\nbefore %s\nafter  %s", before, after)
			}
			if s.LastMove != nil {
				t.Error("LastMove set on rejected move")
			}
		})
	}
}

func TestApplyFlagCapture(t *testing.T) {
	s := newTestState(10, 10, 2)
	setBase(s, 0, Pos{1, 5})
	setBase(s, 1, Pos{8, 5})
	s.Slots[1].Team.Flags = 2
	raider := addPiece(s, 0, directional(1, Omni(1)), Pos{7, 5})

	res, err := Apply(s, Move{Team: 0, Piece: raider.ID, To: Pos{8, 5}})
	if err != nil {
		t.Fatalf("Apply() failed: %v", err)
	}
	if res.Outcome != OutcomeFlag || res.Defender != 1 {
		t.Errorf("Apply() result = %+v, want flag capture of team 1", res)
	}
	if got := s.Slots[1].Team.Flags; got != 1 {
		t.Errorf("defender flags = %d, want 1", got)
	}
	if got := s.Grid.At(Pos{8, 5}); got != BaseCell(1) {
		t.Errorf("enemy base cell holds %q after capture", got)
	}
	if !containsPos(Ring(Pos{1, 5}, 1), raider.Pos) {
		t.Errorf("raider respawned at %s, want next to own base [1,5]", raider.Pos)
	}
	if res.Final != raider.Pos {
		t.Errorf("Result.Final = %s, piece at %s", res.Final, raider.Pos)
	}
	if err := s.CheckInvariants(); err != nil {
		t.Error(err)
	}
}

func TestRing(t *testing.T) {
	got := Ring(Pos{5, 5}, 1)
	want := []Pos{{4, 4}, {4, 5}, {4, 6}, {5, 6}, {6, 6}, {6, 5}, {6, 4}, {5, 4}}
	if len(got) != len(want) {
		t.Fatalf("Ring(d=1) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Ring(d=1)[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	for d := 2; d <= 4; d++ {
		ring := Ring(Pos{0, 0}, d)
		if len(ring) != 8*d {
			t.Errorf("Ring(d=%d) has %d cells, want %d", d, len(ring), 8*d)
		}
		seen := make(map[Pos]bool)
		for _, p := range ring {
			if seen[p] {
				t.Errorf("Ring(d=%d) repeats %s", d, p)
			}
			seen[p] = true
			if max(abs(p.Row), abs(p.Col)) != d {
				t.Errorf("Ring(d=%d) contains %s at wrong distance", d, p)
			}
		}
	}
}

func TestRespawnPosDeterministic(t *testing.T) {
	s := newTestState(6, 6, 2)
	setBase(s, 0, Pos{2, 2})
	s.Grid.Set(Pos{1, 1}, BlockCell)

	first, err := RespawnPos(s.Grid, Pos{2, 2})
	if err != nil {
		t.Fatalf("RespawnPos() failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := RespawnPos(s.Grid, Pos{2, 2})
		if again != first {
			t.Fatalf("RespawnPos() = %s, previously %s", again, first)
		}
	}
	if !s.Grid.IsEmpty(first) || !containsPos(Ring(Pos{2, 2}, 1), first) {
		t.Errorf("RespawnPos() = %s, want a free cell on the first ring", first)
	}
}

func TestRespawnPosFull(t *testing.T) {
	s := newTestState(2, 2, 2)
	for r := 0; r < 2; r++ {
		for c := 0; c < 2; c++ {
			s.Grid.Set(Pos{r, c}, BlockCell)
		}
	}
	if _, err := RespawnPos(s.Grid, Pos{0, 0}); !errors.Is(err, ErrNoFreeCell) {
		t.Errorf("RespawnPos() error = %v, want ErrNoFreeCell", err)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
