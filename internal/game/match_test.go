package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MJE43/ctf-engine-go/internal/board"
	"github.com/MJE43/ctf-engine-go/internal/rules"
)

func TestFlagCaptureEndsGame(t *testing.T) {
	clk := newManualClock()
	m := startedMatch(t, duelTemplate(), clk)

	enemyBase := m.board.Bases[1]
	relocate(t, m.state, rules.PieceID{Team: 1, Seq: 0}, rules.Pos{Row: 9, Col: 9})
	relocate(t, m.state, rules.PieceID{Team: 0, Seq: 0}, enemyBase.Add(-1, 0))

	err := m.move(MoveCommand{TeamID: "alpha", PieceID: "piece:alpha_0", NewPosition: [2]int{enemyBase.Row, enemyBase.Col}})
	if err != nil {
		t.Fatalf("move() failed: %v", err)
	}

	snap := m.snapshot()
	if snap.Status != StatusOver || !snap.GameOver {
		t.Fatalf("status = %s, want %s", snap.Status, StatusOver)
	}
	if len(snap.Winners) != 1 || snap.Winners[0] != "alpha" {
		t.Errorf("winners = %v, want [alpha]", snap.Winners)
	}
	if m.reason != EndFlags {
		t.Errorf("reason = %s, want %s", m.reason, EndFlags)
	}
	if snap.CurrentTeam != "" {
		t.Errorf("current team = %q after game over", snap.CurrentTeam)
	}
	if len(snap.Teams) != 1 {
		t.Errorf("got %d teams in snapshot, want 1", len(snap.Teams))
	}
	if got := snap.Grid[enemyBase.Row][enemyBase.Col]; got != "" {
		t.Errorf("eliminated base cell = %q, want empty", got)
	}
	if p, _ := m.state.Piece(rules.PieceID{Team: 0, Seq: 0}); p.Pos == enemyBase {
		t.Errorf("mover left standing on the enemy base")
	}
	if err := m.state.CheckInvariants(); err != nil {
		t.Error(err)
	}
	if snap.RemainingGameTimeInSeconds != -1 || snap.RemainingMoveTimeInSeconds != -1 {
		t.Errorf("remaining = %d/%d, want -1/-1", snap.RemainingGameTimeInSeconds, snap.RemainingMoveTimeInSeconds)
	}

	err = m.move(MoveCommand{TeamID: "alpha", PieceID: "piece:alpha_0", NewPosition: [2]int{0, 0}})
	if !errors.Is(err, ErrGameOver) {
		t.Errorf("move after game over: err = %v, want ErrGameOver", err)
	}
	if err := m.giveUp("alpha"); !errors.Is(err, ErrGameOver) {
		t.Errorf("giveUp after game over: err = %v, want ErrGameOver", err)
	}
}

func TestMoveTimerRotatesTurn(t *testing.T) {
	clk := newManualClock()
	tmpl := duelTemplate()
	tmpl.MoveTimeLimitInSeconds = 5
	m := startedMatch(t, tmpl, clk)

	if got := m.snapshot().RemainingMoveTimeInSeconds; got != 6 {
		t.Errorf("remaining move time = %d, want 6", got)
	}

	clk.Advance(5 * time.Second)
	m.expireMove(clk.Now())
	if m.state.Current != 0 {
		t.Fatalf("turn rotated before the grace second elapsed")
	}

	clk.Advance(time.Second)
	m.expireMove(clk.Now())
	if m.state.Current != 1 {
		t.Fatalf("current = %d, want 1", m.state.Current)
	}
	if len(m.moves) != 0 || m.state.LastMove != nil {
		t.Errorf("rotation recorded a move")
	}
	if got := m.snapshot().RemainingMoveTimeInSeconds; got != 6 {
		t.Errorf("deadline not reset: remaining = %d", got)
	}
}

func TestGameTimerPicksMostPieces(t *testing.T) {
	clk := newManualClock()
	tmpl := duelTemplate()
	tmpl.TotalTimeLimitInSeconds = 10
	tmpl.Pieces[0].Count = 2
	m := startedMatch(t, tmpl, clk)

	bravo, _ := m.state.Active(1)
	victim := bravo.Pieces[0]
	m.state.Grid.Set(victim.Pos, rules.EmptyCell)
	bravo.RemovePiece(victim.ID.Seq)

	clk.Advance(10 * time.Second)
	m.expireGame(clk.Now())
	if m.status == StatusOver {
		t.Fatal("game ended before the grace second elapsed")
	}

	clk.Advance(time.Second)
	m.expireGame(clk.Now())
	if m.status != StatusOver || m.reason != EndTimeout {
		t.Fatalf("status = %s reason = %s, want over/timeout", m.status, m.reason)
	}
	if got := m.registry.Names(m.winners); len(got) != 1 || got[0] != "alpha" {
		t.Errorf("winners = %v, want [alpha]", got)
	}
	if got := m.snapshot().RemainingGameTimeInSeconds; got != 0 {
		t.Errorf("remaining game time = %d, want 0", got)
	}
}

func TestZeroMoveLimitIsOneGraceSecond(t *testing.T) {
	clk := newManualClock()
	tmpl := duelTemplate()
	tmpl.MoveTimeLimitInSeconds = 0
	m := startedMatch(t, tmpl, clk)

	if got := m.snapshot().RemainingMoveTimeInSeconds; got != 1 {
		t.Errorf("remaining move time = %d, want 1", got)
	}
	if got := m.snapshot().RemainingGameTimeInSeconds; got != -1 {
		t.Errorf("remaining game time = %d, want -1", got)
	}

	clk.Advance(time.Second)
	m.expireMove(clk.Now())
	if m.state.Current != 1 {
		t.Errorf("current = %d, want 1 after a zero-second move limit", m.state.Current)
	}
}

func TestGameTimerTie(t *testing.T) {
	clk := newManualClock()
	tmpl := duelTemplate()
	tmpl.TotalTimeLimitInSeconds = 1
	m := startedMatch(t, tmpl, clk)

	clk.Advance(3 * time.Second)
	m.expireGame(clk.Now())
	if got := m.registry.Names(m.winners); len(got) != 2 {
		t.Errorf("winners = %v, want both teams", got)
	}
}

func TestTooManyBlocks(t *testing.T) {
	tmpl := duelTemplate()
	tmpl.Blocks = 97
	if _, err := New(tmpl); !errors.Is(err, board.ErrTooManyPieces) {
		t.Fatalf("New() err = %v, want ErrTooManyPieces", err)
	}
}

func TestMoveRejections(t *testing.T) {
	clk := newManualClock()

	waiting, err := newMatch(duelTemplate(), testConfig(clk))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := waiting.join(context.Background(), "alpha"); err != nil {
		t.Fatal(err)
	}
	err = waiting.move(MoveCommand{TeamID: "alpha", PieceID: "0", NewPosition: [2]int{0, 0}})
	assertReason(t, err, ReasonNotStarted)

	m := startedMatch(t, duelTemplate(), clk)
	alpha, _ := m.state.Active(0)
	from := alpha.Pieces[0].Pos
	legal := rules.LegalMoves(m.state, alpha.Pieces[0])
	if len(legal) == 0 {
		t.Fatal("alpha has no legal moves")
	}

	tests := []struct {
		name   string
		cmd    MoveCommand
		reason Reason
	}{
		{"unknown team", MoveCommand{TeamID: "charlie", PieceID: "0", NewPosition: pairOf(legal[0])}, ReasonUnknownTeam},
		{"malformed piece", MoveCommand{TeamID: "alpha", PieceID: "rook", NewPosition: pairOf(legal[0])}, ReasonUnknownPiece},
		{"missing piece", MoveCommand{TeamID: "alpha", PieceID: "7", NewPosition: pairOf(legal[0])}, ReasonUnknownPiece},
		{"not your turn", MoveCommand{TeamID: "bravo", PieceID: "0", NewPosition: pairOf(legal[0])}, ReasonNotYourTurn},
		{"not your piece", MoveCommand{TeamID: "alpha", PieceID: "piece:bravo_0", NewPosition: pairOf(legal[0])}, ReasonNotYourPiece},
		{"illegal destination", MoveCommand{TeamID: "alpha", PieceID: "piece:alpha_0", NewPosition: pairOf(from.Add(5, 5))}, ReasonIllegalMove},
		{"own cell", MoveCommand{TeamID: "alpha", PieceID: "piece:alpha_0", NewPosition: pairOf(from)}, ReasonIllegalMove},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := m.state.Grid.Canonical()
			assertReason(t, m.move(tt.cmd), tt.reason)
			if m.state.Grid.Canonical() != before || m.state.Current != 0 {
				t.Error("rejected move changed state")
			}
		})
	}

	if err := m.move(MoveCommand{TeamID: "0", PieceID: "p:0_0", NewPosition: pairOf(legal[0])}); err != nil {
		t.Fatalf("legacy ids rejected: %v", err)
	}
	if m.state.Current != 1 {
		t.Errorf("current = %d, want 1", m.state.Current)
	}
	if len(m.moves) != 1 {
		t.Errorf("got %d moves, want 1", len(m.moves))
	}
}

func assertReason(t *testing.T, err error, want Reason) {
	t.Helper()
	var rej *Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("err = %v, want rejection %s", err, want)
	}
	if rej.Reason != want {
		t.Errorf("reason = %s, want %s", rej.Reason, want)
	}
	if want != ReasonGameOver && !errors.Is(err, ErrInvalidMove) {
		t.Errorf("%v does not match ErrInvalidMove", err)
	}
}

func TestGiveUp(t *testing.T) {
	m := startedMatch(t, duelTemplate(), newManualClock())

	assertReason(t, m.giveUp("bravo"), ReasonNotYourTurn)
	assertReason(t, m.giveUp("nobody"), ReasonUnknownTeam)

	if err := m.giveUp("alpha"); err != nil {
		t.Fatalf("giveUp() failed: %v", err)
	}
	if m.status != StatusOver || m.reason != EndGiveUp {
		t.Fatalf("status = %s reason = %s, want over/giveup", m.status, m.reason)
	}
	if got := m.registry.Names(m.winners); len(got) != 1 || got[0] != "bravo" {
		t.Errorf("winners = %v, want [bravo]", got)
	}
}

func TestGiveUpAdvancesAmongThree(t *testing.T) {
	tmpl := duelTemplate()
	tmpl.Teams = 3
	m, err := newMatch(tmpl, testConfig(newManualClock()))
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a", "b", "c"} {
		if _, err := m.join(context.Background(), name); err != nil {
			t.Fatal(err)
		}
	}
	if err := m.giveUp("a"); err != nil {
		t.Fatal(err)
	}
	if m.status != StatusInProgress {
		t.Fatalf("status = %s, want in progress", m.status)
	}
	if m.state.Current != 1 {
		t.Errorf("current = %d, want 1", m.state.Current)
	}
	if got := m.snapshot().Teams; len(got) != 2 {
		t.Errorf("got %d teams, want 2", len(got))
	}
}

func TestStuckTeamIsEliminated(t *testing.T) {
	tmpl := duelTemplate()
	tmpl.Teams = 3
	m, err := newMatch(tmpl, testConfig(newManualClock()))
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a", "b", "c"} {
		if _, err := m.join(context.Background(), name); err != nil {
			t.Fatal(err)
		}
	}

	// Wall b's king into a corner so it is stuck once a gives up.
	b, _ := m.state.Active(1)
	king := b.Pieces[0]
	m.state.Grid.Set(king.Pos, rules.EmptyCell)
	corner := rules.Pos{Row: 9, Col: 9}
	for _, p := range []rules.Pos{{Row: 8, Col: 8}, {Row: 8, Col: 9}, {Row: 9, Col: 8}} {
		if !m.state.Grid.IsEmpty(p) {
			t.Skipf("cell %s occupied", p)
		}
		m.state.Grid.Set(p, rules.BlockCell)
	}
	if !m.state.Grid.IsEmpty(corner) {
		t.Skip("corner occupied")
	}
	m.state.Grid.Set(corner, rules.PieceCell(king.ID))
	king.Pos = corner

	if err := m.giveUp("a"); err != nil {
		t.Fatal(err)
	}
	if m.status != StatusOver {
		t.Fatalf("status = %s, want over", m.status)
	}
	if m.reason != EndNoMoves {
		t.Errorf("reason = %s, want %s", m.reason, EndNoMoves)
	}
	if got := m.registry.Names(m.winners); len(got) != 1 || got[0] != "c" {
		t.Errorf("winners = %v, want [c]", got)
	}
}

func TestJoin(t *testing.T) {
	m, err := newMatch(duelTemplate(), testConfig(newManualClock()))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := m.join(ctx, ""); !errors.Is(err, ErrInvalidName) {
		t.Errorf("empty name: err = %v", err)
	}
	res, err := m.join(ctx, "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if res.TeamID != "alpha" || res.Slot != 0 || res.Color == "" {
		t.Errorf("join result = %+v", res)
	}
	if _, err := m.join(ctx, "alpha"); !errors.Is(err, ErrNoSlots) {
		t.Errorf("duplicate name: err = %v, want ErrNoSlots", err)
	}
	if m.status != StatusAwaiting {
		t.Errorf("status = %s, want awaiting", m.status)
	}
	if _, err := m.join(ctx, "bravo"); err != nil {
		t.Fatal(err)
	}
	if _, err := m.join(ctx, "charlie"); !errors.Is(err, ErrNoSlots) {
		t.Errorf("full game: err = %v, want ErrNoSlots", err)
	}
}

func TestRemainingBeforeStart(t *testing.T) {
	tmpl := duelTemplate()
	tmpl.TotalTimeLimitInSeconds = 60
	tmpl.MoveTimeLimitInSeconds = 5
	m, err := newMatch(tmpl, testConfig(newManualClock()))
	if err != nil {
		t.Fatal(err)
	}
	snap := m.snapshot()
	if snap.RemainingGameTimeInSeconds != 60 || snap.RemainingMoveTimeInSeconds != 5 {
		t.Errorf("remaining = %d/%d, want 60/5", snap.RemainingGameTimeInSeconds, snap.RemainingMoveTimeInSeconds)
	}
	if snap.GameStarted != nil || snap.Status != StatusAwaiting {
		t.Errorf("unexpected snapshot %+v", snap)
	}
}

func TestSummary(t *testing.T) {
	m := startedMatch(t, duelTemplate(), newManualClock())
	alpha, _ := m.state.Active(0)
	to := rules.LegalMoves(m.state, alpha.Pieces[0])[0]
	if err := m.move(MoveCommand{TeamID: "alpha", PieceID: "0", NewPosition: pairOf(to)}); err != nil {
		t.Fatal(err)
	}
	if err := m.giveUp("bravo"); err != nil {
		t.Fatal(err)
	}

	s := m.summary()
	if s.ID != "test" || s.Reason != EndGiveUp {
		t.Errorf("summary = %+v", s)
	}
	if len(s.Teams) != 2 || s.Teams[0] != "alpha" || s.Teams[1] != "bravo" {
		t.Errorf("teams = %v", s.Teams)
	}
	if len(s.Moves) != 1 || s.Moves[0].PieceID != "piece:alpha_0" {
		t.Errorf("moves = %+v", s.Moves)
	}
}
