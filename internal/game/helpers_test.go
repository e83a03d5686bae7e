package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/MJE43/ctf-engine-go/internal/rules"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func duelTemplate() rules.Template {
	return rules.Template{
		GridSize:  [2]int{10, 10},
		Teams:     2,
		Flags:     1,
		Placement: rules.PlacementSymmetrical,
		Pieces: []rules.PieceDescription{
			{Type: "King", AttackPower: 1, Count: 1, Movement: rules.Movement{Directions: rules.Omni(1)}},
		},
		TotalTimeLimitInSeconds: -1,
		MoveTimeLimitInSeconds:  -1,
	}
}

func firstTeam(int) int { return 0 }

func testConfig(clk Clock) config {
	cfg := defaultConfig()
	cfg.id = "test"
	cfg.clock = clk
	cfg.pick = firstTeam
	cfg.workers = 2
	return cfg
}

// startedMatch returns a match with alpha (slot 0) and bravo (slot 1) joined.
func startedMatch(t *testing.T, tmpl rules.Template, clk Clock) *match {
	t.Helper()
	m, err := newMatch(tmpl, testConfig(clk))
	if err != nil {
		t.Fatalf("newMatch() failed: %v", err)
	}
	for _, name := range []string{"alpha", "bravo"} {
		if _, err := m.join(context.Background(), name); err != nil {
			t.Fatalf("join(%q) failed: %v", name, err)
		}
	}
	if m.status != StatusInProgress {
		t.Fatalf("status = %s, want %s", m.status, StatusInProgress)
	}
	return m
}

// relocate moves a live piece to an empty cell, bypassing the move rules.
func relocate(t *testing.T, s *rules.State, id rules.PieceID, to rules.Pos) {
	t.Helper()
	p, ok := s.Piece(id)
	if !ok {
		t.Fatalf("piece %s not found", id)
	}
	if p.Pos == to {
		return
	}
	if !s.Grid.IsEmpty(to) {
		t.Fatalf("cell %s is %q", to, s.Grid.At(to))
	}
	s.Grid.Set(p.Pos, rules.EmptyCell)
	s.Grid.Set(to, rules.PieceCell(id))
	p.Pos = to
}
