package placement

import (
	"context"
	"fmt"
	"sort"

	"github.com/MJE43/ctf-engine-go/internal/board"
	"github.com/MJE43/ctf-engine-go/internal/rules"
)

// guardCount is how many of a team's strongest pieces ring its base.
const guardCount = 8

// defensive rings each base with its strongest pieces, tunes them by
// swapping among themselves, then spaces out everything else.
func (p *Placer) defensive(ctx context.Context, b *board.Board) error {
	fixed := make(map[rules.PieceID]bool)
	for _, t := range b.State.ActiveTeams() {
		guards := strongest(t, guardCount)
		face := facing(b, t.Index)
		for _, pc := range guards {
			pos, ok := ringSlot(b, t.Index, face)
			if !ok {
				return fmt.Errorf("%w: no room near base of team %d", ErrUnplaced, t.Index)
			}
			put(b.State, pc, pos)
			fixed[pc.ID] = true
		}
		swapClimb(b.State, t, guards)
	}
	return p.spacedOut(ctx, b, fixed)
}

// strongest returns up to n unplaced pieces ordered by attack power, strongest first.
func strongest(t *rules.Team, n int) []*rules.Piece {
	pieces := unplaced(t)
	sort.SliceStable(pieces, func(i, j int) bool {
		return pieces[i].Attack() > pieces[j].Attack()
	})
	if len(pieces) > n {
		pieces = pieces[:n]
	}
	return pieces
}

// swapClimb exchanges positions within the subset while that raises the
// team's legal move count. The set of occupied cells never changes.
func swapClimb(s *rules.State, t *rules.Team, subset []*rules.Piece) {
	score := rules.CountMoves(s, t)
	for improved := true; improved; {
		improved = false
		for i := 0; i < len(subset); i++ {
			for j := i + 1; j < len(subset); j++ {
				swap(s, subset[i], subset[j])
				if n := rules.CountMoves(s, t); n > score {
					score = n
					improved = true
					continue
				}
				swap(s, subset[i], subset[j])
			}
		}
	}
}

func swap(s *rules.State, a, b *rules.Piece) {
	a.Pos, b.Pos = b.Pos, a.Pos
	s.Grid.Set(a.Pos, rules.PieceCell(a.ID))
	s.Grid.Set(b.Pos, rules.PieceCell(b.ID))
}
