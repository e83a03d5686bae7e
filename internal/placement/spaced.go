package placement

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/MJE43/ctf-engine-go/internal/board"
	"github.com/MJE43/ctf-engine-go/internal/engine"
	"github.com/MJE43/ctf-engine-go/internal/rules"
)

const (
	placementSalt     = "placement"
	sideStepsPerTrial = 10
)

// trial is one independent hill-climbing run on its own copy of the state.
type trial struct {
	index     int
	modifier  int64
	sideSteps int
	sideways  []int
	state     *rules.State
	score     int
}

// spacedOut runs one trial per worker and installs the state with the most
// legal moves. Pieces in fixed never move. Ties keep the lowest trial index.
func (p *Placer) spacedOut(ctx context.Context, b *board.Board, fixed map[rules.PieceID]bool) error {
	trials := make([]*trial, p.workers)
	step := int64(math.MaxInt32 / p.workers)
	for i := range trials {
		trials[i] = &trial{
			index:     i,
			modifier:  step * int64(i),
			sideSteps: i * sideStepsPerTrial,
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, tr := range trials {
		g.Go(func() error {
			return tr.run(ctx, b, fixed)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("placement trials: %w", err)
	}

	best := trials[0]
	for _, tr := range trials[1:] {
		if tr.score > best.score {
			best = tr
		}
	}
	b.State.Grid = best.state.Grid
	b.State.Slots = best.state.Slots

	p.logger.Debug().
		Int("trials", len(trials)).
		Int("best_trial", best.index).
		Int("legal_moves", best.score).
		Msg("spaced out placement finished")
	return nil
}

func (tr *trial) run(ctx context.Context, b *board.Board, fixed map[rules.PieceID]bool) error {
	s := b.State.Clone()
	randomPlacement(s, b.Partitions, tr.modifier)
	tr.sideways = make([]int, len(s.Slots))
	for _, t := range s.ActiveTeams() {
		used, err := hillClimb(ctx, s, t, b.Partitions[t.Index], fixed, tr.sideSteps)
		if err != nil {
			return err
		}
		tr.sideways[t.Index] = used
	}
	tr.state = s
	tr.score = rules.TotalMoves(s)
	return nil
}

// randomPlacement drops every unplaced piece on a seeded free cell of its partition.
func randomPlacement(s *rules.State, rects []board.Rect, modifier int64) {
	key := s.Grid.Canonical()
	for _, t := range s.ActiveTeams() {
		var free []rules.Pos
		for _, pos := range rects[t.Index].Cells() {
			if s.Grid.IsEmpty(pos) {
				free = append(free, pos)
			}
		}
		for _, pc := range unplaced(t) {
			if len(free) == 0 {
				return
			}
			idx := engine.Intn(key, placementSalt, modifier, len(free))
			modifier++
			put(s, pc, free[idx])
			free = append(free[:idx], free[idx+1:]...)
		}
	}
}

// hillClimb repeatedly relocates the single piece whose move to an empty
// partition cell raises the team's legal move count the most. When no move
// improves, one sideways move is taken per unit of budget. It returns the
// number of sideways moves taken.
func hillClimb(ctx context.Context, s *rules.State, t *rules.Team, rect board.Rect, fixed map[rules.PieceID]bool, budget int) (int, error) {
	cells := rect.Cells()
	score := rules.CountMoves(s, t)
	used := 0

	for {
		if err := ctx.Err(); err != nil {
			return used, err
		}

		var (
			bestPiece, sidePiece *rules.Piece
			bestPos, sidePos     rules.Pos
			bestScore            = score
		)
		for _, pc := range t.Pieces {
			if fixed[pc.ID] {
				continue
			}
			from := pc.Pos
			for _, to := range cells {
				if !s.Grid.IsEmpty(to) {
					continue
				}
				relocate(s, pc, to)
				n := rules.CountMoves(s, t)
				relocate(s, pc, from)

				switch {
				case n > bestScore:
					bestPiece, bestPos, bestScore = pc, to, n
				case n == score && sidePiece == nil:
					sidePiece, sidePos = pc, to
				}
			}
		}

		switch {
		case bestPiece != nil:
			relocate(s, bestPiece, bestPos)
			score = bestScore
		case sidePiece != nil && used < budget:
			relocate(s, sidePiece, sidePos)
			used++
		default:
			return used, nil
		}
	}
}
