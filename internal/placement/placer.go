package placement

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"

	"github.com/MJE43/ctf-engine-go/internal/board"
	"github.com/MJE43/ctf-engine-go/internal/rules"
)

var (
	ErrUnplaced        = errors.New("pieces left unplaced")
	ErrUnknownStrategy = errors.New("unknown placement strategy")
)

// Placer puts every team's roster into its partition.
type Placer struct {
	workers int
	logger  zerolog.Logger
}

// Option configures a Placer.
type Option func(*Placer)

// WithWorkers sets the number of parallel hill-climbing trials.
func WithWorkers(n int) Option {
	return func(p *Placer) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithLogger sets the logger used for trial summaries.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Placer) { p.logger = l }
}

// New creates a placer with one trial per available CPU.
func New(opts ...Option) *Placer {
	p := &Placer{
		workers: runtime.GOMAXPROCS(0),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With().Str("component", "placer").Logger()
	return p
}

// Place runs the template's strategy on b. All teams must have joined.
func (p *Placer) Place(ctx context.Context, b *board.Board) error {
	if err := b.CheckFeasible(); err != nil {
		return err
	}

	var err error
	switch b.Template.Placement {
	case rules.PlacementSymmetrical:
		err = p.symmetrical(b)
	case rules.PlacementSpacedOut:
		err = p.spacedOut(ctx, b, nil)
	case rules.PlacementDefensive:
		err = p.defensive(ctx, b)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownStrategy, b.Template.Placement)
	}
	if err != nil {
		return err
	}
	return verify(b)
}

func verify(b *board.Board) error {
	for _, t := range b.State.ActiveTeams() {
		for _, pc := range t.Pieces {
			if pc.Pos == rules.NoPos {
				return fmt.Errorf("%w: %s", ErrUnplaced, pc.ID)
			}
			if !b.Partitions[t.Index].Contains(pc.Pos) {
				return fmt.Errorf("piece %s placed outside its partition at %s", pc.ID, pc.Pos)
			}
		}
	}
	return b.State.CheckInvariants()
}

// put places an unplaced piece on an empty cell.
func put(s *rules.State, pc *rules.Piece, to rules.Pos) {
	s.Grid.Set(to, rules.PieceCell(pc.ID))
	pc.Pos = to
}

// relocate moves a placed piece to an empty cell.
func relocate(s *rules.State, pc *rules.Piece, to rules.Pos) {
	s.Grid.Set(pc.Pos, rules.EmptyCell)
	s.Grid.Set(to, rules.PieceCell(pc.ID))
	pc.Pos = to
}

func unplaced(t *rules.Team) []*rules.Piece {
	var out []*rules.Piece
	for _, pc := range t.Pieces {
		if pc.Pos == rules.NoPos {
			out = append(out, pc)
		}
	}
	return out
}
