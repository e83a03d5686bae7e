package board

import (
	"fmt"

	"github.com/MJE43/ctf-engine-go/internal/engine"
	"github.com/MJE43/ctf-engine-go/internal/rules"
)

const blockSalt = "blocks"

// Board is a generated grid together with each team's partition and base.
type Board struct {
	Template   rules.Template
	State      *rules.State
	Partitions []Rect
	Bases      []rules.Pos
}

// Generate builds the initial board for t: bases at partition centres and
// seeded blocks. It fails with ErrTooManyPieces when some partition cannot
// hold a full roster.
func Generate(t rules.Template) (*Board, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.Pieces = append([]rules.PieceDescription(nil), t.Pieces...)

	rects, bases, err := Partition(t.Rows(), t.Cols(), t.Teams)
	if err != nil {
		return nil, fmt.Errorf("%w: %dx%d grid for %d teams", err, t.Rows(), t.Cols(), t.Teams)
	}

	b := &Board{
		Template:   t,
		State:      rules.NewState(t.Rows(), t.Cols(), t.Teams),
		Partitions: rects,
		Bases:      bases,
	}
	for i, base := range bases {
		b.State.Grid.Set(base, rules.BaseCell(i))
	}
	if err := placeBlocks(b.State.Grid, t.Canonical(), t.Blocks); err != nil {
		return nil, err
	}
	if err := b.CheckFeasible(); err != nil {
		return nil, err
	}
	return b, nil
}

func placeBlocks(g rules.Grid, key string, blocks int) error {
	var free []rules.Pos
	for row := 0; row < g.Rows(); row++ {
		for col := 0; col < g.Cols(); col++ {
			if p := (rules.Pos{Row: row, Col: col}); g.IsEmpty(p) {
				free = append(free, p)
			}
		}
	}
	if blocks > len(free) {
		return fmt.Errorf("%w: %d blocks but only %d free cells", ErrTooManyPieces, blocks, len(free))
	}

	for remaining := blocks; remaining > 0; remaining-- {
		idx := engine.Intn(key, blockSalt, int64(remaining), len(free))
		g.Set(free[idx], rules.BlockCell)
		free = append(free[:idx], free[idx+1:]...)
	}
	return nil
}

// CheckFeasible verifies every partition has room for the team's unplaced pieces.
func (b *Board) CheckFeasible() error {
	for i, r := range b.Partitions {
		need := b.unplaced(i)
		if free := b.FreeCells(i); len(free) < need {
			return fmt.Errorf("%w: team %d needs %d cells in %+v, %d free", ErrTooManyPieces, i, need, r, len(free))
		}
	}
	return nil
}

// unplaced counts the pieces team i still has to put on the grid. Slots that
// have not joined yet count their full roster.
func (b *Board) unplaced(i int) int {
	t, ok := b.State.Active(i)
	if !ok {
		return b.Template.PiecesPerTeam()
	}
	n := 0
	for _, p := range t.Pieces {
		if p.Pos == rules.NoPos {
			n++
		}
	}
	return n
}

// FreeCells lists the empty cells of team i's partition in row-major order.
func (b *Board) FreeCells(i int) []rules.Pos {
	var out []rules.Pos
	for _, p := range b.Partitions[i].Cells() {
		if b.State.Grid.IsEmpty(p) {
			out = append(out, p)
		}
	}
	return out
}

// InitTeam fills slot i with a full, not yet placed, roster.
func (b *Board) InitTeam(slot int) (*rules.Team, error) {
	if slot < 0 || slot >= len(b.State.Slots) || b.State.Slots[slot].State != rules.SlotOpen {
		return nil, fmt.Errorf("%w: %d", ErrSlotTaken, slot)
	}

	team := &rules.Team{Index: slot, Base: b.Bases[slot], Flags: b.Template.Flags}
	seq := 0
	for i := range b.Template.Pieces {
		desc := &b.Template.Pieces[i]
		for c := 0; c < desc.Count; c++ {
			team.Pieces = append(team.Pieces, &rules.Piece{
				ID:          rules.PieceID{Team: slot, Seq: seq},
				Description: desc,
				Pos:         rules.NoPos,
			})
			seq++
		}
	}
	team.Color = rules.TeamColor(team)
	b.State.Slots[slot] = rules.TeamSlot{State: rules.SlotActive, Team: team}
	return team, nil
}
