package placement

import (
	"fmt"

	"github.com/MJE43/ctf-engine-go/internal/board"
	"github.com/MJE43/ctf-engine-go/internal/rules"
)

var (
	frontCells = map[rules.Direction][3]rules.Direction{
		rules.Left:  {rules.Left, rules.DownLeft, rules.UpLeft},
		rules.Right: {rules.Right, rules.UpRight, rules.DownRight},
		rules.Up:    {rules.Up, rules.UpLeft, rules.UpRight},
		rules.Down:  {rules.Down, rules.DownRight, rules.DownLeft},
	}
	flankCells = map[rules.Direction][2]rules.Direction{
		rules.Left:  {rules.Down, rules.Up},
		rules.Right: {rules.Up, rules.Down},
		rules.Up:    {rules.Left, rules.Right},
		rules.Down:  {rules.Right, rules.Left},
	}
	// ringStart is the quarter of a ring where the scan begins, by facing.
	ringStart = map[rules.Direction]int{
		rules.Up:    0,
		rules.Right: 1,
		rules.Down:  2,
		rules.Left:  3,
	}
)

// facing returns the direction from team's base towards the nearest enemy base.
func facing(b *board.Board, team int) rules.Direction {
	own := b.Bases[team]
	nearest, best := -1, 0
	for i, base := range b.Bases {
		if i == team {
			continue
		}
		dr, dc := own.Row-base.Row, own.Col-base.Col
		if d := dr*dr + dc*dc; nearest < 0 || d < best {
			nearest, best = i, d
		}
	}
	if nearest < 0 {
		return rules.Up
	}

	dx := own.Col - b.Bases[nearest].Col
	dy := own.Row - b.Bases[nearest].Row
	if abs(dx) > abs(dy) {
		if dx > 0 {
			return rules.Left
		}
		return rules.Right
	}
	if dy > 0 {
		return rules.Up
	}
	return rules.Down
}

// ringSlot scans rings around team's base, starting on the facing side, for
// the first empty cell of the team's partition.
func ringSlot(b *board.Board, team int, face rules.Direction) (rules.Pos, bool) {
	base := b.Bases[team]
	rect := b.Partitions[team]
	limit := max(b.State.Grid.Rows(), b.State.Grid.Cols())
	for d := 1; d <= limit; d++ {
		ring := rules.Ring(base, d)
		offset := len(ring) * ringStart[face] / 4
		for j := range ring {
			pos := ring[(offset+j)%len(ring)]
			if rect.Contains(pos) && b.State.Grid.IsEmpty(pos) {
				return pos, true
			}
		}
	}
	return rules.NoPos, false
}

func (p *Placer) symmetrical(b *board.Board) error {
	for _, t := range b.State.ActiveTeams() {
		if err := placeSymmetric(b, t); err != nil {
			return err
		}
	}
	return nil
}

func placeSymmetric(b *board.Board, t *rules.Team) error {
	s := b.State
	rect := b.Partitions[t.Index]
	face := facing(b, t.Index)
	pieces := unplaced(t)
	next := 0

	try := func(pos rules.Pos) bool {
		if next < len(pieces) && rect.Contains(pos) && s.Grid.IsEmpty(pos) {
			put(s, pieces[next], pos)
			next++
			return true
		}
		return false
	}

	for _, d := range frontCells[face] {
		try(t.Base.Step(d, 1))
	}

	misses := 0
	for i := 0; next < len(pieces) && misses < 2; i++ {
		pos := t.Base.Step(flankCells[face][i%2], i/2)
		if !rect.Contains(pos) {
			misses++
			continue
		}
		if try(pos) {
			misses = 0
		}
	}

	for ; next < len(pieces); next++ {
		pos, ok := ringSlot(b, t.Index, face)
		if !ok {
			return fmt.Errorf("%w: team %d has %d pieces left", ErrUnplaced, t.Index, len(pieces)-next)
		}
		put(s, pieces[next], pos)
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
