package rules

import "github.com/MJE43/ctf-engine-go/internal/engine"

const respawnSalt = "respawn"

// Ring returns the 8d cells at distance d around center in clockwise order,
// starting at the top-left corner. Cells may lie off the grid.
func Ring(center Pos, d int) []Pos {
	if d <= 0 {
		return []Pos{center}
	}
	out := make([]Pos, 0, 8*d)
	for c := -d; c <= d; c++ {
		out = append(out, center.Add(-d, c))
	}
	for r := -d + 1; r <= d-1; r++ {
		out = append(out, center.Add(r, d))
	}
	for c := d; c >= -d; c-- {
		out = append(out, center.Add(d, c))
	}
	for r := d - 1; r >= -d+1; r-- {
		out = append(out, center.Add(r, -d))
	}
	return out
}

// RespawnPos finds the nearest ring around base with a free cell and draws
// one of that ring's free cells with a seeded index.
func RespawnPos(g Grid, base Pos) (Pos, error) {
	limit := max(g.Rows(), g.Cols())
	for d := 1; d <= limit; d++ {
		var free []Pos
		for _, p := range Ring(base, d) {
			if g.IsEmpty(p) {
				free = append(free, p)
			}
		}
		if len(free) > 0 {
			return free[engine.Intn(g.Canonical(), respawnSalt, 1, len(free))], nil
		}
	}
	return NoPos, ErrNoFreeCell
}
