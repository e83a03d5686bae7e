package board

import "github.com/MJE43/ctf-engine-go/internal/rules"

// Rect is an inclusive block of cells owned by a single team.
type Rect struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p rules.Pos) bool {
	return p.Row >= r.Top && p.Row <= r.Bottom && p.Col >= r.Left && p.Col <= r.Right
}

// Cells lists the cells of r in row-major order.
func (r Rect) Cells() []rules.Pos {
	if r.Bottom < r.Top || r.Right < r.Left {
		return nil
	}
	out := make([]rules.Pos, 0, (r.Bottom-r.Top+1)*(r.Right-r.Left+1))
	for row := r.Top; row <= r.Bottom; row++ {
		for col := r.Left; col <= r.Right; col++ {
			out = append(out, rules.Pos{Row: row, Col: col})
		}
	}
	return out
}

// cuts splits the longer axis until there are at least n cells. Ties split rows.
func cuts(rows, cols, n int) (yCuts, xCuts int) {
	for (xCuts+1)*(yCuts+1) < n {
		ySize := float64(rows) / float64(yCuts+1)
		xSize := float64(cols) / float64(xCuts+1)
		if xSize > ySize {
			xCuts++
		} else {
			yCuts++
		}
	}
	return yCuts, xCuts
}

// Partition assigns one rectangle and one base cell to each of n teams in
// left-to-right, top-to-bottom order. Bases sit at the rectangle centres.
func Partition(rows, cols, n int) ([]Rect, []rules.Pos, error) {
	yCuts, xCuts := cuts(rows, cols, n)
	yParts, xParts := yCuts+1, xCuts+1
	if yParts > rows || xParts > cols {
		return nil, nil, ErrGridTooSmall
	}

	rects := make([]Rect, 0, n)
	bases := make([]rules.Pos, 0, n)
	for y := 0; y < yParts && len(rects) < n; y++ {
		for x := 0; x < xParts && len(rects) < n; x++ {
			rects = append(rects, Rect{
				Top:    y * rows / yParts,
				Bottom: (y+1)*rows/yParts - 1,
				Left:   x * cols / xParts,
				Right:  (x+1)*cols/xParts - 1,
			})
			bases = append(bases, rules.Pos{
				Row: (2*y + 1) * rows / (2 * yParts),
				Col: (2*x + 1) * cols / (2 * xParts),
			})
		}
	}
	return rects, bases, nil
}
