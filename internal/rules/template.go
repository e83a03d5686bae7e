package rules

import (
	"fmt"
	"strings"
)

// Placement selects the piece placement strategy.
type Placement string

const (
	PlacementSymmetrical Placement = "symmetrical"
	PlacementSpacedOut   Placement = "spaced_out"
	PlacementDefensive   Placement = "defensive"
)

// ShapeType names a non-directional movement pattern.
type ShapeType string

// ShapeL is the knight-like L leap.
const ShapeL ShapeType = "lshape"

// Directions holds the reach of a piece in each compass direction.
type Directions struct {
	Left      int `json:"left"`
	Right     int `json:"right"`
	Up        int `json:"up"`
	Down      int `json:"down"`
	UpLeft    int `json:"upLeft"`
	UpRight   int `json:"upRight"`
	DownLeft  int `json:"downLeft"`
	DownRight int `json:"downRight"`
}

// Reach returns how many cells a piece may travel in d.
func (d Directions) Reach(dir Direction) int {
	switch dir {
	case Left:
		return d.Left
	case Right:
		return d.Right
	case Up:
		return d.Up
	case Down:
		return d.Down
	case UpLeft:
		return d.UpLeft
	case UpRight:
		return d.UpRight
	case DownLeft:
		return d.DownLeft
	case DownRight:
		return d.DownRight
	}
	return 0
}

// Omni returns directions with the same reach everywhere.
func Omni(reach int) *Directions {
	return &Directions{reach, reach, reach, reach, reach, reach, reach, reach}
}

type Shape struct {
	Type ShapeType `json:"type"`
}

// Movement is either a set of directional reaches or a shape, never both.
type Movement struct {
	Directions *Directions `json:"directions,omitempty"`
	Shape      *Shape      `json:"shape,omitempty"`
}

type PieceDescription struct {
	Type        string   `json:"type"`
	AttackPower int      `json:"attackPower"`
	Count       int      `json:"count"`
	Movement    Movement `json:"movement"`
}

// NoLimit disables a time limit. Zero is a real limit of zero seconds.
const NoLimit = -1

// Template is the static configuration a game is generated from.
type Template struct {
	GridSize                [2]int             `json:"gridSize"`
	Teams                   int                `json:"teams"`
	Flags                   int                `json:"flags"`
	Pieces                  []PieceDescription `json:"pieces"`
	Blocks                  int                `json:"blocks"`
	Placement               Placement          `json:"placement"`
	TotalTimeLimitInSeconds int                `json:"totalTimeLimitInSeconds"`
	MoveTimeLimitInSeconds  int                `json:"moveTimeLimitInSeconds"`
}

func (t Template) Rows() int { return t.GridSize[0] }
func (t Template) Cols() int { return t.GridSize[1] }

// PiecesPerTeam is the number of pieces every team starts with.
func (t Template) PiecesPerTeam() int {
	n := 0
	for _, d := range t.Pieces {
		n += d.Count
	}
	return n
}

// Validate rejects templates that cannot describe a playable game.
func (t Template) Validate() error {
	if t.Rows() < 1 || t.Cols() < 1 {
		return fmt.Errorf("%w: grid size must be positive, got %dx%d", ErrInvalidTemplate, t.Rows(), t.Cols())
	}
	if t.Teams < 2 {
		return fmt.Errorf("%w: at least 2 teams required, got %d", ErrInvalidTemplate, t.Teams)
	}
	if t.Flags < 1 {
		return fmt.Errorf("%w: flags must be at least 1, got %d", ErrInvalidTemplate, t.Flags)
	}
	if t.Blocks < 0 {
		return fmt.Errorf("%w: blocks must not be negative, got %d", ErrInvalidTemplate, t.Blocks)
	}
	if t.TotalTimeLimitInSeconds < NoLimit || t.MoveTimeLimitInSeconds < NoLimit {
		return fmt.Errorf("%w: time limits must be -1 or at least 0, got %d/%d",
			ErrInvalidTemplate, t.TotalTimeLimitInSeconds, t.MoveTimeLimitInSeconds)
	}
	if len(t.Pieces) == 0 {
		return fmt.Errorf("%w: piece roster is empty", ErrInvalidTemplate)
	}
	switch t.Placement {
	case PlacementSymmetrical, PlacementSpacedOut, PlacementDefensive:
	default:
		return fmt.Errorf("%w: unknown placement %q", ErrInvalidTemplate, t.Placement)
	}
	for i, d := range t.Pieces {
		if d.AttackPower < 1 {
			return fmt.Errorf("%w: piece %d (%s) attack power must be at least 1", ErrInvalidTemplate, i, d.Type)
		}
		if d.Count < 1 {
			return fmt.Errorf("%w: piece %d (%s) count must be at least 1", ErrInvalidTemplate, i, d.Type)
		}
		m := d.Movement
		if (m.Directions == nil) == (m.Shape == nil) {
			return fmt.Errorf("%w: piece %d (%s) needs exactly one of directions or shape", ErrInvalidTemplate, i, d.Type)
		}
		if m.Shape != nil && m.Shape.Type != ShapeL {
			return fmt.Errorf("%w: %q on piece %d (%s)", ErrUnknownShape, m.Shape.Type, i, d.Type)
		}
		if m.Directions != nil {
			for _, dir := range AllDirections {
				if m.Directions.Reach(dir) < 0 {
					return fmt.Errorf("%w: piece %d (%s) has negative reach %s", ErrInvalidTemplate, i, d.Type, dir)
				}
			}
		}
	}
	return nil
}

// Canonical serializes the fields that determine a generated board. It keys
// the seeded draws, so identical templates always produce identical boards.
func (t Template) Canonical() string {
	var b strings.Builder
	fmt.Fprintf(&b, "grid=%dx%d;teams=%d;flags=%d;blocks=%d;pieces=", t.Rows(), t.Cols(), t.Teams, t.Flags, t.Blocks)
	for i, d := range t.Pieces {
		if i > 0 {
			b.WriteByte('|')
		}
		fmt.Fprintf(&b, "%s/%d/%d/", d.Type, d.AttackPower, d.Count)
		if d.Movement.Shape != nil {
			fmt.Fprintf(&b, "shape:%s", d.Movement.Shape.Type)
			continue
		}
		if dirs := d.Movement.Directions; dirs != nil {
			for j, dir := range AllDirections {
				if j > 0 {
					b.WriteByte(',')
				}
				fmt.Fprintf(&b, "%d", dirs.Reach(dir))
			}
		}
	}
	return b.String()
}
