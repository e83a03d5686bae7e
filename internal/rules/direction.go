package rules

// Direction is one of the 8 compass directions a piece can move in.
// The numeric order is the order reach values are listed in a template.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
	UpLeft
	UpRight
	DownLeft
	DownRight
)

// AllDirections lists every direction in index order.
var AllDirections = [8]Direction{Left, Right, Up, Down, UpLeft, UpRight, DownLeft, DownRight}

// Delta returns the row and column step for one move in d.
func (d Direction) Delta() (dRow, dCol int) {
	switch d {
	case Left:
		return 0, -1
	case Right:
		return 0, 1
	case Up:
		return -1, 0
	case Down:
		return 1, 0
	case UpLeft:
		return -1, -1
	case UpRight:
		return -1, 1
	case DownLeft:
		return 1, -1
	case DownRight:
		return 1, 1
	}
	return 0, 0
}

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	case UpLeft:
		return "upLeft"
	case UpRight:
		return "upRight"
	case DownLeft:
		return "downLeft"
	case DownRight:
		return "downRight"
	}
	return "unknown"
}
