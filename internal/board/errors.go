package board

import "errors"

var (
	ErrTooManyPieces = errors.New("too many pieces for the available cells")
	ErrGridTooSmall  = errors.New("grid too small for team count")
	ErrSlotTaken     = errors.New("team slot already initialized")
)
