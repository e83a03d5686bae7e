package rules

import "errors"

var (
	ErrInvalidTemplate = errors.New("invalid template")
	ErrUnknownShape    = errors.New("unknown movement shape")
	ErrPieceNotFound   = errors.New("piece not found")
	ErrIllegalMove     = errors.New("destination is not a legal move")
	ErrNoFreeCell      = errors.New("no free cell for respawn")
)
