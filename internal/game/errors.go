package game

import (
	"errors"
	"fmt"
)

var (
	ErrNoSlots       = errors.New("no team slots available")
	ErrGameOver      = errors.New("game is over")
	ErrInvalidMove   = errors.New("invalid move")
	ErrSessionClosed = errors.New("game session closed")
	ErrInvalidName   = errors.New("invalid team name")
)

// Reason says why a move or give-up was rejected.
type Reason string

const (
	ReasonGameOver     Reason = "game_over"
	ReasonNotStarted   Reason = "not_started"
	ReasonNotYourTurn  Reason = "not_your_turn"
	ReasonNotYourPiece Reason = "not_your_piece"
	ReasonUnknownTeam  Reason = "unknown_team"
	ReasonUnknownPiece Reason = "unknown_piece"
	ReasonIllegalMove  Reason = "illegal_move"
)

// Rejection is returned for commands refused before any state changed.
// It matches ErrGameOver or ErrInvalidMove under errors.Is.
type Rejection struct {
	Reason Reason
	Detail string
}

func reject(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s: %s", r.Reason, r.Detail)
}

func (r *Rejection) Is(target error) bool {
	switch target {
	case ErrGameOver:
		return r.Reason == ReasonGameOver
	case ErrInvalidMove:
		return r.Reason != ReasonGameOver
	}
	return false
}
