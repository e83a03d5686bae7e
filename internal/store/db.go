package store

import (
	"context"
	"errors"
	"time"

	"github.com/MJE43/ctf-engine-go/internal/game"
)

// ErrNotFound is returned when no archived match has the requested id.
var ErrNotFound = errors.New("match not found")

// Archive stores finished matches. It satisfies game.Recorder.
type Archive interface {
	game.Recorder
	Close() error
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	GetMatch(ctx context.Context, id string) (*Match, error)
	ListMatches(ctx context.Context, query MatchesQuery) (*MatchesList, error)
}

// MatchesQuery represents query parameters for listing matches
type MatchesQuery struct {
	Winner  string `json:"winner,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

// MatchesList represents a paginated matches response
type MatchesList struct {
	Matches    []Match `json:"matches"`
	TotalCount int     `json:"totalCount"`
	Page       int     `json:"page"`
	PerPage    int     `json:"perPage"`
	TotalPages int     `json:"totalPages"`
}

// Match is an archived game. Moves are only loaded by GetMatch.
type Match struct {
	game.MatchSummary
	MoveCount  int       `json:"moveCount"`
	RecordedAt time.Time `json:"recordedAt"`
}
