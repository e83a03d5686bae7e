package api

import (
	"time"

	"github.com/MJE43/ctf-engine-go/internal/game"
	"github.com/MJE43/ctf-engine-go/internal/rules"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

func (e EngineError) Error() string {
	return e.Message
}

const (
	// Input validation errors
	ErrTypeValidation    = "validation_error"
	ErrTypeTooManyPieces = "too_many_pieces"

	// Game-related errors
	ErrTypeSessionNotFound = "session_not_found"
	ErrTypeNoSlots         = "no_slots_available"
	ErrTypeForbiddenMove   = "forbidden_move"
	ErrTypeInvalidMove     = "invalid_move"
	ErrTypeGameOver        = "game_over"
	ErrTypeMatchNotFound   = "match_not_found"

	// System errors
	ErrTypeTimeout  = "timeout"
	ErrTypeInternal = "internal_error"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryGame       ErrorCategory = "game"
	CategorySystem     ErrorCategory = "system"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeValidation, ErrTypeTooManyPieces:
		return CategoryValidation
	case ErrTypeSessionNotFound, ErrTypeNoSlots, ErrTypeForbiddenMove, ErrTypeInvalidMove, ErrTypeGameOver, ErrTypeMatchNotFound:
		return CategoryGame
	default:
		return CategorySystem
	}
}

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

type CreateSessionRequest struct {
	Template *rules.Template `json:"template"`
}

// SessionResponse is the session summary without the board.
type SessionResponse struct {
	ID                         string      `json:"id"`
	Status                     game.Status `json:"status"`
	GameStarted                *time.Time  `json:"gameStarted"`
	GameEnded                  *time.Time  `json:"gameEnded"`
	RemainingGameTimeInSeconds int         `json:"remainingGameTimeInSeconds"`
	RemainingMoveTimeInSeconds int         `json:"remainingMoveTimeInSeconds"`
	GameOver                   bool        `json:"gameOver"`
	Winners                    []string    `json:"winner"`
}

func sessionResponse(s game.Snapshot) SessionResponse {
	winners := s.Winners
	if winners == nil {
		winners = []string{}
	}
	return SessionResponse{
		ID:                         s.ID,
		Status:                     s.Status,
		GameStarted:                s.GameStarted,
		GameEnded:                  s.GameEnded,
		RemainingGameTimeInSeconds: s.RemainingGameTimeInSeconds,
		RemainingMoveTimeInSeconds: s.RemainingMoveTimeInSeconds,
		GameOver:                   s.GameOver,
		Winners:                    winners,
	}
}

type JoinRequest struct {
	TeamID string `json:"teamId"`
}

type JoinResponse struct {
	GameSessionID string `json:"gameSessionId"`
	TeamID        string `json:"teamId"`
	TeamColor     string `json:"teamColor"`
	TeamSecret    string `json:"teamSecret"`
}

type MoveRequest struct {
	TeamID      string `json:"teamId"`
	TeamSecret  string `json:"teamSecret"`
	PieceID     string `json:"pieceId"`
	NewPosition [2]int `json:"newPosition"`
}

type GiveUpRequest struct {
	TeamID     string `json:"teamId"`
	TeamSecret string `json:"teamSecret"`
}
