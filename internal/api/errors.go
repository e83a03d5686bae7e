package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/MJE43/ctf-engine-go/internal/board"
	"github.com/MJE43/ctf-engine-go/internal/game"
	"github.com/MJE43/ctf-engine-go/internal/rules"
	"github.com/MJE43/ctf-engine-go/internal/store"
)

var (
	ErrSessionNotFound = errors.New("game session not found")
	ErrForbidden       = errors.New("team secret does not match")
	ErrArchiveDisabled = errors.New("match archive is disabled")
)

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]any
	requestID string
}

func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]any),
	}
}

func (eb *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// WithCause records the underlying error text under "cause".
func (eb *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	if err != nil {
		eb.context["cause"] = err.Error()
	}
	return eb
}

func (eb *ErrorBuilder) Build() EngineError {
	ctx := eb.context
	if len(ctx) == 0 {
		ctx = nil
	}
	return EngineError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   ctx,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// classify maps a domain error to its HTTP status and error type.
func classify(err error) (int, string) {
	var engineErr EngineError
	switch {
	case errors.As(err, &engineErr):
		return statusFor(engineErr.Type), engineErr.Type
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, game.ErrSessionClosed):
		return http.StatusNotFound, ErrTypeSessionNotFound
	case errors.Is(err, store.ErrNotFound), errors.Is(err, ErrArchiveDisabled):
		return http.StatusNotFound, ErrTypeMatchNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, ErrTypeForbiddenMove
	case errors.Is(err, game.ErrNoSlots):
		return http.StatusTooManyRequests, ErrTypeNoSlots
	case errors.Is(err, game.ErrGameOver):
		return http.StatusGone, ErrTypeGameOver
	case errors.Is(err, game.ErrInvalidMove):
		return http.StatusConflict, ErrTypeInvalidMove
	case errors.Is(err, board.ErrTooManyPieces):
		return http.StatusUnprocessableEntity, ErrTypeTooManyPieces
	case errors.Is(err, rules.ErrInvalidTemplate),
		errors.Is(err, rules.ErrUnknownShape),
		errors.Is(err, board.ErrGridTooSmall),
		errors.Is(err, game.ErrInvalidName):
		return http.StatusBadRequest, ErrTypeValidation
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrTypeTimeout
	}
	return http.StatusInternalServerError, ErrTypeInternal
}

func statusFor(errType string) int {
	switch errType {
	case ErrTypeValidation:
		return http.StatusBadRequest
	case ErrTypeTooManyPieces:
		return http.StatusUnprocessableEntity
	case ErrTypeSessionNotFound, ErrTypeMatchNotFound:
		return http.StatusNotFound
	case ErrTypeNoSlots:
		return http.StatusTooManyRequests
	case ErrTypeForbiddenMove:
		return http.StatusForbidden
	case ErrTypeInvalidMove:
		return http.StatusConflict
	case ErrTypeGameOver:
		return http.StatusGone
	case ErrTypeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger zerolog.Logger
}

func NewErrorHandler(logger zerolog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError classifies err and writes the matching structured response.
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	status, errType := classify(err)

	eb := NewError(errType, err.Error()).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("path", r.URL.Path)
	var rej *game.Rejection
	if errors.As(err, &rej) {
		eb.WithContext("reason", string(rej.Reason))
	}
	if id := sessionID(r); id != "" {
		eb.WithContext("session_id", id)
	}
	engineErr := eb.Build()

	eh.logError(r, engineErr, status)
	eh.writeErrorResponse(w, status, engineErr)
}

// HandleValidationError handles validation-specific errors
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, field, message string) {
	engineErr := NewError(ErrTypeValidation, fmt.Sprintf("Validation failed: %s", message)).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("field", field).
		WithContext("path", r.URL.Path).
		Build()

	eh.logError(r, engineErr, http.StatusBadRequest)
	eh.writeErrorResponse(w, http.StatusBadRequest, engineErr)
}

func (eh *ErrorHandler) logError(r *http.Request, engineErr EngineError, status int) {
	category := GetErrorCategory(engineErr.Type)

	var ev *zerolog.Event
	switch {
	case status >= 500:
		ev = eh.logger.Error()
	case category == CategoryValidation:
		ev = eh.logger.Warn()
	default:
		ev = eh.logger.Info()
	}
	ev.Str("type", engineErr.Type).
		Str("category", string(category)).
		Int("status", status).
		Str("request_id", engineErr.RequestID).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Fields(engineErr.Context).
		Msg(engineErr.Message)
}

func (eh *ErrorHandler) writeErrorResponse(w http.ResponseWriter, status int, engineErr EngineError) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.Header().Set("X-Error-Type", engineErr.Type)
	w.Header().Set("X-Error-Category", string(GetErrorCategory(engineErr.Type)))
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(engineErr); err != nil {
		eh.logger.Error().Err(err).Msg("failed to encode error response")
	}
}

// RecoveryHandler provides panic recovery with structured error logging
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				requestID := middleware.GetReqID(r.Context())
				eh.logger.Error().
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Interface("panic", rvr).
					Msg("panic recovered")

				engineErr := NewError(ErrTypeInternal, "Internal server error").
					WithRequestID(requestID).
					WithContext("path", r.URL.Path).
					Build()
				eh.writeErrorResponse(w, http.StatusInternalServerError, engineErr)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
