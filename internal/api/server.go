package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/MJE43/ctf-engine-go/internal/store"
)

const requestTimeout = 60 * time.Second

// Server handles HTTP requests
type Server struct {
	sessions     *Sessions
	archive      store.Archive
	errorHandler *ErrorHandler
	logger       zerolog.Logger
	startTime    time.Time
}

// NewServer creates the API server. archive may be nil to disable match history.
func NewServer(sessions *Sessions, archive store.Archive, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "api").Logger()
	return &Server{
		sessions:     sessions,
		archive:      archive,
		errorHandler: NewErrorHandler(logger),
		logger:       logger,
		startTime:    time.Now(),
	}
}

// Routes sets up the HTTP routes with middleware
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.errorHandler.RecoveryHandler)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Get("/health", s.handleHealthCheck)
		r.Get("/version", s.handleVersion)
		r.Get("/api/matches", s.handleListMatches)
		r.Get("/api/matches/{id}", s.handleGetMatch)
	})

	r.Route("/api/gamesession", func(r chi.Router) {
		// The stream outlives the request timeout.
		r.Get("/{id}/stream", s.handleStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(requestTimeout))
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.Delete("/{id}", s.handleDeleteSession)
			r.Get("/{id}/state", s.handleGetState)
			r.Post("/{id}/join", s.handleJoin)
			r.Post("/{id}/move", s.handleMove)
			r.Post("/{id}/giveup", s.handleGiveUp)
		})
	})

	return r
}

// requestLogger logs one line per request with its status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func sessionID(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

// decodeJSON reads a JSON body, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
