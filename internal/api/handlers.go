package api

import (
	"net/http"
	"strconv"

	"github.com/MJE43/ctf-engine-go/internal/store"
)

const maxTeamName = 64

// POST /api/gamesession
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", err.Error())
		return
	}
	if req.Template == nil {
		s.errorHandler.HandleValidationError(w, r, "template", "template is required")
		return
	}

	g, err := s.sessions.Create(*req.Template)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	snap, err := g.Snapshot(r.Context())
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sessionResponse(snap))
}

// GET /api/gamesession/{id}
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	g, err := s.sessions.Get(sessionID(r))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	snap, err := g.Snapshot(r.Context())
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionResponse(snap))
}

// GET /api/gamesession/{id}/state
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	g, err := s.sessions.Get(sessionID(r))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	snap, err := g.Snapshot(r.Context())
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// DELETE /api/gamesession/{id}
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(sessionID(r)); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/gamesession/{id}/join
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req JoinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", err.Error())
		return
	}
	if req.TeamID == "" || len(req.TeamID) > maxTeamName {
		s.errorHandler.HandleValidationError(w, r, "teamId", "teamId must be 1 to 64 characters")
		return
	}

	resp, err := s.sessions.Join(r.Context(), sessionID(r), req.TeamID)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// POST /api/gamesession/{id}/move
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", err.Error())
		return
	}
	if req.TeamID == "" || req.PieceID == "" {
		s.errorHandler.HandleValidationError(w, r, "teamId/pieceId", "teamId and pieceId are required")
		return
	}

	id := sessionID(r)
	if err := s.sessions.Move(r.Context(), id, req); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeState(w, r, id)
}

// POST /api/gamesession/{id}/giveup
func (s *Server) handleGiveUp(w http.ResponseWriter, r *http.Request) {
	var req GiveUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", err.Error())
		return
	}
	if req.TeamID == "" {
		s.errorHandler.HandleValidationError(w, r, "teamId", "teamId is required")
		return
	}

	id := sessionID(r)
	if err := s.sessions.GiveUp(r.Context(), id, req); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeState(w, r, id)
}

func (s *Server) writeState(w http.ResponseWriter, r *http.Request, id string) {
	g, err := s.sessions.Get(id)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	snap, err := g.Snapshot(r.Context())
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, snap)
}

// GET /api/matches?winner=&reason=&page=&perPage=
func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.errorHandler.HandleError(w, r, ErrArchiveDisabled)
		return
	}

	q := r.URL.Query()
	query := store.MatchesQuery{
		Winner: q.Get("winner"),
		Reason: q.Get("reason"),
	}
	for field, dst := range map[string]*int{"page": &query.Page, "perPage": &query.PerPage} {
		v := q.Get(field)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.errorHandler.HandleValidationError(w, r, field, field+" must be a positive integer")
			return
		}
		*dst = n
	}

	list, err := s.archive.ListMatches(r.Context(), query)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

// GET /api/matches/{id}
func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.errorHandler.HandleError(w, r, ErrArchiveDisabled)
		return
	}
	m, err := s.archive.GetMatch(r.Context(), sessionID(r))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}
