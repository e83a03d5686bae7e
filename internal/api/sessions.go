package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MJE43/ctf-engine-go/internal/game"
	"github.com/MJE43/ctf-engine-go/internal/rules"
)

// session pairs a running game with the secrets handed out at join time.
type session struct {
	game *game.Game

	mu      sync.Mutex
	secrets map[string]string
	slots   map[int]string
}

// check verifies the secret of team, addressed by name or slot index.
func (s *session) check(team, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	want, ok := s.secrets[team]
	if !ok {
		if i, err := strconv.Atoi(team); err == nil {
			want, ok = s.secrets[s.slots[i]]
		}
	}
	if !ok || subtle.ConstantTimeCompare([]byte(want), []byte(secret)) != 1 {
		return fmt.Errorf("%w: team %q", ErrForbidden, team)
	}
	return nil
}

// Sessions is the set of live games, keyed by session id.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*session
	running  sync.WaitGroup

	logger   zerolog.Logger
	recorder game.Recorder
	opts     []game.Option
}

// NewSessions creates an empty registry. recorder may be nil; opts apply to every game.
func NewSessions(logger zerolog.Logger, recorder game.Recorder, opts ...game.Option) *Sessions {
	return &Sessions{
		sessions: make(map[string]*session),
		logger:   logger,
		recorder: recorder,
		opts:     opts,
	}
}

// Create starts a new game for tmpl.
func (s *Sessions) Create(tmpl rules.Template) (*game.Game, error) {
	opts := []game.Option{
		game.WithID(uuid.NewString()),
		game.WithLogger(s.logger),
		game.WithOnClose(s.remove),
	}
	if s.recorder != nil {
		opts = append(opts, game.WithRecorder(s.recorder))
	}
	g, err := game.New(tmpl, append(opts, s.opts...)...)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.sessions[g.ID()] = &session{
		game:    g,
		secrets: make(map[string]string),
		slots:   make(map[int]string),
	}
	s.mu.Unlock()

	s.running.Add(1)
	go func() {
		defer s.running.Done()
		<-g.Done()
	}()
	return g, nil
}

func (s *Sessions) get(id string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Get returns the live game with the given id.
func (s *Sessions) Get(id string) (*game.Game, error) {
	sess, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return sess.game, nil
}

// Join adds a team to game id and issues its secret.
func (s *Sessions) Join(ctx context.Context, id, team string) (JoinResponse, error) {
	sess, err := s.get(id)
	if err != nil {
		return JoinResponse{}, err
	}
	res, err := sess.game.Join(ctx, team)
	if err != nil {
		return JoinResponse{}, err
	}

	secret := uuid.NewString()
	sess.mu.Lock()
	sess.secrets[res.TeamID] = secret
	sess.slots[res.Slot] = res.TeamID
	sess.mu.Unlock()

	return JoinResponse{
		GameSessionID: id,
		TeamID:        res.TeamID,
		TeamColor:     res.Color,
		TeamSecret:    secret,
	}, nil
}

// Move applies a move after checking the acting team's secret.
func (s *Sessions) Move(ctx context.Context, id string, req MoveRequest) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}
	if err := sess.check(req.TeamID, req.TeamSecret); err != nil {
		return err
	}
	return sess.game.Move(ctx, game.MoveCommand{
		TeamID:      req.TeamID,
		PieceID:     req.PieceID,
		NewPosition: req.NewPosition,
	})
}

// GiveUp eliminates the requesting team after checking its secret.
func (s *Sessions) GiveUp(ctx context.Context, id string, req GiveUpRequest) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}
	if err := sess.check(req.TeamID, req.TeamSecret); err != nil {
		return err
	}
	return sess.game.GiveUp(ctx, req.TeamID)
}

// Delete discards the game immediately.
func (s *Sessions) Delete(id string) error {
	sess, err := s.get(id)
	if err != nil {
		return err
	}
	sess.game.Close()
	<-sess.game.Done()
	return nil
}

func (s *Sessions) remove(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// CloseAll discards every game and waits until all games created by s,
// including ones already discarded, have stopped and written their records.
func (s *Sessions) CloseAll() {
	s.mu.RLock()
	games := make([]*game.Game, 0, len(s.sessions))
	for _, sess := range s.sessions {
		games = append(games, sess.game)
	}
	s.mu.RUnlock()

	for _, g := range games {
		g.Close()
	}
	s.running.Wait()
}
