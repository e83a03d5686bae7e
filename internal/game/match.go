package game

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/MJE43/ctf-engine-go/internal/board"
	"github.com/MJE43/ctf-engine-go/internal/placement"
	"github.com/MJE43/ctf-engine-go/internal/rules"
)

// Status is the turn state machine's state.
type Status string

const (
	StatusAwaiting   Status = "awaiting_players"
	StatusInProgress Status = "in_progress"
	StatusOver       Status = "over"
)

// EndReason records what ended a game.
type EndReason string

const (
	EndFlags     EndReason = "flags"
	EndPieces    EndReason = "pieces"
	EndNoMoves   EndReason = "no_moves"
	EndGiveUp    EndReason = "giveup"
	EndTimeout   EndReason = "timeout"
	EndPlacement EndReason = "placement_failed"
)

// timerGrace is added to every time limit.
const timerGrace = time.Second

// JoinResult is returned to a team that joined.
type JoinResult struct {
	TeamID string `json:"teamId"`
	Color  string `json:"teamColor"`
	Slot   int    `json:"-"`
}

// match is the turn state machine for one game. It is not safe for
// concurrent use; Game serializes every call onto one goroutine.
type match struct {
	cfg      config
	board    *board.Board
	state    *rules.State
	registry *Registry
	placer   *placement.Placer
	logger   zerolog.Logger

	status       Status
	startedAt    time.Time
	endedAt      time.Time
	gameDeadline time.Time
	moveDeadline time.Time
	winners      []int
	reason       EndReason
	lastCause    EndReason
	moves        []rules.Move
	version      uint64
}

func newMatch(tmpl rules.Template, cfg config) (*match, error) {
	b, err := board.Generate(tmpl)
	if err != nil {
		return nil, err
	}
	return &match{
		cfg:      cfg,
		board:    b,
		state:    b.State,
		registry: NewRegistry(tmpl.Teams),
		placer:   placement.New(placement.WithWorkers(cfg.workers), placement.WithLogger(cfg.logger)),
		logger:   cfg.logger,
		status:   StatusAwaiting,
	}, nil
}

func (m *match) template() rules.Template { return m.board.Template }

func (m *match) changed() { m.version++ }

func (m *match) join(ctx context.Context, name string) (JoinResult, error) {
	if name == "" {
		return JoinResult{}, ErrInvalidName
	}
	if m.status != StatusAwaiting {
		return JoinResult{}, ErrNoSlots
	}
	if _, taken := m.registry.index[name]; taken {
		return JoinResult{}, ErrNoSlots
	}
	slot := m.state.OpenSlot()
	if slot < 0 {
		return JoinResult{}, ErrNoSlots
	}

	team, err := m.board.InitTeam(slot)
	if err != nil {
		return JoinResult{}, err
	}
	if err := m.registry.Register(name, slot); err != nil {
		return JoinResult{}, err
	}
	m.changed()
	m.logger.Info().Str("team", name).Int("slot", slot).Msg("team joined")

	res := JoinResult{TeamID: name, Color: team.Color, Slot: slot}
	if m.state.OpenSlot() < 0 {
		if err := m.start(ctx); err != nil {
			return res, err
		}
	}
	return res, nil
}

// start places every piece, picks the first team and arms the deadlines.
func (m *match) start(ctx context.Context) error {
	if err := m.placer.Place(ctx, m.board); err != nil {
		m.logger.Error().Err(err).Msg("placement failed")
		m.finish(nil, EndPlacement)
		return err
	}

	now := m.cfg.clock.Now()
	m.status = StatusInProgress
	m.startedAt = now
	m.state.Current = m.cfg.pick(len(m.state.Slots))
	if limit := m.template().TotalTimeLimitInSeconds; limit != rules.NoLimit {
		m.gameDeadline = now.Add(time.Duration(limit)*time.Second + timerGrace)
	}
	m.resetMoveDeadline(now)
	m.changed()
	m.logger.Info().
		Str("first_team", m.registry.Name(m.state.Current)).
		Str("placement", string(m.template().Placement)).
		Msg("game started")

	m.settle()
	return nil
}

func (m *match) resetMoveDeadline(now time.Time) {
	if limit := m.template().MoveTimeLimitInSeconds; limit != rules.NoLimit {
		m.moveDeadline = now.Add(time.Duration(limit)*time.Second + timerGrace)
	}
}

func (m *match) checkPlaying() error {
	switch m.status {
	case StatusOver:
		return reject(ReasonGameOver, "")
	case StatusAwaiting:
		return reject(ReasonNotStarted, "waiting for %d more teams", m.openSlots())
	}
	return nil
}

func (m *match) openSlots() int {
	n := 0
	for _, s := range m.state.Slots {
		if s.State == rules.SlotOpen {
			n++
		}
	}
	return n
}

func (m *match) move(cmd MoveCommand) error {
	if err := m.checkPlaying(); err != nil {
		return err
	}
	mv, err := m.registry.ResolveMove(cmd)
	if err != nil {
		return err
	}
	if mv.Team != m.state.Current {
		return reject(ReasonNotYourTurn, "current team is %s", m.registry.Name(m.state.Current))
	}
	if mv.Piece.Team != mv.Team {
		return reject(ReasonNotYourPiece, "%s", cmd.PieceID)
	}

	res, err := rules.Apply(m.state, mv)
	switch {
	case errors.Is(err, rules.ErrPieceNotFound):
		return reject(ReasonUnknownPiece, "%s", cmd.PieceID)
	case errors.Is(err, rules.ErrIllegalMove):
		return reject(ReasonIllegalMove, "%s to %v", cmd.PieceID, cmd.NewPosition)
	case err != nil:
		return err
	}

	m.moves = append(m.moves, mv)
	m.changed()
	ev := m.logger.Debug().
		Str("team", cmd.TeamID).
		Str("piece", m.registry.PieceName(mv.Piece)).
		Str("outcome", res.Outcome.String())
	if res.Defender != rules.NoTeam {
		ev = ev.Str("defender", m.registry.Name(res.Defender))
	}
	ev.Msg("move applied")

	m.state.Current = m.state.NextActive(m.state.Current)
	m.settle()
	m.resetMoveDeadline(m.cfg.clock.Now())
	return nil
}

func (m *match) giveUp(teamID string) error {
	if err := m.checkPlaying(); err != nil {
		return err
	}
	team, ok := m.registry.Resolve(teamID)
	if !ok || !m.registry.Joined(team) {
		return reject(ReasonUnknownTeam, "%q", teamID)
	}
	if team != m.state.Current {
		return reject(ReasonNotYourTurn, "current team is %s", m.registry.Name(m.state.Current))
	}

	m.eliminate(team, EndGiveUp)
	m.state.Current = m.state.NextActive(team)
	m.settle()
	m.resetMoveDeadline(m.cfg.clock.Now())
	m.changed()
	return nil
}

func (m *match) eliminate(team int, cause EndReason) {
	m.state.Eliminate(team)
	m.lastCause = cause
	m.logger.Info().Str("team", m.registry.Name(team)).Str("cause", string(cause)).Msg("team eliminated")
}

// settle runs the elimination cascade: teams without flags or pieces go
// first, then the current team is dropped while it cannot move.
func (m *match) settle() {
	for _, t := range m.state.ActiveTeams() {
		switch {
		case t.Flags <= 0:
			m.eliminate(t.Index, EndFlags)
		case len(t.Pieces) == 0:
			m.eliminate(t.Index, EndPieces)
		}
	}

	for m.state.LiveCount() > 1 {
		t, ok := m.state.Active(m.state.Current)
		if ok && rules.HasLegalMove(m.state, t) {
			break
		}
		if ok {
			m.eliminate(t.Index, EndNoMoves)
		}
		m.state.Current = m.state.NextActive(m.state.Current)
	}

	if m.state.LiveCount() <= 1 {
		var winners []int
		for _, t := range m.state.ActiveTeams() {
			winners = append(winners, t.Index)
		}
		m.finish(winners, m.lastCause)
	}
}

func (m *match) finish(winners []int, reason EndReason) {
	m.status = StatusOver
	m.state.Current = rules.NoTeam
	m.endedAt = m.cfg.clock.Now()
	m.winners = winners
	m.reason = reason
	m.changed()
	m.logger.Info().
		Strs("winners", m.registry.Names(winners)).
		Str("reason", string(reason)).
		Int("moves", len(m.moves)).
		Msg("game over")
}

// expireGame ends the game once the total deadline passes, keeping the
// teams tied for the most pieces as winners.
func (m *match) expireGame(now time.Time) {
	if m.status != StatusInProgress || m.gameDeadline.IsZero() || now.Before(m.gameDeadline) {
		return
	}
	best := -1
	var winners []int
	for _, t := range m.state.ActiveTeams() {
		switch n := len(t.Pieces); {
		case n > best:
			best = n
			winners = []int{t.Index}
		case n == best:
			winners = append(winners, t.Index)
		}
	}
	m.finish(winners, EndTimeout)
}

// expireMove hands the turn to the next team once the move deadline passes.
func (m *match) expireMove(now time.Time) {
	if m.status != StatusInProgress || m.moveDeadline.IsZero() || now.Before(m.moveDeadline) {
		return
	}
	skipped := m.state.Current
	m.state.Current = m.state.NextActive(m.state.Current)
	m.settle()
	m.resetMoveDeadline(now)
	m.changed()
	m.logger.Debug().Str("skipped", m.registry.Name(skipped)).Msg("move time expired")
}

// remaining reports whole seconds left until deadline: -1 without a limit, 0 once over.
func (m *match) remaining(now, deadline time.Time, limit int) int {
	switch {
	case limit == rules.NoLimit:
		return -1
	case m.status == StatusOver:
		return 0
	case deadline.IsZero():
		return limit
	}
	left := int(deadline.Sub(now) / time.Second)
	if left < 0 {
		return 0
	}
	return left
}

func (m *match) snapshot() Snapshot {
	now := m.cfg.clock.Now()
	tmpl := m.template()
	snap := Snapshot{
		StateView:                  m.registry.ToView(m.state),
		ID:                         m.cfg.id,
		Status:                     m.status,
		RemainingGameTimeInSeconds: m.remaining(now, m.gameDeadline, tmpl.TotalTimeLimitInSeconds),
		RemainingMoveTimeInSeconds: m.remaining(now, m.moveDeadline, tmpl.MoveTimeLimitInSeconds),
		GameOver:                   m.status == StatusOver,
		Winners:                    m.registry.Names(m.winners),
	}
	if !m.startedAt.IsZero() {
		t := m.startedAt
		snap.GameStarted = &t
	}
	if !m.endedAt.IsZero() {
		t := m.endedAt
		snap.GameEnded = &t
	}
	return snap
}

func (m *match) summary() MatchSummary {
	s := MatchSummary{
		ID:        m.cfg.id,
		Template:  m.template(),
		Teams:     m.registry.Names(joinedSlots(m.registry)),
		Winners:   m.registry.Names(m.winners),
		Reason:    m.reason,
		StartedAt: m.startedAt,
		EndedAt:   m.endedAt,
		Moves:     make([]MoveView, len(m.moves)),
	}
	for i, mv := range m.moves {
		s.Moves[i] = *m.registry.moveView(mv)
	}
	return s
}

func joinedSlots(r *Registry) []int {
	var out []int
	for i := range r.names {
		if r.Joined(i) {
			out = append(out, i)
		}
	}
	return out
}
