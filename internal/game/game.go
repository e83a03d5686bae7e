package game

import (
	"context"
	"sync"
	"time"

	"github.com/MJE43/ctf-engine-go/internal/rules"
)

const recordTimeout = 5 * time.Second

// Game is one running match. A single goroutine owns the match state and
// applies commands in arrival order, so moves, give-ups and timer expiries
// never interleave.
type Game struct {
	cfg config

	cmds   chan func(*match)
	quit   chan struct{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	writes sync.WaitGroup

	// owned by the run goroutine
	subs      map[int]chan Snapshot
	nextSub   int
	published uint64
	timersOn  bool
	recorded  bool
}

// New generates the board for tmpl and starts the game's goroutine. It fails
// when the template is invalid or the grid cannot hold every roster.
func New(tmpl rules.Template, opts ...Option) (*Game, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.logger = cfg.logger.With().Str("game_id", cfg.id).Logger()

	m, err := newMatch(tmpl, cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	g := &Game{
		cfg:    cfg,
		cmds:   make(chan func(*match)),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[int]chan Snapshot),
	}
	go g.run(m)
	cfg.logger.Info().
		Ints("grid", tmpl.GridSize[:]).
		Int("teams", tmpl.Teams).
		Str("placement", string(tmpl.Placement)).
		Msg("game created")
	return g, nil
}

func (g *Game) ID() string { return g.cfg.id }

// Done is closed once the game has been discarded and its match record,
// if any, has been written.
func (g *Game) Done() <-chan struct{} { return g.done }

// Close discards the game. Pending placement is cancelled.
func (g *Game) Close() {
	g.once.Do(func() {
		g.cancel()
		close(g.quit)
	})
}

func (g *Game) run(m *match) {
	defer close(g.done)
	defer g.writes.Wait()

	var discard <-chan time.Time
	for {
		select {
		case fn := <-g.cmds:
			fn(m)
		case <-discard:
			g.cfg.logger.Debug().Msg("grace period elapsed")
			g.shutdown(m)
			return
		case <-g.quit:
			g.shutdown(m)
			return
		}

		g.publish(m)
		if !g.timersOn && m.status == StatusInProgress {
			g.timersOn = true
			g.startTimers(m.template())
		}
		if !g.recorded && m.status == StatusOver {
			g.recorded = true
			g.record(m.summary())
			if g.cfg.grace >= 0 {
				discard = time.After(g.cfg.grace)
			}
		}
	}
}

func (g *Game) shutdown(m *match) {
	g.cancel()
	for id, ch := range g.subs {
		close(ch)
		delete(g.subs, id)
	}
	m.state = nil
	g.cfg.logger.Info().Msg("game discarded")
	if g.cfg.onClose != nil {
		g.cfg.onClose(g.cfg.id)
	}
}

func (g *Game) record(s MatchSummary) {
	if g.cfg.recorder == nil || s.Reason == EndPlacement {
		return
	}
	g.writes.Add(1)
	go func() {
		defer g.writes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := g.cfg.recorder.RecordMatch(ctx, s); err != nil {
			g.cfg.logger.Error().Err(err).Msg("failed to record match")
		}
	}()
}

// publish pushes the latest snapshot to every subscriber, replacing any
// snapshot it has not read yet.
func (g *Game) publish(m *match) {
	if m.version == g.published || m.state == nil {
		return
	}
	g.published = m.version
	if len(g.subs) == 0 {
		return
	}
	snap := m.snapshot()
	for _, ch := range g.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// do runs fn on the game goroutine and waits for it to finish.
func (g *Game) do(ctx context.Context, fn func(*match)) error {
	finished := make(chan struct{})
	cmd := func(m *match) {
		defer close(finished)
		fn(m)
	}
	select {
	case g.cmds <- cmd:
	case <-g.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// Join adds a team under name. The last join places every piece and
// starts the game before returning.
func (g *Game) Join(ctx context.Context, name string) (JoinResult, error) {
	var (
		res JoinResult
		err error
	)
	if derr := g.do(ctx, func(m *match) { res, err = m.join(g.ctx, name) }); derr != nil {
		return JoinResult{}, derr
	}
	return res, err
}

func (g *Game) Move(ctx context.Context, cmd MoveCommand) error {
	var err error
	if derr := g.do(ctx, func(m *match) { err = m.move(cmd) }); derr != nil {
		return derr
	}
	return err
}

// GiveUp eliminates teamID. Only the team whose turn it is may give up.
func (g *Game) GiveUp(ctx context.Context, teamID string) error {
	var err error
	if derr := g.do(ctx, func(m *match) { err = m.giveUp(teamID) }); derr != nil {
		return derr
	}
	return err
}

func (g *Game) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := g.do(ctx, func(m *match) { snap = m.snapshot() })
	return snap, err
}

// Summary returns what the game would record if it ended now.
func (g *Game) Summary(ctx context.Context) (MatchSummary, error) {
	var s MatchSummary
	err := g.do(ctx, func(m *match) { s = m.summary() })
	return s, err
}

// Subscribe returns a channel that always holds the most recent snapshot
// not yet received. The channel is closed when the game is discarded or
// the returned cancel func is called.
func (g *Game) Subscribe(ctx context.Context) (<-chan Snapshot, func(), error) {
	ch := make(chan Snapshot, 1)
	var id int
	err := g.do(ctx, func(m *match) {
		id = g.nextSub
		g.nextSub++
		g.subs[id] = ch
		ch <- m.snapshot()
	})
	if err != nil {
		return nil, nil, err
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = g.do(context.Background(), func(*match) {
				if c, ok := g.subs[id]; ok {
					delete(g.subs, id)
					close(c)
				}
			})
		})
	}
	return ch, cancel, nil
}
