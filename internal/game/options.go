package game

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/MJE43/ctf-engine-go/internal/rules"
)

// Clock supplies the current time. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// MatchSummary is what a finished game leaves behind.
type MatchSummary struct {
	ID        string         `json:"id"`
	Template  rules.Template `json:"template"`
	Teams     []string       `json:"teams"`
	Winners   []string       `json:"winners"`
	Reason    EndReason      `json:"reason"`
	Moves     []MoveView     `json:"moves"`
	StartedAt time.Time      `json:"startedAt"`
	EndedAt   time.Time      `json:"endedAt"`
}

// Recorder persists finished games.
type Recorder interface {
	RecordMatch(ctx context.Context, s MatchSummary) error
}

type config struct {
	id       string
	clock    Clock
	logger   zerolog.Logger
	pick     func(n int) int
	grace    time.Duration
	workers  int
	recorder Recorder
	gamePoll time.Duration
	movePoll time.Duration
	onClose  func(id string)
}

func defaultConfig() config {
	return config{
		id:       uuid.NewString(),
		clock:    systemClock{},
		logger:   zerolog.Nop(),
		pick:     rand.IntN,
		grace:    30 * time.Second,
		gamePoll: time.Second,
		movePoll: 160 * time.Millisecond,
	}
}

// Option configures a Game.
type Option func(*config)

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(c *config) {
		if id != "" {
			c.id = id
		}
	}
}

func WithClock(clk Clock) Option {
	return func(c *config) { c.clock = clk }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithStartPicker replaces the random choice of the first team.
func WithStartPicker(pick func(n int) int) Option {
	return func(c *config) { c.pick = pick }
}

// WithGracePeriod sets how long a finished game stays readable before it is discarded.
func WithGracePeriod(d time.Duration) Option {
	return func(c *config) { c.grace = d }
}

// WithWorkers bounds the parallel placement trials.
func WithWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

func WithRecorder(r Recorder) Option {
	return func(c *config) { c.recorder = r }
}

// WithPollIntervals sets how often the game and move timers check their deadlines.
func WithPollIntervals(game, move time.Duration) Option {
	return func(c *config) {
		if game > 0 {
			c.gamePoll = game
		}
		if move > 0 {
			c.movePoll = move
		}
	}
}

// WithOnClose registers a callback run once the game is discarded.
func WithOnClose(fn func(id string)) Option {
	return func(c *config) { c.onClose = fn }
}
