package game

import (
	"context"
	"time"

	"github.com/MJE43/ctf-engine-go/internal/rules"
)

// startTimers launches one polling goroutine per configured time limit.
func (g *Game) startTimers(tmpl rules.Template) {
	if tmpl.TotalTimeLimitInSeconds != rules.NoLimit {
		go g.poll(g.cfg.gamePoll, (*match).expireGame)
	}
	if tmpl.MoveTimeLimitInSeconds != rules.NoLimit {
		go g.poll(g.cfg.movePoll, (*match).expireMove)
	}
}

// poll calls expire every interval until the game is over or discarded.
func (g *Game) poll(interval time.Duration, expire func(*match, time.Time)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
		}

		over := false
		err := g.do(context.Background(), func(m *match) {
			if m.state == nil {
				over = true
				return
			}
			expire(m, g.cfg.clock.Now())
			over = m.status == StatusOver
		})
		if err != nil || over {
			return
		}
	}
}
