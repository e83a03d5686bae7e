package rules

import (
	"fmt"
	"strings"

	"github.com/MJE43/ctf-engine-go/internal/engine"
)

// TeamColor derives a display color from the team's composition.
func TeamColor(t *Team) string {
	var b strings.Builder
	fmt.Fprintf(&b, "team:%d|base:%s|pieces:%d", t.Index, t.Base, len(t.Pieces))
	for _, p := range t.Pieces {
		fmt.Fprintf(&b, "|%s:%s", p.ID, p.Description.Type)
	}
	return engine.HexColor(b.String())
}
