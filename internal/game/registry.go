package game

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MJE43/ctf-engine-go/internal/rules"
)

// Registry maps external team names to internal slot indices. It is owned by
// a single game and only touched from that game's actor.
type Registry struct {
	names []string
	index map[string]int
}

// NewRegistry creates a registry for the given number of slots.
func NewRegistry(slots int) *Registry {
	return &Registry{
		names: make([]string, slots),
		index: make(map[string]int, slots),
	}
}

// Register binds name to slot.
func (r *Registry) Register(name string, slot int) error {
	if name == "" {
		return ErrInvalidName
	}
	if _, taken := r.index[name]; taken {
		return fmt.Errorf("%w: team %q already joined", ErrNoSlots, name)
	}
	if slot < 0 || slot >= len(r.names) || r.names[slot] != "" {
		return fmt.Errorf("%w: slot %d", ErrNoSlots, slot)
	}
	r.names[slot] = name
	r.index[name] = slot
	return nil
}

// Name returns the external name of slot i. Slots without a team render as their index.
func (r *Registry) Name(i int) string {
	if i >= 0 && i < len(r.names) && r.names[i] != "" {
		return r.names[i]
	}
	return strconv.Itoa(i)
}

// Names returns the external names of the given slots.
func (r *Registry) Names(slots []int) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = r.Name(s)
	}
	return out
}

// Joined reports whether slot i has a registered team.
func (r *Registry) Joined(i int) bool {
	return i >= 0 && i < len(r.names) && r.names[i] != ""
}

// Resolve accepts a team name or, for older clients, a bare slot index.
func (r *Registry) Resolve(token string) (int, bool) {
	if i, ok := r.index[token]; ok {
		return i, true
	}
	if i, err := strconv.Atoi(token); err == nil && i >= 0 && i < len(r.names) {
		return i, true
	}
	return 0, false
}

// PieceName renders the external piece id "piece:<name>_<seq>".
func (r *Registry) PieceName(id rules.PieceID) string {
	return fmt.Sprintf("piece:%s_%d", r.Name(id.Team), id.Seq)
}

// ParsePiece resolves "piece:<team>_<seq>", the legacy "p:<team>_<seq>" or a
// bare "<seq>" belonging to team.
func (r *Registry) ParsePiece(team int, token string) (rules.PieceID, error) {
	for _, prefix := range []string{"piece:", "p:"} {
		rest, ok := strings.CutPrefix(token, prefix)
		if !ok {
			continue
		}
		sep := strings.LastIndex(rest, "_")
		if sep < 0 {
			return rules.PieceID{}, fmt.Errorf("malformed piece id %q", token)
		}
		owner, ok := r.Resolve(rest[:sep])
		if !ok {
			return rules.PieceID{}, fmt.Errorf("unknown team in piece id %q", token)
		}
		seq, err := strconv.Atoi(rest[sep+1:])
		if err != nil {
			return rules.PieceID{}, fmt.Errorf("malformed piece id %q", token)
		}
		return rules.PieceID{Team: owner, Seq: seq}, nil
	}
	seq, err := strconv.Atoi(token)
	if err != nil {
		return rules.PieceID{}, fmt.Errorf("malformed piece id %q", token)
	}
	return rules.PieceID{Team: team, Seq: seq}, nil
}

// ResolveMove translates an external move command into index space.
func (r *Registry) ResolveMove(cmd MoveCommand) (rules.Move, error) {
	team, ok := r.Resolve(cmd.TeamID)
	if !ok || !r.Joined(team) {
		return rules.Move{}, reject(ReasonUnknownTeam, "%q", cmd.TeamID)
	}
	id, err := r.ParsePiece(team, cmd.PieceID)
	if err != nil {
		return rules.Move{}, reject(ReasonUnknownPiece, "%v", err)
	}
	return rules.Move{Team: team, Piece: id, To: posOf(cmd.NewPosition)}, nil
}

// CellTag renders a cell in name space.
func (r *Registry) CellTag(c rules.Cell) string {
	switch c.Kind {
	case rules.CellBlock:
		return "block"
	case rules.CellBase:
		return "base:" + r.Name(c.Team)
	case rules.CellPiece:
		return r.PieceName(c.PieceID())
	}
	return ""
}

// ParseCellTag is the inverse of CellTag.
func (r *Registry) ParseCellTag(tag string) (rules.Cell, error) {
	switch {
	case tag == "":
		return rules.EmptyCell, nil
	case tag == "block":
		return rules.BlockCell, nil
	case strings.HasPrefix(tag, "base:"):
		team, ok := r.Resolve(strings.TrimPrefix(tag, "base:"))
		if !ok {
			return rules.Cell{}, fmt.Errorf("unknown team in cell %q", tag)
		}
		return rules.BaseCell(team), nil
	case strings.HasPrefix(tag, "piece:"):
		id, err := r.ParsePiece(0, tag)
		if err != nil {
			return rules.Cell{}, err
		}
		return rules.PieceCell(id), nil
	}
	return rules.Cell{}, fmt.Errorf("unknown cell tag %q", tag)
}
