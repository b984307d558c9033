package table

import (
	"github.com/danmuck/cribbage/internal/observability"
)

type PlayerView struct {
	Handle int    `json:"handle"`
	Seat   int    `json:"seat"`
	Name   string `json:"name"`
	State  string `json:"state"`
}

// Snapshot is an immutable view published after every tick.
type Snapshot struct {
	GameID     string       `json:"game_id"`
	Phase      string       `json:"phase"`
	Players    []PlayerView `json:"players"`
	Spectators int          `json:"spectators"`
	Sessions   int          `json:"sessions"`
	Ticks      uint64       `json:"ticks"`
}

// Snapshot is safe to call from any goroutine.
func (o *Orchestrator) Snapshot() Snapshot {
	if s := o.snapshot.Load(); s != nil {
		return *s
	}
	return Snapshot{GameID: o.id}
}

func (o *Orchestrator) publish() {
	s := &Snapshot{
		GameID:   o.id,
		Phase:    o.engine.Phase().String(),
		Sessions: len(o.reg.records),
		Ticks:    o.ticks,
	}
	for _, rec := range o.reg.players() {
		s.Players = append(s.Players, PlayerView{
			Handle: int(rec.handle),
			Seat:   rec.seat,
			Name:   rec.name,
			State:  rec.state.String(),
		})
	}
	for _, rec := range o.reg.records {
		if rec.state == StateWatching {
			s.Spectators++
		}
	}
	o.snapshot.Store(s)
	observability.SetSessionStates(o.reg.stateCounts())
}
