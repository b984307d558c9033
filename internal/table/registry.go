package table

import (
	"github.com/samber/lo"

	"github.com/danmuck/cribbage/internal/protocol"
	"github.com/danmuck/cribbage/internal/protocol/session"
)

// Handle addresses one session record for the lifetime of the orchestrator.
type Handle int

const noSeat = -1

type record struct {
	handle Handle
	remote string
	seat   int
	name   string
	state  State
	out    chan<- protocol.ServerMessage
	in     <-chan protocol.ClientMessage
	// values read while waiting for a different reply; replayed first
	stash []protocol.ClientMessage
}

func (r *record) isPlayer() bool {
	return r.seat != noSeat && r.state != StateDisconnected
}

func (r *record) transition(to State) error {
	if !canTransition(r.state, to) {
		return &TransitionError{Handle: r.handle, From: r.state, To: to}
	}
	r.state = to
	return nil
}

func (r *record) unstash() (protocol.ClientMessage, bool) {
	if len(r.stash) == 0 {
		return protocol.ClientMessage{}, false
	}
	msg := r.stash[0]
	r.stash = r.stash[1:]
	return msg, true
}

// registry is the arena of session records plus the seat table.
type registry struct {
	records []*record
	seats   []Handle
	size    int
}

func newRegistry(players int) *registry {
	return &registry{size: players, seats: make([]Handle, 0, players)}
}

func (g *registry) register(p session.Pair) *record {
	rec := &record{
		handle: Handle(len(g.records)),
		remote: p.Remote,
		seat:   noSeat,
		state:  StateConnecting,
		out:    p.Out,
		in:     p.In,
	}
	g.records = append(g.records, rec)
	return rec
}

func (g *registry) get(h Handle) *record {
	if int(h) < 0 || int(h) >= len(g.records) {
		return nil
	}
	return g.records[h]
}

func (g *registry) full() bool {
	return len(g.seats) >= g.size
}

// seat assigns the next free player index.
func (g *registry) seat(rec *record) int {
	rec.seat = len(g.seats)
	g.seats = append(g.seats, rec.handle)
	return rec.seat
}

func (g *registry) atSeat(seat int) *record {
	if seat < 0 || seat >= len(g.seats) {
		return nil
	}
	return g.records[g.seats[seat]]
}

func (g *registry) players() []*record {
	return lo.Map(g.seats, func(h Handle, _ int) *record { return g.records[h] })
}

// audience is every greeted, still connected session: players and spectators.
func (g *registry) audience() []*record {
	return lo.Filter(g.records, func(r *record, _ int) bool {
		return r.state != StateConnecting && r.state != StateDisconnected
	})
}

func (g *registry) live() []*record {
	return lo.Filter(g.records, func(r *record, _ int) bool {
		return r.state != StateDisconnected
	})
}

// allWaiting reports whether every seated player is in synchronized wait.
func (g *registry) allWaiting() bool {
	return len(g.seats) > 0 && lo.EveryBy(g.players(), func(r *record) bool {
		return r.state == StateWaitingForServer
	})
}

func (g *registry) stateCounts() map[string]int {
	counts := lo.CountValuesBy(g.records, func(r *record) string { return r.state.String() })
	return counts
}
