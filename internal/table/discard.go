package table

import (
	"context"
	"fmt"

	"github.com/danmuck/cribbage/internal/cards"
	"github.com/danmuck/cribbage/internal/protocol"
	"github.com/danmuck/cribbage/internal/rules"
)

// discardPhase records each seat's discard indices and submits one
// DiscardSelection once every player waits.
func (o *Orchestrator) discardPhase(ctx context.Context, batch []batchItem) Result {
	if err := o.store.check(rules.PhaseDiscard); err != nil {
		return fail(ClassInvariant, err)
	}

	res := idle
	for _, item := range batch {
		res = res.merge(o.acceptDiscard(ctx, item.rec, item.msg))
		if res.Kind == Fatal {
			return res
		}
	}

	if !o.reg.allWaiting() {
		return res
	}
	if !o.store.complete() {
		return fail(ClassInvariant, fmt.Errorf("%w: discards incomplete with every player waiting", ErrInputMismatch))
	}

	players := o.engine.Players()
	selection := make([][]cards.Card, len(players))
	for seat, indices := range o.store.discards {
		selection[seat] = make([]cards.Card, 0, len(indices))
		for _, idx := range indices {
			selection[seat] = append(selection[seat], players[seat].Hand[idx])
		}
	}
	if _, err := o.submit(rules.DiscardSelection{Discards: selection}); err != nil {
		return fail(ClassEngine, err)
	}
	o.store = inputStore{}
	if err := o.broadcast(ctx, o.reg.audience(), protocol.Signal(protocol.ServerAllDiscards)); err != nil {
		return fail(ClassTransport, err)
	}
	return res.merge(progress)
}

func (o *Orchestrator) acceptDiscard(ctx context.Context, rec *record, msg protocol.ClientMessage) Result {
	if rec.state != StateWaitingForDiscards {
		return o.reject(ctx, rec, ErrSequencingViolation, reasonNotRequired)
	}

	want := o.store.want[rec.seat]
	indices, ok := discardIndices(msg, want, len(o.engine.Players()[rec.seat].Hand))
	if !ok {
		r := o.reject(ctx, rec, ErrProtocolViolation, reasonBadDiscard)
		if r.Kind == Fatal {
			return r
		}
		if err := o.notify(ctx, rec, protocol.WaitDiscard(want)); err != nil {
			return fail(ClassTransport, err)
		}
		return r
	}

	o.store.discards[rec.seat] = indices
	if err := rec.transition(StateWaitingForServer); err != nil {
		return fail(ClassInvariant, err)
	}
	o.logger.Debug().Int("seat", rec.seat).Ints("indices", indices).Msg("table.Orchestrator.acceptDiscard")
	if err := o.broadcast(ctx, o.reg.audience(), protocol.DiscardPlaced(rec.name, want)); err != nil {
		return fail(ClassTransport, err)
	}
	return progress
}

// discardIndices validates arity against the solicitation and the indices
// against the sorted hand.
func discardIndices(msg protocol.ClientMessage, want, handLen int) ([]int, bool) {
	var indices []int
	switch {
	case msg.Kind == protocol.ClientDiscardOne && want == 1:
		indices = []int{msg.Index1}
	case msg.Kind == protocol.ClientDiscardTwo && want == 2:
		if msg.Index1 == msg.Index2 {
			return nil, false
		}
		indices = []int{msg.Index1, msg.Index2}
	default:
		return nil, false
	}
	for _, idx := range indices {
		if idx < 0 || idx >= handLen {
			return nil, false
		}
	}
	return indices, true
}
