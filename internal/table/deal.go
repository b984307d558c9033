package table

import (
	"context"
	"fmt"

	"github.com/danmuck/cribbage/internal/protocol"
	"github.com/danmuck/cribbage/internal/rules"
)

// dealPhase first finishes relaying the successful cut, then waits for the
// dealer to confirm the deal.
func (o *Orchestrator) dealPhase(ctx context.Context, batch []batchItem) Result {
	if o.tracker != nil {
		return o.collectOrdered(ctx, batch, o.cutDecided)
	}

	dealer := o.reg.atSeat(o.engine.Dealer())
	if dealer == nil {
		return fail(ClassInvariant, fmt.Errorf("table: no session for dealer seat %d", o.engine.Dealer()))
	}
	res := idle
	for _, item := range batch {
		rec, msg := item.rec, item.msg
		switch {
		case rec != dealer || rec.state != StateWaitingForDeal:
			res = res.merge(o.reject(ctx, rec, ErrSequencingViolation, reasonNotRequired))
		case msg.Kind != protocol.ClientConfirmation:
			r := o.reject(ctx, rec, ErrProtocolViolation, reasonConfirm)
			if r.Kind != Fatal {
				if err := o.notify(ctx, rec, protocol.Signal(protocol.ServerWaitDeal)); err != nil {
					r = fail(ClassTransport, err)
				}
			}
			res = res.merge(r)
		default:
			res = res.merge(o.deal(ctx, rec))
		}
		if res.Kind == Fatal {
			return res
		}
	}
	return res
}

func (o *Orchestrator) cutDecided(ctx context.Context) Result {
	o.tracker = nil
	seat := o.engine.Dealer()
	dealer := o.reg.atSeat(seat)
	if dealer == nil {
		return fail(ClassInvariant, fmt.Errorf("table: no session for dealer seat %d", seat))
	}
	name := o.seatName(seat)
	o.logger.Info().Int("seat", seat).Str("player", name).Msg("table.Orchestrator.cutDecided")
	if err := o.broadcast(ctx, o.reg.audience(), protocol.CutSuccess(name)); err != nil {
		return fail(ClassTransport, err)
	}
	if err := o.solicit(ctx, dealer, StateWaitingForDeal, protocol.Signal(protocol.ServerWaitDeal)); err != nil {
		return fail(ClassTransport, err)
	}
	return progress
}

// deal runs the deal and the sort, sending each player its hand between the
// two, then solicits discards.
func (o *Orchestrator) deal(ctx context.Context, dealer *record) Result {
	if err := dealer.transition(StateWaitingForServer); err != nil {
		return fail(ClassInvariant, err)
	}
	if err := o.broadcast(ctx, o.reg.audience(), protocol.Signal(protocol.ServerDealing)); err != nil {
		return fail(ClassTransport, err)
	}

	if _, err := o.submit(rules.Confirmation{}); err != nil {
		return fail(ClassEngine, err)
	}
	if phase := o.engine.Phase(); phase != rules.PhaseSort {
		return fail(ClassInvariant, fmt.Errorf("table: deal left engine in %s", phase))
	}
	players := o.engine.Players()
	for _, rec := range o.reg.players() {
		if err := o.notify(ctx, rec, protocol.DealtHand(players[rec.seat].Hand)); err != nil {
			return fail(ClassTransport, err)
		}
	}

	if _, err := o.submit(rules.Confirmation{}); err != nil {
		return fail(ClassEngine, err)
	}
	if phase := o.engine.Phase(); phase != rules.PhaseDiscard {
		return fail(ClassInvariant, fmt.Errorf("table: sort left engine in %s", phase))
	}

	want := make([]int, o.cfg.Players)
	for seat := range want {
		want[seat] = rules.DiscardCount(o.cfg.Players, seat, o.engine.Dealer())
	}
	o.store = discardInput(want)
	for _, rec := range o.reg.players() {
		count := want[rec.seat]
		if count == 0 {
			continue
		}
		if err := o.solicit(ctx, rec, StateWaitingForDiscards, protocol.WaitDiscard(count)); err != nil {
			return fail(ClassTransport, err)
		}
	}
	return progress
}
