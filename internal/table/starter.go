package table

import (
	"context"
	"errors"

	"github.com/danmuck/cribbage/internal/protocol"
	"github.com/danmuck/cribbage/internal/rules"
)

// starterPhase asks the seat left of the dealer to cut the starter card.
func (o *Orchestrator) starterPhase(ctx context.Context, batch []batchItem) Result {
	if o.starterSeat == noSeat {
		res := o.rejectAll(ctx, batch)
		if res.Kind == Fatal || !o.reg.allWaiting() {
			return res
		}
		o.starterSeat = rules.LeftOfDealer(o.cfg.Players, o.engine.Dealer())
		rec := o.reg.atSeat(o.starterSeat)
		if err := o.solicit(ctx, rec, StateWaitingForCutStarter, protocol.Signal(protocol.ServerWaitCutStarter)); err != nil {
			return fail(ClassTransport, err)
		}
		return res.merge(progress)
	}

	cutter := o.reg.atSeat(o.starterSeat)
	res := idle
	for _, item := range batch {
		rec, msg := item.rec, item.msg
		switch {
		case rec != cutter || rec.state != StateWaitingForCutStarter:
			res = res.merge(o.reject(ctx, rec, ErrSequencingViolation, reasonNotRequired))
		case msg.Kind != protocol.ClientConfirmation:
			r := o.reject(ctx, rec, ErrProtocolViolation, reasonConfirm)
			if r.Kind != Fatal {
				if err := o.notify(ctx, rec, protocol.Signal(protocol.ServerWaitCutStarter)); err != nil {
					r = fail(ClassTransport, err)
				}
			}
			res = res.merge(r)
		default:
			res = res.merge(o.cutStarter(ctx, rec))
		}
		if res.Kind == Fatal {
			return res
		}
	}
	return res
}

func (o *Orchestrator) cutStarter(ctx context.Context, rec *record) Result {
	if err := rec.transition(StateWaitingForServer); err != nil {
		return fail(ClassInvariant, err)
	}
	outcome, err := o.submit(rules.Confirmation{})
	if err != nil {
		return fail(ClassEngine, err)
	}
	starter, ok := o.engine.Starter()
	if !ok {
		return fail(ClassInvariant, errors.New("table: engine reported no starter card"))
	}
	o.logger.Info().Str("player", rec.name).Str("card", starter.String()).Msg("table.Orchestrator.cutStarter")
	if err := o.broadcast(ctx, o.reg.audience(), protocol.StarterCut(rec.name, starter)); err != nil {
		return fail(ClassTransport, err)
	}
	if outcome == rules.OutcomeNibs {
		if err := o.broadcast(ctx, o.reg.audience(), protocol.Nibs(o.seatName(o.engine.Dealer()))); err != nil {
			return fail(ClassTransport, err)
		}
	}
	return progress
}
