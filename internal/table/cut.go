package table

import (
	"context"
	"fmt"

	"github.com/danmuck/cribbage/internal/protocol"
	"github.com/danmuck/cribbage/internal/rules"
)

// cutPhase runs one cut round per tracker. The engine cuts first; players
// then reveal their cards in seat order. A tied round ends with a failure
// broadcast and a fresh round on the next tick.
func (o *Orchestrator) cutPhase(ctx context.Context, batch []batchItem) Result {
	if o.tracker == nil {
		res := o.rejectAll(ctx, batch)
		if res.Kind == Fatal {
			return res
		}
		if _, err := o.submit(rules.Confirmation{}); err != nil {
			return fail(ClassEngine, err)
		}
		return res.merge(o.startRound(ctx))
	}
	return o.collectOrdered(ctx, batch, o.cutTied)
}

func (o *Orchestrator) startRound(ctx context.Context) Result {
	o.tracker = newTracker(0, o.cfg.Players-1)
	o.logger.Debug().Msg("table.Orchestrator.startRound")
	if err := o.solicitCut(ctx, 0); err != nil {
		return fail(ClassTransport, err)
	}
	return progress
}

func (o *Orchestrator) solicitCut(ctx context.Context, seat int) error {
	rec := o.reg.atSeat(seat)
	if rec == nil {
		return &FatalError{Class: ClassInvariant, Err: fmt.Errorf("table: no session at seat %d", seat)}
	}
	return o.solicit(ctx, rec, StateWaitingForInitialCut, protocol.Signal(protocol.ServerWaitInitialCut))
}

func (o *Orchestrator) cutTied(ctx context.Context) Result {
	o.logger.Info().Msg("table.Orchestrator.cutTied")
	if err := o.broadcast(ctx, o.reg.audience(), protocol.Signal(protocol.ServerInitialCutFailure)); err != nil {
		return fail(ClassTransport, err)
	}
	o.tracker = nil
	return progress
}

// collectOrdered drives the tracker: solicit the active seat, accept only its
// confirmation, advance once every player waits, and run onComplete after the
// stop seat has confirmed.
func (o *Orchestrator) collectOrdered(ctx context.Context, batch []batchItem, onComplete func(context.Context) Result) Result {
	t := o.tracker
	if t.done() {
		res := o.rejectAll(ctx, batch)
		if res.Kind == Fatal {
			return res
		}
		return res.merge(onComplete(ctx))
	}

	if o.reg.allWaiting() {
		res := o.rejectAll(ctx, batch)
		if res.Kind == Fatal {
			return res
		}
		next, ask := t.advance()
		if ask {
			if err := o.solicitCut(ctx, next); err != nil {
				return fail(ClassTransport, err)
			}
		}
		return res.merge(progress)
	}

	active := o.reg.atSeat(t.active)
	res := idle
	for _, item := range batch {
		rec, msg := item.rec, item.msg
		switch {
		case rec != active:
			res = res.merge(o.reject(ctx, rec, ErrSequencingViolation, reasonNotRequired))
		case rec.state == StateWaitingForInitialCut && msg.Kind == protocol.ClientConfirmation:
			res = res.merge(o.revealCut(ctx, rec))
		default:
			r := o.reject(ctx, rec, ErrProtocolViolation, reasonConfirm)
			if r.Kind != Fatal {
				if err := o.notify(ctx, rec, protocol.Signal(protocol.ServerWaitInitialCut)); err != nil {
					r = fail(ClassTransport, err)
				}
			}
			res = res.merge(r)
		}
		if res.Kind == Fatal {
			return res
		}
	}
	return res
}

func (o *Orchestrator) revealCut(ctx context.Context, rec *record) Result {
	players := o.engine.Players()
	if rec.seat >= len(players) || len(players[rec.seat].Hand) == 0 {
		return fail(ClassInvariant, fmt.Errorf("table: no cut card for seat %d", rec.seat))
	}
	if err := rec.transition(StateWaitingForServer); err != nil {
		return fail(ClassInvariant, err)
	}
	card := players[rec.seat].Hand[0]
	o.logger.Debug().Int("seat", rec.seat).Str("card", card.String()).Msg("table.Orchestrator.revealCut")
	if err := o.broadcast(ctx, o.reg.audience(), protocol.CutResult(players[rec.seat].Name, card)); err != nil {
		return fail(ClassTransport, err)
	}
	return progress
}
