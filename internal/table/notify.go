package table

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/cribbage/internal/observability"
	"github.com/danmuck/cribbage/internal/protocol"
)

// request sends msg to one session and blocks until that session yields a
// value matching expect. Non-matching values are stashed for the next drain.
// No second message is sent to a session before the previous one is matched.
func (o *Orchestrator) request(ctx context.Context, rec *record, msg protocol.ServerMessage, expect func(protocol.ClientMessage) bool) (protocol.ClientMessage, error) {
	if rec.state == StateDisconnected {
		return protocol.ClientMessage{}, &FatalError{
			Class: ClassInvariant,
			Err:   fmt.Errorf("table: send %s to disconnected session %d", msg.Kind, rec.handle),
		}
	}

	select {
	case rec.out <- msg:
	case <-ctx.Done():
		return protocol.ClientMessage{}, &FatalError{Class: ClassCanceled, Err: ctx.Err()}
	}
	observability.RecordMessage("out", msg.Kind.String())
	o.logger.Trace().
		Int("session", int(rec.handle)).
		Str("kind", msg.Kind.String()).
		Msg("table.Orchestrator.request sent")

	start := time.Now()
	for {
		select {
		case reply, ok := <-rec.in:
			if !ok {
				if !rec.isPlayer() {
					o.retire(rec)
					return protocol.ClientMessage{}, fmt.Errorf("%w: session=%d awaiting reply to %s", ErrSessionRetired, rec.handle, msg.Kind)
				}
				return protocol.ClientMessage{}, &FatalError{
					Class: ClassTransport,
					Err:   fmt.Errorf("%w: session=%d awaiting reply to %s", ErrSessionClosed, rec.handle, msg.Kind),
				}
			}
			if expect(reply) {
				observability.ObserveAckWait(time.Since(start))
				return reply, nil
			}
			rec.stash = append(rec.stash, reply)
		case <-ctx.Done():
			return protocol.ClientMessage{}, &FatalError{Class: ClassCanceled, Err: ctx.Err()}
		}
	}
}

func isAck(m protocol.ClientMessage) bool { return m.IsAck() }

func (o *Orchestrator) notify(ctx context.Context, rec *record, msg protocol.ServerMessage) error {
	_, err := o.request(ctx, rec, msg, isAck)
	return err
}

// broadcast notifies every record in order; each send is acknowledged
// before the next recipient is addressed. Spectators that hang up mid-way
// are skipped.
func (o *Orchestrator) broadcast(ctx context.Context, recs []*record, msg protocol.ServerMessage) error {
	for _, rec := range recs {
		if rec.state == StateDisconnected {
			continue
		}
		if err := o.notify(ctx, rec, msg); err != nil && !errors.Is(err, ErrSessionRetired) {
			return err
		}
	}
	return nil
}

// solicit moves a session into the state that matches msg, then delivers it.
func (o *Orchestrator) solicit(ctx context.Context, rec *record, to State, msg protocol.ServerMessage) error {
	if rec.state != to {
		if err := rec.transition(to); err != nil {
			return &FatalError{Class: ClassInvariant, Err: err}
		}
	}
	return o.notify(ctx, rec, msg)
}

// reject answers a violation with an error reply. The returned result is
// Recovered unless the reply itself fails.
func (o *Orchestrator) reject(ctx context.Context, rec *record, cause error, reason string) Result {
	observability.RecordRejection(rejectionLabel(cause))
	o.logger.Debug().
		Int("session", int(rec.handle)).
		Str("state", rec.state.String()).
		Str("reason", reason).
		Msg("table.Orchestrator.reject")
	if err := o.notify(ctx, rec, protocol.ErrorReply(reason)); err != nil {
		if errors.Is(err, ErrSessionRetired) {
			return progress
		}
		return fail(ClassTransport, err)
	}
	return recovered(fmt.Errorf("%w: session=%d %s", cause, rec.handle, reason))
}

func rejectionLabel(cause error) string {
	switch cause {
	case ErrSequencingViolation:
		return "sequencing"
	default:
		return "protocol"
	}
}

// Error reply texts.
const (
	reasonNotRequired = "input not required from you"
	reasonGreetFirst  = "greeting required before any other input"
	reasonSpectator   = "spectators cannot play"
	reasonBadName     = "name must be 1 to 32 printable characters"
	reasonNameTaken   = "name already taken"
	reasonBadDiscard  = "invalid discard selection"
	reasonConfirm     = "confirmation expected"
)
