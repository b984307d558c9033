package table

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/danmuck/cribbage/internal/protocol"
	"github.com/danmuck/cribbage/internal/rules"
)

const maxNameLen = 32

// setupPhase collects one name per seat, then submits Setup.
func (o *Orchestrator) setupPhase(ctx context.Context, batch []batchItem) Result {
	if err := o.store.check(rules.PhaseSetup); err != nil {
		return fail(ClassInvariant, err)
	}

	res := idle
	for _, item := range batch {
		res = res.merge(o.acceptName(ctx, item.rec, item.msg))
		if res.Kind == Fatal {
			return res
		}
	}

	if !o.reg.full() || !o.reg.allWaiting() {
		return res
	}
	if !o.store.complete() {
		return fail(ClassInvariant, ErrInputMismatch)
	}

	names := append([]string(nil), o.store.names...)
	if _, err := o.submit(rules.Setup{Names: names, Options: o.cfg.Options}); err != nil {
		return fail(ClassEngine, err)
	}
	o.store = inputStore{}
	o.logger.Info().Strs("names", names).Msg("table.Orchestrator.setupPhase complete")
	return progress
}

func (o *Orchestrator) acceptName(ctx context.Context, rec *record, msg protocol.ClientMessage) Result {
	if rec.state != StateWaitingName || msg.Kind != protocol.ClientName {
		return o.reject(ctx, rec, ErrProtocolViolation, reasonNotRequired)
	}

	name, ok := cleanName(msg.Name)
	if !ok {
		if r := o.reject(ctx, rec, ErrProtocolViolation, reasonBadName); r.Kind == Fatal {
			return r
		}
		return o.resolicitName(ctx, rec)
	}
	if o.store.hasName(name) {
		if r := o.reject(ctx, rec, ErrProtocolViolation, reasonNameTaken); r.Kind == Fatal {
			return r
		}
		return o.resolicitName(ctx, rec)
	}

	o.store.names[rec.seat] = name
	rec.name = name
	if err := rec.transition(StateWaitingForServer); err != nil {
		return fail(ClassInvariant, err)
	}
	o.logger.Info().Int("seat", rec.seat).Str("player", name).Msg("table.Orchestrator.acceptName")

	joined := protocol.PlayerJoined(name, rec.seat+1, o.cfg.Players)
	if err := o.broadcast(ctx, o.reg.audience(), joined); err != nil {
		return fail(ClassTransport, err)
	}
	return progress
}

func (o *Orchestrator) resolicitName(ctx context.Context, rec *record) Result {
	if err := o.notify(ctx, rec, protocol.Signal(protocol.ServerWaitName)); err != nil {
		return fail(ClassTransport, err)
	}
	return recovered(ErrProtocolViolation)
}

func cleanName(raw string) (string, bool) {
	if !utf8.ValidString(raw) {
		return "", false
	}
	name := strings.TrimSpace(raw)
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return "", false
	}
	for _, r := range name {
		if !unicode.IsPrint(r) {
			return "", false
		}
	}
	return name, true
}
