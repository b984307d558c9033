package table

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/cribbage/internal/cards"
	"github.com/danmuck/cribbage/internal/observability"
	"github.com/danmuck/cribbage/internal/protocol"
	"github.com/danmuck/cribbage/internal/protocol/session"
	"github.com/danmuck/cribbage/internal/rules"
)

// Engine is the rules engine surface the orchestrator drives.
type Engine interface {
	Phase() rules.Phase
	Players() []rules.Player
	Dealer() int
	Starter() (cards.Card, bool)
	Submit(rules.Event) (rules.Outcome, error)
}

type Config struct {
	Players  int
	Options  rules.Options
	IdleWait time.Duration
}

func DefaultConfig() Config {
	return Config{
		Players:  2,
		IdleWait: 2 * time.Millisecond,
	}
}

func (c Config) WithDefaults() Config {
	if c.Players == 0 {
		c.Players = DefaultConfig().Players
	}
	if c.IdleWait <= 0 {
		c.IdleWait = DefaultConfig().IdleWait
	}
	return c
}

var ErrPlayerCount = errors.New("table: player count must be between 2 and 5")

// batchItem is one inbound message drained during a tick.
type batchItem struct {
	rec *record
	msg protocol.ClientMessage
}

type Orchestrator struct {
	id       string
	cfg      Config
	engine   Engine
	sessions <-chan session.Pair
	logger   zerolog.Logger

	reg     *registry
	store   inputStore
	tracker *tracker
	// seat asked to cut the starter, noSeat until solicited
	starterSeat int
	phase       rules.Phase
	ticks       uint64

	snapshot atomic.Pointer[Snapshot]
	done     chan struct{}
}

// New builds an orchestrator reading new sessions from sessions. The engine
// must be in its setup phase.
func New(cfg Config, engine Engine, sessions <-chan session.Pair) (*Orchestrator, error) {
	cfg = cfg.WithDefaults()
	if cfg.Players < rules.MinPlayers || cfg.Players > rules.MaxPlayers {
		return nil, fmt.Errorf("%w: got=%d", ErrPlayerCount, cfg.Players)
	}
	if engine == nil {
		return nil, errors.New("table: nil engine")
	}
	id := uuid.NewString()
	o := &Orchestrator{
		id:          id,
		cfg:         cfg,
		engine:      engine,
		sessions:    sessions,
		logger:      log.Logger.With().Str("game_id", id).Logger(),
		reg:         newRegistry(cfg.Players),
		store:       namesInput(cfg.Players),
		starterSeat: noSeat,
		phase:       engine.Phase(),
		done:        make(chan struct{}),
	}
	o.publish()
	return o, nil
}

func (o *Orchestrator) ID() string { return o.id }

// Done is closed once Run has returned.
func (o *Orchestrator) Done() <-chan struct{} { return o.done }

// Run drives ticks until the game finishes or fails. A nil return means the
// terminal phase was reached and every session was disconnected.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer close(o.done)
	o.logger.Info().Int("players", o.cfg.Players).Msg("table.Orchestrator.Run start")

	for {
		res := o.tick(ctx)
		o.publish()

		switch res.Kind {
		case Idle:
			timer := time.NewTimer(o.cfg.IdleWait)
			select {
			case <-ctx.Done():
				timer.Stop()
				res = fail(ClassCanceled, ctx.Err())
				o.teardown(res.Err)
				return res.Err
			case <-timer.C:
			}
		case Progress:
		case Recovered:
			o.logger.Debug().Err(res.Err).Msg("table.Orchestrator.Run recovered")
		case Finished:
			err := o.shutdown(ctx)
			o.publish()
			if err != nil {
				o.teardown(err)
				return err
			}
			o.logger.Info().Uint64("ticks", o.ticks).Msg("table.Orchestrator.Run finished")
			return nil
		case Fatal:
			o.teardown(res.Err)
			o.publish()
			return res.Err
		}
	}
}

// tick admits at most one session, drains at most one message per session
// into a batch, then dispatches the batch by engine phase.
func (o *Orchestrator) tick(ctx context.Context) Result {
	o.ticks++
	res := idle
	if o.admit() {
		res = progress
	}

	batch, err := o.drain()
	if err != nil {
		return fail(ClassTransport, err)
	}
	if len(batch) > 0 {
		res = res.merge(progress)
	}

	rest := make([]batchItem, 0, len(batch))
	for _, item := range batch {
		r, forward := o.route(ctx, item)
		res = res.merge(r)
		if res.Kind == Fatal {
			return res
		}
		if forward {
			rest = append(rest, item)
		}
	}

	res = res.merge(o.dispatch(ctx, rest))
	o.trackPhase()
	return res
}

func (o *Orchestrator) admit() bool {
	if o.sessions == nil {
		return false
	}
	select {
	case p, ok := <-o.sessions:
		if !ok {
			o.sessions = nil
			return false
		}
		rec := o.reg.register(p)
		o.logger.Info().
			Int("session", int(rec.handle)).
			Str("remote", rec.remote).
			Msg("table.Orchestrator.admit")
		return true
	default:
		return false
	}
}

// drain takes at most one pending message per live session, stashed values
// first. A closed player queue is a transport failure; a closed spectator or
// pre-greeting queue only retires that session.
func (o *Orchestrator) drain() ([]batchItem, error) {
	var batch []batchItem
	for _, rec := range o.reg.live() {
		if msg, ok := rec.unstash(); ok {
			batch = append(batch, batchItem{rec: rec, msg: msg})
			continue
		}
		select {
		case msg, ok := <-rec.in:
			if !ok {
				if rec.isPlayer() {
					return nil, fmt.Errorf("%w: session=%d seat=%d", ErrSessionClosed, rec.handle, rec.seat)
				}
				o.retire(rec)
				continue
			}
			observability.RecordMessage("in", msg.Kind.String())
			batch = append(batch, batchItem{rec: rec, msg: msg})
		default:
		}
	}
	return batch, nil
}

func (o *Orchestrator) retire(rec *record) {
	o.logger.Info().
		Int("session", int(rec.handle)).
		Str("state", rec.state.String()).
		Msg("table.Orchestrator.retire")
	_ = rec.transition(StateDisconnected)
	close(rec.out)
}

// route handles greetings and traffic from sessions without a seat. It
// reports whether the item belongs to the phase handler.
func (o *Orchestrator) route(ctx context.Context, item batchItem) (Result, bool) {
	rec, msg := item.rec, item.msg
	switch {
	case msg.IsAck():
		o.logger.Debug().Int("session", int(rec.handle)).Msg("table.Orchestrator.route stray ack")
		return idle, false
	case msg.Kind == protocol.ClientGreeting:
		return o.greet(ctx, rec), false
	case rec.state == StateConnecting:
		return o.reject(ctx, rec, ErrProtocolViolation, reasonGreetFirst), false
	case rec.state == StateWatching:
		return o.reject(ctx, rec, ErrProtocolViolation, reasonSpectator), false
	default:
		return idle, true
	}
}

// greet seats the session while setup has room, otherwise denies it for
// good. Greetings after the first are ignored.
func (o *Orchestrator) greet(ctx context.Context, rec *record) Result {
	if rec.state != StateConnecting {
		return idle
	}
	if o.engine.Phase() == rules.PhaseSetup && !o.reg.full() {
		seat := o.reg.seat(rec)
		o.logger.Info().Int("session", int(rec.handle)).Int("seat", seat).Msg("table.Orchestrator.greet seated")
		if err := o.solicit(ctx, rec, StateWaitingName, protocol.Signal(protocol.ServerWaitName)); err != nil {
			return fail(ClassTransport, err)
		}
		return progress
	}
	o.logger.Info().Int("session", int(rec.handle)).Msg("table.Orchestrator.greet denied")
	if err := o.solicit(ctx, rec, StateWatching, protocol.Signal(protocol.ServerDeniedTableFull)); err != nil {
		if errors.Is(err, ErrSessionRetired) {
			return progress
		}
		return fail(ClassTransport, err)
	}
	return progress
}

func (o *Orchestrator) dispatch(ctx context.Context, batch []batchItem) Result {
	switch phase := o.engine.Phase(); phase {
	case rules.PhaseSetup:
		return o.setupPhase(ctx, batch)
	case rules.PhaseCut:
		return o.cutPhase(ctx, batch)
	case rules.PhaseDeal:
		return o.dealPhase(ctx, batch)
	case rules.PhaseDiscard:
		return o.discardPhase(ctx, batch)
	case rules.PhaseStarter:
		return o.starterPhase(ctx, batch)
	case rules.PhaseEnd:
		return o.rejectAll(ctx, batch).merge(finished)
	default:
		// Sort is only ever passed through inside dealPhase.
		return fail(ClassInvariant, fmt.Errorf("table: unexpected engine phase %s between ticks", phase))
	}
}

// rejectAll answers every item with a not-required error.
func (o *Orchestrator) rejectAll(ctx context.Context, batch []batchItem) Result {
	res := idle
	for _, item := range batch {
		res = res.merge(o.reject(ctx, item.rec, ErrSequencingViolation, reasonNotRequired))
		if res.Kind == Fatal {
			return res
		}
	}
	return res
}

// submit forwards one event to the engine; a rejection is fatal.
func (o *Orchestrator) submit(ev rules.Event) (rules.Outcome, error) {
	out, err := o.engine.Submit(ev)
	if err != nil {
		o.logger.Error().Err(err).Str("event", rules.EventName(ev)).Msg("table.Orchestrator.submit rejected")
		return 0, &FatalError{Class: ClassEngine, Err: err}
	}
	o.logger.Debug().
		Str("event", rules.EventName(ev)).
		Str("outcome", out.String()).
		Str("phase", o.engine.Phase().String()).
		Msg("table.Orchestrator.submit")
	o.trackPhase()
	return out, nil
}

func (o *Orchestrator) trackPhase() {
	if phase := o.engine.Phase(); phase != o.phase {
		o.logger.Info().Str("from", o.phase.String()).Str("to", phase.String()).Msg("table.Orchestrator phase")
		observability.RecordPhase(phase.String())
		o.phase = phase
	}
}

// seatName is the engine's name for seat, falling back to the session name.
func (o *Orchestrator) seatName(seat int) string {
	players := o.engine.Players()
	if seat >= 0 && seat < len(players) && players[seat].Name != "" {
		return players[seat].Name
	}
	if rec := o.reg.atSeat(seat); rec != nil {
		return rec.name
	}
	return ""
}
