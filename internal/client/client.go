package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/cribbage/internal/cards"
	"github.com/danmuck/cribbage/internal/protocol"
	"github.com/danmuck/cribbage/internal/protocol/frame"
)

var (
	ErrDenied       = errors.New("client: table full")
	ErrServerClosed = errors.New("client: server closed connection before disconnect")
)

// Strategy decides the scripted player's answers.
type Strategy struct {
	Name string
	// Discard picks count indices into the sorted hand. Nil picks the lowest.
	Discard func(hand []cards.Card, count int) []int
	// Think delays each answer.
	Think time.Duration
}

// Transcript records every server message in delivery order.
type Transcript struct {
	Messages []protocol.ServerMessage
	Hand     []cards.Card
	Denied   bool
}

func (t Transcript) Count(kind protocol.ServerKind) int {
	n := 0
	for _, msg := range t.Messages {
		if msg.Kind == kind {
			n++
		}
	}
	return n
}

type player struct {
	conn     net.Conn
	strategy Strategy
	logger   zerolog.Logger
	nextID   uint64
	limits   frame.Limits
	ts       Transcript
}

// Play greets the server, acknowledges every frame, answers solicitations,
// and returns after Disconnect or a denial.
func Play(ctx context.Context, conn net.Conn, strategy Strategy) (Transcript, error) {
	p := &player{
		conn:     conn,
		strategy: strategy,
		logger:   log.Logger.With().Str("player", strategy.Name).Logger(),
		limits:   frame.DefaultLimits(),
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	err := p.run(ctx)
	if ctx.Err() != nil && err != nil {
		err = fmt.Errorf("client: %w", ctx.Err())
	}
	return p.ts, err
}

func (p *player) run(ctx context.Context) error {
	if err := p.send(protocol.Greeting()); err != nil {
		return err
	}
	for {
		f, err := frame.ReadFrame(p.conn, p.limits)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ErrServerClosed
			}
			return fmt.Errorf("client: read: %w", err)
		}
		msg, err := protocol.DecodeServer(f)
		if err != nil {
			return fmt.Errorf("client: decode: %w", err)
		}
		p.ts.Messages = append(p.ts.Messages, msg)
		p.logger.Debug().Str("kind", msg.Kind.String()).Str("name", msg.Name).Msg("client.player.run")

		if err := frame.WriteFrame(p.conn, protocol.AckFrame(f.Header.MessageID), p.limits); err != nil {
			return fmt.Errorf("client: ack: %w", err)
		}

		switch msg.Kind {
		case protocol.ServerDisconnect:
			return nil
		case protocol.ServerDeniedTableFull:
			p.ts.Denied = true
			return ErrDenied
		case protocol.ServerDealtHand:
			p.ts.Hand = append([]cards.Card(nil), msg.Cards...)
			cards.Sort(p.ts.Hand)
		case protocol.ServerError:
			p.logger.Warn().Str("reason", msg.Reason).Msg("client.player.run server error")
		}

		answer, ok := p.answer(msg)
		if !ok {
			continue
		}
		if p.strategy.Think > 0 {
			select {
			case <-time.After(p.strategy.Think):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := p.send(answer); err != nil {
			return err
		}
	}
}

func (p *player) answer(msg protocol.ServerMessage) (protocol.ClientMessage, bool) {
	switch msg.Kind {
	case protocol.ServerWaitName:
		return protocol.Name(p.strategy.Name), true
	case protocol.ServerWaitInitialCut, protocol.ServerWaitDeal, protocol.ServerWaitCutStarter:
		return protocol.Confirmation(), true
	case protocol.ServerWaitDiscardOne:
		idx := p.discard(1)
		return protocol.DiscardOne(idx[0]), true
	case protocol.ServerWaitDiscardTwo:
		idx := p.discard(2)
		return protocol.DiscardTwo(idx[0], idx[1]), true
	default:
		return protocol.ClientMessage{}, false
	}
}

// discard asks the strategy, falling back to the lowest indices when the
// strategy answer is unusable.
func (p *player) discard(count int) []int {
	lowest := make([]int, count)
	for i := range lowest {
		lowest[i] = i
	}
	if p.strategy.Discard == nil {
		return lowest
	}
	picked := p.strategy.Discard(slices.Clone(p.ts.Hand), count)
	if len(picked) != count {
		return lowest
	}
	for _, idx := range picked {
		if idx < 0 || idx >= len(p.ts.Hand) {
			return lowest
		}
	}
	return picked
}

func (p *player) send(msg protocol.ClientMessage) error {
	p.nextID++
	f, err := protocol.EncodeClient(p.nextID, msg)
	if err != nil {
		return fmt.Errorf("client: encode %s: %w", msg.Kind, err)
	}
	if err := frame.WriteFrame(p.conn, f, p.limits); err != nil {
		return fmt.Errorf("client: write %s: %w", msg.Kind, err)
	}
	return nil
}

// HighestFirst discards the highest cards in the hand.
func HighestFirst(hand []cards.Card, count int) []int {
	out := make([]int, 0, count)
	for i := len(hand) - 1; i >= 0 && len(out) < count; i-- {
		out = append(out, i)
	}
	return out
}
