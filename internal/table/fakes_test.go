package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/cribbage/internal/cards"
	"github.com/danmuck/cribbage/internal/protocol"
	"github.com/danmuck/cribbage/internal/protocol/session"
	"github.com/danmuck/cribbage/internal/rules"
)

const tieCut = -1

// fakeEngine scripts cut results and otherwise follows the cribbage opening.
type fakeEngine struct {
	phase   rules.Phase
	players []rules.Player
	dealer  int
	cuts    []int
	rounds  int
	starter cards.Card
	hasCut  bool

	setups     []rules.Setup
	selections []rules.DiscardSelection
	deck       *cards.Deck
}

func newFakeEngine(cuts ...int) *fakeEngine {
	return &fakeEngine{
		phase:   rules.PhaseSetup,
		dealer:  -1,
		cuts:    cuts,
		starter: cards.Card{Rank: 7, Suit: cards.Hearts},
	}
}

func (e *fakeEngine) Phase() rules.Phase { return e.phase }
func (e *fakeEngine) Dealer() int        { return e.dealer }

func (e *fakeEngine) Players() []rules.Player {
	out := make([]rules.Player, len(e.players))
	for i, p := range e.players {
		out[i] = rules.Player{Name: p.Name, Hand: append([]cards.Card(nil), p.Hand...), Score: p.Score}
	}
	return out
}

func (e *fakeEngine) Starter() (cards.Card, bool) { return e.starter, e.hasCut }

func (e *fakeEngine) Submit(ev rules.Event) (rules.Outcome, error) {
	wrong := &rules.PhaseError{Phase: e.phase, Event: rules.EventName(ev)}
	switch ev := ev.(type) {
	case rules.Setup:
		if e.phase != rules.PhaseSetup {
			return 0, wrong
		}
		e.setups = append(e.setups, ev)
		for _, name := range ev.Names {
			e.players = append(e.players, rules.Player{Name: name})
		}
		e.phase = rules.PhaseCut
		return rules.OutcomeSetup, nil
	case rules.DiscardSelection:
		if e.phase != rules.PhaseDiscard {
			return 0, wrong
		}
		for seat, sel := range ev.Discards {
			if len(sel) != rules.DiscardCount(len(e.players), seat, e.dealer) {
				return 0, fmt.Errorf("%w: seat=%d", rules.ErrInvalidDiscards, seat)
			}
		}
		e.selections = append(e.selections, ev)
		e.phase = rules.PhaseStarter
		return rules.OutcomeDiscarded, nil
	case rules.Confirmation:
		switch e.phase {
		case rules.PhaseCut:
			return e.cut(), nil
		case rules.PhaseDeal:
			e.deck = cards.NewDeck()
			for seat := range e.players {
				n := rules.HandSize(len(e.players))
				if len(e.players) == 5 && seat == e.dealer {
					n--
				}
				hand, _ := e.deck.Draw(n)
				// reverse so sorting is observable
				for i, j := 0, len(hand)-1; i < j; i, j = i+1, j-1 {
					hand[i], hand[j] = hand[j], hand[i]
				}
				e.players[seat].Hand = hand
			}
			e.phase = rules.PhaseSort
			return rules.OutcomeDealt, nil
		case rules.PhaseSort:
			for seat := range e.players {
				cards.Sort(e.players[seat].Hand)
			}
			e.phase = rules.PhaseDiscard
			return rules.OutcomeSorted, nil
		case rules.PhaseStarter:
			e.hasCut = true
			e.phase = rules.PhaseEnd
			if e.starter.Rank == cards.Jack {
				e.players[e.dealer].Score += 2
				return rules.OutcomeNibs, nil
			}
			return rules.OutcomeStarter, nil
		}
	}
	return 0, wrong
}

// cut deals rank 5 to everyone on a tie; otherwise the scripted dealer gets
// an ace and every other seat a distinct higher rank.
func (e *fakeEngine) cut() rules.Outcome {
	result := 0
	if len(e.cuts) > 0 {
		result, e.cuts = e.cuts[0], e.cuts[1:]
	}
	e.rounds++
	for seat := range e.players {
		card := cards.Card{Rank: 5, Suit: cards.Suit(seat % 4)}
		if result != tieCut {
			card.Rank = cards.Rank(seat + 2)
			if seat == result {
				card.Rank = cards.Ace
			}
		}
		e.players[seat].Hand = []cards.Card{card}
	}
	if result == tieCut {
		return rules.OutcomeCutTie
	}
	e.dealer = result
	e.phase = rules.PhaseDeal
	return rules.OutcomeCutDealer
}

// rejectingEngine fails every submission made while the engine is in phase.
type rejectingEngine struct {
	*fakeEngine
	phase rules.Phase
}

var errEngineRefused = errors.New("engine refused")

func (e *rejectingEngine) Submit(ev rules.Event) (rules.Outcome, error) {
	if e.fakeEngine.Phase() == e.phase {
		return 0, errEngineRefused
	}
	return e.fakeEngine.Submit(ev)
}

type entry struct {
	peer string
	msg  protocol.ServerMessage
}

// transcript is the global delivery order across every peer.
type transcript struct {
	mu      sync.Mutex
	entries []entry
}

func (tr *transcript) add(peer string, msg protocol.ServerMessage) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.entries = append(tr.entries, entry{peer: peer, msg: msg})
}

func (tr *transcript) all() []entry {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]entry(nil), tr.entries...)
}

func (tr *transcript) of(peer string) []protocol.ServerMessage {
	var out []protocol.ServerMessage
	for _, e := range tr.all() {
		if e.peer == peer {
			out = append(out, e.msg)
		}
	}
	return out
}

func (tr *transcript) count(peer string, kind protocol.ServerKind) int {
	n := 0
	for _, msg := range tr.of(peer) {
		if msg.Kind == kind {
			n++
		}
	}
	return n
}

// position returns the global index of the nth (0-based) kind delivered to peer.
func (tr *transcript) position(peer string, kind protocol.ServerKind, nth int) int {
	for i, e := range tr.all() {
		if e.peer == peer && e.msg.Kind == kind {
			if nth == 0 {
				return i
			}
			nth--
		}
	}
	return -1
}

type reply func(p *peer, msg protocol.ServerMessage) []protocol.ClientMessage

// autoPlay answers every solicitation the simplest legal way.
func autoPlay(p *peer, msg protocol.ServerMessage) []protocol.ClientMessage {
	switch msg.Kind {
	case protocol.ServerWaitName:
		return []protocol.ClientMessage{protocol.Name(p.name)}
	case protocol.ServerWaitInitialCut, protocol.ServerWaitDeal, protocol.ServerWaitCutStarter:
		return []protocol.ClientMessage{protocol.Confirmation()}
	case protocol.ServerWaitDiscardOne:
		return []protocol.ClientMessage{protocol.DiscardOne(0)}
	case protocol.ServerWaitDiscardTwo:
		return []protocol.ClientMessage{protocol.DiscardTwo(0, 1)}
	}
	return nil
}

type peer struct {
	name  string
	out   chan protocol.ServerMessage
	in    chan protocol.ClientMessage
	tr    *transcript
	reply reply
	// dropOn closes the inbound queue instead of acking this kind
	dropOn protocol.ServerKind
	// hangUpAfter acks this kind, then closes the inbound queue
	hangUpAfter protocol.ServerKind
	// lockstep counts messages already queued behind an unacked one
	lockstep *int
	mu       sync.Mutex
}

func newPeer(name string, tr *transcript) *peer {
	return &peer{
		name:  name,
		out:   make(chan protocol.ServerMessage, 64),
		in:    make(chan protocol.ClientMessage, 64),
		tr:    tr,
		reply: autoPlay,
	}
}

func (p *peer) pair() session.Pair {
	return session.Pair{Remote: p.name, Out: p.out, In: p.in}
}

func (p *peer) run() {
	hungUp := false
	for msg := range p.out {
		p.tr.add(p.name, msg)
		if hungUp {
			continue
		}
		if p.dropOn != 0 && msg.Kind == p.dropOn {
			close(p.in)
			return
		}
		if p.hangUpAfter != 0 && msg.Kind == p.hangUpAfter {
			p.in <- protocol.Acknowledgment()
			close(p.in)
			hungUp = true
			continue
		}
		if p.lockstep != nil {
			time.Sleep(time.Millisecond)
			if len(p.out) > 0 {
				p.mu.Lock()
				*p.lockstep++
				p.mu.Unlock()
			}
		}
		p.in <- protocol.Acknowledgment()
		for _, r := range p.reply(p, msg) {
			p.in <- r
		}
	}
}

// startTable queues every peer's greeting in order and runs an orchestrator.
func startTable(t *testing.T, players int, engine Engine, peers ...*peer) (*Orchestrator, <-chan error) {
	t.Helper()
	sessions := make(chan session.Pair, len(peers))
	for _, p := range peers {
		p.in <- protocol.Greeting()
		sessions <- p.pair()
		go p.run()
	}
	o, err := New(Config{Players: players, IdleWait: time.Millisecond}, engine, sessions)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	errCh := make(chan error, 1)
	go func() {
		errCh <- o.Run(ctx)
	}()
	return o, errCh
}

func waitRun(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(10 * time.Second):
		t.Fatalf("orchestrator did not finish")
		return nil
	}
}
