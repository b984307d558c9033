package rules

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/danmuck/cribbage/internal/cards"
)

const (
	MinPlayers = 2
	MaxPlayers = 5

	nibsPoints = 2
)

// Player is one seat at the table. Hand holds the cut card during the cut
// phase and the dealt hand afterwards.
type Player struct {
	Name  string       `json:"name"`
	Hand  []cards.Card `json:"hand"`
	Score int          `json:"score"`
}

// Game is the authoritative state of one cribbage game. It is not safe for
// concurrent use; the orchestrator owns it.
type Game struct {
	rng     *rand.Rand
	phase   Phase
	options Options
	players []Player
	dealer  int
	crib    []cards.Card
	starter *cards.Card
	deck    *cards.Deck
}

type Option func(*Game)

// WithRand fixes the shuffle source.
func WithRand(r *rand.Rand) Option {
	return func(g *Game) {
		if r != nil {
			g.rng = r
		}
	}
}

func NewGame(opts ...Option) *Game {
	seed := uint64(time.Now().UnixNano())
	g := &Game{
		rng:    rand.New(rand.NewPCG(seed, seed>>1|1)),
		phase:  PhaseSetup,
		dealer: -1,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Game) Phase() Phase     { return g.phase }
func (g *Game) Options() Options { return g.options }

// Dealer returns the dealer seat, or -1 before the cut has produced one.
func (g *Game) Dealer() int { return g.dealer }

// Players returns a copy of the seats in order.
func (g *Game) Players() []Player {
	out := make([]Player, len(g.players))
	for i, p := range g.players {
		out[i] = Player{Name: p.Name, Hand: append([]cards.Card(nil), p.Hand...), Score: p.Score}
	}
	return out
}

func (g *Game) Crib() []cards.Card {
	return append([]cards.Card(nil), g.crib...)
}

// Starter returns the cut starter card once the starter phase has run.
func (g *Game) Starter() (cards.Card, bool) {
	if g.starter == nil {
		return cards.Card{}, false
	}
	return *g.starter, true
}

// Submit applies one event. Events submitted in a phase that does not accept
// them return a *PhaseError and leave the state untouched.
func (g *Game) Submit(ev Event) (Outcome, error) {
	switch e := ev.(type) {
	case Setup:
		if g.phase != PhaseSetup {
			return 0, g.wrongPhase(ev)
		}
		return g.setup(e)
	case Confirmation:
		switch g.phase {
		case PhaseCut:
			return g.cut()
		case PhaseDeal:
			return g.deal()
		case PhaseSort:
			return g.sortHands()
		case PhaseStarter:
			return g.cutStarter()
		default:
			return 0, g.wrongPhase(ev)
		}
	case DiscardSelection:
		if g.phase != PhaseDiscard {
			return 0, g.wrongPhase(ev)
		}
		return g.discard(e)
	default:
		return 0, g.wrongPhase(ev)
	}
}

func (g *Game) wrongPhase(ev Event) error {
	return &PhaseError{Phase: g.phase, Event: EventName(ev)}
}

func (g *Game) setup(e Setup) (Outcome, error) {
	if len(e.Names) < MinPlayers || len(e.Names) > MaxPlayers {
		return 0, fmt.Errorf("%w: got=%d", ErrPlayerCount, len(e.Names))
	}
	players := make([]Player, 0, len(e.Names))
	for i, name := range e.Names {
		if strings.TrimSpace(name) == "" {
			return 0, fmt.Errorf("%w: seat=%d", ErrInvalidName, i)
		}
		players = append(players, Player{Name: name})
	}
	g.players = players
	g.options = e.Options
	g.phase = PhaseCut
	return OutcomeSetup, nil
}

// cut gives every player one card from a fresh deck. The unique lowest rank
// deals; a tie for lowest leaves the game in the cut phase.
func (g *Game) cut() (Outcome, error) {
	g.freshDeck()
	lowest := -1
	tied := false
	for i := range g.players {
		drawn, err := g.deck.Draw(1)
		if err != nil {
			return 0, err
		}
		g.players[i].Hand = drawn
		if lowest < 0 || drawn[0].Rank < g.players[lowest].Hand[0].Rank {
			lowest = i
			tied = false
		} else if drawn[0].Rank == g.players[lowest].Hand[0].Rank {
			tied = true
		}
	}
	if tied {
		return OutcomeCutTie, nil
	}
	g.dealer = lowest
	g.phase = PhaseDeal
	return OutcomeCutDealer, nil
}

func (g *Game) deal() (Outcome, error) {
	g.freshDeck()
	g.crib = nil
	g.starter = nil
	n := len(g.players)
	for i := range g.players {
		count := HandSize(n)
		if n == 5 && i == g.dealer {
			count--
		}
		drawn, err := g.deck.Draw(count)
		if err != nil {
			return 0, err
		}
		g.players[i].Hand = drawn
	}
	if n == 3 {
		drawn, err := g.deck.Draw(1)
		if err != nil {
			return 0, err
		}
		g.crib = append(g.crib, drawn...)
	}
	g.phase = PhaseSort
	return OutcomeDealt, nil
}

func (g *Game) sortHands() (Outcome, error) {
	for i := range g.players {
		cards.Sort(g.players[i].Hand)
	}
	g.phase = PhaseDiscard
	return OutcomeSorted, nil
}

func (g *Game) discard(e DiscardSelection) (Outcome, error) {
	if len(e.Discards) != len(g.players) {
		return 0, fmt.Errorf("%w: seats=%d want=%d", ErrInvalidDiscards, len(e.Discards), len(g.players))
	}
	kept := make([][]cards.Card, len(g.players))
	var crib []cards.Card
	for seat, sel := range e.Discards {
		want := DiscardCount(len(g.players), seat, g.dealer)
		if len(sel) != want {
			return 0, fmt.Errorf("%w: seat=%d got=%d want=%d", ErrInvalidDiscards, seat, len(sel), want)
		}
		hand := append([]cards.Card(nil), g.players[seat].Hand...)
		for _, c := range sel {
			idx := cards.Index(hand, c)
			if idx < 0 {
				return 0, fmt.Errorf("%w: seat=%d card=%s not in hand", ErrInvalidDiscards, seat, c)
			}
			hand = append(hand[:idx], hand[idx+1:]...)
			crib = append(crib, c)
		}
		kept[seat] = hand
	}
	for seat := range g.players {
		g.players[seat].Hand = kept[seat]
	}
	g.crib = append(g.crib, crib...)
	g.phase = PhaseStarter
	return OutcomeDiscarded, nil
}

func (g *Game) cutStarter() (Outcome, error) {
	drawn, err := g.deck.Draw(1)
	if err != nil {
		return 0, err
	}
	starter := drawn[0]
	g.starter = &starter
	g.phase = PhaseEnd
	if starter.Rank == cards.Jack {
		g.players[g.dealer].Score += nibsPoints
		return OutcomeNibs, nil
	}
	return OutcomeStarter, nil
}

func (g *Game) freshDeck() {
	g.deck = cards.NewDeck()
	g.deck.Shuffle(g.rng)
}

// HandSize is the number of cards dealt to each non-dealer seat.
func HandSize(players int) int {
	if players == 2 {
		return 6
	}
	return 5
}

// DiscardCount is how many cards a seat sends to the crib.
func DiscardCount(players, seat, dealer int) int {
	switch {
	case players == 2:
		return 2
	case players == 5 && seat == dealer:
		return 0
	default:
		return 1
	}
}

// LeftOfDealer is the seat that cuts the starter.
func LeftOfDealer(players, dealer int) int {
	if players == 0 {
		return 0
	}
	return (dealer + 1) % players
}
