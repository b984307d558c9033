package cards

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
)

// Suit order matches the wire encoding: clubs, diamonds, hearts, spades.
type Suit uint8

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Rank runs ace-low from 1 (Ace) to 13 (King).
type Rank uint8

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

var ErrInvalidCard = errors.New("cards: invalid card")

// Card is one playing card. The zero value is not a valid card.
type Card struct {
	Rank Rank `json:"rank"`
	Suit Suit `json:"suit"`
}

func New(rank Rank, suit Suit) (Card, error) {
	c := Card{Rank: rank, Suit: suit}
	if !c.Valid() {
		return Card{}, fmt.Errorf("%w: rank=%d suit=%d", ErrInvalidCard, rank, suit)
	}
	return c, nil
}

func (c Card) Valid() bool {
	return c.Rank >= Ace && c.Rank <= King && c.Suit <= Spades
}

// Value is the counting value used when pegging: face cards count ten.
func (c Card) Value() int {
	if c.Rank >= 10 {
		return 10
	}
	return int(c.Rank)
}

func (c Card) String() string {
	if !c.Valid() {
		return "??"
	}
	return rankNames[c.Rank] + suitNames[c.Suit]
}

var (
	rankNames = [...]string{"", "A", "2", "3", "4", "5", "6", "7", "8", "9", "T", "J", "Q", "K"}
	suitNames = [...]string{"♣", "♦", "♥", "♠"}
)

// Compare orders by rank, then suit.
func Compare(a, b Card) int {
	if a.Rank != b.Rank {
		return int(a.Rank) - int(b.Rank)
	}
	return int(a.Suit) - int(b.Suit)
}

// Sort puts a hand into canonical order in place. Clients index discards
// against this order.
func Sort(hand []Card) {
	slices.SortFunc(hand, Compare)
}

// Deck is an ordered pile of cards; index 0 is the top.
type Deck struct {
	cards []Card
}

// NewDeck returns the 52 cards in canonical order.
func NewDeck() *Deck {
	out := make([]Card, 0, 52)
	for s := Clubs; s <= Spades; s++ {
		for r := Ace; r <= King; r++ {
			out = append(out, Card{Rank: r, Suit: s})
		}
	}
	Sort(out)
	return &Deck{cards: out}
}

func (d *Deck) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

func (d *Deck) Len() int {
	return len(d.cards)
}

var ErrDeckEmpty = errors.New("cards: deck empty")

// Draw removes n cards from the top of the deck.
func (d *Deck) Draw(n int) ([]Card, error) {
	if n < 0 || n > len(d.cards) {
		return nil, fmt.Errorf("%w: want=%d have=%d", ErrDeckEmpty, n, len(d.cards))
	}
	out := make([]Card, n)
	copy(out, d.cards[:n])
	d.cards = d.cards[n:]
	return out, nil
}

// Index returns the position of c in hand, or -1.
func Index(hand []Card, c Card) int {
	return slices.Index(hand, c)
}
