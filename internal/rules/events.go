package rules

import "github.com/danmuck/cribbage/internal/cards"

// Options are the rule toggles chosen at process start.
type Options struct {
	ManualScoring bool `json:"manual_scoring"`
	Underpegging  bool `json:"underpegging"`
	Muggins       bool `json:"muggins"`
	Overpegging   bool `json:"overpegging"`
}

// Event is one discrete input to the game.
type Event interface {
	eventName() string
}

// Setup names the players in seat order and fixes the rule toggles.
type Setup struct {
	Names   []string
	Options Options
}

// Confirmation advances the phase-specific action: cut, deal, sort or starter cut.
type Confirmation struct{}

// DiscardSelection carries the cards each seat sends to the crib, indexed by seat.
type DiscardSelection struct {
	Discards [][]cards.Card
}

func (Setup) eventName() string            { return "setup" }
func (Confirmation) eventName() string     { return "confirmation" }
func (DiscardSelection) eventName() string { return "discard_selection" }

// EventName is the stable name used in errors and logs.
func EventName(ev Event) string {
	if ev == nil {
		return "nil"
	}
	return ev.eventName()
}
