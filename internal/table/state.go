package table

import (
	"errors"
	"fmt"
	"slices"
)

// State is what the orchestrator currently solicits from one session.
type State int

const (
	StateConnecting State = iota
	StateWatching
	StateWaitingName
	StateWaitingForInitialCut
	StateWaitingForDeal
	StateWaitingForDiscards
	StateWaitingForCutStarter
	// StateWaitingForServer is the synchronized wait: input supplied, nothing solicited.
	StateWaitingForServer
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateWatching:
		return "watching"
	case StateWaitingName:
		return "waiting_name"
	case StateWaitingForInitialCut:
		return "waiting_for_initial_cut"
	case StateWaitingForDeal:
		return "waiting_for_deal"
	case StateWaitingForDiscards:
		return "waiting_for_discards"
	case StateWaitingForCutStarter:
		return "waiting_for_cut_starter"
	case StateWaitingForServer:
		return "waiting_for_server"
	case StateDisconnected:
		return "disconnected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var ErrIllegalTransition = errors.New("table: illegal session state transition")

type TransitionError struct {
	Handle Handle
	From   State
	To     State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("table: session %d cannot move %s -> %s", e.Handle, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// Every state may also move to StateDisconnected.
var allowed = map[State][]State{
	StateConnecting:           {StateWaitingName, StateWatching},
	StateWatching:             nil,
	StateWaitingName:          {StateWaitingForServer},
	StateWaitingForInitialCut: {StateWaitingForServer},
	StateWaitingForDeal:       {StateWaitingForServer},
	StateWaitingForDiscards:   {StateWaitingForServer},
	StateWaitingForCutStarter: {StateWaitingForServer},
	StateWaitingForServer: {
		StateWaitingForInitialCut,
		StateWaitingForDeal,
		StateWaitingForDiscards,
		StateWaitingForCutStarter,
	},
	StateDisconnected: nil,
}

func canTransition(from, to State) bool {
	if to == StateDisconnected {
		return from != StateDisconnected
	}
	return slices.Contains(allowed[from], to)
}
