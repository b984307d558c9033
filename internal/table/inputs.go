package table

import (
	"errors"
	"fmt"

	"github.com/danmuck/cribbage/internal/rules"
)

var ErrInputMismatch = errors.New("table: input store does not match phase")

type inputKind int

const (
	inputNone inputKind = iota
	inputNames
	inputDiscards
)

func (k inputKind) String() string {
	switch k {
	case inputNames:
		return "names"
	case inputDiscards:
		return "discards"
	default:
		return "none"
	}
}

// inputStore holds the multi-player input collected for the current phase:
// names during setup or discard indices during discard, never both.
type inputStore struct {
	kind     inputKind
	names    []string
	discards [][]int
	want     []int
}

func namesInput(players int) inputStore {
	return inputStore{kind: inputNames, names: make([]string, players)}
}

func discardInput(want []int) inputStore {
	return inputStore{kind: inputDiscards, discards: make([][]int, len(want)), want: want}
}

// check fails when the active variant does not belong to phase.
func (s *inputStore) check(phase rules.Phase) error {
	want := inputNone
	switch phase {
	case rules.PhaseSetup:
		want = inputNames
	case rules.PhaseDiscard:
		want = inputDiscards
	}
	if s.kind != want {
		return fmt.Errorf("%w: phase=%s store=%s", ErrInputMismatch, phase, s.kind)
	}
	return nil
}

func (s *inputStore) hasName(name string) bool {
	for _, n := range s.names {
		if n == name {
			return true
		}
	}
	return false
}

func (s *inputStore) complete() bool {
	switch s.kind {
	case inputNames:
		for _, n := range s.names {
			if n == "" {
				return false
			}
		}
		return true
	case inputDiscards:
		for seat, w := range s.want {
			if len(s.discards[seat]) != w {
				return false
			}
		}
		return true
	default:
		return false
	}
}
