package rules

import (
	"errors"
	"fmt"
)

var (
	ErrWrongPhase      = errors.New("rules: event not accepted in current phase")
	ErrPlayerCount     = errors.New("rules: unsupported player count")
	ErrInvalidName     = errors.New("rules: invalid player name")
	ErrInvalidDiscards = errors.New("rules: invalid discard selection")
)

// PhaseError reports an event submitted outside the phase that accepts it.
type PhaseError struct {
	Phase Phase
	Event string
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("rules: event %q not accepted in phase %s", e.Event, e.Phase)
}

func (e *PhaseError) Unwrap() error {
	return ErrWrongPhase
}
