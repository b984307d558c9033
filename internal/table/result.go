package table

import (
	"errors"
	"fmt"
)

// Kind drives the Run loop after every tick.
type Kind int

const (
	// Idle: nothing arrived and nothing advanced.
	Idle Kind = iota
	// Progress: state moved forward.
	Progress
	// Recovered: a protocol or sequencing violation was answered with an error reply.
	Recovered
	// Finished: the rules engine reached its terminal phase.
	Finished
	// Fatal: the game cannot continue; Err is a *FatalError.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case Progress:
		return "progress"
	case Recovered:
		return "recovered"
	case Finished:
		return "finished"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Result struct {
	Kind Kind
	Err  error
}

// merge keeps the most significant of two results.
func (r Result) merge(other Result) Result {
	if other.Kind > r.Kind {
		return other
	}
	return r
}

var (
	idle     = Result{Kind: Idle}
	progress = Result{Kind: Progress}
	finished = Result{Kind: Finished}
)

func recovered(err error) Result {
	return Result{Kind: Recovered, Err: err}
}

type FatalClass int

const (
	// ClassInvariant: orchestrator bookkeeping disagrees with itself or the engine.
	ClassInvariant FatalClass = iota + 1
	// ClassEngine: the rules engine rejected an event.
	ClassEngine
	// ClassTransport: a player queue closed or a send failed.
	ClassTransport
	ClassCanceled
)

func (c FatalClass) String() string {
	switch c {
	case ClassInvariant:
		return "invariant"
	case ClassEngine:
		return "engine"
	case ClassTransport:
		return "transport"
	case ClassCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

type FatalError struct {
	Class FatalClass
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("table: fatal %s: %v", e.Class, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// fail wraps err as a Fatal result. An err that already is a *FatalError keeps
// its class.
func fail(class FatalClass, err error) Result {
	var fe *FatalError
	if errors.As(err, &fe) {
		return Result{Kind: Fatal, Err: fe}
	}
	return Result{Kind: Fatal, Err: &FatalError{Class: class, Err: err}}
}

var (
	ErrProtocolViolation   = errors.New("table: input not solicited")
	ErrSequencingViolation = errors.New("table: input not required from you")
	ErrSessionClosed       = errors.New("table: session queue closed")
)

// ErrSessionRetired reports a non-player whose queue closed mid-request. It
// never ends the game.
var ErrSessionRetired = errors.New("table: non-player session retired")
