// Package rules owns the authoritative cribbage game state.
//
// Ownership boundary:
// - phase progression (setup -> cut -> deal -> sort -> discard -> starter -> end)
// - player hands, crib, starter, dealer seat
// - event validation; events submitted in the wrong phase are rejected, never dropped
//
// The table orchestrator reaches this package only through Submit and the
// read accessors.
package rules
