// Package table owns the game orchestrator.
//
// Ownership boundary:
// - session registry: admission, seats, per-session state machine
// - ordered input tracker for sequential confirmations
// - reliable notification: one outbound message per session until acked
// - phase dispatch against the rules engine
//
// One goroutine (Run) owns every value in this package. Sessions are reached
// only through their Pair queues; the rules engine only through Engine.
package table
