// Package server hosts the cribbage table process.
//
// Ownership boundary:
//   - TCP accept loop that turns connections into session pairs
//   - admin HTTP surface (health, readiness, metrics, table snapshot)
//   - process wiring of listener, orchestrator, and admin API
package server
