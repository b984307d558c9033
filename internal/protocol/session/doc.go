// Package session owns the per-connection transport adapter.
//
// Ownership boundary:
// - one net.Conn <-> one Pair of message queues
// - frame encode/decode for every message crossing the connection
// - wire acknowledgment enforcement: every server frame must be acked by
//   message id before the next one is written
//
// The orchestrator only ever sees a Pair; it never touches the connection.
package session
