// Package protocol owns the wire message contract.
//
// Ownership boundary:
//   - ClientMessage / ServerMessage vocabulary shared by the orchestrator,
//     session adapters and clients
//   - message <-> frame codec (frame, tlv and schema subpackages)
//   - wire acknowledgment frames
package protocol
