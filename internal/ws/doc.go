// Package ws brokers live lab rooms over WebSocket connections.
//
// The package implements:
//   - Registry and Room: the transient per-session state (role slots, the
//     shared code buffer, chat history) keyed by session code
//   - Client: one connection with a bounded, non-blocking send queue
//   - Service: join, code mirroring, AI requests, chat, cursor sharing,
//     leave and disconnect handling, session end and idle-room reaping
//   - Handler: the HTTP upgrade and the per-connection read and write pumps
//
// Key behaviours:
//   - Late joiners receive the current buffer in joined-lab
//   - Code updates are relayed to peers in arrival order, never echoed
//   - Disconnects keep the room and its buffer until the session ends
//   - AI answers go to the requester only
package ws
