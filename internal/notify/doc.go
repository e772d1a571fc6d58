// Package notify fans short text notifications out to every live
// WebSocket session.
//
// A Hub owns a Registry of Sessions. Each accepted socket becomes a Session
// with a fresh UUID, a bounded outbound queue and a reader/writer goroutine
// pair. Broadcasts copy the registry under its lock and then offer the
// message to each session without blocking; a full or closed session simply
// misses it. Delivery is fire-and-forget: nothing is stored for clients that
// are not connected.
//
// A Relay extends the fan-out across instances by publishing each
// notification on a message bus and re-delivering notifications published
// by other instances.
package notify
