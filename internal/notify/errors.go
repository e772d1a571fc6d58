package notify

import "errors"

var (
	// ErrSessionClosed is returned by Deliver once a session has begun closing.
	ErrSessionClosed = errors.New("session closed")
	// ErrQueueFull is returned by Deliver when the outbound queue has no room.
	ErrQueueFull = errors.New("outbound queue full")
)
