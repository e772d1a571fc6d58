package notify

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// State is a session's position in its lifecycle.
type State int32

const (
	StateConnecting State = iota
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// closeGrace bounds the close frame written during teardown.
const closeGrace = time.Second

// Session is one live notification subscriber.
//
// The outbound channel is never closed; teardown is signalled through Done
// instead, so a concurrent Deliver can never panic.
type Session struct {
	id       string
	send     chan string
	done     chan struct{}
	state    atomic.Int32
	once     sync.Once
	conn     *websocket.Conn
	onClose  func(*Session)
	openedAt time.Time
}

// NewSession creates a session in StateConnecting with a fresh UUID and an
// outbound queue of the given capacity. Sessions built this way have no
// socket; the Hub attaches one.
func NewSession(buffer int) *Session {
	if buffer < 1 {
		buffer = 1
	}
	return &Session{
		id:       uuid.NewString(),
		send:     make(chan string, buffer),
		done:     make(chan struct{}),
		openedAt: time.Now(),
	}
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// Outbound returns the queue drained by the session's writer.
func (s *Session) Outbound() <-chan string { return s.send }

// Done is closed when the session starts closing.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// OpenedAt returns when the session was created.
func (s *Session) OpenedAt() time.Time { return s.openedAt }

func (s *Session) activate() bool {
	return s.state.CompareAndSwap(int32(StateConnecting), int32(StateActive))
}

// Deliver enqueues msg without blocking.
func (s *Session) Deliver(msg string) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}

	select {
	case s.send <- msg:
		return nil
	case <-s.done:
		return ErrSessionClosed
	default:
		return ErrQueueFull
	}
}

// Close tears the session down. Only the first call has any effect: it
// marks the session closing, releases Done, runs the close hook (which
// removes it from its registry) and closes the socket.
func (s *Session) Close() {
	s.once.Do(func() {
		s.state.Store(int32(StateClosing))
		close(s.done)

		if s.onClose != nil {
			s.onClose(s)
		}

		if s.conn != nil {
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace)) //nolint:errcheck // peer may already be gone
			s.conn.Close()                                                                     //nolint:errcheck,gosec // teardown
		}

		s.state.Store(int32(StateClosed))
	})
}
