package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/inkwell/internal/infrastructure/config"
	"github.com/nerrad567/inkwell/internal/infrastructure/logging"
)

// Hub accepts WebSocket sessions and broadcasts notifications to them.
type Hub struct {
	cfg         config.WebSocketConfig
	logger      *logging.Logger
	registry    *Registry
	broadcaster *Broadcaster
	upgrader    websocket.Upgrader
	origins     []string

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

const (
	defaultPingInterval = 30
	defaultPongTimeout  = 10
)

// HubOption customises a Hub.
type HubOption func(*Hub)

// WithRecorder attaches a Recorder to every broadcast.
func WithRecorder(r Recorder) HubOption {
	return func(h *Hub) {
		h.broadcaster.recorder = r
	}
}

// WithAllowedOrigins restricts browser upgrades to the listed origins.
// An empty list or "*" accepts any origin. Requests without an Origin
// header are not from browsers and are always accepted.
func WithAllowedOrigins(origins []string) HubOption {
	return func(h *Hub) {
		h.origins = origins
	}
}

// NewHub creates a hub with an empty registry.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logger.With("component", "notify")
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = defaultPingInterval
	}
	if cfg.PongTimeout <= 0 {
		cfg.PongTimeout = defaultPongTimeout
	}

	registry := NewRegistry()
	h := &Hub{
		cfg:         cfg,
		logger:      logger,
		registry:    registry,
		broadcaster: NewBroadcaster(registry, logger, nil),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	h.upgrader.CheckOrigin = h.checkOrigin
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.origins) == 0 {
		return true
	}
	for _, allowed := range h.origins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	h.logger.Warn("rejecting websocket upgrade from disallowed origin", "origin", origin)
	return false
}

// Registry exposes the hub's session registry.
func (h *Hub) Registry() *Registry { return h.registry }

// SessionCount returns the number of live sessions.
func (h *Hub) SessionCount() int { return h.registry.Len() }

// Broadcast sends message to every live session and reports the outcome.
func (h *Hub) Broadcast(message string) Report {
	return h.broadcaster.Broadcast(message)
}

// Notify sends message to every live session.
func (h *Hub) Notify(message string) {
	h.broadcaster.Broadcast(message)
}

// ServeHTTP upgrades the request and attaches the resulting socket.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		h.logger.Warn("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}
	h.Attach(conn)
}

// Attach registers a session for conn and starts its reader and writer.
// After CloseAll the socket is closed immediately and nil is returned.
func (h *Hub) Attach(conn *websocket.Conn) *Session {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close() //nolint:errcheck,gosec // hub is shutting down
		return nil
	}
	defer h.mu.Unlock()

	s := NewSession(h.cfg.SendBuffer)
	s.conn = conn
	s.onClose = func(closed *Session) {
		h.registry.remove(closed)
		h.logger.Debug("session closed",
			"session_id", closed.ID(),
			"duration", time.Since(closed.OpenedAt()).Round(time.Millisecond).String(),
			"sessions", h.registry.Len(),
		)
	}

	h.registry.Register(s)
	s.activate()
	h.wg.Add(2) //nolint:mnd // reader + writer
	h.logger.Debug("session opened", "session_id", s.ID(), "sessions", h.registry.Len())

	go h.writePump(s)
	go h.readPump(s)
	return s
}

// Run blocks until ctx is cancelled, then closes every session.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.CloseAll()
}

// CloseAll closes every live session and waits for their goroutines.
// The hub accepts no sessions afterwards.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	for _, s := range h.registry.Snapshot() {
		s.Close()
	}
	h.wg.Wait()
}

func (h *Hub) pingInterval() time.Duration {
	return time.Duration(h.cfg.PingInterval) * time.Second
}

func (h *Hub) pongWait() time.Duration {
	return time.Duration(h.cfg.PongTimeout) * time.Second
}

// readPump consumes inbound frames until the peer goes away. Inbound
// content is ignored; any frame or pong extends the read deadline.
func (h *Hub) readPump(s *Session) {
	defer h.wg.Done()
	defer s.Close()

	conn := s.conn
	if h.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(int64(h.cfg.MaxMessageSize))
	}

	deadline := h.pingInterval() + h.pongWait()
	_ = conn.SetReadDeadline(time.Now().Add(deadline)) //nolint:errcheck // best effort
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", "session_id", s.ID(), "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(deadline)) //nolint:errcheck // best effort
	}
}

// writePump drains the outbound queue as text frames and pings the peer.
func (h *Hub) writePump(s *Session) {
	ticker := time.NewTicker(h.pingInterval())
	defer func() {
		ticker.Stop()
		s.Close()
		h.wg.Done()
	}()

	conn := s.conn
	writeWait := h.pongWait()

	for {
		select {
		case <-s.Done():
			return
		case msg := <-s.Outbound():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // write error caught below
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				h.logger.Debug("websocket write failed", "session_id", s.ID(), "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // ping error caught below
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
