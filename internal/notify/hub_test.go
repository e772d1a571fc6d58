package notify

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/inkwell/internal/infrastructure/config"
)

func testWSConfig() config.WebSocketConfig {
	return config.WebSocketConfig{
		Path:           "/api/ws",
		MaxMessageSize: 1024,
		PingInterval:   30,
		PongTimeout:    5,
		SendBuffer:     16,
	}
}

// startHub serves hub on an httptest server and returns its ws:// URL.
func startHub(t *testing.T, hub *Hub) string {
	t.Helper()
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		hub.CloseAll()
		srv.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	mt, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if mt != websocket.TextMessage {
		t.Fatalf("message type = %d, want text", mt)
	}
	return string(data)
}

func TestHub_EndToEndFanOut(t *testing.T) {
	hub := NewHub(testWSConfig(), nil)
	url := startHub(t, hub)

	a := dial(t, url)
	b := dial(t, url)
	waitFor(t, "two sessions", func() bool { return hub.SessionCount() == 2 })

	var idA string
	for _, s := range hub.Registry().Snapshot() {
		if s.State() != StateActive {
			t.Errorf("session %s state = %v, want active", s.ID(), s.State())
		}
	}

	hub.Notify("Post has been created")
	if got := readText(t, a); got != "Post has been created" {
		t.Errorf("A got %q", got)
	}
	if got := readText(t, b); got != "Post has been created" {
		t.Errorf("B got %q", got)
	}

	before := map[string]bool{}
	for _, s := range hub.Registry().Snapshot() {
		before[s.ID()] = true
	}

	a.Close()
	waitFor(t, "A to be unregistered", func() bool { return hub.SessionCount() == 1 })

	remaining := hub.Registry().Snapshot()[0].ID()
	for id := range before {
		if id != remaining {
			idA = id
		}
	}
	if hub.Registry().Has(idA) {
		t.Errorf("closed session %s still registered", idA)
	}

	report := hub.Broadcast("Post has been updated")
	if report.Attempted != 1 || report.Delivered != 1 {
		t.Errorf("Broadcast() after disconnect = %+v, want 1 delivered", report)
	}
	if got := readText(t, b); got != "Post has been updated" {
		t.Errorf("B got %q", got)
	}
}

func TestHub_InboundFramesIgnored(t *testing.T) {
	hub := NewHub(testWSConfig(), nil)
	url := startHub(t, hub)

	conn := dial(t, url)
	waitFor(t, "session", func() bool { return hub.SessionCount() == 1 })

	if err := conn.WriteMessage(websocket.TextMessage, []byte("hello server")); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	hub.Notify("Author has been deleted")
	if got := readText(t, conn); got != "Author has been deleted" {
		t.Errorf("got %q", got)
	}
	if hub.SessionCount() != 1 {
		t.Errorf("SessionCount() = %d, want 1", hub.SessionCount())
	}
}

func TestHub_OversizedInboundClosesSession(t *testing.T) {
	cfg := testWSConfig()
	cfg.MaxMessageSize = 16
	hub := NewHub(cfg, nil)
	url := startHub(t, hub)

	conn := dial(t, url)
	waitFor(t, "session", func() bool { return hub.SessionCount() == 1 })

	if err := conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 64))); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	waitFor(t, "session teardown", func() bool { return hub.SessionCount() == 0 })
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub(testWSConfig(), nil)
	url := startHub(t, hub)

	conn := dial(t, url)
	waitFor(t, "session", func() bool { return hub.SessionCount() == 1 })
	sessions := hub.Registry().Snapshot()

	hub.CloseAll()

	if hub.SessionCount() != 0 {
		t.Errorf("SessionCount() = %d after CloseAll, want 0", hub.SessionCount())
	}
	if sessions[0].State() != StateClosed {
		t.Errorf("State() = %v, want closed", sessions[0].State())
	}

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("client read succeeded after CloseAll, want close")
	}

	// New connections are refused once the hub has shut down.
	late, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		defer late.Close()
		_ = late.SetReadDeadline(time.Now().Add(3 * time.Second))
		if _, _, err := late.ReadMessage(); err == nil {
			t.Error("late session should be closed immediately")
		}
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if hub.SessionCount() != 0 {
		t.Errorf("SessionCount() = %d after late dial, want 0", hub.SessionCount())
	}
}

func TestHub_PlainHTTPRejected(t *testing.T) {
	hub := NewHub(testWSConfig(), nil)
	rec := httptest.NewRecorder()

	hub.ServeHTTP(rec, httptest.NewRequest("GET", "/api/ws", nil))

	if rec.Code != 400 {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if hub.SessionCount() != 0 {
		t.Errorf("SessionCount() = %d, want 0", hub.SessionCount())
	}
}

func TestHub_AllowedOrigins(t *testing.T) {
	hub := NewHub(testWSConfig(), nil, WithAllowedOrigins([]string{"https://inkwell.example"}))
	url := startHub(t, hub)

	tests := []struct {
		name   string
		origin string
		wantOK bool
	}{
		{"allowed origin", "https://inkwell.example", true},
		{"no origin header", "", true},
		{"foreign origin", "https://evil.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(url, header)
			if resp != nil && resp.Body != nil {
				resp.Body.Close()
			}

			if tt.wantOK {
				if err != nil {
					t.Fatalf("Dial() error = %v", err)
				}
				conn.Close()
				return
			}
			if err == nil {
				conn.Close()
				t.Fatal("Dial() succeeded, want rejected handshake")
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Errorf("response = %v, want 403", resp)
			}
		})
	}
}

func TestHub_NoOriginListAcceptsAny(t *testing.T) {
	hub := NewHub(testWSConfig(), nil)
	url := startHub(t, hub)

	header := http.Header{"Origin": []string{"https://anywhere.example"}}
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	conn.Close()
}
