package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/inkwell/internal/infrastructure/config"
	"github.com/nerrad567/inkwell/internal/infrastructure/influxdb"
)

// fakeInflux answers /ping and records line protocol posted to /api/v2/write.
type fakeInflux struct {
	mu      sync.Mutex
	lines   []string
	queries []string
	healthy bool
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ping":
		f.mu.Lock()
		healthy := f.healthy
		f.mu.Unlock()
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case "/api/v2/write":
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.queries = append(f.queries, r.URL.RawQuery)
		for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
			if line != "" {
				f.lines = append(f.lines, line)
			}
		}
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeInflux) written() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

func startFake(t *testing.T) (*fakeInflux, config.InfluxDBConfig) {
	t.Helper()
	fake := &fakeInflux{healthy: true}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	return fake, config.InfluxDBConfig{
		Enabled:       true,
		URL:           srv.URL,
		Token:         "test-token",
		Org:           "inkwell",
		Bucket:        "telemetry",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

func waitForLines(t *testing.T, fake *fakeInflux, n int) []string {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if lines := fake.written(); len(lines) >= n {
			return lines
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d points, got %v", n, fake.written())
	return nil
}

// ─── Connection ─────────────────────────────────────────────────────

func TestConnect_Disabled(t *testing.T) {
	_, cfg := startFake(t)
	cfg.Enabled = false

	if _, err := influxdb.Connect(cfg); !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	_, cfg := startFake(t)
	cfg.URL = "http://127.0.0.1:1"

	if _, err := influxdb.Connect(cfg); !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_HealthCheckAndClose(t *testing.T) {
	fake, cfg := startFake(t)
	cfg.BatchSize = 0
	cfg.FlushInterval = -1

	client, err := influxdb.Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	fake.mu.Lock()
	fake.healthy = false
	fake.mu.Unlock()
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() error = nil for unhealthy server")
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close error = %v, want ErrNotConnected", err)
	}
	client.Flush()
}

func TestClose_Nil(t *testing.T) {
	if err := (&influxdb.Client{}).Close(); err != nil {
		t.Errorf("Close() on zero Client error = %v", err)
	}
}

// ─── Writes ─────────────────────────────────────────────────────────

func TestWriteBroadcastStats(t *testing.T) {
	fake, cfg := startFake(t)

	client, err := influxdb.Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	client.WriteBroadcastStats("inkwell-test", 3, 2, 1)
	client.Flush()

	lines := waitForLines(t, fake, 1)
	line := lines[0]
	for _, want := range []string{"notifications,site=inkwell-test ", "attempted=3i", "delivered=2i", "dropped=1i"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}

	fake.mu.Lock()
	query := fake.queries[0]
	fake.mu.Unlock()
	if !strings.Contains(query, "bucket=telemetry") || !strings.Contains(query, "org=inkwell") {
		t.Errorf("write query = %q, want org and bucket", query)
	}
}

func TestWriteSessionCountAndCustomPoint(t *testing.T) {
	fake, cfg := startFake(t)

	client, err := influxdb.Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	client.WriteSessionCount("inkwell-test", 4)
	client.WritePointWithTime("custom", map[string]string{"k": "v"}, map[string]any{"x": 1.5},
		time.Unix(1700000000, 0))
	client.Flush()

	lines := strings.Join(waitForLines(t, fake, 2), "\n")
	if !strings.Contains(lines, "ws_sessions,site=inkwell-test count=4i") {
		t.Errorf("session line missing in %q", lines)
	}
	if !strings.Contains(lines, "custom,k=v x=1.5 1700000000000000000") {
		t.Errorf("custom line missing in %q", lines)
	}
}

func TestWrite_AfterCloseIsDropped(t *testing.T) {
	fake, cfg := startFake(t)

	client, err := influxdb.Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	client.WriteBroadcastStats("inkwell-test", 1, 1, 0)
	time.Sleep(50 * time.Millisecond)

	if lines := fake.written(); len(lines) != 0 {
		t.Errorf("points written after Close: %v", lines)
	}
}
