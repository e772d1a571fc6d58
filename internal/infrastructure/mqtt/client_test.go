package mqtt

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/nerrad567/inkwell/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "inkwell-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
		TopicPrefix: "inkwell",
	}
}

// unconnected returns a Client that never dialled a broker.
func unconnected() *Client {
	cfg := testConfig()
	return newClient(cfg, buildClientOptions(cfg))
}

// ─── Topics ─────────────────────────────────────────────────────────

func TestTopics(t *testing.T) {
	tests := []struct {
		prefix string
		notify string
		status string
		all    string
	}{
		{"inkwell", "inkwell/notifications", "inkwell/system/status", "inkwell/#"},
		{"/blog/eu/", "blog/eu/notifications", "blog/eu/system/status", "blog/eu/#"},
		{"", "inkwell/notifications", "inkwell/system/status", "inkwell/#"},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			topics := NewTopics(tt.prefix)
			if got := topics.Notifications(); got != tt.notify {
				t.Errorf("Notifications() = %q, want %q", got, tt.notify)
			}
			if got := topics.SystemStatus(); got != tt.status {
				t.Errorf("SystemStatus() = %q, want %q", got, tt.status)
			}
			if got := topics.All(); got != tt.all {
				t.Errorf("All() = %q, want %q", got, tt.all)
			}
		})
	}
}

// ─── Options ────────────────────────────────────────────────────────

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Username = "relay"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want tcp://127.0.0.1:1883", opts.Servers)
	}
	if opts.ClientID != "inkwell-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "relay" || opts.Password != "secret" {
		t.Error("credentials not applied")
	}
	if !opts.CleanSession || !opts.AutoReconnect {
		t.Error("expected clean session with auto-reconnect")
	}
}

func TestBuildClientOptions_TLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if opts.Servers[0].Scheme != "ssl" {
		t.Errorf("scheme = %q, want ssl", opts.Servers[0].Scheme)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS config not applied")
	}
}

func TestConfigureLWT(t *testing.T) {
	cfg := testConfig()
	cfg.TopicPrefix = "blog"
	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg)

	if !opts.WillEnabled || !opts.WillRetained {
		t.Fatal("expected retained will")
	}
	if opts.WillTopic != "blog/system/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}

	var status statusPayload
	if err := json.Unmarshal(opts.WillPayload, &status); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if status.Status != "offline" || status.ClientID != "inkwell-test" || status.Reason != "unexpected_disconnect" {
		t.Errorf("will payload = %+v", status)
	}
}

// ─── Validation without a broker ────────────────────────────────────

func TestIsConnected_Unconnected(t *testing.T) {
	if (&Client{}).IsConnected() {
		t.Error("zero Client reports connected")
	}
	if unconnected().IsConnected() {
		t.Error("undialled Client reports connected")
	}
}

func TestPublish_Validation(t *testing.T) {
	c := unconnected()

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		want    error
	}{
		{"empty topic", "", []byte("x"), 1, ErrInvalidTopic},
		{"bad qos", "inkwell/notifications", []byte("x"), 3, ErrInvalidQoS},
		{"oversize", "inkwell/notifications", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"disconnected", "inkwell/notifications", []byte("x"), 1, ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.Publish(tt.topic, tt.payload, tt.qos, false); !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
		})
	}

	if err := c.PublishDefault("inkwell/notifications", []byte("x")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("PublishDefault() error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribe_Validation(t *testing.T) {
	c := unconnected()
	noop := func(string, []byte) error { return nil }

	if err := c.Subscribe("", 1, noop); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("empty topic error = %v", err)
	}
	if err := c.Subscribe("t", 3, noop); !errors.Is(err, ErrInvalidQoS) {
		t.Errorf("bad qos error = %v", err)
	}
	if err := c.Subscribe("t", 1, nil); !errors.Is(err, ErrSubscribeFailed) {
		t.Errorf("nil handler error = %v", err)
	}
	if err := c.Subscribe("t", 1, noop); !errors.Is(err, ErrNotConnected) {
		t.Errorf("disconnected error = %v", err)
	}
	if err := c.Unsubscribe("t"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Unsubscribe() error = %v", err)
	}
	if c.SubscriptionCount() != 0 || c.HasSubscription("t") {
		t.Error("failed subscription was tracked")
	}
}

func TestCloseNil(t *testing.T) {
	if err := (&Client{}).Close(); err != nil {
		t.Errorf("Close() on zero Client error = %v", err)
	}
}

// ─── Handler wrapping ───────────────────────────────────────────────

// fakeMessage implements pahomqtt.Message.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type capturingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *capturingLogger) Error(msg string, _ ...any) { l.add(msg) }
func (l *capturingLogger) Warn(msg string, _ ...any)  { l.add(msg) }

func (l *capturingLogger) add(msg string) {
	l.mu.Lock()
	l.lines = append(l.lines, msg)
	l.mu.Unlock()
}

func TestWrapHandler(t *testing.T) {
	c := unconnected()
	logger := &capturingLogger{}
	c.SetLogger(logger)

	var got string
	c.wrapHandler(func(topic string, payload []byte) error {
		got = topic + "=" + string(payload)
		return nil
	})(nil, fakeMessage{topic: "inkwell/notifications", payload: []byte("hi")})
	if got != "inkwell/notifications=hi" {
		t.Errorf("handler saw %q", got)
	}

	c.wrapHandler(func(string, []byte) error {
		return errors.New("bad envelope")
	})(nil, fakeMessage{topic: "t"})

	c.wrapHandler(func(string, []byte) error {
		panic("boom")
	})(nil, fakeMessage{topic: "t"})

	joined := strings.Join(logger.lines, "|")
	if !strings.Contains(joined, "returned error") || !strings.Contains(joined, "panic recovered") {
		t.Errorf("logged %q, want error and panic lines", joined)
	}
}
