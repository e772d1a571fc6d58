package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/inkwell/internal/infrastructure/logging"
)

// Bus is the pub/sub transport a Relay rides on.
type Bus interface {
	Publish(topic string, payload []byte) error
	Subscribe(topic string, handler func(payload []byte)) error
}

// Envelope is the wire form of a relayed notification.
type Envelope struct {
	Origin    string    `json:"origin"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// DefaultRelayQueueSize bounds the envelopes waiting to be published.
const DefaultRelayQueueSize = 256

// Relay delivers notifications locally and shares them with other
// instances over a Bus. Publishing happens on the Run goroutine, so
// Notify never waits on the broker; when the queue is full the envelope
// is dropped with a warning. Notifications that come back with this
// instance's origin are ignored.
type Relay struct {
	local  *Broadcaster
	bus    Bus
	origin string
	topic  string
	queue  chan Envelope
	logger *logging.Logger
	now    func() time.Time
}

// NewRelay creates a relay. origin must be unique per running instance.
func NewRelay(hub *Hub, bus Bus, origin, topic string, logger *logging.Logger) (*Relay, error) {
	if hub == nil || bus == nil {
		return nil, errors.New("relay requires a hub and a bus")
	}
	if origin == "" || topic == "" {
		return nil, errors.New("relay requires an origin and a topic")
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Relay{
		local:  hub.broadcaster,
		bus:    bus,
		origin: origin,
		topic:  topic,
		queue:  make(chan Envelope, DefaultRelayQueueSize),
		logger: logger.With("component", "relay"),
		now:    time.Now,
	}, nil
}

// Start subscribes to the relay topic.
func (r *Relay) Start() error {
	if err := r.bus.Subscribe(r.topic, r.handle); err != nil {
		return fmt.Errorf("subscribing to %s: %w", r.topic, err)
	}
	r.logger.Info("notification relay started", "topic", r.topic, "origin", r.origin)
	return nil
}

// Notify delivers message to local sessions and queues it for peers.
func (r *Relay) Notify(message string) {
	r.local.Broadcast(message)

	env := Envelope{
		Origin:    r.origin,
		Message:   message,
		Timestamp: r.now().UTC(),
	}
	select {
	case r.queue <- env:
	default:
		r.logger.Warn("relay queue full, dropping notification", "message", message)
	}
}

// Run publishes queued envelopes until ctx is cancelled, then publishes
// whatever is still queued. Publish failures are logged and otherwise
// ignored.
func (r *Relay) Run(ctx context.Context) {
	for {
		select {
		case env := <-r.queue:
			r.publish(env)
		case <-ctx.Done():
			for {
				select {
				case env := <-r.queue:
					r.publish(env)
				default:
					return
				}
			}
		}
	}
}

func (r *Relay) publish(env Envelope) {
	payload, err := json.Marshal(env)
	if err != nil {
		r.logger.Error("encoding relay envelope", "error", err)
		return
	}
	if err := r.bus.Publish(r.topic, payload); err != nil {
		r.logger.Warn("relay publish failed", "error", err)
	}
}

func (r *Relay) handle(payload []byte) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		r.logger.Warn("discarding malformed relay envelope", "error", err)
		return
	}
	if env.Origin == r.origin || env.Message == "" {
		return
	}
	r.local.Broadcast(env.Message)
}
