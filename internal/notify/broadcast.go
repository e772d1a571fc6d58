package notify

import (
	"errors"

	"github.com/nerrad567/inkwell/internal/infrastructure/logging"
)

// Notifier is implemented by anything that can fan a message out.
// Handlers depend on this rather than on Hub or Relay.
type Notifier interface {
	Notify(message string)
}

// Report summarises one broadcast.
type Report struct {
	Attempted int
	Delivered int
	Dropped   int
}

// Recorder receives a Report after every broadcast.
type Recorder interface {
	RecordBroadcast(Report)
}

// Broadcaster offers a message to every session in a Registry.
type Broadcaster struct {
	registry *Registry
	logger   *logging.Logger
	recorder Recorder
}

// NewBroadcaster creates a broadcaster over registry. recorder may be nil.
func NewBroadcaster(registry *Registry, logger *logging.Logger, recorder Recorder) *Broadcaster {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Broadcaster{
		registry: registry,
		logger:   logger,
		recorder: recorder,
	}
}

// Broadcast delivers message to each session registered at the moment of
// the call. A session that is closed or backed up misses the message; it is
// not removed here, its own teardown does that.
func (b *Broadcaster) Broadcast(message string) Report {
	sessions := b.registry.Snapshot()
	report := Report{Attempted: len(sessions)}

	for _, s := range sessions {
		if err := s.Deliver(message); err != nil {
			report.Dropped++
			if errors.Is(err, ErrQueueFull) {
				b.logger.Debug("notification dropped", "session_id", s.ID(), "reason", "queue full")
			} else {
				b.logger.Debug("notification dropped", "session_id", s.ID(), "reason", "closed")
			}
			continue
		}
		report.Delivered++
	}

	if b.recorder != nil {
		b.recorder.RecordBroadcast(report)
	}
	return report
}

// Notify is Broadcast without the report.
func (b *Broadcaster) Notify(message string) {
	b.Broadcast(message)
}

var (
	_ Notifier = (*Broadcaster)(nil)
	_ Notifier = (*Hub)(nil)
	_ Notifier = (*Relay)(nil)
)
