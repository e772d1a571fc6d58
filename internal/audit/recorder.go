package audit

import (
	"context"

	"github.com/nerrad567/inkwell/internal/infrastructure/logging"
)

// DefaultQueueSize bounds the number of entries waiting to be written.
const DefaultQueueSize = 256

// Recorder queues entries and writes them serially, so request handlers
// never wait on the audit table. When the queue is full entries are
// dropped with a warning.
type Recorder struct {
	repo   Repository
	queue  chan *Entry
	logger *logging.Logger
}

// NewRecorder creates a recorder writing to repo.
func NewRecorder(repo Repository, size int, logger *logging.Logger) *Recorder {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Recorder{
		repo:   repo,
		queue:  make(chan *Entry, size),
		logger: logger,
	}
}

// Record enqueues an entry sourced from the API.
func (r *Recorder) Record(action, entityType, entityID, userID string, details map[string]any) {
	entry := &Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		UserID:     userID,
		Source:     "api",
		Details:    details,
	}

	select {
	case r.queue <- entry:
	default:
		r.logger.Warn("audit queue full, dropping entry", "action", action, "entity_type", entityType)
	}
}

// Run writes queued entries until ctx is cancelled, then flushes whatever
// is still queued.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case entry := <-r.queue:
			r.write(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-r.queue:
					r.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (r *Recorder) write(entry *Entry) {
	// Detached from the request context, which is already done.
	if err := r.repo.Create(context.Background(), entry); err != nil {
		r.logger.Error("audit write failed", "action", entry.Action, "entity_type", entry.EntityType, "error", err)
	}
}
