package notify

import (
	"sync"
	"testing"
)

type recordingRecorder struct {
	mu      sync.Mutex
	reports []Report
}

func (r *recordingRecorder) RecordBroadcast(rep Report) {
	r.mu.Lock()
	r.reports = append(r.reports, rep)
	r.mu.Unlock()
}

func TestBroadcast_IsolatesClosedSession(t *testing.T) {
	r := NewRegistry()
	a, b, c := NewSession(1), NewSession(1), NewSession(1)
	for _, s := range []*Session{a, b, c} {
		r.Register(s)
	}

	// b is closed but not yet unregistered: its teardown is still in flight.
	b.Close()

	report := NewBroadcaster(r, nil, nil).Broadcast("Author has been created")

	if report.Attempted != 3 || report.Delivered != 2 || report.Dropped != 1 {
		t.Fatalf("Broadcast() = %+v, want 3/2/1", report)
	}
	for _, s := range []*Session{a, c} {
		if got := <-s.Outbound(); got != "Author has been created" {
			t.Errorf("session got %q", got)
		}
	}
	if !r.Has(b.ID()) {
		t.Error("broadcast must not unregister failing sessions")
	}
}

func TestBroadcast_FullQueueDoesNotBlock(t *testing.T) {
	r := NewRegistry()
	stalled := NewSession(1)
	healthy := NewSession(8)
	r.Register(stalled)
	r.Register(healthy)

	b := NewBroadcaster(r, nil, nil)
	for i := 0; i < 5; i++ {
		b.Notify("Post has been updated")
	}

	if len(stalled.send) != 1 {
		t.Errorf("stalled queue len = %d, want 1", len(stalled.send))
	}
	if len(healthy.send) != 5 {
		t.Errorf("healthy queue len = %d, want 5", len(healthy.send))
	}
}

func TestBroadcast_EmptyRegistry(t *testing.T) {
	report := NewBroadcaster(NewRegistry(), nil, nil).Broadcast("anything")
	if report != (Report{}) {
		t.Errorf("Broadcast() on empty registry = %+v, want zero", report)
	}
}

func TestBroadcast_Recorder(t *testing.T) {
	r := NewRegistry()
	r.Register(NewSession(1))
	rec := &recordingRecorder{}

	b := NewBroadcaster(r, nil, rec)
	b.Notify("first")
	b.Notify("second")

	if len(rec.reports) != 2 {
		t.Fatalf("recorded %d reports, want 2", len(rec.reports))
	}
	if rec.reports[0] != (Report{Attempted: 1, Delivered: 1}) {
		t.Errorf("first report = %+v", rec.reports[0])
	}
	if rec.reports[1] != (Report{Attempted: 1, Dropped: 1}) {
		t.Errorf("second report = %+v", rec.reports[1])
	}
}
