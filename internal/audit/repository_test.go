package audit

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/inkwell/internal/infrastructure/config"
	"github.com/nerrad567/inkwell/internal/infrastructure/database"
	"github.com/nerrad567/inkwell/migrations"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "audit.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // test cleanup

	if err := db.Migrate(context.Background(), migrations.FS, "."); err != nil {
		t.Fatalf("migrating test db: %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

// ─── Repository ─────────────────────────────────────────────────────

func TestCreate_FillsIDAndTimestamp(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	entry := &Entry{Action: ActionCreate, EntityType: "post", EntityID: "1", UserID: "7", Source: "api"}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(entry.ID) < 5 || entry.ID[:4] != "aud-" {
		t.Errorf("ID = %q, want aud- prefix", entry.ID)
	}
	if entry.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestList_RoundTripsDetails(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	entry := &Entry{
		Action:     ActionUpdate,
		EntityType: "author",
		EntityID:   "3",
		UserID:     "1",
		Source:     "api",
		Details:    map[string]any{"name": "Ada"},
	}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 1 || len(result.Entries) != 1 {
		t.Fatalf("List() total = %d len = %d, want 1/1", result.Total, len(result.Entries))
	}
	got := result.Entries[0]
	if got.ID != entry.ID || got.EntityID != "3" || got.UserID != "1" {
		t.Errorf("List() entry = %+v", got)
	}
	if got.Details["name"] != "Ada" {
		t.Errorf("Details[name] = %v, want Ada", got.Details["name"])
	}
}

func TestList_FiltersAndOrder(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seed := []Entry{
		{Action: ActionCreate, EntityType: "post", EntityID: "1", UserID: "1"},
		{Action: ActionUpdate, EntityType: "post", EntityID: "1", UserID: "2"},
		{Action: ActionCreate, EntityType: "author", EntityID: "5", UserID: "1"},
		{Action: ActionDelete, EntityType: "post", EntityID: "1", UserID: "1"},
	}
	for i := range seed {
		seed[i].Source = "api"
		seed[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create(%d) error = %v", i, err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"by entity type", Filter{EntityType: "post"}, 3},
		{"by action", Filter{Action: ActionCreate}, 2},
		{"by user", Filter{UserID: "1"}, 3},
		{"by entity", Filter{EntityType: "post", EntityID: "1", Action: ActionUpdate}, 1},
		{"no match", Filter{EntityType: "comment"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if result.Total != tt.want || len(result.Entries) != tt.want {
				t.Errorf("List() total = %d len = %d, want %d", result.Total, len(result.Entries), tt.want)
			}
		})
	}

	result, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Entries[0].Action != ActionDelete {
		t.Errorf("first entry action = %q, want newest (delete)", result.Entries[0].Action)
	}
}

func TestList_LimitClamping(t *testing.T) {
	repo := testRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, &Entry{Action: ActionLogin, EntityType: "user", Source: "api"}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	result, err := repo.List(ctx, Filter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Total != 3 || len(result.Entries) != 1 {
		t.Errorf("List() total = %d len = %d, want 3/1", result.Total, len(result.Entries))
	}

	result, err = repo.List(ctx, Filter{Limit: 1000, Offset: -1})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if result.Limit != maxListLimit || result.Offset != 0 {
		t.Errorf("List() limit = %d offset = %d, want %d/0", result.Limit, result.Offset, maxListLimit)
	}
}

// ─── Recorder ───────────────────────────────────────────────────────

type memRepo struct {
	mu      sync.Mutex
	entries []*Entry
	fail    bool
}

func (m *memRepo) Create(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("disk full")
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memRepo) List(context.Context, Filter) (*ListResult, error) {
	return &ListResult{}, nil
}

func (m *memRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func TestRecorder_FlushesOnShutdown(t *testing.T) {
	repo := &memRepo{}
	rec := NewRecorder(repo, 8, nil)

	// Queue before Run starts so every entry is written by the flush path.
	for i := 0; i < 5; i++ {
		rec.Record(ActionCreate, "post", "1", "9", nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Run(ctx)

	if got := repo.len(); got != 5 {
		t.Fatalf("written entries = %d, want 5", got)
	}
	if repo.entries[0].Source != "api" || repo.entries[0].UserID != "9" {
		t.Errorf("entry = %+v", repo.entries[0])
	}
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	repo := &memRepo{}
	rec := NewRecorder(repo, 2, nil)

	for i := 0; i < 5; i++ {
		rec.Record(ActionDelete, "author", "2", "1", nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec.Run(ctx)

	if got := repo.len(); got != 2 {
		t.Errorf("written entries = %d, want 2 (queue capacity)", got)
	}
}

func TestRecorder_WriteFailureDoesNotStop(t *testing.T) {
	repo := &memRepo{fail: true}
	rec := NewRecorder(repo, 4, nil)
	rec.Record(ActionCreate, "post", "1", "1", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rec.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}
