package auth

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/inkwell/internal/infrastructure/config"
	"github.com/nerrad567/inkwell/internal/infrastructure/database"
	"github.com/nerrad567/inkwell/migrations"
)

const testSecret = "test-secret-key-at-least-32-chars!"

// fastParams keeps Argon2id cheap in tests.
var fastParams = Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

// testDB opens a temp-file SQLite database with the full schema applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "auth.db"),
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
	return db.DB
}

// fixedClock returns a settable clock for TokenIssuer.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

func newTestIssuer(t *testing.T, clock *fixedClock) *TokenIssuer {
	t.Helper()

	var opts []IssuerOption
	if clock != nil {
		opts = append(opts, WithClock(clock.Now))
	}
	issuer, err := NewTokenIssuer(testSecret, 20*time.Minute, opts...)
	if err != nil {
		t.Fatalf("NewTokenIssuer() error = %v", err)
	}
	return issuer
}
