package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"
)

const createItems = "-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE items;"

func TestLoadOrdersAndKeepsUpSection(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"ledger/002_index.sql":  {Data: []byte("-- +migrate Up\nCREATE INDEX idx_items ON items(id);")},
		"ledger/001_create.sql": {Data: []byte(createItems)},
		"ledger/003_empty.sql":  {Data: []byte("-- +migrate Up\n-- +migrate Down\nSELECT 1;")},
		"ledger/README":         {Data: []byte("not sql")},
	}
	got, err := Load(fsys, "ledger")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var names []string
	for _, m := range got {
		names = append(names, m.Name)
	}
	if diff := cmp.Diff([]string{"001_create.sql", "002_index.sql"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if got[0].Up != "CREATE TABLE items(id TEXT PRIMARY KEY);" {
		t.Fatalf("up = %q, want only the Up section", got[0].Up)
	}
	if len(got[0].Checksum) != 64 || got[0].Checksum == got[1].Checksum {
		t.Fatalf("checksums = %q, %q", got[0].Checksum, got[1].Checksum)
	}
}

func TestApplyRunsPendingOnce(t *testing.T) {
	t.Parallel()

	db := openInMemoryDB(t)
	at := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	migrations := mustLoad(t, fstest.MapFS{"001_create.sql": {Data: []byte(createItems)}})

	ran, err := Apply(context.Background(), db, migrations, WithClock(clockwork.NewFakeClockAt(at)))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if diff := cmp.Diff([]string{"001_create.sql"}, ran); diff != "" {
		t.Fatalf("ran mismatch (-want +got):\n%s", diff)
	}
	if got := queryInt64(t, db, "SELECT applied_at FROM schema_migrations"); got != at.UnixMilli() {
		t.Fatalf("applied_at = %d, want %d", got, at.UnixMilli())
	}
	if got := queryInt64(t, db, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'items'"); got != 1 {
		t.Fatalf("items tables = %d, want 1", got)
	}

	ran, err = Apply(context.Background(), db, migrations)
	if err != nil {
		t.Fatalf("reapply: %v", err)
	}
	if len(ran) != 0 {
		t.Fatalf("reapply ran %v, want nothing", ran)
	}
}

func TestApplyRejectsModifiedMigration(t *testing.T) {
	t.Parallel()

	db := openInMemoryDB(t)
	first := mustLoad(t, fstest.MapFS{"001_create.sql": {Data: []byte(createItems)}})
	if _, err := Apply(context.Background(), db, first); err != nil {
		t.Fatalf("apply: %v", err)
	}

	edited := mustLoad(t, fstest.MapFS{"001_create.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE items(id INTEGER PRIMARY KEY);")}})
	if _, err := Apply(context.Background(), db, edited); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("apply edited = %v, want %v", err, ErrChecksumMismatch)
	}
}

func TestApplyLeavesFailedMigrationUnrecorded(t *testing.T) {
	t.Parallel()

	db := openInMemoryDB(t)
	migrations := mustLoad(t, fstest.MapFS{
		"001_create.sql": {Data: []byte(createItems)},
		"002_bad.sql":    {Data: []byte("-- +migrate Up\nCREAT TABLE things(id INT);")},
	})

	ran, err := Apply(context.Background(), db, migrations)
	if err == nil {
		t.Fatal("expected bad migration to fail")
	}
	if diff := cmp.Diff([]string{"001_create.sql"}, ran); diff != "" {
		t.Fatalf("ran mismatch (-want +got):\n%s", diff)
	}
	if got := queryInt64(t, db, "SELECT COUNT(*) FROM schema_migrations"); got != 1 {
		t.Fatalf("recorded = %d, want 1", got)
	}
}

func mustLoad(t *testing.T, fsys fstest.MapFS) []Migration {
	t.Helper()
	migrations, err := Load(fsys, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return migrations
}

func openInMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("close db: %v", err)
		}
	})
	return db
}

func queryInt64(t *testing.T, db *sql.DB, query string) int64 {
	t.Helper()
	var value int64
	if err := db.QueryRow(query).Scan(&value); err != nil {
		t.Fatalf("query %q: %v", query, err)
	}
	return value
}
