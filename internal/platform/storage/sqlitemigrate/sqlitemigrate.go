// Package sqlitemigrate applies ordered, checksummed SQL migrations.
package sqlitemigrate

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jonboulle/clockwork"
)

const (
	migrationTable = "schema_migrations"
	upMarker       = "-- +migrate Up"
	downMarker     = "-- +migrate Down"
)

// ErrChecksumMismatch indicates an applied migration whose file has changed.
var ErrChecksumMismatch = errors.New("applied migration was modified")

// Migration is one forward schema step.
type Migration struct {
	Name     string
	Up       string
	Checksum string
}

// Load reads every .sql file under root in name order. Only the Up section
// of each file is kept; the checksum covers it.
func Load(fsys fs.FS, root string) ([]Migration, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		root = "."
	}
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	out := make([]Migration, 0, len(names))
	for _, name := range names {
		content, err := fs.ReadFile(fsys, path.Join(root, name))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		up := strings.TrimSpace(upSection(string(content)))
		if up == "" {
			continue
		}
		sum := sha256.Sum256([]byte(up))
		out = append(out, Migration{
			Name:     name,
			Up:       up,
			Checksum: hex.EncodeToString(sum[:]),
		})
	}
	return out, nil
}

// Option configures Apply.
type Option func(*applier)

// WithClock sets the clock stamped on applied migrations.
func WithClock(clock clockwork.Clock) Option {
	return func(a *applier) {
		if clock != nil {
			a.clock = clock
		}
	}
}

type applier struct {
	clock clockwork.Clock
}

// Apply runs pending migrations in order, each in its own transaction, and
// returns the names it applied. A previously applied migration whose checksum
// no longer matches stops the run with ErrChecksumMismatch.
func Apply(ctx context.Context, sqlDB *sql.DB, migrations []Migration, opts ...Option) ([]string, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("sql db is required")
	}
	a := applier{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&a)
	}

	if _, err := sqlDB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS `+migrationTable+` (
    name TEXT PRIMARY KEY,
    checksum TEXT NOT NULL,
    applied_at INTEGER NOT NULL
)`); err != nil {
		return nil, fmt.Errorf("ensure migration table: %w", err)
	}

	applied, err := appliedChecksums(ctx, sqlDB)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, m := range migrations {
		if sum, ok := applied[m.Name]; ok {
			if sum != m.Checksum {
				return ran, fmt.Errorf("%w: %s", ErrChecksumMismatch, m.Name)
			}
			continue
		}
		if err := a.run(ctx, sqlDB, m); err != nil {
			return ran, err
		}
		ran = append(ran, m.Name)
	}
	return ran, nil
}

func (a applier) run(ctx context.Context, sqlDB *sql.DB, m Migration) (err error) {
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", m.Name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, m.Up); err != nil {
		return fmt.Errorf("exec migration %s: %w", m.Name, err)
	}
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO "+migrationTable+" (name, checksum, applied_at) VALUES (?, ?, ?)",
		m.Name, m.Checksum, a.clock.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("record migration %s: %w", m.Name, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", m.Name, err)
	}
	return nil
}

func appliedChecksums(ctx context.Context, sqlDB *sql.DB) (map[string]string, error) {
	rows, err := sqlDB.QueryContext(ctx, "SELECT name, checksum FROM "+migrationTable)
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var name, sum string
		if err := rows.Scan(&name, &sum); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		out[name] = sum
	}
	return out, rows.Err()
}

func upSection(content string) string {
	start := strings.Index(content, upMarker)
	if start == -1 {
		return content
	}
	content = content[start+len(upMarker):]
	if end := strings.Index(content, downMarker); end != -1 {
		content = content[:end]
	}
	return content
}
