// Package sqlite provides a SQLite-backed Asset Ledger.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger"
	apperrors "github.com/louisbranch/auctionhouse/internal/platform/errors"
	"github.com/louisbranch/auctionhouse/internal/platform/grpc/pagination"
	"github.com/louisbranch/auctionhouse/internal/platform/id"
	sqlitemigrate "github.com/louisbranch/auctionhouse/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/auctionhouse/internal/services/auctionhouse/storage/filter"
	"github.com/louisbranch/auctionhouse/internal/services/auctionhouse/storage/sqlite/migrations"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const tracerName = "github.com/louisbranch/auctionhouse/internal/services/auctionhouse/storage/sqlite"

// beginAttempts bounds retries when another process holds the write lock
// past the busy timeout.
const beginAttempts = 5

// ErrInvalidFilter indicates a journal filter that cannot be translated.
var ErrInvalidFilter = apperrors.New(apperrors.CodeJournalInvalidFilter, "invalid journal filter")

// Store persists the ledger in SQLite. Each invocation runs inside one
// IMMEDIATE transaction.
type Store struct {
	sqlDB *sql.DB
	clock clockwork.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the ledger clock.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite ledger and applies embedded migrations.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)&_txlock=immediate"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	store := &Store{sqlDB: sqlDB, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(store)
	}
	schema, err := sqlitemigrate.Load(migrations.FS, ".")
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	if _, err := sqlitemigrate.Apply(context.Background(), sqlDB, schema, sqlitemigrate.WithClock(store.clock)); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Execute runs fn as one all-or-nothing invocation.
func (s *Store) Execute(ctx context.Context, fn func(ledger.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	invocationID, err := id.NewInvocationID()
	if err != nil {
		return err
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "ledger.execute",
		trace.WithAttributes(attribute.String("ledger.invocation_id", invocationID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := s.begin(ctx)
	if err != nil {
		return err
	}
	if err := ledger.Run(&txState{ctx: ctx, tx: tx}, invocationID, s.clock.Now(), fn); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit invocation: %w", err)
	}
	return nil
}

func (s *Store) begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := backoff.Retry(ctx, func() (*sql.Tx, error) {
		tx, err := s.sqlDB.BeginTx(ctx, nil)
		if err != nil {
			if isBusy(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return tx, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(beginAttempts))
	if err != nil {
		return nil, fmt.Errorf("begin invocation: %w", err)
	}
	return tx, nil
}

// ListJournal pages through the journal in sequence order.
func (s *Store) ListJournal(ctx context.Context, pageSize int, pageToken string, filterExpr string) (ledger.JournalPage, error) {
	if err := ctx.Err(); err != nil {
		return ledger.JournalPage{}, err
	}
	if s == nil || s.sqlDB == nil {
		return ledger.JournalPage{}, fmt.Errorf("storage is not configured")
	}
	if pageSize <= 0 {
		return ledger.JournalPage{}, fmt.Errorf("page size must be greater than zero")
	}
	after, err := pagination.ParseSequenceToken(pageToken)
	if err != nil {
		return ledger.JournalPage{}, apperrors.WithMetadata(apperrors.CodeInvalidArgument, err.Error(), map[string]string{"field": "page_token"})
	}
	cond, err := filter.ParseJournalFilter(filterExpr)
	if err != nil {
		return ledger.JournalPage{}, ErrInvalidFilter.With(err.Error(), "filter", filterExpr)
	}

	query := `SELECT seq, invocation_id, kind, mint, source, destination, authority, amount, at
		FROM journal WHERE seq > ?`
	params := []any{after}
	if cond.Clause != "" {
		query += " AND " + cond.Clause
		params = append(params, cond.Params...)
	}
	query += " ORDER BY seq LIMIT ?"
	params = append(params, pageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return ledger.JournalPage{}, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	var page ledger.JournalPage
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return ledger.JournalPage{}, err
		}
		page.Entries = append(page.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return ledger.JournalPage{}, fmt.Errorf("list journal: %w", err)
	}
	if len(page.Entries) > pageSize {
		page.Entries = page.Entries[:pageSize]
		page.NextPageToken = pagination.SequenceToken(page.Entries[pageSize-1].Seq)
	}
	return page, nil
}

func scanEntry(rows *sql.Rows) (ledger.Entry, error) {
	var entry ledger.Entry
	var kind, mint, source, destination, authority string
	var amount, at int64
	if err := rows.Scan(&entry.Seq, &entry.InvocationID, &kind, &mint, &source, &destination, &authority, &amount, &at); err != nil {
		return ledger.Entry{}, fmt.Errorf("scan journal entry: %w", err)
	}
	keys := []struct {
		dst *solana.PublicKey
		raw string
	}{
		{&entry.Mint, mint},
		{&entry.Source, source},
		{&entry.Destination, destination},
		{&entry.Authority, authority},
	}
	for _, k := range keys {
		key, err := parseKey(k.raw)
		if err != nil {
			return ledger.Entry{}, err
		}
		*k.dst = key
	}
	entry.Kind = ledger.EntryKind(kind)
	entry.Amount = uint64(amount)
	entry.At = fromMillis(at)
	return entry, nil
}

func isBusy(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3lib.SQLITE_BUSY
	}
	return false
}

// keyText renders zero keys as the empty string.
func keyText(key solana.PublicKey) string {
	if key.IsZero() {
		return ""
	}
	return key.String()
}

func parseKey(raw string) (solana.PublicKey, error) {
	if raw == "" {
		return solana.PublicKey{}, nil
	}
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		return solana.PublicKey{}, apperrors.Wrap(apperrors.CodeRecordCorrupt, fmt.Sprintf("stored address %q", raw), err)
	}
	return key, nil
}
