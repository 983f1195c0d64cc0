package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger/ledgertest"
	apperrors "github.com/louisbranch/auctionhouse/internal/platform/errors"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestExecuteRollsBackOnFailure(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	fx := ledgertest.New(t, store)
	owner := ledgertest.NewKey(t)
	usd := fx.Currency(2)
	from := fx.Fund(usd, owner, 100)
	to := fx.Holding(usd, ledgertest.NewKey(t))

	boom := errors.New("boom")
	err := store.Execute(context.Background(), func(tx ledger.Tx) error {
		if err := tx.Transfer(from, to, owner, 60); err != nil {
			return err
		}
		if err := tx.PutRecord(ledgertest.NewKey(t), []byte("data")); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("execute error = %v, want boom", err)
	}
	if got := fx.Balance(from); got != 100 {
		t.Fatalf("source balance = %d, want 100", got)
	}
	if got := fx.Balance(to); got != 0 {
		t.Fatalf("destination balance = %d, want 0", got)
	}
	page, err := store.ListJournal(context.Background(), 100, "", `kind = "transfer"`)
	if err != nil {
		t.Fatalf("list journal: %v", err)
	}
	if len(page.Entries) != 0 {
		t.Fatalf("transfer entries = %d, want 0", len(page.Entries))
	}
}

func TestLedgerRulesApply(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	fx := ledgertest.New(t, store)
	owner := ledgertest.NewKey(t)
	usd := fx.Currency(2)
	eur := fx.Currency(2)
	from := fx.Fund(usd, owner, 10)
	other := fx.Holding(eur, owner)

	err := store.Execute(context.Background(), func(tx ledger.Tx) error {
		return tx.Transfer(from, other, owner, 1)
	})
	if !errors.Is(err, ledger.ErrMintMismatch) {
		t.Fatalf("transfer across mints = %v, want mint mismatch", err)
	}
	err = store.Execute(context.Background(), func(tx ledger.Tx) error {
		_, err := tx.OpenHolding(from, usd, owner)
		return err
	})
	if !errors.Is(err, ledger.ErrAlreadyExists) {
		t.Fatalf("reopen holding = %v, want already exists", err)
	}
}

func TestStatePersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	fx := ledgertest.New(t, store)
	owner := ledgertest.NewKey(t)
	mint := fx.Currency(0)
	full := ^uint64(0)
	holding := fx.Fund(mint, owner, full)
	record := ledgertest.NewKey(t)
	if err := store.Execute(context.Background(), func(tx ledger.Tx) error {
		return tx.PutRecord(record, []byte{0, 1, 2})
	}); err != nil {
		t.Fatalf("put record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() {
		if err := reopened.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	fx = ledgertest.New(t, reopened)
	got := fx.Get(holding)
	if got.Amount != full || !got.Owner.Equals(owner) || !got.Mint.Equals(mint) {
		t.Fatalf("holding = %+v, want %d of %s owned by %s", got, full, mint, owner)
	}
	var data []byte
	var supply uint64
	if err := reopened.Execute(context.Background(), func(tx ledger.Tx) error {
		m, err := tx.Mint(mint)
		if err != nil {
			return err
		}
		supply = m.Supply
		data, err = tx.Record(record)
		return err
	}); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if supply != full {
		t.Fatalf("supply = %d, want %d", supply, full)
	}
	if string(data) != string([]byte{0, 1, 2}) {
		t.Fatalf("record = %v, want [0 1 2]", data)
	}
}

func TestCloseHoldingDeletesRow(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	fx := ledgertest.New(t, store)
	owner := ledgertest.NewKey(t)
	usd := fx.Currency(2)
	temp := fx.Holding(usd, owner)

	if err := store.Execute(context.Background(), func(tx ledger.Tx) error {
		return tx.CloseHolding(temp, owner, owner)
	}); err != nil {
		t.Fatalf("close holding: %v", err)
	}
	if fx.Exists(temp) {
		t.Fatal("expected holding to be gone")
	}
}

func TestRecordsScanByPrefixInAddressOrder(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if err := store.Execute(context.Background(), func(tx ledger.Tx) error {
		for i := 0; i < 3; i++ {
			if err := tx.PutRecord(ledgertest.NewKey(t), []byte("AAAA-data")); err != nil {
				return err
			}
		}
		return tx.PutRecord(ledgertest.NewKey(t), []byte("BBBB-data"))
	}); err != nil {
		t.Fatalf("put records: %v", err)
	}

	var first, rest, all []ledger.Record
	if err := store.Execute(context.Background(), func(tx ledger.Tx) error {
		var err error
		if first, err = tx.Records([]byte("AAAA"), solana.PublicKey{}, 2); err != nil {
			return err
		}
		if rest, err = tx.Records([]byte("AAAA"), first[len(first)-1].Address, 10); err != nil {
			return err
		}
		all, err = tx.Records(nil, solana.PublicKey{}, 10)
		return err
	}); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(first) != 2 || len(rest) != 1 {
		t.Fatalf("pages = %d + %d, want 2 + 1", len(first), len(rest))
	}
	if string(first[0].Address[:]) >= string(first[1].Address[:]) {
		t.Fatal("expected ascending address order")
	}
	if string(rest[0].Data) != "AAAA-data" {
		t.Fatalf("data = %q, want AAAA-data", rest[0].Data)
	}
	if len(all) != 4 {
		t.Fatalf("unfiltered scan = %d, want 4", len(all))
	}
}

func TestNowComesFromClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	store := openTempStore(t, WithClock(clock))

	var seen time.Time
	if err := store.Execute(context.Background(), func(tx ledger.Tx) error {
		seen = tx.Now()
		return nil
	}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !seen.Equal(start) {
		t.Fatalf("now = %v, want %v", seen, start)
	}
}

func TestListJournalPagesAndFilters(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	store := openTempStore(t, WithClock(clock))
	fx := ledgertest.New(t, store)
	owner := ledgertest.NewKey(t)
	usd := fx.Currency(2)
	from := fx.Fund(usd, owner, 10)
	to := fx.Holding(usd, ledgertest.NewKey(t))
	clock.Advance(time.Hour)
	if err := store.Execute(context.Background(), func(tx ledger.Tx) error {
		return tx.Transfer(from, to, owner, 7)
	}); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	// create_mint, open_holding, mint_to, open_holding, transfer
	page, err := store.ListJournal(context.Background(), 3, "", "")
	if err != nil {
		t.Fatalf("list journal: %v", err)
	}
	if len(page.Entries) != 3 || page.NextPageToken == "" {
		t.Fatalf("first page = %d entries, token %q", len(page.Entries), page.NextPageToken)
	}
	if page.Entries[0].Kind != ledger.EntryCreateMint || !page.Entries[0].Mint.Equals(usd) {
		t.Fatalf("first entry = %+v", page.Entries[0])
	}
	page, err = store.ListJournal(context.Background(), 3, page.NextPageToken, "")
	if err != nil {
		t.Fatalf("list journal: %v", err)
	}
	if len(page.Entries) != 2 || page.NextPageToken != "" {
		t.Fatalf("second page = %d entries, token %q", len(page.Entries), page.NextPageToken)
	}

	filtered, err := store.ListJournal(context.Background(), 10, "",
		`kind = "transfer" AND source = "`+from.String()+`" AND at >= timestamp("2026-03-01T12:30:00Z")`)
	if err != nil {
		t.Fatalf("filtered journal: %v", err)
	}
	if len(filtered.Entries) != 1 {
		t.Fatalf("filtered entries = %d, want 1", len(filtered.Entries))
	}
	got := filtered.Entries[0]
	if got.Amount != 7 || !got.Destination.Equals(to) || !got.Authority.Equals(owner) {
		t.Fatalf("transfer entry = %+v", got)
	}
	if !got.At.Equal(start.Add(time.Hour)) {
		t.Fatalf("at = %v, want %v", got.At, start.Add(time.Hour))
	}
	if got.InvocationID == "" || got.InvocationID == page.Entries[0].InvocationID {
		t.Fatalf("invocation id = %q, want a fresh id", got.InvocationID)
	}

	_, err = store.ListJournal(context.Background(), 10, "", `owner = "x"`)
	if !apperrors.IsCode(err, apperrors.CodeJournalInvalidFilter) {
		t.Fatalf("bad filter = %v, want %s", err, apperrors.CodeJournalInvalidFilter)
	}
	_, err = store.ListJournal(context.Background(), 10, "nope", "")
	if !apperrors.IsCode(err, apperrors.CodeInvalidArgument) {
		t.Fatalf("bad token = %v, want %s", err, apperrors.CodeInvalidArgument)
	}
}

func openTempStore(t *testing.T, opts ...Option) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "ledger.db")
	store, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
