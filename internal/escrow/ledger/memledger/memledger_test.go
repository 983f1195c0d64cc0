package memledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger/ledgertest"
)

func TestExecuteDiscardsWritesOnFailure(t *testing.T) {
	t.Parallel()

	l := New(nil)
	fx := ledgertest.New(t, l)
	owner := ledgertest.NewKey(t)
	other := ledgertest.NewKey(t)
	usd := fx.Currency(2)
	from := fx.Fund(usd, owner, 100)
	to := fx.Holding(usd, other)

	boom := errors.New("boom")
	err := l.Execute(context.Background(), func(tx ledger.Tx) error {
		if err := tx.Transfer(from, to, owner, 60); err != nil {
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
}

func TestTransferRules(t *testing.T) {
	t.Parallel()

	l := New(nil)
	fx := ledgertest.New(t, l)
	owner := ledgertest.NewKey(t)
	usd := fx.Currency(2)
	eur := fx.Currency(2)
	from := fx.Fund(usd, owner, 100)
	sameMint := fx.Holding(usd, owner)
	otherMint := fx.Holding(eur, owner)

	tests := []struct {
		name        string
		destination solana.PublicKey
		authority   solana.PublicKey
		amount      uint64
		want        error
	}{
		{name: "wrong authority", destination: sameMint, authority: ledgertest.NewKey(t), amount: 1, want: ledger.ErrOwnerMismatch},
		{name: "mint mismatch", destination: otherMint, authority: owner, amount: 1, want: ledger.ErrMintMismatch},
		{name: "insufficient", destination: sameMint, authority: owner, amount: 101, want: ledger.ErrInsufficientFunds},
		{name: "missing destination", destination: ledgertest.NewKey(t), authority: owner, amount: 1, want: ledger.ErrNotFound},
	}
	for _, tc := range tests {
		err := l.Execute(context.Background(), func(tx ledger.Tx) error {
			return tx.Transfer(from, tc.destination, tc.authority, tc.amount)
		})
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: error = %v, want %v", tc.name, err, tc.want)
		}
	}

	if err := l.Execute(context.Background(), func(tx ledger.Tx) error {
		return tx.Transfer(from, sameMint, owner, 100)
	}); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := fx.Balance(sameMint); got != 100 {
		t.Fatalf("destination balance = %d, want 100", got)
	}
}

func TestSetOwnerAndCloseHolding(t *testing.T) {
	t.Parallel()

	l := New(nil)
	fx := ledgertest.New(t, l)
	owner := ledgertest.NewKey(t)
	custodian := ledgertest.NewKey(t)
	usd := fx.Currency(2)
	temp := fx.Fund(usd, owner, 5)
	back := fx.Holding(usd, owner)

	err := l.Execute(context.Background(), func(tx ledger.Tx) error {
		return tx.SetOwner(temp, custodian, owner)
	})
	if !errors.Is(err, ledger.ErrOwnerMismatch) {
		t.Fatalf("set owner by non-owner = %v, want owner mismatch", err)
	}

	if err := l.Execute(context.Background(), func(tx ledger.Tx) error {
		return tx.SetOwner(temp, owner, custodian)
	}); err != nil {
		t.Fatalf("set owner: %v", err)
	}

	err = l.Execute(context.Background(), func(tx ledger.Tx) error {
		return tx.CloseHolding(temp, owner, custodian)
	})
	if !errors.Is(err, ledger.ErrHoldingNotEmpty) {
		t.Fatalf("close non-empty = %v, want not empty", err)
	}

	if err := l.Execute(context.Background(), func(tx ledger.Tx) error {
		if err := tx.Transfer(temp, back, custodian, 5); err != nil {
			return err
		}
		return tx.CloseHolding(temp, owner, custodian)
	}); err != nil {
		t.Fatalf("drain and close: %v", err)
	}
	if fx.Exists(temp) {
		t.Fatal("expected temp holding to be closed")
	}
	if got := fx.Balance(back); got != 5 {
		t.Fatalf("returned balance = %d, want 5", got)
	}
}

func TestMintToRequiresAuthorityAndChecksOverflow(t *testing.T) {
	t.Parallel()

	l := New(nil)
	fx := ledgertest.New(t, l)
	owner := ledgertest.NewKey(t)
	usd := fx.Currency(0)
	h := fx.Fund(usd, owner, ^uint64(0))

	err := l.Execute(context.Background(), func(tx ledger.Tx) error {
		return tx.MintTo(usd, h, owner, 1)
	})
	if !errors.Is(err, ledger.ErrMintAuthority) {
		t.Fatalf("mint by non-authority = %v, want mint authority error", err)
	}
	err = l.Execute(context.Background(), func(tx ledger.Tx) error {
		return tx.MintTo(usd, h, fx.Authority, 1)
	})
	if !errors.Is(err, ledger.ErrOverflow) {
		t.Fatalf("mint overflow = %v, want overflow", err)
	}
}

func TestNowComesFromClock(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(start)
	l := New(clock)

	var seen time.Time
	if err := l.Execute(context.Background(), func(tx ledger.Tx) error {
		seen = tx.Now()
		return nil
	}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !seen.Equal(start) {
		t.Fatalf("now = %v, want %v", seen, start)
	}

	clock.Advance(time.Hour)
	if err := l.Execute(context.Background(), func(tx ledger.Tx) error {
		seen = tx.Now()
		return nil
	}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !seen.Equal(start.Add(time.Hour)) {
		t.Fatalf("now = %v, want %v", seen, start.Add(time.Hour))
	}
}

func TestRecordsScanByPrefixInAddressOrder(t *testing.T) {
	t.Parallel()

	l := New(nil)
	keys := []solana.PublicKey{ledgertest.NewKey(t), ledgertest.NewKey(t), ledgertest.NewKey(t)}
	if err := l.Execute(context.Background(), func(tx ledger.Tx) error {
		for _, key := range keys {
			if err := tx.PutRecord(key, []byte("AAAA-data")); err != nil {
				return err
			}
		}
		return tx.PutRecord(ledgertest.NewKey(t), []byte("BBBB-data"))
	}); err != nil {
		t.Fatalf("put records: %v", err)
	}

	var first, rest []ledger.Record
	if err := l.Execute(context.Background(), func(tx ledger.Tx) error {
		var err error
		first, err = tx.Records([]byte("AAAA"), solana.PublicKey{}, 2)
		if err != nil {
			return err
		}
		rest, err = tx.Records([]byte("AAAA"), first[len(first)-1].Address, 10)
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
}

func TestJournalPaging(t *testing.T) {
	t.Parallel()

	l := New(nil)
	fx := ledgertest.New(t, l)
	owner := ledgertest.NewKey(t)
	usd := fx.Currency(2)
	fx.Fund(usd, owner, 10)

	// create_mint, open_holding, mint_to
	entries := l.Entries()
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[2].Kind != ledger.EntryMintTo || entries[2].Amount != 10 {
		t.Fatalf("last entry = %+v", entries[2])
	}
	if entries[1].InvocationID == entries[2].InvocationID {
		t.Fatal("expected distinct invocation ids per Execute")
	}

	page, err := l.ListJournal(context.Background(), 2, "", "")
	if err != nil {
		t.Fatalf("list journal: %v", err)
	}
	if len(page.Entries) != 2 || page.NextPageToken == "" {
		t.Fatalf("first page = %d entries, token %q", len(page.Entries), page.NextPageToken)
	}
	page, err = l.ListJournal(context.Background(), 2, page.NextPageToken, "")
	if err != nil {
		t.Fatalf("list journal: %v", err)
	}
	if len(page.Entries) != 1 || page.NextPageToken != "" {
		t.Fatalf("second page = %d entries, token %q", len(page.Entries), page.NextPageToken)
	}
	if _, err := l.ListJournal(context.Background(), 2, "", `kind = "transfer"`); err == nil {
		t.Fatal("expected filter rejection")
	}
}
