package custody

import (
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/auctionhouse/internal/escrow/ledger"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger/ledgertest"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger/memledger"
	"github.com/louisbranch/auctionhouse/internal/escrow/program"
)

func TestNewCustodianIsShared(t *testing.T) {
	t.Parallel()

	a, err := NewCustodian(program.DefaultID)
	if err != nil {
		t.Fatalf("new custodian: %v", err)
	}
	b, err := NewCustodian(program.DefaultID)
	if err != nil {
		t.Fatalf("new custodian: %v", err)
	}
	if !a.Address().Equals(b.Address()) || a.Bump() != b.Bump() {
		t.Fatalf("custodian derivation differs: %s/%d vs %s/%d", a.Address(), a.Bump(), b.Address(), b.Bump())
	}
}

func TestDepositReleaseClose(t *testing.T) {
	t.Parallel()

	l := memledger.New(nil)
	fx := ledgertest.New(t, l)
	custodian, err := NewCustodian(program.DefaultID)
	if err != nil {
		t.Fatalf("new custodian: %v", err)
	}
	owner := ledgertest.NewKey(t)
	usd := fx.Currency(2)
	source := fx.Fund(usd, owner, 500)
	escrow, err := program.BidEscrowAddress(program.DefaultID, usd, owner)
	if err != nil {
		t.Fatalf("bid escrow address: %v", err)
	}

	if err := l.Execute(context.Background(), func(tx ledger.Tx) error {
		return Deposit(tx, escrow, usd, source, owner, custodian, 300)
	}); err != nil {
		t.Fatalf("deposit: %v", err)
	}
	escrowed := fx.Get(escrow)
	if !custodian.Holds(escrowed) {
		t.Fatalf("escrow owner = %s, want custodian %s", escrowed.Owner, custodian.Address())
	}
	if escrowed.Amount != 300 {
		t.Fatalf("escrowed = %d, want 300", escrowed.Amount)
	}

	// The depositor no longer controls the escrowed funds.
	err = l.Execute(context.Background(), func(tx ledger.Tx) error {
		return tx.Transfer(escrow, source, owner, 1)
	})
	if !errors.Is(err, ledger.ErrOwnerMismatch) {
		t.Fatalf("owner withdrawal = %v, want owner mismatch", err)
	}

	var moved uint64
	if err := l.Execute(context.Background(), func(tx ledger.Tx) error {
		var err error
		moved, err = ReleaseAll(tx, escrow, source, owner, custodian)
		return err
	}); err != nil {
		t.Fatalf("release all: %v", err)
	}
	if moved != 300 {
		t.Fatalf("moved = %d, want 300", moved)
	}
	if fx.Exists(escrow) {
		t.Fatal("expected escrow holding closed")
	}
	if got := fx.Balance(source); got != 500 {
		t.Fatalf("source balance = %d, want 500", got)
	}
}

func TestDepositRefusesCallerHoldings(t *testing.T) {
	t.Parallel()

	l := memledger.New(nil)
	fx := ledgertest.New(t, l)
	custodian, err := NewCustodian(program.DefaultID)
	if err != nil {
		t.Fatalf("new custodian: %v", err)
	}
	owner := ledgertest.NewKey(t)
	usd := fx.Currency(2)
	source := fx.Fund(usd, owner, 10)
	own := fx.Holding(usd, owner)

	err = l.Execute(context.Background(), func(tx ledger.Tx) error {
		return Deposit(tx, own, usd, source, owner, custodian, 10)
	})
	if err == nil {
		t.Fatal("expected a caller holding to be refused as escrow")
	}
	if got := fx.Get(own); got.Amount != 0 || !got.Owner.Equals(owner) {
		t.Fatalf("caller holding = %+v, want untouched", got)
	}
	if got := fx.Balance(source); got != 10 {
		t.Fatalf("source balance = %d, want 10", got)
	}
}

func TestDepositRequiresSourceOwnership(t *testing.T) {
	t.Parallel()

	l := memledger.New(nil)
	fx := ledgertest.New(t, l)
	custodian, err := NewCustodian(program.DefaultID)
	if err != nil {
		t.Fatalf("new custodian: %v", err)
	}
	owner := ledgertest.NewKey(t)
	stranger := ledgertest.NewKey(t)
	usd := fx.Currency(2)
	source := fx.Fund(usd, owner, 10)
	escrow, err := program.BidEscrowAddress(program.DefaultID, usd, stranger)
	if err != nil {
		t.Fatalf("bid escrow address: %v", err)
	}

	err = l.Execute(context.Background(), func(tx ledger.Tx) error {
		return Deposit(tx, escrow, usd, source, stranger, custodian, 10)
	})
	if !errors.Is(err, ledger.ErrOwnerMismatch) {
		t.Fatalf("deposit from foreign source = %v, want owner mismatch", err)
	}
	if fx.Exists(escrow) {
		t.Fatal("expected failed deposit to leave no escrow holding")
	}
	if got := fx.Balance(source); got != 10 {
		t.Fatalf("source balance = %d, want 10", got)
	}
}
