// Package ledgertest builds mints and holdings for tests.
package ledgertest

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger"
)

// NewKey returns a fresh random identity.
func NewKey(t testing.TB) solana.PublicKey {
	t.Helper()

	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	return key.PublicKey()
}

// Fixture issues units on a ledger using a single mint authority.
type Fixture struct {
	t         testing.TB
	ledger    ledger.Ledger
	Authority solana.PublicKey
}

// New returns a fixture bound to l.
func New(t testing.TB, l ledger.Ledger) *Fixture {
	t.Helper()
	return &Fixture{t: t, ledger: l, Authority: NewKey(t)}
}

func (f *Fixture) exec(fn func(ledger.Tx) error) {
	f.t.Helper()
	if err := f.ledger.Execute(context.Background(), fn); err != nil {
		f.t.Fatalf("ledger fixture: %v", err)
	}
}

// Currency creates a fungible mint.
func (f *Fixture) Currency(decimals uint8) solana.PublicKey {
	f.t.Helper()

	mint := NewKey(f.t)
	f.exec(func(tx ledger.Tx) error {
		return tx.CreateMint(ledger.Mint{Address: mint, Authority: f.Authority, Decimals: decimals})
	})
	return mint
}

// Holding opens an empty holding of mint owned by owner.
func (f *Fixture) Holding(mint, owner solana.PublicKey) solana.PublicKey {
	f.t.Helper()

	address := NewKey(f.t)
	f.exec(func(tx ledger.Tx) error {
		_, err := tx.OpenHolding(address, mint, owner)
		return err
	})
	return address
}

// Fund opens a holding of mint owned by owner with amount units.
func (f *Fixture) Fund(mint, owner solana.PublicKey, amount uint64) solana.PublicKey {
	f.t.Helper()

	address := f.Holding(mint, owner)
	if amount > 0 {
		f.exec(func(tx ledger.Tx) error {
			return tx.MintTo(mint, address, f.Authority, amount)
		})
	}
	return address
}

// Asset creates a one-of-one mint and returns it with the owner's holding.
func (f *Fixture) Asset(owner solana.PublicKey) (mint, holding solana.PublicKey) {
	f.t.Helper()

	mint = f.Currency(0)
	holding = f.Fund(mint, owner, 1)
	return mint, holding
}

// Get returns the current state of a holding, failing when missing.
func (f *Fixture) Get(address solana.PublicKey) ledger.Holding {
	f.t.Helper()

	var out ledger.Holding
	f.exec(func(tx ledger.Tx) error {
		var err error
		out, err = tx.Holding(address)
		return err
	})
	return out
}

// Balance returns the amount in a holding.
func (f *Fixture) Balance(address solana.PublicKey) uint64 {
	f.t.Helper()
	return f.Get(address).Amount
}

// Exists reports whether a holding is open.
func (f *Fixture) Exists(address solana.PublicKey) bool {
	f.t.Helper()

	exists := true
	err := f.ledger.Execute(context.Background(), func(tx ledger.Tx) error {
		_, err := tx.Holding(address)
		return err
	})
	if err != nil {
		if !ledger.IsNotFound(err) {
			f.t.Fatalf("ledger fixture: %v", err)
		}
		exists = false
	}
	return exists
}
