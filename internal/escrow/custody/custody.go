package custody

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger"
	"github.com/louisbranch/auctionhouse/internal/escrow/program"
)

// Deposit opens escrow as a custodian-owned holding of mint and moves
// amount units from source into it. authority must own source. escrow must
// be a program-derived address so that no caller holding is ever taken into
// custody; an existing holding at escrow fails with ledger.ErrAlreadyExists.
func Deposit(tx ledger.Tx, escrow, mint, source, authority solana.PublicKey, custodian *Custodian, amount uint64) error {
	if custodian == nil {
		return fmt.Errorf("custodian is required")
	}
	if !program.IsDerived(escrow) {
		return fmt.Errorf("escrow %s is not a program-derived address", escrow)
	}
	if _, err := tx.OpenHolding(escrow, mint, custodian.Address()); err != nil {
		return fmt.Errorf("open escrow %s: %w", escrow, err)
	}
	if err := tx.Transfer(source, escrow, authority, amount); err != nil {
		return fmt.Errorf("deposit into %s: %w", escrow, err)
	}
	return nil
}

// Release moves amount units out of a custodian-owned holding.
func Release(tx ledger.Tx, temp, destination solana.PublicKey, custodian *Custodian, amount uint64) error {
	if custodian == nil {
		return fmt.Errorf("custodian is required")
	}
	if err := tx.Transfer(temp, destination, custodian.Address(), amount); err != nil {
		return fmt.Errorf("release %s: %w", temp, err)
	}
	return nil
}

// CloseHolding closes an empty custodian-owned holding.
func CloseHolding(tx ledger.Tx, temp, destination solana.PublicKey, custodian *Custodian) error {
	if custodian == nil {
		return fmt.Errorf("custodian is required")
	}
	if err := tx.CloseHolding(temp, destination, custodian.Address()); err != nil {
		return fmt.Errorf("close %s: %w", temp, err)
	}
	return nil
}

// ReleaseAll empties a custodian-owned holding into destination and closes
// it, returning the amount moved.
func ReleaseAll(tx ledger.Tx, temp, destination, closeTo solana.PublicKey, custodian *Custodian) (uint64, error) {
	holding, err := tx.Holding(temp)
	if err != nil {
		return 0, err
	}
	if err := Release(tx, temp, destination, custodian, holding.Amount); err != nil {
		return 0, err
	}
	if err := CloseHolding(tx, temp, closeTo, custodian); err != nil {
		return 0, err
	}
	return holding.Amount, nil
}
