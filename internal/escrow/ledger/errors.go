package ledger

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	apperrors "github.com/louisbranch/auctionhouse/internal/platform/errors"
)

var (
	// ErrNotFound indicates a missing mint, holding or record.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "ledger entry not found")
	// ErrAlreadyExists indicates an address is already in use.
	ErrAlreadyExists = apperrors.New(apperrors.CodeAlreadyExists, "ledger entry already exists")
	// ErrInsufficientFunds indicates a holding balance below the transfer amount.
	ErrInsufficientFunds = apperrors.New(apperrors.CodeInsufficientFunds, "insufficient funds")
	// ErrMintMismatch indicates holdings of different mints.
	ErrMintMismatch = apperrors.New(apperrors.CodeMintMismatch, "mint mismatch")
	// ErrOwnerMismatch indicates the authority does not own the holding.
	ErrOwnerMismatch = apperrors.New(apperrors.CodeHoldingOwnerMismatch, "authority does not own holding")
	// ErrMintAuthority indicates the authority may not issue units of the mint.
	ErrMintAuthority = apperrors.New(apperrors.CodeMintUnauthorized, "authority may not mint")
	// ErrHoldingNotEmpty indicates a close of a holding with a balance.
	ErrHoldingNotEmpty = apperrors.New(apperrors.CodeHoldingNotEmpty, "holding balance is not zero")
	// ErrOverflow indicates a balance or supply would exceed 64 bits.
	ErrOverflow = apperrors.New(apperrors.CodeArithmeticOverflow, "amount overflow")
	// ErrInvalidAddress indicates a zero address where one is required.
	ErrInvalidAddress = apperrors.New(apperrors.CodeInvalidArgument, "address is required")
)

// IsNotFound reports whether err is a missing ledger entry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func notFound(kind string, address solana.PublicKey) error {
	return ErrNotFound.With(fmt.Sprintf("%s %s not found", kind, address), "kind", kind, "address", address.String())
}

func alreadyExists(kind string, address solana.PublicKey) error {
	return ErrAlreadyExists.With(fmt.Sprintf("%s %s already exists", kind, address), "kind", kind, "address", address.String())
}

func requireAddress(field string, address solana.PublicKey) error {
	if address.IsZero() {
		return ErrInvalidAddress.With(field+" is required", "field", field)
	}
	return nil
}
