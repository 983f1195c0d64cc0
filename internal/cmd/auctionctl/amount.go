package auctionctl

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// formatAmount renders base units with the mint's decimals.
func formatAmount(amount uint64, decimals uint8) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(amount), -int32(decimals)).StringFixed(int32(decimals))
}

// parseAmount converts a decimal string into base units of a mint with the
// given decimals. More fractional digits than the mint carries is an error.
func parseAmount(value string, decimals uint8) (uint64, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", value, err)
	}
	units := d.Shift(int32(decimals))
	if !units.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", value, decimals)
	}
	if units.IsNegative() {
		return 0, fmt.Errorf("amount %s is negative", value)
	}
	n := units.BigInt()
	if !n.IsUint64() {
		return 0, fmt.Errorf("amount %s is too large", value)
	}
	return n.Uint64(), nil
}
