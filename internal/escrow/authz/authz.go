// Package authz decides whether a user may trade an asset. The escrow core
// only calls an Oracle; the lookups behind it live outside the core.
package authz

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	apperrors "github.com/louisbranch/auctionhouse/internal/platform/errors"
)

// ErrAccessDenied indicates the oracle refused the user for the asset.
var ErrAccessDenied = apperrors.New(apperrors.CodeAssetAccessDenied, "asset access denied")

// Oracle reports whether user may trade asset.
type Oracle interface {
	Check(ctx context.Context, user, asset solana.PublicKey) (bool, error)
}

// OracleFunc adapts a function to Oracle.
type OracleFunc func(ctx context.Context, user, asset solana.PublicKey) (bool, error)

// Check calls f.
func (f OracleFunc) Check(ctx context.Context, user, asset solana.PublicKey) (bool, error) {
	return f(ctx, user, asset)
}

// Require returns ErrAccessDenied unless oracle allows user to trade asset.
// A nil oracle allows everything.
func Require(ctx context.Context, oracle Oracle, user, asset solana.PublicKey) error {
	if oracle == nil {
		return nil
	}
	ok, err := oracle.Check(ctx, user, asset)
	if err != nil {
		return fmt.Errorf("check access to %s: %w", asset, err)
	}
	if !ok {
		return ErrAccessDenied.With(
			fmt.Sprintf("%s may not trade %s", user, asset),
			"user", user.String(),
			"asset", asset.String(),
		)
	}
	return nil
}

// Allowlist allows any user to trade the listed assets. An empty list
// allows every asset.
type Allowlist struct {
	assets map[solana.PublicKey]struct{}
}

// NewAllowlist builds an allowlist from assets.
func NewAllowlist(assets ...solana.PublicKey) *Allowlist {
	set := make(map[solana.PublicKey]struct{}, len(assets))
	for _, asset := range assets {
		set[asset] = struct{}{}
	}
	return &Allowlist{assets: set}
}

// ParseAllowlist builds an allowlist from base58 asset addresses.
func ParseAllowlist(values []string) (*Allowlist, error) {
	assets := make([]solana.PublicKey, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		asset, err := solana.PublicKeyFromBase58(value)
		if err != nil {
			return nil, fmt.Errorf("parse allowed asset %q: %w", value, err)
		}
		assets = append(assets, asset)
	}
	return NewAllowlist(assets...), nil
}

// Check implements Oracle.
func (a *Allowlist) Check(ctx context.Context, _ solana.PublicKey, asset solana.PublicKey) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if len(a.assets) == 0 {
		return true, nil
	}
	_, ok := a.assets[asset]
	return ok, nil
}
