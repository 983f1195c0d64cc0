// Package settlement manages royalty configurations and settles direct
// sales, paying royalty recipients before the seller.
package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/louisbranch/auctionhouse/internal/escrow/authz"
	"github.com/louisbranch/auctionhouse/internal/escrow/custody"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger"
	"github.com/louisbranch/auctionhouse/internal/escrow/program"
	"github.com/louisbranch/auctionhouse/internal/escrow/royalty"
)

// Executor runs settlement operations against a ledger.
type Executor struct {
	ledger    ledger.Ledger
	programID solana.PublicKey
	custodian *custody.Custodian
	oracle    authz.Oracle
}

// NewExecutor creates an executor. Payouts never go to holdings under the
// custodian. A nil oracle allows every sale.
func NewExecutor(l ledger.Ledger, programID solana.PublicKey, custodian *custody.Custodian, oracle authz.Oracle) (*Executor, error) {
	if l == nil {
		return nil, errors.New("ledger is required")
	}
	if programID.IsZero() {
		return nil, errors.New("program id is required")
	}
	if custodian == nil {
		return nil, errors.New("custodian is required")
	}
	return &Executor{ledger: l, programID: programID, custodian: custodian, oracle: oracle}, nil
}

// ConfigResult is the outcome of a royalty configuration change.
type ConfigResult struct {
	InvocationID string
	Address      solana.PublicKey
	Config       royalty.Config
}

// CreateConfigRequest creates the royalty configuration of an asset.
type CreateConfigRequest struct {
	Authority solana.PublicKey
	AssetMint solana.PublicKey
	// AuthorityHolding proves the authority holds the asset.
	AuthorityHolding solana.PublicKey
	TotalBasisPoints uint16
	Recipients       []royalty.Recipient
	IsMutable        bool
}

// CreateConfig stores a new royalty configuration for an asset mint.
func (e *Executor) CreateConfig(ctx context.Context, req CreateConfigRequest) (ConfigResult, error) {
	var out ConfigResult
	err := e.ledger.Execute(ctx, func(tx ledger.Tx) error {
		if _, err := tx.Mint(req.AssetMint); err != nil {
			return err
		}
		if err := checkAuthorityHolding(tx, req.AuthorityHolding, req.Authority, req.AssetMint); err != nil {
			return err
		}
		address, bump, err := program.RoyaltyConfigAddress(e.programID, req.AssetMint)
		if err != nil {
			return err
		}
		if _, err := tx.Record(address); err == nil {
			return ledger.ErrAlreadyExists.With(
				fmt.Sprintf("royalty config for %s already exists", req.AssetMint),
				"kind", "royalty config",
			)
		} else if !ledger.IsNotFound(err) {
			return err
		}
		cfg := royalty.Config{
			Mint:             req.AssetMint,
			TotalBasisPoints: req.TotalBasisPoints,
			Recipients:       append([]royalty.Recipient(nil), req.Recipients...),
			Authority:        req.Authority,
			IsMutable:        req.IsMutable,
			Bump:             bump,
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := saveConfig(tx, address, cfg); err != nil {
			return err
		}
		out = ConfigResult{InvocationID: tx.InvocationID(), Address: address, Config: cfg}
		return nil
	})
	return out, err
}

// UpdateConfigRequest replaces the recipients of a mutable configuration.
type UpdateConfigRequest struct {
	Authority        solana.PublicKey
	AssetMint        solana.PublicKey
	AuthorityHolding solana.PublicKey
	TotalBasisPoints uint16
	Recipients       []royalty.Recipient
}

// UpdateConfig replaces the total and the whole recipient list.
func (e *Executor) UpdateConfig(ctx context.Context, req UpdateConfigRequest) (ConfigResult, error) {
	var out ConfigResult
	err := e.ledger.Execute(ctx, func(tx ledger.Tx) error {
		address, cfg, err := e.loadConfig(tx, req.AssetMint)
		if err != nil {
			return err
		}
		if !cfg.Authority.Equals(req.Authority) {
			return ErrUnauthorizedUpdate.With(fmt.Sprintf("%s is not the authority of %s", req.Authority, address))
		}
		if err := checkAuthorityHolding(tx, req.AuthorityHolding, req.Authority, req.AssetMint); err != nil {
			return err
		}
		if !cfg.IsMutable {
			return ErrConfigImmutable.With(fmt.Sprintf("royalty config %s is immutable", address))
		}
		cfg.TotalBasisPoints = req.TotalBasisPoints
		cfg.Recipients = append([]royalty.Recipient(nil), req.Recipients...)
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := saveConfig(tx, address, cfg); err != nil {
			return err
		}
		out = ConfigResult{InvocationID: tx.InvocationID(), Address: address, Config: cfg}
		return nil
	})
	return out, err
}

// Config returns the royalty configuration of an asset mint.
func (e *Executor) Config(ctx context.Context, assetMint solana.PublicKey) (solana.PublicKey, royalty.Config, error) {
	var (
		address solana.PublicKey
		cfg     royalty.Config
	)
	err := e.ledger.Execute(ctx, func(tx ledger.Tx) error {
		var err error
		address, cfg, err = e.loadConfig(tx, assetMint)
		return err
	})
	return address, cfg, err
}

func (e *Executor) loadConfig(tx ledger.Tx, assetMint solana.PublicKey) (solana.PublicKey, royalty.Config, error) {
	address, _, err := program.RoyaltyConfigAddress(e.programID, assetMint)
	if err != nil {
		return solana.PublicKey{}, royalty.Config{}, err
	}
	data, err := tx.Record(address)
	if err != nil {
		if ledger.IsNotFound(err) {
			return address, royalty.Config{}, ledger.ErrNotFound.With(
				fmt.Sprintf("no royalty config for %s", assetMint),
				"kind", "royalty config",
			)
		}
		return solana.PublicKey{}, royalty.Config{}, err
	}
	cfg, err := royalty.DecodeConfig(data)
	if err != nil {
		return solana.PublicKey{}, royalty.Config{}, err
	}
	if !cfg.Mint.Equals(assetMint) {
		return solana.PublicKey{}, royalty.Config{}, royalty.ErrInvalidConfig.With(
			fmt.Sprintf("royalty config %s is for mint %s", address, cfg.Mint),
		)
	}
	return address, cfg, nil
}

func saveConfig(tx ledger.Tx, address solana.PublicKey, cfg royalty.Config) error {
	data, err := cfg.Encode()
	if err != nil {
		return err
	}
	return tx.PutRecord(address, data)
}

func checkAuthorityHolding(tx ledger.Tx, address, authority, assetMint solana.PublicKey) error {
	holding, err := tx.Holding(address)
	if err != nil {
		return err
	}
	if !holding.Owner.Equals(authority) || !holding.Mint.Equals(assetMint) || holding.Amount == 0 {
		return ErrHoldingInvalid.With(
			fmt.Sprintf("holding %s does not show %s holding %s", address, authority, assetMint),
			"holding", address.String(),
		)
	}
	return nil
}
