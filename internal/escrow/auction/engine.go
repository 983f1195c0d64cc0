// Package auction runs custodial English auctions of single-unit assets.
//
// Every operation is one ledger invocation: it reads the auction record,
// validates, moves custody and writes the record back, or fails without
// effects.
package auction

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/louisbranch/auctionhouse/internal/escrow/authz"
	"github.com/louisbranch/auctionhouse/internal/escrow/custody"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger"
	"github.com/louisbranch/auctionhouse/internal/escrow/program"
)

// Engine executes auction operations against a ledger.
type Engine struct {
	ledger    ledger.Ledger
	programID solana.PublicKey
	custodian *custody.Custodian
	oracle    authz.Oracle
}

// NewEngine creates an auction engine. A nil oracle allows every asset.
func NewEngine(l ledger.Ledger, programID solana.PublicKey, custodian *custody.Custodian, oracle authz.Oracle) (*Engine, error) {
	if l == nil {
		return nil, errors.New("ledger is required")
	}
	if programID.IsZero() {
		return nil, errors.New("program id is required")
	}
	if custodian == nil {
		return nil, errors.New("custodian is required")
	}
	return &Engine{ledger: l, programID: programID, custodian: custodian, oracle: oracle}, nil
}

// Result is the outcome of a mutating auction operation.
type Result struct {
	InvocationID string
	Address      solana.PublicKey
	Auction      Auction
}

// ExhibitRequest lists an asset.
type ExhibitRequest struct {
	Exhibitor solana.PublicKey
	// AssetSource holds the single unit being listed.
	AssetSource solana.PublicKey
	// Proceeds is an exhibitor-owned holding that receives the winning
	// funds; its mint is the payment mint.
	Proceeds     solana.PublicKey
	InitialPrice uint64
	Duration     time.Duration
}

// Exhibit lists an asset. The asset unit moves into a program-derived
// escrow holding and the exhibitor stands as the sentinel highest bidder.
func (e *Engine) Exhibit(ctx context.Context, req ExhibitRequest) (Result, error) {
	seconds := int64(req.Duration / time.Second)
	if seconds <= 0 {
		return Result{}, ErrInvalidDuration.With(fmt.Sprintf("duration %s is under one second", req.Duration))
	}

	var out Result
	err := e.ledger.Execute(ctx, func(tx ledger.Tx) error {
		source, err := tx.Holding(req.AssetSource)
		if err != nil {
			return err
		}
		if !source.Owner.Equals(req.Exhibitor) {
			return ledger.ErrOwnerMismatch.With(
				fmt.Sprintf("%s does not own holding %s", req.Exhibitor, source.Address),
				"holding", source.Address.String(),
			)
		}
		if source.Amount != 1 {
			return ErrInvalidAssetAmount.With(
				fmt.Sprintf("holding %s has %d units", source.Address, source.Amount),
				"holding", source.Address.String(),
			)
		}
		if err := authz.Require(ctx, e.oracle, req.Exhibitor, source.Mint); err != nil {
			return err
		}
		proceeds, err := tx.Holding(req.Proceeds)
		if err != nil {
			return err
		}
		if !proceeds.Owner.Equals(req.Exhibitor) || e.custodian.Holds(proceeds) {
			return holdingInvalid(proceeds.Address, "proceeds must be a holding owned by the exhibitor")
		}
		if proceeds.Mint.Equals(source.Mint) {
			return holdingInvalid(proceeds.Address, "proceeds must be paid in a different mint than the asset")
		}

		address, err := program.AuctionAddress(e.programID, source.Mint)
		if err != nil {
			return err
		}
		if _, err := tx.Record(address); err == nil {
			return ledger.ErrAlreadyExists.With(fmt.Sprintf("auction %s already exists", address), "kind", "auction")
		} else if !ledger.IsNotFound(err) {
			return err
		}

		escrow, err := program.AssetEscrowAddress(e.programID, source.Mint)
		if err != nil {
			return err
		}
		if err := custody.Deposit(tx, escrow, source.Mint, req.AssetSource, req.Exhibitor, e.custodian, 1); err != nil {
			return err
		}

		a := Auction{
			Exhibitor:           req.Exhibitor,
			AssetCustody:        escrow,
			Proceeds:            req.Proceeds,
			Price:               req.InitialPrice,
			EndAt:               tx.Now().Unix() + seconds,
			HighestBidder:       req.Exhibitor,
			HighestBidderFunds:  req.Proceeds,
			HighestBidderRefund: req.Proceeds,
			AssetMint:           source.Mint,
			PaymentMint:         proceeds.Mint,
		}
		if err := e.save(tx, address, a); err != nil {
			return err
		}
		out = Result{InvocationID: tx.InvocationID(), Address: address, Auction: a}
		return nil
	})
	return out, err
}

// BidRequest places a bid built against an observed snapshot.
type BidRequest struct {
	Bidder    solana.PublicKey
	AssetMint solana.PublicKey
	// Refund is the bidder-owned payment holding the bid is drawn from and
	// refunded to when outbid. The bid itself is escrowed in a holding
	// derived from the asset and the bidder.
	Refund   solana.PublicKey
	Price    uint64
	Observed Snapshot
}

// Bid replaces the highest bid. The previous real bidder is refunded and
// the new bid moves into custody.
func (e *Engine) Bid(ctx context.Context, req BidRequest) (Result, error) {
	if req.Observed.HighestBidder.IsZero() {
		return Result{}, ErrInvalidSnapshot
	}

	var out Result
	err := e.ledger.Execute(ctx, func(tx ledger.Tx) error {
		address, a, err := e.load(tx, req.AssetMint)
		if err != nil {
			return err
		}
		if a.Price != req.Observed.Price || !a.HighestBidder.Equals(req.Observed.HighestBidder) {
			return ErrStaleSnapshot.With(
				fmt.Sprintf("auction %s is at %d by %s", address, a.Price, a.HighestBidder),
				"price", strconv.FormatUint(a.Price, 10),
			)
		}
		if err := advance(ctx, a, tx.Now(), eventBid); err != nil {
			return err
		}
		if req.Bidder.Equals(a.Exhibitor) || req.Bidder.Equals(a.HighestBidder) {
			return ErrSelfBid.With(fmt.Sprintf("%s may not bid on auction %s", req.Bidder, address))
		}
		if req.Price <= a.Price {
			return ErrBidTooLow.With(
				fmt.Sprintf("bid %d does not exceed %d", req.Price, a.Price),
				"price", strconv.FormatUint(a.Price, 10),
			)
		}
		refund, err := tx.Holding(req.Refund)
		if err != nil {
			return err
		}
		if !refund.Owner.Equals(req.Bidder) || e.custodian.Holds(refund) {
			return holdingInvalid(refund.Address, "refund must be a holding owned by the bidder")
		}
		if !refund.Mint.Equals(a.PaymentMint) {
			return ledger.ErrMintMismatch.With(
				fmt.Sprintf("holding %s is mint %s, want %s", refund.Address, refund.Mint, a.PaymentMint),
				"holding", refund.Address.String(),
			)
		}

		if a.HasBid() {
			if _, err := custody.ReleaseAll(tx, a.HighestBidderFunds, a.HighestBidderRefund, a.HighestBidder, e.custodian); err != nil {
				return fmt.Errorf("refund %s: %w", a.HighestBidder, err)
			}
		}
		funds, err := program.BidEscrowAddress(e.programID, a.AssetMint, req.Bidder)
		if err != nil {
			return err
		}
		if err := custody.Deposit(tx, funds, a.PaymentMint, req.Refund, req.Bidder, e.custodian, req.Price); err != nil {
			return err
		}

		a.Price = req.Price
		a.HighestBidder = req.Bidder
		a.HighestBidderFunds = funds
		a.HighestBidderRefund = req.Refund
		if err := e.save(tx, address, a); err != nil {
			return err
		}
		out = Result{InvocationID: tx.InvocationID(), Address: address, Auction: a}
		return nil
	})
	return out, err
}

// CancelRequest withdraws an auction without bids.
type CancelRequest struct {
	Exhibitor solana.PublicKey
	AssetMint solana.PublicKey
	// AssetDestination is an exhibitor-owned holding of the asset mint.
	AssetDestination solana.PublicKey
}

// Cancel returns the asset to the exhibitor and removes the auction.
func (e *Engine) Cancel(ctx context.Context, req CancelRequest) (Result, error) {
	var out Result
	err := e.ledger.Execute(ctx, func(tx ledger.Tx) error {
		address, a, err := e.load(tx, req.AssetMint)
		if err != nil {
			return err
		}
		if !req.Exhibitor.Equals(a.Exhibitor) {
			return ErrNotExhibitor.With(fmt.Sprintf("%s is not the exhibitor of %s", req.Exhibitor, address))
		}
		if err := advance(ctx, a, tx.Now(), eventCancel); err != nil {
			return err
		}
		if a.HasBid() {
			return ErrBidPlaced.With(fmt.Sprintf("auction %s has a bid of %d", address, a.Price))
		}
		if err := e.checkDestination(tx, req.AssetDestination, a.Exhibitor, a.AssetMint); err != nil {
			return err
		}
		if err := e.checkCustody(tx, a.AssetCustody, a.AssetMint); err != nil {
			return err
		}
		if _, err := custody.ReleaseAll(tx, a.AssetCustody, req.AssetDestination, a.Exhibitor, e.custodian); err != nil {
			return err
		}
		if err := tx.DeleteRecord(address); err != nil {
			return err
		}
		out = Result{InvocationID: tx.InvocationID(), Address: address, Auction: a}
		return nil
	})
	return out, err
}

// CloseRequest settles an ended auction.
type CloseRequest struct {
	Caller    solana.PublicKey
	AssetMint solana.PublicKey
	// AssetDestination is a holding of the asset mint owned by the
	// highest bidder.
	AssetDestination solana.PublicKey
}

// CloseResult reports a settled auction.
type CloseResult struct {
	Result
	// Sold is false when the auction ended without bids and the asset went
	// back to the exhibitor.
	Sold bool
}

// Close swaps the escrowed asset and winning funds and removes the
// auction. An auction without bids can only be closed by its exhibitor,
// which takes the asset back and moves no funds.
func (e *Engine) Close(ctx context.Context, req CloseRequest) (CloseResult, error) {
	var out CloseResult
	err := e.ledger.Execute(ctx, func(tx ledger.Tx) error {
		address, a, err := e.load(tx, req.AssetMint)
		if err != nil {
			return err
		}
		if !req.Caller.Equals(a.HighestBidder) {
			return ErrNotHighestBidder.With(fmt.Sprintf("%s is not the highest bidder of %s", req.Caller, address))
		}
		if err := advance(ctx, a, tx.Now(), eventClose); err != nil {
			return err
		}
		if err := e.checkDestination(tx, req.AssetDestination, a.HighestBidder, a.AssetMint); err != nil {
			return err
		}
		if err := e.checkCustody(tx, a.AssetCustody, a.AssetMint); err != nil {
			return err
		}
		sold := a.HasBid()
		if sold {
			if err := e.checkCustody(tx, a.HighestBidderFunds, a.PaymentMint); err != nil {
				return err
			}
			proceeds, err := tx.Holding(a.Proceeds)
			if err != nil {
				return err
			}
			if !proceeds.Mint.Equals(a.PaymentMint) {
				return recordMismatch(proceeds.Address, "proceeds holding changed mint")
			}
		}

		if _, err := custody.ReleaseAll(tx, a.AssetCustody, req.AssetDestination, a.Exhibitor, e.custodian); err != nil {
			return err
		}
		if sold {
			if _, err := custody.ReleaseAll(tx, a.HighestBidderFunds, a.Proceeds, a.Exhibitor, e.custodian); err != nil {
				return err
			}
		}
		if err := tx.DeleteRecord(address); err != nil {
			return err
		}
		out = CloseResult{
			Result: Result{InvocationID: tx.InvocationID(), Address: address, Auction: a},
			Sold:   sold,
		}
		return nil
	})
	return out, err
}

// Get returns the auction of an asset mint.
func (e *Engine) Get(ctx context.Context, assetMint solana.PublicKey) (solana.PublicKey, Auction, error) {
	var (
		address solana.PublicKey
		a       Auction
	)
	err := e.ledger.Execute(ctx, func(tx ledger.Tx) error {
		var err error
		address, a, err = e.load(tx, assetMint)
		return err
	})
	return address, a, err
}

// Listed is an auction with its record address.
type Listed struct {
	Address solana.PublicKey
	Auction Auction
}

// List returns up to limit auctions with addresses after the given one, in
// address order, and the address to continue from when more remain.
func (e *Engine) List(ctx context.Context, after solana.PublicKey, limit int) ([]Listed, solana.PublicKey, error) {
	if limit <= 0 {
		return nil, solana.PublicKey{}, errors.New("limit must be greater than zero")
	}
	var (
		out  []Listed
		next solana.PublicKey
	)
	err := e.ledger.Execute(ctx, func(tx ledger.Tx) error {
		records, err := tx.Records(Discriminator.Bytes(), after, limit+1)
		if err != nil {
			return err
		}
		if len(records) > limit {
			records = records[:limit]
			next = records[limit-1].Address
		}
		out = make([]Listed, 0, len(records))
		for _, record := range records {
			a, err := Decode(record.Data)
			if err != nil {
				return fmt.Errorf("auction %s: %w", record.Address, err)
			}
			out = append(out, Listed{Address: record.Address, Auction: a})
		}
		return nil
	})
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	return out, next, nil
}

func (e *Engine) load(tx ledger.Tx, assetMint solana.PublicKey) (solana.PublicKey, Auction, error) {
	address, err := program.AuctionAddress(e.programID, assetMint)
	if err != nil {
		return solana.PublicKey{}, Auction{}, err
	}
	data, err := tx.Record(address)
	if err != nil {
		if ledger.IsNotFound(err) {
			return solana.PublicKey{}, Auction{}, ledger.ErrNotFound.With(
				fmt.Sprintf("no auction for asset %s", assetMint),
				"kind", "auction",
			)
		}
		return solana.PublicKey{}, Auction{}, err
	}
	a, err := Decode(data)
	if err != nil {
		return solana.PublicKey{}, Auction{}, err
	}
	if !a.AssetMint.Equals(assetMint) {
		return solana.PublicKey{}, Auction{}, recordMismatch(address, "auction record is for another asset")
	}
	return address, a, nil
}

func (e *Engine) save(tx ledger.Tx, address solana.PublicKey, a Auction) error {
	data, err := a.Encode()
	if err != nil {
		return err
	}
	return tx.PutRecord(address, data)
}

// checkCustody verifies a stored holding is still the custodian's and of
// the expected mint.
func (e *Engine) checkCustody(tx ledger.Tx, address, mint solana.PublicKey) error {
	holding, err := tx.Holding(address)
	if err != nil {
		return err
	}
	if !e.custodian.Holds(holding) || !holding.Mint.Equals(mint) {
		return recordMismatch(address, "holding is not in custody for this auction")
	}
	return nil
}

func (e *Engine) checkDestination(tx ledger.Tx, address, owner, mint solana.PublicKey) error {
	holding, err := tx.Holding(address)
	if err != nil {
		return err
	}
	if !holding.Owner.Equals(owner) || !holding.Mint.Equals(mint) {
		return holdingInvalid(address, fmt.Sprintf("destination must be a holding of %s owned by %s", mint, owner))
	}
	return nil
}

func holdingInvalid(address solana.PublicKey, message string) error {
	return ErrHoldingInvalid.With(fmt.Sprintf("holding %s: %s", address, message), "holding", address.String())
}

func recordMismatch(address solana.PublicKey, message string) error {
	return ErrRecordMismatch.With(fmt.Sprintf("%s: %s", address, message), "holding", address.String())
}
