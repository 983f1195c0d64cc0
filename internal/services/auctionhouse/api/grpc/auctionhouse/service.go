// Package auctionhouse exposes the escrow programs over gRPC.
package auctionhouse

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/louisbranch/auctionhouse/internal/escrow/auction"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger"
	"github.com/louisbranch/auctionhouse/internal/escrow/royalty"
	"github.com/louisbranch/auctionhouse/internal/escrow/settlement"
	apperrors "github.com/louisbranch/auctionhouse/internal/platform/errors"
	"github.com/louisbranch/auctionhouse/internal/platform/grpc/pagination"
	"github.com/louisbranch/auctionhouse/internal/platform/telemetry/metrics"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultListAuctionsPageSize = 20
	maxListAuctionsPageSize     = 100
	defaultListJournalPageSize  = 50
	maxListJournalPageSize      = 500

	// maxDurationSeconds is the longest auction a time.Duration can express.
	maxDurationSeconds = math.MaxInt64 / int64(time.Second)
)

// Deps are the collaborators a Service calls into.
type Deps struct {
	Ledger     ledger.Ledger
	Journal    ledger.JournalReader
	Auctions   *auction.Engine
	Settlement *settlement.Executor
	Metrics    *metrics.Registry
	Clock      clockwork.Clock
}

// Service implements AuctionHouseServer and LedgerServer.
type Service struct {
	ledger     ledger.Ledger
	journal    ledger.JournalReader
	auctions   *auction.Engine
	settlement *settlement.Executor
	metrics    *metrics.Registry
	clock      clockwork.Clock
}

// NewService creates a service. Metrics and the journal are optional.
func NewService(deps Deps) *Service {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Service{
		ledger:     deps.Ledger,
		journal:    deps.Journal,
		auctions:   deps.Auctions,
		settlement: deps.Settlement,
		metrics:    deps.Metrics,
		clock:      clock,
	}
}

// finish records the outcome of operation and converts err for the wire.
func (s *Service) finish(operation string, err error) error {
	s.metrics.ObserveOperation(operation, err)
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); !ok && apperrors.GetCode(err) == apperrors.CodeUnknown {
		log.Printf("%s: %v", operation, err)
	}
	return apperrors.HandleError(err, apperrors.DefaultLocale)
}

// Exhibit escrows the signer's asset and opens an auction.
func (s *Service) Exhibit(ctx context.Context, in *ExhibitRequest) (*AuctionResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "exhibit request is required")
	}
	if s == nil || s.auctions == nil {
		return nil, status.Error(codes.Internal, "auction engine is not configured")
	}
	signer, err := requireSigner(ctx)
	if err != nil {
		return nil, err
	}
	source, err := parseKey("asset_source", in.AssetSource)
	if err != nil {
		return nil, s.finish("exhibit", err)
	}
	proceeds, err := parseKey("proceeds", in.Proceeds)
	if err != nil {
		return nil, s.finish("exhibit", err)
	}
	if in.DurationSeconds <= 0 || in.DurationSeconds > maxDurationSeconds {
		return nil, s.finish("exhibit", auction.ErrInvalidDuration.With(
			fmt.Sprintf("duration %d seconds is outside 1..%d", in.DurationSeconds, maxDurationSeconds),
			"field", "duration_seconds",
		))
	}

	res, err := s.auctions.Exhibit(ctx, auction.ExhibitRequest{
		Exhibitor:    signer,
		AssetSource:  source,
		Proceeds:     proceeds,
		InitialPrice: in.InitialPrice,
		Duration:     time.Duration(in.DurationSeconds) * time.Second,
	})
	if err != nil {
		return nil, s.finish("exhibit", err)
	}
	s.finish("exhibit", nil)
	return &AuctionResponse{InvocationID: res.InvocationID, Auction: auctionToWire(res.Address, res.Auction, s.clock.Now())}, nil
}

// Bid places the signer's bid against the observed auction state.
func (s *Service) Bid(ctx context.Context, in *BidRequest) (*AuctionResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "bid request is required")
	}
	if s == nil || s.auctions == nil {
		return nil, status.Error(codes.Internal, "auction engine is not configured")
	}
	signer, err := requireSigner(ctx)
	if err != nil {
		return nil, err
	}
	mint, err := parseKey("asset_mint", in.AssetMint)
	if err != nil {
		return nil, s.finish("bid", err)
	}
	refund, err := parseKey("refund", in.Refund)
	if err != nil {
		return nil, s.finish("bid", err)
	}
	observedBidder, err := parseOptionalKey("observed_bidder", in.ObservedBidder)
	if err != nil {
		return nil, s.finish("bid", err)
	}

	res, err := s.auctions.Bid(ctx, auction.BidRequest{
		Bidder:    signer,
		AssetMint: mint,
		Refund:    refund,
		Price:     in.Price,
		Observed:  auction.Snapshot{Price: in.ObservedPrice, HighestBidder: observedBidder},
	})
	if err != nil {
		return nil, s.finish("bid", err)
	}
	s.finish("bid", nil)
	return &AuctionResponse{InvocationID: res.InvocationID, Auction: auctionToWire(res.Address, res.Auction, s.clock.Now())}, nil
}

// Cancel returns the asset of an auction without bids to the exhibitor.
func (s *Service) Cancel(ctx context.Context, in *CancelRequest) (*CancelResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "cancel request is required")
	}
	if s == nil || s.auctions == nil {
		return nil, status.Error(codes.Internal, "auction engine is not configured")
	}
	signer, err := requireSigner(ctx)
	if err != nil {
		return nil, err
	}
	mint, err := parseKey("asset_mint", in.AssetMint)
	if err != nil {
		return nil, s.finish("cancel", err)
	}
	destination, err := parseKey("asset_destination", in.AssetDestination)
	if err != nil {
		return nil, s.finish("cancel", err)
	}

	res, err := s.auctions.Cancel(ctx, auction.CancelRequest{
		Exhibitor:        signer,
		AssetMint:        mint,
		AssetDestination: destination,
	})
	if err != nil {
		return nil, s.finish("cancel", err)
	}
	s.finish("cancel", nil)
	return &CancelResponse{InvocationID: res.InvocationID, Address: res.Address.String()}, nil
}

// Close settles an ended auction.
func (s *Service) Close(ctx context.Context, in *CloseRequest) (*CloseResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "close request is required")
	}
	if s == nil || s.auctions == nil {
		return nil, status.Error(codes.Internal, "auction engine is not configured")
	}
	signer, err := requireSigner(ctx)
	if err != nil {
		return nil, err
	}
	mint, err := parseKey("asset_mint", in.AssetMint)
	if err != nil {
		return nil, s.finish("close", err)
	}
	destination, err := parseKey("asset_destination", in.AssetDestination)
	if err != nil {
		return nil, s.finish("close", err)
	}

	res, err := s.auctions.Close(ctx, auction.CloseRequest{
		Caller:           signer,
		AssetMint:        mint,
		AssetDestination: destination,
	})
	if err != nil {
		return nil, s.finish("close", err)
	}
	s.finish("close", nil)
	closed := auctionToWire(res.Address, res.Auction, s.clock.Now())
	closed.Phase = string(auction.PhaseClosed)
	return &CloseResponse{InvocationID: res.InvocationID, Sold: res.Sold, Auction: closed}, nil
}

// GetAuction returns the live auction of an asset.
func (s *Service) GetAuction(ctx context.Context, in *GetAuctionRequest) (*AuctionResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "get auction request is required")
	}
	if s == nil || s.auctions == nil {
		return nil, status.Error(codes.Internal, "auction engine is not configured")
	}
	mint, err := parseKey("asset_mint", in.AssetMint)
	if err != nil {
		return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
	}
	address, a, err := s.auctions.Get(ctx, mint)
	if err != nil {
		return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
	}
	return &AuctionResponse{Auction: auctionToWire(address, a, s.clock.Now())}, nil
}

// ListAuctions returns a page of live auctions in address order.
func (s *Service) ListAuctions(ctx context.Context, in *ListAuctionsRequest) (*ListAuctionsResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "list auctions request is required")
	}
	if s == nil || s.auctions == nil {
		return nil, status.Error(codes.Internal, "auction engine is not configured")
	}
	pageSize := pagination.ClampPageSize(in.PageSize, pagination.PageSizeConfig{
		Default: defaultListAuctionsPageSize,
		Max:     maxListAuctionsPageSize,
	})
	after, err := parseOptionalKey("page_token", in.PageToken)
	if err != nil {
		return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
	}

	listed, next, err := s.auctions.List(ctx, after, pageSize)
	if err != nil {
		return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
	}
	now := s.clock.Now()
	resp := &ListAuctionsResponse{
		Auctions:      make([]Auction, 0, len(listed)),
		NextPageToken: keyString(next),
	}
	for _, item := range listed {
		resp.Auctions = append(resp.Auctions, auctionToWire(item.Address, item.Auction, now))
	}
	return resp, nil
}

// CreateRoyaltyConfig stores the royalty configuration of an asset.
func (s *Service) CreateRoyaltyConfig(ctx context.Context, in *RoyaltyConfigRequest) (*RoyaltyConfigResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "royalty config request is required")
	}
	if s == nil || s.settlement == nil {
		return nil, status.Error(codes.Internal, "settlement executor is not configured")
	}
	signer, err := requireSigner(ctx)
	if err != nil {
		return nil, err
	}
	mint, holding, recipients, err := parseConfigRequest(in)
	if err != nil {
		return nil, s.finish("create_royalty_config", err)
	}

	res, err := s.settlement.CreateConfig(ctx, settlement.CreateConfigRequest{
		Authority:        signer,
		AssetMint:        mint,
		AuthorityHolding: holding,
		TotalBasisPoints: in.TotalBasisPoints,
		Recipients:       recipients,
		IsMutable:        in.IsMutable,
	})
	if err != nil {
		return nil, s.finish("create_royalty_config", err)
	}
	s.finish("create_royalty_config", nil)
	return &RoyaltyConfigResponse{InvocationID: res.InvocationID, Config: configToWire(res.Address, res.Config)}, nil
}

// UpdateRoyaltyConfig replaces the split of a mutable configuration.
func (s *Service) UpdateRoyaltyConfig(ctx context.Context, in *RoyaltyConfigRequest) (*RoyaltyConfigResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "royalty config request is required")
	}
	if s == nil || s.settlement == nil {
		return nil, status.Error(codes.Internal, "settlement executor is not configured")
	}
	signer, err := requireSigner(ctx)
	if err != nil {
		return nil, err
	}
	mint, holding, recipients, err := parseConfigRequest(in)
	if err != nil {
		return nil, s.finish("update_royalty_config", err)
	}

	res, err := s.settlement.UpdateConfig(ctx, settlement.UpdateConfigRequest{
		Authority:        signer,
		AssetMint:        mint,
		AuthorityHolding: holding,
		TotalBasisPoints: in.TotalBasisPoints,
		Recipients:       recipients,
	})
	if err != nil {
		return nil, s.finish("update_royalty_config", err)
	}
	s.finish("update_royalty_config", nil)
	return &RoyaltyConfigResponse{InvocationID: res.InvocationID, Config: configToWire(res.Address, res.Config)}, nil
}

func parseConfigRequest(in *RoyaltyConfigRequest) (mint, holding solana.PublicKey, recipients []royalty.Recipient, err error) {
	if mint, err = parseKey("asset_mint", in.AssetMint); err != nil {
		return
	}
	if holding, err = parseKey("authority_holding", in.AuthorityHolding); err != nil {
		return
	}
	recipients, err = recipientsFromWire(in.Recipients)
	return
}

// GetRoyaltyConfig returns the royalty configuration of an asset.
func (s *Service) GetRoyaltyConfig(ctx context.Context, in *GetRoyaltyConfigRequest) (*RoyaltyConfigResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "get royalty config request is required")
	}
	if s == nil || s.settlement == nil {
		return nil, status.Error(codes.Internal, "settlement executor is not configured")
	}
	mint, err := parseKey("asset_mint", in.AssetMint)
	if err != nil {
		return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
	}
	address, cfg, err := s.settlement.Config(ctx, mint)
	if err != nil {
		return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
	}
	return &RoyaltyConfigResponse{Config: configToWire(address, cfg)}, nil
}

// ProcessSale settles a direct sale signed by the buyer.
func (s *Service) ProcessSale(ctx context.Context, in *SaleRequest) (*SaleResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "sale request is required")
	}
	if s == nil || s.settlement == nil {
		return nil, status.Error(codes.Internal, "settlement executor is not configured")
	}
	signer, err := requireSigner(ctx)
	if err != nil {
		return nil, err
	}
	req := settlement.SaleRequest{Buyer: signer, SalePrice: in.SalePrice}
	fields := []struct {
		name  string
		value string
		dst   *solana.PublicKey
	}{
		{"seller", in.Seller, &req.Seller},
		{"asset_mint", in.AssetMint, &req.AssetMint},
		{"seller_asset", in.SellerAsset, &req.SellerAsset},
		{"buyer_payment", in.BuyerPayment, &req.BuyerPayment},
		{"seller_payment", in.SellerPayment, &req.SellerPayment},
	}
	for _, f := range fields {
		if *f.dst, err = parseKey(f.name, f.value); err != nil {
			return nil, s.finish("process_sale", err)
		}
	}
	for i, value := range in.RecipientHoldings {
		holding, err := parseKey("recipient_holdings", value)
		if err != nil {
			return nil, s.finish("process_sale", invalidField("recipient_holdings", "entry %d: %v", i, err))
		}
		req.RecipientHoldings = append(req.RecipientHoldings, holding)
	}

	receipt, err := s.settlement.ProcessSale(ctx, req)
	if err != nil {
		return nil, s.finish("process_sale", err)
	}
	s.finish("process_sale", nil)
	if receipt.Direct {
		s.metrics.ObserveSettlement("direct")
	} else {
		s.metrics.ObserveSettlement("royalty")
	}
	if receipt.Dust > 0 {
		log.Printf("process_sale %s: %d rounding dust paid to seller %s", receipt.InvocationID, receipt.Dust, req.Seller)
	}
	return receiptToWire(receipt), nil
}

// ListJournal returns a page of ledger journal entries.
func (s *Service) ListJournal(ctx context.Context, in *ListJournalRequest) (*ListJournalResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "list journal request is required")
	}
	if s == nil || s.journal == nil {
		return nil, status.Error(codes.Unimplemented, "journal is not available")
	}
	pageSize := pagination.ClampPageSize(in.PageSize, pagination.PageSizeConfig{
		Default: defaultListJournalPageSize,
		Max:     maxListJournalPageSize,
	})
	page, err := s.journal.ListJournal(ctx, pageSize, in.PageToken, in.Filter)
	if err != nil {
		return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
	}
	resp := &ListJournalResponse{
		Entries:       make([]JournalEntry, 0, len(page.Entries)),
		NextPageToken: page.NextPageToken,
	}
	for _, entry := range page.Entries {
		resp.Entries = append(resp.Entries, entryToWire(entry))
	}
	return resp, nil
}
