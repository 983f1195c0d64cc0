package auctionhouse

import (
	"context"

	"github.com/louisbranch/auctionhouse/internal/escrow/ledger"
	"github.com/louisbranch/auctionhouse/internal/escrow/program"
	apperrors "github.com/louisbranch/auctionhouse/internal/platform/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CreateMint creates a mint with the signer as its authority.
func (s *Service) CreateMint(ctx context.Context, in *CreateMintRequest) (*MintResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "create mint request is required")
	}
	if s == nil || s.ledger == nil {
		return nil, status.Error(codes.Internal, "ledger is not configured")
	}
	signer, err := requireSigner(ctx)
	if err != nil {
		return nil, err
	}
	address, err := parseKey("address", in.Address)
	if err != nil {
		return nil, s.finish("create_mint", err)
	}

	resp := &MintResponse{}
	err = s.ledger.Execute(ctx, func(tx ledger.Tx) error {
		if err := tx.CreateMint(ledger.Mint{Address: address, Authority: signer, Decimals: in.Decimals}); err != nil {
			return err
		}
		mint, err := tx.Mint(address)
		if err != nil {
			return err
		}
		resp.InvocationID = tx.InvocationID()
		resp.Mint = mintToWire(mint)
		return nil
	})
	if err != nil {
		return nil, s.finish("create_mint", err)
	}
	s.finish("create_mint", nil)
	return resp, nil
}

// GetMint returns one mint.
func (s *Service) GetMint(ctx context.Context, in *GetMintRequest) (*MintResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "get mint request is required")
	}
	if s == nil || s.ledger == nil {
		return nil, status.Error(codes.Internal, "ledger is not configured")
	}
	address, err := parseKey("address", in.Address)
	if err != nil {
		return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
	}
	var mint ledger.Mint
	err = s.ledger.Execute(ctx, func(tx ledger.Tx) error {
		var err error
		mint, err = tx.Mint(address)
		return err
	})
	if err != nil {
		return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
	}
	return &MintResponse{Mint: mintToWire(mint)}, nil
}

// OpenHolding opens an empty holding owned by the signer.
func (s *Service) OpenHolding(ctx context.Context, in *OpenHoldingRequest) (*HoldingResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "open holding request is required")
	}
	if s == nil || s.ledger == nil {
		return nil, status.Error(codes.Internal, "ledger is not configured")
	}
	signer, err := requireSigner(ctx)
	if err != nil {
		return nil, err
	}
	address, err := parseKey("address", in.Address)
	if err != nil {
		return nil, s.finish("open_holding", err)
	}
	if program.IsDerived(address) {
		return nil, s.finish("open_holding", invalidField("address", "program-derived addresses are reserved for escrow"))
	}
	mint, err := parseKey("mint", in.Mint)
	if err != nil {
		return nil, s.finish("open_holding", err)
	}

	resp := &HoldingResponse{}
	err = s.ledger.Execute(ctx, func(tx ledger.Tx) error {
		holding, err := tx.OpenHolding(address, mint, signer)
		if err != nil {
			return err
		}
		resp.InvocationID = tx.InvocationID()
		resp.Holding = holdingToWire(holding)
		return nil
	})
	if err != nil {
		return nil, s.finish("open_holding", err)
	}
	s.finish("open_holding", nil)
	return resp, nil
}

// GetHolding returns one holding.
func (s *Service) GetHolding(ctx context.Context, in *GetHoldingRequest) (*HoldingResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "get holding request is required")
	}
	if s == nil || s.ledger == nil {
		return nil, status.Error(codes.Internal, "ledger is not configured")
	}
	address, err := parseKey("address", in.Address)
	if err != nil {
		return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
	}
	var holding ledger.Holding
	err = s.ledger.Execute(ctx, func(tx ledger.Tx) error {
		var err error
		holding, err = tx.Holding(address)
		return err
	})
	if err != nil {
		return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
	}
	return &HoldingResponse{Holding: holdingToWire(holding)}, nil
}

// MintTo issues units of a mint the signer is authority of.
func (s *Service) MintTo(ctx context.Context, in *MintToRequest) (*HoldingResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "mint to request is required")
	}
	if s == nil || s.ledger == nil {
		return nil, status.Error(codes.Internal, "ledger is not configured")
	}
	signer, err := requireSigner(ctx)
	if err != nil {
		return nil, err
	}
	mint, err := parseKey("mint", in.Mint)
	if err != nil {
		return nil, s.finish("mint_to", err)
	}
	destination, err := parseKey("destination", in.Destination)
	if err != nil {
		return nil, s.finish("mint_to", err)
	}

	resp := &HoldingResponse{}
	err = s.ledger.Execute(ctx, func(tx ledger.Tx) error {
		if err := tx.MintTo(mint, destination, signer, in.Amount); err != nil {
			return err
		}
		holding, err := tx.Holding(destination)
		if err != nil {
			return err
		}
		resp.InvocationID = tx.InvocationID()
		resp.Holding = holdingToWire(holding)
		return nil
	})
	if err != nil {
		return nil, s.finish("mint_to", err)
	}
	s.finish("mint_to", nil)
	return resp, nil
}
