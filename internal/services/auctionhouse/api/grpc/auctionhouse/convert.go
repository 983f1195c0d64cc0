package auctionhouse

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/louisbranch/auctionhouse/internal/escrow/auction"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger"
	"github.com/louisbranch/auctionhouse/internal/escrow/royalty"
	"github.com/louisbranch/auctionhouse/internal/escrow/settlement"
	apperrors "github.com/louisbranch/auctionhouse/internal/platform/errors"
	"github.com/louisbranch/auctionhouse/internal/platform/requestctx"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func requireSigner(ctx context.Context) (solana.PublicKey, error) {
	signer, ok := requestctx.SignerFromContext(ctx)
	if !ok {
		return solana.PublicKey{}, status.Error(codes.Unauthenticated, "request signer is required")
	}
	return signer, nil
}

func invalidField(field string, format string, args ...any) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidArgument, field+": "+fmt.Sprintf(format, args...), map[string]string{"field": field})
}

func parseKey(field, value string) (solana.PublicKey, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return solana.PublicKey{}, invalidField(field, "is required")
	}
	key, err := solana.PublicKeyFromBase58(value)
	if err != nil {
		return solana.PublicKey{}, invalidField(field, "%v", err)
	}
	return key, nil
}

func parseOptionalKey(field, value string) (solana.PublicKey, error) {
	if strings.TrimSpace(value) == "" {
		return solana.PublicKey{}, nil
	}
	return parseKey(field, value)
}

func keyString(key solana.PublicKey) string {
	if key.IsZero() {
		return ""
	}
	return key.String()
}

func auctionToWire(address solana.PublicKey, a auction.Auction, now time.Time) Auction {
	return Auction{
		Address:             address.String(),
		Exhibitor:           a.Exhibitor.String(),
		AssetMint:           a.AssetMint.String(),
		AssetCustody:        a.AssetCustody.String(),
		Proceeds:            a.Proceeds.String(),
		PaymentMint:         a.PaymentMint.String(),
		Price:               a.Price,
		EndAt:               a.EndAt,
		HighestBidder:       a.HighestBidder.String(),
		HighestBidderFunds:  keyString(a.HighestBidderFunds),
		HighestBidderRefund: keyString(a.HighestBidderRefund),
		HasBid:              a.HasBid(),
		Phase:               string(a.PhaseAt(now)),
	}
}

func recipientsFromWire(in []Recipient) ([]royalty.Recipient, error) {
	out := make([]royalty.Recipient, 0, len(in))
	for i, r := range in {
		key, err := parseKey(fmt.Sprintf("recipients[%d].recipient", i), r.Recipient)
		if err != nil {
			return nil, err
		}
		kind, err := royalty.ParseRecipientType(r.Type)
		if err != nil {
			return nil, err
		}
		out = append(out, royalty.Recipient{Recipient: key, BasisPoints: r.BasisPoints, Type: kind})
	}
	return out, nil
}

func configToWire(address solana.PublicKey, cfg royalty.Config) RoyaltyConfig {
	recipients := make([]Recipient, 0, len(cfg.Recipients))
	for _, r := range cfg.Recipients {
		recipients = append(recipients, Recipient{
			Recipient:   r.Recipient.String(),
			BasisPoints: r.BasisPoints,
			Type:        r.Type.String(),
		})
	}
	return RoyaltyConfig{
		Address:          address.String(),
		AssetMint:        cfg.Mint.String(),
		TotalBasisPoints: cfg.TotalBasisPoints,
		Recipients:       recipients,
		Authority:        cfg.Authority.String(),
		IsMutable:        cfg.IsMutable,
	}
}

func receiptToWire(r settlement.Receipt) *SaleResponse {
	payouts := make([]Payout, 0, len(r.Payouts))
	for _, p := range r.Payouts {
		payouts = append(payouts, Payout{
			Recipient: p.Recipient.String(),
			Holding:   p.Holding.String(),
			Amount:    p.Amount,
		})
	}
	return &SaleResponse{
		InvocationID: r.InvocationID,
		Royalty:      r.Royalty,
		Payouts:      payouts,
		SellerAmount: r.SellerAmount,
		Dust:         r.Dust,
		Direct:       r.Direct,
	}
}

func entryToWire(e ledger.Entry) JournalEntry {
	return JournalEntry{
		Seq:          e.Seq,
		InvocationID: e.InvocationID,
		Kind:         string(e.Kind),
		Mint:         keyString(e.Mint),
		Source:       keyString(e.Source),
		Destination:  keyString(e.Destination),
		Authority:    keyString(e.Authority),
		Amount:       e.Amount,
		At:           e.At.UnixMilli(),
	}
}

func mintToWire(m ledger.Mint) Mint {
	return Mint{
		Address:   m.Address.String(),
		Authority: m.Authority.String(),
		Decimals:  m.Decimals,
		Supply:    m.Supply,
	}
}

func holdingToWire(h ledger.Holding) Holding {
	return Holding{
		Address: h.Address.String(),
		Mint:    h.Mint.String(),
		Owner:   h.Owner.String(),
		Amount:  h.Amount,
	}
}
