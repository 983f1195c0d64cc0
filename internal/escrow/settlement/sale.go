package settlement

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/louisbranch/auctionhouse/internal/escrow/authz"
	"github.com/louisbranch/auctionhouse/internal/escrow/ledger"
	"github.com/louisbranch/auctionhouse/internal/escrow/royalty"
)

// SaleRequest settles a direct sale of an asset.
type SaleRequest struct {
	Buyer     solana.PublicKey
	Seller    solana.PublicKey
	AssetMint solana.PublicKey
	// SellerAsset must hold the single unit of the asset.
	SellerAsset   solana.PublicKey
	BuyerPayment  solana.PublicKey
	SellerPayment solana.PublicKey
	// RecipientHoldings pairs by index with the configured recipients.
	RecipientHoldings []solana.PublicKey
	SalePrice         uint64
}

// Payout is a transfer made to a royalty recipient.
type Payout struct {
	Recipient solana.PublicKey
	Holding   solana.PublicKey
	Amount    uint64
}

// Receipt describes how a sale price was distributed.
type Receipt struct {
	InvocationID string
	Royalty      uint64
	Payouts      []Payout
	SellerAmount uint64
	// Dust is the royalty lost to per-recipient rounding and paid to the
	// seller instead.
	Dust uint64
	// Direct is set when the whole price went to the seller.
	Direct bool
}

// ProcessSale pays the sale price from the buyer to the royalty recipients
// and the seller. Every holding is validated before the first transfer.
func (e *Executor) ProcessSale(ctx context.Context, req SaleRequest) (Receipt, error) {
	if req.SalePrice == 0 {
		return Receipt{}, ErrInvalidPrice
	}

	var out Receipt
	err := e.ledger.Execute(ctx, func(tx ledger.Tx) error {
		if err := authz.Require(ctx, e.oracle, req.Buyer, req.AssetMint); err != nil {
			return err
		}
		asset, err := tx.Holding(req.SellerAsset)
		if err != nil {
			return err
		}
		if !asset.Mint.Equals(req.AssetMint) || !asset.Owner.Equals(req.Seller) || asset.Amount != 1 {
			return ErrHoldingInvalid.With(
				fmt.Sprintf("holding %s does not show %s holding %s", asset.Address, req.Seller, req.AssetMint),
				"holding", asset.Address.String(),
			)
		}
		buyer, err := tx.Holding(req.BuyerPayment)
		if err != nil {
			return err
		}
		if !buyer.Owner.Equals(req.Buyer) {
			return ledger.ErrOwnerMismatch.With(
				fmt.Sprintf("%s does not own holding %s", req.Buyer, buyer.Address),
				"holding", buyer.Address.String(),
			)
		}
		seller, err := tx.Holding(req.SellerPayment)
		if err != nil {
			return err
		}
		if e.custodian.Holds(seller) {
			return ErrHoldingInvalid.With(
				fmt.Sprintf("holding %s is in escrow custody", seller.Address),
				"holding", seller.Address.String(),
			)
		}

		split, cfg, err := e.plan(tx, req.AssetMint, req.SalePrice)
		if err != nil {
			return err
		}
		if split.Royalty == 0 {
			if err := tx.Transfer(req.BuyerPayment, req.SellerPayment, req.Buyer, req.SalePrice); err != nil {
				return err
			}
			out = Receipt{InvocationID: tx.InvocationID(), SellerAmount: req.SalePrice, Direct: true}
			return nil
		}

		if buyer.Amount < req.SalePrice {
			return ledger.ErrInsufficientFunds.With(
				fmt.Sprintf("holding %s has %d, needs %d", buyer.Address, buyer.Amount, req.SalePrice),
				"holding", buyer.Address.String(),
			)
		}
		if len(req.RecipientHoldings) < len(cfg.Recipients) {
			return ErrMissingExpectedAccount.With(
				fmt.Sprintf("got %d recipient holdings for %d recipients", len(req.RecipientHoldings), len(cfg.Recipients)),
				"want", strconv.Itoa(len(cfg.Recipients)),
				"got", strconv.Itoa(len(req.RecipientHoldings)),
			)
		}
		if !seller.Mint.Equals(buyer.Mint) {
			return ledger.ErrMintMismatch.With(
				fmt.Sprintf("seller holding %s is mint %s, payment is %s", seller.Address, seller.Mint, buyer.Mint),
				"holding", seller.Address.String(),
			)
		}
		destinations, err := e.recipientHoldings(tx, cfg.Recipients, req.RecipientHoldings, buyer.Mint)
		if err != nil {
			return err
		}

		payouts := make([]Payout, 0, len(split.Payouts))
		for _, p := range split.Payouts {
			holding := destinations[p.Recipient]
			if err := tx.Transfer(req.BuyerPayment, holding, req.Buyer, p.Amount); err != nil {
				return fmt.Errorf("pay %s: %w", p.Recipient, err)
			}
			payouts = append(payouts, Payout{Recipient: p.Recipient, Holding: holding, Amount: p.Amount})
		}
		if split.Seller > 0 {
			if err := tx.Transfer(req.BuyerPayment, req.SellerPayment, req.Buyer, split.Seller); err != nil {
				return fmt.Errorf("pay seller: %w", err)
			}
		}
		out = Receipt{
			InvocationID: tx.InvocationID(),
			Royalty:      split.Royalty,
			Payouts:      payouts,
			SellerAmount: split.Seller,
			Dust:         split.Dust,
		}
		return nil
	})
	return out, err
}

// plan returns the distribution of price. A zero Royalty means the sale
// goes straight to the seller.
func (e *Executor) plan(tx ledger.Tx, assetMint solana.PublicKey, price uint64) (royalty.Split, royalty.Config, error) {
	_, cfg, err := e.loadConfig(tx, assetMint)
	if err != nil {
		if ledger.IsNotFound(err) {
			return royalty.Split{Seller: price}, royalty.Config{}, nil
		}
		return royalty.Split{}, royalty.Config{}, err
	}
	if cfg.TotalBasisPoints == 0 || len(cfg.Recipients) == 0 {
		return royalty.Split{Seller: price}, cfg, nil
	}
	split, err := royalty.Distribute(price, cfg.TotalBasisPoints, cfg.Recipients)
	if err != nil {
		return royalty.Split{}, royalty.Config{}, err
	}
	return split, cfg, nil
}

// recipientHoldings validates the holding supplied for each recipient and
// maps recipient identities to them.
func (e *Executor) recipientHoldings(tx ledger.Tx, recipients []royalty.Recipient, holdings []solana.PublicKey, paymentMint solana.PublicKey) (map[solana.PublicKey]solana.PublicKey, error) {
	out := make(map[solana.PublicKey]solana.PublicKey, len(recipients))
	for i, r := range recipients {
		address := holdings[i]
		holding, err := tx.Holding(address)
		if err != nil {
			if ledger.IsNotFound(err) {
				return nil, invalidRecipient(r.Recipient, address, "holding does not exist")
			}
			return nil, err
		}
		if !holding.Owner.Equals(r.Recipient) || e.custodian.Holds(holding) {
			return nil, invalidRecipient(r.Recipient, address, "holding is not owned by the recipient")
		}
		if !holding.Mint.Equals(paymentMint) {
			return nil, ledger.ErrMintMismatch.With(
				fmt.Sprintf("recipient holding %s is mint %s, payment is %s", address, holding.Mint, paymentMint),
				"holding", address.String(),
			)
		}
		if prev, ok := out[r.Recipient]; ok && !prev.Equals(address) {
			return nil, invalidRecipient(r.Recipient, address, "recipient already paid into "+prev.String())
		}
		out[r.Recipient] = address
	}
	return out, nil
}

func invalidRecipient(recipient, holding solana.PublicKey, reason string) error {
	return ErrInvalidRecipientAccount.With(
		fmt.Sprintf("recipient %s holding %s: %s", recipient, holding, reason),
		"recipient", recipient.String(),
		"holding", holding.String(),
	)
}
