package auctionctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	auctionhouse "github.com/louisbranch/auctionhouse/internal/services/auctionhouse/api/grpc/auctionhouse"
)

var commands = map[string]command{
	"keygen": {
		summary: "write a new keypair file and print its public key",
		offline: true,
		bind: func(fs *flag.FlagSet) func(context.Context, *session) error {
			out := fs.String("out", "", "keypair file to create")
			return func(_ context.Context, s *session) error {
				if strings.TrimSpace(*out) == "" {
					return errors.New("keygen: -out is required")
				}
				key, err := solana.NewRandomPrivateKey()
				if err != nil {
					return err
				}
				if err := writeKeygenFile(*out, key); err != nil {
					return err
				}
				s.printf("%s\n", key.PublicKey())
				return nil
			}
		},
	},
	"mint-create": {
		summary: "create a mint with the signer as authority",
		bind: func(fs *flag.FlagSet) func(context.Context, *session) error {
			address := fs.String("address", "", "mint address (default: random)")
			decimals := fs.Uint("decimals", 0, "decimal places of the mint")
			return func(ctx context.Context, s *session) error {
				if *decimals > 255 {
					return fmt.Errorf("mint-create: decimals %d out of range", *decimals)
				}
				resp, err := s.client.CreateMint(ctx, &auctionhouse.CreateMintRequest{
					Address:  addressOrRandom(*address),
					Decimals: uint8(*decimals),
				})
				if err != nil {
					return err
				}
				printMint(s, resp.Mint)
				return nil
			}
		},
	},
	"mint": {
		summary: "show a mint",
		bind: func(fs *flag.FlagSet) func(context.Context, *session) error {
			return func(ctx context.Context, s *session) error {
				address, err := s.arg("mint address")
				if err != nil {
					return err
				}
				resp, err := s.client.GetMint(ctx, address)
				if err != nil {
					return err
				}
				printMint(s, resp.Mint)
				return nil
			}
		},
	},
	"holding-open": {
		summary: "open a holding of a mint owned by the signer",
		bind: func(fs *flag.FlagSet) func(context.Context, *session) error {
			address := fs.String("address", "", "holding address (default: random)")
			mint := fs.String("mint", "", "mint address")
			return func(ctx context.Context, s *session) error {
				resp, err := s.client.OpenHolding(ctx, &auctionhouse.OpenHoldingRequest{
					Address: addressOrRandom(*address),
					Mint:    *mint,
				})
				if err != nil {
					return err
				}
				return printHolding(ctx, s, resp.Holding)
			}
		},
	},
	"holding": {
		summary: "show a holding",
		bind: func(fs *flag.FlagSet) func(context.Context, *session) error {
			return func(ctx context.Context, s *session) error {
				address, err := s.arg("holding address")
				if err != nil {
					return err
				}
				resp, err := s.client.GetHolding(ctx, address)
				if err != nil {
					return err
				}
				return printHolding(ctx, s, resp.Holding)
			}
		},
	},
	"mint-to": {
		summary: "issue units of a mint into a holding",
		bind: func(fs *flag.FlagSet) func(context.Context, *session) error {
			mint := fs.String("mint", "", "mint address")
			to := fs.String("to", "", "destination holding")
			amount := fs.String("amount", "", "amount in whole units, e.g. 12.50")
			return func(ctx context.Context, s *session) error {
				m, err := s.client.GetMint(ctx, *mint)
				if err != nil {
					return err
				}
				units, err := parseAmount(*amount, m.Mint.Decimals)
				if err != nil {
					return err
				}
				resp, err := s.client.MintTo(ctx, &auctionhouse.MintToRequest{Mint: *mint, Destination: *to, Amount: units})
				if err != nil {
					return err
				}
				return printHolding(ctx, s, resp.Holding)
			}
		},
	},
	"exhibit": {
		summary: "escrow an asset and open its auction",
		bind: func(fs *flag.FlagSet) func(context.Context, *session) error {
			source := fs.String("source", "", "holding with the asset")
			proceeds := fs.String("proceeds", "", "holding that receives the winning bid")
			price := fs.String("price", "", "starting price")
			duration := fs.Duration("duration", 24*time.Hour, "how long bidding stays open")
			return func(ctx context.Context, s *session) error {
				units, err := amountFor(ctx, s, *proceeds, *price)
				if err != nil {
					return err
				}
				resp, err := s.client.Exhibit(ctx, &auctionhouse.ExhibitRequest{
					AssetSource:     *source,
					Proceeds:        *proceeds,
					InitialPrice:    units,
					DurationSeconds: int64(duration.Seconds()),
				})
				if err != nil {
					return err
				}
				return printAuction(ctx, s, resp.Auction)
			}
		},
	},
	"bid": {
		summary: "bid on an auction, retrying when another bid lands first",
		bind: func(fs *flag.FlagSet) func(context.Context, *session) error {
			asset := fs.String("asset", "", "asset mint")
			refund := fs.String("refund", "", "payment holding the bid is paid from and refunded to")
			price := fs.String("price", "", "bid amount")
			return func(ctx context.Context, s *session) error {
				units, err := amountFor(ctx, s, *refund, *price)
				if err != nil {
					return err
				}
				resp, err := s.client.BidWithRetry(ctx, auctionhouse.BidRequest{
					AssetMint: *asset,
					Refund:    *refund,
					Price:     units,
				})
				if err != nil {
					return err
				}
				return printAuction(ctx, s, resp.Auction)
			}
		},
	},
	"cancel": {
		summary: "cancel an auction without bids",
		bind: func(fs *flag.FlagSet) func(context.Context, *session) error {
			asset := fs.String("asset", "", "asset mint")
			to := fs.String("to", "", "holding that receives the asset")
			return func(ctx context.Context, s *session) error {
				resp, err := s.client.Cancel(ctx, &auctionhouse.CancelRequest{AssetMint: *asset, AssetDestination: *to})
				if err != nil {
					return err
				}
				s.printf("cancelled %s (invocation %s)\n", resp.Address, resp.InvocationID)
				return nil
			}
		},
	},
	"close": {
		summary: "settle an ended auction",
		bind: func(fs *flag.FlagSet) func(context.Context, *session) error {
			asset := fs.String("asset", "", "asset mint")
			to := fs.String("to", "", "holding that receives the asset")
			return func(ctx context.Context, s *session) error {
				resp, err := s.client.CloseAuction(ctx, &auctionhouse.CloseRequest{AssetMint: *asset, AssetDestination: *to})
				if err != nil {
					return err
				}
				if resp.Sold {
					s.printf("sold to %s\n", resp.Auction.HighestBidder)
				} else {
					s.printf("unsold, asset returned\n")
				}
				return printAuction(ctx, s, resp.Auction)
			}
		},
	},
	"auction": {
		summary: "show the auction of an asset",
		bind: func(fs *flag.FlagSet) func(context.Context, *session) error {
			return func(ctx context.Context, s *session) error {
				asset, err := s.arg("asset mint")
				if err != nil {
					return err
				}
				resp, err := s.client.GetAuction(ctx, asset)
				if err != nil {
					return err
				}
				return printAuction(ctx, s, resp.Auction)
			}
		},
	},
	"auctions": {
		summary: "list live auctions",
		bind: func(fs *flag.FlagSet) func(context.Context, *session) error {
			pageSize := fs.Int("page-size", 0, "auctions per page")
			pageToken := fs.String("page-token", "", "token from a previous page")
			return func(ctx context.Context, s *session) error {
				resp, err := s.client.ListAuctions(ctx, &auctionhouse.ListAuctionsRequest{
					PageSize:  int32(*pageSize),
					PageToken: *pageToken,
				})
				if err != nil {
					return err
				}
				for _, a := range resp.Auctions {
					s.printf("%s\t%s\t%d\t%s\n", a.AssetMint, a.Phase, a.Price, a.HighestBidder)
				}
				if resp.NextPageToken != "" {
					s.printf("next page: %s\n", resp.NextPageToken)
				}
				return nil
			}
		},
	},
	"royalty-create": {
		summary: "create the royalty configuration of an asset",
		bind:    bindRoyalty(true),
	},
	"royalty-update": {
		summary: "replace the split of a mutable royalty configuration",
		bind:    bindRoyalty(false),
	},
	"royalty": {
		summary: "show the royalty configuration of an asset",
		bind: func(fs *flag.FlagSet) func(context.Context, *session) error {
			return func(ctx context.Context, s *session) error {
				asset, err := s.arg("asset mint")
				if err != nil {
					return err
				}
				resp, err := s.client.GetRoyaltyConfig(ctx, asset)
				if err != nil {
					return err
				}
				printConfig(s, resp.Config)
				return nil
			}
		},
	},
	"sale": {
		summary: "pay for a direct sale, splitting royalties",
		bind: func(fs *flag.FlagSet) func(context.Context, *session) error {
			seller := fs.String("seller", "", "seller identity")
			asset := fs.String("asset", "", "asset mint")
			sellerAsset := fs.String("seller-asset", "", "seller holding with the asset")
			payment := fs.String("payment", "", "buyer payment holding")
			sellerPayment := fs.String("seller-payment", "", "seller payment holding")
			price := fs.String("price", "", "sale price")
			var recipients listFlag
			fs.Var(&recipients, "recipient-holding", "payment holding of a royalty recipient, in configuration order (repeatable)")
			return func(ctx context.Context, s *session) error {
				decimals, err := holdingDecimals(ctx, s, *payment)
				if err != nil {
					return err
				}
				units, err := parseAmount(*price, decimals)
				if err != nil {
					return err
				}
				resp, err := s.client.ProcessSale(ctx, &auctionhouse.SaleRequest{
					Seller:            *seller,
					AssetMint:         *asset,
					SellerAsset:       *sellerAsset,
					BuyerPayment:      *payment,
					SellerPayment:     *sellerPayment,
					RecipientHoldings: recipients,
					SalePrice:         units,
				})
				if err != nil {
					return err
				}
				s.printf("invocation: %s\n", resp.InvocationID)
				s.printf("royalty:    %s\n", formatAmount(resp.Royalty, decimals))
				for _, p := range resp.Payouts {
					s.printf("  %s\t%s\n", p.Recipient, formatAmount(p.Amount, decimals))
				}
				s.printf("seller:     %s\n", formatAmount(resp.SellerAmount, decimals))
				if resp.Dust > 0 {
					s.printf("dust:       %s\n", formatAmount(resp.Dust, decimals))
				}
				return nil
			}
		},
	},
	"journal": {
		summary: "page through the ledger journal",
		bind: func(fs *flag.FlagSet) func(context.Context, *session) error {
			pageSize := fs.Int("page-size", 0, "entries per page")
			pageToken := fs.String("page-token", "", "token from a previous page")
			filter := fs.String("filter", "", `filter, e.g. kind = "transfer"`)
			return func(ctx context.Context, s *session) error {
				resp, err := s.client.ListJournal(ctx, &auctionhouse.ListJournalRequest{
					PageSize:  int32(*pageSize),
					PageToken: *pageToken,
					Filter:    *filter,
				})
				if err != nil {
					return err
				}
				for _, e := range resp.Entries {
					s.printf("%d\t%s\t%s\t%s\t%s -> %s\t%d\n",
						e.Seq, time.UnixMilli(e.At).UTC().Format(time.RFC3339), e.Kind, e.Mint, e.Source, e.Destination, e.Amount)
				}
				if resp.NextPageToken != "" {
					s.printf("next page: %s\n", resp.NextPageToken)
				}
				return nil
			}
		},
	},
}

func bindRoyalty(create bool) func(fs *flag.FlagSet) func(context.Context, *session) error {
	return func(fs *flag.FlagSet) func(context.Context, *session) error {
		asset := fs.String("asset", "", "asset mint")
		holding := fs.String("authority-holding", "", "signer holding with the asset")
		total := fs.Uint("total", 0, "total royalty in basis points")
		var recipients listFlag
		fs.Var(&recipients, "recipient", "key:basis_points:type (repeatable)")
		mutable := false
		if create {
			fs.BoolVar(&mutable, "mutable", false, "allow later updates")
		}
		return func(ctx context.Context, s *session) error {
			if *total > 10_000 {
				return fmt.Errorf("total %d exceeds 10000 basis points", *total)
			}
			parsed, err := parseRecipients(recipients)
			if err != nil {
				return err
			}
			req := &auctionhouse.RoyaltyConfigRequest{
				AssetMint:        *asset,
				AuthorityHolding: *holding,
				TotalBasisPoints: uint16(*total),
				Recipients:       parsed,
				IsMutable:        mutable,
			}
			var resp *auctionhouse.RoyaltyConfigResponse
			if create {
				resp, err = s.client.CreateRoyaltyConfig(ctx, req)
			} else {
				resp, err = s.client.UpdateRoyaltyConfig(ctx, req)
			}
			if err != nil {
				return err
			}
			printConfig(s, resp.Config)
			return nil
		}
	}
}

func parseRecipients(values []string) ([]auctionhouse.Recipient, error) {
	out := make([]auctionhouse.Recipient, 0, len(values))
	for _, value := range values {
		parts := strings.Split(value, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("recipient %q: want key:basis_points:type", value)
		}
		bps, err := strconv.ParseUint(parts[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("recipient %q: %w", value, err)
		}
		out = append(out, auctionhouse.Recipient{Recipient: parts[0], BasisPoints: uint16(bps), Type: parts[2]})
	}
	return out, nil
}

func addressOrRandom(value string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return solana.NewWallet().PublicKey().String()
}

func holdingDecimals(ctx context.Context, s *session, holding string) (uint8, error) {
	h, err := s.client.GetHolding(ctx, holding)
	if err != nil {
		return 0, err
	}
	m, err := s.client.GetMint(ctx, h.Holding.Mint)
	if err != nil {
		return 0, err
	}
	return m.Mint.Decimals, nil
}

// amountFor parses value in the decimals of holding's mint.
func amountFor(ctx context.Context, s *session, holding, value string) (uint64, error) {
	decimals, err := holdingDecimals(ctx, s, holding)
	if err != nil {
		return 0, err
	}
	return parseAmount(value, decimals)
}

func printMint(s *session, m auctionhouse.Mint) {
	s.printf("mint:      %s\n", m.Address)
	s.printf("authority: %s\n", m.Authority)
	s.printf("decimals:  %d\n", m.Decimals)
	s.printf("supply:    %s\n", formatAmount(m.Supply, m.Decimals))
}

func printHolding(ctx context.Context, s *session, h auctionhouse.Holding) error {
	m, err := s.client.GetMint(ctx, h.Mint)
	if err != nil {
		return err
	}
	s.printf("holding: %s\n", h.Address)
	s.printf("mint:    %s\n", h.Mint)
	s.printf("owner:   %s\n", h.Owner)
	s.printf("amount:  %s\n", formatAmount(h.Amount, m.Mint.Decimals))
	return nil
}

func printAuction(ctx context.Context, s *session, a auctionhouse.Auction) error {
	m, err := s.client.GetMint(ctx, a.PaymentMint)
	if err != nil {
		return err
	}
	s.printf("auction:   %s\n", a.Address)
	s.printf("asset:     %s\n", a.AssetMint)
	s.printf("phase:     %s\n", a.Phase)
	s.printf("price:     %s\n", formatAmount(a.Price, m.Mint.Decimals))
	s.printf("ends:      %s\n", time.Unix(a.EndAt, 0).UTC().Format(time.RFC3339))
	if a.HasBid {
		s.printf("leader:    %s\n", a.HighestBidder)
	}
	return nil
}

func printConfig(s *session, cfg auctionhouse.RoyaltyConfig) {
	s.printf("config:    %s\n", cfg.Address)
	s.printf("asset:     %s\n", cfg.AssetMint)
	s.printf("authority: %s\n", cfg.Authority)
	s.printf("total:     %d bps\n", cfg.TotalBasisPoints)
	s.printf("mutable:   %t\n", cfg.IsMutable)
	for _, r := range cfg.Recipients {
		s.printf("  %s\t%d\t%s\n", r.Recipient, r.BasisPoints, r.Type)
	}
}
