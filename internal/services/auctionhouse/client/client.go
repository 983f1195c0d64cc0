// Package client calls the auction house gRPC API, signing every mutating
// request with the caller's key.
package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/louisbranch/auctionhouse/internal/platform/grpc/codec"
	"github.com/louisbranch/auctionhouse/internal/platform/timeouts"
	auctionhouse "github.com/louisbranch/auctionhouse/internal/services/auctionhouse/api/grpc/auctionhouse"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ErrNoKey is returned when a signed method is called without a key.
var ErrNoKey = errors.New("a signing key is required for this call")

// DialStage describes where a dial attempt failed.
type DialStage string

const (
	// DialStageConnect indicates the connection could not be created.
	DialStageConnect DialStage = "connect"
	// DialStageHealth indicates the server never reported SERVING.
	DialStageHealth DialStage = "health"
)

// DialError wraps dial and health check failures with a stage indicator.
type DialError struct {
	Stage DialStage
	Err   error
}

func (e *DialError) Error() string {
	if e == nil {
		return "gRPC dial error"
	}
	return fmt.Sprintf("gRPC %s error: %v", e.Stage, e.Err)
}

func (e *DialError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Client is a signing auction house client.
type Client struct {
	conn  *grpc.ClientConn
	key   solana.PrivateKey
	clock clockwork.Clock
	owned bool
}

// Option configures a Client.
type Option func(*Client)

// WithClock sets the clock request timestamps come from.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// New wraps an existing connection. key may be nil for read-only use.
func New(conn *grpc.ClientConn, key solana.PrivateKey, opts ...Option) *Client {
	c := &Client{conn: conn, key: key, clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to addr and waits until the auction house reports SERVING.
func Dial(ctx context.Context, addr string, key solana.PrivateKey, opts ...Option) (*Client, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, &DialError{Stage: DialStageConnect, Err: err}
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCDial)
	defer cancel()
	if err := waitForHealth(dialCtx, conn); err != nil {
		_ = conn.Close()
		return nil, &DialError{Stage: DialStageHealth, Err: err}
	}
	c := New(conn, key, opts...)
	c.owned = true
	return c, nil
}

func waitForHealth(ctx context.Context, conn *grpc.ClientConn) error {
	healthClient := grpc_health_v1.NewHealthClient(conn)
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxInterval = time.Second
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		resp, err := healthClient.Check(callCtx, &grpc_health_v1.HealthCheckRequest{
			Service: auctionhouse.AuctionHouseServiceName,
		})
		if err != nil {
			return struct{}{}, err
		}
		if resp.GetStatus() != grpc_health_v1.HealthCheckResponse_SERVING {
			return struct{}{}, fmt.Errorf("health status %s", resp.GetStatus())
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(policy))
	if err != nil {
		return fmt.Errorf("wait for gRPC health: %w", err)
	}
	return nil
}

// Close closes a connection opened by Dial.
func (c *Client) Close() error {
	if c == nil || c.conn == nil || !c.owned {
		return nil
	}
	return c.conn.Close()
}

// Signer returns the public key requests are signed with, or the zero key.
func (c *Client) Signer() solana.PublicKey {
	if len(c.key) == 0 {
		return solana.PublicKey{}
	}
	return c.key.PublicKey()
}

func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	if auctionhouse.RequiresSignature(method) {
		if len(c.key) == 0 {
			return ErrNoKey
		}
		md, err := auctionhouse.SignRequest(c.key, method, c.clock.Now(), req)
		if err != nil {
			return err
		}
		if existing, ok := metadata.FromOutgoingContext(ctx); ok {
			md = metadata.Join(existing, md)
		}
		ctx = metadata.NewOutgoingContext(ctx, md)
	}
	return c.conn.Invoke(ctx, method, req, resp, grpc.CallContentSubtype(codec.Name))
}

// Exhibit escrows an asset and opens its auction.
func (c *Client) Exhibit(ctx context.Context, req *auctionhouse.ExhibitRequest) (*auctionhouse.AuctionResponse, error) {
	resp := new(auctionhouse.AuctionResponse)
	if err := c.invoke(ctx, auctionhouse.ExhibitMethod, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Bid submits req as is. See BidWithRetry for bids that track the
// current auction state.
func (c *Client) Bid(ctx context.Context, req *auctionhouse.BidRequest) (*auctionhouse.AuctionResponse, error) {
	resp := new(auctionhouse.AuctionResponse)
	if err := c.invoke(ctx, auctionhouse.BidMethod, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) Cancel(ctx context.Context, req *auctionhouse.CancelRequest) (*auctionhouse.CancelResponse, error) {
	resp := new(auctionhouse.CancelResponse)
	if err := c.invoke(ctx, auctionhouse.CancelMethod, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CloseAuction settles an ended auction.
func (c *Client) CloseAuction(ctx context.Context, req *auctionhouse.CloseRequest) (*auctionhouse.CloseResponse, error) {
	resp := new(auctionhouse.CloseResponse)
	if err := c.invoke(ctx, auctionhouse.CloseMethod, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetAuction(ctx context.Context, assetMint string) (*auctionhouse.AuctionResponse, error) {
	resp := new(auctionhouse.AuctionResponse)
	if err := c.invoke(ctx, auctionhouse.GetAuctionMethod, &auctionhouse.GetAuctionRequest{AssetMint: assetMint}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) ListAuctions(ctx context.Context, req *auctionhouse.ListAuctionsRequest) (*auctionhouse.ListAuctionsResponse, error) {
	resp := new(auctionhouse.ListAuctionsResponse)
	if err := c.invoke(ctx, auctionhouse.ListAuctionsMethod, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) CreateRoyaltyConfig(ctx context.Context, req *auctionhouse.RoyaltyConfigRequest) (*auctionhouse.RoyaltyConfigResponse, error) {
	resp := new(auctionhouse.RoyaltyConfigResponse)
	if err := c.invoke(ctx, auctionhouse.CreateRoyaltyConfigMethod, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) UpdateRoyaltyConfig(ctx context.Context, req *auctionhouse.RoyaltyConfigRequest) (*auctionhouse.RoyaltyConfigResponse, error) {
	resp := new(auctionhouse.RoyaltyConfigResponse)
	if err := c.invoke(ctx, auctionhouse.UpdateRoyaltyConfigMethod, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetRoyaltyConfig(ctx context.Context, assetMint string) (*auctionhouse.RoyaltyConfigResponse, error) {
	resp := new(auctionhouse.RoyaltyConfigResponse)
	if err := c.invoke(ctx, auctionhouse.GetRoyaltyConfigMethod, &auctionhouse.GetRoyaltyConfigRequest{AssetMint: assetMint}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ProcessSale pays for a direct sale as the buyer.
func (c *Client) ProcessSale(ctx context.Context, req *auctionhouse.SaleRequest) (*auctionhouse.SaleResponse, error) {
	resp := new(auctionhouse.SaleResponse)
	if err := c.invoke(ctx, auctionhouse.ProcessSaleMethod, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) ListJournal(ctx context.Context, req *auctionhouse.ListJournalRequest) (*auctionhouse.ListJournalResponse, error) {
	resp := new(auctionhouse.ListJournalResponse)
	if err := c.invoke(ctx, auctionhouse.ListJournalMethod, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) CreateMint(ctx context.Context, req *auctionhouse.CreateMintRequest) (*auctionhouse.MintResponse, error) {
	resp := new(auctionhouse.MintResponse)
	if err := c.invoke(ctx, auctionhouse.CreateMintMethod, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetMint(ctx context.Context, address string) (*auctionhouse.MintResponse, error) {
	resp := new(auctionhouse.MintResponse)
	if err := c.invoke(ctx, auctionhouse.GetMintMethod, &auctionhouse.GetMintRequest{Address: address}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) OpenHolding(ctx context.Context, req *auctionhouse.OpenHoldingRequest) (*auctionhouse.HoldingResponse, error) {
	resp := new(auctionhouse.HoldingResponse)
	if err := c.invoke(ctx, auctionhouse.OpenHoldingMethod, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) GetHolding(ctx context.Context, address string) (*auctionhouse.HoldingResponse, error) {
	resp := new(auctionhouse.HoldingResponse)
	if err := c.invoke(ctx, auctionhouse.GetHoldingMethod, &auctionhouse.GetHoldingRequest{Address: address}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) MintTo(ctx context.Context, req *auctionhouse.MintToRequest) (*auctionhouse.HoldingResponse, error) {
	resp := new(auctionhouse.HoldingResponse)
	if err := c.invoke(ctx, auctionhouse.MintToMethod, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// bidAttempts bounds how often BidWithRetry re-reads a contested auction.
const bidAttempts = 5

// BidWithRetry reads the auction, bids against what it saw and, when another
// bid lands first, reads again and resubmits. Only a stale snapshot is
// retried; a bid that is no longer high enough fails like any other error.
func (c *Client) BidWithRetry(ctx context.Context, req auctionhouse.BidRequest) (*auctionhouse.AuctionResponse, error) {
	return backoff.Retry(ctx, func() (*auctionhouse.AuctionResponse, error) {
		current, err := c.GetAuction(ctx, req.AssetMint)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		attempt := req
		attempt.ObservedPrice = current.Auction.Price
		attempt.ObservedBidder = current.Auction.HighestBidder
		resp, err := c.Bid(ctx, &attempt)
		if err == nil {
			return resp, nil
		}
		if status.Code(err) == codes.Aborted {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(bidAttempts))
}
