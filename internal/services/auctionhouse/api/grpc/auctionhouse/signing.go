package auctionhouse

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jellydator/ttlcache/v3"
	"github.com/jonboulle/clockwork"
	apperrors "github.com/louisbranch/auctionhouse/internal/platform/errors"
	"github.com/louisbranch/auctionhouse/internal/platform/grpc/codec"
	"github.com/louisbranch/auctionhouse/internal/platform/requestctx"
	"github.com/louisbranch/auctionhouse/internal/platform/timeouts"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// Request signature metadata keys.
const (
	MetadataSigner    = "x-auctionhouse-signer"
	MetadataTimestamp = "x-auctionhouse-timestamp"
	MetadataSignature = "x-auctionhouse-signature"
)

var (
	// ErrSignatureInvalid indicates a missing, malformed, expired or wrong signature.
	ErrSignatureInvalid = apperrors.New(apperrors.CodeRequestSignatureInvalid, "request signature is invalid")
	// ErrSignatureReplayed indicates a signature that was already accepted.
	ErrSignatureReplayed = apperrors.New(apperrors.CodeRequestSignatureReplayed, "request signature was replayed")
)

// SigningPayload returns the bytes signed for a call: the full method, the
// unix millisecond timestamp and the CBOR request, newline separated.
func SigningPayload(fullMethod string, timestamp int64, req any) ([]byte, error) {
	body, err := codec.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	payload := fmt.Appendf(nil, "%s\n%d\n", fullMethod, timestamp)
	return append(payload, body...), nil
}

// SignRequest returns the outgoing metadata that authenticates req as key.
func SignRequest(key solana.PrivateKey, fullMethod string, at time.Time, req any) (metadata.MD, error) {
	timestamp := at.UnixMilli()
	payload, err := SigningPayload(fullMethod, timestamp, req)
	if err != nil {
		return nil, err
	}
	signature, err := key.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}
	return metadata.Pairs(
		MetadataSigner, key.PublicKey().String(),
		MetadataTimestamp, strconv.FormatInt(timestamp, 10),
		MetadataSignature, signature.String(),
	), nil
}

// Verifier authenticates signed calls and rejects replays.
type Verifier struct {
	clock clockwork.Clock
	skew  time.Duration
	seen  *ttlcache.Cache[string, struct{}]
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithSkew sets the accepted distance between the signed timestamp and the
// server clock.
func WithSkew(skew time.Duration) VerifierOption {
	return func(v *Verifier) {
		if skew > 0 {
			v.skew = skew
		}
	}
}

// WithVerifierClock sets the clock timestamps are checked against.
func WithVerifierClock(clock clockwork.Clock) VerifierOption {
	return func(v *Verifier) {
		if clock != nil {
			v.clock = clock
		}
	}
}

// NewVerifier creates a verifier. Accepted signatures are remembered for
// twice the skew, which covers every timestamp that could still pass.
func NewVerifier(opts ...VerifierOption) *Verifier {
	v := &Verifier{
		clock: clockwork.NewRealClock(),
		skew:  timeouts.SignatureSkew,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.seen = ttlcache.New[string, struct{}](
		ttlcache.WithTTL[string, struct{}](2 * v.skew),
	)
	return v
}

// Start runs expiry of remembered signatures until Stop.
func (v *Verifier) Start() {
	go v.seen.Start()
}

// Stop ends expiry.
func (v *Verifier) Stop() {
	v.seen.Stop()
}

// UnaryServerInterceptor verifies signed methods and stores the signer in
// the request context. Unsigned methods pass through untouched.
func (v *Verifier) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !RequiresSignature(info.FullMethod) {
			return handler(ctx, req)
		}
		signer, err := v.Verify(ctx, info.FullMethod, req)
		if err != nil {
			return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
		}
		return handler(requestctx.WithSigner(ctx, signer), req)
	}
}

// Verify checks the signature metadata on ctx for req and returns the signer.
func (v *Verifier) Verify(ctx context.Context, fullMethod string, req any) (solana.PublicKey, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	signerValue := firstValue(md, MetadataSigner)
	timestampValue := firstValue(md, MetadataTimestamp)
	signatureValue := firstValue(md, MetadataSignature)
	if signerValue == "" || timestampValue == "" || signatureValue == "" {
		return solana.PublicKey{}, ErrSignatureInvalid.With("request is not signed")
	}
	signer, err := solana.PublicKeyFromBase58(signerValue)
	if err != nil {
		return solana.PublicKey{}, ErrSignatureInvalid.With("malformed signer")
	}
	timestamp, err := strconv.ParseInt(timestampValue, 10, 64)
	if err != nil {
		return solana.PublicKey{}, ErrSignatureInvalid.With("malformed timestamp")
	}
	signature, err := solana.SignatureFromBase58(signatureValue)
	if err != nil {
		return solana.PublicKey{}, ErrSignatureInvalid.With("malformed signature")
	}

	drift := v.clock.Now().Sub(time.UnixMilli(timestamp))
	if drift < 0 {
		drift = -drift
	}
	if drift > v.skew {
		return solana.PublicKey{}, ErrSignatureInvalid.With(fmt.Sprintf("timestamp is %s away from server time", drift.Round(time.Second)))
	}
	payload, err := SigningPayload(fullMethod, timestamp, req)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !signature.Verify(signer, payload) {
		return solana.PublicKey{}, ErrSignatureInvalid.With("signature does not match request")
	}
	if _, found := v.seen.GetOrSet(signatureValue, struct{}{}); found {
		return solana.PublicKey{}, ErrSignatureReplayed.With("signature already used")
	}
	return signer, nil
}

func firstValue(md metadata.MD, key string) string {
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
