package auctionhouse

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	apperrors "github.com/louisbranch/auctionhouse/internal/platform/errors"
	"github.com/louisbranch/auctionhouse/internal/platform/requestctx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var signedAt = time.Date(2026, time.May, 4, 18, 0, 0, 0, time.UTC)

func newSigningKey(t *testing.T) solana.PrivateKey {
	t.Helper()

	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	return key
}

func signedContext(t *testing.T, key solana.PrivateKey, method string, at time.Time, req any) context.Context {
	t.Helper()

	md, err := SignRequest(key, method, at, req)
	if err != nil {
		t.Fatalf("sign request: %v", err)
	}
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestVerifyAcceptsSignedRequest(t *testing.T) {
	t.Parallel()

	key := newSigningKey(t)
	v := NewVerifier(WithVerifierClock(clockwork.NewFakeClockAt(signedAt)))
	req := &BidRequest{AssetMint: "mint", Price: 150}
	ctx := signedContext(t, key, BidMethod, signedAt.Add(-time.Minute), req)

	signer, err := v.Verify(ctx, BidMethod, req)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !signer.Equals(key.PublicKey()) {
		t.Fatalf("signer = %s, want %s", signer, key.PublicKey())
	}
}

func TestVerifyRejects(t *testing.T) {
	t.Parallel()

	key := newSigningKey(t)
	req := &BidRequest{AssetMint: "mint", Price: 150}

	tests := []struct {
		name   string
		ctx    func() context.Context
		method string
		req    any
		want   apperrors.Code
	}{
		{
			name:   "unsigned",
			ctx:    context.Background,
			method: BidMethod,
			req:    req,
			want:   apperrors.CodeRequestSignatureInvalid,
		},
		{
			name:   "tampered request",
			ctx:    func() context.Context { return signedContext(t, key, BidMethod, signedAt, req) },
			method: BidMethod,
			req:    &BidRequest{AssetMint: "mint", Price: 151},
			want:   apperrors.CodeRequestSignatureInvalid,
		},
		{
			name:   "other method",
			ctx:    func() context.Context { return signedContext(t, key, BidMethod, signedAt, req) },
			method: CloseMethod,
			req:    req,
			want:   apperrors.CodeRequestSignatureInvalid,
		},
		{
			name:   "too old",
			ctx:    func() context.Context { return signedContext(t, key, BidMethod, signedAt.Add(-6*time.Minute), req) },
			method: BidMethod,
			req:    req,
			want:   apperrors.CodeRequestSignatureInvalid,
		},
		{
			name:   "from the future",
			ctx:    func() context.Context { return signedContext(t, key, BidMethod, signedAt.Add(6*time.Minute), req) },
			method: BidMethod,
			req:    req,
			want:   apperrors.CodeRequestSignatureInvalid,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := NewVerifier(WithVerifierClock(clockwork.NewFakeClockAt(signedAt)))
			_, err := v.Verify(tc.ctx(), tc.method, tc.req)
			if got := apperrors.GetCode(err); got != tc.want {
				t.Fatalf("code = %s, want %s (err %v)", got, tc.want, err)
			}
		})
	}
}

func TestVerifyRejectsReplay(t *testing.T) {
	t.Parallel()

	key := newSigningKey(t)
	v := NewVerifier(WithVerifierClock(clockwork.NewFakeClockAt(signedAt)))
	req := &CancelRequest{AssetMint: "mint", AssetDestination: "dest"}
	ctx := signedContext(t, key, CancelMethod, signedAt, req)

	if _, err := v.Verify(ctx, CancelMethod, req); err != nil {
		t.Fatalf("first verify: %v", err)
	}
	_, err := v.Verify(ctx, CancelMethod, req)
	if !apperrors.IsCode(err, apperrors.CodeRequestSignatureReplayed) {
		t.Fatalf("replay = %v, want %s", err, apperrors.CodeRequestSignatureReplayed)
	}
}

func TestInterceptorStoresSignerAndSkipsReads(t *testing.T) {
	t.Parallel()

	key := newSigningKey(t)
	v := NewVerifier(WithVerifierClock(clockwork.NewFakeClockAt(signedAt)))
	intercept := v.UnaryServerInterceptor()

	var seen solana.PublicKey
	handler := func(ctx context.Context, _ any) (any, error) {
		seen, _ = requestctx.SignerFromContext(ctx)
		return "ok", nil
	}

	read := &GetAuctionRequest{AssetMint: "mint"}
	if _, err := intercept(context.Background(), read, &grpc.UnaryServerInfo{FullMethod: GetAuctionMethod}, handler); err != nil {
		t.Fatalf("unsigned read: %v", err)
	}
	if !seen.IsZero() {
		t.Fatalf("read signer = %s, want none", seen)
	}

	write := &ExhibitRequest{AssetSource: "a", InitialPrice: 1, DurationSeconds: 60}
	_, err := intercept(context.Background(), write, &grpc.UnaryServerInfo{FullMethod: ExhibitMethod}, handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("unsigned write code = %s, want Unauthenticated", status.Code(err))
	}

	ctx := signedContext(t, key, ExhibitMethod, signedAt, write)
	if _, err := intercept(ctx, write, &grpc.UnaryServerInfo{FullMethod: ExhibitMethod}, handler); err != nil {
		t.Fatalf("signed write: %v", err)
	}
	if !seen.Equals(key.PublicKey()) {
		t.Fatalf("write signer = %s, want %s", seen, key.PublicKey())
	}
}
