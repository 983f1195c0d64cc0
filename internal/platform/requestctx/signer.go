// Package requestctx carries per-request identity through context.
package requestctx

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// signerContextKey is the context key for the verified request signer.
type signerContextKey struct{}

// WithSigner stores the verified signer identity in context.
func WithSigner(ctx context.Context, signer solana.PublicKey) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, signerContextKey{}, signer)
}

// SignerFromContext returns the verified signer stored in context and
// whether one was present.
func SignerFromContext(ctx context.Context) (solana.PublicKey, bool) {
	if ctx == nil {
		return solana.PublicKey{}, false
	}
	value, ok := ctx.Value(signerContextKey{}).(solana.PublicKey)
	if !ok || value.IsZero() {
		return solana.PublicKey{}, false
	}
	return value, true
}
