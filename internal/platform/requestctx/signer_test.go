package requestctx

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
)

func TestSignerFromContextRoundTrip(t *testing.T) {
	key := solana.MustPublicKeyFromBase58("9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin")
	got, ok := SignerFromContext(WithSigner(context.Background(), key))
	if !ok {
		t.Fatal("expected signer in context")
	}
	if !got.Equals(key) {
		t.Fatalf("SignerFromContext = %s, want %s", got, key)
	}
}

func TestSignerFromContextEmpty(t *testing.T) {
	if _, ok := SignerFromContext(context.Background()); ok {
		t.Fatal("expected no signer")
	}
	if _, ok := SignerFromContext(nil); ok {
		t.Fatal("expected no signer for nil context")
	}
	if _, ok := SignerFromContext(WithSigner(nil, solana.PublicKey{})); ok {
		t.Fatal("expected zero key to be treated as missing")
	}
}
