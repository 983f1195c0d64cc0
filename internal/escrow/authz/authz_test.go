package authz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
)

func newKey(t *testing.T) solana.PublicKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	return key.PublicKey()
}

type countingOracle struct {
	calls  int
	answer bool
	err    error
}

func (o *countingOracle) Check(context.Context, solana.PublicKey, solana.PublicKey) (bool, error) {
	o.calls++
	return o.answer, o.err
}

func TestRequire(t *testing.T) {
	t.Parallel()

	user, asset := newKey(t), newKey(t)
	ctx := context.Background()

	if err := Require(ctx, nil, user, asset); err != nil {
		t.Fatalf("nil oracle: %v", err)
	}
	if err := Require(ctx, &countingOracle{answer: true}, user, asset); err != nil {
		t.Fatalf("allowing oracle: %v", err)
	}
	if err := Require(ctx, &countingOracle{}, user, asset); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("refusing oracle = %v, want access denied", err)
	}
	boom := errors.New("metadata service down")
	if err := Require(ctx, &countingOracle{err: boom}, user, asset); !errors.Is(err, boom) {
		t.Fatalf("failing oracle = %v, want wrapped cause", err)
	}
}

func TestAllowlist(t *testing.T) {
	t.Parallel()

	listed, other := newKey(t), newKey(t)
	user := newKey(t)
	ctx := context.Background()

	open := NewAllowlist()
	if ok, _ := open.Check(ctx, user, other); !ok {
		t.Fatal("expected empty allowlist to allow every asset")
	}

	list, err := ParseAllowlist([]string{listed.String(), ""})
	if err != nil {
		t.Fatalf("parse allowlist: %v", err)
	}
	if ok, _ := list.Check(ctx, user, listed); !ok {
		t.Fatal("expected listed asset to be allowed")
	}
	if ok, _ := list.Check(ctx, user, other); ok {
		t.Fatal("expected unlisted asset to be refused")
	}
	if _, err := ParseAllowlist([]string{"not-base58!"}); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestCachedReusesPositiveAnswers(t *testing.T) {
	t.Parallel()

	user, asset := newKey(t), newKey(t)
	next := &countingOracle{answer: true}
	cached := NewCached(next)

	for i := 0; i < 3; i++ {
		ok, err := cached.Check(context.Background(), user, asset)
		if err != nil || !ok {
			t.Fatalf("check = %v, %v, want true", ok, err)
		}
	}
	if next.calls != 1 {
		t.Fatalf("oracle calls = %d, want 1", next.calls)
	}

	cached.Invalidate(user, asset)
	if _, err := cached.Check(context.Background(), user, asset); err != nil {
		t.Fatalf("check: %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("oracle calls after invalidate = %d, want 2", next.calls)
	}
}

func TestCachedDoesNotCacheRefusals(t *testing.T) {
	t.Parallel()

	user, asset := newKey(t), newKey(t)
	next := &countingOracle{}
	cached := NewCached(next)

	for i := 0; i < 2; i++ {
		if ok, _ := cached.Check(context.Background(), user, asset); ok {
			t.Fatal("expected refusal")
		}
	}
	if next.calls != 2 {
		t.Fatalf("oracle calls = %d, want 2", next.calls)
	}
}

func TestCachedExpires(t *testing.T) {
	t.Parallel()

	user, asset := newKey(t), newKey(t)
	next := &countingOracle{answer: true}
	cached := NewCached(next, WithTTL(20*time.Millisecond), WithCapacity(10))

	if _, err := cached.Check(context.Background(), user, asset); err != nil {
		t.Fatalf("check: %v", err)
	}
	time.Sleep(40 * time.Millisecond)
	if _, err := cached.Check(context.Background(), user, asset); err != nil {
		t.Fatalf("check: %v", err)
	}
	if next.calls != 2 {
		t.Fatalf("oracle calls = %d, want 2", next.calls)
	}
}
