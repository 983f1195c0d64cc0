package authz

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jellydator/ttlcache/v3"
)

// DefaultCacheTTL is how long a positive answer is reused.
const DefaultCacheTTL = time.Hour

type cacheKey struct {
	user  solana.PublicKey
	asset solana.PublicKey
}

// Cached remembers positive answers of another Oracle for a fixed TTL.
// Refusals and errors are never cached.
type Cached struct {
	next  Oracle
	cache *ttlcache.Cache[cacheKey, struct{}]
}

// CacheOption configures a Cached oracle.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	ttl      time.Duration
	capacity uint64
}

// WithTTL overrides DefaultCacheTTL.
func WithTTL(ttl time.Duration) CacheOption {
	return func(o *cacheOptions) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithCapacity bounds the number of cached answers.
func WithCapacity(capacity uint64) CacheOption {
	return func(o *cacheOptions) {
		o.capacity = capacity
	}
}

// NewCached wraps next. Call Start to evict expired entries in the
// background; expired entries are ignored either way.
func NewCached(next Oracle, opts ...CacheOption) *Cached {
	o := cacheOptions{ttl: DefaultCacheTTL}
	for _, opt := range opts {
		opt(&o)
	}
	cacheOpts := []ttlcache.Option[cacheKey, struct{}]{
		ttlcache.WithTTL[cacheKey, struct{}](o.ttl),
		ttlcache.WithDisableTouchOnHit[cacheKey, struct{}](),
	}
	if o.capacity > 0 {
		cacheOpts = append(cacheOpts, ttlcache.WithCapacity[cacheKey, struct{}](o.capacity))
	}
	return &Cached{
		next:  next,
		cache: ttlcache.New(cacheOpts...),
	}
}

// Check implements Oracle.
func (c *Cached) Check(ctx context.Context, user, asset solana.PublicKey) (bool, error) {
	key := cacheKey{user: user, asset: asset}
	if c.cache.Has(key) {
		return true, nil
	}
	ok, err := c.next.Check(ctx, user, asset)
	if err != nil || !ok {
		return ok, err
	}
	c.cache.Set(key, struct{}{}, ttlcache.DefaultTTL)
	return true, nil
}

// Invalidate drops any cached answer for user and asset.
func (c *Cached) Invalidate(user, asset solana.PublicKey) {
	c.cache.Delete(cacheKey{user: user, asset: asset})
}

// Start runs expired-entry eviction until Stop is called.
func (c *Cached) Start() {
	c.cache.Start()
}

// Stop ends background eviction.
func (c *Cached) Stop() {
	c.cache.Stop()
}
