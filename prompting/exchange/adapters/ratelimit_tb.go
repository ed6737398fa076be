package adapters

import (
	"context"
	"errors"
	"sync"
	"time"

	ports "github.com/Splendor-Protocol/text-prompting/prompting/exchange/ports"
)

// ErrRateLimitExceeded is returned when a bucket has no token to hand out.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// TokenBucket implements a per-key token bucket rate limiter. Tokens are
// consumed by Acquire, handed back by release, and trickle back over time at
// one per refillRate. A non-positive refillRate disables the timed refill,
// leaving a plain concurrency cap.
type TokenBucket struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	capacity   int
	refillRate time.Duration
	now        func() time.Time
}

// bucket tracks the tokens for a single key.
type bucket struct {
	tokens     int
	lastRefill time.Time
}

// NewTokenBucket creates a new token bucket rate limiter.
func NewTokenBucket(capacity int, refillRate time.Duration) *TokenBucket {
	return &TokenBucket{
		buckets:    make(map[string]*bucket),
		capacity:   capacity,
		refillRate: refillRate,
		now:        time.Now,
	}
}

// Acquire attempts to take a token for the given key.
func (tb *TokenBucket) Acquire(ctx context.Context, key string) (release func(), err error) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	b, exists := tb.buckets[key]
	if !exists {
		b = &bucket{
			tokens:     tb.capacity,
			lastRefill: tb.now(),
		}
		tb.buckets[key] = b
	}

	// Refill tokens for the elapsed time
	if tb.refillRate > 0 {
		elapsed := tb.now().Sub(b.lastRefill)
		if refilled := int(elapsed / tb.refillRate); refilled > 0 {
			b.tokens = min(b.tokens+refilled, tb.capacity)
			b.lastRefill = b.lastRefill.Add(time.Duration(refilled) * tb.refillRate)
		}
	}

	if b.tokens <= 0 {
		return nil, ErrRateLimitExceeded
	}

	b.tokens--

	release = func() {
		tb.mu.Lock()
		defer tb.mu.Unlock()
		if b, exists := tb.buckets[key]; exists {
			b.tokens = min(b.tokens+1, tb.capacity)
		}
	}

	return release, nil
}

// Ensure TokenBucket implements the RateLimiter interface.
var _ ports.RateLimiter = (*TokenBucket)(nil)
