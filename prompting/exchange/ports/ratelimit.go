package exchangeports

import "context"

// RateLimiter throttles work admitted per key. Acquire hands back a release
// to call once the work finishes.
type RateLimiter interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
