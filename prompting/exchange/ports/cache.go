package exchangeports

import "context"

// Cache provides idempotent memoization of completions keyed by prompt
// fingerprint.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, ok bool)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
