package exchange

import (
	"context"

	"github.com/Splendor-Protocol/text-prompting/prompting/config"
	"github.com/Splendor-Protocol/text-prompting/prompting/exchange/adapters"
	ports "github.com/Splendor-Protocol/text-prompting/prompting/exchange/ports"
	"github.com/rs/zerolog"
)

// Factory creates and wires exchange components from configuration.
type Factory struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewFactory creates a new exchange factory.
func NewFactory(cfg *config.Config, logger zerolog.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateResponder creates a fully wired worker-side responder around backend.
func (f *Factory) CreateResponder(backend ports.Backend) *Responder {
	return NewResponder(backend, f.createTracer(), f.createRateLimiter(), f.createLimits(), f.cfg.Exchange.VerifyOnReceive)
}

// CreateExchange creates a client-side exchange over transport.
func (f *Factory) CreateExchange(transport ports.Transport) *Exchange {
	return NewExchange(transport, f.createCache(), f.createTracer(), f.cfg.Exchange.VerifyOnReply, f.cfg.Exchange.CacheTTLSeconds)
}

// CreateLoopbackExchange wires a responder around backend and an exchange
// whose transport hands envelopes straight to it, all in process.
func (f *Factory) CreateLoopbackExchange(backend ports.Backend) *Exchange {
	return f.CreateExchange(adapters.NewLoopback(f.CreateResponder(backend)))
}

// createCache creates a cache adapter from config.
func (f *Factory) createCache() ports.Cache {
	if !f.cfg.Exchange.CacheEnabled {
		return &noOpCache{}
	}

	capacity := f.cfg.Exchange.CacheCapacity
	if capacity < 1 {
		capacity = 1
		f.logger.Warn().Int("cache_capacity", f.cfg.Exchange.CacheCapacity).Msg("CacheCapacity clamped to minimum of 1")
	}

	return adapters.NewLRUCache(capacity)
}

// createTracer creates a tracer adapter from config.
func (f *Factory) createTracer() ports.Tracer {
	if !f.cfg.Exchange.EnableTracing {
		return &noOpTracer{}
	}

	return adapters.NewZerologTracer(f.logger)
}

// createRateLimiter creates a rate limiter adapter from config.
func (f *Factory) createRateLimiter() ports.RateLimiter {
	if !f.cfg.Exchange.RateLimitEnabled {
		return &noOpRateLimiter{}
	}

	capacity := f.cfg.Exchange.RateLimitCapacity
	if capacity < 1 {
		capacity = 1
		f.logger.Warn().Int("rate_limit_capacity", f.cfg.Exchange.RateLimitCapacity).Msg("RateLimitCapacity clamped to minimum of 1")
	}

	return adapters.NewTokenBucket(capacity, f.cfg.Exchange.RateLimitRefillRate)
}

// createLimits builds responder limits from config with validation.
func (f *Factory) createLimits() Limits {
	limits := Limits{
		MaxRoles:        f.cfg.Limits.MaxRoles,
		MaxMessages:     f.cfg.Limits.MaxMessages,
		MaxMessageBytes: f.cfg.Limits.MaxMessageBytes,
	}

	if limits.MaxRoles < 0 {
		limits.MaxRoles = 0
		f.logger.Warn().Int("max_roles", f.cfg.Limits.MaxRoles).Msg("MaxRoles below zero treated as unlimited")
	}
	if limits.MaxMessages < 0 {
		limits.MaxMessages = 0
		f.logger.Warn().Int("max_messages", f.cfg.Limits.MaxMessages).Msg("MaxMessages below zero treated as unlimited")
	}
	if limits.MaxMessageBytes < 0 {
		limits.MaxMessageBytes = 0
		f.logger.Warn().Int("max_message_bytes", f.cfg.Limits.MaxMessageBytes).Msg("MaxMessageBytes below zero treated as unlimited")
	}

	return limits
}

// noOpCache implements Cache interface with no-op behavior for disabled cache.
type noOpCache struct{}

func (c *noOpCache) Get(ctx context.Context, key string) ([]byte, bool) { return nil, false }
func (c *noOpCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	return nil
}
func (c *noOpCache) Delete(ctx context.Context, key string) error { return nil }

// noOpTracer implements Tracer interface with no-op behavior.
type noOpTracer struct{}

func (t *noOpTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	return ctx, func(err error) {}
}

func (t *noOpTracer) Event(ctx context.Context, name string, attrs map[string]any) {}

// noOpRateLimiter implements RateLimiter interface with no-op behavior.
type noOpRateLimiter struct{}

func (r *noOpRateLimiter) Acquire(ctx context.Context, key string) (release func(), err error) {
	return func() {}, nil
}

// Ensure all no-op types implement their interfaces.
var (
	_ ports.Cache       = (*noOpCache)(nil)
	_ ports.Tracer      = (*noOpTracer)(nil)
	_ ports.RateLimiter = (*noOpRateLimiter)(nil)
)
