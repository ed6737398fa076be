package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Splendor-Protocol/text-prompting/prompting"
	"github.com/Splendor-Protocol/text-prompting/prompting/config"
	adapters "github.com/Splendor-Protocol/text-prompting/prompting/exchange/adapters"
	ports "github.com/Splendor-Protocol/text-prompting/prompting/exchange/ports"
)

// StubBackend implements Backend for testing.
type StubBackend struct {
	mu           sync.Mutex
	calls        int
	completeFunc func(ctx context.Context, roles, messages []string) (string, error)
}

func (b *StubBackend) Complete(ctx context.Context, roles, messages []string) (string, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()

	if b.completeFunc != nil {
		return b.completeFunc(ctx, roles, messages)
	}
	if len(messages) == 0 {
		return "nothing to answer", nil
	}
	return "echo: " + messages[len(messages)-1], nil
}

func (b *StubBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// Ensure StubBackend implements the Backend interface.
var _ ports.Backend = (*StubBackend)(nil)

// transportFunc adapts a function to the Transport interface.
type transportFunc func(ctx context.Context, payload []byte) ([]byte, error)

func (f transportFunc) RoundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	return f(ctx, payload)
}

func testConfig() *config.Config {
	return &config.Config{
		Exchange: config.ExchangeConfig{
			VerifyOnReceive: true,
			VerifyOnReply:   true,
			CacheEnabled:    false,
			CacheCapacity:   16,
			CacheTTLSeconds: 60,
			EnableTracing:   false,
		},
	}
}

func newTestFactory(cfg *config.Config) *Factory {
	return NewFactory(cfg, zerolog.Nop())
}

func newRequest(t *testing.T) *prompting.PromptMessage {
	t.Helper()
	msg, err := prompting.New(
		[]string{"system", "user"},
		[]string{"You are a helpful assistant.", "What is 6 times 7?"},
	)
	require.NoError(t, err)
	return msg
}

// tamperLastMessage rewrites the last message body of an encoded envelope
// without touching its transmitted hashes.
func tamperLastMessage(t *testing.T, payload []byte) []byte {
	t.Helper()
	var env prompting.Envelope
	require.NoError(t, json.Unmarshal(payload, &env))
	require.NotEmpty(t, env.Messages)
	env.Messages[len(env.Messages)-1] = "tampered in flight"
	out, err := json.Marshal(env)
	require.NoError(t, err)
	return out
}

// TestExchange_LoopbackRoundTrip tests a full request/reply cycle in process.
func TestExchange_LoopbackRoundTrip(t *testing.T) {
	backend := &StubBackend{}
	ex := newTestFactory(testConfig()).CreateLoopbackExchange(backend)

	req := newRequest(t)
	reply, err := ex.Do(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "echo: What is 6 times 7?", reply.Completion())

	// The reply carries the same conversation and fingerprints
	assert.Equal(t, req.Roles(), reply.Roles())
	assert.Equal(t, req.Messages(), reply.Messages())
	assert.Equal(t, req.RolesHash(), reply.RolesHash())
	assert.Equal(t, req.MessagesHash(), reply.MessagesHash())

	// The request message itself stays unanswered
	assert.Empty(t, req.Completion())
	assert.Equal(t, 1, backend.Calls())
}

// TestExchange_TracedRoundTrip tests the round trip with the zerolog tracer wired in.
func TestExchange_TracedRoundTrip(t *testing.T) {
	cfg := testConfig()
	cfg.Exchange.EnableTracing = true

	ex := newTestFactory(cfg).CreateLoopbackExchange(&StubBackend{})

	reply, err := ex.Do(context.Background(), newRequest(t))

	require.NoError(t, err)
	assert.NotEmpty(t, reply.Completion())
}

// TestExchange_BackendError tests backend failure propagation through the loopback.
func TestExchange_BackendError(t *testing.T) {
	backend := &StubBackend{
		completeFunc: func(ctx context.Context, roles, messages []string) (string, error) {
			return "", errors.New("model exploded")
		},
	}
	ex := newTestFactory(testConfig()).CreateLoopbackExchange(backend)

	_, err := ex.Do(context.Background(), newRequest(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend completion failed")
	assert.Contains(t, err.Error(), "model exploded")
}

// TestExchange_TransportError tests transport failure propagation.
func TestExchange_TransportError(t *testing.T) {
	down := transportFunc(func(ctx context.Context, payload []byte) ([]byte, error) {
		return nil, errors.New("connection refused")
	})
	ex := newTestFactory(testConfig()).CreateExchange(down)

	_, err := ex.Do(context.Background(), newRequest(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport round trip failed")
}

// TestExchange_TamperedReply tests that reply verification catches a payload
// mutated after the responder signed off.
func TestExchange_TamperedReply(t *testing.T) {
	factory := newTestFactory(testConfig())
	responder := factory.CreateResponder(&StubBackend{})

	tampering := transportFunc(func(ctx context.Context, payload []byte) ([]byte, error) {
		reply, err := responder.Respond(ctx, payload)
		if err != nil {
			return nil, err
		}
		return tamperLastMessage(t, reply), nil
	})
	ex := factory.CreateExchange(tampering)

	_, err := ex.Do(context.Background(), newRequest(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, prompting.ErrHashMismatch)

	var mismatch *prompting.HashMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "messagesHash", mismatch.Field)
}

// TestExchange_SwappedReply tests that a reply about a different conversation
// is rejected even when internally consistent.
func TestExchange_SwappedReply(t *testing.T) {
	swapping := transportFunc(func(ctx context.Context, payload []byte) ([]byte, error) {
		other, err := prompting.New(
			[]string{"user"},
			[]string{"Unrelated question"},
			prompting.WithCompletion("unrelated answer"),
		)
		if err != nil {
			return nil, err
		}
		return prompting.Encode(other)
	})
	ex := newTestFactory(testConfig()).CreateExchange(swapping)

	_, err := ex.Do(context.Background(), newRequest(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, prompting.ErrHashMismatch)
}

// TestExchange_GarbageReply tests that an undecodable reply fails validation.
func TestExchange_GarbageReply(t *testing.T) {
	garbage := transportFunc(func(ctx context.Context, payload []byte) ([]byte, error) {
		return []byte("definitely not an envelope"), nil
	})
	ex := newTestFactory(testConfig()).CreateExchange(garbage)

	_, err := ex.Do(context.Background(), newRequest(t))

	require.Error(t, err)
	assert.ErrorIs(t, err, prompting.ErrValidation)
}

// TestExchange_CachesCompletions tests completion memoization across repeats
// of the same conversation.
func TestExchange_CachesCompletions(t *testing.T) {
	cfg := testConfig()
	cfg.Exchange.CacheEnabled = true

	backend := &StubBackend{}
	ex := newTestFactory(cfg).CreateLoopbackExchange(backend)

	first, err := ex.Do(context.Background(), newRequest(t))
	require.NoError(t, err)
	require.Equal(t, 1, backend.Calls())

	// Same conversation again: answered from cache
	second, err := ex.Do(context.Background(), newRequest(t))
	require.NoError(t, err)
	assert.Equal(t, 1, backend.Calls())
	assert.Equal(t, first.Completion(), second.Completion())
	assert.Equal(t, first.MessagesHash(), second.MessagesHash())

	// A different conversation misses the cache
	other, err := prompting.New([]string{"user"}, []string{"Something new"})
	require.NoError(t, err)
	_, err = ex.Do(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.Calls())
}

// TestExchange_CacheDisabled tests that the no-op cache never short-circuits
// the backend.
func TestExchange_CacheDisabled(t *testing.T) {
	backend := &StubBackend{}
	ex := newTestFactory(testConfig()).CreateLoopbackExchange(backend)

	_, err := ex.Do(context.Background(), newRequest(t))
	require.NoError(t, err)
	_, err = ex.Do(context.Background(), newRequest(t))
	require.NoError(t, err)

	assert.Equal(t, 2, backend.Calls())
}

// TestResponder_RejectsTamperedRequest tests receive-side verification.
func TestResponder_RejectsTamperedRequest(t *testing.T) {
	payload, err := prompting.Encode(newRequest(t))
	require.NoError(t, err)
	tampered := tamperLastMessage(t, payload)

	responder := newTestFactory(testConfig()).CreateResponder(&StubBackend{})
	_, err = responder.Respond(context.Background(), tampered)

	require.Error(t, err)
	assert.ErrorIs(t, err, prompting.ErrHashMismatch)
}

// TestResponder_VerificationOptOut tests that a responder configured without
// receive-side verification trusts transmitted hashes.
func TestResponder_VerificationOptOut(t *testing.T) {
	payload, err := prompting.Encode(newRequest(t))
	require.NoError(t, err)
	tampered := tamperLastMessage(t, payload)

	cfg := testConfig()
	cfg.Exchange.VerifyOnReceive = false
	responder := newTestFactory(cfg).CreateResponder(&StubBackend{})

	reply, err := responder.Respond(context.Background(), tampered)

	require.NoError(t, err)
	msg, err := prompting.Decode(reply)
	require.NoError(t, err)
	assert.Equal(t, "echo: tampered in flight", msg.Completion())
}

// TestResponder_EnforcesLimits tests request shape limits at the boundary.
func TestResponder_EnforcesLimits(t *testing.T) {
	cfg := testConfig()
	cfg.Limits = config.LimitsConfig{MaxRoles: 4, MaxMessages: 1, MaxMessageBytes: 1024}
	responder := newTestFactory(cfg).CreateResponder(&StubBackend{})

	payload, err := prompting.Encode(newRequest(t))
	require.NoError(t, err)

	_, err = responder.Respond(context.Background(), payload)

	require.Error(t, err)
	assert.ErrorIs(t, err, prompting.ErrValidation)

	var verr *prompting.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "messages", verr.Field)
}

// TestResponder_EnforcesMessageBytes tests the per-message size limit.
func TestResponder_EnforcesMessageBytes(t *testing.T) {
	cfg := testConfig()
	cfg.Limits = config.LimitsConfig{MaxMessageBytes: 8}
	responder := newTestFactory(cfg).CreateResponder(&StubBackend{})

	msg, err := prompting.New([]string{"user"}, []string{"this message is far too long"})
	require.NoError(t, err)
	payload, err := prompting.Encode(msg)
	require.NoError(t, err)

	_, err = responder.Respond(context.Background(), payload)

	require.Error(t, err)
	assert.ErrorIs(t, err, prompting.ErrValidation)
}

// TestResponder_RateLimited tests that a second in-flight request is refused
// once the token bucket is drained.
func TestResponder_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Exchange.RateLimitEnabled = true
	cfg.Exchange.RateLimitCapacity = 1
	cfg.Exchange.RateLimitRefillRate = time.Hour

	entered := make(chan struct{}, 1)
	unblock := make(chan struct{})
	backend := &StubBackend{
		completeFunc: func(ctx context.Context, roles, messages []string) (string, error) {
			entered <- struct{}{}
			<-unblock
			return "slow answer", nil
		},
	}
	responder := newTestFactory(cfg).CreateResponder(backend)

	payload, err := prompting.Encode(newRequest(t))
	require.NoError(t, err)

	firstErr := make(chan error, 1)
	var wg conc.WaitGroup
	wg.Go(func() {
		_, err := responder.Respond(context.Background(), payload)
		firstErr <- err
	})

	// First request holds the only token inside the backend
	<-entered

	_, err = responder.Respond(context.Background(), payload)
	require.Error(t, err)
	assert.ErrorIs(t, err, adapters.ErrRateLimitExceeded)

	close(unblock)
	wg.Wait()
	assert.NoError(t, <-firstErr)
}

// TestResponder_GarbagePayload tests that undecodable requests fail fast.
func TestResponder_GarbagePayload(t *testing.T) {
	responder := newTestFactory(testConfig()).CreateResponder(&StubBackend{})

	_, err := responder.Respond(context.Background(), []byte(`{"roles": "not an array"}`))

	require.Error(t, err)
	assert.ErrorIs(t, err, prompting.ErrValidation)
}

// TestFactory_ClampsMisconfiguration tests that nonsense config values are
// normalized instead of breaking the wiring.
func TestFactory_ClampsMisconfiguration(t *testing.T) {
	cfg := testConfig()
	cfg.Exchange.CacheEnabled = true
	cfg.Exchange.CacheCapacity = 0
	cfg.Limits = config.LimitsConfig{MaxRoles: -1, MaxMessages: -5, MaxMessageBytes: -100}

	factory := newTestFactory(cfg)
	ex := factory.CreateLoopbackExchange(&StubBackend{})

	// Negative limits behave as unlimited and the clamped cache still works
	reply, err := ex.Do(context.Background(), newRequest(t))
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Completion())
}

// TestNoOpAdapters tests the disabled-path stand-ins directly.
func TestNoOpAdapters(t *testing.T) {
	ctx := context.Background()

	cache := &noOpCache{}
	assert.NoError(t, cache.Set(ctx, "key", []byte("value"), 60))
	_, ok := cache.Get(ctx, "key")
	assert.False(t, ok)
	assert.NoError(t, cache.Delete(ctx, "key"))

	tracer := &noOpTracer{}
	spanCtx, finish := tracer.StartSpan(ctx, "span", nil)
	assert.Equal(t, ctx, spanCtx)
	finish(nil)
	tracer.Event(ctx, "event", nil)
}
