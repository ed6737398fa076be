package exchange

import (
	"context"
	"fmt"

	"github.com/Splendor-Protocol/text-prompting/prompting"
	ports "github.com/Splendor-Protocol/text-prompting/prompting/exchange/ports"
	"github.com/google/uuid"
)

// Exchange drives the client side of a prompt round trip: encode the
// request, move it across the transport, decode the reply, and hand back the
// message carrying the completion. The request message is never mutated; the
// answer always arrives on a new message.
type Exchange struct {
	transport   ports.Transport
	cache       ports.Cache
	tracer      ports.Tracer
	verifyReply bool
	cacheTTL    int
}

// NewExchange creates an exchange over transport. With verifyReply set every
// decoded reply has its fingerprints recomputed and compared against the
// request before it is returned. Completions are memoized through cache with
// the given TTL.
func NewExchange(transport ports.Transport, cache ports.Cache, tracer ports.Tracer, verifyReply bool, cacheTTLSeconds int) *Exchange {
	return &Exchange{
		transport:   transport,
		cache:       cache,
		tracer:      tracer,
		verifyReply: verifyReply,
		cacheTTL:    cacheTTLSeconds,
	}
}

// Do sends msg across the transport and returns the decoded reply.
func (e *Exchange) Do(ctx context.Context, msg *prompting.PromptMessage) (reply *prompting.PromptMessage, err error) {
	ctx, finish := e.tracer.StartSpan(ctx, "exchange", map[string]any{
		"request_id":    uuid.NewString(),
		"roles_hash":    msg.RolesHash(),
		"messages_hash": msg.MessagesHash(),
	})
	defer func() { finish(err) }()

	// Try cache first
	cacheKey := promptKey(msg)
	if cached, ok := e.cache.Get(ctx, cacheKey); ok {
		e.tracer.Event(ctx, "cache_hit", map[string]any{"key": cacheKey})
		return prompting.New(msg.Roles(), msg.Messages(), prompting.WithCompletion(string(cached)))
	}

	payload, err := prompting.Encode(msg)
	if err != nil {
		return nil, err
	}

	raw, err := e.transport.RoundTrip(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("transport round trip failed: %w", err)
	}

	reply, err = prompting.Decode(raw)
	if err != nil {
		return nil, err
	}

	if e.verifyReply {
		if err = reply.Verify(); err != nil {
			e.tracer.Event(ctx, "hash_mismatch", map[string]any{"error": err.Error()})
			return nil, err
		}
		if err = replyMatchesRequest(msg, reply); err != nil {
			e.tracer.Event(ctx, "hash_mismatch", map[string]any{"error": err.Error()})
			return nil, err
		}
	}

	if completion := reply.Completion(); completion != "" {
		if cerr := e.cache.Set(ctx, cacheKey, []byte(completion), e.cacheTTL); cerr != nil {
			// Log but don't fail
			e.tracer.Event(ctx, "cache_error", map[string]any{"error": cerr.Error()})
		}
	}

	return reply, nil
}

// promptKey derives the cache key for a message from its two fingerprints.
func promptKey(m *prompting.PromptMessage) string {
	return m.RolesHash() + ":" + m.MessagesHash()
}

// replyMatchesRequest confirms the reply still carries the conversation the
// request asked about.
func replyMatchesRequest(req, reply *prompting.PromptMessage) error {
	if req.RolesHash() != reply.RolesHash() {
		return &prompting.HashMismatchError{
			Field:       "rolesHash",
			Transmitted: reply.RolesHash(),
			Computed:    req.RolesHash(),
		}
	}
	if req.MessagesHash() != reply.MessagesHash() {
		return &prompting.HashMismatchError{
			Field:       "messagesHash",
			Transmitted: reply.MessagesHash(),
			Computed:    req.MessagesHash(),
		}
	}
	return nil
}
