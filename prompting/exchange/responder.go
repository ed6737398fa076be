// Package exchange runs PromptMessage round trips: the Exchange drives the
// client leg (encode, transport, decode, verify) and the Responder drives the
// worker leg (decode, complete, encode). Both are wired from configuration by
// the Factory, with transports, backends, caches, and tracers supplied
// through the interfaces in ports.
package exchange

import (
	"context"
	"fmt"

	"github.com/Splendor-Protocol/text-prompting/prompting"
	ports "github.com/Splendor-Protocol/text-prompting/prompting/exchange/ports"
)

// Limits bounds the shape of requests a responder accepts. A zero value
// disables the corresponding bound.
type Limits struct {
	MaxRoles        int
	MaxMessages     int
	MaxMessageBytes int
}

// check reports the first limit a decoded request breaks.
func (l Limits) check(m *prompting.PromptMessage) error {
	roles, messages := m.Roles(), m.Messages()

	if l.MaxRoles > 0 && len(roles) > l.MaxRoles {
		return &prompting.ValidationError{
			Field:  "roles",
			Reason: fmt.Sprintf("%d entries exceed the maximum of %d", len(roles), l.MaxRoles),
		}
	}
	if l.MaxMessages > 0 && len(messages) > l.MaxMessages {
		return &prompting.ValidationError{
			Field:  "messages",
			Reason: fmt.Sprintf("%d entries exceed the maximum of %d", len(messages), l.MaxMessages),
		}
	}
	if l.MaxMessageBytes > 0 {
		for i, msg := range messages {
			if len(msg) > l.MaxMessageBytes {
				return &prompting.ValidationError{
					Field:  "messages",
					Reason: fmt.Sprintf("entry %d is %d bytes, over the maximum of %d", i, len(msg), l.MaxMessageBytes),
				}
			}
		}
	}
	return nil
}

// Responder is the worker side of an exchange. It decodes request envelopes,
// asks the backend for a completion, and encodes the answered message into
// the reply envelope.
type Responder struct {
	backend ports.Backend
	tracer  ports.Tracer
	limiter ports.RateLimiter
	limits  Limits
	verify  bool
}

// NewResponder creates a responder around backend. With verifyOnReceive set
// it recomputes the integrity fingerprints of every decoded request and
// refuses tampered ones.
func NewResponder(backend ports.Backend, tracer ports.Tracer, limiter ports.RateLimiter, limits Limits, verifyOnReceive bool) *Responder {
	return &Responder{
		backend: backend,
		tracer:  tracer,
		limiter: limiter,
		limits:  limits,
		verify:  verifyOnReceive,
	}
}

// Respond handles one request envelope and returns the reply envelope.
func (r *Responder) Respond(ctx context.Context, payload []byte) (reply []byte, err error) {
	release, err := r.limiter.Acquire(ctx, "respond")
	if err != nil {
		return nil, fmt.Errorf("responder throttled: %w", err)
	}
	defer release()

	ctx, finish := r.tracer.StartSpan(ctx, "respond", map[string]any{
		"payload_bytes": len(payload),
	})
	defer func() { finish(err) }()

	msg, err := prompting.Decode(payload)
	if err != nil {
		return nil, err
	}

	if r.verify {
		if err = msg.Verify(); err != nil {
			r.tracer.Event(ctx, "hash_mismatch", map[string]any{"error": err.Error()})
			return nil, err
		}
	}

	if err = r.limits.check(msg); err != nil {
		return nil, err
	}

	ctx, backendFinish := r.tracer.StartSpan(ctx, "backend_complete", map[string]any{
		"turns": len(msg.Messages()),
	})
	completion, err := r.backend.Complete(ctx, msg.Roles(), msg.Messages())
	backendFinish(err)

	if err != nil {
		return nil, fmt.Errorf("backend completion failed: %w", err)
	}

	msg.SetCompletion(completion)

	return prompting.Encode(msg)
}

// Ensure Responder implements the Responder port.
var _ ports.Responder = (*Responder)(nil)
