package adapters

import (
	"context"

	ports "github.com/Splendor-Protocol/text-prompting/prompting/exchange/ports"
)

// Loopback is an in-process Transport that hands every request envelope
// straight to a Responder. It serves tests and single-binary deployments
// where client and worker share a process.
type Loopback struct {
	responder ports.Responder
}

// NewLoopback creates a loopback transport around responder.
func NewLoopback(responder ports.Responder) *Loopback {
	return &Loopback{responder: responder}
}

// RoundTrip delivers payload to the responder and returns its reply.
func (l *Loopback) RoundTrip(ctx context.Context, payload []byte) ([]byte, error) {
	return l.responder.Respond(ctx, payload)
}

// Ensure Loopback implements the Transport interface.
var _ ports.Transport = (*Loopback)(nil)
