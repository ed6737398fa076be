package exchangeports

import "context"

// Transport carries an encoded request envelope to a responder and returns
// the encoded reply envelope. Implementations decide the wire: an in-process
// loopback, HTTP, a message queue.
type Transport interface {
	RoundTrip(ctx context.Context, payload []byte) ([]byte, error)
}

// Responder is the worker end of an exchange: it consumes one request
// envelope and produces the matching reply envelope.
type Responder interface {
	Respond(ctx context.Context, payload []byte) ([]byte, error)
}
