package exchangeports

import "context"

// Backend produces the completion for an ordered conversation (inference
// hidden behind this port). Implementations wrap whatever actually answers
// prompts: a model runtime, a remote API, a canned test double.
type Backend interface {
	Complete(ctx context.Context, roles, messages []string) (string, error)
}
