package prompting

import (
	"errors"
	"fmt"
)

// Sentinels for the three failure kinds of the protocol. Concrete errors
// wrap these, so callers branch with errors.Is and inspect details with
// errors.As. Every kind is recoverable by the caller; none is fatal to the
// process and none triggers retries here, since retry policy belongs to the
// transport.
var (
	// ErrValidation marks a missing or ill-typed field at construction or
	// decode time, or an exchange guardrail breach.
	ErrValidation = errors.New("prompting: validation failed")

	// ErrImmutableField marks a rejected write to a field that is fixed at
	// construction.
	ErrImmutableField = errors.New("prompting: field is immutable")

	// ErrHashMismatch marks a transmitted fingerprint that does not match
	// the digest recomputed over the received sequence: the immutable part
	// of a message changed in transit.
	ErrHashMismatch = errors.New("prompting: hash mismatch")
)

// ValidationError reports which field was rejected and why.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("prompting: validation failed: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ImmutableFieldError reports a post-construction write and the field it
// targeted. The message keeps its prior value.
type ImmutableFieldError struct {
	Field string
}

func (e *ImmutableFieldError) Error() string {
	return fmt.Sprintf("prompting: field %s is immutable after construction", e.Field)
}

func (e *ImmutableFieldError) Unwrap() error { return ErrImmutableField }

// HashMismatchError carries the fingerprint that travelled with the message
// and the one recomputed locally. It is a trust failure: surface it, never
// swallow it.
type HashMismatchError struct {
	Field       string
	Transmitted string
	Computed    string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("prompting: %s mismatch: transmitted %q, computed %q", e.Field, e.Transmitted, e.Computed)
}

func (e *HashMismatchError) Unwrap() error { return ErrHashMismatch }
