// Package prompting implements the text-prompting wire protocol: a single
// request/response message that carries an ordered conversation (role and
// message pairs) from a client to a worker, and the generated completion
// back.
//
// A PromptMessage fixes roles and messages at construction and fingerprints
// both sequences with an integrity hash captured at that moment; only the
// completion may change afterwards. The same envelope shape is valid on both
// legs of the exchange, so one codec serves request and response. The
// transport that moves envelopes, the model backend that fills completions,
// and all observability live behind the interfaces in exchange/ports.
package prompting

// Defaults used by the config loader when no explicit path is given.
const (
	DefaultAppName    = "text-prompting"
	DefaultConfigPath = "/etc/text-prompting"
)

// PromptMessage is one exchange turn. The roles and messages sequences are
// set once at construction and aligned positionally; rolesHash and
// messagesHash are derived from them at that moment and never recomputed on
// read; completion is the only field a holder may reassign, normally the
// worker writing its answer.
//
// The zero value is not a usable message: obtain one from New or Decode.
// The type carries no locking; callers sharing a message across goroutines
// synchronize externally.
type PromptMessage struct {
	roles        []string
	messages     []string
	rolesHash    string
	messagesHash string
	completion   string
}

// Option adjusts the optional construction inputs of New.
type Option func(*PromptMessage)

// WithCompletion pre-fills the completion field, which is normally left
// empty for the worker to assign.
func WithCompletion(completion string) Option {
	return func(m *PromptMessage) { m.completion = completion }
}

// New builds a PromptMessage from the required roles and messages sequences
// and immediately derives both integrity fingerprints. A nil sequence is a
// missing required field and fails validation; a non-nil empty sequence is
// legal and fingerprints to "". The sequences are copied, so later changes
// to the caller's slices do not leak into the message.
func New(roles, messages []string, opts ...Option) (*PromptMessage, error) {
	if roles == nil {
		return nil, &ValidationError{Field: "roles", Reason: "required sequence is missing"}
	}
	if messages == nil {
		return nil, &ValidationError{Field: "messages", Reason: "required sequence is missing"}
	}
	m := &PromptMessage{
		roles:    copyStrings(roles),
		messages: copyStrings(messages),
	}
	m.rolesHash = HashStrings(m.roles)
	m.messagesHash = HashStrings(m.messages)
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Roles returns the ordered role tags. The slice is a copy; mutating it
// leaves the message untouched.
func (m *PromptMessage) Roles() []string { return copyStrings(m.roles) }

// Messages returns the ordered message bodies, copied like Roles.
func (m *PromptMessage) Messages() []string { return copyStrings(m.messages) }

// RolesHash returns the fingerprint captured over roles at construction (or
// carried verbatim off the wire), "" when roles is empty.
func (m *PromptMessage) RolesHash() string { return m.rolesHash }

// MessagesHash returns the fingerprint captured over messages, "" when
// messages is empty.
func (m *PromptMessage) MessagesHash() string { return m.messagesHash }

// Completion returns the most recently assigned completion, "" until a
// worker has answered.
func (m *PromptMessage) Completion() string { return m.completion }

// SetCompletion assigns the completion. It is the only mutation the
// protocol permits after construction, may be repeated any number of times,
// and always returns nil; the error result exists so all setters share one
// shape.
func (m *PromptMessage) SetCompletion(completion string) error {
	m.completion = completion
	return nil
}

// SetRoles rejects every call: roles is fixed at construction.
func (m *PromptMessage) SetRoles([]string) error {
	return &ImmutableFieldError{Field: "roles"}
}

// SetMessages rejects every call: messages is fixed at construction.
func (m *PromptMessage) SetMessages([]string) error {
	return &ImmutableFieldError{Field: "messages"}
}

// SetRolesHash rejects every call: the fingerprint is an authoritative
// derivation, not settable data.
func (m *PromptMessage) SetRolesHash(string) error {
	return &ImmutableFieldError{Field: "rolesHash"}
}

// SetMessagesHash rejects every call, like SetRolesHash.
func (m *PromptMessage) SetMessagesHash(string) error {
	return &ImmutableFieldError{Field: "messagesHash"}
}

// Deserializer is the post-decode hook shared by message variants. Decode
// invokes the hook on every message it reconstructs; the PromptMessage
// implementation is the identity. Variants embedding PromptMessage can
// provide their own Deserialize to coerce or enrich decoded state without
// changing the envelope shape.
type Deserializer interface {
	Deserialize() *PromptMessage
}

// Deserialize returns the message unchanged.
func (m *PromptMessage) Deserialize() *PromptMessage { return m }

var _ Deserializer = (*PromptMessage)(nil)

func copyStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
