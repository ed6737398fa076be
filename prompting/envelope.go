package prompting

import "encoding/json"

// Envelope is the field-keyed wire form of a PromptMessage. Both legs of an
// exchange use the same five keys: the sequences travel as string arrays,
// everything else as strings. The hash fields are data in transit; a
// receiver compares them against locally recomputed digests to detect
// tampering, so the codec never rewrites them.
type Envelope struct {
	Roles        []string `json:"roles"`
	Messages     []string `json:"messages"`
	MessagesHash string   `json:"messagesHash"`
	RolesHash    string   `json:"rolesHash"`
	Completion   string   `json:"completion"`
}

// Envelope returns the wire form of the message with every field copied
// verbatim, including a non-empty completion.
func (m *PromptMessage) Envelope() Envelope {
	return Envelope{
		Roles:        copyStrings(m.roles),
		Messages:     copyStrings(m.messages),
		MessagesHash: m.messagesHash,
		RolesHash:    m.rolesHash,
		Completion:   m.completion,
	}
}

// Encode serializes the message for transmission.
func Encode(m *PromptMessage) ([]byte, error) {
	return json.Marshal(m.Envelope())
}

// Decode reconstructs a PromptMessage from wire bytes. The document is
// validated against the envelope schema with the same strictness New applies
// to its inputs, but the transmitted hashes are kept exactly as received:
// decode never re-derives them, so the receiver can still compare them
// against fresh digests (see Verify). The post-decode hook runs on the
// reconstructed message before it is returned.
func Decode(data []byte) (*PromptMessage, error) {
	if err := validateEnvelope(data); err != nil {
		return nil, err
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &ValidationError{Field: "envelope", Reason: err.Error()}
	}
	m := &PromptMessage{
		roles:        copyStrings(env.Roles),
		messages:     copyStrings(env.Messages),
		rolesHash:    env.RolesHash,
		messagesHash: env.MessagesHash,
		completion:   env.Completion,
	}
	return m.Deserialize(), nil
}

// Verify recomputes both digests over the sequences the message carries and
// compares them with its transmitted fingerprints. A mismatch means the
// immutable half of the message changed in transit (corruption or tampering)
// and must be surfaced to the caller. Decode deliberately never runs this
// check; receivers opt in.
func (m *PromptMessage) Verify() error {
	if computed := HashStrings(m.roles); computed != m.rolesHash {
		return &HashMismatchError{Field: "rolesHash", Transmitted: m.rolesHash, Computed: computed}
	}
	if computed := HashStrings(m.messages); computed != m.messagesHash {
		return &HashMismatchError{Field: "messagesHash", Transmitted: m.messagesHash, Computed: computed}
	}
	return nil
}
