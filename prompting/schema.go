package prompting

import (
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// envelopeSchema declares the wire shape of a message. roles and messages
// must be present string arrays; the hash and completion fields are strings
// and may be omitted, in which case they decode to "". Unknown keys are
// tolerated so envelope extensions do not break older peers.
const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["roles", "messages"],
  "properties": {
    "roles":        {"type": "array", "items": {"type": "string"}},
    "messages":     {"type": "array", "items": {"type": "string"}},
    "messagesHash": {"type": "string"},
    "rolesHash":    {"type": "string"},
    "completion":   {"type": "string"}
  }
}`

// validateEnvelope checks a raw wire document against the envelope schema
// before any field of it is trusted. This is the decode-side counterpart of
// the checks New performs on its inputs: presence of both sequences and
// string-typed elements throughout.
func validateEnvelope(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(envelopeSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &ValidationError{Field: "envelope", Reason: err.Error()}
	}
	if !result.Valid() {
		reasons := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return &ValidationError{Field: "envelope", Reason: strings.Join(reasons, "; ")}
	}
	return nil
}
