package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Validator evaluates raw JSON arguments against a compiled schema document.
// It is built once per registered entry (tool input, or a future prompt/
// resource shape) and reused across calls — the generator is pure, so a
// Validator never changes after construction.
type Validator struct {
	schema *gojsonschema.Schema
	doc    json.RawMessage
}

// NewValidator compiles a generated JSON Schema document into a dispatch-time
// validator.
func NewValidator(doc json.RawMessage) (*Validator, error) {
	loader := gojsonschema.NewBytesLoader(doc)
	compiled, err := gojsonschema.NewSchema(loader)
	if err != nil {
		return nil, fmt.Errorf("compile schema document: %w", err)
	}
	return &Validator{schema: compiled, doc: doc}, nil
}

// NewValidatorFromIR is a convenience that generates the document and
// compiles it in one step.
func NewValidatorFromIR(node *Node) (*Validator, error) {
	doc, err := Generate(node)
	if err != nil {
		return nil, err
	}
	return NewValidator(doc)
}

// Document returns the JSON Schema document this validator was compiled
// from, the same bytes advertised as a tool's inputSchema.
func (v *Validator) Document() json.RawMessage { return v.doc }

// ValidationError names the first offending field path and the constraint it
// violated (spec.md §4.1).
type ValidationError struct {
	Field string
	Rule  string
}

func (e *ValidationError) Error() string {
	if e.Field == "" || e.Field == "(root)" {
		return fmt.Sprintf("validation failed: %s", e.Rule)
	}
	return fmt.Sprintf("validation failed at %q: %s", e.Field, e.Rule)
}

// Validate checks raw JSON arguments against the compiled schema. A nil
// return means the arguments are acceptable.
func (v *Validator) Validate(args []byte) error {
	if len(strings.TrimSpace(string(args))) == 0 {
		args = []byte("{}")
	}
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(args))
	if err != nil {
		return fmt.Errorf("evaluate arguments against schema: %w", err)
	}
	if result.Valid() {
		return nil
	}
	first := result.Errors()[0]
	return &ValidationError{Field: first.Field(), Rule: first.Description()}
}
