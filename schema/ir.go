// Package schema implements the Schema IR and its two downstream
// projections: an advertised JSON Schema document (via invopop/jsonschema)
// and a dispatch-time validator (via xeipuuv/gojsonschema). Every authoring
// frontend produces IR; the generator is pure — the same IR always yields
// the same validator.
package schema

// Kind tags the variant a Node represents.
type Kind int

const (
	KindScalar Kind = iota
	KindEnum
	KindArray
	KindObject
	KindUnion
	KindAny
)

// ScalarType names the three JSON-Schema-primitive scalar kinds a Node may
// carry when Kind == KindScalar.
type ScalarType string

const (
	ScalarString  ScalarType = "string"
	ScalarNumber  ScalarType = "number"
	ScalarBoolean ScalarType = "boolean"
)

// Node is one node of the Schema IR (spec.md §3, "Schema IR node"): a
// tagged variant over scalar/enum/array/object/union/any, each carrying its
// own constraint set.
type Node struct {
	Kind Kind

	// Scalar fields (Kind == KindScalar).
	Scalar ScalarType

	// Shared string constraints.
	MinLength *int
	MaxLength *int
	Pattern   string
	Format    string

	// Numeric constraints.
	Integer bool
	Min     *float64
	Max     *float64

	// Enum values (Kind == KindEnum); always strings per spec.md §3.
	EnumValues []string

	// Array fields (Kind == KindArray).
	Items    *Node
	MinItems *int
	MaxItems *int

	// Object fields (Kind == KindObject).
	Fields []Field

	// Union fields (Kind == KindUnion).
	Variants []*Node

	Description string
}

// Field is one named member of an object Node.
type Field struct {
	Name        string
	Node        *Node
	Optional    bool
	Default     any
	Description string
}

// String builds a string-scalar node, the common case for tool/prompt args.
func String() *Node { return &Node{Kind: KindScalar, Scalar: ScalarString} }

// Number builds a number-scalar node.
func Number() *Node { return &Node{Kind: KindScalar, Scalar: ScalarNumber} }

// Boolean builds a boolean-scalar node.
func Boolean() *Node { return &Node{Kind: KindScalar, Scalar: ScalarBoolean} }

// Enum builds an enum node over the given literal string values.
func Enum(values ...string) *Node { return &Node{Kind: KindEnum, EnumValues: values} }

// ArrayOf builds an array node over the given element IR.
func ArrayOf(item *Node) *Node { return &Node{Kind: KindArray, Items: item} }

// Object builds an object node from the given fields.
func Object(fields ...Field) *Node { return &Node{Kind: KindObject, Fields: fields} }

// Any builds a node that accepts any JSON value.
func Any() *Node { return &Node{Kind: KindAny} }

func intPtr(n int) *int          { return &n }
func floatPtr(f float64) *float64 { return &f }

// WithMinLength returns a copy of n with a minimum string length constraint.
func (n *Node) WithMinLength(v int) *Node { c := *n; c.MinLength = intPtr(v); return &c }

// WithMaxLength returns a copy of n with a maximum string length constraint.
func (n *Node) WithMaxLength(v int) *Node { c := *n; c.MaxLength = intPtr(v); return &c }

// WithPattern returns a copy of n constrained by the given regexp.
func (n *Node) WithPattern(v string) *Node { c := *n; c.Pattern = v; return &c }

// WithFormat returns a copy of n annotated with a JSON Schema format (e.g. "date-time").
func (n *Node) WithFormat(v string) *Node { c := *n; c.Format = v; return &c }

// WithInt marks a number node as integer-only.
func (n *Node) WithInt() *Node { c := *n; c.Integer = true; return &c }

// WithMin returns a copy of n with a minimum numeric value constraint.
func (n *Node) WithMin(v float64) *Node { c := *n; c.Min = floatPtr(v); return &c }

// WithMax returns a copy of n with a maximum numeric value constraint.
func (n *Node) WithMax(v float64) *Node { c := *n; c.Max = floatPtr(v); return &c }

// WithMinItems returns a copy of n with a minimum array length constraint.
func (n *Node) WithMinItems(v int) *Node { c := *n; c.MinItems = intPtr(v); return &c }

// WithMaxItems returns a copy of n with a maximum array length constraint.
func (n *Node) WithMaxItems(v int) *Node { c := *n; c.MaxItems = intPtr(v); return &c }

// WithDescription returns a copy of n carrying a description string.
func (n *Node) WithDescription(v string) *Node { c := *n; c.Description = v; return &c }
