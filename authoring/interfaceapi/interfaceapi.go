// Package interfaceapi implements the Interface AST Parser (spec.md §4.8):
// it walks an author's TypeScript source with a tree-sitter grammar,
// recognizes server/tool/prompt/resource/UI descriptor interfaces by shape
// (the property set present, not a marker name — "the exact marker token is
// a matter of style"), and lowers each into Schema IR plus a list of
// method-name bindings the Decorator/Functional-adjacent handler class must
// satisfy.
//
// Grounded on the teacher pack's TypeScript tree-sitter provider
// (internal/lang/typescript in the reference pack): parser construction,
// node.ChildByFieldName navigation, and node.Content(source) text
// extraction follow that provider's style.
package interfaceapi

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tstypescript "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/mcpforge/mcpforge/kernel"
	"github.com/mcpforge/mcpforge/schema"
)

// ToolDecl is a parsed tool descriptor plus the method binding it requires.
type ToolDecl struct {
	Name        string
	Description string
	Params      *schema.Node
	// Binding is the declared name to resolve via the Name Reconciler; tools
	// always need a binding (spec.md §4.8's parser output).
	Binding string
}

// PromptDecl is a parsed prompt descriptor. Static prompts carry Template;
// dynamic ones carry Binding instead (the camelCase of the declared name,
// per spec.md §4.8's output rule for dynamic prompts).
type PromptDecl struct {
	Name        string
	Description string
	Arguments   []kernel.PromptArgument
	Template    string
	Dynamic     bool
	Binding     string
}

// ResourceDecl is a parsed resource descriptor. Static resources carry Data;
// dynamic ones carry Binding set to the URI itself (spec.md §4.8's output
// rule for dynamic resources — the handler is keyed by URI).
type ResourceDecl struct {
	URI         string
	Name        string
	Description string
	MimeType    string
	Data        string
	Dynamic     bool
	Binding     string
}

// UIDecl is a parsed UI resource descriptor.
type UIDecl struct {
	URI         string
	Name        string
	Description string
	MimeType    string
	Source      string
	Tools       []string
}

// ServerDecl is the parsed server descriptor.
type ServerDecl struct {
	Name        string
	Version     string
	Description string
}

// ParseResult is everything extracted from one source file.
type ParseResult struct {
	Server    *ServerDecl
	Tools     []ToolDecl
	Prompts   []PromptDecl
	Resources []ResourceDecl
	UI        []UIDecl
}

// Parse walks every top-level interface declaration in source and
// classifies each by its property shape.
//
// Not safe for concurrent use: node text extraction is threaded through a
// package-level source cache rather than passed explicitly through every
// tree-sitter helper, mirroring the single-source-at-a-time assumption the
// teacher's provider makes.
func Parse(source []byte) (*ParseResult, error) {
	cachedSource = source
	defer func() { cachedSource = nil }()

	parser := sitter.NewParser()
	parser.SetLanguage(tstypescript.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, kernel.WrapError(kernel.KindConfiguration, "parsing interface source", err)
	}
	root := tree.RootNode()

	result := &ParseResult{}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "interface_declaration" {
			continue
		}
		props, err := readProperties(child, source)
		if err != nil {
			return nil, err
		}
		if err := classify(result, props); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// property is one member of an interface body, with both its literal value
// (when the type is a literal) and its raw type node for nested shapes.
type property struct {
	name     string
	optional bool
	typeNode *sitter.Node
	jsdoc    string
}

func readProperties(iface *sitter.Node, source []byte) (map[string]property, error) {
	body := iface.ChildByFieldName("body")
	if body == nil {
		return nil, kernel.NewError(kernel.KindConfiguration, "interface declaration has no body")
	}
	props := map[string]property{}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "property_signature" {
			continue
		}
		nameNode := member.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nameNode.Content(source)
		optional := strings.Contains(member.Content(source), "?:")
		typeAnn := member.ChildByFieldName("type")
		var typeNode *sitter.Node
		if typeAnn != nil && typeAnn.NamedChildCount() > 0 {
			typeNode = typeAnn.NamedChild(0)
		}
		props[name] = property{
			name:     name,
			optional: optional,
			typeNode: typeNode,
			jsdoc:    leadingJSDoc(member, source),
		}
	}
	return props, nil
}

// leadingJSDoc scans the comment node immediately preceding member, if any,
// returning its raw text for constraint-tag extraction.
func leadingJSDoc(member *sitter.Node, source []byte) string {
	prev := member.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	return prev.Content(source)
}

// classify determines which descriptor kind props matches by shape and
// appends the parsed declaration to result.
func classify(result *ParseResult, props map[string]property) error {
	_, hasName := props["name"]
	_, hasVersion := props["version"]
	_, hasURI := props["uri"]
	_, hasParams := props["params"]
	_, hasArgs := props["args"]
	_, hasSource := props["source"]
	_, hasData := props["data"]
	_, hasTemplate := props["template"]
	_, hasDynamic := props["dynamic"]

	switch {
	case hasName && hasVersion && !hasURI:
		result.Server = &ServerDecl{
			Name:        literalString(props["name"]),
			Version:     literalString(props["version"]),
			Description: literalStringOrEmpty(props, "description"),
		}
	case hasURI && hasSource:
		tools, _ := literalStringArray(props["tools"])
		result.UI = append(result.UI, UIDecl{
			URI:         literalString(props["uri"]),
			Name:        literalStringOrEmpty(props, "name"),
			Description: literalStringOrEmpty(props, "description"),
			MimeType:    literalStringOrEmpty(props, "mimeType"),
			Source:      literalStringOrEmpty(props, "source"),
			Tools:       tools,
		})
	case hasURI:
		decl := ResourceDecl{
			URI:         literalString(props["uri"]),
			Name:        literalStringOrEmpty(props, "name"),
			Description: literalStringOrEmpty(props, "description"),
			MimeType:    literalStringOrEmpty(props, "mimeType"),
		}
		decl.Dynamic = literalBoolOrFalse(props, "dynamic") || (hasData && !isLiteralType(props["data"].typeNode))
		if decl.Dynamic {
			decl.Binding = decl.URI
		} else {
			decl.Data = literalStringOrEmpty(props, "data")
		}
		result.Resources = append(result.Resources, decl)
	case hasName && hasArgs && (hasTemplate || hasDynamic):
		decl := PromptDecl{
			Name:        literalString(props["name"]),
			Description: literalStringOrEmpty(props, "description"),
			Arguments:   promptArguments(props["args"]),
		}
		decl.Dynamic = literalBoolOrFalse(props, "dynamic") || !hasTemplate
		if decl.Dynamic {
			decl.Binding = toCamelCase(decl.Name)
		} else {
			decl.Template = literalStringOrEmpty(props, "template")
		}
		result.Prompts = append(result.Prompts, decl)
	case hasName && hasParams:
		node, err := buildSchema(props["params"].typeNode)
		if err != nil {
			return err
		}
		result.Tools = append(result.Tools, ToolDecl{
			Name:        literalString(props["name"]),
			Description: literalStringOrEmpty(props, "description"),
			Params:      node,
			Binding:     literalString(props["name"]),
		})
	}
	return nil
}

func literalStringOrEmpty(props map[string]property, key string) string {
	p, ok := props[key]
	if !ok {
		return ""
	}
	return literalString(p)
}

func literalBoolOrFalse(props map[string]property, key string) bool {
	p, ok := props[key]
	if !ok {
		return false
	}
	return literalBool(p)
}

// literalString extracts a string literal type's content (stripping quotes).
func literalString(p property) string {
	if p.typeNode == nil {
		return ""
	}
	return unquote(p.typeNode.Content(cachedSource))
}

func literalBool(p property) bool {
	if p.typeNode == nil {
		return false
	}
	return strings.TrimSpace(p.typeNode.Content(cachedSource)) == "true"
}

func literalStringArray(p property) ([]string, bool) {
	if p.typeNode == nil || p.typeNode.Type() != "tuple_type" {
		return nil, false
	}
	var out []string
	for i := 0; i < int(p.typeNode.NamedChildCount()); i++ {
		out = append(out, unquote(p.typeNode.NamedChild(i).Content(cachedSource)))
	}
	return out, true
}

func isLiteralType(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Type() {
	case "literal_type", "string", "number", "true", "false", "object_type", "tuple_type":
		return true
	}
	return false
}

// cachedSource holds the source bytes for the file currently being parsed,
// since node.Content requires the original buffer and most helpers in this
// package receive only a *sitter.Node.
var cachedSource []byte

// promptArguments builds kernel.PromptArgument entries from an args object
// type's property signatures (name + optional flag only; types are
// advisory for prompts, which interpolate strings).
func promptArguments(p property) []kernel.PromptArgument {
	if p.typeNode == nil || p.typeNode.Type() != "object_type" {
		return nil
	}
	var args []kernel.PromptArgument
	for i := 0; i < int(p.typeNode.NamedChildCount()); i++ {
		member := p.typeNode.NamedChild(i)
		if member.Type() != "property_signature" {
			continue
		}
		nameNode := member.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		args = append(args, kernel.PromptArgument{
			Name:     nameNode.Content(cachedSource),
			Required: !strings.Contains(member.Content(cachedSource), "?:"),
		})
	}
	return args
}

// buildSchema lowers a TypeScript object-type AST node into the Schema IR,
// applying JSDoc constraint tags found on each member.
func buildSchema(node *sitter.Node) (*schema.Node, error) {
	if node == nil {
		return schema.Any(), nil
	}
	switch node.Type() {
	case "object_type":
		var fields []schema.Field
		for i := 0; i < int(node.NamedChildCount()); i++ {
			member := node.NamedChild(i)
			if member.Type() != "property_signature" {
				continue
			}
			nameNode := member.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			typeAnn := member.ChildByFieldName("type")
			var memberType *sitter.Node
			if typeAnn != nil && typeAnn.NamedChildCount() > 0 {
				memberType = typeAnn.NamedChild(0)
			}
			fieldNode, err := buildSchema(memberType)
			if err != nil {
				return nil, err
			}
			fieldNode = applyJSDoc(fieldNode, leadingJSDoc(member, cachedSource))
			fields = append(fields, schema.Field{
				Name:     nameNode.Content(cachedSource),
				Node:     fieldNode,
				Optional: strings.Contains(member.Content(cachedSource), "?:"),
			})
		}
		return schema.Object(fields...), nil
	case "array_type":
		item, err := buildSchema(node.NamedChild(0))
		if err != nil {
			return nil, err
		}
		return schema.ArrayOf(item), nil
	case "predefined_type":
		switch node.Content(cachedSource) {
		case "string":
			return schema.String(), nil
		case "number":
			return schema.Number(), nil
		case "boolean":
			return schema.Boolean(), nil
		default:
			return schema.Any(), nil
		}
	case "union_type":
		var values []string
		allStringLiterals := true
		for i := 0; i < int(node.NamedChildCount()); i++ {
			variant := node.NamedChild(i)
			if variant.Type() == "literal_type" && variant.NamedChildCount() > 0 && variant.NamedChild(0).Type() == "string" {
				values = append(values, unquote(variant.NamedChild(0).Content(cachedSource)))
				continue
			}
			allStringLiterals = false
		}
		if allStringLiterals && len(values) > 0 {
			return schema.Enum(values...), nil
		}
		return schema.Any(), nil
	default:
		return schema.Any(), nil
	}
}

// applyJSDoc applies recognized constraint tags found in a block of JSDoc
// comment text to node, returning a new constrained node.
func applyJSDoc(node *schema.Node, jsdoc string) *schema.Node {
	if jsdoc == "" {
		return node
	}
	if v, ok := tagInt(jsdoc, "minLength"); ok {
		node = node.WithMinLength(v)
	}
	if v, ok := tagInt(jsdoc, "maxLength"); ok {
		node = node.WithMaxLength(v)
	}
	if v, ok := tagString(jsdoc, "pattern"); ok {
		node = node.WithPattern(v)
	}
	if v, ok := tagString(jsdoc, "format"); ok {
		node = node.WithFormat(v)
	}
	if v, ok := tagFloat(jsdoc, "min"); ok {
		node = node.WithMin(v)
	}
	if v, ok := tagFloat(jsdoc, "max"); ok {
		node = node.WithMax(v)
	}
	if tagPresent(jsdoc, "int") {
		node = node.WithInt()
	}
	if v, ok := tagInt(jsdoc, "minItems"); ok {
		node = node.WithMinItems(v)
	}
	if v, ok := tagInt(jsdoc, "maxItems"); ok {
		node = node.WithMaxItems(v)
	}
	return node
}

var tagPattern = regexp.MustCompile(`@(\w+)(?:\s+([^\s*]+))?`)

func tagPresent(jsdoc, tag string) bool {
	for _, m := range tagPattern.FindAllStringSubmatch(jsdoc, -1) {
		if m[1] == tag {
			return true
		}
	}
	return false
}

func tagString(jsdoc, tag string) (string, bool) {
	for _, m := range tagPattern.FindAllStringSubmatch(jsdoc, -1) {
		if m[1] == tag && len(m) > 2 {
			return m[2], true
		}
	}
	return "", false
}

func tagInt(jsdoc, tag string) (int, bool) {
	s, ok := tagString(jsdoc, tag)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}

func tagFloat(jsdoc, tag string) (float64, bool) {
	s, ok := tagString(jsdoc, tag)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'' || s[0] == '`') {
		return s[1 : len(s)-1]
	}
	return s
}

// toCamelCase lowercases the first letter run of a snake_case or kebab-case
// name, matching the Name Reconciler's convention for dynamic prompt
// bindings.
func toCamelCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
	if len(parts) == 0 {
		return s
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(parts[0]))
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(strings.ToLower(p[1:]))
	}
	return b.String()
}
