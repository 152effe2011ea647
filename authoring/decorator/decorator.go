// Package decorator implements the Decorator Collector frontend (spec.md
// §4.9) in Go terms. The original's class decorators/metadata annotations
// have no Go equivalent at the language level, so this frontend uses the
// idiomatic substitute: a constructed instance optionally implements
// Describer to attach explicit tool metadata (the "decorator" information),
// and reflection walks its exported methods to auto-discover anything left
// untagged — the same two-phase collection spec.md describes (explicitly
// tagged members, then auto-registered public methods), just sourced from an
// interface instead of a decorator AST. Only tools are collected: Describer
// carries no prompt, resource or UI metadata, and this frontend registers
// none of those.
//
// Every collectible method must share the fixed signature
// func(context.Context, []byte) (*kernel.ToolsCallResult, error) — Go has no
// runtime parameter names to merge with parsed types the way spec.md's
// "merge by positional index" step does, so the calling convention is fixed
// and per-parameter description/validation comes from the attached Meta
// instead.
package decorator

import (
	"context"
	"reflect"
	"strings"

	"github.com/mcpforge/mcpforge/authoring/reconcile"
	"github.com/mcpforge/mcpforge/kernel"
	"github.com/mcpforge/mcpforge/schema"
	"github.com/mcpforge/mcpforge/server"
)

// toolMethod is the fixed calling convention every collectible method must
// satisfy, tagged or auto-discovered.
type toolMethod = func(ctx context.Context, args []byte) (*kernel.ToolsCallResult, error)

// ToolMeta is the explicit metadata a Describer attaches to one method.
type ToolMeta struct {
	// Method is the declared binding name, resolved to an actual method via
	// the Name Reconciler (spec.md §4.10). Defaults to Name if empty.
	Method      string
	Name        string
	Description string
	Params      *schema.Node
	TimeoutMS   int64
}

// Describer is the interface a constructed instance implements to attach
// decorator-equivalent metadata. Implementing it is optional: an untagged
// "bare" class (spec.md §4.9) is collected purely by auto-discovery.
type Describer interface {
	MCPTools() []ToolMeta
}

// Collect reads instance's attached metadata (if any), reconciles each
// declared method binding, registers explicitly tagged tools, then
// auto-registers every remaining public method matching the tool calling
// convention as a kebab-case tool (spec.md §4.9 steps 2-3).
func Collect(b *server.Builder, instance any) error {
	tagged := map[string]struct{}{}

	if d, ok := instance.(Describer); ok {
		for _, meta := range d.MCPTools() {
			declared := meta.Method
			if declared == "" {
				declared = meta.Name
			}
			match, err := reconcile.Reconcile(instance, declared)
			if err != nil {
				return err
			}
			tagged[match.MethodName] = struct{}{}

			fn, err := bindToolMethod(instance, match.MethodName)
			if err != nil {
				return err
			}
			if err := b.AddTool(newDecoratedTool(meta, fn)); err != nil {
				return err
			}
		}
	}

	v := reflect.ValueOf(instance)
	t := v.Type()
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if _, already := tagged[m.Name]; already {
			continue
		}
		if m.Name == "MCPTools" {
			continue
		}
		fn, err := bindToolMethod(instance, m.Name)
		if err != nil {
			continue // not tool-shaped: skip silently, matching "public methods" auto-discovery scope
		}
		meta := ToolMeta{Name: kebabCase(m.Name), Params: schema.Any()}
		if err := b.AddTool(newDecoratedTool(meta, fn)); err != nil {
			return err
		}
	}
	return nil
}

// bindToolMethod reflects instance.<methodName> into the fixed toolMethod
// signature, failing if the method's signature doesn't match.
func bindToolMethod(instance any, methodName string) (toolMethod, error) {
	v := reflect.ValueOf(instance)
	m := v.MethodByName(methodName)
	if !m.IsValid() {
		return nil, kernel.NewError(kernel.KindConfiguration, "method "+methodName+" not found")
	}
	fn, ok := m.Interface().(func(context.Context, []byte) (*kernel.ToolsCallResult, error))
	if !ok {
		return nil, kernel.NewError(kernel.KindConfiguration, "method "+methodName+" does not match the tool calling convention")
	}
	return fn, nil
}

type decoratedTool struct {
	meta      ToolMeta
	fn        toolMethod
	validator *schema.Validator
}

func newDecoratedTool(meta ToolMeta, fn toolMethod) *decoratedTool {
	node := meta.Params
	if node == nil {
		node = schema.Any()
	}
	v, err := schema.NewValidatorFromIR(node)
	if err != nil {
		v, _ = schema.NewValidatorFromIR(schema.Any())
	}
	return &decoratedTool{meta: meta, fn: fn, validator: v}
}

func (d *decoratedTool) Name() string        { return d.meta.Name }
func (d *decoratedTool) Description() string { return d.meta.Description }
func (d *decoratedTool) InputSchema() []byte  { return d.validator.Document() }
func (d *decoratedTool) Validate(args []byte) error { return d.validator.Validate(args) }
func (d *decoratedTool) Timeout() int64       { return d.meta.TimeoutMS }
func (d *decoratedTool) Execute(ctx context.Context, params []byte) (*kernel.ToolsCallResult, error) {
	return d.fn(ctx, params)
}

// kebabCase converts an exported Go method name (PascalCase) to the
// kebab-case tool name convention spec.md §4.9 requires for auto-registered
// methods.
func kebabCase(name string) string {
	var words []string
	var current strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' && i > 0 && runes[i-1] >= 'a' && runes[i-1] <= 'z' {
			words = append(words, current.String())
			current.Reset()
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "-")
}
