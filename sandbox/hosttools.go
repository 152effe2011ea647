package sandbox

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dop251/goja"
)

// installHostTools re-exposes the host's registered tools to sandboxed code
// as callable stubs (spec.md §4.12). Each stub forwards its arguments back
// through HostToolCaller, which the kernel dispatch path validates exactly
// as it would a client-originated tools/call. Stub names are camelCase,
// matching the convention the pack's reference sandbox integration
// (other_examples: qbloq-graphjin-agentico's JS-runtime tool reintroduction)
// uses for host-tool stubs.
func installHostTools(ctx context.Context, rt *goja.Runtime, caller HostToolCaller, toolNames []string) {
	tools := rt.NewObject()
	for _, name := range toolNames {
		toolName := name // capture
		stub := func(call goja.FunctionCall) goja.Value {
			var args []byte
			if len(call.Arguments) > 0 {
				exported := call.Arguments[0].Export()
				b, err := json.Marshal(exported)
				if err != nil {
					panic(rt.NewGoError(err))
				}
				args = b
			} else {
				args = []byte("{}")
			}
			result, err := caller.CallTool(ctx, toolName, args)
			if err != nil {
				panic(rt.NewGoError(err))
			}
			return rt.ToValue(result)
		}
		tools.Set(camelCase(toolName), stub)
	}
	rt.Set("tools", tools)
}

// camelCase converts a snake_case or kebab-case tool name to camelCase for
// its sandbox-visible stub name.
func camelCase(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == '-' })
	if len(parts) == 0 {
		return name
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
