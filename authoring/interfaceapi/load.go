package interfaceapi

import (
	"context"
	"reflect"

	"github.com/mcpforge/mcpforge/authoring/prompttemplate"
	"github.com/mcpforge/mcpforge/authoring/reconcile"
	"github.com/mcpforge/mcpforge/kernel"
	"github.com/mcpforge/mcpforge/schema"
	"github.com/mcpforge/mcpforge/server"
	"github.com/mcpforge/mcpforge/ui"
)

// Load binds a ParseResult's declarations to handler's methods via the Name
// Reconciler and registers everything with b. Every tool needs a binding;
// dynamic prompts and resources need one too (spec.md §2's row for this
// component: "cross-validate that every dynamic prompt/resource has a
// resolvable handler"). A missing binding is a Configuration error raised
// here, before start — the interface-driven style's registration-time
// failure per spec.md §4.14.
//
// compiler is optional (same fallback as authoring/functional's UISpec):
// when nil, a UI descriptor's source is served as a raw text/html envelope;
// when set, sources are classified and compiled through the full six-mode
// ui.Compiler (remote DOM, component files, folders, ...).
func Load(b *server.Builder, result *ParseResult, handler any, compiler ...*ui.Compiler) error {
	var uiCompiler *ui.Compiler
	if len(compiler) > 0 {
		uiCompiler = compiler[0]
	}
	for _, td := range result.Tools {
		match, err := reconcile.Reconcile(handler, td.Binding)
		if err != nil {
			return err
		}
		fn, err := bindToolFunc(handler, match.MethodName)
		if err != nil {
			return err
		}
		if err := b.AddTool(newInterfaceTool(td, fn)); err != nil {
			return err
		}
	}

	for _, pd := range result.Prompts {
		if pd.Dynamic {
			match, err := reconcile.Reconcile(handler, pd.Binding)
			if err != nil {
				return err
			}
			fn, err := bindPromptFunc(handler, match.MethodName)
			if err != nil {
				return err
			}
			if err := b.AddPrompt(newInterfacePrompt(pd, fn)); err != nil {
				return err
			}
			continue
		}
		if err := b.AddPrompt(newInterfacePrompt(pd, nil)); err != nil {
			return err
		}
	}

	for _, rd := range result.Resources {
		if rd.Dynamic {
			match, err := reconcile.Reconcile(handler, rd.Binding)
			if err != nil {
				return err
			}
			fn, err := bindResourceFunc(handler, match.MethodName)
			if err != nil {
				return err
			}
			if err := b.AddResource(newInterfaceResource(rd, fn)); err != nil {
				return err
			}
			continue
		}
		if err := b.AddResource(newInterfaceResource(rd, nil)); err != nil {
			return err
		}
	}

	for _, ud := range result.UI {
		if err := b.AddUI(newInterfaceUI(ud, uiCompiler)); err != nil {
			return err
		}
	}

	return nil
}

type toolFunc = func(ctx context.Context, args []byte) (*kernel.ToolsCallResult, error)
type promptFunc = func(args map[string]string) (*kernel.PromptsGetResult, error)
type resourceFunc = func() (*kernel.ResourcesReadResult, error)

func bindToolFunc(instance any, methodName string) (toolFunc, error) {
	fn, ok := reflect.ValueOf(instance).MethodByName(methodName).Interface().(toolFunc)
	if !ok {
		return nil, kernel.NewError(kernel.KindConfiguration, "method "+methodName+" does not match the tool calling convention")
	}
	return fn, nil
}

func bindPromptFunc(instance any, methodName string) (promptFunc, error) {
	fn, ok := reflect.ValueOf(instance).MethodByName(methodName).Interface().(promptFunc)
	if !ok {
		return nil, kernel.NewError(kernel.KindConfiguration, "method "+methodName+" does not match the dynamic prompt calling convention")
	}
	return fn, nil
}

func bindResourceFunc(instance any, methodName string) (resourceFunc, error) {
	fn, ok := reflect.ValueOf(instance).MethodByName(methodName).Interface().(resourceFunc)
	if !ok {
		return nil, kernel.NewError(kernel.KindConfiguration, "method "+methodName+" does not match the dynamic resource calling convention")
	}
	return fn, nil
}

// --- Tool ---

type interfaceTool struct {
	decl      ToolDecl
	fn        toolFunc
	validator *schema.Validator
}

func newInterfaceTool(decl ToolDecl, fn toolFunc) *interfaceTool {
	node := decl.Params
	if node == nil {
		node = schema.Any()
	}
	v, err := schema.NewValidatorFromIR(node)
	if err != nil {
		v, _ = schema.NewValidatorFromIR(schema.Any())
	}
	return &interfaceTool{decl: decl, fn: fn, validator: v}
}

func (t *interfaceTool) Name() string        { return t.decl.Name }
func (t *interfaceTool) Description() string { return t.decl.Description }
func (t *interfaceTool) InputSchema() []byte  { return t.validator.Document() }
func (t *interfaceTool) Validate(args []byte) error { return t.validator.Validate(args) }
func (t *interfaceTool) Timeout() int64       { return 0 }
func (t *interfaceTool) Execute(ctx context.Context, params []byte) (*kernel.ToolsCallResult, error) {
	return t.fn(ctx, params)
}

// --- Prompt ---

type interfacePrompt struct {
	decl PromptDecl
	fn   promptFunc
}

func newInterfacePrompt(decl PromptDecl, fn promptFunc) *interfacePrompt {
	return &interfacePrompt{decl: decl, fn: fn}
}

func (p *interfacePrompt) Definition() kernel.PromptDefinition {
	return kernel.PromptDefinition{Name: p.decl.Name, Description: p.decl.Description, Arguments: p.decl.Arguments}
}
func (p *interfacePrompt) Dynamic() bool { return p.decl.Dynamic }
func (p *interfacePrompt) Get(arguments map[string]string) (*kernel.PromptsGetResult, error) {
	if p.decl.Dynamic {
		return p.fn(arguments)
	}
	return &kernel.PromptsGetResult{
		Messages: []kernel.PromptMessage{{Role: "user", Content: kernel.TextContent(prompttemplate.Render(p.decl.Template, arguments))}},
	}, nil
}

// --- Resource ---

type interfaceResource struct {
	decl ResourceDecl
	fn   resourceFunc
}

func newInterfaceResource(decl ResourceDecl, fn resourceFunc) *interfaceResource {
	return &interfaceResource{decl: decl, fn: fn}
}

func (r *interfaceResource) Definition() kernel.ResourceDefinition {
	return kernel.ResourceDefinition{URI: r.decl.URI, Name: r.decl.Name, Description: r.decl.Description, MimeType: r.decl.MimeType}
}
func (r *interfaceResource) Dynamic() bool { return r.decl.Dynamic }
func (r *interfaceResource) Read() (*kernel.ResourcesReadResult, error) {
	if r.decl.Dynamic {
		return r.fn()
	}
	return &kernel.ResourcesReadResult{
		Contents: []kernel.ResourceContent{{URI: r.decl.URI, MimeType: r.decl.MimeType, Text: r.decl.Data}},
	}, nil
}

// --- UI ---

type interfaceUI struct {
	decl     UIDecl
	compiler *ui.Compiler
}

func newInterfaceUI(decl UIDecl, compiler *ui.Compiler) *interfaceUI {
	return &interfaceUI{decl: decl, compiler: compiler}
}

func (u *interfaceUI) Definition() kernel.UIResourceDefinition {
	return kernel.UIResourceDefinition{
		URI: u.decl.URI, Name: u.decl.Name, Description: u.decl.Description,
		Tools: u.decl.Tools, MimeType: u.decl.MimeType,
	}
}
func (u *interfaceUI) Read(ctx context.Context) (*kernel.ResourcesReadResult, error) {
	if u.compiler == nil {
		return &kernel.ResourcesReadResult{
			Contents: []kernel.ResourceContent{{URI: u.decl.URI, MimeType: "text/html", Text: u.decl.Source}},
		}, nil
	}
	result, _, err := u.compiler.Compile(u.decl.URI, u.decl.Source)
	if err != nil {
		return nil, err
	}
	if u.decl.MimeType != "" && len(result.Contents) > 0 {
		result.Contents[0].MimeType = u.decl.MimeType
	}
	return result, nil
}
