// Package functional implements the Functional Loader (spec.md §4's
// "Functional Loader" row): given a declarative config object, translate
// each entry into Server Builder registration calls. The TypeScript
// original's "config object" becomes a Go struct literal — defineMCP(cfg)
// becomes functional.Load(builder, cfg) — the idiomatic equivalent of a
// plain-data config accepted by one loader function, grounded on the
// teacher's registry.Register call sequence in cmd/specmcp/main.go.
package functional

import (
	"context"

	"github.com/mcpforge/mcpforge/authoring/prompttemplate"
	"github.com/mcpforge/mcpforge/kernel"
	"github.com/mcpforge/mcpforge/schema"
	"github.com/mcpforge/mcpforge/server"
	"github.com/mcpforge/mcpforge/ui"
)

// ToolSpec describes one tool entry of a functional config object.
type ToolSpec struct {
	Name        string
	Description string
	Params      *schema.Node
	TimeoutMS   int64
	Handler     func(ctx context.Context, args []byte) (*kernel.ToolsCallResult, error)
}

// PromptSpec describes one prompt entry. Template is used when Handler is
// nil (a static prompt); otherwise Handler backs a dynamic prompt.
type PromptSpec struct {
	Name        string
	Description string
	Arguments   []kernel.PromptArgument
	Template    string
	Handler     func(arguments map[string]string) (*kernel.PromptsGetResult, error)
}

// ResourceSpec describes one resource entry. Data backs a static resource;
// Handler, when non-nil, backs a dynamic one.
type ResourceSpec struct {
	URI         string
	Name        string
	Description string
	MimeType    string
	Data        string
	Handler     func() (*kernel.ResourcesReadResult, error)
}

// UISpec describes one UI resource entry.
type UISpec struct {
	URI         string
	Name        string
	Description string
	MimeType    string
	Tools       []string
	Source      any // string or func(ctx context.Context) (any, error)
	Compiler    *ui.Compiler
}

// Config is the functional authoring style's top-level config object.
type Config struct {
	Tools     []ToolSpec
	Prompts   []PromptSpec
	Resources []ResourceSpec
	UI        []UISpec
}

// Load translates every entry of cfg into Server Builder registration
// calls, in declaration order, stopping at the first registration error
// (a duplicate name is a Configuration error per spec.md §4.14).
func Load(b *server.Builder, cfg Config) error {
	for _, ts := range cfg.Tools {
		t, err := newFunctionalTool(ts)
		if err != nil {
			return err
		}
		if err := b.AddTool(t); err != nil {
			return err
		}
	}
	for _, ps := range cfg.Prompts {
		if err := b.AddPrompt(newFunctionalPrompt(ps)); err != nil {
			return err
		}
	}
	for _, rs := range cfg.Resources {
		if err := b.AddResource(newFunctionalResource(rs)); err != nil {
			return err
		}
	}
	for _, us := range cfg.UI {
		ui, err := newFunctionalUI(us)
		if err != nil {
			return err
		}
		if err := b.AddUI(ui); err != nil {
			return err
		}
	}
	return nil
}

// --- Tool ---

type functionalTool struct {
	spec      ToolSpec
	validator *schema.Validator
}

func newFunctionalTool(spec ToolSpec) (*functionalTool, error) {
	node := spec.Params
	if node == nil {
		node = schema.Object()
	}
	v, err := schema.NewValidatorFromIR(node)
	if err != nil {
		return nil, err
	}
	return &functionalTool{spec: spec, validator: v}, nil
}

func (t *functionalTool) Name() string        { return t.spec.Name }
func (t *functionalTool) Description() string { return t.spec.Description }
func (t *functionalTool) InputSchema() []byte  { return t.validator.Document() }
func (t *functionalTool) Validate(args []byte) error { return t.validator.Validate(args) }
func (t *functionalTool) Timeout() int64       { return t.spec.TimeoutMS }
func (t *functionalTool) Execute(ctx context.Context, params []byte) (*kernel.ToolsCallResult, error) {
	return t.spec.Handler(ctx, params)
}

// --- Prompt ---

type functionalPrompt struct {
	spec PromptSpec
}

func newFunctionalPrompt(spec PromptSpec) *functionalPrompt { return &functionalPrompt{spec: spec} }

func (p *functionalPrompt) Definition() kernel.PromptDefinition {
	return kernel.PromptDefinition{Name: p.spec.Name, Description: p.spec.Description, Arguments: p.spec.Arguments}
}
func (p *functionalPrompt) Dynamic() bool { return p.spec.Handler != nil }
func (p *functionalPrompt) Get(arguments map[string]string) (*kernel.PromptsGetResult, error) {
	if p.spec.Handler != nil {
		return p.spec.Handler(arguments)
	}
	return &kernel.PromptsGetResult{
		Messages: []kernel.PromptMessage{{
			Role:    "user",
			Content: kernel.TextContent(prompttemplate.Render(p.spec.Template, arguments)),
		}},
	}, nil
}

// --- Resource ---

type functionalResource struct {
	spec ResourceSpec
}

func newFunctionalResource(spec ResourceSpec) *functionalResource {
	return &functionalResource{spec: spec}
}

func (r *functionalResource) Definition() kernel.ResourceDefinition {
	return kernel.ResourceDefinition{URI: r.spec.URI, Name: r.spec.Name, Description: r.spec.Description, MimeType: r.spec.MimeType}
}
func (r *functionalResource) Dynamic() bool { return r.spec.Handler != nil }
func (r *functionalResource) Read() (*kernel.ResourcesReadResult, error) {
	if r.spec.Handler != nil {
		return r.spec.Handler()
	}
	return &kernel.ResourcesReadResult{
		Contents: []kernel.ResourceContent{{URI: r.spec.URI, MimeType: r.spec.MimeType, Text: r.spec.Data}},
	}, nil
}

// --- UI ---

type functionalUI struct {
	spec UISpec
}

func newFunctionalUI(spec UISpec) (*functionalUI, error) {
	return &functionalUI{spec: spec}, nil
}

func (u *functionalUI) Definition() kernel.UIResourceDefinition {
	return kernel.UIResourceDefinition{
		URI: u.spec.URI, Name: u.spec.Name, Description: u.spec.Description,
		Tools: u.spec.Tools, MimeType: u.spec.MimeType,
	}
}

func (u *functionalUI) Read(ctx context.Context) (*kernel.ResourcesReadResult, error) {
	source := u.spec.Source
	if fn, ok := source.(func(ctx context.Context) (any, error)); ok {
		next, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		source = next
	}
	// A callable resolving to another callable is a configuration error, not
	// unbounded indirection — matches ui.resolveSource.
	switch v := source.(type) {
	case string:
		if u.spec.Compiler == nil {
			return &kernel.ResourcesReadResult{Contents: []kernel.ResourceContent{{URI: u.spec.URI, MimeType: u.spec.MimeType, Text: v}}}, nil
		}
		res, _, err := u.spec.Compiler.Compile(u.spec.URI, v)
		return res, err
	default:
		return nil, kernel.NewError(kernel.KindConfiguration, "UI source must resolve to a string")
	}
}
