package kernel

import (
	"context"
	"fmt"
	"sync"
)

// Tool is the interface every registered tool handler satisfies, whichever
// authoring frontend produced it.
type Tool interface {
	Name() string
	Description() string
	// InputSchema returns the JSON Schema document advertised to clients.
	InputSchema() []byte
	// Validate checks raw arguments against the tool's schema, returning a
	// validation error naming the first offending field path (see package
	// schema). A nil return means the arguments are acceptable.
	Validate(args []byte) error
	Execute(ctx context.Context, params []byte) (*ToolsCallResult, error)
	// Timeout returns the per-call budget, or 0 to use the server default.
	Timeout() int64 // milliseconds
}

// Prompt is the interface every registered prompt satisfies.
type Prompt interface {
	Definition() PromptDefinition
	// Dynamic reports whether Get invokes a generator (true) or interpolates
	// a fixed template (false). Static prompts are deterministic; dynamic
	// ones may not be.
	Dynamic() bool
	Get(arguments map[string]string) (*PromptsGetResult, error)
}

// Resource is the interface every registered resource satisfies.
type Resource interface {
	Definition() ResourceDefinition
	Dynamic() bool
	Read() (*ResourcesReadResult, error)
}

// UIResource is the interface every registered UI resource satisfies.
type UIResource interface {
	Definition() UIResourceDefinition
	// Read resolves the UI's source (invoking it if callable) and returns
	// the compiled MCP content envelope; the selected MIME is set on its
	// content entries.
	Read(ctx context.Context) (*ResourcesReadResult, error)
}

// Registry holds all registered tools, prompts, resources and UI resources.
// It is append-only once the owning server has started (enforced by
// server.Builder, not by Registry itself, matching the teacher's split
// between Registry and Server).
type Registry struct {
	mu sync.RWMutex

	tools     map[string]Tool
	toolOrder []string

	prompts     map[string]Prompt
	promptOrder []string

	resources     map[string]Resource
	resourceOrder []string

	uis     map[string]UIResource
	uiOrder []string
}

func NewRegistry() *Registry {
	return &Registry{
		tools:     make(map[string]Tool),
		prompts:   make(map[string]Prompt),
		resources: make(map[string]Resource),
		uis:       make(map[string]UIResource),
	}
}

// --- Tools ---

// RegisterTool adds a tool to the registry. Returns a KindConfiguration
// error if a tool with the same name is already registered.
func (r *Registry) RegisterTool(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return NewError(KindConfiguration, fmt.Sprintf("tool %q already registered", name))
	}
	r.tools[name] = t
	r.toolOrder = append(r.toolOrder, name)
	return nil
}

func (r *Registry) Tool(name string) Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tools[name]
}

func (r *Registry) Tools() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ToolDefinition, 0, len(r.toolOrder))
	for _, name := range r.toolOrder {
		t := r.tools[name]
		defs = append(defs, ToolDefinition{Name: t.Name(), Description: t.Description(), InputSchema: t.InputSchema()})
	}
	return defs
}

func (r *Registry) ToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.toolOrder))
	copy(out, r.toolOrder)
	return out
}

func (r *Registry) HasTools() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools) > 0
}

// --- Prompts ---

func (r *Registry) RegisterPrompt(p Prompt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := p.Definition().Name
	if _, exists := r.prompts[name]; exists {
		return NewError(KindConfiguration, fmt.Sprintf("prompt %q already registered", name))
	}
	r.prompts[name] = p
	r.promptOrder = append(r.promptOrder, name)
	return nil
}

func (r *Registry) Prompt(name string) Prompt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prompts[name]
}

func (r *Registry) Prompts() []PromptDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]PromptDefinition, 0, len(r.promptOrder))
	for _, name := range r.promptOrder {
		defs = append(defs, r.prompts[name].Definition())
	}
	return defs
}

func (r *Registry) HasPrompts() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prompts) > 0
}

// --- Resources ---

func (r *Registry) RegisterResource(res Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	uri := res.Definition().URI
	if _, exists := r.resources[uri]; exists {
		return NewError(KindConfiguration, fmt.Sprintf("resource %q already registered", uri))
	}
	r.resources[uri] = res
	r.resourceOrder = append(r.resourceOrder, uri)
	return nil
}

func (r *Registry) Resource(uri string) Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resources[uri]
}

// Resources enumerates plain resources followed by UI resources (a UI
// resource is a resource whose content happens to be renderable markup;
// spec.md's glossary entry for "UI resource" and its placement in
// resources/list's "enumerate registry entries" wording treat the two as one
// namespace for listing purposes).
func (r *Registry) Resources() []ResourceDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ResourceDefinition, 0, len(r.resourceOrder)+len(r.uiOrder))
	for _, uri := range r.resourceOrder {
		defs = append(defs, r.resources[uri].Definition())
	}
	for _, uri := range r.uiOrder {
		d := r.uis[uri].Definition()
		defs = append(defs, ResourceDefinition{URI: d.URI, Name: d.Name, Description: d.Description, MimeType: d.MimeType})
	}
	return defs
}

func (r *Registry) HasResources() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources) > 0
}

// --- UI resources ---

func (r *Registry) RegisterUI(u UIResource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	uri := u.Definition().URI
	if _, exists := r.uis[uri]; exists {
		return NewError(KindConfiguration, fmt.Sprintf("ui resource %q already registered", uri))
	}
	r.uis[uri] = u
	r.uiOrder = append(r.uiOrder, uri)
	return nil
}

func (r *Registry) UI(uri string) UIResource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.uis[uri]
}

func (r *Registry) UIs() []UIResourceDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]UIResourceDefinition, 0, len(r.uiOrder))
	for _, uri := range r.uiOrder {
		defs = append(defs, r.uis[uri].Definition())
	}
	return defs
}

func (r *Registry) HasUI() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.uis) > 0
}

// Capabilities returns the capability snapshot advertised in the
// initialize response: a flag is true iff at least one entry of that class
// is registered (spec.md invariant 6). Roots is left false here since the
// registry holds no root directories; Dispatcher.handleInitialize sets it
// from the configured root list (spec.md §6's capabilities shape).
func (r *Registry) Capabilities() ServerCapability {
	cap := ServerCapability{}
	if r.HasTools() {
		cap.Tools = &ToolsCapability{}
	}
	if r.HasPrompts() {
		cap.Prompts = &PromptsCapability{}
	}
	if r.HasResources() {
		cap.Resources = &ResourcesCapability{Subscribe: true}
		cap.Subscriptions = true
	}
	if r.HasUI() {
		cap.UI = &UICapability{}
	}
	cap.Completions = r.hasCompletionProviders()
	return cap
}

// hasCompletionProviders reports whether any registered prompt or resource
// implements CompletionProvider, backing the "completions" capability flag.
func (r *Registry) hasCompletionProviders() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.prompts {
		if _, ok := p.(CompletionProvider); ok {
			return true
		}
	}
	for _, res := range r.resources {
		if _, ok := res.(CompletionProvider); ok {
			return true
		}
	}
	return false
}
