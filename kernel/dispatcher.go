package kernel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ClientCaller forwards a bidirectional request (elicitation/sampling) from
// a handler to the connected client and returns its response. Transports
// that cannot originate client-bound requests (e.g. a client with no
// matching capability) return a KindTransport error.
type ClientCaller interface {
	CallClient(ctx context.Context, sessionID, method string, params any) (json.RawMessage, error)
}

// Dispatcher routes MCP methods (spec.md §4.4) to Registry entries. It owns
// no transport-specific state; stdio and HTTP transports both drive it via
// Handle.
type Dispatcher struct {
	registry       *Registry
	sessions       *SessionManager
	info           ServerInfo
	logger         *slog.Logger
	defaultTimeout time.Duration
	client         ClientCaller
	roots          []Root

	// sessionLocks serializes dispatch per session (spec.md §5: within a
	// single session, dispatched requests begin in arrival order).
	mu           sync.Mutex
	sessionLocks map[string]*sync.Mutex
}

func NewDispatcher(registry *Registry, sessions *SessionManager, info ServerInfo, logger *slog.Logger, defaultTimeout time.Duration) *Dispatcher {
	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}
	return &Dispatcher{
		registry:       registry,
		sessions:       sessions,
		info:           info,
		logger:         logger,
		defaultTimeout: defaultTimeout,
		sessionLocks:   make(map[string]*sync.Mutex),
	}
}

func (d *Dispatcher) SetClientCaller(c ClientCaller) { d.client = c }
func (d *Dispatcher) SetRoots(roots []Root)          { d.roots = roots }

func (d *Dispatcher) lockFor(sessionID string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.sessionLocks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		d.sessionLocks[sessionID] = l
	}
	return l
}

// Handle parses a single JSON-RPC message and dispatches it, serialized
// against any other in-flight request on the same session. Returns nil for
// notifications (no response expected).
func (d *Dispatcher) Handle(ctx context.Context, sessionID string, data []byte) *Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		d.logger.Error("failed to parse request", "error", err)
		return &Response{JSONRPC: "2.0", Error: &RPCError{Code: ErrCodeParse, Message: "Parse error", Data: err.Error()}}
	}

	if req.ID == nil {
		if req.Method != "notifications/initialized" {
			d.logger.Debug("received notification", "method", req.Method)
		}
		return nil
	}

	lock := d.lockFor(sessionID)
	lock.Lock()
	defer lock.Unlock()

	result, rpcErr := d.dispatch(ctx, sessionID, &req)
	resp := &Response{JSONRPC: "2.0", ID: req.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	return resp
}

func (d *Dispatcher) dispatch(ctx context.Context, sessionID string, req *Request) (any, *RPCError) {
	switch req.Method {
	case "initialize":
		return d.handleInitialize(req.Params)
	case "tools/list":
		return ToolsListResult{Tools: d.registry.Tools()}, nil
	case "prompts/list":
		return PromptsListResult{Prompts: d.registry.Prompts()}, nil
	case "resources/list":
		return ResourcesListResult{Resources: d.registry.Resources()}, nil
	case "tools/call":
		return d.handleToolsCall(ctx, req.Params)
	case "prompts/get":
		return d.handlePromptsGet(req.Params)
	case "resources/read":
		return d.handleResourcesRead(ctx, req.Params)
	case "resources/subscribe":
		return d.handleSubscribe(sessionID, req.Params, true)
	case "resources/unsubscribe":
		return d.handleSubscribe(sessionID, req.Params, false)
	case "completions/complete":
		return d.handleCompletion(req.Params)
	case "roots/list":
		return RootsListResult{Roots: d.roots}, nil
	case "elicitation/request", "sampling/request":
		return d.handleBidirectional(ctx, sessionID, req.Method, req.Params)
	default:
		return nil, &RPCError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)}
	}
}

func (d *Dispatcher) handleInitialize(params json.RawMessage) (any, *RPCError) {
	var p InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "Invalid initialize params", Data: err.Error()}
		}
	}
	d.logger.Info("client connecting", "client", p.ClientInfo.Name, "protocol_version", p.ProtocolVersion)
	caps := d.registry.Capabilities()
	caps.Roots = len(d.roots) > 0
	return &InitializeResult{
		ProtocolVersion: "2025-03-26",
		Capabilities:    caps,
		ServerInfo:      d.info,
	}, nil
}

func (d *Dispatcher) handleToolsCall(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var call ToolsCallParams
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "Invalid tools/call params", Data: err.Error()}
	}

	tool := d.registry.Tool(call.Name)
	if tool == nil {
		return nil, &RPCError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("tool not found: %s", call.Name)}
	}

	args := []byte(call.Arguments)
	if args == nil {
		args = []byte("{}")
	}
	if err := tool.Validate(args); err != nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: err.Error()}
	}

	timeout := d.defaultTimeout
	if ms := tool.Timeout(); ms > 0 {
		timeout = time.Duration(ms) * time.Millisecond
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type callResult struct {
		res *ToolsCallResult
		err error
	}
	ch := make(chan callResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- callResult{nil, fmt.Errorf("handler panicked: %v", p)}
			}
		}()
		res, err := tool.Execute(callCtx, args)
		ch <- callResult{res, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && callCtx.Err() == context.DeadlineExceeded {
			d.logger.Warn("tool call timed out", "tool", call.Name, "timeout", timeout)
			return ErrorResult(fmt.Sprintf("Execution timed out after %dms", timeout.Milliseconds())), nil
		}
		if r.err != nil {
			d.logger.Error("tool execution failed", "tool", call.Name, "error", r.err)
			return ErrorResult(fmt.Sprintf("tool execution failed: %v", r.err)), nil
		}
		return r.res, nil
	case <-callCtx.Done():
		d.logger.Warn("tool call timed out", "tool", call.Name, "timeout", timeout)
		return ErrorResult(fmt.Sprintf("Execution timed out after %dms", timeout.Milliseconds())), nil
	}
}

func (d *Dispatcher) handlePromptsGet(params json.RawMessage) (any, *RPCError) {
	var get PromptsGetParams
	if err := json.Unmarshal(params, &get); err != nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "Invalid prompts/get params", Data: err.Error()}
	}
	prompt := d.registry.Prompt(get.Name)
	if prompt == nil {
		return nil, &RPCError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("prompt not found: %s", get.Name)}
	}

	def := prompt.Definition()
	for _, arg := range def.Arguments {
		if arg.Required {
			if _, ok := get.Arguments[arg.Name]; !ok {
				return nil, &RPCError{Code: ErrCodeInvalidParams, Message: fmt.Sprintf("missing required argument: %s", arg.Name)}
			}
		}
	}

	result, err := prompt.Get(get.Arguments)
	if err != nil {
		return nil, &RPCError{Code: ErrCodeInternal, Message: fmt.Sprintf("prompt error: %v", err)}
	}
	return result, nil
}

func (d *Dispatcher) handleResourcesRead(ctx context.Context, params json.RawMessage) (any, *RPCError) {
	var read ResourcesReadParams
	if err := json.Unmarshal(params, &read); err != nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "Invalid resources/read params", Data: err.Error()}
	}
	if resource := d.registry.Resource(read.URI); resource != nil {
		result, err := resource.Read()
		if err != nil {
			return nil, &RPCError{Code: ErrCodeInternal, Message: fmt.Sprintf("resource read error: %v", err)}
		}
		return result, nil
	}
	if ui := d.registry.UI(read.URI); ui != nil {
		result, err := ui.Read(ctx)
		if err != nil {
			return nil, &RPCError{Code: ErrCodeInternal, Message: fmt.Sprintf("ui resource read error: %v", err)}
		}
		return result, nil
	}
	return nil, &RPCError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("resource not found: %s", read.URI)}
}

func (d *Dispatcher) handleSubscribe(sessionID string, params json.RawMessage, subscribe bool) (any, *RPCError) {
	var p ResourcesSubscribeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "Invalid subscribe params", Data: err.Error()}
	}
	if d.registry.Resource(p.URI) == nil && d.registry.UI(p.URI) == nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: fmt.Sprintf("unknown resource: %s", p.URI)}
	}
	var ok bool
	if subscribe {
		ok = d.sessions.Subscribe(sessionID, p.URI)
	} else {
		ok = d.sessions.Unsubscribe(sessionID, p.URI)
	}
	if !ok {
		return nil, &RPCError{Code: ErrCodeInternal, Message: "unknown session"}
	}
	return struct{}{}, nil
}

// CompletionProvider is implemented by tools/prompts/resources that want to
// offer argument completions. Entries that don't implement it yield an
// empty completion list (spec.md §4.4).
type CompletionProvider interface {
	Complete(argName, value string) []string
}

func (d *Dispatcher) handleCompletion(params json.RawMessage) (any, *RPCError) {
	var p CompletionParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &RPCError{Code: ErrCodeInvalidParams, Message: "Invalid completion params", Data: err.Error()}
	}
	var ref struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	_ = json.Unmarshal(p.Ref, &ref)

	var provider CompletionProvider
	switch ref.Type {
	case "ref/prompt":
		if cp, ok := d.registry.Prompt(ref.Name).(CompletionProvider); ok {
			provider = cp
		}
	case "ref/resource":
		if cp, ok := d.registry.Resource(ref.Name).(CompletionProvider); ok {
			provider = cp
		}
	}

	result := CompletionResult{}
	if provider != nil {
		result.Completion.Values = provider.Complete(p.Argument.Name, p.Argument.Value)
	}
	return result, nil
}

func (d *Dispatcher) handleBidirectional(ctx context.Context, sessionID, method string, params json.RawMessage) (any, *RPCError) {
	if d.client == nil {
		return nil, &RPCError{Code: ErrCodeInternal, Message: "no handler registered for " + method}
	}
	var p any
	_ = json.Unmarshal(params, &p)
	result, err := d.client.CallClient(ctx, sessionID, method, p)
	if err != nil {
		return nil, &RPCError{Code: ErrCodeInternal, Message: err.Error()}
	}
	var out any
	if len(result) > 0 {
		_ = json.Unmarshal(result, &out)
	}
	return out, nil
}
