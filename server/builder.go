// Package server implements the Server Builder (spec.md §4.13): the
// programmatic registration surface every authoring frontend lowers to.
// It owns the constructed -> configured -> running -> stopped state machine
// and wires the registration-time startupcheck.Runner before a transport is
// allowed to start. Grounded on the teacher's cmd/specmcp/main.go wiring
// shape, generalized from a one-shot main() into a reusable, stateful type.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/mcpforge/mcpforge/kernel"
	"github.com/mcpforge/mcpforge/kernel/startupcheck"
	"github.com/mcpforge/mcpforge/sandbox"
	"github.com/mcpforge/mcpforge/transport/httpmcp"
	"github.com/mcpforge/mcpforge/transport/stdio"
)

// State is a server instance's position in the constructed/configured/
// running/stopped lifecycle (spec.md §4.13).
type State int

const (
	StateConstructed State = iota
	StateConfigured
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateConfigured:
		return "configured"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StartOptions selects the transport start binds to.
type StartOptions struct {
	Transport   string // "stdio" or "http"
	Port        string // used only when Transport == "http"
	Host        string
	CORSOrigins []string // used only when Transport == "http"; nil means permissive (httpmcp's "*" default)
}

// Stats is the read-only snapshot returned by GetStats.
type Stats struct {
	ToolCount     int
	PromptCount   int
	ResourceCount int
	UICount       int
	SessionCount  int
	State         string
}

// Builder is the programmatic entry point every authoring frontend lowers
// to: addTool/addPrompt/addResource/addUI, start/stop, and the read-only
// getInfo/getStats surface named in spec.md §4.13.
type Builder struct {
	mu    sync.Mutex
	state State

	registry *kernel.Registry
	sessions *kernel.SessionManager
	info     kernel.ServerInfo
	logger   *slog.Logger

	defaultTimeout time.Duration
	sandboxCfg     *sandbox.Config // nil disables the tool_runner meta-tool

	dispatch *kernel.Dispatcher
	checks   *startupcheck.Runner

	httpServer *httpmcp.Server
	stdioTr    *stdio.Transport
	cancel     context.CancelFunc

	// StdioIn/StdioOut/StdioErr default to os.Stdin/os.Stdout/os.Stderr.
	// Exposed for tests to substitute in-memory streams rather than block
	// on the process's real stdin.
	StdioIn  io.Reader
	StdioOut io.Writer
	StdioErr io.Writer
}

// New constructs a server in state "constructed". sessionIdleTTL and
// defaultTimeout of 0 fall back to the kernel's own defaults.
func New(info kernel.ServerInfo, logger *slog.Logger, sessionIdleTTL, defaultTimeout time.Duration) *Builder {
	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}
	return &Builder{
		state:          StateConstructed,
		registry:       kernel.NewRegistry(),
		sessions:       kernel.NewSessionManager(sessionIdleTTL),
		info:           info,
		logger:         logger,
		defaultTimeout: defaultTimeout,
		checks:         startupcheck.NewRunner(),
	}
}

// EnableSandbox registers the tool_runner meta-tool (spec.md §4.12) and must
// be called before Start, like any other add*.
func (b *Builder) EnableSandbox(cfg sandbox.Config, hostTools sandbox.HostToolCaller) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateRunning || b.state == StateStopped {
		return kernel.NewError(kernel.KindConfiguration, fmt.Sprintf("cannot enable sandbox while %s", b.state))
	}
	b.sandboxCfg = &cfg
	sb := sandbox.New(cfg, hostTools, b.registry.ToolNames())
	tool, err := sandbox.NewRunnerTool(sb)
	if err != nil {
		return err
	}
	if err := b.registry.RegisterTool(tool); err != nil {
		return err
	}
	b.advanceLocked()
	return nil
}

// AddTool registers a tool. Rejected once running.
func (b *Builder) AddTool(t kernel.Tool) error { return b.add(func() error { return b.registry.RegisterTool(t) }) }

// AddPrompt registers a prompt. Rejected once running.
func (b *Builder) AddPrompt(p kernel.Prompt) error {
	return b.add(func() error { return b.registry.RegisterPrompt(p) })
}

// AddResource registers a resource. Rejected once running.
func (b *Builder) AddResource(r kernel.Resource) error {
	return b.add(func() error { return b.registry.RegisterResource(r) })
}

// AddUI registers a UI resource. Rejected once running.
func (b *Builder) AddUI(u kernel.UIResource) error {
	return b.add(func() error { return b.registry.RegisterUI(u) })
}

func (b *Builder) add(fn func() error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateRunning || b.state == StateStopped {
		return kernel.NewError(kernel.KindConfiguration, fmt.Sprintf("cannot register while %s", b.state))
	}
	if err := fn(); err != nil {
		return err
	}
	b.advanceLocked()
	return nil
}

func (b *Builder) advanceLocked() {
	if b.state == StateConstructed {
		b.state = StateConfigured
	}
}

// AddStartupCheck registers an additional registration-time check run by
// Start, beyond the built-in UI-whitelist check that Start adds (spec.md
// §4.3).
func (b *Builder) AddStartupCheck(c startupcheck.Check) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checks.Add(c)
}

// Start runs registration-time checks, builds the dispatcher, and binds the
// selected transport. Rejected unless constructed or configured.
func (b *Builder) Start(ctx context.Context, opts StartOptions) error {
	b.mu.Lock()
	if b.state == StateRunning {
		b.mu.Unlock()
		return kernel.NewError(kernel.KindConfiguration, "start: already running")
	}
	if b.state == StateStopped {
		b.mu.Unlock()
		return kernel.NewError(kernel.KindConfiguration, "start: server already stopped, construct a new instance")
	}

	b.checks.Add(b.uiToolWhitelistCheck)
	warnings, err := b.checks.Run()
	for _, w := range warnings {
		b.logger.Warn("startup check warning", "check", w.CheckName, "message", w.Message)
	}
	if err != nil {
		b.mu.Unlock()
		return kernel.NewError(kernel.KindConfiguration, err.Error())
	}

	b.dispatch = kernel.NewDispatcher(b.registry, b.sessions, b.info, b.logger, b.defaultTimeout)

	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.state = StateRunning
	b.mu.Unlock()

	switch opts.Transport {
	case "", "stdio":
		in, out, errOut := b.StdioIn, b.StdioOut, b.StdioErr
		if in == nil {
			in = os.Stdin
		}
		if out == nil {
			out = os.Stdout
		}
		if errOut == nil {
			errOut = os.Stderr
		}
		tr := stdio.New(b.dispatch, in, out, errOut, b.logger)
		b.mu.Lock()
		b.stdioTr = tr
		b.mu.Unlock()
		return tr.Run(runCtx)
	case "http":
		host := opts.Host
		port := opts.Port
		if port == "" {
			port = "8629"
		}
		srv := httpmcp.New(b.dispatch, b.sessions, opts.CORSOrigins, b.logger)
		b.mu.Lock()
		b.httpServer = srv
		b.mu.Unlock()
		return serveHTTP(runCtx, srv, host, port, b.logger)
	default:
		return kernel.NewError(kernel.KindConfiguration, fmt.Sprintf("unknown transport %q", opts.Transport))
	}
}

// serveHTTP binds the httpmcp router to host:port and blocks until ctx is
// cancelled, then shuts down gracefully.
func serveHTTP(ctx context.Context, srv *httpmcp.Server, host, port string, logger *slog.Logger) error {
	httpSrv := &http.Server{Addr: host + ":" + port, Handler: srv.Router()}
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown error", "error", err)
		}
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

// Stop transitions to "stopped" and cancels the running transport's
// context. A no-op if already stopped (spec.md §4.13).
func (b *Builder) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateStopped {
		return
	}
	if b.cancel != nil {
		b.cancel()
	}
	b.sessions.Stop()
	b.state = StateStopped
}

// GetInfo returns the server's advertised identity.
func (b *Builder) GetInfo() kernel.ServerInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.info
}

// GetStats returns a read-only snapshot of registry and session counts.
func (b *Builder) GetStats() Stats {
	b.mu.Lock()
	state := b.state
	b.mu.Unlock()
	return Stats{
		ToolCount:     len(b.registry.ToolNames()),
		PromptCount:   len(b.registry.Prompts()),
		ResourceCount: len(b.registry.Resources()),
		UICount:       len(b.registry.UIs()),
		SessionCount:  b.sessions.Count(),
		State:         state.String(),
	}
}

// Registry exposes the underlying registry for authoring frontends that
// need direct access (e.g. the decorator collector reconciling names).
func (b *Builder) Registry() *kernel.Registry { return b.registry }

// HostCaller returns a sandbox.HostToolCaller that forwards sandboxed tool
// calls back into this builder's registry (spec.md §4.12's tool
// reintroduction), suitable for EnableSandbox.
func (b *Builder) HostCaller() sandbox.HostToolCaller { return registryHostCaller{b.registry} }

type registryHostCaller struct{ registry *kernel.Registry }

func (c registryHostCaller) CallTool(ctx context.Context, name string, args []byte) (*kernel.ToolsCallResult, error) {
	t := c.registry.Tool(name)
	if t == nil {
		return nil, kernel.NewError(kernel.KindConfiguration, "unknown tool: "+name)
	}
	if err := t.Validate(args); err != nil {
		return nil, err
	}
	return t.Execute(ctx, args)
}

// uiToolWhitelistCheck is the built-in startupcheck.Check verifying every
// UI resource's declared tool whitelist names tools that actually exist at
// start time (spec.md §4.3, §4.14: "UI whitelisting a missing tool" is a
// Configuration error, fatal at start).
func (b *Builder) uiToolWhitelistCheck() []startupcheck.Result {
	known := make(map[string]struct{})
	for _, name := range b.registry.ToolNames() {
		known[name] = struct{}{}
	}
	var results []startupcheck.Result
	for _, ui := range b.registry.UIs() {
		for _, name := range ui.Tools {
			if _, ok := known[name]; !ok {
				results = append(results, startupcheck.Result{
					CheckName: "ui-tool-whitelist",
					Passed:    false,
					Severity:  startupcheck.Fatal,
					Message:   fmt.Sprintf("UI %q whitelists unknown tool %q", ui.URI, name),
				})
			}
		}
	}
	return results
}
