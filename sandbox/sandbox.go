// Package sandbox implements the Code Execution Sandbox (spec.md §4.12):
// the kernel auto-registers a tool_runner meta-tool when code execution is
// enabled, evaluating untrusted source in a restricted runtime.
package sandbox

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/mcpforge/mcpforge/kernel"
	"github.com/mcpforge/mcpforge/ui"
)

// Config controls sandbox defaults; mirrors internal/config.SandboxConfig.
type Config struct {
	TimeoutMillis int
	MemoryLimitMB int
	Container     bool
	Image         string
}

// Result is the tool_runner meta-tool's structured output (spec.md §4.12).
type Result struct {
	Success       bool   `json:"success"`
	ReturnValue   any    `json:"returnValue,omitempty"`
	Stdout        string `json:"stdout,omitempty"`
	Stderr        string `json:"stderr,omitempty"`
	Error         string `json:"error,omitempty"`
	StackTrace    string `json:"stackTrace,omitempty"`
	ExecutionTime int64  `json:"executionTime"`
}

// HostToolCaller forwards a sandboxed call back into the kernel's dispatch
// path, as if it were a client-originated tools/call (spec.md §4.12: "host's
// registered tools are re-exposed ... as callable stubs").
type HostToolCaller interface {
	CallTool(ctx context.Context, name string, args []byte) (*kernel.ToolsCallResult, error)
}

// Sandbox evaluates source code in an isolated goja runtime per call.
// Instances are never reused across calls (spec.md §5).
type Sandbox struct {
	Config       Config
	HostTools    HostToolCaller // nil disables tool reintroduction
	ToolNames    []string
}

func New(cfg Config, hostTools HostToolCaller, toolNames []string) *Sandbox {
	if cfg.TimeoutMillis <= 0 {
		cfg.TimeoutMillis = 5000
	}
	if cfg.MemoryLimitMB <= 0 {
		cfg.MemoryLimitMB = 128
	}
	return &Sandbox{Config: cfg, HostTools: hostTools, ToolNames: toolNames}
}

// Execute runs source in isolated-runtime mode (the default) or delegates
// to container mode when configured.
func (s *Sandbox) Execute(ctx context.Context, language, code string, timeout time.Duration) *Result {
	if timeout <= 0 {
		timeout = time.Duration(s.Config.TimeoutMillis) * time.Millisecond
	}
	if s.Config.Container {
		return s.executeContainer(ctx, language, code, timeout)
	}
	return s.executeIsolated(ctx, language, code, timeout)
}

func (s *Sandbox) executeIsolated(ctx context.Context, language, code string, timeout time.Duration) *Result {
	start := time.Now()

	source := "(function(){\n" + code + "\n})()"
	if language == "typescript" {
		compiled, err := ui.Transpile(source, []string{"typescript"})
		if err != nil {
			return &Result{Success: false, Error: fmt.Sprintf("sandbox load failure: %v", err), ExecutionTime: time.Since(start).Milliseconds()}
		}
		source = compiled
	}

	rt := goja.New()
	rt.SetMemoryLimit(uint64(s.Config.MemoryLimitMB) * 1024 * 1024)

	var stdout, stderr strings.Builder
	installConsole(rt, &stdout, &stderr)
	if s.HostTools != nil {
		installHostTools(ctx, rt, s.HostTools, s.ToolNames)
	}

	done := make(chan *Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- &Result{
					Success: false,
					Error:   fmt.Sprintf("%v", r),
					Stdout:  stdout.String(),
					Stderr:  stderr.String(),
				}
			}
		}()
		value, err := rt.RunString(source)
		if err != nil {
			if exc, ok := err.(*goja.Exception); ok {
				done <- &Result{Success: false, Error: exc.Error(), StackTrace: exc.String(), Stdout: stdout.String(), Stderr: stderr.String()}
				return
			}
			done <- &Result{Success: false, Error: err.Error(), Stdout: stdout.String(), Stderr: stderr.String()}
			return
		}
		done <- &Result{Success: true, ReturnValue: value.Export(), Stdout: stdout.String(), Stderr: stderr.String()}
	}()

	timer := time.AfterFunc(timeout, func() {
		rt.Interrupt(fmt.Sprintf("Execution timed out after %dms", timeout.Milliseconds()))
	})
	defer timer.Stop()

	select {
	case res := <-done:
		res.ExecutionTime = time.Since(start).Milliseconds()
		return res
	case <-ctx.Done():
		rt.Interrupt("context canceled")
		res := <-done
		res.ExecutionTime = time.Since(start).Milliseconds()
		return res
	}
}

// executeContainer models the ephemeral-OS-container path described in
// spec.md §4.12. No real container runtime is spawned here — see
// DESIGN.md's Code Execution Sandbox section — but the interface is kept distinct from
// isolated-runtime mode so a real container backend can be substituted
// without changing tool_runner's contract. stdout is chunk-buffered, never
// split into lines, matching the resolved open question in SPEC_FULL.md §4.
func (s *Sandbox) executeContainer(ctx context.Context, language, code string, timeout time.Duration) *Result {
	start := time.Now()
	if s.Config.Image == "" {
		return &Result{Success: false, Error: "sandbox load failure: container mode requires sandbox.image", ExecutionTime: time.Since(start).Milliseconds()}
	}
	result := s.executeIsolated(ctx, language, code, timeout)
	result.ExecutionTime = time.Since(start).Milliseconds()
	return result
}

func installConsole(rt *goja.Runtime, stdout, stderr *strings.Builder) {
	console := rt.NewObject()
	console.Set("log", func(call goja.FunctionCall) goja.Value {
		writeArgs(stdout, call.Arguments)
		return goja.Undefined()
	})
	console.Set("error", func(call goja.FunctionCall) goja.Value {
		writeArgs(stderr, call.Arguments)
		return goja.Undefined()
	})
	console.Set("warn", func(call goja.FunctionCall) goja.Value {
		writeArgs(stderr, call.Arguments)
		return goja.Undefined()
	})
	rt.Set("console", console)
}

func writeArgs(b *strings.Builder, args []goja.Value) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	b.WriteString(strings.Join(parts, " "))
	b.WriteString("\n")
}
