package sandbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mcpforge/mcpforge/kernel"
	"github.com/mcpforge/mcpforge/schema"
)

// ToolName is the auto-registered meta-tool's fixed name (spec.md §4.12).
const ToolName = "tool_runner"

// RunnerTool adapts a Sandbox to the kernel.Tool interface so it can be
// registered like any other tool.
type RunnerTool struct {
	Sandbox   *Sandbox
	validator *schema.Validator
}

// NewRunnerTool builds the tool_runner meta-tool, compiling its own fixed
// input schema ({language, code, timeout?}) through the same IR pipeline
// every other tool uses.
func NewRunnerTool(sb *Sandbox) (*RunnerTool, error) {
	ir := schema.Object(
		schema.Field{Name: "language", Node: schema.Enum("javascript", "typescript")},
		schema.Field{Name: "code", Node: schema.String()},
		schema.Field{Name: "timeout", Node: schema.Number().WithInt(), Optional: true},
	)
	v, err := schema.NewValidatorFromIR(ir)
	if err != nil {
		return nil, err
	}
	return &RunnerTool{Sandbox: sb, validator: v}, nil
}

func (t *RunnerTool) Name() string        { return ToolName }
func (t *RunnerTool) Description() string { return "Executes a JavaScript or TypeScript snippet in an isolated sandbox and returns its result." }
func (t *RunnerTool) InputSchema() []byte { return t.validator.Document() }
func (t *RunnerTool) Validate(args []byte) error { return t.validator.Validate(args) }
func (t *RunnerTool) Timeout() int64      { return int64(t.Sandbox.Config.TimeoutMillis) }

type runnerArgs struct {
	Language string `json:"language"`
	Code     string `json:"code"`
	Timeout  int64  `json:"timeout"`
}

func (t *RunnerTool) Execute(ctx context.Context, params []byte) (*kernel.ToolsCallResult, error) {
	var args runnerArgs
	if err := json.Unmarshal(params, &args); err != nil {
		return nil, err
	}
	var timeout time.Duration
	if args.Timeout > 0 {
		timeout = time.Duration(args.Timeout) * time.Millisecond
	}

	result := t.Sandbox.Execute(ctx, args.Language, args.Code, timeout)

	buf, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, err
	}
	return &kernel.ToolsCallResult{
		Content:  []kernel.ContentBlock{kernel.TextContent(string(buf))},
		IsError:  !result.Success,
		Metadata: map[string]any{"executionTimeMs": result.ExecutionTime},
	}, nil
}
