// Command mcpforge-demo runs a small MCP server assembled directly against
// the programmatic Server Builder API, demonstrating the kernel without any
// authoring frontend in front of it.
//
// It communicates over stdio or streamable HTTP (selected by configuration)
// using JSON-RPC 2.0 per the MCP protocol.
//
// Configuration is read from a TOML file (see internal/config) and
// overridden by MCPFORGE_* environment variables; see --help.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mcpforge/mcpforge/internal/config"
	"github.com/mcpforge/mcpforge/kernel"
	"github.com/mcpforge/mcpforge/sandbox"
	"github.com/mcpforge/mcpforge/schema"
	"github.com/mcpforge/mcpforge/server"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mcpforge-demo: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to mcpforge.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(newLogHandler(cfg.Log))

	version := cfg.Server.Version
	if Version != "dev" {
		version = Version
	}

	logger.Info("starting mcpforge-demo", "version", version, "transport", cfg.Transport.Mode)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	b := server.New(kernel.ServerInfo{
		Name:        cfg.Server.Name,
		Version:     version,
		Description: cfg.Server.Description,
	}, logger, 0, 0)

	if err := registerDemoTools(b); err != nil {
		return fmt.Errorf("registering demo tools: %w", err)
	}

	if cfg.Sandbox.Enabled {
		sandboxCfg := sandbox.Config{
			TimeoutMillis: cfg.Sandbox.TimeoutMillis,
			MemoryLimitMB: cfg.Sandbox.MemoryLimitMB,
			Container:     cfg.Sandbox.Container,
			Image:         cfg.Sandbox.Image,
		}
		if err := b.EnableSandbox(sandboxCfg, b.HostCaller()); err != nil {
			return fmt.Errorf("enabling sandbox: %w", err)
		}
	}

	var origins []string
	if cfg.Transport.CORSOrigins != "" && cfg.Transport.CORSOrigins != "*" {
		origins = strings.Split(cfg.Transport.CORSOrigins, ",")
	}
	return b.Start(ctx, server.StartOptions{
		Transport:   cfg.Transport.Mode,
		Port:        cfg.Transport.Port,
		Host:        cfg.Transport.Host,
		CORSOrigins: origins,
	})
}

func newLogHandler(cfg config.LogConfig) slog.Handler {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.NewTextHandler(os.Stderr, opts)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// echoTool is a minimal demonstration tool exercising the kernel end to end
// without any authoring frontend's lowering logic.
type echoTool struct {
	validator *schema.Validator
}

func newEchoTool() (*echoTool, error) {
	v, err := schema.NewValidatorFromIR(schema.Object(schema.Field{Name: "message", Node: schema.String()}))
	if err != nil {
		return nil, err
	}
	return &echoTool{validator: v}, nil
}

func (t *echoTool) Name() string        { return "echo" }
func (t *echoTool) Description() string { return "echoes the message argument back as text content" }
func (t *echoTool) InputSchema() []byte  { return t.validator.Document() }
func (t *echoTool) Validate(args []byte) error { return t.validator.Validate(args) }
func (t *echoTool) Timeout() int64       { return 0 }
func (t *echoTool) Execute(ctx context.Context, params []byte) (*kernel.ToolsCallResult, error) {
	var in struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(params, &in); err != nil {
		return nil, kernel.WrapError(kernel.KindValidation, "decoding echo arguments", err)
	}
	return &kernel.ToolsCallResult{Content: []kernel.ContentBlock{kernel.TextContent(in.Message)}}, nil
}

func registerDemoTools(b *server.Builder) error {
	tool, err := newEchoTool()
	if err != nil {
		return err
	}
	return b.AddTool(tool)
}
