package server

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/mcpforge/mcpforge/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubTool struct{ name string }

func (s *stubTool) Name() string        { return s.name }
func (s *stubTool) Description() string { return "a stub tool" }
func (s *stubTool) InputSchema() []byte { return []byte(`{"type":"object"}`) }
func (s *stubTool) Validate([]byte) error { return nil }
func (s *stubTool) Timeout() int64      { return 0 }
func (s *stubTool) Execute(ctx context.Context, params []byte) (*kernel.ToolsCallResult, error) {
	return &kernel.ToolsCallResult{Content: []kernel.ContentBlock{kernel.TextContent("ok")}}, nil
}

type stubUI struct {
	uri   string
	tools []string
}

func (s *stubUI) Definition() kernel.UIResourceDefinition {
	return kernel.UIResourceDefinition{URI: s.uri, Name: s.uri, Tools: s.tools, MimeType: "text/html"}
}
func (s *stubUI) Read(ctx context.Context) (*kernel.ResourcesReadResult, error) {
	return &kernel.ResourcesReadResult{Contents: []kernel.ResourceContent{{URI: s.uri, MimeType: "text/html", Text: "<div/>"}}}, nil
}

func newBuilder() *Builder {
	b := New(kernel.ServerInfo{Name: "test", Version: "0.0.1"}, testLogger(), time.Minute, time.Second)
	b.StdioIn = strings.NewReader("")
	b.StdioOut = io.Discard
	b.StdioErr = io.Discard
	return b
}

func TestBuilder_StateTransitions_ConstructedToConfigured(t *testing.T) {
	b := newBuilder()
	assert.Equal(t, StateConstructed, b.state)
	require.NoError(t, b.AddTool(&stubTool{name: "add"}))
	assert.Equal(t, StateConfigured, b.state)
}

func TestBuilder_AddRejectedOnceRunning(t *testing.T) {
	b := newBuilder()
	require.NoError(t, b.AddTool(&stubTool{name: "add"}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Start(ctx, StartOptions{Transport: "stdio"}) }()

	require.Eventually(t, func() bool { return b.GetStats().State == "running" }, time.Second, 5*time.Millisecond)

	err := b.AddTool(&stubTool{name: "subtract"})
	require.Error(t, err)

	cancel()
	<-done
}

func TestBuilder_Stop_IsNoOpWhenAlreadyStopped(t *testing.T) {
	b := newBuilder()
	b.Stop()
	assert.Equal(t, StateStopped, b.state)
	b.Stop() // should not panic or change anything
	assert.Equal(t, StateStopped, b.state)
}

func TestBuilder_Start_RejectedWhenAlreadyStopped(t *testing.T) {
	b := newBuilder()
	b.Stop()
	err := b.Start(context.Background(), StartOptions{Transport: "stdio"})
	require.Error(t, err)
}

func TestBuilder_Start_FailsOnUnknownTransport(t *testing.T) {
	b := newBuilder()
	err := b.Start(context.Background(), StartOptions{Transport: "carrier-pigeon"})
	require.Error(t, err)
}

func TestBuilder_Start_FailsWhenUIWhitelistsMissingTool(t *testing.T) {
	b := newBuilder()
	require.NoError(t, b.AddUI(&stubUI{uri: "ui://calculator", tools: []string{"add"}}))
	err := b.Start(context.Background(), StartOptions{Transport: "stdio"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "add")
}

func TestBuilder_Start_SucceedsWhenUIWhitelistSatisfied(t *testing.T) {
	b := newBuilder()
	require.NoError(t, b.AddTool(&stubTool{name: "add"}))
	require.NoError(t, b.AddUI(&stubUI{uri: "ui://calculator", tools: []string{"add"}}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Start(ctx, StartOptions{Transport: "stdio"}) }()

	require.Eventually(t, func() bool { return b.GetStats().State == "running" }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestBuilder_GetStats_ReflectsRegistrations(t *testing.T) {
	b := newBuilder()
	require.NoError(t, b.AddTool(&stubTool{name: "add"}))
	stats := b.GetStats()
	assert.Equal(t, 1, stats.ToolCount)
	assert.Equal(t, "configured", stats.State)
}

func TestBuilder_GetInfo(t *testing.T) {
	b := newBuilder()
	info := b.GetInfo()
	assert.Equal(t, "test", info.Name)
}
