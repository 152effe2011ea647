package decorator

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mcpforge/mcpforge/kernel"
	"github.com/mcpforge/mcpforge/schema"
	"github.com/mcpforge/mcpforge/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newBuilder() *server.Builder {
	return server.New(kernel.ServerInfo{Name: "test", Version: "0.0.1"}, testLogger(), time.Minute, time.Second)
}

// bareService has no Describer attached: every exported tool-shaped method
// is auto-discovered, kebab-cased.
type bareService struct{}

func (bareService) GetWeather(ctx context.Context, args []byte) (*kernel.ToolsCallResult, error) {
	return &kernel.ToolsCallResult{Content: []kernel.ContentBlock{kernel.TextContent("sunny")}}, nil
}

// Label should be skipped by auto-discovery since it doesn't match
// the fixed tool calling convention.
func (bareService) Label() string { return "bare" }

// describedService attaches explicit metadata for one method and leaves a
// second exported tool-shaped method for auto-discovery.
type describedService struct{}

func (describedService) CreateUser(ctx context.Context, args []byte) (*kernel.ToolsCallResult, error) {
	return &kernel.ToolsCallResult{Content: []kernel.ContentBlock{kernel.TextContent("created")}}, nil
}

func (describedService) ListUsers(ctx context.Context, args []byte) (*kernel.ToolsCallResult, error) {
	return &kernel.ToolsCallResult{Content: []kernel.ContentBlock{kernel.TextContent("[]")}}, nil
}

func (describedService) MCPTools() []ToolMeta {
	return []ToolMeta{{
		Method:      "create_user",
		Name:        "create-user",
		Description: "creates a user",
		Params:      schema.Object(schema.Field{Name: "name", Node: schema.String()}),
	}}
}

func TestCollect_AutoDiscoversBareMethods(t *testing.T) {
	b := newBuilder()
	require.NoError(t, Collect(b, bareService{}))

	tool := b.Registry().Tool("get-weather")
	require.NotNil(t, tool)
	assert.Nil(t, b.Registry().Tool("label"))

	result, err := tool.Execute(context.Background(), []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, "sunny", result.Content[0].Text)
}

func TestCollect_ExplicitMetadataOverridesAutoDiscovery(t *testing.T) {
	b := newBuilder()
	require.NoError(t, Collect(b, describedService{}))

	tagged := b.Registry().Tool("create-user")
	require.NotNil(t, tagged)
	assert.Error(t, tagged.Validate([]byte(`{"name":123}`)))
	assert.NoError(t, tagged.Validate([]byte(`{"name":"ada"}`)))

	auto := b.Registry().Tool("list-users")
	require.NotNil(t, auto)
}

func TestKebabCase(t *testing.T) {
	assert.Equal(t, "get-weather", kebabCase("GetWeather"))
	assert.Equal(t, "list-users", kebabCase("ListUsers"))
	assert.Equal(t, "a", kebabCase("A"))
}
