package sandbox

import (
	"context"
	"testing"

	"github.com/mcpforge/mcpforge/kernel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandbox_Execute_JavaScriptSuccess(t *testing.T) {
	sb := New(Config{TimeoutMillis: 1000}, nil, nil)
	result := sb.Execute(context.Background(), "javascript", "console.log('hi'); return 40+2;", 0)
	assert.True(t, result.Success)
	assert.Equal(t, "hi\n", result.Stdout)
}

func TestSandbox_Execute_Timeout(t *testing.T) {
	sb := New(Config{TimeoutMillis: 50}, nil, nil)
	result := sb.Execute(context.Background(), "javascript", "while(true){}", 0)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "timed out")
}

func TestSandbox_Execute_RuntimeErrorCaptured(t *testing.T) {
	sb := New(Config{TimeoutMillis: 1000}, nil, nil)
	result := sb.Execute(context.Background(), "javascript", "throw new Error('boom');", 0)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "boom")
}

func TestSandbox_ContainerMode_RequiresImage(t *testing.T) {
	sb := New(Config{Container: true}, nil, nil)
	result := sb.Execute(context.Background(), "javascript", "1+1", 0)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "sandbox.image")
}

type stubHostTools struct{ called string }

func (s *stubHostTools) CallTool(ctx context.Context, name string, args []byte) (*kernel.ToolsCallResult, error) {
	s.called = name
	return &kernel.ToolsCallResult{Content: []kernel.ContentBlock{kernel.TextContent("42")}}, nil
}

func TestSandbox_HostToolReintroduction(t *testing.T) {
	host := &stubHostTools{}
	sb := New(Config{TimeoutMillis: 1000}, host, []string{"get_temperature"})
	result := sb.Execute(context.Background(), "javascript", "tools.getTemperature({location:'Paris'});", 0)
	assert.True(t, result.Success)
	assert.Equal(t, "get_temperature", host.called)
}

func TestCamelCase(t *testing.T) {
	assert.Equal(t, "getTemperature", camelCase("get_temperature"))
	assert.Equal(t, "createUser", camelCase("create-user"))
}

func TestRunnerTool_ValidatesLanguageEnum(t *testing.T) {
	sb := New(Config{TimeoutMillis: 1000}, nil, nil)
	tool, err := NewRunnerTool(sb)
	require.NoError(t, err)

	err = tool.Validate([]byte(`{"language":"python","code":"1+1"}`))
	require.Error(t, err)

	err = tool.Validate([]byte(`{"language":"javascript","code":"1+1"}`))
	assert.NoError(t, err)
}

func TestRunnerTool_Execute_ReturnsStructuredResult(t *testing.T) {
	sb := New(Config{TimeoutMillis: 1000}, nil, nil)
	tool, err := NewRunnerTool(sb)
	require.NoError(t, err)

	result, err := tool.Execute(context.Background(), []byte(`{"language":"javascript","code":"return 1;"}`))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}
