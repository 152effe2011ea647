package kernel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	name string
}

func (s *stubTool) Name() string               { return s.name }
func (s *stubTool) Description() string        { return "a stub tool" }
func (s *stubTool) InputSchema() []byte        { return []byte(`{"type":"object"}`) }
func (s *stubTool) Validate(args []byte) error { return nil }
func (s *stubTool) Timeout() int64             { return 0 }
func (s *stubTool) Execute(ctx context.Context, params []byte) (*ToolsCallResult, error) {
	return &ToolsCallResult{Content: []ContentBlock{TextContent("ok")}}, nil
}

type stubResource struct {
	uri string
}

func (s *stubResource) Definition() ResourceDefinition { return ResourceDefinition{URI: s.uri, Name: s.uri} }
func (s *stubResource) Dynamic() bool                  { return false }
func (s *stubResource) Read() (*ResourcesReadResult, error) {
	return &ResourcesReadResult{Contents: []ResourceContent{{URI: s.uri, Text: "data"}}}, nil
}

type stubUI struct {
	uri string
}

func (s *stubUI) Definition() UIResourceDefinition {
	return UIResourceDefinition{URI: s.uri, Name: s.uri, MimeType: "text/html"}
}
func (s *stubUI) Read(ctx context.Context) (*ResourcesReadResult, error) {
	return &ResourcesReadResult{Contents: []ResourceContent{{URI: s.uri, MimeType: "text/html", Text: "<div/>"}}}, nil
}

func TestRegistry_RegisterTool_DuplicateRejected(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterTool(&stubTool{name: "add"}))
	err := r.RegisterTool(&stubTool{name: "add"})
	require.Error(t, err)
	var kerr *Error
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, KindConfiguration, kerr.Kind)
}

func TestRegistry_Capabilities_ReflectsRegisteredClasses(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, ServerCapability{}, r.Capabilities())

	require.NoError(t, r.RegisterTool(&stubTool{name: "add"}))
	caps := r.Capabilities()
	require.NotNil(t, caps.Tools)
	assert.Nil(t, caps.Resources)

	require.NoError(t, r.RegisterResource(&stubResource{uri: "res://a"}))
	caps = r.Capabilities()
	require.NotNil(t, caps.Resources)
	assert.True(t, caps.Resources.Subscribe)
}

func TestRegistry_Resources_IncludesUIEntries(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterResource(&stubResource{uri: "res://a"}))
	require.NoError(t, r.RegisterUI(&stubUI{uri: "ui://calculator"}))

	defs := r.Resources()
	require.Len(t, defs, 2)
	assert.Equal(t, "res://a", defs[0].URI)
	assert.Equal(t, "ui://calculator", defs[1].URI)
}

func TestRegistry_ToolOrder_PreservesRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterTool(&stubTool{name: "z"}))
	require.NoError(t, r.RegisterTool(&stubTool{name: "a"}))
	assert.Equal(t, []string{"z", "a"}, r.ToolNames())
}
