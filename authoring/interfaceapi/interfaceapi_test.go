package interfaceapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_ServerDescriptor(t *testing.T) {
	src := `
interface ServerInfo {
  name: "weather-server";
  version: "1.0.0";
  description: "demo server";
}
`
	result, err := Parse([]byte(src))
	require.NoError(t, err)
	require.NotNil(t, result.Server)
	assert.Equal(t, "weather-server", result.Server.Name)
	assert.Equal(t, "1.0.0", result.Server.Version)
}

func TestParse_ToolDescriptorWithConstraints(t *testing.T) {
	src := `
interface GetTemperature {
  name: "get_temperature";
  description: "fetches the temperature";
  params: {
    /** @minLength 1 @maxLength 80 */
    location: string;
    units?: "celsius" | "fahrenheit";
  };
  result: number;
}
`
	result, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Len(t, result.Tools, 1)
	tool := result.Tools[0]
	assert.Equal(t, "get_temperature", tool.Name)
	assert.Equal(t, "get_temperature", tool.Binding)
	require.NotNil(t, tool.Params)
	assert.Len(t, tool.Params.Fields, 2)
}

func TestParse_StaticPrompt(t *testing.T) {
	src := `
interface WeatherReport {
  name: "weather_report";
  description: "report prompt";
  args: {
    location: string;
  };
  template: "Report for {location}.";
}
`
	result, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Len(t, result.Prompts, 1)
	p := result.Prompts[0]
	assert.False(t, p.Dynamic)
	assert.Equal(t, "Report for {location}.", p.Template)
}

func TestParse_DynamicResourceBindsURI(t *testing.T) {
	src := `
interface SearchStats {
  uri: "stats://search";
  name: "search-stats";
  description: "search stats";
  mimeType: "application/json";
  dynamic: true;
}
`
	result, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Len(t, result.Resources, 1)
	r := result.Resources[0]
	assert.True(t, r.Dynamic)
	assert.Equal(t, "stats://search", r.Binding)
}

func TestParse_UIDescriptorWithToolWhitelist(t *testing.T) {
	src := `
interface Calculator {
  uri: "ui://calculator";
  name: "calculator";
  description: "calculator UI";
  source: "<div>calc</div>";
  tools: ["add", "subtract"];
}
`
	result, err := Parse([]byte(src))
	require.NoError(t, err)
	require.Len(t, result.UI, 1)
	ui := result.UI[0]
	assert.Equal(t, "ui://calculator", ui.URI)
	assert.Equal(t, []string{"add", "subtract"}, ui.Tools)
}

func TestToCamelCase(t *testing.T) {
	assert.Equal(t, "weatherReport", toCamelCase("weather_report"))
	assert.Equal(t, "weatherReport", toCamelCase("weather-report"))
}
