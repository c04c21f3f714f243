package mcp

import (
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTools() []ToolDescriptor {
	return []ToolDescriptor{
		descriptorFromTool(mcptypes.NewTool("list_segments",
			mcptypes.WithDescription("List segments"),
			mcptypes.WithNumber("limit", mcptypes.DefaultNumber(50)),
		)),
		descriptorFromTool(mcptypes.NewTool("get_segment",
			mcptypes.WithDescription("Get one segment"),
			mcptypes.WithString("segment_id", mcptypes.Required(), mcptypes.Description("Segment identifier")),
		)),
		{Name: "ping"},
	}
}

func TestToolDescriptorParametersDefaults(t *testing.T) {
	params := ToolDescriptor{Name: "ping"}.Parameters()
	assert.Equal(t, "object", params["type"])
	assert.IsType(t, map[string]any{}, params["properties"])
}

func TestDescriptorFromRawSchema(t *testing.T) {
	tool := mcptypes.NewToolWithRawSchema("raw", "Raw schema tool",
		[]byte(`{"type":"object","properties":{"q":{"type":"string"}},"required":["q"],"additionalProperties":false}`))

	d := descriptorFromTool(tool)
	assert.Equal(t, []string{"q"}, d.Required())
	assert.Equal(t, false, d.InputSchema["additionalProperties"])
}

func TestConvertToolsToOpenAI(t *testing.T) {
	assert.Nil(t, ConvertToolsToOpenAI(nil))

	result := ConvertToolsToOpenAI(sampleTools())
	require.Len(t, result, 3)

	fn := result[1].GetFunction()
	require.NotNil(t, fn)
	assert.Equal(t, "get_segment", fn.Name)
	props, ok := fn.Parameters["properties"].(map[string]any)
	require.True(t, ok, "%T", fn.Parameters["properties"])
	assert.Contains(t, props, "segment_id")
}

func TestConvertToolsToAnthropic(t *testing.T) {
	result := ConvertToolsToAnthropic(sampleTools())
	require.Len(t, result, 3)

	tool := result[1].OfTool
	require.NotNil(t, tool)
	assert.Equal(t, "get_segment", tool.Name)
	assert.Equal(t, []string{"segment_id"}, tool.InputSchema.Required)
	assert.False(t, result[2].OfTool.Description.Valid(), "ping has no description")
}

func TestConvertToolsToOllama(t *testing.T) {
	tests := []struct {
		name     string
		input    []ToolDescriptor
		expected int
	}{
		{name: "empty tools", input: nil, expected: 0},
		{name: "sample tools", input: sampleTools(), expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertToolsToOllama(tt.input)
			require.Len(t, result, tt.expected)
			for _, tool := range result {
				assert.Equal(t, "function", tool.Type)
				assert.Equal(t, "object", tool.Function.Parameters.Type)
			}
		})
	}

	result := ConvertToolsToOllama(sampleTools())
	assert.Equal(t, []string{"segment_id"}, result[1].Function.Parameters.Required)
}
