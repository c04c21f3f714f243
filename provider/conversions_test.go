package provider

import (
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathways/model"
	"pathways/provider/testutil"
)

func TestConvertToOpenAIMessages(t *testing.T) {
	msgs := append([]model.Message{
		model.SystemMessage("system"),
		model.UserMessage("Which segment is largest?"),
	}, testutil.TwoRoundTurn()...)

	result := ConvertToOpenAIMessages(msgs)
	require.Len(t, result, len(msgs))

	assert.NotNil(t, result[0].OfSystem)
	assert.NotNil(t, result[1].OfUser)

	callsOnly := result[2].OfAssistant
	require.NotNil(t, callsOnly, "%+v", result[2])
	assert.False(t, callsOnly.Content.OfString.Valid(), "calls-only message carries no content")
	require.Len(t, callsOnly.ToolCalls, 1)
	fn := callsOnly.ToolCalls[0].OfFunction
	require.NotNil(t, fn)
	assert.Equal(t, "call_1", fn.ID)
	assert.Equal(t, "list_segmentations", fn.Function.Name)
	assert.Equal(t, "{}", fn.Function.Arguments)

	result1 := result[3].OfTool
	require.NotNil(t, result1)
	assert.Equal(t, "call_1", result1.ToolCallID)

	withText := result[4].OfAssistant
	require.NotNil(t, withText)
	assert.Equal(t, "Looking closer.", withText.Content.OfString.Value)

	final := result[6].OfAssistant
	require.NotNil(t, final)
	assert.Empty(t, final.ToolCalls)
	assert.Equal(t, "Segment A is the largest.", final.Content.OfString.Value)
}

func TestConvertToAnthropicMessages(t *testing.T) {
	msgs := []model.Message{
		model.SystemMessage("system"),
		model.UserMessage("q"),
		model.AssistantWithCalls("Checking.", []model.ToolCall{
			{ID: "call_a", Name: "list_segmentations", Arguments: "{}"},
			{ID: "call_b", Name: "list_regions", Arguments: `{"segmentation_code":"UK01"}`},
		}),
		model.ToolResult("call_a", "[]"),
		model.ToolFailure("call_b", `{"error":"denied"}`),
		model.AssistantFinal("done"),
	}

	result, system := ConvertToAnthropicMessages(msgs)

	require.Len(t, system, 1)
	assert.Equal(t, "system", system[0].Text)
	require.Len(t, result, 4)

	assistant := result[1]
	assert.Equal(t, anthropic.MessageParamRoleAssistant, assistant.Role)
	require.Len(t, assistant.Content, 3, "text plus two tool_use blocks")
	use := assistant.Content[2].OfToolUse
	require.NotNil(t, use)
	assert.Equal(t, "call_b", use.ID)
	assert.Equal(t, "list_regions", use.Name)
	input, ok := use.Input.(map[string]any)
	require.True(t, ok, "%#v", use.Input)
	assert.Equal(t, "UK01", input["segmentation_code"])

	results := result[2]
	assert.Equal(t, anthropic.MessageParamRoleUser, results.Role)
	require.Len(t, results.Content, 2, "consecutive results are merged")
	for i, id := range []string{"call_a", "call_b"} {
		tr := results.Content[i].OfToolResult
		require.NotNil(t, tr, "block %d", i)
		assert.Equal(t, id, tr.ToolUseID)
	}
	assert.False(t, results.Content[0].OfToolResult.IsError.Value)
	assert.True(t, results.Content[1].OfToolResult.IsError.Value)
}

func TestConvertToAnthropicMessagesDropsEmptyAnswer(t *testing.T) {
	msgs := []model.Message{
		model.UserMessage("first"),
		model.AssistantFinal(""),
		model.UserMessage("second"),
		model.AssistantFinal("ok"),
	}

	result, _ := ConvertToAnthropicMessages(msgs)

	require.Len(t, result, 2)
	assert.Equal(t, anthropic.MessageParamRoleUser, result[0].Role)
	require.Len(t, result[0].Content, 2, "user turns around the dropped answer are merged")
	for i, want := range []string{"first", "second"} {
		text := result[0].Content[i].OfText
		require.NotNil(t, text)
		assert.Equal(t, want, text.Text)
	}
	assert.Equal(t, anthropic.MessageParamRoleAssistant, result[1].Role)

	for _, msg := range result {
		for _, block := range msg.Content {
			if block.OfText != nil {
				assert.NotEmpty(t, block.OfText.Text)
			}
		}
	}
}

func TestAnthropicToolInputMalformed(t *testing.T) {
	tests := []struct {
		name string
		args string
	}{
		{"empty", ""},
		{"truncated", `{"a":`},
		{"null", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := anthropicToolInput(model.ToolCall{Name: "x", Arguments: tt.args})
			require.NotNil(t, input)
			assert.Empty(t, input)
		})
	}
}

func TestConvertToOllamaMessages(t *testing.T) {
	msgs := []model.Message{
		model.UserMessage("Hello"),
		model.AssistantWithCalls("", []model.ToolCall{{ID: "call_0", Name: "list_regions", Arguments: `{"segmentation_code":"UK01"}`}}),
		model.ToolResult("call_0", "[]"),
	}

	result := ConvertToOllamaMessages(msgs)
	require.Len(t, result, 3)
	assert.Equal(t, "user", result[0].Role)
	assert.Equal(t, "Hello", result[0].Content)
	require.Len(t, result[1].ToolCalls, 1)
	assert.Equal(t, "list_regions", result[1].ToolCalls[0].Function.Name)
	assert.Equal(t, "tool", result[2].Role)
	assert.Equal(t, "[]", result[2].Content)
}
