package testutil

import (
	"pathways/mcp"
	"pathways/model"
)

// TextDeltas returns one text delta per chunk.
func TextDeltas(chunks ...string) []model.Delta {
	deltas := make([]model.Delta, 0, len(chunks))
	for _, c := range chunks {
		deltas = append(deltas, model.Delta{Text: c})
	}
	return deltas
}

// ToolCallDelta returns a single tool-call fragment.
func ToolCallDelta(index int, id, name, args string) model.Delta {
	return model.Delta{ToolCall: &model.ToolCallDelta{Index: index, ID: id, Name: name, Arguments: args}}
}

// ToolCallRound returns a round that requests one complete tool call.
func ToolCallRound(id, name, args string) []model.Delta {
	return []model.Delta{ToolCallDelta(0, id, name, args)}
}

// SampleTools returns descriptors shaped like the Pathways tool set.
func SampleTools() []mcp.ToolDescriptor {
	return []mcp.ToolDescriptor{
		{
			Name:        "list_segmentations",
			Description: "List all published segmentations",
			InputSchema: map[string]any{"type": "object", "properties": map[string]any{}},
		},
		{
			Name:        "get_segment_profile",
			Description: "Get the profile of one segment",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"segmentation_code": map[string]any{"type": "string"},
					"segment_code":      map[string]any{"type": "string"},
				},
				"required": []any{"segmentation_code", "segment_code"},
			},
		},
	}
}

// TwoRoundTurn returns a conversation history whose assistant turn used
// two tool rounds before answering.
func TwoRoundTurn() []model.Message {
	return []model.Message{
		model.AssistantWithCalls("", []model.ToolCall{{ID: "call_1", Name: "list_segmentations", Arguments: "{}"}}),
		model.ToolResult("call_1", `[{"code":"UK01"}]`),
		model.AssistantWithCalls("Looking closer.", []model.ToolCall{{ID: "call_2", Name: "get_segment_profile", Arguments: `{"segmentation_code":"UK01","segment_code":"A"}`}}),
		model.ToolResult("call_2", `{"name":"Segment A"}`),
		model.AssistantFinal("Segment A is the largest."),
	}
}
