package provider

import (
	"encoding/json"
	"pathways/config"
	"pathways/model"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"
)

// ConvertToOpenAIMessages converts model.Message values to OpenAI chat
// completion message params.
//
// Assistant messages keep their tool calls and correlation ids. An assistant
// message whose Content is nil is sent without a content field, which the
// API requires for calls-only messages.
//
// Example:
//
//	msgs := []model.Message{
//	    model.SystemMessage("You are helpful."),
//	    model.UserMessage("Hello"),
//	}
//	params := ConvertToOpenAIMessages(msgs)
func ConvertToOpenAIMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Text()))
		case model.RoleUser:
			result = append(result, openai.UserMessage(msg.Text()))
		case model.RoleTool:
			result = append(result, openai.ToolMessage(msg.Text(), msg.ToolCallID))
		case model.RoleAssistant:
			result = append(result, openAIAssistantMessage(msg))
		default:
			result = append(result, openai.UserMessage(msg.Text()))
		}
	}
	return result
}

func openAIAssistantMessage(msg model.Message) openai.ChatCompletionMessageParamUnion {
	assistant := openai.ChatCompletionAssistantMessageParam{}
	if msg.Content != nil {
		assistant.Content.OfString = openai.String(*msg.Content)
	}
	for _, call := range msg.ToolCalls {
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

// ConvertToAnthropicMessages converts model.Message values to Anthropic
// message params. Returns the message array and the system prompt blocks,
// which Anthropic takes as a separate request parameter.
//
// Tool calls become tool_use blocks on the assistant message. Consecutive
// tool results are merged into a single user message of tool_result blocks,
// since Anthropic expects every result for one assistant message to arrive
// together. An assistant message with neither text nor calls is dropped,
// because Anthropic rejects empty text blocks; the user messages around it
// are merged so roles keep alternating.
func ConvertToAnthropicMessages(messages []model.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var systemBlocks []anthropic.TextBlockParam
	anthropicMsgs := make([]anthropic.MessageParam, 0, len(messages))

	for i := 0; i < len(messages); i++ {
		msg := messages[i]
		switch msg.Role {
		case model.RoleSystem:
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: msg.Text()})

		case model.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Text() != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Text()))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, anthropicToolInput(call), call.Name))
			}
			if len(blocks) == 0 {
				if config.DebugLog != nil {
					config.DebugLog.Printf("[Provider] dropping empty assistant message at %d", i)
				}
				continue
			}
			anthropicMsgs = append(anthropicMsgs, anthropic.NewAssistantMessage(blocks...))

		case model.RoleTool:
			var blocks []anthropic.ContentBlockParamUnion
			for ; i < len(messages) && messages[i].Role == model.RoleTool; i++ {
				blocks = append(blocks, anthropic.NewToolResultBlock(messages[i].ToolCallID, messages[i].Text(), messages[i].IsError))
			}
			i--
			anthropicMsgs = appendAnthropicUser(anthropicMsgs, blocks...)

		default:
			anthropicMsgs = appendAnthropicUser(anthropicMsgs, anthropic.NewTextBlock(msg.Text()))
		}
	}

	return anthropicMsgs, systemBlocks
}

// appendAnthropicUser adds blocks as a user message, extending the previous
// message instead when it is already a user turn.
func appendAnthropicUser(msgs []anthropic.MessageParam, blocks ...anthropic.ContentBlockParamUnion) []anthropic.MessageParam {
	if n := len(msgs); n > 0 && msgs[n-1].Role == anthropic.MessageParamRoleUser {
		msgs[n-1].Content = append(msgs[n-1].Content, blocks...)
		return msgs
	}
	return append(msgs, anthropic.NewUserMessage(blocks...))
}

// anthropicToolInput decodes the raw argument text of a call. Malformed
// arguments are replayed as an empty object, matching what was executed.
func anthropicToolInput(call model.ToolCall) map[string]any {
	input := map[string]any{}
	if call.Arguments == "" {
		return input
	}
	if err := json.Unmarshal([]byte(call.Arguments), &input); err != nil || input == nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Provider] replaying malformed arguments for %s as {}", call.Name)
		}
		return map[string]any{}
	}
	return input
}

// ConvertToOllamaMessages converts model.Message values to Ollama api.Message.
//
// Tool call arguments are decoded from their raw JSON text, because Ollama
// carries arguments as structured values rather than strings.
func ConvertToOllamaMessages(messages []model.Message) []api.Message {
	result := make([]api.Message, len(messages))
	for i, msg := range messages {
		result[i] = api.Message{
			Role:    string(msg.Role),
			Content: msg.Text(),
		}
		for _, call := range msg.ToolCalls {
			tc := api.ToolCall{Function: api.ToolCallFunction{Name: call.Name}}
			if call.Arguments != "" {
				if err := json.Unmarshal([]byte(call.Arguments), &tc.Function.Arguments); err != nil && config.DebugLog != nil {
					config.DebugLog.Printf("[Provider] dropping malformed arguments for %s: %v", call.Name, err)
				}
			}
			result[i].ToolCalls = append(result[i].ToolCalls, tc)
		}
	}
	return result
}
