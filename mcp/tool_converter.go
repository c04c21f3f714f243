package mcp

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"pathways/config"
)

// ConvertToolsToOpenAI converts tool descriptors to OpenAI function tools.
//
// OpenAI Tool structure:
//
//	{
//	  "type": "function",
//	  "function": {
//	    "name": "list_segments",
//	    "description": "...",
//	    "parameters": {...}
//	  }
//	}
func ConvertToolsToOpenAI(tools []ToolDescriptor) []openai.ChatCompletionToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	result := make([]openai.ChatCompletionToolUnionParam, len(tools))
	for i, tool := range tools {
		result[i] = openai.ChatCompletionFunctionTool(
			openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  openai.FunctionParameters(tool.Parameters()),
			},
		)
	}

	return result
}

// ConvertToolsToAnthropic converts tool descriptors to Anthropic tool params.
// Schema keys other than type, properties and required travel in ExtraFields.
func ConvertToolsToAnthropic(tools []ToolDescriptor) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		params := tool.Parameters()
		inputSchema := anthropic.ToolInputSchemaParam{
			Properties: params["properties"],
		}

		if required := tool.Required(); len(required) > 0 {
			inputSchema.Required = required
		}

		extra := map[string]any{}
		for k, v := range params {
			switch k {
			case "type", "properties", "required":
			default:
				extra[k] = v
			}
		}
		if len(extra) > 0 {
			inputSchema.ExtraFields = extra
		}

		result[i] = anthropic.ToolUnionParamOfTool(inputSchema, tool.Name)
		if tool.Description != "" {
			result[i].OfTool.Description = anthropic.String(tool.Description)
		}
	}

	return result
}

// ConvertToolsToOllama converts tool descriptors to Ollama API tools.
func ConvertToolsToOllama(tools []ToolDescriptor) []api.Tool {
	result := make([]api.Tool, 0, len(tools))

	for _, tool := range tools {
		result = append(result, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  convertSchemaToOllamaParameters(tool),
			},
		})
	}

	return result
}

func convertSchemaToOllamaParameters(tool ToolDescriptor) api.ToolFunctionParameters {
	params := api.ToolFunctionParameters{Type: "object"}

	data, err := json.Marshal(tool.Parameters())
	if err == nil {
		err = json.Unmarshal(data, &params)
	}
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] schema for tool %s not representable for Ollama: %v", tool.Name, err)
		}
		params = api.ToolFunctionParameters{Type: "object"}
	}
	if params.Properties == nil {
		params.Properties = map[string]api.ToolProperty{}
	}

	return params
}
