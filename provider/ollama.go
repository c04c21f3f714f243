package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"pathways/config"
	"pathways/mcp"
	"pathways/model"
	"pathways/telemetry"
	"strings"

	"github.com/ollama/ollama/api"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434"
	defaultOllamaModel   = "llama3.1:latest"
)

// OllamaProvider implements model.Provider against an Ollama server.
//
// Ollama delivers each tool call whole rather than as fragments, so every
// call is forwarded as a single delta carrying the complete argument JSON.
// Calls are numbered in the order they arrive within a round.
type OllamaProvider struct {
	client  *api.Client
	model   string
	baseURL string
}

// NewOllamaProvider creates a new Ollama provider instance.
//
// Parameters:
//   - baseURL: The Ollama server URL (e.g., "http://localhost:11434").
//     If empty, defaults to "http://localhost:11434".
//   - model: The model name to use (e.g., "llama3.1:latest").
//     If empty, defaults to "llama3.1:latest".
//
// Returns an error if the baseURL is invalid.
func NewOllamaProvider(baseURL, model string) (*OllamaProvider, error) {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	if model == "" {
		model = defaultOllamaModel
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &OllamaProvider{
		client:  api.NewClient(parsedURL, telemetry.NewTracedHTTPClient()),
		model:   model,
		baseURL: baseURL,
	}, nil
}

// Name implements model.Provider.
func (p *OllamaProvider) Name() string {
	return string(ProviderTypeOllama)
}

// StreamChat implements model.Provider.
//
// Tools are only offered to model families known to support Ollama's tool
// calling API; other models answer in plain text.
func (p *OllamaProvider) StreamChat(ctx context.Context, messages []model.Message, tools []mcp.ToolDescriptor, opts model.ChatOptions, callback model.StreamCallback) error {
	modelID := p.model
	if opts.Model != "" {
		modelID = opts.Model
	}

	req := &api.ChatRequest{
		Model:    modelID,
		Messages: ConvertToOllamaMessages(messages),
		Stream:   func(b bool) *bool { return &b }(true),
	}
	if len(tools) > 0 {
		if ModelSupportsToolCalling(modelID) {
			req.Tools = mcp.ConvertToolsToOllama(tools)
		} else if config.DebugLog != nil {
			config.DebugLog.Printf("[Provider] %s does not support tool calling, sending no tools", modelID)
		}
	}

	next := 0
	respFunc := func(resp api.ChatResponse) error {
		if callback == nil {
			return nil
		}
		if resp.Message.Content != "" {
			if err := callback(model.Delta{Text: resp.Message.Content}); err != nil {
				return err
			}
		}
		for _, tc := range resp.Message.ToolCalls {
			args, err := json.Marshal(tc.Function.Arguments)
			if err != nil {
				return fmt.Errorf("failed to encode tool arguments for %s: %w", tc.Function.Name, err)
			}
			err = callback(model.Delta{ToolCall: &model.ToolCallDelta{
				Index:     next,
				ID:        fmt.Sprintf("call_%d", next),
				Name:      tc.Function.Name,
				Arguments: string(args),
			}})
			if err != nil {
				return err
			}
			next++
		}
		return nil
	}

	if err := p.client.Chat(ctx, req, respFunc); err != nil {
		return fmt.Errorf("Ollama streaming error: %w", err)
	}
	return nil
}

// toolCallingModels tracks which model families support tool calling.
// This is a curated list based on Ollama documentation and community testing.
var toolCallingModels = map[string]bool{
	"qwen":      true,
	"llama3.1":  true,
	"llama3.2":  true,
	"llama3.3":  true,
	"mistral":   true,
	"command-r": true,
	"nemotron":  true,
	"granite3":  true,

	"llama3-gradient": false,
	"llama3":          false,
	"phi":             false,
	"gemma":           false,
	"codellama":       false,
	"deepseek":        false,
}

// orderedPrefixes is checked most specific first, so that "llama3.2" is not
// matched as generic "llama3".
var orderedPrefixes = []string{
	"llama3.3", "llama3.2", "llama3.1",
	"llama3-gradient",
	"command-r", "qwen", "mistral", "nemotron", "granite3",
	"codellama",
	"llama3",
	"deepseek", "phi", "gemma",
}

// ModelSupportsToolCalling reports whether an Ollama model name belongs to a
// family known to support tool calling. Unknown models report false.
func ModelSupportsToolCalling(modelName string) bool {
	modelName = strings.ToLower(modelName)
	for _, prefix := range orderedPrefixes {
		if strings.HasPrefix(modelName, prefix) {
			return toolCallingModels[prefix]
		}
	}
	return false
}
