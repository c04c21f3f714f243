package provider

import (
	"context"
	"fmt"
	"pathways/config"
	"pathways/mcp"
	"pathways/model"
	"pathways/telemetry"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-5.2"
)

// OpenAIProvider implements model.Provider using OpenAI's official API.
// It uses the official OpenAI Go SDK and also serves OpenAI-compatible
// endpoints through a custom base URL.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	baseURL string
}

// NewOpenAIProvider creates a new OpenAI provider instance.
//
// Parameters:
//   - baseURL: OpenAI API base URL (default: "https://api.openai.com/v1")
//   - apiKey: OpenAI API key (required)
//   - model: Model used when ChatOptions.Model is empty (default: "gpt-5.2")
//
// Returns an error if the API key is missing.
func NewOpenAIProvider(baseURL, apiKey, model string, opts ...option.RequestOption) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = defaultOpenAIModel
	}

	clientOpts := append([]option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(telemetry.NewTracedHTTPClient()),
	}, opts...)

	return &OpenAIProvider{
		client:  openai.NewClient(clientOpts...),
		model:   model,
		baseURL: baseURL,
	}, nil
}

// Name implements model.Provider.
func (p *OpenAIProvider) Name() string {
	return string(ProviderTypeOpenAI)
}

// StreamChat implements model.Provider with streaming support.
//
// Text deltas are forwarded as they arrive. Tool call fragments are forwarded
// with the index, id, name and argument text of each chunk, untouched: the
// round loop concatenates them per index. Reasoning effort is only sent to
// o-series models.
func (p *OpenAIProvider) StreamChat(ctx context.Context, messages []model.Message, tools []mcp.ToolDescriptor, opts model.ChatOptions, callback model.StreamCallback) error {
	modelID := p.model
	if opts.Model != "" {
		modelID = opts.Model
	}

	params := openai.ChatCompletionNewParams{
		Messages: ConvertToOpenAIMessages(messages),
		Model:    openai.ChatModel(modelID),
	}
	if len(tools) > 0 {
		params.Tools = mcp.ConvertToolsToOpenAI(tools)
	}
	if opts.ReasoningEffort != "" && config.IsReasoningModel(modelID) {
		params.ReasoningEffort = shared.ReasoningEffort(opts.ReasoningEffort)
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta

		if delta.Content != "" && callback != nil {
			if err := callback(model.Delta{Text: delta.Content}); err != nil {
				return err
			}
		}

		for _, tc := range delta.ToolCalls {
			if callback == nil {
				continue
			}
			err := callback(model.Delta{ToolCall: &model.ToolCallDelta{
				Index:     int(tc.Index),
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			}})
			if err != nil {
				return err
			}
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("OpenAI streaming error: %w", err)
	}
	return nil
}
