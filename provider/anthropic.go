package provider

import (
	"context"
	"fmt"
	"pathways/mcp"
	"pathways/model"
	"pathways/telemetry"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	anthropicMaxTokens      = 4096
)

// AnthropicProvider implements model.Provider using Anthropic's official API.
type AnthropicProvider struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicProvider creates a new Anthropic provider instance.
//
// Parameters:
//   - baseURL: Anthropic API base URL (default: "https://api.anthropic.com")
//   - apiKey: Anthropic API key (required)
//   - model: Model used when ChatOptions.Model is empty (default: Claude Sonnet 4.5)
//
// Returns an error if the API key is missing.
func NewAnthropicProvider(baseURL, apiKey, modelID string, opts ...option.RequestOption) (*AnthropicProvider, error) {
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required")
	}
	m := anthropic.Model(modelID)
	if modelID == "" {
		m = anthropic.ModelClaudeSonnet4_5_20250929
	}

	clientOpts := append([]option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(telemetry.NewTracedHTTPClient()),
	}, opts...)

	return &AnthropicProvider{
		client: anthropic.NewClient(clientOpts...),
		model:  m,
	}, nil
}

// Name implements model.Provider.
func (p *AnthropicProvider) Name() string {
	return string(ProviderTypeAnthropic)
}

// StreamChat implements model.Provider with streaming support.
//
// A tool_use content block start yields a delta carrying the call's id and
// name at the block index; each input_json_delta yields an argument fragment
// at the same index. Block indexes are shared with text blocks, so call
// indexes are sparse, which the round loop tolerates (it orders by index).
func (p *AnthropicProvider) StreamChat(ctx context.Context, messages []model.Message, tools []mcp.ToolDescriptor, opts model.ChatOptions, callback model.StreamCallback) error {
	anthropicMessages, systemPrompt := ConvertToAnthropicMessages(messages)

	modelID := p.model
	if opts.Model != "" {
		modelID = anthropic.Model(opts.Model)
	}

	params := anthropic.MessageNewParams{
		Model:     modelID,
		Messages:  anthropicMessages,
		MaxTokens: anthropicMaxTokens,
	}
	if len(systemPrompt) > 0 {
		params.System = systemPrompt
	}
	if len(tools) > 0 {
		params.Tools = mcp.ConvertToolsToAnthropic(tools)
	}

	stream := p.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	emit := func(d model.Delta) error {
		if callback == nil {
			return nil
		}
		return callback(d)
	}

	for stream.Next() {
		event := stream.Current()

		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockStartEvent:
			if ev.ContentBlock.Type == "tool_use" {
				err := emit(model.Delta{ToolCall: &model.ToolCallDelta{
					Index: int(ev.Index),
					ID:    ev.ContentBlock.ID,
					Name:  ev.ContentBlock.Name,
				}})
				if err != nil {
					return err
				}
			}

		case anthropic.ContentBlockDeltaEvent:
			switch d := ev.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if err := emit(model.Delta{Text: d.Text}); err != nil {
					return err
				}
			case anthropic.InputJSONDelta:
				err := emit(model.Delta{ToolCall: &model.ToolCallDelta{
					Index:     int(ev.Index),
					Arguments: d.PartialJSON,
				}})
				if err != nil {
					return err
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("Anthropic streaming error: %w", err)
	}
	return nil
}
