// Package provider implements the streaming model transports.
//
// Every transport implements model.Provider: it sends one round of messages
// plus the available tool descriptors to a model API and reports what comes
// back as a stream of model.Delta values. Text arrives as Delta.Text and
// requested tool calls arrive as indexed fragments (Delta.ToolCall), which the
// round loop in the model package accumulates by index.
//
// # Supported Providers
//
//   - OpenAIProvider: OpenAI chat completions (and OpenAI-compatible endpoints
//     reachable through a custom base URL)
//   - AnthropicProvider: Anthropic messages API
//   - OllamaProvider: a local or remote Ollama server
//
// # Type Conversions
//
// Conversions between model.Message and provider-specific message types live
// in conversions.go. Tool schema conversions live in the mcp package
// (mcp.ConvertToolsToOpenAI and friends) because they start from
// mcp.ToolDescriptor.
//
// # Usage
//
//	cfg := provider.Config{
//	    Type:   provider.ProviderTypeOpenAI,
//	    APIKey: os.Getenv("OPENAI_API_KEY"),
//	    Model:  "gpt-5.2",
//	}
//	p, err := provider.NewProvider(cfg)
//	if err != nil {
//	    // handle error
//	}
//	err = p.StreamChat(ctx, messages, tools, model.ChatOptions{}, callback)
package provider

// Note: The Provider interface and StreamCallback are defined in the model package
// (model/provider.go) to avoid import cycles. This package implements model.Provider.

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOpenAI    ProviderType = "openai"
	ProviderTypeAnthropic ProviderType = "anthropic"
	ProviderTypeOllama    ProviderType = "ollama"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // For OpenAI/Anthropic (unused for Ollama)
}
