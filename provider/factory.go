package provider

import (
	"fmt"
	"pathways/config"
	"pathways/model"
)

// NewProvider creates a provider based on configuration.
//
// This is the centralized factory function for creating any provider type.
// It handles dispatching to the appropriate provider constructor based on
// the Config.Type field. An empty type selects OpenAI.
//
// Supported provider types:
//   - ProviderTypeOpenAI: OpenAI API or any OpenAI-compatible endpoint
//   - ProviderTypeAnthropic: Anthropic API
//   - ProviderTypeOllama: Local Ollama server
//
// Returns an error if:
//   - The provider type is unknown
//   - The provider-specific constructor fails (e.g., missing API key)
//
// Example:
//
//	cfg := provider.Config{
//	    Type:   provider.ProviderTypeOpenAI,
//	    Model:  "gpt-5.2",
//	    APIKey: "sk-...",
//	}
//	p, err := provider.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
func NewProvider(cfg Config) (model.Provider, error) {
	// Each case returns explicitly so a failed constructor never yields a
	// non-nil interface holding a nil pointer.
	switch cfg.Type {
	case ProviderTypeOpenAI, "":
		p, err := NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderTypeAnthropic:
		p, err := NewAnthropicProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderTypeOllama:
		p, err := NewOllamaProvider(cfg.BaseURL, cfg.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}

// MapProviderIDToType converts a config provider ID to a ProviderType.
//
// Mappings:
//   - "openai", "openrouter" → ProviderTypeOpenAI (OpenRouter is OpenAI-compatible)
//   - "anthropic" → ProviderTypeAnthropic
//   - "ollama" → ProviderTypeOllama
//
// For unknown IDs, returns the ID cast as ProviderType (factory will error).
func MapProviderIDToType(id string) ProviderType {
	switch id {
	case "openai", "openrouter", "":
		return ProviderTypeOpenAI
	case "anthropic":
		return ProviderTypeAnthropic
	case "ollama":
		return ProviderTypeOllama
	default:
		return ProviderType(id)
	}
}

// ConfigFromSettings resolves provider configuration from the runtime config.
func ConfigFromSettings(c *config.Config) Config {
	return Config{
		Type:    MapProviderIDToType(c.Provider.Type),
		BaseURL: c.ProviderBaseURL(),
		Model:   c.Provider.Model,
		APIKey:  c.APIKey(),
	}
}
