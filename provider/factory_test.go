package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathways/config"
	"pathways/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		expectName  string
	}{
		{
			name:       "ollama provider with defaults",
			config:     Config{Type: ProviderTypeOllama},
			expectName: "ollama",
		},
		{
			name: "ollama provider with custom config",
			config: Config{
				Type:    ProviderTypeOllama,
				BaseURL: "http://localhost:11434",
				Model:   "llama3.1",
			},
			expectName: "ollama",
		},
		{
			name: "openai provider",
			config: Config{
				Type:    ProviderTypeOpenAI,
				BaseURL: "https://api.openai.com/v1",
				Model:   "gpt-5.2",
				APIKey:  "test-key",
			},
			expectName: "openai",
		},
		{
			name:       "empty type defaults to openai",
			config:     Config{APIKey: "test-key"},
			expectName: "openai",
		},
		{
			name:        "openai without key",
			config:      Config{Type: ProviderTypeOpenAI},
			expectError: true,
		},
		{
			name: "anthropic provider",
			config: Config{
				Type:   ProviderTypeAnthropic,
				Model:  "claude-sonnet-4-5-20250929",
				APIKey: "test-key",
			},
			expectName: "anthropic",
		},
		{
			name:        "anthropic without key",
			config:      Config{Type: ProviderTypeAnthropic},
			expectError: true,
		},
		{
			name: "unknown provider type",
			config: Config{
				Type:    ProviderType("unknown"),
				BaseURL: "http://localhost",
				Model:   "test",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(tt.config)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, provider)
				return
			}

			require.NoError(t, err)
			var _ model.Provider = provider
			assert.Equal(t, tt.expectName, provider.Name())
		})
	}
}

func TestMapProviderIDToType(t *testing.T) {
	tests := []struct {
		id   string
		want ProviderType
	}{
		{"openai", ProviderTypeOpenAI},
		{"openrouter", ProviderTypeOpenAI},
		{"", ProviderTypeOpenAI},
		{"anthropic", ProviderTypeAnthropic},
		{"ollama", ProviderTypeOllama},
		{"other", ProviderType("other")},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MapProviderIDToType(tt.id), tt.id)
	}
}

func TestConfigFromSettings(t *testing.T) {
	cfg := &config.Config{
		Settings: config.Settings{
			Provider: config.ProviderSettings{Type: "ollama", Model: "qwen2.5"},
		},
		OllamaHost:   "http://gpu-box:11434",
		OpenAIAPIKey: "sk-test",
	}

	got := ConfigFromSettings(cfg)
	assert.Equal(t, ProviderTypeOllama, got.Type)
	assert.Equal(t, "http://gpu-box:11434", got.BaseURL, "OLLAMA_HOST is the base URL")
	assert.Empty(t, got.APIKey)
	assert.Equal(t, "qwen2.5", got.Model)
}

func TestModelSupportsToolCalling(t *testing.T) {
	tests := []struct {
		model string
		want  bool
	}{
		{"llama3.1:latest", true},
		{"llama3.2:3b", true},
		{"Qwen2.5-coder", true},
		{"llama3:8b", false},
		{"llama3-gradient", false},
		{"gemma2", false},
		{"something-new", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ModelSupportsToolCalling(tt.model), tt.model)
	}
}
