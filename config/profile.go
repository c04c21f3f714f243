package config

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

// FallbackSystemPrompt is used when no system prompt file exists.
const FallbackSystemPrompt = "You are a helpful assistant for the Pathways health segmentation platform."

//go:embed assistant.yml
var assistantProfile embed.FS

type ModelOption struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// IsReasoning reports whether the model accepts a reasoning effort.
func (m ModelOption) IsReasoning() bool {
	return IsReasoningModel(m.ID)
}

type Suggestion struct {
	Label  string `yaml:"label"`
	Prompt string `yaml:"prompt"`
}

// Profile is the embedded assistant profile: selectable models and
// suggestion chips shown on empty conversations.
type Profile struct {
	Models      []ModelOption `yaml:"models"`
	Suggestions []Suggestion  `yaml:"suggestions"`
}

func LoadProfile() (*Profile, error) {
	file, err := assistantProfile.Open("assistant.yml")
	if err != nil {
		return nil, fmt.Errorf("failed to open assistant profile: %w", err)
	}
	defer file.Close()

	profile := &Profile{}
	if err := yaml.NewDecoder(file).Decode(profile); err != nil {
		return nil, fmt.Errorf("failed to decode assistant profile: %w", err)
	}
	if len(profile.Models) == 0 {
		return nil, fmt.Errorf("assistant profile lists no models")
	}
	return profile, nil
}

// DefaultModel is the first model in the profile.
func (p *Profile) DefaultModel() string {
	return p.Models[0].ID
}

func (p *Profile) FindModel(id string) (ModelOption, bool) {
	for _, m := range p.Models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelOption{}, false
}

// IsReasoningModel reports whether a model id belongs to the o-series.
func IsReasoningModel(id string) bool {
	return strings.HasPrefix(id, "o")
}

// LoadSystemPrompt reads the prompt file, falling back to FallbackSystemPrompt
// when the file is missing or blank.
func LoadSystemPrompt(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) && DebugLog != nil {
			DebugLog.Printf("[Config] failed to read system prompt %s: %v", path, err)
		}
		return FallbackSystemPrompt
	}
	if strings.TrimSpace(string(data)) == "" {
		return FallbackSystemPrompt
	}
	return string(data)
}

var (
	systemPromptOnce sync.Once
	systemPrompt     string
)

// SystemPrompt returns the process-wide system prompt. The file is read on
// the first call only; later edits are not picked up.
func SystemPrompt(c *Config) string {
	systemPromptOnce.Do(func() {
		systemPrompt = LoadSystemPrompt(c.SystemPromptFile())
		if DebugLog != nil {
			DebugLog.Printf("[Config] system prompt loaded (%d chars)", len(systemPrompt))
		}
	})
	return systemPrompt
}
