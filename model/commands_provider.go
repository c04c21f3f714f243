package model

import (
	"fmt"
	"strings"

	"pathways/config"
)

// SwitchModel selects one of the profile's models for later turns.
func (m *Model) SwitchModel(id string) error {
	id = strings.TrimSpace(id)
	if _, ok := m.Profile.FindModel(id); !ok {
		ids := make([]string, len(m.Profile.Models))
		for i, opt := range m.Profile.Models {
			ids[i] = opt.ID
		}
		return fmt.Errorf("unknown model %q (available: %s)", id, strings.Join(ids, ", "))
	}

	m.Options.Model = id
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Model] switched model to %s", id)
	}
	return nil
}

// SetReasoningEffort sets the effort sent to reasoning models.
func (m *Model) SetReasoningEffort(level string) error {
	level = strings.ToLower(strings.TrimSpace(level))
	if !config.ValidReasoningEffort(level) {
		return fmt.Errorf("invalid reasoning effort %q (use low, medium or high)", level)
	}
	m.Options.ReasoningEffort = level
	return nil
}

// EffortApplies reports whether the current model receives the reasoning
// effort setting.
func (m *Model) EffortApplies() bool {
	return config.IsReasoningModel(m.Options.Model)
}

// Check is one line of the configuration summary.
type Check struct {
	Label  string
	OK     bool
	Detail string
}

// ConfigChecks summarizes what the assistant needs to work.
func (m *Model) ConfigChecks() []Check {
	cfg := m.Config

	providerType := cfg.Provider.Type
	if providerType == "" {
		providerType = "openai"
	}

	keyCheck := Check{Label: providerType + " API key"}
	switch providerType {
	case "ollama":
		keyCheck = Check{Label: "Ollama host", OK: true, Detail: cfg.ProviderBaseURL()}
	default:
		keyCheck.OK = cfg.APIKey() != ""
		if !keyCheck.OK {
			keyCheck.Detail = "missing"
		}
	}

	tokenCheck := Check{Label: "Pathways token", OK: cfg.PathwaysAPIToken != ""}
	if !tokenCheck.OK {
		tokenCheck.Detail = "missing"
	}

	promptFile := cfg.SystemPromptFile()
	promptCheck := Check{Label: "System prompt", OK: config.FileExists(promptFile), Detail: promptFile}
	if !promptCheck.OK {
		promptCheck.Detail = "built-in (no " + promptFile + ")"
	}

	return []Check{
		keyCheck,
		tokenCheck,
		{Label: "Model", OK: m.Provider != nil, Detail: m.Options.Model},
		promptCheck,
	}
}
