package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LoadSettings decodes settings.toml on top of the defaults, writing the
// default template first if the file does not exist yet.
func LoadSettings(settingsPath string) (*Settings, error) {
	cfg := DefaultSettings()

	if !FileExists(settingsPath) {
		if err := CreateDefaultSettings(settingsPath); err != nil {
			return nil, fmt.Errorf("failed to create settings: %w", err)
		}
		return cfg, nil
	}

	_, err := toml.DecodeFile(settingsPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}

	return cfg, nil
}

func CreateDefaultSettings(settingsPath string) error {
	if err := EnsureDir(filepath.Dir(settingsPath)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(settingsPath, []byte(GenerateSettingsTemplate()), 0600)
}
