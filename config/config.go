package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

type ProviderSettings struct {
	Type            string `toml:"type"`
	BaseURL         string `toml:"base_url,omitempty"`
	Model           string `toml:"model"`
	ReasoningEffort string `toml:"reasoning_effort"`
}

type ToolServerSettings struct {
	// Command defaults to this executable; Args default to ["mcp"].
	Command     string            `toml:"command,omitempty"`
	Args        []string          `toml:"args,omitempty"`
	AutoConnect bool              `toml:"auto_connect"`
	Env         map[string]string `toml:"env,omitempty"`
}

type PathwaysSettings struct {
	APIURL string `toml:"api_url,omitempty"`
}

type TelemetrySettings struct {
	TracesEndpoint  string `toml:"traces_endpoint,omitempty"`
	MetricsEndpoint string `toml:"metrics_endpoint,omitempty"`
}

// Settings mirrors settings.toml.
type Settings struct {
	DataDirectory    string             `toml:"data_directory"`
	SystemPromptPath string             `toml:"system_prompt_path,omitempty"`
	Provider         ProviderSettings   `toml:"provider"`
	ToolServer       ToolServerSettings `toml:"tool_server"`
	Pathways         PathwaysSettings   `toml:"pathways"`
	Telemetry        TelemetrySettings  `toml:"telemetry"`
}

// Config is the resolved runtime configuration: settings.toml plus environment.
// Secrets only ever come from the environment.
type Config struct {
	Settings

	OpenAIAPIKey     string
	AnthropicAPIKey  string
	OllamaHost       string
	PathwaysAPIToken string
}

var Debug = false
var DebugLog *log.Logger

var validEfforts = map[string]bool{"low": true, "medium": true, "high": true}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) SystemPromptFile() string {
	if c.SystemPromptPath != "" {
		return ExpandPath(c.SystemPromptPath)
	}
	return filepath.Join(c.DataDir(), "system_prompt.md")
}

// APIKey returns the credential for the configured provider type.
func (c *Config) APIKey() string {
	switch c.Provider.Type {
	case "anthropic":
		return c.AnthropicAPIKey
	case "ollama":
		return ""
	default:
		return c.OpenAIAPIKey
	}
}

func (c *Config) ProviderBaseURL() string {
	if c.Provider.Type == "ollama" && c.Provider.BaseURL == "" {
		return c.OllamaHost
	}
	return c.Provider.BaseURL
}

// ToolServerCommand resolves the executable and arguments for the tool
// subprocess. By default this binary is re-executed in "mcp" mode.
func (c *Config) ToolServerCommand() (string, []string, error) {
	command := c.ToolServer.Command
	args := c.ToolServer.Args
	if command == "" {
		exe, err := os.Executable()
		if err != nil {
			return "", nil, fmt.Errorf("failed to resolve executable path: %w", err)
		}
		command = exe
		if len(args) == 0 {
			args = []string{"mcp"}
		}
	}
	return command, args, nil
}

// ToolServerEnv returns the environment overrides handed to the tool subprocess.
func (c *Config) ToolServerEnv() map[string]string {
	env := make(map[string]string, len(c.ToolServer.Env)+4)
	for k, v := range c.ToolServer.Env {
		env[k] = v
	}
	if c.PathwaysAPIToken != "" {
		env["PATHWAYS_API_TOKEN"] = c.PathwaysAPIToken
	}
	if c.Pathways.APIURL != "" {
		env["PATHWAYS_API_URL"] = c.Pathways.APIURL
	}
	if Debug {
		env["PATHWAYS_DEBUG"] = "1"
		env["PATHWAYS_DATA_DIR"] = c.DataDir()
	}
	return env
}

func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("PATHWAYS_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if providerType := os.Getenv("PATHWAYS_PROVIDER"); providerType != "" {
		c.Provider.Type = providerType
	}
	if model := os.Getenv("PATHWAYS_MODEL"); model != "" {
		c.Provider.Model = model
	}
	if effort := os.Getenv("PATHWAYS_REASONING_EFFORT"); effort != "" {
		c.Provider.ReasoningEffort = effort
	}
	if url := os.Getenv("PATHWAYS_API_URL"); url != "" {
		c.Pathways.APIURL = url
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"); endpoint != "" {
		c.Telemetry.TracesEndpoint = endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"); endpoint != "" {
		c.Telemetry.MetricsEndpoint = endpoint
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.OllamaHost = host
	}

	c.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	c.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	c.PathwaysAPIToken = os.Getenv("PATHWAYS_API_TOKEN")
}

// Validate checks settings that would otherwise fail deep inside a turn.
func (c *Config) Validate() error {
	switch c.Provider.Type {
	case "openai", "anthropic", "ollama":
	default:
		return fmt.Errorf("unknown provider type %q (expected openai, anthropic or ollama)", c.Provider.Type)
	}
	if c.Provider.Model == "" {
		return fmt.Errorf("provider model cannot be empty")
	}
	if !validEfforts[c.Provider.ReasoningEffort] {
		return fmt.Errorf("invalid reasoning effort %q (expected low, medium or high)", c.Provider.ReasoningEffort)
	}
	if c.DataDirectory == "" {
		return fmt.Errorf("data directory cannot be empty")
	}
	return nil
}

// ValidReasoningEffort reports whether effort is one of low, medium, high.
func ValidReasoningEffort(effort string) bool {
	return validEfforts[effort]
}

func CheckDebug() bool {
	debug := strings.ToLower(os.Getenv("PATHWAYS_DEBUG"))
	return debug == "true" || debug == "1"
}

// InitDebugLog opens <dataDir>/debug.log when PATHWAYS_DEBUG is set.
// prefix distinguishes the chat host from the tool subprocess.
func InitDebugLog(dataDir, prefix string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	if err := EnsureDir(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not create data directory %s: %v\n", dataDir, err)
		return
	}
	logPath := filepath.Join(dataDir, "debug.log")

	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, prefix, log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (PATHWAYS_DEBUG=%s) ===", os.Getenv("PATHWAYS_DEBUG"))
	DebugLog.Printf("Log path: %s", logPath)
}

func Load() (*Config, error) {
	return LoadFrom(GetSettingsFilePath())
}

// LoadFrom resolves configuration from a specific settings file. A missing
// file is created from the default template.
func LoadFrom(settingsPath string) (*Config, error) {
	cfg := &Config{Settings: *DefaultSettings(), OllamaHost: "http://localhost:11434"}

	settings, err := LoadSettings(settingsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	cfg.Settings = *settings
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dataDir := cfg.DataDir()
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	return cfg, nil
}
