package config

func DefaultSettings() *Settings {
	return &Settings{
		DataDirectory: "~/.local/share/pathways",
		Provider: ProviderSettings{
			Type:            "openai",
			Model:           "gpt-5.2",
			ReasoningEffort: "medium",
		},
		ToolServer: ToolServerSettings{
			AutoConnect: true,
		},
	}
}

func GenerateSettingsTemplate() string {
	return `# Pathways Assistant Configuration
# Location: ~/.config/pathways/settings.toml
# This file uses TOML format: https://toml.io
#
# Secrets are read from the environment only:
#   OPENAI_API_KEY, ANTHROPIC_API_KEY, PATHWAYS_API_TOKEN

# Directory for the debug log and the optional system_prompt.md
data_directory = "~/.local/share/pathways"

# Optional path to a system prompt file (default: <data_directory>/system_prompt.md)
# system_prompt_path = ""

[provider]
# openai, anthropic or ollama
type = "openai"
model = "gpt-5.2"
# Sent only to reasoning models (ids starting with "o"): low, medium, high
reasoning_effort = "medium"
# base_url = ""

[tool_server]
# Connect to the Pathways tool server at startup
auto_connect = true
# Defaults to this binary in "mcp" mode
# command = ""
# args = []

[pathways]
# Base URL of the Pathways Strapi API (or PATHWAYS_API_URL)
# api_url = ""

[telemetry]
# OTLP/HTTP endpoints; leave unset to disable export
# traces_endpoint = ""
# metrics_endpoint = ""
`
}
