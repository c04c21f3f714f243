package model

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"pathways/config"
	"pathways/mcp"
)

var ErrNoToolSession = errors.New("tool server not connected")

// ConnectTools starts a new tool session, replacing any existing one once
// the new one is up.
func (m *Model) ConnectTools() tea.Cmd {
	connect := m.Connect
	return func() tea.Msg {
		if connect == nil {
			return ToolsConnectedMsg{Err: errors.New("no tool server configured")}
		}
		host, err := connect(context.Background())
		return ToolsConnectedMsg{Tools: host, Err: err}
	}
}

// AdoptTools installs a freshly connected session, shutting down the one
// it replaces.
func (m *Model) AdoptTools(host ToolHost) {
	if m.Tools != nil && m.Tools != host {
		if err := m.Tools.Shutdown(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[Model] previous tool session shutdown: %v", err)
		}
	}
	m.Tools = host
}

// ToolList returns the advertised tools sorted by name.
func (m *Model) ToolList() []mcp.ToolDescriptor {
	if m.Tools == nil {
		return nil
	}
	tools := append([]mcp.ToolDescriptor(nil), m.Tools.Tools()...)
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}

// PromptList returns the advertised prompt templates.
func (m *Model) PromptList() []mcp.PromptDescriptor {
	if m.Tools == nil {
		return nil
	}
	return m.Tools.Prompts()
}

// RunPrompt renders a server-side prompt template. Missing required
// arguments are reported without a round trip.
func (m *Model) RunPrompt(name string, args map[string]string) tea.Cmd {
	host := m.Tools
	var desc *mcp.PromptDescriptor
	if host != nil {
		for _, p := range host.Prompts() {
			if p.Name == name {
				desc = &p
				break
			}
		}
	}

	return func() tea.Msg {
		if host == nil {
			return PromptRenderedMsg{Name: name, Err: ErrNoToolSession}
		}
		if desc == nil {
			return PromptRenderedMsg{Name: name, Err: fmt.Errorf("unknown prompt %q", name)}
		}
		if missing := desc.MissingArguments(args); len(missing) > 0 {
			return PromptRenderedMsg{Name: name, Err: fmt.Errorf("missing required arguments: %s", strings.Join(missing, ", "))}
		}
		text, err := host.GetPrompt(context.Background(), name, args)
		return PromptRenderedMsg{Name: name, Text: text, Err: err}
	}
}

// ParsePromptArgs parses "key=value" words into prompt arguments. Values
// may be double-quoted to include spaces.
func ParsePromptArgs(input string) (map[string]string, error) {
	args := make(map[string]string)
	for _, word := range splitQuoted(input) {
		key, value, ok := strings.Cut(word, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", word)
		}
		args[key] = value
	}
	return args, nil
}

func splitQuoted(s string) []string {
	var words []string
	var cur strings.Builder
	inQuote := false
	started := false
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case r == ' ' && !inQuote:
			if started {
				words = append(words, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if started {
		words = append(words, cur.String())
	}
	return words
}

// ShutdownTools stops the tool session, if any.
func (m *Model) ShutdownTools() tea.Cmd {
	host := m.Tools
	m.Tools = nil
	return func() tea.Msg {
		if host == nil {
			return ShutdownCompleteMsg{}
		}
		return ShutdownCompleteMsg{Err: host.Shutdown()}
	}
}
