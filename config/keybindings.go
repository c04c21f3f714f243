package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// KeyBindingsConfig holds modifier customization and optional per-action overrides
type KeyBindingsConfig struct {
	Modifiers ModifierConfig    `toml:"modifiers"`
	Actions   map[string]string `toml:"actions"` // Optional overrides for specific actions
}

type ModifierConfig struct {
	Primary   string `toml:"primary"`   // e.g., "alt", "ctrl", "meta", "super"
	Secondary string `toml:"secondary"` // e.g., "alt+shift", "ctrl+shift"
}

// actionDef defines the default modifier and key for an action
type actionDef struct {
	modifier string // "primary", "secondary", or "none"
	key      string // "j", "k", "enter", etc.
}

// actionRegistry maps action names to their default keybindings
// Users can override any of these in the [actions] section of keybindings.toml
var actionRegistry = map[string]actionDef{
	// Conversations
	"help":              {"primary", "h"},
	"new_conversation":  {"primary", "n"},
	"conversation_list": {"primary", "l"},
	"toggle_sidebar":    {"primary", "b"},

	// Chat scrolling
	"scroll_down":      {"primary", "j"},
	"scroll_up":        {"primary", "k"},
	"half_page_down":   {"secondary", "j"},
	"half_page_up":     {"secondary", "k"},
	"page_down":        {"primary", "pgdown"},
	"page_up":          {"primary", "pgup"},
	"scroll_to_top":    {"primary", "g"},
	"scroll_to_bottom": {"secondary", "g"},

	// Actions
	"quit":               {"primary", "q"},
	"yank_last_response": {"primary", "y"},
	"cancel_turn":        {"none", "esc"},
	"clear_input":        {"primary", "u"},
}

// DefaultKeybindings returns default configuration
func DefaultKeybindings() *KeyBindingsConfig {
	return &KeyBindingsConfig{
		Modifiers: ModifierConfig{
			Primary:   "alt",
			Secondary: "alt+shift",
		},
	}
}

// LoadKeybindings reads <dataDir>/keybindings.toml, writing the commented
// template on first run. Missing modifiers fall back to the defaults.
func LoadKeybindings(dataDir string) (*KeyBindingsConfig, error) {
	cfg := DefaultKeybindings()
	path := filepath.Join(dataDir, "keybindings.toml")

	if !FileExists(path) {
		if err := os.MkdirAll(dataDir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(keybindingsTemplate), 0600); err != nil {
			return nil, fmt.Errorf("failed to write keybindings: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse keybindings: %w", err)
	}
	if cfg.Modifiers.Primary == "" {
		cfg.Modifiers.Primary = "alt"
	}
	if cfg.Modifiers.Secondary == "" {
		cfg.Modifiers.Secondary = "alt+shift"
	}

	for _, mod := range []string{cfg.Modifiers.Primary, cfg.Modifiers.Secondary} {
		if strings.EqualFold(mod, "shift") {
			return nil, fmt.Errorf("invalid modifier %q: shift alone conflicts with typing", mod)
		}
	}
	return cfg, nil
}

const keybindingsTemplate = `# Pathways Assistant Keybindings
# Location: <data_directory>/keybindings.toml
# This file uses TOML format: https://toml.io

# ==============================================================================
# MODIFIER KEYS (Simple Configuration)
# ==============================================================================
# Change these to avoid conflicts with your window manager/terminal multiplexor
# Most users only need to customize these two settings

[modifiers]
primary = "alt"          # Default: alt (Options: alt, ctrl, meta, super)
secondary = "alt+shift"  # Default: alt+shift

# Examples of alternative modifier configurations:
#
# For tmux users (Alt may conflict):
#   primary = "ctrl"
#   secondary = "ctrl+shift"
#
# For i3/sway users (Alt is window manager key):
#   primary = "super"
#   secondary = "super+shift"
#
# Mixed modifiers for power users:
#   primary = "alt"
#   secondary = "ctrl+shift"

# ==============================================================================
# PER-ACTION OVERRIDES (Advanced Configuration)
# ==============================================================================
# Optionally override specific actions for fine-grained control
# Uncomment and customize any actions you want to change

[actions]
# Examples (uncomment to use):
#
# Vim-style navigation with Ctrl:
#   scroll_down = "ctrl+j"
#   scroll_up = "ctrl+k"
#
# Emacs-style shortcuts:
#   scroll_down = "ctrl+n"
#   scroll_up = "ctrl+p"
#
# Conversations:
#   new_conversation = "ctrl+t"
#   conversation_list = "ctrl+shift+l"
#
# Remap quit to avoid accidental exits:
#   quit = "ctrl+shift+q"
#
# Actions: help, new_conversation, conversation_list, toggle_sidebar,
# scroll_down, scroll_up, half_page_down, half_page_up, page_down, page_up,
# scroll_to_top, scroll_to_bottom, quit, yank_last_response, cancel_turn,
# clear_input
`

// Primary returns the primary modifier.
func (kb *KeyBindingsConfig) Primary() string {
	if kb.Modifiers.Primary == "" {
		return "alt"
	}
	return kb.Modifiers.Primary
}

// Secondary returns the secondary modifier.
func (kb *KeyBindingsConfig) Secondary() string {
	if kb.Modifiers.Secondary == "" {
		return "alt+shift"
	}
	return kb.Modifiers.Secondary
}

// GetActionKey returns the key string bubbletea reports for action: the
// user override when set, else the registry default under the configured
// modifiers. Unknown actions return "".
func (kb *KeyBindingsConfig) GetActionKey(action string) string {
	if override := kb.Actions[action]; override != "" {
		return override
	}

	def, ok := actionRegistry[action]
	if !ok {
		return ""
	}
	switch def.modifier {
	case "primary":
		return kb.Primary() + "+" + def.key
	case "secondary":
		return shifted(kb.Secondary(), def.key)
	}
	return def.key
}

// shifted joins a modifier and key. Terminals report shift plus a letter as
// the upper-case letter, so "alt+shift" with "g" becomes "alt+G".
func shifted(modifier, key string) string {
	if len(key) != 1 || key[0] < 'a' || key[0] > 'z' {
		return modifier + "+" + key
	}

	var mods []string
	hasShift := false
	for _, part := range strings.Split(modifier, "+") {
		if strings.EqualFold(part, "shift") {
			hasShift = true
			continue
		}
		mods = append(mods, part)
	}
	if !hasShift {
		return modifier + "+" + key
	}
	return strings.Join(append(mods, strings.ToUpper(key)), "+")
}

// DisplayActionKey renders an action's key for help text, e.g. "alt+G"
// becomes "Alt+Shift+G".
func (kb *KeyBindingsConfig) DisplayActionKey(action string) string {
	key := kb.GetActionKey(action)
	if key == "" {
		return ""
	}

	parts := strings.Split(key, "+")
	explicitShift := false
	for _, p := range parts {
		if strings.EqualFold(p, "shift") {
			explicitShift = true
		}
	}

	out := make([]string, 0, len(parts)+1)
	for i, part := range parts {
		if part == "" {
			continue
		}
		upper := len(part) == 1 && part[0] >= 'A' && part[0] <= 'Z'
		if upper && i > 0 && !explicitShift {
			out = append(out, "Shift")
		}
		out = append(out, strings.ToUpper(part[:1])+part[1:])
	}
	return strings.Join(out, "+")
}
