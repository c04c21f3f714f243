package model

import (
	"context"

	"pathways/config"
	"pathways/mcp"
	"pathways/storage"
)

// ToolHost is the tool facade as the host uses it: the turn runner's view
// plus prompts and lifecycle.
type ToolHost interface {
	ToolSession
	Prompts() []mcp.PromptDescriptor
	GetPrompt(ctx context.Context, name string, args map[string]string) (string, error)
	Status() string
	Shutdown() error
}

// ToolConnector starts a tool session and blocks until it is ready.
type ToolConnector func(ctx context.Context) (ToolHost, error)

// Model holds the core application data and business logic state
type Model struct {
	// Core dependencies
	Config      *config.Config
	Profile     *config.Profile
	Provider    Provider
	ProviderErr error
	Store       *storage.ConversationStore
	SearchIndex *storage.SearchIndex
	Transcript  Transcript
	Connect     ToolConnector

	// Tools is nil until a tool session is connected.
	Tools ToolHost

	// Application data
	Current *Conversation
	Options ChatOptions

	// Runtime state (not UI)
	Streaming bool
	Quitting  bool

	turnEvents chan any
	cancelTurn context.CancelFunc

	Version string
}

// NewModel creates a new Model with the given configuration. provider may
// be nil, in which case providerErr explains why and prompts are refused.
func NewModel(cfg *config.Config, profile *config.Profile, provider Provider, providerErr error, store *storage.ConversationStore, connect ToolConnector, version string) *Model {
	modelID := cfg.Provider.Model
	if modelID == "" {
		modelID = profile.DefaultModel()
	}

	m := &Model{
		Config:      cfg,
		Profile:     profile,
		Provider:    provider,
		ProviderErr: providerErr,
		Store:       store,
		SearchIndex: storage.NewSearchIndex(store),
		Transcript:  NewTranscript(config.SystemPrompt(cfg)),
		Connect:     connect,
		Options: ChatOptions{
			Model:           modelID,
			ReasoningEffort: cfg.Provider.ReasoningEffort,
		},
		Version: version,
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Model] NewModel: model=%s provider=%v", modelID, provider != nil)
	}
	return m
}

// toolSession returns the connected tools as a ToolSession, or a nil
// interface when none are connected.
func (m *Model) toolSession() ToolSession {
	if m.Tools == nil {
		return nil
	}
	return m.Tools
}

// ToolsReady reports whether a connected tool session advertises tools.
func (m *Model) ToolsReady() bool {
	return m.Tools != nil && m.Tools.Status() == "ready"
}
