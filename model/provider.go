package model

import (
	"context"

	"pathways/mcp"
)

// Provider abstracts streaming chat transports (OpenAI, Anthropic, Ollama)
// using provider-agnostic types from the model layer.
//
// This interface is defined in the model package (not provider package) to avoid
// import cycles: provider implementations import model, and the turn runner
// uses Provider without importing the provider package.
type Provider interface {
	// StreamChat submits messages and tool schemas and reports each streamed
	// delta through callback. A callback error stops the stream.
	StreamChat(ctx context.Context, messages []Message, tools []mcp.ToolDescriptor, opts ChatOptions, callback StreamCallback) error

	// Name identifies the provider ("openai", "anthropic", "ollama").
	Name() string
}

// StreamCallback is called for each delta of a streamed response.
type StreamCallback func(delta Delta) error

// Delta is either a text fragment or a tool-call fragment.
type Delta struct {
	Text     string
	ToolCall *ToolCallDelta
}

// ToolCallDelta is a fragment of one tool call, keyed by the positional
// index the transport assigned to it. Name and Arguments are appended to
// whatever earlier fragments for the same index carried.
type ToolCallDelta struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}

type ChatOptions struct {
	Model           string
	ReasoningEffort string
}

// ToolSession is the part of the tool facade the turn runner needs.
// CallTool reports failures the tool server returned through isError with a
// nil error; err is reserved for local failures.
type ToolSession interface {
	Tools() []mcp.ToolDescriptor
	CallTool(ctx context.Context, name string, args map[string]any) (text string, isError bool, err error)
}
