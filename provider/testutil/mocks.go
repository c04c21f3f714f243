package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"pathways/mcp"
	"pathways/model"
)

// MockProvider implements model.Provider for testing. Each StreamChat call
// plays the next scripted round; once the script is exhausted RepeatLast
// replays the final round forever, otherwise a plain "done" answer is sent.
type MockProvider struct {
	Rounds     [][]model.Delta
	RepeatLast bool
	// FailRound, when positive, makes that round (1-based) emit its deltas
	// and then fail with FailErr.
	FailRound int
	FailErr   error

	mu    sync.Mutex
	calls [][]model.Message
	tools [][]mcp.ToolDescriptor
	opts  []model.ChatOptions
}

func NewMockProvider(rounds ...[]model.Delta) *MockProvider {
	return &MockProvider{Rounds: rounds}
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) StreamChat(ctx context.Context, messages []model.Message, tools []mcp.ToolDescriptor, opts model.ChatOptions, callback model.StreamCallback) error {
	m.mu.Lock()
	m.calls = append(m.calls, append([]model.Message(nil), messages...))
	m.tools = append(m.tools, tools)
	m.opts = append(m.opts, opts)
	round := len(m.calls)
	m.mu.Unlock()

	var deltas []model.Delta
	switch {
	case round <= len(m.Rounds):
		deltas = m.Rounds[round-1]
	case m.RepeatLast && len(m.Rounds) > 0:
		deltas = m.Rounds[len(m.Rounds)-1]
	default:
		deltas = TextDeltas("done")
	}

	for _, d := range deltas {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := callback(d); err != nil {
			return err
		}
	}

	if m.FailRound == round {
		if m.FailErr != nil {
			return m.FailErr
		}
		return errors.New("stream interrupted")
	}
	return nil
}

// Calls returns the message lists each round was submitted with.
func (m *MockProvider) Calls() [][]model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]model.Message(nil), m.calls...)
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *MockProvider) LastOptions() model.ChatOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.opts) == 0 {
		return model.ChatOptions{}
	}
	return m.opts[len(m.opts)-1]
}

// ToolError returned from a handler stands for a failure reported by the
// tool server; any other error is treated as a local failure.
type ToolError string

func (e ToolError) Error() string { return string(e) }

// MockToolSession implements model.ToolSession with canned handlers.
type MockToolSession struct {
	Descriptors []mcp.ToolDescriptor
	Handlers    map[string]func(args map[string]any) (string, error)

	mu      sync.Mutex
	invoked []string
	args    []map[string]any
}

func NewMockToolSession() *MockToolSession {
	return &MockToolSession{Handlers: map[string]func(map[string]any) (string, error){}}
}

// Handle registers a tool and its handler.
func (s *MockToolSession) Handle(name string, fn func(args map[string]any) (string, error)) *MockToolSession {
	s.Descriptors = append(s.Descriptors, mcp.ToolDescriptor{Name: name, Description: name + " tool"})
	s.Handlers[name] = fn
	return s
}

func (s *MockToolSession) Tools() []mcp.ToolDescriptor {
	return s.Descriptors
}

func (s *MockToolSession) CallTool(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	s.mu.Lock()
	s.invoked = append(s.invoked, name)
	s.args = append(s.args, args)
	s.mu.Unlock()

	fn, ok := s.Handlers[name]
	if !ok {
		return mcp.ErrorPayload(fmt.Sprintf("unknown tool %s", name)), true, nil
	}
	text, err := fn(args)
	var remote ToolError
	if errors.As(err, &remote) {
		return mcp.ErrorPayload(string(remote)), true, nil
	}
	return text, false, err
}

// Invoked returns tool names in call order.
func (s *MockToolSession) Invoked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.invoked...)
}

// Args returns the parsed arguments of each call in order.
func (s *MockToolSession) Args() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.args...)
}
