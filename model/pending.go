package model

import (
	"encoding/json"
	"sort"
	"strings"
)

// PendingToolCall accumulates the fragments of one tool call during a
// streaming round. Arguments must not be parsed until the round ends; a
// fragment boundary can fall inside a JSON token.
type PendingToolCall struct {
	Index     int
	ID        string
	Name      string
	arguments strings.Builder
}

func (p *PendingToolCall) Arguments() string {
	return p.arguments.String()
}

// ParseArguments decodes the accumulated argument text. Empty or invalid
// text yields an empty argument set; ok is false only for invalid text.
func (p *PendingToolCall) ParseArguments() (args map[string]any, ok bool) {
	raw := p.arguments.String()
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}, true
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}, false
	}
	return args, true
}

func (p *PendingToolCall) ToolCall() ToolCall {
	return ToolCall{ID: p.ID, Name: p.Name, Arguments: p.arguments.String()}
}

// PendingCalls is the per-round set of tool calls keyed by index.
type PendingCalls struct {
	byIndex map[int]*PendingToolCall
}

func NewPendingCalls() *PendingCalls {
	return &PendingCalls{byIndex: make(map[int]*PendingToolCall)}
}

// Add folds one fragment into the call at its index. The id is replaced
// when the fragment carries one; name and arguments are appended.
func (pc *PendingCalls) Add(d ToolCallDelta) {
	p, ok := pc.byIndex[d.Index]
	if !ok {
		p = &PendingToolCall{Index: d.Index}
		pc.byIndex[d.Index] = p
	}
	if d.ID != "" {
		p.ID = d.ID
	}
	p.Name += d.Name
	p.arguments.WriteString(d.Arguments)
}

func (pc *PendingCalls) Len() int {
	return len(pc.byIndex)
}

// Ordered returns the calls in ascending index order.
func (pc *PendingCalls) Ordered() []*PendingToolCall {
	calls := make([]*PendingToolCall, 0, len(pc.byIndex))
	for _, p := range pc.byIndex {
		calls = append(calls, p)
	}
	sort.Slice(calls, func(i, j int) bool { return calls[i].Index < calls[j].Index })
	return calls
}
