package model

import (
	"errors"
	"fmt"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is one finalized tool invocation requested by the model.
// Arguments holds the raw JSON text exactly as it was streamed.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one provider-facing chat message. Content is nil when an
// assistant message carries only tool calls; providers distinguish an
// absent content field from an empty one.
type Message struct {
	Role       Role       `json:"role"`
	Content    *string    `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	IsError    bool       `json:"is_error,omitempty"`
}

// Text returns the message content, or "" when absent.
func (m Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// MessageKind classifies messages produced during a turn.
type MessageKind int

const (
	KindOther MessageKind = iota
	KindAssistantWithCalls
	KindToolResult
	KindAssistantFinal
)

func (m Message) Kind() MessageKind {
	switch {
	case m.Role == RoleAssistant && len(m.ToolCalls) > 0:
		return KindAssistantWithCalls
	case m.Role == RoleAssistant:
		return KindAssistantFinal
	case m.Role == RoleTool:
		return KindToolResult
	}
	return KindOther
}

func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: &text}
}

func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: &text}
}

// AssistantWithCalls builds the assistant message that opens a tool round.
// Empty text becomes absent content.
func AssistantWithCalls(text string, calls []ToolCall) Message {
	msg := Message{Role: RoleAssistant, ToolCalls: append([]ToolCall(nil), calls...)}
	if text != "" {
		msg.Content = &text
	}
	return msg
}

func ToolResult(callID, text string) Message {
	return Message{Role: RoleTool, Content: &text, ToolCallID: callID}
}

// ToolFailure is a tool result carrying an error payload.
func ToolFailure(callID, text string) Message {
	msg := ToolResult(callID, text)
	msg.IsError = true
	return msg
}

// AssistantFinal holds the resolved answer of a turn, possibly empty.
func AssistantFinal(text string) Message {
	return Message{Role: RoleAssistant, Content: &text}
}

// TurnSequence is the ordered provider-facing messages produced while
// resolving one user prompt.
type TurnSequence []Message

var ErrPairing = errors.New("tool results do not pair with tool calls")

// CheckToolPairing verifies that every assistant message with tool calls is
// immediately followed by exactly one tool result per call, in call order,
// carrying the matching correlation id.
func CheckToolPairing(msgs []Message) error {
	for i := 0; i < len(msgs); i++ {
		if msgs[i].Kind() != KindAssistantWithCalls {
			if msgs[i].Kind() == KindToolResult {
				return fmt.Errorf("%w: tool result at %d has no preceding call", ErrPairing, i)
			}
			continue
		}

		calls := msgs[i].ToolCalls
		for j, call := range calls {
			pos := i + 1 + j
			if pos >= len(msgs) || msgs[pos].Kind() != KindToolResult {
				return fmt.Errorf("%w: call %s at %d has no result", ErrPairing, call.ID, i)
			}
			if msgs[pos].ToolCallID != call.ID {
				return fmt.Errorf("%w: result at %d answers %s, expected %s", ErrPairing, pos, msgs[pos].ToolCallID, call.ID)
			}
		}

		next := i + 1 + len(calls)
		if next < len(msgs) && msgs[next].Kind() == KindToolResult {
			return fmt.Errorf("%w: extra tool result at %d", ErrPairing, next)
		}
		i = next - 1
	}
	return nil
}
