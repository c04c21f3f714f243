package model

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	DefaultTitle   = "New conversation"
	titleMaxLength = 60
)

// ToolCallRecord is the display record of one executed tool call.
type ToolCallRecord struct {
	CallID    string         `json:"call_id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
	Result    string         `json:"result"`
	IsError   bool           `json:"is_error"`
}

// DisplayEntry is one user or assistant entry of a conversation as shown to
// the user. An assistant entry owns the TurnSequence that produced it.
type DisplayEntry struct {
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	ToolCalls []ToolCallRecord `json:"tool_calls,omitempty"`
	Sequence  TurnSequence     `json:"sequence,omitempty"`
	// RawToolCalls is only present on entries recorded without a Sequence.
	RawToolCalls []ToolCall `json:"raw_tool_calls,omitempty"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type Conversation struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Entries   []DisplayEntry `json:"entries"`
}

func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.New().String()[:8],
		Title:     DefaultTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TitleFromPrompt derives a conversation title from the first user message.
func TitleFromPrompt(prompt string) string {
	if prompt == "" {
		return DefaultTitle
	}
	if utf8.RuneCountInString(prompt) <= titleMaxLength {
		return prompt
	}
	runes := []rune(prompt)
	return string(runes[:titleMaxLength]) + "…"
}

// AppendTurn records a finished turn: the user prompt followed by the
// assistant entry carrying the captured sequence. turnErr, when non-nil, is
// kept on the entry so the failure stays visible.
func (c *Conversation) AppendTurn(prompt string, result *TurnResult, turnErr error) {
	now := time.Now()
	c.Entries = append(c.Entries, DisplayEntry{
		Role:      RoleUser,
		Content:   prompt,
		CreatedAt: now,
	})

	entry := DisplayEntry{Role: RoleAssistant, CreatedAt: now}
	if result != nil {
		entry.Content = result.FinalText
		entry.ToolCalls = result.ToolCalls
		entry.Sequence = result.Sequence
	}
	if turnErr != nil {
		entry.Error = turnErr.Error()
	}
	c.Entries = append(c.Entries, entry)

	if len(c.Entries) == 2 {
		c.Title = TitleFromPrompt(prompt)
	}
	c.UpdatedAt = now
}

// LastAnswer returns the content of the most recent assistant entry.
func (c *Conversation) LastAnswer() string {
	for i := len(c.Entries) - 1; i >= 0; i-- {
		if c.Entries[i].Role == RoleAssistant {
			return c.Entries[i].Content
		}
	}
	return ""
}
