package model

import (
	"pathways/config"
	"pathways/mcp"
)

// Transcript rebuilds the provider-facing message list for a new prompt
// from a conversation's display entries.
type Transcript struct {
	SystemPrompt string
}

func NewTranscript(systemPrompt string) Transcript {
	return Transcript{SystemPrompt: systemPrompt}
}

// Reconstruct emits the system prompt, then each prior entry, then prompt.
// Assistant entries with a captured sequence are replayed verbatim.
func (t Transcript) Reconstruct(entries []DisplayEntry, prompt string) []Message {
	msgs := []Message{SystemMessage(t.SystemPrompt)}

	for _, entry := range entries {
		switch entry.Role {
		case RoleUser:
			msgs = append(msgs, UserMessage(entry.Content))
		case RoleAssistant:
			if len(entry.Sequence) > 0 {
				msgs = append(msgs, entry.Sequence...)
				continue
			}
			msgs = append(msgs, legacyTurn(entry)...)
		}
	}

	return append(msgs, UserMessage(prompt))
}

// legacyTurn approximates a turn recorded without a sequence as a single
// round. Results are emitted per raw call, matched by id, so a multi-round
// turn cannot produce results that pair with nothing; records without a
// matching raw call are dropped.
func legacyTurn(entry DisplayEntry) []Message {
	if len(entry.RawToolCalls) == 0 {
		if len(entry.ToolCalls) > 0 && config.DebugLog != nil {
			config.DebugLog.Printf("[Turn] dropping %d tool records without raw calls", len(entry.ToolCalls))
		}
		return []Message{AssistantFinal(entry.Content)}
	}

	results := make(map[string]ToolCallRecord, len(entry.ToolCalls))
	for _, rec := range entry.ToolCalls {
		results[rec.CallID] = rec
	}

	msgs := []Message{AssistantWithCalls(entry.Content, entry.RawToolCalls)}
	for _, call := range entry.RawToolCalls {
		rec, ok := results[call.ID]
		switch {
		case !ok:
			msgs = append(msgs, ToolFailure(call.ID, mcp.ErrorPayload("result unavailable")))
		case rec.IsError:
			msgs = append(msgs, ToolFailure(call.ID, rec.Result))
		default:
			msgs = append(msgs, ToolResult(call.ID, rec.Result))
		}
	}
	return msgs
}
