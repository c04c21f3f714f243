package model

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"pathways/config"
)

const turnEventBuffer = 64

// turnStreamClosedMsg is returned when the event channel closes without a
// TurnDoneMsg, which only happens after a turn was abandoned.
type turnStreamClosedMsg struct{}

// StartTurn resolves prompt against the current conversation in the
// background. Progress arrives as TurnTextMsg, ToolStartMsg and
// ToolResultMsg, followed by one TurnDoneMsg.
func (m *Model) StartTurn(prompt string) tea.Cmd {
	if m.Streaming {
		return nil
	}
	if m.Current == nil {
		if _, err := m.StartConversation(); err != nil {
			return func() tea.Msg {
				return TurnDoneMsg{Prompt: prompt, Result: &TurnResult{}, Err: err}
			}
		}
	}
	if m.Provider == nil {
		err := m.ProviderErr
		if err == nil {
			err = errors.New("no model provider configured")
		}
		convID := m.Current.ID
		return func() tea.Msg {
			return TurnDoneMsg{ConversationID: convID, Prompt: prompt, Result: &TurnResult{}, Err: err}
		}
	}

	events := make(chan any, turnEventBuffer)
	ctx, cancel := context.WithCancel(context.Background())
	m.turnEvents = events
	m.cancelTurn = cancel
	m.Streaming = true

	runner := &TurnRunner{
		Provider:   m.Provider,
		Tools:      m.toolSession(),
		Transcript: m.Transcript,
		Options:    m.Options,
		MaxRounds:  DefaultMaxRounds,
		OnText: func(chunk string) {
			events <- TurnTextMsg{Chunk: chunk}
		},
		OnToolStart: func(call ToolCall) {
			events <- ToolStartMsg{Call: call}
		},
		OnToolResult: func(record ToolCallRecord) {
			events <- ToolResultMsg{Record: record}
		},
	}

	// Snapshot so later edits to m.Current cannot race the runner.
	conv := &Conversation{ID: m.Current.ID, Entries: append([]DisplayEntry(nil), m.Current.Entries...)}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Model] StartTurn: conversation=%s model=%s tools=%v", conv.ID, m.Options.Model, m.ToolsReady())
	}

	go func() {
		defer close(events)
		defer cancel()
		result, err := runner.ResolveTurn(ctx, conv, prompt)
		events <- TurnDoneMsg{ConversationID: conv.ID, Prompt: prompt, Result: result, Err: err}
	}()

	return m.WaitForTurnEvent()
}

// WaitForTurnEvent returns a Cmd delivering the next event of the running
// turn. The UI re-issues it after every event except TurnDoneMsg.
func (m *Model) WaitForTurnEvent() tea.Cmd {
	events := m.turnEvents
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return turnStreamClosedMsg{}
		}
		return msg
	}
}

// CancelTurn aborts the running turn. The runner still reports a
// TurnDoneMsg carrying the context error.
func (m *Model) CancelTurn() {
	if m.cancelTurn != nil {
		m.cancelTurn()
	}
}

// FinishTurn records a finished turn on its conversation and saves it.
func (m *Model) FinishTurn(msg TurnDoneMsg) tea.Cmd {
	m.Streaming = false
	m.turnEvents = nil
	m.cancelTurn = nil

	if m.Current == nil || m.Current.ID != msg.ConversationID {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Model] FinishTurn: conversation %s no longer current, dropping result", msg.ConversationID)
		}
		return nil
	}

	m.Current.AppendTurn(msg.Prompt, msg.Result, msg.Err)
	return m.SaveCurrentConversation()
}
