package model

import "pathways/storage"

// Turn streaming messages

type TurnTextMsg struct {
	Chunk string
}

type ToolStartMsg struct {
	Call ToolCall
}

type ToolResultMsg struct {
	Record ToolCallRecord
}

// TurnDoneMsg ends a turn. Result is never nil; Err is a *TransportError
// when the model stream failed, or the context error when cancelled.
type TurnDoneMsg struct {
	ConversationID string
	Prompt         string
	Result         *TurnResult
	Err            error
}

// Conversation messages

type ConversationsListMsg struct {
	Conversations []storage.ConversationMetadata
	Err           error
}

type ConversationLoadedMsg struct {
	Conversation *Conversation
	Err          error
}

type ConversationSavedMsg struct {
	Err error
}

type ConversationDeletedMsg struct {
	DeletedID string
	// Next is the conversation to show after the deletion.
	Next *Conversation
	Err  error
}

type SearchResultsMsg struct {
	Query   string
	Matches []storage.ConversationMatch
	Err     error
}

// Tool session messages

type ToolsConnectedMsg struct {
	Tools ToolHost
	Err   error
}

type PromptRenderedMsg struct {
	Name string
	Text string
	Err  error
}

type ShutdownCompleteMsg struct {
	Err error
}
