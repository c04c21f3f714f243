package model

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"pathways/config"
	"pathways/storage"
)

// StartConversation creates and stores a new empty conversation and makes
// it current.
func (m *Model) StartConversation() (*Conversation, error) {
	conv := NewConversation()
	rec, err := conv.toRecord()
	if err != nil {
		return nil, err
	}
	if err := m.Store.Create(rec); err != nil {
		return nil, err
	}
	m.Current = conv
	return conv, nil
}

// FetchConversationList retrieves the stored conversations, newest first.
func (m *Model) FetchConversationList() tea.Cmd {
	store := m.Store
	return func() tea.Msg {
		list, err := store.List()
		return ConversationsListMsg{Conversations: list, Err: err}
	}
}

// LoadConversation loads a conversation by id.
func (m *Model) LoadConversation(id string) tea.Cmd {
	if m.Current != nil && m.Current.ID == id {
		current := m.Current
		return func() tea.Msg {
			return ConversationLoadedMsg{Conversation: current}
		}
	}

	store := m.Store
	return func() tea.Msg {
		rec, err := store.Get(id)
		if err != nil {
			return ConversationLoadedMsg{Err: err}
		}
		conv, err := conversationFromRecord(rec)
		return ConversationLoadedMsg{Conversation: conv, Err: err}
	}
}

// SaveCurrentConversation saves the current conversation to the store.
func (m *Model) SaveCurrentConversation() tea.Cmd {
	if m.Current == nil {
		return nil
	}
	rec, err := m.Current.toRecord()
	store := m.Store
	return func() tea.Msg {
		if err != nil {
			return ConversationSavedMsg{Err: err}
		}
		return ConversationSavedMsg{Err: store.Save(rec)}
	}
}

// DeleteConversation removes a conversation. When it is the current one,
// the newest remaining conversation is selected, or a new one is created.
func (m *Model) DeleteConversation(id string) tea.Cmd {
	store := m.Store
	wasCurrent := m.Current != nil && m.Current.ID == id

	return func() tea.Msg {
		if err := store.Delete(id); err != nil {
			return ConversationDeletedMsg{DeletedID: id, Err: err}
		}
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Model] deleted conversation %s (current=%v)", id, wasCurrent)
		}
		if !wasCurrent {
			return ConversationDeletedMsg{DeletedID: id}
		}

		next, err := nextConversation(store)
		return ConversationDeletedMsg{DeletedID: id, Next: next, Err: err}
	}
}

func nextConversation(store *storage.ConversationStore) (*Conversation, error) {
	list, err := store.List()
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		rec, err := store.Get(list[0].ID)
		if err != nil {
			return nil, err
		}
		return conversationFromRecord(rec)
	}

	conv := NewConversation()
	rec, err := conv.toRecord()
	if err != nil {
		return nil, err
	}
	if err := store.Create(rec); err != nil {
		return nil, err
	}
	return conv, nil
}

// SearchConversations fuzzy-matches conversation titles.
func (m *Model) SearchConversations(query string) tea.Cmd {
	index := m.SearchIndex
	return func() tea.Msg {
		matches, err := index.Search(query)
		return SearchResultsMsg{Query: query, Matches: matches, Err: err}
	}
}

// ResolveConversationRef resolves "/switch" and "/delete" arguments: a
// 1-based position in list, or a conversation id or id prefix.
func ResolveConversationRef(list []storage.ConversationMetadata, ref string) (string, error) {
	if ref == "" {
		return "", errors.New("no conversation given")
	}

	var n int
	if _, err := fmt.Sscanf(ref, "%d", &n); err == nil && fmt.Sprint(n) == ref {
		if n < 1 || n > len(list) {
			return "", fmt.Errorf("no conversation #%d (have %d)", n, len(list))
		}
		return list[n-1].ID, nil
	}

	var found string
	for _, c := range list {
		if c.ID == ref {
			return c.ID, nil
		}
		if len(ref) < len(c.ID) && c.ID[:len(ref)] == ref {
			if found != "" {
				return "", fmt.Errorf("conversation id %q is ambiguous", ref)
			}
			found = c.ID
		}
	}
	if found == "" {
		return "", fmt.Errorf("no conversation with id %q", ref)
	}
	return found, nil
}
