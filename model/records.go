package model

import (
	"encoding/json"
	"fmt"

	"pathways/storage"
)

// toRecord converts a conversation to its stored form. Sequences are
// marshaled once here and stored as those exact bytes.
func (c *Conversation) toRecord() (*storage.Conversation, error) {
	rec := &storage.Conversation{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Entries:   make([]storage.Entry, 0, len(c.Entries)),
	}

	for i, e := range c.Entries {
		entry := storage.Entry{
			Role:      string(e.Role),
			Content:   e.Content,
			Error:     e.Error,
			CreatedAt: e.CreatedAt,
		}

		var err error
		if entry.ToolCalls, err = marshalIfAny(len(e.ToolCalls), e.ToolCalls); err != nil {
			return nil, fmt.Errorf("failed to encode tool calls of entry %d: %w", i, err)
		}
		if entry.Sequence, err = marshalIfAny(len(e.Sequence), e.Sequence); err != nil {
			return nil, fmt.Errorf("failed to encode sequence of entry %d: %w", i, err)
		}
		if entry.RawToolCalls, err = marshalIfAny(len(e.RawToolCalls), e.RawToolCalls); err != nil {
			return nil, fmt.Errorf("failed to encode raw tool calls of entry %d: %w", i, err)
		}
		rec.Entries = append(rec.Entries, entry)
	}
	return rec, nil
}

func conversationFromRecord(rec *storage.Conversation) (*Conversation, error) {
	c := &Conversation{
		ID:        rec.ID,
		Title:     rec.Title,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		Entries:   make([]DisplayEntry, 0, len(rec.Entries)),
	}

	for i, e := range rec.Entries {
		entry := DisplayEntry{
			Role:      Role(e.Role),
			Content:   e.Content,
			Error:     e.Error,
			CreatedAt: e.CreatedAt,
		}
		if err := unmarshalIfAny(e.ToolCalls, &entry.ToolCalls); err != nil {
			return nil, fmt.Errorf("failed to decode tool calls of entry %d: %w", i, err)
		}
		if err := unmarshalIfAny(e.Sequence, &entry.Sequence); err != nil {
			return nil, fmt.Errorf("failed to decode sequence of entry %d: %w", i, err)
		}
		if err := unmarshalIfAny(e.RawToolCalls, &entry.RawToolCalls); err != nil {
			return nil, fmt.Errorf("failed to decode raw tool calls of entry %d: %w", i, err)
		}
		c.Entries = append(c.Entries, entry)
	}
	return c, nil
}

func marshalIfAny(n int, v any) (json.RawMessage, error) {
	if n == 0 {
		return nil, nil
	}
	return json.Marshal(v)
}

func unmarshalIfAny(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
