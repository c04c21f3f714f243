package storage

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *ConversationStore {
	t.Helper()
	store, err := NewConversationStore(MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func conversation(id, title string, updated time.Time) *Conversation {
	return &Conversation{ID: id, Title: title, CreatedAt: updated, UpdatedAt: updated}
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Create(conversation("abc12345", "New conversation", now)))

	got, err := store.Get("abc12345")
	require.NoError(t, err)
	assert.Equal(t, "New conversation", got.Title)
	assert.True(t, got.UpdatedAt.Equal(now))
	assert.Empty(t, got.Entries)
}

func TestCreateDuplicateFails(t *testing.T) {
	store := newTestStore(t)
	c := conversation("dup", "t", time.Now())

	require.NoError(t, store.Create(c))
	assert.Error(t, store.Create(c))
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get("nope")

	assert.True(t, errors.Is(err, ErrConversationNotFound))
}

func TestSavePreservesSequenceBytes(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()

	// Key order and spacing are deliberately non-canonical.
	sequence := json.RawMessage(`[{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","name":"list_segmentations","arguments":"{}"}]},{"role":"tool","content":"[ ]","tool_call_id":"call_1"}]`)
	c := conversation("seq", "Which countries?", now)
	c.Entries = []Entry{
		{Role: "user", Content: "Which countries?", CreatedAt: now},
		{
			Role:      "assistant",
			Content:   "Senegal.",
			ToolCalls: json.RawMessage(`[{"call_id":"call_1","name":"list_segmentations"}]`),
			Sequence:  sequence,
			CreatedAt: now,
		},
	}

	require.NoError(t, store.Save(c))

	got, err := store.Get("seq")
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "user", got.Entries[0].Role)
	assert.Nil(t, got.Entries[0].Sequence)
	assert.Equal(t, string(sequence), string(got.Entries[1].Sequence))
	assert.Nil(t, got.Entries[1].RawToolCalls)
}

func TestSaveReplacesEntries(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	c := conversation("r", "t", now)
	c.Entries = []Entry{{Role: "user", Content: "a", CreatedAt: now}, {Role: "assistant", Content: "b", CreatedAt: now}}
	require.NoError(t, store.Save(c))

	c.Entries = c.Entries[:1]
	c.Title = "renamed"
	require.NoError(t, store.Save(c))

	got, err := store.Get("r")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.Len(t, got.Entries, 1)
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Create(conversation("old", "old", base)))
	require.NoError(t, store.Create(conversation("new", "new", base.Add(2*time.Hour))))
	mid := conversation("mid", "mid", base.Add(time.Hour))
	mid.Entries = []Entry{{Role: "user", Content: "x", CreatedAt: base}}
	require.NoError(t, store.Save(mid))

	list, err := store.List()
	require.NoError(t, err)

	require.Len(t, list, 3)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "mid", list[1].ID)
	assert.Equal(t, 1, list[1].EntryCount)
	assert.Equal(t, "old", list[2].ID)
}

func TestDelete(t *testing.T) {
	store := newTestStore(t)
	c := conversation("gone", "t", time.Now())
	c.Entries = []Entry{{Role: "user", Content: "a", CreatedAt: time.Now()}}
	require.NoError(t, store.Save(c))

	require.NoError(t, store.Delete("gone"))

	_, err := store.Get("gone")
	assert.ErrorIs(t, err, ErrConversationNotFound)
	assert.ErrorIs(t, store.Delete("gone"), ErrConversationNotFound)
}

func TestSearchIndex(t *testing.T) {
	store := newTestStore(t)
	now := time.Now()
	require.NoError(t, store.Create(conversation("a", "Senegal rural segments", now)))
	require.NoError(t, store.Create(conversation("b", "Nutrition in Kenya", now.Add(time.Minute))))

	index := NewSearchIndex(store)

	matches, err := index.Search("sen rur")
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "a", matches[0].ID)
	assert.NotEmpty(t, matches[0].MatchedIndexes)

	none, err := index.Search("   ")
	require.NoError(t, err)
	assert.Empty(t, none)
}
