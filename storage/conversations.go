package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"pathways/config"
	"sort"
	"time"

	_ "modernc.org/sqlite"
)

// MemoryDSN opens a private in-memory database. Conversations do not
// survive a restart.
const MemoryDSN = ":memory:"

var ErrConversationNotFound = errors.New("conversation not found")

// Entry is the stored form of one display entry. The JSON columns hold the
// exact bytes the caller marshaled so a replayed sequence is identical to
// the one captured.
type Entry struct {
	Role         string
	Content      string
	ToolCalls    json.RawMessage
	Sequence     json.RawMessage
	RawToolCalls json.RawMessage
	Error        string
	CreatedAt    time.Time
}

type Conversation struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Entries   []Entry
}

// ConversationMetadata is a lightweight version of Conversation for listing
type ConversationMetadata struct {
	ID         string
	Title      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	EntryCount int
}

type ConversationStore struct {
	db *sql.DB
}

// NewConversationStore opens the store at dsn, usually MemoryDSN.
func NewConversationStore(dsn string) (*ConversationStore, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &ConversationStore{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (cs *ConversationStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS entries (
		conversation_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		tool_calls BLOB,
		sequence BLOB,
		raw_tool_calls BLOB,
		error TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		PRIMARY KEY (conversation_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at);
	`

	_, err := cs.db.Exec(schema)
	return err
}

// Create inserts a new, empty conversation. It fails if the id exists.
func (cs *ConversationStore) Create(c *Conversation) error {
	_, err := cs.db.Exec(
		`INSERT INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Title, c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to create conversation %s: %w", c.ID, err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Storage] created conversation %s", c.ID)
	}
	return nil
}

// Save replaces the stored conversation and all of its entries.
func (cs *ConversationStore) Save(c *Conversation) error {
	tx, err := cs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT OR REPLACE INTO conversations (id, title, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Title, c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save conversation %s: %w", c.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM entries WHERE conversation_id = ?`, c.ID); err != nil {
		return fmt.Errorf("failed to clear entries of %s: %w", c.ID, err)
	}

	insert := `
	INSERT INTO entries (conversation_id, position, role, content, tool_calls, sequence, raw_tool_calls, error, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for i, e := range c.Entries {
		_, err := tx.Exec(insert,
			c.ID,
			i,
			e.Role,
			e.Content,
			nullableJSON(e.ToolCalls),
			nullableJSON(e.Sequence),
			nullableJSON(e.RawToolCalls),
			e.Error,
			e.CreatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to save entry %d of %s: %w", i, c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit conversation %s: %w", c.ID, err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Storage] saved conversation %s (%d entries)", c.ID, len(c.Entries))
	}
	return nil
}

// Get loads a conversation with its entries in order.
func (cs *ConversationStore) Get(id string) (*Conversation, error) {
	var c Conversation
	err := cs.db.QueryRow(
		`SELECT id, title, created_at, updated_at FROM conversations WHERE id = ?`, id,
	).Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%s: %w", id, ErrConversationNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}

	rows, err := cs.db.Query(`
	SELECT role, content, tool_calls, sequence, raw_tool_calls, error, created_at
	FROM entries
	WHERE conversation_id = ?
	ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries of %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e Entry
		var toolCalls, sequence, rawToolCalls []byte
		if err := rows.Scan(&e.Role, &e.Content, &toolCalls, &sequence, &rawToolCalls, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to read entry of %s: %w", id, err)
		}
		e.ToolCalls = rawJSON(toolCalls)
		e.Sequence = rawJSON(sequence)
		e.RawToolCalls = rawJSON(rawToolCalls)
		c.Entries = append(c.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entries of %s: %w", id, err)
	}

	return &c, nil
}

// List returns metadata for all conversations, newest first.
func (cs *ConversationStore) List() ([]ConversationMetadata, error) {
	rows, err := cs.db.Query(`
	SELECT c.id, c.title, c.created_at, c.updated_at, COUNT(e.position)
	FROM conversations c
	LEFT JOIN entries e ON e.conversation_id = c.id
	GROUP BY c.id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var list []ConversationMetadata
	for rows.Next() {
		var m ConversationMetadata
		if err := rows.Scan(&m.ID, &m.Title, &m.CreatedAt, &m.UpdatedAt, &m.EntryCount); err != nil {
			return nil, fmt.Errorf("failed to read conversation row: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
	return list, nil
}

// Delete removes a conversation and its entries.
func (cs *ConversationStore) Delete(id string) error {
	tx, err := cs.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", id, ErrConversationNotFound)
	}

	if _, err := tx.Exec(`DELETE FROM entries WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete entries of %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete of %s: %w", id, err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Storage] deleted conversation %s", id)
	}
	return nil
}

func (cs *ConversationStore) Close() error {
	if cs.db != nil {
		return cs.db.Close()
	}
	return nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func rawJSON(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}
