package storage

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

type ConversationMatch struct {
	ConversationMetadata
	Score          int
	MatchedIndexes []int
}

type SearchIndex struct {
	store *ConversationStore
}

func NewSearchIndex(store *ConversationStore) *SearchIndex {
	return &SearchIndex{store: store}
}

// Search fuzzy-matches query against conversation titles, best match
// first. An empty query matches nothing.
func (si *SearchIndex) Search(query string) ([]ConversationMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []ConversationMatch{}, nil
	}

	list, err := si.store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to search conversations: %w", err)
	}

	targets := make([]string, len(list))
	for i, m := range list {
		targets[i] = m.Title
	}

	matches := fuzzy.Find(query, targets)
	results := make([]ConversationMatch, len(matches))
	for i, match := range matches {
		results[i] = ConversationMatch{
			ConversationMetadata: list[match.Index],
			Score:                match.Score,
			MatchedIndexes:       match.MatchedIndexes,
		}
	}
	return results, nil
}
