package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"pathways/storage"
)

// listItems returns the rows of the conversation overlay: search matches
// after /find, otherwise every stored conversation.
func (a AppView) listItems() []storage.ConversationMetadata {
	if a.searchMatches == nil {
		return a.conversations
	}
	items := make([]storage.ConversationMetadata, len(a.searchMatches))
	for i, m := range a.searchMatches {
		items[i] = m.ConversationMetadata
	}
	return items
}

// highlightMatches renders the fuzzy-matched runes of title.
func highlightMatches(title string, indexes []int) string {
	if len(indexes) == 0 {
		return title
	}
	hit := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		hit[i] = true
	}
	var b strings.Builder
	// fuzzy reports byte offsets
	for i, r := range title {
		if hit[i] {
			b.WriteString(HighlightStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (a AppView) renderConversationList(width, height int) string {
	items := a.listItems()
	modalWidth := modalWidthFor(72, width)

	var rows []string
	if len(items) == 0 {
		empty := "No conversations yet."
		if a.searchMatches != nil {
			empty = "Nothing matched."
		}
		rows = append(rows, DimStyle.Render(empty))
	}

	// Window of rows around the selection
	visible := height - 10
	if visible < 3 {
		visible = 3
	}
	start := 0
	if a.listIdx >= visible {
		start = a.listIdx - visible + 1
	}

	currentID := ""
	if a.dataModel.Current != nil {
		currentID = a.dataModel.Current.ID
	}

	for i := start; i < len(items) && i < start+visible; i++ {
		item := items[i]
		title := truncateWidth(item.Title, modalWidth-30)
		if a.searchMatches != nil && len(title) == len(item.Title) {
			title = highlightMatches(title, a.searchMatches[i].MatchedIndexes)
		}
		marker := "  "
		if item.ID == currentID {
			marker = "● "
		}
		meta := DimStyle.Render(fmt.Sprintf("%d entries, %s", item.EntryCount, humanize.Time(item.UpdatedAt)))
		row := fmt.Sprintf("%s%2d. %s  %s", marker, i+1, title, meta)
		if i == a.listIdx {
			row = SelectedStyle.Render(fmt.Sprintf("%s%2d. ", marker, i+1)) + title + "  " + meta
		}
		rows = append(rows, row)
	}

	footer := FormatFooter("j/k", "Navigate", "Enter", "Open", "d", "Delete", "Esc", "Close")
	title := a.listTitle
	if title == "" {
		title = "Conversations"
	}
	return renderSectionedModal(title, rows, footer, accentColor, lipgloss.Left, modalWidth, width, height)
}
