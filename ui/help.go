package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func (a AppView) renderHelpModal(width, height int) string {
	kb := a.keys

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(successColor).
		Render("Pathways Assistant - Help")

	blue := lipgloss.NewStyle().Foreground(accentColor)

	commandLines := []string{blue.Render("## Commands")}
	for _, c := range commands {
		commandLines = append(commandLines, fmt.Sprintf("%-27s %s", c.usage, c.help))
	}

	keyLines := []string{
		blue.Render("## Keys"),
		"• Enter         Send message",
		"• Alt+Enter     New line",
		fmt.Sprintf("• %-13s Cancel the response", kb.DisplayActionKey("cancel_turn")),
		fmt.Sprintf("• %-13s New conversation", kb.DisplayActionKey("new_conversation")),
		fmt.Sprintf("• %-13s Conversations", kb.DisplayActionKey("conversation_list")),
		fmt.Sprintf("• %-13s Toggle sidebar", kb.DisplayActionKey("toggle_sidebar")),
		fmt.Sprintf("• %-13s Copy last answer", kb.DisplayActionKey("yank_last_response")),
		fmt.Sprintf("• %-13s Clear input", kb.DisplayActionKey("clear_input")),
		fmt.Sprintf("• %-13s Quit", kb.DisplayActionKey("quit")),
		"",
		blue.Render("## Scrolling"),
		fmt.Sprintf("• %-13s Line down / up", kb.DisplayActionKey("scroll_down")+"/"+kb.DisplayActionKey("scroll_up")),
		fmt.Sprintf("• %-13s Half page down", kb.DisplayActionKey("half_page_down")),
		fmt.Sprintf("• %-13s Half page up", kb.DisplayActionKey("half_page_up")),
		fmt.Sprintf("• %-13s Page down", kb.DisplayActionKey("page_down")),
		fmt.Sprintf("• %-13s Page up", kb.DisplayActionKey("page_up")),
		fmt.Sprintf("• %-13s Top", kb.DisplayActionKey("scroll_to_top")),
		fmt.Sprintf("• %-13s Bottom", kb.DisplayActionKey("scroll_to_bottom")),
	}

	columnStyle := lipgloss.NewStyle().PaddingLeft(2)
	columns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		columnStyle.Width(62).Render(lipgloss.JoinVertical(lipgloss.Left, commandLines...)),
		columnStyle.Width(40).Render(lipgloss.JoinVertical(lipgloss.Left, keyLines...)),
	)

	footer := DimStyle.Render(fmt.Sprintf("Press %s or Esc to close this help", kb.DisplayActionKey("help")))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(1, 2)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		box.Render(lipgloss.JoinVertical(lipgloss.Center, title, "", columns, "", footer)))
}
