package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ModalType determines the title color of a modal
type ModalType int

const (
	ModalTypeInfo ModalType = iota
	ModalTypeWarning
	ModalTypeError
)

func (t ModalType) color() lipgloss.Color {
	switch t {
	case ModalTypeWarning:
		return warningColor
	case ModalTypeError:
		return dangerColor
	default:
		return accentColor
	}
}

func modalWidthFor(desired, width int) int {
	if width < desired+10 {
		return width - 10
	}
	return desired
}

// renderSectionedModal draws the borderless modal layout: a title, the body
// under a top rule, and a footer under another top rule.
func renderSectionedModal(title string, body []string, footer string, titleColor lipgloss.Color, align lipgloss.Position, modalWidth, width, height int) string {
	titleSection := lipgloss.NewStyle().
		Bold(true).
		Foreground(titleColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render(title)

	lineStyle := lipgloss.NewStyle().Width(modalWidth).Align(align)
	blank := strings.Repeat(" ", modalWidth)
	lines := []string{blank}
	for _, line := range body {
		lines = append(lines, lineStyle.Render(line))
	}
	lines = append(lines, blank)

	rule := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Width(modalWidth)

	content := strings.Join([]string{
		titleSection,
		rule.Render(strings.Join(lines, "\n")),
		rule.Foreground(dimColor).Align(lipgloss.Center).Render(footer),
	}, "\n")

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// RenderAcknowledgeModal renders a modal dismissed with Enter or Esc.
// Multi-line bodies are left aligned so lists stay readable.
func RenderAcknowledgeModal(title, message string, modalType ModalType, width, height int) string {
	lines := strings.Split(message, "\n")
	align := lipgloss.Center
	if len(lines) > 1 {
		align = lipgloss.Left
	}
	// Keep the footer on screen for long lists
	if max := height - 8; max > 0 && len(lines) > max {
		lines = append(lines[:max-1], DimStyle.Render("…"))
	}
	return renderSectionedModal(title, lines, "Press Enter to close", modalType.color(), align, modalWidthFor(70, width), width, height)
}

// RenderConfirmationModal renders a y/n question.
func RenderConfirmationModal(title, message string, width, height int) string {
	return renderSectionedModal(
		title,
		strings.Split(message, "\n"),
		FormatFooter("y", "Yes", "n", "No"),
		warningColor,
		lipgloss.Center,
		modalWidthFor(60, width),
		width, height,
	)
}

// renderSpinner renders a one-line spinner modal without borders
func renderSpinner(message, spinnerView string, width, height int) string {
	content := lipgloss.NewStyle().
		Width(modalWidthFor(40, width)).
		Align(lipgloss.Center).
		Render(spinnerView + " " + message)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
