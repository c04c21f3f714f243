package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	appmodel "pathways/model"
)

func formatCheck(c appmodel.Check) string {
	mark := OKStyle.Render("✓")
	if !c.OK {
		mark = ErrorStyle.Render("✗")
	}
	line := mark + " " + c.Label
	if c.Detail != "" {
		line += DimStyle.Render(": " + c.Detail)
	}
	return line
}

// renderSidebar shows connection status, tools, prompts and configuration
// checks.
func (a AppView) renderSidebar(width, height int) string {
	inner := width - 2
	var lines []string

	section := func(title string) {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, SectionStyle.Render(title))
	}

	section("Tool server")
	switch a.toolsState {
	case toolsConnected:
		status := "ready"
		if a.dataModel.Tools != nil {
			status = a.dataModel.Tools.Status()
		}
		if status == "degraded" {
			lines = append(lines, WarningStyle.Render("● ")+"degraded, connection lost")
			lines = append(lines, DimStyle.Render("/connect to restart"))
			break
		}
		lines = append(lines, OKStyle.Render("● ")+fmt.Sprintf("%s, %d tools", status, len(a.dataModel.ToolList())))
	case toolsConnecting:
		lines = append(lines, a.spinner.View()+" connecting")
	default:
		lines = append(lines, ErrorStyle.Render("● ")+"offline")
		if a.toolsErr != nil {
			lines = append(lines, DimStyle.Render(truncateWidth(a.toolsErr.Error(), inner)))
		}
		lines = append(lines, DimStyle.Render("/connect to retry"))
	}
	if url := a.dataModel.Config.Pathways.APIURL; url != "" {
		lines = append(lines, DimStyle.Render(truncateWidth(url, inner)))
	}

	if tools := a.dataModel.ToolList(); len(tools) > 0 {
		section("Tools")
		for _, t := range tools {
			lines = append(lines, truncateWidth(t.Name, inner))
			desc := lipgloss.NewStyle().Width(inner - 2).Render(truncateDescription(t.Description))
			for _, l := range strings.Split(desc, "\n") {
				lines = append(lines, DimStyle.Render("  "+l))
			}
		}
	}

	if prompts := a.dataModel.PromptList(); len(prompts) > 0 {
		section("Prompts")
		for _, p := range prompts {
			lines = append(lines, truncateWidth(p.Name, inner))
		}
	}

	section("Configuration")
	for _, c := range a.dataModel.ConfigChecks() {
		lines = append(lines, truncateWidth(formatCheck(c), inner))
	}
	lines = append(lines, DimStyle.Render("effort: "+a.dataModel.Options.ReasoningEffort))

	if len(lines) > height {
		lines = lines[:height]
	}
	return SidebarStyle.Width(width).Height(height).Render(strings.Join(lines, "\n"))
}
