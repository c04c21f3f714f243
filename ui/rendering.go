package ui

import (
	"fmt"
	"regexp"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"

	appmodel "pathways/model"
)

var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
)

// refreshViewport re-renders the conversation into the viewport.
func (a *AppView) refreshViewport(gotoBottom bool) {
	if !a.ready && a.viewport.Width == 0 {
		return
	}
	a.viewport.SetContent(a.renderConversation(a.viewport.Width))
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

func (a *AppView) renderConversation(width int) string {
	var entries []appmodel.DisplayEntry
	if a.dataModel.Current != nil {
		entries = a.dataModel.Current.Entries
	}

	if len(entries) == 0 && !a.dataModel.Streaming {
		return a.renderSuggestions(width)
	}

	var content strings.Builder
	for _, entry := range entries {
		switch entry.Role {
		case appmodel.RoleUser:
			content.WriteString(formatUserMessage(DimStyle.Render(entry.CreatedAt.Format("[15:04]")), UserStyle.Render("You"), entry.Content))
		case appmodel.RoleAssistant:
			content.WriteString(a.renderAssistantEntry(entry, width))
		}
	}

	if a.dataModel.Streaming {
		content.WriteString(a.renderLiveTurn(width))
	}
	return content.String()
}

func (a *AppView) renderAssistantEntry(entry appmodel.DisplayEntry, width int) string {
	var b strings.Builder
	b.WriteString(DimStyle.Render(entry.CreatedAt.Format("[15:04]")) + " " + AssistantStyle.Render("Assistant") + "\n")

	for _, rec := range entry.ToolCalls {
		b.WriteString(renderToolCard(rec, width-2) + "\n")
	}
	if entry.Content != "" {
		b.WriteString(a.renderMarkdown(entry.Content, width))
		b.WriteString("\n")
	}
	if entry.Error != "" {
		b.WriteString(ErrorStyle.Render("⚠ "+entry.Error) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (a *AppView) renderLiveTurn(width int) string {
	var b strings.Builder
	if a.pendingPrompt != "" {
		b.WriteString(formatUserMessage(DimStyle.Render("[now]"), UserStyle.Render("You"), a.pendingPrompt))
	}
	b.WriteString(AssistantStyle.Render("Assistant") + "\n")

	for _, call := range a.liveCalls {
		if call.Record != nil {
			b.WriteString(renderToolCard(*call.Record, width-2) + "\n")
			continue
		}
		b.WriteString(renderRunningTool(call.Call, a.spinner.View(), width-2) + "\n")
	}

	if text := a.currentResp.String(); text != "" {
		b.WriteString(text + "▋\n")
	} else if len(a.liveCalls) == 0 || a.liveCalls[len(a.liveCalls)-1].Record != nil {
		b.WriteString(a.spinner.View() + " Thinking...\n")
	}
	return b.String()
}

func (a *AppView) renderSuggestions(width int) string {
	var b strings.Builder
	b.WriteString(AssistantStyle.Bold(true).Render("Ask about Pathways segmentations, segments, metrics and regions."))
	b.WriteString("\n\n")

	suggestions := a.dataModel.Profile.Suggestions
	if len(suggestions) > 0 {
		b.WriteString(SectionStyle.Render("Suggestions") + "\n")
		for i, s := range suggestions {
			line := fmt.Sprintf("  /suggest %d  %s", i+1, s.Label)
			b.WriteString(truncateWidth(line, width) + "\n")
		}
		b.WriteString("\n")
	}
	b.WriteString(DimStyle.Render("Type /help for commands."))
	return b.String()
}

func formatUserMessage(timestamp, role, content string) string {
	bar := UserStyle.Render("┃")

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s %s %s\n", bar, timestamp, role))
	for _, line := range strings.Split(content, "\n") {
		result.WriteString(fmt.Sprintf("%s %s\n", bar, line))
	}
	result.WriteString("\n")
	return result.String()
}

// renderMarkdown renders a final answer for the terminal, caching by width.
func (a *AppView) renderMarkdown(content string, width int) string {
	if width < 20 {
		width = 20
	}
	key := fmt.Sprintf("%d:%s", width, content)
	if cached, ok := a.markdownCache[key]; ok {
		return cached
	}

	// Plain URLs stay clickable in terminals that detect them
	content = mdLinkRegex.ReplaceAllString(content, "$1 ($2)")

	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	r := markdown.NewRenderer(width-4, 0)
	rendered := string(gomarkdown.Render(p.Parse([]byte(content)), r))

	// Inline code: blue background to red text
	rendered = inlineCodeRegex.ReplaceAllString(rendered, "\x1b[31m$1\x1b[0m")
	rendered = strings.TrimRight(rendered, "\n")

	a.markdownCache[key] = rendered
	return rendered
}
