package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	appmodel "pathways/model"
)

const (
	descriptionLimit = 100
	// Tool responses longer than this are cut in cards.
	cardMaxLines = 16
)

// truncateDescription cuts a tool description to 100 characters plus "…".
func truncateDescription(desc string) string {
	desc = strings.Join(strings.Fields(desc), " ")
	runes := []rune(desc)
	if len(runes) <= descriptionLimit {
		return desc
	}
	return string(runes[:descriptionLimit]) + "…"
}

func truncateWidth(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

// prettyPayload indents JSON text; anything else is returned unchanged.
func prettyPayload(text string) string {
	trimmed := strings.TrimSpace(text)
	if !json.Valid([]byte(trimmed)) {
		return text
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(trimmed), "", "  "); err != nil {
		return text
	}
	return buf.String()
}

// clipLines keeps the first max lines, each cut to width.
func clipLines(text string, max, width int) string {
	lines := strings.Split(text, "\n")
	extra := 0
	if len(lines) > max {
		extra = len(lines) - max
		lines = lines[:max]
	}
	for i, line := range lines {
		lines[i] = truncateWidth(line, width)
	}
	if extra > 0 {
		lines = append(lines, DimStyle.Render(fmt.Sprintf("… %d more lines", extra)))
	}
	return strings.Join(lines, "\n")
}

func requestJSON(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	data, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return string(data)
}

// renderToolCard shows one finished tool call: name, request and response.
func renderToolCard(rec appmodel.ToolCallRecord, width int) string {
	inner := width - 4
	if inner < 20 {
		inner = 20
	}

	style := ToolCardStyle
	header := SectionStyle.Render("🔧 " + rec.Name)
	if rec.IsError {
		style = ToolCardErrorStyle
		header = ErrorStyle.Render("🔧 " + rec.Name + " (error)")
	}

	body := []string{
		header,
		DimStyle.Render("request"),
		clipLines(requestJSON(rec.Arguments), cardMaxLines, inner),
		DimStyle.Render("response"),
	}
	response := clipLines(prettyPayload(rec.Result), cardMaxLines, inner)
	if rec.IsError {
		response = ErrorStyle.Render(response)
	}
	body = append(body, response)

	return style.Width(inner).Render(strings.Join(body, "\n"))
}

// renderRunningTool shows a call whose result has not arrived.
func renderRunningTool(call appmodel.ToolCall, spinnerView string, width int) string {
	inner := width - 4
	if inner < 20 {
		inner = 20
	}
	body := []string{
		SectionStyle.Render("🔧 "+call.Name) + " " + spinnerView,
		DimStyle.Render("request"),
		clipLines(prettyPayload(call.Arguments), cardMaxLines, inner),
	}
	return ToolCardStyle.Width(inner).Render(strings.Join(body, "\n"))
}
