package pathways

import (
	"strings"

	"github.com/tidwall/gjson"
)

// BlocksToText renders Strapi rich-text blocks as markdown-ish plain text:
// paragraphs as-is, headings prefixed with one "#" per level, list items
// prefixed with "- ". Parts are separated by blank lines. It reports false
// when there is nothing to render.
func BlocksToText(blocks gjson.Result) (string, bool) {
	if !blocks.IsArray() {
		return "", false
	}

	var parts []string
	for _, block := range blocks.Array() {
		switch block.Get("type").String() {
		case "paragraph":
			if text := childText(block); text != "" {
				parts = append(parts, text)
			}
		case "heading":
			level := 2
			if l := block.Get("level"); l.Exists() {
				level = int(l.Int())
			}
			if text := childText(block); text != "" {
				parts = append(parts, strings.Repeat("#", level)+" "+text)
			}
		case "list":
			for _, item := range block.Get("children").Array() {
				for _, child := range item.Get("children").Array() {
					if child.Get("type").String() != "paragraph" {
						continue
					}
					if text := childText(child); text != "" {
						parts = append(parts, "- "+text)
					}
				}
			}
		}
	}

	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n\n"), true
}

func childText(block gjson.Result) string {
	var b strings.Builder
	for _, c := range block.Get("children").Array() {
		b.WriteString(c.Get("text").String())
	}
	return b.String()
}

// textField extracts a field that holds either plain text or rich-text
// blocks. Empty values report false.
func textField(v gjson.Result) (string, bool) {
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		return "", false
	case v.IsArray():
		return BlocksToText(v)
	default:
		s := v.String()
		return s, s != "" && s != "false" && s != "0"
	}
}

// textOrNil returns the rendered blocks, or nil so the field encodes as null.
func textOrNil(v gjson.Result) any {
	if text, ok := BlocksToText(v); ok {
		return text
	}
	return nil
}
