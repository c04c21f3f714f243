package pathways

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
)

// ResponseCharLimit bounds the size of a tool response in characters.
const ResponseCharLimit = 150_000

// FormatResponse serializes v as JSON for a tool result. It returns the
// indented form when it fits within limit, the compact form when only that
// fits, and otherwise a response_too_large error object. The result is
// always valid JSON.
func FormatResponse(v any, limit int) string {
	if limit <= 0 {
		limit = ResponseCharLimit
	}

	pretty, err := marshal(v, "  ")
	if err != nil {
		return errorJSON(fmt.Sprintf("failed to encode response: %v", err))
	}
	if utf8.RuneCount(pretty) <= limit {
		return string(pretty)
	}

	compact, err := marshal(v, "")
	if err != nil {
		return errorJSON(fmt.Sprintf("failed to encode response: %v", err))
	}
	size := utf8.RuneCount(compact)
	if size <= limit {
		return string(compact)
	}

	tooLarge, _ := marshal(struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}{
		Error: "response_too_large",
		Message: fmt.Sprintf("The response (%s chars) exceeds the %s char limit. "+
			"Use filters, pagination, or a more specific query to reduce the result size.",
			humanize.Comma(int64(size)), humanize.Comma(int64(limit))),
	}, "")
	return string(tooLarge)
}

// Format is FormatResponse with the default limit.
func Format(v any) string {
	return FormatResponse(v, ResponseCharLimit)
}

func marshal(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// errorJSON renders the {"error": msg} object returned for not-found
// conditions.
func errorJSON(msg string) string {
	out, _ := marshal(map[string]string{"error": msg}, "  ")
	return string(out)
}
