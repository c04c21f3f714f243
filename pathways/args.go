package pathways

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Args are the decoded arguments of one tool call.
type Args map[string]any

// String returns a string argument, or "" when absent or not a string.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return strings.TrimSpace(s)
}

// Int returns an integer argument. JSON numbers arrive as float64; numeric
// strings are accepted too.
func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// Strings returns a list-of-strings argument. A bare string is treated as a
// one-element list.
func (a Args) Strings(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}

// pageWindow clamps limit to [1, 100] and converts offset to a 1-based page.
func pageWindow(args Args) (limit, offset, page int) {
	limit = args.Int("limit", 50)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 1
	}
	offset = args.Int("offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset, offset/limit + 1
}

// val returns the value at path, or nil so that missing fields encode as null.
func val(r gjson.Result, path string) any {
	v := r.Get(path)
	if !v.Exists() {
		return nil
	}
	return v.Value()
}
