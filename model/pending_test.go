package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingToolCallFragmentsParseLikeWhole(t *testing.T) {
	split := NewPendingCalls()
	for _, frag := range []string{`{"a":`, `1,"b"`, `:2}`} {
		split.Add(ToolCallDelta{Index: 0, Arguments: frag})
	}

	whole := NewPendingCalls()
	whole.Add(ToolCallDelta{Index: 0, Arguments: `{"a":1,"b":2}`})

	got, ok := split.Ordered()[0].ParseArguments()
	require.True(t, ok, "split arguments parse")
	want, _ := whole.Ordered()[0].ParseArguments()

	assert.Equal(t, want, got)
	assert.Equal(t, `{"a":1,"b":2}`, split.Ordered()[0].Arguments())
}

func TestPendingToolCallParseArguments(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		wantOK bool
		want   map[string]any
	}{
		{name: "empty", raw: "", wantOK: true, want: map[string]any{}},
		{name: "whitespace", raw: "  \n", wantOK: true, want: map[string]any{}},
		{name: "valid", raw: `{"limit":5}`, wantOK: true, want: map[string]any{"limit": float64(5)}},
		{name: "truncated", raw: `{"limit":`, wantOK: false, want: map[string]any{}},
		{name: "not an object", raw: `[1,2]`, wantOK: false, want: map[string]any{}},
		{name: "null", raw: `null`, wantOK: false, want: map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pc := NewPendingCalls()
			pc.Add(ToolCallDelta{Index: 0, Arguments: tt.raw})

			got, ok := pc.Ordered()[0].ParseArguments()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPendingCallsAccumulate(t *testing.T) {
	pc := NewPendingCalls()
	pc.Add(ToolCallDelta{Index: 1, ID: "call_b", Name: "get_"})
	pc.Add(ToolCallDelta{Index: 0, ID: "call_a", Name: "list_segmentations"})
	pc.Add(ToolCallDelta{Index: 1, Name: "segment", Arguments: `{"x"`})
	pc.Add(ToolCallDelta{Index: 1, ID: "call_b2", Arguments: `:1}`})

	require.Equal(t, 2, pc.Len())

	ordered := pc.Ordered()
	require.Equal(t, 0, ordered[0].Index)
	require.Equal(t, 1, ordered[1].Index)

	call := ordered[1].ToolCall()
	assert.Equal(t, "get_segment", call.Name)
	assert.Equal(t, "call_b2", call.ID, "last non-empty id wins")
	assert.Equal(t, `{"x":1}`, call.Arguments)
}
