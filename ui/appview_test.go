package ui

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathways/config"
	"pathways/mcp"
	appmodel "pathways/model"
	"pathways/provider/testutil"
	"pathways/storage"
)

func newTestView(t *testing.T, p appmodel.Provider) AppView {
	t.Helper()

	store, err := storage.NewConversationStore(storage.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	profile, err := config.LoadProfile()
	require.NoError(t, err)

	cfg := &config.Config{Settings: *config.DefaultSettings()}
	cfg.SystemPromptPath = t.TempDir() + "/missing.md"

	m := appmodel.NewModel(cfg, profile, p, nil, store, nil, "test")
	a := NewAppView(m, nil)
	next, _ := a.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	return next.(AppView)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		name     string
		arg      string
		expectOK bool
	}{
		{"/help", "help", "", true},
		{"/Switch 2", "switch", "2", true},
		{"/prompt segment_deep_dive  country=SN ", "prompt", "segment_deep_dive  country=SN", true},
		{"/", "", "", false},
		{"hello", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			name, arg, ok := parseCommand(tt.input)
			assert.Equal(t, tt.expectOK, ok)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.arg, arg)
		})
	}
}

func TestTruncateDescription(t *testing.T) {
	assert.Equal(t, "Lists segments", truncateDescription("Lists\n  segments"))

	long := strings.Repeat("é", 150)
	got := truncateDescription(long)
	assert.Equal(t, 101, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestRenderToolCard(t *testing.T) {
	ok := renderToolCard(appmodel.ToolCallRecord{
		CallID:    "call_1",
		Name:      "list_segmentations",
		Arguments: map[string]any{"country": "SN"},
		Result:    `{"code":"SN01"}`,
	}, 80)
	assert.Contains(t, ok, "list_segmentations")
	assert.Contains(t, ok, `"country": "SN"`)
	assert.Contains(t, ok, `"code": "SN01"`)
	assert.NotContains(t, ok, "(error)")

	failed := renderToolCard(appmodel.ToolCallRecord{
		CallID:  "call_2",
		Name:    "get_segment",
		Result:  "segment not found",
		IsError: true,
	}, 80)
	assert.Contains(t, failed, "get_segment (error)")
	assert.Contains(t, failed, "segment not found")
	assert.Contains(t, failed, "{}")
}

func TestClipLines(t *testing.T) {
	text := strings.TrimSuffix(strings.Repeat("line\n", cardMaxLines+4), "\n")
	got := clipLines(text, cardMaxLines, 40)
	assert.Contains(t, got, "4 more lines")
	assert.Equal(t, cardMaxLines+1, len(strings.Split(got, "\n")))
}

func TestListItemsPrefersSearchMatches(t *testing.T) {
	a := newTestView(t, nil)
	a.conversations = []storage.ConversationMetadata{{ID: "a"}, {ID: "b"}}
	assert.Len(t, a.listItems(), 2)

	a.searchMatches = []storage.ConversationMatch{{ConversationMetadata: storage.ConversationMetadata{ID: "b"}}}
	items := a.listItems()
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].ID)

	a.searchMatches = []storage.ConversationMatch{}
	assert.Empty(t, a.listItems())
}

func TestUnknownCommand(t *testing.T) {
	a := newTestView(t, nil)
	next, cmd := a.runCommand("/nope")
	assert.Nil(t, cmd)
	view := next.(AppView)
	assert.True(t, view.noticeError)
	assert.Equal(t, "unknown command /nope, try /help", view.notice)
}

func TestSuggestOutOfRange(t *testing.T) {
	a := newTestView(t, nil)
	next, cmd := a.runCommand("/suggest 0")
	assert.Nil(t, cmd)
	assert.True(t, next.(AppView).noticeError)
	assert.Contains(t, next.(AppView).notice, "usage: /suggest")
}

func TestSubmitPromptStreamsIntoConversation(t *testing.T) {
	p := testutil.NewMockProvider(testutil.TextDeltas("Senegal ", "has one."))
	a := newTestView(t, p)

	a.textarea.SetValue("Which segmentations exist?")
	next, cmd := a.Update(keyMsg("enter"))
	a = next.(AppView)
	require.NotNil(t, cmd)
	assert.True(t, a.dataModel.Streaming)
	assert.Equal(t, "Which segmentations exist?", a.pendingPrompt)

	// Drive the event stream the way the program loop would
	wait := a.dataModel.WaitForTurnEvent()
	for i := 0; i < 50 && wait != nil; i++ {
		msg := wait()
		next, wait = a.Update(msg)
		a = next.(AppView)
		if _, done := msg.(appmodel.TurnDoneMsg); done {
			break
		}
	}

	assert.False(t, a.dataModel.Streaming)
	assert.Empty(t, a.pendingPrompt)
	require.NotNil(t, a.dataModel.Current)
	require.Len(t, a.dataModel.Current.Entries, 2)
	assert.Equal(t, "Senegal has one.", a.dataModel.Current.LastAnswer())
	assert.Contains(t, a.viewport.View(), "Senegal has one.")
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	a := newTestView(t, nil)
	conv, err := a.dataModel.StartConversation()
	require.NoError(t, err)

	next, cmd := a.runCommand("/delete")
	a = next.(AppView)
	assert.Nil(t, cmd)
	require.NotNil(t, a.confirmDelete)
	assert.Equal(t, conv.ID, a.confirmDelete.ID)
	assert.Contains(t, a.View(), "Delete conversation?")

	next, cmd = a.Update(keyMsg("y"))
	a = next.(AppView)
	assert.Nil(t, a.confirmDelete)
	require.NotNil(t, cmd)

	msg, ok := cmd().(appmodel.ConversationDeletedMsg)
	require.True(t, ok)
	require.NoError(t, msg.Err)
	assert.Equal(t, conv.ID, msg.DeletedID)
	require.NotNil(t, msg.Next)
	assert.NotEqual(t, conv.ID, msg.Next.ID)
}

func TestEmptyConversationShowsSuggestions(t *testing.T) {
	a := newTestView(t, nil)
	out := a.renderConversation(100)
	require.NotEmpty(t, a.dataModel.Profile.Suggestions)
	assert.Contains(t, out, "/suggest 1")
	assert.Contains(t, out, a.dataModel.Profile.Suggestions[0].Label)
}

// droppedTransport behaves like a tool server whose pipe closed after the
// handshake.
type droppedTransport struct {
	mcp.Transport
}

func (droppedTransport) CallTool(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
	return nil, io.EOF
}

func TestSidebarShowsLostToolServer(t *testing.T) {
	srv := server.NewMCPServer("pathways-test", "1.0.0", server.WithToolCapabilities(false))
	srv.AddTool(mcptypes.NewTool("list_segmentations"), func(ctx context.Context, req mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error) {
		return mcptypes.NewToolResultText("[]"), nil
	})
	dial := func(ctx context.Context, env []string) (mcp.Transport, error) {
		conn, err := mcp.InProcessDialer(srv)(ctx, env)
		return droppedTransport{conn}, err
	}
	w := mcp.NewSessionWorker(dial)
	require.NoError(t, w.Start(context.Background(), nil))
	t.Cleanup(func() { _ = w.Shutdown() })

	a := newTestView(t, nil)
	a.dataModel.AdoptTools(w)
	a.toolsState = toolsConnected
	assert.Contains(t, a.renderSidebar(40, 30), "ready, 1 tools")

	_, _, err := w.CallTool(context.Background(), "list_segmentations", nil)
	require.ErrorIs(t, err, mcp.ErrSessionLost)

	out := a.renderSidebar(40, 30)
	assert.Contains(t, out, "degraded")
	assert.Contains(t, out, "/connect to restart")
	assert.False(t, a.dataModel.ToolsReady())
}
