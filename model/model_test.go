package model_test

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathways/config"
	"pathways/mcp"
	"pathways/model"
	"pathways/provider/testutil"
	"pathways/storage"
)

type fakeHost struct {
	*testutil.MockToolSession
	prompts  []mcp.PromptDescriptor
	rendered map[string]string
	shutdown int
}

func (h *fakeHost) Prompts() []mcp.PromptDescriptor { return h.prompts }

func (h *fakeHost) GetPrompt(ctx context.Context, name string, args map[string]string) (string, error) {
	h.rendered = args
	return "rendered " + name + " for " + args["segment_name"], nil
}

func (h *fakeHost) Status() string { return "ready" }

func (h *fakeHost) Shutdown() error {
	h.shutdown++
	return nil
}

func newFakeHost() *fakeHost {
	session := testutil.NewMockToolSession().Handle("list_segmentations", func(args map[string]any) (string, error) {
		return `[{"code":"SN01"}]`, nil
	})
	return &fakeHost{
		MockToolSession: session,
		prompts: []mcp.PromptDescriptor{{
			Name: "segment_deep_dive",
			Arguments: []mcp.PromptArgument{
				{Name: "segment_name", Required: true},
				{Name: "country", Required: true},
			},
		}},
	}
}

func newTestModel(t *testing.T, p model.Provider) *model.Model {
	t.Helper()

	store, err := storage.NewConversationStore(storage.MemoryDSN)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	profile, err := config.LoadProfile()
	require.NoError(t, err)

	cfg := &config.Config{Settings: *config.DefaultSettings()}
	cfg.SystemPromptPath = t.TempDir() + "/missing.md"

	m := model.NewModel(cfg, profile, p, nil, store, nil, "test")
	m.Transcript = model.NewTranscript("You are a test assistant.")
	return m
}

// runTurn drives a turn the way the UI does and returns its final message.
func runTurn(t *testing.T, m *model.Model, prompt string) (model.TurnDoneMsg, []tea.Msg) {
	t.Helper()

	var events []tea.Msg
	cmd := m.StartTurn(prompt)
	for i := 0; i < 100; i++ {
		require.NotNil(t, cmd)
		msg := cmd()
		if done, ok := msg.(model.TurnDoneMsg); ok {
			return done, events
		}
		events = append(events, msg)
		cmd = m.WaitForTurnEvent()
	}
	require.FailNow(t, "turn did not finish")
	return model.TurnDoneMsg{}, nil
}

func TestStartTurnStreamsEventsAndRecords(t *testing.T) {
	p := testutil.NewMockProvider(
		testutil.ToolCallRound("call_1", "list_segmentations", "{}"),
		testutil.TextDeltas("Senegal ", "has one."),
	)
	m := newTestModel(t, p)
	host := newFakeHost()
	m.AdoptTools(host)

	done, events := runTurn(t, m, "Which segmentations exist?")
	require.NoError(t, done.Err)
	assert.True(t, m.Streaming)

	var kinds []string
	for _, e := range events {
		switch e.(type) {
		case model.TurnTextMsg:
			kinds = append(kinds, "text")
		case model.ToolStartMsg:
			kinds = append(kinds, "start")
		case model.ToolResultMsg:
			kinds = append(kinds, "result")
		}
	}
	assert.Equal(t, []string{"start", "result", "text", "text"}, kinds)

	saved := m.FinishTurn(done)
	require.NotNil(t, saved)
	assert.Equal(t, model.ConversationSavedMsg{}, saved())
	assert.False(t, m.Streaming)

	require.Len(t, m.Current.Entries, 2)
	assert.Equal(t, "Which segmentations exist?", m.Current.Title)
	assert.Equal(t, "Senegal has one.", m.Current.LastAnswer())
	assert.Equal(t, []string{"list_segmentations"}, host.Invoked())
}

func TestStartTurnWithoutProvider(t *testing.T) {
	m := newTestModel(t, nil)
	m.ProviderErr = errors.New("OPENAI_API_KEY is not set")

	msg := m.StartTurn("hello")()
	done, ok := msg.(model.TurnDoneMsg)
	require.True(t, ok)
	assert.EqualError(t, done.Err, "OPENAI_API_KEY is not set")
	require.NotNil(t, done.Result)

	m.FinishTurn(done)
	require.Len(t, m.Current.Entries, 2)
	assert.Equal(t, "OPENAI_API_KEY is not set", m.Current.Entries[1].Error)
}

func TestStoredConversationReplaysIdentically(t *testing.T) {
	p := testutil.NewMockProvider(
		testutil.ToolCallRound("call_1", "list_segmentations", "{}"),
		testutil.TextDeltas("One segmentation."),
	)
	m := newTestModel(t, p)
	m.AdoptTools(newFakeHost())

	done, _ := runTurn(t, m, "List them")
	m.FinishTurn(done)()

	id := m.Current.ID
	before := m.Transcript.Reconstruct(m.Current.Entries, "next")
	require.NoError(t, model.CheckToolPairing(before))

	m.Current = nil
	loaded, ok := m.LoadConversation(id)().(model.ConversationLoadedMsg)
	require.True(t, ok)
	require.NoError(t, loaded.Err)

	after := m.Transcript.Reconstruct(loaded.Conversation.Entries, "next")
	assert.Equal(t, before, after)
	assert.Equal(t, map[string]any{}, loaded.Conversation.Entries[1].ToolCalls[0].Arguments)
}

func TestFinishTurnForStaleConversation(t *testing.T) {
	m := newTestModel(t, testutil.NewMockProvider(testutil.TextDeltas("hi")))

	done, _ := runTurn(t, m, "hello")
	_, err := m.StartConversation()
	require.NoError(t, err)

	assert.Nil(t, m.FinishTurn(done))
	assert.Empty(t, m.Current.Entries)
}

func TestDeleteCurrentSelectsNewest(t *testing.T) {
	m := newTestModel(t, nil)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	var convs []*model.Conversation
	for i := 0; i < 3; i++ {
		conv, err := m.StartConversation()
		require.NoError(t, err)
		conv.UpdatedAt = base.Add(time.Duration(i) * time.Hour)
		m.SaveCurrentConversation()()
		convs = append(convs, conv)
	}

	m.Current = convs[2]
	msg := m.DeleteConversation(convs[2].ID)().(model.ConversationDeletedMsg)
	require.NoError(t, msg.Err)
	require.NotNil(t, msg.Next)
	assert.Equal(t, convs[1].ID, msg.Next.ID)
}

func TestDeleteLastConversationCreatesNew(t *testing.T) {
	m := newTestModel(t, nil)
	only, err := m.StartConversation()
	require.NoError(t, err)

	msg := m.DeleteConversation(only.ID)().(model.ConversationDeletedMsg)
	require.NoError(t, msg.Err)
	require.NotNil(t, msg.Next)
	assert.NotEqual(t, only.ID, msg.Next.ID)
	assert.Equal(t, model.DefaultTitle, msg.Next.Title)

	list := m.FetchConversationList()().(model.ConversationsListMsg)
	require.Len(t, list.Conversations, 1)
	assert.Equal(t, msg.Next.ID, list.Conversations[0].ID)
}

func TestDeleteOtherConversationKeepsCurrent(t *testing.T) {
	m := newTestModel(t, nil)
	other, err := m.StartConversation()
	require.NoError(t, err)
	_, err = m.StartConversation()
	require.NoError(t, err)

	msg := m.DeleteConversation(other.ID)().(model.ConversationDeletedMsg)
	require.NoError(t, msg.Err)
	assert.Nil(t, msg.Next)
}

func TestSearchConversations(t *testing.T) {
	m := newTestModel(t, nil)
	conv, err := m.StartConversation()
	require.NoError(t, err)
	conv.Title = "Family planning in Senegal"
	m.SaveCurrentConversation()()

	res := m.SearchConversations("senegal")().(model.SearchResultsMsg)
	require.NoError(t, res.Err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, conv.ID, res.Matches[0].ID)
}

func TestResolveConversationRef(t *testing.T) {
	list := []storage.ConversationMetadata{{ID: "ab12cd34"}, {ID: "ab99ef00"}, {ID: "ff001122"}}

	tests := []struct {
		ref     string
		want    string
		wantErr string
	}{
		{ref: "1", want: "ab12cd34"},
		{ref: "3", want: "ff001122"},
		{ref: "4", wantErr: "no conversation #4 (have 3)"},
		{ref: "ff", want: "ff001122"},
		{ref: "ab99ef00", want: "ab99ef00"},
		{ref: "ab", wantErr: `conversation id "ab" is ambiguous`},
		{ref: "zz", wantErr: `no conversation with id "zz"`},
		{ref: "", wantErr: "no conversation given"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := model.ResolveConversationRef(list, tt.ref)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSwitchModelAndEffort(t *testing.T) {
	m := newTestModel(t, nil)
	profile := m.Profile

	last := profile.Models[len(profile.Models)-1].ID
	require.NoError(t, m.SwitchModel(last))
	assert.Equal(t, last, m.Options.Model)

	err := m.SwitchModel("not-a-model")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown model "not-a-model"`)
	assert.Equal(t, last, m.Options.Model)

	require.NoError(t, m.SetReasoningEffort(" HIGH "))
	assert.Equal(t, "high", m.Options.ReasoningEffort)
	assert.Error(t, m.SetReasoningEffort("extreme"))
}

func TestRunPrompt(t *testing.T) {
	m := newTestModel(t, nil)

	msg := m.RunPrompt("segment_deep_dive", nil)().(model.PromptRenderedMsg)
	assert.ErrorIs(t, msg.Err, model.ErrNoToolSession)

	host := newFakeHost()
	m.AdoptTools(host)

	msg = m.RunPrompt("segment_deep_dive", map[string]string{"segment_name": "R4"})().(model.PromptRenderedMsg)
	assert.EqualError(t, msg.Err, "missing required arguments: country")

	msg = m.RunPrompt("nope", nil)().(model.PromptRenderedMsg)
	assert.EqualError(t, msg.Err, `unknown prompt "nope"`)

	args := map[string]string{"segment_name": "R4", "country": "Senegal"}
	msg = m.RunPrompt("segment_deep_dive", args)().(model.PromptRenderedMsg)
	require.NoError(t, msg.Err)
	assert.Equal(t, "rendered segment_deep_dive for R4", msg.Text)
	assert.Equal(t, args, host.rendered)
}

func TestAdoptToolsShutsDownPrevious(t *testing.T) {
	m := newTestModel(t, nil)
	first := newFakeHost()
	second := newFakeHost()

	m.AdoptTools(first)
	m.AdoptTools(second)
	assert.Equal(t, 1, first.shutdown)
	assert.Equal(t, 0, second.shutdown)

	assert.Equal(t, model.ShutdownCompleteMsg{}, m.ShutdownTools()())
	assert.Equal(t, 1, second.shutdown)
	assert.Nil(t, m.Tools)
}

func TestParsePromptArgs(t *testing.T) {
	args, err := model.ParsePromptArgs(`segment_name=R4 country="Burkina Faso"`)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"segment_name": "R4", "country": "Burkina Faso"}, args)

	_, err = model.ParsePromptArgs("justaword")
	assert.EqualError(t, err, `expected key=value, got "justaword"`)

	args, err = model.ParsePromptArgs("")
	require.NoError(t, err)
	assert.Empty(t, args)
}
