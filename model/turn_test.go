package model_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathways/mcp"
	"pathways/model"
	"pathways/provider/testutil"
)

func newRunner(p model.Provider, tools model.ToolSession) *model.TurnRunner {
	return &model.TurnRunner{
		Provider:   p,
		Tools:      tools,
		Transcript: model.NewTranscript("You are a test assistant."),
		Options:    model.ChatOptions{Model: "gpt-test"},
	}
}

func TestRunPlainAnswer(t *testing.T) {
	p := testutil.NewMockProvider(testutil.TextDeltas("Hello", ", world"))

	var streamed string
	r := newRunner(p, nil)
	r.OnText = func(chunk string) { streamed += chunk }

	res, err := r.ResolveTurn(context.Background(), model.NewConversation(), "hi")
	require.NoError(t, err)

	assert.Equal(t, "Hello, world", res.FinalText)
	assert.Equal(t, "Hello, world", streamed)
	assert.Equal(t, 1, res.Rounds)
	require.Len(t, res.Sequence, 1)
	assert.Equal(t, model.KindAssistantFinal, res.Sequence[0].Kind())
	assert.Empty(t, res.ToolCalls)

	calls := p.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, model.RoleSystem, calls[0][0].Role)
	assert.Equal(t, "hi", calls[0][len(calls[0])-1].Text())
}

func TestRunExecutesToolsAndContinues(t *testing.T) {
	p := testutil.NewMockProvider(
		[]model.Delta{
			{Text: "Checking."},
			testutil.ToolCallDelta(0, "call_1", "list_segmentations", ""),
		},
		testutil.TextDeltas("There is one segmentation."),
	)
	tools := testutil.NewMockToolSession().Handle("list_segmentations", func(args map[string]any) (string, error) {
		return `[{"code":"UK01"}]`, nil
	})

	var started []string
	var finished []model.ToolCallRecord
	r := newRunner(p, tools)
	r.OnToolStart = func(call model.ToolCall) { started = append(started, call.Name) }
	r.OnToolResult = func(rec model.ToolCallRecord) { finished = append(finished, rec) }

	res, err := r.ResolveTurn(context.Background(), nil, "what segmentations exist?")
	require.NoError(t, err)

	assert.Equal(t, "There is one segmentation.", res.FinalText)
	assert.Equal(t, 2, res.Rounds)
	assert.Equal(t, []string{"list_segmentations"}, started)
	require.Len(t, finished, 1)
	assert.Equal(t, map[string]any{}, finished[0].Arguments)

	require.Len(t, res.Sequence, 3)
	assert.Equal(t, model.KindAssistantWithCalls, res.Sequence[0].Kind())
	assert.Equal(t, "Checking.", res.Sequence[0].Text())
	assert.Equal(t, model.KindToolResult, res.Sequence[1].Kind())
	assert.Equal(t, "call_1", res.Sequence[1].ToolCallID)
	assert.Equal(t, model.KindAssistantFinal, res.Sequence[2].Kind())
	require.NoError(t, model.CheckToolPairing(res.Sequence))

	// Round two sees round one's call and result.
	second := p.Calls()[1]
	assert.Equal(t, res.Sequence[:2], model.TurnSequence(second[len(second)-2:]))
}

func TestRunCallsOnlyRoundHasNilContent(t *testing.T) {
	p := testutil.NewMockProvider(
		testutil.ToolCallRound("call_1", "list_segmentations", "{}"),
		testutil.TextDeltas("ok"),
	)
	tools := testutil.NewMockToolSession().Handle("list_segmentations", func(map[string]any) (string, error) {
		return "[]", nil
	})

	res, err := newRunner(p, tools).Run(context.Background(), []model.Message{model.UserMessage("q")})
	require.NoError(t, err)
	assert.Nil(t, res.Sequence[0].Content)
}

func TestRunExecutesCallsInIndexOrder(t *testing.T) {
	p := testutil.NewMockProvider(
		[]model.Delta{
			testutil.ToolCallDelta(1, "call_b", "second", ""),
			testutil.ToolCallDelta(0, "call_a", "first", ""),
			testutil.ToolCallDelta(1, "", "", `{"n":`),
			testutil.ToolCallDelta(0, "", "", `{}`),
			testutil.ToolCallDelta(1, "", "", `2}`),
		},
		testutil.TextDeltas("done"),
	)
	tools := testutil.NewMockToolSession().
		Handle("first", func(map[string]any) (string, error) { return "1", nil }).
		Handle("second", func(map[string]any) (string, error) { return "2", nil })

	res, err := newRunner(p, tools).Run(context.Background(), []model.Message{model.UserMessage("q")})
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second"}, tools.Invoked())
	assert.Equal(t, map[string]any{"n": float64(2)}, tools.Args()[1])

	calls := res.Sequence[0].ToolCalls
	require.Len(t, calls, 2)
	assert.Equal(t, "call_a", calls[0].ID)
	assert.Equal(t, "call_b", calls[1].ID)
	assert.Equal(t, "call_a", res.Sequence[1].ToolCallID)
	assert.Equal(t, "call_b", res.Sequence[2].ToolCallID)
	require.NoError(t, model.CheckToolPairing(res.Sequence))
}

func TestRunStopsAtRoundCap(t *testing.T) {
	p := testutil.NewMockProvider(
		[]model.Delta{
			{Text: "again"},
			testutil.ToolCallDelta(0, "call_x", "list_segmentations", "{}"),
		},
	)
	p.RepeatLast = true
	tools := testutil.NewMockToolSession().Handle("list_segmentations", func(map[string]any) (string, error) {
		return "[]", nil
	})

	res, err := newRunner(p, tools).Run(context.Background(), []model.Message{model.UserMessage("loop")})
	require.NoError(t, err)

	assert.Equal(t, model.DefaultMaxRounds, p.CallCount())
	assert.Equal(t, model.DefaultMaxRounds, res.Rounds)
	assert.True(t, res.Capped)
	assert.Equal(t, "again", res.FinalText)
	assert.Len(t, res.ToolCalls, model.DefaultMaxRounds)
	require.NoError(t, model.CheckToolPairing(res.Sequence))
}

func TestRunFoldsToolFailuresIntoTranscript(t *testing.T) {
	p := testutil.NewMockProvider(
		[]model.Delta{
			testutil.ToolCallDelta(0, "call_1", "get_segment_profile", `{"segment_code":"A"}`),
			testutil.ToolCallDelta(1, "call_2", "list_regions", `{"segmentation_code":`),
		},
		testutil.TextDeltas("The profile lookup failed."),
	)
	tools := testutil.NewMockToolSession().
		Handle("get_segment_profile", func(map[string]any) (string, error) {
			return "", mcp.ErrToolCallTimeout
		}).
		Handle("list_regions", func(args map[string]any) (string, error) {
			return "", testutil.ToolError(fmt.Sprintf("bad args %d", len(args)))
		})

	res, err := newRunner(p, tools).Run(context.Background(), []model.Message{model.UserMessage("q")})
	require.NoError(t, err)

	assert.Equal(t, "The profile lookup failed.", res.FinalText)
	require.Len(t, res.ToolCalls, 2)

	failed := res.ToolCalls[0]
	assert.True(t, failed.IsError)
	var payload map[string]string
	require.NoError(t, json.Unmarshal([]byte(failed.Result), &payload))
	assert.Equal(t, mcp.ErrToolCallTimeout.Error(), payload["error"])
	assert.Equal(t, failed.Result, res.Sequence[1].Text())
	assert.True(t, res.Sequence[1].IsError)

	// Malformed arguments become an empty set and the call still runs.
	assert.True(t, res.ToolCalls[1].IsError)
	assert.Equal(t, `{"error":"bad args 0"}`, res.ToolCalls[1].Result)
	assert.True(t, res.Sequence[2].IsError)
	assert.False(t, res.Sequence[3].IsError)
}

func TestRunSuccessfulToolIsNotFlagged(t *testing.T) {
	p := testutil.NewMockProvider(
		testutil.ToolCallRound("call_1", "get_segmentation", `{"code":"NOPE"}`),
		testutil.TextDeltas("It does not exist."),
	)
	// A not-found answer is a normal result the model reads
	tools := testutil.NewMockToolSession().Handle("get_segmentation", func(map[string]any) (string, error) {
		return mcp.ErrorPayload("Segmentation 'NOPE' not found."), nil
	})

	res, err := newRunner(p, tools).Run(context.Background(), []model.Message{model.UserMessage("q")})
	require.NoError(t, err)

	require.Len(t, res.ToolCalls, 1)
	assert.False(t, res.ToolCalls[0].IsError)
	assert.False(t, res.Sequence[1].IsError)
}

func TestRunWithoutToolSession(t *testing.T) {
	p := testutil.NewMockProvider(
		testutil.ToolCallRound("call_1", "list_segmentations", "{}"),
		testutil.TextDeltas("No tools available."),
	)

	res, err := newRunner(p, nil).Run(context.Background(), []model.Message{model.UserMessage("q")})
	require.NoError(t, err)

	require.Len(t, res.ToolCalls, 1)
	assert.True(t, res.ToolCalls[0].IsError)
	assert.Contains(t, res.ToolCalls[0].Result, mcp.ErrNotInitialized.Error())
}

func TestRunTransportErrorKeepsPartialText(t *testing.T) {
	p := testutil.NewMockProvider(
		testutil.ToolCallRound("call_1", "list_segmentations", "{}"),
		testutil.TextDeltas("Partial ans"),
	)
	p.FailRound = 2
	p.FailErr = errors.New("connection reset")
	tools := testutil.NewMockToolSession().Handle("list_segmentations", func(map[string]any) (string, error) {
		return "[]", nil
	})

	res, err := newRunner(p, tools).Run(context.Background(), []model.Message{model.UserMessage("q")})

	var transportErr *model.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, 2, transportErr.Round)
	assert.ErrorContains(t, err, "connection reset")

	require.NotNil(t, res)
	assert.Equal(t, "Partial ans", res.FinalText)
	require.Len(t, res.Sequence, 3)
	assert.Equal(t, "Partial ans", res.Sequence[2].Text())
	require.NoError(t, model.CheckToolPairing(res.Sequence))
}

func TestRunTransportErrorWithoutText(t *testing.T) {
	p := testutil.NewMockProvider(nil)
	p.FailRound = 1

	res, err := newRunner(p, nil).Run(context.Background(), []model.Message{model.UserMessage("q")})
	require.Error(t, err)
	assert.Empty(t, res.FinalText)
	assert.Empty(t, res.Sequence)
}

func TestRunPassesOptionsAndTools(t *testing.T) {
	p := testutil.NewMockProvider(testutil.TextDeltas("ok"))
	tools := testutil.NewMockToolSession().Handle("list_segmentations", func(map[string]any) (string, error) {
		return "[]", nil
	})

	r := newRunner(p, tools)
	r.Options = model.ChatOptions{Model: "o4-mini", ReasoningEffort: "high"}
	_, err := r.Run(context.Background(), []model.Message{model.UserMessage("q")})
	require.NoError(t, err)

	assert.Equal(t, "o4-mini", p.LastOptions().Model)
	assert.Equal(t, "high", p.LastOptions().ReasoningEffort)
}
