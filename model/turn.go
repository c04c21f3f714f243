package model

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"pathways/config"
	"pathways/mcp"
	"pathways/telemetry"
)

const DefaultMaxRounds = 10

// TransportError reports a model stream failure. The turn ends with the
// text streamed so far.
type TransportError struct {
	Round int
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("model stream failed in round %d: %v", e.Round, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// TurnResult is what one resolved user prompt produced.
type TurnResult struct {
	FinalText string
	Sequence  TurnSequence
	ToolCalls []ToolCallRecord
	Rounds    int
	// Capped is set when the round limit ended the turn before the model
	// stopped requesting tools.
	Capped bool
}

// TurnRunner drives the round loop of one turn: stream, execute requested
// tools in index order, feed results back, repeat.
type TurnRunner struct {
	Provider   Provider
	Tools      ToolSession
	Transcript Transcript
	Options    ChatOptions
	MaxRounds  int

	// Hooks run synchronously on the goroutine calling Run.
	OnText       func(chunk string)
	OnToolStart  func(call ToolCall)
	OnToolResult func(record ToolCallRecord)
}

// ResolveTurn reconstructs the transcript for prompt from conv and runs the
// turn. conv is not modified; the caller records the result with
// Conversation.AppendTurn.
func (r *TurnRunner) ResolveTurn(ctx context.Context, conv *Conversation, prompt string) (*TurnResult, error) {
	var entries []DisplayEntry
	if conv != nil {
		entries = conv.Entries
	}
	return r.Run(ctx, r.Transcript.Reconstruct(entries, prompt))
}

// Run resolves a turn starting from messages. The returned result is never
// nil; on a *TransportError it holds the partial text and the sequence
// captured up to the failure.
func (r *TurnRunner) Run(ctx context.Context, messages []Message) (*TurnResult, error) {
	ctx, span := telemetry.Start(ctx, trace.WithAttributes(attribute.String("model", r.Options.Model)))
	defer span.End()

	maxRounds := r.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	var tools []mcp.ToolDescriptor
	if r.Tools != nil {
		tools = r.Tools.Tools()
	}

	// The runner owns this slice for the duration of the turn.
	msgs := append([]Message(nil), messages...)
	result := &TurnResult{}

	var lastText string
	for round := 1; round <= maxRounds; round++ {
		result.Rounds = round

		text, pending, err := r.streamRound(ctx, round, msgs, tools)
		if err != nil {
			telemetry.RecordStreamError(ctx, r.Options.Model)
			if text != "" {
				result.Sequence = append(result.Sequence, AssistantFinal(text))
			}
			result.FinalText = text
			transportErr := &TransportError{Round: round, Err: err}
			telemetry.RecordErrorAndStatus(span, transportErr)
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Turn] %v", transportErr)
			}
			return result, transportErr
		}

		if pending.Len() == 0 {
			final := AssistantFinal(text)
			result.Sequence = append(result.Sequence, final)
			result.FinalText = text
			telemetry.RecordTurnRounds(ctx, r.Options.Model, round)
			telemetry.RecordErrorAndStatus(span, nil)
			return result, nil
		}

		roundMsgs, records := r.executeCalls(ctx, text, pending.Ordered())
		msgs = append(msgs, roundMsgs...)
		result.Sequence = append(result.Sequence, roundMsgs...)
		result.ToolCalls = append(result.ToolCalls, records...)
		lastText = text
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Turn] round limit %d reached, ending turn", maxRounds)
	}
	result.FinalText = lastText
	result.Capped = true
	telemetry.RecordTurnRounds(ctx, r.Options.Model, maxRounds)
	telemetry.RecordErrorAndStatus(span, nil)
	return result, nil
}

// streamRound consumes one model response, returning the accumulated text
// and tool-call fragments.
func (r *TurnRunner) streamRound(ctx context.Context, round int, msgs []Message, tools []mcp.ToolDescriptor) (string, *PendingCalls, error) {
	ctx, span := telemetry.Start(ctx, trace.WithAttributes(attribute.Int("round", round)))
	defer span.End()

	var text strings.Builder
	pending := NewPendingCalls()

	err := r.Provider.StreamChat(ctx, msgs, tools, r.Options, func(d Delta) error {
		if d.Text != "" {
			text.WriteString(d.Text)
			if r.OnText != nil {
				r.OnText(d.Text)
			}
		}
		if d.ToolCall != nil {
			pending.Add(*d.ToolCall)
		}
		return nil
	})
	telemetry.RecordErrorAndStatus(span, err)

	return text.String(), pending, err
}

// executeCalls runs the round's calls one at a time in index order and
// returns the assistant-with-calls message followed by one result per call.
func (r *TurnRunner) executeCalls(ctx context.Context, text string, calls []*PendingToolCall) ([]Message, []ToolCallRecord) {
	finalized := make([]ToolCall, len(calls))
	for i, p := range calls {
		finalized[i] = p.ToolCall()
	}

	msgs := make([]Message, 0, len(calls)+1)
	msgs = append(msgs, AssistantWithCalls(text, finalized))
	records := make([]ToolCallRecord, 0, len(calls))

	for i, p := range calls {
		call := finalized[i]
		args, ok := p.ParseArguments()
		if !ok && config.DebugLog != nil {
			config.DebugLog.Printf("[Turn] malformed arguments for %s (%s): %q", call.Name, call.ID, call.Arguments)
		}

		if r.OnToolStart != nil {
			r.OnToolStart(call)
		}

		resultText, isError, err := r.callTool(ctx, call.Name, args)
		record := ToolCallRecord{
			CallID:    call.ID,
			Name:      call.Name,
			Arguments: args,
			Result:    resultText,
			IsError:   isError,
		}
		if err != nil {
			record.Result = mcp.ErrorPayload(err.Error())
			record.IsError = true
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Turn] tool %s failed: %v", call.Name, err)
			}
		}

		if r.OnToolResult != nil {
			r.OnToolResult(record)
		}

		if record.IsError {
			msgs = append(msgs, ToolFailure(call.ID, record.Result))
		} else {
			msgs = append(msgs, ToolResult(call.ID, record.Result))
		}
		records = append(records, record)
	}

	return msgs, records
}

func (r *TurnRunner) callTool(ctx context.Context, name string, args map[string]any) (string, bool, error) {
	if r.Tools == nil {
		return "", false, mcp.ErrNotInitialized
	}
	return r.Tools.CallTool(ctx, name, args)
}
