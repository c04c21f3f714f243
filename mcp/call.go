package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"syscall"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	globalconfig "pathways/config"
	"pathways/telemetry"
)

type callResult struct {
	text string
	err  error
}

type callRequest struct {
	name   string
	fn     func(ctx context.Context, conn Transport) (string, error)
	result chan callResult
}

// remoteError marks a failure reported by the tool server, as opposed to a
// local timeout or lifecycle error.
type remoteError struct {
	cause error
}

func (e *remoteError) Error() string { return e.cause.Error() }
func (e *remoteError) Unwrap() error { return e.cause }

// connectionLost reports whether err means the pipe to the tool server is
// gone rather than that one request failed.
func connectionLost(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.EPIPE)
}

// dispatch hands fn to the worker and waits up to the call timeout for its
// result. A result that arrives after the wait has been abandoned lands in
// the buffered channel and is dropped.
func (w *SessionWorker) dispatch(ctx context.Context, name string, fn func(context.Context, Transport) (string, error)) (string, error) {
	if !w.Ready() {
		return "", ErrNotInitialized
	}
	if w.Degraded() {
		return "", ErrSessionLost
	}

	req := &callRequest{
		name:   name,
		fn:     fn,
		result: make(chan callResult, 1),
	}

	timer := time.NewTimer(w.callTimeout)
	defer timer.Stop()

	select {
	case w.requests <- req:
	case <-w.stop:
		return "", ErrSessionClosed
	case <-w.done:
		return "", ErrSessionClosed
	case <-timer.C:
		return "", ErrToolCallTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}

	select {
	case res := <-req.result:
		return res.text, res.err
	case <-timer.C:
		switch {
		case globalconfig.DebugLog != nil:
			globalconfig.DebugLog.Printf("[MCP] %s abandoned after %v", name, w.callTimeout)
		}
		return "", ErrToolCallTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// CallTool invokes a remote tool and returns its text output. Failures
// reported by the tool server come back as an {"error": ...} payload with
// isError set and a nil error so the model can read them; local failures
// (not ready, timeout, closed, connection lost) are returned as errors.
func (w *SessionWorker) CallTool(ctx context.Context, name string, args map[string]any) (text string, isError bool, err error) {
	ctx, span := telemetry.Start(ctx)
	defer span.End()

	if args == nil {
		args = map[string]any{}
	}

	switch {
	case globalconfig.DebugLog != nil:
		globalconfig.DebugLog.Printf("[MCP] calling tool %s", name)
	}

	text, err = w.dispatch(ctx, name, func(ctx context.Context, conn Transport) (string, error) {
		req := mcptypes.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args

		result, err := conn.CallTool(ctx, req)
		if err != nil {
			if connectionLost(err) {
				w.signal(err)
				return "", fmt.Errorf("%w: %v", ErrSessionLost, err)
			}
			return "", &remoteError{cause: err}
		}

		text := joinText(result.Content)
		if result.IsError {
			return "", &remoteError{cause: fmt.Errorf("%s", text)}
		}
		return text, nil
	})

	var remote *remoteError
	if errors.As(err, &remote) {
		telemetry.RecordToolCall(ctx, name, true)
		telemetry.RecordErrorAndStatus(span, remote)
		switch {
		case globalconfig.DebugLog != nil:
			globalconfig.DebugLog.Printf("[MCP] tool %s failed: %v", name, remote)
		}
		return ErrorPayload(remote.Error()), true, nil
	}
	if err != nil {
		telemetry.RecordToolCall(ctx, name, true)
		telemetry.RecordErrorAndStatus(span, err)
		return "", false, err
	}

	telemetry.RecordToolCall(ctx, name, false)
	telemetry.RecordErrorAndStatus(span, nil)
	return text, false, nil
}

// GetPrompt renders a server-side prompt template to text. Required
// arguments are checked locally before the request is sent.
func (w *SessionWorker) GetPrompt(ctx context.Context, name string, args map[string]string) (string, error) {
	if !w.Ready() {
		return "", ErrNotInitialized
	}

	var found *PromptDescriptor
	for _, p := range w.prompts {
		if p.Name == name {
			found = &p
			break
		}
	}
	if found == nil {
		return "", fmt.Errorf("unknown prompt %q", name)
	}
	if missing := found.MissingArguments(args); len(missing) > 0 {
		return "", fmt.Errorf("prompt %s requires: %s", name, strings.Join(missing, ", "))
	}

	text, err := w.dispatch(ctx, name, func(ctx context.Context, conn Transport) (string, error) {
		req := mcptypes.GetPromptRequest{}
		req.Params.Name = name
		req.Params.Arguments = args

		result, err := conn.GetPrompt(ctx, req)
		if err != nil {
			if connectionLost(err) {
				w.signal(err)
				return "", fmt.Errorf("%w: %v", ErrSessionLost, err)
			}
			return "", &remoteError{cause: err}
		}

		parts := make([]string, 0, len(result.Messages))
		for _, msg := range result.Messages {
			if t := contentText(msg.Content); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, "\n"), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to get prompt %s: %w", name, err)
	}
	return text, nil
}

// joinText concatenates the text parts of a tool result, newline separated.
// Non-text parts are skipped.
func joinText(content []mcptypes.Content) string {
	parts := make([]string, 0, len(content))
	for _, c := range content {
		if t := contentText(c); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

func contentText(c mcptypes.Content) string {
	switch v := c.(type) {
	case mcptypes.TextContent:
		return v.Text
	case *mcptypes.TextContent:
		return v.Text
	}
	return ""
}
