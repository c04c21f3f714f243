package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

var (
	ErrSessionStartTimeout = errors.New("tool server did not initialise in time")
	ErrAlreadyStarted      = errors.New("session worker already started")
	ErrNotInitialized      = errors.New("tool session is not initialised")
	ErrToolCallTimeout     = errors.New("tool call timed out")
	ErrSessionClosed       = errors.New("tool session is closed")
	ErrSessionLost         = errors.New("tool server connection lost")
)

// SessionStartFailedError carries the handshake failure that prevented the
// session from becoming ready.
type SessionStartFailedError struct {
	Cause error
}

func (e *SessionStartFailedError) Error() string {
	return fmt.Sprintf("tool server failed to start: %v", e.Cause)
}

func (e *SessionStartFailedError) Unwrap() error {
	return e.Cause
}

// ErrorPayload renders msg as the {"error": msg} JSON object handed back to
// the model in place of a tool result.
func ErrorPayload(msg string) string {
	data, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return `{"error": "unknown error"}`
	}
	return string(data)
}

// ToolDescriptor is the immutable description of one remote tool.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Parameters returns the JSON schema for the tool's arguments, defaulting
// to an empty object schema.
func (t ToolDescriptor) Parameters() map[string]any {
	params := make(map[string]any, len(t.InputSchema)+2)
	for k, v := range t.InputSchema {
		params[k] = v
	}
	if _, ok := params["type"]; !ok {
		params["type"] = "object"
	}
	if props, ok := params["properties"]; !ok || props == nil {
		params["properties"] = map[string]any{}
	}
	return params
}

// Required lists the required argument names declared by the schema.
func (t ToolDescriptor) Required() []string {
	switch req := t.InputSchema["required"].(type) {
	case []string:
		return req
	case []any:
		names := make([]string, 0, len(req))
		for _, r := range req {
			if s, ok := r.(string); ok {
				names = append(names, s)
			}
		}
		return names
	}
	return nil
}

type PromptArgument struct {
	Name        string
	Description string
	Required    bool
}

// PromptDescriptor describes a server-side prompt template.
type PromptDescriptor struct {
	Name        string
	Description string
	Arguments   []PromptArgument
}

// MissingArguments returns the required arguments absent or blank in args.
func (p PromptDescriptor) MissingArguments(args map[string]string) []string {
	var missing []string
	for _, arg := range p.Arguments {
		if arg.Required && args[arg.Name] == "" {
			missing = append(missing, arg.Name)
		}
	}
	return missing
}

func descriptorFromTool(tool mcptypes.Tool) ToolDescriptor {
	var raw []byte
	var err error
	if len(tool.RawInputSchema) > 0 {
		raw = tool.RawInputSchema
	} else {
		raw, err = json.Marshal(tool.InputSchema)
	}

	schema := map[string]any{}
	if err == nil {
		if jsonErr := json.Unmarshal(raw, &schema); jsonErr != nil {
			schema = map[string]any{}
		}
	}

	return ToolDescriptor{
		Name:        tool.Name,
		Description: tool.Description,
		InputSchema: schema,
	}
}

func descriptorFromPrompt(prompt mcptypes.Prompt) PromptDescriptor {
	args := make([]PromptArgument, 0, len(prompt.Arguments))
	for _, a := range prompt.Arguments {
		args = append(args, PromptArgument{
			Name:        a.Name,
			Description: a.Description,
			Required:    a.Required,
		})
	}
	return PromptDescriptor{
		Name:        prompt.Name,
		Description: prompt.Description,
		Arguments:   args,
	}
}
