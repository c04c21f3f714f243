package pathways

import (
	"context"
	"pathways/config"
	"pathways/telemetry"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	ServerName    = "pathways"
	ServerVersion = "0.1.0"
)

const instructions = "Pathways is a health segmentation platform providing woman-centered data " +
	"and insights for global health. Use these tools to explore country-level " +
	"segmentations, understand population segments and their vulnerability profiles, " +
	"query health outcome metrics (linked to Themes), and vulnerability factor metrics " +
	"(linked to Domains). Start with list_segmentations to discover available countries, " +
	"then drill into segments and metrics."

// Server is the Pathways MCP server.
type Server struct {
	mcp *server.MCPServer

	clientOnce sync.Once
	client     *Client
	clientErr  error
}

type Option func(*Server)

// WithClient injects the API client instead of building one from the
// environment on first use.
func WithClient(c *Client) Option {
	return func(s *Server) {
		s.client = c
		s.clientOnce.Do(func() {})
	}
}

// NewServer builds the MCP server with every tool and prompt registered.
func NewServer(opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(ServerName, ServerVersion,
		server.WithToolCapabilities(false),
		server.WithPromptCapabilities(false),
		server.WithInstructions(instructions),
	)

	for _, def := range tools() {
		s.mcp.AddTool(def.tool, s.wrap(def.tool.Name, def.handler))
	}
	s.mcp.AddPrompt(deepDivePrompt, handleDeepDive)

	return s
}

// MCPServer exposes the underlying server, e.g. for an in-process client.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves MCP over stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	if config.DebugLog != nil {
		config.DebugLog.Printf("[Pathways] serving %d tools over stdio", len(tools()))
	}
	return server.ServeStdio(s.mcp)
}

// apiClient returns the shared client, creating it from the environment
// on first use. A configuration error is reported on every call.
func (s *Server) apiClient() (*Client, error) {
	s.clientOnce.Do(func() {
		s.client, s.clientErr = NewClientFromEnv()
	})
	return s.client, s.clientErr
}

func (s *Server) wrap(name string, h toolHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := telemetry.Start(ctx, trace.WithAttributes(attribute.String("tool.name", name)))
		defer span.End()

		text, err := s.run(ctx, h, Args(req.GetArguments()))
		if telemetry.RecordErrorAndStatus(span, err) {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Pathways] tool %s failed: %v", name, err)
			}
			return mcp.NewToolResultError(err.Error()), nil
		}

		if config.DebugLog != nil {
			config.DebugLog.Printf("[Pathways] tool %s returned %d bytes", name, len(text))
		}
		return mcp.NewToolResultText(text), nil
	}
}

func (s *Server) run(ctx context.Context, h toolHandler, args Args) (string, error) {
	c, err := s.apiClient()
	if err != nil {
		return "", err
	}
	return h(ctx, c, args)
}
