package mcp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	globalconfig "pathways/config"
)

// Transport is the slice of an MCP client session the worker drives.
// *client.Client satisfies it.
type Transport interface {
	Initialize(ctx context.Context, request mcptypes.InitializeRequest) (*mcptypes.InitializeResult, error)
	ListTools(ctx context.Context, request mcptypes.ListToolsRequest) (*mcptypes.ListToolsResult, error)
	ListPrompts(ctx context.Context, request mcptypes.ListPromptsRequest) (*mcptypes.ListPromptsResult, error)
	GetPrompt(ctx context.Context, request mcptypes.GetPromptRequest) (*mcptypes.GetPromptResult, error)
	CallTool(ctx context.Context, request mcptypes.CallToolRequest) (*mcptypes.CallToolResult, error)
	Close() error
}

// Dialer opens a transport. env is the complete, already merged process
// environment for the tool server.
type Dialer func(ctx context.Context, env []string) (Transport, error)

// StdioDialer launches command as a subprocess speaking MCP over stdio.
func StdioDialer(command string, args ...string) Dialer {
	return func(ctx context.Context, env []string) (Transport, error) {
		var capturedCmd *exec.Cmd

		cmdFunc := func(ctx context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
			cmd := exec.CommandContext(ctx, command, args...)
			cmd.Env = env
			capturedCmd = cmd
			return cmd, nil
		}

		switch {
		case globalconfig.DebugLog != nil:
			globalconfig.DebugLog.Printf("[MCP] launching tool server: %s %s", command, strings.Join(args, " "))
		}

		mcpClient, err := client.NewStdioMCPClientWithOptions(
			command,
			env,
			args,
			transport.WithCommandFunc(cmdFunc),
		)
		if err != nil {
			return nil, err
		}

		switch {
		case capturedCmd != nil && capturedCmd.Process != nil && globalconfig.DebugLog != nil:
			globalconfig.DebugLog.Printf("[MCP] tool server started with PID %d", capturedCmd.Process.Pid)
		}

		if stderr, ok := client.GetStderr(mcpClient); ok {
			go drainStderr(stderr)
		}

		return &stdioTransport{Client: mcpClient, cmd: capturedCmd}, nil
	}
}

// InProcessDialer serves srv inside this process, without a subprocess.
func InProcessDialer(srv *server.MCPServer) Dialer {
	return func(ctx context.Context, env []string) (Transport, error) {
		mcpClient, err := client.NewInProcessClient(srv)
		if err != nil {
			return nil, fmt.Errorf("failed to create in-process client: %w", err)
		}
		if err := mcpClient.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start in-process client: %w", err)
		}
		return mcpClient, nil
	}
}

type stdioTransport struct {
	*client.Client
	cmd *exec.Cmd
}

// Close closes the client with a 1s bound, then kills the subprocess.
func (s *stdioTransport) Close() error {
	closeDone := make(chan error, 1)
	go func() {
		closeDone <- s.Client.Close()
	}()

	var closeErr error
	select {
	case closeErr = <-closeDone:
	case <-time.After(1 * time.Second):
		closeErr = fmt.Errorf("timed out closing tool server client")
	}

	if s.cmd != nil && s.cmd.Process != nil {
		if err := s.cmd.Process.Kill(); err != nil {
			switch {
			case globalconfig.DebugLog != nil:
				globalconfig.DebugLog.Printf("[MCP] kill PID %d: %v", s.cmd.Process.Pid, err)
			}
		}
	}

	return closeErr
}

// drainStderr keeps the subprocess from blocking on a full stderr pipe.
func drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if globalconfig.DebugLog != nil {
			globalconfig.DebugLog.Printf("[MCP] tool server stderr: %s", scanner.Text())
		}
	}
}

// mergeEnv overlays overrides on base ("KEY=value" entries). Keys present in
// overrides replace the base entry; the result is deterministic.
func mergeEnv(base []string, overrides map[string]string) []string {
	env := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, overridden := overrides[key]; overridden {
			continue
		}
		env = append(env, kv)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, fmt.Sprintf("%s=%s", k, overrides[k]))
	}
	return env
}
