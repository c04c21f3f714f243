package mcp

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	globalconfig "pathways/config"
)

const (
	DefaultStartTimeout    = 60 * time.Second
	DefaultCallTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 5 * time.Second

	protocolVersion = "2025-06-18"
)

type readiness int32

const (
	statePending readiness = iota
	stateReady
	stateFailed
)

func (r readiness) String() string {
	switch r {
	case stateReady:
		return "ready"
	case stateFailed:
		return "failed"
	default:
		return "pending"
	}
}

type Option func(*SessionWorker)

func WithStartTimeout(d time.Duration) Option {
	return func(w *SessionWorker) { w.startTimeout = d }
}

func WithCallTimeout(d time.Duration) Option {
	return func(w *SessionWorker) { w.callTimeout = d }
}

func WithShutdownTimeout(d time.Duration) Option {
	return func(w *SessionWorker) { w.shutdownTimeout = d }
}

func WithClientInfo(name, version string) Option {
	return func(w *SessionWorker) {
		w.clientName = name
		w.clientVersion = version
	}
}

// SessionWorker owns one long-lived MCP session on a dedicated goroutine.
// All session I/O happens on that goroutine or on call goroutines it
// spawns; callers interact through Start, CallTool, GetPrompt and Shutdown.
type SessionWorker struct {
	dial            Dialer
	startTimeout    time.Duration
	callTimeout     time.Duration
	shutdownTimeout time.Duration
	clientName      string
	clientVersion   string

	started   atomic.Bool
	state     atomic.Int32
	degraded  atomic.Bool
	readyOnce sync.Once
	readyCh   chan struct{}
	initErr   error

	// Written once by the worker goroutine before readiness is signaled,
	// read-only afterwards.
	conn    Transport
	tools   []ToolDescriptor
	prompts []PromptDescriptor

	requests chan *callRequest
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewSessionWorker(dial Dialer, opts ...Option) *SessionWorker {
	w := &SessionWorker{
		dial:            dial,
		startTimeout:    DefaultStartTimeout,
		callTimeout:     DefaultCallTimeout,
		shutdownTimeout: DefaultShutdownTimeout,
		clientName:      "Pathways Assistant",
		clientVersion:   "1.0.0",
		readyCh:         make(chan struct{}),
		requests:        make(chan *callRequest),
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start launches the worker goroutine and blocks until the session is
// ready, the handshake fails, or the start timeout elapses. The worker
// keeps running after a timeout and may still become ready later.
func (w *SessionWorker) Start(ctx context.Context, overrides map[string]string) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	env := mergeEnv(os.Environ(), overrides)
	go w.run(env)

	timer := time.NewTimer(w.startTimeout)
	defer timer.Stop()

	select {
	case <-w.readyCh:
		if w.initErr != nil {
			return &SessionStartFailedError{Cause: w.initErr}
		}
		switch {
		case globalconfig.DebugLog != nil:
			globalconfig.DebugLog.Printf("[MCP] session ready with %d tools and %d prompts", len(w.tools), len(w.prompts))
		}
		return nil
	case <-timer.C:
		switch {
		case globalconfig.DebugLog != nil:
			globalconfig.DebugLog.Printf("[MCP] session not ready after %v", w.startTimeout)
		}
		return ErrSessionStartTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether the handshake completed successfully.
func (w *SessionWorker) Ready() bool {
	return readiness(w.state.Load()) == stateReady
}

// Status returns "pending", "ready" or "failed", or "degraded" once a ready
// session has lost its connection.
func (w *SessionWorker) Status() string {
	state := readiness(w.state.Load())
	if state == stateReady && w.degraded.Load() {
		return "degraded"
	}
	return state.String()
}

// Degraded reports whether the session failed after becoming ready.
func (w *SessionWorker) Degraded() bool {
	return w.degraded.Load()
}

// Tools returns the advertised tools, or nil before the session is ready.
func (w *SessionWorker) Tools() []ToolDescriptor {
	if !w.Ready() {
		return nil
	}
	return append([]ToolDescriptor(nil), w.tools...)
}

// Prompts returns the advertised prompts, or nil before the session is ready.
func (w *SessionWorker) Prompts() []PromptDescriptor {
	if !w.Ready() {
		return nil
	}
	return append([]PromptDescriptor(nil), w.prompts...)
}

// Shutdown asks the worker to stop and waits up to the shutdown timeout for
// it to exit. It does not guarantee the subprocess has exited.
func (w *SessionWorker) Shutdown() error {
	if !w.started.Load() {
		return nil
	}

	w.stopOnce.Do(func() { close(w.stop) })

	select {
	case <-w.done:
		return nil
	case <-time.After(w.shutdownTimeout):
		return fmt.Errorf("tool session did not stop within %v", w.shutdownTimeout)
	}
}

// signal records the outcome of the handshake exactly once. A failure
// reported after readiness was already signaled only marks the session
// degraded.
func (w *SessionWorker) signal(err error) {
	signaled := false
	w.readyOnce.Do(func() {
		signaled = true
		if err != nil {
			w.initErr = err
			w.state.Store(int32(stateFailed))
		} else {
			w.state.Store(int32(stateReady))
		}
		close(w.readyCh)
	})

	if !signaled && err != nil {
		w.degraded.Store(true)
		switch {
		case globalconfig.DebugLog != nil:
			globalconfig.DebugLog.Printf("[MCP] session error after start: %v", err)
		}
	}
}

func (w *SessionWorker) run(env []string) {
	defer close(w.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-w.stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			w.signal(fmt.Errorf("tool session panicked: %v", r))
		}
	}()

	conn, err := w.dial(ctx, env)
	if err != nil {
		w.signal(fmt.Errorf("failed to launch tool server: %w", err))
		return
	}
	defer w.closeConn(conn)

	if err := w.handshake(ctx, conn); err != nil {
		w.signal(err)
		return
	}
	w.signal(nil)

	w.serve(ctx, conn)
}

func (w *SessionWorker) handshake(ctx context.Context, conn Transport) error {
	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: protocolVersion,
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    w.clientName,
				Version: w.clientVersion,
			},
		},
	}

	if _, err := conn.Initialize(ctx, initReq); err != nil {
		return fmt.Errorf("failed to initialize tool server: %w", err)
	}

	toolsResult, err := conn.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list tools: %w", err)
	}

	tools := make([]ToolDescriptor, 0, len(toolsResult.Tools))
	for _, t := range toolsResult.Tools {
		tools = append(tools, descriptorFromTool(t))
	}

	var prompts []PromptDescriptor
	promptsResult, err := conn.ListPrompts(ctx, mcptypes.ListPromptsRequest{})
	switch {
	case err != nil:
		// Servers without the prompts capability reject the request.
		if globalconfig.DebugLog != nil {
			globalconfig.DebugLog.Printf("[MCP] prompts unavailable: %v", err)
		}
	default:
		for _, p := range promptsResult.Prompts {
			prompts = append(prompts, descriptorFromPrompt(p))
		}
	}

	w.conn = conn
	w.tools = tools
	w.prompts = prompts
	return nil
}

// serve hands each request to its own goroutine so several calls can be in
// flight at once. It returns when Shutdown is called.
func (w *SessionWorker) serve(ctx context.Context, conn Transport) {
	for {
		select {
		case req := <-w.requests:
			go func() {
				req.result <- w.execute(ctx, conn, req)
			}()
		case <-w.stop:
			switch {
			case globalconfig.DebugLog != nil:
				globalconfig.DebugLog.Printf("[MCP] session worker stopping")
			}
			return
		}
	}
}

func (w *SessionWorker) execute(ctx context.Context, conn Transport, req *callRequest) (res callResult) {
	defer func() {
		if r := recover(); r != nil {
			res = callResult{err: &remoteError{cause: fmt.Errorf("%s panicked: %v", req.name, r)}}
		}
	}()

	text, err := req.fn(ctx, conn)
	return callResult{text: text, err: err}
}

func (w *SessionWorker) closeConn(conn Transport) {
	if err := conn.Close(); err != nil {
		switch {
		case globalconfig.DebugLog != nil:
			globalconfig.DebugLog.Printf("[MCP] close session: %v", err)
		}
	}
}
