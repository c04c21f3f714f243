package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"pathways/config"
	"pathways/mcp"
	appmodel "pathways/model"
	"pathways/pathways"
	"pathways/provider"
	"pathways/storage"
	"pathways/telemetry"
	"pathways/ui"
)

const (
	Version = "v0.1.0"
	License = "Apache-2.0"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "mcp":
			os.Exit(runToolServer())
		case "version", "--version", "-v":
			fmt.Printf("pathways %s (%s)\n", Version, License)
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command %q\n\nUsage:\n  pathways        Start the chat\n  pathways mcp    Serve the Pathways tools over stdio\n", os.Args[1])
			os.Exit(2)
		}
	}
	os.Exit(runChat())
}

// runToolServer is the subprocess the chat host spawns. Stdout carries the
// protocol, so diagnostics only go to the debug log.
func runToolServer() int {
	dataDir := os.Getenv("PATHWAYS_DATA_DIR")
	if dataDir == "" {
		dataDir = config.ExpandPath(config.DefaultSettings().DataDirectory)
	}
	config.InitDebugLog(dataDir, "[server] ")

	ctx := context.Background()
	tel, err := telemetry.Init(ctx, "pathways-tools",
		os.Getenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"),
		os.Getenv("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize telemetry: %v\n", err)
		return 1
	}
	defer tel.Shutdown()

	if err := pathways.NewServer().ServeStdio(); err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Pathways] server stopped: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Tool server error: %v\n", err)
		return 1
	}
	return 0
}

func runChat() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return 1
	}

	config.InitDebugLog(cfg.DataDir(), "")

	ctx := context.Background()
	tel, err := telemetry.Init(ctx, "pathways", cfg.Telemetry.TracesEndpoint, cfg.Telemetry.MetricsEndpoint)
	if err != nil {
		fmt.Printf("Failed to initialize telemetry: %v\n", err)
		return 1
	}
	defer tel.Shutdown()

	profile, err := config.LoadProfile()
	if err != nil {
		fmt.Printf("Failed to load assistant profile: %v\n", err)
		return 1
	}

	// A missing key is reported in the chat instead of refusing to start
	llm, providerErr := provider.NewProvider(provider.ConfigFromSettings(cfg))
	if providerErr != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] unavailable: %v", providerErr)
	}

	store, err := storage.NewConversationStore(storage.MemoryDSN)
	if err != nil {
		fmt.Printf("Failed to open conversation store: %v\n", err)
		return 1
	}
	defer store.Close()

	keys, err := config.LoadKeybindings(cfg.DataDir())
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[UI] keybindings: %v, using defaults", err)
		}
		keys = config.DefaultKeybindings()
	}

	dataModel := appmodel.NewModel(cfg, profile, llm, providerErr, store, toolConnector(cfg), Version)

	p := tea.NewProgram(
		ui.NewAppView(dataModel, keys),
		tea.WithAltScreen(),
	)

	_, runErr := p.Run()

	// Normally already stopped by the quit flow
	if dataModel.Tools != nil {
		if err := dataModel.Tools.Shutdown(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("[MCP] shutdown: %v", err)
		}
	}

	if runErr != nil {
		fmt.Printf("Error running pathways: %v\n", runErr)
		return 1
	}
	return 0
}

// toolConnector spawns the tool server subprocess for each connection
// attempt.
func toolConnector(cfg *config.Config) appmodel.ToolConnector {
	return func(ctx context.Context) (appmodel.ToolHost, error) {
		command, args, err := cfg.ToolServerCommand()
		if err != nil {
			return nil, err
		}

		worker := mcp.NewSessionWorker(
			mcp.StdioDialer(command, args...),
			mcp.WithClientInfo("Pathways Assistant", Version),
		)
		if err := worker.Start(ctx, cfg.ToolServerEnv()); err != nil {
			// A timed-out worker may still come up; stop it either way
			_ = worker.Shutdown()
			return nil, err
		}
		return worker, nil
	}
}
