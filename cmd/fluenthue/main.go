package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/angristan/fluenthue/internal/api"
	"github.com/angristan/fluenthue/internal/config"
	"github.com/angristan/fluenthue/internal/demo"
	"github.com/angristan/fluenthue/internal/tui"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run starts the program and returns the exit code; deferred cleanup runs
// before main exits
func run(args []string, programOpts ...tea.ProgramOption) int {
	// Check for demo and debug mode
	demoMode, debug := false, false
	for _, arg := range args {
		switch arg {
		case "--demo", "-demo":
			demoMode = true
		case "--debug", "-debug":
			debug = true
		}
	}

	// A missing .env file is fine
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if debug || cfg.Debug {
		f, err := tea.LogToFile("fluenthue-debug.log", "")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening debug log: %v\n", err)
			return 1
		}
		defer f.Close()
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	if demoMode {
		fmt.Fprintln(os.Stderr, "[fluenthue] Demo mode enabled")

		server := demo.NewServer()
		addr, err := server.Start()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error starting demo bridge: %v\n", err)
			return 1
		}
		defer server.Close()

		cfg = &config.Config{
			Bridges: []config.BridgeConfig{{
				Host:     addr,
				Username: demo.User,
				BridgeID: demo.BridgeID,
			}},
			Settings: config.Settings{DiscoveryURL: server.DiscoveryURL()},
		}
	}

	opts := []api.Option{
		api.WithTimeout(cfg.Settings.RequestTimeout()),
		api.WithLogger(logger),
	}
	if cfg.Settings.DiscoveryURL != "" {
		opts = append(opts, api.WithDiscoveryURL(cfg.Settings.DiscoveryURL))
	}
	locator := api.NewLocator(
		api.NewTransportFactory(opts...),
		api.WithDiscoveryCache(cfg.Settings.DiscoveryCacheTTL()),
	)

	// Create and run the application
	model := tui.NewModel(cfg, locator, demoMode)
	p := tea.NewProgram(model, append([]tea.ProgramOption{tea.WithAltScreen()}, programOpts...)...)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		return 1
	}

	return 0
}
