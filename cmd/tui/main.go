package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/term"

	"codeberg.org/codeagent/server/internal/agent"
	"codeberg.org/codeagent/server/internal/config"
	"codeberg.org/codeagent/server/internal/llm"
	"codeberg.org/codeagent/server/internal/logger"
	"codeberg.org/codeagent/server/internal/tui"
)

func main() {
	flags := config.ParseTUIFlags()

	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		fmt.Printf("error loading config: %v\n", err)
		os.Exit(1)
	}

	// log lines would tear the alt screen
	logger.SetDefault(logger.Discard())

	backend, err := newBackend(cfg, flags)
	if err != nil {
		fmt.Printf("error starting code agent: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	// chat works before any file is loaded
	backend.SetContext(agent.EditingContext{Language: "text", CursorPosition: &agent.Cursor{}})

	var opts []tui.Option
	if w, h, err := term.GetSize(os.Stdout.Fd()); err == nil {
		opts = append(opts, tui.WithSize(w, h))
	}

	app := tui.NewApp(backend, flags.SessionID, opts...)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		fmt.Printf("error running code agent: %v\n", err)
		os.Exit(1)
	}
}

// connects to a running server when -server is set, otherwise runs the agent in-process
func newBackend(cfg *config.Config, flags config.Flags) (tui.Backend, error) {
	if flags.ServerURL != "" {
		client := tui.NewWSClient(flags.ServerURL, flags.SessionID)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := client.Connect(ctx); err != nil {
			return nil, err
		}

		return client, nil
	}

	client, err := llm.NewClient(cfg.LLMConfig(), llm.WithRetryPolicy(cfg.RetryPolicy()))
	if err != nil {
		return nil, err
	}

	a := agent.NewLLMAgent("CodeAgent", client, agent.AllCapabilities(),
		agent.WithAggregateMode(cfg.AggregateMode()),
	)

	return tui.NewLocalBackend(a), nil
}
