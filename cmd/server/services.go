package main

import (
	"context"
	"fmt"

	"codeberg.org/codeagent/server/internal/agent"
	"codeberg.org/codeagent/server/internal/config"
	"codeberg.org/codeagent/server/internal/llm"
	"codeberg.org/codeagent/server/internal/logger"
)

const agentName = "CodeAgent"

// reports whether the model endpoint answers
type Prober interface {
	TestConnection(ctx context.Context) bool
	Cleanup()
}

// creates and configures all service clients
func InitializeServices(cfg *config.Config) (*Services, error) {
	factory := newAgentFactory(cfg)

	probe, err := factory("startup-probe")
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM agent: %w", err)
	}

	return &Services{
		NewAgent: factory,
		Probe:    probe,
	}, nil
}

// builds one LLM-backed agent per session, each with its own transport
func newAgentFactory(cfg *config.Config) func(sessionID string) (*agent.Agent, error) {
	return func(sessionID string) (*agent.Agent, error) {
		log := logger.With("session_id", sessionID)

		client, err := llm.NewClient(cfg.LLMConfig(),
			llm.WithRetryPolicy(cfg.RetryPolicy()),
			llm.WithLogger(log.With("component", "llm")),
		)
		if err != nil {
			return nil, err
		}

		a := agent.NewLLMAgent(agentName, client, agent.AllCapabilities(),
			agent.WithAggregateMode(cfg.AggregateMode()),
			agent.WithLogger(log),
		)

		if err := agent.RegisterCompletion(a, agent.TemplateCompleter{}); err != nil {
			return nil, fmt.Errorf("failed to register completion handler: %w", err)
		}

		return a, nil
	}
}
