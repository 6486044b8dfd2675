package tui

import (
	"context"
	"iter"

	"codeberg.org/codeagent/server/internal/agent"
	"codeberg.org/codeagent/server/internal/llm"
)

const consoleSystemPrompt = "You are a helpful coding assistant. " +
	"If code context is provided, refer to it in your responses. " +
	"Be concise but informative."

// runs the agent in the console process
type LocalBackend struct {
	agent *agent.Agent
}

func NewLocalBackend(a *agent.Agent) *LocalBackend {
	return &LocalBackend{agent: a}
}

func (b *LocalBackend) Stream(ctx context.Context, prompt string, history []llm.Message) iter.Seq2[string, error] {
	action := agent.NewAction(agent.ActionStreamGenerate, agent.Params{
		"system_prompt": consoleSystemPrompt,
		"prompt":        prompt,
		"history":       history,
	})

	return func(yield func(string, error) bool) {
		for edit, err := range b.agent.Stream(ctx, action) {
			if !yield(edit.Content, err) || err != nil {
				return
			}
		}
	}
}

func (b *LocalBackend) SetContext(ec agent.EditingContext) {
	b.agent.UpdateContext(ec)
}

func (b *LocalBackend) Name() string {
	return b.agent.Name()
}

func (b *LocalBackend) Close() {
	b.agent.Cleanup()
}
