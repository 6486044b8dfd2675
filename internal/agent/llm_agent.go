package agent

import (
	"context"
	"iter"
	"unicode/utf8"

	"codeberg.org/codeagent/server/internal/llm"
)

// creates an agent backed by client with the generate, analyze and
// stream_generate handlers registered
func NewLLMAgent(name string, client llm.Completer, capabilities []Capability, opts ...Option) *Agent {
	a := New(name, capabilities, opts...)
	a.transport = client

	a.handlers[ActionGenerate] = HandlerFunc(a.generate)
	a.handlers[ActionAnalyze] = HandlerFunc(a.analyze)
	a.handlers[ActionStreamGenerate] = StreamHandlerFunc(a.streamGenerate)

	return a
}

// aggregate completion in the agent's configured mode
func (a *Agent) complete(ctx context.Context, messages []llm.Message) (llm.Fragment, error) {
	if a.aggregate == llm.AggregateFull {
		return a.transport.CompleteFull(ctx, messages)
	}

	return a.transport.Complete(ctx, messages)
}

// one insertion at the cursor holding the completion
func (a *Agent) generate(ctx context.Context, params Params) (*Result, error) {
	ec, err := a.requireContext()
	if err != nil {
		return nil, err
	}

	fragment, err := a.complete(ctx, buildGenerateMessages(params))
	if err != nil {
		return nil, err
	}

	return &Result{
		Changes: []Edit{Insertion(AtCursor(ec.CursorPosition), fragment.Text)},
	}, nil
}

// the completion as a single suggestion, no edits
func (a *Agent) analyze(ctx context.Context, _ Params) (*Result, error) {
	ec, err := a.requireContext()
	if err != nil {
		return nil, err
	}

	fragment, err := a.complete(ctx, buildAnalyzeMessages(ec))
	if err != nil {
		return nil, err
	}

	return &Result{Suggestions: []string{fragment.Text}}, nil
}

// one insertion per fragment; each offset is the rune count of everything before it
func (a *Agent) streamGenerate(ctx context.Context, params Params) iter.Seq2[Edit, error] {
	return func(yield func(Edit, error) bool) {
		if _, err := a.requireContext(); err != nil {
			yield(Edit{}, err)
			return
		}

		offset := 0

		for fragment, err := range a.transport.StreamComplete(ctx, buildGenerateMessages(params)) {
			if err != nil {
				yield(Edit{}, err)
				return
			}

			if fragment.Text == "" {
				continue
			}

			if !yield(Insertion(AtOffset(offset), fragment.Text), nil) {
				return
			}

			offset += utf8.RuneCountInString(fragment.Text)
		}
	}
}
