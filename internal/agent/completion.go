package agent

import (
	"context"
	"fmt"
	"strings"
)

const (
	defaultCompletionAgentName = "CompletionAgent"
	defaultCompletionMaxTokens = 50
	defaultCompletionTemp      = 0.7
)

// input for a code-intelligence backend
type CompletionRequest struct {
	Context     EditingContext
	Prefix      string
	MaxTokens   int
	Temperature float64
}

// a completion plus optional review hints
type Completion struct {
	Text        string
	Suggestions []string
}

// plug-in point for real code intelligence
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// placeholder completer that returns a stub function for the context language
type TemplateCompleter struct{}

func (TemplateCompleter) Complete(_ context.Context, req CompletionRequest) (*Completion, error) {
	comment, stub := languageTemplate(req.Context.Language)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s Generated completion for %s\n", comment, req.Prefix))
	builder.WriteString(stub)

	return &Completion{
		Text: builder.String(),
		Suggestions: []string{
			"Consider adding docstring",
			"Add type hints for better code clarity",
		},
	}, nil
}

func languageTemplate(language string) (comment, stub string) {
	switch strings.ToLower(language) {
	case "go":
		return "//", "func exampleFunction() {\n}"
	case "javascript", "js", "typescript", "ts":
		return "//", "function exampleFunction() {\n}"
	case "rust", "rs":
		return "//", "fn example_function() {\n}"
	default:
		return "#", "def example_function():\n    pass"
	}
}

// creates an agent with only the generate_completion handler.
// A nil completer falls back to TemplateCompleter.
func NewCompletionAgent(name string, completer Completer, opts ...Option) *Agent {
	if name == "" {
		name = defaultCompletionAgentName
	}

	a := New(name, []Capability{CapabilityCompletion}, opts...)
	a.handlers[ActionGenerateCompletion] = completionHandler(a, completer)

	return a
}

// adds the generate_completion handler to an existing agent
func RegisterCompletion(a *Agent, completer Completer) error {
	return a.RegisterHandler(ActionGenerateCompletion, completionHandler(a, completer))
}

// one insertion at the cursor holding the completer's text
func completionHandler(a *Agent, completer Completer) Handler {
	if completer == nil {
		completer = TemplateCompleter{}
	}

	return HandlerFunc(func(ctx context.Context, params Params) (*Result, error) {
		ec, err := a.requireContext()
		if err != nil {
			return nil, err
		}

		completion, err := completer.Complete(ctx, CompletionRequest{
			Context:     ec,
			Prefix:      params.String("prefix", ""),
			MaxTokens:   params.Int("max_tokens", defaultCompletionMaxTokens),
			Temperature: params.Float("temperature", defaultCompletionTemp),
		})
		if err != nil {
			return nil, fmt.Errorf("completion failed: %w", err)
		}

		return &Result{
			Changes:     []Edit{Insertion(AtCursor(ec.CursorPosition), completion.Text)},
			Suggestions: completion.Suggestions,
		}, nil
	})
}
