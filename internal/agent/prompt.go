package agent

import (
	"strings"

	"codeberg.org/codeagent/server/internal/llm"
)

const (
	DefaultSystemPrompt = "You are a helpful coding assistant."

	analysisSystemPrompt = "You are a code analysis expert."
	analysisPromptPrefix = "Analyze this code and provide suggestions:\n\n"

	// earlier turns forwarded with a prompt
	maxHistoryMessages = 4
)

// system prompt, optional history, then the user prompt
func buildGenerateMessages(params Params) []llm.Message {
	history := historyParam(params)

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.SystemMessage(params.String("system_prompt", DefaultSystemPrompt)))
	messages = append(messages, history...)
	messages = append(messages, llm.UserMessage(params.String("prompt", "")))

	return messages
}

func buildAnalyzeMessages(ec EditingContext) []llm.Message {
	var builder strings.Builder

	builder.WriteString(analysisPromptPrefix)
	builder.WriteString(ec.Content)

	return []llm.Message{
		llm.SystemMessage(analysisSystemPrompt),
		llm.UserMessage(builder.String()),
	}
}

// reads params.history as either []llm.Message or decoded JSON objects.
// System turns and unknown roles are dropped; only the most recent turns are kept.
func historyParam(params Params) []llm.Message {
	var history []llm.Message

	switch v := params["history"].(type) {
	case []llm.Message:
		history = v

	case []any:
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}

			role, _ := m["role"].(string)
			content, _ := m["content"].(string)
			history = append(history, llm.Message{Role: llm.Role(role), Content: content})
		}
	}

	kept := make([]llm.Message, 0, len(history))
	for _, m := range history {
		if m.Role == llm.RoleUser || m.Role == llm.RoleAssistant {
			kept = append(kept, m)
		}
	}

	if len(kept) > maxHistoryMessages {
		kept = kept[len(kept)-maxHistoryMessages:]
	}

	return kept
}
