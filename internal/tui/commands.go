package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/codeagent/server/internal/agent"
)

// what a line typed into the console asks for
type commandKind int

const (
	commandChat commandKind = iota
	commandQuit
	commandClear
	commandContext
	commandEmpty
)

type command struct {
	kind commandKind
	arg  string
}

// classifies a line of input; anything that is not a command is a chat message
func parseCommand(line string) command {
	line = strings.TrimSpace(line)

	switch {
	case line == "":
		return command{kind: commandEmpty}

	case strings.EqualFold(line, "quit"), strings.EqualFold(line, "exit"):
		return command{kind: commandQuit}

	case strings.EqualFold(line, "clear"):
		return command{kind: commandClear}
	}

	if rest, ok := strings.CutPrefix(line, "context "); ok {
		if path := strings.TrimSpace(rest); path != "" {
			return command{kind: commandContext, arg: path}
		}
	}

	return command{kind: commandChat, arg: line}
}

var extensionLanguages = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".rs":   "rust",
	".java": "java",
	".c":    "c",
	".h":    "c",
	".cpp":  "cpp",
	".cc":   "cpp",
	".hpp":  "cpp",
	".rb":   "ruby",
	".sh":   "shell",
	".md":   "markdown",
	".json": "json",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".html": "html",
	".css":  "css",
	".sql":  "sql",
}

// guesses the language of path from its extension
func languageFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "text"
	}

	if lang, ok := extensionLanguages[ext]; ok {
		return lang
	}

	return strings.TrimPrefix(ext, ".")
}

// reads path into an editing context with the cursor at the start
func loadContext(path string) tea.Cmd {
	return func() tea.Msg {
		content, err := os.ReadFile(path) //nolint:gosec // G304: path typed by the local user
		if err != nil {
			return contextErrorMsg{err: fmt.Errorf("failed to load context: %w", err)}
		}

		return contextLoadedMsg{context: agent.EditingContext{
			FilePath:       path,
			Content:        string(content),
			Language:       languageFor(path),
			CursorPosition: &agent.Cursor{},
		}}
	}
}
