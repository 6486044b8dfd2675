package tui

import (
	"context"
	"iter"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"codeberg.org/codeagent/server/internal/agent"
	"codeberg.org/codeagent/server/internal/llm"
)

// the agent the console talks to, in-process or over a websocket
type Backend interface {
	// streams the reply to prompt as text fragments
	Stream(ctx context.Context, prompt string, history []llm.Message) iter.Seq2[string, error]
	SetContext(ec agent.EditingContext)
	Name() string
	Close()
}

// who wrote a transcript entry
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleInfo      Role = "info"
	RoleError     Role = "error"
)

// one entry of the transcript
type ChatMessage struct {
	Role    Role
	Content string
}

// main TUI application model
type Model struct {
	backend   Backend
	sessionID string

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	width  int
	height int
	ready  bool

	messages   []ChatMessage
	streaming  bool
	stream     <-chan streamEvent
	cancel     context.CancelFunc
	contextTag string
	tokens     int
}

// configures a Model
type Option func(*Model)

// one item pulled from a running stream
type streamEvent struct {
	text string
	err  error
}

// sent when a stream has started
type streamStartedMsg struct {
	events <-chan streamEvent
}

// sent for every fragment of the reply
type streamChunkMsg struct {
	text string
}

// sent when the reply is complete
type streamDoneMsg struct{}

// sent when the reply failed
type streamErrorMsg struct {
	err error
}

// sent when a context file was loaded
type contextLoadedMsg struct {
	context agent.EditingContext
}

// sent when a context file could not be loaded
type contextErrorMsg struct {
	err error
}
