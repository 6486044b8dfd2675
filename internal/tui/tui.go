package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"codeberg.org/codeagent/server/internal/llm"
)

// lines used by everything but the transcript
const chromeHeight = 7

// sets the initial terminal size, before the first WindowSizeMsg arrives
func WithSize(width, height int) Option {
	return func(m *Model) {
		m.resize(width, height)
	}
}

// returns a new chat console talking to backend
func NewApp(backend Backend, sessionID string, opts ...Option) *Model {
	ti := textinput.New()
	ti.Placeholder = "ask about your code..."
	ti.Focus()
	ti.CharLimit = 0
	ti.Width = 80
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(colorLightGray)
	ti.TextStyle = lipgloss.NewStyle().Foreground(colorWhite)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		backend:   backend,
		sessionID: sessionID,
		input:     ti,
		spinner:   sp,
		messages: []ChatMessage{{
			Role:    RoleInfo,
			Content: fmt.Sprintf("connected to %s. type a question and press enter.", backend.Name()),
		}},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			// first ctrl+c stops a running reply, the next one quits
			if m.streaming {
				m.stopStream()
				return m, nil
			}

			return m, m.quit()

		case "enter":
			if m.streaming {
				return m, nil
			}

			return m, m.submit(m.input.Value())

		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)

			return m, cmd
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)

		return m, cmd

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd

	case streamStartedMsg:
		if !m.streaming {
			return m, nil
		}

		m.stream = msg.events
		return m, waitForEvent(msg.events)

	case streamChunkMsg:
		if !m.streaming {
			return m, nil
		}

		if n := len(m.messages); n > 0 && m.messages[n-1].Role == RoleAssistant {
			m.messages[n-1].Content += msg.text
		}

		m.refresh()

		return m, waitForEvent(m.stream)

	case streamDoneMsg:
		if !m.streaming {
			return m, nil
		}

		if n := len(m.messages); n > 0 && m.messages[n-1].Role == RoleAssistant {
			m.tokens += llm.EstimateTokens(m.messages[n-1].Content)
		}

		m.finishStream()

		return m, nil

	case streamErrorMsg:
		if !m.streaming {
			return m, nil
		}

		m.dropEmptyReply()
		m.finishStream()
		m.appendMessage(RoleError, fmt.Sprintf("error: %v", msg.err))

		return m, nil

	case contextLoadedMsg:
		m.backend.SetContext(msg.context)
		m.contextTag = msg.context.FilePath
		m.appendMessage(RoleInfo, fmt.Sprintf("loaded context from %s (%s)", msg.context.FilePath, msg.context.Language))

		return m, nil

	case contextErrorMsg:
		m.appendMessage(RoleError, msg.err.Error())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

// handles a line of input
func (m *Model) submit(line string) tea.Cmd {
	m.input.SetValue("")

	cmd := parseCommand(line)

	switch cmd.kind {
	case commandEmpty:
		return nil

	case commandQuit:
		return m.quit()

	case commandClear:
		m.messages = nil
		m.tokens = 0
		m.refresh()

		return nil

	case commandContext:
		return loadContext(cmd.arg)

	default:
		history := m.history()

		m.appendMessage(RoleUser, cmd.arg)
		m.messages = append(m.messages, ChatMessage{Role: RoleAssistant})
		m.tokens += llm.EstimateTokens(cmd.arg)

		ctx, cancel := context.WithCancel(context.Background())
		m.cancel = cancel
		m.streaming = true

		return startStream(ctx, m.backend, cmd.arg, history)
	}
}

// prior user and assistant turns, oldest first
func (m *Model) history() []llm.Message {
	var history []llm.Message

	for _, msg := range m.messages {
		if msg.Content == "" {
			continue
		}

		switch msg.Role {
		case RoleUser:
			history = append(history, llm.UserMessage(msg.Content))
		case RoleAssistant:
			history = append(history, llm.Message{Role: llm.RoleAssistant, Content: msg.Content})
		}
	}

	return history
}

func (m *Model) stopStream() {
	if m.cancel != nil {
		m.cancel()
	}

	m.dropEmptyReply()
	m.finishStream()
	m.appendMessage(RoleInfo, "stopped")
}

func (m *Model) finishStream() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}

	m.streaming = false
	m.stream = nil
	m.refresh()
}

// removes a trailing assistant entry that never got any text
func (m *Model) dropEmptyReply() {
	if n := len(m.messages); n > 0 && m.messages[n-1].Role == RoleAssistant && m.messages[n-1].Content == "" {
		m.messages = m.messages[:n-1]
	}
}

func (m *Model) appendMessage(role Role, content string) {
	m.messages = append(m.messages, ChatMessage{Role: role, Content: content})
	m.refresh()
}

func (m *Model) quit() tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}

	return tea.Quit
}

func (m *Model) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}

	m.width = width
	m.height = height
	m.input.Width = max(10, width-8)

	vpHeight := max(3, height-chromeHeight)

	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(20, width-4)),
	)
	if err == nil {
		m.renderer = renderer
	}

	m.refresh()
}

// re-renders the transcript and keeps the newest line in view
func (m *Model) refresh() {
	if !m.ready {
		return
	}

	m.viewport.SetContent(m.transcript())
	m.viewport.GotoBottom()
}
