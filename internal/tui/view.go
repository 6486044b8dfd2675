package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const helpText = "Type 'quit' to exit, 'clear' to clear chat, 'context <path>' to set code context"

func (m *Model) View() string {
	if !m.ready {
		return "\n  initializing..."
	}

	header := titleStyle.Render("CODE AGENT") + "  " + infoStyle.Render(m.backend.Name())

	input := inputBoxStyle.
		Width(max(10, m.width-2)).
		Render(m.input.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		m.viewport.View(),
		input,
		m.statusLine(),
		helpStyle.Render(helpText),
	)
}

func (m *Model) statusLine() string {
	parts := make([]string, 0, 4)

	if m.streaming {
		parts = append(parts, m.spinner.View()+" thinking...")
	}

	if m.sessionID != "" {
		parts = append(parts, "session: "+m.sessionID)
	}

	if m.contextTag != "" {
		parts = append(parts, "context: "+m.contextTag)
	}

	parts = append(parts, fmt.Sprintf("~%d tokens", m.tokens))

	return statusStyle.Render(strings.Join(parts, "  •  "))
}

// renders every message of the conversation
func (m *Model) transcript() string {
	var b strings.Builder

	if len(m.messages) == 0 {
		b.WriteString(infoStyle.Render(strings.Trim(logo, "\n")))
		b.WriteString("\n")
	}

	for _, msg := range m.messages {
		switch msg.Role {
		case RoleUser:
			b.WriteString(userStyle.Render("you: " + msg.Content))
			b.WriteString("\n")

		case RoleAssistant:
			b.WriteString(assistantLabelStyle.Render("agent:"))
			b.WriteString("\n")
			b.WriteString(m.renderMarkdown(msg.Content))
			b.WriteString("\n")

		case RoleError:
			b.WriteString(errorStyle.Render(msg.Content))
			b.WriteString("\n")

		default:
			b.WriteString(infoStyle.Render(msg.Content))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// renders markdown through glamour, falling back to the raw text
func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil || strings.TrimSpace(text) == "" {
		return text
	}

	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}

	return strings.TrimRight(out, "\n")
}
