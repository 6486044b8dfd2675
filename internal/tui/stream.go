package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"codeberg.org/codeagent/server/internal/llm"
)

// runs the backend stream in the background and hands over its event channel
func startStream(ctx context.Context, backend Backend, prompt string, history []llm.Message) tea.Cmd {
	return func() tea.Msg {
		events := make(chan streamEvent)

		go func() {
			defer close(events)

			for text, err := range backend.Stream(ctx, prompt, history) {
				select {
				case events <- streamEvent{text: text, err: err}:
				case <-ctx.Done():
					return
				}

				if err != nil {
					return
				}
			}
		}()

		return streamStartedMsg{events: events}
	}
}

// waits for the next stream event
func waitForEvent(events <-chan streamEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		switch {
		case !ok:
			return streamDoneMsg{}
		case ev.err != nil:
			return streamErrorMsg{err: ev.err}
		default:
			return streamChunkMsg{text: ev.text}
		}
	}
}
