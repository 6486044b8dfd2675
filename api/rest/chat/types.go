package chat

import (
	"encoding/json"

	agentcore "codeberg.org/codeagent/server/internal/agent"
)

// sent by the editor as a system message when the chat panel opens
const WelcomeMessage = "WELCOME_MESSAGE"

// request payload for a chat turn
type Request struct {
	Message         string      `json:"message"`
	Context         FileContext `json:"context"`
	IsSystemMessage bool        `json:"isSystemMessage"`
	SessionID       string      `json:"session_id"`
}

// the editor's view of the active file
type FileContext struct {
	FileName       string          `json:"fileName"`
	Content        string          `json:"content"`
	Language       string          `json:"language"`
	CursorPosition json.RawMessage `json:"cursorPosition" swaggertype:"array,integer"`
	SelectedText   *string         `json:"selectedText,omitempty"`
}

// converts to the agent's editing context. A cursor that is not a
// [row, col] pair falls back to the start of the file.
func (f FileContext) EditingContext() agentcore.EditingContext {
	var cursor agentcore.Cursor
	if len(f.CursorPosition) > 0 {
		if err := json.Unmarshal(f.CursorPosition, &cursor); err != nil {
			cursor = agentcore.Cursor{}
		}
	}

	return agentcore.EditingContext{
		FilePath:       f.FileName,
		Content:        f.Content,
		Language:       f.Language,
		CursorPosition: &cursor,
		SelectedText:   f.SelectedText,
	}
}

// one SSE data payload; exactly one field group is set per event
type Event struct {
	Text            string `json:"text,omitempty"`
	Done            bool   `json:"done,omitempty"`
	StartNewMessage bool   `json:"startNewMessage,omitempty"`
	Type            string `json:"type,omitempty"`
	Content         string `json:"content,omitempty"`
	Error           string `json:"error,omitempty"`
}

const (
	EventChunk = "chunk"
	EventDone  = "done"
)
