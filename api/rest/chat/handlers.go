package chat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	agentcore "codeberg.org/codeagent/server/internal/agent"
	"codeberg.org/codeagent/server/internal/errors"
	"codeberg.org/codeagent/server/internal/logger"
	"codeberg.org/codeagent/server/internal/sessions"
	"codeberg.org/codeagent/server/internal/version"
)

const systemPrompt = "You are a helpful coding assistant in VS Code."

// Handler godoc
// @Summary Chat with the coding agent
// @Description Streams the reply as server-sent events. Each event is a JSON data line: {"startNewMessage":true}, then {"type":"chunk","content":"..."} per fragment, then {"type":"done"}; a failure mid-stream sends {"error":"..."}. The WELCOME_MESSAGE system message answers with {"text":"..."} and {"done":true}.
// @Tags chat
// @Accept json
// @Produce text/event-stream
// @Param request body Request true "Chat message"
// @Success 200 {object} Event
// @Failure 400 {object} errors.ErrorResponse
// @Router /chat [post]
func Handler(manager *sessions.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Request
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		if strings.TrimSpace(req.Message) == "" {
			errors.BadRequest(c, "empty message received", nil)
			return
		}

		logger.Info("chat message received",
			"session_id", req.SessionID,
			"system", req.IsSystemMessage,
			"length", len(req.Message),
		)

		if req.IsSystemMessage && req.Message == WelcomeMessage {
			stream := newEventStream(c)
			stream.send(Event{Text: welcomeText()})
			stream.send(Event{Done: true})

			return
		}

		session, err := manager.Get(req.SessionID)
		if err != nil {
			errors.FromError(c, "failed to open session", err)
			return
		}

		session.Agent.UpdateContext(req.Context.EditingContext())

		action := agentcore.NewAction(agentcore.ActionStreamGenerate, agentcore.Params{
			"system_prompt": systemPrompt,
			"prompt":        req.Message,
			"history":       session.History(),
		})

		stream := newEventStream(c)
		if !stream.send(Event{StartNewMessage: true}) {
			return
		}

		var reply strings.Builder

		for edit, err := range session.Agent.Stream(c.Request.Context(), action) {
			if err != nil {
				logger.ErrorErr(err, "chat stream failed", "session_id", session.ID)
				stream.send(Event{Error: errors.PublicMessage(err)})

				return
			}

			reply.WriteString(edit.Content)

			if !stream.send(Event{Type: EventChunk, Content: edit.Content}) {
				logger.Debug("chat client went away", "session_id", session.ID)
				return
			}
		}

		stream.send(Event{Type: EventDone})

		session.AppendTurn(req.Message, reply.String())
	}
}

func welcomeText() string {
	return fmt.Sprintf("Welcome to Code Agent v%s! I'm ready to help you with your coding tasks.", version.Version)
}

// writes JSON data lines to an SSE response
type eventStream struct {
	c      *gin.Context
	failed bool
}

func newEventStream(c *gin.Context) *eventStream {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	c.Status(http.StatusOK)

	return &eventStream{c: c}
}

// writes one event and flushes; returns false once the client is gone
func (s *eventStream) send(event Event) bool {
	if s.failed {
		return false
	}

	payload, err := json.Marshal(event)
	if err != nil {
		logger.ErrorErr(err, "failed to encode chat event")
		s.failed = true

		return false
	}

	if _, err := fmt.Fprintf(s.c.Writer, "data: %s\n\n", payload); err != nil {
		s.failed = true
		return false
	}

	s.c.Writer.Flush()

	return s.c.Request.Context().Err() == nil
}
