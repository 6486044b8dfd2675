package websocket

import (
	"context"

	"codeberg.org/codeagent/server/internal/agent"
	"codeberg.org/codeagent/server/internal/logger"
	"codeberg.org/codeagent/server/internal/sessions"
)

// wires the built-in message handlers into hub
func RegisterHandlers(hub *Hub, manager *sessions.Manager) {
	hub.RegisterHandler(TypeAction, ActionHandler(manager))
	hub.RegisterHandler(TypePing, PingHandler)
}

// runs an agent action and streams its edits as chunk messages
func ActionHandler(manager *sessions.Manager) MessageHandler {
	return func(ctx context.Context, client *Client, msg *Message) error {
		if msg.ActionType == "" {
			return ErrMissingActionType
		}

		session, err := manager.Get(msg.SessionID)
		if err != nil {
			return err
		}

		if msg.Context != nil {
			session.Agent.UpdateContext(*msg.Context)
		}

		logger.Debug("websocket action",
			"client_id", client.ID,
			"session_id", session.ID,
			"action", msg.ActionType,
		)

		action := agent.NewAction(msg.ActionType, msg.Parameters)

		for edit, err := range session.Agent.Stream(ctx, action) {
			if err != nil {
				return err
			}

			chunk := newOutbound(TypeChunk, session.ID)
			chunk.Content = edit.Content
			chunk.Position = &edit.Position

			if err := client.Send(chunk); err != nil {
				// client went away; the loop exit stops the upstream stream
				return nil
			}
		}

		return client.Send(newOutbound(TypeDone, session.ID))
	}
}

// answers a client ping
func PingHandler(_ context.Context, client *Client, msg *Message) error {
	return client.Send(newOutbound(TypePong, msg.SessionID))
}
