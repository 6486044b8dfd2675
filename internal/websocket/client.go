package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"codeberg.org/codeagent/server/internal/errors"
	"codeberg.org/codeagent/server/internal/logger"
)

// creates a new webSocket client connection
func NewClient(id, ipAddress string, conn *websocket.Conn, hub *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		ID:        id,
		IPAddress: ipAddress,
		conn:      conn,
		hub:       hub,
		send:      make(chan []byte, sendBufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// reads messages from the webSocket connection and dispatches them through the hub
func (c *Client) ReadPump() {
	inbound := make(chan *Message, inboundBufferSize)
	go c.processLoop(inbound)

	defer func() {
		close(inbound)
		c.hub.Unregister(c)
		c.conn.Close() //nolint:errcheck,gosec // G104: defer cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: websocket setup
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: pong handler
		return nil
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket error",
					"client_id", c.ID,
					"error", err,
				)
			}

			break
		}

		var msg Message
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			logger.ErrorErr(err, "failed to unmarshal message", "client_id", c.ID)

			c.SendError("", fmt.Errorf("invalid message format: %w", err))
			continue
		}

		select {
		case inbound <- &msg:
		default:
			c.SendError(msg.SessionID, ErrBusy)
		}
	}
}

// handles inbound messages one at a time, in arrival order
func (c *Client) processLoop(inbound <-chan *Message) {
	for msg := range inbound {
		c.hub.dispatch(c.ctx, c, msg)
	}
}

// writes queued messages to the webSocket connection, one frame each
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close() //nolint:errcheck,gosec // G104: defer cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket timing

			if !ok {
				// client closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck,gosec // G104: close message
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket ping timing

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// queues a message for the client
func (c *Client) Send(msg *OutboundMessage) error {
	messageBytes, err := msg.marshal()
	if err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnectionClosed
	}

	select {
	case c.send <- messageBytes:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	case <-time.After(writeWait):
		// writer is stuck; drop the connection
		go c.Close()
		return ErrConnectionClosed
	}
}

// sends an error message to the client
func (c *Client) SendError(sessionID string, cause error) {
	msg := newOutbound(TypeError, sessionID)
	msg.Message = errors.PublicMessage(cause)

	if err := c.Send(msg); err != nil {
		logger.Debug("failed to send error message",
			"client_id", c.ID,
			"error", err,
		)
	}
}

// closes the client connection and stops its in-flight action
func (c *Client) Close() {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// checks if the client is closed
func (c *Client) IsClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.closed
}
