package tui

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"codeberg.org/codeagent/server/internal/agent"
	"codeberg.org/codeagent/server/internal/llm"
	ws "codeberg.org/codeagent/server/internal/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// streams actions through a running server's websocket endpoint
type WSClient struct {
	endpoint  string
	sessionID string

	mu      sync.Mutex // guards writes and fields below
	conn    *websocket.Conn
	context *agent.EditingContext
	done    chan struct{}
}

// frames the client reads; a subset of the server's outbound message
type wsFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Message string `json:"message"`
}

// creates a client for endpoint; Stream connects on demand
func NewWSClient(endpoint, sessionID string) *WSClient {
	return &WSClient{
		endpoint:  endpoint,
		sessionID: sessionID,
	}
}

// establishes the websocket connection
func (c *WSClient) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}

	// set up ping/pong handlers to keep the connection alive
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c.conn = conn
	c.done = make(chan struct{})

	go c.pingPump(conn, c.done)

	return nil
}

// sends periodic pings to keep the connection alive
func (c *WSClient) pingPump(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			c.mu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			c.mu.Unlock()

			if err != nil {
				return
			}
		}
	}
}

// sends a stream_generate action and yields chunk contents until done
func (c *WSClient) Stream(ctx context.Context, prompt string, history []llm.Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		// a previous reply that was abandoned or broke left no connection behind
		if err := c.Connect(ctx); err != nil {
			yield("", err)
			return
		}

		c.mu.Lock()
		conn := c.conn
		msg := ws.Message{
			Type:       ws.TypeAction,
			SessionID:  c.sessionID,
			ActionType: agent.ActionStreamGenerate,
			Parameters: agent.Params{
				"system_prompt": consoleSystemPrompt,
				"prompt":        prompt,
				"history":       history,
			},
			Context: c.context,
		}

		var err error
		if conn == nil {
			err = errors.New("not connected")
		} else {
			conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck,gosec // G104: websocket timing
			err = conn.WriteJSON(msg)
		}
		c.mu.Unlock()

		if err != nil {
			yield("", fmt.Errorf("failed to send request: %w", err))
			return
		}

		// unblock the read below when the caller gives up
		stop := context.AfterFunc(ctx, func() {
			conn.SetReadDeadline(time.Now()) //nolint:errcheck,gosec // G104: interrupt read
		})
		defer stop()

		for {
			conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck,gosec // G104: websocket timing

			var frame wsFrame
			if err := conn.ReadJSON(&frame); err != nil {
				if ctx.Err() != nil {
					err = ctx.Err()
				}

				c.drop()
				yield("", fmt.Errorf("connection lost: %w", err))

				return
			}

			switch frame.Type {
			case ws.TypeChunk:
				if !yield(frame.Content, nil) {
					// the rest of this reply is still in flight; never let it leak into the next one
					c.drop()
					return
				}

			case ws.TypeDone:
				return

			case ws.TypeError:
				yield("", errors.New(frame.Message))
				return

			default:
				// pongs and server notices
				continue
			}
		}
	}
}

// forgets a broken connection so the next Connect redials
func (c *WSClient) drop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()
}

// remembers ec and sends it with every following action
func (c *WSClient) SetContext(ec agent.EditingContext) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.context = &ec
}

func (c *WSClient) Name() string {
	return c.endpoint
}

// closes the webSocket connection
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeLocked()
}

func (c *WSClient) closeLocked() {
	if c.conn == nil {
		return
	}

	close(c.done)
	c.conn.Close() //nolint:errcheck,gosec // G104: best effort close
	c.conn = nil
}
