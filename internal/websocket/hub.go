package websocket

import (
	"context"
	"fmt"

	"codeberg.org/codeagent/server/internal/logger"
)

func NewHub() *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		handlers:      make(map[string]MessageHandler),
		ipConnections: make(map[string]int),
		maxPerIP:      maxConnectionsPerIP,
	}
}

// registers a handler for a specific message type
func (h *Hub) RegisterHandler(messageType string, handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[messageType] = handler
}

// checks if a new connection from ipAddress can be accepted
func (h *Hub) CanAcceptConnection(ipAddress string) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrConnectionClosed
	}

	if ipAddress != "" && h.ipConnections[ipAddress] >= h.maxPerIP {
		return ErrTooManyConnections
	}

	return nil
}

// adds a client to the hub
func (h *Hub) Register(client *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrConnectionClosed
	}

	if client.IPAddress != "" && h.ipConnections[client.IPAddress] >= h.maxPerIP {
		return ErrTooManyConnections
	}

	h.clients[client.ID] = client

	if client.IPAddress != "" {
		h.ipConnections[client.IPAddress]++
	}

	logger.Info("client registered",
		"client_id", client.ID,
		"ip", client.IPAddress,
	)

	return nil
}

// removes a client from the hub and closes it
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()

	if _, ok := h.clients[client.ID]; ok {
		delete(h.clients, client.ID)

		if client.IPAddress != "" {
			h.ipConnections[client.IPAddress]--
			if h.ipConnections[client.IPAddress] <= 0 {
				delete(h.ipConnections, client.IPAddress)
			}
		}

		logger.Info("client unregistered", "client_id", client.ID)
	}

	h.mu.Unlock()

	client.Close()
}

// number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// routes msg to the handler for its type
func (h *Hub) dispatch(ctx context.Context, client *Client, msg *Message) {
	h.mu.RLock()
	handler, ok := h.handlers[msg.Type]
	h.mu.RUnlock()

	if !ok {
		logger.Warn("unknown message type",
			"client_id", client.ID,
			"message_type", msg.Type,
		)

		client.SendError(msg.SessionID, fmt.Errorf("unknown message type: %s", msg.Type))
		return
	}

	if err := handler(ctx, client, msg); err != nil {
		logger.ErrorErr(err, "message handler failed",
			"client_id", client.ID,
			"message_type", msg.Type,
		)

		client.SendError(msg.SessionID, err)
	}
}

// notifies and closes every client; later connections are refused
func (h *Hub) Shutdown() {
	h.mu.Lock()

	h.closed = true

	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}

	h.mu.Unlock()

	for _, c := range clients {
		c.Send(newOutbound(TypeServerShutdown, "")) //nolint:errcheck,gosec // G104: best effort shutdown notice
		c.Close()
	}

	logger.Info("websocket hub shut down", "clients", len(clients))
}
