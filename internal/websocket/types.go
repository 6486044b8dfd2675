package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"codeberg.org/codeagent/server/internal/agent"
)

// message type constants for websocket communication
const (
	// is sent by clients to run an agent action
	TypeAction = "action"

	// is sent for every streamed edit
	TypeChunk = "chunk"

	// is sent when an action finished streaming
	TypeDone = "done"

	// is sent when an action or message failed
	TypeError = "error"

	// is sent by clients to keep the connection alive
	TypePing = "ping"

	// is sent by server in response to ping
	TypePong = "pong"

	// is sent by server before shutdown
	TypeServerShutdown = "server_shutdown"
)

// client connection constants
const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512 KB

	// outbound frames buffered per client
	sendBufferSize = 256

	// inbound messages queued behind a running action
	inboundBufferSize = 16
)

// hub connection limit constants
const (
	maxConnectionsPerIP = 10
)

var (
	ErrConnectionClosed   = errors.New("connection closed")
	ErrTooManyConnections = errors.New("too many connections from this address")
	ErrMissingActionType  = errors.New("action_type is required")
	ErrBusy               = errors.New("too many queued messages, wait for the running action to finish")
)

// a frame received from a client
type Message struct {
	Type       string                `json:"type"`
	SessionID  string                `json:"session_id,omitempty"`
	ActionType agent.ActionType      `json:"action_type,omitempty"`
	Parameters agent.Params          `json:"parameters,omitempty"`
	Context    *agent.EditingContext `json:"context,omitempty"`
}

// a frame sent to a client
type OutboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	Position  *agent.Position `json:"position,omitempty"`
	Message   string          `json:"message,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// handles one inbound message type
type MessageHandler func(ctx context.Context, client *Client, msg *Message) error

// tracks live connections and routes inbound messages by type
type Hub struct {
	mu            sync.RWMutex
	clients       map[string]*Client
	handlers      map[string]MessageHandler
	ipConnections map[string]int
	maxPerIP      int
	closed        bool
}

// one websocket connection
type Client struct {
	ID        string
	IPAddress string

	conn *websocket.Conn
	hub  *Hub
	send chan []byte

	// cancelled when the connection goes away; in-flight actions stop with it
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

func newOutbound(msgType, sessionID string) *OutboundMessage {
	return &OutboundMessage{
		Type:      msgType,
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
}

func (m *OutboundMessage) marshal() ([]byte, error) {
	return json.Marshal(m)
}
