package llm

import (
	"context"
	"iter"
)

// represents the author of a chat turn
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// reports whether r is one of the three chat roles
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// a single chat turn sent upstream
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// builds a system message
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// builds a user message
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// classifies a completion fragment
type FragmentKind string

const (
	KindText FragmentKind = "text"
	KindCode FragmentKind = "code"
)

// one decoded increment of model output
type Fragment struct {
	Text string       `json:"text"`
	Kind FragmentKind `json:"kind"`
}

// selects how aggregate completions are assembled
type AggregateMode string

const (
	// only the first stream fragment is returned
	AggregateFirst AggregateMode = "first"

	// every fragment is concatenated
	AggregateFull AggregateMode = "full"
)

// holds the upstream chat endpoint settings
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64 // 0.0 to 2.0
	MaxTokens   int     // 0 leaves max_tokens out of the request
	Stream      bool

	// outbound requests per second, 0 disables limiting
	RequestsPerSecond float64
}

// the transport surface used by agent handlers
type Completer interface {
	StreamComplete(ctx context.Context, messages []Message) iter.Seq2[Fragment, error]
	Complete(ctx context.Context, messages []Message) (Fragment, error)
	CompleteFull(ctx context.Context, messages []Message) (Fragment, error)
	TestConnection(ctx context.Context) bool
	Cleanup()
}

// chat-completions request body
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// union of the payload shapes seen on the stream
type chunkPayload struct {
	Choices []struct {
		Delta *struct {
			Content string `json:"content"`
		} `json:"delta"`
		Message *struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Output *struct {
		Text string `json:"text"`
	} `json:"output"`
}
