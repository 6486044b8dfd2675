package sessions

import (
	"slices"
	"sync"
	"time"

	"codeberg.org/codeagent/server/internal/agent"
	"codeberg.org/codeagent/server/internal/llm"
)

// turns kept per session for chat follow-ups
const maxHistory = 20

// one editor session: its agent and the chat turns exchanged so far
type Session struct {
	ID        string
	Agent     *agent.Agent
	CreatedAt time.Time

	mu           sync.RWMutex
	history      []llm.Message
	lastActivity time.Time
}

func newSession(id string, a *agent.Agent) *Session {
	now := time.Now()

	return &Session{
		ID:           id,
		Agent:        a,
		CreatedAt:    now,
		lastActivity: now,
	}
}

// records a completed user/assistant exchange
func (s *Session) AppendTurn(user, assistant string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, llm.UserMessage(user), llm.Message{Role: llm.RoleAssistant, Content: assistant})
	if len(s.history) > maxHistory {
		s.history = slices.Clone(s.history[len(s.history)-maxHistory:])
	}

	s.lastActivity = time.Now()
}

// returns a copy of the recorded turns
func (s *Session) History() []llm.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.history)
}

func (s *Session) ClearHistory() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.lastActivity
}
