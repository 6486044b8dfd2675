package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"codeberg.org/codeagent/server/internal/agent"
	"codeberg.org/codeagent/server/internal/logger"
)

// used when a caller does not name a session
const DefaultSessionID = "default"

var sessionIDRegex = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)

// builds the agent for a new session
type Factory func(sessionID string) (*agent.Agent, error)

// keeps one agent per session in memory. Idle sessions expire after the
// TTL and their agents release their transport connection.
type Manager struct {
	cache   *ttlcache.Cache[string, *Session]
	factory Factory

	mu     sync.Mutex // serializes session creation
	closed bool
}

// returns a manager whose sessions expire after ttl of inactivity
func NewManager(ttl time.Duration, factory Factory) *Manager {
	cache := ttlcache.New[string, *Session](
		ttlcache.WithTTL[string, *Session](ttl),
	)

	cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[string, *Session]) {
		item.Value().Agent.Cleanup()
		logger.Debug("session evicted", "session_id", item.Key(), "reason", evictionReason(reason))
	})

	go cache.Start()

	return &Manager{
		cache:   cache,
		factory: factory,
	}
}

// returns a new random session ID
func GenerateSessionID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return hex.EncodeToString(bytes), nil
}

// reports whether id can name a session
func ValidID(id string) bool {
	return sessionIDRegex.MatchString(id)
}

// returns the session for id, creating it on first use. An empty id means DefaultSessionID.
func (m *Manager) Get(id string) (*Session, error) {
	if id == "" {
		id = DefaultSessionID
	}

	if !ValidID(id) {
		return nil, ErrInvalidID
	}

	if item := m.cache.Get(id); item != nil {
		s := item.Value()
		s.touch()

		return s, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}

	if item := m.cache.Get(id); item != nil {
		return item.Value(), nil
	}

	a, err := m.factory(id)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent for session %s: %w", id, err)
	}

	s := newSession(id, a)
	m.cache.Set(id, s, ttlcache.DefaultTTL)

	logger.Info("session created", "session_id", id, "agent", a.Name())

	return s, nil
}

// returns an existing session without creating one
func (m *Manager) Lookup(id string) (*Session, bool) {
	if id == "" {
		id = DefaultSessionID
	}

	item := m.cache.Get(id)
	if item == nil {
		return nil, false
	}

	return item.Value(), true
}

// ends a session and releases its agent
func (m *Manager) Delete(id string) error {
	if _, ok := m.Lookup(id); !ok {
		return ErrSessionNotFound
	}

	if id == "" {
		id = DefaultSessionID
	}

	m.cache.Delete(id)

	return nil
}

// returns the number of live sessions
func (m *Manager) Len() int {
	return m.cache.Len()
}

// ends every session and stops the expiry loop
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.closed = true
	m.cache.DeleteAll()
	m.cache.Stop()
}

func evictionReason(reason ttlcache.EvictionReason) string {
	switch reason {
	case ttlcache.EvictionReasonExpired:
		return "expired"
	case ttlcache.EvictionReasonDeleted:
		return "deleted"
	case ttlcache.EvictionReasonCapacityReached:
		return "capacity"
	default:
		return "unknown"
	}
}
