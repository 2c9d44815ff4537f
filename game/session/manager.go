package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/snake-game/game/engine"
	"github.com/wricardo/snake-game/game/service"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Manager handles game session lifecycle
type Manager struct {
	sessions      map[string]*service.Session
	engineOptions []engine.Option
	mu            sync.RWMutex
}

// NewManager creates a new session manager. Every session engine is built
// with the game-over latch plus engineOptions.
func NewManager(engineOptions ...engine.Option) *Manager {
	return &Manager{
		sessions:      make(map[string]*service.Session),
		engineOptions: append([]engine.Option{engine.WithGameOverLatch()}, engineOptions...),
	}
}

// Create creates a new session playing level. An empty id generates one.
func (m *Manager) Create(id, levelName string, level *engine.Level) (*service.Session, error) {
	if level == nil {
		return nil, engine.ErrNilLevel
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = m.generateSessionID()
	} else if strings.ContainsAny(id, "/ ") {
		return nil, ErrInvalidSessionID
	}

	// Check if session already exists (case-insensitive)
	if _, exists := m.sessions[strings.ToLower(id)]; exists {
		return nil, ErrSessionAlreadyExists
	}

	now := time.Now()
	session := &service.Session{
		ID:             id,
		LevelName:      levelName,
		Level:          level,
		EngineOptions:  m.engineOptions,
		CreatedAt:      now,
		LastAccessedAt: now,
	}
	if err := session.Restart(); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	m.sessions[strings.ToLower(id)] = session
	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete removes a session and stops its tick driver
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	session, exists := m.sessions[strings.ToLower(id)]
	if exists {
		delete(m.sessions, strings.ToLower(id))
	}
	m.mu.Unlock()

	if !exists {
		return ErrSessionNotFound
	}

	session.Close()
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.RLock()
	session, exists := m.sessions[strings.ToLower(id)]
	m.mu.RUnlock()

	if !exists {
		return ErrSessionNotFound
	}

	session.Lock()
	session.LastAccessedAt = time.Now()
	session.Unlock()
	return nil
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the
// given duration and stops their drivers
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	var expired []*service.Session
	for id, session := range m.sessions {
		session.Lock()
		stale := session.LastAccessedAt.Before(cutoff)
		session.Unlock()

		if stale {
			delete(m.sessions, id)
			expired = append(expired, session)
		}
	}
	m.mu.Unlock()

	for _, session := range expired {
		session.Close()
	}
	return len(expired)
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID generates a random 4-character session ID that is not
// in use. The caller holds the write lock.
func (m *Manager) generateSessionID() string {
	bytes := make([]byte, 2)
	for {
		rand.Read(bytes)
		id := hex.EncodeToString(bytes)
		if _, exists := m.sessions[id]; !exists {
			return id
		}
	}
}
