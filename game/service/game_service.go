package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wricardo/snake-game/game/driver"
	"github.com/wricardo/snake-game/game/engine"
)

var (
	ErrSessionRunning    = errors.New("session is running on the tick driver")
	ErrSessionNotRunning = errors.New("session is not running")
	ErrTooManyMoves      = errors.New("too many moves")
)

// MaxBulkMoves caps the directions accepted by one BulkPlay call
const MaxBulkMoves = 100

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, levelName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Play(ctx context.Context, sessionID, direction string) (*PlayResult, error)
	BulkPlay(ctx context.Context, sessionID string, directions []string) (*BulkPlayResult, error)
	Reset(ctx context.Context, sessionID string) (*GameState, error)

	// Real-time play
	Steer(ctx context.Context, sessionID, direction string) (*GameState, error)
	Start(ctx context.Context, sessionID string) (*GameState, error)
	Stop(ctx context.Context, sessionID string) (*GameState, error)

	// Game State
	GetSnapshot(ctx context.Context, sessionID string) (*GameState, error)

	// Levels
	ListLevels(ctx context.Context) ([]*LevelInfo, error)
	LoadLevel(ctx context.Context, levelName string) (*LevelDetail, error)
	SaveLevel(ctx context.Context, levelName, text string) (*LevelInfo, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, levelName string, level *engine.Level) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// LevelManager handles level loading
type LevelManager interface {
	LoadLevel(name string) (*engine.Level, error)
	ListLevels() ([]*LevelInfo, error)
	GetDefault() (string, *engine.Level)
	SaveLevel(name, text string) (*engine.Level, error)
}

// Notifier receives every state change of a session
type Notifier interface {
	BroadcastState(sessionID string, state *GameState)
	BroadcastEvent(sessionID string, event GameEvent)
}

// Session represents an active game session. Engine and the play counters
// are guarded by the session lock; hold it for every engine call.
type Session struct {
	sync.Mutex

	ID             string
	RunID          string
	LevelName      string
	Level          *engine.Level
	Engine         *engine.Engine
	EngineOptions  []engine.Option
	Requested      engine.Direction
	Score          int
	Ticks          int
	CreatedAt      time.Time
	LastAccessedAt time.Time

	driver *driver.Driver
	cancel context.CancelFunc
	done   chan struct{}
}

// Restart builds a fresh engine from the session level and starts a new run.
// The caller holds the session lock and has stopped any running driver.
func (s *Session) Restart() error {
	eng, err := engine.NewEngine(s.Level, s.EngineOptions...)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	s.Engine = eng
	s.RunID = uuid.New().String()
	s.Requested = eng.Direction()
	s.Score = 0
	s.Ticks = 0
	return nil
}

// Running reports whether a tick driver currently owns the session.
// The caller holds the session lock.
func (s *Session) Running() bool {
	return s.driver != nil
}

// Close stops the tick driver, if any, and waits for it to exit.
// It must be called without holding the session lock.
func (s *Session) Close() {
	s.Lock()
	cancel, done := s.cancel, s.done
	s.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}
