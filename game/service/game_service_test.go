package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/wricardo/snake-game/game/engine"
	"github.com/wricardo/snake-game/game/service"
)

const classicLevel = `9,8
wwwwwwwww
w       w
w       w
w       w
w       w
w       w
w       w
wwwwwwwww
4,4
2,2;2,1
`

// zeroRandom always draws 0, so new food lands on the first free cell in
// row-major order: (1,1) on the classic level
type zeroRandom struct{}

func (zeroRandom) IntN(int) int { return 0 }

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	mu       sync.Mutex
	sessions map[string]*service.Session
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id, levelName string, level *engine.Level) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("t%03d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	session := &service.Session{
		ID:             id,
		LevelName:      levelName,
		Level:          level,
		EngineOptions:  []engine.Option{engine.WithGameOverLatch(), engine.WithRandom(zeroRandom{})},
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	if err := session.Restart(); err != nil {
		return nil, err
	}

	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, exists := m.sessions[id]
	if !exists {
		return nil, errors.New("session not found")
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	session, exists := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !exists {
		return errors.New("session not found")
	}
	session.Close()
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	session, err := m.Get(id)
	if err != nil {
		return err
	}
	session.Lock()
	session.LastAccessedAt = time.Now()
	session.Unlock()
	return nil
}

// MockLevelManager implements service.LevelManager for testing
type MockLevelManager struct {
	mu     sync.Mutex
	levels map[string]string
}

func NewMockLevelManager() *MockLevelManager {
	return &MockLevelManager{
		levels: map[string]string{"classic": classicLevel},
	}
}

func (m *MockLevelManager) LoadLevel(name string) (*engine.Level, error) {
	m.mu.Lock()
	text, ok := m.levels[name]
	m.mu.Unlock()
	if !ok {
		return nil, errors.New("level not found")
	}
	return engine.ParseLevel(text)
}

func (m *MockLevelManager) ListLevels() ([]*service.LevelInfo, error) {
	m.mu.Lock()
	names := make([]string, 0, len(m.levels))
	for name := range m.levels {
		names = append(names, name)
	}
	m.mu.Unlock()

	var infos []*service.LevelInfo
	for _, name := range names {
		level, err := m.LoadLevel(name)
		if err != nil {
			continue
		}
		infos = append(infos, service.NewLevelInfo(name, level))
	}
	return infos, nil
}

func (m *MockLevelManager) GetDefault() (string, *engine.Level) {
	level, _ := m.LoadLevel("classic")
	return "classic", level
}

func (m *MockLevelManager) SaveLevel(name, text string) (*engine.Level, error) {
	level, err := engine.ParseLevel(text)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.levels[name] = level.String()
	m.mu.Unlock()
	return level, nil
}

// recordingNotifier collects broadcasts
type recordingNotifier struct {
	mu     sync.Mutex
	states []*service.GameState
	events []service.GameEvent
}

func (n *recordingNotifier) BroadcastState(sessionID string, state *service.GameState) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, state)
}

func (n *recordingNotifier) BroadcastEvent(sessionID string, event service.GameEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) hasEvent(eventType string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if e.Type == eventType {
			return true
		}
	}
	return false
}

func (n *recordingNotifier) stateCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.states)
}

func newTestService(opts ...service.Option) service.GameService {
	return service.NewGameService(NewMockSessionManager(), NewMockLevelManager(), opts...)
}

func createSession(t *testing.T, svc service.GameService) *service.SessionInfo {
	t.Helper()
	info, err := svc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return info
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %s", what)
}

func TestGameService_CreateSession(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	t.Run("default level", func(t *testing.T) {
		info := createSession(t, svc)
		if info.LevelName != "classic" {
			t.Errorf("Expected level classic, got %q", info.LevelName)
		}
		if info.RunID == "" {
			t.Error("Expected a run ID")
		}
		state := info.State
		if state.Width != 9 || state.Height != 8 {
			t.Errorf("Expected 9x8, got %dx%d", state.Width, state.Height)
		}
		if state.Head() != (engine.Position{X: 2, Y: 2}) || state.Length != 2 {
			t.Errorf("Unexpected initial snake %v", state.Snake)
		}
		if state.Direction != engine.Up || state.GameOver || state.Running {
			t.Errorf("Unexpected initial flags: %+v", state)
		}
		want := []string{
			"#########",
			"#.o.....#",
			"#.@.....#",
			"#.......#",
			"#...*...#",
			"#.......#",
			"#.......#",
			"#########",
		}
		if strings.Join(state.Board, "\n") != strings.Join(want, "\n") {
			t.Errorf("Unexpected board:\n%s", strings.Join(state.Board, "\n"))
		}
	})

	t.Run("unknown level lists alternatives", func(t *testing.T) {
		_, err := svc.CreateSession(ctx, "nope")
		if err == nil || !strings.Contains(err.Error(), "classic") {
			t.Errorf("Expected error naming available levels, got %v", err)
		}
	})
}

func TestGameService_Play(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newTestService(service.WithNotifier(notifier))
	ctx := context.Background()
	info := createSession(t, svc)

	result, err := svc.Play(ctx, info.ID, "UP")
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if !result.Success {
		t.Errorf("Expected success, got %+v", result)
	}
	if result.State.Head() != (engine.Position{X: 2, Y: 3}) {
		t.Errorf("Expected head (2,3), got %v", result.State.Head())
	}
	if result.Step == nil || result.Step.From != (engine.Position{X: 2, Y: 2}) || result.Step.To != (engine.Position{X: 2, Y: 3}) {
		t.Errorf("Unexpected step %+v", result.Step)
	}
	if result.State.Ticks != 1 {
		t.Errorf("Expected 1 tick, got %d", result.State.Ticks)
	}
	if !notifier.hasEvent(service.EventPlay) || notifier.stateCount() != 1 {
		t.Error("Expected the play to be broadcast")
	}

	// Reversal is resolved to the current heading
	result, err = svc.Play(ctx, info.ID, "down")
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if result.Requested != engine.Down || result.Applied != engine.Up {
		t.Errorf("Expected down resolved to up, got %v -> %v", result.Requested, result.Applied)
	}
	if result.State.Head() != (engine.Position{X: 2, Y: 4}) {
		t.Errorf("Expected head (2,4), got %v", result.State.Head())
	}

	if _, err := svc.Play(ctx, info.ID, "north"); !errors.Is(err, engine.ErrInvalidDirection) {
		t.Errorf("Expected ErrInvalidDirection, got %v", err)
	}
	if _, err := svc.Play(ctx, "missing", "up"); err == nil {
		t.Error("Expected error for missing session")
	}
}

func TestGameService_PlayUntilWall(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	info := createSession(t, svc)

	for i := 0; i < 4; i++ {
		if _, err := svc.Play(ctx, info.ID, "up"); err != nil {
			t.Fatalf("Play %d failed: %v", i+1, err)
		}
	}

	result, err := svc.Play(ctx, info.ID, "up")
	if err != nil {
		t.Fatalf("Expected the collision in the result, got error %v", err)
	}
	if result.Success || result.GameOverCode != service.ReasonOnWall {
		t.Errorf("Expected on_wall game over, got %+v", result)
	}
	if !result.State.GameOver || result.State.GameOverCode != service.ReasonOnWall {
		t.Errorf("Expected state to report game over, got %+v", result.State)
	}
	if result.State.Head() != (engine.Position{X: 2, Y: 7}) {
		t.Errorf("Expected committed head (2,7), got %v", result.State.Head())
	}

	if _, err := svc.Play(ctx, info.ID, "left"); !errors.Is(err, engine.ErrGameOver) {
		t.Errorf("Expected ErrGameOver after the game ended, got %v", err)
	}
	if _, err := svc.BulkPlay(ctx, info.ID, []string{"left"}); !errors.Is(err, engine.ErrGameOver) {
		t.Errorf("Expected ErrGameOver from bulk play, got %v", err)
	}
}

func TestGameService_BulkPlay(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newTestService(service.WithNotifier(notifier))
	ctx := context.Background()

	t.Run("eats food", func(t *testing.T) {
		info := createSession(t, svc)
		result, err := svc.BulkPlay(ctx, info.ID, []string{"up", "up", "right", "right", "right"})
		if err != nil {
			t.Fatalf("BulkPlay failed: %v", err)
		}
		if !result.Success || result.MovesExecuted != 5 || result.RequestedMoves != 5 {
			t.Errorf("Unexpected summary %+v", result)
		}
		if !result.Steps[3].FoodAte {
			t.Error("Expected food on move 4")
		}
		if result.ScoreDelta != 1 || result.State.Score != 1 {
			t.Errorf("Expected score 1, got delta=%d score=%d", result.ScoreDelta, result.State.Score)
		}
		if result.StartLength != 2 || result.EndLength != 3 {
			t.Errorf("Expected length 2 -> 3, got %d -> %d", result.StartLength, result.EndLength)
		}
		if result.EndHead != (engine.Position{X: 5, Y: 4}) {
			t.Errorf("Expected end head (5,4), got %v", result.EndHead)
		}
		if !notifier.hasEvent(service.EventFood) {
			t.Error("Expected a food event")
		}
	})

	t.Run("stops at first game over", func(t *testing.T) {
		info := createSession(t, svc)
		result, err := svc.BulkPlay(ctx, info.ID, []string{"up", "up", "up", "up", "up", "right", "right"})
		if err != nil {
			t.Fatalf("BulkPlay failed: %v", err)
		}
		if result.Success || result.MovesExecuted != 4 || result.StoppedOnMove != 5 {
			t.Errorf("Unexpected summary %+v", result)
		}
		if result.StopReasonCode != service.ReasonOnWall {
			t.Errorf("Expected on_wall, got %q", result.StopReasonCode)
		}
		if len(result.Steps) != 5 || result.Steps[4].Success {
			t.Errorf("Expected the failing step to be recorded, got %+v", result.Steps)
		}
		if result.State.Ticks != 5 {
			t.Errorf("Expected 5 ticks, got %d", result.State.Ticks)
		}
	})

	t.Run("validation", func(t *testing.T) {
		info := createSession(t, svc)

		if _, err := svc.BulkPlay(ctx, info.ID, nil); err == nil {
			t.Error("Expected error for empty directions")
		}
		tooMany := make([]string, service.MaxBulkMoves+1)
		for i := range tooMany {
			tooMany[i] = "left"
		}
		if _, err := svc.BulkPlay(ctx, info.ID, tooMany); !errors.Is(err, service.ErrTooManyMoves) {
			t.Errorf("Expected ErrTooManyMoves, got %v", err)
		}
		if _, err := svc.BulkPlay(ctx, info.ID, []string{"up", "sideways"}); !errors.Is(err, engine.ErrInvalidDirection) {
			t.Errorf("Expected ErrInvalidDirection, got %v", err)
		}

		state, _ := svc.GetSnapshot(ctx, info.ID)
		if state.Ticks != 0 {
			t.Errorf("Rejected requests must not play, got %d ticks", state.Ticks)
		}
	})
}

func TestGameService_Reset(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newTestService(service.WithNotifier(notifier))
	ctx := context.Background()
	info := createSession(t, svc)

	if _, err := svc.BulkPlay(ctx, info.ID, []string{"up", "up", "up", "up", "up"}); err != nil {
		t.Fatalf("BulkPlay failed: %v", err)
	}

	state, err := svc.Reset(ctx, info.ID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if state.GameOver || state.Score != 0 || state.Ticks != 0 {
		t.Errorf("Expected a fresh run, got %+v", state)
	}
	if state.RunID == info.RunID {
		t.Error("Expected a new run ID")
	}
	if state.Head() != (engine.Position{X: 2, Y: 2}) {
		t.Errorf("Expected head (2,2), got %v", state.Head())
	}
	if !notifier.hasEvent(service.EventReset) {
		t.Error("Expected a reset event")
	}

	if _, err := svc.Play(ctx, info.ID, "up"); err != nil {
		t.Errorf("Expected play after reset to work, got %v", err)
	}
}

func TestGameService_ResetWhileStarting(t *testing.T) {
	svc := newTestService(service.WithTickInterval(time.Hour))
	ctx := context.Background()
	info := createSession(t, svc)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				svc.Start(ctx, info.ID)
			}
		}
	}()

	for i := 0; i < 200; i++ {
		state, err := svc.Reset(ctx, info.ID)
		if err != nil {
			t.Fatalf("Reset failed: %v", err)
		}
		if state.Running {
			t.Fatalf("Reset %d returned a fresh run with a driver still attached", i)
		}
	}
	close(stop)
	wg.Wait()

	svc.Stop(ctx, info.ID)
}

func TestGameService_StartSteerStop(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newTestService(service.WithNotifier(notifier), service.WithTickInterval(20*time.Millisecond))
	ctx := context.Background()
	info := createSession(t, svc)

	if _, err := svc.Stop(ctx, info.ID); !errors.Is(err, service.ErrSessionNotRunning) {
		t.Errorf("Expected ErrSessionNotRunning, got %v", err)
	}

	state, err := svc.Start(ctx, info.ID)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !state.Running {
		t.Error("Expected session to be running")
	}
	if _, err := svc.Steer(ctx, info.ID, "right"); err != nil {
		t.Fatalf("Steer failed: %v", err)
	}

	if _, err := svc.Start(ctx, info.ID); !errors.Is(err, service.ErrSessionRunning) {
		t.Errorf("Expected ErrSessionRunning, got %v", err)
	}
	if _, err := svc.Play(ctx, info.ID, "up"); !errors.Is(err, service.ErrSessionRunning) {
		t.Errorf("Expected manual play to be refused, got %v", err)
	}

	waitFor(t, "first tick", func() bool {
		s, _ := svc.GetSnapshot(ctx, info.ID)
		return s.Ticks >= 1
	})

	state, err = svc.Stop(ctx, info.ID)
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if state.Running {
		t.Error("Expected session to be stopped")
	}
	if state.Direction != engine.Right || state.Head().Y != 2 {
		t.Errorf("Expected the snake steered right along y=2, got dir=%v head=%v", state.Direction, state.Head())
	}
	if !notifier.hasEvent(service.EventStarted) || !notifier.hasEvent(service.EventStopped) {
		t.Error("Expected started and stopped events")
	}

	if _, err := svc.Steer(ctx, info.ID, "diagonal"); !errors.Is(err, engine.ErrInvalidDirection) {
		t.Errorf("Expected ErrInvalidDirection, got %v", err)
	}
}

func TestGameService_DriverStopsAtGameOver(t *testing.T) {
	notifier := &recordingNotifier{}
	svc := newTestService(service.WithNotifier(notifier), service.WithTickInterval(time.Millisecond))
	ctx := context.Background()
	info := createSession(t, svc)

	if _, err := svc.Start(ctx, info.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	waitFor(t, "game over", func() bool {
		s, _ := svc.GetSnapshot(ctx, info.ID)
		return s.GameOver && !s.Running
	})

	state, _ := svc.GetSnapshot(ctx, info.ID)
	if state.GameOverCode != service.ReasonOnWall {
		t.Errorf("Expected on_wall, got %q", state.GameOverCode)
	}
	if state.Ticks != 5 {
		t.Errorf("Expected 5 ticks to reach the wall, got %d", state.Ticks)
	}
	if !notifier.hasEvent(service.EventGameOver) {
		t.Error("Expected a game over event")
	}
	waitFor(t, "stopped event", func() bool {
		return notifier.hasEvent(service.EventStopped)
	})

	if _, err := svc.Start(ctx, info.ID); !errors.Is(err, engine.ErrGameOver) {
		t.Errorf("Expected ErrGameOver when starting a finished game, got %v", err)
	}
}

func TestGameService_DeleteStopsDriver(t *testing.T) {
	svc := newTestService(service.WithTickInterval(time.Hour))
	ctx := context.Background()
	info := createSession(t, svc)

	if _, err := svc.Start(ctx, info.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := svc.DeleteSession(ctx, info.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.GetSession(ctx, info.ID); err == nil {
		t.Error("Expected deleted session to be gone")
	}
	sessions, _ := svc.ListSessions(ctx)
	if len(sessions) != 0 {
		t.Errorf("Expected no sessions, got %d", len(sessions))
	}
}

func TestGameService_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := service.NewMetrics(reg)
	svc := newTestService(service.WithMetrics(metrics))
	ctx := context.Background()

	info := createSession(t, svc)
	svc.Play(ctx, info.ID, "up")
	svc.BulkPlay(ctx, info.ID, []string{"up", "right", "right", "up", "up", "up", "up"})

	if got := testutil.ToFloat64(metrics.SessionsCreated); got != 1 {
		t.Errorf("Expected 1 session created, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Plays.WithLabelValues("manual")); got != 1 {
		t.Errorf("Expected 1 manual play, got %v", got)
	}
	// The sixth move hits the wall and the seventh never runs
	if got := testutil.ToFloat64(metrics.Plays.WithLabelValues("bulk")); got != 6 {
		t.Errorf("Expected 6 bulk plays, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.FoodEaten); got != 1 {
		t.Errorf("Expected 1 food eaten, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.GamesOver.WithLabelValues(service.ReasonOnWall)); got != 1 {
		t.Errorf("Expected 1 on_wall game over, got %v", got)
	}
}

func TestGameService_Levels(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	detail, err := svc.LoadLevel(ctx, "")
	if err != nil {
		t.Fatalf("LoadLevel failed: %v", err)
	}
	if detail.LevelID != "classic" || len(detail.Rows) != 8 || detail.Rows[0] != "wwwwwwwww" {
		t.Errorf("Unexpected default level %+v", detail)
	}
	if detail.Text != classicLevel {
		t.Errorf("Unexpected level text:\n%s", detail.Text)
	}

	info, err := svc.SaveLevel(ctx, "tiny", "3,1\n   \n2,0\n0,0")
	if err != nil {
		t.Fatalf("SaveLevel failed: %v", err)
	}
	if info.Width != 3 || info.Height != 1 || info.Walls != 0 {
		t.Errorf("Unexpected saved level %+v", info)
	}

	levels, err := svc.ListLevels(ctx)
	if err != nil {
		t.Fatalf("ListLevels failed: %v", err)
	}
	if len(levels) != 2 {
		t.Errorf("Expected 2 levels, got %d", len(levels))
	}

	session, err := svc.CreateSession(ctx, "tiny")
	if err != nil {
		t.Fatalf("CreateSession on saved level failed: %v", err)
	}
	if session.LevelName != "tiny" || session.State.Width != 3 {
		t.Errorf("Unexpected session %+v", session)
	}

	if _, err := svc.SaveLevel(ctx, "bad", "nope"); err == nil {
		t.Error("Expected invalid level text to be rejected")
	}
}

func TestRenderBoard(t *testing.T) {
	level, err := engine.ParseLevel(classicLevel)
	if err != nil {
		t.Fatalf("ParseLevel failed: %v", err)
	}

	// Head on its own body and food off the grid
	snake := []engine.Position{{X: 1, Y: 1}, {X: 2, Y: 1}, {X: 1, Y: 1}}
	rows := service.RenderBoard(level.Grid, snake, engine.Position{X: 20, Y: 20})
	if rows[1] != "#@o.....#" {
		t.Errorf("Expected head drawn over body, got %q", rows[1])
	}

	if service.RenderBoard(nil, snake, engine.Position{}) != nil {
		t.Error("Expected nil board for nil grid")
	}
}
