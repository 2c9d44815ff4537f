package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/wricardo/snake-game/game/driver"
	"github.com/wricardo/snake-game/game/engine"
)

// DefaultTickInterval is the driver period when none is configured
const DefaultTickInterval = 200 * time.Millisecond

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	levels   LevelManager
	notifier Notifier
	metrics  *Metrics
	tick     time.Duration
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithNotifier pushes every state change to n
func WithNotifier(n Notifier) Option {
	return func(s *gameServiceImpl) {
		s.notifier = n
	}
}

// WithMetrics records plays and sessions in m
func WithMetrics(m *Metrics) Option {
	return func(s *gameServiceImpl) {
		s.metrics = m
	}
}

// WithTickInterval sets the period of the real-time driver
func WithTickInterval(d time.Duration) Option {
	return func(s *gameServiceImpl) {
		if d > 0 {
			s.tick = d
		}
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, levels LevelManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		levels:   levels,
		tick:     DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReasonCode maps a terminal engine error to a game over reason code
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrOnWall):
		return ReasonOnWall
	case errors.Is(err, engine.ErrOnSnake):
		return ReasonOnSnake
	case errors.Is(err, engine.ErrBoardFull):
		return ReasonBoardFull
	default:
		return ReasonGameOver
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, levelName string) (*SessionInfo, error) {
	var level *engine.Level
	var err error
	if levelName != "" {
		level, err = s.levels.LoadLevel(levelName)
		if err != nil {
			// Provide helpful error message with available options
			return nil, fmt.Errorf("failed to load level '%s' (available levels: %v): %w", levelName, s.levelIDs(), err)
		}
	} else {
		levelName, level = s.levels.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", levelName, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	if s.metrics != nil {
		s.metrics.SessionsCreated.Inc()
	}

	sess.Lock()
	defer sess.Unlock()
	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		sess.Lock()
		result = append(result, s.sessionInfo(sess))
		sess.Unlock()
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(sessionID)
}

// Play executes a single play for a session
func (s *gameServiceImpl) Play(ctx context.Context, sessionID, direction string) (*PlayResult, error) {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	if sess.Running() {
		sess.Unlock()
		return nil, ErrSessionRunning
	}

	outcome, err := s.play(sess, dir, "manual")
	if err != nil {
		sess.Unlock()
		return nil, fmt.Errorf("session %s: %w", sess.ID, err)
	}
	state := s.state(sess)
	state.FoodAte = outcome.step.FoodAte
	sess.Unlock()

	result := &PlayResult{
		Success:   outcome.err == nil,
		State:     state,
		Requested: dir,
		Applied:   outcome.applied,
		FoodAte:   outcome.step.FoodAte,
		Step:      &outcome.step,
		Events:    outcome.events,
	}
	if outcome.err != nil {
		result.GameOverCode = ReasonCode(outcome.err)
		result.Message = outcome.err.Error()
	}

	s.notify(sessionID, state, outcome.events...)
	return result, nil
}

// BulkPlay executes several plays in order, stopping at the first game over
func (s *gameServiceImpl) BulkPlay(ctx context.Context, sessionID string, directions []string) (*BulkPlayResult, error) {
	if len(directions) == 0 {
		return nil, errors.New("no directions given")
	}
	if len(directions) > MaxBulkMoves {
		return nil, fmt.Errorf("%w: %d directions, limit is %d", ErrTooManyMoves, len(directions), MaxBulkMoves)
	}

	dirs := make([]engine.Direction, len(directions))
	for i, d := range directions {
		dir, err := engine.ParseDirection(d)
		if err != nil {
			return nil, fmt.Errorf("direction %d: %w", i+1, err)
		}
		dirs[i] = dir
	}

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	if sess.Running() {
		sess.Unlock()
		return nil, ErrSessionRunning
	}
	if err := sess.Engine.Err(); err != nil {
		sess.Unlock()
		return nil, fmt.Errorf("session %s: %w: %w", sess.ID, engine.ErrGameOver, err)
	}

	start := sess.Engine.Snapshot()
	startScore := sess.Score

	result := &BulkPlayResult{
		RequestedMoves: len(dirs),
		Success:        true,
		Events:         make([]GameEvent, 0),
		StartHead:      start.Head(),
		StartLength:    start.Len(),
	}

	for i, dir := range dirs {
		if err := ctx.Err(); err != nil {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("cancelled before move %d: %v", i+1, err)
			result.StoppedOnMove = i + 1
			break
		}

		outcome, err := s.play(sess, dir, "bulk")
		if err != nil {
			sess.Unlock()
			return nil, fmt.Errorf("session %s: %w", sess.ID, err)
		}
		outcome.step.Idx = i + 1
		result.Steps = append(result.Steps, outcome.step)
		result.Events = append(result.Events, outcome.events...)

		if outcome.err != nil {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d (%s): %v", i+1, dir, outcome.err)
			result.StopReasonCode = ReasonCode(outcome.err)
			result.StoppedOnMove = i + 1
			break
		}
		result.MovesExecuted++
	}

	state := s.state(sess)
	if n := len(result.Steps); n > 0 {
		state.FoodAte = result.Steps[n-1].FoodAte
	}
	result.State = state
	result.EndHead = state.Head()
	result.EndLength = state.Length
	result.ScoreDelta = sess.Score - startScore
	sess.Unlock()

	s.notify(sessionID, state, result.Events...)
	return result, nil
}

// Reset stops any driver and starts a new run of the session's level
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*GameState, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	// Start may win the lock between Close and Lock; stop that driver too
	for {
		sess.Close()
		sess.Lock()
		if !sess.Running() {
			break
		}
		sess.Unlock()
	}

	if err := sess.Restart(); err != nil {
		sess.Unlock()
		return nil, err
	}
	state := s.state(sess)
	sess.Unlock()

	s.notify(sessionID, state, GameEvent{
		Type:      EventReset,
		Message:   "Game reset to initial state",
		Timestamp: time.Now(),
		Position:  state.Head(),
	})
	return state, nil
}

// Steer records the direction the next tick will request
func (s *gameServiceImpl) Steer(ctx context.Context, sessionID, direction string) (*GameState, error) {
	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	sess.Requested = dir
	if sess.driver != nil {
		sess.driver.Steer(dir)
	}
	return s.state(sess), nil
}

// Start drives the session from a ticker until the game ends or Stop is called
func (s *gameServiceImpl) Start(ctx context.Context, sessionID string) (*GameState, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	if sess.Running() {
		sess.Unlock()
		return nil, ErrSessionRunning
	}
	if err := sess.Engine.Err(); err != nil {
		sess.Unlock()
		return nil, fmt.Errorf("session %s: %w: %w", sess.ID, engine.ErrGameOver, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	player := &sessionPlayer{service: s, session: sess}
	d := driver.New(player, sess.Requested, func(t driver.Tick) {
		s.onTick(sess, player, t)
	})
	done := make(chan struct{})
	sess.driver, sess.cancel, sess.done = d, cancel, done
	state := s.state(sess)
	sess.Unlock()

	if s.metrics != nil {
		s.metrics.RunningDrivers.Inc()
	}
	go s.drive(runCtx, sess, d, done)

	s.notify(sessionID, state, GameEvent{
		Type:      EventStarted,
		Message:   fmt.Sprintf("Driver started, one move every %s", s.tick),
		Timestamp: time.Now(),
		Position:  state.Head(),
	})
	return state, nil
}

// Stop halts the session's driver
func (s *gameServiceImpl) Stop(ctx context.Context, sessionID string) (*GameState, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	running := sess.Running()
	sess.Unlock()
	if !running {
		return nil, ErrSessionNotRunning
	}

	sess.Close()

	sess.Lock()
	defer sess.Unlock()
	return s.state(sess), nil
}

// GetSnapshot retrieves the current game state
func (s *gameServiceImpl) GetSnapshot(ctx context.Context, sessionID string) (*GameState, error) {
	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	return s.state(sess), nil
}

// ListLevels returns available levels
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// LoadLevel loads a level with its rows. An empty name loads the default.
func (s *gameServiceImpl) LoadLevel(ctx context.Context, levelName string) (*LevelDetail, error) {
	if levelName == "" {
		name, level := s.levels.GetDefault()
		return NewLevelDetail(name, level), nil
	}

	level, err := s.levels.LoadLevel(levelName)
	if err != nil {
		return nil, err
	}
	return NewLevelDetail(levelName, level), nil
}

// SaveLevel validates and stores level text under levelName
func (s *gameServiceImpl) SaveLevel(ctx context.Context, levelName, text string) (*LevelInfo, error) {
	level, err := s.levels.SaveLevel(levelName, text)
	if err != nil {
		return nil, err
	}
	return NewLevelInfo(levelName, level), nil
}

func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) levelIDs() []string {
	levels, err := s.levels.ListLevels()
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(levels))
	for _, l := range levels {
		ids = append(ids, l.LevelID)
	}
	return ids
}

// playOutcome is one engine play seen from the service
type playOutcome struct {
	step    StepInfo
	applied engine.Direction
	events  []GameEvent
	err     error // terminal error of this play
}

// play runs one engine tick and updates the session counters. A latched
// engine is reported through the returned error, a game ending on this play
// through outcome.err. The caller holds the session lock.
func (s *gameServiceImpl) play(sess *Session, dir engine.Direction, source string) (playOutcome, error) {
	prev := sess.Engine.Direction()
	from := sess.Engine.Snapshot().Head()

	started := time.Now()
	snap, err := sess.Engine.Play(dir)
	elapsed := time.Since(started)

	if errors.Is(err, engine.ErrGameOver) {
		return playOutcome{}, err
	}

	applied := dir
	if !prev.Allows(dir) {
		applied = prev
	}

	sess.Requested = dir
	sess.Ticks++
	if err == nil && snap.FoodAte {
		sess.Score++
	}

	reason := ""
	if err != nil {
		reason = ReasonCode(err)
	}
	s.metrics.observePlay(source, elapsed.Seconds(), snap.FoodAte, reason)

	to := sess.Engine.Snapshot().Head()
	now := time.Now()
	outcome := playOutcome{
		applied: applied,
		err:     err,
		step: StepInfo{
			Idx:     1,
			Dir:     dir.String(),
			Applied: applied.String(),
			From:    from,
			To:      to,
			FoodAte: snap.FoodAte,
			Length:  sess.Engine.Len(),
			Success: err == nil,
		},
	}

	if err != nil {
		outcome.events = append(outcome.events, GameEvent{
			Type:      EventGameOver,
			Message:   err.Error(),
			Code:      reason,
			Timestamp: now,
			Position:  to,
		})
		return outcome, nil
	}

	outcome.events = append(outcome.events, GameEvent{
		Type:      EventPlay,
		Message:   fmt.Sprintf("Moved %s to (%d,%d)", applied, to.X, to.Y),
		Timestamp: now,
		Position:  to,
	})
	if snap.FoodAte {
		outcome.events = append(outcome.events, GameEvent{
			Type:      EventFood,
			Message:   fmt.Sprintf("Food eaten! Score: %d, new food at (%d,%d)", sess.Score, snap.Food.X, snap.Food.Y),
			Timestamp: now,
			Position:  to,
		})
	}
	return outcome, nil
}

// sessionPlayer adapts a session to driver.Player under the session lock
type sessionPlayer struct {
	service *gameServiceImpl
	session *Session
	last    playOutcome
}

func (p *sessionPlayer) Play(dir engine.Direction) (engine.Snapshot, error) {
	p.session.Lock()
	defer p.session.Unlock()

	outcome, err := p.service.play(p.session, dir, "tick")
	p.last = playOutcome{}
	if err != nil {
		return engine.Snapshot{}, err
	}
	p.last = outcome
	if outcome.err != nil {
		return engine.Snapshot{}, outcome.err
	}
	return p.session.Engine.Snapshot(), nil
}

func (s *gameServiceImpl) onTick(sess *Session, player *sessionPlayer, t driver.Tick) {
	sess.Lock()
	state := s.state(sess)
	state.FoodAte = t.Snapshot.FoodAte
	events := player.last.events
	sess.Unlock()

	if t.Err != nil {
		log.Printf("[TICK] session=%s seq=%d dir=%s stop=%s: %v", sess.ID, t.Seq, t.Direction, ReasonCode(t.Err), t.Err)
	}
	s.notify(sess.ID, state, events...)
}

// drive owns the ticker for one driver run
func (s *gameServiceImpl) drive(ctx context.Context, sess *Session, d *driver.Driver, done chan struct{}) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	err := d.Run(ctx, ticker.C)

	sess.Lock()
	sess.driver, sess.cancel, sess.done = nil, nil, nil
	state := s.state(sess)
	sess.Unlock()
	close(done)

	if s.metrics != nil {
		s.metrics.RunningDrivers.Dec()
	}

	message := "Driver stopped"
	if err != nil && !errors.Is(err, context.Canceled) {
		message = fmt.Sprintf("Driver stopped: %v", err)
	}
	s.notify(sess.ID, state, GameEvent{
		Type:      EventStopped,
		Message:   message,
		Code:      state.GameOverCode,
		Timestamp: time.Now(),
		Position:  state.Head(),
	})
}

// sessionInfo builds the API view of a session. The caller holds the lock.
func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		RunID:          sess.RunID,
		LevelName:      sess.LevelName,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		State:          s.state(sess),
	}
}

// state builds the serializable game state. The caller holds the lock.
func (s *gameServiceImpl) state(sess *Session) *GameState {
	snap := sess.Engine.Snapshot()
	w, h := sess.Engine.Dimension()

	state := &GameState{
		SessionID: sess.ID,
		RunID:     sess.RunID,
		Level:     sess.LevelName,
		Width:     w,
		Height:    h,
		Snake:     snap.Snake,
		Food:      snap.Food,
		Direction: sess.Engine.Direction(),
		Requested: sess.Requested,
		Length:    snap.Len(),
		Score:     sess.Score,
		Ticks:     sess.Ticks,
		Running:   sess.Running(),
	}
	if sess.Level != nil {
		state.Board = RenderBoard(sess.Level.Grid, snap.Snake, snap.Food)
	}
	if err := sess.Engine.Err(); err != nil {
		state.GameOver = true
		state.GameOverCode = ReasonCode(err)
		state.Message = err.Error()
	}
	return state
}

func (s *gameServiceImpl) notify(sessionID string, state *GameState, events ...GameEvent) {
	if s.notifier == nil {
		return
	}
	for _, event := range events {
		s.notifier.BroadcastEvent(sessionID, event)
	}
	if state != nil {
		s.notifier.BroadcastState(sessionID, state)
	}
}
