package service

import (
	"time"

	"github.com/wricardo/snake-game/game/engine"
)

// Game over reason codes
const (
	ReasonOnWall    = "on_wall"
	ReasonOnSnake   = "on_snake"
	ReasonBoardFull = "board_full"
	ReasonGameOver  = "game_over"
)

// Event types pushed to notifiers and returned in results
const (
	EventPlay     = "play"
	EventFood     = "food"
	EventGameOver = "game_over"
	EventReset    = "reset"
	EventStarted  = "started"
	EventStopped  = "stopped"
	EventSteer    = "steer"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string     `json:"id"`
	RunID          string     `json:"run_id"`
	LevelName      string     `json:"level_name"`
	CreatedAt      time.Time  `json:"created_at"`
	LastAccessedAt time.Time  `json:"last_accessed_at"`
	State          *GameState `json:"state"`
}

// GameState is the serializable view of a session's engine
type GameState struct {
	SessionID    string            `json:"session_id"`
	RunID        string            `json:"run_id"`
	Level        string            `json:"level"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Snake        []engine.Position `json:"snake"`
	Food         engine.Position   `json:"food"`
	FoodAte      bool              `json:"food_ate"`
	Direction    engine.Direction  `json:"direction"`
	Requested    engine.Direction  `json:"requested"`
	Length       int               `json:"length"`
	Score        int               `json:"score"`
	Ticks        int               `json:"ticks"`
	Running      bool              `json:"running"`
	GameOver     bool              `json:"game_over"`
	GameOverCode string            `json:"game_over_code,omitempty"`
	Message      string            `json:"message,omitempty"`
	Board        []string          `json:"board,omitempty"`
}

// Board cell characters
const (
	BoardWall  = '#'
	BoardEmpty = '.'
	BoardHead  = '@'
	BoardBody  = 'o'
	BoardFood  = '*'
)

// RenderBoard draws the grid with the snake and food on top, one string per row
func RenderBoard(grid *engine.Grid, snake []engine.Position, food engine.Position) []string {
	if grid == nil {
		return nil
	}
	w, h := grid.Dimension()
	cells := make([][]byte, h)
	for y := range cells {
		cells[y] = make([]byte, w)
		for x := range cells[y] {
			if grid.OnWalls(engine.Position{X: x, Y: y}) {
				cells[y][x] = BoardWall
			} else {
				cells[y][x] = BoardEmpty
			}
		}
	}

	put := func(p engine.Position, c byte) {
		if grid.InBounds(p) {
			cells[p.Y][p.X] = c
		}
	}
	put(food, BoardFood)
	// Tail first so the head wins when a collision put it on the body
	for i := len(snake) - 1; i > 0; i-- {
		put(snake[i], BoardBody)
	}
	if len(snake) > 0 {
		put(snake[0], BoardHead)
	}

	rows := make([]string, h)
	for y := range cells {
		rows[y] = string(cells[y])
	}
	return rows
}

// Head returns the snake head, or the zero position for an empty state
func (s *GameState) Head() engine.Position {
	if s == nil || len(s.Snake) == 0 {
		return engine.Position{}
	}
	return s.Snake[0]
}

// PlayResult contains the result of a single play
type PlayResult struct {
	Success      bool             `json:"success"`
	State        *GameState       `json:"state"`
	Requested    engine.Direction `json:"requested"`
	Applied      engine.Direction `json:"applied"`
	FoodAte      bool             `json:"food_ate"`
	Step         *StepInfo        `json:"step,omitempty"`
	Events       []GameEvent      `json:"events,omitempty"`
	GameOverCode string           `json:"game_over_code,omitempty"`
	Message      string           `json:"message,omitempty"`
}

// BulkPlayResult contains the result of multiple plays
type BulkPlayResult struct {
	// Summary
	MovesExecuted  int         `json:"moves_executed"`
	RequestedMoves int         `json:"requested_moves"`
	Success        bool        `json:"success"`
	State          *GameState  `json:"state"`
	Events         []GameEvent `json:"events"`
	StoppedReason  string      `json:"stopped_reason,omitempty"`
	StopReasonCode string      `json:"stop_reason_code,omitempty"` // on_wall|on_snake|board_full|game_over
	StoppedOnMove  int         `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop

	// Start/end snapshot
	StartHead   engine.Position `json:"start_head"`
	EndHead     engine.Position `json:"end_head"`
	StartLength int             `json:"start_length"`
	EndLength   int             `json:"end_length"`
	ScoreDelta  int             `json:"score_delta"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`
}

// StepInfo is a compact record for one play
type StepInfo struct {
	Idx     int             `json:"idx"`
	Dir     string          `json:"dir"`
	Applied string          `json:"applied"`
	From    engine.Position `json:"from"`
	To      engine.Position `json:"to"`
	FoodAte bool            `json:"food_ate,omitempty"`
	Length  int             `json:"length"`
	Success bool            `json:"success"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string          `json:"type"` // "play", "food", "game_over", "reset", "started", "stopped", "steer"
	Message   string          `json:"message"`
	Code      string          `json:"code,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Position  engine.Position `json:"position"`
}

// LevelInfo provides information about a level
type LevelInfo struct {
	Filename string          `json:"filename,omitempty"`
	LevelID  string          `json:"level_id"` // The identifier to use for session creation
	Width    int             `json:"width"`
	Height   int             `json:"height"`
	Walls    int             `json:"walls"`
	Length   int             `json:"length"`
	Food     engine.Position `json:"food"`
	Builtin  bool            `json:"builtin,omitempty"`
}

// LevelDetail is a level with its rows and source text
type LevelDetail struct {
	LevelInfo
	Rows  []string          `json:"rows"`
	Snake []engine.Position `json:"snake"`
	Text  string            `json:"text"`
}

// NewLevelInfo summarizes a parsed level
func NewLevelInfo(id string, level *engine.Level) *LevelInfo {
	w, h := level.Grid.Dimension()
	return &LevelInfo{
		LevelID: id,
		Width:   w,
		Height:  h,
		Walls:   level.Grid.Walls(),
		Length:  len(level.Snake),
		Food:    level.Food,
	}
}

// NewLevelDetail expands a parsed level with its rows and text
func NewLevelDetail(id string, level *engine.Level) *LevelDetail {
	_, h := level.Grid.Dimension()
	rows := make([]string, h)
	for y := 0; y < h; y++ {
		rows[y] = level.Grid.Row(y)
	}
	return &LevelDetail{
		LevelInfo: *NewLevelInfo(id, level),
		Rows:      rows,
		Snake:     append([]engine.Position(nil), level.Snake...),
		Text:      level.String(),
	}
}
