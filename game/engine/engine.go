package engine

import (
	"fmt"
	"math/rand/v2"

	"github.com/gammazero/deque"
)

// Engine runs one snake on one grid. It is not safe for concurrent use: the
// owner must serialize Play, Snapshot and the other accessors.
type Engine struct {
	grid      *Grid
	head      Position
	body      deque.Deque[Position] // neck first, tail last
	food      Position
	direction Direction
	growth    int

	rng      RandomSource
	latch    bool
	terminal error
}

// Option configures an Engine
type Option func(*Engine)

// WithRandom sets the random source used for food placement
func WithRandom(r RandomSource) Option {
	return func(e *Engine) {
		e.rng = r
	}
}

// WithSeed uses a PCG source seeded with seed for food placement
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewPCG(seed, seed))
	}
}

// WithGameOverLatch makes Play refuse to run after a terminal error
func WithGameOverLatch() Option {
	return func(e *Engine) {
		e.latch = true
	}
}

// NewEngine creates an engine positioned at the level's initial state,
// heading Up with no pending growth
func NewEngine(level *Level, opts ...Option) (*Engine, error) {
	if level == nil || level.Grid == nil || len(level.Snake) == 0 {
		return nil, ErrNilLevel
	}

	e := &Engine{
		grid:      level.Grid,
		head:      level.Head(),
		food:      level.Food,
		direction: Up,
	}
	for _, p := range level.Body() {
		e.body.PushBack(p)
	}

	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = newDefaultRandom()
	}

	return e, nil
}

// Parse builds an engine from level text
func Parse(text string, opts ...Option) (*Engine, error) {
	level, err := ParseLevel(text)
	if err != nil {
		return nil, err
	}
	return NewEngine(level, opts...)
}

// Play advances the snake one cell. A request to reverse is ignored and the
// current direction is used instead. On OnWall/OnSnake the body and head
// moves stay applied and the error is returned.
func (e *Engine) Play(requested Direction) (Snapshot, error) {
	if e.latch && e.terminal != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrGameOver, e.terminal)
	}

	direction := requested
	if !e.direction.Allows(requested) {
		direction = e.direction
	}

	e.moveBody()
	e.moveHead(direction)

	if e.grid.OnWalls(e.head) {
		return Snapshot{}, e.fail(OnWall(e.head))
	}
	if e.onBody(e.head) {
		return Snapshot{}, e.fail(OnSnake(e.head))
	}

	foodAte := e.head == e.food
	if foodAte {
		e.growth = 1
		food, err := e.placeFood()
		if err != nil {
			e.direction = direction
			return Snapshot{}, e.fail(err)
		}
		e.food = food
	}

	e.direction = direction

	return e.snapshot(foodAte), nil
}

// Snapshot returns the current state without changing it
func (e *Engine) Snapshot() Snapshot {
	return e.snapshot(false)
}

// Dimension returns the grid width and height
func (e *Engine) Dimension() (int, int) {
	return e.grid.Dimension()
}

// OnWalls reports whether p is outside the grid or on a wall
func (e *Engine) OnWalls(p Position) bool {
	return e.grid.OnWalls(p)
}

// Grid returns the engine's wall map
func (e *Engine) Grid() *Grid {
	return e.grid
}

// Direction returns the current heading
func (e *Engine) Direction() Direction {
	return e.direction
}

// Len returns the snake length including the head
func (e *Engine) Len() int {
	return 1 + e.body.Len()
}

// Err returns the last terminal error returned by Play, if any
func (e *Engine) Err() error {
	return e.terminal
}

func (e *Engine) fail(err error) error {
	e.terminal = err
	return err
}

func (e *Engine) snapshot(foodAte bool) Snapshot {
	snake := make([]Position, 0, e.Len())
	snake = append(snake, e.head)
	for i := 0; i < e.body.Len(); i++ {
		snake = append(snake, e.body.At(i))
	}
	return Snapshot{
		Snake:   snake,
		Food:    e.food,
		FoodAte: foodAte,
	}
}

// moveBody shifts the body one step behind the head. While growing the
// tail is kept, otherwise it moves to the front.
func (e *Engine) moveBody() {
	if e.growth > 0 {
		e.body.PushFront(e.head)
		e.growth--
		return
	}
	if e.body.Len() == 0 {
		return
	}
	e.body.PopBack()
	e.body.PushFront(e.head)
}

func (e *Engine) moveHead(direction Direction) {
	dx, dy := direction.Delta()
	e.head = e.head.Add(dx, dy)
}

func (e *Engine) onBody(p Position) bool {
	return e.body.Index(func(segment Position) bool { return segment == p }) >= 0
}
