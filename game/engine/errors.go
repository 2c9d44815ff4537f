package engine

import (
	"errors"
	"fmt"
)

var (
	ErrOnWall           = errors.New("snake is on the wall")
	ErrOnSnake          = errors.New("snake is eating itself")
	ErrBoardFull        = errors.New("no free cell left for food")
	ErrGameOver         = errors.New("game is over")
	ErrInvalidDirection = errors.New("invalid direction")
	ErrNilLevel         = errors.New("level cannot be nil")
)

// ParseError reports malformed level text
type ParseError struct {
	Line int // 1-based source line, 0 when the problem is not tied to a line
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("level line %d: %s", e.Line, msg)
	}
	return "level: " + msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// CollisionError is returned by Play when the head lands on a wall, outside
// the grid, or on the body. Kind is ErrOnWall or ErrOnSnake.
type CollisionError struct {
	Kind     error
	Position Position
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("%v at %v", e.Kind, e.Position)
}

func (e *CollisionError) Unwrap() error {
	return e.Kind
}

// OnWall builds the error for a head that left the playable area
func OnWall(p Position) error {
	return &CollisionError{Kind: ErrOnWall, Position: p}
}

// OnSnake builds the error for a head that ran into the body
func OnSnake(p Position) error {
	return &CollisionError{Kind: ErrOnSnake, Position: p}
}

// IsTerminal reports whether err ends a game
func IsTerminal(err error) bool {
	return errors.Is(err, ErrOnWall) || errors.Is(err, ErrOnSnake) || errors.Is(err, ErrBoardFull)
}
