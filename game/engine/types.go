package engine

import (
	"fmt"
	"strings"
)

// CellField represents the content of a single grid cell
type CellField uint8

const (
	Empty CellField = iota
	Wall
)

// Level text characters
const (
	emptyChar = ' '
	wallChar  = 'w'
)

func (c CellField) String() string {
	if c == Wall {
		return "wall"
	}
	return "empty"
}

// Position represents x,y coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the position moved by dx, dy
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Adjacent reports whether q is exactly one unit step away from p
func (p Position) Adjacent(q Position) bool {
	dx, dy := p.X-q.X, p.Y-q.Y
	return dx*dx+dy*dy == 1
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction is one of the four cardinal moves. The zero value is Up.
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every direction in declaration order
var Directions = []Direction{Up, Down, Left, Right}

var directionNames = [...]string{
	Up:    "up",
	Down:  "down",
	Left:  "left",
	Right: "right",
}

// ParseDirection converts "up", "down", "left" or "right" (any case) to a Direction
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	}
	return Up, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// Opposite returns the direction pointing the other way
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

// Allows reports whether a snake heading d may turn to other.
// Only a 180° reversal is disallowed.
func (d Direction) Allows(other Direction) bool {
	return other != d.Opposite()
}

// Delta returns the unit step for the direction. Up increases y.
func (d Direction) Delta() (dx, dy int) {
	switch d {
	case Up:
		return 0, 1
	case Down:
		return 0, -1
	case Left:
		return -1, 0
	default:
		return 1, 0
	}
}

// MarshalText encodes the direction as its lower-case name
func (d Direction) MarshalText() ([]byte, error) {
	if int(d) >= len(directionNames) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDirection, uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Snapshot is a read-only view of the engine at a tick boundary
type Snapshot struct {
	// Snake holds the head first, then the body from neck to tail
	Snake   []Position `json:"snake"`
	Food    Position   `json:"food"`
	FoodAte bool       `json:"food_ate"`
}

// Head returns the head position, or the zero position for an empty snapshot
func (s Snapshot) Head() Position {
	if len(s.Snake) == 0 {
		return Position{}
	}
	return s.Snake[0]
}

// Len returns the number of snake segments including the head
func (s Snapshot) Len() int {
	return len(s.Snake)
}
