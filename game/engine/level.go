package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Level is the parsed form of a level description: the wall map, the initial
// food position and the initial snake (head first, then neck to tail).
type Level struct {
	Grid  *Grid
	Food  Position
	Snake []Position
}

// Head returns the initial head position
func (l *Level) Head() Position {
	return l.Snake[0]
}

// Body returns the initial body, neck to tail
func (l *Level) Body() []Position {
	return l.Snake[1:]
}

// String encodes the level back into the text format accepted by ParseLevel
func (l *Level) String() string {
	w, h := l.Grid.Dimension()

	var b strings.Builder
	fmt.Fprintf(&b, "%d,%d\n", w, h)
	for y := 0; y < h; y++ {
		b.WriteString(l.Grid.Row(y))
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "%d,%d\n", l.Food.X, l.Food.Y)

	segments := make([]string, len(l.Snake))
	for i, p := range l.Snake {
		segments[i] = fmt.Sprintf("%d,%d", p.X, p.Y)
	}
	b.WriteString(strings.Join(segments, ";"))
	b.WriteByte('\n')
	return b.String()
}

type sourceLine struct {
	num  int
	text string
}

// ParseLevel parses level text. Blank lines are ignored. The format is:
//
//	width,height
//	<height rows of at least width characters, ' ' empty or 'w' wall>
//	food_x,food_y
//	head_x,head_y;x,y;...
func ParseLevel(text string) (*Level, error) {
	var lines []sourceLine
	for i, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSuffix(raw, "\r")
		if raw == "" {
			continue
		}
		lines = append(lines, sourceLine{num: i + 1, text: raw})
	}

	next := 0
	take := func(what string) (sourceLine, error) {
		if next >= len(lines) {
			return sourceLine{}, &ParseError{Msg: "missing " + what}
		}
		line := lines[next]
		next++
		return line, nil
	}

	header, err := take("dimension line")
	if err != nil {
		return nil, err
	}
	w, h, err := parsePair(header.text)
	if err != nil {
		return nil, &ParseError{Line: header.num, Msg: "invalid dimension", Err: err}
	}
	if w <= 0 || h <= 0 {
		return nil, &ParseError{Line: header.num, Msg: fmt.Sprintf("dimension must be positive, got %d,%d", w, h)}
	}

	// h comes from the input, so check it against the text before allocating
	if remaining := len(lines) - next; remaining < h {
		return nil, &ParseError{Msg: fmt.Sprintf("missing grid row %d of %d", remaining+1, h)}
	}
	rows := make([][]CellField, h)
	for y := 0; y < h; y++ {
		line, err := take(fmt.Sprintf("grid row %d of %d", y+1, h))
		if err != nil {
			return nil, err
		}
		if len(line.text) < w {
			return nil, &ParseError{Line: line.num, Msg: fmt.Sprintf("row has %d cells, want at least %d", len(line.text), w)}
		}
		row := make([]CellField, w)
		for x := 0; x < w; x++ {
			switch line.text[x] {
			case emptyChar:
				row[x] = Empty
			case wallChar:
				row[x] = Wall
			default:
				r, _ := utf8.DecodeRuneInString(line.text[x:])
				return nil, &ParseError{Line: line.num, Msg: fmt.Sprintf("unexpected cell character %q at column %d", r, x+1)}
			}
		}
		rows[y] = row
	}

	foodLine, err := take("food line")
	if err != nil {
		return nil, err
	}
	fx, fy, err := parsePair(foodLine.text)
	if err != nil {
		return nil, &ParseError{Line: foodLine.num, Msg: "invalid food position", Err: err}
	}

	snakeLine, err := take("snake line")
	if err != nil {
		return nil, err
	}
	var snake []Position
	for _, token := range strings.Split(snakeLine.text, ";") {
		if strings.TrimSpace(token) == "" {
			continue
		}
		x, y, err := parsePair(token)
		if err != nil {
			return nil, &ParseError{Line: snakeLine.num, Msg: fmt.Sprintf("invalid snake segment %d", len(snake)+1), Err: err}
		}
		snake = append(snake, Position{X: x, Y: y})
	}
	if len(snake) == 0 {
		return nil, &ParseError{Line: snakeLine.num, Msg: "snake needs at least a head"}
	}

	level := &Level{
		Grid:  NewGrid(rows),
		Food:  Position{X: fx, Y: fy},
		Snake: snake,
	}
	if err := level.validate(); err != nil {
		return nil, err
	}
	return level, nil
}

// validate checks the invariants the engine relies on between ticks
func (l *Level) validate() error {
	if l.Grid.OnWalls(l.Food) {
		return &ParseError{Msg: fmt.Sprintf("food %v is on a wall or outside the grid", l.Food)}
	}

	seen := make(map[Position]bool, len(l.Snake))
	for i, p := range l.Snake {
		if l.Grid.OnWalls(p) {
			return &ParseError{Msg: fmt.Sprintf("snake segment %d %v is on a wall or outside the grid", i+1, p)}
		}
		if seen[p] {
			return &ParseError{Msg: fmt.Sprintf("snake segment %d %v overlaps another segment", i+1, p)}
		}
		seen[p] = true
		if i > 0 && !l.Snake[i-1].Adjacent(p) {
			return &ParseError{Msg: fmt.Sprintf("snake segment %d %v is not adjacent to %v", i+1, p, l.Snake[i-1])}
		}
	}

	if seen[l.Food] {
		return &ParseError{Msg: fmt.Sprintf("food %v is on the snake", l.Food)}
	}
	return nil
}

func parsePair(s string) (int, int, error) {
	left, right, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, errors.New("expected x,y")
	}
	a, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil {
		return 0, 0, err
	}
	b, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil {
		return 0, 0, err
	}
	if a < 0 || b < 0 {
		return 0, 0, fmt.Errorf("negative value in %q", s)
	}
	return a, b, nil
}
