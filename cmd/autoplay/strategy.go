package main

import (
	"github.com/gammazero/deque"
	"github.com/wricardo/snake-game/game/engine"
	"github.com/wricardo/snake-game/game/service"
	"github.com/zyedidia/generic/mapset"
)

// Planner picks the next direction from a game state. It walks the shortest
// path to the food and, when the food is cut off, takes the neighbour that
// leaves the most room.
type Planner struct {
	width, height int
	walls         mapset.Set[engine.Position]
}

// NewPlanner reads the walls from the rendered board of state
func NewPlanner(state *service.GameState) *Planner {
	p := &Planner{
		width:  state.Width,
		height: state.Height,
		walls:  mapset.New[engine.Position](),
	}
	for y, row := range state.Board {
		for x := 0; x < len(row); x++ {
			if row[x] == service.BoardWall {
				p.walls.Put(engine.Position{X: x, Y: y})
			}
		}
	}
	return p
}

func (p *Planner) inBounds(pos engine.Position) bool {
	return pos.X >= 0 && pos.Y >= 0 && pos.X < p.width && pos.Y < p.height
}

// blocked returns the cells the head may not enter on the next step. The tail
// moves away on that step unless the snake has just eaten and is growing.
func (p *Planner) blocked(snake []engine.Position, growing bool) mapset.Set[engine.Position] {
	cells := mapset.New[engine.Position]()
	end := len(snake) - 1
	if growing {
		end = len(snake)
	}
	for i := 1; i < end; i++ {
		cells.Put(snake[i])
	}
	return cells
}

func (p *Planner) free(pos engine.Position, body mapset.Set[engine.Position]) bool {
	return p.inBounds(pos) && !p.walls.Has(pos) && !body.Has(pos)
}

// Next returns the direction to play, and false when every neighbour is fatal
func (p *Planner) Next(state *service.GameState) (engine.Direction, bool) {
	if len(state.Snake) == 0 {
		return engine.Up, false
	}
	head := state.Snake[0]
	body := p.blocked(state.Snake, state.FoodAte)

	if d, ok := p.pathTo(head, state.Food, state.Direction, body); ok {
		return d, true
	}

	best, bestRoom := engine.Up, -1
	for _, d := range engine.Directions {
		if !state.Direction.Allows(d) {
			continue
		}
		dx, dy := d.Delta()
		next := head.Add(dx, dy)
		if !p.free(next, body) {
			continue
		}
		if room := p.room(next, body); room > bestRoom {
			best, bestRoom = d, room
		}
	}
	return best, bestRoom >= 0
}

// pathTo runs a breadth-first search from head and returns the first step of
// a shortest path to target
func (p *Planner) pathTo(head, target engine.Position, heading engine.Direction, body mapset.Set[engine.Position]) (engine.Direction, bool) {
	type node struct {
		pos   engine.Position
		first engine.Direction
	}

	visited := mapset.New[engine.Position]()
	visited.Put(head)
	var queue deque.Deque[node]

	for _, d := range engine.Directions {
		if !heading.Allows(d) {
			continue
		}
		dx, dy := d.Delta()
		next := head.Add(dx, dy)
		if !p.free(next, body) {
			continue
		}
		visited.Put(next)
		queue.PushBack(node{pos: next, first: d})
	}

	for queue.Len() > 0 {
		n := queue.PopFront()
		if n.pos == target {
			return n.first, true
		}
		for _, d := range engine.Directions {
			dx, dy := d.Delta()
			next := n.pos.Add(dx, dy)
			if visited.Has(next) || !p.free(next, body) {
				continue
			}
			visited.Put(next)
			queue.PushBack(node{pos: next, first: n.first})
		}
	}
	return engine.Up, false
}

// room counts the free cells connected to start
func (p *Planner) room(start engine.Position, body mapset.Set[engine.Position]) int {
	visited := mapset.New[engine.Position]()
	visited.Put(start)
	var queue deque.Deque[engine.Position]
	queue.PushBack(start)

	for queue.Len() > 0 {
		pos := queue.PopFront()
		for _, d := range engine.Directions {
			dx, dy := d.Delta()
			next := pos.Add(dx, dy)
			if visited.Has(next) || !p.free(next, body) {
				continue
			}
			visited.Put(next)
			queue.PushBack(next)
		}
	}
	return visited.Size()
}
