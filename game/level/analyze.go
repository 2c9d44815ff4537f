package level

import (
	"fmt"

	"github.com/gammazero/deque"
	"github.com/wricardo/snake-game/game/engine"
	"github.com/zyedidia/generic/mapset"
)

// Report describes the playable space of a level
type Report struct {
	Width         int             `json:"width"`
	Height        int             `json:"height"`
	Walls         int             `json:"walls"`
	Length        int             `json:"length"`
	Free          int             `json:"free"`      // non-wall cells not covered by the snake
	Reachable     int             `json:"reachable"` // non-wall cells connected to the head
	FoodReachable bool            `json:"food_reachable"`
	Head          engine.Position `json:"head"`
	Food          engine.Position `json:"food"`
	Warnings      []string        `json:"warnings,omitempty"`
}

// Analyze reports reachability from the snake head over non-wall cells.
// Snake cells count as passable since the body moves out of the way.
func Analyze(level *engine.Level) *Report {
	w, h := level.Grid.Dimension()
	report := &Report{
		Width:  w,
		Height: h,
		Walls:  level.Grid.Walls(),
		Length: len(level.Snake),
		Head:   level.Head(),
		Food:   level.Food,
	}
	report.Free = w*h - report.Walls - report.Length

	visited := mapset.New[engine.Position]()
	var queue deque.Deque[engine.Position]

	visited.Put(level.Head())
	queue.PushBack(level.Head())
	for queue.Len() > 0 {
		p := queue.PopFront()
		for _, d := range engine.Directions {
			dx, dy := d.Delta()
			next := p.Add(dx, dy)
			if level.Grid.OnWalls(next) || visited.Has(next) {
				continue
			}
			visited.Put(next)
			queue.PushBack(next)
		}
	}

	report.Reachable = visited.Size()
	report.FoodReachable = visited.Has(level.Food)

	if !report.FoodReachable {
		report.Warnings = append(report.Warnings, fmt.Sprintf("food %v is not reachable from the head %v", level.Food, level.Head()))
	}
	if unreachable := w*h - report.Walls - report.Reachable; unreachable > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%d free cells are enclosed and can receive food the snake cannot reach", unreachable))
	}
	if report.Free <= 1 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("only %d free cells: the board fills after the first meal", report.Free))
	}
	dx, dy := engine.Up.Delta()
	first := level.Head().Add(dx, dy)
	if level.Grid.OnWalls(first) {
		report.Warnings = append(report.Warnings, fmt.Sprintf("the first Up move from %v hits a wall", level.Head()))
	} else if report.Length > 2 && first == level.Snake[1] {
		report.Warnings = append(report.Warnings, "the snake starts heading Up into its own neck, the first move must turn")
	}

	return report
}

// OK reports whether the analysis found no warnings
func (r *Report) OK() bool {
	return len(r.Warnings) == 0
}
