package engine

import (
	"math/rand/v2"
	"time"

	"github.com/zyedidia/generic/mapset"
)

// RandomSource yields uniform integers in [0, n). *rand.Rand satisfies it.
// Engines consume it synchronously inside Play, so a source must not be
// shared by engines driven from different goroutines.
type RandomSource interface {
	IntN(n int) int
}

// drawsPerCell bounds the rejection sampling before falling back to
// enumerating free cells
const drawsPerCell = 4

func newDefaultRandom() RandomSource {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func (e *Engine) occupied() mapset.Set[Position] {
	occupied := mapset.New[Position]()
	occupied.Put(e.head)
	for i := 0; i < e.body.Len(); i++ {
		occupied.Put(e.body.At(i))
	}
	return occupied
}

// placeFood draws a cell that is neither a wall nor part of the snake
func (e *Engine) placeFood() (Position, error) {
	w, h := e.grid.Dimension()
	occupied := e.occupied()

	free := func(p Position) bool {
		return !e.grid.OnWalls(p) && !occupied.Has(p)
	}

	for attempt := 0; attempt < drawsPerCell*w*h; attempt++ {
		p := Position{X: e.rng.IntN(w), Y: e.rng.IntN(h)}
		if free(p) {
			return p, nil
		}
	}

	var cells []Position
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if p := (Position{X: x, Y: y}); free(p) {
				cells = append(cells, p)
			}
		}
	}
	if len(cells) == 0 {
		return e.food, ErrBoardFull
	}
	return cells[e.rng.IntN(len(cells))], nil
}
