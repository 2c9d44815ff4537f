// Package engine provides the core snake simulation.
//
// The engine package implements:
//   - Level text parsing into a wall grid, food and initial snake
//   - One-cell-per-tick movement with 180° reversal guarding
//   - Wall, bounds and self collision detection
//   - Food consumption, growth and random food placement
//
// Core Types:
//
// Engine owns a Grid, the snake head and body, the current Direction and a
// growth counter. Play advances one tick and returns a Snapshot or a terminal
// error (a *CollisionError wrapping ErrOnWall or ErrOnSnake, or ErrBoardFull).
// Snapshot is a read-only copy of the snake (head first), the food position
// and whether food was eaten on the tick just computed.
//
// Usage:
//
//	eng, err := engine.Parse(levelText, engine.WithSeed(42))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	snap, err := eng.Play(engine.Right)
//	if engine.IsTerminal(err) {
//		// game over
//	}
//
// Level Format:
//
//	9,8
//	wwwwwwwww
//	w       w
//	...
//	wwwwwwwww
//	4,4
//	2,2;2,1
//
// The first line is width,height, followed by height rows of ' ' (empty) and
// 'w' (wall), the food position, and the snake as x,y pairs separated by ';'
// with the head first. Up increases y, so it moves toward later rows.
//
// Concurrency:
//
// An Engine must be owned by a single caller at a time. It has no internal
// locking and consumes its RandomSource synchronously inside Play.
package engine
