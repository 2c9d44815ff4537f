package driver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/snake-game/game/engine"
)

var ErrAlreadyRunning = errors.New("driver is already running")

// Player advances a game by one tick. *engine.Engine satisfies it.
type Player interface {
	Play(direction engine.Direction) (engine.Snapshot, error)
}

// Tick is the outcome of one Play call made by the driver
type Tick struct {
	Seq       int
	Direction engine.Direction
	Snapshot  engine.Snapshot
	Score     int
	Err       error
}

// Handler receives every tick in order, on the driver goroutine
type Handler func(Tick)

// Driver feeds a Player from a tick stream and a last-write-wins direction
type Driver struct {
	player  Player
	handler Handler

	mu        sync.Mutex
	requested engine.Direction
	score     int
	seq       int
	running   bool
}

// New creates a driver that starts by requesting initial
func New(player Player, initial engine.Direction, handler Handler) *Driver {
	return &Driver{
		player:    player,
		handler:   handler,
		requested: initial,
	}
}

// Steer records the latest requested direction. Earlier requests that were
// not consumed by a tick are dropped.
func (d *Driver) Steer(direction engine.Direction) {
	d.mu.Lock()
	d.requested = direction
	d.mu.Unlock()
}

// Requested returns the direction the next tick will use
func (d *Driver) Requested() engine.Direction {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requested
}

// Score returns the number of ticks on which food was eaten
func (d *Driver) Score() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.score
}

// Ticks returns the number of Play calls made so far
func (d *Driver) Ticks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.seq
}

// Run calls Play once per value received on ticks. It stops at the first
// error from Play (a terminal error ends the game), and returns ctx.Err() on
// cancellation or nil when ticks is closed.
func (d *Driver) Run(ctx context.Context, ticks <-chan time.Time) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return ErrAlreadyRunning
	}
	d.running = true
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			if err := d.step(); err != nil {
				return err
			}
		}
	}
}

// Step runs a single tick outside of Run
func (d *Driver) Step() error {
	return d.step()
}

func (d *Driver) step() error {
	direction := d.Requested()
	snap, err := d.player.Play(direction)

	d.mu.Lock()
	d.seq++
	if err == nil && snap.FoodAte {
		d.score++
	}
	tick := Tick{
		Seq:       d.seq,
		Direction: direction,
		Snapshot:  snap,
		Score:     d.score,
		Err:       err,
	}
	d.mu.Unlock()

	if d.handler != nil {
		d.handler(tick)
	}

	return err
}
