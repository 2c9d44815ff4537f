// Package driver runs a snake game in real time.
//
// A Driver combines two inbound streams: a tick channel (usually a
// time.Ticker) and a direction value written by input handlers. On every tick
// it reads the latest requested direction and calls Play exactly once. When no
// new direction arrived since the previous tick, the previous request is
// supplied again, so a held key keeps the snake turning the way the player
// last asked.
//
// Usage:
//
//	d := driver.New(eng, engine.Up, func(t driver.Tick) {
//		log.Printf("tick %d head=%v score=%d", t.Seq, t.Snapshot.Head(), t.Score)
//	})
//
//	ticker := time.NewTicker(200 * time.Millisecond)
//	defer ticker.Stop()
//
//	go d.Run(ctx, ticker.C)
//	d.Steer(engine.Left)
//
// Run returns when the game ends, the context is cancelled or the tick
// channel is closed. The handler is called on the Run goroutine.
package driver
