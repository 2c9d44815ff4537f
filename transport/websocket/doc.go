// Package websocket provides WebSocket transport for the snake game.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - Push of every state change and game event
//   - Steering from the browser while a session runs on its tick
//
// Architecture:
//
// A central Hub owns all connections. Its Run loop is the only goroutine that
// touches the client map; register, unregister and broadcast requests all
// arrive over channels. Each client has a read pump and a write pump.
//
// The Hub implements service.Notifier, so the game service pushes updates to
// it directly. Broadcasts are queued without blocking: when the queue is full
// the update is dropped and logged, and a client whose own buffer is full is
// disconnected.
//
// Message Protocol:
//
//   - Incoming: {"direction": "left"} (optionally with "action": "steer")
//   - Outgoing: {"session_id": "...", "event": "state_update", "state": {...}}
//     or {"session_id": "...", "event": "game_event", "data": {...}}
//
// Usage:
//
//	hub := websocket.NewHub()
//	hub.SetSteerHandler(func(ctx context.Context, id, dir string) error {
//		_, err := gameService.Steer(ctx, id, dir)
//		return err
//	})
//	go hub.Run()
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
