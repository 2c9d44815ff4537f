// Package service provides the business logic layer for the snake game server.
//
// The service package implements:
//   - Multi-session game management
//   - Single and bulk plays with per-step traces
//   - Real-time play on a fixed tick with last-write-wins steering
//   - Level listing, loading and saving
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// LevelManager loads and stores levels.
// Notifier receives every state change so transports can push updates.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns one engine, and every engine call for a
// session happens under that session's lock, whether it comes from a request
// or from the session's tick driver. While a driver runs, manual plays are
// refused with ErrSessionRunning; Steer is the only way to influence the game.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	levelMgr, _ := level.NewManager("levels")
//	gameService := service.NewGameService(sessionMgr, levelMgr,
//		service.WithNotifier(hub),
//		service.WithTickInterval(150*time.Millisecond))
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Play(ctx, info.ID, "left")
//
// Game Over:
//
// A play that hits a wall, leaves the grid, runs into the body or leaves no
// room for food ends the run. The result carries the reason code (on_wall,
// on_snake, board_full) and later plays fail with engine.ErrGameOver until
// Reset starts a new run.
package service
