// Package session provides session management for the snake game server.
//
// The session package implements:
//   - Thread-safe in-memory session storage and retrieval
//   - Unique session ID generation
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager stores service.Session values keyed by their lowercased ID. Each
// session owns one engine built from its level with the game-over latch
// enabled, so a finished game refuses further plays until it is reset. Every
// new run (creation or reset) gets a fresh UUID run ID.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters from crypto/rand. Lookups are
// case-insensitive.
//
// Usage:
//
//	manager := session.NewManager(engine.WithSeed(42))
//
//	sess, err := manager.Create("", "classic", level)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sessionID)
//
// Sessions live only in memory. Deleting or expiring a session stops its tick
// driver before it is dropped.
package session
