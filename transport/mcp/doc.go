// Package mcp provides a Model Context Protocol server for the snake game.
//
// The server is a thin proxy: every tool call becomes a request to the REST
// API of a running game server, and the JSON answer is rendered as text
// with the board drawn row by row.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - snapshot, play, bulk_play, reset_game
//   - start, steer, stop
//   - list_levels, get_level, save_level
//   - game_instructions
//
// API errors are returned as tool error results, not as protocol errors, so
// an agent sees messages such as "game is over" and can react.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
