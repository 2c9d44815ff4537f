// Package api provides HTTP REST API handlers for the snake game.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"level": "classic"} or ?level=)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session and stop its driver
//
// Game Operations:
//   - GET /api/sessions/{id}/snapshot - Current state
//   - POST /api/sessions/{id}/play - One play ({"direction": "left"})
//   - POST /api/sessions/{id}/bulk-play - Up to 100 plays ({"directions": [...]})
//   - POST /api/sessions/{id}/reset - Start a new run on the same level
//
// Real-time Play:
//   - POST /api/sessions/{id}/start - Drive the session on the server tick
//   - POST /api/sessions/{id}/steer - Set the direction for the next tick
//   - POST /api/sessions/{id}/stop - Stop the driver
//
// Levels:
//   - GET /api/levels - List levels
//   - GET /api/levels/{name} - Level detail (?format=text for the raw text)
//   - POST /api/levels - Save a level ({"name": "...", "text": "..."} or "rows")
//
// Other:
//   - GET /ws?session={id} - WebSocket updates and steering
//   - GET /healthz - Liveness
//   - GET /metrics - Prometheus metrics, when a gatherer is configured
//
// Error Handling:
//
// Errors are returned as {"error": "message"}. Unknown sessions and levels
// map to 404, bad directions and level text to 400, and plays on a finished
// or running session to 409. A play that ends the game is not an error: it
// returns 200 with success false and the game over code.
package api
