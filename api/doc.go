// Package api provides HTTP REST API handlers for the Stack Tower game.
//
// The api package implements:
//   - Session management endpoints
//   - Tick, place and reset endpoints for a session's tower
//   - Preset listing, lookup and creation
//   - WebSocket upgrade handling
//   - Prometheus metrics and a health check
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session {config_id, auto_tick}
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current stack state
//   - POST /api/sessions/{id}/tick - Advance the clock {delta_time}
//   - POST /api/sessions/{id}/place - Drop the active tile {reset}
//   - POST /api/sessions/{id}/reset - Start a fresh tower
//   - GET /api/sessions/{id}/history - Placement history (?page&limit&order)
//
// Configuration:
//   - GET /api/configs - List available presets
//   - POST /api/configs - Save a preset
//   - GET /api/configs/{name} - Get a preset
//   - GET /api/colors/{score} - Tile color for a score (?config=name)
//
// Other:
//   - GET /ws?session={id} - WebSocket stream of state updates
//   - GET /metrics - Prometheus metrics
//   - GET /healthz - Health check
//
// Error Handling:
//
// Errors are returned as JSON. Unknown sessions and presets map to 404,
// malformed input and invalid presets to 400, everything else to 500:
//
//	{"error": "session zz99: session not found"}
//
// Usage:
//
//	server := api.NewServer(gameService, hub,
//		api.WithLogger(logger),
//		api.WithGatherer(registry))
//	http.ListenAndServe(":8080", server)
package api
