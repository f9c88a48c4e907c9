// Package websocket provides WebSocket transport for the Stack Tower game.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - State and event broadcasting to watchers of a session
//   - Connection lifecycle management
//
// Architecture:
//
// A central Hub owns the client sets. Its Run loop performs every
// registration, removal and broadcast, while each connection gets a read
// pump and a write pump goroutine. Clients whose send buffer fills up are
// dropped rather than allowed to stall the loop.
//
// Message Protocol:
//
// The hub only pushes; anything a client sends is read and discarded.
// Outgoing frames are single JSON Message values:
//
//	{"session_id": "ab12", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12", "event": "placement", "data": {...}}
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
//	hub.BroadcastToSession(sessionID, state)
//
// Session IDs are matched case-insensitively. Broadcasts to a session with
// no clients are skipped, so HasClients lets callers avoid building
// snapshots nobody will see.
package websocket
