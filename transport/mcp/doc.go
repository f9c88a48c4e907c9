// Package mcp provides a Model Context Protocol server for the Stack Tower game.
//
// The server is a thin proxy: every tool call becomes one or more requests
// against the REST API, so an agent sees exactly the state a browser or
// terminal watcher sees.
//
// MCP Tools:
//   - create_session, list_sessions, get_session: session management
//   - game_state: tower state plus the wait until perfect alignment
//   - tick: advance the swing clock
//   - place: drop the active tile
//   - tick_and_place: advance, then drop, in one call
//   - reset_game: start a fresh tower
//   - placement_history: paged placement log
//   - list_configs, tile_color: preset inspection
//   - game_instructions: the rules
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: the /mcp endpoint hands request bodies to HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
