// Package session provides session management for the Stack Tower game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session lifecycle management
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager is the session manager that handles all session operations.
// Each service.Session owns its own engine.StackEngine, wired to a
// service.EventRecorder that collects the engine's notifications.
//
// Session Identifiers:
//
// Generated IDs are 4 lowercase hex characters from crypto/rand, retried on
// collision. Lookups are case-insensitive.
//
// Concurrency:
//
// The manager guards its map, not the engines. Callers that drive an engine
// serialize access themselves; the game service does so with a single lock.
//
// Usage:
//
//	manager := session.NewManager(logger)
//
//	sess, err := manager.Create("", config)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sessionID)
//	removed := manager.CleanupExpiredSessions(time.Hour)
//
// Sessions live in memory only and are gone when the process exits.
package session
