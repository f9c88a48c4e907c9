// Package service provides the business logic layer for the Stack Tower game.
//
// The service package implements:
//   - Multi-session game management
//   - Frame ticking, both per request and for auto-tick sessions
//   - Placement processing and event collection
//   - Placement history paging
//   - Game activity metrics
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages preset loading and validation.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and
// the engine. Each session owns its own engine, whose listener is an
// EventRecorder; after every placement the service drains the recorder and
// returns the events with the result. Engines are not safe for concurrent
// use, so the service holds one lock around every engine call and hands out
// cloned state snapshots.
//
// Usage:
//
//	sessionMgr := session.NewManager(logger)
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithLogger(logger),
//		service.WithMetrics(service.NewMetrics(prometheus.DefaultRegisterer)))
//
//	info, err := gameService.CreateSession(ctx, "easy", false)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameService.Tick(ctx, info.ID, 1.0/60)
//	result, err := gameService.Place(ctx, info.ID, false)
package service
