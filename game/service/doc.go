// Package service provides the business logic layer for the merge game.
//
// The service package implements:
//   - Multi-session game management
//   - Turn processing with merge, spawn and terminal events
//   - Bulk moves with a hard limit and cancellation between moves
//   - Paginated move history
//   - The shared high score
//   - Access to board presets
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages preset loading and validation.
//
// Architecture:
//
// The service layer sits between the front ends (MCP tools and the terminal
// UI) and the game engine. Every call takes a context and all mutations are
// serialised by the service, so one engine never sees two callers at once.
//
// Usage:
//
//	sessionMgr := session.NewManager(engine.NewHighScore())
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Move(ctx, info.ID, "left", false)
package service
