// Package session provides in-memory session management for the merge game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - A high score shared by every session of the process
//   - Optional seeding for reproducible tile spawns
//   - Session cleanup and expiration
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. Lookups are
// case-insensitive. Generated IDs are retried until free.
//
// Usage:
//
//	manager := session.NewManager(engine.NewHighScore())
//
//	sess, err := manager.Create("", engine.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//	sessions := manager.List()
//
// Sessions live only as long as the process. Nothing is written to disk.
package session
