// Package mcp provides the Model Context Protocol server for the merge game.
//
// The server calls a service.GameService in-process and renders every result
// as plain text so an agent can read the board directly.
//
// MCP Tools:
//   - create_session, create_custom_session: start a game from a preset or an explicit grid
//   - list_sessions, get_session, delete_session: session management
//   - game_state: grid, score, status and possible moves
//   - move, bulk_move: play one or several turns (with an intent note)
//   - reset_game, end_game: restart or finish a session
//   - move_history: paginated history
//   - high_score: read or reset the shared high score
//   - list_configs, game_instructions, describe_cell: reference information
//
// Usage:
//
//	srv := mcp.NewServer(gameService)
//	if err := srv.Serve(ctx); err != nil {
//		log.Fatal(err)
//	}
//
// Serve speaks JSON-RPC on stdin/stdout, so logging must go to stderr.
package mcp
