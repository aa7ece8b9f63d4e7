// Package engine provides the core rules of the sliding-tile merge game.
//
// The engine package implements the game mechanics including:
//   - Per-line compaction: tiles slide toward an edge and equal neighbours merge once per move
//   - Random spawning of 2 and 4 tiles on empty cells
//   - Scoring and a high score shared between games
//   - Win and loss detection with a Running to Over latch
//   - Board presets loaded from JSON files
//
// Core Types:
//
// Board holds the cells and knows how to shift them. GameEngine wraps a board
// with a score, a status and a move history, and implements the Engine
// interface. GameConfig describes a preset: dimensions or an explicit layout,
// the winning tile, spawn odds and messages.
//
// Usage:
//
//	rng := rand.New(rand.NewSource(42))
//	game, err := engine.NewEngine(4, 4, engine.WithRand(rng))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	outcome, err := game.Move(engine.Left)
//	if errors.Is(err, engine.ErrGameOver) {
//		// start again
//	}
//	fmt.Print(engine.FormatGrid(game.Grid()))
//
// Game Rules:
//
// Every move slides all tiles in one direction. Two equal tiles that meet
// merge into their sum, which is added to the score. A merged tile does not
// merge again in the same move. After a move that changed the board a new tile
// appears. The game ends in victory when the winning tile appears and in
// defeat when the board is full and no two neighbours are equal.
package engine
