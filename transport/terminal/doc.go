// Package terminal plays a game session interactively in the terminal.
//
// The Model is a bubbletea program over a service.GameService session. Arrow
// keys or u/d/l/r shift the tiles, n starts a new game and q quits. When the
// game ends the player is asked whether to play again.
package terminal
