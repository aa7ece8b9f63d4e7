package terminal

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
)

// keyMap lists the bindings used while playing
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	NewGame key.Binding
	Quit    key.Binding
}

// answerKeys are the bindings for the play-again prompt
type answerKeys struct {
	Yes key.Binding
	No  key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "u"),
		key.WithHelp("↑/u", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "d"),
		key.WithHelp("↓/d", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "l"),
		key.WithHelp("←/l", "left"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "r"),
		key.WithHelp("→/r", "right"),
	),
	NewGame: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new game"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

var answers = answerKeys{
	Yes: key.NewBinding(
		key.WithKeys("y", "enter"),
		key.WithHelp("y", "play again"),
	),
	No: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "quit"),
	),
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.NewGame, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Left, k.Right}, {k.NewGame, k.Quit}}
}

func (a answerKeys) ShortHelp() []key.Binding {
	return []key.Binding{a.Yes, a.No}
}

func (a answerKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{a.ShortHelp()}
}

// direction maps a key press to a shift direction
func (k keyMap) direction(msg tea.KeyMsg) (engine.Direction, bool) {
	switch {
	case key.Matches(msg, k.Up):
		return engine.Up, true
	case key.Matches(msg, k.Down):
		return engine.Down, true
	case key.Matches(msg, k.Left):
		return engine.Left, true
	case key.Matches(msg, k.Right):
		return engine.Right, true
	}
	return "", false
}
