package terminal

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
	"github.com/wricardo/mcp-training/mergegame/game/service"
)

// Model plays one session of a GameService in the terminal
type Model struct {
	ctx       context.Context
	svc       service.GameService
	sessionID string

	state    *engine.GameState
	lastGain int
	err      error
	quitting bool
	help     help.Model

	ScreenWidth  int
	ScreenHeight int
}

// NewModel loads the session's state and returns a model ready to run
func NewModel(ctx context.Context, svc service.GameService, sessionID string) (Model, error) {
	state, err := svc.GetGameState(ctx, sessionID)
	if err != nil {
		return Model{}, err
	}
	return Model{
		ctx:       ctx,
		svc:       svc,
		sessionID: sessionID,
		state:     state,
		help:      help.New(),
	}, nil
}

// Run starts a full-screen program for the session and blocks until the player quits
func Run(ctx context.Context, svc service.GameService, sessionID string) error {
	m, err := NewModel(ctx, svc, sessionID)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if fm, ok := final.(Model); ok && fm.state != nil {
		log.Info("game finished", "session", sessionID, "score", fm.state.Score, "high_score", fm.state.HighScore)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ScreenWidth = msg.Width
		m.ScreenHeight = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}

		if m.state.Status == engine.Over {
			switch {
			case key.Matches(msg, answers.Yes):
				return m.newGame(), nil
			case key.Matches(msg, answers.No):
				m.quitting = true
				return m, tea.Quit
			}
			return m, nil
		}

		if key.Matches(msg, keys.NewGame) {
			return m.newGame(), nil
		}
		if dir, ok := keys.direction(msg); ok {
			return m.move(dir), nil
		}
	}

	return m, nil
}

// move plays one turn through the service
func (m Model) move(dir engine.Direction) Model {
	result, err := m.svc.Move(m.ctx, m.sessionID, string(dir), false)
	if err != nil {
		m.err = err
		return m
	}
	m.err = nil
	m.state = result.GameState
	m.lastGain = 0
	if result.Outcome != nil {
		m.lastGain = result.Outcome.ScoreGained
	}
	return m
}

// newGame resets the session board
func (m Model) newGame() Model {
	state, err := m.svc.Reset(m.ctx, m.sessionID)
	if err != nil {
		m.err = err
		return m
	}
	m.err = nil
	m.state = state
	m.lastGain = 0
	return m
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render(fmt.Sprintf("MERGE %d", m.state.WinningTile)),
		"   ",
		scoreStyle.Render(m.scoreLine()),
	)

	parts := []string{header, renderGrid(m.state.Grid, m.state.MaxTile)}

	if m.state.Status == engine.Over {
		if m.state.ReachedTarget {
			parts = append(parts, victoryStyle.Render(fmt.Sprintf("Congratulations, you reached %d.", m.state.WinningTile)))
		} else {
			parts = append(parts, gameOverStyle.Render("Game over!"))
		}
		parts = append(parts,
			fmt.Sprintf("You finished with a score of %d.", m.state.Score),
			fmt.Sprintf("Your high score is %d.", m.state.HighScore),
			"Would you like to play again (y/n)?",
		)
	} else if m.state.Message != "" {
		parts = append(parts, messageStyle.Render(m.state.Message))
	}

	if m.err != nil {
		parts = append(parts, errorStyle.Render(m.err.Error()))
	}

	if m.state.Status == engine.Over {
		parts = append(parts, m.help.View(answers))
	} else {
		parts = append(parts, m.help.View(keys))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if m.ScreenWidth > 0 && m.ScreenHeight > 0 {
		return lipgloss.Place(m.ScreenWidth, m.ScreenHeight, lipgloss.Center, lipgloss.Center, content)
	}
	return content
}

func (m Model) scoreLine() string {
	line := fmt.Sprintf("Score: %d", m.state.Score)
	if m.lastGain > 0 {
		line += fmt.Sprintf(" (+%d)", m.lastGain)
	}
	return line + fmt.Sprintf("   Best: %d", m.state.HighScore)
}
