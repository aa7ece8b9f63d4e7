package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrInvalidMessage is returned for a message template the game cannot fill
var ErrInvalidMessage = errors.New("invalid message template")

// MessageVerbs is the number of %d values each message template receives
var MessageVerbs = map[string]int{
	"welcome":   1,
	"victory":   2,
	"game_over": 1,
	"no_change": 0,
}

// Messages holds the text shown for game events
type Messages struct {
	Welcome  string `json:"welcome"`
	Victory  string `json:"victory"`
	GameOver string `json:"game_over"`
	NoChange string `json:"no_change"`
}

// GameConfig represents a board preset loaded from JSON
type GameConfig struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Rows            int      `json:"rows"`
	Cols            int      `json:"cols"`
	WinningTile     int      `json:"winning_tile,omitempty"`
	FourProbability *float64 `json:"four_probability,omitempty"`
	StartTiles      *int     `json:"start_tiles,omitempty"`
	Layout          [][]int  `json:"layout,omitempty"`
	Messages        Messages `json:"messages"`
}

// DefaultConfig returns the classic 4x4 preset
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:        "classic",
		Description: "Standard 4x4 board, reach 2048 to win",
		Rows:        4,
		Cols:        4,
		WinningTile: DefaultWinningTile,
		Messages: Messages{
			Welcome:  "Welcome to 2048! Merge tiles to reach %d.",
			Victory:  "You made %d! Final score: %d",
			GameOver: "No moves left. Final score: %d",
			NoChange: "Nothing moved, try another direction",
		},
	}
}

// Target returns the winning tile value, defaulting to 2048
func (c *GameConfig) Target() int {
	if c.WinningTile == 0 {
		return DefaultWinningTile
	}
	return c.WinningTile
}

// FourChance returns the probability of spawning a 4
func (c *GameConfig) FourChance() float64 {
	if c.FourProbability == nil {
		return DefaultFourChance
	}
	return *c.FourProbability
}

// InitialTiles returns how many tiles a standard board starts with
func (c *GameConfig) InitialTiles() int {
	if c.StartTiles == nil {
		return DefaultStartTiles
	}
	return *c.StartTiles
}

// ValidateGameConfig validates a board preset
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if len(config.Layout) > 0 {
		b, err := BoardFromGrid(config.Layout)
		if err != nil {
			return fmt.Errorf("config validation: layout: %w", err)
		}
		if b.Rows() > MaxGridSize || b.Cols() > MaxGridSize {
			return fmt.Errorf("config validation: %w: layout must be at most %dx%d, got %dx%d",
				ErrInvalidDimensions, MaxGridSize, MaxGridSize, b.Rows(), b.Cols())
		}
	} else {
		if config.Rows < MinRows || config.Rows > MaxGridSize {
			return fmt.Errorf("config validation: %w: rows must be between %d and %d, got %d",
				ErrInvalidDimensions, MinRows, MaxGridSize, config.Rows)
		}
		if config.Cols < MinCols || config.Cols > MaxGridSize {
			return fmt.Errorf("config validation: %w: cols must be between %d and %d, got %d",
				ErrInvalidDimensions, MinCols, MaxGridSize, config.Cols)
		}
		if n := config.InitialTiles(); n < 0 || n > config.Rows*config.Cols {
			return fmt.Errorf("config validation: start_tiles must be between 0 and %d, got %d", config.Rows*config.Cols, n)
		}
	}

	if target := config.Target(); target < 4 || !IsTileValue(target) {
		return fmt.Errorf("config validation: winning_tile must be a power of two of at least 4, got %d", target)
	}

	if p := config.FourChance(); p < 0 || p > 1 {
		return fmt.Errorf("config validation: four_probability must be between 0 and 1, got %v", p)
	}

	messages := []struct{ key, tmpl string }{
		{"welcome", config.Messages.Welcome},
		{"victory", config.Messages.Victory},
		{"game_over", config.Messages.GameOver},
		{"no_change", config.Messages.NoChange},
	}
	for _, m := range messages {
		if err := CheckMessageTemplate(m.tmpl, MessageVerbs[m.key]); err != nil {
			return fmt.Errorf("config validation: message %s: %w", m.key, err)
		}
	}

	return nil
}

// CheckMessageTemplate reports an error unless tmpl uses only %d verbs
// (and %% escapes), at most max of them.
func CheckMessageTemplate(tmpl string, max int) error {
	verbs := 0
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] != '%' {
			continue
		}
		if i+1 == len(tmpl) {
			return fmt.Errorf("%w: trailing %%", ErrInvalidMessage)
		}
		switch tmpl[i+1] {
		case '%':
		case 'd':
			verbs++
		default:
			return fmt.Errorf("%w: unsupported placeholder %q", ErrInvalidMessage, tmpl[i:i+2])
		}
		i++
	}
	if verbs > max {
		return fmt.Errorf("%w: %d placeholders, at most %d are filled", ErrInvalidMessage, verbs, max)
	}
	return nil
}

// LoadGameConfig loads and validates a board preset from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
