package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Direction is one of the four shift directions
type Direction string

const (
	Up    Direction = "up"
	Down  Direction = "down"
	Left  Direction = "left"
	Right Direction = "right"
)

// Directions lists every shift direction in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// Status represents whether a game is still accepting moves
type Status int

const (
	Running Status = iota
	Over
)

const (
	// Validation constants
	MinRows             = 4
	MinCols             = 4
	MaxGridSize         = 16
	DefaultWinningTile  = 2048
	DefaultFourChance   = 0.1
	DefaultStartTiles   = 2
	MaxBulkMoves        = 100
	DefaultHistoryLimit = 20
)

// ParseDirection converts user input such as "up", "U" or "l" into a Direction
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "u":
		return Up, nil
	case "down", "d":
		return Down, nil
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// String returns the lowercase status name
func (s Status) String() string {
	if s == Over {
		return "over"
	}
	return "running"
}

// MarshalJSON encodes the status as its name
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name
func (s *Status) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "running":
		*s = Running
	case "over":
		*s = Over
	default:
		return fmt.Errorf("unknown status %q", name)
	}
	return nil
}

// Position represents row,col coordinates on the board
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Tile is a placed tile value at a position
type Tile struct {
	Position
	Value int `json:"value"`
}

// GameState represents a complete snapshot of a game
type GameState struct {
	Grid          [][]int            `json:"grid"`
	Rows          int                `json:"rows"`
	Cols          int                `json:"cols"`
	Score         int                `json:"score"`
	HighScore     int                `json:"high_score"`
	Status        Status             `json:"status"`
	ReachedTarget bool               `json:"reached_target"`
	WinningTile   int                `json:"winning_tile"`
	ConfigName    string             `json:"config_name"`
	MaxTile       int                `json:"max_tile"`
	EmptyCells    int                `json:"empty_cells"`
	Message       string             `json:"message"`
	MoveHistory   []MoveHistoryEntry `json:"move_history"`
	TotalMoves    int                `json:"total_moves"`

	// CurrentMovesCount counts moves since the last reset while TotalMoves
	// stays cumulative for the life of the session.
	CurrentMovesCount int `json:"current_moves_count"`
}

// MoveHistoryEntry represents a single move in the game history
type MoveHistoryEntry struct {
	Direction   Direction `json:"direction"`
	Changed     bool      `json:"changed"`
	ScoreGained int       `json:"score_gained"`
	Spawned     *Tile     `json:"spawned,omitempty"`
	ScoreAfter  int       `json:"score_after"`
	StatusAfter Status    `json:"status_after"`
	Timestamp   int64     `json:"timestamp"`
	MoveNumber  int       `json:"move_number"`
}

// MoveOutcome describes the effect of one complete turn
type MoveOutcome struct {
	Direction     Direction `json:"direction"`
	Changed       bool      `json:"changed"`
	ScoreGained   int       `json:"score_gained"`
	Spawned       *Tile     `json:"spawned,omitempty"`
	Status        Status    `json:"status"`
	ReachedTarget bool      `json:"reached_target"`
}
