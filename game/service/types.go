package service

import (
	"time"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
)

// Event types reported by moves and resets
const (
	EventMerge    = "merge"
	EventSpawn    = "spawn"
	EventNoChange = "no_change"
	EventVictory  = "victory"
	EventGameOver = "game_over"
	EventReset    = "reset"
)

// Stop reason codes for bulk moves
const (
	StopVictory   = "victory"
	StopGameOver  = "game_over"
	StopInvalid   = "invalid_direction"
	StopCancelled = "cancelled"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// MoveResult contains the result of a move operation
type MoveResult struct {
	Success   bool                `json:"success"` // the board changed
	GameState *engine.GameState   `json:"game_state"`
	Message   string              `json:"message"`
	Events    []GameEvent         `json:"events,omitempty"`
	Outcome   *engine.MoveOutcome `json:"outcome,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	GameState      *engine.GameState `json:"game_state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // victory|game_over|invalid_direction|cancelled
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based index of the move that caused stop
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	// Start/end snapshot
	StartScore int `json:"start_score"`
	EndScore   int `json:"end_score"`
	ScoreDelta int `json:"score_delta"`

	// Per-step compact trace (only for this call)
	Steps []StepInfo `json:"steps,omitempty"`

	// Final status aids
	GameOver      bool               `json:"game_over"`
	ReachedTarget bool               `json:"reached_target"`
	Message       string             `json:"message,omitempty"`
	PossibleMoves []engine.Direction `json:"possible_moves,omitempty"`
}

// StepInfo is a compact record for each executed move in the bulk call
type StepInfo struct {
	Idx         int              `json:"idx"`
	Dir         engine.Direction `json:"dir"`
	Changed     bool             `json:"changed"`
	ScoreGained int              `json:"score_gained,omitempty"`
	ScoreAfter  int              `json:"score_after"`
	Spawned     *engine.Tile     `json:"spawned,omitempty"`
	Status      engine.Status    `json:"status"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string           `json:"type"` // "merge", "spawn", "no_change", "victory", "game_over", "reset"
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Position  *engine.Position `json:"position,omitempty"`
	Value     int              `json:"value,omitempty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a board preset
type ConfigInfo struct {
	Filename    string  `json:"filename"`
	ConfigID    string  `json:"config_id"` // The identifier to use for session creation
	Name        string  `json:"name"`      // Display name
	Description string  `json:"description"`
	Rows        int     `json:"rows"`
	Cols        int     `json:"cols"`
	WinningTile int     `json:"winning_tile"`
	HasLayout   bool    `json:"has_layout"`
	StartTiles  int     `json:"start_tiles"` // Tiles on the board when a game starts
	FourChance  float64 `json:"four_probability"`
}
