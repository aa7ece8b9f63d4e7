package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
)

// ErrConfigNotFound is returned by ConfigManager implementations for unknown presets
var ErrConfigNotFound = errors.New("configuration not found")

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

func (s *gameServiceImpl) sessionInfo(sess *Session, configID string) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     configID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      sess.Engine.GetState(),
		GameConfig:     sess.Config,
	}
}

// getSession looks a session up and marks it as accessed
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// CreateSession creates a new game session from a preset, or the default preset when configName is empty
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Load configuration
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("config '%s' not found. Available configs: %v: %w", configName, configIDs, err)
				}
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	log.Debug("session created", "id", sess.ID, "config", configID)
	return s.sessionInfo(sess, configID), nil
}

// CreateCustomSession creates a session on an explicit grid without random start tiles
func (s *gameServiceImpl) CreateCustomSession(ctx context.Context, grid [][]int) (*SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.sessions.CreateCustom("", grid)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Debug("custom session created", "id", sess.ID, "rows", sess.Engine.Rows(), "cols", sess.Engine.Cols())
	return s.sessionInfo(sess, sess.Config.Name), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return s.sessionInfo(sess, s.getConfigID(sess.Config.Name)), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.sessionInfo(sess, s.getConfigID(sess.Config.Name)))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	log.Debug("session deleted", "id", sessionID)
	return nil
}

// Move plays one turn for a session. An unchanged board is reported with
// Success false and a no_change event; a finished game returns engine.ErrGameOver.
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir, err := engine.ParseDirection(direction)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	events := []GameEvent{}

	// Handle reset if requested
	if reset {
		sess.Engine.Reset()
		events = append(events, resetEvent())
	}

	outcome, err := sess.Engine.Move(dir)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.GetState()
	events = append(events, outcomeEvents(outcome, state)...)

	log.Debug("move", "session", sess.ID, "dir", dir, "changed", outcome.Changed, "score", state.Score, "status", state.Status)

	return &MoveResult{
		Success:   outcome.Changed,
		GameState: state,
		Message:   state.Message,
		Events:    events,
		Outcome:   outcome,
	}, nil
}

// BulkMove executes multiple moves in sequence. It stops at the first
// invalid direction, when the game ends or when ctx is cancelled, and never
// runs more than engine.MaxBulkMoves moves.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	// Handle reset
	if reset {
		sess.Engine.Reset()
		result.Events = append(result.Events, resetEvent())
	}
	result.StartScore = sess.Engine.Score()

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	for i, move := range moves {
		if err := ctx.Err(); err != nil {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("cancelled before move %d: %v", i+1, err)
			result.StopReasonCode = StopCancelled
			result.StoppedOnMove = i + 1
			break
		}

		if sess.Engine.IsGameOver() {
			result.StoppedReason = "game is over"
			result.StopReasonCode = StopGameOver
			result.StoppedOnMove = i + 1
			break
		}

		dir, err := engine.ParseDirection(move)
		if err != nil {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d: %v", i+1, err)
			result.StopReasonCode = StopInvalid
			result.StoppedOnMove = i + 1
			break
		}

		outcome, err := sess.Engine.Move(dir)
		if err != nil {
			result.StoppedReason = err.Error()
			result.StopReasonCode = StopGameOver
			result.StoppedOnMove = i + 1
			break
		}

		result.MovesExecuted++
		state := sess.Engine.GetState()
		result.Events = append(result.Events, outcomeEvents(outcome, state)...)
		result.Steps = append(result.Steps, StepInfo{
			Idx:         i + 1,
			Dir:         dir,
			Changed:     outcome.Changed,
			ScoreGained: outcome.ScoreGained,
			ScoreAfter:  state.Score,
			Spawned:     outcome.Spawned,
			Status:      outcome.Status,
		})
	}

	endState := sess.Engine.GetState()
	result.GameState = endState
	result.EndScore = endState.Score
	result.ScoreDelta = endState.Score - result.StartScore
	result.GameOver = endState.Status == engine.Over
	result.ReachedTarget = endState.ReachedTarget
	result.Message = endState.Message
	result.PossibleMoves = sess.Engine.GetPossibleMoves()

	if result.GameOver && (result.StopReasonCode == "" || result.StopReasonCode == StopGameOver) {
		if endState.ReachedTarget {
			result.StopReasonCode = StopVictory
		} else {
			result.StopReasonCode = StopGameOver
		}
	}

	log.Debug("bulk move", "session", sess.ID, "executed", result.MovesExecuted, "requested", result.RequestedMoves, "stop", result.StopReasonCode)
	return result, nil
}

// Reset resets a game session to its initial state
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	log.Debug("session reset", "id", sess.ID)
	return sess.Engine.Reset(), nil
}

// EndGame forces a session into the Over status
func (s *gameServiceImpl) EndGame(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Engine.SetStatus(engine.Over)
	log.Debug("session ended", "id", sess.ID, "score", sess.Engine.Score())
	return sess.Engine.GetState(), nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return sess.Engine.GetState(), nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = engine.DefaultHistoryLimit
	}
	if opts.Limit > engine.MaxBulkMoves {
		opts.Limit = engine.MaxBulkMoves
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	// Calculate pagination
	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// HighScore returns the best score reached by any session
func (s *gameServiceImpl) HighScore(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.sessions.HighScore().Get(), nil
}

// ResetHighScore sets the shared high score back to zero
func (s *gameServiceImpl) ResetHighScore(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.sessions.HighScore().Reset()
	log.Debug("high score reset")
	return nil
}

// ListConfigs returns available board presets
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific board preset
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a board preset to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.configs.SaveConfig(configName, config)
}

func resetEvent() GameEvent {
	return GameEvent{
		Type:      EventReset,
		Message:   "Game reset to initial state",
		Timestamp: time.Now(),
	}
}

// outcomeEvents describes one turn as events
func outcomeEvents(outcome *engine.MoveOutcome, state *engine.GameState) []GameEvent {
	now := time.Now()
	events := []GameEvent{}

	if !outcome.Changed {
		events = append(events, GameEvent{
			Type:      EventNoChange,
			Message:   fmt.Sprintf("Nothing moved %s", outcome.Direction),
			Timestamp: now,
		})
	}

	if outcome.ScoreGained > 0 {
		events = append(events, GameEvent{
			Type:      EventMerge,
			Message:   fmt.Sprintf("Merged tiles for +%d", outcome.ScoreGained),
			Timestamp: now,
			Value:     outcome.ScoreGained,
		})
	}

	if outcome.Spawned != nil {
		pos := outcome.Spawned.Position
		events = append(events, GameEvent{
			Type:      EventSpawn,
			Message:   fmt.Sprintf("New %d at (%d,%d)", outcome.Spawned.Value, pos.Row, pos.Col),
			Timestamp: now,
			Position:  &pos,
			Value:     outcome.Spawned.Value,
		})
	}

	if outcome.Status == engine.Over {
		if outcome.ReachedTarget {
			events = append(events, GameEvent{
				Type:      EventVictory,
				Message:   state.Message,
				Timestamp: now,
				Value:     state.WinningTile,
			})
		} else {
			events = append(events, GameEvent{
				Type:      EventGameOver,
				Message:   state.Message,
				Timestamp: now,
				Value:     state.Score,
			})
		}
	}

	return events
}
