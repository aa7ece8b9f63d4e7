package service_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
	"github.com/wricardo/mcp-training/mergegame/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions  map[string]*service.Session
	highScore *engine.HighScore
	seed      int64
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions:  make(map[string]*service.Session),
		highScore: engine.NewHighScore(),
		seed:      1,
	}
}

func (m *MockSessionManager) nextID() string {
	return fmt.Sprintf("test_%d", len(m.sessions)+1)
}

func (m *MockSessionManager) options() []engine.Option {
	m.seed++
	return []engine.Option{
		engine.WithHighScore(m.highScore),
		engine.WithRand(rand.New(rand.NewSource(m.seed))),
	}
}

func (m *MockSessionManager) add(id string, eng *engine.GameEngine, config *engine.GameConfig) *service.Session {
	session := &service.Session{
		ID:             id,
		Engine:         eng,
		Config:         config,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.sessions[id] = session
	return session
}

func (m *MockSessionManager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	if id == "" {
		id = m.nextID()
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	eng, err := engine.NewEngineFromConfig(config, m.options()...)
	if err != nil {
		return nil, err
	}
	return m.add(id, eng, config), nil
}

func (m *MockSessionManager) CreateCustom(id string, grid [][]int) (*service.Session, error) {
	if id == "" {
		id = m.nextID()
	}
	config := engine.DefaultConfig()
	config.Name = "custom"
	eng, err := engine.NewEngineFromGrid(grid, append(m.options(), engine.WithConfig(config))...)
	if err != nil {
		return nil, err
	}
	return m.add(id, eng, config), nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, errors.New("session not found")
	}
	return session, nil
}

func (m *MockSessionManager) GetOrCreate(id string, config *engine.GameConfig) (*service.Session, error) {
	if session, err := m.Get(id); err == nil {
		return session, nil
	}
	return m.Create(id, config)
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return errors.New("session not found")
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return errors.New("session not found")
}

func (m *MockSessionManager) HighScore() *engine.HighScore {
	return m.highScore
}

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
	saved   map[string]*engine.GameConfig
}

func NewMockConfigManager() *MockConfigManager {
	quick := engine.DefaultConfig()
	quick.Name = "quick"
	quick.WinningTile = 256

	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			"classic": engine.DefaultConfig(),
			"quick":   quick,
		},
		saved: make(map[string]*engine.GameConfig),
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	config, exists := m.configs[name]
	if !exists {
		return nil, service.ErrConfigNotFound
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	result := make([]*service.ConfigInfo, 0, len(m.configs))
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			Filename:    name + ".json",
			ConfigID:    name,
			Name:        config.Name,
			Description: config.Description,
			Rows:        config.Rows,
			Cols:        config.Cols,
			WinningTile: config.Target(),
		})
	}
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["classic"]
}

func (m *MockConfigManager) SaveConfig(name string, config *engine.GameConfig) error {
	if err := engine.ValidateGameConfig(config); err != nil {
		return err
	}
	m.saved[name] = config
	return nil
}

func newTestService() (service.GameService, *MockSessionManager, *MockConfigManager) {
	sessions := NewMockSessionManager()
	configs := NewMockConfigManager()
	return service.NewGameService(sessions, configs), sessions, configs
}

func hasEvent(events []service.GameEvent, eventType string) bool {
	for _, ev := range events {
		if ev.Type == eventType {
			return true
		}
	}
	return false
}

// Test cases
func TestGameService_CreateSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	tests := []struct {
		name       string
		configName string
		wantConfig string
		wantErr    bool
	}{
		{name: "create with default config", configName: "", wantConfig: "classic"},
		{name: "create with specific config", configName: "quick", wantConfig: "quick"},
		{name: "create with invalid config", configName: "nonexistent", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := svc.CreateSession(ctx, tt.configName)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateSession() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, service.ErrConfigNotFound) {
					t.Errorf("Expected ErrConfigNotFound, got %v", err)
				}
				if !strings.Contains(err.Error(), "Available configs") {
					t.Errorf("Expected available configs in error, got %v", err)
				}
				return
			}
			if info.ConfigName != tt.wantConfig {
				t.Errorf("Expected config %q, got %q", tt.wantConfig, info.ConfigName)
			}
			if info.GameState == nil || info.GameState.Status != engine.Running {
				t.Errorf("Expected running game state, got %+v", info.GameState)
			}
		})
	}
}

func TestGameService_CreateCustomSession(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	grid := [][]int{{2, 2, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}}
	info, err := svc.CreateCustomSession(ctx, grid)
	if err != nil {
		t.Fatalf("CreateCustomSession failed: %v", err)
	}
	if !engine.GridsEqual(info.GameState.Grid, grid) {
		t.Errorf("Expected custom grid, got %v", info.GameState.Grid)
	}
	if info.ConfigName != "custom" {
		t.Errorf("Expected custom config name, got %q", info.ConfigName)
	}

	if _, err := svc.CreateCustomSession(ctx, [][]int{{2, 2}, {2}}); !errors.Is(err, engine.ErrInvalidShape) {
		t.Errorf("Expected ErrInvalidShape, got %v", err)
	}
}

func TestGameService_Move(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	info, err := svc.CreateCustomSession(ctx, [][]int{{2, 2, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	result, err := svc.Move(ctx, info.ID, "left", false)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if !result.Success || result.Outcome == nil || result.Outcome.ScoreGained != 4 {
		t.Errorf("Expected successful merge, got %+v", result)
	}
	if !hasEvent(result.Events, service.EventMerge) || !hasEvent(result.Events, service.EventSpawn) {
		t.Errorf("Expected merge and spawn events, got %+v", result.Events)
	}
	if result.GameState.Score != 4 {
		t.Errorf("Expected score 4, got %d", result.GameState.Score)
	}

	// Short direction names are accepted
	if _, err := svc.Move(ctx, info.ID, "R", false); err != nil {
		t.Errorf("Expected short direction to work, got %v", err)
	}

	tests := []struct {
		name      string
		sessionID string
		direction string
		wantErr   error
	}{
		{"invalid session", "nonexistent", "up", nil},
		{"invalid direction", info.ID, "diagonal", engine.ErrInvalidDirection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Move(ctx, tt.sessionID, tt.direction, false)
			if err == nil {
				t.Fatal("Expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestGameService_MoveNoChange(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	grid := [][]int{{2, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}}
	info, _ := svc.CreateCustomSession(ctx, grid)

	result, err := svc.Move(ctx, info.ID, "up", false)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if result.Success {
		t.Error("Expected no change")
	}
	if !hasEvent(result.Events, service.EventNoChange) || hasEvent(result.Events, service.EventSpawn) {
		t.Errorf("Expected only a no_change event, got %+v", result.Events)
	}
	if !engine.GridsEqual(result.GameState.Grid, grid) {
		t.Error("Grid should be unchanged")
	}
}

func TestGameService_MoveVictoryAndGameOver(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	info, _ := svc.CreateCustomSession(ctx, [][]int{{1024, 1024, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}})

	result, err := svc.Move(ctx, info.ID, "left", false)
	if err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if !hasEvent(result.Events, service.EventVictory) {
		t.Errorf("Expected victory event, got %+v", result.Events)
	}
	if !result.GameState.ReachedTarget || result.GameState.Status != engine.Over {
		t.Errorf("Expected won game, got %+v", result.GameState)
	}

	if _, err := svc.Move(ctx, info.ID, "right", false); !errors.Is(err, engine.ErrGameOver) {
		t.Errorf("Expected ErrGameOver, got %v", err)
	}

	// Reset flag restarts the custom grid before moving
	result, err = svc.Move(ctx, info.ID, "right", true)
	if err != nil {
		t.Fatalf("Move with reset failed: %v", err)
	}
	if !hasEvent(result.Events, service.EventReset) {
		t.Errorf("Expected reset event, got %+v", result.Events)
	}
	if v := result.GameState.Grid[0][3]; v != 2048 {
		t.Errorf("Expected 2048 at (0,3) after reset and right, got %d", v)
	}
}

func TestGameService_BulkMove(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	info, err := svc.CreateSession(ctx, "classic")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	t.Run("executes moves in order", func(t *testing.T) {
		result, err := svc.BulkMove(ctx, info.ID, []string{"left", "up", "right"}, false)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if result.RequestedMoves != 3 {
			t.Errorf("Expected 3 requested moves, got %d", result.RequestedMoves)
		}
		if result.MovesExecuted != len(result.Steps) {
			t.Errorf("Steps (%d) should match executed moves (%d)", len(result.Steps), result.MovesExecuted)
		}
		if result.ScoreDelta != result.EndScore-result.StartScore {
			t.Errorf("Inconsistent score delta %+v", result)
		}
	})

	t.Run("stops at invalid direction", func(t *testing.T) {
		result, err := svc.BulkMove(ctx, info.ID, []string{"left", "sideways", "up"}, true)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if result.Success || result.StopReasonCode != service.StopInvalid || result.StoppedOnMove != 2 {
			t.Errorf("Expected stop at move 2, got %+v", result)
		}
		if result.MovesExecuted != 1 {
			t.Errorf("Expected 1 executed move, got %d", result.MovesExecuted)
		}
		if !hasEvent(result.Events, service.EventReset) {
			t.Error("Expected reset event")
		}
	})

	t.Run("truncates long requests", func(t *testing.T) {
		moves := make([]string, engine.MaxBulkMoves+20)
		for i := range moves {
			moves[i] = string(engine.Directions[i%4])
		}
		result, err := svc.BulkMove(ctx, info.ID, moves, true)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if !result.Truncated || result.Limit != engine.MaxBulkMoves {
			t.Errorf("Expected truncation at %d, got %+v", engine.MaxBulkMoves, result)
		}
		if result.MovesExecuted > engine.MaxBulkMoves {
			t.Errorf("Executed %d moves, more than the limit", result.MovesExecuted)
		}
	})

	t.Run("stops at victory", func(t *testing.T) {
		win, _ := svc.CreateCustomSession(ctx, [][]int{{1024, 1024, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}})
		result, err := svc.BulkMove(ctx, win.ID, []string{"left", "right", "up"}, false)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if result.MovesExecuted != 1 || result.StoppedOnMove != 2 {
			t.Errorf("Expected stop after the winning move, got %+v", result)
		}
		if result.StopReasonCode != service.StopVictory || !result.GameOver || !result.ReachedTarget {
			t.Errorf("Expected victory, got %+v", result)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := svc.BulkMove(cancelled, info.ID, []string{"left"}, false); !errors.Is(err, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	})
}

func TestGameService_GetMoveHistory(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	info, _ := svc.CreateCustomSession(ctx, [][]int{{2, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}})
	// Up and left never move the single tile in the corner
	for i := 0; i < 5; i++ {
		if _, err := svc.Move(ctx, info.ID, "up", false); err != nil {
			t.Fatalf("Move failed: %v", err)
		}
	}

	tests := []struct {
		name      string
		opts      service.HistoryOptions
		wantCount int
		wantFirst int
		wantNext  bool
	}{
		{"defaults newest first", service.HistoryOptions{}, 5, 5, false},
		{"ascending", service.HistoryOptions{Order: "asc"}, 5, 1, false},
		{"first page", service.HistoryOptions{Limit: 2, Order: "asc"}, 2, 1, true},
		{"last page", service.HistoryOptions{Page: 3, Limit: 2, Order: "asc"}, 1, 5, false},
		{"descending page", service.HistoryOptions{Page: 2, Limit: 2}, 2, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			history, err := svc.GetMoveHistory(ctx, info.ID, tt.opts)
			if err != nil {
				t.Fatalf("GetMoveHistory failed: %v", err)
			}
			if len(history.Moves) != tt.wantCount {
				t.Fatalf("Expected %d moves, got %d", tt.wantCount, len(history.Moves))
			}
			if history.Moves[0].MoveNumber != tt.wantFirst {
				t.Errorf("Expected first move %d, got %d", tt.wantFirst, history.Moves[0].MoveNumber)
			}
			if history.HasNext != tt.wantNext {
				t.Errorf("Expected HasNext %v, got %v", tt.wantNext, history.HasNext)
			}
			if history.TotalMoves != 5 {
				t.Errorf("Expected 5 total moves, got %d", history.TotalMoves)
			}
		})
	}

	if _, err := svc.GetMoveHistory(ctx, "missing", service.HistoryOptions{}); err == nil {
		t.Error("Expected error for missing session")
	}
}

func TestGameService_ListAndDeleteSessions(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateSession(ctx, ""); err != nil {
			t.Fatalf("CreateSession failed: %v", err)
		}
	}

	list, err := svc.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(list))
	}

	if err := svc.DeleteSession(ctx, list[0].ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := svc.GetSession(ctx, list[0].ID); err == nil {
		t.Error("Expected deleted session to be gone")
	}
	if err := svc.DeleteSession(ctx, list[0].ID); err == nil {
		t.Error("Expected error deleting twice")
	}

	list, _ = svc.ListSessions(ctx)
	if len(list) != 2 {
		t.Errorf("Expected 2 sessions, got %d", len(list))
	}
}

func TestGameService_ResetAndEndGame(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	grid := [][]int{{4, 4, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}}
	info, _ := svc.CreateCustomSession(ctx, grid)
	svc.Move(ctx, info.ID, "left", false)

	state, err := svc.EndGame(ctx, info.ID)
	if err != nil {
		t.Fatalf("EndGame failed: %v", err)
	}
	if state.Status != engine.Over || state.ReachedTarget {
		t.Errorf("Expected forced game over, got %+v", state)
	}
	if _, err := svc.Move(ctx, info.ID, "right", false); !errors.Is(err, engine.ErrGameOver) {
		t.Errorf("Expected ErrGameOver after EndGame, got %v", err)
	}

	state, err = svc.Reset(ctx, info.ID)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if state.Status != engine.Running || state.Score != 0 || !engine.GridsEqual(state.Grid, grid) {
		t.Errorf("Expected fresh custom board, got %+v", state)
	}
	if state.HighScore != 8 {
		t.Errorf("Expected high score 8 to survive reset, got %d", state.HighScore)
	}

	if _, err := svc.Reset(ctx, "missing"); err == nil {
		t.Error("Expected error for missing session")
	}
	if _, err := svc.EndGame(ctx, "missing"); err == nil {
		t.Error("Expected error for missing session")
	}
}

func TestGameService_HighScore(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	a, _ := svc.CreateCustomSession(ctx, [][]int{{8, 8, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}})
	b, _ := svc.CreateCustomSession(ctx, [][]int{{2, 2, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}})
	svc.Move(ctx, a.ID, "left", false)
	svc.Move(ctx, b.ID, "left", false)

	high, err := svc.HighScore(ctx)
	if err != nil || high != 16 {
		t.Errorf("Expected high score 16, got %d (%v)", high, err)
	}

	if err := svc.ResetHighScore(ctx); err != nil {
		t.Fatalf("ResetHighScore failed: %v", err)
	}
	if high, _ := svc.HighScore(ctx); high != 0 {
		t.Errorf("Expected 0 after reset, got %d", high)
	}
}

func TestGameService_Configs(t *testing.T) {
	ctx := context.Background()
	svc, _, configs := newTestService()

	list, err := svc.ListConfigs(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("Expected 2 configs, got %d (%v)", len(list), err)
	}

	config, err := svc.LoadConfig(ctx, "quick")
	if err != nil || config.Target() != 256 {
		t.Errorf("Expected quick config, got %+v (%v)", config, err)
	}

	custom := engine.DefaultConfig()
	custom.Name = "mine"
	if err := svc.SaveConfig(ctx, "mine", custom); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	if configs.saved["mine"] != custom {
		t.Error("Expected config to reach the config manager")
	}
}

func TestGameService_CancelledContext(t *testing.T) {
	svc, _, _ := newTestService()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.CreateSession(ctx, ""); !errors.Is(err, context.Canceled) {
		t.Errorf("CreateSession: expected context.Canceled, got %v", err)
	}
	if _, err := svc.Move(ctx, "any", "up", false); !errors.Is(err, context.Canceled) {
		t.Errorf("Move: expected context.Canceled, got %v", err)
	}
	if _, err := svc.ListSessions(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ListSessions: expected context.Canceled, got %v", err)
	}
	if _, err := svc.HighScore(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HighScore: expected context.Canceled, got %v", err)
	}
}
