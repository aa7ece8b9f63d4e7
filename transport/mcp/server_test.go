package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/wricardo/mcp-training/mergegame/game/config"
	"github.com/wricardo/mcp-training/mergegame/game/engine"
	"github.com/wricardo/mcp-training/mergegame/game/service"
	"github.com/wricardo/mcp-training/mergegame/game/session"
)

// newTestServer wires a real service over a temp preset directory holding classic.json
func newTestServer(t *testing.T) (*Server, service.GameService) {
	t.Helper()

	dir := t.TempDir()
	data, err := json.Marshal(engine.DefaultConfig())
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "classic.json"), data, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	configs, err := config.NewManager(dir)
	if err != nil {
		t.Fatalf("config manager: %v", err)
	}
	sessions := session.NewManager(nil, session.WithSeed(7))
	svc := service.NewGameService(sessions, configs)
	return NewServer(svc), svc
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("expected a result")
	}
	var b strings.Builder
	for _, c := range result.Content {
		if text, ok := mcp.AsTextContent(c); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String()
}

// customSession creates a session on grid and returns its ID
func customSession(t *testing.T, svc service.GameService, grid [][]int) string {
	t.Helper()
	info, err := svc.CreateCustomSession(context.Background(), grid)
	if err != nil {
		t.Fatalf("create custom session: %v", err)
	}
	return info.ID
}

var mergeRowGrid = [][]int{
	{2, 2, 4, 0},
	{0, 0, 0, 0},
	{0, 0, 0, 0},
	{0, 0, 0, 8},
}

func TestNewServer(t *testing.T) {
	s, _ := newTestServer(t)

	if s.GetMCPServer() == nil {
		t.Fatal("Expected MCP server to be initialized")
	}
	if s.svc == nil {
		t.Error("Expected service to be set")
	}
}

func TestHandleCreateSession(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	t.Run("default preset", func(t *testing.T) {
		result, err := s.handleCreateSession(ctx, callRequest("create_session", map[string]any{}))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %s", resultText(t, result))
		}
		text := resultText(t, result)
		if !strings.Contains(text, "Created session:") {
			t.Errorf("expected created message, got %q", text)
		}
		if !strings.Contains(text, "Score: 0") {
			t.Errorf("expected initial score, got %q", text)
		}
	})

	t.Run("named preset", func(t *testing.T) {
		result, _ := s.handleCreateSession(ctx, callRequest("create_session", map[string]any{"config_name": "classic"}))
		if result.IsError {
			t.Fatalf("unexpected tool error: %s", resultText(t, result))
		}
		if !strings.Contains(resultText(t, result), "Config: classic") {
			t.Errorf("expected classic config, got %q", resultText(t, result))
		}
	})

	t.Run("unknown preset", func(t *testing.T) {
		result, _ := s.handleCreateSession(ctx, callRequest("create_session", map[string]any{"config_name": "nope"}))
		if !result.IsError {
			t.Fatal("expected tool error for unknown preset")
		}
		if !strings.Contains(resultText(t, result), "classic") {
			t.Errorf("expected available presets in error, got %q", resultText(t, result))
		}
	})
}

func TestHandleCreateCustomSession(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		grid    any
		wantErr bool
	}{
		{
			name: "json decoded grid",
			grid: []any{
				[]any{2.0, 0.0, 0.0, 0.0},
				[]any{0.0, 4.0, 0.0, 0.0},
				[]any{0.0, 0.0, 0.0, 0.0},
				[]any{0.0, 0.0, 0.0, 2.0},
			},
		},
		{
			name: "typed grid",
			grid: [][]int{{2, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
		},
		{
			name: "smaller than a standard board",
			grid: []any{[]any{2.0, 0.0, 0.0}, []any{0.0, 0.0, 0.0}, []any{0.0, 0.0, 2.0}},
		},
		{
			name: "single row",
			grid: [][]int{{2, 2}},
		},
		{
			name:    "empty row",
			grid:    []any{[]any{}},
			wantErr: true,
		},
		{
			name:    "jagged rows",
			grid:    [][]int{{2, 0, 0, 0}, {0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
			wantErr: true,
		},
		{
			name:    "not a tile value",
			grid:    [][]int{{3, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}, {0, 0, 0, 0}},
			wantErr: true,
		},
		{
			name:    "not an array",
			grid:    "2,2,2,2",
			wantErr: true,
		},
		{
			name:    "missing",
			grid:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]any{}
			if tt.grid != nil {
				args["grid"] = tt.grid
			}
			result, err := s.handleCreateCustomSession(ctx, callRequest("create_custom_session", args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.IsError != tt.wantErr {
				t.Fatalf("IsError = %v, want %v: %s", result.IsError, tt.wantErr, resultText(t, result))
			}
			if !tt.wantErr && !strings.Contains(resultText(t, result), "Config: custom") {
				t.Errorf("expected custom config, got %q", resultText(t, result))
			}
		})
	}
}

func TestHandleMove(t *testing.T) {
	s, svc := newTestServer(t)
	ctx := context.Background()

	t.Run("merge", func(t *testing.T) {
		id := customSession(t, svc, mergeRowGrid)
		result, _ := s.handleMove(ctx, callRequest("move", map[string]any{
			"session_id": id,
			"direction":  "left",
			"intent":     "merge the pair of 2s",
		}))
		if result.IsError {
			t.Fatalf("unexpected tool error: %s", resultText(t, result))
		}
		text := resultText(t, result)
		if !strings.Contains(text, "✓ Board changed") {
			t.Errorf("expected changed board, got %q", text)
		}
		if !strings.Contains(text, "Step: left +4") {
			t.Errorf("expected merge gain, got %q", text)
		}
		if !strings.Contains(text, "Score: 4") {
			t.Errorf("expected score 4, got %q", text)
		}
	})

	t.Run("no change", func(t *testing.T) {
		grid := [][]int{
			{2, 4, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		}
		id := customSession(t, svc, grid)
		result, _ := s.handleMove(ctx, callRequest("move", map[string]any{
			"session_id": id,
			"direction":  "up",
			"intent":     "test",
		}))
		if result.IsError {
			t.Fatalf("unexpected tool error: %s", resultText(t, result))
		}
		if !strings.Contains(resultText(t, result), "✗ Nothing moved") {
			t.Errorf("expected unchanged board, got %q", resultText(t, result))
		}
	})

	t.Run("invalid direction", func(t *testing.T) {
		id := customSession(t, svc, mergeRowGrid)
		result, _ := s.handleMove(ctx, callRequest("move", map[string]any{
			"session_id": id,
			"direction":  "sideways",
		}))
		if !result.IsError {
			t.Fatal("expected tool error for invalid direction")
		}
	})

	t.Run("missing direction", func(t *testing.T) {
		id := customSession(t, svc, mergeRowGrid)
		result, _ := s.handleMove(ctx, callRequest("move", map[string]any{"session_id": id}))
		if !result.IsError {
			t.Fatal("expected tool error for missing direction")
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		result, _ := s.handleMove(ctx, callRequest("move", map[string]any{
			"session_id": "zzzz",
			"direction":  "left",
		}))
		if !result.IsError {
			t.Fatal("expected tool error for unknown session")
		}
	})

	t.Run("finished game", func(t *testing.T) {
		id := customSession(t, svc, mergeRowGrid)
		if _, err := svc.EndGame(ctx, id); err != nil {
			t.Fatalf("end game: %v", err)
		}
		result, _ := s.handleMove(ctx, callRequest("move", map[string]any{
			"session_id": id,
			"direction":  "left",
		}))
		if !result.IsError {
			t.Fatal("expected tool error after game end")
		}
		if !strings.Contains(resultText(t, result), engine.ErrGameOver.Error()) {
			t.Errorf("expected game over error, got %q", resultText(t, result))
		}
	})

	t.Run("reset then move", func(t *testing.T) {
		id := customSession(t, svc, mergeRowGrid)
		if _, err := svc.EndGame(ctx, id); err != nil {
			t.Fatalf("end game: %v", err)
		}
		result, _ := s.handleMove(ctx, callRequest("move", map[string]any{
			"session_id": id,
			"direction":  "left",
			"reset":      true,
		}))
		if result.IsError {
			t.Fatalf("unexpected tool error: %s", resultText(t, result))
		}
		if !strings.Contains(resultText(t, result), "- reset:") {
			t.Errorf("expected reset event, got %q", resultText(t, result))
		}
	})
}

func TestHandleBulkMove(t *testing.T) {
	s, svc := newTestServer(t)
	ctx := context.Background()

	t.Run("sequence", func(t *testing.T) {
		id := customSession(t, svc, mergeRowGrid)
		result, _ := s.handleBulkMove(ctx, callRequest("bulk_move", map[string]any{
			"session_id": id,
			"moves":      []any{"left", "right"},
			"intent":     "sweep",
		}))
		if result.IsError {
			t.Fatalf("unexpected tool error: %s", resultText(t, result))
		}
		text := resultText(t, result)
		if !strings.Contains(text, "Executed 2/2 moves") {
			t.Errorf("expected two moves executed, got %q", text)
		}
		if !strings.Contains(text, "1. left ✓ +4") {
			t.Errorf("expected first step line, got %q", text)
		}
	})

	t.Run("stops on invalid direction", func(t *testing.T) {
		id := customSession(t, svc, mergeRowGrid)
		result, _ := s.handleBulkMove(ctx, callRequest("bulk_move", map[string]any{
			"session_id": id,
			"moves":      []any{"left", "sideways", "right"},
		}))
		if result.IsError {
			t.Fatalf("unexpected tool error: %s", resultText(t, result))
		}
		text := resultText(t, result)
		if !strings.Contains(text, "Executed 1/3 moves") {
			t.Errorf("expected one move executed, got %q", text)
		}
		if !strings.Contains(text, "Stop code: "+service.StopInvalid) {
			t.Errorf("expected invalid stop code, got %q", text)
		}
	})

	t.Run("moves must be strings", func(t *testing.T) {
		id := customSession(t, svc, mergeRowGrid)
		result, _ := s.handleBulkMove(ctx, callRequest("bulk_move", map[string]any{
			"session_id": id,
			"moves":      []any{"left", 3.0},
		}))
		if !result.IsError {
			t.Fatal("expected tool error for non-string move")
		}
	})
}

func TestHandleResetAndEndGame(t *testing.T) {
	s, svc := newTestServer(t)
	ctx := context.Background()
	id := customSession(t, svc, mergeRowGrid)

	if _, err := svc.Move(ctx, id, "left", false); err != nil {
		t.Fatalf("move: %v", err)
	}

	result, _ := s.handleEndGame(ctx, callRequest("end_game", map[string]any{"session_id": id}))
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "Game ended with score 4") {
		t.Errorf("expected final score, got %q", resultText(t, result))
	}

	result, _ = s.handleReset(ctx, callRequest("reset_game", map[string]any{"session_id": id}))
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	text := resultText(t, result)
	if !strings.Contains(text, "Game reset") || !strings.Contains(text, "Score: 0") {
		t.Errorf("expected reset state, got %q", text)
	}
	if !strings.Contains(text, engine.FormatGrid(mergeRowGrid)) {
		t.Errorf("expected the original grid after reset, got %q", text)
	}
}

func TestHandleMoveHistory(t *testing.T) {
	s, svc := newTestServer(t)
	ctx := context.Background()
	id := customSession(t, svc, mergeRowGrid)

	for _, dir := range []string{"left", "right", "up"} {
		if _, err := svc.Move(ctx, id, dir, false); err != nil {
			t.Fatalf("move %s: %v", dir, err)
		}
	}

	tests := []struct {
		name     string
		args     map[string]any
		wantErr  bool
		contains []string
	}{
		{
			name:     "defaults",
			args:     map[string]any{"session_id": id},
			contains: []string{"Total (cumulative): 3", "3. up", "Moves since reset: 3"},
		},
		{
			name:     "ascending page",
			args:     map[string]any{"session_id": id, "page": 2.0, "limit": 2.0, "order": "asc"},
			contains: []string{"Page 2/2", "3. up"},
		},
		{
			name:    "bad order",
			args:    map[string]any{"session_id": id, "order": "sideways"},
			wantErr: true,
		},
		{
			name:    "unknown session",
			args:    map[string]any{"session_id": "zzzz"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _ := s.handleMoveHistory(ctx, callRequest("move_history", tt.args))
			if result.IsError != tt.wantErr {
				t.Fatalf("IsError = %v, want %v: %s", result.IsError, tt.wantErr, resultText(t, result))
			}
			text := resultText(t, result)
			for _, want := range tt.contains {
				if !strings.Contains(text, want) {
					t.Errorf("expected %q in %q", want, text)
				}
			}
		})
	}
}

func TestHandleHighScore(t *testing.T) {
	s, svc := newTestServer(t)
	ctx := context.Background()
	id := customSession(t, svc, mergeRowGrid)

	if _, err := svc.Move(ctx, id, "left", false); err != nil {
		t.Fatalf("move: %v", err)
	}

	result, _ := s.handleHighScore(ctx, callRequest("high_score", map[string]any{}))
	if got := resultText(t, result); got != "High score: 4" {
		t.Errorf("got %q, want %q", got, "High score: 4")
	}

	result, _ = s.handleHighScore(ctx, callRequest("high_score", map[string]any{"reset": true}))
	if !strings.Contains(resultText(t, result), "reset") {
		t.Errorf("expected reset confirmation, got %q", resultText(t, result))
	}

	result, _ = s.handleHighScore(ctx, callRequest("high_score", map[string]any{}))
	if got := resultText(t, result); got != "High score: 0" {
		t.Errorf("got %q, want %q", got, "High score: 0")
	}
}

func TestHandleSessions(t *testing.T) {
	s, svc := newTestServer(t)
	ctx := context.Background()
	id := customSession(t, svc, mergeRowGrid)
	customSession(t, svc, mergeRowGrid)

	result, _ := s.handleListSessions(ctx, callRequest("list_sessions", nil))
	if !strings.Contains(resultText(t, result), "Active Sessions (2)") {
		t.Errorf("expected two sessions, got %q", resultText(t, result))
	}

	result, _ = s.handleGetSession(ctx, callRequest("get_session", map[string]any{"session_id": id}))
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if !strings.Contains(resultText(t, result), "Session: "+id) {
		t.Errorf("expected session header, got %q", resultText(t, result))
	}

	result, _ = s.handleDeleteSession(ctx, callRequest("delete_session", map[string]any{"session_id": id}))
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}

	result, _ = s.handleGetSession(ctx, callRequest("get_session", map[string]any{"session_id": id}))
	if !result.IsError {
		t.Error("expected tool error for deleted session")
	}

	result, _ = s.handleGameState(ctx, callRequest("game_state", map[string]any{}))
	if !result.IsError {
		t.Error("expected tool error without session_id")
	}
}

func TestHandleListConfigs(t *testing.T) {
	s, _ := newTestServer(t)

	result, _ := s.handleListConfigs(context.Background(), callRequest("list_configs", nil))
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	text := resultText(t, result)
	if !strings.Contains(text, "config_name: classic") {
		t.Errorf("expected classic preset, got %q", text)
	}
	if !strings.Contains(text, "Grid: 4x4, Winning tile: 2048, 2 start tiles, 10% fours") {
		t.Errorf("expected preset details, got %q", text)
	}
}

func TestHandleGameInstructions(t *testing.T) {
	s, _ := newTestServer(t)

	result, _ := s.handleGameInstructions(context.Background(), callRequest("game_instructions", nil))
	text := resultText(t, result)
	for _, want := range []string{"merge into one tile", "[4,4,.,.]", "At most 100 moves"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in instructions", want)
		}
	}
}

func TestHandleDescribeCell(t *testing.T) {
	s, svc := newTestServer(t)
	ctx := context.Background()
	id := customSession(t, svc, mergeRowGrid)

	tests := []struct {
		name     string
		row, col float64
		wantErr  bool
		contains []string
	}{
		{
			name:     "mergeable corner",
			row:      0,
			col:      0,
			contains: []string{"Value: 2", "- up: edge", "- right: 2", "Can merge with: right"},
		},
		{
			name:     "no merge",
			row:      0,
			col:      2,
			contains: []string{"Value: 4", "- right: empty", "Can merge with: none"},
		},
		{
			name:     "largest tile",
			row:      3,
			col:      3,
			contains: []string{"Value: 8", "largest tile"},
		},
		{
			name:     "empty cell",
			row:      1,
			col:      1,
			contains: []string{"Value: empty"},
		},
		{
			name:    "out of bounds",
			row:     4,
			col:     0,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, _ := s.handleDescribeCell(ctx, callRequest("describe_cell", map[string]any{
				"session_id": id,
				"row":        tt.row,
				"col":        tt.col,
			}))
			if result.IsError != tt.wantErr {
				t.Fatalf("IsError = %v, want %v: %s", result.IsError, tt.wantErr, resultText(t, result))
			}
			text := resultText(t, result)
			for _, want := range tt.contains {
				if !strings.Contains(text, want) {
					t.Errorf("expected %q in %q", want, text)
				}
			}
		})
	}
}

func TestParseGrid(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    [][]int
		wantErr bool
	}{
		{
			name: "floats",
			raw:  []any{[]any{2.0, 0.0}, []any{4.0, 8.0}},
			want: [][]int{{2, 0}, {4, 8}},
		},
		{
			name: "int rows",
			raw:  []any{[]int{2, 0}, []int{0, 4}},
			want: [][]int{{2, 0}, {0, 4}},
		},
		{
			name:    "fractional",
			raw:     []any{[]any{2.5}},
			wantErr: true,
		},
		{
			name:    "string cell",
			raw:     []any{[]any{"2"}},
			wantErr: true,
		},
		{
			name:    "flat",
			raw:     []any{2.0, 4.0},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseGrid(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !engine.GridsEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPossibleMoves(t *testing.T) {
	state := &engine.GameState{
		Grid: [][]int{
			{2, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
			{0, 0, 0, 0},
		},
		Rows: 4,
		Cols: 4,
	}
	got := strings.Join(possibleMoves(state), ",")
	if got != "down,right" {
		t.Errorf("got %q, want %q", got, "down,right")
	}

	state.Status = engine.Over
	if moves := possibleMoves(state); moves != nil {
		t.Errorf("expected no moves for finished game, got %v", moves)
	}
}
