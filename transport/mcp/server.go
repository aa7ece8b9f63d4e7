package mcp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
	"github.com/wricardo/mcp-training/mergegame/game/service"
)

// Server exposes a GameService as MCP tools
type Server struct {
	svc       service.GameService
	mcpServer *server.MCPServer
}

// NewServer creates an MCP server backed by svc
func NewServer(svc service.GameService) *Server {
	s := &Server{svc: svc}
	s.initMCPServer()
	return s
}

// initMCPServer initializes the MCP server with all tools
func (s *Server) initMCPServer() {
	s.mcpServer = server.NewMCPServer(
		"Merge Game",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Merge Game - MCP Interface

Slide numbered tiles on a grid. Equal tiles that collide merge into their sum
and the merged value is added to your score. After every move that changes the
board a new 2 (or sometimes 4) appears in an empty cell.

GAME OBJECTIVE:
Build a tile equal to the winning tile (2048 on the classic board). The game is
lost when the board is full and no two neighbouring tiles are equal.

AVAILABLE TOOLS:
- create_session: Start a game from a preset
- create_custom_session: Start a game on an explicit grid
- list_sessions / get_session / delete_session: Manage sessions
- game_state: Current grid, score and status
- move: One move (up/down/left/right) - requires intent explanation
- bulk_move: Several moves at once - requires intent explanation
- reset_game: Restart the session's board
- end_game: Finish the session now
- move_history: View past moves
- high_score: Best score across all sessions
- list_configs: Available board presets
- game_instructions: Full rules and strategy notes
- describe_cell: Value and neighbours of one cell

NOTE: The 'intent' parameter on move/bulk_move tools serves as rubber duck debugging - explain your reasoning!`),
	)

	s.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	// Session management
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional preset selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_name": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use (optional, see list_configs)",
				},
			},
		},
	}, s.handleCreateSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_custom_session",
		Description: "Create a game session on an explicit grid. Use 0 for empty cells; no start tiles are added.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"grid": map[string]interface{}{
					"type":        "array",
					"description": "Rows of tile values; any positive rectangular size",
					"items": map[string]interface{}{
						"type":  "array",
						"items": map[string]interface{}{"type": "integer"},
					},
				},
			},
			Required: []string{"grid"},
		},
	}, s.handleCreateCustomSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListSessions)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleGetSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "delete_session",
		Description: "Delete a game session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleDeleteSession)

	// Game operations
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleGameState)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Shift every tile in a direction, merging equal neighbours",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"direction": map[string]interface{}{
					"type":        "string",
					"description": "Direction to move",
					"enum":        []string{"up", "down", "left", "right"},
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Why you chose this move",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset the board before moving",
				},
			},
			Required: []string{"session_id", "direction", "intent"},
		},
	}, s.handleMove)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: fmt.Sprintf("Execute up to %d moves in sequence. Stops when the game ends or a direction is invalid.", engine.MaxBulkMoves),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"moves": map[string]interface{}{
					"type":        "array",
					"description": "Directions to play in order",
					"items": map[string]interface{}{
						"type": "string",
						"enum": []string{"up", "down", "left", "right"},
					},
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "The plan behind this sequence",
				},
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset the board before moving",
				},
			},
			Required: []string{"session_id", "moves", "intent"},
		},
	}, s.handleBulkMove)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Reset the session's board to its starting state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleReset)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "end_game",
		Description: "Finish the game now; further moves are rejected until reset",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleEndGame)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get paginated move history",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": fmt.Sprintf("Moves per page (default %d)", engine.DefaultHistoryLimit),
				},
				"order": map[string]interface{}{
					"type":        "string",
					"description": "asc or desc (default desc, newest first)",
					"enum":        []string{"asc", "desc"},
				},
			},
			Required: []string{"session_id"},
		},
	}, s.handleMoveHistory)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "high_score",
		Description: "Get the best score reached by any session, optionally resetting it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"reset": map[string]interface{}{
					"type":        "boolean",
					"description": "Reset the high score to zero",
				},
			},
		},
	}, s.handleHighScore)

	// Info
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available board presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListConfigs)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the rules of the game",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleGameInstructions)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe one cell: its value, its neighbours and which of them it can merge with",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row index, 0 is the top row",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column index, 0 is the leftmost column",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, s.handleDescribeCell)
}

// GetMCPServer returns the underlying MCP server
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// Serve speaks MCP over stdin/stdout until ctx is cancelled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.StandardLog())

	log.Info("mcp server listening on stdio")
	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configName := request.GetString("config_name", "")

	session, err := s.svc.CreateSession(ctx, configName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleCreateCustomSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	grid, err := parseGrid(request.GetArguments()["grid"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session, err := s.svc.CreateCustomSession(ctx, grid)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := s.svc.ListSessions(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", len(sessions))
	for _, sess := range sessions {
		score, status := 0, engine.Running
		if sess.GameState != nil {
			score, status = sess.GameState.Score, sess.GameState.Status
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Score: %d, Status: %s, Created: %s)\n",
			sess.ID, sess.ConfigName, score, status, sess.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	session, err := s.svc.GetSession(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(session)), nil
}

func (s *Server) handleDeleteSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := s.svc.DeleteSession(ctx, sessionID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Deleted session: %s", sessionID)), nil
}

func (s *Server) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := s.svc.GetGameState(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(state)), nil
}

func (s *Server) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	direction, err := request.RequireString("direction")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reset := request.GetBool("reset", false)

	log.Debug("mcp move", "session", sessionID, "direction", direction, "intent", request.GetString("intent", ""))

	result, err := s.svc.Move(ctx, sessionID, direction, reset)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMoveResult(result)), nil
}

func (s *Server) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	moves, err := request.RequireStringSlice("moves")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reset := request.GetBool("reset", false)

	log.Debug("mcp bulk move", "session", sessionID, "moves", len(moves), "intent", request.GetString("intent", ""))

	result, err := s.svc.BulkMove(ctx, sessionID, moves, reset)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, result)), nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := s.svc.Reset(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Game reset\n\n" + formatGameState(state)), nil
}

func (s *Server) handleEndGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := s.svc.EndGame(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Game ended with score %d\n\n%s", state.Score, formatGameState(state))), nil
}

func (s *Server) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := service.HistoryOptions{
		Page:  request.GetInt("page", 1),
		Limit: request.GetInt("limit", engine.DefaultHistoryLimit),
		Order: request.GetString("order", "desc"),
	}
	if opts.Order != "asc" && opts.Order != "desc" {
		return mcp.NewToolResultError(fmt.Sprintf("order must be asc or desc, got %q", opts.Order)), nil
	}

	history, err := s.svc.GetMoveHistory(ctx, sessionID, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := formatHistory(history)

	// Also show the live state the history leads to
	if state, err := s.svc.GetGameState(ctx, sessionID); err == nil {
		result += "\n" + formatCurrentSegment(state)
	}
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleHighScore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if request.GetBool("reset", false) {
		if err := s.svc.ResetHighScore(ctx); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText("High score reset to 0"), nil
	}

	score, err := s.svc.HighScore(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("High score: %d", score)), nil
}

func (s *Server) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configs, err := s.svc.ListConfigs(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (config_name: %s)\n  %s\n  Grid: %dx%d, Winning tile: %d",
			config.Name, config.ConfigID, config.Description, config.Rows, config.Cols, config.WinningTile)
		if config.HasLayout {
			fmt.Fprintf(&b, ", fixed layout with %d tiles", config.StartTiles)
		} else {
			fmt.Fprintf(&b, ", %d start tiles, %.0f%% fours", config.StartTiles, config.FourChance*100)
		}
		b.WriteString("\n\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := fmt.Sprintf(`MERGE GAME - RULES

THE BOARD:
- Preset boards are at least 4x4; custom grids may be any rectangle. Each
  cell is empty (shown as '.') or holds a
  tile whose value is a power of two.
- Row 0 is the top row, column 0 is the leftmost column.

MOVING:
- A move slides every tile as far as it can go in one direction
  (up, down, left or right).
- Two tiles of the same value that meet merge into one tile holding their sum.
- A tile produced by a merge cannot merge again in the same move:
  [2,2,2,2] moved left becomes [4,4,.,.], not [8,.,.,.].
- When three equal tiles line up, the pair nearest the wall merges first:
  [2,2,2,.] moved left becomes [4,2,.,.].

SCORING:
- Every merge adds the new tile's value to your score.
- The high score is shared by every session on this server.

SPAWNING:
- After a move that changes the board, a new tile appears in a random empty cell.
- The new tile is a 2 most of the time and a 4 otherwise (%.0f%% on the classic board).
- A move that changes nothing does not spawn a tile.

WINNING AND LOSING:
- Creating a tile equal to the winning tile ends the game with a victory.
- When the board is full and no two horizontally or vertically adjacent tiles
  are equal, the game is over.
- A finished game rejects moves; use reset_game or move with reset=true.

STRATEGY NOTES:
- Keep your largest tile in a corner and build along one edge.
- Use bulk_move for routine sequences and check the possible moves it reports.
- describe_cell shows which neighbours a tile can merge with.

BULK MOVES:
- At most %d moves per call; extra moves are dropped and the result says so.
- The sequence stops at the first invalid direction or when the game ends.`,
		engine.DefaultFourChance*100, engine.MaxBulkMoves)

	return mcp.NewToolResultText(instructions), nil
}

func (s *Server) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	row, err := request.RequireInt("row")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	col, err := request.RequireInt("col")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state, err := s.svc.GetGameState(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if row < 0 || row >= state.Rows || col < 0 || col >= state.Cols {
		return mcp.NewToolResultError(fmt.Sprintf("Coordinates (%d, %d) are out of bounds. Grid is %dx%d (rows 0-%d, cols 0-%d)",
			row, col, state.Rows, state.Cols, state.Rows-1, state.Cols-1)), nil
	}

	return mcp.NewToolResultText(describeCell(state, row, col)), nil
}

// describeCell reports a cell's value and how it relates to its neighbours
func describeCell(state *engine.GameState, row, col int) string {
	value := state.Grid[row][col]

	var b strings.Builder
	fmt.Fprintf(&b, "Cell at row %d, col %d:\n", row, col)
	if value == 0 {
		b.WriteString("Value: empty\n")
	} else {
		fmt.Fprintf(&b, "Value: %d\n", value)
	}

	neighbours := []struct {
		name     string
		row, col int
	}{
		{"up", row - 1, col},
		{"down", row + 1, col},
		{"left", row, col - 1},
		{"right", row, col + 1},
	}

	var mergeable []string
	b.WriteString("Neighbours:\n")
	for _, n := range neighbours {
		if n.row < 0 || n.row >= state.Rows || n.col < 0 || n.col >= state.Cols {
			fmt.Fprintf(&b, "- %s: edge\n", n.name)
			continue
		}
		v := state.Grid[n.row][n.col]
		if v == 0 {
			fmt.Fprintf(&b, "- %s: empty\n", n.name)
			continue
		}
		fmt.Fprintf(&b, "- %s: %d\n", n.name, v)
		if v == value {
			mergeable = append(mergeable, n.name)
		}
	}

	if value != 0 {
		if len(mergeable) > 0 {
			fmt.Fprintf(&b, "Can merge with: %s\n", strings.Join(mergeable, ", "))
		} else {
			b.WriteString("Can merge with: none\n")
		}
		if value == state.MaxTile {
			b.WriteString("This is the largest tile on the board\n")
		}
	}
	return b.String()
}

// parseGrid converts a JSON-decoded grid argument into rows of ints
func parseGrid(raw interface{}) ([][]int, error) {
	switch g := raw.(type) {
	case [][]int:
		return g, nil
	case []interface{}:
		grid := make([][]int, len(g))
		for i, r := range g {
			cells, ok := r.([]interface{})
			if !ok {
				if ints, ok := r.([]int); ok {
					grid[i] = ints
					continue
				}
				return nil, fmt.Errorf("grid row %d is not an array", i)
			}
			grid[i] = make([]int, len(cells))
			for j, c := range cells {
				v, err := cellValue(c)
				if err != nil {
					return nil, fmt.Errorf("grid[%d][%d]: %w", i, j, err)
				}
				grid[i][j] = v
			}
		}
		return grid, nil
	case nil:
		return nil, fmt.Errorf("grid is required")
	}
	return nil, fmt.Errorf("grid must be an array of arrays of integers")
}

func cellValue(c interface{}) (int, error) {
	switch v := c.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	}
	return 0, fmt.Errorf("%v is not a number", c)
}

// possibleMoves lists the directions that would change the state's grid
func possibleMoves(state *engine.GameState) []string {
	if state == nil || state.Status == engine.Over {
		return nil
	}
	board, err := engine.BoardFromGrid(state.Grid)
	if err != nil {
		return nil
	}
	var moves []string
	for _, dir := range engine.Directions {
		if _, changed := board.Clone().Shift(dir); changed {
			moves = append(moves, string(dir))
		}
	}
	return moves
}

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var result strings.Builder

	// Header (include cumulative total moves)
	fmt.Fprintf(&result, "Score: %d | High: %d | Moves: %d | Max tile: %d/%d | Empty: %d\n\n",
		state.Score, state.HighScore, state.TotalMoves, state.MaxTile, state.WinningTile, state.EmptyCells)

	result.WriteString(engine.FormatGrid(state.Grid))

	if state.Status == engine.Over {
		if state.ReachedTarget {
			result.WriteString("\n🎉 VICTORY!")
		} else {
			result.WriteString("\n💀 GAME OVER")
		}
	} else if pm := possibleMoves(state); len(pm) > 0 {
		result.WriteString("\nPossible moves: " + strings.Join(pm, ","))
	}

	if state.Message != "" {
		fmt.Fprintf(&result, "\nMessage: %s", state.Message)
	}

	return result.String()
}

func formatMoveResult(result *service.MoveResult) string {
	response := ""
	if result.Success {
		response = "✓ Board changed\n"
	} else {
		response = "✗ Nothing moved\n"
	}

	if o := result.Outcome; o != nil {
		response += fmt.Sprintf("Step: %s +%d", o.Direction, o.ScoreGained)
		if o.Spawned != nil {
			response += fmt.Sprintf(" spawned %d at (%d,%d)", o.Spawned.Value, o.Spawned.Row, o.Spawned.Col)
		}
		response += fmt.Sprintf(" status=%s\n", o.Status)
	}

	if len(result.Events) > 0 {
		response += "Events:\n"
		for _, event := range result.Events {
			response += fmt.Sprintf("- %s: %s\n", event.Type, event.Message)
		}
	}

	response += "\n" + formatGameState(result.GameState)
	return response
}

func formatBulkMoveResult(sessionID string, result *service.BulkMoveResult) string {
	var b strings.Builder

	// Session header
	rows, cols, configName := 0, 0, ""
	if result.GameState != nil {
		rows, cols, configName = result.GameState.Rows, result.GameState.Cols, result.GameState.ConfigName
	}
	fmt.Fprintf(&b, "Session: %s • Config: %s • Grid: %dx%d\n", sessionID, configName, rows, cols)

	// Bulk summary
	fmt.Fprintf(&b, "Executed %d/%d moves\n", result.MovesExecuted, result.RequestedMoves)
	if result.Truncated {
		fmt.Fprintf(&b, "Truncated to %d moves\n", result.Limit)
	}
	fmt.Fprintf(&b, "Score: %d → %d (+%d)\n", result.StartScore, result.EndScore, result.ScoreDelta)
	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped on move %d: %s\n", result.StoppedOnMove, result.StoppedReason)
	}
	if result.StopReasonCode != "" {
		fmt.Fprintf(&b, "Stop code: %s\n", result.StopReasonCode)
	}

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps (this call):\n")
		for _, s := range result.Steps {
			b.WriteString(formatStepLine(s))
		}
	}

	if len(result.PossibleMoves) > 0 {
		dirs := make([]string, len(result.PossibleMoves))
		for i, d := range result.PossibleMoves {
			dirs[i] = string(d)
		}
		fmt.Fprintf(&b, "\nPossible moves: %s\n", strings.Join(dirs, ","))
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatStepLine(s service.StepInfo) string {
	status := "✓"
	if !s.Changed {
		status = "✗"
	}
	line := fmt.Sprintf("%d. %s %s +%d score=%d", s.Idx, s.Dir, status, s.ScoreGained, s.ScoreAfter)
	if s.Spawned != nil {
		line += fmt.Sprintf(" new %d@(%d,%d)", s.Spawned.Value, s.Spawned.Row, s.Spawned.Col)
	}
	if s.Status == engine.Over {
		line += " [over]"
	}
	return line + "\n"
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Move History (Page %d/%d) • Total (cumulative): %d\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, move := range history.Moves {
		status := "✓"
		if !move.Changed {
			status = "✗"
		}
		fmt.Fprintf(&b, "%d. %s %s +%d [Score: %d]", move.MoveNumber, move.Direction, status, move.ScoreGained, move.ScoreAfter)
		if move.Spawned != nil {
			fmt.Fprintf(&b, " new %d@(%d,%d)", move.Spawned.Value, move.Spawned.Row, move.Spawned.Col)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func formatCurrentSegment(state *engine.GameState) string {
	if state == nil {
		return "Current Game: unavailable"
	}
	return fmt.Sprintf("Current Game • Moves since reset: %d • Score: %d • Status: %s\n",
		state.CurrentMovesCount, state.Score, state.Status)
}
