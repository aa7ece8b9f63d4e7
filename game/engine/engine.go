package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

var (
	ErrInvalidDimensions = errors.New("invalid board dimensions")
	ErrInvalidShape      = errors.New("invalid board shape")
	ErrInvalidTile       = errors.New("invalid tile value")
	ErrNoEmptyCell       = errors.New("no empty cell")
	ErrOutOfBounds       = errors.New("cell index out of bounds")
	ErrInvalidDirection  = errors.New("invalid direction")
	ErrGameOver          = errors.New("game is over")
)

// Engine provides the main interface for game operations
type Engine interface {
	// Moves
	Shift(dir Direction) (int, bool)
	ShiftUp()
	ShiftDown()
	ShiftLeft()
	ShiftRight()
	Move(dir Direction) (*MoveOutcome, error)
	CanMove(dir Direction) bool
	GetPossibleMoves() []Direction

	// Tiles and terminal state
	AddRandomTile() (Tile, error)
	CheckGameOver() Status
	SetStatus(status Status)

	// Queries
	Grid() [][]int
	Cell(row, col int) (int, error)
	Rows() int
	Cols() int
	Score() int
	HighScore() int
	Status() Status
	ReachedTarget() bool
	GetState() *GameState
	GetConfig() *GameConfig

	// Lifecycle
	Reset() *GameState
	ResetHighScore()

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// Option configures a GameEngine at construction time
type Option func(*GameEngine)

// WithRand injects the randomness source used for spawning tiles
func WithRand(rng *rand.Rand) Option {
	return func(e *GameEngine) {
		e.rng = rng
	}
}

// WithHighScore shares a high score tracker between engines
func WithHighScore(h *HighScore) Option {
	return func(e *GameEngine) {
		if h != nil {
			e.highScore = h
		}
	}
}

// WithConfig sets the preset that supplies the winning tile, spawn odds and messages
func WithConfig(config *GameConfig) Option {
	return func(e *GameEngine) {
		if config != nil {
			e.config = config
		}
	}
}

var _ Engine = (*GameEngine)(nil)

// GameEngine implements the Engine interface for one game session
type GameEngine struct {
	board         *Board
	initial       [][]int // set for boards created from an explicit grid
	config        *GameConfig
	rng           *rand.Rand
	spawner       *Spawner
	highScore     *HighScore
	score         int
	status        Status
	reachedTarget bool
	message       string

	history      []MoveHistoryEntry
	totalMoves   int
	currentMoves int
}

func newGameEngine(opts []Option) *GameEngine {
	e := &GameEngine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.config == nil {
		e.config = DefaultConfig()
	}
	if e.highScore == nil {
		e.highScore = NewHighScore()
	}
	e.spawner = NewSpawner(e.rng, e.config.FourChance())
	e.history = []MoveHistoryEntry{}
	return e
}

// NewEngine starts a standard game on an empty rows x cols board with the
// configured number of random start tiles (two by default).
func NewEngine(rows, cols int, opts ...Option) (*GameEngine, error) {
	if rows < MinRows || cols < MinCols {
		return nil, fmt.Errorf("%w: board must have at least %d rows and %d columns, got %dx%d",
			ErrInvalidDimensions, MinRows, MinCols, rows, cols)
	}

	e := newGameEngine(opts)
	e.board = NewBoard(rows, cols)
	e.start()
	return e, nil
}

// NewEngineFromGrid starts a game on a copy of grid without spawning tiles.
// Any positive rectangular dimensions are accepted.
func NewEngineFromGrid(grid [][]int, opts ...Option) (*GameEngine, error) {
	board, err := BoardFromGrid(grid)
	if err != nil {
		return nil, err
	}

	e := newGameEngine(opts)
	e.board = board
	e.initial = board.Snapshot()
	e.start()
	return e, nil
}

// NewEngineFromConfig validates config and starts the game it describes
func NewEngineFromConfig(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	opts = append(opts, WithConfig(config))
	if len(config.Layout) > 0 {
		return NewEngineFromGrid(config.Layout, opts...)
	}
	return NewEngine(config.Rows, config.Cols, opts...)
}

// start resets score and status and fills a standard board with start tiles
func (e *GameEngine) start() {
	e.score = 0
	e.status = Running
	e.reachedTarget = false
	e.currentMoves = 0
	e.message = formatMessage(e.config.Messages.Welcome, "Merge tiles to reach %d", e.config.Target())

	if e.initial != nil {
		return
	}
	for i := 0; i < e.config.InitialTiles(); i++ {
		if _, err := e.spawner.Spawn(e.board); err != nil {
			break
		}
	}
}

// Shift applies a move without spawning or terminal checks
func (e *GameEngine) Shift(dir Direction) (int, bool) {
	gained, changed := e.board.Shift(dir)
	if gained > 0 {
		e.updateScore(gained)
	}
	return gained, changed
}

// ShiftUp moves every tile toward the top row
func (e *GameEngine) ShiftUp() { e.Shift(Up) }

// ShiftDown moves every tile toward the bottom row
func (e *GameEngine) ShiftDown() { e.Shift(Down) }

// ShiftLeft moves every tile toward the first column
func (e *GameEngine) ShiftLeft() { e.Shift(Left) }

// ShiftRight moves every tile toward the last column
func (e *GameEngine) ShiftRight() { e.Shift(Right) }

// Move plays one full turn: shift, check for a finished game, and when the
// board changed and the game goes on, spawn a tile and check again.
func (e *GameEngine) Move(dir Direction) (*MoveOutcome, error) {
	if !isDirection(dir) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	if e.status == Over {
		return nil, ErrGameOver
	}

	gained, changed := e.Shift(dir)
	outcome := &MoveOutcome{
		Direction:   dir,
		Changed:     changed,
		ScoreGained: gained,
	}

	e.CheckGameOver()
	if e.status == Running && changed {
		if tile, err := e.AddRandomTile(); err == nil {
			outcome.Spawned = &tile
		}
		e.CheckGameOver()
	}

	outcome.Status = e.status
	outcome.ReachedTarget = e.reachedTarget

	switch {
	case e.reachedTarget:
		e.message = formatMessage(e.config.Messages.Victory, "You made %d! Final score: %d", e.config.Target(), e.score)
	case e.status == Over:
		e.message = formatMessage(e.config.Messages.GameOver, "No moves left. Final score: %d", e.score)
	case !changed:
		e.message = formatMessage(e.config.Messages.NoChange, "Nothing moved")
	default:
		e.message = fmt.Sprintf("Score: %d", e.score)
	}

	e.addMoveToHistory(outcome)
	return outcome, nil
}

// CanMove reports whether shifting in dir would change the board
func (e *GameEngine) CanMove(dir Direction) bool {
	if e.status == Over || !isDirection(dir) {
		return false
	}
	_, changed := e.board.Clone().Shift(dir)
	return changed
}

// GetPossibleMoves returns every direction that would change the board
func (e *GameEngine) GetPossibleMoves() []Direction {
	var possible []Direction
	for _, dir := range Directions {
		if e.CanMove(dir) {
			possible = append(possible, dir)
		}
	}
	return possible
}

// AddRandomTile places a 2 or 4 on a random empty cell
func (e *GameEngine) AddRandomTile() (Tile, error) {
	return e.spawner.Spawn(e.board)
}

// CheckGameOver re-evaluates the board. A winning tile ends the game as a
// win; a full board without equal neighbours ends it as a loss. Otherwise
// the status is left as it was.
func (e *GameEngine) CheckGameOver() Status {
	if e.board.Contains(e.config.Target()) {
		e.reachedTarget = true
		e.status = Over
		return e.status
	}

	if len(e.board.EmptyCells()) > 0 {
		return e.status
	}

	if !e.board.HasAdjacentPair() {
		e.status = Over
	}
	return e.status
}

// SetStatus overrides the game status, for example to end a game early
func (e *GameEngine) SetStatus(status Status) {
	e.status = status
}

// updateScore adds a merge result to the score and raises the high score
func (e *GameEngine) updateScore(value int) {
	e.score += value
	e.highScore.Offer(e.score)
}

// Grid returns a copy of the board cells
func (e *GameEngine) Grid() [][]int {
	return e.board.Snapshot()
}

// Cell returns the value at (row, col)
func (e *GameEngine) Cell(row, col int) (int, error) {
	return e.board.Get(row, col)
}

// Rows returns the board height
func (e *GameEngine) Rows() int { return e.board.Rows() }

// Cols returns the board width
func (e *GameEngine) Cols() int { return e.board.Cols() }

// Score returns the current score
func (e *GameEngine) Score() int { return e.score }

// HighScore returns the best score seen by the shared tracker
func (e *GameEngine) HighScore() int { return e.highScore.Get() }

// Status returns the game status
func (e *GameEngine) Status() Status { return e.status }

// ReachedTarget reports whether the winning tile has appeared
func (e *GameEngine) ReachedTarget() bool { return e.reachedTarget }

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool { return e.status == Over }

// GetConfig returns the preset the engine was built with
func (e *GameEngine) GetConfig() *GameConfig { return e.config }

// GetState returns a snapshot of the game
func (e *GameEngine) GetState() *GameState {
	grid := e.board.Snapshot()
	return &GameState{
		Grid:              grid,
		Rows:              e.board.Rows(),
		Cols:              e.board.Cols(),
		Score:             e.score,
		HighScore:         e.highScore.Get(),
		Status:            e.status,
		ReachedTarget:     e.reachedTarget,
		WinningTile:       e.config.Target(),
		ConfigName:        e.config.Name,
		MaxTile:           MaxTile(grid),
		EmptyCells:        CountEmpty(grid),
		Message:           e.message,
		MoveHistory:       append([]MoveHistoryEntry(nil), e.history...),
		TotalMoves:        e.totalMoves,
		CurrentMovesCount: e.currentMoves,
	}
}

// Reset starts the game again the way it was first created: a fresh random
// board for standard games, the original grid for explicit ones. The high
// score and the cumulative move history survive.
func (e *GameEngine) Reset() *GameState {
	if e.initial != nil {
		board, _ := BoardFromGrid(e.initial)
		e.board = board
	} else {
		e.board = NewBoard(e.board.Rows(), e.board.Cols())
	}
	e.start()
	return e.GetState()
}

// ResetHighScore clears the shared high score
func (e *GameEngine) ResetHighScore() {
	e.highScore.Reset()
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return append([]MoveHistoryEntry(nil), e.history...)
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	last := e.history[len(e.history)-1]
	return &last
}

// addMoveToHistory appends a move to the cumulative history
func (e *GameEngine) addMoveToHistory(outcome *MoveOutcome) {
	e.totalMoves++
	e.currentMoves++
	e.history = append(e.history, MoveHistoryEntry{
		Direction:   outcome.Direction,
		Changed:     outcome.Changed,
		ScoreGained: outcome.ScoreGained,
		Spawned:     outcome.Spawned,
		ScoreAfter:  e.score,
		StatusAfter: e.status,
		Timestamp:   time.Now().Unix(),
		MoveNumber:  e.totalMoves,
	})
}

func isDirection(dir Direction) bool {
	switch dir {
	case Up, Down, Left, Right:
		return true
	}
	return false
}

// formatMessage fills tmpl (or fallback when empty) with as many args as it
// has %d verbs.
func formatMessage(tmpl, fallback string, args ...interface{}) string {
	if tmpl == "" {
		tmpl = fallback
	}
	n := strings.Count(strings.ReplaceAll(tmpl, "%%", ""), "%d")
	if n > len(args) {
		n = len(args)
	}
	return fmt.Sprintf(tmpl, args[:n]...)
}
