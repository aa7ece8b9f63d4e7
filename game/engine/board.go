package engine

import "fmt"

// Board is a rectangular grid of tile values. Zero marks an empty cell.
type Board struct {
	cells [][]int
	rows  int
	cols  int
}

// NewBoard allocates an all-empty board
func NewBoard(rows, cols int) *Board {
	cells := make([][]int, rows)
	for i := range cells {
		cells[i] = make([]int, cols)
	}
	return &Board{cells: cells, rows: rows, cols: cols}
}

// BoardFromGrid copies grid into a new board after checking that it is
// rectangular with positive dimensions and only holds valid tile values.
func BoardFromGrid(grid [][]int) (*Board, error) {
	if len(grid) == 0 || len(grid[0]) == 0 {
		return nil, fmt.Errorf("%w: grid must have at least one row and one column", ErrInvalidShape)
	}

	cols := len(grid[0])
	for i, row := range grid {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvalidShape, i, len(row), cols)
		}
		for j, v := range row {
			if v != 0 && !IsTileValue(v) {
				return nil, fmt.Errorf("%w: %d at (%d,%d)", ErrInvalidTile, v, i, j)
			}
		}
	}

	b := NewBoard(len(grid), cols)
	for i, row := range grid {
		copy(b.cells[i], row)
	}
	return b, nil
}

// Rows returns the number of rows
func (b *Board) Rows() int { return b.rows }

// Cols returns the number of columns
func (b *Board) Cols() int { return b.cols }

// InBounds reports whether (row, col) lies on the board
func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.rows && col >= 0 && col < b.cols
}

// Get returns the value at (row, col)
func (b *Board) Get(row, col int) (int, error) {
	if !b.InBounds(row, col) {
		return 0, fmt.Errorf("%w: (%d,%d) on %dx%d board", ErrOutOfBounds, row, col, b.rows, b.cols)
	}
	return b.cells[row][col], nil
}

// Set stores value at (row, col)
func (b *Board) Set(row, col, value int) error {
	if !b.InBounds(row, col) {
		return fmt.Errorf("%w: (%d,%d) on %dx%d board", ErrOutOfBounds, row, col, b.rows, b.cols)
	}
	b.cells[row][col] = value
	return nil
}

// Snapshot returns a deep copy of the cells
func (b *Board) Snapshot() [][]int {
	out := make([][]int, b.rows)
	for i, row := range b.cells {
		out[i] = append([]int(nil), row...)
	}
	return out
}

// Clone returns an independent copy of the board
func (b *Board) Clone() *Board {
	return &Board{cells: b.Snapshot(), rows: b.rows, cols: b.cols}
}

// Equal reports whether both boards hold identical cells
func (b *Board) Equal(other *Board) bool {
	if other == nil || b.rows != other.rows || b.cols != other.cols {
		return false
	}
	for i := range b.cells {
		for j := range b.cells[i] {
			if b.cells[i][j] != other.cells[i][j] {
				return false
			}
		}
	}
	return true
}

// EmptyCells lists every empty position in row-major order
func (b *Board) EmptyCells() []Position {
	var empty []Position
	for i, row := range b.cells {
		for j, v := range row {
			if v == 0 {
				empty = append(empty, Position{Row: i, Col: j})
			}
		}
	}
	return empty
}

// Contains reports whether any cell holds value
func (b *Board) Contains(value int) bool {
	for _, row := range b.cells {
		for _, v := range row {
			if v == value {
				return true
			}
		}
	}
	return false
}

// HasAdjacentPair reports whether two orthogonal neighbours hold the same
// value, which means a merge is still possible.
func (b *Board) HasAdjacentPair() bool {
	for i := 0; i < b.rows; i++ {
		for j := 0; j < b.cols; j++ {
			v := b.cells[i][j]
			if i+1 < b.rows && b.cells[i+1][j] == v {
				return true
			}
			if j+1 < b.cols && b.cells[i][j+1] == v {
				return true
			}
		}
	}
	return false
}
