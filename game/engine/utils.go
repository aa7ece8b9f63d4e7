package engine

import (
	"strconv"
	"strings"
)

// IsTileValue reports whether v is a power of two reachable by doubling 2
func IsTileValue(v int) bool {
	return v >= 2 && v&(v-1) == 0
}

// MaxTile returns the largest value in grid
func MaxTile(grid [][]int) int {
	max := 0
	for _, row := range grid {
		for _, v := range row {
			if v > max {
				max = v
			}
		}
	}
	return max
}

// CountEmpty counts the empty cells in grid
func CountEmpty(grid [][]int) int {
	count := 0
	for _, row := range grid {
		for _, v := range row {
			if v == 0 {
				count++
			}
		}
	}
	return count
}

// GridsEqual reports whether two grids hold identical values
func GridsEqual(a, b [][]int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

// FormatGrid renders grid as fixed-width text, one row per line. Empty cells
// are shown as dots.
func FormatGrid(grid [][]int) string {
	width := len(strconv.Itoa(MaxTile(grid)))
	if width < 4 {
		width = 4
	}

	var sb strings.Builder
	for _, row := range grid {
		for j, v := range row {
			cell := "."
			if v != 0 {
				cell = strconv.Itoa(v)
			}
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strings.Repeat(" ", width-len(cell)))
			sb.WriteString(cell)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
