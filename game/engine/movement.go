package engine

// CompactLine slides every tile in line toward index 0 and merges equal
// neighbours. A tile produced by a merge never merges again in the same
// pass, so [2,2,2,2] becomes [4,4,0,0]. It returns the new line (same length)
// and the sum of the merged values.
func CompactLine(line []int) ([]int, int) {
	out := make([]int, 0, len(line))
	gained := 0
	lastMerged := false

	for _, v := range line {
		if v == 0 {
			continue
		}
		n := len(out)
		if n > 0 && out[n-1] == v && !lastMerged {
			out[n-1] = 2 * v
			gained += 2 * v
			lastMerged = true
			continue
		}
		out = append(out, v)
		lastMerged = false
	}

	for len(out) < len(line) {
		out = append(out, 0)
	}
	return out, gained
}

// linePositions returns the cells of line idx ordered from the edge that
// tiles move toward. Vertical shifts walk columns, horizontal shifts rows.
func (b *Board) linePositions(dir Direction, idx int) []Position {
	switch dir {
	case Up:
		ps := make([]Position, b.rows)
		for r := 0; r < b.rows; r++ {
			ps[r] = Position{Row: r, Col: idx}
		}
		return ps
	case Down:
		ps := make([]Position, b.rows)
		for r := 0; r < b.rows; r++ {
			ps[r] = Position{Row: b.rows - 1 - r, Col: idx}
		}
		return ps
	case Left:
		ps := make([]Position, b.cols)
		for c := 0; c < b.cols; c++ {
			ps[c] = Position{Row: idx, Col: c}
		}
		return ps
	case Right:
		ps := make([]Position, b.cols)
		for c := 0; c < b.cols; c++ {
			ps[c] = Position{Row: idx, Col: b.cols - 1 - c}
		}
		return ps
	}
	return nil
}

// lineCount returns how many independent lines a shift in dir processes
func (b *Board) lineCount(dir Direction) int {
	if dir == Up || dir == Down {
		return b.cols
	}
	return b.rows
}

// Shift applies one directional move to every line of the board. It returns
// the score gained by merges and whether any cell changed. Unknown
// directions leave the board untouched.
func (b *Board) Shift(dir Direction) (int, bool) {
	gained := 0
	changed := false

	for idx := 0; idx < b.lineCount(dir); idx++ {
		positions := b.linePositions(dir, idx)
		line := make([]int, len(positions))
		for i, p := range positions {
			line[i] = b.cells[p.Row][p.Col]
		}

		compacted, g := CompactLine(line)
		gained += g

		for i, p := range positions {
			if b.cells[p.Row][p.Col] != compacted[i] {
				changed = true
				b.cells[p.Row][p.Col] = compacted[i]
			}
		}
	}

	return gained, changed
}
