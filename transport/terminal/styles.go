package terminal

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

var (
	boardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	messageStyle = lipgloss.NewStyle().
			Faint(true).
			Margin(1, 0, 0, 0)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	victoryStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10")).
			Margin(1, 0, 0, 0)

	gameOverStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9")).
			Margin(1, 0, 0, 0)

	emptyTileStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Align(lipgloss.Center)

	// 256-colour backgrounds by tile value; larger tiles reuse the last entry
	tileColors = map[int]string{
		2:    "230",
		4:    "229",
		8:    "215",
		16:   "209",
		32:   "203",
		64:   "196",
		128:  "228",
		256:  "227",
		512:  "226",
		1024: "220",
		2048: "214",
	}
)

// tileStyle returns the style for a tile of the given value
func tileStyle(value int) lipgloss.Style {
	bg, ok := tileColors[value]
	if !ok {
		bg = "93"
	}
	fg := "235"
	if value >= 8 {
		fg = "231"
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(fg)).
		Background(lipgloss.Color(bg)).
		Align(lipgloss.Center)
}

// renderTile draws one cell padded to width
func renderTile(value, width int) string {
	if value == 0 {
		return emptyTileStyle.Width(width).Render("·")
	}
	return tileStyle(value).Width(width).Render(strconv.Itoa(value))
}

// renderGrid draws the board, one styled cell per tile
func renderGrid(grid [][]int, maxTile int) string {
	width := len(strconv.Itoa(maxTile)) + 2
	if width < 6 {
		width = 6
	}

	rows := make([]string, len(grid))
	for i, row := range grid {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = renderTile(v, width)
		}
		rows[i] = lipgloss.JoinHorizontal(lipgloss.Top, cells...)
	}
	return boardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
