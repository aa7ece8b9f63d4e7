// Command validate provides a small CLI that validates board preset JSON
// files in a directory (../configs by default). It checks:
//   - JSON structure, unknown keys and required fields
//   - Dimensions, or for fixed layouts a rectangular grid of tile values
//   - Winning tile, spawn probability and start tile count
//   - Message templates only use the %d placeholders the game fills in
//   - Playability: a fixed layout must not already be won or stuck
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/mergegame/game/engine"
)

// Config mirrors the JSON schema for a board preset.
type Config struct {
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Rows            int               `json:"rows"`
	Cols            int               `json:"cols"`
	WinningTile     int               `json:"winning_tile"`
	FourProbability *float64          `json:"four_probability"`
	StartTiles      *int              `json:"start_tiles"`
	Layout          [][]int           `json:"layout"`
	Messages        map[string]string `json:"messages"`
}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset JSON file.
// It performs structural checks, grid validation, message checks and a
// playability check for fixed layouts.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config Config
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if config.Name == "" {
		result.fail("name is required")
	}

	target := config.WinningTile
	if target == 0 {
		target = engine.DefaultWinningTile
	}
	if target < 4 || !engine.IsTileValue(target) {
		result.fail("winning_tile must be a power of two of at least 4, got %d", target)
	}

	if p := config.FourProbability; p != nil && (*p < 0 || *p > 1) {
		result.fail("four_probability must be between 0 and 1, got %v", *p)
	}

	rows, cols := config.Rows, config.Cols
	if len(config.Layout) > 0 {
		rows, cols = validateLayout(&result, config.Layout)
		if config.Rows != 0 && config.Rows != rows || config.Cols != 0 && config.Cols != cols {
			result.fail("rows/cols (%dx%d) do not match layout (%dx%d)", config.Rows, config.Cols, rows, cols)
		}
		if config.StartTiles != nil {
			result.fail("start_tiles has no effect with a fixed layout")
		}
	} else {
		if rows < engine.MinRows || rows > engine.MaxGridSize {
			result.fail("rows must be between %d and %d, got %d", engine.MinRows, engine.MaxGridSize, rows)
		}
		if cols < engine.MinCols || cols > engine.MaxGridSize {
			result.fail("cols must be between %d and %d, got %d", engine.MinCols, engine.MaxGridSize, cols)
		}
		if n := config.StartTiles; n != nil && (*n < 0 || *n > rows*cols) {
			result.fail("start_tiles must be between 0 and %d, got %d", rows*cols, *n)
		}
	}

	validateMessages(&result, config.Messages)

	if result.Valid && len(config.Layout) > 0 {
		validatePlayable(&result, config.Layout, target)
	}

	// The engine's own check must agree with the file checks above
	if result.Valid {
		if _, err := engine.LoadGameConfig(filePath); err != nil {
			result.fail("rejected by engine: %v", err)
		}
	}

	// Add informational data
	if result.Valid {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", config.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Grid: %dx%d", rows, cols))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Winning tile: %d", target))
		if len(config.Layout) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("✓ Fixed layout, %d tiles, largest %d",
				rows*cols-engine.CountEmpty(config.Layout), engine.MaxTile(config.Layout)))
		}
	}

	return result
}

// validateLayout checks that layout is a rectangle of tile values within
// the size limits and returns its dimensions.
func validateLayout(result *ValidationResult, layout [][]int) (int, int) {
	rows, cols := len(layout), len(layout[0])

	for i, row := range layout {
		if len(row) != cols {
			result.fail("Inconsistent grid width at row %d: expected %d, got %d", i+1, cols, len(row))
			continue
		}
		for j, v := range row {
			if v != 0 && !engine.IsTileValue(v) {
				result.fail("Invalid tile %d at position [%d,%d]", v, i+1, j+1)
			}
		}
	}

	if rows < engine.MinRows || cols < engine.MinCols {
		result.fail("layout must be at least %dx%d, got %dx%d", engine.MinRows, engine.MinCols, rows, cols)
	}
	if rows > engine.MaxGridSize || cols > engine.MaxGridSize {
		result.fail("layout must be at most %dx%d, got %dx%d", engine.MaxGridSize, engine.MaxGridSize, rows, cols)
	}
	return rows, cols
}

// validateMessages checks every template against the placeholders the game
// fills in.
func validateMessages(result *ValidationResult, messages map[string]string) {
	keys := make([]string, 0, len(messages))
	for key := range messages {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		max, known := engine.MessageVerbs[key]
		if !known {
			result.fail("Unknown message: %s", key)
			continue
		}
		if err := engine.CheckMessageTemplate(messages[key], max); err != nil {
			result.fail("Message %s: %v", key, err)
		}
	}
}

// validatePlayable rejects a fixed layout that is already finished: one that
// holds the winning tile, or a full grid with no equal neighbours.
func validatePlayable(result *ValidationResult, layout [][]int, target int) {
	board, err := engine.BoardFromGrid(layout)
	if err != nil {
		result.fail("layout: %v", err)
		return
	}
	if board.Contains(target) {
		result.fail("layout already contains the winning tile %d", target)
		return
	}
	if len(board.EmptyCells()) == 0 && !board.HasAdjacentPair() {
		result.fail("layout has no legal moves")
		return
	}
	result.Errors = append(result.Errors, "✓ Playable: layout has legal moves")
}

// run validates every *.json file in dir, writes a report to w and reports
// whether all files were valid.
func run(dir string, w io.Writer) (bool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return false, fmt.Errorf("finding config files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no *.json files in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(w, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid, nil
}

// main validates the directory named by the first argument (../configs by
// default) and exits with non-zero status if any file is invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}

	ok, err := run(configDir, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}
