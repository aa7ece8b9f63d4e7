// Package config provides board preset management for the merge game.
//
// The config package handles:
//   - Loading presets from JSON files in a config directory
//   - Preset validation through engine.ValidateGameConfig
//   - Default preset selection
//   - Preset discovery, listing and saving
//
// Configuration Format:
//
// Each preset is a JSON file named <id>.json. A preset either gives rows and
// cols for a random start or an explicit layout grid, plus the winning tile,
// the chance of spawning a 4, the number of start tiles and message
// templates:
//
//	{
//	  "name": "classic",
//	  "rows": 4,
//	  "cols": 4,
//	  "winning_tile": 2048,
//	  "four_probability": 0.1,
//	  "messages": {"welcome": "Reach %d!"}
//	}
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("large")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// The default preset is "classic" when present, otherwise the first preset
// with a random start, otherwise the first fixed layout, otherwise a built-in
// 4x4 board. Presets are listed in id order and saved atomically.
package config
