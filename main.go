// Command mergegame plays the tile-merge puzzle.
//
// It supports three commands:
//  1. "play" (default) runs an interactive game in the terminal
//  2. "mcp" serves the game to MCP clients over stdio
//  3. "configs" lists the board presets, and "configs new" writes one
//
// Flags control the preset directory, debug logging and the random seed.
// A .env file in the working directory is loaded before flags are parsed.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/mergegame/game/config"
	"github.com/wricardo/mcp-training/mergegame/game/engine"
	"github.com/wricardo/mcp-training/mergegame/game/service"
	"github.com/wricardo/mcp-training/mergegame/game/session"
	"github.com/wricardo/mcp-training/mergegame/transport/mcp"
	"github.com/wricardo/mcp-training/mergegame/transport/terminal"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "mergegame"
)

const (
	sessionMaxAge       = 24 * time.Hour
	sessionCleanupEvery = time.Hour
)

// services holds the wired managers behind the game service
type services struct {
	game     service.GameService
	sessions *session.Manager
	configs  *config.Manager
}

// main loads .env, parses flags and runs the selected command.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Warn("error loading .env file", "err", err)
		}
	} else {
		log.Debug("loaded environment variables from .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal("mergegame failed", "err", err)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:    AppName,
		Usage:   "slide and merge numbered tiles",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory containing board presets",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("MERGEGAME_DEBUG"),
			},
			&cli.Int64Flag{
				Name:    "seed",
				Usage:   "seed for tile spawning; 0 picks a random seed",
				Sources: cli.EnvVars("MERGEGAME_SEED"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			setupLogging(cmd.Bool("debug"))
			return ctx, nil
		},
		Action: runPlay,
		Commands: []*cli.Command{
			{
				Name:  "play",
				Usage: "play a game in the terminal",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "preset to play (see configs)",
					},
					&cli.IntFlag{
						Name:  "rows",
						Usage: "board height for a standard board, overrides --config",
					},
					&cli.IntFlag{
						Name:  "cols",
						Usage: "board width for a standard board, overrides --config",
					},
				},
				Action: runPlay,
			},
			{
				Name:   "mcp",
				Usage:  "serve the game to MCP clients over stdio",
				Action: runMCP,
			},
			{
				Name:   "configs",
				Usage:  "list board presets",
				Action: runListConfigs,
				Commands: []*cli.Command{
					{
						Name:      "new",
						Usage:     "write a new standard board preset",
						ArgsUsage: "NAME",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "rows", Value: engine.MinRows, Usage: "board height"},
							&cli.IntFlag{Name: "cols", Value: engine.MinCols, Usage: "board width"},
							&cli.IntFlag{Name: "winning-tile", Value: engine.DefaultWinningTile, Usage: "tile that wins the game"},
							&cli.StringFlag{Name: "description", Usage: "preset description"},
						},
						Action: runNewConfig,
					},
				},
			},
		},
	}
}

// setupLogging configures the package-level logger. Logs go to stderr so
// they never mix with MCP traffic on stdout.
func setupLogging(debug bool) {
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(true)
	if debug {
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// initializeServices wires session/config managers and the game service.
func initializeServices(configDir string, seed int64) (*services, error) {
	configManager, err := config.NewManager(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	var opts []session.Option
	if seed != 0 {
		opts = append(opts, session.WithSeed(seed))
	}
	sessionManager := session.NewManager(nil, opts...)

	return &services{
		game:     service.NewGameService(sessionManager, configManager),
		sessions: sessionManager,
		configs:  configManager,
	}, nil
}

func servicesFromCommand(cmd *cli.Command) (*services, error) {
	return initializeServices(cmd.String("config-dir"), cmd.Int64("seed"))
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window. It returns when ctx is done.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, every, maxAge time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			manager.CleanupExpiredSessions(maxAge)
		}
	}
}

// createPlaySession picks the board for the play command: explicit
// dimensions first, then a named preset, then the default preset.
func createPlaySession(ctx context.Context, svcs *services, cmd *cli.Command) (string, error) {
	rows, cols := cmd.Int("rows"), cmd.Int("cols")
	if rows != 0 || cols != 0 {
		if rows == 0 {
			rows = engine.MinRows
		}
		if cols == 0 {
			cols = engine.MinCols
		}
		cfg := engine.DefaultConfig()
		cfg.Name = fmt.Sprintf("%dx%d", rows, cols)
		cfg.Description = "Standard board with custom dimensions"
		cfg.Rows, cfg.Cols = rows, cols

		sess, err := svcs.sessions.Create("", cfg)
		if err != nil {
			return "", err
		}
		return sess.ID, nil
	}

	info, err := svcs.game.CreateSession(ctx, cmd.String("config"))
	if err != nil {
		return "", err
	}
	return info.ID, nil
}

func runPlay(ctx context.Context, cmd *cli.Command) error {
	svcs, err := servicesFromCommand(cmd)
	if err != nil {
		return err
	}

	id, err := createPlaySession(ctx, svcs, cmd)
	if err != nil {
		return err
	}

	log.Debug("starting terminal game", "session", id)
	return terminal.Run(ctx, svcs.game, id)
}

func runMCP(ctx context.Context, cmd *cli.Command) error {
	svcs, err := servicesFromCommand(cmd)
	if err != nil {
		return err
	}

	go sessionCleanupRoutine(ctx, svcs.sessions, sessionCleanupEvery, sessionMaxAge)

	log.Info("starting MCP server", "version", Version, "config_dir", cmd.String("config-dir"))
	return mcp.NewServer(svcs.game).Serve(ctx)
}

func runListConfigs(ctx context.Context, cmd *cli.Command) error {
	svcs, err := servicesFromCommand(cmd)
	if err != nil {
		return err
	}

	configs, err := svcs.game.ListConfigs(ctx)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	if len(configs) == 0 {
		fmt.Fprintf(out, "No presets in %s; the built-in classic board is used\n", cmd.String("config-dir"))
		return nil
	}
	for _, c := range configs {
		start := fmt.Sprintf("%d random tiles", c.StartTiles)
		if c.HasLayout {
			start = fmt.Sprintf("fixed layout, %d tiles", c.StartTiles)
		}
		fmt.Fprintf(out, "%-12s %dx%d  to %-5d %-22s %s\n", c.ConfigID, c.Rows, c.Cols, c.WinningTile, start, c.Description)
	}
	return nil
}

func runNewConfig(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("preset name is required")
	}

	svcs, err := servicesFromCommand(cmd)
	if err != nil {
		return err
	}

	cfg := engine.DefaultConfig()
	cfg.Name = name
	cfg.Rows = cmd.Int("rows")
	cfg.Cols = cmd.Int("cols")
	cfg.WinningTile = cmd.Int("winning-tile")
	cfg.Messages.Welcome = fmt.Sprintf("Welcome! Merge tiles to reach %d.", cfg.WinningTile)
	if d := cmd.String("description"); d != "" {
		cfg.Description = d
	} else {
		cfg.Description = fmt.Sprintf("%dx%d board, reach %d to win", cfg.Rows, cfg.Cols, cfg.WinningTile)
	}

	if err := svcs.game.SaveConfig(ctx, name, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Root().Writer, "Saved preset %s\n", name)
	return nil
}
