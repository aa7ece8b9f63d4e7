// Command analyze plays simulated games on every board preset in a
// directory and prints how each preset plays out: mean and best score, win
// rate, largest tile reached and average game length. Games are seeded so a
// run is reproducible.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/mergegame/game/config"
	"github.com/wricardo/mcp-training/mergegame/game/engine"
)

// maxMovesPerGame bounds a simulated game
const maxMovesPerGame = 100000

// Policy chooses the next move from the directions that change the board
type Policy func(eng *engine.GameEngine, possible []engine.Direction, rng *rand.Rand) engine.Direction

// Summary aggregates the games played on one preset
type Summary struct {
	Config    string
	Games     int
	MeanScore float64
	MaxScore  int
	Wins      int
	MaxTile   int
	MeanMoves float64
}

// WinRate returns the fraction of games that reached the winning tile
func (s Summary) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

var policies = map[string]Policy{
	"random": randomPolicy,
	"greedy": greedyPolicy,
	"corner": cornerPolicy,
}

// randomPolicy picks uniformly among the useful moves
func randomPolicy(_ *engine.GameEngine, possible []engine.Direction, rng *rand.Rand) engine.Direction {
	return possible[rng.Intn(len(possible))]
}

// greedyPolicy takes the move with the largest immediate merge score,
// breaking ties randomly
func greedyPolicy(eng *engine.GameEngine, possible []engine.Direction, rng *rand.Rand) engine.Direction {
	best := -1
	var choices []engine.Direction
	for _, dir := range possible {
		board, err := engine.BoardFromGrid(eng.Grid())
		if err != nil {
			continue
		}
		gained, _ := board.Shift(dir)
		switch {
		case gained > best:
			best = gained
			choices = []engine.Direction{dir}
		case gained == best:
			choices = append(choices, dir)
		}
	}
	if len(choices) == 0 {
		return randomPolicy(eng, possible, rng)
	}
	return choices[rng.Intn(len(choices))]
}

// cornerPolicy keeps tiles packed toward the bottom-left corner
func cornerPolicy(_ *engine.GameEngine, possible []engine.Direction, _ *rand.Rand) engine.Direction {
	for _, preferred := range []engine.Direction{engine.Down, engine.Left, engine.Right, engine.Up} {
		for _, dir := range possible {
			if dir == preferred {
				return dir
			}
		}
	}
	return possible[0]
}

// simulate plays games on cfg with policy. Game g spawns tiles from seed+g.
func simulate(name string, cfg *engine.GameConfig, games int, seed int64, policy Policy) (Summary, error) {
	summary := Summary{Config: name, Games: games}
	if games <= 0 {
		return summary, nil
	}

	choice := rand.New(rand.NewSource(seed))
	totalScore, totalMoves := 0, 0

	for g := 0; g < games; g++ {
		eng, err := engine.NewEngineFromConfig(cfg,
			engine.WithRand(rand.New(rand.NewSource(seed+int64(g)))),
			engine.WithHighScore(engine.NewHighScore()),
		)
		if err != nil {
			return summary, fmt.Errorf("%s: %w", name, err)
		}

		moves := 0
		for eng.Status() == engine.Running && moves < maxMovesPerGame {
			possible := eng.GetPossibleMoves()
			if len(possible) == 0 {
				break
			}
			if _, err := eng.Move(policy(eng, possible, choice)); err != nil {
				return summary, fmt.Errorf("%s game %d: %w", name, g, err)
			}
			moves++
		}

		state := eng.GetState()
		totalScore += state.Score
		totalMoves += moves
		if state.Score > summary.MaxScore {
			summary.MaxScore = state.Score
		}
		if state.MaxTile > summary.MaxTile {
			summary.MaxTile = state.MaxTile
		}
		if state.ReachedTarget {
			summary.Wins++
		}
	}

	summary.MeanScore = float64(totalScore) / float64(games)
	summary.MeanMoves = float64(totalMoves) / float64(games)
	return summary, nil
}

// analyzeDir simulates every valid preset in dir, sorted by preset ID
func analyzeDir(dir string, only string, games int, seed int64, policy Policy) ([]Summary, error) {
	manager, err := config.NewManager(dir)
	if err != nil {
		return nil, err
	}

	infos, err := manager.ListConfigs()
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ConfigID < infos[j].ConfigID })

	var summaries []Summary
	for _, info := range infos {
		if only != "" && info.ConfigID != only {
			continue
		}
		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			log.Warn("skipping preset", "config", info.ConfigID, "err", err)
			continue
		}
		log.Debug("simulating", "config", info.ConfigID, "games", games)
		s, err := simulate(info.ConfigID, cfg, games, seed, policy)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}

	if only != "" && len(summaries) == 0 {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, only)
	}
	return summaries, nil
}

// renderSummaries draws the results as a table
func renderSummaries(w io.Writer, policy string, summaries []Summary) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("CONFIG", "GAMES", "MEAN SCORE", "MAX SCORE", "WIN RATE", "MAX TILE", "MEAN MOVES")
	for _, s := range summaries {
		t.Row(
			s.Config,
			strconv.Itoa(s.Games),
			fmt.Sprintf("%.1f", s.MeanScore),
			strconv.Itoa(s.MaxScore),
			fmt.Sprintf("%.1f%%", s.WinRate()*100),
			strconv.Itoa(s.MaxTile),
			fmt.Sprintf("%.1f", s.MeanMoves),
		)
	}
	fmt.Fprintf(w, "Policy: %s\n%s\n", policy, t.Render())
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "simulate games on board presets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing board presets", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.StringFlag{Name: "config", Usage: "only analyze this preset"},
			&cli.IntFlag{Name: "games", Value: 100, Usage: "games per preset"},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "base random seed"},
			&cli.StringFlag{Name: "policy", Value: "random", Usage: "move policy: random, greedy or corner"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("debug") {
				log.SetLevel(log.DebugLevel)
			}

			name := cmd.String("policy")
			policy, ok := policies[name]
			if !ok {
				return fmt.Errorf("unknown policy %q", name)
			}

			summaries, err := analyzeDir(cmd.String("config-dir"), cmd.String("config"), cmd.Int("games"), cmd.Int64("seed"), policy)
			if err != nil {
				return err
			}
			renderSummaries(cmd.Root().Writer, name, summaries)
			return nil
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal("analyze failed", "err", err)
	}
}
