package main

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lox/rummy/cmd/rummy/shared"
	"github.com/lox/rummy/internal/simulator"
	"github.com/lox/rummy/internal/tui"
	"github.com/muesli/termenv"
)

// SimulateCmd plays AI-only matches and reports how one style fares
type SimulateCmd struct {
	Matches  int           `default:"200" help:"Number of matches to simulate (each is played twice)"`
	Players  int           `default:"3" help:"Seats at the table, hero included (2-6)"`
	Hero     string        `default:"balanced" enum:"balanced,conservative,aggressive" help:"Hero play style"`
	Opponent string        `default:"mixed" enum:"balanced,conservative,aggressive,mixed" help:"Opponent play style"`
	Seed     int64         `default:"0" help:"RNG seed (0 for random)"`
	Timeout  time.Duration `default:"5s" help:"Per-match timeout"`
	Workers  int           `default:"0" help:"Matches played in parallel (0 for one per CPU)"`
	Chatter  bool          `help:"Run a silent companion bridge alongside each match"`
	Color    string        `default:"auto" enum:"auto,always,never" help:"Colorize the summary"`
}

func (c *SimulateCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := shared.SetupConsoleLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	setColorProfile(c.Color)

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	logger.Info("Starting simulation", "matches", c.Matches, "players", c.Players,
		"hero", c.Hero, "opponent", c.Opponent, "seed", seed, "workers", workers)
	start := time.Now()

	sim := simulator.New(simulator.Config{
		Matches:         c.Matches,
		Players:         c.Players,
		Hero:            c.Hero,
		Opponent:        c.Opponent,
		Seed:            seed,
		Timeout:         c.Timeout,
		KnockThreshold:  &cfg.Game.KnockThreshold,
		MatchScoreLimit: cfg.Game.MatchScoreLimit,
		MaxTurns:        cfg.Game.MaxTurns,
		Rules:           scoreRules(cfg),
		Workers:         workers,
		Chatter:         c.Chatter,
		Logger:          logger,
	})
	stats, opponentInfo, err := sim.Run(ctx)
	if err != nil {
		return err
	}

	title := fmt.Sprintf(" %s hero, seed %d, %s ", c.Hero, seed, time.Since(start).Round(time.Millisecond))
	fmt.Println(tui.HeaderStyle.Render(title))
	simulator.PrintSummary(os.Stdout, stats, opponentInfo)

	if c.Chatter {
		ch := sim.Chatter()
		fmt.Println()
		fmt.Println(tui.InfoStyle.Render(fmt.Sprintf(
			"Companion events: %d published, %d ignored, %d dropped, %d stale, %d silent",
			ch.Published, ch.Ignored, ch.Overflow, ch.Stale, ch.Silent)))
	}
	return nil
}

// setColorProfile forces or detects the color support used by the styles
func setColorProfile(mode string) {
	switch mode {
	case "always":
		lipgloss.SetColorProfile(termenv.TrueColor)
	case "never":
		lipgloss.SetColorProfile(termenv.Ascii)
	default:
		lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).EnvColorProfile())
	}
}
