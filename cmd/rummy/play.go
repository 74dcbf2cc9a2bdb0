package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/rummy/cmd/rummy/shared"
	"github.com/lox/rummy/internal/companion"
	"github.com/lox/rummy/internal/config"
	"github.com/lox/rummy/internal/fileutil"
	"github.com/lox/rummy/internal/game"
	"github.com/lox/rummy/internal/randutil"
	"github.com/lox/rummy/internal/tui"
	"github.com/lox/rummy/rummy"
	"gopkg.in/yaml.v3"
)

const humanID = "you"

// PlayCmd runs an interactive match
type PlayCmd struct {
	Name       string `help:"Your name at the table"`
	Companions int    `short:"n" help:"Number of companions (1-5)"`
	Seed       *int64 `help:"RNG seed for a reproducible deal, overriding the configured one"`
	Offline    bool   `help:"Play without contacting the chat model"`
	Personas   string `help:"Persona file, overriding the configured one" type:"path"`
	Transcript string `help:"Save the table talk to this YAML file when the match ends" type:"path"`
}

func (c *PlayCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}
	c.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer, err := shared.SetupFileLogger(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer closer.Close()

	return play(cfg, logger, c.Transcript)
}

// apply layers the command line over the config file
func (c *PlayCmd) apply(cfg *config.Config) {
	if c.Name != "" {
		cfg.Game.HumanName = c.Name
	}
	if c.Companions != 0 {
		cfg.Game.Companions = c.Companions
	}
	if c.Seed != nil {
		seed := *c.Seed
		cfg.Game.RNGSeed = &seed
	}
	if c.Offline {
		cfg.Companion.Disabled = true
	}
	if c.Personas != "" {
		cfg.Companion.PersonaTemplatesPath = c.Personas
	}
}

// table is everything a match needs, assembled from the config
type table struct {
	players []*game.Player
	seats   []companion.Seat
	agents  map[string]game.Agent
	lib     *companion.Library
}

// seatTable puts the human in the first seat and a companion in each other
func seatTable(cfg *config.Config, logger *log.Logger) (*table, error) {
	lib, err := companion.LoadLibrary(cfg.Companion.PersonaTemplatesPath)
	if err != nil {
		return nil, err
	}
	personas, err := lib.Pick(cfg.Game.Companions)
	if err != nil {
		return nil, err
	}

	t := &table{
		players: []*game.Player{game.NewPlayer(humanID, cfg.Game.HumanName, true)},
		agents:  make(map[string]game.Agent, len(personas)+1),
		lib:     lib,
	}
	for i, p := range personas {
		style, err := p.PlayStyle()
		if err != nil {
			return nil, err
		}
		id := fmt.Sprintf("companion-%d", i+1)
		t.players = append(t.players, game.NewCompanion(id, p.Name, p.Name, style))
		t.seats = append(t.seats, companion.Seat{PlayerID: id, Persona: p})
		t.agents[id] = game.NewAIAgent(style, logger.WithPrefix(p.Name))
	}
	return t, nil
}

// chatClient returns the configured model client, or a silent one when
// companions are disabled
func chatClient(cfg *config.Config) companion.ChatClient {
	if cfg.Companion.Disabled {
		return companion.NullClient{}
	}
	return companion.NewHTTPClient(companion.ClientOptions{
		URL:         cfg.Companion.APIURL,
		Model:       cfg.Companion.ModelName,
		APIKey:      cfg.Companion.APIKey,
		Temperature: cfg.Companion.Temperature,
		MaxTokens:   cfg.Companion.MaxTokens,
	})
}

func commentKinds(names []string) []game.EventKind {
	kinds := make([]game.EventKind, 0, len(names))
	for _, name := range names {
		if k, ok := game.ParseEventKind(name); ok {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func scoreRules(cfg *config.Config) rummy.ScoreRules {
	return rummy.ScoreRules{
		UndercutBonus: cfg.Game.UndercutBonus,
		GinBonus:      cfg.Game.GinBonus,
		LayOffs:       cfg.Game.LayOffs,
	}
}

func play(cfg *config.Config, logger *log.Logger, transcriptPath string) error {
	t, err := seatTable(cfg, logger)
	if err != nil {
		return err
	}

	rng, seed := randutil.Seeded(cfg.Game.RNGSeed)
	logger.Info("Starting match", "seed", seed, "players", len(t.players), "companions_disabled", cfg.Companion.Disabled)

	bridge, err := companion.NewBridge(chatClient(cfg), t.lib, t.seats, companion.Options{
		Workers:     cfg.Companion.Workers,
		QueueSize:   cfg.Companion.QueueSize,
		Timeout:     cfg.Companion.RequestTimeout,
		Kinds:       commentKinds(cfg.Companion.CommentOn),
		Placeholder: "...",
		Logger:      logger.WithPrefix("companion"),
	})
	if err != nil {
		return err
	}

	model := tui.NewTUIModel(logger, cfg.Game.HumanName, tui.TableRules{
		KnockThreshold:  cfg.Game.KnockThreshold,
		MatchScoreLimit: cfg.Game.MatchScoreLimit,
		UndercutBonus:   cfg.Game.UndercutBonus,
		GinBonus:        cfg.Game.GinBonus,
	})
	model.OnSay(func(text string) { bridge.Say(cfg.Game.HumanName, text) })

	var g *game.Game
	feed := tui.NewFeed(model, func() game.View { return g.View(humanID) })

	bus := game.NewEventBus()
	bus.Subscribe(feed)
	bus.Subscribe(bridge)

	opts := []game.Option{
		game.WithKnockThreshold(cfg.Game.KnockThreshold),
		game.WithMatchScoreLimit(cfg.Game.MatchScoreLimit),
		game.WithScoreRules(scoreRules(cfg)),
		game.WithLogger(logger.WithPrefix("game")),
		game.WithEventBus(bus),
	}
	if cfg.Game.MaxTurns > 0 {
		opts = append(opts, game.WithMaxTurns(cfg.Game.MaxTurns))
	}
	g, err = game.New(rng, t.players, opts...)
	if err != nil {
		_ = bridge.Close()
		return err
	}

	agent := tui.NewTUIAgent(model, logger)
	t.agents[humanID] = agent

	engine, err := game.NewGameEngine(g, t.agents, logger.WithPrefix("engine"))
	if err != nil {
		_ = bridge.Close()
		return err
	}

	ctx, cancel := shared.SetupSignalHandler(logger)
	defer cancel()

	done := agent.Start()
	go func() {
		select {
		case <-done:
		case <-ctx.Done():
			model.SendQuitSignal()
		}
		cancel()
	}()
	go feed.PumpChat(ctx, bridge.Messages())

	result, err := engine.PlayMatch(ctx)
	switch {
	case errors.Is(err, game.ErrQuit), errors.Is(err, context.Canceled):
		logger.Info("Match abandoned", "error", err)
		err = nil
	case err != nil:
		logger.Error("Match failed", "error", err)
	default:
		logger.Info("Match complete", "winner", result.Winner.Name, "rounds", result.Rounds)
		agent.AddLogEntry(tui.SuccessStyle.Render(fmt.Sprintf("%s wins the match! Press Esc to leave the table.", result.Winner.Name)))
		<-done
	}

	if cerr := bridge.Close(); cerr != nil {
		logger.Warn("Failed to close companion bridge", "error", cerr)
	}
	if cerr := agent.Close(); cerr != nil {
		logger.Warn("Failed to close interface", "error", cerr)
	}

	if transcriptPath != "" {
		if werr := saveTranscript(transcriptPath, g, seed, bridge.Transcript()); werr != nil {
			logger.Error("Failed to save transcript", "error", werr)
			if err == nil {
				err = werr
			}
		}
	}

	printStandings(g)
	return err
}

// transcript is the saved record of a match's table talk
type transcript struct {
	GameID  string           `yaml:"game_id"`
	Seed    int64            `yaml:"seed"`
	Saved   time.Time        `yaml:"saved"`
	Players []string         `yaml:"players"`
	Scores  map[string]int   `yaml:"scores"`
	Lines   []companion.Line `yaml:"lines"`
}

func saveTranscript(path string, g *game.Game, seed int64, lines []companion.Line) error {
	doc := transcript{
		GameID: g.ID,
		Seed:   seed,
		Saved:  time.Now(),
		Scores: make(map[string]int),
		Lines:  lines,
	}
	for _, p := range g.Players() {
		doc.Players = append(doc.Players, p.Name)
		doc.Scores[p.Name] = p.Score
	}

	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	})
}

// printStandings writes the final scores once the alt screen is gone
func printStandings(g *game.Game) {
	players := g.Players()
	if len(g.History()) == 0 {
		return
	}
	sort.SliceStable(players, func(i, j int) bool { return players[i].Score > players[j].Score })

	fmt.Println(tui.HeaderStyle.Render(fmt.Sprintf(" Final standings after %d rounds ", len(g.History()))))
	for i, p := range players {
		line := fmt.Sprintf("%d. %-12s %4d", i+1, p.Name, p.Score)
		if winner, ok := g.Winner(); ok && winner.ID == p.ID {
			line = tui.SuccessStyle.Render(line + "  winner")
		}
		fmt.Println(line)
	}
}
