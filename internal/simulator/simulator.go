package simulator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/rummy/internal/companion"
	"github.com/lox/rummy/internal/game"
	"github.com/lox/rummy/internal/randutil"
	"github.com/lox/rummy/internal/statistics"
	"github.com/lox/rummy/rummy"
	"golang.org/x/sync/errgroup"
)

const heroID = "hero"

// Config holds configuration for running simulations
type Config struct {
	Matches         int
	Players         int    // seats at the table, hero included
	Hero            string // hero play style
	Opponent        string // opponent style, or "mixed"
	Seed            int64
	Timeout         time.Duration // per match
	KnockThreshold  *int          // nil for the standard 10
	MatchScoreLimit int
	MaxTurns        int
	Rules           rummy.ScoreRules
	Workers         int
	Chatter         bool // run a silent companion bridge alongside every match
	Logger          *log.Logger
}

// Simulator runs hero-versus-opponents rummy matches
type Simulator struct {
	config Config

	mu      sync.Mutex
	chatter companion.Stats
}

// New creates a new simulator with the given configuration
func New(config Config) *Simulator {
	if config.Players == 0 {
		config.Players = 3
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.KnockThreshold == nil {
		threshold := 10
		config.KnockThreshold = &threshold
	}
	if config.MatchScoreLimit == 0 {
		config.MatchScoreLimit = 100
	}
	if config.Rules == (rummy.ScoreRules{}) {
		config.Rules = rummy.DefaultScoreRules()
	}
	if config.Logger == nil {
		config.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Simulator{config: config}
}

// Chatter returns the bridge counters summed over every match. Zero unless
// Config.Chatter is set.
func (s *Simulator) Chatter() companion.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatter
}

// Run executes the simulation and returns results
func (s *Simulator) Run(ctx context.Context) (*statistics.Statistics, string, error) {
	if s.config.Matches <= 0 {
		return nil, "", errors.New("matches must be positive")
	}
	if s.config.Players < game.MinPlayers || s.config.Players > game.MaxPlayers {
		return nil, "", fmt.Errorf("players must be between %d and %d", game.MinPlayers, game.MaxPlayers)
	}

	hero, err := game.ParseStyle(s.config.Hero)
	if err != nil {
		return nil, "", err
	}
	opponents, opponentInfo, err := opponentStyles(s.config.Opponent, s.config.Players-1)
	if err != nil {
		return nil, "", err
	}

	// Every match is played twice from the same seed with the hero in a
	// different seat, so seat advantage cancels out.
	results := make([][2]statistics.MatchResult, s.config.Matches)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i := range s.config.Matches {
		g.Go(func() error {
			seed := s.config.Seed + int64(i)
			seat := i % s.config.Players

			first, err := s.playMatchWithTimeout(gctx, hero, opponents, seed, seat)
			if err != nil {
				return fmt.Errorf("match %d: %w", i+1, err)
			}

			swapped := 0
			if seat == 0 {
				swapped = 1
			}
			second, err := s.playMatchWithTimeout(gctx, hero, opponents, seed, swapped)
			if err != nil {
				return fmt.Errorf("duplicate match %d: %w", i+1, err)
			}

			results[i] = [2]statistics.MatchResult{first, second}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}

	stats := &statistics.Statistics{}
	for _, pair := range results {
		stats.Add(pair[0])
		stats.Add(pair[1])
	}

	if err := stats.Validate(); err != nil {
		return nil, "", fmt.Errorf("statistics validation failed: %w", err)
	}

	return stats, opponentInfo, nil
}

// playMatchWithTimeout runs a single match with timeout protection
func (s *Simulator) playMatchWithTimeout(ctx context.Context, hero game.Style, opponents []game.Style, seed int64, seat int) (statistics.MatchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	result, err := s.playMatch(ctx, hero, opponents, seed, seat)
	if errors.Is(err, context.DeadlineExceeded) {
		return statistics.MatchResult{}, fmt.Errorf("match timed out after %v (seed: %d, seat: %d)", s.config.Timeout, seed, seat)
	}
	return result, err
}

// playMatch simulates a single match with the hero in the given seat
func (s *Simulator) playMatch(ctx context.Context, hero game.Style, opponents []game.Style, seed int64, seat int) (statistics.MatchResult, error) {
	logger := s.config.Logger

	players := make([]*game.Player, 0, s.config.Players)
	agents := make(map[string]game.Agent, s.config.Players)
	opp := 0
	for i := range s.config.Players {
		if i == seat {
			players = append(players, game.NewCompanion(heroID, "Hero", "", hero))
			agents[heroID] = game.NewAIAgent(hero, logger)
			continue
		}
		style := opponents[opp]
		opp++
		id := fmt.Sprintf("opp%d", opp)
		players = append(players, game.NewCompanion(id, fmt.Sprintf("Opp%d", opp), "", style))
		agents[id] = game.NewAIAgent(style, logger)
	}

	bus := game.NewEventBus()
	var bridge *companion.Bridge
	if s.config.Chatter {
		b, drained, err := s.startChatter(players, bus)
		if err != nil {
			return statistics.MatchResult{}, err
		}
		bridge = b
		defer func() {
			_ = bridge.Close()
			<-drained
			s.addChatter(bridge.Stats())
		}()
	}

	opts := []game.Option{
		game.WithKnockThreshold(*s.config.KnockThreshold),
		game.WithMatchScoreLimit(s.config.MatchScoreLimit),
		game.WithScoreRules(s.config.Rules),
		game.WithLogger(logger),
		game.WithEventBus(bus),
	}
	if s.config.MaxTurns > 0 {
		opts = append(opts, game.WithMaxTurns(s.config.MaxTurns))
	}

	g, err := game.New(randutil.New(seed), players, opts...)
	if err != nil {
		return statistics.MatchResult{}, err
	}
	engine, err := game.NewGameEngine(g, agents, logger)
	if err != nil {
		return statistics.MatchResult{}, err
	}

	match, err := engine.PlayMatch(ctx)
	if err != nil {
		logger.Error("Failed to play match", "error", err, "seed", seed)
		return statistics.MatchResult{}, err
	}

	history := g.History()
	final := g.Players()
	rounds := make([]statistics.RoundResult, len(history))
	for n, score := range history {
		logger.Debug(game.FormatRoundResult(n+1, final, score))
		rounds[n] = heroRound(score)
	}

	best := 0
	for id, score := range match.Scores {
		if id != heroID && score > best {
			best = score
		}
	}

	return statistics.MatchResult{
		Seed:   seed,
		Seat:   seat,
		Won:    match.Winner.ID == heroID,
		Score:  match.Scores[heroID],
		Margin: match.Scores[heroID] - best,
		Rounds: rounds,
	}, nil
}

// heroRound extracts the hero's view of a scored round
func heroRound(score rummy.RoundScore) statistics.RoundResult {
	r := statistics.RoundResult{Outcome: score.Outcome}
	for _, h := range score.Hands {
		if h.PlayerID == heroID {
			r.HeroPoints = h.RoundScore
		}
	}
	if score.Knocker != rummy.NoKnocker && score.Hands[score.Knocker].PlayerID == heroID {
		r.HeroKnock = true
	}
	return r
}

// startChatter subscribes a bridge with a silent client to the match's bus,
// giving every opponent a persona. The returned channel closes once its
// messages are drained.
func (s *Simulator) startChatter(players []*game.Player, bus *game.SimpleEventBus) (*companion.Bridge, <-chan struct{}, error) {
	lib := companion.DefaultLibrary()
	personas, err := lib.Pick(len(players) - 1)
	if err != nil {
		return nil, nil, err
	}
	seats := make([]companion.Seat, 0, len(personas))
	for _, p := range players {
		if p.ID == heroID {
			continue
		}
		seats = append(seats, companion.Seat{PlayerID: p.ID, Persona: personas[len(seats)]})
	}

	bridge, err := companion.NewBridge(companion.NullClient{}, lib, seats, companion.Options{
		Workers: 1,
		Logger:  s.config.Logger,
	})
	if err != nil {
		return nil, nil, err
	}
	bus.Subscribe(bridge)

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for range bridge.Messages() {
		}
	}()
	return bridge, drained, nil
}

func (s *Simulator) addChatter(st companion.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chatter.Published += st.Published
	s.chatter.Ignored += st.Ignored
	s.chatter.Overflow += st.Overflow
	s.chatter.Delivered += st.Delivered
	s.chatter.Failed += st.Failed
	s.chatter.Stale += st.Stale
	s.chatter.Silent += st.Silent
}

// mixedStyles is the fixed opponent rotation for consistent testing
var mixedStyles = []game.Style{game.Conservative, game.Aggressive, game.Balanced}

// opponentStyles returns a style for each opponent seat
func opponentStyles(opponent string, n int) ([]game.Style, string, error) {
	styles := make([]game.Style, n)
	if opponent == "mixed" {
		names := make([]string, n)
		for i := range styles {
			styles[i] = mixedStyles[i%len(mixedStyles)]
			names[i] = styles[i].String()
		}
		return styles, fmt.Sprintf("mixed(%s)", strings.Join(names, ",")), nil
	}

	style, err := game.ParseStyle(opponent)
	if err != nil {
		return nil, "", err
	}
	for i := range styles {
		styles[i] = style
	}
	return styles, style.String(), nil
}

// PrintSummary prints a comprehensive summary of simulation results
func PrintSummary(w io.Writer, stats *statistics.Statistics, opponentType string) {
	low, high := stats.ConfidenceInterval95()

	fmt.Fprintf(w, "\n=== FINAL RESULTS vs %s opponents ===\n", opponentType)
	fmt.Fprintf(w, "Matches played: %d (%d rounds, %.1f per match)\n",
		stats.Matches, stats.Rounds, stats.AverageRounds())
	fmt.Fprintf(w, "Win rate: %.1f%%\n", stats.WinRate()*100)

	fmt.Fprintf(w, "\n=== STATISTICAL RESULTS ===\n")
	fmt.Fprintf(w, "Mean margin: %.2f points/match\n", stats.Mean())
	fmt.Fprintf(w, "Median: %.2f points/match\n", stats.Median())
	fmt.Fprintf(w, "Std Dev: %.2f points\n", stats.StdDev())
	fmt.Fprintf(w, "Std Error: %.2f points\n", stats.StdError())
	fmt.Fprintf(w, "95%% CI: [%.2f, %.2f] points/match\n", low, high)
	fmt.Fprintf(w, "Percentiles: P5=%.1f, P25=%.1f, P75=%.1f, P95=%.1f\n",
		stats.Percentile(0.05), stats.Percentile(0.25), stats.Percentile(0.75), stats.Percentile(0.95))
	fmt.Fprintf(w, "Match length: %d to %d rounds\n", stats.ShortestMatch, stats.LongestMatch)

	fmt.Fprintf(w, "\n=== ROUND OUTCOMES ===\n")
	for o := rummy.OutcomeGoingOut; o <= rummy.OutcomeStalemate; o++ {
		count := stats.OutcomeCounts[o]
		if count == 0 {
			continue
		}
		fmt.Fprintf(w, "%-10s %5d rounds (%.1f%%), hero scored %d\n",
			o.String()+":", count, float64(count)/float64(stats.Rounds)*100, stats.HeroPointsBy[o])
	}
	if stats.HeroKnocks > 0 {
		fmt.Fprintf(w, "Hero knocked %d times, undercut %d (%.1f%%)\n",
			stats.HeroKnocks, stats.HeroUndercutLoss,
			float64(stats.HeroUndercutLoss)/float64(stats.HeroKnocks)*100)
	}

	fmt.Fprintf(w, "\n=== SEAT ANALYSIS ===\n")
	for seat := range statistics.MaxSeats {
		ss := stats.SeatResults[seat]
		if ss.Matches > 0 {
			fmt.Fprintf(w, "Seat %d: %d matches, %.1f%% won, %.2f points/match\n",
				seat+1, ss.Matches, stats.SeatWinRate(seat)*100, ss.SumMargin/float64(ss.Matches))
		}
	}
}
