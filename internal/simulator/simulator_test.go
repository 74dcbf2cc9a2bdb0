package simulator

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/rummy/internal/game"
	"github.com/lox/rummy/rummy"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.WarnLevel})
}

func TestNew(t *testing.T) {
	simulator := New(Config{
		Matches:  10,
		Hero:     "balanced",
		Opponent: "aggressive",
		Seed:     12345,
		Logger:   quietLogger(),
	})
	if simulator == nil {
		t.Fatal("New() returned nil")
	}
	if simulator.config.Players != 3 {
		t.Errorf("Expected 3 players by default, got %d", simulator.config.Players)
	}
	if simulator.config.Timeout != 5*time.Second {
		t.Errorf("Expected 5s default timeout, got %v", simulator.config.Timeout)
	}
	if simulator.config.Rules != rummy.DefaultScoreRules() {
		t.Errorf("Expected default score rules, got %+v", simulator.config.Rules)
	}
	if *simulator.config.KnockThreshold != 10 {
		t.Errorf("Expected default knock threshold 10, got %d", *simulator.config.KnockThreshold)
	}

	goingOutOnly := 0
	simulator = New(Config{Matches: 1, KnockThreshold: &goingOutOnly})
	if *simulator.config.KnockThreshold != 0 {
		t.Errorf("Expected explicit zero threshold to survive, got %d", *simulator.config.KnockThreshold)
	}
}

func TestSimulator_Run(t *testing.T) {
	simulator := New(Config{
		Matches:  3,
		Players:  3,
		Hero:     "balanced",
		Opponent: "conservative",
		Seed:     12345,
		Timeout:  5 * time.Second,
		Workers:  2,
		Logger:   quietLogger(),
	})

	stats, opponentInfo, err := simulator.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if opponentInfo != "conservative" {
		t.Errorf("Expected 'conservative' opponent info, got %s", opponentInfo)
	}
	if stats.Matches != 6 { // 3 matches * 2 (duplicate mode)
		t.Errorf("Expected 6 total matches, got %d", stats.Matches)
	}
	if stats.Rounds < stats.Matches {
		t.Errorf("Expected at least one round per match, got %d rounds", stats.Rounds)
	}
	if err := stats.Validate(); err != nil {
		t.Errorf("Statistics validation failed: %v", err)
	}

	// Seats 0, 1, 2 for the first plays and 1, 0, 0 for the duplicates
	want := [3]int{3, 2, 1}
	for seat, n := range want {
		if stats.SeatResults[seat].Matches != n {
			t.Errorf("Expected %d matches in seat %d, got %d", n, seat, stats.SeatResults[seat].Matches)
		}
	}
}

func TestSimulator_Deterministic(t *testing.T) {
	config := Config{
		Matches:  2,
		Players:  2,
		Hero:     "aggressive",
		Opponent: "balanced",
		Seed:     99,
		Workers:  2,
		Logger:   quietLogger(),
	}

	first, _, err := New(config).Run(context.Background())
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, _, err := New(config).Run(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if first.SumMargin != second.SumMargin || first.Rounds != second.Rounds {
		t.Errorf("Same seed gave different results: %.0f/%d vs %.0f/%d",
			first.SumMargin, first.Rounds, second.SumMargin, second.Rounds)
	}
}

func TestSimulator_Mixed(t *testing.T) {
	simulator := New(Config{
		Matches:  1,
		Players:  4,
		Hero:     "balanced",
		Opponent: "mixed",
		Seed:     7,
		Chatter:  true,
		Logger:   quietLogger(),
	})

	stats, opponentInfo, err := simulator.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if opponentInfo != "mixed(conservative,aggressive,balanced)" {
		t.Errorf("Unexpected opponent info %s", opponentInfo)
	}
	if stats.Matches != 2 {
		t.Errorf("Expected 2 matches, got %d", stats.Matches)
	}

	chatter := simulator.Chatter()
	if chatter.Published == 0 {
		t.Error("Expected the companion bridge to see events")
	}
	if chatter.Delivered != 0 {
		t.Errorf("Expected no delivered lines from a silent client, got %d", chatter.Delivered)
	}
}

func TestSimulator_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"no matches", Config{Hero: "balanced", Opponent: "balanced"}},
		{"too many players", Config{Matches: 1, Players: 7, Hero: "balanced", Opponent: "balanced"}},
		{"unknown hero", Config{Matches: 1, Hero: "reckless", Opponent: "balanced"}},
		{"unknown opponent", Config{Matches: 1, Hero: "balanced", Opponent: "fold"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Logger = quietLogger()
			if _, _, err := New(tt.config).Run(context.Background()); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestSimulator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := New(Config{
		Matches:  2,
		Hero:     "balanced",
		Opponent: "balanced",
		Logger:   quietLogger(),
	}).Run(ctx)
	if err == nil {
		t.Fatal("Expected a cancelled run to fail")
	}
}

func TestHeroRound(t *testing.T) {
	hands := []rummy.ScoredHand{
		{PlayerID: "opp1", Hand: rummy.MustParseCards("Kd Qc 9h 2d 3c")},
		{PlayerID: heroID, Hand: rummy.MustParseCards("4s 5s 6s 7s 8s")},
	}

	r := heroRound(rummy.ScoreRound(hands, 1, rummy.DefaultScoreRules()))
	if r.Outcome != rummy.OutcomeGoingOut || !r.HeroKnock {
		t.Errorf("Expected the hero to go out, got %+v", r)
	}
	if r.HeroPoints != 34 {
		t.Errorf("Expected 34 points, got %d", r.HeroPoints)
	}

	r = heroRound(rummy.ScoreRound(hands, rummy.NoKnocker, rummy.DefaultScoreRules()))
	if r.Outcome != rummy.OutcomeStalemate || r.HeroKnock || r.HeroPoints != 0 {
		t.Errorf("Expected a scoreless stalemate, got %+v", r)
	}
}

func TestOpponentStyles(t *testing.T) {
	styles, info, err := opponentStyles("aggressive", 2)
	if err != nil {
		t.Fatal(err)
	}
	if info != "aggressive" || styles[0] != game.Aggressive || styles[1] != game.Aggressive {
		t.Errorf("Unexpected styles %v (%s)", styles, info)
	}
}

func TestPrintSummary(t *testing.T) {
	stats, info, err := New(Config{
		Matches:  2,
		Hero:     "balanced",
		Opponent: "balanced",
		Seed:     3,
		Logger:   quietLogger(),
	}).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	PrintSummary(&buf, stats, info)
	out := buf.String()
	for _, want := range []string{"FINAL RESULTS vs balanced opponents", "Matches played: 4", "ROUND OUTCOMES", "Seat 1:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Summary missing %q:\n%s", want, out)
		}
	}
}
