package game

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/rummy/rummy"
)

// Option configures a Game during creation.
type Option func(*settings)

// settings holds the tunable parts of a match
type settings struct {
	knockThreshold  int
	matchScoreLimit int
	maxTurns        int // 0 means unlimited
	rules           rummy.ScoreRules
	clock           quartz.Clock
	logger          *log.Logger
	bus             EventBus
	deck            *rummy.Deck
}

func defaultSettings() *settings {
	return &settings{
		knockThreshold:  10,
		matchScoreLimit: 100,
		rules:           rummy.DefaultScoreRules(),
		clock:           quartz.NewReal(),
		logger:          log.NewWithOptions(io.Discard, log.Options{}),
	}
}

// WithKnockThreshold sets the maximum dead-wood allowed when knocking
func WithKnockThreshold(n int) Option {
	return func(s *settings) {
		s.knockThreshold = n
	}
}

// WithMatchScoreLimit sets the score that ends the match
func WithMatchScoreLimit(n int) Option {
	return func(s *settings) {
		s.matchScoreLimit = n
	}
}

// WithMaxTurns ends a round as a stalemate after n discards. Zero disables
// the limit.
func WithMaxTurns(n int) Option {
	return func(s *settings) {
		s.maxTurns = n
	}
}

// WithScoreRules overrides the undercut bonus, gin bonus and layoff rule
func WithScoreRules(r rummy.ScoreRules) Option {
	return func(s *settings) {
		s.rules = r
	}
}

// WithClock sets the clock used to timestamp events
func WithClock(c quartz.Clock) Option {
	return func(s *settings) {
		s.clock = c
	}
}

// WithLogger sets the engine logger
func WithLogger(l *log.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithEventBus publishes events on an existing bus
func WithEventBus(bus EventBus) Option {
	return func(s *settings) {
		s.bus = bus
	}
}

// WithDeck uses a pre-built deck instead of shuffling a fresh one for the
// first round. Useful for stacking cards in tests.
func WithDeck(d *rummy.Deck) Option {
	return func(s *settings) {
		s.deck = d
	}
}
