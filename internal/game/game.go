package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/lox/rummy/rummy"
)

const (
	MinPlayers = 2
	MaxPlayers = 6
)

// Game is a match: the players, their running scores and the current round.
// It is not safe for concurrent use; a single driver goroutine owns it.
type Game struct {
	ID string

	players []*Player
	round   *Round
	rounds  int
	history []rummy.RoundScore
	over    bool
	winner  int

	rng    *rand.Rand
	deck   *rummy.Deck
	cfg    *settings
	bus    EventBus
	logger *log.Logger
}

// New creates a match with the given players in seat order. The RNG is
// required to make randomness explicit and testing deterministic.
func New(rng *rand.Rand, players []*Player, opts ...Option) (*Game, error) {
	if rng == nil {
		panic("rng is required for game creation")
	}
	if len(players) < MinPlayers || len(players) > MaxPlayers {
		return nil, fmt.Errorf("need %d to %d players, got %d", MinPlayers, MaxPlayers, len(players))
	}

	cfg := defaultSettings()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.knockThreshold < 0 {
		return nil, errors.New("knock threshold must not be negative")
	}
	if cfg.matchScoreLimit <= 0 {
		return nil, errors.New("match score limit must be positive")
	}

	seen := make(map[string]bool, len(players))
	for i, p := range players {
		if p == nil || p.ID == "" {
			return nil, fmt.Errorf("player %d has no id", i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate player id %q", p.ID)
		}
		seen[p.ID] = true
		p.Seat = i
		p.Hand = nil
	}

	bus := cfg.bus
	if bus == nil {
		bus = NewEventBus()
	}

	return &Game{
		ID:      uuid.NewString(),
		players: players,
		rng:     rng,
		cfg:     cfg,
		bus:     bus,
		logger:  cfg.logger,
		winner:  rummy.NoKnocker,
	}, nil
}

// Bus returns the event bus events are published on
func (g *Game) Bus() EventBus {
	return g.bus
}

// Phase returns the phase of the current round
func (g *Game) Phase() Phase {
	if g.round == nil {
		return PhaseWaiting
	}
	return g.round.Phase
}

// Round returns a copy of the current round state, or false before the
// first deal.
func (g *Game) Round() (Round, bool) {
	if g.round == nil {
		return Round{}, false
	}
	return *g.round, true
}

// KnockThreshold returns the configured dead-wood limit for knocking
func (g *Game) KnockThreshold() int {
	return g.cfg.knockThreshold
}

// ActivePlayer returns the player to act, if a turn is in progress
func (g *Game) ActivePlayer() (Player, bool) {
	switch g.Phase() {
	case PhaseAwaitDraw, PhaseAwaitDiscardOrKnock:
		return *g.players[g.round.Active], true
	}
	return Player{}, false
}

// Players returns copies of every player in seat order
func (g *Game) Players() []Player {
	out := make([]Player, len(g.players))
	for i, p := range g.players {
		out[i] = *p
		out[i].Hand = p.Hand.Clone()
	}
	return out
}

// Scores returns the running match score keyed by player id
func (g *Game) Scores() map[string]int {
	out := make(map[string]int, len(g.players))
	for _, p := range g.players {
		out[p.ID] = p.Score
	}
	return out
}

// History returns the results of every scored round
func (g *Game) History() []rummy.RoundScore {
	out := make([]rummy.RoundScore, len(g.history))
	for i, score := range g.history {
		out[i] = score.Clone()
	}
	return out
}

// IsOver reports whether a player has reached the match score limit
func (g *Game) IsOver() bool {
	return g.over
}

// Winner returns the match winner once the match is over
func (g *Game) Winner() (Player, bool) {
	if !g.over {
		return Player{}, false
	}
	return *g.players[g.winner], true
}

// CheckConservation verifies that the deck and the hands hold exactly the 52
// cards. Meaningful only once the first round has been dealt.
func (g *Game) CheckConservation() error {
	if g.deck == nil {
		return errors.New("no deck dealt")
	}
	hands := make([]rummy.Hand, len(g.players))
	for i, p := range g.players {
		hands[i] = p.Hand
	}
	return rummy.CheckConservation(g.deck, hands...)
}

func (g *Game) player(id string) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// emit publishes an event describing the transition that just happened
func (g *Game) emit(kind EventKind, p *Player, cards []rummy.Card) {
	r := g.round
	ev := CompanionEvent{
		ID:        uuid.NewString(),
		RoundID:   r.ID,
		Round:     r.Number,
		Kind:      kind,
		Cards:     append([]rummy.Card(nil), cards...),
		Timestamp: g.cfg.clock.Now(),
	}
	if p != nil {
		ev.PlayerID = p.ID
		ev.PlayerName = p.Name
	}

	snap := Snapshot{
		Turn:      r.Turn,
		DrawCount: r.deck.DrawCount(),
		Standings: make([]Standing, len(g.players)),
	}
	snap.DiscardTop, snap.HasDiscardTop = r.deck.PeekDiscard()
	for i, pl := range g.players {
		snap.Standings[i] = Standing{PlayerID: pl.ID, Name: pl.Name, Score: pl.Score}
		if r.Result != nil {
			snap.Standings[i].RoundPoints = r.Result.Hands[i].RoundScore
			snap.Standings[i].Deadwood = r.Result.Hands[i].Points
		}
	}
	if r.Result != nil {
		snap.Outcome = r.Result.Outcome.String()
	}
	ev.Snapshot = snap
	ev.Snapshot.Summary = Describe(ev)

	g.bus.Publish(ev)
}
