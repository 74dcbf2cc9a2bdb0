package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/lox/rummy/rummy"
)

// ErrQuit is returned when a human agent leaves the table
var ErrQuit = errors.New("player quit")

// maxRejects is how many illegal decisions an agent may make in a row before
// the fallback agent plays the turn for it
const maxRejects = 3

// RejectionListener is implemented by agents that want to be told why a
// decision was refused. Such agents are asked again without limit.
type RejectionListener interface {
	Rejected(err error)
}

// RoundObserver is implemented by agents that want to see the scored round
// before it completes, for example to let a human read the result.
type RoundObserver interface {
	RoundScored(view View)
}

// GameEngine drives a Game by asking each seat's Agent for decisions. It is
// shared between interactive play and simulation.
type GameEngine struct {
	game     *Game
	agents   map[string]Agent
	fallback Agent
	logger   *log.Logger
}

// NewGameEngine creates an engine. Every player must have an agent.
func NewGameEngine(g *Game, agents map[string]Agent, logger *log.Logger) (*GameEngine, error) {
	for _, p := range g.players {
		if agents[p.ID] == nil {
			return nil, fmt.Errorf("no agent for player %q", p.ID)
		}
	}
	return &GameEngine{
		game:     g,
		agents:   agents,
		fallback: NewAIAgent(Balanced, logger),
		logger:   logger,
	}, nil
}

// Game returns the game being driven
func (ge *GameEngine) Game() *Game {
	return ge.game
}

// MatchResult summarises a finished match
type MatchResult struct {
	Winner Player
	Rounds int
	Scores map[string]int
}

// PlayMatch plays rounds until a player reaches the match score limit
func (ge *GameEngine) PlayMatch(ctx context.Context) (*MatchResult, error) {
	for !ge.game.IsOver() {
		if err := ge.game.StartRound(); err != nil {
			return nil, err
		}
		if _, err := ge.PlayRound(ctx); err != nil {
			return nil, err
		}
		if err := ge.FinishRound(); err != nil {
			return nil, err
		}
	}

	winner, _ := ge.game.Winner()
	return &MatchResult{
		Winner: winner,
		Rounds: ge.game.rounds,
		Scores: ge.game.Scores(),
	}, nil
}

// PlayRound asks agents for decisions until the current round is scored
func (ge *GameEngine) PlayRound(ctx context.Context) (*rummy.RoundScore, error) {
	for {
		phase := ge.game.Phase()
		if phase == PhaseRoundScoring || phase == PhaseRoundComplete {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := ge.PlayTurn(); err != nil {
			return nil, err
		}
	}

	round, _ := ge.game.Round()
	return round.Result, nil
}

// PlayTurn asks the active player's agent for one decision and applies it
func (ge *GameEngine) PlayTurn() error {
	active, ok := ge.game.ActivePlayer()
	if !ok {
		return illegal(ReasonWrongPhase, "", ge.game.Phase())
	}
	agent := ge.agents[active.ID]

	for rejects := 0; ; rejects++ {
		if _, listens := agent.(RejectionListener); !listens && rejects >= maxRejects {
			ge.logger.Warn("Falling back to default agent", "player", active.Name, "rejects", rejects)
			agent = ge.fallback
		}

		view := ge.game.View(active.ID)
		valid := ge.game.ValidActions(active.ID)
		decision := agent.MakeDecision(view, valid)
		if decision.Action == ActionQuit {
			ge.logger.Info("Player quit", "player", active.Name)
			return ErrQuit
		}

		err := ge.game.Apply(active.ID, decision)
		if err == nil {
			ge.logger.Debug("Player action",
				"player", active.Name,
				"action", decision.Action,
				"card", decision.Card,
				"reasoning", decision.Reasoning)
			break
		}
		if !errors.Is(err, ErrIllegalMove) {
			return fmt.Errorf("apply %s for %s: %w", decision.Action, active.Name, err)
		}

		ge.logger.Warn("Illegal decision", "player", active.Name, "error", err)
		if l, listens := agent.(RejectionListener); listens {
			l.Rejected(err)
		}
	}

	// Validate card conservation after every action
	if err := ge.game.CheckConservation(); err != nil {
		ge.logger.Error("Card conservation violation detected!", "error", err)
		return fmt.Errorf("card conservation violation: %w", err)
	}
	return nil
}

// FinishRound lets observing agents see the scored round, then completes it
func (ge *GameEngine) FinishRound() error {
	for _, p := range ge.game.players {
		if obs, ok := ge.agents[p.ID].(RoundObserver); ok {
			obs.RoundScored(ge.game.View(p.ID))
		}
	}
	return ge.game.FinishRound()
}
