package game

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lox/rummy/internal/randutil"
	"github.com/lox/rummy/rummy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubbornAgent always tries to discard a card it does not hold
type stubbornAgent struct {
	calls int
}

func (s *stubbornAgent) MakeDecision(view View, validActions []ValidAction) Decision {
	s.calls++
	return Decision{Action: ActionDiscard, Card: rummy.NewCard(rummy.Ace, rummy.Spades)}
}

// correctableAgent makes one illegal move, then defers to the AI
type correctableAgent struct {
	rejected []error
	ai       *AIAgent
}

func (c *correctableAgent) MakeDecision(view View, validActions []ValidAction) Decision {
	if len(c.rejected) == 0 {
		return Decision{Action: ActionKnock, Card: view.Hand[0]}
	}
	return c.ai.MakeDecision(view, validActions)
}

func (c *correctableAgent) Rejected(err error) {
	c.rejected = append(c.rejected, err)
}

// observingAgent records the views it is shown between rounds
type observingAgent struct {
	*AIAgent
	scored []View
}

func (o *observingAgent) RoundScored(view View) {
	o.scored = append(o.scored, view)
}

func TestAIMatchesTerminateAndConserveCards(t *testing.T) {
	styles := []Style{Aggressive, Balanced, Conservative, Aggressive}

	for seed := int64(1); seed <= 12; seed++ {
		for n := MinPlayers; n <= 4; n++ {
			t.Run(fmt.Sprintf("seed %d with %d players", seed, n), func(t *testing.T) {
				names := make([]string, n)
				agents := make(map[string]Agent, n)
				for i := range n {
					names[i] = fmt.Sprintf("p%d", i)
					agents[names[i]] = NewAIAgent(styles[i], testLogger())
				}

				g, err := New(randutil.New(seed), players(names...),
					WithLogger(testLogger()), WithMaxTurns(200))
				require.NoError(t, err)
				engine, err := NewGameEngine(g, agents, testLogger())
				require.NoError(t, err)

				result, err := engine.PlayMatch(context.Background())
				require.NoError(t, err)

				assert.True(t, g.IsOver())
				assert.GreaterOrEqual(t, result.Winner.Score, 100)
				assert.Equal(t, len(g.History()), result.Rounds)
				for _, score := range result.Scores {
					assert.LessOrEqual(t, score, result.Winner.Score)
				}
				assert.Equal(t, PhaseRoundComplete, g.Phase())
			})
		}
	}
}

func TestEngineRequiresAgentForEverySeat(t *testing.T) {
	g, _ := newTestGame(t, []string{"alice", "bob"})
	_, err := NewGameEngine(g, map[string]Agent{"alice": NewAIAgent(Balanced, nil)}, testLogger())
	assert.Error(t, err)
}

func TestFallbackAfterRepeatedIllegalDecisions(t *testing.T) {
	g, _ := newTestGame(t, []string{"alice", "bob"})
	stubborn := &stubbornAgent{}
	engine, err := NewGameEngine(g, map[string]Agent{
		"alice": NewAIAgent(Balanced, nil),
		"bob":   stubborn,
	}, testLogger())
	require.NoError(t, err)
	require.NoError(t, g.StartRound())

	require.NoError(t, engine.PlayTurn())
	assert.Equal(t, maxRejects, stubborn.calls)
	assert.Equal(t, PhaseAwaitDiscardOrKnock, g.Phase())
}

func TestRejectionListenerIsToldAndAskedAgain(t *testing.T) {
	g, _ := newTestGame(t, []string{"alice", "bob"}, WithDeck(weakDeck(t)))
	agent := &correctableAgent{ai: NewAIAgent(Balanced, nil)}
	engine, err := NewGameEngine(g, map[string]Agent{
		"alice": NewAIAgent(Balanced, nil),
		"bob":   agent,
	}, testLogger())
	require.NoError(t, err)
	require.NoError(t, g.StartRound())

	require.NoError(t, engine.PlayTurn())
	require.Len(t, agent.rejected, 1)
	assert.True(t, errors.Is(agent.rejected[0], ErrIllegalMove))
	assert.Equal(t, PhaseAwaitDiscardOrKnock, g.Phase())
}

func TestQuitStopsTheRound(t *testing.T) {
	g, _ := newTestGame(t, []string{"alice", "bob"})
	engine, err := NewGameEngine(g, map[string]Agent{
		"alice": NewAIAgent(Balanced, nil),
		"bob":   NewScriptedAgent(Decision{Action: ActionQuit}),
	}, testLogger())
	require.NoError(t, err)
	require.NoError(t, g.StartRound())

	_, err = engine.PlayRound(context.Background())
	assert.ErrorIs(t, err, ErrQuit)
}

func TestPlayRoundHonoursCancellation(t *testing.T) {
	g, _ := newTestGame(t, []string{"alice", "bob"})
	engine, err := NewGameEngine(g, map[string]Agent{
		"alice": NewAIAgent(Balanced, nil),
		"bob":   NewAIAgent(Balanced, nil),
	}, testLogger())
	require.NoError(t, err)
	require.NoError(t, g.StartRound())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = engine.PlayRound(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScriptedRoundAndObserver(t *testing.T) {
	g, rec := newTestGame(t, []string{"alice", "bob"}, WithDeck(goingOutDeck(t)))
	observer := &observingAgent{AIAgent: NewAIAgent(Balanced, nil)}
	engine, err := NewGameEngine(g, map[string]Agent{
		"alice": observer,
		"bob": NewScriptedAgent(
			Decision{Action: ActionDrawPile},
			Decision{Action: ActionKnock, Card: card("Kd")},
		),
	}, testLogger())
	require.NoError(t, err)
	require.NoError(t, g.StartRound())

	result, err := engine.PlayRound(context.Background())
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, rummy.OutcomeGoingOut, result.Outcome)

	require.NoError(t, engine.FinishRound())
	require.Len(t, observer.scored, 1)
	assert.Equal(t, PhaseRoundScoring, observer.scored[0].Phase)
	assert.Equal(t, EventRoundComplete, rec.last().Kind)
}
