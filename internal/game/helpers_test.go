package game

import (
	"io"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/rummy/internal/randutil"
	"github.com/lox/rummy/rummy"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// eventRecorder captures every published event
type eventRecorder struct {
	events []CompanionEvent
}

func (r *eventRecorder) OnEvent(ev CompanionEvent) {
	r.events = append(r.events, ev)
}

func (r *eventRecorder) kinds() []EventKind {
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func (r *eventRecorder) last() CompanionEvent {
	return r.events[len(r.events)-1]
}

// ScriptedAgent follows a predetermined script
type ScriptedAgent struct {
	decisions []Decision
	index     int
}

func NewScriptedAgent(decisions ...Decision) *ScriptedAgent {
	return &ScriptedAgent{decisions: decisions}
}

func (s *ScriptedAgent) MakeDecision(view View, validActions []ValidAction) Decision {
	if s.index >= len(s.decisions) {
		return Decision{Action: ActionQuit, Reasoning: "script exhausted"}
	}
	d := s.decisions[s.index]
	s.index++
	return d
}

func players(names ...string) []*Player {
	out := make([]*Player, len(names))
	for i, name := range names {
		out[i] = NewPlayer(name, name, i == 0)
	}
	return out
}

// newTestGame creates a game with a mock clock and an event recorder
func newTestGame(t *testing.T, names []string, opts ...Option) (*Game, *eventRecorder) {
	t.Helper()
	rec := &eventRecorder{}
	bus := NewEventBus()
	bus.Subscribe(rec)

	opts = append([]Option{
		WithClock(quartz.NewMock(t)),
		WithLogger(testLogger()),
		WithEventBus(bus),
	}, opts...)

	g, err := New(randutil.New(42), players(names...), opts...)
	require.NoError(t, err)
	return g, rec
}

// stackedDeck builds a full deck that deals hands[seat] to each seat (dealer
// at seat 0), turns upcard, then yields draws in order.
func stackedDeck(t *testing.T, hands []string, upcard string, draws string) *rummy.Deck {
	t.Helper()
	n := len(hands)
	parsed := make([][]rummy.Card, n)
	for i, h := range hands {
		parsed[i] = rummy.MustParseCards(h)
		require.Len(t, parsed[i], HandSize)
	}

	var order []rummy.Card
	for i := range HandSize {
		for step := 1; step <= n; step++ {
			order = append(order, parsed[step%n][i])
		}
	}
	order = append(order, rummy.MustParseCards(upcard)...)
	order = append(order, rummy.MustParseCards(draws)...)

	used := make(map[rummy.Card]bool)
	for _, c := range order {
		require.False(t, used[c], "card %s stacked twice", c)
		used[c] = true
	}

	var pile []rummy.Card
	for _, c := range rummy.FullSet() {
		if !used[c] {
			pile = append(pile, c)
		}
	}
	slices.Reverse(order)
	pile = append(pile, order...)
	return rummy.NewDeckFromCards(randutil.New(7), pile)
}

func card(s string) rummy.Card {
	return rummy.MustParseCards(s)[0]
}

func randutil42() *rand.Rand {
	return randutil.New(42)
}
