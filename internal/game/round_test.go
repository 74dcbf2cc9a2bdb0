package game

import (
	"errors"
	"testing"

	"github.com/coder/quartz"
	"github.com/lox/rummy/rummy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bob (seat 1) acts first and goes out by drawing 7h and knocking Kd
func goingOutDeck(t *testing.T) *rummy.Deck {
	return stackedDeck(t, []string{
		"Ks Qs 2d 2c 9c",
		"3h 4h 5h 6h Kd",
	}, "8s", "7h")
}

// bob draws 7h into a hand that cannot knock
func weakDeck(t *testing.T) *rummy.Deck {
	return stackedDeck(t, []string{
		"Ks Qs 2d 2c 9c",
		"3h 4h 9s Kd Qc",
	}, "8s", "7h")
}

func TestStartRoundDeals(t *testing.T) {
	g, rec := newTestGame(t, []string{"alice", "bob", "carol"})
	require.Equal(t, PhaseWaiting, g.Phase())

	require.NoError(t, g.StartRound())

	round, ok := g.Round()
	require.True(t, ok)
	assert.Equal(t, 1, round.Number)
	assert.Equal(t, 0, round.Dealer)
	assert.Equal(t, 1, round.Active)
	assert.Equal(t, PhaseAwaitDraw, round.Phase)
	assert.NotEmpty(t, round.ID)

	for _, p := range g.Players() {
		assert.Len(t, p.Hand, HandSize, p.Name)
	}
	view := g.View("alice")
	assert.True(t, view.HasDiscardTop)
	assert.Equal(t, 52-3*HandSize-1, view.DrawCount)
	assert.Equal(t, "bob", view.ActivePlayerID)
	require.NoError(t, g.CheckConservation())

	require.Equal(t, []EventKind{EventRoundStarted}, rec.kinds())
	assert.Equal(t, "bob", rec.last().PlayerID)
	assert.Equal(t, round.ID, rec.last().RoundID)
}

func TestNewRejectsBadTables(t *testing.T) {
	tests := []struct {
		name    string
		players []*Player
	}{
		{"one player", players("alice")},
		{"too many players", players("a", "b", "c", "d", "e", "f", "g")},
		{"duplicate ids", []*Player{NewPlayer("x", "X", true), NewPlayer("x", "Y", false)}},
		{"missing id", []*Player{NewPlayer("", "X", true), NewPlayer("y", "Y", false)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(randutil42(), tt.players)
			assert.Error(t, err)
		})
	}

	assert.Panics(t, func() {
		_, _ = New(nil, players("alice", "bob"))
	})
}

func TestDrawAndDiscard(t *testing.T) {
	g, rec := newTestGame(t, []string{"alice", "bob", "carol"})
	require.NoError(t, g.StartRound())

	require.NoError(t, g.DrawFromPile("bob"))
	assert.Equal(t, PhaseAwaitDiscardOrKnock, g.Phase())
	bob := g.View("bob")
	require.Len(t, bob.Hand, HandSize+1)
	require.NoError(t, g.CheckConservation())

	discard := bob.Hand[0]
	require.NoError(t, g.Discard("bob", discard))

	view := g.View("bob")
	assert.Len(t, view.Hand, HandSize)
	assert.Equal(t, PhaseAwaitDraw, view.Phase)
	assert.Equal(t, "carol", view.ActivePlayerID)
	assert.Equal(t, discard, view.DiscardTop)
	assert.Equal(t, 1, view.Turn)
	require.NoError(t, g.CheckConservation())

	assert.Equal(t, []EventKind{EventRoundStarted, EventDrawPile, EventDiscard}, rec.kinds())
	assert.Empty(t, rec.events[1].Cards, "a blind draw must not reveal the card")
	assert.Equal(t, []rummy.Card{discard}, rec.last().Cards)
	assert.Equal(t, discard, rec.last().Snapshot.DiscardTop)
}

func TestIllegalMovesLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(g *Game)
		move   func(g *Game) error
		reason Reason
	}{
		{
			name:   "draw out of turn",
			move:   func(g *Game) error { return g.DrawFromPile("alice") },
			reason: ReasonWrongPlayer,
		},
		{
			name:   "discard before drawing",
			move:   func(g *Game) error { return g.Discard("bob", card("3h")) },
			reason: ReasonWrongPhase,
		},
		{
			name:   "unknown player",
			move:   func(g *Game) error { return g.DrawFromDiscard("zed") },
			reason: ReasonUnknownPlayer,
		},
		{
			name:   "finish round mid turn",
			move:   func(g *Game) error { return g.FinishRound() },
			reason: ReasonWrongPhase,
		},
		{
			name:   "start round mid turn",
			move:   func(g *Game) error { return g.StartRound() },
			reason: ReasonWrongPhase,
		},
		{
			name:   "discard card not in hand",
			setup:  func(g *Game) { _ = g.DrawFromPile("bob") },
			move:   func(g *Game) error { return g.Discard("bob", card("As")) },
			reason: ReasonCardNotInHand,
		},
		{
			name:   "knock above threshold",
			setup:  func(g *Game) { _ = g.DrawFromPile("bob") },
			move:   func(g *Game) error { return g.Knock("bob", card("7h")) },
			reason: ReasonKnockNotLegal,
		},
		{
			name:   "draw twice",
			setup:  func(g *Game) { _ = g.DrawFromPile("bob") },
			move:   func(g *Game) error { return g.DrawFromDiscard("bob") },
			reason: ReasonWrongPhase,
		},
		{
			name:   "return the card just taken",
			setup:  func(g *Game) { _ = g.DrawFromDiscard("bob") },
			move:   func(g *Game) error { return g.Discard("bob", card("8s")) },
			reason: ReasonDiscardJustDrawn,
		},
		{
			name:   "knock with the card just taken",
			setup:  func(g *Game) { _ = g.DrawFromDiscard("bob") },
			move:   func(g *Game) error { return g.Knock("bob", card("8s")) },
			reason: ReasonDiscardJustDrawn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, rec := newTestGame(t, []string{"alice", "bob"}, WithDeck(weakDeck(t)))
			require.NoError(t, g.StartRound())
			if tt.setup != nil {
				tt.setup(g)
			}

			before := g.View("bob")
			eventsBefore := len(rec.events)

			err := tt.move(g)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrIllegalMove))
			reason, ok := IsIllegalMove(err)
			require.True(t, ok)
			assert.Equal(t, tt.reason, reason)

			assert.Equal(t, before, g.View("bob"))
			assert.Len(t, rec.events, eventsBefore)
			require.NoError(t, g.CheckConservation())
		})
	}
}

func TestValidActions(t *testing.T) {
	g, _ := newTestGame(t, []string{"alice", "bob"}, WithDeck(goingOutDeck(t)))
	require.NoError(t, g.StartRound())

	assert.Empty(t, g.ValidActions("alice"))
	draw := g.ValidActions("bob")
	require.Len(t, draw, 2)
	assert.Equal(t, ActionDrawPile, draw[0].Action)
	assert.Equal(t, ActionDrawDiscard, draw[1].Action)

	require.NoError(t, g.DrawFromPile("bob"))
	valid := g.ValidActions("bob")
	require.Len(t, valid, 2)
	assert.Equal(t, ActionDiscard, valid[0].Action)
	assert.Len(t, valid[0].Cards, HandSize+1)
	assert.Equal(t, ActionKnock, valid[1].Action)
	assert.True(t, valid[1].Allows(card("Kd")))

	// every offered knock must be accepted
	for _, c := range valid[1].Cards {
		hand, _ := g.View("bob").Hand.Without(c)
		assert.True(t, rummy.IsLegalKnock(hand, g.KnockThreshold()), c.String())
	}
}

func TestTakenDiscardIsNotOffered(t *testing.T) {
	g, _ := newTestGame(t, []string{"alice", "bob"}, WithDeck(weakDeck(t)))
	require.NoError(t, g.StartRound())
	require.NoError(t, g.DrawFromDiscard("bob"))

	view := g.View("bob")
	assert.True(t, view.HasLocked)
	assert.Equal(t, card("8s"), view.Locked)
	for _, va := range g.ValidActions("bob") {
		assert.False(t, va.Allows(card("8s")), va.Action.String())
	}
}

func TestGoingOut(t *testing.T) {
	g, rec := newTestGame(t, []string{"alice", "bob"}, WithDeck(goingOutDeck(t)))
	require.NoError(t, g.StartRound())
	require.NoError(t, g.DrawFromPile("bob"))
	require.NoError(t, g.Knock("bob", card("Kd")))

	round, _ := g.Round()
	assert.Equal(t, PhaseRoundScoring, round.Phase)
	assert.Equal(t, 1, round.Knocker)
	require.NotNil(t, round.Result)
	assert.Equal(t, rummy.OutcomeGoingOut, round.Result.Outcome)
	assert.Equal(t, map[string]int{"alice": 0, "bob": 33}, g.Scores())
	require.NoError(t, g.CheckConservation())

	assert.Equal(t, []EventKind{EventRoundStarted, EventDrawPile, EventKnock, EventRoundScored}, rec.kinds())
	scored := rec.last()
	assert.Equal(t, "bob", scored.PlayerID)
	assert.Equal(t, "going out", scored.Snapshot.Outcome)
	assert.Equal(t, 33, scored.Snapshot.Standings[1].RoundPoints)
	assert.Equal(t, 33, scored.Snapshot.Standings[0].Deadwood)

	// hands are revealed while scoring
	assert.Len(t, g.View("bob").Players[0].Hand, HandSize)

	require.NoError(t, g.FinishRound())
	assert.Equal(t, PhaseRoundComplete, g.Phase())
	assert.Equal(t, EventRoundComplete, rec.last().Kind)
	assert.False(t, g.IsOver())
}

func TestKnockWithLayoffUndercut(t *testing.T) {
	deck := stackedDeck(t, []string{
		"7c 8c Ks Kh Kc",
		"4c 5c 6c 2h Kd",
	}, "9s", "Ad")
	g, _ := newTestGame(t, []string{"alice", "bob"}, WithDeck(deck))
	require.NoError(t, g.StartRound())
	require.NoError(t, g.DrawFromPile("bob"))
	require.NoError(t, g.Knock("bob", card("Kd")))

	round, _ := g.Round()
	assert.Equal(t, rummy.OutcomeUndercut, round.Result.Outcome)
	assert.ElementsMatch(t, rummy.MustParseCards("7c 8c"), round.Result.Hands[0].LaidOff)
	assert.Equal(t, map[string]int{"alice": 13, "bob": 0}, g.Scores())
}

func TestViewResultDoesNotShareMemory(t *testing.T) {
	deck := stackedDeck(t, []string{
		"7c 8c Ks Kh Kc",
		"4c 5c 6c 2h Kd",
	}, "9s", "Ad")
	g, _ := newTestGame(t, []string{"alice", "bob"}, WithDeck(deck))
	require.NoError(t, g.StartRound())
	require.NoError(t, g.DrawFromPile("bob"))
	require.NoError(t, g.Knock("bob", card("Kd")))

	view := g.View("alice")
	require.NotNil(t, view.LastResult)
	hand := view.LastResult.Hands[0]
	require.NotEmpty(t, hand.Melds)
	require.NotEmpty(t, hand.LaidOff)
	hand.Melds[0].Cards[0] = card("2s")
	hand.LaidOff[0] = card("2s")
	view.LastResult.Hands[1].Deadwood[0] = card("2s")

	fresh := g.View("alice").LastResult
	assert.NotContains(t, fresh.Hands[0].Melds[0].Cards, card("2s"))
	assert.ElementsMatch(t, rummy.MustParseCards("7c 8c"), fresh.Hands[0].LaidOff)
	assert.NotContains(t, fresh.Hands[1].Deadwood, card("2s"))

	history := g.History()
	history[0].Hands[0].LaidOff[0] = card("2s")
	assert.ElementsMatch(t, rummy.MustParseCards("7c 8c"), g.History()[0].Hands[0].LaidOff)
}

func TestStalemateWhenDeckRunsDry(t *testing.T) {
	// exactly enough cards to deal two hands and turn the upcard
	deck := rummy.NewDeckFromCards(randutil42(), rummy.FullSet()[:2*HandSize+1])
	g, rec := newTestGame(t, []string{"alice", "bob"}, WithDeck(deck))

	require.NoError(t, g.StartRound())

	round, _ := g.Round()
	assert.Equal(t, PhaseRoundScoring, round.Phase)
	assert.Equal(t, rummy.OutcomeStalemate, round.Result.Outcome)
	assert.Equal(t, rummy.NoKnocker, round.Knocker)
	assert.Equal(t, map[string]int{"alice": 0, "bob": 0}, g.Scores())
	assert.Equal(t, []EventKind{EventRoundStarted, EventStalemate, EventRoundScored}, rec.kinds())
}

func TestStalemateAtTurnLimit(t *testing.T) {
	g, rec := newTestGame(t, []string{"alice", "bob"}, WithMaxTurns(2))
	require.NoError(t, g.StartRound())

	for _, id := range []string{"bob", "alice"} {
		require.NoError(t, g.DrawFromPile(id))
		require.NoError(t, g.Discard(id, g.View(id).Hand[0]))
	}

	assert.Equal(t, PhaseRoundScoring, g.Phase())
	assert.Contains(t, rec.kinds(), EventStalemate)
	require.NoError(t, g.CheckConservation())
}

func TestDealerIsPreviousLoser(t *testing.T) {
	deck := stackedDeck(t, []string{
		"2s 3d 4c 6d 8c",
		"3h 4h 5h 6h Kd",
		"Ks Qd Jc 9c 8d",
	}, "As", "7h")
	g, _ := newTestGame(t, []string{"alice", "bob", "carol"}, WithDeck(deck))

	require.NoError(t, g.StartRound())
	require.NoError(t, g.DrawFromPile("bob"))
	require.NoError(t, g.Knock("bob", card("Kd")))
	assert.Equal(t, map[string]int{"alice": 0, "bob": 70, "carol": 0}, g.Scores())
	require.NoError(t, g.FinishRound())

	require.NoError(t, g.StartRound())
	round, _ := g.Round()
	assert.Equal(t, 2, round.Number)
	assert.Equal(t, 2, round.Dealer, "carol held the most dead-wood")
	assert.Equal(t, 0, round.Active)
	assert.Nil(t, round.Result)
	require.NoError(t, g.CheckConservation())
	for _, p := range g.Players() {
		assert.Len(t, p.Hand, HandSize)
	}
}

func TestMatchEndsAtScoreLimit(t *testing.T) {
	g, rec := newTestGame(t, []string{"alice", "bob"},
		WithDeck(goingOutDeck(t)),
		WithMatchScoreLimit(20))

	require.NoError(t, g.StartRound())
	require.NoError(t, g.DrawFromPile("bob"))
	require.NoError(t, g.Knock("bob", card("Kd")))
	assert.True(t, g.IsOver())

	require.NoError(t, g.FinishRound())
	kinds := rec.kinds()
	assert.Equal(t, []EventKind{EventRoundComplete, EventMatchComplete}, kinds[len(kinds)-2:])
	assert.Equal(t, "bob", rec.last().PlayerID)

	winner, ok := g.Winner()
	require.True(t, ok)
	assert.Equal(t, "bob", winner.ID)
	assert.Equal(t, "bob", g.View("alice").WinnerID)

	err := g.StartRound()
	reason, ok := IsIllegalMove(err)
	require.True(t, ok)
	assert.Equal(t, ReasonMatchOver, reason)
}

func TestEventsAreIndependentCopies(t *testing.T) {
	clock := quartz.NewMock(t)
	first, second := &eventRecorder{}, &eventRecorder{}
	bus := NewEventBus()
	bus.Subscribe(first)
	bus.Subscribe(second)

	g, err := New(randutil42(), players("alice", "bob"),
		WithDeck(weakDeck(t)), WithEventBus(bus), WithClock(clock), WithLogger(testLogger()))
	require.NoError(t, err)
	require.NoError(t, g.StartRound())
	require.NoError(t, g.DrawFromDiscard("bob"))

	taken := first.last()
	require.Equal(t, EventDrawDiscard, taken.Kind)
	taken.Cards[0] = card("2c")
	taken.Snapshot.Standings[0].Score = 99

	assert.Equal(t, card("8s"), second.last().Cards[0])
	assert.Equal(t, 0, second.last().Snapshot.Standings[0].Score)
	assert.True(t, second.last().Timestamp.Equal(clock.Now()))

	round, _ := g.Round()
	ids := make(map[string]bool)
	for _, ev := range second.events {
		assert.Equal(t, round.ID, ev.RoundID)
		assert.False(t, ids[ev.ID], "event ids must be unique")
		ids[ev.ID] = true
	}
}
