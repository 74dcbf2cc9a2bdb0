// Package game implements the Five Card Rummy turn state machine and match
// bookkeeping.
//
// The main type is Game, which owns the players, the running match scores and
// the current Round. Every move is an explicit method call that either
// succeeds completely or returns an *IllegalMoveError and leaves the state
// untouched.
//
// # Basic Usage
//
//	rng := randutil.New(42)
//	g, err := game.New(rng, []*game.Player{
//	    game.NewPlayer("you", "You", true),
//	    game.NewPlayer("dusty", "Dusty", false),
//	})
//	if err := g.StartRound(); err != nil { ... }
//	g.DrawFromPile("you")
//	g.Discard("you", card)
//
// # Rounds
//
// A round moves through Dealing, AwaitDraw, AwaitDiscardOrKnock, RoundScoring
// and RoundComplete. Scoring is computed once when the round enters
// RoundScoring; FinishRound acknowledges the result and completes the round.
// The dealer of every round after the first is the previous round's loser.
//
// # Events
//
// Each transition publishes an immutable CompanionEvent on the game's
// EventBus. Events carry copies of every slice they reference so subscribers
// on other goroutines never share memory with the engine.
//
// # Deterministic Testing
//
// The RNG is required and owned by the deck. Tests can stack the deck with
// WithDeck and freeze event timestamps with WithClock(quartz.NewMock(t)).
package game
