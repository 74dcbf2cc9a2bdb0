package game

import (
	"testing"

	"github.com/lox/rummy/rummy"
	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	standings := []Standing{
		{PlayerID: "alice", Name: "Alice", Score: 12},
		{PlayerID: "bob", Name: "Bob", Score: 40, RoundPoints: 14},
	}
	tests := []struct {
		name     string
		event    CompanionEvent
		expected string
	}{
		{
			name:     "discard",
			event:    CompanionEvent{Kind: EventDiscard, PlayerName: "Alice", Cards: rummy.MustParseCards("Kd")},
			expected: "Alice: discards K♦",
		},
		{
			name:     "take discard",
			event:    CompanionEvent{Kind: EventDrawDiscard, PlayerName: "Bob", Cards: rummy.MustParseCards("10h")},
			expected: "Bob: takes 10♥ from the discard pile",
		},
		{
			name:     "blind draw",
			event:    CompanionEvent{Kind: EventDrawPile, PlayerName: "Bob"},
			expected: "Bob: draws from the pile",
		},
		{
			name: "round started",
			event: CompanionEvent{Kind: EventRoundStarted, Round: 3, PlayerName: "Bob",
				Snapshot: Snapshot{DiscardTop: card("7c"), HasDiscardTop: true}},
			expected: "*** ROUND 3 *** Bob to act, 7♣ turned up",
		},
		{
			name: "undercut",
			event: CompanionEvent{Kind: EventRoundScored, PlayerID: "bob", PlayerName: "Bob",
				Snapshot: Snapshot{Outcome: "undercut", Standings: standings}},
			expected: "Bob undercuts the knocker and scores 14",
		},
		{
			name:     "stalemate scored",
			event:    CompanionEvent{Kind: EventRoundScored, Snapshot: Snapshot{Outcome: "stalemate"}},
			expected: "Stalemate, nobody scores",
		},
		{
			name: "match complete",
			event: CompanionEvent{Kind: EventMatchComplete, PlayerName: "Bob",
				Snapshot: Snapshot{Standings: standings}},
			expected: "*** MATCH OVER *** Bob wins. Final: Alice 12, Bob 40",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Describe(tt.event))
		})
	}
}

func TestFormatRoundResult(t *testing.T) {
	result := rummy.ScoreRound([]rummy.ScoredHand{
		{PlayerID: "a", Hand: rummy.MustParseCards("3h 4h 5h 6h 7h")},
		{PlayerID: "b", Hand: rummy.MustParseCards("Ks Qs 2d 2c 9c")},
	}, 0, rummy.DefaultScoreRules())

	out := FormatRoundResult(4, []Player{{Name: "Alice"}, {Name: "Bob"}}, result)
	assert.Contains(t, out, "=== Round 4: going out ===")
	assert.Contains(t, out, "K Alice")
	assert.Contains(t, out, "run[3♥ 4♥ 5♥ 6♥ 7♥]")
	assert.Contains(t, out, "+33")
	assert.Contains(t, out, "(33)")
}
