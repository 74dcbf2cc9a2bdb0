package rummy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifferential(t *testing.T) {
	t.Parallel()
	rules := DefaultScoreRules()

	tests := []struct {
		name     string
		deadwood []int
		knocker  int
		points   []int
		outcome  Outcome
		winner   int
	}{
		{
			name:     "going out collects every opponent's dead-wood",
			deadwood: []int{0, 18, 5},
			knocker:  0,
			points:   []int{23, 0, 0},
			outcome:  OutcomeGoingOut,
			winner:   0,
		},
		{
			name:     "undercut reverses the bonus",
			deadwood: []int{8, 6},
			knocker:  0,
			points:   []int{0, 12},
			outcome:  OutcomeUndercut,
			winner:   1,
		},
		{
			name:     "equal dead-wood is an undercut",
			deadwood: []int{7, 7},
			knocker:  0,
			points:   []int{0, 10},
			outcome:  OutcomeUndercut,
			winner:   1,
		},
		{
			name:     "knock scores the differential against each opponent",
			deadwood: []int{5, 12, 20},
			knocker:  0,
			points:   []int{22, 0, 0},
			outcome:  OutcomeKnock,
			winner:   0,
		},
		{
			name:     "undercut tie goes to first seat after knocker",
			deadwood: []int{6, 8, 6},
			knocker:  1,
			points:   []int{0, 0, 12},
			outcome:  OutcomeUndercut,
			winner:   2,
		},
		{
			name:     "lowest undercutter wins",
			deadwood: []int{9, 3, 5},
			knocker:  0,
			points:   []int{0, 16, 0},
			outcome:  OutcomeUndercut,
			winner:   1,
		},
		{
			name:     "stalemate scores nothing",
			deadwood: []int{9, 3, 5},
			knocker:  NoKnocker,
			points:   []int{0, 0, 0},
			outcome:  OutcomeStalemate,
			winner:   NoKnocker,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points, outcome, winner := Differential(tt.deadwood, tt.knocker, rules)
			assert.Equal(t, tt.points, points)
			assert.Equal(t, tt.outcome, outcome)
			assert.Equal(t, tt.winner, winner)
		})
	}
}

func TestDifferentialGinBonus(t *testing.T) {
	t.Parallel()
	rules := DefaultScoreRules()
	rules.GinBonus = 25

	points, outcome, _ := Differential([]int{0, 4}, 0, rules)
	assert.Equal(t, OutcomeGoingOut, outcome)
	assert.Equal(t, []int{29, 0}, points)
}

func TestScoreRoundGoingOut(t *testing.T) {
	t.Parallel()
	hands := []ScoredHand{
		{PlayerID: "a", Hand: MustParseCards("As 2s 3s 4s 5s")},
		{PlayerID: "b", Hand: MustParseCards("Kh 2d 3c Ah 2c")},
		{PlayerID: "c", Hand: MustParseCards("9c 9d 9h Ad 4d")},
	}

	score := ScoreRound(hands, 0, DefaultScoreRules())

	assert.Equal(t, OutcomeGoingOut, score.Outcome)
	assert.Equal(t, map[string]int{"a": 23, "b": 0, "c": 0}, score.Points())
	assert.Equal(t, 18, score.Hands[1].Points)
	assert.Equal(t, 5, score.Hands[2].Points)
	assert.Empty(t, score.Hands[2].LaidOff, "no layoffs against a player who went out")
	assert.Equal(t, 1, score.Loser())
}

func TestScoreRoundUndercut(t *testing.T) {
	t.Parallel()
	hands := []ScoredHand{
		{PlayerID: "a", Hand: MustParseCards("7s 8s 9s 3h 5d")},
		{PlayerID: "b", Hand: MustParseCards("Jc Qc Kc 4h 2d")},
	}

	score := ScoreRound(hands, 0, DefaultScoreRules())

	assert.Equal(t, OutcomeUndercut, score.Outcome)
	assert.Equal(t, 8, score.Hands[0].Points)
	assert.Equal(t, 6, score.Hands[1].Points)
	assert.Equal(t, map[string]int{"a": 0, "b": 12}, score.Points())
	assert.Equal(t, 1, score.Winner)
}

func TestScoreRoundLayOffs(t *testing.T) {
	t.Parallel()
	hands := []ScoredHand{
		{PlayerID: "knocker", Hand: MustParseCards("4c 5c 6c 2h Ad")},
		{PlayerID: "opponent", Hand: MustParseCards("7c 8c Ks Kh Kd")},
	}

	t.Run("layoffs enable an undercut", func(t *testing.T) {
		score := ScoreRound(hands, 0, DefaultScoreRules())

		require.Equal(t, OutcomeUndercut, score.Outcome)
		assert.ElementsMatch(t, MustParseCards("7c 8c"), score.Hands[1].LaidOff)
		assert.Equal(t, 0, score.Hands[1].Points)
		assert.Equal(t, map[string]int{"knocker": 0, "opponent": 13}, score.Points())
	})

	t.Run("without layoffs the knock stands", func(t *testing.T) {
		rules := DefaultScoreRules()
		rules.LayOffs = false
		score := ScoreRound(hands, 0, rules)

		require.Equal(t, OutcomeKnock, score.Outcome)
		assert.Equal(t, 15, score.Hands[1].Points)
		assert.Equal(t, map[string]int{"knocker": 12, "opponent": 0}, score.Points())
	})
}

func TestScoreRoundStalemate(t *testing.T) {
	t.Parallel()
	hands := []ScoredHand{
		{PlayerID: "a", Hand: MustParseCards("7s 8s 9s 3h 5d")},
		{PlayerID: "b", Hand: MustParseCards("Jc Qc Kc 4h 2d")},
	}

	score := ScoreRound(hands, NoKnocker, DefaultScoreRules())
	assert.Equal(t, OutcomeStalemate, score.Outcome)
	assert.Equal(t, map[string]int{"a": 0, "b": 0}, score.Points())
	assert.Equal(t, 0, score.Loser(), "highest dead-wood loses")
}

func TestRoundScoreClone(t *testing.T) {
	t.Parallel()
	hands := []ScoredHand{
		{PlayerID: "knocker", Hand: MustParseCards("4c 5c 6c 2h Ad")},
		{PlayerID: "opponent", Hand: MustParseCards("7c 8c Ks Kh Kd")},
	}
	score := ScoreRound(hands, 0, DefaultScoreRules())
	clone := score.Clone()
	require.Equal(t, score, clone)

	two := MustParseCards("2s")[0]
	clone.Hands[0].Melds[0].Cards[0] = two
	clone.Hands[0].Deadwood[0] = two
	clone.Hands[1].LaidOff[0] = two
	assert.NotContains(t, score.Hands[0].Melds[0].Cards, two)
	assert.NotContains(t, score.Hands[0].Deadwood, two)
	assert.NotContains(t, score.Hands[1].LaidOff, two)
}

func TestMatchWinner(t *testing.T) {
	t.Parallel()
	_, ok := MatchWinner([]int{40, 99}, 100)
	assert.False(t, ok)

	winner, ok := MatchWinner([]int{40, 100}, 100)
	assert.True(t, ok)
	assert.Equal(t, 1, winner)

	winner, ok = MatchWinner([]int{120, 130, 130}, 100)
	assert.True(t, ok)
	assert.Equal(t, 1, winner, "ties go to the lowest seat")

	_, ok = MatchWinner(nil, 100)
	assert.False(t, ok)
}
