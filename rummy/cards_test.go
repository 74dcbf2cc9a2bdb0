package rummy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCard(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input   string
		want    Card
		wantErr bool
	}{
		{input: "As", want: NewCard(Ace, Spades)},
		{input: "a♠", want: NewCard(Ace, Spades)},
		{input: "10h", want: NewCard(Ten, Hearts)},
		{input: "Th", want: NewCard(Ten, Hearts)},
		{input: "qd", want: NewCard(Queen, Diamonds)},
		{input: "7C", want: NewCard(Seven, Clubs)},
		{input: "K♦", want: NewCard(King, Diamonds)},
		{input: "", wantErr: true},
		{input: "11h", wantErr: true},
		{input: "Ax", wantErr: true},
		{input: "s", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCard(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCardString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "A♠", NewCard(Ace, Spades).String())
	assert.Equal(t, "10♥", NewCard(Ten, Hearts).String())
	assert.Equal(t, "K♣", NewCard(King, Clubs).String())
}

func TestCardPoints(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, NewCard(Ace, Hearts).Points())
	assert.Equal(t, 7, NewCard(Seven, Hearts).Points())
	assert.Equal(t, 10, NewCard(Ten, Hearts).Points())
	assert.Equal(t, 10, NewCard(Jack, Hearts).Points())
	assert.Equal(t, 10, NewCard(King, Hearts).Points())
}

func TestFullSetIsUnique(t *testing.T) {
	t.Parallel()
	cards := FullSet()
	require.Len(t, cards, 52)

	seen := make(map[Card]bool)
	for _, c := range cards {
		assert.True(t, c.Valid())
		assert.False(t, seen[c], "duplicate %s", c)
		seen[c] = true
	}
}

func TestHandOperations(t *testing.T) {
	t.Parallel()
	h := Hand(MustParseCards("Ks 2h 9d"))

	assert.True(t, h.Contains(NewCard(Two, Hearts)))
	assert.False(t, h.Contains(NewCard(Two, Spades)))
	assert.Equal(t, 21, h.Points())
	assert.Equal(t, "[2♥ 9♦ K♠]", h.String())

	without, ok := h.Without(NewCard(Nine, Diamonds))
	require.True(t, ok)
	assert.Len(t, without, 2)
	assert.Len(t, h, 3, "original hand must not change")

	_, ok = h.Without(NewCard(Ace, Clubs))
	assert.False(t, ok)

	with := h.With(NewCard(Ace, Clubs))
	assert.Len(t, with, 4)
	assert.Len(t, h, 3)
}
