package rummy

import (
	"fmt"
	"slices"
	"strings"
)

// Suit represents a card suit
type Suit uint8

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
)

// Suits lists every suit in deck order
var Suits = [4]Suit{Spades, Hearts, Diamonds, Clubs}

// String returns the suit symbol
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	default:
		return "?"
	}
}

// IsRed returns true for hearts and diamonds
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// Rank represents a card rank. Aces are low: Ace=1 through King=13.
type Rank uint8

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// String returns the rank label used on card faces
func (r Rank) String() string {
	switch {
	case r == Ace:
		return "A"
	case r >= Two && r <= Ten:
		return fmt.Sprintf("%d", int(r))
	case r == Jack:
		return "J"
	case r == Queen:
		return "Q"
	case r == King:
		return "K"
	default:
		return "?"
	}
}

// Points returns the dead-wood value of the rank: ace 1, numerals face
// value, court cards 10.
func (r Rank) Points() int {
	if r >= Ten {
		return 10
	}
	return int(r)
}

// Card is an immutable playing card. Two cards are equal iff rank and suit match.
type Card struct {
	Rank Rank
	Suit Suit
}

// NewCard creates a card from rank and suit
func NewCard(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

// String returns the display form, e.g. "10♥" or "Q♠"
func (c Card) String() string {
	return c.Rank.String() + c.Suit.String()
}

// Points returns the dead-wood value of the card
func (c Card) Points() int {
	return c.Rank.Points()
}

// IsRed returns true if the card is red
func (c Card) IsRed() bool {
	return c.Suit.IsRed()
}

// Valid reports whether the card is one of the 52 standard cards
func (c Card) Valid() bool {
	return c.Rank >= Ace && c.Rank <= King && c.Suit <= Clubs
}

// Index returns a stable position 0-51 (suit major, rank minor)
func (c Card) Index() int {
	return int(c.Suit)*13 + int(c.Rank) - 1
}

// Compare orders cards by rank then suit
func Compare(a, b Card) int {
	if a.Rank != b.Rank {
		return int(a.Rank) - int(b.Rank)
	}
	return int(a.Suit) - int(b.Suit)
}

// ParseCard parses a card such as "10h", "Th", "qs", "A♠"
func ParseCard(s string) (Card, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Card{}, fmt.Errorf("invalid card: empty")
	}

	runes := []rune(s)
	suitRune := runes[len(runes)-1]
	rankPart := strings.ToUpper(string(runes[:len(runes)-1]))

	var suit Suit
	switch suitRune {
	case 's', 'S', '♠':
		suit = Spades
	case 'h', 'H', '♥':
		suit = Hearts
	case 'd', 'D', '♦':
		suit = Diamonds
	case 'c', 'C', '♣':
		suit = Clubs
	default:
		return Card{}, fmt.Errorf("invalid suit in %q", s)
	}

	var rank Rank
	switch rankPart {
	case "A", "1":
		rank = Ace
	case "2", "3", "4", "5", "6", "7", "8", "9":
		rank = Rank(rankPart[0] - '0')
	case "10", "T":
		rank = Ten
	case "J":
		rank = Jack
	case "Q":
		rank = Queen
	case "K":
		rank = King
	default:
		return Card{}, fmt.Errorf("invalid rank in %q", s)
	}

	return NewCard(rank, suit), nil
}

// MustParseCards parses a space separated list of cards and panics on error.
// Intended for tests and fixtures.
func MustParseCards(s string) []Card {
	cards, err := ParseCards(s)
	if err != nil {
		panic(err)
	}
	return cards
}

// ParseCards parses a space separated list of cards
func ParseCards(s string) ([]Card, error) {
	fields := strings.Fields(s)
	cards := make([]Card, 0, len(fields))
	for _, f := range fields {
		c, err := ParseCard(f)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, nil
}

// FullSet returns all 52 cards in deck order
func FullSet() []Card {
	cards := make([]Card, 0, 52)
	for _, suit := range Suits {
		for rank := Ace; rank <= King; rank++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return cards
}

// Hand is an unordered multiset of cards owned by one player
type Hand []Card

// Contains reports whether the hand holds the card
func (h Hand) Contains(c Card) bool {
	return slices.Contains(h, c)
}

// Without returns a copy of the hand with the first occurrence of c removed.
// The second return value is false if c is not in the hand.
func (h Hand) Without(c Card) (Hand, bool) {
	idx := slices.Index(h, c)
	if idx < 0 {
		return h.Clone(), false
	}
	out := make(Hand, 0, len(h)-1)
	out = append(out, h[:idx]...)
	out = append(out, h[idx+1:]...)
	return out, true
}

// With returns a copy of the hand with c added
func (h Hand) With(c Card) Hand {
	out := make(Hand, 0, len(h)+1)
	out = append(out, h...)
	return append(out, c)
}

// Clone returns an independent copy
func (h Hand) Clone() Hand {
	if h == nil {
		return nil
	}
	return slices.Clone(h)
}

// Sorted returns a copy ordered by rank then suit
func (h Hand) Sorted() Hand {
	out := h.Clone()
	slices.SortFunc(out, Compare)
	return out
}

// Points sums the dead-wood value of every card
func (h Hand) Points() int {
	total := 0
	for _, c := range h {
		total += c.Points()
	}
	return total
}

// String renders the hand sorted, e.g. "[A♠ 2♠ 3♠ 9♥ K♦]"
func (h Hand) String() string {
	parts := make([]string, len(h))
	for i, c := range h.Sorted() {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}
