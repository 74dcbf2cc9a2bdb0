package rummy

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// ErrDeckExhausted is returned when neither pile can supply a card. Under
// correct accounting this is unreachable, so callers treat it as fatal.
var ErrDeckExhausted = errors.New("deck exhausted")

// Deck holds the face-down draw pile and the face-up discard pile. The top of
// each pile is the last element of its slice.
type Deck struct {
	draw    []Card
	discard []Card
	rng     *rand.Rand // owned by the deck; nothing else may advance it
	refills int
}

// NewDeck creates a shuffled 52-card deck using the supplied RNG
func NewDeck(rng *rand.Rand) *Deck {
	if rng == nil {
		panic("rng is required for deck creation")
	}
	d := &Deck{
		draw: FullSet(),
		rng:  rng,
	}
	d.Shuffle()
	return d
}

// NewDeckFromCards creates a deck whose draw pile is exactly cards, with the
// last element on top. Used to stack the deck in tests.
func NewDeckFromCards(rng *rand.Rand, cards []Card) *Deck {
	if rng == nil {
		panic("rng is required for deck creation")
	}
	draw := make([]Card, len(cards))
	copy(draw, cards)
	return &Deck{draw: draw, rng: rng}
}

// Shuffle shuffles the draw pile in place
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.draw), func(i, j int) {
		d.draw[i], d.draw[j] = d.draw[j], d.draw[i]
	})
}

// Collect returns every card from both piles plus the given hands to the draw
// pile and shuffles, ready for a new deal.
func (d *Deck) Collect(hands ...Hand) {
	for _, h := range hands {
		d.draw = append(d.draw, h...)
	}
	d.draw = append(d.draw, d.discard...)
	d.discard = d.discard[:0]
	d.Shuffle()
}

// CanDraw reports whether Draw would succeed, either directly or by refilling
// the draw pile from the discard pile.
func (d *Deck) CanDraw() bool {
	return len(d.draw) > 0 || len(d.discard) >= 2
}

// Draw removes and returns the top of the draw pile. An empty draw pile is
// refilled from all but the top discard and reshuffled first.
func (d *Deck) Draw() (Card, error) {
	if len(d.draw) == 0 {
		if !d.refill() {
			return Card{}, ErrDeckExhausted
		}
	}
	top := d.draw[len(d.draw)-1]
	d.draw = d.draw[:len(d.draw)-1]
	return top, nil
}

func (d *Deck) refill() bool {
	if len(d.discard) < 2 {
		return false
	}
	top := d.discard[len(d.discard)-1]
	d.draw = append(d.draw, d.discard[:len(d.discard)-1]...)
	d.discard = append(d.discard[:0], top)
	d.Shuffle()
	d.refills++
	return true
}

// Deal draws n cards without refilling from the discard pile
func (d *Deck) Deal(n int) ([]Card, error) {
	if n > len(d.draw) {
		return nil, ErrDeckExhausted
	}
	cards := make([]Card, n)
	for i := range n {
		cards[i] = d.draw[len(d.draw)-1-i]
	}
	d.draw = d.draw[:len(d.draw)-n]
	return cards, nil
}

// Discard pushes a card onto the discard pile
func (d *Deck) Discard(c Card) {
	d.discard = append(d.discard, c)
}

// PeekDiscard returns the top discard without removing it
func (d *Deck) PeekDiscard() (Card, bool) {
	if len(d.discard) == 0 {
		return Card{}, false
	}
	return d.discard[len(d.discard)-1], true
}

// TakeDiscard removes and returns the top discard
func (d *Deck) TakeDiscard() (Card, error) {
	if len(d.discard) == 0 {
		return Card{}, ErrDeckExhausted
	}
	top := d.discard[len(d.discard)-1]
	d.discard = d.discard[:len(d.discard)-1]
	return top, nil
}

// DrawCount returns the number of cards in the draw pile
func (d *Deck) DrawCount() int { return len(d.draw) }

// DiscardCount returns the number of cards in the discard pile
func (d *Deck) DiscardCount() int { return len(d.discard) }

// Refills returns how many times the draw pile was rebuilt from discards
func (d *Deck) Refills() int { return d.refills }

// Cards returns a copy of every card held by the deck, draw pile first
func (d *Deck) Cards() []Card {
	out := make([]Card, 0, len(d.draw)+len(d.discard))
	out = append(out, d.draw...)
	return append(out, d.discard...)
}

// CheckConservation verifies that the deck plus the given hands hold exactly
// the 52 standard cards with no duplicates.
func CheckConservation(d *Deck, hands ...Hand) error {
	var seen [52]bool
	count := 0
	check := func(c Card) error {
		if !c.Valid() {
			return fmt.Errorf("invalid card %v", c)
		}
		if seen[c.Index()] {
			return fmt.Errorf("duplicate card %s", c)
		}
		seen[c.Index()] = true
		count++
		return nil
	}
	for _, c := range d.Cards() {
		if err := check(c); err != nil {
			return err
		}
	}
	for _, h := range hands {
		for _, c := range h {
			if err := check(c); err != nil {
				return err
			}
		}
	}
	if count != 52 {
		return fmt.Errorf("expected 52 cards, found %d", count)
	}
	return nil
}
