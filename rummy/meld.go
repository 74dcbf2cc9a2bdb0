package rummy

import (
	"slices"
	"strings"
)

// MeldKind distinguishes sets from runs
type MeldKind uint8

const (
	// Set is three or four cards of the same rank in distinct suits
	Set MeldKind = iota
	// Run is three or more consecutive ranks of one suit, ace low
	Run
)

// String returns the string representation of the meld kind
func (k MeldKind) String() string {
	switch k {
	case Set:
		return "set"
	case Run:
		return "run"
	default:
		return "unknown"
	}
}

// MinMeldSize is the smallest legal meld
const MinMeldSize = 3

// Meld is a derived grouping of cards from a hand. Melds are recomputed on
// demand and never stored as mutable state.
type Meld struct {
	Kind  MeldKind
	Cards []Card
}

// Points returns the summed value of the melded cards
func (m Meld) Points() int {
	return Hand(m.Cards).Points()
}

// String renders the meld, e.g. "run[3♠ 4♠ 5♠]"
func (m Meld) String() string {
	parts := make([]string, len(m.Cards))
	for i, c := range m.Cards {
		parts[i] = c.String()
	}
	return m.Kind.String() + "[" + strings.Join(parts, " ") + "]"
}

// IsValidMeld reports whether cards form a legal set or run
func IsValidMeld(cards []Card) (MeldKind, bool) {
	if len(cards) < MinMeldSize {
		return 0, false
	}
	if isSet(cards) {
		return Set, true
	}
	if isRun(cards) {
		return Run, true
	}
	return 0, false
}

func isSet(cards []Card) bool {
	if len(cards) > len(Suits) {
		return false
	}
	var suits [4]bool
	for _, c := range cards {
		if c.Rank != cards[0].Rank || suits[c.Suit] {
			return false
		}
		suits[c.Suit] = true
	}
	return true
}

func isRun(cards []Card) bool {
	sorted := slices.Clone(cards)
	slices.SortFunc(sorted, Compare)
	for i, c := range sorted {
		if c.Suit != sorted[0].Suit {
			return false
		}
		if i > 0 && c.Rank != sorted[i-1].Rank+1 {
			return false
		}
	}
	return true
}

// CandidateMelds returns every valid set and run that can be formed from the
// hand, overlapping ones included, in a deterministic order.
func CandidateMelds(hand Hand) []Meld {
	sorted := hand.Sorted()
	var melds []Meld

	// Sets: every subset of size >= 3 among cards sharing a rank
	byRank := make(map[Rank][]Card)
	for _, c := range sorted {
		byRank[c.Rank] = append(byRank[c.Rank], c)
	}
	for rank := Ace; rank <= King; rank++ {
		group := dedupe(byRank[rank])
		if len(group) < MinMeldSize {
			continue
		}
		for mask := 1; mask < 1<<len(group); mask++ {
			var cards []Card
			for i, c := range group {
				if mask&(1<<i) != 0 {
					cards = append(cards, c)
				}
			}
			if len(cards) >= MinMeldSize {
				melds = append(melds, Meld{Kind: Set, Cards: cards})
			}
		}
	}

	// Runs: every window of length >= 3 inside a same-suit consecutive stretch
	for _, suit := range Suits {
		var ofSuit []Card
		for _, c := range sorted {
			if c.Suit == suit {
				ofSuit = append(ofSuit, c)
			}
		}
		ofSuit = dedupe(ofSuit)
		start := 0
		for start < len(ofSuit) {
			end := start + 1
			for end < len(ofSuit) && ofSuit[end].Rank == ofSuit[end-1].Rank+1 {
				end++
			}
			for i := start; i < end; i++ {
				for j := i + MinMeldSize; j <= end; j++ {
					melds = append(melds, Meld{Kind: Run, Cards: slices.Clone(ofSuit[i:j])})
				}
			}
			start = end
		}
	}

	return melds
}

func dedupe(cards []Card) []Card {
	return slices.CompactFunc(slices.Clone(cards), func(a, b Card) bool { return a == b })
}

// Evaluation is the minimum dead-wood cover of a hand
type Evaluation struct {
	Melds          []Meld
	Deadwood       []Card
	DeadwoodPoints int
}

// GoingOut reports whether every card is melded
func (e Evaluation) GoingOut() bool {
	return len(e.Deadwood) == 0
}

// FindMelds chooses the disjoint set of melds that minimises dead-wood. A card
// belongs to at most one meld. Ties prefer fewer dead-wood cards, then the
// first cover found in the deterministic search order, so the result depends
// only on the multiset of cards.
func FindMelds(hand Hand) Evaluation {
	sorted := hand.Sorted()
	candidates := CandidateMelds(sorted)

	// Each candidate as a bitmask over positions in the sorted hand
	masks := make([]uint64, len(candidates))
	for i, m := range candidates {
		masks[i] = positionsMask(sorted, m.Cards)
	}

	total := sorted.Points()
	s := &coverSearch{
		hand:       sorted,
		masks:      masks,
		bestPoints: total,
		bestCards:  len(sorted),
	}
	s.search(0, 0, nil, total, len(sorted))

	eval := Evaluation{DeadwoodPoints: s.bestPoints}
	var used uint64
	for _, idx := range s.best {
		eval.Melds = append(eval.Melds, candidates[idx])
		used |= masks[idx]
	}
	for i, c := range sorted {
		if used&(1<<i) == 0 {
			eval.Deadwood = append(eval.Deadwood, c)
		}
	}
	return eval
}

type coverSearch struct {
	hand       Hand
	masks      []uint64
	best       []int
	bestPoints int
	bestCards  int
}

func (s *coverSearch) search(from int, used uint64, chosen []int, points, cards int) {
	if points < s.bestPoints || (points == s.bestPoints && cards < s.bestCards) {
		s.best = slices.Clone(chosen)
		s.bestPoints = points
		s.bestCards = cards
	}
	for i := from; i < len(s.masks); i++ {
		if used&s.masks[i] != 0 {
			continue
		}
		meldPoints, meldCards := 0, 0
		for pos, c := range s.hand {
			if s.masks[i]&(1<<pos) != 0 {
				meldPoints += c.Points()
				meldCards++
			}
		}
		s.search(i+1, used|s.masks[i], append(chosen, i), points-meldPoints, cards-meldCards)
	}
}

// positionsMask maps meld cards onto distinct positions of the sorted hand
func positionsMask(hand Hand, cards []Card) uint64 {
	var mask uint64
	for _, c := range cards {
		for pos, h := range hand {
			if h == c && mask&(1<<pos) == 0 {
				mask |= 1 << pos
				break
			}
		}
	}
	return mask
}

// Deadwood returns the minimum dead-wood points of the hand
func Deadwood(hand Hand) int {
	return FindMelds(hand).DeadwoodPoints
}

// IsGoingOut reports whether the hand has zero dead-wood
func IsGoingOut(hand Hand) bool {
	return FindMelds(hand).GoingOut()
}

// IsLegalKnock reports whether the hand's dead-wood is within the threshold
func IsLegalKnock(hand Hand, threshold int) bool {
	return Deadwood(hand) <= threshold
}

// KnockOptions returns the cards that can be discarded from hand while leaving
// a legal knock. Duplicate cards are reported once, in rank order.
func KnockOptions(hand Hand, threshold int) []Card {
	var options []Card
	for _, c := range hand.Sorted() {
		if slices.Contains(options, c) {
			continue
		}
		rest, _ := hand.Without(c)
		if IsLegalKnock(rest, threshold) {
			options = append(options, c)
		}
	}
	return options
}

// BestDiscard returns the discard that leaves the lowest dead-wood, ties going
// to the higher-value card. excluded cards are never chosen.
func BestDiscard(hand Hand, excluded ...Card) (Card, Evaluation) {
	var (
		best     Card
		bestEval Evaluation
		found    bool
	)
	for _, c := range hand.Sorted() {
		if slices.Contains(excluded, c) {
			continue
		}
		rest, _ := hand.Without(c)
		eval := FindMelds(rest)
		if !found || eval.DeadwoodPoints < bestEval.DeadwoodPoints ||
			(eval.DeadwoodPoints == bestEval.DeadwoodPoints && c.Points() >= best.Points()) {
			best, bestEval, found = c, eval, true
		}
	}
	return best, bestEval
}

// fitsMeld reports whether c can be laid off onto m
func fitsMeld(m Meld, c Card) bool {
	if slices.Contains(m.Cards, c) {
		return false
	}
	switch m.Kind {
	case Set:
		return len(m.Cards) < len(Suits) && c.Rank == m.Cards[0].Rank
	case Run:
		if c.Suit != m.Cards[0].Suit {
			return false
		}
		lo, hi := m.Cards[0].Rank, m.Cards[0].Rank
		for _, mc := range m.Cards {
			lo = min(lo, mc.Rank)
			hi = max(hi, mc.Rank)
		}
		return c.Rank+1 == lo || c.Rank == hi+1
	}
	return false
}

func extendMeld(m Meld, c Card) Meld {
	cards := append(slices.Clone(m.Cards), c)
	slices.SortFunc(cards, Compare)
	return Meld{Kind: m.Kind, Cards: cards}
}

// LayOff places as many points of cards as possible onto the given melds,
// searching every order so that chained run extensions are found. It returns
// the cards laid off and the cards that remain.
func LayOff(melds []Meld, cards []Card) (laid, remaining []Card) {
	bestLaid := []Card{}
	bestPoints := 0

	var try func(melds []Meld, left []Card, laidSoFar []Card, points int)
	try = func(melds []Meld, left []Card, laidSoFar []Card, points int) {
		if points > bestPoints {
			bestPoints = points
			bestLaid = slices.Clone(laidSoFar)
		}
		for i, c := range left {
			for j, m := range melds {
				if !fitsMeld(m, c) {
					continue
				}
				next := slices.Clone(melds)
				next[j] = extendMeld(m, c)
				rest := slices.Delete(slices.Clone(left), i, i+1)
				try(next, rest, append(laidSoFar, c), points+c.Points())
			}
		}
	}
	try(melds, Hand(cards).Sorted(), nil, 0)

	remaining = Hand(cards).Clone()
	for _, c := range bestLaid {
		remaining, _ = Hand(remaining).Without(c)
	}
	return bestLaid, remaining
}
